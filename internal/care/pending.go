package care

import "strings"

const (
	statusOK      = "OK"
	statusPending = "PENDING"
)

// Pending is the ordered set of actions awaiting confirmation for a plant.
// It serializes to the Status column as "OK" or "PENDING_<A>_<B>...".
type Pending []Action

// ParsePending reads a Status value. Anything that does not start with
// PENDING is treated as no pending actions.
func ParsePending(status string) Pending {
	status = strings.TrimSpace(status)
	if !strings.HasPrefix(status, statusPending) {
		return nil
	}
	var p Pending
	for _, tok := range strings.Split(strings.TrimPrefix(status, statusPending), "_") {
		if tok == "" {
			continue
		}
		p = p.Add(Action(tok))
	}
	return p
}

// String renders the Status column value.
func (p Pending) String() string {
	if len(p) == 0 {
		return statusOK
	}
	parts := make([]string, 0, len(p)+1)
	parts = append(parts, statusPending)
	for _, a := range p {
		parts = append(parts, string(a))
	}
	return strings.Join(parts, "_")
}

// IsPending reports whether any action is outstanding.
func (p Pending) IsPending() bool {
	return len(p) > 0
}

func (p Pending) Has(a Action) bool {
	for _, x := range p {
		if x == a {
			return true
		}
	}
	return false
}

// Add returns the set with a appended, or p unchanged if a is already present.
func (p Pending) Add(a Action) Pending {
	if p.Has(a) {
		return p
	}
	out := make(Pending, len(p), len(p)+1)
	copy(out, p)
	return append(out, a)
}

// Remove returns the set without a. Removing an absent action is a no-op.
func (p Pending) Remove(a Action) Pending {
	if !p.Has(a) {
		return p
	}
	out := make(Pending, 0, len(p)-1)
	for _, x := range p {
		if x != a {
			out = append(out, x)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
