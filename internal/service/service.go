// Package service installs sprout as a launchd agent running the scheduler
// and reports on the installed agent.
package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"text/template"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/dustin/go-humanize/english"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"github.com/chris/sprout/config"
	"github.com/chris/sprout/internal/store"
)

const Label = "com.sprout.advisor"

// Manager holds everything the agent commands touch on disk, so tests can
// point it at a scratch directory.
type Manager struct {
	Home      string // LaunchAgents and Logs live under it
	ConfigDir string
	BinPath   string
	EnvFile   string // seeds the config on first install
	Out       io.Writer

	executable func() (string, error)
	command    func(name string, args ...string) ([]byte, error)
	now        func() time.Time
}

func NewManager() *Manager {
	home, _ := os.UserHomeDir()
	return &Manager{
		Home:       home,
		ConfigDir:  config.ConfigDir(),
		BinPath:    "/usr/local/bin/sprout",
		EnvFile:    ".env",
		Out:        os.Stdout,
		executable: os.Executable,
		command:    runCommand,
		now:        time.Now,
	}
}

func (m *Manager) plistPath() string {
	return filepath.Join(m.Home, "Library", "LaunchAgents", Label+".plist")
}

func (m *Manager) logPaths() (stdout, stderr string) {
	dir := filepath.Join(m.Home, "Library", "Logs")
	return filepath.Join(dir, "sprout-stdout.log"), filepath.Join(dir, "sprout-stderr.log")
}

func (m *Manager) configFile() string {
	return filepath.Join(m.ConfigDir, "config")
}

// Check reports every problem that would stop the scheduler from running
// with cfg: missing credentials and schedules cron cannot parse.
func Check(cfg *config.Config) error {
	var errs []error
	if err := cfg.Validate(); err != nil {
		errs = append(errs, err)
	}
	if _, err := cron.ParseStandard(cfg.CareCron); err != nil {
		errs = append(errs, fmt.Errorf("CARE_CRON %q: %w", cfg.CareCron, err))
	}
	if cfg.SyncCron != "" {
		if _, err := cron.ParseStandard(cfg.SyncCron); err != nil {
			errs = append(errs, fmt.Errorf("SYNC_CRON %q: %w", cfg.SyncCron, err))
		}
	}
	return errors.Join(errs...)
}

// Install checks cfg, copies the running binary to BinPath, seeds the config
// from EnvFile when there is none yet, then writes and loads the plist.
// Nothing is touched when the check fails.
func (m *Manager) Install(cfg *config.Config) error {
	if err := Check(cfg); err != nil {
		return fmt.Errorf("not installing, fix the config first:\n%w", err)
	}
	if err := m.installBinary(); err != nil {
		return err
	}
	if err := m.seedConfig(); err != nil {
		return err
	}

	envVars, _ := godotenv.Read(m.configFile())
	plist, err := m.renderPlist(workDirFor(envVars, m.ConfigDir, os.Getwd))
	if err != nil {
		return fmt.Errorf("generating plist: %w", err)
	}

	path := m.plistPath()
	if _, err := os.Stat(path); err == nil {
		_, _ = m.command("launchctl", "unload", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating LaunchAgents dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(plist), 0o644); err != nil {
		return fmt.Errorf("writing plist: %w", err)
	}
	fmt.Fprintf(m.Out, "wrote plist to %s\n", path)

	if _, err := m.command("launchctl", "load", path); err != nil {
		return fmt.Errorf("loading plist: %w", err)
	}
	fmt.Fprintf(m.Out, "service loaded; care runs on %q\n", cfg.CareCron)
	return nil
}

func (m *Manager) installBinary() error {
	exe, err := m.executable()
	if err != nil {
		return fmt.Errorf("resolving executable path: %w", err)
	}
	if exe, err = filepath.EvalSymlinks(exe); err != nil {
		return fmt.Errorf("resolving symlinks: %w", err)
	}
	if exe == m.BinPath {
		return nil
	}

	src, err := os.Open(exe)
	if err != nil {
		return fmt.Errorf("reading binary: %w", err)
	}
	defer src.Close()

	if err := os.MkdirAll(filepath.Dir(m.BinPath), 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Dir(m.BinPath), err)
	}
	tmp := m.BinPath + ".new"
	dst, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o755)
	if err != nil {
		return fmt.Errorf("copying binary: %w", err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return fmt.Errorf("copying binary: %w", err)
	}
	if err := dst.Close(); err != nil {
		return fmt.Errorf("copying binary: %w", err)
	}
	if err := os.Rename(tmp, m.BinPath); err != nil {
		return fmt.Errorf("installing binary to %s: %w", m.BinPath, err)
	}
	fmt.Fprintf(m.Out, "installed binary to %s\n", m.BinPath)
	return nil
}

func (m *Manager) seedConfig() error {
	path := m.configFile()
	if _, err := os.Stat(path); err == nil {
		fmt.Fprintf(m.Out, "config already exists at %s\n", path)
		return nil
	}
	data, err := os.ReadFile(m.EnvFile)
	if err != nil {
		return nil
	}
	if err := os.MkdirAll(m.ConfigDir, 0o700); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	fmt.Fprintf(m.Out, "seeded config from %s -> %s\n", m.EnvFile, path)
	return nil
}

// workDirFor picks the agent's working directory: the current directory when
// the config names a relative data path, otherwise the config dir.
func workDirFor(envVars map[string]string, configDir string, getwd func() (string, error)) string {
	for _, key := range []string{"DATABASE_PATH", "GUIDELINE_CACHE", "SYNC_STATE", "G_SHEET_CREDENTIALS"} {
		p := strings.TrimSpace(envVars[key])
		if p == "" || filepath.IsAbs(p) || strings.HasPrefix(p, "{") {
			continue
		}
		if wd, err := getwd(); err == nil {
			return wd
		}
	}
	return configDir
}

// Uninstall unloads and removes the plist and the installed binary.
func (m *Manager) Uninstall() error {
	path := m.plistPath()
	if _, err := os.Stat(path); err == nil {
		if _, err := m.command("launchctl", "unload", path); err != nil {
			fmt.Fprintf(m.Out, "warning: unload failed: %v\n", err)
		}
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("removing plist: %w", err)
		}
		fmt.Fprintf(m.Out, "removed %s\n", path)
	}
	if err := os.Remove(m.BinPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing binary: %w", err)
	}
	fmt.Fprintln(m.Out, "uninstalled")
	return nil
}

func (m *Manager) Start() error {
	_, err := m.command("launchctl", "start", Label)
	return err
}

func (m *Manager) Stop() error {
	_, err := m.command("launchctl", "stop", Label)
	return err
}

// Restart kills the running scheduler and lets launchd start it again.
func (m *Manager) Restart() error {
	target := fmt.Sprintf("gui/%d/%s", os.Getuid(), Label)
	_, err := m.command("launchctl", "kickstart", "-k", target)
	return err
}

var pidLine = regexp.MustCompile(`"PID" = (\d+);`)

type status struct {
	Loaded   bool
	PID      int
	CareNext time.Time
	SyncNext time.Time
	Runs     bool // whether the backend keeps a run log
	LastRun  *store.Run
}

// Status prints whether the agent is loaded, when the next passes fire, and
// the last advisor run. runs may be nil for backends without a run log.
func (m *Manager) Status(ctx context.Context, cfg *config.Config, runs store.RunRecorder) error {
	now := m.now()
	st := status{CareNext: nextFire(cfg.CareCron, now), SyncNext: nextFire(cfg.SyncCron, now)}
	if out, err := m.command("launchctl", "list", Label); err == nil {
		st.Loaded = true
		if match := pidLine.FindSubmatch(out); match != nil {
			st.PID, _ = strconv.Atoi(string(match[1]))
		}
	}
	if runs != nil {
		run, err := runs.LastRun(ctx)
		if err != nil {
			return fmt.Errorf("reading last run: %w", err)
		}
		st.Runs, st.LastRun = true, run
	}
	writeStatus(m.Out, st, now)
	return nil
}

func nextFire(spec string, now time.Time) time.Time {
	sched, err := cron.ParseStandard(spec)
	if spec == "" || err != nil {
		return time.Time{}
	}
	return sched.Next(now)
}

func writeStatus(w io.Writer, st status, now time.Time) {
	switch {
	case st.PID > 0:
		fmt.Fprintf(w, "service:   running (pid %d)\n", st.PID)
	case st.Loaded:
		fmt.Fprintln(w, "service:   loaded, not running")
	default:
		fmt.Fprintln(w, "service:   not loaded")
	}

	when := func(t time.Time) string {
		return fmt.Sprintf("%s (%s)", t.Format("2006-01-02 15:04"), humanize.RelTime(t, now, "ago", "from now"))
	}
	if !st.CareNext.IsZero() {
		fmt.Fprintf(w, "next run:  %s\n", when(st.CareNext))
	}
	if !st.SyncNext.IsZero() {
		fmt.Fprintf(w, "next sync: %s\n", when(st.SyncNext))
	}

	switch {
	case !st.Runs:
		return
	case st.LastRun == nil:
		fmt.Fprintln(w, "last run:  never")
	default:
		line := english.Plural(st.LastRun.Tasks, "task", "")
		if t, err := st.LastRun.Time(); err == nil {
			line = humanize.RelTime(t, now, "ago", "from now") + ", " + line
		}
		if st.LastRun.Summary != "" {
			line += ": " + st.LastRun.Summary
		}
		fmt.Fprintf(w, "last run:  %s\n", line)
	}
}

// Logs prints the last lines of both log files, following them when
// follow is set.
func (m *Manager) Logs(lines int, follow bool) error {
	stdout, stderr := m.logPaths()
	args := []string{"-n", strconv.Itoa(lines)}
	if follow {
		args = append(args, "-f")
	}
	cmd := exec.Command("tail", append(args, stdout, stderr)...)
	cmd.Stdout = m.Out
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

func runCommand(name string, args ...string) ([]byte, error) {
	cmd := exec.Command(name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return out, fmt.Errorf("%s %s: %s", name, strings.Join(args, " "), msg)
		}
		return out, fmt.Errorf("%s %s: %w", name, strings.Join(args, " "), err)
	}
	return out, nil
}

var plistTemplate = template.Must(template.New("plist").Parse(`<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
	<key>Label</key>
	<string>{{.Label}}</string>
	<key>ProgramArguments</key>
	<array>
		<string>{{.BinPath}}</string>
		<string>schedule</string>
	</array>
	<key>WorkingDirectory</key>
	<string>{{.WorkDir}}</string>
	<key>RunAtLoad</key>
	<true/>
	<key>KeepAlive</key>
	<true/>
	<key>StandardOutPath</key>
	<string>{{.StdoutLog}}</string>
	<key>StandardErrorPath</key>
	<string>{{.StderrLog}}</string>
</dict>
</plist>
`))

func (m *Manager) renderPlist(workDir string) (string, error) {
	stdout, stderr := m.logPaths()
	var buf bytes.Buffer
	err := plistTemplate.Execute(&buf, struct {
		Label, BinPath, WorkDir, StdoutLog, StderrLog string
	}{Label, m.BinPath, workDir, stdout, stderr})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}
