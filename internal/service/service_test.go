package service

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/chris/sprout/config"
	"github.com/chris/sprout/internal/store"
)

var testNow = time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)

func validConfig() *config.Config {
	return &config.Config{
		StoreBackend:   "sqlite",
		DatabasePath:   "/var/sprout/sprout.db",
		LLMProvider:    "ollama",
		Notifier:       "webhook",
		DiscordWebhook: "https://discord.example/hook",
		CareCron:       "0 8 * * *",
	}
}

// testManager points every path at a scratch dir and records commands
// instead of running them.
func testManager(t *testing.T) (*Manager, *[]string, *bytes.Buffer) {
	t.Helper()
	dir := t.TempDir()
	exe := filepath.Join(dir, "build", "sprout")
	os.MkdirAll(filepath.Dir(exe), 0o755)
	if err := os.WriteFile(exe, []byte("binary"), 0o755); err != nil {
		t.Fatal(err)
	}

	var calls []string
	var out bytes.Buffer
	m := &Manager{
		Home:       filepath.Join(dir, "home"),
		ConfigDir:  filepath.Join(dir, "home", ".sprout"),
		BinPath:    filepath.Join(dir, "bin", "sprout"),
		EnvFile:    filepath.Join(dir, "missing.env"),
		Out:        &out,
		executable: func() (string, error) { return exe, nil },
		command: func(name string, args ...string) ([]byte, error) {
			calls = append(calls, name+" "+strings.Join(args, " "))
			return nil, nil
		},
		now: func() time.Time { return testNow },
	}
	return m, &calls, &out
}

func TestCheck(t *testing.T) {
	if err := Check(validConfig()); err != nil {
		t.Fatalf("valid config: %v", err)
	}

	tests := []struct {
		name   string
		modify func(*config.Config)
		want   string
	}{
		{"bad care schedule", func(c *config.Config) { c.CareCron = "every morning" }, "CARE_CRON"},
		{"bad sync schedule", func(c *config.Config) { c.SyncCron = "*/61 * * *" }, "SYNC_CRON"},
		{"missing webhook", func(c *config.Config) { c.DiscordWebhook = "" }, "DISCORD_WEBHOOK_URL"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.modify(c)
			err := Check(c)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Check = %v, want error mentioning %s", err, tt.want)
			}
		})
	}
}

func TestInstall(t *testing.T) {
	m, calls, _ := testManager(t)
	if err := m.Install(validConfig()); err != nil {
		t.Fatalf("Install: %v", err)
	}

	if data, err := os.ReadFile(m.BinPath); err != nil || string(data) != "binary" {
		t.Errorf("installed binary = %q, %v", data, err)
	}
	plist, err := os.ReadFile(m.plistPath())
	if err != nil {
		t.Fatalf("reading plist: %v", err)
	}
	if !strings.Contains(string(plist), "<string>"+m.BinPath+"</string>") {
		t.Errorf("plist does not run the installed binary:\n%s", plist)
	}
	want := "launchctl load " + m.plistPath()
	if len(*calls) != 1 || (*calls)[0] != want {
		t.Errorf("commands = %q, want [%q]", *calls, want)
	}
}

func TestInstallRefusesBadConfig(t *testing.T) {
	m, calls, _ := testManager(t)
	cfg := validConfig()
	cfg.CareCron = "8am daily"

	err := m.Install(cfg)
	if err == nil || !strings.Contains(err.Error(), "CARE_CRON") {
		t.Fatalf("Install = %v, want a CARE_CRON error", err)
	}
	if _, err := os.Stat(m.BinPath); !errors.Is(err, os.ErrNotExist) {
		t.Error("binary was installed despite the bad config")
	}
	if _, err := os.Stat(m.plistPath()); !errors.Is(err, os.ErrNotExist) {
		t.Error("plist was written despite the bad config")
	}
	if len(*calls) != 0 {
		t.Errorf("commands = %q", *calls)
	}
}

func TestInstallSeedsConfig(t *testing.T) {
	m, _, _ := testManager(t)
	m.EnvFile = filepath.Join(t.TempDir(), ".env")
	os.WriteFile(m.EnvFile, []byte("NOTIFIER=webhook\n"), 0o600)

	if err := m.Install(validConfig()); err != nil {
		t.Fatalf("Install: %v", err)
	}
	if data, _ := os.ReadFile(m.configFile()); string(data) != "NOTIFIER=webhook\n" {
		t.Errorf("seeded config = %q", data)
	}
}

type runLog struct {
	last *store.Run
	err  error
}

func (r runLog) RecordRun(context.Context, store.Run) error  { return nil }
func (r runLog) LastRun(context.Context) (*store.Run, error) { return r.last, r.err }

func TestStatus(t *testing.T) {
	m, _, out := testManager(t)
	m.command = func(string, ...string) ([]byte, error) {
		return []byte("{\n\t\"PID\" = 4242;\n\t\"Label\" = \"com.sprout.advisor\";\n};\n"), nil
	}
	cfg := validConfig()
	cfg.SyncCron = "0 */6 * * *"
	runs := runLog{last: &store.Run{Tasks: 3, Summary: "thirsty week", CreatedAt: "2026-03-10T06:00:00Z"}}

	if err := m.Status(context.Background(), cfg, runs); err != nil {
		t.Fatalf("Status: %v", err)
	}
	for _, want := range []string{
		"running (pid 4242)",
		"next run:  2026-03-11 08:00",
		"next sync: 2026-03-10 12:00",
		"last run:  2 hours ago, 3 tasks: thirsty week",
	} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("status missing %q:\n%s", want, out)
		}
	}
}

func TestStatusNotLoaded(t *testing.T) {
	m, _, out := testManager(t)
	m.command = func(string, ...string) ([]byte, error) { return nil, errors.New("Could not find service") }

	if err := m.Status(context.Background(), validConfig(), runLog{}); err != nil {
		t.Fatalf("Status: %v", err)
	}
	if s := out.String(); !strings.Contains(s, "not loaded") || !strings.Contains(s, "last run:  never") {
		t.Errorf("status = %q", s)
	}

	out.Reset()
	if err := m.Status(context.Background(), validConfig(), nil); err != nil {
		t.Fatalf("Status without run log: %v", err)
	}
	if strings.Contains(out.String(), "last run") {
		t.Errorf("status without run log = %q", out)
	}

	if err := m.Status(context.Background(), validConfig(), runLog{err: errors.New("locked")}); err == nil {
		t.Error("expected the run log error")
	}
}

func TestRenderPlist(t *testing.T) {
	m := &Manager{Home: "/Users/chris", BinPath: "/usr/local/bin/sprout"}
	got, err := m.renderPlist("/Users/chris/plants")
	if err != nil {
		t.Fatalf("renderPlist: %v", err)
	}
	for _, want := range []string{
		"<string>com.sprout.advisor</string>",
		"<string>/usr/local/bin/sprout</string>\n\t\t<string>schedule</string>",
		"<string>/Users/chris/plants</string>",
		"/Users/chris/Library/Logs/sprout-stdout.log",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("plist missing %q", want)
		}
	}
}

func TestWorkDirFor(t *testing.T) {
	wd := func() (string, error) { return "/work", nil }
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"no config", nil, "/cfg"},
		{"absolute db", map[string]string{"DATABASE_PATH": "/var/sprout.db"}, "/cfg"},
		{"relative db", map[string]string{"DATABASE_PATH": "./sprout.db"}, "/work"},
		{"relative cache", map[string]string{"GUIDELINE_CACHE": "data/plant_cache.json"}, "/work"},
		{"relative sync state", map[string]string{"SYNC_STATE": "data/sync_state.json"}, "/work"},
		{"inline credentials", map[string]string{"G_SHEET_CREDENTIALS": `{"type":"service_account"}`}, "/cfg"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := workDirFor(tt.env, "/cfg", wd); got != tt.want {
				t.Errorf("workDirFor = %q, want %q", got, tt.want)
			}
		})
	}

	broken := func() (string, error) { return "", errors.New("gone") }
	if got := workDirFor(map[string]string{"DATABASE_PATH": "x.db"}, "/cfg", broken); got != "/cfg" {
		t.Errorf("expected fallback when getwd fails, got %q", got)
	}
}
