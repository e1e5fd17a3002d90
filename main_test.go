package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/3leaps/jbi/internal/model"
	"github.com/3leaps/jbi/internal/products"
)

func isolateEnv(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(root, "config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(root, "data"))
	t.Setenv("JBI_API_BASE", "")
	t.Setenv("JBI_APP_DIR", "")
	t.Setenv("NO_COLOR", "1")
	return root
}

func parseSettings(t *testing.T, args ...string) (*settings, error) {
	t.Helper()
	a := &app{registry: products.Default()}
	cmd := a.command()
	if err := cmd.ParseFlags(args); err != nil {
		t.Fatalf("parse flags %v: %v", args, err)
	}
	return resolveSettings(cmd.Flags(), &a.flags)
}

func writeConfig(t *testing.T, root, body string) string {
	t.Helper()
	p := filepath.Join(root, "config", "jbi", "config.yaml")
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return p
}

func TestSettingsDefaults(t *testing.T) {
	root := isolateEnv(t)
	s, err := parseSettings(t)
	if err != nil {
		t.Fatalf("resolveSettings: %v", err)
	}
	if s.Options.InstallPrefix != "/opt" || s.Options.TempDir != "/tmp" {
		t.Fatalf("prefix/tmpdir: got %q / %q", s.Options.InstallPrefix, s.Options.TempDir)
	}
	if want := filepath.Join(root, "data", "applications"); s.Options.AppDir != want {
		t.Fatalf("app dir: got %q want %q", s.Options.AppDir, want)
	}
	if s.APIBase != "https://data.services.jetbrains.com" || s.Timeout != 30*time.Second {
		t.Fatalf("api base/timeout: got %q / %v", s.APIBase, s.Timeout)
	}
	if s.Options.ForceReinstall || s.Options.InstallAfterDownload || s.Options.CreateSymlink || s.Options.CreateDesktopEntry {
		t.Fatalf("switches should default off: %+v", s.Options)
	}
}

func TestSettingsPrecedence(t *testing.T) {
	root := isolateEnv(t)
	writeConfig(t, root, "prefix: /srv/ide\ntmpdir: /var/tmp/jbi\nappDir: /cfg/apps\napiBase: http://mirror.local/\ntimeout: 5s\n")

	s, err := parseSettings(t)
	if err != nil {
		t.Fatalf("resolveSettings: %v", err)
	}
	if s.Options.InstallPrefix != "/srv/ide" || s.Options.TempDir != "/var/tmp/jbi" || s.Options.AppDir != "/cfg/apps" {
		t.Fatalf("config file not applied: %+v", s.Options)
	}
	if s.APIBase != "http://mirror.local" || s.Timeout != 5*time.Second {
		t.Fatalf("config api base/timeout: got %q / %v", s.APIBase, s.Timeout)
	}

	t.Setenv("JBI_API_BASE", "http://env.local/")
	t.Setenv("JBI_APP_DIR", "/env/apps")
	s, err = parseSettings(t, "--prefix", "/flag/prefix", "-t", "/flag/tmp", "-f", "-i", "-l", "-a", "-v")
	if err != nil {
		t.Fatalf("resolveSettings: %v", err)
	}
	if s.APIBase != "http://env.local" || s.Options.AppDir != "/env/apps" {
		t.Fatalf("env should beat config: %q / %q", s.APIBase, s.Options.AppDir)
	}
	if s.Options.InstallPrefix != "/flag/prefix" || s.Options.TempDir != "/flag/tmp" {
		t.Fatalf("flags should beat config: %+v", s.Options)
	}
	if !s.Options.ForceReinstall || !s.Options.InstallAfterDownload || !s.Options.CreateSymlink || !s.Options.CreateDesktopEntry || !s.Verbose {
		t.Fatalf("switches not applied: %+v verbose=%v", s.Options, s.Verbose)
	}
}

func TestLoadConfigFile(t *testing.T) {
	root := isolateEnv(t)

	if _, err := loadConfigFile(""); err != nil {
		t.Fatalf("missing default config should be ignored: %v", err)
	}
	if _, err := loadConfigFile(filepath.Join(root, "nope.yaml")); err == nil {
		t.Fatalf("missing explicit config should fail")
	}

	empty := writeConfig(t, root, "")
	if cfg, err := loadConfigFile(empty); err != nil || cfg != (fileConfig{}) {
		t.Fatalf("empty config: got %+v err %v", cfg, err)
	}

	unknown := writeConfig(t, root, "prefix: /x\nmirror: yes\n")
	if _, err := loadConfigFile(unknown); err == nil || !strings.Contains(err.Error(), "mirror") {
		t.Fatalf("unknown key should be rejected, got %v", err)
	}

	negative := writeConfig(t, root, "timeout: -1s\n")
	if _, err := loadConfigFile(negative); err == nil {
		t.Fatalf("negative timeout should be rejected")
	}
}

func TestFoundLine(t *testing.T) {
	clion, err := products.Default().Resolve("CL")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	rel := &model.ReleaseInfo{Version: "2024.1.3", Build: "241.17011.2", Date: "2024-06-01"}
	got := foundLine(clion, rel, "CLion-2024.1.3.tar.gz", 2048)
	want := "Found CLion version 2024.1.3 (build 241.17011.2, 2024-06-01), file: CLion-2024.1.3.tar.gz (2048 bytes, 2.0 KiB)"
	if got != want {
		t.Fatalf("found line:\ngot  %q\nwant %q", got, want)
	}

	bare := foundLine(clion, &model.ReleaseInfo{Version: "2024.1"}, "a.tar.gz", 10)
	if strings.Contains(bare, "(build") || !strings.HasPrefix(bare, "Found CLion version 2024.1, file: a.tar.gz") {
		t.Fatalf("bare found line: %q", bare)
	}
}
