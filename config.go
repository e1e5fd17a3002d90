package main

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/3leaps/jbi/internal/host/jetbrains"
	"github.com/3leaps/jbi/internal/model"
)

const (
	defaultPrefix  = "/opt"
	defaultTmpDir  = "/tmp"
	defaultTimeout = 30 * time.Second
)

// fileConfig is the optional YAML config file. Zero values leave the
// built-in default in place.
type fileConfig struct {
	Prefix  string        `yaml:"prefix"`
	TmpDir  string        `yaml:"tmpdir"`
	AppDir  string        `yaml:"appDir"`
	APIBase string        `yaml:"apiBase"`
	Timeout time.Duration `yaml:"timeout"`
}

// flagValues receives the parsed command line.
type flagValues struct {
	force      bool
	install    bool
	link       bool
	app        bool
	verbose    bool
	prefix     string
	tmpDir     string
	configPath string
}

// settings is the merged run configuration: flag > env > config file > default.
type settings struct {
	Options model.InstallOptions
	APIBase string
	Timeout time.Duration
	Verbose bool
}

func defaultConfigPath() string {
	base := strings.TrimSpace(os.Getenv("XDG_CONFIG_HOME"))
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "jbi", "config.yaml")
}

func defaultAppDir() string {
	base := strings.TrimSpace(os.Getenv("XDG_DATA_HOME"))
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = "~"
		}
		base = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(base, "applications")
}

// loadConfigFile reads path, or the default location when path is empty.
// Only an explicitly named file has to exist.
func loadConfigFile(path string) (fileConfig, error) {
	var cfg fileConfig
	explicit := path != ""
	if !explicit {
		path = defaultConfigPath()
		if path == "" {
			return cfg, nil
		}
	}

	// #nosec G304 -- config path chosen by the user
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return cfg, nil
		}
		return cfg, errors.Wrapf(err, "open config %s", path)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, errors.Wrapf(err, "parse config %s", path)
	}
	if cfg.Timeout < 0 {
		return cfg, errors.Newf("parse config %s: timeout must not be negative", path)
	}
	return cfg, nil
}

func resolveSettings(fs *pflag.FlagSet, fv *flagValues) (*settings, error) {
	s := &settings{
		Options: model.InstallOptions{
			InstallPrefix: defaultPrefix,
			TempDir:       defaultTmpDir,
			AppDir:        defaultAppDir(),
		},
		APIBase: jetbrains.DefaultAPIBase,
		Timeout: defaultTimeout,
	}

	fc, err := loadConfigFile(fv.configPath)
	if err != nil {
		return nil, err
	}
	if fc.Prefix != "" {
		s.Options.InstallPrefix = fc.Prefix
	}
	if fc.TmpDir != "" {
		s.Options.TempDir = fc.TmpDir
	}
	if fc.AppDir != "" {
		s.Options.AppDir = fc.AppDir
	}
	if fc.APIBase != "" {
		s.APIBase = strings.TrimRight(fc.APIBase, "/")
	}
	if fc.Timeout > 0 {
		s.Timeout = fc.Timeout
	}

	if v := jetbrains.APIBaseFromEnv(); v != "" {
		s.APIBase = v
	}
	if v := strings.TrimSpace(os.Getenv("JBI_APP_DIR")); v != "" {
		s.Options.AppDir = v
	}

	if fs.Changed("prefix") {
		s.Options.InstallPrefix = fv.prefix
	}
	if fs.Changed("tmpdir") {
		s.Options.TempDir = fv.tmpDir
	}
	s.Options.ForceReinstall = fv.force
	s.Options.InstallAfterDownload = fv.install
	s.Options.CreateSymlink = fv.link
	s.Options.CreateDesktopEntry = fv.app
	s.Verbose = fv.verbose
	return s, nil
}
