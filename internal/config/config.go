// Package config handles loading, saving, and resolving the RepoMirror
// machine configuration file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/skaphos/repomirror/internal/pathutil"
	"go.yaml.in/yaml/v3"
)

const (
	// LocalConfigFilename is the per-directory RepoMirror config file.
	LocalConfigFilename = ".repomirror.yaml"
	// ConfigAPIVersion is the current config schema apiVersion.
	ConfigAPIVersion = "skaphos.io/repomirror/v1beta1"
	// ConfigKind is the current config schema kind.
	ConfigKind = "RepoMirrorConfig"
	// DefaultRegistryFilename is the registry record kept next to the config.
	DefaultRegistryFilename = "repositories.json"

	// EnvConfig overrides the config location.
	EnvConfig = "REPOMIRROR_CONFIG"
	// EnvS3AccessKey and EnvS3SecretKey carry object-storage credentials.
	EnvS3AccessKey = "REPOMIRROR_S3_ACCESS_KEY"
	EnvS3SecretKey = "REPOMIRROR_S3_SECRET_KEY"
)

// SinkKind selects where mirrored files are written.
type SinkKind string

const (
	SinkLocal SinkKind = "local"
	SinkS3    SinkKind = "s3"
)

// Defaults holds default values for operations.
type Defaults struct {
	Concurrency int `yaml:"concurrency"`
	// TimeoutSeconds bounds each HTTP fetch. Zero disables the timeout.
	TimeoutSeconds  int    `yaml:"timeout_seconds"`
	PollIntervalMS  int    `yaml:"poll_interval_ms"`
	MaxListingPages int    `yaml:"max_listing_pages"`
	UserAgent       string `yaml:"user_agent,omitempty"`
}

// S3 holds object-storage sink settings. Credentials are read from the
// environment.
type S3 struct {
	Endpoint string `yaml:"endpoint"`
	Region   string `yaml:"region,omitempty"`
	Bucket   string `yaml:"bucket"`
	Prefix   string `yaml:"prefix,omitempty"`
	UseSSL   bool   `yaml:"use_ssl"`
}

// Sink configures the mirror destination.
type Sink struct {
	Kind SinkKind `yaml:"kind"`
	S3   S3       `yaml:"s3,omitempty"`
}

// Config represents the machine-level RepoMirror configuration.
type Config struct {
	APIVersion string `yaml:"apiVersion"`
	Kind       string `yaml:"kind"`
	// PreferUnstable selects each repository's default branch instead of its
	// newest release when no target is requested.
	PreferUnstable bool           `yaml:"prefer_unstable"`
	MirrorRoot     string         `yaml:"mirror_root"`
	RegistryPath   string         `yaml:"registry_path,omitempty"`
	Hosts          pathutil.Hosts `yaml:"hosts"`
	Exclude        []string       `yaml:"exclude"`
	Defaults       Defaults       `yaml:"defaults"`
	Sink           Sink           `yaml:"sink"`
}

// DefaultConfig returns a Config with sensible defaults applied.
func DefaultConfig() Config {
	return Config{
		APIVersion: ConfigAPIVersion,
		Kind:       ConfigKind,
		MirrorRoot: "mirror",
		Hosts:      pathutil.DefaultHosts(),
		Exclude:    []string{},
		Defaults: Defaults{
			Concurrency:     8,
			TimeoutSeconds:  60,
			PollIntervalMS:  200,
			MaxListingPages: 20,
		},
		Sink: Sink{Kind: SinkLocal},
	}
}

// PollInterval returns the completion-check interval.
func (d Defaults) PollInterval() time.Duration {
	if d.PollIntervalMS <= 0 {
		return time.Duration(DefaultConfig().Defaults.PollIntervalMS) * time.Millisecond
	}
	return time.Duration(d.PollIntervalMS) * time.Millisecond
}

// Timeout returns the per-fetch timeout, zero when disabled.
func (d Defaults) Timeout() time.Duration {
	if d.TimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(d.TimeoutSeconds) * time.Second
}

// ConfigDir returns the platform-appropriate config directory path.
// It checks, in order: the override parameter, REPOMIRROR_CONFIG env var,
// and finally os.UserConfigDir()/repomirror.
func ConfigDir(override string) (string, error) {
	if override != "" {
		if isConfigFilePath(override) {
			return filepath.Dir(override), nil
		}
		return override, nil
	}

	if env := os.Getenv(EnvConfig); env != "" {
		if isConfigFilePath(env) {
			return filepath.Dir(env), nil
		}
		return env, nil
	}

	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "repomirror"), nil
}

// ConfigPath resolves the config file path from override/env/defaults.
func ConfigPath(override string) (string, error) {
	if override != "" {
		if isConfigFilePath(override) {
			return override, nil
		}
		return filepath.Join(override, "config.yaml"), nil
	}

	if env := os.Getenv(EnvConfig); env != "" {
		if isConfigFilePath(env) {
			return env, nil
		}
		return filepath.Join(env, "config.yaml"), nil
	}

	dir, err := ConfigDir("")
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// InitConfigPath resolves where "repomirror init" should write config.
// Order: explicit override, REPOMIRROR_CONFIG, then local dotfile in cwd.
func InitConfigPath(override, cwd string) (string, error) {
	if override != "" || os.Getenv(EnvConfig) != "" {
		return ConfigPath(override)
	}

	if strings.TrimSpace(cwd) == "" {
		var err error
		cwd, err = os.Getwd()
		if err != nil {
			return "", err
		}
	}
	return filepath.Join(cwd, LocalConfigFilename), nil
}

// ResolveConfigPath resolves config for runtime commands.
// Order: explicit override, REPOMIRROR_CONFIG, nearest local dotfile in
// cwd/parents, then global platform config path.
func ResolveConfigPath(override, cwd string) (string, error) {
	if override != "" || os.Getenv(EnvConfig) != "" {
		return ConfigPath(override)
	}

	if strings.TrimSpace(cwd) == "" {
		var err error
		cwd, err = os.Getwd()
		if err != nil {
			return "", err
		}
	}

	localPath, err := FindNearestConfigPath(cwd)
	if err != nil {
		return "", err
	}
	if localPath != "" {
		return localPath, nil
	}

	return ConfigPath("")
}

// FindNearestConfigPath searches cwd and each parent directory for
// .repomirror.yaml. It returns an empty string when none is found.
func FindNearestConfigPath(cwd string) (string, error) {
	dir := cwd
	for {
		candidate := filepath.Join(dir, LocalConfigFilename)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		} else if !os.IsNotExist(err) {
			return "", err
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil
		}
		dir = parent
	}
}

// Load reads the config file from the given path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	applyConfigGVK(&cfg)
	if err := validateConfigGVK(&cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Save writes the config to the given path.
func Save(cfg *Config, path string) error {
	if cfg == nil {
		return errors.New("config is nil")
	}
	applyConfigGVK(cfg)
	if err := validateConfigGVK(cfg); err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Validate checks settings that would otherwise fail mid-crawl.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New("config is nil")
	}
	for _, pattern := range cfg.Exclude {
		if !doublestar.ValidatePattern(pattern) {
			return fmt.Errorf("invalid exclude pattern %q", pattern)
		}
	}
	switch cfg.Sink.Kind {
	case SinkLocal:
	case SinkS3:
		if strings.TrimSpace(cfg.Sink.S3.Endpoint) == "" || strings.TrimSpace(cfg.Sink.S3.Bucket) == "" {
			return errors.New("sink.s3 requires endpoint and bucket")
		}
	default:
		return fmt.Errorf("unsupported sink kind %q", cfg.Sink.Kind)
	}
	if strings.TrimSpace(cfg.Hosts.Listing) == "" || strings.TrimSpace(cfg.Hosts.Raw) == "" {
		return errors.New("hosts.listing and hosts.raw are required")
	}
	return nil
}

// ResolveRegistryPath returns the registry file for a config file. Relative
// registry paths are joined to the directory containing configPath.
func ResolveRegistryPath(configPath string, cfg *Config) string {
	registryPath := DefaultRegistryFilename
	if cfg != nil && strings.TrimSpace(cfg.RegistryPath) != "" {
		registryPath = cfg.RegistryPath
	}
	return resolveRelative(configPath, registryPath)
}

// ResolveMirrorRoot returns the local mirror root for a config file.
func ResolveMirrorRoot(configPath string, cfg *Config) string {
	root := DefaultConfig().MirrorRoot
	if cfg != nil && strings.TrimSpace(cfg.MirrorRoot) != "" {
		root = cfg.MirrorRoot
	}
	return resolveRelative(configPath, root)
}

// ConfigRoot returns the directory containing configPath.
func ConfigRoot(configPath string) string {
	if strings.TrimSpace(configPath) == "" {
		return ""
	}
	return filepath.Clean(filepath.Dir(configPath))
}

func resolveRelative(configPath, p string) string {
	if filepath.IsAbs(p) || strings.TrimSpace(configPath) == "" {
		return filepath.Clean(p)
	}
	return filepath.Clean(filepath.Join(filepath.Dir(configPath), p))
}

func applyDefaults(cfg *Config) {
	defaults := DefaultConfig()
	if cfg.Defaults.Concurrency <= 0 {
		cfg.Defaults.Concurrency = defaults.Defaults.Concurrency
	}
	if cfg.Defaults.PollIntervalMS <= 0 {
		cfg.Defaults.PollIntervalMS = defaults.Defaults.PollIntervalMS
	}
	if cfg.Defaults.MaxListingPages <= 0 {
		cfg.Defaults.MaxListingPages = defaults.Defaults.MaxListingPages
	}
	if cfg.Sink.Kind == "" {
		cfg.Sink.Kind = SinkLocal
	}
	if cfg.Hosts.TreeSegment == "" {
		cfg.Hosts.TreeSegment = defaults.Hosts.TreeSegment
	}
	if cfg.Hosts.BlobSegment == "" {
		cfg.Hosts.BlobSegment = defaults.Hosts.BlobSegment
	}
}

func isConfigFilePath(path string) bool {
	lower := strings.ToLower(path)
	if strings.HasSuffix(lower, "config.yaml") || strings.HasSuffix(lower, "config.yml") {
		return true
	}
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

func applyConfigGVK(cfg *Config) {
	if cfg == nil {
		return
	}
	if strings.TrimSpace(cfg.APIVersion) == "" {
		cfg.APIVersion = ConfigAPIVersion
	}
	if strings.TrimSpace(cfg.Kind) == "" {
		cfg.Kind = ConfigKind
	}
}

func validateConfigGVK(cfg *Config) error {
	if cfg == nil {
		return errors.New("config is nil")
	}
	if cfg.APIVersion != ConfigAPIVersion {
		return fmt.Errorf("unsupported config apiVersion %q (expected %q)", cfg.APIVersion, ConfigAPIVersion)
	}
	if cfg.Kind != ConfigKind {
		return fmt.Errorf("unsupported config kind %q (expected %q)", cfg.Kind, ConfigKind)
	}
	return nil
}
