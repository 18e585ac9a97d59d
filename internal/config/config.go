package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// RunnerModeLocal executes the analyzer on this host; RunnerModeSSH executes
// it on a remote host reached over SSH.
const (
	RunnerModeLocal = "local"
	RunnerModeSSH   = "ssh"
)

type ServiceConfig struct {
	Name         string   `toml:"name"`
	Addr         string   `toml:"addr"`
	CorsOrigins  []string `toml:"cors_origins"`
	APIToken     string   `toml:"api_token"`
	MaxSpecBytes int64    `toml:"max_spec_bytes"`

	Analyzer AnalyzerConfig `toml:"analyzer"`
	Runner   RunnerConfig   `toml:"runner"`
}

type AnalyzerConfig struct {
	JarPath      string `toml:"jar_path"`
	JavaBin      string `toml:"java_bin"`
	WorkDir      string `toml:"work_dir"`
	Timeout      string `toml:"timeout"`
	ProbeTimeout string `toml:"probe_timeout"`
}

type RunnerConfig struct {
	Mode                        string `toml:"mode"`
	Host                        string `toml:"host"`
	Port                        string `toml:"port"`
	User                        string `toml:"user"`
	KeyPath                     string `toml:"key_path"`
	KnownHostsPath              string `toml:"known_hosts_path"`
	InsecureSkipHostKeyChecking bool   `toml:"insecure_skip_host_key_checking"`
	Timeout                     string `toml:"timeout"`
}

func LoadServiceConfig(path string) (ServiceConfig, error) {
	var cfg ServiceConfig
	if err := loadToml(path, &cfg); err != nil {
		return ServiceConfig{}, err
	}
	applyDefaults(&cfg)
	if err := ValidateServiceConfig(cfg); err != nil {
		return ServiceConfig{}, err
	}
	return cfg, nil
}

// DefaultServiceConfig returns the configuration used when no file is given.
func DefaultServiceConfig() ServiceConfig {
	var cfg ServiceConfig
	applyDefaults(&cfg)
	return cfg
}

func applyDefaults(cfg *ServiceConfig) {
	if cfg.Name == "" {
		cfg.Name = "ltsactl"
	}
	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}
	if cfg.MaxSpecBytes == 0 {
		cfg.MaxSpecBytes = 1 << 20
	}
	if cfg.Analyzer.JarPath == "" {
		cfg.Analyzer.JarPath = "ltsa.jar"
	}
	if cfg.Analyzer.JavaBin == "" {
		cfg.Analyzer.JavaBin = "java"
	}
	if cfg.Analyzer.Timeout == "" {
		cfg.Analyzer.Timeout = "30s"
	}
	if cfg.Analyzer.ProbeTimeout == "" {
		cfg.Analyzer.ProbeTimeout = "5s"
	}
	if cfg.Runner.Mode == "" {
		cfg.Runner.Mode = RunnerModeLocal
	}
	if cfg.Runner.Timeout == "" {
		cfg.Runner.Timeout = "10s"
	}
}

func loadToml(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if err := toml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	return nil
}

func ValidateServiceConfig(cfg ServiceConfig) error {
	if strings.TrimSpace(cfg.Name) == "" {
		return fmt.Errorf("service config missing name")
	}
	if strings.TrimSpace(cfg.Addr) == "" {
		return fmt.Errorf("service config missing addr")
	}
	if cfg.MaxSpecBytes <= 0 {
		return fmt.Errorf("max_spec_bytes must be positive")
	}
	if strings.TrimSpace(cfg.Analyzer.JarPath) == "" {
		return fmt.Errorf("analyzer config missing jar_path")
	}
	if strings.TrimSpace(cfg.Analyzer.JavaBin) == "" {
		return fmt.Errorf("analyzer config missing java_bin")
	}
	if _, err := cfg.Analyzer.RunTimeout(); err != nil {
		return fmt.Errorf("analyzer timeout invalid: %w", err)
	}
	if _, err := cfg.Analyzer.ProbeDeadline(); err != nil {
		return fmt.Errorf("analyzer probe_timeout invalid: %w", err)
	}
	return ValidateRunnerConfig(cfg.Runner)
}

func ValidateRunnerConfig(cfg RunnerConfig) error {
	switch cfg.Mode {
	case RunnerModeLocal:
		return nil
	case RunnerModeSSH:
		if strings.TrimSpace(cfg.Host) == "" {
			return fmt.Errorf("runner config host required in ssh mode")
		}
		if strings.TrimSpace(cfg.User) == "" {
			return fmt.Errorf("runner config user required in ssh mode")
		}
		if strings.TrimSpace(cfg.KeyPath) == "" {
			return fmt.Errorf("runner config key_path required in ssh mode")
		}
		if _, err := cfg.DialTimeout(); err != nil {
			return fmt.Errorf("runner timeout invalid: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("runner config mode must be %q or %q, got %q",
			RunnerModeLocal, RunnerModeSSH, cfg.Mode)
	}
}

// RunTimeout is the bound applied to a single analyzer invocation.
func (c AnalyzerConfig) RunTimeout() (time.Duration, error) {
	return parsePositiveDuration(c.Timeout)
}

// ProbeDeadline is the bound applied to the health probe's runtime check.
func (c AnalyzerConfig) ProbeDeadline() (time.Duration, error) {
	return parsePositiveDuration(c.ProbeTimeout)
}

// DialTimeout bounds SSH connection establishment.
func (c RunnerConfig) DialTimeout() (time.Duration, error) {
	return parsePositiveDuration(c.Timeout)
}

func parsePositiveDuration(raw string) (time.Duration, error) {
	d, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("duration must be positive, got %s", d)
	}
	return d, nil
}
