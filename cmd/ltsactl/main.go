package main

import (
	"flag"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/ltsalab/ltsactl/internal/analyzer"
	"github.com/ltsalab/ltsactl/internal/config"
	"github.com/ltsalab/ltsactl/internal/observability"
	"github.com/ltsalab/ltsactl/internal/server"
)

func main() {
	observability.InitLogger("ltsactl")

	configPath := flag.String("config", "", "path to TOML config; defaults apply when omitted")
	flag.Parse()

	cfg := config.DefaultServiceConfig()
	if *configPath != "" {
		loaded, err := config.LoadServiceConfig(*configPath)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to load config")
		}
		cfg = loaded
		log.Info().Str("path", *configPath).Msg("loaded config")
	}

	runner, err := buildRunner(cfg.Runner)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build runner")
	}

	runTimeout, err := cfg.Analyzer.RunTimeout()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid analyzer timeout")
	}
	probeTimeout, err := cfg.Analyzer.ProbeDeadline()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid probe timeout")
	}

	engine := analyzer.New(analyzer.Config{
		JarPath:      cfg.Analyzer.JarPath,
		JavaBin:      cfg.Analyzer.JavaBin,
		WorkDir:      cfg.Analyzer.WorkDir,
		RunTimeout:   runTimeout,
		ProbeTimeout: probeTimeout,
	}, runner)

	srv := server.Appear(cfg, engine)
	srv.RegisterRoutes()

	log.Info().
		Str("name", srv.Name).
		Str("addr", srv.Addr).
		Str("jar", cfg.Analyzer.JarPath).
		Str("runner", cfg.Runner.Mode).
		Msg("ltsactl started")
	if err := srv.Serve(); err != nil {
		log.Fatal().Err(err).Msg("ltsactl stopped")
	}
}

func buildRunner(cfg config.RunnerConfig) (analyzer.Runner, error) {
	switch cfg.Mode {
	case config.RunnerModeLocal:
		return analyzer.LocalRunner{}, nil
	case config.RunnerModeSSH:
		timeout, err := cfg.DialTimeout()
		if err != nil {
			return nil, err
		}
		return analyzer.SSHRunner{
			Host:                        cfg.Host,
			Port:                        cfg.Port,
			User:                        cfg.User,
			KeyPath:                     cfg.KeyPath,
			KnownHostsPath:              cfg.KnownHostsPath,
			InsecureSkipHostKeyChecking: cfg.InsecureSkipHostKeyChecking,
			Timeout:                     timeout,
		}, nil
	default:
		return nil, fmt.Errorf("unknown runner mode %q", cfg.Mode)
	}
}
