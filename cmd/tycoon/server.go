package main

import (
	"math/rand"
	"time"

	"github.com/coder/quartz"

	"github.com/chainmerge/tycoon/cmd/tycoon/shared"
	"github.com/chainmerge/tycoon/internal/server"
)

// ServerCmd contains core server configuration
type ServerCmd struct {
	Config string `kong:"default='tycoon.hcl',help='Path to HCL config file'"`
	Addr   string `kong:"help='Server address, overrides config'"`
	Debug  bool   `kong:"help='Enable debug logging'"`
	Seed   *int64 `kong:"help='Deterministic RNG seed for the server (optional)'"`
}

func (c *ServerCmd) Run() error {
	cfg, err := server.LoadServerConfig(c.Config)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := shared.SetupLoggerWithLevel(cfg.Server.LogLevel, cfg.Server.LogFile)
	if err != nil {
		return err
	}
	if c.Debug {
		logger = shared.SetupLogger(true)
	}

	var seed int64
	if c.Seed != nil {
		seed = *c.Seed
		logger.Info("Using deterministic seed", "seed", seed)
	} else {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	addr := cfg.GetServerAddress()
	if c.Addr != "" {
		addr = c.Addr
	}

	sessions := server.NewSessionManager(logger)
	gameService := server.NewGameService(sessions, logger, quartz.NewReal(), rng, cfg.GameConfig(), cfg.BotDelay())
	srv := server.NewServer(addr, logger, gameService, sessions)

	logger.Info("Starting tycoon server",
		"address", addr,
		"bot_delay", cfg.BotDelay(),
		"min_players", cfg.GameConfig().MinPlayers,
		"max_players", cfg.GameConfig().MaxPlayers,
	)

	ctx := shared.SetupSignalHandlerWithLogger(logger)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- srv.Start()
	}()

	select {
	case <-ctx.Done():
		logger.Info("Shutting down server...")
		return srv.Stop()
	case err := <-serverErr:
		return err
	}
}
