package server

import (
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/joeshaw/envdecode"

	"github.com/chainmerge/tycoon/internal/game"
)

// ServerConfig represents the complete server configuration
type ServerConfig struct {
	Server ServerSettings `hcl:"server,block"`
	Game   *GameSettings  `hcl:"game,block"`
}

// ServerSettings contains server-level configuration
type ServerSettings struct {
	Address    string `hcl:"address,optional" env:"TYCOON_ADDRESS"`
	Port       int    `hcl:"port,optional" env:"TYCOON_PORT"`
	LogLevel   string `hcl:"log_level,optional" env:"TYCOON_LOG_LEVEL"`
	LogFile    string `hcl:"log_file,optional" env:"TYCOON_LOG_FILE"`
	BotDelayMS int    `hcl:"bot_delay_ms,optional" env:"TYCOON_BOT_DELAY_MS"`
}

// GameSettings contains the tunable rule parameters. Zero values fall back
// to the standard rules.
type GameSettings struct {
	MinPlayers     int    `hcl:"min_players,optional"`
	MaxPlayers     int    `hcl:"max_players,optional"`
	StartingCash   int    `hcl:"starting_cash,optional"`
	HandSize       int    `hcl:"hand_size,optional"`
	BuyLimit       int    `hcl:"buy_limit,optional"`
	SafeSize       int    `hcl:"safe_size,optional"`
	GameEndSize    int    `hcl:"game_end_size,optional"`
	SharesPerChain int    `hcl:"shares_per_chain,optional"`
	DefunctOrder   string `hcl:"defunct_order,optional"`
}

// DefaultServerConfig returns default server configuration
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		Server: ServerSettings{
			Address:    "localhost",
			Port:       8080,
			LogLevel:   "info",
			BotDelayMS: 500,
		},
	}
}

// LoadServerConfig loads server configuration from an HCL file, then applies
// environment overrides. A missing file is not an error: defaults plus
// environment win.
func LoadServerConfig(filename string) (*ServerConfig, error) {
	config := DefaultServerConfig()

	if _, err := os.Stat(filename); err == nil {
		parser := hclparse.NewParser()
		file, diags := parser.ParseHCLFile(filename)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
		}

		var parsed ServerConfig
		diags = gohcl.DecodeBody(file.Body, nil, &parsed)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
		}
		config = &parsed
	}

	if err := envdecode.Decode(&config.Server); err != nil && err != envdecode.ErrNoTargetFieldsAreSet {
		return nil, fmt.Errorf("failed to decode environment: %w", err)
	}

	// Apply defaults for missing values
	if config.Server.Address == "" {
		config.Server.Address = "localhost"
	}
	if config.Server.Port == 0 {
		config.Server.Port = 8080
	}
	if config.Server.LogLevel == "" {
		config.Server.LogLevel = "info"
	}
	if config.Server.BotDelayMS == 0 {
		config.Server.BotDelayMS = 500
	}

	return config, nil
}

// Validate validates the server configuration
func (c *ServerConfig) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}
	if c.Server.BotDelayMS < 0 {
		return fmt.Errorf("bot delay must not be negative")
	}

	if c.Game == nil {
		return nil
	}
	g := c.Game
	if g.MinPlayers != 0 && g.MinPlayers < 2 {
		return fmt.Errorf("min players must be at least 2")
	}
	if g.MaxPlayers != 0 && g.MinPlayers != 0 && g.MaxPlayers < g.MinPlayers {
		return fmt.Errorf("max players must be at least min players")
	}
	if g.StartingCash < 0 {
		return fmt.Errorf("starting cash must not be negative")
	}
	if g.SafeSize != 0 && g.GameEndSize != 0 && g.GameEndSize < g.SafeSize {
		return fmt.Errorf("game end size must be at least safe size")
	}
	switch g.DefunctOrder {
	case "", "founding", "name":
	default:
		return fmt.Errorf("invalid defunct order: %s", g.DefunctOrder)
	}

	return nil
}

// GetServerAddress returns the full server address
func (c *ServerConfig) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Address, c.Server.Port)
}

// BotDelay returns the configured delay before a bot acts.
func (c *ServerConfig) BotDelay() time.Duration {
	return time.Duration(c.Server.BotDelayMS) * time.Millisecond
}

// GameConfig maps the configured rule overrides onto the standard rules.
func (c *ServerConfig) GameConfig() game.Config {
	cfg := game.DefaultConfig()
	if c.Game == nil {
		return cfg
	}
	g := c.Game

	if g.MinPlayers != 0 {
		cfg.MinPlayers = g.MinPlayers
	}
	if g.MaxPlayers != 0 {
		cfg.MaxPlayers = g.MaxPlayers
	}
	if g.StartingCash != 0 {
		cfg.StartingCash = g.StartingCash
	}
	if g.HandSize != 0 {
		cfg.HandSize = g.HandSize
	}
	if g.BuyLimit != 0 {
		cfg.BuyLimit = g.BuyLimit
	}
	if g.SafeSize != 0 {
		cfg.SafeSize = g.SafeSize
	}
	if g.GameEndSize != 0 {
		cfg.GameEndSize = g.GameEndSize
	}
	if g.SharesPerChain != 0 {
		cfg.SharesPerChain = g.SharesPerChain
	}
	if g.DefunctOrder == "name" {
		cfg.DefunctOrder = game.TieBreakChainName
	}

	return cfg
}
