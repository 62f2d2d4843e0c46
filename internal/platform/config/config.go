// Package config loads process configuration from PARSID_* environment
// variables.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"

	"parsid/internal/identity/commitment"
	"parsid/internal/network"
)

// Log selects the slog handler.
type Log struct {
	Format string `env:"FORMAT" envDefault:"json"`
	Level  string `env:"LEVEL" envDefault:"info"`
}

// RedisConfig configures the optional Redis handle store. An empty URL keeps
// the in-memory store.
type RedisConfig struct {
	URL          string        `env:"URL"`
	PoolSize     int           `env:"POOL_SIZE" envDefault:"10"`
	MinIdleConns int           `env:"MIN_IDLE_CONNS" envDefault:"2"`
	DialTimeout  time.Duration `env:"DIAL_TIMEOUT" envDefault:"5s"`
	ReadTimeout  time.Duration `env:"READ_TIMEOUT" envDefault:"3s"`
	WriteTimeout time.Duration `env:"WRITE_TIMEOUT" envDefault:"3s"`
}

// Network overrides the chain descriptor.
type Network struct {
	Name        string `env:"NAME" envDefault:"Pars Network"`
	ChainID     int64  `env:"CHAIN_ID" envDefault:"494949"`
	RPCURL      string `env:"RPC_URL" envDefault:"https://rpc.pars.network"`
	ExplorerURL string `env:"EXPLORER_URL" envDefault:"https://explore.pars.network"`
}

func (n Network) Descriptor() network.Network {
	return network.Network{
		Name:        n.Name,
		ChainID:     n.ChainID,
		RPCURL:      n.RPCURL,
		ExplorerURL: n.ExplorerURL,
		Symbol:      network.DefaultSymbol,
	}
}

// Argon holds the argon2id cost of the security commitment.
type Argon struct {
	Time      uint32 `env:"TIME" envDefault:"3"`
	MemoryKiB uint32 `env:"MEMORY_KIB" envDefault:"65536"`
	Threads   uint8  `env:"THREADS" envDefault:"4"`
}

func (a Argon) Params() commitment.Params {
	return commitment.Params{Time: a.Time, MemoryKiB: a.MemoryKiB, Threads: a.Threads}
}

// Server configures the wizard API.
type Server struct {
	Addr             string        `env:"PARSID_ADDR" envDefault:":8080"`
	JWTSigningKey    string        `env:"PARSID_JWT_SIGNING_KEY"`
	JWTIssuer        string        `env:"PARSID_JWT_ISSUER"`
	RegistrarURL     string        `env:"PARSID_REGISTRAR_URL" envDefault:"http://localhost:8090"`
	RegistrarTimeout time.Duration `env:"PARSID_REGISTRAR_TIMEOUT" envDefault:"10s"`
	WizardTTL        time.Duration `env:"PARSID_WIZARD_TTL" envDefault:"15m"`
	WizardCapacity   int           `env:"PARSID_WIZARD_CAPACITY" envDefault:"10000"`
	ShutdownTimeout  time.Duration `env:"PARSID_SHUTDOWN_TIMEOUT" envDefault:"10s"`

	Log     Log     `envPrefix:"PARSID_LOG_"`
	Network Network `envPrefix:"PARSID_NETWORK_"`
	Argon   Argon   `envPrefix:"PARSID_ARGON_"`
}

// Registrar configures the development registrar.
type Registrar struct {
	Addr            string        `env:"PARSID_REGISTRAR_ADDR" envDefault:":8090"`
	ShutdownTimeout time.Duration `env:"PARSID_SHUTDOWN_TIMEOUT" envDefault:"10s"`

	Log   Log         `envPrefix:"PARSID_LOG_"`
	Redis RedisConfig `envPrefix:"PARSID_REDIS_"`
}

// LoadServer reads and checks the wizard API configuration.
func LoadServer() (Server, error) {
	cfg, err := env.ParseAs[Server]()
	if err != nil {
		return Server{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.JWTSigningKey == "" {
		return Server{}, errors.New("PARSID_JWT_SIGNING_KEY is required")
	}
	if cfg.WizardCapacity <= 0 {
		return Server{}, errors.New("PARSID_WIZARD_CAPACITY must be positive")
	}
	if cfg.WizardTTL <= 0 || cfg.RegistrarTimeout <= 0 {
		return Server{}, errors.New("PARSID_WIZARD_TTL and PARSID_REGISTRAR_TIMEOUT must be positive")
	}
	if cfg.Argon.Time == 0 || cfg.Argon.Threads == 0 || cfg.Argon.MemoryKiB < 8*uint32(cfg.Argon.Threads) {
		return Server{}, errors.New("argon2 parameters out of range")
	}
	return cfg, nil
}

// LoadRegistrar reads the development registrar configuration.
func LoadRegistrar() (Registrar, error) {
	cfg, err := env.ParseAs[Registrar]()
	if err != nil {
		return Registrar{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
