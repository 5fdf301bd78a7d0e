package cmd

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"cosmossdk.io/log"
	cmtos "github.com/cometbft/cometbft/libs/os"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/paw-chain/distmpc/api"
	"github.com/paw-chain/distmpc/app"
	"github.com/paw-chain/distmpc/app/ante"
	"github.com/paw-chain/distmpc/app/telemetry"
	"github.com/paw-chain/distmpc/x/shared/nonce"
)

const (
	// EnvPrefix prefixes every environment override, e.g. DISTMPCD_API_PORT.
	EnvPrefix = "DISTMPCD"

	configDir      = "config"
	dataDir        = "data"
	appConfigFile  = "app.toml"
	genesisFile    = "genesis.json"
	ledgerDBName   = "ledger"
	defaultBackend = "goleveldb"
)

// NodeConfig is the contents of app.toml.
type NodeConfig struct {
	ChainID   string          `mapstructure:"chain-id"`
	LogLevel  string          `mapstructure:"log-level"`
	LogFormat string          `mapstructure:"log-format"`
	DBBackend string          `mapstructure:"db-backend"`
	Ledger    LedgerConfig    `mapstructure:"ledger"`
	API       APIConfig       `mapstructure:"api"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// LedgerConfig configures request handling.
type LedgerConfig struct {
	InvariantChecks bool  `mapstructure:"invariant-checks"`
	NonceTTL        int64 `mapstructure:"nonce-ttl"`
	MaxRequestBytes int   `mapstructure:"max-request-bytes"`
}

// APIConfig configures the HTTP server.
type APIConfig struct {
	Host            string        `mapstructure:"host"`
	Port            string        `mapstructure:"port"`
	EnableCORS      bool          `mapstructure:"enable-cors"`
	CORSOrigins     []string      `mapstructure:"cors-origins"`
	RateLimitRPS    int           `mapstructure:"rate-limit-rps"`
	MaxBodyBytes    int64         `mapstructure:"max-body-bytes"`
	RequestTimeout  time.Duration `mapstructure:"request-timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown-timeout"`
}

// TelemetryConfig configures tracing and the standalone metrics listener.
type TelemetryConfig struct {
	Enabled      bool    `mapstructure:"enabled"`
	OTLPEndpoint string  `mapstructure:"otlp-endpoint"`
	SampleRate   float64 `mapstructure:"sample-rate"`
	Environment  string  `mapstructure:"environment"`
	MetricsPort  int     `mapstructure:"metrics-port"`
}

// DefaultNodeConfig returns the configuration written by init.
func DefaultNodeConfig() NodeConfig {
	apiCfg := api.DefaultConfig()
	return NodeConfig{
		ChainID:   app.DefaultChainID,
		LogLevel:  "info",
		LogFormat: "plain",
		DBBackend: defaultBackend,
		Ledger: LedgerConfig{
			InvariantChecks: true,
			NonceTTL:        nonce.DefaultNonceTTLSeconds,
			MaxRequestBytes: ante.DefaultMaxRequestBytes,
		},
		API: APIConfig{
			Host:            apiCfg.Host,
			Port:            apiCfg.Port,
			EnableCORS:      apiCfg.EnableCORS,
			CORSOrigins:     apiCfg.CORSOrigins,
			RateLimitRPS:    apiCfg.RateLimitRPS,
			MaxBodyBytes:    apiCfg.MaxRequestSize,
			RequestTimeout:  apiCfg.RequestTimeout,
			ShutdownTimeout: apiCfg.ShutdownTimeout,
		},
		Telemetry: TelemetryConfig{
			SampleRate:  0.1,
			Environment: "production",
		},
	}
}

// Validate checks the configuration before the ledger is opened.
func (c NodeConfig) Validate() error {
	if c.ChainID == "" {
		return fmt.Errorf("chain-id cannot be empty")
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log-level %q: %w", c.LogLevel, err)
	}
	if c.LogFormat != "plain" && c.LogFormat != "json" {
		return fmt.Errorf("log-format must be plain or json, got %q", c.LogFormat)
	}
	if c.Ledger.NonceTTL <= nonce.MaxTimestampAge {
		return fmt.Errorf("ledger.nonce-ttl must exceed %d seconds", nonce.MaxTimestampAge)
	}
	if c.Ledger.MaxRequestBytes <= 0 {
		return fmt.Errorf("ledger.max-request-bytes must be positive")
	}
	if c.Telemetry.Enabled && c.Telemetry.OTLPEndpoint == "" {
		return fmt.Errorf("telemetry.otlp-endpoint is required when telemetry is enabled")
	}
	return nil
}

// APIServerConfig converts the API section for the HTTP server.
func (c NodeConfig) APIServerConfig(version string) *api.Config {
	cfg := api.DefaultConfig()
	cfg.Host = c.API.Host
	cfg.Port = c.API.Port
	cfg.EnableCORS = c.API.EnableCORS
	cfg.CORSOrigins = c.API.CORSOrigins
	cfg.RateLimitRPS = c.API.RateLimitRPS
	cfg.MaxRequestSize = c.API.MaxBodyBytes
	cfg.RequestTimeout = c.API.RequestTimeout
	cfg.ShutdownTimeout = c.API.ShutdownTimeout
	cfg.Version = version
	return cfg
}

// TelemetryProviderConfig converts the telemetry section for the provider.
func (c NodeConfig) TelemetryProviderConfig() telemetry.Config {
	return telemetry.Config{
		Enabled:           c.Telemetry.Enabled,
		OTLPEndpoint:      c.Telemetry.OTLPEndpoint,
		SampleRate:        c.Telemetry.SampleRate,
		Environment:       c.Telemetry.Environment,
		ChainID:           c.ChainID,
		Version:           Version,
		DBBackend:         c.DBBackend,
		PrometheusEnabled: true,
	}
}

// LedgerOptions converts the ledger section into app options.
func (c NodeConfig) LedgerOptions() []app.Option {
	return []app.Option{
		app.WithInvariantChecks(c.Ledger.InvariantChecks),
		app.WithNonceTTL(c.Ledger.NonceTTL),
		app.WithMaxRequestBytes(c.Ledger.MaxRequestBytes),
	}
}

func configPath(home string) string  { return filepath.Join(home, configDir, appConfigFile) }
func genesisPath(home string) string { return filepath.Join(home, configDir, genesisFile) }
func dataPath(home string) string    { return filepath.Join(home, dataDir) }

// newConfigViper returns a viper instance seeded with defaults and bound to
// DISTMPCD_ environment overrides.
func newConfigViper(defaults NodeConfig) *viper.Viper {
	v := viper.New()
	v.SetConfigType("toml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetDefault("chain-id", defaults.ChainID)
	v.SetDefault("log-level", defaults.LogLevel)
	v.SetDefault("log-format", defaults.LogFormat)
	v.SetDefault("db-backend", defaults.DBBackend)

	v.SetDefault("ledger.invariant-checks", defaults.Ledger.InvariantChecks)
	v.SetDefault("ledger.nonce-ttl", defaults.Ledger.NonceTTL)
	v.SetDefault("ledger.max-request-bytes", defaults.Ledger.MaxRequestBytes)

	v.SetDefault("api.host", defaults.API.Host)
	v.SetDefault("api.port", defaults.API.Port)
	v.SetDefault("api.enable-cors", defaults.API.EnableCORS)
	v.SetDefault("api.cors-origins", defaults.API.CORSOrigins)
	v.SetDefault("api.rate-limit-rps", defaults.API.RateLimitRPS)
	v.SetDefault("api.max-body-bytes", defaults.API.MaxBodyBytes)
	v.SetDefault("api.request-timeout", defaults.API.RequestTimeout.String())
	v.SetDefault("api.shutdown-timeout", defaults.API.ShutdownTimeout.String())

	v.SetDefault("telemetry.enabled", defaults.Telemetry.Enabled)
	v.SetDefault("telemetry.otlp-endpoint", defaults.Telemetry.OTLPEndpoint)
	v.SetDefault("telemetry.sample-rate", defaults.Telemetry.SampleRate)
	v.SetDefault("telemetry.environment", defaults.Telemetry.Environment)
	v.SetDefault("telemetry.metrics-port", defaults.Telemetry.MetricsPort)

	return v
}

// LoadNodeConfig reads app.toml under home. A missing file yields the
// defaults; environment variables override both.
func LoadNodeConfig(home string) (NodeConfig, error) {
	v := newConfigViper(DefaultNodeConfig())

	path := configPath(home)
	if cmtos.FileExists(path) {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return NodeConfig{}, fmt.Errorf("failed to read %s: %w", path, err)
		}
	}

	var cfg NodeConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return NodeConfig{}, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return cfg, nil
}

// WriteNodeConfig writes cfg to app.toml under home.
func WriteNodeConfig(home string, cfg NodeConfig) error {
	path := configPath(home)
	if err := cmtos.EnsureDir(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	v := viper.New()
	v.SetConfigType("toml")
	for key, value := range map[string]interface{}{
		"chain-id":                 cfg.ChainID,
		"log-level":                cfg.LogLevel,
		"log-format":               cfg.LogFormat,
		"db-backend":               cfg.DBBackend,
		"ledger.invariant-checks":  cfg.Ledger.InvariantChecks,
		"ledger.nonce-ttl":         cfg.Ledger.NonceTTL,
		"ledger.max-request-bytes": cfg.Ledger.MaxRequestBytes,
		"api.host":                 cfg.API.Host,
		"api.port":                 cfg.API.Port,
		"api.enable-cors":          cfg.API.EnableCORS,
		"api.cors-origins":         cfg.API.CORSOrigins,
		"api.rate-limit-rps":       cfg.API.RateLimitRPS,
		"api.max-body-bytes":       cfg.API.MaxBodyBytes,
		"api.request-timeout":      cfg.API.RequestTimeout.String(),
		"api.shutdown-timeout":     cfg.API.ShutdownTimeout.String(),
		"telemetry.enabled":        cfg.Telemetry.Enabled,
		"telemetry.otlp-endpoint":  cfg.Telemetry.OTLPEndpoint,
		"telemetry.sample-rate":    cfg.Telemetry.SampleRate,
		"telemetry.environment":    cfg.Telemetry.Environment,
		"telemetry.metrics-port":   cfg.Telemetry.MetricsPort,
	} {
		v.Set(key, value)
	}
	return v.WriteConfigAs(path)
}

// NewLogger builds the node logger from a level name and output format.
func NewLogger(out io.Writer, level, format string) (log.Logger, error) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	opts := []log.Option{log.LevelOption(lvl)}
	if format == "json" {
		opts = append(opts, log.OutputJSONOption())
	} else {
		opts = append(opts, log.ColorOption(false))
	}
	return log.NewLogger(out, opts...), nil
}
