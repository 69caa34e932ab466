package config

import (
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"time"
)

const (
	// LogFormatPlain is a format for colored text
	LogFormatPlain = "plain"
	// LogFormatJSON is a format for json output
	LogFormatJSON = "json"

	// StoreBackendDB keeps the checkpoint list in a tm-db database.
	StoreBackendDB = "db"
	// StoreBackendFiles keeps the checkpoint list in a YAML file and one
	// file per checkpoint summary.
	StoreBackendFiles = "files"

	// SubmitterJSONRPC hands relay payloads to a JSON-RPC signing service.
	SubmitterJSONRPC = "jsonrpc"
	// SubmitterFile drops relay payloads in a directory.
	SubmitterFile = "file"
)

// NOTE: Most of the structs & relevant comments + the
// default configuration options were used to manually
// generate the config.toml. Please reflect any changes
// made here in the defaultConfigTemplate constant in
// config/toml.go
// NOTE: libs/cli must know to look in the config dir!
var (
	DefaultLightRelayDir = ".lightrelay"
	defaultConfigDir     = "config"
	defaultDataDir       = "data"

	defaultConfigFileName  = "config.toml"
	defaultGenesisJSONName = "genesis.json"

	defaultConfigFilePath  = filepath.Join(defaultConfigDir, defaultConfigFileName)
	defaultGenesisJSONPath = filepath.Join(defaultConfigDir, defaultGenesisJSONName)
	defaultCheckpointsPath = filepath.Join(defaultDataDir, "checkpoints")
	defaultRelayDropPath   = filepath.Join(defaultDataDir, "relay")
)

// Config defines the top level configuration of the light relay.
type Config struct {
	// Top level options use an anonymous struct
	BaseConfig `mapstructure:",squash"`

	Source          *SourceConfig          `mapstructure:"source"`
	Fetch           *FetchConfig           `mapstructure:"fetch"`
	Bridge          *BridgeConfig          `mapstructure:"bridge"`
	Instrumentation *InstrumentationConfig `mapstructure:"instrumentation"`
}

// DefaultConfig returns a default configuration.
func DefaultConfig() *Config {
	return &Config{
		BaseConfig:      DefaultBaseConfig(),
		Source:          DefaultSourceConfig(),
		Fetch:           DefaultFetchConfig(),
		Bridge:          DefaultBridgeConfig(),
		Instrumentation: DefaultInstrumentationConfig(),
	}
}

// TestConfig returns a configuration that can be used for testing.
func TestConfig() *Config {
	return &Config{
		BaseConfig:      TestBaseConfig(),
		Source:          DefaultSourceConfig(),
		Fetch:           TestFetchConfig(),
		Bridge:          DefaultBridgeConfig(),
		Instrumentation: DefaultInstrumentationConfig(),
	}
}

// SetRoot sets the RootDir for all Config structs
func (cfg *Config) SetRoot(root string) *Config {
	cfg.BaseConfig.RootDir = root
	cfg.Bridge.RootDir = root
	return cfg
}

// ValidateBasic performs basic validation (checking param bounds, etc.) and
// returns an error if any check fails.
func (cfg *Config) ValidateBasic() error {
	if err := cfg.BaseConfig.ValidateBasic(); err != nil {
		return err
	}
	if err := cfg.Source.ValidateBasic(); err != nil {
		return fmt.Errorf("error in [source] section: %w", err)
	}
	if err := cfg.Fetch.ValidateBasic(); err != nil {
		return fmt.Errorf("error in [fetch] section: %w", err)
	}
	if err := cfg.Bridge.ValidateBasic(); err != nil {
		return fmt.Errorf("error in [bridge] section: %w", err)
	}
	if err := cfg.Instrumentation.ValidateBasic(); err != nil {
		return fmt.Errorf("error in [instrumentation] section: %w", err)
	}
	return nil
}

//-----------------------------------------------------------------------------
// BaseConfig

// BaseConfig defines the base configuration of the light relay.
type BaseConfig struct {
	// The root directory for all data.
	// This should be set in viper so it can unmarshal into this struct
	RootDir string `mapstructure:"home"`

	// Path to the JSON file containing the genesis committee
	Genesis string `mapstructure:"genesis-file"`

	// Where the checkpoint list and summaries are persisted: db | files
	StoreBackend string `mapstructure:"store-backend"`

	// Database backend: goleveldb | memdb (see tm-db)
	DBBackend string `mapstructure:"db-backend"`

	// Database directory
	DBPath string `mapstructure:"db-dir"`

	// Directory of the files store backend
	CheckpointsPath string `mapstructure:"checkpoints-dir"`

	// Output level for logging
	LogLevel string `mapstructure:"log-level"`

	// Output format: 'plain' (colored text) or 'json'
	LogFormat string `mapstructure:"log-format"`
}

// DefaultBaseConfig returns a default base configuration.
func DefaultBaseConfig() BaseConfig {
	return BaseConfig{
		Genesis:         defaultGenesisJSONPath,
		StoreBackend:    StoreBackendDB,
		DBBackend:       "goleveldb",
		DBPath:          defaultDataDir,
		CheckpointsPath: defaultCheckpointsPath,
		LogLevel:        DefaultLogLevel,
		LogFormat:       LogFormatPlain,
	}
}

// TestBaseConfig returns a base configuration for testing.
func TestBaseConfig() BaseConfig {
	cfg := DefaultBaseConfig()
	cfg.DBBackend = "memdb"
	return cfg
}

// GenesisFile returns the full path to the genesis.json file
func (cfg BaseConfig) GenesisFile() string {
	return rootify(cfg.Genesis, cfg.RootDir)
}

// DBDir returns the full path to the database directory
func (cfg BaseConfig) DBDir() string {
	return rootify(cfg.DBPath, cfg.RootDir)
}

// CheckpointsDir returns the full path to the files store directory
func (cfg BaseConfig) CheckpointsDir() string {
	return rootify(cfg.CheckpointsPath, cfg.RootDir)
}

// ValidateBasic performs basic validation (checking param bounds, etc.) and
// returns an error if any check fails.
func (cfg BaseConfig) ValidateBasic() error {
	switch cfg.LogFormat {
	case LogFormatPlain, LogFormatJSON:
	default:
		return errors.New("unknown log format (must be 'plain' or 'json')")
	}
	switch cfg.StoreBackend {
	case StoreBackendDB, StoreBackendFiles:
	default:
		return fmt.Errorf("unknown store backend %q (must be %q or %q)",
			cfg.StoreBackend, StoreBackendDB, StoreBackendFiles)
	}
	return nil
}

// DefaultLogLevel returns a default log level of "info"
const DefaultLogLevel = "info"

//-----------------------------------------------------------------------------
// SourceConfig

// SourceConfig points at the chain being followed.
type SourceConfig struct {
	// JSON-RPC endpoint of a full node, used for the chain head and to locate
	// the checkpoint of a transaction
	RPCAddress string `mapstructure:"rpc-address"`

	// GraphQL endpoint answering "last checkpoint of epoch" queries
	GraphQLAddress string `mapstructure:"graphql-address"`

	// Object store holding full checkpoints as "<seq>.chk":
	// https://..., gs://bucket/prefix, s3://bucket/prefix or file:///dir
	ObjectStoreURL string `mapstructure:"object-store-url"`

	// Timeout of a single request to any of the above
	RequestTimeout time.Duration `mapstructure:"request-timeout"`
}

// DefaultSourceConfig returns a default configuration for the source chain.
func DefaultSourceConfig() *SourceConfig {
	return &SourceConfig{
		RPCAddress:     "https://fullnode.mainnet.sui.io:443",
		GraphQLAddress: "https://sui-mainnet.mystenlabs.com/graphql",
		ObjectStoreURL: "https://checkpoints.mainnet.sui.io",
		RequestTimeout: 10 * time.Second,
	}
}

// ValidateBasic performs basic validation.
func (cfg *SourceConfig) ValidateBasic() error {
	for name, addr := range map[string]string{
		"rpc-address":      cfg.RPCAddress,
		"graphql-address":  cfg.GraphQLAddress,
		"object-store-url": cfg.ObjectStoreURL,
	} {
		if addr == "" {
			return fmt.Errorf("%s can't be empty", name)
		}
		if _, err := url.Parse(addr); err != nil {
			return fmt.Errorf("invalid %s: %w", name, err)
		}
	}
	if cfg.RequestTimeout <= 0 {
		return errors.New("request-timeout must be positive")
	}
	return nil
}

//-----------------------------------------------------------------------------
// FetchConfig

// FetchConfig controls retries of remote reads.
type FetchConfig struct {
	// Delay before the first retry
	InitialInterval time.Duration `mapstructure:"initial-interval"`

	// Growth factor of the delay between retries. 1.0 keeps it constant.
	Multiplier float64 `mapstructure:"multiplier"`

	// Upper bound of the delay between retries
	MaxInterval time.Duration `mapstructure:"max-interval"`

	// Overall budget of one fetch, retries included
	MaxElapsedTime time.Duration `mapstructure:"max-elapsed-time"`
}

// DefaultFetchConfig retries every 100ms for up to a minute.
func DefaultFetchConfig() *FetchConfig {
	return &FetchConfig{
		InitialInterval: 100 * time.Millisecond,
		Multiplier:      1.0,
		MaxInterval:     5 * time.Second,
		MaxElapsedTime:  60 * time.Second,
	}
}

// TestFetchConfig returns a fetch configuration with short timeouts.
func TestFetchConfig() *FetchConfig {
	return &FetchConfig{
		InitialInterval: 5 * time.Millisecond,
		Multiplier:      1.0,
		MaxInterval:     20 * time.Millisecond,
		MaxElapsedTime:  500 * time.Millisecond,
	}
}

// ValidateBasic performs basic validation.
func (cfg *FetchConfig) ValidateBasic() error {
	if cfg.InitialInterval <= 0 {
		return errors.New("initial-interval must be positive")
	}
	if cfg.Multiplier < 1 {
		return errors.New("multiplier can't be less than 1")
	}
	if cfg.MaxInterval < cfg.InitialInterval {
		return errors.New("max-interval can't be less than initial-interval")
	}
	if cfg.MaxElapsedTime <= 0 {
		return errors.New("max-elapsed-time must be positive")
	}
	return nil
}

//-----------------------------------------------------------------------------
// BridgeConfig

// BridgeConfig configures relaying committees to the target chain.
type BridgeConfig struct {
	RootDir string `mapstructure:"home"`

	// When false, checkpoints are verified and stored but never relayed
	Enabled bool `mapstructure:"enabled"`

	// JSON-RPC endpoint of a target chain full node
	RPCAddress string `mapstructure:"rpc-address"`

	// Package and module emitting committee registration events
	PackageID string `mapstructure:"package-id"`
	Module    string `mapstructure:"module"`

	// Registry object whose events are considered
	RegistryID string `mapstructure:"registry-id"`

	// Events requested per page
	PageSize int `mapstructure:"page-size"`

	// Committee objects kept in memory, by epoch
	CacheSize int `mapstructure:"cache-size"`

	// How relay payloads are handed over: jsonrpc | file
	Submitter string `mapstructure:"submitter"`

	// Endpoint, method and bearer token of the jsonrpc submitter
	SubmitterAddress string `mapstructure:"submitter-address"`
	SubmitterMethod  string `mapstructure:"submitter-method"`
	SubmitterToken   string `mapstructure:"submitter-token"`

	// Directory of the file submitter
	SubmitterDir string `mapstructure:"submitter-dir"`

	// How long to wait for a submitted committee to show up in the
	// registry, and how often to look
	ConfirmTimeout  time.Duration `mapstructure:"confirm-timeout"`
	ConfirmInterval time.Duration `mapstructure:"confirm-interval"`
}

// DefaultBridgeConfig returns a disabled bridge configuration.
func DefaultBridgeConfig() *BridgeConfig {
	return &BridgeConfig{
		Enabled:         false,
		RPCAddress:      "https://fullnode.testnet.sui.io:443",
		Module:          "light_client",
		PageSize:        50,
		CacheSize:       128,
		Submitter:       SubmitterFile,
		SubmitterMethod: "lightrelay_submitCommittee",
		SubmitterDir:    defaultRelayDropPath,
		ConfirmTimeout:  2 * time.Minute,
		ConfirmInterval: 2 * time.Second,
	}
}

// SubmitterDirPath returns the full path of the file submitter directory.
func (cfg *BridgeConfig) SubmitterDirPath() string {
	return rootify(cfg.SubmitterDir, cfg.RootDir)
}

// ValidateBasic performs basic validation. Only an enabled bridge is
// checked.
func (cfg *BridgeConfig) ValidateBasic() error {
	if !cfg.Enabled {
		return nil
	}
	if cfg.RPCAddress == "" {
		return errors.New("rpc-address can't be empty")
	}
	if cfg.PackageID == "" {
		return errors.New("package-id can't be empty")
	}
	if cfg.RegistryID == "" {
		return errors.New("registry-id can't be empty")
	}
	if cfg.PageSize <= 0 {
		return errors.New("page-size must be positive")
	}
	if cfg.CacheSize <= 0 {
		return errors.New("cache-size must be positive")
	}
	switch cfg.Submitter {
	case SubmitterJSONRPC:
		if cfg.SubmitterAddress == "" {
			return errors.New("submitter-address can't be empty with the jsonrpc submitter")
		}
	case SubmitterFile:
	default:
		return fmt.Errorf("unknown submitter %q", cfg.Submitter)
	}
	if cfg.ConfirmTimeout <= 0 || cfg.ConfirmInterval <= 0 {
		return errors.New("confirm-timeout and confirm-interval must be positive")
	}
	return nil
}

//-----------------------------------------------------------------------------
// InstrumentationConfig

// InstrumentationConfig defines the configuration for metrics reporting.
type InstrumentationConfig struct {
	// When true, Prometheus metrics are served under /metrics on
	// PrometheusListenAddr.
	Prometheus bool `mapstructure:"prometheus"`

	// Address to listen for Prometheus collector(s) connections.
	PrometheusListenAddr string `mapstructure:"prometheus-listen-addr"`

	// Instrumentation namespace.
	Namespace string `mapstructure:"namespace"`
}

// DefaultInstrumentationConfig returns a default configuration for metrics
// reporting.
func DefaultInstrumentationConfig() *InstrumentationConfig {
	return &InstrumentationConfig{
		Prometheus:           false,
		PrometheusListenAddr: ":26660",
		Namespace:            "lightrelay",
	}
}

// ValidateBasic performs basic validation.
func (cfg *InstrumentationConfig) ValidateBasic() error {
	if cfg.Prometheus && cfg.PrometheusListenAddr == "" {
		return errors.New("prometheus-listen-addr can't be empty")
	}
	return nil
}

//-----------------------------------------------------------------------------
// Utils

// helper function to make config creation independent of root dir
func rootify(path, root string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(root, path)
}
