package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/spf13/viper"
)

// FileName is the config file looked up in the config directory.
const FileName = "hexfoot.cfg.json"

// MemoryConfig holds in-memory/JSON storage backend settings
type MemoryConfig struct {
	OutputDir      string `json:"outputDir" mapstructure:"outputDir"`
	CompressOutput bool   `json:"compressOutput" mapstructure:"compressOutput"`
}

// SQLiteConfig holds settings for the in-memory SQLite backend.
type SQLiteConfig struct {
	DumpInterval time.Duration
}

// WebSocketConfig holds settings for the streaming backend.
type WebSocketConfig struct {
	URL    string
	Secret string
}

// StorageConfig selects and configures the match recorder backend.
type StorageConfig struct {
	Type      string
	Memory    MemoryConfig
	SQLite    SQLiteConfig
	WebSocket WebSocketConfig
	// mirror every record into InfluxDB as well
	Influx bool
}

// OTelConfig mirrors otel.Config minus the runtime writers.
type OTelConfig struct {
	Enabled        bool
	ServiceName    string
	BatchTimeout   time.Duration
	Endpoint       string
	Insecure       bool
	MetricInterval time.Duration
}

// BoardConfig is the size of the playing surface in hexes from the centre.
type BoardConfig struct {
	HalfWidth  int
	HalfHeight int
}

// Env holds process-level overrides read from the environment.
type Env struct {
	ConfigDir string `env:"HEXFOOT_CONFIG_DIR" envDefault:"."`
	Listen    string `env:"HEXFOOT_LISTEN"`
	LogLevel  string `env:"HEXFOOT_LOG_LEVEL"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

func setDefaults() {
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logsDir", "./logs")
	viper.SetDefault("defaultTag", "Friendly")

	viper.SetDefault("difficulty", 2)
	viper.SetDefault("seed", 0)
	viper.SetDefault("maxTurns", 120)
	viper.SetDefault("rosterFile", "")
	viper.SetDefault("homeEnd", 1)
	viper.SetDefault("board.halfWidth", 18)
	viper.SetDefault("board.halfHeight", 12)

	viper.SetDefault("transport.listen", "localhost:8420")
	viper.SetDefault("monitor.interval", "1s")

	viper.SetDefault("api.serverUrl", "http://localhost:5000")
	viper.SetDefault("api.apiKey", "")

	viper.SetDefault("db.host", "localhost")
	viper.SetDefault("db.port", "5432")
	viper.SetDefault("db.username", "postgres")
	viper.SetDefault("db.password", "postgres")
	viper.SetDefault("db.database", "hexfoot")

	viper.SetDefault("influx.enabled", false)
	viper.SetDefault("influx.host", "localhost")
	viper.SetDefault("influx.port", "8086")
	viper.SetDefault("influx.protocol", "http")
	viper.SetDefault("influx.token", "supersecrettoken")
	viper.SetDefault("influx.org", "hexfoot")

	viper.SetDefault("graylog.enabled", false)
	viper.SetDefault("graylog.address", "localhost:12201")

	viper.SetDefault("storage.type", "memory")
	viper.SetDefault("storage.memory.outputDir", "./recordings")
	viper.SetDefault("storage.memory.compressOutput", true)
	viper.SetDefault("storage.sqlite.dumpInterval", "3m")
	viper.SetDefault("storage.websocket.url", "ws://localhost:5000/api/v1/stream")
	viper.SetDefault("storage.websocket.secret", "")

	viper.SetDefault("otel.enabled", false)
	viper.SetDefault("otel.serviceName", "hexfoot")
	viper.SetDefault("otel.batchTimeout", "5s")
	viper.SetDefault("otel.endpoint", "")
	viper.SetDefault("otel.insecure", true)
	viper.SetDefault("otel.metricInterval", "30s")
}

// Load reads configuration from JSON file and sets default values.
// configDir is the directory containing the config file.
func Load(configDir string) error {
	setDefaults()

	viper.SetConfigName(FileName)
	viper.AddConfigPath(configDir)
	viper.SetConfigType("json")

	err := viper.ReadInConfig()
	if err != nil {
		return fmt.Errorf("error reading config file: %v", err)
	}

	return nil
}

// LoadDefaults installs default values without reading a file.
func LoadDefaults() {
	setDefaults()
}

// GetString returns a string config value.
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt returns an int config value.
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetBool returns a bool config value.
func GetBool(key string) bool {
	return viper.GetBool(key)
}

// GetStorageConfig returns the storage section.
func GetStorageConfig() StorageConfig {
	return StorageConfig{
		Type: viper.GetString("storage.type"),
		Memory: MemoryConfig{
			OutputDir:      viper.GetString("storage.memory.outputDir"),
			CompressOutput: viper.GetBool("storage.memory.compressOutput"),
		},
		SQLite: SQLiteConfig{
			DumpInterval: viper.GetDuration("storage.sqlite.dumpInterval"),
		},
		WebSocket: WebSocketConfig{
			URL:    viper.GetString("storage.websocket.url"),
			Secret: viper.GetString("storage.websocket.secret"),
		},
		Influx: viper.GetBool("influx.enabled"),
	}
}

// GetOTelConfig returns the otel section.
func GetOTelConfig() OTelConfig {
	return OTelConfig{
		Enabled:      viper.GetBool("otel.enabled"),
		ServiceName:  viper.GetString("otel.serviceName"),
		BatchTimeout: viper.GetDuration("otel.batchTimeout"),
		Endpoint:     viper.GetString("otel.endpoint"),
		Insecure:     viper.GetBool("otel.insecure"),

		MetricInterval: viper.GetDuration("otel.metricInterval"),
	}
}

// GetBoardConfig returns the board section.
func GetBoardConfig() BoardConfig {
	return BoardConfig{
		HalfWidth:  viper.GetInt("board.halfWidth"),
		HalfHeight: viper.GetInt("board.halfHeight"),
	}
}
