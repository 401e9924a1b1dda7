package domain

// Config mirrors ~/.cmdcenter/config.yaml.
type Config struct {
	ConfigFormatVersion string            `yaml:"config_format_version"`
	Mode                Mode              `yaml:"mode"`
	Simulator           SimulatorSettings `yaml:"simulator"`
	Backend             BackendSettings   `yaml:"backend"`
	Remote              RemoteSettings    `yaml:"remote"`
	History             HistorySettings   `yaml:"history"`
	Cache               CacheSettings     `yaml:"cache"`
	Security            SecuritySettings  `yaml:"security"`
	Logging             LoggingSettings   `yaml:"logging"`
	Metrics             MetricsSettings   `yaml:"metrics"`
}

// Mode selects where commands are resolved.
type Mode string

const (
	ModeLocal  Mode = "local"
	ModeRemote Mode = "remote"
)

// SimulatorSettings configures the local interpreter.
type SimulatorSettings struct {
	TreeFile string `yaml:"tree_file"`
	Prompt   string `yaml:"prompt"`
}

// BackendSettings configures the hosted storage/database service.
type BackendSettings struct {
	Driver         string `yaml:"driver"`
	URL            string `yaml:"url"`
	APIKey         string `yaml:"api_key"`
	DSN            string `yaml:"dsn"`
	FilesTable     string `yaml:"files_table"`
	HistoryTable   string `yaml:"history_table"`
	TimeoutSeconds int    `yaml:"timeout"`
}

// RemoteSettings configures the WebSocket terminal server.
type RemoteSettings struct {
	URL                     string `yaml:"url"`
	HandshakeTimeoutSeconds int    `yaml:"handshake_timeout"`
}

// HistorySettings configures command persistence.
type HistorySettings struct {
	Driver           string `yaml:"driver"`
	Path             string `yaml:"path"`
	SeedLimit        int    `yaml:"seed_limit"`
	ReplayTranscript bool   `yaml:"replay_transcript"`
}

// CacheSettings configures the storage listing cache.
type CacheSettings struct {
	Enabled    bool   `yaml:"enabled"`
	TTL        string `yaml:"ttl"`
	MaxEntries int    `yaml:"max_entries"`
}

// SecuritySettings defines guardrail behavior for remote commands.
type SecuritySettings struct {
	Enabled   bool   `yaml:"enabled"`
	RulesFile string `yaml:"rules_file"`
}

// LoggingSettings controls the structured logger.
type LoggingSettings struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// MetricsSettings controls the prometheus endpoint.
type MetricsSettings struct {
	Listen string `yaml:"listen"`
}
