package constants

import "time"

const (
	AppName            = "streaks"
	DefaultKeyringUser = "database-connection"
	DefaultConfigPath  = "~/.config/streaks/config.toml"
	DefaultDBPath      = "~/.config/streaks/streaks.db"
	Version            = "v0.3.0"

	// DateFormat is the calendar-day key format used throughout the application (YYYY-MM-DD)
	DateFormat = "2006-01-02"

	// TimestampFormat is the fixed-width UTC layout timestamps are persisted with.
	// Fixed width keeps lexical and chronological order identical.
	TimestampFormat = "2006-01-02T15:04:05.000000000Z"

	// Environment variables
	EnvDBConnection = "STREAKS_DB_CONNECTION"
	EnvTestPostgres = "STREAKS_TEST_POSTGRES"

	// Grid defaults
	DefaultGridRows = 8
	MaxGridRows     = 53
	DaysPerWeek     = 7

	// API defaults
	DefaultListenAddr = "127.0.0.1:8080"
	SSEKeepAlive      = 25 * time.Second

	// Backup constants
	MaxBackups       = 14
	BackupDirName    = "backups"
	BackupFilePrefix = "streaks-"
	BackupFileSuffix = ".db"

	// Default timezone. "Local" resolves to the system zone.
	DefaultTimezone = "Local"

	// Event deltas produced by the core
	DeltaSuccess = 1
	DeltaMiss    = -1
)
