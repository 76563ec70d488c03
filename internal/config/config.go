package config

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server      ServerConfig      `mapstructure:"server" validate:"required"`
	Database    DatabaseConfig    `mapstructure:"database" validate:"required"`
	Auth        AuthConfig        `mapstructure:"auth" validate:"required"`
	WriteQueue  WriteQueueConfig  `mapstructure:"write_queue" validate:"required"`
	Idempotency IdempotencyConfig `mapstructure:"idempotency" validate:"required"`
	SSE         SSEConfig         `mapstructure:"sse" validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required,url"`
}

// AuthConfig contains all authentication and authorization settings.
type AuthConfig struct {
	JWTSecret            string `mapstructure:"jwt_secret" validate:"required,min=32"`
	TokenLifetimeMinutes int    `mapstructure:"token_lifetime_minutes" validate:"required,gt=0"`
	BcryptCost           int    `mapstructure:"bcrypt_cost" validate:"omitempty,gte=4,lte=31"`
}

// WriteQueueConfig contains settings for the asynchronous write queue.
type WriteQueueConfig struct {
	// Size bounds the backlog of pending write tasks. When the backlog is
	// full, submissions run synchronously on the caller's goroutine.
	Size int `mapstructure:"size" validate:"required,gt=0"`
}

// IdempotencyConfig contains settings for the duplicate-operation guard.
type IdempotencyConfig struct {
	// WindowSeconds is how long a registered operation key blocks
	// identical operations before expiring.
	WindowSeconds int `mapstructure:"window_seconds" validate:"required,gt=0"`
}

// SSEConfig contains settings for the server-sent-events broadcaster.
type SSEConfig struct {
	// HeartbeatSeconds is the period between ping events used to detect
	// and prune dead subscriber connections.
	HeartbeatSeconds int `mapstructure:"heartbeat_seconds" validate:"required,gt=0"`
}
