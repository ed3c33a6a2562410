package config

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all runtime settings, loaded from the environment with an
// optional .env overlay for local development.
type Config struct {
	AppName string `envconfig:"APP_NAME" default:"messaging"`
	Env     string `envconfig:"APP_ENV" default:"development"`
	Host    string `envconfig:"HTTP_HOST" default:"0.0.0.0"`
	Port    int    `envconfig:"HTTP_PORT" default:"8000"`

	// DatabaseDSN points at the sqlite database file.
	DatabaseDSN string `envconfig:"DATABASE_DSN" default:"messaging.db"`

	JWTSecret          string `envconfig:"JWT_SECRET" required:"true"`
	AccessTokenMinutes int    `envconfig:"ACCESS_TOKEN_EXPIRE_MINUTES" default:"1440"`

	CORSOrigins []string `envconfig:"CORS_ORIGINS" default:"http://localhost:3000,http://localhost:5173"`

	// EventBufferSize bounds the internal event channel between the write
	// path and the realtime broadcaster.
	EventBufferSize int `envconfig:"EVENT_BUFFER_SIZE" default:"256"`

	Debug bool `envconfig:"DEBUG" default:"false"`
}

// Load reads configuration from the environment. A missing .env file is not
// an error; explicit environment variables always win.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("process env config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) HTTPAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
