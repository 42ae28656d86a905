package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Config holds every runtime setting of the API server.
type Config struct {
	Port               string        `yaml:"port"`
	MongoURI           string        `yaml:"mongo_uri"`
	MongoDB            string        `yaml:"mongo_db"`
	JWTSecret          string        `yaml:"jwt_secret"`
	TokenExpiry        time.Duration `yaml:"token_expiry"`
	PublicBaseURL      string        `yaml:"public_base_url"`
	UploadDir          string        `yaml:"upload_dir"`
	CORSOrigins        []string      `yaml:"cors_origins"`
	RedisAddr          string        `yaml:"redis_addr"`
	RedisDB            int           `yaml:"redis_db"`
	NATSURL            string        `yaml:"nats_url"`
	SuggestionPoolSize int           `yaml:"suggestion_pool_size"`
	LogLevel           string        `yaml:"log_level"`
}

// Default returns the settings used when neither a config file nor the
// environment says otherwise.
func Default() *Config {
	return &Config{
		Port:               "5000",
		MongoURI:           "mongodb://localhost:27017",
		MongoDB:            "connecthub",
		TokenExpiry:        7 * 24 * time.Hour,
		PublicBaseURL:      "http://localhost:5000",
		UploadDir:          "./uploads",
		CORSOrigins:        []string{"http://localhost:3000"},
		SuggestionPoolSize: 200,
		LogLevel:           "info",
	}
}

// LoadConfig reads .env (if present), then the YAML file named by CONFIG_FILE
// (if set), then environment variables. Later sources win.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logrus.Debug("No .env file found, using environment")
	}

	cfg := Default()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	setString(&c.Port, "PORT")
	setString(&c.MongoURI, "MONGO_URI")
	setString(&c.MongoDB, "MONGO_DB")
	setString(&c.JWTSecret, "JWT_SECRET")
	setString(&c.PublicBaseURL, "PUBLIC_BASE_URL")
	setString(&c.UploadDir, "UPLOAD_DIR")
	setString(&c.RedisAddr, "REDIS_ADDR")
	setString(&c.NATSURL, "NATS_URL")
	setString(&c.LogLevel, "LOG_LEVEL")

	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		var origins []string
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		c.CORSOrigins = origins
	}

	if v := os.Getenv("TOKEN_EXPIRY"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid TOKEN_EXPIRY %q: %w", v, err)
		}
		c.TokenExpiry = d
	}

	if err := setInt(&c.RedisDB, "REDIS_DB"); err != nil {
		return err
	}
	if err := setInt(&c.SuggestionPoolSize, "SUGGESTION_POOL_SIZE"); err != nil {
		return err
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	*dst = n
	return nil
}
