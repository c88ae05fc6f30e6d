package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App struct {
		Name string
		Env  string
	}

	API struct {
		Host string
		Port string
	}

	DB struct {
		Host     string
		Port     int
		User     string
		Password string
		Name     string
		SSLMode  string
	}

	Redis struct {
		Addr     string
		Password string
		DB       int
	}

	Webhook struct {
		URL string
		Key string
	}

	Scheduler struct {
		Interval     time.Duration
		SweepTimeout time.Duration
	}

	Dispatch struct {
		Budget          time.Duration
		SendTimeout     time.Duration
		StaleClaimAfter time.Duration
	}

	Campaign struct {
		// TZOffsetHours is the fixed campaign timezone for HH:MM policy
		// fields. The deployed default is UTC-3.
		TZOffsetHours   int
		AdmissionBuffer time.Duration
	}
}

func New() *Config {
	_ = godotenv.Load()

	cfg := &Config{}

	// App
	cfg.App.Name = getEnv("APP_NAME", "disparo")
	cfg.App.Env = getEnv("APP_ENV", "development")

	// API
	cfg.API.Host = getEnv("API_HOST", "0.0.0.0")
	cfg.API.Port = getEnv("API_PORT", "8080")

	// DB
	cfg.DB.Host = getEnv("DB_HOST", "db")
	cfg.DB.Port = getInt("DB_PORT", 5432)
	cfg.DB.User = getEnv("DB_USER", "root")
	cfg.DB.Password = getEnv("DB_PASSWORD", "123456")
	cfg.DB.Name = getEnv("DB_NAME", "db_disparo")
	cfg.DB.SSLMode = getEnv("DB_SSLMODE", "disable")

	// Redis
	cfg.Redis.Addr = getEnv("REDIS_ADDR", "redis:6379")
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", "")
	cfg.Redis.DB = getInt("REDIS_DB", 0)

	// Send endpoint
	cfg.Webhook.URL = getEnv("WEBHOOK_URL", "")
	cfg.Webhook.Key = getEnv("WEBHOOK_KEY", "")

	// Scheduler trigger
	cfg.Scheduler.Interval = getDuration("SCHEDULER_INTERVAL", 30*time.Second)
	cfg.Scheduler.SweepTimeout = getDuration("SCHEDULER_SWEEP_TIMEOUT", 60*time.Second)

	// Dispatcher
	cfg.Dispatch.Budget = getDuration("DISPATCH_BUDGET", 55*time.Second)
	cfg.Dispatch.SendTimeout = getDuration("SEND_TIMEOUT", 30*time.Second)
	cfg.Dispatch.StaleClaimAfter = getDuration("STALE_CLAIM_AFTER", 10*time.Minute)

	// Campaign policy environment
	cfg.Campaign.TZOffsetHours = getInt("CAMPAIGN_TZ_OFFSET_HOURS", -3)
	cfg.Campaign.AdmissionBuffer = getDuration("ADMISSION_BUFFER", time.Hour)

	return cfg
}

func getEnv(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func getInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

func getDuration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

func (c *Config) PostgresDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.DB.Host,
		c.DB.Port,
		c.DB.User,
		c.DB.Password,
		c.DB.Name,
		c.DB.SSLMode,
	)
}

// CampaignLocation is the fixed timezone in which policy HH:MM fields are
// interpreted.
func (c *Config) CampaignLocation() *time.Location {
	return time.FixedZone(fmt.Sprintf("UTC%+d", c.Campaign.TZOffsetHours), c.Campaign.TZOffsetHours*3600)
}
