package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	DatabaseURL string
	Port        string
	Env         string
	OpenAIKey   string

	// Automation engine tuning
	CooldownSeconds  int
	MaxChainDepth    int
	TimeTriggerCron  string
	TimeTriggerMax   int
	JobRetentionDays int
}

func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️ .env file not found, using system environment variables")
	}

	cfg := &Config{
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		Port:             os.Getenv("PORT"),
		Env:              os.Getenv("ENV"),
		OpenAIKey:        os.Getenv("OPENAI_API_KEY"),
		CooldownSeconds:  envInt("AUTOMATION_COOLDOWN_SECONDS", 60),
		MaxChainDepth:    envInt("AUTOMATION_MAX_CHAIN_DEPTH", 3),
		TimeTriggerCron:  os.Getenv("TIME_TRIGGER_CRON"),
		TimeTriggerMax:   envInt("TIME_TRIGGER_MAX_EVENTS", 500),
		JobRetentionDays: envInt("JOB_RETENTION_DAYS", 30),
	}

	// Default values
	if cfg.Port == "" {
		cfg.Port = "8080"
	}
	if cfg.Env == "" {
		cfg.Env = "development"
	}
	if cfg.TimeTriggerCron == "" {
		cfg.TimeTriggerCron = "0 */10 * * * *" // every 10 minutes
	}

	return cfg
}

func envInt(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		log.Printf("⚠️ Invalid %s=%q, using default %d", key, raw, fallback)
		return fallback
	}
	return n
}
