package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds everything the exam service reads from the environment.
type Config struct {
	Addr         string
	DatabasePath string

	AdminUsername     string
	AdminPasswordHash string
	AdminPassword     string
	JWTSecret         string
	AdminTokenTTL     time.Duration

	ExtraCategories     []string
	SeedSampleQuestions bool
	ExamDuration        time.Duration

	RabbitMQURI      string
	RabbitMQExchange string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	StatsCacheTTL time.Duration
}

// AdminEnabled reports whether any admin credential is configured.
func (c *Config) AdminEnabled() bool {
	return c.AdminPasswordHash != "" || c.AdminPassword != ""
}

// Load reads .env (when present) and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}
	return FromEnv()
}

func FromEnv() (*Config, error) {
	cfg := &Config{
		Addr:              getEnv("ADDR", ":8080"),
		DatabasePath:      getEnv("DB_PATH", "exam.db"),
		AdminUsername:     getEnv("ADMIN_USERNAME", "admin"),
		AdminPasswordHash: os.Getenv("ADMIN_PASSWORD_HASH"),
		AdminPassword:     os.Getenv("ADMIN_PASSWORD"),
		JWTSecret:         os.Getenv("JWT_SECRET"),
		ExtraCategories:   splitList(os.Getenv("EXTRA_CATEGORIES")),
		RabbitMQURI:       os.Getenv("RABBITMQ_URI"),
		RabbitMQExchange:  getEnv("RABBITMQ_EXCHANGE", "exam-events"),
		RedisAddr:         os.Getenv("REDIS_ADDR"),
		RedisPassword:     os.Getenv("REDIS_PASSWORD"),
	}

	var err error
	if cfg.AdminTokenTTL, err = getDuration("ADMIN_TOKEN_TTL", 24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.StatsCacheTTL, err = getDuration("STATS_CACHE_TTL", time.Minute); err != nil {
		return nil, err
	}
	if cfg.ExamDuration, err = getDuration("EXAM_DURATION", 3*time.Hour); err != nil {
		return nil, err
	}
	if cfg.SeedSampleQuestions, err = getBool("SEED_SAMPLE_QUESTIONS", false); err != nil {
		return nil, err
	}
	if cfg.RedisDB, err = getInt("REDIS_DB", 0); err != nil {
		return nil, err
	}

	if cfg.AdminEnabled() && cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET environment variable is required when admin credentials are set")
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	value, err := time.ParseDuration(raw)
	if err != nil || value <= 0 {
		return 0, fmt.Errorf("%s must be a positive duration, got %q", key, raw)
	}
	return value, nil
}

func getBool(key string, fallback bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%s must be a boolean, got %q", key, raw)
	}
	return value, nil
}

func getInt(key string, fallback int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return 0, fmt.Errorf("%s must be a non-negative integer, got %q", key, raw)
	}
	return value, nil
}

func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
