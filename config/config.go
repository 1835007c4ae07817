package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all application settings, sourced from the environment.
type Config struct {
	DatabaseURL  string
	JWTSecretKey string
	ServerPort   int

	// Cloudflare R2 (S3 API) for logo storage.
	R2AccountID       string
	R2AccessKeyID     string
	R2SecretAccessKey string
	R2BucketName      string
	R2PublicBaseURL   string

	// SMTP for waitlist/event notifications.
	SMTPHost string
	SMTPPort int
	SMTPUser string
	SMTPPass string
	SMTPFrom string

	Rating RatingConfig
}

// RatingConfig carries the tunable constants of the rating ladder.
type RatingConfig struct {
	MinRating                 float64
	MaxRating                 float64
	InitialAssessmentCap      float64
	ProvisionalGamesThreshold int
	KProvisional              float64
	KStandard                 float64
	KExpert                   float64
	RatingScale               float64
}

// Load reads configuration from environment variables, optionally
// picking up a .env file for local development.
func Load() (*Config, error) {
	_ = godotenv.Load()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is not set")
	}

	jwtKey := os.Getenv("JWT_SECRET_KEY")
	if jwtKey == "" {
		return nil, fmt.Errorf("JWT_SECRET_KEY environment variable is not set")
	}

	port, err := intEnv("SERVER_PORT", 8080)
	if err != nil {
		return nil, err
	}
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", port)
	}

	smtpPort, err := intEnv("SMTP_PORT", 587)
	if err != nil {
		return nil, err
	}

	rating, err := loadRatingConfig()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		DatabaseURL:  dbURL,
		JWTSecretKey: jwtKey,
		ServerPort:   port,

		R2AccountID:       os.Getenv("R2_ACCOUNT_ID"),
		R2AccessKeyID:     os.Getenv("R2_ACCESS_KEY_ID"),
		R2SecretAccessKey: os.Getenv("R2_SECRET_ACCESS_KEY"),
		R2BucketName:      os.Getenv("R2_BUCKET_NAME"),
		R2PublicBaseURL:   os.Getenv("R2_PUBLIC_BASE_URL"),

		SMTPHost: os.Getenv("SMTP_HOST"),
		SMTPPort: smtpPort,
		SMTPUser: os.Getenv("SMTP_USER"),
		SMTPPass: os.Getenv("SMTP_PASS"),
		SMTPFrom: os.Getenv("SMTP_FROM"),

		Rating: rating,
	}

	return cfg, nil
}

func loadRatingConfig() (RatingConfig, error) {
	cfg := RatingConfig{
		MinRating:                 800,
		MaxRating:                 3000,
		InitialAssessmentCap:      1400,
		ProvisionalGamesThreshold: 15,
		KProvisional:              40,
		KStandard:                 24,
		KExpert:                   16,
		RatingScale:               400,
	}

	overrides := []struct {
		key    string
		target *float64
	}{
		{"RATING_MIN", &cfg.MinRating},
		{"RATING_MAX", &cfg.MaxRating},
		{"RATING_ASSESSMENT_CAP", &cfg.InitialAssessmentCap},
		{"RATING_K_PROVISIONAL", &cfg.KProvisional},
		{"RATING_K_STANDARD", &cfg.KStandard},
		{"RATING_K_EXPERT", &cfg.KExpert},
		{"RATING_SCALE", &cfg.RatingScale},
	}
	for _, o := range overrides {
		raw := os.Getenv(o.key)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return cfg, fmt.Errorf("invalid %s environment variable: %w", o.key, err)
		}
		*o.target = v
	}

	if raw := os.Getenv("RATING_PROVISIONAL_GAMES"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			return cfg, fmt.Errorf("invalid RATING_PROVISIONAL_GAMES environment variable: %w", err)
		}
		cfg.ProvisionalGamesThreshold = v
	}

	if cfg.MinRating >= cfg.MaxRating {
		return cfg, fmt.Errorf("RATING_MIN (%v) must be below RATING_MAX (%v)", cfg.MinRating, cfg.MaxRating)
	}
	return cfg, nil
}

func intEnv(key string, fallback int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s environment variable: %w", key, err)
	}
	return v, nil
}
