package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"waggle_server/models"

	"github.com/joho/godotenv"
)

// Config holds every setting of the match server.
type Config struct {
	Port             string
	AWSRegion        string
	DynamoDBEndpoint string

	DogSwipesTable string
	DogsTable      string
	MatchesTable   string
	UsersTable     string
	DogIDIndex     string

	NotificationsTable string

	StreamEnabled      bool
	StreamARN          string
	StreamPollInterval time.Duration
	StreamStart        string

	HandlerTimeout time.Duration

	ExpoPushURL     string
	ExpoAccessToken string
	VAPIDPublicKey  string
	VAPIDPrivateKey string
	VAPIDSubscriber string

	CORSAllowedOrigins []string
}

// Load reads an optional .env file, then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️ No .env file found, using system environment")
	} else {
		log.Println("✅ .env file loaded")
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function.
func FromEnv(getenv func(string) string) (*Config, error) {
	get := func(key, fallback string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return fallback
	}

	cfg := &Config{
		Port:             get("PORT", "8080"),
		AWSRegion:        get("AWS_REGION", "us-east-1"),
		DynamoDBEndpoint: get("DYNAMODB_ENDPOINT", ""),

		DogSwipesTable: get("DOG_SWIPES_TABLE", models.DogSwipesTable),
		DogsTable:      get("DOGS_TABLE", models.DogsTable),
		MatchesTable:   get("MATCHES_TABLE", models.MatchesTable),
		UsersTable:     get("USERS_TABLE", models.UsersTable),
		DogIDIndex:     get("DOG_ID_INDEX", models.DogIDIndex),

		NotificationsTable: get("NOTIFICATIONS_TABLE", models.NotificationsTable),

		StreamARN:   get("STREAM_ARN", ""),
		StreamStart: strings.ToUpper(get("STREAM_START", "LATEST")),

		ExpoPushURL:     get("EXPO_PUSH_URL", "https://exp.host/--/api/v2/push/send"),
		ExpoAccessToken: get("EXPO_ACCESS_TOKEN", ""),
		VAPIDPublicKey:  get("VAPID_PUBLIC_KEY", ""),
		VAPIDPrivateKey: get("VAPID_PRIVATE_KEY", ""),
		VAPIDSubscriber: get("VAPID_SUBSCRIBER", "mailto:admin@waggle.app"),
	}

	var err error
	if cfg.StreamEnabled, err = strconv.ParseBool(get("STREAM_ENABLED", "false")); err != nil {
		return nil, fmt.Errorf("invalid STREAM_ENABLED: %w", err)
	}
	if cfg.StreamPollInterval, err = time.ParseDuration(get("STREAM_POLL_INTERVAL", "1s")); err != nil {
		return nil, fmt.Errorf("invalid STREAM_POLL_INTERVAL: %w", err)
	}
	if cfg.HandlerTimeout, err = time.ParseDuration(get("HANDLER_TIMEOUT", "60s")); err != nil {
		return nil, fmt.Errorf("invalid HANDLER_TIMEOUT: %w", err)
	}
	if cfg.StreamStart != "LATEST" && cfg.StreamStart != "TRIM_HORIZON" {
		return nil, fmt.Errorf("invalid STREAM_START %q: must be LATEST or TRIM_HORIZON", cfg.StreamStart)
	}

	for _, origin := range strings.Split(get("CORS_ALLOWED_ORIGINS", "*"), ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			cfg.CORSAllowedOrigins = append(cfg.CORSAllowedOrigins, origin)
		}
	}
	return cfg, nil
}

// WebPushEnabled reports whether VAPID keys are configured.
func (c *Config) WebPushEnabled() bool {
	return c.VAPIDPublicKey != "" && c.VAPIDPrivateKey != ""
}
