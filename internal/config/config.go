package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	DatabaseURL string `mapstructure:"database_url"`
	RedisURL    string `mapstructure:"redis_url"`
	Port        string `mapstructure:"port"`
	PublicURL   string `mapstructure:"public_url"`

	// Auth
	JWTAccessSecret  string `mapstructure:"jwt_access_secret"`
	JWTRefreshSecret string `mapstructure:"jwt_refresh_secret"`
	AccessTokenTTL   int    `mapstructure:"access_token_ttl_minutes"`
	RefreshTokenTTL  int    `mapstructure:"refresh_token_ttl_hours"`

	// Media store
	MediaAPIBaseURL string `mapstructure:"media_api_base_url"`
	MediaAPIKey     string `mapstructure:"media_api_key"`
	UploadDir       string `mapstructure:"upload_dir"`

	// Push delivery
	FirebaseCredentialsFile string `mapstructure:"firebase_credentials_file"`
}

// App holds the global config instance
var App Config

// LoadConfig loads configuration from file and environment variables
func LoadConfig(path string) error {
	// Auto-load .env file if present so 'go run' works without
	// manually exporting env vars. Missing .env is fine.
	if err := godotenv.Load(); err == nil {
		log.Println("✅ Loaded .env file")
	}

	v := viper.New()

	v.SetDefault("port", "8080")
	v.SetDefault("public_url", "http://localhost:8080")
	v.SetDefault("upload_dir", "./uploads")
	v.SetDefault("access_token_ttl_minutes", 15)
	v.SetDefault("refresh_token_ttl_hours", 168)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
		v.SetConfigName("dev.config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("grievance")

	// Bind standard environment variables (Docker/deploy compatibility)
	_ = v.BindEnv("database_url", "DATABASE_URL")
	_ = v.BindEnv("redis_url", "REDIS_URL")
	_ = v.BindEnv("port", "PORT")
	_ = v.BindEnv("public_url", "PUBLIC_URL")

	_ = v.BindEnv("jwt_access_secret", "JWT_ACCESS_SECRET")
	_ = v.BindEnv("jwt_refresh_secret", "JWT_REFRESH_SECRET")
	_ = v.BindEnv("access_token_ttl_minutes", "ACCESS_TOKEN_TTL_MINUTES")
	_ = v.BindEnv("refresh_token_ttl_hours", "REFRESH_TOKEN_TTL_HOURS")

	_ = v.BindEnv("media_api_base_url", "MEDIA_API_BASE_URL")
	_ = v.BindEnv("media_api_key", "MEDIA_API_KEY")
	_ = v.BindEnv("upload_dir", "UPLOAD_DIR")

	_ = v.BindEnv("firebase_credentials_file", "FIREBASE_CREDENTIALS_FILE")

	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Println("ℹ️  No config file found, using defaults and environment variables")
		} else {
			return err
		}
	} else {
		log.Printf("✅ Loaded config from: %s", v.ConfigFileUsed())
	}

	if err := v.Unmarshal(&App); err != nil {
		return err
	}

	// Backfill environment variables for code that still reads os.Getenv.
	setEnvIfEmpty("DATABASE_URL", App.DatabaseURL)
	setEnvIfEmpty("REDIS_URL", App.RedisURL)
	setEnvIfEmpty("PORT", App.Port)
	setEnvIfEmpty("JWT_ACCESS_SECRET", App.JWTAccessSecret)
	setEnvIfEmpty("JWT_REFRESH_SECRET", App.JWTRefreshSecret)
	setEnvIfEmpty("MEDIA_API_BASE_URL", App.MediaAPIBaseURL)
	setEnvIfEmpty("MEDIA_API_KEY", App.MediaAPIKey)
	setEnvIfEmpty("UPLOAD_DIR", App.UploadDir)
	setEnvIfEmpty("FIREBASE_CREDENTIALS_FILE", App.FirebaseCredentialsFile)

	return nil
}

func setEnvIfEmpty(key, value string) {
	if value != "" && os.Getenv(key) == "" {
		os.Setenv(key, value)
	}
}
