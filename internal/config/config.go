package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName                string
	AppEnv                 string
	AppPort                string
	DatabaseURL            string
	RedisURL               string
	NATSURL                string
	JWTSecret              string
	JWTTTL                 time.Duration
	TeacherSignupCode      string
	LLMProvider            string
	LLMAPIKey              string
	LLMBaseURL             string
	LLMModel               string
	LLMEmbedModel          string
	LLMMaxTokens           int
	LLMTemperature         float64
	RubricText             string
	DashboardCacheTTL      time.Duration
	ScaffoldCacheTTL       time.Duration
	UploadMaxSizeMB        int
	QdrantHost             string
	QdrantPort             int
	QdrantAPIKey           string
	QdrantUseTLS           bool
	QdrantCollection       string
	CloudinaryCloudName    string
	CloudinaryAPIKey       string
	CloudinaryAPISecret    string
	CloudinaryUploadFolder string
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("AEW")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "Adaptive English Writing API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("jwt.ttl", "72h")
	v.SetDefault("llm.provider", "openai")
	v.SetDefault("llm.max_tokens", 1024)
	v.SetDefault("llm.temperature", 0.3)
	v.SetDefault("dashboard.cache_ttl", "5m")
	v.SetDefault("scaffold.cache_ttl", "12h")
	v.SetDefault("upload.max_size_mb", 8)
	v.SetDefault("qdrant.port", 6334)
	v.SetDefault("qdrant.collection", "exemplars")
	v.SetDefault("cloudinary.folder", "aew/essays")

	jwtTTL, err := time.ParseDuration(v.GetString("jwt.ttl"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid jwt ttl: %w", err)
	}

	dashboardTTL, err := time.ParseDuration(v.GetString("dashboard.cache_ttl"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid dashboard cache ttl: %w", err)
	}

	scaffoldTTL, err := time.ParseDuration(v.GetString("scaffold.cache_ttl"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid scaffold cache ttl: %w", err)
	}

	cfg := Config{
		AppName:                v.GetString("app.name"),
		AppEnv:                 v.GetString("app.env"),
		AppPort:                v.GetString("app.port"),
		DatabaseURL:            v.GetString("database.url"),
		RedisURL:               v.GetString("redis.url"),
		NATSURL:                v.GetString("nats.url"),
		JWTSecret:              v.GetString("jwt.secret"),
		JWTTTL:                 jwtTTL,
		TeacherSignupCode:      v.GetString("teacher.signup_code"),
		LLMProvider:            strings.ToLower(v.GetString("llm.provider")),
		LLMAPIKey:              v.GetString("llm.api_key"),
		LLMBaseURL:             v.GetString("llm.base_url"),
		LLMModel:               v.GetString("llm.model"),
		LLMEmbedModel:          v.GetString("llm.embed_model"),
		LLMMaxTokens:           v.GetInt("llm.max_tokens"),
		LLMTemperature:         v.GetFloat64("llm.temperature"),
		RubricText:             v.GetString("rubric.text"),
		DashboardCacheTTL:      dashboardTTL,
		ScaffoldCacheTTL:       scaffoldTTL,
		UploadMaxSizeMB:        v.GetInt("upload.max_size_mb"),
		QdrantHost:             v.GetString("qdrant.host"),
		QdrantPort:             v.GetInt("qdrant.port"),
		QdrantAPIKey:           v.GetString("qdrant.api_key"),
		QdrantUseTLS:           v.GetBool("qdrant.use_tls"),
		QdrantCollection:       v.GetString("qdrant.collection"),
		CloudinaryCloudName:    v.GetString("cloudinary.cloud_name"),
		CloudinaryAPIKey:       v.GetString("cloudinary.api_key"),
		CloudinaryAPISecret:    v.GetString("cloudinary.api_secret"),
		CloudinaryUploadFolder: v.GetString("cloudinary.folder"),
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	if cfg.LLMMaxTokens <= 0 {
		cfg.LLMMaxTokens = 1024
	}

	return cfg, nil
}
