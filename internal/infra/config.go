package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv      string
	Port        string
	DatabaseURL string
	DBMaxConns  int
	DBMinConns  int
	JWTSecret   string

	AIEnabled  bool
	DailyCap   int
	AdminToken string

	OpenAIAPIKey     string
	OpenAIBaseURL    string
	OpenAIImageModel string

	StabilityAPIKey  string
	StabilityBaseURL string

	ReplicateAPIToken     string
	ReplicateBaseURL      string
	ReplicateVitonVersion string
	ReplicatePollInterval time.Duration
	ReplicatePollMax      time.Duration

	StorageDriver    string
	StoragePath      string
	StorageBaseURL   string
	S3Bucket         string
	AWSRegion        string
	S3PublicBaseURL  string
	SupabaseURL      string
	SupabaseKey      string
	SupabaseBucket   string
	SignedURLTTL     time.Duration
	FetchCacheSize   int
	ProviderTimeout  time.Duration
	RefreshInterval  time.Duration
	RefreshBatchSize int

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	RateLimitPerMin  int
	CORSOrigins      []string
	MaxUploadBytes   int64
}

// DefaultVitonVersion pins the IDM-VTON model on Replicate.
const DefaultVitonVersion = "cuuupid/idm-vton:0513734a452173b8173e907e3a59d19a36266e55b48528559432bd21c7d7e985"

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	port := getEnv("PORT", "8080")
	cfg := &Config{
		AppEnv:      getEnv("APP_ENV", "development"),
		Port:        port,
		DatabaseURL: os.Getenv("DATABASE_URL"),
		DBMaxConns:  getEnvInt("DB_MAX_CONNS", 10),
		DBMinConns:  getEnvInt("DB_MIN_CONNS", 1),
		JWTSecret:   os.Getenv("JWT_SECRET"),

		AIEnabled:  getEnvBool("AI_IMAGES_ENABLED", false),
		DailyCap:   getEnvInt("AI_IMAGES_DAILY_CAP", 20),
		AdminToken: strings.TrimSpace(os.Getenv("AI_IMAGES_ADMIN_TOKEN")),

		OpenAIAPIKey:     os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL:    getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		OpenAIImageModel: getEnv("OPENAI_IMAGE_MODEL", "gpt-image-1"),

		StabilityAPIKey:  os.Getenv("STABILITY_API_KEY"),
		StabilityBaseURL: getEnv("STABILITY_BASE_URL", "https://api.stability.ai"),

		ReplicateAPIToken:     os.Getenv("REPLICATE_API_TOKEN"),
		ReplicateBaseURL:      getEnv("REPLICATE_BASE_URL", "https://api.replicate.com/v1"),
		ReplicateVitonVersion: getEnv("REPLICATE_VITON_VERSION", DefaultVitonVersion),
		ReplicatePollInterval: time.Millisecond * time.Duration(getEnvInt("REPLICATE_POLL_INTERVAL_MS", 1500)),
		ReplicatePollMax:      time.Second * time.Duration(getEnvInt("REPLICATE_POLL_MAX_SECONDS", 300)),

		StorageDriver:    strings.ToLower(getEnv("STORAGE_DRIVER", "file")),
		StoragePath:      getEnv("STORAGE_PATH", "./storage"),
		StorageBaseURL:   getEnv("STORAGE_BASE_URL", fmt.Sprintf("http://localhost:%s/static", port)),
		S3Bucket:         os.Getenv("S3_BUCKET"),
		AWSRegion:        getEnv("AWS_REGION", "us-east-1"),
		S3PublicBaseURL:  os.Getenv("S3_PUBLIC_BASE_URL"),
		SupabaseURL:      os.Getenv("SUPABASE_URL"),
		SupabaseKey:      os.Getenv("SUPABASE_SERVICE_ROLE_KEY"),
		SupabaseBucket:   getEnv("SUPABASE_BUCKET", "ai-images"),
		SignedURLTTL:     time.Hour * time.Duration(getEnvInt("SIGNED_URL_TTL_HOURS", 24*7)),
		FetchCacheSize:   getEnvInt("FETCH_CACHE_SIZE", 64),
		ProviderTimeout:  time.Second * time.Duration(getEnvInt("PROVIDER_TIMEOUT_SECONDS", 120)),
		RefreshInterval:  time.Second * time.Duration(getEnvInt("REFRESH_INTERVAL_SECONDS", 900)),
		RefreshBatchSize: getEnvInt("REFRESH_BATCH_SIZE", 3),

		HTTPReadTimeout:  time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout: time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 720)),
		HTTPIdleTimeout:  time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:  getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
		CORSOrigins:      getEnvList("CORS_ALLOWED_ORIGINS"),
		MaxUploadBytes:   int64(getEnvInt("MAX_UPLOAD_MB", 10)) << 20,
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	switch cfg.StorageDriver {
	case "file":
	case "s3":
		if cfg.S3Bucket == "" {
			return nil, fmt.Errorf("S3_BUCKET is required for STORAGE_DRIVER=s3")
		}
	case "supabase":
		if cfg.SupabaseURL == "" || cfg.SupabaseKey == "" {
			return nil, fmt.Errorf("SUPABASE_URL and SUPABASE_SERVICE_ROLE_KEY are required for STORAGE_DRIVER=supabase")
		}
	default:
		return nil, fmt.Errorf("unsupported STORAGE_DRIVER %q", cfg.StorageDriver)
	}

	if budget := cfg.DispatchBudget(); cfg.HTTPWriteTimeout < budget {
		cfg.HTTPWriteTimeout = budget
	}

	return cfg, nil
}

// DispatchBudget is the longest a synchronous try-on may run: the primary
// prediction and its retry each poll for up to ReplicatePollMax, plus one
// provider timeout for fetches and the upload.
func (c *Config) DispatchBudget() time.Duration {
	return 2*c.ReplicatePollMax + c.ProviderTimeout
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if v := strings.TrimSpace(part); v != "" {
			out = append(out, v)
		}
	}
	return out
}
