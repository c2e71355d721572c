package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/yungbote/storybook-backend/internal/bookgen"
	"github.com/yungbote/storybook-backend/internal/http/middleware"
	"github.com/yungbote/storybook-backend/internal/platform/envutil"
)

const defaultJWTSecret = "defaultsecret"

type Config struct {
	Port            string
	LogMode         string
	ShutdownTimeout time.Duration

	JWTSecretKey   string
	AccessTokenTTL time.Duration

	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresName     string
	PostgresSSLMode  string

	OpenAIAPIKey     string
	OpenAIBaseURL    string
	OpenAIModel      string
	OpenAIImageModel string
	OpenAIImageSize  string
	OpenAITimeout    time.Duration
	OpenAIMaxRetries int

	ObjectStorageMode      string
	StorageEmulatorHost    string
	IllustrationBucket     string
	IllustrationCDNDomain  string
	ObjectStoragePublicURL string
	GCPCredentials         string

	IllustrationPaceUnit       time.Duration
	IllustrationFallbackPolicy string
	MaxBookPages               int
	BookCreateRatePerMinute    int
	BookCreateBurst            int

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	ProgressTTL   time.Duration

	AllowedOrigins []string
	MetricsEnabled bool

	OTelEnabled     bool
	OTelServiceName string
	OTelEnvironment string
	OTelVersion     string
	OTelEndpoint    string
	OTelHeaders     string
	OTelInsecure    bool
	OTelSampleRatio float64
}

// LoadConfig reads the process environment once. Values that fail to parse
// fall back to their defaults; Validate reports the ones that cannot.
func LoadConfig() Config {
	return Config{
		Port:            envutil.String("PORT", "8080"),
		LogMode:         envutil.String("LOG_MODE", "development"),
		ShutdownTimeout: envutil.Duration("SHUTDOWN_TIMEOUT", 5*time.Minute, time.Second),

		JWTSecretKey:   envutil.String("JWT_SECRET_KEY", defaultJWTSecret),
		AccessTokenTTL: envutil.Duration("ACCESS_TOKEN_TTL", time.Hour, time.Second),

		PostgresHost:     envutil.String("POSTGRES_HOST", "localhost"),
		PostgresPort:     envutil.String("POSTGRES_PORT", "5432"),
		PostgresUser:     envutil.String("POSTGRES_USER", "postgres"),
		PostgresPassword: envutil.String("POSTGRES_PASSWORD", ""),
		PostgresName:     envutil.String("POSTGRES_NAME", "storybook"),
		PostgresSSLMode:  envutil.String("POSTGRES_SSLMODE", "disable"),

		OpenAIAPIKey:     envutil.String("OPENAI_API_KEY", ""),
		OpenAIBaseURL:    envutil.String("OPENAI_BASE_URL", ""),
		OpenAIModel:      envutil.String("OPENAI_MODEL", "gpt-4"),
		OpenAIImageModel: envutil.String("OPENAI_IMAGE_MODEL", "dall-e-3"),
		OpenAIImageSize:  envutil.String("OPENAI_IMAGE_SIZE", "1024x1024"),
		OpenAITimeout:    envutil.Duration("OPENAI_TIMEOUT_SECONDS", 180*time.Second, time.Second),
		OpenAIMaxRetries: envutil.Int("OPENAI_MAX_RETRIES", 0),

		ObjectStorageMode:      envutil.String("OBJECT_STORAGE_MODE", ""),
		StorageEmulatorHost:    envutil.String("STORAGE_EMULATOR_HOST", ""),
		IllustrationBucket:     envutil.String("ILLUSTRATION_GCS_BUCKET_NAME", ""),
		IllustrationCDNDomain:  envutil.String("ILLUSTRATION_CDN_DOMAIN", ""),
		ObjectStoragePublicURL: envutil.String("OBJECT_STORAGE_PUBLIC_BASE_URL", ""),
		GCPCredentials:         envutil.String("GOOGLE_APPLICATION_CREDENTIALS_JSON", ""),

		IllustrationPaceUnit:       envutil.Duration("ILLUSTRATION_PACE_UNIT", time.Second, time.Millisecond),
		IllustrationFallbackPolicy: envutil.String("ILLUSTRATION_FALLBACK_POLICY", string(bookgen.FallbackContinue)),
		MaxBookPages:               envutil.Int("MAX_BOOK_PAGES", 20),
		BookCreateRatePerMinute:    envutil.Int("BOOK_CREATE_RATE_PER_MINUTE", 2),
		BookCreateBurst:            envutil.Int("BOOK_CREATE_BURST", 1),

		RedisAddr:     envutil.String("REDIS_ADDR", ""),
		RedisPassword: envutil.String("REDIS_PASSWORD", ""),
		RedisDB:       envutil.Int("REDIS_DB", 0),
		ProgressTTL:   envutil.Duration("GENERATION_PROGRESS_TTL", bookgen.DefaultProgressTTL, time.Second),

		AllowedOrigins: envutil.List("CORS_ALLOWED_ORIGINS", middleware.DefaultAllowedOrigins),
		MetricsEnabled: envutil.Bool("METRICS_ENABLED", true),

		OTelEnabled:     envutil.Bool("OTEL_ENABLED", false),
		OTelServiceName: envutil.String("OTEL_SERVICE_NAME", "storybook-api"),
		OTelEnvironment: envutil.String("OTEL_ENVIRONMENT", "development"),
		OTelVersion:     envutil.String("OTEL_SERVICE_VERSION", "dev"),
		OTelEndpoint:    envutil.String("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		OTelHeaders:     envutil.String("OTEL_EXPORTER_OTLP_HEADERS", ""),
		OTelInsecure:    envutil.Bool("OTEL_EXPORTER_OTLP_INSECURE", false),
		OTelSampleRatio: envutil.Float("OTEL_SAMPLE_RATIO", 1),
	}
}

// Validate checks the settings the API cannot start without.
func (c Config) Validate() error {
	var missing []string
	if strings.TrimSpace(c.OpenAIAPIKey) == "" {
		missing = append(missing, "OPENAI_API_KEY")
	}
	if strings.TrimSpace(c.IllustrationBucket) == "" {
		missing = append(missing, "ILLUSTRATION_GCS_BUCKET_NAME")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required env vars: %s", strings.Join(missing, ", "))
	}
	if _, err := bookgen.ParseFallbackPolicy(c.IllustrationFallbackPolicy); err != nil {
		return fmt.Errorf("ILLUSTRATION_FALLBACK_POLICY: %w", err)
	}
	if c.MaxBookPages < 1 {
		return fmt.Errorf("MAX_BOOK_PAGES must be at least 1, got %d", c.MaxBookPages)
	}
	return nil
}

func (c Config) Addr() string {
	port := strings.TrimPrefix(strings.TrimSpace(c.Port), ":")
	if port == "" {
		port = "8080"
	}
	return ":" + port
}
