package config

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

const (
	EnvProduction = "production"
	EnvStaging    = "staging"
	EnvDev        = "dev"
)

type Config struct {
	App               AppConfig
	HTTP              HTTPConfig
	GRPC              ServerConfig
	MySQL             MySQLConfig
	Log               LogConfig
	InternalEndpoints InternalEndpointsConfig
	Auth              AuthConfig
	Iyzico            IyzicoConfig
	Payments          PaymentsConfig
	RateLimits        RateLimitsConfig
	Storage           StorageConfig
	Firestore         FirestoreConfig
	Jobs              JobsConfig
}

type AppConfig struct {
	ServiceName string
	APIKey      string
	Env         string
}

// IsLocal reports whether development-only shortcuts (mock tokens) may be honored.
func (c AppConfig) IsLocal() bool {
	switch c.Env {
	case "local", "development", EnvDev, "test", EnvStaging:
		return true
	default:
		return false
	}
}

type ServerConfig struct {
	Host string
	Port string
}

type HTTPConfig struct {
	Host           string
	Port           string
	AllowedOrigins []string
}

type MySQLConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type LogConfig struct {
	Level string
}

type InternalEndpointsConfig struct {
	AuthGRPCAddr string
}

type AuthConfig struct {
	JWTSecret string
}

type IyzicoConfig struct {
	Env         string
	APIKey      string
	SecretKey   string
	BaseURL     string
	CallbackURL string
	HTTPTimeout time.Duration
}

type PaymentsConfig struct {
	LetterPrice decimal.Decimal
	Currency    string
}

type RateLimitsConfig struct {
	CreateOrderPerMinute   int
	TrackOrderPerMinute    int
	CreateIntentPerMinute  int
	PaymentStatusPerMinute int
	WebhookPerMinute       int
}

type StorageConfig struct {
	Driver       string
	LocalDir     string
	LocalURL     string
	S3Region     string
	S3Bucket     string
	S3Prefix     string
	S3Endpoint   string
	S3AccessKey  string
	S3SecretKey  string
	S3PublicBase string
}

type FirestoreConfig struct {
	ProjectID       string
	CredentialsFile string
}

type JobsConfig struct {
	PDFDispatchInterval time.Duration
	PIICleanupInterval  time.Duration
	PIICutoffDays       int
	BatchSize           int32
}

type ClientConfig struct {
	APIBaseURL   string
	StatePath    string
	PollInterval time.Duration
	PollTimeout  time.Duration
	HTTPTimeout  time.Duration
	LogLevel     string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	mysqlDSN := os.Getenv("MYSQL_DSN")
	if mysqlDSN == "" {
		return nil, errors.New("MYSQL_DSN environment variable is required")
	}

	price, err := decimal.NewFromString(getEnv("LETTER_PRICE", "100.00"))
	if err != nil {
		return nil, errors.New("LETTER_PRICE must be a decimal amount")
	}

	return &Config{
		App: AppConfig{
			ServiceName: getEnv("APP_SERVICE_NAME", "letters-service"),
			APIKey:      getEnv("APP_API_KEY", ""),
			Env:         getEnv("APP_ENV", EnvDev),
		},
		HTTP: HTTPConfig{
			Host:           getEnv("HTTP_HOST", "0.0.0.0"),
			Port:           getEnv("HTTP_PORT", "8080"),
			AllowedOrigins: ParseAllowedOrigins(getEnv("ALLOWED_ORIGINS", `["http://localhost:5173", "http://localhost:3000"]`)),
		},
		GRPC: ServerConfig{
			Host: getEnv("GRPC_HOST", "0.0.0.0"),
			Port: getEnv("GRPC_PORT", "9090"),
		},
		MySQL: MySQLConfig{
			DSN:             mysqlDSN,
			MaxOpenConns:    getIntEnv("MYSQL_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    getIntEnv("MYSQL_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getMinutesEnv("MYSQL_CONN_MAX_LIFETIME_MINUTES", 30*time.Minute),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		InternalEndpoints: InternalEndpointsConfig{
			AuthGRPCAddr: getEnv("AUTH_SERVICE_GRPC_ADDR", "localhost:9090"),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("AUTH_JWT_SECRET", ""),
		},
		Iyzico: IyzicoConfig{
			Env:         getEnv("IYZICO_ENV", "sandbox"),
			APIKey:      getEnv("IYZICO_API_KEY", "mock_api_key"),
			SecretKey:   getEnv("IYZICO_SECRET_KEY", "mock_secret_key"),
			BaseURL:     getEnv("IYZICO_BASE_URL", "https://sandbox-api.iyzipay.com"),
			CallbackURL: getEnv("IYZICO_CALLBACK_URL", "http://localhost:5173/pay/return"),
			HTTPTimeout: getSecondsEnv("IYZICO_HTTP_TIMEOUT_SECONDS", 10*time.Second),
		},
		Payments: PaymentsConfig{
			LetterPrice: price,
			Currency:    strings.ToUpper(getEnv("LETTER_CURRENCY", "TRY")),
		},
		RateLimits: RateLimitsConfig{
			CreateOrderPerMinute:   getIntEnv("RATE_LIMIT_CREATE_ORDER_PER_MINUTE", 5),
			TrackOrderPerMinute:    getIntEnv("RATE_LIMIT_TRACK_ORDER_PER_MINUTE", 20),
			CreateIntentPerMinute:  getIntEnv("RATE_LIMIT_CREATE_INTENT_PER_MINUTE", 5),
			PaymentStatusPerMinute: getIntEnv("RATE_LIMIT_PAYMENT_STATUS_PER_MINUTE", 30),
			WebhookPerMinute:       getIntEnv("RATE_LIMIT_WEBHOOK_PER_MINUTE", 100),
		},
		Storage: StorageConfig{
			Driver:       getEnv("STORAGE_DRIVER", "local"),
			LocalDir:     getEnv("LOCAL_STORAGE_DIR", "./storage/letters"),
			LocalURL:     getEnv("LOCAL_STORAGE_URL_PREFIX", "file://storage/letters"),
			S3Region:     getEnv("S3_REGION", ""),
			S3Bucket:     getEnv("S3_BUCKET", ""),
			S3Prefix:     getEnv("S3_PREFIX", "orders"),
			S3Endpoint:   getEnv("S3_ENDPOINT", ""),
			S3AccessKey:  getEnv("S3_ACCESS_KEY", ""),
			S3SecretKey:  getEnv("S3_SECRET_KEY", ""),
			S3PublicBase: getEnv("S3_PUBLIC_BASE_URL", ""),
		},
		Firestore: FirestoreConfig{
			ProjectID:       getEnv("FIRESTORE_PROJECT_ID", ""),
			CredentialsFile: getEnv("FIRESTORE_CREDENTIALS_FILE", ""),
		},
		Jobs: JobsConfig{
			PDFDispatchInterval: getSecondsEnv("JOBS_PDF_DISPATCH_INTERVAL_SECONDS", 30*time.Second),
			PIICleanupInterval:  getMinutesEnv("JOBS_PII_CLEANUP_INTERVAL_MINUTES", 24*60*time.Minute),
			PIICutoffDays:       getIntEnv("JOBS_PII_CUTOFF_DAYS", 30),
			BatchSize:           int32(getIntEnv("JOBS_BATCH_SIZE", 100)),
		},
	}, nil
}

// LoadAuth reads only the token settings, for commands that need no database.
func LoadAuth() AuthConfig {
	_ = godotenv.Load()
	return AuthConfig{JWTSecret: getEnv("AUTH_JWT_SECRET", "")}
}

func LoadClient() *ClientConfig {
	_ = godotenv.Load()

	return &ClientConfig{
		APIBaseURL:   strings.TrimRight(getEnv("LETTERS_API_URL", "http://localhost:8080"), "/"),
		StatePath:    getEnv("LETTERS_STATE_PATH", defaultStatePath()),
		PollInterval: getSecondsEnv("LETTERS_POLL_INTERVAL_SECONDS", 4*time.Second),
		PollTimeout:  getSecondsEnv("LETTERS_POLL_TIMEOUT_SECONDS", 60*time.Second),
		HTTPTimeout:  getSecondsEnv("LETTERS_HTTP_TIMEOUT_SECONDS", 15*time.Second),
		LogLevel:     getEnv("LOG_LEVEL", "warn"),
	}
}

// ParseAllowedOrigins accepts a JSON-ish list or a comma separated string and
// tolerates stray quotes and brackets around the whole value or each item.
func ParseAllowedOrigins(raw string) []string {
	val := strings.TrimSpace(strings.Trim(strings.Trim(raw, "'"), `"`))
	val = strings.Trim(val, "[]")

	origins := make([]string, 0)
	for _, item := range strings.Split(val, ",") {
		item = strings.Trim(strings.Trim(strings.TrimSpace(item), "'"), `"`)
		if item != "" {
			origins = append(origins, item)
		}
	}
	return origins
}

func defaultStatePath() string {
	dir, err := os.UserConfigDir()
	if err != nil || dir == "" {
		return "letters-client.db"
	}
	return filepath.Join(dir, "letters", "client.db")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getMinutesEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if minutes, err := strconv.Atoi(value); err == nil {
			return time.Duration(minutes) * time.Minute
		}
	}
	return defaultValue
}

func getSecondsEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if seconds, err := strconv.Atoi(value); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return defaultValue
}
