package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds process configuration read once at startup.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string
	HTTPAddr    string

	OTLPEndpoint string

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBPath            string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int
	DBConnMaxIdleTime int

	Email  EmailConfig
	Redis  RedisConfig
	Kafka  KafkaConfig
	Auth   AuthConfig
	Sched  SchedulerConfig
	Ledger LedgerFileConfig
	Limit  RateLimitConfig

	MetricsPush MetricsPushConfig
}

type EmailConfig struct {
	Provider       string
	SMTPHost       string
	SMTPPort       int
	SMTPUsername   string
	SMTPPassword   string
	SMTPFrom       string
	TreasurerPhone string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	LockTTL  time.Duration
}

func (c RedisConfig) Enabled() bool {
	return strings.TrimSpace(c.Addr) != ""
}

type KafkaConfig struct {
	Brokers []string
	Topic   string
}

func (c KafkaConfig) Enabled() bool {
	return len(c.Brokers) > 0
}

type AuthConfig struct {
	JWTSecret         string
	TokenTTL          time.Duration
	AdminEmails       []string
	AdminPasswordHash string
}

// IsAdmin reports whether email is one of the configured treasurer accounts.
func (c AuthConfig) IsAdmin(email string) bool {
	email = strings.ToLower(strings.TrimSpace(email))
	for _, admin := range c.AdminEmails {
		if admin == email {
			return true
		}
	}
	return false
}

// SystemActor is the actor recorded for writes with no signed-in admin.
func (c AuthConfig) SystemActor() string {
	if len(c.AdminEmails) > 0 {
		return c.AdminEmails[0]
	}
	return "system"
}

type SchedulerConfig struct {
	Enabled      bool
	RunOnStartup bool
	Interval     time.Duration
}

// RateLimitConfig throttles /auth/login per client IP and per email.
type RateLimitConfig struct {
	LoginPerMinute float64
	LoginBurst     int
}

func (c RateLimitConfig) Enabled() bool {
	return c.LoginPerMinute > 0 && c.LoginBurst > 0
}

// MetricsPushConfig lets batch binaries push to a Pushgateway or a remote_write endpoint.
type MetricsPushConfig struct {
	Exporter  string
	Endpoint  string
	AuthToken string
	Job       string
}

func (c MetricsPushConfig) Enabled() bool {
	return strings.TrimSpace(c.Exporter) != "" && strings.TrimSpace(c.Endpoint) != ""
}

type LedgerFileConfig struct {
	ConfigDir     string
	FileStorePath string
}

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	cfg := Config{
		AppName:      getenv("APP_SERVICE", "corpsledger"),
		AppVersion:   getenv("APP_VERSION", "0.1.0"),
		Environment:  getenv("ENVIRONMENT", "development"),
		HTTPAddr:     getenv("HTTP_ADDR", ":8080"),
		OTLPEndpoint: getenv("OTLP_ENDPOINT", "localhost:4317"),

		DBType:            strings.ToLower(getenv("DATABASE_TYPE", "postgres")),
		DBHost:            getenv("DATABASE_HOST", "localhost"),
		DBPort:            getenv("DATABASE_PORT", "5432"),
		DBName:            getenv("DATABASE_NAME", "corps"),
		DBUser:            getenv("DATABASE_USER", "postgres"),
		DBPassword:        getenv("DATABASE_PASSWORD", ""),
		DBSSLMode:         getenv("DATABASE_SSLMODE", "disable"),
		DBPath:            getenv("DATABASE_PATH", "corpsledger.db"),
		DBMaxIdleConn:     getenvInt("DATABASE_MAX_IDLE_CONN", 5),
		DBMaxOpenConn:     getenvInt("DATABASE_MAX_OPEN_CONN", 20),
		DBConnMaxLifetime: getenvInt("DATABASE_CONN_MAX_LIFETIME", 300),
		DBConnMaxIdleTime: getenvInt("DATABASE_CONN_MAX_IDLE_TIME", 60),

		Email: EmailConfig{
			Provider:       strings.ToLower(getenv("EMAIL_PROVIDER", "smtp")),
			SMTPHost:       getenv("SMTP_HOST", "smtp.gmail.com"),
			SMTPPort:       getenvInt("SMTP_PORT", 587),
			SMTPUsername:   getenv("SMTP_USERNAME", ""),
			SMTPPassword:   getenv("SMTP_PASSWORD", ""),
			SMTPFrom:       getenv("SMTP_FROM", getenv("SMTP_USERNAME", "")),
			TreasurerPhone: getenv("TREASURER_PHONE", ""),
		},
		Redis: RedisConfig{
			Addr:     strings.TrimSpace(getenv("REDIS_ADDR", "")),
			Password: getenv("REDIS_PASSWORD", ""),
			DB:       getenvInt("REDIS_DB", 0),
			LockTTL:  time.Duration(getenvInt("REDIS_LOCK_TTL_SECONDS", 30)) * time.Second,
		},
		Kafka: KafkaConfig{
			Brokers: parseList(getenv("KAFKA_BROKERS", "")),
			Topic:   getenv("KAFKA_TOPIC", "ledger.transactions"),
		},
		Auth: AuthConfig{
			JWTSecret:         strings.TrimSpace(getenv("AUTH_JWT_SECRET", "")),
			TokenTTL:          time.Duration(getenvInt("AUTH_TOKEN_TTL_MINUTES", 720)) * time.Minute,
			AdminEmails:       normalizeEmails(parseList(getenv("ADMIN_EMAILS", getenv("ADMIN_EMAIL", "")))),
			AdminPasswordHash: strings.TrimSpace(getenv("ADMIN_PASSWORD_HASH", "")),
		},
		Sched: SchedulerConfig{
			Enabled:      getenvBool("SCHEDULER_ENABLED", false),
			RunOnStartup: getenvBool("SCHEDULER_RUN_ON_STARTUP", true),
			Interval:     time.Duration(getenvInt("SCHEDULER_INTERVAL_MINUTES", 24*60)) * time.Minute,
		},
		Ledger: LedgerFileConfig{
			ConfigDir:     getenv("LEDGER_CONFIG_DIR", "config"),
			FileStorePath: getenv("LEDGER_FILE_STORE", "data/members.json"),
		},
		Limit: RateLimitConfig{
			LoginPerMinute: float64(getenvInt("LOGIN_RATE_PER_MINUTE", 10)),
			LoginBurst:     getenvInt("LOGIN_RATE_BURST", 5),
		},
		MetricsPush: MetricsPushConfig{
			Exporter:  strings.ToLower(getenv("METRICS_PUSH_EXPORTER", "")),
			Endpoint:  getenv("METRICS_PUSH_ENDPOINT", ""),
			AuthToken: getenv("METRICS_PUSH_TOKEN", ""),
			Job:       getenv("METRICS_PUSH_JOB", ""),
		},
	}

	return cfg
}

func (c Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if value == "" {
		return def
	}
	switch value {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}

func parseList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}

func normalizeEmails(in []string) []string {
	out := make([]string, 0, len(in))
	for _, e := range in {
		out = append(out, strings.ToLower(e))
	}
	return out
}
