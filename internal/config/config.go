package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const minSessionSecretLen = 32

type Config struct {
	Env      string
	HTTPAddr string
	GRPCAddr string

	DatabaseURL      string
	DBMaxConns       int32
	DBMinConns       int32
	DBMaxConnIdle    time.Duration
	DBConnectTimeout time.Duration
	AutoMigrate      bool

	SessionSecret    string
	ServiceAuthToken string
	SessionTTL       time.Duration
	EmailTokenTTL    time.Duration
	BcryptCost       int
	ExposeEmailToken bool
	SweepInterval    time.Duration

	RedisAddr        string
	RedisPassword    string
	RedisDB          int
	LoginMaxFailures int
	LoginLockout     time.Duration

	UploadDir         string
	UploadMaxBytes    int64
	UploadMaxFiles    int
	ImageMaxDimension int
	CloudinaryURL     string
	CloudinaryFolder  string

	NotifyDriver  string
	KafkaBrokers  []string
	KafkaTopic    string
	KafkaUsername string
	KafkaPassword string
	AMQPURL       string
	AMQPExchange  string

	LogLevel  string
	LogFormat string
}

func (c Config) IsProd() bool {
	return c.Env == "prod" || c.Env == "production"
}

// Load reads the process environment. Outside prod a .env file in the
// working directory is loaded first; variables already set win.
func Load() (Config, error) {
	env := getenv("APP_ENV", "development")
	if env != "prod" && env != "production" {
		_ = godotenv.Load()
	}

	prod := env == "prod" || env == "production"
	logFormat := "text"
	if prod {
		logFormat = "json"
	}

	cfg := Config{
		Env:      env,
		HTTPAddr: getenv("HTTP_ADDR", ":"+getenv("PORT", "3000")),
		GRPCAddr: getenv("GRPC_ADDR", ""),

		DatabaseURL:      databaseURL(),
		DBMaxConns:       int32(getenvInt("DB_MAX_CONNS", 20)),
		DBMinConns:       int32(getenvInt("DB_MIN_CONNS", 2)),
		DBMaxConnIdle:    getenvDuration("DB_MAX_CONN_IDLE", 30*time.Second),
		DBConnectTimeout: getenvDuration("DB_CONNECT_TIMEOUT", 2*time.Second),
		AutoMigrate:      getenvBool("DB_AUTO_MIGRATE", !prod),

		SessionSecret:    os.Getenv("SESSION_SECRET"),
		ServiceAuthToken: getenv("SERVICE_AUTH_TOKEN", ""),
		SessionTTL:       getenvDuration("SESSION_TTL", 7*24*time.Hour),
		EmailTokenTTL:    getenvDuration("EMAIL_TOKEN_TTL", 24*time.Hour),
		BcryptCost:       getenvInt("BCRYPT_COST", 10),
		ExposeEmailToken: getenvBool("EXPOSE_EMAIL_TOKEN", !prod),
		SweepInterval:    getenvDuration("SESSION_SWEEP_INTERVAL", time.Hour),

		RedisAddr:        getenv("REDIS_ADDR", ""),
		RedisPassword:    getenv("REDIS_PASSWORD", ""),
		RedisDB:          getenvInt("REDIS_DB", 0),
		LoginMaxFailures: getenvInt("LOGIN_MAX_FAILURES", 5),
		LoginLockout:     getenvDuration("LOGIN_LOCKOUT", 15*time.Minute),

		UploadDir:         getenv("UPLOAD_DIR", "uploads"),
		UploadMaxBytes:    int64(getenvInt("UPLOAD_MAX_BYTES", 5<<20)),
		UploadMaxFiles:    getenvInt("UPLOAD_MAX_FILES", 5),
		ImageMaxDimension: getenvInt("IMAGE_MAX_DIMENSION", 1600),
		CloudinaryURL:     getenv("CLOUDINARY_URL", ""),
		CloudinaryFolder:  getenv("CLOUDINARY_FOLDER", "universe/items"),

		NotifyDriver:  strings.ToLower(getenv("NOTIFY_DRIVER", "none")),
		KafkaBrokers:  splitList(getenv("KAFKA_BROKERS", "")),
		KafkaTopic:    getenv("KAFKA_TOPIC", "user.verify_email"),
		KafkaUsername: getenv("KAFKA_USERNAME", ""),
		KafkaPassword: getenv("KAFKA_PASSWORD", ""),
		AMQPURL:       getenv("AMQP_URL", ""),
		AMQPExchange:  getenv("AMQP_EXCHANGE", "universe.events"),

		LogLevel:  getenv("LOG_LEVEL", "info"),
		LogFormat: getenv("LOG_FORMAT", logFormat),
	}
	if cfg.ServiceAuthToken == "" {
		cfg.ServiceAuthToken = cfg.SessionSecret
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	var errs []error
	if len(c.SessionSecret) < minSessionSecretLen {
		errs = append(errs, fmt.Errorf("SESSION_SECRET must be at least %d characters", minSessionSecretLen))
	}
	switch c.NotifyDriver {
	case "none", "":
	case "kafka":
		if len(c.KafkaBrokers) == 0 {
			errs = append(errs, errors.New("KAFKA_BROKERS is required when NOTIFY_DRIVER=kafka"))
		}
	case "amqp":
		if c.AMQPURL == "" {
			errs = append(errs, errors.New("AMQP_URL is required when NOTIFY_DRIVER=amqp"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown NOTIFY_DRIVER %q", c.NotifyDriver))
	}
	if c.UploadMaxFiles <= 0 {
		errs = append(errs, errors.New("UPLOAD_MAX_FILES must be positive"))
	}
	if c.DBMaxConns <= 0 {
		errs = append(errs, errors.New("DB_MAX_CONNS must be positive"))
	}
	return errors.Join(errs...)
}

func databaseURL() string {
	if val := os.Getenv("DATABASE_URL"); val != "" {
		return val
	}
	u := url.URL{
		Scheme:   "postgres",
		Host:     getenv("DB_HOST", "localhost") + ":" + getenv("DB_PORT", "5432"),
		Path:     "/" + getenv("DB_NAME", "universe"),
		RawQuery: "sslmode=" + getenv("DB_SSLMODE", "disable"),
	}
	user := getenv("DB_USER", "postgres")
	if pass := os.Getenv("DB_PASSWORD"); pass != "" {
		u.User = url.UserPassword(user, pass)
	} else {
		u.User = url.User(user)
	}
	return u.String()
}

func getenv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getenvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseBool(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
	}
	if val := os.Getenv(key + "_SECONDS"); val != "" {
		if seconds, err := strconv.Atoi(val); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return fallback
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
