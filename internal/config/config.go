package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DBDriverMongo    = "mongo"
	DBDriverPostgres = "postgres"

	NotifyDriverLog   = "log"
	NotifyDriverSMTP  = "smtp"
	NotifyDriverKafka = "kafka"
)

// Configはアプリ全体の設定
type Config struct {
	Port  string // サーバーポート（8080）
	GoEnv string // dev/prod

	DBDriver string // mongo / postgres

	MongoURI string
	MongoDB  string

	DatabaseURL      string // あればPOSTGRES_*より優先
	PostgresUser     string // DBユーザー
	PostgresPassword string // DBパスワード
	PostgresDB       string // DB名
	PostgresHost     string // DBホスト（localhost）
	PostgresPort     int    // DBポート（5433）
	PostgresSSLMode  string

	JWTSecret      string // JWT署名シークレット
	AccessTokenTTL time.Duration

	RedisAddr         string // 空ならキャッシュなし
	AnalyticsCacheTTL time.Duration

	NotifyDriver    string // log / smtp / kafka
	NotifyTimeout   time.Duration
	SMTPHost        string
	SMTPPort        int
	SMTPFrom        string
	KafkaBrokers    []string
	KafkaOrderTopic string

	FEURL string // フロントURL（CORSで使う）
}

// Loadは環境変数から設定を読む。.envがあれば先に読み込む。
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Port:  getenv("PORT", "8080"),
		GoEnv: os.Getenv("GO_ENV"),

		DBDriver: strings.ToLower(getenv("DB_DRIVER", DBDriverMongo)),

		MongoURI: getenv("MONGO_URI", "mongodb://localhost:27017/?replicaSet=rs0"),
		MongoDB:  getenv("MONGO_DB", "storefront"),

		DatabaseURL:      os.Getenv("DATABASE_URL"),
		PostgresUser:     os.Getenv("POSTGRES_USER"),
		PostgresPassword: os.Getenv("POSTGRES_PASSWORD"),
		PostgresDB:       os.Getenv("POSTGRES_DB"),
		PostgresHost:     os.Getenv("POSTGRES_HOST"),
		PostgresSSLMode:  getenv("POSTGRES_SSLMODE", "disable"),

		JWTSecret: os.Getenv("JWT_SECRET"),

		RedisAddr: os.Getenv("REDIS_ADDR"),

		NotifyDriver:    strings.ToLower(getenv("NOTIFY_DRIVER", NotifyDriverLog)),
		SMTPHost:        os.Getenv("SMTP_HOST"),
		SMTPFrom:        os.Getenv("SMTP_FROM"),
		KafkaBrokers:    splitList(os.Getenv("KAFKA_BROKERS")),
		KafkaOrderTopic: getenv("KAFKA_ORDER_TOPIC", "orders.created"),

		FEURL: os.Getenv("FE_URL"),
	}

	var err error
	if cfg.AccessTokenTTL, err = durationOr("ACCESS_TOKEN_TTL", 15*time.Minute); err != nil {
		return Config{}, err
	}
	if cfg.AnalyticsCacheTTL, err = durationOr("ANALYTICS_CACHE_TTL", time.Minute); err != nil {
		return Config{}, err
	}
	if cfg.NotifyTimeout, err = durationOr("NOTIFY_TIMEOUT", 5*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.SMTPPort, err = atoiOr("SMTP_PORT", 25); err != nil {
		return Config{}, err
	}

	//必須チェック
	if cfg.GoEnv == "" {
		return Config{}, fmt.Errorf("GO_ENV is required")
	}
	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET is required")
	}

	switch cfg.DBDriver {
	case DBDriverMongo:
	case DBDriverPostgres:
		if cfg.DatabaseURL == "" {
			if cfg.PostgresPort, err = mustAtoi("POSTGRES_PORT"); err != nil {
				return Config{}, err
			}
			for key, v := range map[string]string{
				"POSTGRES_USER":     cfg.PostgresUser,
				"POSTGRES_PASSWORD": cfg.PostgresPassword,
				"POSTGRES_DB":       cfg.PostgresDB,
				"POSTGRES_HOST":     cfg.PostgresHost,
			} {
				if v == "" {
					return Config{}, fmt.Errorf("%s is required", key)
				}
			}
		}
	default:
		return Config{}, fmt.Errorf("DB_DRIVER must be mongo or postgres: %q", cfg.DBDriver)
	}

	switch cfg.NotifyDriver {
	case NotifyDriverLog:
	case NotifyDriverSMTP:
		if cfg.SMTPHost == "" || cfg.SMTPFrom == "" {
			return Config{}, fmt.Errorf("SMTP_HOST and SMTP_FROM are required for NOTIFY_DRIVER=smtp")
		}
	case NotifyDriverKafka:
		if len(cfg.KafkaBrokers) == 0 {
			return Config{}, fmt.Errorf("KAFKA_BROKERS is required for NOTIFY_DRIVER=kafka")
		}
	default:
		return Config{}, fmt.Errorf("NOTIFY_DRIVER must be log, smtp or kafka: %q", cfg.NotifyDriver)
	}

	return cfg, nil
}

func (c Config) IsProduction() bool {
	return c.GoEnv == "prod" || c.GoEnv == "production"
}

// PostgresDSN はDATABASE_URLがあればそれを返す。
func (c Config) PostgresDSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.PostgresHost, c.PostgresPort, c.PostgresUser, c.PostgresPassword, c.PostgresDB, c.PostgresSSLMode,
	)
}

func getenv(key string, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func mustAtoi(key string) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return 0, fmt.Errorf("%s is required", key)
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be number: %w", key, err)
	}
	return i, nil
}

func atoiOr(key string, def int) (int, error) {
	if os.Getenv(key) == "" {
		return def, nil
	}
	return mustAtoi(key)
}

func durationOr(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be duration (e.g. 15m): %w", key, err)
	}
	return d, nil
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
