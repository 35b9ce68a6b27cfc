package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/riskibarqy/fantasy-scoring/internal/platform/logging"
)

// Config stores runtime configuration for the service.
type Config struct {
	AppEnv                      string
	ServiceName                 string
	ServiceVersion              string
	HTTPAddr                    string
	DBURL                       string
	DBDisablePreparedBinary     bool
	DBBootstrapSeed             bool
	CacheEnabled                bool
	CacheTTL                    time.Duration
	CORSAllowedOrigins          []string
	ReadTimeout                 time.Duration
	WriteTimeout                time.Duration
	SettlementMaxWorkers        int
	PprofEnabled                bool
	PprofAddr                   string
	UptraceEnabled              bool
	UptraceDSN                  string
	PyroscopeEnabled            bool
	PyroscopeServerAddress      string
	PyroscopeAppName            string
	PyroscopeAuthToken          string
	PyroscopeBasicAuthUser      string
	PyroscopeBasicAuthPassword  string
	PyroscopeUploadRate         time.Duration
	InternalJobToken            string
	QStashEnabled               bool
	QStashBaseURL               string
	QStashToken                 string
	QStashTargetBaseURL         string
	QStashRetries               int
	QStashCircuitEnabled        bool
	QStashCircuitFailureCount   int
	QStashCircuitOpenTimeout    time.Duration
	QStashCircuitHalfOpenMaxReq int
	RankingDelay                time.Duration
	LogLevel                    logging.Level
}

func Load() (Config, error) {
	env := &envReader{}

	appEnv, err := parseAppEnv(getEnv("APP_ENV", EnvDev))
	env.fail(err)

	cfg := Config{
		AppEnv:                      appEnv,
		ServiceName:                 getEnv("APP_SERVICE_NAME", "fantasy-scoring-api"),
		ServiceVersion:              getEnv("APP_SERVICE_VERSION", "dev"),
		HTTPAddr:                    getEnv("APP_HTTP_ADDR", ":8080"),
		ReadTimeout:                 env.duration("APP_READ_TIMEOUT", 10*time.Second),
		WriteTimeout:                env.duration("APP_WRITE_TIMEOUT", 60*time.Second),
		CORSAllowedOrigins:          splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		LogLevel:                    parseLogLevel(getEnv("APP_LOG_LEVEL", "info")),
		DBURL:                       env.str("DB_URL", ""),
		DBDisablePreparedBinary:     env.boolean("DB_DISABLE_PREPARED_BINARY_RESULT", true),
		DBBootstrapSeed:             env.boolean("DB_BOOTSTRAP_SEED", false),
		CacheEnabled:                env.boolean("CACHE_ENABLED", true),
		CacheTTL:                    env.duration("CACHE_TTL", 60*time.Second),
		SettlementMaxWorkers:        env.integer("SETTLEMENT_MAX_WORKERS", 4),
		RankingDelay:                env.duration("RANKING_RECOMPUTE_DELAY", 0),
		PprofEnabled:                env.boolean("PPROF_ENABLED", false),
		PprofAddr:                   env.str("PPROF_ADDR", ":6060"),
		UptraceEnabled:              env.boolean("UPTRACE_ENABLED", false),
		UptraceDSN:                  env.str("UPTRACE_DSN", ""),
		PyroscopeEnabled:            env.boolean("PYROSCOPE_ENABLED", false),
		PyroscopeServerAddress:      env.str("PYROSCOPE_SERVER_ADDRESS", ""),
		PyroscopeAuthToken:          env.str("PYROSCOPE_AUTH_TOKEN", ""),
		PyroscopeBasicAuthUser:      env.str("PYROSCOPE_BASIC_AUTH_USER", ""),
		PyroscopeBasicAuthPassword:  env.str("PYROSCOPE_BASIC_AUTH_PASSWORD", ""),
		PyroscopeUploadRate:         env.duration("PYROSCOPE_UPLOAD_RATE", 15*time.Second),
		InternalJobToken:            env.str("INTERNAL_JOB_TOKEN", ""),
		QStashEnabled:               env.boolean("QSTASH_ENABLED", false),
		QStashBaseURL:               env.str("QSTASH_BASE_URL", "https://qstash.upstash.io"),
		QStashToken:                 env.str("QSTASH_TOKEN", ""),
		QStashTargetBaseURL:         env.str("QSTASH_TARGET_BASE_URL", ""),
		QStashRetries:               env.integer("QSTASH_RETRIES", 3),
		QStashCircuitEnabled:        env.boolean("QSTASH_CIRCUIT_ENABLED", true),
		QStashCircuitFailureCount:   env.integer("QSTASH_CIRCUIT_FAILURE_COUNT", 5),
		QStashCircuitOpenTimeout:    env.duration("QSTASH_CIRCUIT_OPEN_TIMEOUT", 15*time.Second),
		QStashCircuitHalfOpenMaxReq: env.integer("QSTASH_CIRCUIT_HALF_OPEN_MAX_REQ", 2),
	}
	if cfg.UptraceDSN == "" {
		cfg.UptraceDSN = parseUptraceDSNFromOTLPHeaders(getEnv("OTEL_EXPORTER_OTLP_HEADERS", ""))
	}
	cfg.PyroscopeAppName = env.str("PYROSCOPE_APP_NAME", cfg.ServiceName)
	if err := env.err(); err != nil {
		return Config{}, err
	}

	env.check(len(cfg.CORSAllowedOrigins) > 0, "CORS_ALLOWED_ORIGINS cannot be empty")
	env.check(cfg.CacheTTL > 0, "CACHE_TTL must be > 0")
	env.check(cfg.SettlementMaxWorkers >= 1, "SETTLEMENT_MAX_WORKERS must be >= 1")
	env.check(cfg.RankingDelay >= 0, "RANKING_RECOMPUTE_DELAY must be >= 0")
	env.check(!cfg.UptraceEnabled || cfg.UptraceDSN != "", "UPTRACE_DSN is required when UPTRACE_ENABLED=true")
	env.check(!cfg.PprofEnabled || cfg.PprofAddr != "", "PPROF_ADDR is required when PPROF_ENABLED=true")
	env.check(!cfg.PyroscopeEnabled || cfg.PyroscopeServerAddress != "", "PYROSCOPE_SERVER_ADDRESS is required when PYROSCOPE_ENABLED=true")
	env.check(!cfg.PyroscopeEnabled || cfg.PyroscopeAppName != "", "PYROSCOPE_APP_NAME cannot be empty when PYROSCOPE_ENABLED=true")
	env.check(cfg.PyroscopeUploadRate > 0, "PYROSCOPE_UPLOAD_RATE must be > 0")
	env.check(cfg.QStashRetries >= 0, "QSTASH_RETRIES must be >= 0")
	env.check(cfg.QStashCircuitFailureCount >= 1, "QSTASH_CIRCUIT_FAILURE_COUNT must be >= 1")
	env.check(cfg.QStashCircuitOpenTimeout > 0, "QSTASH_CIRCUIT_OPEN_TIMEOUT must be > 0")
	env.check(cfg.QStashCircuitHalfOpenMaxReq >= 1, "QSTASH_CIRCUIT_HALF_OPEN_MAX_REQ must be >= 1")
	if cfg.QStashEnabled {
		env.check(cfg.QStashToken != "", "QSTASH_TOKEN is required when QSTASH_ENABLED=true")
		env.check(cfg.QStashTargetBaseURL != "", "QSTASH_TARGET_BASE_URL is required when QSTASH_ENABLED=true")
		env.check(cfg.InternalJobToken != "", "INTERNAL_JOB_TOKEN is required when QSTASH_ENABLED=true")
	}
	if err := env.err(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// envReader parses typed values and collects every failure so one Load reports all of them.
type envReader struct {
	errs []error
}

func (r *envReader) fail(err error) {
	if err != nil {
		r.errs = append(r.errs, err)
	}
}

func (r *envReader) check(ok bool, msg string) {
	if !ok {
		r.errs = append(r.errs, errors.New(msg))
	}
}

func (r *envReader) err() error {
	return errors.Join(r.errs...)
}

func (r *envReader) str(key, fallback string) string {
	return strings.TrimSpace(getEnv(key, fallback))
}

func (r *envReader) boolean(key string, fallback bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		r.fail(fmt.Errorf("parse %s: %w", key, err))
		return fallback
	}
	return value
}

func (r *envReader) integer(key string, fallback int) int {
	value, err := getEnvAsInt(key, fallback)
	if err != nil {
		r.fail(fmt.Errorf("parse %s: %w", key, err))
		return fallback
	}
	return value
}

func (r *envReader) duration(key string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	value, err := time.ParseDuration(raw)
	if err != nil {
		r.fail(fmt.Errorf("parse %s: %w", key, err))
		return fallback
	}
	return value
}

func parseLogLevel(v string) logging.Level {
	level, _ := logging.ParseLevel(v)
	return level
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if strings.TrimSpace(value) == "" {
		return fallback
	}

	return value
}

func getEnvAsInt(key string, fallback int) (int, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}
	return strconv.Atoi(value)
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		item := strings.TrimSpace(part)
		if item == "" {
			continue
		}
		out = append(out, item)
	}

	return out
}

func parseUptraceDSNFromOTLPHeaders(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}

	items := strings.Split(raw, ",")
	for _, item := range items {
		parts := strings.SplitN(strings.TrimSpace(item), "=", 2)
		if len(parts) != 2 {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(parts[0]), "uptrace-dsn") {
			value := strings.TrimSpace(parts[1])
			return strings.Trim(value, "\"'")
		}
	}

	return ""
}

const (
	EnvDev   = "dev"
	EnvStage = "stage"
	EnvProd  = "prod"
)

func parseAppEnv(v string) (string, error) {
	value := strings.ToLower(strings.TrimSpace(v))
	switch value {
	case EnvDev, EnvStage, EnvProd:
		return value, nil
	default:
		return "", fmt.Errorf("invalid APP_ENV %q: valid values are %s, %s, %s", v, EnvDev, EnvStage, EnvProd)
	}
}
