package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/arkadyv/solkoff-board/internal/platform/logging"
	"github.com/arkadyv/solkoff-board/internal/usecase"
)

// Config stores runtime configuration for the service.
type Config struct {
	AppEnv             string
	ServiceName        string
	ServiceVersion     string
	HTTPAddr           string
	DBURL              string
	CORSAllowedOrigins []string
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	LogLevel           logging.Level

	CompetitionID  string
	SolkoffFormula usecase.SolkoffFormula
	SyncWorkers    int
	UpdateInterval time.Duration

	ExternalAPIBaseURL    string
	ExternalAPIKey        string
	ExternalAPITimeout    time.Duration
	ExternalAPIMaxRetries int
	APICacheTTL           time.Duration
	APIMinRequestInterval time.Duration

	PprofEnabled bool
	PprofAddr    string

	UptraceEnabled     bool
	UptraceDSN         string
	UptraceLogsEnabled bool

	PyroscopeEnabled           bool
	PyroscopeServerAddress     string
	PyroscopeAppName           string
	PyroscopeAuthToken         string
	PyroscopeBasicAuthUser     string
	PyroscopeBasicAuthPassword string
	PyroscopeUploadRate        time.Duration
}

func Load() (Config, error) {
	appEnv, err := parseAppEnv(getEnv("APP_ENV", EnvDev))
	if err != nil {
		return Config{}, err
	}

	formula, err := usecase.ParseSolkoffFormula(getEnv("SOLKOFF_FORMULA", ""))
	if err != nil {
		return Config{}, fmt.Errorf("parse SOLKOFF_FORMULA: %w", err)
	}

	syncWorkers, err := getEnvAsInt("SYNC_WORKERS", 4)
	if err != nil {
		return Config{}, fmt.Errorf("parse SYNC_WORKERS: %w", err)
	}
	if syncWorkers < 1 {
		return Config{}, fmt.Errorf("SYNC_WORKERS must be >= 1")
	}

	updateInterval, err := time.ParseDuration(getEnv("UPDATE_INTERVAL", "1h"))
	if err != nil {
		return Config{}, fmt.Errorf("parse UPDATE_INTERVAL: %w", err)
	}
	if updateInterval <= 0 {
		return Config{}, fmt.Errorf("UPDATE_INTERVAL must be > 0")
	}

	externalAPITimeout, err := time.ParseDuration(getEnv("EXTERNAL_API_TIMEOUT", "15s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse EXTERNAL_API_TIMEOUT: %w", err)
	}
	externalAPIMaxRetries, err := getEnvAsInt("EXTERNAL_API_MAX_RETRIES", 3)
	if err != nil {
		return Config{}, fmt.Errorf("parse EXTERNAL_API_MAX_RETRIES: %w", err)
	}
	if externalAPIMaxRetries < 0 {
		return Config{}, fmt.Errorf("EXTERNAL_API_MAX_RETRIES must be >= 0")
	}

	apiCacheTTL, err := time.ParseDuration(getEnv("API_CACHE_TTL", "1h"))
	if err != nil {
		return Config{}, fmt.Errorf("parse API_CACHE_TTL: %w", err)
	}
	if apiCacheTTL <= 0 {
		return Config{}, fmt.Errorf("API_CACHE_TTL must be > 0")
	}

	apiMinRequestInterval, err := time.ParseDuration(getEnv("API_MIN_REQUEST_INTERVAL", "100ms"))
	if err != nil {
		return Config{}, fmt.Errorf("parse API_MIN_REQUEST_INTERVAL: %w", err)
	}
	if apiMinRequestInterval < 0 {
		return Config{}, fmt.Errorf("API_MIN_REQUEST_INTERVAL must be >= 0")
	}

	readTimeout, err := time.ParseDuration(getEnv("APP_READ_TIMEOUT", "10s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse APP_READ_TIMEOUT: %w", err)
	}
	writeTimeout, err := time.ParseDuration(getEnv("APP_WRITE_TIMEOUT", "15s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse APP_WRITE_TIMEOUT: %w", err)
	}

	pprofEnabled, err := strconv.ParseBool(getEnv("PPROF_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PPROF_ENABLED: %w", err)
	}
	pprofAddr := strings.TrimSpace(getEnv("PPROF_ADDR", ":6060"))
	if pprofEnabled && pprofAddr == "" {
		return Config{}, fmt.Errorf("PPROF_ADDR is required when PPROF_ENABLED=true")
	}

	uptraceEnabled, err := strconv.ParseBool(getEnv("UPTRACE_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse UPTRACE_ENABLED: %w", err)
	}
	uptraceDSN := strings.TrimSpace(getEnv("UPTRACE_DSN", ""))
	if uptraceEnabled && uptraceDSN == "" {
		return Config{}, fmt.Errorf("UPTRACE_DSN is required when UPTRACE_ENABLED=true")
	}
	uptraceLogsEnabled, err := strconv.ParseBool(getEnv("UPTRACE_LOGS_ENABLED", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse UPTRACE_LOGS_ENABLED: %w", err)
	}

	pyroscopeEnabled, err := strconv.ParseBool(getEnv("PYROSCOPE_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PYROSCOPE_ENABLED: %w", err)
	}
	pyroscopeServerAddress := strings.TrimSpace(getEnv("PYROSCOPE_SERVER_ADDRESS", ""))
	if pyroscopeEnabled && pyroscopeServerAddress == "" {
		return Config{}, fmt.Errorf("PYROSCOPE_SERVER_ADDRESS is required when PYROSCOPE_ENABLED=true")
	}
	pyroscopeUploadRate, err := time.ParseDuration(getEnv("PYROSCOPE_UPLOAD_RATE", "15s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PYROSCOPE_UPLOAD_RATE: %w", err)
	}

	cfg := Config{
		AppEnv:             appEnv,
		ServiceName:        getEnv("APP_SERVICE_NAME", "solkoff-board-api"),
		ServiceVersion:     getEnv("APP_SERVICE_VERSION", "dev"),
		HTTPAddr:           getEnv("APP_HTTP_ADDR", ":8080"),
		DBURL:              strings.TrimSpace(getEnv("DB_URL", "")),
		CORSAllowedOrigins: splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		ReadTimeout:        readTimeout,
		WriteTimeout:       writeTimeout,
		LogLevel:           parseLogLevel(getEnv("LOG_LEVEL", "info")),

		CompetitionID:  strings.TrimSpace(getEnv("COMPETITION_ID", "CL")),
		SolkoffFormula: formula,
		SyncWorkers:    syncWorkers,
		UpdateInterval: updateInterval,

		ExternalAPIBaseURL:    strings.TrimSpace(getEnv("EXTERNAL_API_BASE_URL", "https://api.football-data.org/v4")),
		ExternalAPIKey:        strings.TrimSpace(getEnv("EXTERNAL_API_KEY", "")),
		ExternalAPITimeout:    externalAPITimeout,
		ExternalAPIMaxRetries: externalAPIMaxRetries,
		APICacheTTL:           apiCacheTTL,
		APIMinRequestInterval: apiMinRequestInterval,

		PprofEnabled: pprofEnabled,
		PprofAddr:    pprofAddr,

		UptraceEnabled:     uptraceEnabled,
		UptraceDSN:         uptraceDSN,
		UptraceLogsEnabled: uptraceLogsEnabled,

		PyroscopeEnabled:           pyroscopeEnabled,
		PyroscopeServerAddress:     pyroscopeServerAddress,
		PyroscopeAuthToken:         strings.TrimSpace(getEnv("PYROSCOPE_AUTH_TOKEN", "")),
		PyroscopeBasicAuthUser:     strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_USER", "")),
		PyroscopeBasicAuthPassword: strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_PASSWORD", "")),
		PyroscopeUploadRate:        pyroscopeUploadRate,
	}
	cfg.PyroscopeAppName = strings.TrimSpace(getEnv("PYROSCOPE_APP_NAME", cfg.ServiceName))

	if cfg.CompetitionID == "" {
		return Config{}, fmt.Errorf("COMPETITION_ID cannot be empty")
	}
	if len(cfg.CORSAllowedOrigins) == 0 {
		return Config{}, fmt.Errorf("CORS_ALLOWED_ORIGINS cannot be empty")
	}

	return cfg, nil
}

func parseLogLevel(v string) logging.Level {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "debug":
		return logging.LevelDebug
	case "warn", "warning":
		return logging.LevelWarn
	case "error":
		return logging.LevelError
	default:
		return logging.LevelInfo
	}
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

	out, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}

	return out, nil
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
