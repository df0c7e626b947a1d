// Package config loads the process configuration once from the environment.
// Components receive the parts they need through their constructors.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	HTTPAddr string
	GinMode  string

	DB      DBConfig
	Upload  UploadConfig
	DocAI   DocumentAIConfig
	LLM     LLMConfig
	OCR     OCRConfig
	Logging LogConfig
}

type DBConfig struct {
	DSN         string
	AutoMigrate bool
}

type UploadConfig struct {
	BaseDir   string
	MaxBytes  int64
	GCSBucket string
}

// DocumentAIConfig configures the remote OCR adapter. The adapter is disabled
// unless ProjectID, ProcessorID and CredentialsPath are all set.
type DocumentAIConfig struct {
	ProjectID       string
	Location        string
	ProcessorID     string
	CredentialsPath string
	Timeout         time.Duration
}

func (c DocumentAIConfig) Enabled() bool {
	return c.ProjectID != "" && c.ProcessorID != "" && c.CredentialsPath != ""
}

type LLMConfig struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
}

func (c LLMConfig) Enabled() bool { return c.APIKey != "" }

type OCRConfig struct {
	Pdftoppm      string
	DPI           int
	MaxPages      int
	TesseractLang string
	Workers       int
}

type LogConfig struct {
	Level  string
	Format string
	Output string
}

// Load reads the configuration from environment variables. Call godotenv.Load
// beforehand to pick up a local .env file.
func Load() (Config, error) {
	cfg := Config{
		HTTPAddr: getEnv("HTTP_ADDR", ":8081"),
		GinMode:  getEnv("GIN_MODE", ""),
		DB: DBConfig{
			DSN:         os.Getenv("DB_DSN"),
			AutoMigrate: getEnvBool("DB_AUTO_MIGRATE", true),
		},
		Upload: UploadConfig{
			BaseDir:   getEnv("UPLOAD_BASE", "uploads"),
			MaxBytes:  int64(getEnvInt("UPLOAD_MAX_BYTES", 20*1024*1024)),
			GCSBucket: os.Getenv("GCS_BUCKET"),
		},
		DocAI: DocumentAIConfig{
			ProjectID:       getEnv("GOOGLE_PROJECT_ID", os.Getenv("GOOGLE_CLOUD_PROJECT")),
			Location:        getEnv("GOOGLE_LOCATION", "us"),
			ProcessorID:     os.Getenv("GOOGLE_PROCESSOR_ID"),
			CredentialsPath: os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"),
			Timeout:         getEnvDuration("DOCUMENT_AI_TIMEOUT", 60*time.Second),
		},
		LLM: LLMConfig{
			APIKey:  os.Getenv("OPENAI_API_KEY"),
			Model:   getEnv("OPENAI_MODEL", "gpt-4o-mini"),
			BaseURL: os.Getenv("OPENAI_BASE_URL"),
			Timeout: getEnvDuration("LLM_TIMEOUT", 30*time.Second),
		},
		OCR: OCRConfig{
			Pdftoppm:      getEnv("PDFTOPPM_BIN", "pdftoppm"),
			DPI:           getEnvInt("RASTER_DPI", 200),
			MaxPages:      getEnvInt("RASTER_MAX_PAGES", 0),
			TesseractLang: getEnv("TESSERACT_LANG", "eng"),
			Workers:       getEnvInt("OCR_WORKERS", 1),
		},
		Logging: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "console"),
			Output: getEnv("LOG_OUTPUT", "stdout"),
		},
	}
	if cfg.OCR.DPI <= 0 {
		return cfg, errors.New("RASTER_DPI must be positive")
	}
	if cfg.OCR.Workers <= 0 {
		cfg.OCR.Workers = 1
	}
	return cfg, nil
}

// RequireDB returns an error when no DSN is configured.
func (c Config) RequireDB() error {
	if c.DB.DSN == "" {
		return errors.New("DB_DSN is not set. This project requires a Postgres DSN in DB_DSN")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvBool(key string, fallback bool) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	switch v {
	case "":
		return fallback
	case "false", "0", "no", "off":
		return false
	default:
		return true
	}
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	return fallback
}
