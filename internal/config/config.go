package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Qdrant    QdrantConfig
	Gemini    GeminiConfig
	Storage   StorageConfig
	Worker    WorkerConfig
	Interview InterviewConfig
	Metrics   MetricsConfig
}

type ServerConfig struct {
	Port string
	Env  string
	// CORSOrigins is the comma separated list of browser origins allowed to
	// drive interview sessions.
	CORSOrigins string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

type QdrantConfig struct {
	URL        string
	APIKey     string
	Collection string
}

type GeminiConfig struct {
	APIKey string
	Model  string
}

type StorageConfig struct {
	// Driver is "local" or "azure".
	Driver      string
	UploadPath  string
	MaxFileSize int64
	PublicURL   string

	AzureConnectionString string
	AzureContainer        string
}

type WorkerConfig struct {
	Concurrency       int
	RetryMaxAttempts  int
	RetryInitialDelay time.Duration
}

type InterviewConfig struct {
	// BackendURL is where the interview engine reaches the screening
	// backend. It defaults to this server.
	BackendURL       string
	ScriptPath       string
	Countdown        time.Duration
	WatchdogInterval time.Duration
	RestartDelay     time.Duration
	MaxRestarts      int
	AnalysisDelay    time.Duration
	ClosingDelay     time.Duration
	RedirectSeconds  int
	RedirectURL      string
	UploadTimeout    time.Duration
}

type MetricsConfig struct {
	Enabled bool
	Path    string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found. Using default values.")
	}

	port := getEnv("PORT", "3000")

	return &Config{
		Server: ServerConfig{
			Port:        port,
			Env:         getEnv("ENV", "development"),
			CORSOrigins: getEnv("CORS_ORIGINS", "*"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "voice_screener"),
		},
		Qdrant: QdrantConfig{
			URL:        getEnv("QDRANT_URL", "http://localhost:6334"),
			APIKey:     getEnv("QDRANT_API_KEY", ""),
			Collection: getEnv("QDRANT_COLLECTION", "role_question_bank"),
		},
		Gemini: GeminiConfig{
			APIKey: getEnv("GEMINI_API_KEY", ""),
			Model:  getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		},
		Storage: StorageConfig{
			Driver:                getEnv("STORAGE_DRIVER", "local"),
			UploadPath:            getEnv("UPLOAD_PATH", "./uploads"),
			MaxFileSize:           getEnvAsInt64("MAX_FILE_SIZE", 10485760),
			PublicURL:             getEnv("STORAGE_PUBLIC_URL", "http://localhost:"+port+"/files"),
			AzureConnectionString: getEnv("AZURE_STORAGE_CONNECTION_STRING", ""),
			AzureContainer:        getEnv("AZURE_STORAGE_CONTAINER", "applicant-documents"),
		},
		Worker: WorkerConfig{
			Concurrency:       getEnvAsInt("WORKER_CONCURRENCY", 3),
			RetryMaxAttempts:  getEnvAsInt("RETRY_MAX_ATTEMPTS", 3),
			RetryInitialDelay: getEnvAsDuration("RETRY_INITIAL_DELAY", "2s"),
		},
		Interview: InterviewConfig{
			BackendURL:       getEnv("BACKEND_URL", "http://localhost:"+port+"/api/v1"),
			ScriptPath:       getEnv("INTERVIEW_SCRIPT", ""),
			Countdown:        getEnvAsDuration("INTERVIEW_COUNTDOWN", "5s"),
			WatchdogInterval: getEnvAsDuration("SPEECH_WATCHDOG_INTERVAL", "5s"),
			RestartDelay:     getEnvAsDuration("RECOGNITION_RESTART_DELAY", "300ms"),
			MaxRestarts:      getEnvAsInt("RECOGNITION_MAX_RESTARTS", 3),
			AnalysisDelay:    getEnvAsDuration("ANALYSIS_DELAY", "1500ms"),
			ClosingDelay:     getEnvAsDuration("CLOSING_DELAY", "8s"),
			RedirectSeconds:  getEnvAsInt("REDIRECT_SECONDS", 10),
			RedirectURL:      getEnv("REDIRECT_URL", "/"),
			UploadTimeout:    getEnvAsDuration("UPLOAD_TIMEOUT", "2m"),
		},
		Metrics: MetricsConfig{
			Enabled: getEnvAsBool("METRICS_ENABLED", true),
			Path:    getEnv("METRICS_PATH", "/metrics"),
		},
	}
}

func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.DBName,
	)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseInt(valueStr, 10, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := getEnv(key, defaultValue)
	if duration, err := time.ParseDuration(valueStr); err == nil {
		return duration
	}
	duration, _ := time.ParseDuration(defaultValue)
	return duration
}
