package config

import (
	"os"
	"strconv"
)

type Config struct {
	// Server
	AppName     string
	Debug       bool
	Port        string
	CORSOrigins string

	// Storage
	StorageBackend string // firestore, mongo or memory

	FirestoreProjectID       string
	FirestoreCredentialsFile string

	MongoURI      string
	MongoDatabase string

	UsersCollection        string
	ReportsCollection      string
	ReportStatusCollection string
	SystemLogsCollection   string

	// Identity
	JWTSecret          string
	JWTAlgorithm       string
	JWTExpiresDays     int
	PhoneHashSecret    string
	PhoneDefaultRegion string

	// Logging
	LogRetentionDays int
}

func Load() *Config {
	return &Config{
		AppName:     getEnv("APP_NAME", "incident-backend"),
		Debug:       parseBool(getEnv("DEBUG", "false")),
		Port:        getEnv("PORT", "8080"),
		CORSOrigins: getEnv("CORS_ORIGINS", "*"),

		StorageBackend: getEnv("STORAGE_BACKEND", "firestore"),

		FirestoreProjectID:       getEnv("FIRESTORE_PROJECT_ID", ""),
		FirestoreCredentialsFile: getEnv("FIRESTORE_CREDENTIALS_FILE", ""),

		MongoURI:      getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDatabase: getEnv("MONGO_DATABASE", "incidents"),

		UsersCollection:        getEnv("USERS_COLLECTION", "users"),
		ReportsCollection:      getEnv("REPORTS_COLLECTION", "reports"),
		ReportStatusCollection: getEnv("REPORT_STATUS_COLLECTION", "report_statuses"),
		SystemLogsCollection:   getEnv("SYSTEM_LOGS_COLLECTION", "system_logs"),

		JWTSecret:          getEnv("JWT_SECRET", ""),
		JWTAlgorithm:       getEnv("JWT_ALGORITHM", "HS256"),
		JWTExpiresDays:     parseInt(getEnv("JWT_EXPIRES_DAYS", "30"), 30),
		PhoneHashSecret:    getEnv("PHONE_HASH_SECRET", ""),
		PhoneDefaultRegion: getEnv("PHONE_DEFAULT_REGION", "PL"),

		LogRetentionDays: parseInt(getEnv("LOG_RETENTION_DAYS", "30"), 30),
	}
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func parseInt(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func parseBool(s string) bool {
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false
	}
	return b
}
