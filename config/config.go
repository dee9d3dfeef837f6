package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Port              string
	AppName           string
	AppURL            string
	AppEnv            string
	LogLevel          string
	AdminPasscode     string
	JWTSecret         string
	CORSOrigins       []string
	FirebaseCredPath  string
	FirebaseProjectID string
	LocalStore        string
	LocalDataDir      string
	DatabaseURL       string
	RedisURL          string
	SendGridAPIKey    string
	SendGridFrom      string
	NotifyEmail       string
}

var AppConfig *Config

func Load() *Config {
	godotenv.Load() // Load .env file if present

	AppConfig = &Config{
		Port:              getEnv("PORT", "8080"),
		AppName:           getEnv("APP_NAME", "Eternity"),
		AppURL:            strings.TrimRight(getEnv("APP_URL", "http://localhost:5173/#"), "/"),
		AppEnv:            getEnv("APP_ENV", "development"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		AdminPasscode:     getEnv("ADMIN_PASSCODE", "wedding"),
		JWTSecret:         getEnv("JWT_SECRET", "eternity-local-secret"),
		CORSOrigins:       splitList(getEnv("CORS_ORIGINS", "http://localhost:5173")),
		FirebaseCredPath:  getEnv("FIREBASE_CREDENTIALS", "firebase-credentials.json"),
		FirebaseProjectID: getEnv("FIREBASE_PROJECT_ID", ""),
		LocalStore:        strings.ToLower(getEnv("LOCAL_STORE", "file")),
		LocalDataDir:      getEnv("LOCAL_DATA_DIR", "data"),
		DatabaseURL:       getEnv("DATABASE_URL", ""),
		RedisURL:          getEnv("REDIS_URL", "localhost:6379"),
		SendGridAPIKey:    getEnv("SENDGRID_API_KEY", ""),
		SendGridFrom:      getEnv("SENDGRID_FROM_EMAIL", "noreply@eternity.invite"),
		NotifyEmail:       getEnv("NOTIFY_EMAIL", ""),
	}
	return AppConfig
}

// CloudEnabled reports whether Firestore credentials are present. The choice
// is made once at startup.
func (c *Config) CloudEnabled() bool {
	if c.FirebaseProjectID != "" {
		return true
	}
	if c.FirebaseCredPath == "" {
		return false
	}
	_, err := os.Stat(c.FirebaseCredPath)
	return err == nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
