package main

import (
	"os"
)

type Config struct {
	MongoURI       string
	MongoDB        string
	ScorerURI      string
	ClassifierURI  string
	JWTSecret      string
	Port           string
	TreatmentsPath string
	LogLevel       string
}

func mustConfig() Config {
	cfg := Config{
		MongoURI:       getenv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:        getenv("MONGO_DB", "cropsight"),
		ScorerURI:      getenv("SCORER_URL", "http://127.0.0.1:8000"),
		ClassifierURI:  getenv("CLASSIFIER_URL", "http://127.0.0.1:8001"),
		JWTSecret:      getenv("JWT_SECRET", "change_me"),
		Port:           getenv("PORT", "8080"),
		TreatmentsPath: getenv("TREATMENTS_PATH", ""),
		LogLevel:       getenv("LOG_LEVEL", "info"),
	}

	return cfg
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
