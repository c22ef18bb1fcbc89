package config

import (
	"os"

	"github.com/joho/godotenv"
)

const DefaultModel = "openai/gpt-oss-120b:free"

type Config struct {
	Addr              string
	OpenRouterAPIKey  string
	OpenRouterModel   string
	OpenRouterBaseURL string
	PersonaPath       string
	Referer           string
	AppTitle          string
}

func LoadConfig() Config {
	// Missing .env is fine; system environment still applies.
	_ = godotenv.Load()

	return Config{
		Addr:              getEnv("ADDR", ":8000"),
		OpenRouterAPIKey:  getEnv("OPENROUTER_API_KEY", ""),
		OpenRouterModel:   getEnv("OPENROUTER_MODEL", DefaultModel),
		OpenRouterBaseURL: getEnv("OPENROUTER_BASE_URL", ""),
		PersonaPath:       getEnv("PERSONA_PATH", ""),
		Referer:           getEnv("HTTP_REFERER", "http://localhost:8000"),
		AppTitle:          getEnv("APP_TITLE", "Arts Festival Chatbot"),
	}
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if value != "" {
		return value
	}
	return fallback
}
