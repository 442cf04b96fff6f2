package config

import (
	"os"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort          string
	CompletionsAPIURL   string
	CompletionsAPIKey   string
	CompletionsModel    string
	GmailAPIURL         string
	FetchDefaultLimit   int
	AnalyzeBatchLimit   int
	BodyCharLimit       int
	PromptBodyCharLimit int
}

func getEnv(key, defaultValue string, printEnv bool) string {
	logger := log.Default()
	value := os.Getenv(key)
	if printEnv {
		logger.Info("Env", "key", key, "value", value)
	}
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int, printEnv bool) int {
	value := getEnv(key, "", printEnv)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		log.Default().Warn("Env value is not an integer, using default", "key", key, "value", value, "default", defaultValue)
		return defaultValue
	}
	return n
}

func LoadConfig(printEnv bool) (*Config, error) {
	_ = godotenv.Load()

	conf := &Config{
		ServerPort:          getEnv("SERVER_PORT", "8080", printEnv),
		CompletionsAPIURL:   getEnv("COMPLETIONS_API_URL", "https://api.openai.com/v1", printEnv),
		CompletionsAPIKey:   getEnv("COMPLETIONS_API_KEY", "", printEnv),
		CompletionsModel:    getEnv("COMPLETIONS_MODEL", "gpt-4.1-mini", printEnv),
		GmailAPIURL:         getEnv("GMAIL_API_URL", "https://gmail.googleapis.com", printEnv),
		FetchDefaultLimit:   getEnvInt("FETCH_DEFAULT_LIMIT", 10, printEnv),
		AnalyzeBatchLimit:   getEnvInt("ANALYZE_BATCH_LIMIT", 100, printEnv),
		BodyCharLimit:       getEnvInt("BODY_CHAR_LIMIT", 500, printEnv),
		PromptBodyCharLimit: getEnvInt("PROMPT_BODY_CHAR_LIMIT", 200, printEnv),
	}

	return conf, nil
}
