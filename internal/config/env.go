package config

import (
	"os"
	"strconv"
)

// FromEnv applies environment overrides on top of cfg.
// Variables that are unset or empty leave the file/default values in place.
func FromEnv(cfg *Config) {
	if val := os.Getenv("REPS_ADDR"); val != "" {
		cfg.Server.Addr = val
	}
	if val := os.Getenv("REPS_DATA_DIR"); val != "" {
		cfg.Data.Dir = val
	}
	if val := os.Getenv("OPENAI_BASE_URL"); val != "" {
		cfg.AI.BaseURL = val
	}
	if val := os.Getenv("OPENAI_API_KEY"); val != "" {
		cfg.AI.APIKey = val
	}
	if val := os.Getenv("REPS_AI_MODEL"); val != "" {
		cfg.AI.Model = val
	}
	if val := getEnvInt("REPS_AI_TIMEOUT_SECONDS"); val > 0 {
		cfg.AI.TimeoutSeconds = val
	}
}

func getEnvInt(key string) int {
	val := os.Getenv(key)
	if val == "" {
		return 0
	}
	num, err := strconv.Atoi(val)
	if err != nil {
		return 0
	}
	return num
}
