package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port          int
	DatabaseURL   string
	NatsURL       string
	SarvamAPIKey  string
	SarvamBaseURL string

	UploadsDir string
	OutputsDir string

	ChunkSeconds         int
	MaxAudioDuration     int // seconds; 0 disables the cap
	TranscribeConcurrent int
	RetryAttempts        int
	RequestTimeout       time.Duration

	LogLevel string
}

func Load() Config {
	return Config{
		Port:          envInt("PORT", 8000),
		DatabaseURL:   envStr("DATABASE_URL", ""),
		NatsURL:       envStr("NATS_URL", ""),
		SarvamAPIKey:  envStr("SARVAM_API_KEY", ""),
		SarvamBaseURL: envStr("SARVAM_BASE_URL", "https://api.sarvam.ai"),

		UploadsDir: envStr("UPLOADS_DIR", "uploads"),
		OutputsDir: envStr("OUTPUTS_DIR", "outputs"),

		ChunkSeconds:         envInt("CHUNK_SECONDS", 25),
		MaxAudioDuration:     envInt("MAX_AUDIO_DURATION", 60),
		TranscribeConcurrent: envInt("TRANSCRIBE_CONCURRENCY", 3),
		RetryAttempts:        envInt("RETRY_ATTEMPTS", 3),
		RequestTimeout:       time.Duration(envInt("REQUEST_TIMEOUT_MS", 60000)) * time.Millisecond,

		LogLevel: envStr("LOG_LEVEL", "info"),
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
