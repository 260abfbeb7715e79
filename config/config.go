package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every tunable the Controller Facade and HTTP layer need.
type Config struct {
	Port       string
	FfmpegPath string

	// Bitrate is surfaced to listeners via the icy-br header on /stream.
	// It does not control the per-track transcoder's actual encode
	// bitrate, which is fixed (see internal/transcoder).
	Bitrate string

	StationName string
	MaxClients  int

	HeaderTimeout      time.Duration
	TrackSourceTimeout time.Duration
}

// Load reads configuration from the environment, applying a .env file in
// the working directory first if one is present.
func Load() *Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("failed to load .env file", "error", err)
	}

	return &Config{
		Port:       getEnv("PORT", "8000"),
		FfmpegPath: getEnv("FFMPEG_PATH", "ffmpeg"),

		Bitrate: getEnv("BITRATE", "128k"),

		StationName: getEnv("STATION_NAME", "opuscast"),
		MaxClients:  getEnvAsInt("MAX_CLIENTS", 100),

		HeaderTimeout:      getEnvAsDuration("HEADER_TIMEOUT", 30*time.Second),
		TrackSourceTimeout: getEnvAsDuration("TRACK_SOURCE_TIMEOUT", 15*time.Second),
	}
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(name string, defaultVal int) int {
	if valueStr, exists := os.LookupEnv(name); exists {
		if value, err := strconv.Atoi(valueStr); err == nil {
			return value
		}
	}
	return defaultVal
}

func getEnvAsDuration(name string, defaultVal time.Duration) time.Duration {
	if valueStr, exists := os.LookupEnv(name); exists {
		if value, err := time.ParseDuration(valueStr); err == nil {
			return value
		}
	}
	return defaultVal
}
