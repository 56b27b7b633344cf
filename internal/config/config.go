package config

import (
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Config holds all environment configuration values for the client.
// These values are loaded from a .env file at startup.
type Config struct {
	// APIBaseURL is the origin of the REST backend
	APIBaseURL string

	// SocketURL is the websocket endpoint of the realtime backend
	SocketURL string

	// TokenPath is where the auth token is persisted between runs
	TokenPath string

	// CacheDir is where the short-lived session cache lives.
	// It is wiped on logout.
	CacheDir string

	// CloudinaryURL is the unsigned upload endpoint for image/video files
	CloudinaryURL string

	// CloudinaryPreset is the unsigned upload preset name
	CloudinaryPreset string

	// SupabaseURL is the URL of the Supabase project used for document storage
	SupabaseURL string

	// SupabaseKey is the anon key used for storage uploads
	SupabaseKey string

	// SupabaseBucket is the storage bucket for PDF-class documents
	SupabaseBucket string
}

// Load reads environment variables and returns a populated Config struct.
// It will load from a .env file if present, then read from environment
// variables. Falls back to sensible defaults if values are not set.
func Load() *Config {
	// Attempt to load .env file - not an error if it doesn't exist
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("[config] no .env file found, using environment variables")
	}

	home, _ := os.UserHomeDir()
	config := &Config{
		APIBaseURL:       getEnv("CHATLINE_API_URL", "http://localhost:5000"),
		SocketURL:        getEnv("CHATLINE_SOCKET_URL", "ws://localhost:5000/socket"),
		TokenPath:        getEnv("CHATLINE_TOKEN_PATH", filepath.Join(home, ".chatline", "token")),
		CacheDir:         getEnv("CHATLINE_CACHE_DIR", filepath.Join(home, ".chatline", "session")),
		CloudinaryURL:    getEnv("CLOUDINARY_UPLOAD_URL", ""),
		CloudinaryPreset: getEnv("CLOUDINARY_UPLOAD_PRESET", "chatapp_unsigned"),
		SupabaseURL:      getEnv("SUPABASE_URL", ""),
		SupabaseKey:      getEnv("SUPABASE_KEY", ""),
		SupabaseBucket:   getEnv("SUPABASE_BUCKET", "pdf-files"),
	}

	if config.CloudinaryURL == "" {
		log.Warn().Msg("[config] CLOUDINARY_UPLOAD_URL is not set; image/video sends will fail")
	}
	if config.SupabaseURL == "" {
		log.Warn().Msg("[config] SUPABASE_URL is not set; document sends will fail")
	}

	return config
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
