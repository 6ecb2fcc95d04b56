package config

import (
	"log/slog"

	"github.com/joho/godotenv"
)

// envFiles are loaded in order before the config file is expanded. Variables
// already present in the process environment are never overwritten.
var envFiles = []string{".env", ".env.local"}

func loadEnvFiles() {
	for _, f := range envFiles {
		if err := godotenv.Load(f); err == nil {
			slog.Debug("Loaded environment variables", "file", f)
		}
	}
}
