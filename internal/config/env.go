package config

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

var envFileNames = []string{".env", ".env.local"}

// loadEnvFiles loads the first .env file found in the working directory and
// then in dir. Variables already present in the environment win.
func loadEnvFiles(dir string) {
	seen := map[string]bool{}
	for _, base := range []string{".", dir} {
		for _, name := range envFileNames {
			path := filepath.Clean(filepath.Join(base, name))
			if seen[path] {
				continue
			}
			seen[path] = true
			if _, err := os.Stat(path); err != nil {
				continue
			}
			if err := godotenv.Load(path); err != nil {
				slog.Warn("Failed to load env file", slog.String("path", path), slog.String("error", err.Error()))
				continue
			}
			slog.Debug("Loaded environment variables", slog.String("path", path))
			return
		}
	}
}
