package app

import (
	"os"
	"sync"

	"github.com/joho/godotenv"
)

var dotenvOnce sync.Once

// LoadDotenv loads ENV_FILE, or .env from the working directory, once per
// process. Variables already in the environment win. Skips when NO_DOTENV=1.
func LoadDotenv() {
	dotenvOnce.Do(func() {
		if os.Getenv("NO_DOTENV") == "1" {
			return
		}
		path := ".env"
		if envFile := os.Getenv("ENV_FILE"); envFile != "" {
			path = envFile
		}
		// a missing file is fine
		_ = godotenv.Load(path)
	})
}
