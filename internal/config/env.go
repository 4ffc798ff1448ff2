package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

var envFiles = []string{".env", ".env.local"}

// loadEnvFiles loads environment variables from .env files present in the
// working directory. Existing process variables are never overridden.
func loadEnvFiles() error {
	var present []string
	for _, name := range envFiles {
		if _, err := os.Stat(name); err == nil {
			present = append(present, name)
		}
	}
	if len(present) == 0 {
		return fmt.Errorf("no .env file found")
	}
	return godotenv.Load(present...)
}
