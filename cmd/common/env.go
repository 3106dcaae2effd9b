package common

import (
	"os"

	"github.com/joho/godotenv"
)

// EnvLoader loads .env files into the process environment
type EnvLoader struct {
	console *Console
}

func NewEnvLoader(console *Console) *EnvLoader {
	return &EnvLoader{console: console}
}

// LoadEnvFile loads path (default .env). A missing file is not an error;
// variables already set in the environment win.
func (e *EnvLoader) LoadEnvFile(path string) error {
	if path == "" {
		path = ".env"
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		e.console.Debug("Environment file %s not found, using system environment", path)
		return nil
	}

	if err := godotenv.Load(path); err != nil {
		e.console.Warn("Could not load environment file %s: %v", path, err)
		return err
	}

	e.console.Debug("Environment loaded from %s", path)
	return nil
}
