package utils

import (
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"

	"github.com/joho/godotenv"
)

var loadEnvOnce sync.Once

// loadTestEnv loads the .env file from the project root, if there is one.
func loadTestEnv() {
	// Get current file path
	_, filename, _, _ := runtime.Caller(0)
	// Try to load .env from project root (2 levels up from this file)
	projectRoot := filepath.Join(filepath.Dir(filename), "..", "..")
	if err := godotenv.Load(filepath.Join(projectRoot, ".env")); err != nil {
		// Try current directory as fallback
		_ = godotenv.Load()
	}
}

// TestEnv returns the value of key for tests that need a live server.
// The test is skipped when the variable is unset.
func TestEnv(t *testing.T, key string) string {
	t.Helper()
	loadEnvOnce.Do(loadTestEnv)
	value := os.Getenv(key)
	if value == "" {
		t.Skipf("%s not set", key)
	}
	return value
}
