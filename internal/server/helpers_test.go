package server

import (
	"testing"

	"github.com/hsn0918/mdchunk/internal/chunker"
)

func chunkerDefaults(t *testing.T) chunker.Config {
	t.Helper()
	cfg := chunker.DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	return cfg
}
