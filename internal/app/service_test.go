package app

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"tryon/internal/infra"
)

func TestWarnPublicFileStore(t *testing.T) {
	tests := []struct {
		name   string
		driver string
		env    string
		want   bool
	}{
		{"file in production", "file", "production", true},
		{"default driver in production", "", "Production", true},
		{"file in development", "file", "development", false},
		{"s3 in production", "s3", "production", false},
		{"supabase in production", "supabase", "production", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := zerolog.New(&buf)
			cfg := &infra.Config{StorageDriver: tt.driver, AppEnv: tt.env, StoragePath: "./storage"}

			if got := warnPublicFileStore(cfg, logger); got != tt.want {
				t.Fatalf("warnPublicFileStore = %v, want %v", got, tt.want)
			}
			logged := strings.Contains(buf.String(), `"level":"warn"`)
			if logged != tt.want {
				t.Fatalf("warning logged = %v, want %v: %s", logged, tt.want, buf.String())
			}
		})
	}
}
