package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("KIDCOINS_CONFIG", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.DatabaseType != "sqlite" {
		t.Errorf("DatabaseType = %q, want sqlite", cfg.DatabaseType)
	}
	if cfg.InviteCodeTTL != 30*24*time.Hour {
		t.Errorf("InviteCodeTTL = %v, want 720h", cfg.InviteCodeTTL)
	}
	if cfg.StreakLocation() != time.UTC {
		t.Errorf("StreakLocation() = %v, want UTC", cfg.StreakLocation())
	}
}

func TestLoadYAMLOverlay(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)

	path := filepath.Join(t.TempDir(), "kidcoins.yaml")
	content := "port: \"9000\"\ninvite_code_ttl: 48h\nstreak_timezone: Europe/Madrid\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	t.Setenv("KIDCOINS_CONFIG", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.ServerPort != "9000" {
		t.Errorf("ServerPort = %q, want 9000", cfg.ServerPort)
	}
	if cfg.InviteCodeTTL != 48*time.Hour {
		t.Errorf("InviteCodeTTL = %v, want 48h", cfg.InviteCodeTTL)
	}
	if cfg.StreakLocation().String() != "Europe/Madrid" {
		t.Errorf("StreakLocation() = %v, want Europe/Madrid", cfg.StreakLocation())
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{
			name:    "missing secret",
			cfg:     Config{DatabaseType: "sqlite", StreakTimezone: "UTC"},
			wantErr: "JWT_SECRET",
		},
		{
			name:    "short secret",
			cfg:     Config{JWTSecret: "short", DatabaseType: "sqlite", StreakTimezone: "UTC"},
			wantErr: "at least 32",
		},
		{
			name:    "postgres without url",
			cfg:     Config{JWTSecret: testSecret, DatabaseType: "postgres", StreakTimezone: "UTC"},
			wantErr: "DATABASE_URL",
		},
		{
			name:    "bad timezone",
			cfg:     Config{JWTSecret: testSecret, DatabaseType: "sqlite", StreakTimezone: "Mars/Olympus"},
			wantErr: "STREAK_TIMEZONE",
		},
		{
			name: "valid",
			cfg:  Config{JWTSecret: testSecret, DatabaseType: "sqlite", StreakTimezone: "UTC"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() unexpected error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}
