package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestResolveKioskURL(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantBase  string
		wantToken string
	}{
		{"plain", "https://acme.odoo.com/hr_attendance/abc123", "https://acme.odoo.com", "abc123"},
		{"locale segment", "https://acme.odoo.com/en/hr_attendance/abc123", "https://acme.odoo.com", "abc123"},
		{"trailing slash", "https://acme.odoo.com//hr_attendance/abc123", "https://acme.odoo.com", "abc123"},
		{"token kept verbatim", "https://acme.odoo.com/hr_attendance/a/b?x=1", "https://acme.odoo.com", "a/b?x=1"},
		{"splits on first separator", "https://h/hr_attendance/t1/hr_attendance/t2", "https://h", "t1/hr_attendance/t2"},
		// The first "/en" is stripped wherever it occurs.
		{"en substring", "https://host/enterprise/hr_attendance/tok", "https://hostterprise", "tok"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			endpoint, err := ResolveKioskURL(tt.input)
			if err != nil {
				t.Fatalf("ResolveKioskURL(%q) error: %v", tt.input, err)
			}
			if endpoint.BaseURL != tt.wantBase {
				t.Errorf("BaseURL = %q, want %q", endpoint.BaseURL, tt.wantBase)
			}
			if endpoint.Token != tt.wantToken {
				t.Errorf("Token = %q, want %q", endpoint.Token, tt.wantToken)
			}
			if strings.HasSuffix(endpoint.BaseURL, "/") {
				t.Errorf("BaseURL %q has a trailing slash", endpoint.BaseURL)
			}
		})
	}
}

func TestResolveKioskURLMalformed(t *testing.T) {
	for _, input := range []string{"", "https://acme.odoo.com", "https://acme.odoo.com/hr_attendance", "https://acme.odoo.com/attendance/abc"} {
		endpoint, err := ResolveKioskURL(input)
		if !errors.Is(err, ErrMalformedURL) {
			t.Errorf("ResolveKioskURL(%q) error = %v, want ErrMalformedURL", input, err)
		}
		if endpoint.Valid() {
			t.Errorf("ResolveKioskURL(%q) returned a valid endpoint %+v", input, endpoint)
		}
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(viper.New(), "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.UpdateFrequency != 60 {
		t.Errorf("UpdateFrequency = %d, want 60", cfg.UpdateFrequency)
	}
	if cfg.HTTPTimeout != 15*time.Second {
		t.Errorf("HTTPTimeout = %v, want 15s", cfg.HTTPTimeout)
	}
	if cfg.ServerPort != "8090" {
		t.Errorf("ServerPort = %q, want 8090", cfg.ServerPort)
	}
}

func TestLoadEnvironmentAndFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "presence.yaml")
	content := "kiosk_url: https://acme.odoo.com/hr_attendance/tok\nemployee_id: 7\nupdate_frequency: 30\nhttp_timeout: 5s\n"
	if err := os.WriteFile(file, []byte(content), 0o600); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	t.Setenv("EMPLOYEE_PIN", "4321")

	cfg, err := Load(viper.New(), file)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	settings := cfg.Settings()
	if settings.KioskURL != "https://acme.odoo.com/hr_attendance/tok" {
		t.Errorf("KioskURL = %q", settings.KioskURL)
	}
	if settings.EmployeeID != 7 {
		t.Errorf("EmployeeID = %d, want 7", settings.EmployeeID)
	}
	if settings.PIN != "4321" {
		t.Errorf("PIN = %q, want 4321", settings.PIN)
	}
	if settings.PollInterval != 30*time.Second {
		t.Errorf("PollInterval = %v, want 30s", settings.PollInterval)
	}
	if cfg.HTTPTimeout != 5*time.Second {
		t.Errorf("HTTPTimeout = %v, want 5s", cfg.HTTPTimeout)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(viper.New(), filepath.Join(t.TempDir(), "absent.yaml"))
	if err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestSettingsDisablesPollingForNonPositiveFrequency(t *testing.T) {
	for _, frequency := range []int{0, -5} {
		settings := Config{UpdateFrequency: frequency}.Settings()
		if settings.PollInterval != 0 {
			t.Errorf("UpdateFrequency %d: PollInterval = %v, want 0", frequency, settings.PollInterval)
		}
	}
}

func TestWatchWithoutFile(t *testing.T) {
	if Watch(viper.New(), func(Config) {}) {
		t.Fatal("Watch() = true without a config file")
	}
}
