package internal

import (
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := NewDefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should pass: %v", err)
	}
	if cfg.License.MarkerPath == "" {
		t.Error("marker path should default when the gate is enabled")
	}
}

func TestCatalogConfig_ExportFile(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		wantErr bool
	}{
		{"default", "biblioteca_geral.xlsx", false},
		{"upper-case extension", "Geral.XLSX", false},
		{"empty", "", true},
		{"not xlsx", "geral.csv", true},
		{"nested", filepath.Join("sub", "geral.xlsx"), true},
		{"traversal", "../geral.xlsx", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := CatalogConfig{DataDir: "./dados", ExportFile: tt.file}
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestCatalogConfig_DataDirRequired(t *testing.T) {
	cfg := CatalogConfig{ExportFile: "biblioteca_geral.xlsx"}
	if err := cfg.Validate(); err == nil {
		t.Fatal("empty data dir should fail")
	}
}

func TestJournalConfig(t *testing.T) {
	off := JournalConfig{}
	if off.Enabled() {
		t.Error("empty path should disable the journal")
	}
	if err := off.Validate(); err != nil {
		t.Errorf("disabled journal should pass: %v", err)
	}
	bad := JournalConfig{Path: "biblioteca_livro.xlsx"}
	if err := bad.Validate(); err == nil {
		t.Error("spreadsheet journal path should fail")
	}
}

func TestWatchConfig_Debounce(t *testing.T) {
	if err := (&WatchConfig{Debounce: time.Millisecond}).Validate(); err == nil {
		t.Error("1ms debounce should fail")
	}
	if err := (&WatchConfig{Debounce: 2 * time.Second}).Validate(); err != nil {
		t.Errorf("2s debounce should pass: %v", err)
	}
}

func TestLicenseConfig_DisabledSkipsChecks(t *testing.T) {
	cfg := LicenseConfig{Enabled: false}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("disabled gate should pass: %v", err)
	}
}

func TestLicenseConfig_BadSecret(t *testing.T) {
	for _, secret := range []string{"", "abc", DefaultSecretSHA256[:63] + "z"} {
		cfg := LicenseConfig{Enabled: true, MarkerPath: "x", SecretSHA256: secret, MaxAttempts: 3}
		if err := cfg.Validate(); err == nil {
			t.Errorf("secret %q should fail", secret)
		}
	}
}

func TestLicenseConfig_MaxAttempts(t *testing.T) {
	cfg := LicenseConfig{Enabled: true, MarkerPath: "x", SecretSHA256: DefaultSecretSHA256, MaxAttempts: 0}
	if err := cfg.Validate(); err == nil {
		t.Error("zero attempts should fail")
	}
}

func TestFullConfig_LicenseValidationCalled(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.License.SecretSHA256 = "nope"
	if err := cfg.Validate(); err == nil {
		t.Fatal("full config validate should catch license error")
	}
}
