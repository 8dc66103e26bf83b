package infra

import (
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("RECORD_STORE", "")
	t.Setenv("PORT", "")
	t.Setenv("PUBLIC_BASE_URL", "")
	t.Setenv("EXTERNAL_CALL_TIMEOUT_SECONDS", "")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.RecordStore != StoreFile {
		t.Fatalf("RecordStore = %q, want %q", cfg.RecordStore, StoreFile)
	}
	if cfg.PublicBaseURL != "http://localhost:8080" {
		t.Fatalf("PublicBaseURL = %q", cfg.PublicBaseURL)
	}
	if cfg.ExternalCallTimeout != 15*time.Second {
		t.Fatalf("ExternalCallTimeout = %s", cfg.ExternalCallTimeout)
	}
}

func TestLoadConfigTrustedProxies(t *testing.T) {
	t.Setenv("RECORD_STORE", "")
	t.Setenv("TRUSTED_PROXIES", " 10.0.0.0/8 , ,192.0.2.7")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if len(cfg.TrustedProxies) != 2 || cfg.TrustedProxies[0] != "10.0.0.0/8" || cfg.TrustedProxies[1] != "192.0.2.7" {
		t.Fatalf("TrustedProxies = %#v", cfg.TrustedProxies)
	}
}

func TestLoadConfigPostgresRequiresDatabaseURL(t *testing.T) {
	t.Setenv("RECORD_STORE", "postgres")
	t.Setenv("DATABASE_URL", "")

	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected error when DATABASE_URL is missing")
	}
}

func TestLoadConfigRejectsUnknownStore(t *testing.T) {
	t.Setenv("RECORD_STORE", "mongo")

	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected error for unknown store")
	}
}

func TestLoadConfigTreatsPlaceholderGeminiKeyAsMissing(t *testing.T) {
	t.Setenv("RECORD_STORE", "")
	t.Setenv("GEMINI_API_KEY", "your_gemini_api_key")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.GeminiAPIKey != "" {
		t.Fatalf("GeminiAPIKey = %q, want empty", cfg.GeminiAPIKey)
	}
}

func TestMailCredentials(t *testing.T) {
	tests := []struct {
		name     string
		env      map[string]string
		wantUser string
		wantPass string
	}{
		{
			name:     "email pair",
			env:      map[string]string{"EMAIL_USER": "a@x.org", "EMAIL_PASSWORD": "p1"},
			wantUser: "a@x.org",
			wantPass: "p1",
		},
		{
			name:     "gmail pair",
			env:      map[string]string{"GMAIL_USER": "b@x.org", "GMAIL_APP_PASSWORD": "p2"},
			wantUser: "b@x.org",
			wantPass: "p2",
		},
		{
			name:     "email pair wins",
			env:      map[string]string{"EMAIL_USER": "a@x.org", "EMAIL_PASSWORD": "p1", "GMAIL_USER": "b@x.org", "GMAIL_APP_PASSWORD": "p2"},
			wantUser: "a@x.org",
			wantPass: "p1",
		},
		{
			name:     "half pairs do not mix",
			env:      map[string]string{"EMAIL_USER": "a@x.org", "GMAIL_APP_PASSWORD": "p2"},
			wantUser: "",
			wantPass: "",
		},
		{
			name: "nothing set",
			env:  map[string]string{},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			user, pass := MailCredentials(func(k string) string { return tc.env[k] })
			if user != tc.wantUser || pass != tc.wantPass {
				t.Fatalf("MailCredentials() = (%q, %q), want (%q, %q)", user, pass, tc.wantUser, tc.wantPass)
			}
		})
	}
}
