package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"resumelift/internal/errors"

	"github.com/hashicorp/vault/api"
)

func newTestLogger() *errors.Logger {
	logger, _ := errors.New("debug")
	return logger
}

func TestNewVaultClientDisabled(t *testing.T) {
	client, err := NewVaultClient(VaultConfig{Enabled: false}, newTestLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if client != nil {
		t.Error("expected nil client when Vault is disabled")
	}
}

func TestResolveVaultToken(t *testing.T) {
	logger := newTestLogger()

	t.Run("direct token", func(t *testing.T) {
		token, err := resolveVaultToken(VaultConfig{Token: "direct-token"}, logger)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if token != "direct-token" {
			t.Errorf("expected direct token, got %q", token)
		}
	})

	t.Run("token from file is trimmed", func(t *testing.T) {
		tokenFile := filepath.Join(t.TempDir(), "token")
		if err := os.WriteFile(tokenFile, []byte("  file-token  \n"), 0600); err != nil {
			t.Fatalf("failed to write token file: %v", err)
		}
		token, err := resolveVaultToken(VaultConfig{TokenFile: tokenFile}, logger)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if token != "file-token" {
			t.Errorf("expected trimmed file token, got %q", token)
		}
	})

	t.Run("direct token wins over file", func(t *testing.T) {
		tokenFile := filepath.Join(t.TempDir(), "token")
		if err := os.WriteFile(tokenFile, []byte("file-token"), 0600); err != nil {
			t.Fatalf("failed to write token file: %v", err)
		}
		token, err := resolveVaultToken(VaultConfig{Token: "direct-token", TokenFile: tokenFile}, logger)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if token != "direct-token" {
			t.Errorf("expected direct token to win, got %q", token)
		}
	})

	t.Run("missing token file", func(t *testing.T) {
		_, err := resolveVaultToken(VaultConfig{TokenFile: filepath.Join(t.TempDir(), "missing")}, logger)
		if err == nil {
			t.Fatal("expected error for missing token file")
		}
		if !strings.Contains(err.Error(), "failed to read vault token file") {
			t.Errorf("unexpected error message: %v", err)
		}
	})

	t.Run("no token configured", func(t *testing.T) {
		_, err := resolveVaultToken(VaultConfig{}, logger)
		if err == nil {
			t.Fatal("expected error when no token is configured")
		}
		if !strings.Contains(err.Error(), "vault token is required") {
			t.Errorf("unexpected error message: %v", err)
		}
	})

	t.Run("whitespace-only token file", func(t *testing.T) {
		tokenFile := filepath.Join(t.TempDir(), "token")
		if err := os.WriteFile(tokenFile, []byte("   \n\t  "), 0600); err != nil {
			t.Fatalf("failed to write token file: %v", err)
		}
		if _, err := resolveVaultToken(VaultConfig{TokenFile: tokenFile}, logger); err == nil {
			t.Error("expected error for whitespace-only token file")
		}
	})
}

func TestParseVersionValue(t *testing.T) {
	tests := []struct {
		name    string
		value   any
		want    int64
		wantErr bool
	}{
		{name: "int64", value: int64(5), want: 5},
		{name: "float64", value: float64(7), want: 7},
		{name: "numeric string", value: "42", want: 42},
		{name: "non-numeric string", value: "not-a-number", wantErr: true},
		{name: "unexpected type", value: []string{"1"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseVersionValue(tt.value, "secret/data/test")
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected version %d, got %d", tt.want, got)
			}
		})
	}
}

func TestExtractSecretData(t *testing.T) {
	vc := &VaultClient{}

	t.Run("valid KVv2 secret", func(t *testing.T) {
		secret := &api.Secret{Data: map[string]any{
			"data": map[string]any{"api_key": "sk-test"},
		}}
		data, err := vc.extractSecretData(secret, "secret/data/test")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if data["api_key"] != "sk-test" {
			t.Errorf("expected api_key in data, got %v", data)
		}
	})

	t.Run("missing data field", func(t *testing.T) {
		secret := &api.Secret{Data: map[string]any{"other": "value"}}
		if _, err := vc.extractSecretData(secret, "secret/data/test"); err == nil {
			t.Error("expected error for missing data field")
		}
	})

	t.Run("data field wrong type", func(t *testing.T) {
		secret := &api.Secret{Data: map[string]any{"data": "not-a-map"}}
		if _, err := vc.extractSecretData(secret, "secret/data/test"); err == nil {
			t.Error("expected error for non-map data field")
		}
	})
}

func TestExtractSecretVersion(t *testing.T) {
	vc := &VaultClient{}

	t.Run("valid version", func(t *testing.T) {
		secret := &api.Secret{Data: map[string]any{
			"metadata": map[string]any{"version": float64(3)},
		}}
		version, err := vc.extractSecretVersion(secret, "secret/data/test")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if version != 3 {
			t.Errorf("expected version 3, got %d", version)
		}
	})

	t.Run("missing metadata", func(t *testing.T) {
		secret := &api.Secret{Data: map[string]any{"data": map[string]any{}}}
		if _, err := vc.extractSecretVersion(secret, "secret/data/test"); err == nil {
			t.Error("expected error for missing metadata")
		}
	})

	t.Run("metadata wrong type", func(t *testing.T) {
		secret := &api.Secret{Data: map[string]any{"metadata": "not-a-map"}}
		if _, err := vc.extractSecretVersion(secret, "secret/data/test"); err == nil {
			t.Error("expected error for non-map metadata")
		}
	})

	t.Run("missing version field", func(t *testing.T) {
		secret := &api.Secret{Data: map[string]any{"metadata": map[string]any{}}}
		if _, err := vc.extractSecretVersion(secret, "secret/data/test"); err == nil {
			t.Error("expected error for missing version field")
		}
	})
}

func TestGetSecretV2NilClient(t *testing.T) {
	var vc *VaultClient
	if _, err := vc.GetSecretV2("secret/data/test"); err == nil {
		t.Error("expected error for nil client")
	}
}

func TestApplyProviderKeyToConfig(t *testing.T) {
	t.Run("matching global provider updates both", func(t *testing.T) {
		config := &Config{AI: AIConfig{Provider: "openai", APIKey: "old-key"}}
		applyProviderKeyToConfig(config, "openai", "vault-key")

		if config.AI.Providers.OpenAI.APIKey != "vault-key" {
			t.Errorf("expected providers block updated, got %q", config.AI.Providers.OpenAI.APIKey)
		}
		if config.AI.APIKey != "vault-key" {
			t.Errorf("expected global key updated for matching provider, got %q", config.AI.APIKey)
		}
	})

	t.Run("non-matching provider leaves global key alone", func(t *testing.T) {
		config := &Config{AI: AIConfig{Provider: "openai", APIKey: "openai-key"}}
		applyProviderKeyToConfig(config, "anthropic", "vault-anthropic-key")

		if config.AI.Providers.Anthropic.APIKey != "vault-anthropic-key" {
			t.Errorf("expected anthropic block updated, got %q", config.AI.Providers.Anthropic.APIKey)
		}
		if config.AI.APIKey != "openai-key" {
			t.Errorf("expected global key untouched, got %q", config.AI.APIKey)
		}
	})

	t.Run("gemini", func(t *testing.T) {
		config := &Config{AI: AIConfig{Provider: "gemini"}}
		applyProviderKeyToConfig(config, "gemini", "vault-gemini-key")

		if config.AI.Providers.Gemini.APIKey != "vault-gemini-key" {
			t.Errorf("expected gemini block updated, got %q", config.AI.Providers.Gemini.APIKey)
		}
		if config.AI.APIKey != "vault-gemini-key" {
			t.Errorf("expected global key updated, got %q", config.AI.APIKey)
		}
	})

	t.Run("unknown provider is a no-op", func(t *testing.T) {
		config := &Config{AI: AIConfig{Provider: "openai", APIKey: "keep"}}
		applyProviderKeyToConfig(config, "mystery", "ignored")

		if config.AI.APIKey != "keep" {
			t.Errorf("expected config unchanged, got %q", config.AI.APIKey)
		}
		if config.AI.Providers != (ProvidersConfig{}) {
			t.Errorf("expected providers block unchanged, got %+v", config.AI.Providers)
		}
	})
}

func TestLoadSingleCertificate(t *testing.T) {
	logger := newTestLogger()

	t.Run("present string content", func(t *testing.T) {
		tlsData := &VaultSecret{Data: map[string]any{"cert": "CERT-PEM"}}
		var target string
		count := loadSingleCertificate(tlsData, "cert", &target, "TLS certificate content", logger)
		if count != 1 {
			t.Errorf("expected count 1, got %d", count)
		}
		if target != "CERT-PEM" {
			t.Errorf("expected target set, got %q", target)
		}
	})

	t.Run("empty string", func(t *testing.T) {
		tlsData := &VaultSecret{Data: map[string]any{"cert": ""}}
		var target string
		if count := loadSingleCertificate(tlsData, "cert", &target, "TLS certificate content", logger); count != 0 {
			t.Errorf("expected count 0, got %d", count)
		}
	})

	t.Run("missing key", func(t *testing.T) {
		tlsData := &VaultSecret{Data: map[string]any{}}
		var target string
		if count := loadSingleCertificate(tlsData, "cert", &target, "TLS certificate content", logger); count != 0 {
			t.Errorf("expected count 0, got %d", count)
		}
	})

	t.Run("non-string value", func(t *testing.T) {
		tlsData := &VaultSecret{Data: map[string]any{"cert": 42}}
		var target string
		if count := loadSingleCertificate(tlsData, "cert", &target, "TLS certificate content", logger); count != 0 {
			t.Errorf("expected count 0, got %d", count)
		}
		if target != "" {
			t.Errorf("expected target untouched, got %q", target)
		}
	})
}

func TestLoadTLSCertificateContent(t *testing.T) {
	logger := newTestLogger()

	t.Run("all certificates present", func(t *testing.T) {
		config := &Config{}
		tlsData := &VaultSecret{Data: map[string]any{
			"cert": "CERT-PEM",
			"key":  "KEY-PEM",
			"ca":   "CA-PEM",
		}}

		count := loadTLSCertificateContent(config, tlsData, logger)
		if count != 3 {
			t.Errorf("expected 3 certificates loaded, got %d", count)
		}
		if config.Server.TLS.CertContent != "CERT-PEM" {
			t.Errorf("expected cert content set, got %q", config.Server.TLS.CertContent)
		}
		if config.Server.TLS.KeyContent != "KEY-PEM" {
			t.Errorf("expected key content set, got %q", config.Server.TLS.KeyContent)
		}
		if config.Server.TLS.CAContent != "CA-PEM" {
			t.Errorf("expected CA content set, got %q", config.Server.TLS.CAContent)
		}
	})

	t.Run("partial data", func(t *testing.T) {
		config := &Config{}
		tlsData := &VaultSecret{Data: map[string]any{"cert": "CERT-PEM"}}

		count := loadTLSCertificateContent(config, tlsData, logger)
		if count != 1 {
			t.Errorf("expected 1 certificate loaded, got %d", count)
		}
		if config.Server.TLS.KeyContent != "" || config.Server.TLS.CAContent != "" {
			t.Error("expected missing fields to stay empty")
		}
	})
}

func TestValidateTLSDeprecatedFields(t *testing.T) {
	logger := newTestLogger()

	t.Run("content fields pass", func(t *testing.T) {
		tlsData := &VaultSecret{Data: map[string]any{
			"cert": "CERT-PEM",
			"key":  "KEY-PEM",
		}}
		if err := validateTLSDeprecatedFields(tlsData, logger); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	for _, field := range []string{"cert_file", "key_file", "ca_file"} {
		t.Run(field+" rejected", func(t *testing.T) {
			tlsData := &VaultSecret{Data: map[string]any{field: "/path/to/file"}}
			err := validateTLSDeprecatedFields(tlsData, logger)
			if err == nil {
				t.Fatalf("expected error for deprecated field %s", field)
			}
			if !strings.Contains(err.Error(), field) {
				t.Errorf("expected error to name %s, got: %v", field, err)
			}
		})
	}
}

func TestApplyVaultSecretsDisabled(t *testing.T) {
	config := &Config{
		AI:     AIConfig{APIKey: "existing-key"},
		Server: ServerConfig{APIKeys: []string{"server-key"}},
	}

	if err := ApplyVaultSecrets(config, newTestLogger()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if config.AI.APIKey != "existing-key" {
		t.Errorf("expected AI key untouched, got %q", config.AI.APIKey)
	}
	if len(config.Server.APIKeys) != 1 || config.Server.APIKeys[0] != "server-key" {
		t.Errorf("expected server keys untouched, got %v", config.Server.APIKeys)
	}
}
