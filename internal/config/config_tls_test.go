package config

import (
	"strings"
	"testing"
)

// checkValidationError fails the test when the error presence or message
// does not match expectations.
func checkValidationError(t *testing.T, err error, wantErr bool, wantMsg string) {
	t.Helper()
	if !wantErr {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		return
	}
	if err == nil {
		t.Fatalf("expected error containing %q, got nil", wantMsg)
	}
	if !strings.Contains(err.Error(), wantMsg) {
		t.Fatalf("error %q does not contain %q", err.Error(), wantMsg)
	}
}

func TestValidateTLSMode(t *testing.T) {
	tests := []struct {
		name    string
		tls     TLSConfig
		wantErr bool
		wantMsg string
	}{
		{
			name: "disabled mode",
			tls:  TLSConfig{Mode: "disabled"},
		},
		{
			name: "server mode valid",
			tls: TLSConfig{
				Mode:     "server",
				CertFile: "/path/to/cert.pem",
				KeyFile:  "/path/to/key.pem",
			},
		},
		{
			name: "mutual mode valid",
			tls: TLSConfig{
				Mode:     "mutual",
				CertFile: "/path/to/cert.pem",
				KeyFile:  "/path/to/key.pem",
				CAFile:   "/path/to/ca.pem",
			},
		},
		{
			name:    "invalid mode",
			tls:     TLSConfig{Mode: "invalid"},
			wantErr: true,
			wantMsg: "invalid TLS mode: invalid",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checkValidationError(t, validateTLSMode(tt.tls), tt.wantErr, tt.wantMsg)
		})
	}
}

func TestValidateServerModeTLS(t *testing.T) {
	tests := []struct {
		name    string
		tls     TLSConfig
		wantErr bool
		wantMsg string
	}{
		{
			name: "valid with files",
			tls: TLSConfig{
				CertFile: "/path/to/cert.pem",
				KeyFile:  "/path/to/key.pem",
			},
		},
		{
			name: "valid with content",
			tls: TLSConfig{
				CertContent: "cert-content",
				KeyContent:  "key-content",
			},
		},
		{
			name:    "missing certificate",
			tls:     TLSConfig{KeyFile: "/path/to/key.pem"},
			wantErr: true,
			wantMsg: "TLS certificate and key are required for server mode",
		},
		{
			name:    "missing key",
			tls:     TLSConfig{CertFile: "/path/to/cert.pem"},
			wantErr: true,
			wantMsg: "TLS certificate and key are required for server mode",
		},
		{
			name: "duplicate cert sources",
			tls: TLSConfig{
				CertFile:    "/path/to/cert.pem",
				CertContent: "cert-content",
				KeyFile:     "/path/to/key.pem",
			},
			wantErr: true,
			wantMsg: "cannot specify both certFile and certContent",
		},
		{
			name: "duplicate key sources",
			tls: TLSConfig{
				CertFile:   "/path/to/cert.pem",
				KeyFile:    "/path/to/key.pem",
				KeyContent: "key-content",
			},
			wantErr: true,
			wantMsg: "cannot specify both keyFile and keyContent",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checkValidationError(t, validateServerModeTLS(tt.tls), tt.wantErr, tt.wantMsg)
		})
	}
}

func TestValidateMutualModeTLS(t *testing.T) {
	tests := []struct {
		name    string
		tls     TLSConfig
		wantErr bool
		wantMsg string
	}{
		{
			name: "valid with files",
			tls: TLSConfig{
				CertFile: "/path/to/cert.pem",
				KeyFile:  "/path/to/key.pem",
				CAFile:   "/path/to/ca.pem",
			},
		},
		{
			name: "valid with content",
			tls: TLSConfig{
				CertContent: "cert-content",
				KeyContent:  "key-content",
				CAContent:   "ca-content",
			},
		},
		{
			name: "valid with require policy",
			tls: TLSConfig{
				CertFile:         "/path/to/cert.pem",
				KeyFile:          "/path/to/key.pem",
				CAFile:           "/path/to/ca.pem",
				ClientAuthPolicy: "require",
			},
		},
		{
			name: "missing CA",
			tls: TLSConfig{
				CertFile: "/path/to/cert.pem",
				KeyFile:  "/path/to/key.pem",
			},
			wantErr: true,
			wantMsg: "CA certificate is required for mutual TLS mode",
		},
		{
			name: "duplicate CA sources",
			tls: TLSConfig{
				CertFile:  "/path/to/cert.pem",
				KeyFile:   "/path/to/key.pem",
				CAFile:    "/path/to/ca.pem",
				CAContent: "ca-content",
			},
			wantErr: true,
			wantMsg: "cannot specify both caFile and caContent",
		},
		{
			name: "invalid client auth policy",
			tls: TLSConfig{
				CertFile:         "/path/to/cert.pem",
				KeyFile:          "/path/to/key.pem",
				CAFile:           "/path/to/ca.pem",
				ClientAuthPolicy: "invalid",
			},
			wantErr: true,
			wantMsg: "invalid clientAuthPolicy: invalid",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checkValidationError(t, validateMutualModeTLS(tt.tls), tt.wantErr, tt.wantMsg)
		})
	}
}

func TestValidateCertAndKeyRequired(t *testing.T) {
	tests := []struct {
		name    string
		tls     TLSConfig
		mode    string
		wantErr bool
	}{
		{
			name: "both files provided",
			tls: TLSConfig{
				CertFile: "/path/to/cert.pem",
				KeyFile:  "/path/to/key.pem",
			},
			mode: "server mode",
		},
		{
			name: "both content provided",
			tls: TLSConfig{
				CertContent: "cert-content",
				KeyContent:  "key-content",
			},
			mode: "mutual mode",
		},
		{
			name: "mixed sources valid",
			tls: TLSConfig{
				CertFile:   "/path/to/cert.pem",
				KeyContent: "key-content",
			},
			mode: "server mode",
		},
		{
			name:    "missing certificate",
			tls:     TLSConfig{KeyFile: "/path/to/key.pem"},
			mode:    "server mode",
			wantErr: true,
		},
		{
			name:    "missing key",
			tls:     TLSConfig{CertFile: "/path/to/cert.pem"},
			mode:    "mutual mode",
			wantErr: true,
		},
		{
			name:    "both missing",
			tls:     TLSConfig{},
			mode:    "server mode",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateCertAndKeyRequired(tt.tls, tt.mode)
			checkValidationError(t, err, tt.wantErr, "TLS certificate and key are required")
			if tt.wantErr && !strings.Contains(err.Error(), tt.mode) {
				t.Fatalf("error %q does not name mode %q", err.Error(), tt.mode)
			}
		})
	}
}

func TestValidateNoDuplicateCertSources(t *testing.T) {
	tests := []struct {
		name    string
		tls     TLSConfig
		wantErr bool
		wantMsg string
	}{
		{
			name: "no duplicates",
			tls: TLSConfig{
				CertFile: "/path/to/cert.pem",
				KeyFile:  "/path/to/key.pem",
			},
		},
		{
			name: "content only",
			tls: TLSConfig{
				CertContent: "cert-content",
				KeyContent:  "key-content",
			},
		},
		{
			name: "mixed sources valid",
			tls: TLSConfig{
				CertFile:   "/path/to/cert.pem",
				KeyContent: "key-content",
			},
		},
		{
			name: "duplicate cert sources",
			tls: TLSConfig{
				CertFile:    "/path/to/cert.pem",
				CertContent: "cert-content",
			},
			wantErr: true,
			wantMsg: "cannot specify both certFile and certContent",
		},
		{
			name: "duplicate key sources",
			tls: TLSConfig{
				KeyFile:    "/path/to/key.pem",
				KeyContent: "key-content",
			},
			wantErr: true,
			wantMsg: "cannot specify both keyFile and keyContent",
		},
		{
			name: "both duplicates reported as cert first",
			tls: TLSConfig{
				CertFile:    "/path/to/cert.pem",
				CertContent: "cert-content",
				KeyFile:     "/path/to/key.pem",
				KeyContent:  "key-content",
			},
			wantErr: true,
			wantMsg: "cannot specify both certFile and certContent",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checkValidationError(t, validateNoDuplicateCertSources(tt.tls), tt.wantErr, tt.wantMsg)
		})
	}
}

func TestValidateClientAuthPolicy(t *testing.T) {
	for _, policy := range []string{"require", "request", "verify", ""} {
		if err := validateClientAuthPolicy(TLSConfig{ClientAuthPolicy: policy}); err != nil {
			t.Fatalf("policy %q should be valid, got %v", policy, err)
		}
	}

	err := validateClientAuthPolicy(TLSConfig{ClientAuthPolicy: "invalid"})
	checkValidationError(t, err, true, "invalid clientAuthPolicy")
}

func TestValidateTLSVersion(t *testing.T) {
	for _, version := range []string{"", "1.2", "1.3"} {
		if err := validateTLSVersion(TLSConfig{MinVersion: version}); err != nil {
			t.Fatalf("version %q should be valid, got %v", version, err)
		}
	}

	for _, version := range []string{"1.1", "invalid"} {
		err := validateTLSVersion(TLSConfig{MinVersion: version})
		checkValidationError(t, err, true, "invalid TLS minVersion")
	}
}

func TestValidateTLSConfigIntegration(t *testing.T) {
	tests := []struct {
		name    string
		tls     TLSConfig
		wantErr bool
		wantMsg string
	}{
		{
			name: "complete valid server config",
			tls: TLSConfig{
				Mode:       "server",
				CertFile:   "/path/to/cert.pem",
				KeyFile:    "/path/to/key.pem",
				MinVersion: "1.2",
			},
		},
		{
			name: "complete valid mutual config",
			tls: TLSConfig{
				Mode:             "mutual",
				CertContent:      "cert-content",
				KeyContent:       "key-content",
				CAContent:        "ca-content",
				ClientAuthPolicy: "require",
				MinVersion:       "1.3",
			},
		},
		{
			name: "disabled TLS",
			tls:  TLSConfig{Mode: "disabled"},
		},
		{
			name: "invalid mode with valid certs",
			tls: TLSConfig{
				Mode:     "invalid",
				CertFile: "/path/to/cert.pem",
				KeyFile:  "/path/to/key.pem",
			},
			wantErr: true,
			wantMsg: "invalid TLS mode: invalid",
		},
		{
			name: "valid mode with invalid version",
			tls: TLSConfig{
				Mode:       "server",
				CertFile:   "/path/to/cert.pem",
				KeyFile:    "/path/to/key.pem",
				MinVersion: "1.0",
			},
			wantErr: true,
			wantMsg: "invalid TLS minVersion: 1.0",
		},
		{
			name: "server mode missing certificates",
			tls: TLSConfig{
				Mode:       "server",
				MinVersion: "1.2",
			},
			wantErr: true,
			wantMsg: "TLS certificate and key are required for server mode",
		},
		{
			name: "mutual mode missing CA",
			tls: TLSConfig{
				Mode:     "mutual",
				CertFile: "/path/to/cert.pem",
				KeyFile:  "/path/to/key.pem",
			},
			wantErr: true,
			wantMsg: "CA certificate is required for mutual TLS mode",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Config{Server: ServerConfig{TLS: tt.tls}}
			checkValidationError(t, cfg.ValidateTLSConfig(), tt.wantErr, tt.wantMsg)
		})
	}
}
