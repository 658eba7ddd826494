package tls

import (
	"crypto/tls"
	"path/filepath"
	"testing"
)

func TestGenerateAndLoadServerConfig(t *testing.T) {
	dir := t.TempDir()
	certFile := filepath.Join(dir, "server.crt")
	keyFile := filepath.Join(dir, "server.key")

	if err := GenerateSelfSignedCert(certFile, keyFile, "planprobe", "metrics.internal"); err != nil {
		t.Fatalf("GenerateSelfSignedCert failed: %v", err)
	}

	cfg, err := LoadServerConfig(certFile, keyFile)
	if err != nil {
		t.Fatalf("LoadServerConfig failed: %v", err)
	}
	if len(cfg.Certificates) != 1 {
		t.Errorf("Expected 1 certificate, got %d", len(cfg.Certificates))
	}
	if cfg.MinVersion != tls.VersionTLS12 {
		t.Errorf("Expected minimum TLS 1.2, got %x", cfg.MinVersion)
	}
}

func TestLoadServerConfigMissingFiles(t *testing.T) {
	if _, err := LoadServerConfig("/nonexistent/server.crt", "/nonexistent/server.key"); err == nil {
		t.Error("Expected error for missing cert files")
	}
}
