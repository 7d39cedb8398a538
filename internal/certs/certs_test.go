package certs

import (
	"crypto/x509"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetOrCreateCertificate(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "certs")
	m := NewFileManager(dir)

	exists, err := m.CertificateExists()
	require.NoError(t, err)
	assert.False(t, exists)

	cert, err := m.GetOrCreateCertificate()
	require.NoError(t, err)
	require.NotEmpty(t, cert.Certificate)

	parsed, err := x509.ParseCertificate(cert.Certificate[0])
	require.NoError(t, err)
	assert.NoError(t, parsed.VerifyHostname("localhost"))
	assert.NoError(t, parsed.VerifyHostname("127.0.0.1"))

	info, err := os.Stat(m.keyFile)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	// A second call reuses the stored pair.
	again, err := m.GetOrCreateCertificate()
	require.NoError(t, err)
	assert.Equal(t, cert.Certificate[0], again.Certificate[0])
}

func TestGetOrCreateCertificateRegenerates(t *testing.T) {
	t.Run("expired", func(t *testing.T) {
		m := NewFileManager(t.TempDir())
		first, err := m.GetOrCreateCertificate()
		require.NoError(t, err)

		m.now = func() time.Time { return time.Now().Add(2 * validity) }
		second, err := m.GetOrCreateCertificate()
		require.NoError(t, err)
		assert.NotEqual(t, first.Certificate[0], second.Certificate[0])
	})

	t.Run("corrupt files", func(t *testing.T) {
		m := NewFileManager(t.TempDir())
		require.NoError(t, os.WriteFile(m.certFile, []byte("junk"), 0600))
		require.NoError(t, os.WriteFile(m.keyFile, []byte("junk"), 0600))

		cert, err := m.GetOrCreateCertificate()
		require.NoError(t, err)
		assert.NotEmpty(t, cert.Certificate)
	})
}

func TestTLSConfig(t *testing.T) {
	cfg, err := TLSConfig(NewFileManager(t.TempDir()))
	require.NoError(t, err)
	assert.Len(t, cfg.Certificates, 1)
}
