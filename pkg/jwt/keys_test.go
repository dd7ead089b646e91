package jwt

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRSAKey(t *testing.T) *rsa.PublicKey {
	t.Helper()
	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	return &privateKey.PublicKey
}

func encodeKey(t *testing.T, key *rsa.PublicKey, blockType string) []byte {
	t.Helper()
	var der []byte
	switch blockType {
	case "PUBLIC KEY":
		var err error
		der, err = x509.MarshalPKIXPublicKey(key)
		require.NoError(t, err)
	case "RSA PUBLIC KEY":
		der = x509.MarshalPKCS1PublicKey(key)
	default:
		t.Fatalf("unsupported block type %s", blockType)
	}
	return pem.EncodeToMemory(&pem.Block{Type: blockType, Bytes: der})
}

func writeKeyFile(t *testing.T, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "key.pem")
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func servePEM(t *testing.T, status int, body []byte) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, publicKeyPath, r.URL.Path)
		w.WriteHeader(status)
		_, _ = w.Write(body)
	}))
	t.Cleanup(server.Close)
	return server
}

func TestLoadPublicKeyFromFile(t *testing.T) {
	key := newRSAKey(t)

	for _, blockType := range []string{"PUBLIC KEY", "RSA PUBLIC KEY"} {
		t.Run(blockType, func(t *testing.T) {
			loaded, err := LoadPublicKeyFromFile(writeKeyFile(t, encodeKey(t, key, blockType)))

			require.NoError(t, err)
			assert.Equal(t, key.N, loaded.N)
			assert.Equal(t, key.E, loaded.E)
		})
	}

	t.Run("missing file", func(t *testing.T) {
		loaded, err := LoadPublicKeyFromFile(filepath.Join(t.TempDir(), "absent.pem"))

		require.Error(t, err)
		assert.Nil(t, loaded)
		assert.Contains(t, err.Error(), "failed to read public key file")
	})

	t.Run("not pem", func(t *testing.T) {
		loaded, err := LoadPublicKeyFromFile(writeKeyFile(t, []byte("farm")))

		require.Error(t, err)
		assert.Nil(t, loaded)
		assert.Contains(t, err.Error(), "failed to decode public key PEM")
	})
}

func TestLoadPublicKeyFromAuthService(t *testing.T) {
	key := newRSAKey(t)

	tests := []struct {
		name    string
		status  int
		body    []byte
		wantErr string
	}{
		{name: "ok", status: http.StatusOK, body: encodeKey(t, key, "PUBLIC KEY")},
		{name: "server error", status: http.StatusInternalServerError, wantErr: "auth service returned status 500"},
		{name: "garbage body", status: http.StatusOK, body: []byte("<html>"), wantErr: "failed to decode public key PEM"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := servePEM(t, tt.status, tt.body)

			loaded, err := LoadPublicKeyFromAuthService(server.URL)

			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Nil(t, loaded)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, key.N, loaded.N)
		})
	}
}

func TestParsePublicKeyPEM_Rejects(t *testing.T) {
	ecKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	ecDER, err := x509.MarshalPKIXPublicKey(&ecKey.PublicKey)
	require.NoError(t, err)

	tests := []struct {
		name    string
		block   pem.Block
		wantErr string
	}{
		{"unknown block", pem.Block{Type: "CERTIFICATE", Bytes: []byte{1}}, "unsupported key type: CERTIFICATE"},
		{"broken pkix", pem.Block{Type: "PUBLIC KEY", Bytes: []byte{1, 2, 3}}, "failed to parse PKIX public key"},
		{"broken pkcs1", pem.Block{Type: "RSA PUBLIC KEY", Bytes: []byte{1, 2, 3}}, "failed to parse PKCS1 public key"},
		{"ecdsa key", pem.Block{Type: "PUBLIC KEY", Bytes: ecDER}, "key is not an RSA public key"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, err := parsePublicKeyPEM(pem.EncodeToMemory(&tt.block))

			require.Error(t, err)
			assert.Nil(t, key)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadPublicKey_FileTakesPrecedence(t *testing.T) {
	key := newRSAKey(t)
	keyFile := writeKeyFile(t, encodeKey(t, key, "PUBLIC KEY"))

	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	loaded, err := LoadPublicKey(keyFile, server.URL)

	require.NoError(t, err)
	assert.Equal(t, key.N, loaded.N)
	assert.Zero(t, calls)
}

func TestLoadPublicKey_FallsBackToAuthService(t *testing.T) {
	key := newRSAKey(t)
	server := servePEM(t, http.StatusOK, encodeKey(t, key, "RSA PUBLIC KEY"))

	// trailing slash must not produce a double slash in the path
	loaded, err := LoadPublicKey("", server.URL+"/")

	require.NoError(t, err)
	assert.Equal(t, key.E, loaded.E)
	assert.Equal(t, key.N, loaded.N)
}

func TestLoadPublicKey_MissingFile(t *testing.T) {
	loaded, err := LoadPublicKey(filepath.Join(t.TempDir(), "absent.pem"), "http://127.0.0.1:1")

	require.Error(t, err)
	assert.Nil(t, loaded)
	assert.Contains(t, err.Error(), "failed to read public key file")
}
