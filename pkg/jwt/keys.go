package jwt

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

const (
	defaultAuthServiceURL = "http://auth-service:8080"
	publicKeyPath         = "/public-key.pem"
	fetchTimeout          = 10 * time.Second
)

// LoadPublicKey resolves the token verification key. A configured key file
// takes precedence over the auth service endpoint.
func LoadPublicKey(keyPath, authServiceURL string) (*rsa.PublicKey, error) {
	if keyPath != "" {
		return LoadPublicKeyFromFile(keyPath)
	}
	return LoadPublicKeyFromAuthService(authServiceURL)
}

// LoadPublicKeyFromFile loads an RSA public key from a PEM file
func LoadPublicKeyFromFile(keyPath string) (*rsa.PublicKey, error) {
	keyData, err := os.ReadFile(keyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read public key file: %w", err)
	}
	return parsePublicKeyPEM(keyData)
}

// LoadPublicKeyFromAuthService loads an RSA public key from Auth Service endpoint
func LoadPublicKeyFromAuthService(authServiceURL string) (*rsa.PublicKey, error) {
	if authServiceURL == "" {
		authServiceURL = defaultAuthServiceURL
	}
	endpoint := strings.TrimRight(authServiceURL, "/") + publicKeyPath

	client := &http.Client{Timeout: fetchTimeout}
	resp, err := client.Get(endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch public key from auth service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("auth service returned status %d when fetching public key", resp.StatusCode)
	}

	keyData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read public key response: %w", err)
	}
	return parsePublicKeyPEM(keyData)
}

// parsePublicKeyPEM parses PEM-encoded public key data
func parsePublicKeyPEM(keyData []byte) (*rsa.PublicKey, error) {
	block, _ := pem.Decode(keyData)
	if block == nil {
		return nil, fmt.Errorf("failed to decode public key PEM")
	}

	var publicKey *rsa.PublicKey
	switch block.Type {
	case "PUBLIC KEY":
		key, err := x509.ParsePKIXPublicKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("failed to parse PKIX public key: %w", err)
		}
		var ok bool
		publicKey, ok = key.(*rsa.PublicKey)
		if !ok {
			return nil, fmt.Errorf("key is not an RSA public key")
		}
	case "RSA PUBLIC KEY":
		key, err := x509.ParsePKCS1PublicKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("failed to parse PKCS1 public key: %w", err)
		}
		publicKey = key
	default:
		return nil, fmt.Errorf("unsupported key type: %s", block.Type)
	}

	return publicKey, nil
}