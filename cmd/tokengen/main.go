// Command tokengen signs development tokens accepted by the farm API
package main

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const issuer = "farm-dev-auth"

// UserClaims are the claims of a farm user token
type UserClaims struct {
	TelegramID int64 `json:"telegram_id,omitempty"`
	jwt.RegisteredClaims
}

// ServiceClaims are the claims of a service-to-service token
type ServiceClaims struct {
	Service string   `json:"service"`
	Roles   []string `json:"roles"`
	jwt.RegisteredClaims
}

func loadPrivateKey(path string) (*rsa.PrivateKey, error) {
	keyBytes, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read private key file %s: %w", path, err)
	}

	block, _ := pem.Decode(keyBytes)
	if block == nil {
		return nil, fmt.Errorf("failed to decode PEM private key from %s", path)
	}

	switch block.Type {
	case "RSA PRIVATE KEY":
		return x509.ParsePKCS1PrivateKey(block.Bytes)
	case "PRIVATE KEY":
		key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
		if err != nil {
			return nil, err
		}
		rsaKey, ok := key.(*rsa.PrivateKey)
		if !ok {
			return nil, fmt.Errorf("key in %s is not an RSA key", path)
		}
		return rsaKey, nil
	default:
		return nil, fmt.Errorf("unsupported key type: %s", block.Type)
	}
}

func registered(subject string, now time.Time, ttl time.Duration) jwt.RegisteredClaims {
	return jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Issuer:    issuer,
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
}

// signUserToken issues a token for a farm user
func signUserToken(key *rsa.PrivateKey, userID uuid.UUID, telegramID int64, ttl time.Duration, now time.Time) (string, error) {
	claims := &UserClaims{
		TelegramID:       telegramID,
		RegisteredClaims: registered(userID.String(), now, ttl),
	}
	return jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(key)
}

// signServiceToken issues a token carrying the internal role
func signServiceToken(key *rsa.PrivateKey, service string, ttl time.Duration, now time.Time) (string, error) {
	claims := &ServiceClaims{
		Service:          service,
		Roles:            []string{"internal"},
		RegisteredClaims: registered(service, now, ttl),
	}
	return jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(key)
}

func main() {
	var (
		keyPath    string
		userID     string
		telegramID int64
		service    string
		ttl        time.Duration
	)
	flag.StringVar(&keyPath, "key", "private_key.pem", "RSA private key (PEM)")
	flag.StringVar(&userID, "user", "", "User id (UUID) for a user token")
	flag.Int64Var(&telegramID, "telegram-id", 0, "Optional telegram_id claim")
	flag.StringVar(&service, "service", "", "Service name for an internal service token")
	flag.DurationVar(&ttl, "ttl", 24*time.Hour, "Token lifetime")
	flag.Parse()

	if (userID == "") == (service == "") {
		log.Fatal("exactly one of --user or --service is required")
	}

	key, err := loadPrivateKey(keyPath)
	if err != nil {
		log.Fatal(err)
	}

	var token string
	if service != "" {
		token, err = signServiceToken(key, service, ttl, time.Now())
	} else {
		var id uuid.UUID
		if id, err = uuid.Parse(userID); err != nil {
			log.Fatalf("invalid --user: %v", err)
		}
		token, err = signUserToken(key, id, telegramID, ttl, time.Now())
	}
	if err != nil {
		log.Fatalf("failed to sign token: %v", err)
	}

	fmt.Println(token)
}
