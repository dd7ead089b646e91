package middleware

import (
	"context"
	"crypto/rsa"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/avicola-track/farm-service/internal/auth"
)

const revocationCheckTimeout = 2 * time.Second

// RedisInterface defines the methods needed from Redis for JWT operations
type RedisInterface interface {
	IsJWTRevoked(ctx context.Context, jti string) (bool, error)
}

// JWTAuthMiddleware provides JWT authentication for the farm API
type JWTAuthMiddleware struct {
	publicKey   *rsa.PublicKey
	redisClient RedisInterface
	logger      *slog.Logger
}

// NewJWTAuthMiddleware creates a new JWT authentication middleware.
// redisClient may be nil, in which case revocation is not checked.
func NewJWTAuthMiddleware(publicKey *rsa.PublicKey, redisClient RedisInterface, logger *slog.Logger) *JWTAuthMiddleware {
	return &JWTAuthMiddleware{
		publicKey:   publicKey,
		redisClient: redisClient,
		logger:      logger,
	}
}

// AuthenticateJWT validates the bearer token and stores the caller in the context
func (m *JWTAuthMiddleware) AuthenticateJWT() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			m.logger.Warn("Missing or malformed Authorization header", "path", c.Request.URL.Path)
			abortUnauthorized(c, "missing_token", "Missing or malformed Bearer token")
			return
		}

		claims, err := parseClaims(tokenString, m.publicKey)
		if err != nil {
			m.logger.Warn("JWT validation failed", "error", err)
			abortUnauthorized(c, "invalid_token", "Invalid or expired token")
			return
		}

		jti, _ := claims["jti"].(string)
		if jti == "" {
			m.logger.Warn("Missing JTI in token")
			abortUnauthorized(c, "missing_token_id", "Missing JTI in token")
			return
		}

		if m.isRevoked(c.Request.Context(), jti) {
			m.logger.Warn("Token has been revoked", "jti", jti)
			abortUnauthorized(c, "token_revoked", "Token has been revoked")
			return
		}

		userID, _ := claims["sub"].(string)
		if userID == "" {
			m.logger.Warn("Missing sub in token", "jti", jti)
			abortUnauthorized(c, "missing_user_id", "Missing user_id in token claims")
			return
		}

		// telegram_id is optional; farm staff without a linked chat still authenticate
		user := &auth.UserContext{UserID: userID}
		if telegramID, ok := claims["telegram_id"].(float64); ok {
			user.TelegramID = int64(telegramID)
		}

		auth.SetUser(c, user)
		c.Set("jti", jti)

		m.logger.Debug("User authenticated", "user_id", userID, "jti", jti)
		c.Next()
	}
}

// isRevoked checks revoked:{jti} in Redis. Redis failures do not reject the request.
func (m *JWTAuthMiddleware) isRevoked(ctx context.Context, jti string) bool {
	if m.redisClient == nil {
		return false
	}

	ctx, cancel := context.WithTimeout(ctx, revocationCheckTimeout)
	defer cancel()

	revoked, err := m.redisClient.IsJWTRevoked(ctx, jti)
	if err != nil {
		m.logger.Warn("Failed to check token revocation in Redis", "jti", jti, "error", err)
		return false
	}
	return revoked
}

func bearerToken(header string) (string, bool) {
	if !strings.HasPrefix(header, "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(header[len("Bearer "):])
	return token, token != ""
}

func parseClaims(tokenString string, key *rsa.PublicKey) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return key, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, fmt.Errorf("token is not valid")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("unexpected claims type %T", token.Claims)
	}
	return claims, nil
}

func abortUnauthorized(c *gin.Context, code, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error":   code,
		"message": message,
	})
}
