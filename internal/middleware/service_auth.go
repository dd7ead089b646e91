package middleware

import (
	"crypto/rsa"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
)

// InternalRole is the role service tokens must carry to reach maintenance endpoints
const InternalRole = "internal"

// ServiceJWTAuthMiddleware authenticates other services on the internal router
type ServiceJWTAuthMiddleware struct {
	publicKey   *rsa.PublicKey
	redisClient RedisInterface
	logger      *slog.Logger
}

// NewServiceJWTAuthMiddleware creates a new service JWT authentication middleware
func NewServiceJWTAuthMiddleware(publicKey *rsa.PublicKey, redisClient RedisInterface, logger *slog.Logger) *ServiceJWTAuthMiddleware {
	return &ServiceJWTAuthMiddleware{
		publicKey:   publicKey,
		redisClient: redisClient,
		logger:      logger,
	}
}

// AuthenticateServiceJWT validates service tokens carrying the internal role
func (m *ServiceJWTAuthMiddleware) AuthenticateServiceJWT() gin.HandlerFunc {
	user := &JWTAuthMiddleware{publicKey: m.publicKey, redisClient: m.redisClient, logger: m.logger}

	return func(c *gin.Context) {
		tokenString, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			m.logger.Warn("Missing service token", "path", c.Request.URL.Path)
			abortUnauthorized(c, "missing_service_token", "Missing or malformed Bearer token for service endpoint")
			return
		}

		claims, err := parseClaims(tokenString, m.publicKey)
		if err != nil {
			m.logger.Warn("Service JWT validation failed", "error", err)
			abortUnauthorized(c, "invalid_service_token", "Invalid or expired service token")
			return
		}

		roles, _ := claims["roles"].([]interface{})
		if !hasRole(roles, InternalRole) {
			m.logger.Warn("Service token without internal role", "roles", roles)
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error":   "insufficient_service_permissions",
				"message": "Service token does not have required 'internal' role",
			})
			return
		}

		jti, _ := claims["jti"].(string)
		if jti == "" {
			abortUnauthorized(c, "missing_service_token_id", "Missing JTI in service token")
			return
		}
		if user.isRevoked(c.Request.Context(), jti) {
			m.logger.Warn("Service token has been revoked", "jti", jti)
			abortUnauthorized(c, "service_token_revoked", "Service token has been revoked")
			return
		}

		serviceName, _ := claims["service"].(string)
		if serviceName == "" {
			serviceName = "unknown"
		}

		c.Set("service_name", serviceName)
		c.Set("service_jti", jti)

		m.logger.Info("Service authenticated", "service", serviceName, "jti", jti)
		c.Next()
	}
}

func hasRole(roles []interface{}, want string) bool {
	for _, role := range roles {
		if name, ok := role.(string); ok && name == want {
			return true
		}
	}
	return false
}
