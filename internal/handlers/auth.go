package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/course-service/internal/config"
	"github.com/SAP-F-2025/course-service/internal/models"
	"github.com/SAP-F-2025/course-service/internal/services"
	"github.com/SAP-F-2025/course-service/internal/utils"
)

// Authenticator turns a bearer token into the caller's identity
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*services.Identity, error)
}

// NewAuthenticator picks the authenticator named by the auth config
func NewAuthenticator(cfg config.AuthConfig) (Authenticator, error) {
	switch cfg.Provider {
	case config.AuthProviderJWT:
		return NewJWTAuthenticator(cfg.JWTSecret), nil
	case config.AuthProviderCasdoor:
		return NewCasdoorAuthenticator(cfg.Casdoor), nil
	default:
		return nil, fmt.Errorf("unknown auth provider %q", cfg.Provider)
	}
}

// AuthMiddleware authenticates the bearer token and loads the stored profile.
// The role in context always comes from the profile, never from the token.
type AuthMiddleware struct {
	BaseHandler
	authenticator Authenticator
	profiles      services.ProfileService
}

func NewAuthMiddleware(authenticator Authenticator, profiles services.ProfileService, logger utils.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		BaseHandler:   NewBaseHandler(logger),
		authenticator: authenticator,
		profiles:      profiles,
	}
}

// RequireAuth rejects requests without a valid token
func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
				Message: "authorization header missing",
			})
			return
		}

		token, ok := bearerToken(authHeader)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
				Message: "invalid authorization header format",
			})
			return
		}

		identity, err := am.authenticator.Authenticate(c.Request.Context(), token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
				Message: "invalid token",
				Details: err.Error(),
			})
			return
		}

		profile, err := am.profiles.EnsureProfile(c.Request.Context(), identity)
		if err != nil {
			am.handleServiceError(c, err)
			c.Abort()
			return
		}

		setProfile(c, profile)
		c.Next()
	}
}

// OptionalAuth attaches the caller when a valid token is present and lets
// anonymous requests through otherwise
func (am *AuthMiddleware) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			c.Next()
			return
		}

		identity, err := am.authenticator.Authenticate(c.Request.Context(), token)
		if err != nil {
			c.Next()
			return
		}

		profile, err := am.profiles.EnsureProfile(c.Request.Context(), identity)
		if err != nil {
			am.LogError(c, err, "Failed to load profile for optional auth")
			c.Next()
			return
		}

		setProfile(c, profile)
		c.Next()
	}
}

// RequireRole checks the stored role. Admins pass every role check.
func (am *AuthMiddleware) RequireRole(requiredRoles ...models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, ok := c.Get(ContextUserRole)
		if !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, ErrorResponse{
				Message: "user role not found in context",
			})
			return
		}

		userRole, _ := role.(models.UserRole)
		for _, requiredRole := range requiredRoles {
			if userRole == requiredRole || userRole == models.RoleAdmin {
				c.Next()
				return
			}
		}

		c.AbortWithStatusJSON(http.StatusForbidden, ErrorResponse{
			Message: fmt.Sprintf("insufficient permissions, required role: %v", requiredRoles),
		})
	}
}

func setProfile(c *gin.Context, profile *models.Profile) {
	c.Set(ContextUserID, profile.ID)
	c.Set(ContextUser, profile)
	c.Set(ContextUserRole, profile.Role)
	c.Set(ContextUserEmail, profile.Email)
}

func bearerToken(header string) (string, bool) {
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	return parts[1], true
}
