package middleware

import (
	"errors"
	"fmt"
	"strings"

	"proofhire-backend/config"
	"proofhire-backend/internal/domain"
	"proofhire-backend/pkg/apperror"
	"proofhire-backend/pkg/auth"
	"proofhire-backend/pkg/logger"
	"proofhire-backend/pkg/security"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	AuthCookieName = "auth_token"
	keyPrincipal   = "Principal"
	keyAuthSource  = "AuthSource"
	authFromCookie = "cookie"
)

// AuthMiddleware accepts HS256 tokens signed with the shared secret or RS256
// tokens verified against the JWKS endpoint. The role is always read from the
// users table; first-seen subjects are provisioned as USER.
func AuthMiddleware(jwksProvider *auth.Provider, cfg *config.Config, authUC domain.AuthUsecase) gin.HandlerFunc {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{"HS256", "RS256"}),
		jwt.WithExpirationRequired(),
	)

	return func(c *gin.Context) {
		var tokenString string
		if authHeader := c.GetHeader("Authorization"); authHeader != "" {
			tokenString = strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		} else if cookie, err := c.Cookie(AuthCookieName); err == nil && cookie != "" {
			tokenString = cookie
			c.Set(keyAuthSource, authFromCookie)
		}

		if tokenString == "" {
			abortWith(c, apperror.Unauthorized("Authorization header or auth_token cookie required"))
			return
		}

		token, err := parser.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			switch token.Method.(type) {
			case *jwt.SigningMethodHMAC:
				if cfg.JWTSecret == "" {
					return nil, fmt.Errorf("HS256 token received but JWT_SECRET is not configured")
				}
				return []byte(cfg.JWTSecret), nil
			case *jwt.SigningMethodRSA:
				if jwksProvider == nil || !jwksProvider.Configured() {
					return nil, fmt.Errorf("RS256 token received but JWKS_URL is not configured")
				}
				return jwksProvider.KeyFunc(token)
			default:
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
		})
		if err != nil || !token.Valid {
			logger.Log.Debug("Token validation failed", "error", err)
			abortWith(c, apperror.Unauthorized("Invalid token"))
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			abortWith(c, apperror.Unauthorized("Invalid claims"))
			return
		}
		sub, _ := claims["sub"].(string)
		email, _ := claims["email"].(string)

		principal, err := authUC.ResolvePrincipal(c.Request.Context(), sub, email)
		if err != nil {
			var appErr *apperror.AppError
			if !errors.As(err, &appErr) {
				appErr = apperror.Internal(err)
			}
			if appErr.Kind == apperror.KindInternal {
				logger.Log.Error("Failed to resolve principal", "error", err)
			}
			abortWith(c, appErr)
			return
		}

		c.Set(keyPrincipal, *principal)
		c.Set(string(domain.KeyUserID), principal.UserID)
		c.Set(string(domain.KeyUserEmail), principal.Email)
		c.Set(string(domain.KeyUserRole), string(principal.Role))
		c.Next()
	}
}

// PrincipalFrom returns the authenticated actor, or the zero Principal.
func PrincipalFrom(c *gin.Context) domain.Principal {
	if v, ok := c.Get(keyPrincipal); ok {
		if p, ok := v.(domain.Principal); ok {
			return p
		}
	}
	return domain.Principal{}
}

// SetPrincipal installs a principal directly. Used by tests and internal callers.
func SetPrincipal(c *gin.Context, p domain.Principal) {
	c.Set(keyPrincipal, p)
	c.Set(string(domain.KeyUserID), p.UserID)
	c.Set(string(domain.KeyUserRole), string(p.Role))
}

// RequireRole gates a route group to the given roles.
func RequireRole(roles ...domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		p := PrincipalFrom(c)
		if !p.Authenticated() {
			abortWith(c, apperror.Unauthorized("User not authenticated"))
			return
		}
		if !p.HasRole(roles...) {
			security.DefaultLogger().LogForbidden(c.Request.Context(), p.UserID, string(p.Role), c.FullPath())
			abortWith(c, apperror.Forbidden("Insufficient role"))
			return
		}
		c.Next()
	}
}
