package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/flicky/phone-store-api/internal/dto"
)

const TokenCookie = "access_token"

const (
	ctxActorID = "actorID"
	ctxActor   = "actor"
	ctxRole    = "role"
)

func abort(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, dto.Envelope{Success: false, Message: msg})
}

func tokenFrom(c *gin.Context) string {
	if cookie, err := c.Cookie(TokenCookie); err == nil && cookie != "" {
		return cookie
	}
	if header := c.GetHeader("Authorization"); strings.HasPrefix(header, "Bearer ") {
		return header[7:]
	}
	return ""
}

// Auth accepts a session token from the access_token cookie or a Bearer
// header and requires it to belong to the given actor kind.
func Auth(secret, actor string) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := tokenFrom(c)
		if raw == "" {
			abort(c, http.StatusUnauthorized, "unauthorized")
			return
		}

		token, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			abort(c, http.StatusUnauthorized, "invalid token")
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			abort(c, http.StatusUnauthorized, "invalid claims")
			return
		}

		sub, _ := claims["sub"].(string)
		id, err := uuid.Parse(sub)
		if err != nil {
			abort(c, http.StatusUnauthorized, "invalid token subject")
			return
		}
		if kind, _ := claims["actor"].(string); kind != actor {
			abort(c, http.StatusForbidden, "forbidden")
			return
		}

		role, _ := claims["role"].(string)
		c.Set(ctxActorID, id)
		c.Set(ctxActor, actor)
		c.Set(ctxRole, role)
		c.Next()
	}
}

// RequireRole lets through staff whose staff_type is one of roles.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := GetRole(c)
		for _, r := range roles {
			if r == role {
				c.Next()
				return
			}
		}
		abort(c, http.StatusForbidden, "insufficient permissions")
	}
}

func GetActorID(c *gin.Context) uuid.UUID {
	id, _ := c.Get(ctxActorID)
	uid, _ := id.(uuid.UUID)
	return uid
}

func GetRole(c *gin.Context) string {
	role, _ := c.Get(ctxRole)
	r, _ := role.(string)
	return r
}
