package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func newRouter(mw ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handlers := append(mw, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"id": GetActorID(c).String(), "role": GetRole(c)})
	})
	r.GET("/", handlers...)
	return r
}

func TestAuth(t *testing.T) {
	id := uuid.New()
	exp := time.Now().Add(time.Hour).Unix()
	staffToken := signToken(t, testSecret, jwt.MapClaims{"sub": id.String(), "actor": "staff", "role": "admin", "exp": exp})
	customerToken := signToken(t, testSecret, jwt.MapClaims{"sub": id.String(), "actor": "customer", "exp": exp})
	expired := signToken(t, testSecret, jwt.MapClaims{"sub": id.String(), "actor": "staff", "exp": time.Now().Add(-time.Hour).Unix()})
	forged := signToken(t, "other", jwt.MapClaims{"sub": id.String(), "actor": "staff", "exp": exp})

	tests := []struct {
		name   string
		cookie string
		bearer string
		want   int
	}{
		{"no token", "", "", http.StatusUnauthorized},
		{"cookie", staffToken, "", http.StatusOK},
		{"bearer", "", staffToken, http.StatusOK},
		{"wrong actor", customerToken, "", http.StatusForbidden},
		{"expired", expired, "", http.StatusUnauthorized},
		{"bad signature", "", forged, http.StatusUnauthorized},
	}

	r := newRouter(Auth(testSecret, "staff"))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: TokenCookie, Value: tt.cookie})
			}
			if tt.bearer != "" {
				req.Header.Set("Authorization", "Bearer "+tt.bearer)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code)
			if tt.want == http.StatusOK {
				assert.Contains(t, w.Body.String(), id.String())
			}
		})
	}
}

func TestRequireRole(t *testing.T) {
	exp := time.Now().Add(time.Hour).Unix()
	tech := signToken(t, testSecret, jwt.MapClaims{"sub": uuid.NewString(), "actor": "staff", "role": "technician", "exp": exp})
	admin := signToken(t, testSecret, jwt.MapClaims{"sub": uuid.NewString(), "actor": "staff", "role": "admin", "exp": exp})

	r := newRouter(Auth(testSecret, "staff"), RequireRole("admin", "staff"))

	for token, want := range map[string]int{tech: http.StatusForbidden, admin: http.StatusOK} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: TokenCookie, Value: token})
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, want, w.Code)
	}
}
