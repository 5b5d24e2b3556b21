package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/flicky/phone-store-api/internal/dto"
	"github.com/flicky/phone-store-api/internal/middleware"
	"github.com/flicky/phone-store-api/internal/service"
)

// CookieOptions are shared by customer and staff sessions.
type CookieOptions struct {
	Secure bool
	MaxAge time.Duration
}

type AuthHandler struct {
	svc    *service.AuthService
	cookie CookieOptions
	log    *slog.Logger
}

func NewAuthHandler(svc *service.AuthService, cookie CookieOptions, log *slog.Logger) *AuthHandler {
	return &AuthHandler{svc: svc, cookie: cookie, log: log}
}

func (h *AuthHandler) setSessionCookie(c *gin.Context, value string, maxAge int) {
	if h.cookie.Secure {
		c.SetSameSite(http.SameSiteNoneMode)
	} else {
		c.SetSameSite(http.SameSiteLaxMode)
	}
	c.SetCookie(middleware.TokenCookie, value, maxAge, "/", "", h.cookie.Secure, true)
}

type loginFunc func(*gin.Context, dto.LoginRequest) (*service.Session, error)

func (h *AuthHandler) login(c *gin.Context, fn loginFunc) {
	var req dto.LoginRequest
	if !bindJSON(c, &req) {
		return
	}
	session, err := fn(c, req)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	h.setSessionCookie(c, session.Token, int(h.cookie.MaxAge.Seconds()))
	respond(c, http.StatusOK, "Logged in successfully", session.Profile)
}

func (h *AuthHandler) CustomerLogin(c *gin.Context) {
	h.login(c, func(c *gin.Context, req dto.LoginRequest) (*service.Session, error) {
		return h.svc.CustomerLogin(c.Request.Context(), req)
	})
}

func (h *AuthHandler) StaffLogin(c *gin.Context) {
	h.login(c, func(c *gin.Context, req dto.LoginRequest) (*service.Session, error) {
		return h.svc.StaffLogin(c.Request.Context(), req)
	})
}

func (h *AuthHandler) Logout(c *gin.Context) {
	h.setSessionCookie(c, "", -1)
	respond(c, http.StatusOK, "Logged out successfully", nil)
}

func (h *AuthHandler) Signup(c *gin.Context) {
	var req dto.SignupRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.svc.Signup(c.Request.Context(), req); err != nil {
		writeError(c, h.log, err)
		return
	}
	respond(c, http.StatusCreated, "Account created successfully", nil)
}

func (h *AuthHandler) RegisterStaff(c *gin.Context) {
	var req dto.StaffRegisterRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.svc.RegisterStaff(c.Request.Context(), req); err != nil {
		writeError(c, h.log, err)
		return
	}
	respond(c, http.StatusCreated, "Staff member registered successfully", nil)
}

func (h *AuthHandler) CustomerMe(c *gin.Context) {
	profile, err := h.svc.CustomerProfile(c.Request.Context(), middleware.GetActorID(c))
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "", profile)
}

func (h *AuthHandler) StaffMe(c *gin.Context) {
	profile, err := h.svc.StaffProfile(c.Request.Context(), middleware.GetActorID(c))
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "", profile)
}

func (h *AuthHandler) SetCustomerActive(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.SetActiveRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.svc.SetCustomerActive(c.Request.Context(), id, *req.Active); err != nil {
		writeError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "Customer updated", nil)
}
