// internal/handlers/auth.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/mercadito/backoffice/internal/config"
	"github.com/mercadito/backoffice/internal/i18n"
	"github.com/mercadito/backoffice/internal/services"
	"github.com/mercadito/backoffice/internal/utils"
)

type AuthHandler struct {
	authService *services.AuthService
	jwt         config.JWTConfig
	cookies     utils.CookieSettings
}

func NewAuthHandler(authService *services.AuthService, jwtConfig config.JWTConfig) *AuthHandler {
	sameSite, err := config.ParseSameSite(jwtConfig.CookieSameSite)
	if err != nil {
		logrus.WithError(err).Warn("Falling back to SameSite=Lax for token cookies")
		sameSite = http.SameSiteLaxMode
	}

	return &AuthHandler{
		authService: authService,
		jwt:         jwtConfig,
		cookies: utils.CookieSettings{
			Path:     jwtConfig.CookiePath,
			Secure:   jwtConfig.CookieSecure,
			SameSite: sameSite,
		},
	}
}

// POST /auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	var req services.RegisterRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.authService.Register(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err, "user")
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyAuthRegisterSuccess),
		"user":    user,
	})
}

// POST /auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	var req services.LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	authResponse, err := h.authService.Login(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err, "user")
		return
	}

	utils.SetTokenCookie(c, h.cookies, h.jwt.AccessCookieName, authResponse.AccessToken, h.authService.AccessTTL())
	utils.SetTokenCookie(c, h.cookies, h.jwt.RefreshCookieName, authResponse.RefreshToken, h.authService.RefreshTTL())

	utils.SuccessResponse(c, gin.H{
		"message":    i18n.T(lang, i18n.KeyAuthLoginSuccess),
		"user":       authResponse.User,
		"access":     authResponse.AccessToken,
		"refresh":    authResponse.RefreshToken,
		"token_type": authResponse.TokenType,
		"expires_in": authResponse.ExpiresIn,
	})
}

// POST /auth/token/refresh
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req services.RefreshRequest
	if !bindJSON(c, &req) {
		return
	}

	authResponse, err := h.authService.Refresh(c.Request.Context(), req.Refresh)
	if err != nil {
		respondError(c, err, "user")
		return
	}

	utils.SuccessResponse(c, gin.H{
		"access":     authResponse.AccessToken,
		"token_type": authResponse.TokenType,
		"expires_in": authResponse.ExpiresIn,
	})
}

// POST /auth/token/refresh-cookie
func (h *AuthHandler) RefreshTokenCookie(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	refreshToken, err := c.Cookie(h.jwt.RefreshCookieName)
	if err != nil || refreshToken == "" {
		utils.UnauthorizedResponse(c, i18n.T(lang, i18n.KeyAuthRefreshMissing))
		return
	}

	authResponse, err := h.authService.Refresh(c.Request.Context(), refreshToken)
	if err != nil {
		respondError(c, err, "user")
		return
	}

	utils.SetTokenCookie(c, h.cookies, h.jwt.AccessCookieName, authResponse.AccessToken, h.authService.AccessTTL())
	utils.SuccessResponse(c, gin.H{
		"token_type": authResponse.TokenType,
		"expires_in": authResponse.ExpiresIn,
	})
}

// GET /auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	user, err := h.authService.Me(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err, "user")
		return
	}

	utils.SuccessResponse(c, user)
}

// POST /auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	var req services.RefreshRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.authService.Logout(c.Request.Context(), req.Refresh); err != nil {
		respondError(c, err, "user")
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyAuthLogoutSuccess),
	})
}

// POST /auth/logout-cookie
func (h *AuthHandler) LogoutCookie(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	if refreshToken, err := c.Cookie(h.jwt.RefreshCookieName); err == nil && refreshToken != "" {
		if err := h.authService.Logout(c.Request.Context(), refreshToken); err != nil {
			respondError(c, err, "user")
			return
		}
	}

	utils.ClearTokenCookie(c, h.cookies, h.jwt.AccessCookieName)
	utils.ClearTokenCookie(c, h.cookies, h.jwt.RefreshCookieName)

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyAuthLogoutSuccess),
	})
}

// POST /auth/send-reset-code
func (h *AuthHandler) SendResetCode(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	var req services.SendResetCodeRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.authService.SendResetCode(c.Request.Context(), &req); err != nil {
		respondError(c, err, "user")
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyAuthResetCodeSent),
	})
}

// POST /auth/validate-reset-code
func (h *AuthHandler) ValidateResetCode(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	var req services.ValidateResetCodeRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.authService.ValidateResetCode(c.Request.Context(), &req); err != nil {
		respondError(c, err, "user")
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyAuthPasswordReset),
	})
}
