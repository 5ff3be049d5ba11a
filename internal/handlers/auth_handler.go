package handlers

import (
	"net/http"

	"skillmarket_backend/internal/services"
	"skillmarket_backend/internal/services/dto"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	*BaseHandler
	authService services.AuthService
}

func NewAuthHandler(base *BaseHandler, authService services.AuthService) *AuthHandler {
	return &AuthHandler{
		BaseHandler: base,
		authService: authService,
	}
}

// RegisterRoutes регистрирует маршруты аккаунта; mw (например, лимит запросов)
// применяется ко всем
func (h *AuthHandler) RegisterRoutes(rg *gin.RouterGroup, mw ...gin.HandlerFunc) {
	auth := rg.Group("", mw...)
	{
		auth.POST("/register", h.Register)
		auth.POST("/verify", h.VerifyEmail)
		auth.POST("/login", h.Login)
		auth.POST("/forgot-password", h.RequestPasswordReset)
		auth.POST("/reset-password", h.ResetPassword)
	}
}

// Register
// @Summary Регистрация
// @Description Создает неподтвержденного пользователя и отправляет 6-значный код на email
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.RegisterRequest true "Email и пароль"
// @Success 201 {object} dto.RegisterResponse
// @Failure 400 {object} apperrors.ErrorResponse "Email занят, слабый пароль или ошибка валидации"
// @Failure 429 {object} apperrors.ErrorResponse
// @Failure 500 {object} apperrors.ErrorResponse
// @Router /api/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	response, err := h.authService.Register(c.Request.Context(), h.GetDB(c), &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response)
}

// VerifyEmail
// @Summary Подтверждение email
// @Description Проверяет код и выдает токен сессии
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.VerifyEmailRequest true "ID пользователя и код"
// @Success 200 {object} dto.SessionResponse
// @Failure 400 {object} apperrors.ErrorResponse "Неверный или просроченный код"
// @Failure 500 {object} apperrors.ErrorResponse
// @Router /api/verify [post]
func (h *AuthHandler) VerifyEmail(c *gin.Context) {
	var req dto.VerifyEmailRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	response, err := h.authService.VerifyEmail(c.Request.Context(), h.GetDB(c), &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// Login
// @Summary Вход
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.LoginRequest true "Email и пароль"
// @Success 200 {object} dto.SessionResponse
// @Failure 400 {object} apperrors.ErrorResponse "Неверный email или пароль"
// @Failure 403 {object} apperrors.ErrorResponse "Email не подтвержден"
// @Failure 500 {object} apperrors.ErrorResponse
// @Router /api/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	response, err := h.authService.Login(c.Request.Context(), h.GetDB(c), &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// RequestPasswordReset
// @Summary Запрос сброса пароля
// @Description Ответ одинаков независимо от того, зарегистрирован ли email
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.ForgotPasswordRequest true "Email"
// @Success 200 {object} dto.MessageResponse
// @Failure 500 {object} apperrors.ErrorResponse
// @Router /api/forgot-password [post]
func (h *AuthHandler) RequestPasswordReset(c *gin.Context) {
	var req dto.ForgotPasswordRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	response, err := h.authService.RequestPasswordReset(c.Request.Context(), h.GetDB(c), &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// ResetPassword
// @Summary Установка нового пароля
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.ResetPasswordRequest true "Токен и новый пароль"
// @Success 200 {object} dto.MessageResponse
// @Failure 400 {object} apperrors.ErrorResponse "Слабый пароль, неверный или просроченный токен"
// @Failure 500 {object} apperrors.ErrorResponse
// @Router /api/reset-password [post]
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req dto.ResetPasswordRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	response, err := h.authService.ResetPassword(c.Request.Context(), h.GetDB(c), &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}
