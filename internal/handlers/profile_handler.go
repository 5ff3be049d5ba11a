package handlers

import (
	"errors"
	"mime/multipart"
	"net/http"

	"skillmarket_backend/internal/services"
	"skillmarket_backend/internal/services/dto"
	"skillmarket_backend/pkg/apperrors"

	"github.com/gin-gonic/gin"
)

// multipartMemory - часть формы, которая держится в памяти; остальное уходит во временные файлы
const multipartMemory = 8 << 20

type ProfileHandler struct {
	*BaseHandler
	profileService services.ProfileService
	maxBodyBytes   int64
}

// NewProfileHandler: maxBodyBytes ограничивает тело multipart-запроса целиком
func NewProfileHandler(base *BaseHandler, profileService services.ProfileService, maxBodyBytes int64) *ProfileHandler {
	return &ProfileHandler{
		BaseHandler:    base,
		profileService: profileService,
		maxBodyBytes:   maxBodyBytes,
	}
}

func (h *ProfileHandler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	profile := rg.Group("/profile")
	{
		profile.POST("", authMW, h.SaveProfile)
		profile.GET("/:userId", h.GetProfile)
	}
}

// SaveProfile
// @Summary Сохранить профиль
// @Description Создает или перезаписывает профиль текущего пользователя.
// @Description Без нового profileImage прежнее изображение сохраняется; портфолио заменяется только при загрузке новых файлов.
// @Tags profile
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param fullName formData string false "Имя"
// @Param title formData string false "Должность"
// @Param location formData string false "Город"
// @Param about formData string false "О себе"
// @Param skills formData string false "Навыки через запятую"
// @Param contact_email formData string false "Контактный email"
// @Param phone formData string false "Телефон"
// @Param instagram_url formData string false "Instagram"
// @Param website_url formData string false "Сайт"
// @Param profileImage formData file false "Фото профиля"
// @Param portfolioImages formData file false "Изображения портфолио (до 8)"
// @Success 200 {object} dto.SaveProfileResponse
// @Failure 400 {object} apperrors.ErrorResponse
// @Failure 401 {object} apperrors.ErrorResponse
// @Failure 403 {object} apperrors.ErrorResponse
// @Failure 413 {object} apperrors.ErrorResponse
// @Failure 415 {object} apperrors.ErrorResponse
// @Failure 500 {object} apperrors.ErrorResponse
// @Router /api/profile [post]
func (h *ProfileHandler) SaveProfile(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	if h.maxBodyBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBodyBytes)
	}

	uploads, err := h.readUploads(c)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	var req dto.SaveProfileRequest
	if !h.BindAndValidate_Form(c, &req) {
		return
	}

	profile, err := h.profileService.SaveProfile(c.Request.Context(), h.GetDB(c), userID, &req, uploads)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.SaveProfileResponse{
		Message: "Profile saved successfully",
		Profile: profile,
	})
}

// GetProfile
// @Summary Получить профиль
// @Tags profile
// @Produce json
// @Param userId path string true "ID пользователя"
// @Success 200 {object} dto.ProfileResponse
// @Failure 404 {object} apperrors.ErrorResponse "Профиль не найден"
// @Failure 500 {object} apperrors.ErrorResponse
// @Router /api/profile/{userId} [get]
func (h *ProfileHandler) GetProfile(c *gin.Context) {
	profile, err := h.profileService.GetProfile(c.Request.Context(), h.GetDB(c), c.Param("userId"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, profile)
}

// readUploads разбирает файловые поля формы. Запрос без multipart допустим:
// тогда файлов нет.
func (h *ProfileHandler) readUploads(c *gin.Context) (dto.ProfileUploads, error) {
	var uploads dto.ProfileUploads

	if err := c.Request.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			return uploads, apperrors.ErrFileTooLarge
		case errors.Is(err, http.ErrNotMultipart):
			return uploads, nil
		default:
			return uploads, apperrors.NewBadRequestError("Invalid multipart form").WithError(err)
		}
	}

	form := c.Request.MultipartForm
	if form == nil {
		return uploads, nil
	}

	for field, files := range form.File {
		switch field {
		case services.FieldProfileImage:
			if len(files) > 1 {
				return uploads, apperrors.ErrTooManyFiles.Clone().WithDetails(map[string]interface{}{
					"field": field,
					"max":   1,
				})
			}
			uploads.ProfileImage = firstFile(files)
		case services.FieldPortfolioImages:
			uploads.PortfolioImages = files
		default:
			return uploads, apperrors.NewBadRequestError("Unexpected file field: " + field)
		}
	}
	return uploads, nil
}

func firstFile(files []*multipart.FileHeader) *multipart.FileHeader {
	if len(files) == 0 {
		return nil
	}
	return files[0]
}
