package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"skillmarket_backend/internal/imageprocessor"
	"skillmarket_backend/internal/logger"
	"skillmarket_backend/internal/services/dto"
	"skillmarket_backend/internal/storage"
	"skillmarket_backend/pkg/apperrors"

	"github.com/gabriel-vasile/mimetype"
)

// Поля multipart-формы профиля
const (
	FieldProfileImage    = "profileImage"
	FieldPortfolioImages = "portfolioImages"
)

// ============================================
// UPLOAD SERVICE
// ============================================

type UploadService interface {
	// StoreProfileUploads проверяет и сохраняет файлы формы профиля.
	// При ошибке уже сохраненные файлы удаляются.
	StoreProfileUploads(ctx context.Context, uploads dto.ProfileUploads) (*dto.StoredFile, []dto.StoredFile, error)

	// Store проверяет и сохраняет один файл
	Store(ctx context.Context, field string, file *multipart.FileHeader) (*dto.StoredFile, error)

	// Remove удаляет сохраненные файлы; ошибки только логируются
	Remove(ctx context.Context, files ...dto.StoredFile)
}

// ============================================
// КОНФИГУРАЦИЯ
// ============================================

type UploadConfig struct {
	MaxFileSize        int64
	AllowedTypes       []string // MIME-типы
	MaxPortfolioImages int
}

func GetDefaultUploadConfig() *UploadConfig {
	return &UploadConfig{
		MaxFileSize:        10 << 20,
		AllowedTypes:       []string{"image/jpeg", "image/png", "image/gif", "image/webp"},
		MaxPortfolioImages: 8,
	}
}

type uploadService struct {
	storage   storage.Storage
	processor *imageprocessor.Processor
	config    *UploadConfig
	now       func() time.Time

	mu       sync.Mutex
	lastNano int64
}

// ============================================
// КОНСТРУКТОР
// ============================================

func NewUploadService(
	storage storage.Storage,
	processor *imageprocessor.Processor,
	config *UploadConfig,
) UploadService {
	if config == nil {
		config = GetDefaultUploadConfig()
	}

	return &uploadService{
		storage:   storage,
		processor: processor,
		config:    config,
		now:       time.Now,
	}
}

// ============================================
// ОСНОВНЫЕ МЕТОДЫ
// ============================================

func (s *uploadService) StoreProfileUploads(ctx context.Context, uploads dto.ProfileUploads) (*dto.StoredFile, []dto.StoredFile, error) {
	if len(uploads.PortfolioImages) > s.config.MaxPortfolioImages {
		return nil, nil, apperrors.ErrTooManyFiles.Clone().WithDetails(map[string]interface{}{
			"field": FieldPortfolioImages,
			"max":   s.config.MaxPortfolioImages,
		})
	}

	var image *dto.StoredFile
	if uploads.ProfileImage != nil {
		stored, err := s.Store(ctx, FieldProfileImage, uploads.ProfileImage)
		if err != nil {
			return nil, nil, err
		}
		image = stored
	}

	portfolio := make([]dto.StoredFile, 0, len(uploads.PortfolioImages))
	for _, fh := range uploads.PortfolioImages {
		stored, err := s.Store(ctx, FieldPortfolioImages, fh)
		if err != nil {
			if image != nil {
				s.Remove(ctx, *image)
			}
			s.Remove(ctx, portfolio...)
			return nil, nil, err
		}
		portfolio = append(portfolio, *stored)
	}

	return image, portfolio, nil
}

func (s *uploadService) Store(ctx context.Context, field string, file *multipart.FileHeader) (*dto.StoredFile, error) {
	if file.Size > s.config.MaxFileSize {
		return nil, s.tooLarge(field, file.Filename)
	}

	src, err := file.Open()
	if err != nil {
		return nil, apperrors.NewBadRequestError("failed to read uploaded file").WithError(err)
	}
	defer src.Close()

	// размер в заголовке может не совпадать с телом
	data, err := io.ReadAll(io.LimitReader(src, s.config.MaxFileSize+1))
	if err != nil {
		return nil, apperrors.NewBadRequestError("failed to read uploaded file").WithError(err)
	}
	if int64(len(data)) > s.config.MaxFileSize {
		return nil, s.tooLarge(field, file.Filename)
	}

	mtype := mimetype.Detect(data)
	if !s.isAllowed(mtype) {
		return nil, apperrors.ErrInvalidFileType.Clone().WithDetails(map[string]interface{}{
			"field":    field,
			"filename": file.Filename,
			"detected": mtype.String(),
			"allowed":  s.config.AllowedTypes,
		})
	}
	contentType := baseType(mtype.String())

	if s.processor != nil {
		resized, changed, err := s.processor.Downscale(data, contentType)
		if err != nil {
			return nil, apperrors.ErrInvalidFileType.Clone().WithDetails(map[string]interface{}{
				"field":    field,
				"filename": file.Filename,
			}).WithError(err)
		}
		if changed {
			logger.CtxDebug(ctx, "Image downscaled", "field", field, "from", len(data), "to", len(resized))
			data = resized
		}
	}

	key := s.newKey(field, file.Filename, mtype)
	if err := s.storage.Save(ctx, key, bytes.NewReader(data), contentType); err != nil {
		return nil, apperrors.StorageError(err)
	}

	url, err := s.storage.GetURL(ctx, key)
	if err != nil {
		s.Remove(ctx, dto.StoredFile{Key: key})
		return nil, apperrors.StorageError(err)
	}

	return &dto.StoredFile{
		Field:       field,
		Key:         key,
		URL:         url,
		ContentType: contentType,
		Size:        int64(len(data)),
	}, nil
}

func (s *uploadService) Remove(ctx context.Context, files ...dto.StoredFile) {
	for _, f := range files {
		if err := s.storage.Delete(ctx, f.Key); err != nil {
			logger.CtxWarn(ctx, "Failed to delete stored file", "key", f.Key, "error", err)
		}
	}
}

// ============================================
// ВСПОМОГАТЕЛЬНЫЕ МЕТОДЫ
// ============================================

func (s *uploadService) tooLarge(field, filename string) error {
	return apperrors.ErrFileTooLarge.Clone().WithDetails(map[string]interface{}{
		"field":    field,
		"filename": filename,
		"maxBytes": s.config.MaxFileSize,
	})
}

func (s *uploadService) isAllowed(mtype *mimetype.MIME) bool {
	for _, allowed := range s.config.AllowedTypes {
		if mtype.Is(allowed) {
			return true
		}
	}
	return false
}

// newKey строит имя "<поле>-<unix nanos><расширение>".
// Метка времени строго возрастает в пределах процесса.
func (s *uploadService) newKey(field, filename string, mtype *mimetype.MIME) string {
	s.mu.Lock()
	n := s.now().UnixNano()
	if n <= s.lastNano {
		n = s.lastNano + 1
	}
	s.lastNano = n
	s.mu.Unlock()

	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" || strings.ContainsAny(ext, `/\`) {
		ext = mtype.Extension()
	}
	return fmt.Sprintf("%s-%d%s", field, n, ext)
}

func baseType(contentType string) string {
	if i := strings.IndexByte(contentType, ';'); i >= 0 {
		return strings.TrimSpace(contentType[:i])
	}
	return contentType
}
