package services

import (
	"context"
	"errors"
	"strings"

	"skillmarket_backend/internal/models"
	"skillmarket_backend/internal/repositories"
	"skillmarket_backend/internal/services/dto"
	"skillmarket_backend/pkg/apperrors"

	"golang.org/x/text/unicode/norm"
	"gorm.io/gorm"
)

type ProfileService interface {
	// SaveProfile создает или полностью перезаписывает профиль пользователя
	SaveProfile(ctx context.Context, db *gorm.DB, userID string, req *dto.SaveProfileRequest, uploads dto.ProfileUploads) (*dto.ProfileResponse, error)
	GetProfile(ctx context.Context, db *gorm.DB, userID string) (*dto.ProfileResponse, error)
}

type ProfileServiceImpl struct {
	userRepo    repositories.UserRepository
	profileRepo repositories.ProfileRepository
	uploads     UploadService
}

func NewProfileService(
	userRepo repositories.UserRepository,
	profileRepo repositories.ProfileRepository,
	uploads UploadService,
) ProfileService {
	return &ProfileServiceImpl{
		userRepo:    userRepo,
		profileRepo: profileRepo,
		uploads:     uploads,
	}
}

// SaveProfile - файлы сохраняются до транзакции и удаляются, если она не зафиксирована
func (s *ProfileServiceImpl) SaveProfile(ctx context.Context, db *gorm.DB, userID string, req *dto.SaveProfileRequest, uploads dto.ProfileUploads) (*dto.ProfileResponse, error) {
	image, portfolio, err := s.uploads.StoreProfileUploads(ctx, uploads)
	if err != nil {
		return nil, err
	}

	committed := false
	defer func() {
		if committed {
			return
		}
		if image != nil {
			s.uploads.Remove(ctx, *image)
		}
		s.uploads.Remove(ctx, portfolio...)
	}()

	tx := db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, apperrors.DatabaseError(tx.Error)
	}
	defer tx.Rollback()

	if _, err := s.userRepo.FindByID(tx, userID); err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, apperrors.NewNotFoundError("auth", "User not found")
		}
		return nil, apperrors.DatabaseError(err)
	}

	profile := &models.Profile{
		UserID:       userID,
		FullName:     cleanText(req.FullName),
		Title:        cleanText(req.Title),
		Location:     cleanText(req.Location),
		About:        norm.NFC.String(strings.TrimSpace(req.About)),
		ContactEmail: strings.TrimSpace(req.ContactEmail),
		Phone:        strings.TrimSpace(req.Phone),
		InstagramURL: strings.TrimSpace(req.InstagramURL),
		WebsiteURL:   strings.TrimSpace(req.WebsiteURL),
	}
	if image != nil {
		url := image.URL
		profile.ProfileImageURL = &url
	}

	if err := s.profileRepo.Upsert(tx, profile, image != nil); err != nil {
		return nil, apperrors.DatabaseError(err)
	}

	if err := s.profileRepo.ReplaceSkills(tx, profile.ID, ParseSkills(req.Skills)); err != nil {
		return nil, apperrors.DatabaseError(err)
	}

	// без новых файлов портфолио остается прежним
	if len(portfolio) > 0 {
		urls := make([]string, 0, len(portfolio))
		for _, f := range portfolio {
			urls = append(urls, f.URL)
		}
		if err := s.profileRepo.ReplacePortfolio(tx, profile.ID, urls); err != nil {
			return nil, apperrors.DatabaseError(err)
		}
	}

	if err := tx.Commit().Error; err != nil {
		return nil, apperrors.DatabaseError(err)
	}
	committed = true

	return s.GetProfile(ctx, db, userID)
}

func (s *ProfileServiceImpl) GetProfile(ctx context.Context, db *gorm.DB, userID string) (*dto.ProfileResponse, error) {
	profile, err := s.profileRepo.FindByUserID(db.WithContext(ctx), userID)
	if err != nil {
		if errors.Is(err, repositories.ErrProfileNotFound) {
			return nil, apperrors.ErrProfileNotFound
		}
		return nil, apperrors.DatabaseError(err)
	}
	return buildProfileResponse(profile), nil
}

// ParseSkills разбирает строку навыков через запятую:
// обрезает пробелы, приводит к NFC, пропускает пустые, сохраняет порядок
func ParseSkills(raw string) []string {
	parts := strings.Split(raw, ",")
	skills := make([]string, 0, len(parts))
	for _, part := range parts {
		if skill := cleanText(part); skill != "" {
			skills = append(skills, skill)
		}
	}
	return skills
}

func cleanText(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

func buildProfileResponse(p *models.Profile) *dto.ProfileResponse {
	resp := &dto.ProfileResponse{
		ID:              p.ID,
		UserID:          p.UserID,
		FullName:        p.FullName,
		Title:           p.Title,
		Location:        p.Location,
		About:           p.About,
		ProfileImageURL: p.ProfileImageURL,
		ContactEmail:    p.ContactEmail,
		Phone:           p.Phone,
		InstagramURL:    p.InstagramURL,
		WebsiteURL:      p.WebsiteURL,
		UpdatedAt:       p.UpdatedAt,
		Portfolio:       make([]dto.PortfolioItemResponse, 0, len(p.Portfolio)),
	}

	if len(p.Skills) > 0 {
		names := make([]string, 0, len(p.Skills))
		for _, skill := range p.Skills {
			names = append(names, skill.Name)
		}
		joined := strings.Join(names, ",")
		resp.Skills = &joined
	}

	for _, item := range p.Portfolio {
		resp.Portfolio = append(resp.Portfolio, dto.PortfolioItemResponse{
			ID:        item.ID,
			ProfileID: item.ProfileID,
			ImageURL:  item.ImageURL,
			CreatedAt: item.CreatedAt,
		})
	}
	return resp
}
