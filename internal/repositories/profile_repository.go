package repositories

import (
	"errors"

	"skillmarket_backend/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// profileColumns - колонки, которые перезаписываются при повторном сохранении
var profileColumns = []string{
	"full_name",
	"title",
	"location",
	"about",
	"contact_email",
	"phone",
	"instagram_url",
	"website_url",
	"updated_at",
}

type ProfileRepository interface {
	// Upsert вставляет профиль или обновляет существующий по user_id.
	// profile_image_url меняется только при replaceImage=true.
	// После вызова profile содержит сохраненную строку.
	Upsert(db *gorm.DB, profile *models.Profile, replaceImage bool) error
	FindByUserID(db *gorm.DB, userID string) (*models.Profile, error)
	// FindImageURL возвращает nil без ошибки, если профиля нет
	FindImageURL(db *gorm.DB, userID string) (*string, error)
	ReplaceSkills(db *gorm.DB, profileID string, names []string) error
	ReplacePortfolio(db *gorm.DB, profileID string, imageURLs []string) error
}

type profileRepository struct{}

func NewProfileRepository() ProfileRepository {
	return &profileRepository{}
}

func (r *profileRepository) Upsert(db *gorm.DB, profile *models.Profile, replaceImage bool) error {
	columns := profileColumns
	if replaceImage {
		columns = append(append([]string{}, profileColumns...), "profile_image_url")
	}

	err := db.Omit(clause.Associations).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns(columns),
	}).Create(profile).Error
	if err != nil {
		return err
	}

	// при конфликте ID, выданный в BeforeCreate, не совпадает с сохраненным
	var stored models.Profile
	if err := db.First(&stored, "user_id = ?", profile.UserID).Error; err != nil {
		return err
	}
	*profile = stored
	return nil
}

func (r *profileRepository) FindByUserID(db *gorm.DB, userID string) (*models.Profile, error) {
	var profile models.Profile
	err := db.
		Preload("Skills", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Preload("Portfolio", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		First(&profile, "user_id = ?", userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}
	return &profile, nil
}

func (r *profileRepository) FindImageURL(db *gorm.DB, userID string) (*string, error) {
	var profile models.Profile
	err := db.Select("profile_image_url").Where("user_id = ?", userID).Take(&profile).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return profile.ProfileImageURL, nil
}

func (r *profileRepository) ReplaceSkills(db *gorm.DB, profileID string, names []string) error {
	if err := db.Where("profile_id = ?", profileID).Delete(&models.Skill{}).Error; err != nil {
		return err
	}
	if len(names) == 0 {
		return nil
	}

	skills := make([]models.Skill, 0, len(names))
	for i, name := range names {
		skills = append(skills, models.Skill{ProfileID: profileID, Name: name, Position: i})
	}
	return db.Create(&skills).Error
}

func (r *profileRepository) ReplacePortfolio(db *gorm.DB, profileID string, imageURLs []string) error {
	if err := db.Where("profile_id = ?", profileID).Delete(&models.PortfolioItem{}).Error; err != nil {
		return err
	}
	if len(imageURLs) == 0 {
		return nil
	}

	items := make([]models.PortfolioItem, 0, len(imageURLs))
	for i, url := range imageURLs {
		items = append(items, models.PortfolioItem{ProfileID: profileID, ImageURL: url, Position: i})
	}
	return db.Create(&items).Error
}
