package dto

import "time"

// SaveProfileRequest - текстовые поля multipart-формы профиля
type SaveProfileRequest struct {
	FullName     string `form:"fullName" validate:"max=255"`
	Title        string `form:"title" validate:"max=255"`
	Location     string `form:"location" validate:"max=255"`
	About        string `form:"about" validate:"max=5000"`
	Skills       string `form:"skills" validate:"max=2000"`
	ContactEmail string `form:"contact_email" validate:"omitempty,email,max=255"`
	Phone        string `form:"phone" validate:"max=64"`
	InstagramURL string `form:"instagram_url" validate:"omitempty,url,max=512"`
	WebsiteURL   string `form:"website_url" validate:"omitempty,url,max=512"`
}

// PortfolioItemResponse - элемент портфолио
type PortfolioItemResponse struct {
	ID        string    `json:"id"`
	ProfileID string    `json:"profile_id"`
	ImageURL  string    `json:"image_url"`
	CreatedAt time.Time `json:"created_at"`
}

// ProfileResponse - публичный профиль; skills - навыки через запятую или null
type ProfileResponse struct {
	ID              string                  `json:"id"`
	UserID          string                  `json:"user_id"`
	FullName        string                  `json:"full_name"`
	Title           string                  `json:"title"`
	Location        string                  `json:"location"`
	About           string                  `json:"about"`
	ProfileImageURL *string                 `json:"profile_image_url"`
	ContactEmail    string                  `json:"contact_email"`
	Phone           string                  `json:"phone"`
	InstagramURL    string                  `json:"instagram_url"`
	WebsiteURL      string                  `json:"website_url"`
	UpdatedAt       time.Time               `json:"updated_at"`
	Skills          *string                 `json:"skills"`
	Portfolio       []PortfolioItemResponse `json:"portfolio"`
}

// SaveProfileResponse - ответ на сохранение профиля
type SaveProfileResponse struct {
	Message string           `json:"message"`
	Profile *ProfileResponse `json:"profile"`
}
