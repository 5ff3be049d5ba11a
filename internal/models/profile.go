package models

// Profile - один профиль на пользователя
type Profile struct {
	BaseModel
	UserID          string  `gorm:"type:varchar(36);uniqueIndex;not null"`
	FullName        string  `gorm:"type:varchar(255)"`
	Title           string  `gorm:"type:varchar(255)"`
	Location        string  `gorm:"type:varchar(255)"`
	About           string  `gorm:"type:text"`
	ProfileImageURL *string `gorm:"type:varchar(512)"`
	ContactEmail    string  `gorm:"type:varchar(255)"`
	Phone           string  `gorm:"type:varchar(64)"`
	InstagramURL    string  `gorm:"type:varchar(512)"`
	WebsiteURL      string  `gorm:"type:varchar(512)"`

	// Relations
	Skills    []Skill         `gorm:"foreignKey:ProfileID;constraint:OnDelete:CASCADE"`
	Portfolio []PortfolioItem `gorm:"foreignKey:ProfileID;constraint:OnDelete:CASCADE"`
}

// Skill - свободная метка навыка; набор полностью заменяется при сохранении профиля
type Skill struct {
	BaseModel
	ProfileID string `gorm:"type:varchar(36);not null;index"`
	Name      string `gorm:"column:skill_name;type:varchar(255);not null"`
	Position  int    `gorm:"not null;default:0"`
}

// PortfolioItem - ссылка на изображение портфолио
type PortfolioItem struct {
	BaseModel
	ProfileID string `gorm:"type:varchar(36);not null;index"`
	ImageURL  string `gorm:"type:varchar(512);not null"`
	Position  int    `gorm:"not null;default:0"`
}
