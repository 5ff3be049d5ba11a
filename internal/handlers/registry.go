package handlers

// AppHandlers содержит все хэндлеры приложения.
type AppHandlers struct {
	AuthHandler    *AuthHandler
	ProfileHandler *ProfileHandler
	FileHandler    *FileHandler
	HealthHandler  *HealthHandler
}
