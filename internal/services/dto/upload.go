package dto

import "mime/multipart"

// ProfileUploads - файлы multipart-формы профиля
type ProfileUploads struct {
	ProfileImage    *multipart.FileHeader
	PortfolioImages []*multipart.FileHeader
}

// StoredFile - файл, сохраненный в хранилище
type StoredFile struct {
	Field       string `json:"field"`
	Key         string `json:"key"`
	URL         string `json:"url"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
}
