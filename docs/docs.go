// Package docs регистрирует описание API для swagger UI.
// Файл собирается из аннотаций internal/handlers и cmd/web/main.go: go generate ./cmd/web
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/api/register": {
            "post": {
                "tags": ["auth"],
                "summary": "Регистрация",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [{"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/dto.RegisterRequest"}}],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/dto.RegisterResponse"}},
                    "400": {"description": "Email занят, слабый пароль или ошибка валидации", "schema": {"$ref": "#/definitions/apperrors.ErrorResponse"}},
                    "429": {"description": "Too Many Requests", "schema": {"$ref": "#/definitions/apperrors.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/apperrors.ErrorResponse"}}
                }
            }
        },
        "/api/verify": {
            "post": {
                "tags": ["auth"],
                "summary": "Подтверждение email",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [{"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/dto.VerifyEmailRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.SessionResponse"}},
                    "400": {"description": "Неверный или просроченный код", "schema": {"$ref": "#/definitions/apperrors.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/apperrors.ErrorResponse"}}
                }
            }
        },
        "/api/login": {
            "post": {
                "tags": ["auth"],
                "summary": "Вход",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [{"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/dto.LoginRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.SessionResponse"}},
                    "400": {"description": "Неверный email или пароль", "schema": {"$ref": "#/definitions/apperrors.ErrorResponse"}},
                    "403": {"description": "Email не подтвержден", "schema": {"$ref": "#/definitions/apperrors.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/apperrors.ErrorResponse"}}
                }
            }
        },
        "/api/forgot-password": {
            "post": {
                "tags": ["auth"],
                "summary": "Запрос сброса пароля",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [{"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/dto.ForgotPasswordRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.MessageResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/apperrors.ErrorResponse"}}
                }
            }
        },
        "/api/reset-password": {
            "post": {
                "tags": ["auth"],
                "summary": "Установка нового пароля",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [{"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/dto.ResetPasswordRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.MessageResponse"}},
                    "400": {"description": "Слабый пароль, неверный или просроченный токен", "schema": {"$ref": "#/definitions/apperrors.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/apperrors.ErrorResponse"}}
                }
            }
        },
        "/api/profile": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["profile"],
                "summary": "Сохранить профиль",
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "parameters": [
                    {"type": "string", "name": "fullName", "in": "formData"},
                    {"type": "string", "name": "title", "in": "formData"},
                    {"type": "string", "name": "location", "in": "formData"},
                    {"type": "string", "name": "about", "in": "formData"},
                    {"type": "string", "description": "Навыки через запятую", "name": "skills", "in": "formData"},
                    {"type": "string", "name": "contact_email", "in": "formData"},
                    {"type": "string", "name": "phone", "in": "formData"},
                    {"type": "string", "name": "instagram_url", "in": "formData"},
                    {"type": "string", "name": "website_url", "in": "formData"},
                    {"type": "file", "name": "profileImage", "in": "formData"},
                    {"type": "file", "description": "До 8 файлов", "name": "portfolioImages", "in": "formData"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.SaveProfileResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/apperrors.ErrorResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/apperrors.ErrorResponse"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/apperrors.ErrorResponse"}},
                    "413": {"description": "Request Entity Too Large", "schema": {"$ref": "#/definitions/apperrors.ErrorResponse"}},
                    "415": {"description": "Unsupported Media Type", "schema": {"$ref": "#/definitions/apperrors.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/apperrors.ErrorResponse"}}
                }
            }
        },
        "/api/profile/{userId}": {
            "get": {
                "tags": ["profile"],
                "summary": "Получить профиль",
                "produces": ["application/json"],
                "parameters": [{"type": "string", "name": "userId", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.ProfileResponse"}},
                    "404": {"description": "Профиль не найден", "schema": {"$ref": "#/definitions/apperrors.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/apperrors.ErrorResponse"}}
                }
            }
        },
        "/uploads/{filepath}": {
            "get": {
                "tags": ["files"],
                "summary": "Загруженный файл",
                "parameters": [
                    {"type": "string", "description": "Имя файла", "name": "filepath", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "file"}},
                    "302": {"description": "Редирект на объект в S3"},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/apperrors.ErrorResponse"}}
                }
            }
        },
        "/health": {
            "get": {
                "tags": ["system"],
                "summary": "Проверка состояния",
                "produces": ["application/json"],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "503": {"description": "Service Unavailable", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        }
    },
    "definitions": {
        "apperrors.AppError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "domain": {"type": "string"},
                "message": {"type": "string"},
                "details": {}
            }
        },
        "apperrors.ErrorResponse": {
            "type": "object",
            "properties": {
                "message": {"type": "string"},
                "error": {"$ref": "#/definitions/apperrors.AppError"}
            }
        },
        "dto.RegisterRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {"email": {"type": "string"}, "password": {"type": "string"}}
        },
        "dto.RegisterResponse": {
            "type": "object",
            "properties": {"message": {"type": "string"}, "userId": {"type": "string"}}
        },
        "dto.VerifyEmailRequest": {
            "type": "object",
            "required": ["userId", "code"],
            "properties": {"userId": {"type": "string"}, "code": {"type": "string"}}
        },
        "dto.LoginRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {"email": {"type": "string"}, "password": {"type": "string"}}
        },
        "dto.SessionResponse": {
            "type": "object",
            "properties": {
                "message": {"type": "string"},
                "token": {"type": "string"},
                "userId": {"type": "string"},
                "profileImageUrl": {"type": "string"}
            }
        },
        "dto.ForgotPasswordRequest": {
            "type": "object",
            "required": ["email"],
            "properties": {"email": {"type": "string"}}
        },
        "dto.ResetPasswordRequest": {
            "type": "object",
            "required": ["token", "newPassword"],
            "properties": {"token": {"type": "string"}, "newPassword": {"type": "string"}}
        },
        "dto.MessageResponse": {
            "type": "object",
            "properties": {"message": {"type": "string"}}
        },
        "dto.PortfolioItemResponse": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "profile_id": {"type": "string"},
                "image_url": {"type": "string"},
                "created_at": {"type": "string"}
            }
        },
        "dto.ProfileResponse": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "user_id": {"type": "string"},
                "full_name": {"type": "string"},
                "title": {"type": "string"},
                "location": {"type": "string"},
                "about": {"type": "string"},
                "profile_image_url": {"type": "string"},
                "contact_email": {"type": "string"},
                "phone": {"type": "string"},
                "instagram_url": {"type": "string"},
                "website_url": {"type": "string"},
                "updated_at": {"type": "string"},
                "skills": {"type": "string"},
                "portfolio": {"type": "array", "items": {"$ref": "#/definitions/dto.PortfolioItemResponse"}}
            }
        },
        "dto.SaveProfileResponse": {
            "type": "object",
            "properties": {
                "message": {"type": "string"},
                "profile": {"$ref": "#/definitions/dto.ProfileResponse"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:4000",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Skill Market API",
	Description:      "API маркетплейса специалистов: регистрация, подтверждение email, профили и портфолио.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
