package auth

import (
	"crypto/sha256"
	"encoding/base64"

	"go.elara.ws/pcre"
	"golang.org/x/crypto/bcrypt"
)

// passwordPolicy: не короче 8 символов, есть строчная, заглавная буква,
// цифра и спецсимвол из набора .$@!%*?&; другие символы запрещены
var passwordPolicy = pcre.MustCompile(`^(?=.*[a-z])(?=.*[A-Z])(?=.*\d)(?=.*[\.\$@!%*?&])[A-Za-z\d\.\$@!%*?&]{8,}$`)

// ValidatePassword проверяет сложность пароля
func ValidatePassword(password string) bool {
	return passwordPolicy.MatchString(password)
}

// HashPassword создает bcrypt хеш пароля
func HashPassword(password string) (string, error) {
	return HashPasswordWithCost(password, bcrypt.DefaultCost)
}

// HashPasswordWithCost - HashPassword с заданной стоимостью (в тестах bcrypt.MinCost)
func HashPasswordWithCost(password string, cost int) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword(prehash(password), cost)
	return string(bytes), err
}

// CheckPasswordHash проверяет пароль против хеша
func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), prehash(password))
	return err == nil
}

// prehash сводит пароль любой длины к 44 байтам: bcrypt не принимает больше 72
func prehash(password string) []byte {
	sum := sha256.Sum256([]byte(password))
	return []byte(base64.StdEncoding.EncodeToString(sum[:]))
}
