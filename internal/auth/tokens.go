package auth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"
)

const (
	verificationCodeMin   = 100000
	verificationCodeRange = 900000
	resetTokenBytes       = 32
)

// GenerateVerificationCode возвращает 6-значный код из диапазона 100000..999999
func GenerateVerificationCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(verificationCodeRange))
	if err != nil {
		return "", fmt.Errorf("failed to generate verification code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()+verificationCodeMin), nil
}

// GenerateResetToken возвращает 64 hex-символа (32 случайных байта)
func GenerateResetToken() (string, error) {
	buf := make([]byte, resetTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate reset token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
