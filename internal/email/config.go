package email

import (
	"fmt"
	"net/mail"
)

// SMTPConfig содержит конфигурацию SMTP сервера
type SMTPConfig struct {
	Host      string
	Port      int
	Username  string
	Password  string
	FromEmail string
	FromName  string
}

// Validate проверяет конфигурацию SMTP
func (c SMTPConfig) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("SMTP host is required")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid SMTP port: %d", c.Port)
	}
	if c.FromEmail == "" {
		return fmt.Errorf("from email is required")
	}
	return nil
}

// From возвращает адрес отправителя в формате "Name <email>"
func (c SMTPConfig) From() string {
	if c.FromName == "" {
		return c.FromEmail
	}
	return (&mail.Address{Name: c.FromName, Address: c.FromEmail}).String()
}
