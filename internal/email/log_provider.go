package email

import (
	"context"
	"log/slog"
	"sync"
)

// LogProvider пишет письма в лог вместо отправки.
// Используется в разработке, когда SMTP не настроен.
type LogProvider struct {
	log *slog.Logger

	mu   sync.Mutex
	sent []Email
}

func NewLogProvider(log *slog.Logger) *LogProvider {
	if log == nil {
		log = slog.Default()
	}
	return &LogProvider{log: log}
}

func (p *LogProvider) Send(ctx context.Context, email *Email) error {
	p.mu.Lock()
	p.sent = append(p.sent, *email)
	p.mu.Unlock()

	p.log.InfoContext(ctx, "email not sent: smtp is not configured",
		"to", email.To,
		"subject", email.Subject,
		"body", email.Body,
	)
	return nil
}

// Sent возвращает копию всех "отправленных" писем
func (p *LogProvider) Sent() []Email {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Email(nil), p.sent...)
}

func (p *LogProvider) Validate() error { return nil }
func (p *LogProvider) Close() error    { return nil }
