package email

import (
	"fmt"
	"html/template"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

const verificationCodeTemplate = `<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #222;">
  <h2>Подтверждение email</h2>
  <p>Ваш код подтверждения:</p>
  <p style="font-size: 28px; letter-spacing: 6px;"><b>{{.Code}}</b></p>
  <p>Код действителен {{.ValidMinutes}} минут.</p>
  <p>Если вы не регистрировались, просто проигнорируйте это письмо.</p>
</body>
</html>`

const passwordResetTemplate = `<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #222;">
  <h2>Сброс пароля</h2>
  <p>Чтобы задать новый пароль, перейдите по ссылке:</p>
  <p><a href="{{.ResetLink}}">{{.ResetLink}}</a></p>
  <p>Ссылка действительна {{.ValidMinutes}} минут.</p>
  <p>Если вы не запрашивали сброс, просто проигнорируйте это письмо.</p>
</body>
</html>`

// TemplateManager реализует TemplateRenderer для управления шаблонами email
type TemplateManager struct {
	templates map[string]*template.Template
	mutex     sync.RWMutex
}

// NewTemplateManager создает менеджер со встроенными шаблонами
func NewTemplateManager() *TemplateManager {
	tm := &TemplateManager{
		templates: make(map[string]*template.Template),
	}
	for name, text := range map[string]string{
		TemplateVerificationCode: verificationCodeTemplate,
		TemplatePasswordReset:    passwordResetTemplate,
	} {
		tm.templates[name] = template.Must(template.New(name).Parse(text))
	}
	return tm
}

// Render рендерит шаблон с данными
func (tm *TemplateManager) Render(templateName string, data TemplateData) (string, error) {
	tm.mutex.RLock()
	tpl, exists := tm.templates[templateName]
	tm.mutex.RUnlock()

	if !exists {
		return "", fmt.Errorf("template not found: %s", templateName)
	}

	var buf strings.Builder
	if err := tpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}

	return buf.String(), nil
}

// AddTemplate добавляет или заменяет шаблон
func (tm *TemplateManager) AddTemplate(name string, templateStr string) error {
	tpl, err := template.New(name).Parse(templateStr)
	if err != nil {
		return fmt.Errorf("failed to parse template: %w", err)
	}

	tm.mutex.Lock()
	tm.templates[name] = tpl
	tm.mutex.Unlock()

	return nil
}

// LoadTemplates загружает *.html из директории поверх встроенных шаблонов
func (tm *TemplateManager) LoadTemplates(dirPath string) error {
	return filepath.WalkDir(dirPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() || !strings.HasSuffix(path, ".html") {
			return nil
		}

		content, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read template file %s: %w", path, err)
		}

		templateName := strings.TrimSuffix(filepath.Base(path), ".html")
		if err := tm.AddTemplate(templateName, string(content)); err != nil {
			return fmt.Errorf("failed to add template %s: %w", templateName, err)
		}

		return nil
	})
}

// TemplateNames возвращает отсортированный список имен шаблонов
func (tm *TemplateManager) TemplateNames() []string {
	tm.mutex.RLock()
	defer tm.mutex.RUnlock()

	names := make([]string, 0, len(tm.templates))
	for name := range tm.templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Compose рендерит шаблон и собирает письмо с HTML и текстовой версией
func Compose(renderer TemplateRenderer, to, subject, templateName string, data TemplateData) (*Email, error) {
	htmlBody, err := renderer.Render(templateName, data)
	if err != nil {
		return nil, err
	}

	return &Email{
		To:       []string{to},
		Subject:  subject,
		Body:     htmlToText(htmlBody),
		HTMLBody: htmlBody,
	}, nil
}

// htmlToText убирает теги и пустые строки
func htmlToText(html string) string {
	var b strings.Builder
	inTag := false
	for _, r := range html {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
		case !inTag:
			b.WriteRune(r)
		}
	}

	lines := strings.Split(b.String(), "\n")
	out := lines[:0]
	for _, line := range lines {
		if line = strings.Join(strings.Fields(line), " "); line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}
