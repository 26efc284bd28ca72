// redact маскирует чувствительные значения перед записью в лог.
package redact

import "strings"

// Email оставляет первые две руны локальной части и домен.
func Email(s string) string {
	parts := strings.Split(s, "@")
	if len(parts) != 2 {
		return "***"
	}

	local, domain := []rune(parts[0]), parts[1]
	if len(local) > 2 {
		return string(local[:2]) + "***@" + domain
	}

	return "***@" + domain
}

// Authorization скрывает учётные данные заголовка, сохраняя схему.
func Authorization(h string) string {
	if h == "" {
		return ""
	}

	scheme, _, ok := strings.Cut(h, " ")
	if !ok {
		return Token()
	}

	return scheme + " " + Token()
}

// Token — заглушка вместо значения токена.
func Token() string { return "[REDACTED_TOKEN]" }
