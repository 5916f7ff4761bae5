package apiclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strings"
	"unicode/utf8"
)

// APIError бэкенд ответил не-2xx. Detail берется из тела, если он там есть.
type APIError struct {
	Op         string
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("apiclient: %s: backend returned %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("apiclient: %s: backend returned %d: %s", e.Op, e.StatusCode, e.Detail)
}

// DetailMessage достает сообщение бэкенда из цепочки ошибок, если оно есть.
func DetailMessage(err error) (string, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Detail != "" {
		return apiErr.Detail, true
	}
	return "", false
}

// IsTimeout запрос упал по потолку таймаута.
func IsTimeout(err error) bool {
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// extractDetail понимает FastAPI ({"detail": ...}) и Flask ({"error": ...}) ответы.
func extractDetail(body []byte) string {
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err == nil {
		for _, key := range []string{"detail", "error", "message"} {
			v, ok := payload[key]
			if !ok || v == nil {
				continue
			}
			if s, ok := v.(string); ok {
				return s
			}
			// detail у FastAPI бывает списком ошибок валидации
			raw, _ := json.Marshal(v)
			return truncate(string(raw))
		}
	}
	return truncate(strings.TrimSpace(string(body)))
}

// truncate режет по границе руны: detail бэкенда бывает кириллицей.
func truncate(s string) string {
	if len(s) <= maxErrorBody {
		return s
	}
	cut := maxErrorBody
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
