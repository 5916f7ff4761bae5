package domain

import (
	"errors"
	"time"
)

// Ошибки клиентской валидации: запрос в сеть не уходит.
var (
	ErrRequired    = errors.New("required field is missing")
	ErrInvalidJSON = errors.New("Invalid JSON")
	ErrUnknownMode = errors.New("unknown source mode")
)

// NoticeLevel аналог тоста в UI.
type NoticeLevel string

const (
	NoticeSuccess NoticeLevel = "success"
	NoticeInfo    NoticeLevel = "info" // dry-run и прочие "ничего не произошло, так задумано"
	NoticeError   NoticeLevel = "error"
)

type Notice struct {
	Level   NoticeLevel `json:"level"`
	Message string      `json:"message"`
	At      time.Time   `json:"at"`
}
