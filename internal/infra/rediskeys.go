package infra

import "fmt"

const (
	// RedisNamespace Базовый префикс для изоляции данных консоли в Redis
	RedisNamespace = "blaxing"
)

// Каналы Pub/Sub (события)
const (
	// RedisChanAgentsChanged кто-то изменил агентов, остальным сессиям пора сделать Refresh.
	RedisChanAgentsChanged = RedisNamespace + ":agents:changed"
	// RedisChanFlowsChanged обновлены привязки флоу или hooks config.
	RedisChanFlowsChanged = RedisNamespace + ":flows:changed"
)

// ModeChannel канал, изолированный по режиму источника:
// сигналы mock-сессий не должны будить prod-сессии.
func ModeChannel(base, mode string) string {
	return fmt.Sprintf("%s:%s", base, mode)
}
