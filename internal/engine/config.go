package engine

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config хранит параметры запуска сервера.
type Config struct {
	// HTTPAddr адрес HTTP-поверхности (websocket, health, gamelogs).
	HTTPAddr string `yaml:"httpAddr"`

	// TCPAddr адрес сырого сокетного транспорта (EOT-фреймированный JSON).
	TCPAddr string `yaml:"tcpAddr"`

	// GamelogDir каталог для финализированных гейм-логов.
	GamelogDir string `yaml:"gamelogDir"`
}

// NewConfig создает конфиг по умолчанию.
func NewConfig() Config {
	return Config{
		HTTPAddr:   ":8080",
		TCPAddr:    ":3000",
		GamelogDir: "gamelogs",
	}
}

// LoadConfig читает YAML-файл поверх дефолтов. Пустой путь - просто дефолты.
func LoadConfig(path string) (Config, error) {
	cfg := NewConfig()
	if path == "" {
		return cfg, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("config: %w", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}
