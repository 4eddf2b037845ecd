// Package storage отвечает за персистентность гейм-логов: каждая
// завершенная партия ложится на диск одним gzip-сжатым JSON-файлом.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"

	"github.com/siggame/Cerveau-sub002/pkg/api"
)

// Service пишет и читает гейм-логи в одной директории.
type Service struct {
	dir string
}

func NewService(dir string) (*Service, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: creating gamelog dir: %w", err)
	}
	return &Service{dir: dir}, nil
}

// Filename возвращает детерминированное имя файла партии. Вычислимо до
// записи: имя уходит клиентам в событии over раньше самой записи.
func (s *Service) Filename(gameName, session string, epoch int64) string {
	return fmt.Sprintf("%d-%s-%s.json.gz", epoch, gameName, session)
}

// Save финализирует гейм-лог на диске и возвращает имя файла.
func (s *Service) Save(g *api.Gamelog) (string, error) {
	name := s.Filename(g.GameName, g.GameSession, g.Epoch)
	f, err := os.Create(filepath.Join(s.dir, name))
	if err != nil {
		return "", fmt.Errorf("storage: creating gamelog: %w", err)
	}

	zw := gzip.NewWriter(f)
	err = json.NewEncoder(zw).Encode(g)
	if cerr := zw.Close(); err == nil {
		err = cerr
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return "", fmt.Errorf("storage: writing gamelog %s: %w", name, err)
	}
	return name, nil
}

// Load читает гейм-лог обратно по имени файла.
func (s *Service) Load(filename string) (*api.Gamelog, error) {
	path, err := s.Path(filename)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("storage: opening gamelog %s: %w", filename, err)
	}
	defer f.Close()

	zr, err := gzip.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("storage: reading gamelog %s: %w", filename, err)
	}
	defer zr.Close()

	var g api.Gamelog
	if err := json.NewDecoder(zr).Decode(&g); err != nil {
		return nil, fmt.Errorf("storage: decoding gamelog %s: %w", filename, err)
	}
	return &g, nil
}

// Path возвращает путь к файлу гейм-лога, отклоняя имена с элементами
// пути: filename приходит из HTTP-запроса.
func (s *Service) Path(filename string) (string, error) {
	if filename == "" || filename != filepath.Base(filename) || strings.HasPrefix(filename, ".") {
		return "", errors.New("storage: invalid gamelog filename")
	}
	return filepath.Join(s.dir, filename), nil
}
