package db

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-json"

	"github.com/fsdevblog/shortlinks/internal/db/memory"
)

// MemoryStorage in-memory хранилище приложения. Ссылки и пользователи лежат в разных пространствах ключей.
type MemoryStorage struct {
	Links *memory.MStorage
	Users *memory.MStorage
}

func NewMemStorage() *MemoryStorage {
	return &MemoryStorage{
		Links: memory.NewMemStorage(),
		Users: memory.NewMemStorage(),
	}
}

type memorySnapshot struct {
	Links json.RawMessage `json:"links"`
	Users json.RawMessage `json:"users"`
}

// SaveToFile сохраняет содержимое хранилища в файл, перезаписывая его.
func (s *MemoryStorage) SaveToFile(path string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600) //nolint:mnd
	if err != nil {
		return fmt.Errorf("open snapshot file %s: %w", path, err)
	}
	defer f.Close()

	return s.WriteSnapshot(f)
}

// LoadFromFile восстанавливает хранилище из файла. Отсутствующий файл не считается ошибкой.
func (s *MemoryStorage) LoadFromFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("open snapshot file %s: %w", path, err)
	}
	defer f.Close()

	return s.ReadSnapshot(f)
}

func (s *MemoryStorage) WriteSnapshot(w io.Writer) error {
	var snap memorySnapshot
	var err error
	if snap.Links, err = dump(s.Links); err != nil {
		return fmt.Errorf("dump links: %w", err)
	}
	if snap.Users, err = dump(s.Users); err != nil {
		return fmt.Errorf("dump users: %w", err)
	}
	if encErr := json.NewEncoder(w).Encode(snap); encErr != nil {
		return fmt.Errorf("encode snapshot: %w", encErr)
	}
	return nil
}

func (s *MemoryStorage) ReadSnapshot(r io.Reader) error {
	var snap memorySnapshot
	if err := json.NewDecoder(r).Decode(&snap); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("decode snapshot: %w", err)
	}
	if err := load(s.Links, snap.Links); err != nil {
		return fmt.Errorf("restore links: %w", err)
	}
	if err := load(s.Users, snap.Users); err != nil {
		return fmt.Errorf("restore users: %w", err)
	}
	return nil
}

func dump(m *memory.MStorage) (json.RawMessage, error) {
	var buf bytes.Buffer
	if err := m.Snapshot(&buf); err != nil {
		return nil, err //nolint:wrapcheck
	}
	return buf.Bytes(), nil
}

func load(m *memory.MStorage, raw json.RawMessage) error {
	if len(raw) == 0 {
		return nil
	}
	return m.Restore(bytes.NewReader(raw)) //nolint:wrapcheck
}
