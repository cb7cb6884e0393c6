package memory

import (
	"context"
	"io"
	"sync"

	"github.com/goccy/go-json"
	"github.com/pkg/errors"
)

// MStorage потокобезопасное key/value хранилище. Значения хранятся в виде json,
// поэтому наружу всегда отдаются копии.
type MStorage struct {
	data map[string][]byte
	m    sync.RWMutex
}

func NewMemStorage() *MStorage {
	return &MStorage{
		data: make(map[string][]byte),
	}
}

func (m *MStorage) Len() int {
	m.m.RLock()
	defer m.m.RUnlock()

	return len(m.data)
}

func (m *MStorage) IsExist(key string) bool {
	m.m.RLock()
	defer m.m.RUnlock()

	_, ok := m.data[key]
	return ok
}

// SetOptions опции записи.
type SetOptions struct {
	overwrite bool
}

// WithOverwrite разрешает перезапись существующего ключа.
func WithOverwrite() func(*SetOptions) {
	return func(o *SetOptions) {
		o.overwrite = true
	}
}

func Get[T any](ctx context.Context, key string, m *MStorage) (*T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err //nolint:wrapcheck
	}
	m.m.RLock()
	defer m.m.RUnlock()

	val, ok := m.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	var result T
	if err := json.Unmarshal(val, &result); err != nil {
		return nil, errors.Wrapf(err, "failed to unmarshal json by key `%s`", key)
	}
	return &result, nil
}

// Set Сохраняет новые пары ключ/значение. Ключ обязан быть уникальным, иначе вернется ошибка ErrDuplicateKey.
// Проверка уникальности и запись выполняются под одной блокировкой.
func Set[T any](ctx context.Context, key string, val *T, m *MStorage, opts ...func(*SetOptions)) error {
	if err := ctx.Err(); err != nil {
		return err //nolint:wrapcheck
	}
	var options SetOptions
	for _, opt := range opts {
		opt(&options)
	}

	bytes, err := json.Marshal(val)
	if err != nil {
		return errors.Wrapf(err, "failed to marshal json for object `%+v`", val)
	}

	m.m.Lock()
	defer m.m.Unlock()

	if _, ok := m.data[key]; ok && !options.overwrite {
		return ErrDuplicateKey
	}
	m.data[key] = bytes
	return nil
}

// Update атомарно изменяет значение по ключу. Функция fn вызывается под блокировкой записи,
// поэтому параллельные Update по одному ключу не теряют изменений.
// Если fn возвращает ошибку, значение остается прежним.
func Update[T any](ctx context.Context, key string, m *MStorage, fn func(*T) error) (*T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err //nolint:wrapcheck
	}
	m.m.Lock()
	defer m.m.Unlock()

	raw, ok := m.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	var val T
	if err := json.Unmarshal(raw, &val); err != nil {
		return nil, errors.Wrapf(err, "failed to unmarshal json by key `%s`", key)
	}
	if err := fn(&val); err != nil {
		return nil, err
	}
	bytes, err := json.Marshal(&val)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to marshal json for object `%+v`", val)
	}
	m.data[key] = bytes
	return &val, nil
}

// DeleteFunc удаляет значение по ключу, если cond вернул true. Возвращает удаленное значение.
// Если ключа нет или условие не выполнено - ErrNotFound.
func DeleteFunc[T any](ctx context.Context, key string, m *MStorage, cond func(T) bool) (*T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err //nolint:wrapcheck
	}
	m.m.Lock()
	defer m.m.Unlock()

	raw, ok := m.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	var val T
	if err := json.Unmarshal(raw, &val); err != nil {
		return nil, errors.Wrapf(err, "failed to unmarshal json by key `%s`", key)
	}
	if cond != nil && !cond(val) {
		return nil, ErrNotFound
	}
	delete(m.data, key)
	return &val, nil
}

func GetAll[T any](ctx context.Context, m *MStorage) ([]T, error) {
	return FilterAll[T](ctx, m, nil)
}

// FilterAll возвращает все значения, для которых filter вернул true. nil filter пропускает все.
func FilterAll[T any](ctx context.Context, m *MStorage, filter func(T) bool) ([]T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err //nolint:wrapcheck
	}
	m.m.RLock()
	defer m.m.RUnlock()

	var result = make([]T, 0)

	for key, bytes := range m.data {
		var val T
		if err := json.Unmarshal(bytes, &val); err != nil {
			return nil, errors.Wrapf(err, "failed to unmarshal json by key `%s`", key)
		}
		if filter == nil || filter(val) {
			result = append(result, val)
		}
	}
	return result, nil
}

// Snapshot записывает содержимое хранилища в w.
func (m *MStorage) Snapshot(w io.Writer) error {
	m.m.RLock()
	defer m.m.RUnlock()

	if err := json.NewEncoder(w).Encode(m.data); err != nil {
		return errors.Wrap(err, "failed to encode snapshot")
	}
	return nil
}

// Restore заменяет содержимое хранилища данными из r. Пустой поток оставляет хранилище пустым.
func (m *MStorage) Restore(r io.Reader) error {
	var data map[string][]byte
	if err := json.NewDecoder(r).Decode(&data); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return errors.Wrap(err, "failed to decode snapshot")
	}
	if data == nil {
		data = make(map[string][]byte)
	}

	m.m.Lock()
	defer m.m.Unlock()

	m.data = data
	return nil
}
