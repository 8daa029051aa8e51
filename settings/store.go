package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
)

var ErrNotFound = errors.New("settings: 用户不存在")

// Store persists settings keyed by user id.
type Store interface {
	Get(ctx context.Context, userID int64) (Settings, error)
	Put(ctx context.Context, userID int64, s Settings) error
	// Ensure 返回已有设置；不存在时写入默认值并返回。
	Ensure(ctx context.Context, userID int64) (Settings, error)
}

// MemoryStore keeps settings in a map. The zero value is ready to use.
type MemoryStore struct {
	mu    sync.RWMutex
	users map[int64]Settings
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore { return &MemoryStore{} }

func (m *MemoryStore) Get(ctx context.Context, userID int64) (Settings, error) {
	if err := ctx.Err(); err != nil {
		return Settings{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.users[userID]
	if !ok {
		return Settings{}, fmt.Errorf("%w: %d", ErrNotFound, userID)
	}
	return s, nil
}

func (m *MemoryStore) Put(ctx context.Context, userID int64, s Settings) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.users == nil {
		m.users = make(map[int64]Settings)
	}
	m.users[userID] = s
	return nil
}

func (m *MemoryStore) Ensure(ctx context.Context, userID int64) (Settings, error) {
	if err := ctx.Err(); err != nil {
		return Settings{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.users[userID]; ok {
		return s, nil
	}
	if m.users == nil {
		m.users = make(map[int64]Settings)
	}
	s := Default()
	m.users[userID] = s
	return s, nil
}

// FileStore keeps all users in one JSON file. Every write replaces the file
// through a temporary file and rename.
type FileStore struct {
	path string

	mu    sync.Mutex
	users map[int64]Settings
}

var _ Store = (*FileStore)(nil)

// OpenFileStore 读取已有文件；文件不存在时从空集合开始。
func OpenFileStore(path string) (*FileStore, error) {
	fs := &FileStore{path: path, users: make(map[int64]Settings)}
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return fs, nil
	case err != nil:
		return nil, fmt.Errorf("settings: 读取 %s 失败: %w", path, err)
	}
	var raw map[string]Settings
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("settings: 解析 %s 失败: %w", path, err)
	}
	for k, s := range raw {
		id, err := strconv.ParseInt(k, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("settings: 无效的用户 ID %q: %w", k, err)
		}
		fs.users[id] = s
	}
	return fs, nil
}

func (f *FileStore) Get(ctx context.Context, userID int64) (Settings, error) {
	if err := ctx.Err(); err != nil {
		return Settings{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.users[userID]
	if !ok {
		return Settings{}, fmt.Errorf("%w: %d", ErrNotFound, userID)
	}
	return s, nil
}

func (f *FileStore) Put(ctx context.Context, userID int64, s Settings) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.Validate(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	prev, had := f.users[userID]
	f.users[userID] = s
	if err := f.save(); err != nil {
		if had {
			f.users[userID] = prev
		} else {
			delete(f.users, userID)
		}
		return err
	}
	return nil
}

func (f *FileStore) Ensure(ctx context.Context, userID int64) (Settings, error) {
	if err := ctx.Err(); err != nil {
		return Settings{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := f.users[userID]; ok {
		return s, nil
	}
	s := Default()
	f.users[userID] = s
	if err := f.save(); err != nil {
		delete(f.users, userID)
		return Settings{}, err
	}
	return s, nil
}

// save 要求调用方持有 f.mu。
func (f *FileStore) save() error {
	raw := make(map[string]Settings, len(f.users))
	for id, s := range f.users {
		raw[strconv.FormatInt(id, 10)] = s
	}
	data, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return fmt.Errorf("settings: 序列化失败: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(f.path), filepath.Base(f.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("settings: 创建临时文件失败: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("settings: 写入临时文件失败: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("settings: 写入临时文件失败: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("settings: 保存 %s 失败: %w", f.path, err)
	}
	return nil
}
