package checkpoint

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// ErrRegression 保存的进度比已持久化的进度小
var ErrRegression = errors.New("checkpoint: lastCompletedUnit would decrease")

// Checkpoint 一个爬取阶段的进度
type Checkpoint struct {
	LastCompletedUnit int       `json:"lastCompletedUnit"`
	CumulativeCount   int       `json:"cumulativeCount"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

type Store interface {
	Load(ctx context.Context) (Checkpoint, error)
	Save(ctx context.Context, cp Checkpoint) error
}

// FileStore 将进度以 JSON 写入单个文件，写入时先写临时文件再 rename
type FileStore struct {
	path string
	now  func() time.Time
	last int
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path, now: time.Now, last: -1}
}

func (s *FileStore) Path() string {
	return s.path
}

// Load 文件不存在时返回零值
func (s *FileStore) Load(ctx context.Context) (Checkpoint, error) {
	var cp Checkpoint
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		s.last = 0
		return cp, nil
	}
	if err != nil {
		return cp, fmt.Errorf("read checkpoint: %w", err)
	}
	if err := json.Unmarshal(data, &cp); err != nil {
		return cp, fmt.Errorf("decode checkpoint %s: %w", s.path, err)
	}
	s.last = cp.LastCompletedUnit
	return cp, nil
}

// Save 原子写入 cp，并填充 UpdatedAt。进度回退时返回 ErrRegression，文件保持不变
func (s *FileStore) Save(ctx context.Context, cp Checkpoint) error {
	if s.last < 0 {
		if _, err := s.Load(ctx); err != nil {
			return err
		}
	}
	if cp.LastCompletedUnit < s.last {
		return fmt.Errorf("%w: %d < %d", ErrRegression, cp.LastCompletedUnit, s.last)
	}
	cp.UpdatedAt = s.now().UTC()
	data, err := json.MarshalIndent(cp, "", "  ")
	if err != nil {
		return err
	}
	if err := writeAtomic(s.path, data); err != nil {
		return fmt.Errorf("write checkpoint: %w", err)
	}
	s.last = cp.LastCompletedUnit
	return nil
}

// Reset 删除进度文件，对应运维手动从头开始
func (s *FileStore) Reset() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	s.last = 0
	return nil
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	name := tmp.Name()
	defer os.Remove(name)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(name, path)
}
