package fleet

import (
	"fmt"
	"sync"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// Store — файловое хранилище флота. Файл — единственный источник истины:
// каждый читатель делает полный Load, каждый писатель — полный
// read-modify-write под одним мьютексом, чтобы конкурентные задачи
// отстрела не затирали друг друга.
type Store struct {
	fs   afero.Fs
	path string
	mu   sync.Mutex
}

func NewStore(path string) *Store {
	return &Store{fs: afero.NewOsFs(), path: path}
}

// NewStoreFS — с произвольной ФС (тесты используют afero.MemMapFs).
func NewStoreFS(fsys afero.Fs, path string) *Store {
	return &Store{fs: fsys, path: path}
}

// Load читает файл целиком. Кэша нет: правки файла руками видны
// со следующего запроса.
func (s *Store) Load() (Fleet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *Store) load() (Fleet, error) {
	raw, err := afero.ReadFile(s.fs, s.path)
	if err != nil {
		return Fleet{}, fmt.Errorf("read fleet file %s: %w", s.path, err)
	}
	var f Fleet
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return Fleet{}, fmt.Errorf("parse fleet file %s: %w", s.path, err)
	}
	return f, nil
}

func (s *Store) Save(f Fleet) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(f)
}

func (s *Store) save(f Fleet) error {
	raw, err := yaml.Marshal(f)
	if err != nil {
		return fmt.Errorf("encode fleet: %w", err)
	}
	if err := afero.WriteFile(s.fs, s.path, raw, 0o644); err != nil {
		return fmt.Errorf("write fleet file %s: %w", s.path, err)
	}
	return nil
}

// MarkReleased выставляет released=true. Обратного перехода нет.
func (s *Store) MarkReleased(id string) error {
	return s.update(id, func(b *Buoy) {
		b.Released = true
	})
}

// SetReleaseFlag — отметка «срок наступил» для стартовой сверки.
func (s *Store) SetReleaseFlag(id string, v int) error {
	return s.update(id, func(b *Buoy) {
		b.ReleaseFlag = v
	})
}

func (s *Store) update(id string, mutate func(*Buoy)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, err := s.load()
	if err != nil {
		return err
	}
	for i := range f.Buoys {
		if f.Buoys[i].ID == id {
			mutate(&f.Buoys[i])
			return s.save(f)
		}
	}
	return fmt.Errorf("buoy %s not in fleet file", id)
}
