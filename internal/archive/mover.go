package archive

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// Mover перекладывает файлы из общей входящей папки (FTP-дроп буёв)
// в архивную папку конкретного буя: copy-then-delete, как делали прошивки.
type Mover struct {
	fs      afero.Fs
	base    string
	inbound string
}

func NewMover(base, inbound string) *Mover {
	return &Mover{fs: afero.NewOsFs(), base: base, inbound: inbound}
}

func NewMoverFS(fsys afero.Fs, base, inbound string) *Mover {
	return &Mover{fs: fsys, base: base, inbound: inbound}
}

// Dest — архивная папка буя: <base>/<inbound>_<id>.
func (m *Mover) Dest(id string) string {
	return filepath.Join(m.base, m.inbound+"_"+id)
}

// MoveAll переносит всё содержимое входящей папки в архив буя.
// Отсутствие входящей папки — ошибка (буй ещё ничего не заливал).
func (m *Mover) MoveAll(id string) error {
	src := filepath.Join(m.base, m.inbound)
	dst := m.Dest(id)

	ok, err := afero.DirExists(m.fs, src)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("source folder %s does not exist", src)
	}
	if err := m.fs.MkdirAll(dst, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dst, err)
	}

	entries, err := afero.ReadDir(m.fs, src)
	if err != nil {
		return fmt.Errorf("read %s: %w", src, err)
	}
	for _, e := range entries {
		from := filepath.Join(src, e.Name())
		to := filepath.Join(dst, e.Name())
		if e.IsDir() {
			if err := m.copyTree(from, to); err != nil {
				return err
			}
		} else {
			if err := m.copyFile(from, to, e.Mode()); err != nil {
				return err
			}
		}
		if err := m.fs.RemoveAll(from); err != nil {
			return fmt.Errorf("remove %s: %w", from, err)
		}
	}
	return nil
}

func (m *Mover) copyTree(src, dst string) error {
	if err := m.fs.MkdirAll(dst, 0o755); err != nil {
		return err
	}
	entries, err := afero.ReadDir(m.fs, src)
	if err != nil {
		return err
	}
	for _, e := range entries {
		from := filepath.Join(src, e.Name())
		to := filepath.Join(dst, e.Name())
		if e.IsDir() {
			if err := m.copyTree(from, to); err != nil {
				return err
			}
			continue
		}
		if err := m.copyFile(from, to, e.Mode()); err != nil {
			return err
		}
	}
	return nil
}

func (m *Mover) copyFile(src, dst string, mode os.FileMode) error {
	raw, err := afero.ReadFile(m.fs, src)
	if err != nil {
		return fmt.Errorf("read %s: %w", src, err)
	}
	if err := afero.WriteFile(m.fs, dst, raw, mode); err != nil {
		return fmt.Errorf("write %s: %w", dst, err)
	}
	return nil
}
