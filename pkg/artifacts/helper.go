package artifacts

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/adrg/xdg"
	"github.com/mholt/archives"
)

// Helper manages the output directory of a reduction: kept candidates,
// iteration results and the optional archive bundle.
type Helper struct {
	Dir string
}

func (h *Helper) Path(name string) string {
	return filepath.Join(h.Dir, name)
}

func (h *Helper) Write(name string, text string) error {
	file := h.Path(name)

	err := os.MkdirAll(filepath.Dir(file), 0770)
	if err != nil && !os.IsExist(err) {
		return fmt.Errorf("failed to create output directory %s: %v", filepath.Dir(file), err)
	}
	f, err := os.Create(file)
	if err != nil {
		return fmt.Errorf("failed to open file %s: %v", file, err)
	}
	defer f.Close()
	_, err = io.Copy(f, strings.NewReader(text))
	if err != nil {
		return fmt.Errorf("failed to write file %s: %v", file, err)
	}
	return nil
}

// WriteNumbered writes text to name with n inserted before the file
// extension and returns the name it used.
func (h *Helper) WriteNumbered(name string, n int, text string) (string, error) {
	numbered := NumberedName(name, n)
	return numbered, h.Write(numbered, text)
}

func (h *Helper) Open(name string) (io.ReadCloser, error) {
	file := h.Path(name)
	f, err := os.Open(file)
	if err != nil {
		return nil, fmt.Errorf("failed to open file %s: %v", file, err)
	}
	return f, err
}

func (h *Helper) Read(name string) (string, error) {
	reader, err := h.Open(name)
	if err != nil {
		return "", err
	}
	defer reader.Close()
	data, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("failed to read file %s: %v", h.Path(name), err)
	}
	return string(data), nil
}

// List returns the names of all regular files below the directory, sorted.
func (h *Helper) List() ([]string, error) {
	var names []string
	err := filepath.WalkDir(h.Dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() {
			rel, err := filepath.Rel(h.Dir, path)
			if err != nil {
				return err
			}
			names = append(names, rel)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %v", h.Dir, err)
	}
	sort.Strings(names)
	return names, nil
}

// Archive bundles the directory into a gzip compressed tarball.
func (h *Helper) Archive(ctx context.Context, out string) error {
	files, err := archives.FilesFromDisk(ctx, nil, map[string]string{
		h.Dir: filepath.Base(h.Dir),
	})
	if err != nil {
		return fmt.Errorf("failed to collect files of %s: %v", h.Dir, err)
	}
	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("failed to open file %s: %v", out, err)
	}
	defer f.Close()

	format := archives.CompressedArchive{
		Compression: archives.Gz{},
		Archival:    archives.Tar{},
	}
	if err := format.Archive(ctx, f, files); err != nil {
		return fmt.Errorf("failed to write archive %s: %v", out, err)
	}
	return nil
}

// NumberedName inserts a zero padded number before the file extension:
// result.c becomes result.0003.c.
func NumberedName(name string, n int) string {
	return InsertBeforeExtension(name, fmt.Sprintf("%04d", n))
}

func InsertBeforeExtension(name string, infix string) string {
	ext := filepath.Ext(name)
	return fmt.Sprintf("%s.%s%s", strings.TrimSuffix(name, ext), infix, ext)
}

// DefaultDir returns the per-input directory below the user cache
// directory.
func DefaultDir(input string) string {
	base := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	return filepath.Join(xdg.CacheHome, "treereduce", base)
}
