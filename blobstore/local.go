package blobstore

import (
	"bytes"
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	vfs "github.com/hupe1980/storeresolve/internal/fs"
	"github.com/hupe1980/storeresolve/internal/mmap"
)

var tmpSeq atomic.Uint64

// LocalStore implements BlobStore using the local file system.
//
// Blob names are forward-slash paths relative to root. A store rooted at the
// filesystem root (or a drive root) can address any local file.
type LocalStore struct {
	root string
	fsys vfs.FileSystem
}

// NewLocalStore creates a new LocalStore rooted at the given directory.
func NewLocalStore(root string) *LocalStore {
	return &LocalStore{root: root, fsys: vfs.Default}
}

// newLocalStoreFS routes writes through fsys.
func newLocalStoreFS(root string, fsys vfs.FileSystem) *LocalStore {
	return &LocalStore{root: root, fsys: fsys}
}

// Root returns the directory the store is rooted at.
func (s *LocalStore) Root() string {
	return s.root
}

func (s *LocalStore) path(name string) string {
	return filepath.Join(s.root, filepath.FromSlash(name))
}

// Open opens a blob for reading. Files are memory-mapped.
func (s *LocalStore) Open(ctx context.Context, name string) (Blob, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m, err := mmap.Open(s.path(name))
	if err != nil {
		return nil, err
	}
	// Handles are opened for ranged reads; Bytes switches to sequential.
	if err := m.Advise(mmap.AccessRandom); err != nil {
		_ = m.Close()
		return nil, err
	}
	return &localBlob{m: m}, nil
}

// Get reads a whole file.
func (s *LocalStore) Get(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return os.ReadFile(s.path(name))
}

// Create creates a file for streaming writes.
// Data goes to a temporary sibling and is renamed into place on Close.
func (s *LocalStore) Create(ctx context.Context, name string) (WritableBlob, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	target := s.path(name)
	if err := s.fsys.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return nil, err
	}
	f, err := s.fsys.OpenFile(tempName(target), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	return &localWritableBlob{fsys: s.fsys, f: f, target: target}, nil
}

// Put writes a file atomically.
func (s *LocalStore) Put(ctx context.Context, name string, data []byte) error {
	w, err := s.Create(ctx, name)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		_ = w.(*localWritableBlob).abort()
		return err
	}
	if err := w.Sync(); err != nil {
		_ = w.(*localWritableBlob).abort()
		return err
	}
	return w.Close()
}

// Delete removes a file. Deleting a missing file is not an error.
func (s *LocalStore) Delete(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := s.fsys.Remove(s.path(name))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// List returns all file names under root starting with prefix.
// Only the directory named by prefix is walked, never the whole root.
func (s *LocalStore) List(ctx context.Context, prefix string) ([]string, error) {
	dir := ""
	if i := strings.LastIndex(prefix, "/"); i >= 0 {
		dir = prefix[:i]
	}

	var names []string
	err := filepath.WalkDir(s.path(dir), func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(s.root, p)
		if err != nil {
			return err
		}
		name := filepath.ToSlash(rel)
		if strings.HasPrefix(path.Base(name), ".") && strings.Contains(name, ".tmp-") {
			return nil
		}
		if strings.HasPrefix(name, prefix) {
			names = append(names, name)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(names)
	return names, nil
}

type localBlob struct {
	m *mmap.Mapping
}

func (b *localBlob) ReadAt(_ context.Context, p []byte, off int64) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	return b.m.ReadAt(p, off)
}

func (b *localBlob) ReadRange(_ context.Context, off, length int64) (io.ReadCloser, error) {
	data := b.m.Bytes()
	if off < 0 || off >= int64(len(data)) {
		return nil, io.EOF
	}
	end := min(off+length, int64(len(data)))
	return io.NopCloser(bytes.NewReader(data[off:end])), nil
}

func (b *localBlob) Close() error {
	return b.m.Close()
}

func (b *localBlob) Size() int64 {
	return int64(b.m.Size())
}

// Version combines size and modification time of the mapped file.
func (b *localBlob) Version() string {
	return strconv.Itoa(b.m.Size()) + "-" + strconv.FormatInt(b.m.ModTime().UnixNano(), 10)
}

// Bytes is used for whole-blob copies, so it advises sequential access first.
func (b *localBlob) Bytes() ([]byte, error) {
	if err := b.m.Advise(mmap.AccessSequential); err != nil {
		return nil, err
	}
	return b.m.Bytes(), nil
}

// tempName returns a hidden sibling of target, e.g. ".x.bin.tmp-1700000000-3".
func tempName(target string) string {
	suffix := strconv.FormatInt(time.Now().UnixNano(), 10) + "-" + strconv.FormatUint(tmpSeq.Add(1), 10)
	return filepath.Join(filepath.Dir(target), "."+filepath.Base(target)+".tmp-"+suffix)
}

type localWritableBlob struct {
	fsys   vfs.FileSystem
	f      vfs.File
	target string
}

func (w *localWritableBlob) Write(p []byte) (int, error) {
	return w.f.Write(p)
}

func (w *localWritableBlob) Sync() error {
	return w.f.Sync()
}

func (w *localWritableBlob) Close() error {
	if err := w.f.Close(); err != nil {
		_ = w.fsys.Remove(w.f.Name())
		return err
	}
	if err := w.fsys.Rename(w.f.Name(), w.target); err != nil {
		_ = w.fsys.Remove(w.f.Name())
		return err
	}
	return nil
}

func (w *localWritableBlob) abort() error {
	_ = w.f.Close()
	return w.fsys.Remove(w.f.Name())
}
