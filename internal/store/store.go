// Package store persists document records as JSON files.
package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/afero"
)

// Kind is a record collection, one directory per kind.
type Kind string

const (
	KindLoaded  Kind = "loaded-docs"
	KindChunked Kind = "chunked-docs"
	KindParsed  Kind = "parsed-docs"
)

// ErrUnknownKind is returned for a collection name that is not a Kind.
var ErrUnknownKind = errors.New("store: unknown kind")

// ErrInvalidName is returned for record names that are not plain file names.
var ErrInvalidName = errors.New("store: invalid record name")

// ParseKind validates a collection name.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case KindLoaded, KindChunked, KindParsed:
		return k, nil
	}
	return "", fmt.Errorf("%q: %w", s, ErrUnknownKind)
}

// maxCollisions bounds the numbered names tried when a record name is taken.
const maxCollisions = 1000

// Store writes records under root on fs.
type Store struct {
	fs   afero.Fs
	root string
	now  func() time.Time
}

func New(fs afero.Fs, root string) *Store {
	return &Store{fs: fs, root: root, now: time.Now}
}

// RecordName is the file name for a record: the source base name up to its
// first underscore, the method and a second-resolution timestamp. Save adds
// a numeric suffix when that name is already taken.
func RecordName(filename, method string, at time.Time) string {
	base := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	base, _, _ = strings.Cut(base, "_")
	return fmt.Sprintf("%s_%s_%s.json", base, method, at.Format("20060102150405"))
}

// Save writes record as indented JSON and returns its path.
func (s *Store) Save(kind Kind, filename, method string, record any) (string, error) {
	dir := path.Join(s.root, string(kind))
	if err := s.fs.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create %s: %w", dir, err)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(record); err != nil {
		return "", fmt.Errorf("encode record: %w", err)
	}

	name := RecordName(filename, method, s.now())
	stem := strings.TrimSuffix(name, ".json")
	for n := 2; n <= maxCollisions+1; n++ {
		p := path.Join(dir, name)
		err := s.writeNew(p, buf.Bytes())
		if err == nil {
			return p, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return "", fmt.Errorf("write record: %w", err)
		}
		name = fmt.Sprintf("%s_%d.json", stem, n)
	}
	return "", fmt.Errorf("write record %s: %d names taken", stem, maxCollisions)
}

// writeNew creates p exclusively so concurrent saves never replace each
// other's records.
func (s *Store) writeNew(p string, data []byte) error {
	f, err := s.fs.OpenFile(p, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// List returns the record file names of kind, sorted.
func (s *Store) List(kind Kind) ([]string, error) {
	infos, err := afero.ReadDir(s.fs, path.Join(s.root, string(kind)))
	if errors.Is(err, os.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", kind, err)
	}

	names := make([]string, 0, len(infos))
	for _, fi := range infos {
		if !fi.IsDir() && strings.HasSuffix(fi.Name(), ".json") {
			names = append(names, fi.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// Read decodes the record name of kind into v.
func (s *Store) Read(kind Kind, name string, v any) error {
	if name != filepath.Base(name) {
		return fmt.Errorf("read %s %q: %w", kind, name, ErrInvalidName)
	}
	data, err := afero.ReadFile(s.fs, path.Join(s.root, string(kind), name))
	if err != nil {
		return fmt.Errorf("read %s/%s: %w", kind, name, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s/%s: %w", kind, name, err)
	}
	return nil
}
