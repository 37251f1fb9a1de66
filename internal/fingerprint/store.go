// SPDX-License-Identifier: MPL-2.0

package fingerprint

import (
	"errors"
	"io/fs"
	"strings"

	"github.com/spf13/afero"
)

// fileMode is the permission used when writing the fingerprint file.
const fileMode = 0o644

// Store reads and writes a fingerprint file.
type Store struct {
	fs   afero.Fs
	path string
}

// NewStore returns a Store for the file at path on fsys.
func NewStore(fsys afero.Fs, path string) *Store {
	return &Store{fs: fsys, path: path}
}

// Path returns the fingerprint file path.
func (s *Store) Path() string { return s.path }

// Read returns the stored fingerprint with surrounding whitespace removed.
// A missing file is reported as found=false with a nil error; any other
// failure is returned.
func (s *Store) Read() (fp Fingerprint, found bool, err error) {
	data, err := afero.ReadFile(s.fs, s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return Fingerprint(strings.TrimSpace(string(data))), true, nil
}

// Write overwrites the file with fp. The parent directory must exist.
func (s *Store) Write(fp Fingerprint) error {
	return afero.WriteFile(s.fs, s.path, []byte(fp), fileMode)
}
