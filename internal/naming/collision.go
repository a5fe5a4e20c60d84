package naming

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// SupportedExtensions lists the input container extensions accepted for rotation.
var SupportedExtensions = []string{"mp4", "mkv"}

// SupportedInput reports whether path has an accepted container extension.
func SupportedInput(path string) bool {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	for _, allowed := range SupportedExtensions {
		if ext == allowed {
			return true
		}
	}
	return false
}

// SplitName returns the stem and extension (without dot) of path's base name.
func SplitName(path string) (string, string) {
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	return strings.TrimSuffix(base, ext), strings.TrimPrefix(ext, ".")
}

// Candidate returns the n-th candidate output path. n == 0 is the plain name.
func Candidate(dir, stem, ext string, n int) string {
	name := stem
	if n > 0 {
		name = stem + "(" + strconv.Itoa(n) + ")"
	}
	if ext != "" {
		name += "." + ext
	}
	return filepath.Join(dir, name)
}

// Taken reports whether a candidate path is unavailable. A Taken check may
// claim the path as a side effect of reporting it free.
type Taken func(path string) (bool, error)

// Resolve returns dir/stem.ext, or the first dir/stem(n).ext with n = 1, 2, ...
// that taken reports free.
func Resolve(dir, stem, ext string, taken Taken) (string, error) {
	for n := 0; ; n++ {
		candidate := Candidate(dir, stem, ext, n)
		busy, err := taken(candidate)
		if err != nil {
			return "", err
		}
		if !busy {
			return candidate, nil
		}
	}
}

// OutputPathFor resolves the output path for input written into dir.
func OutputPathFor(input, dir string, taken Taken) (string, error) {
	stem, ext := SplitName(input)
	if stem == "" || stem == "." || stem == string(filepath.Separator) {
		return "", fmt.Errorf("input %q has no file name", input)
	}
	return Resolve(dir, stem, ext, taken)
}

// Exists is the Taken check that only consults the filesystem. Nothing stops
// another writer from creating the path after it reports it free.
func Exists(path string) (bool, error) {
	_, err := os.Lstat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("stat %s: %w", path, err)
}
