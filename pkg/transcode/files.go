package transcode

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// supportedExtensions lists the input formats the pipeline accepts,
// lowercased with the leading dot.
var supportedExtensions = map[string]bool{
	".mp3":  true,
	".aac":  true,
	".wav":  true,
	".ogg":  true,
	".webm": true,
	".opus": true,
	".flac": true,
	".m4a":  true,
}

// Supported reports whether path has a recognized audio extension.
func Supported(path string) bool {
	return supportedExtensions[strings.ToLower(filepath.Ext(path))]
}

// List resolves root into an ordered input list. A file yields itself;
// a directory yields its supported audio files (non-recursive) in
// natural order, so "2.mp3" sorts before "10.mp3".
func List(root string) ([]string, error) {
	fi, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !fi.IsDir() {
		if !Supported(root) {
			return nil, fmt.Errorf("transcode: unsupported input format %q", filepath.Ext(root))
		}
		return []string{root}, nil
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() || !Supported(e.Name()) {
			continue
		}
		paths = append(paths, filepath.Join(root, e.Name()))
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("transcode: no supported audio files in %s", root)
	}
	sort.Slice(paths, func(i, j int) bool {
		return naturalLess(filepath.Base(paths[i]), filepath.Base(paths[j]))
	})
	return paths, nil
}

// naturalLess compares strings treating digit runs as numbers, so
// track filenames order the way a human expects.
func naturalLess(a, b string) bool {
	for len(a) > 0 && len(b) > 0 {
		if isDigit(a[0]) && isDigit(b[0]) {
			na, a2 := takeDigits(a)
			nb, b2 := takeDigits(b)
			if na != nb {
				// Compare numerically: shorter trimmed run is smaller,
				// equal lengths fall back to lexicographic digits.
				if len(na) != len(nb) {
					return len(na) < len(nb)
				}
				return na < nb
			}
			a, b = a2, b2
			continue
		}
		if a[0] != b[0] {
			return a[0] < b[0]
		}
		a, b = a[1:], b[1:]
	}
	return len(a) < len(b)
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

// takeDigits splits the leading digit run off s, with leading zeros
// trimmed from the returned run.
func takeDigits(s string) (digits, rest string) {
	i := 0
	for i < len(s) && isDigit(s[i]) {
		i++
	}
	digits = strings.TrimLeft(s[:i], "0")
	if digits == "" {
		digits = "0"
	}
	return digits, s[i:]
}
