// Package keywords reads and writes the research keyword list, a plain text
// file with one keyword per line.
package keywords

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/natefinch/atomic"
)

// MaxKeywordLen bounds a single keyword in bytes.
const MaxKeywordLen = 200

// Parse splits text into keywords. Lines are trimmed, blank lines dropped and
// repeats (compared case-insensitively) removed, keeping the first spelling.
// Lines longer than MaxKeywordLen are left out and counted in tooLong.
func Parse(text string) (kws []string, tooLong int) {
	seen := make(map[string]bool)
	for _, line := range strings.Split(text, "\n") {
		kw := strings.TrimSpace(line)
		if kw == "" {
			continue
		}
		if len(kw) > MaxKeywordLen {
			tooLong++
			continue
		}
		key := strings.ToLower(kw)
		if seen[key] {
			continue
		}
		seen[key] = true
		kws = append(kws, kw)
	}
	return kws, tooLong
}

// Format renders keywords as file content.
func Format(kws []string) string {
	if len(kws) == 0 {
		return ""
	}
	return strings.Join(kws, "\n") + "\n"
}

// Load reads the keyword file. A missing file is an empty list.
func Load(path string) ([]string, error) {
	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read keywords: %w", err)
	}
	kws, _ := Parse(string(b))
	return kws, nil
}

// Save replaces the keyword file. Readers never observe a partial write.
func Save(path string, kws []string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("save keywords: %w", err)
	}
	if err := atomic.WriteFile(path, strings.NewReader(Format(kws))); err != nil {
		return fmt.Errorf("save keywords: %w", err)
	}
	return nil
}
