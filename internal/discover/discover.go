// Package discover finds configuration fragments under a directory tree and
// orders them so shallower files come before deeper, more specific ones.
package discover

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"
)

// Default patterns and ignored directory names.
var (
	DefaultPatterns = []string{"*.yml", "*.yaml"}
	DefaultIgnore   = []string{"node_modules", "dist"}
)

// Finder locates fragment files.
type Finder struct {
	FS       afero.Fs
	Root     string
	Patterns []string // Base-name globs; empty means DefaultPatterns
	Ignore   []string // Directory names skipped at any depth
}

// Find walks Root and returns every file whose base name matches one of the
// patterns, sorted by Compare. A missing Root yields no files and no error.
func (f Finder) Find(ctx context.Context) ([]string, error) {
	patterns := f.Patterns
	if len(patterns) == 0 {
		patterns = DefaultPatterns
	}
	for _, p := range patterns {
		if _, err := filepath.Match(p, ""); err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", p, err)
		}
	}
	ignored := make(map[string]bool, len(f.Ignore))
	for _, name := range f.Ignore {
		ignored[name] = true
	}

	matched := make([][]string, len(patterns))
	err := afero.Walk(f.FS, f.Root, func(path string, info fs.FileInfo, err error) error {
		if err != nil {
			if path == f.Root && errors.Is(err, os.ErrNotExist) {
				return nil
			}
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if info.IsDir() {
			if path != f.Root && ignored[info.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		for i, p := range patterns {
			if ok, _ := filepath.Match(p, info.Name()); ok {
				matched[i] = append(matched[i], path)
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", f.Root, err)
	}

	var files []string
	for _, m := range matched {
		files = append(files, m...)
	}
	sort.SliceStable(files, func(i, j int) bool {
		return Compare(files[i], files[j]) < 0
	})
	return files, nil
}

// Compare orders two slash- or separator-delimited paths segment by segment.
// Within a shared directory, a file sorts before anything in a subdirectory
// and names otherwise compare bytewise.
func Compare(a, b string) int {
	as := strings.Split(filepath.ToSlash(a), "/")
	bs := strings.Split(filepath.ToSlash(b), "/")
	for i := 0; i < len(as) && i < len(bs); i++ {
		aLast, bLast := i == len(as)-1, i == len(bs)-1
		switch {
		case aLast && bLast:
			return strings.Compare(as[i], bs[i])
		case aLast:
			return -1
		case bLast:
			return 1
		}
		if c := strings.Compare(as[i], bs[i]); c != 0 {
			return c
		}
	}
	return len(as) - len(bs)
}
