package loader

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"
)

// DefaultDirs are the configuration directories in decreasing precedence.
var DefaultDirs = []string{
	"/etc/tmpfiles.d",
	"/run/tmpfiles.d",
	"/usr/local/lib/tmpfiles.d",
	"/usr/lib/tmpfiles.d",
}

// Discover lists the *.conf files found in dirs. A file in an earlier
// directory masks any file with the same name in a later one. The result is
// ordered by file name. Missing directories are ignored.
func Discover(fs afero.Fs, dirs []string) ([]string, error) {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	byName := make(map[string]string)
	for _, dir := range dirs {
		infos, err := afero.ReadDir(fs, dir)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("read config dir %s: %w", dir, err)
		}
		for _, fi := range infos {
			name := fi.Name()
			if fi.IsDir() || !strings.HasSuffix(name, ".conf") {
				continue
			}
			if _, masked := byName[name]; masked {
				continue
			}
			byName[name] = filepath.Join(dir, name)
		}
	}

	names := make([]string, 0, len(byName))
	for name := range byName {
		names = append(names, name)
	}
	sort.Strings(names)

	paths := make([]string, len(names))
	for i, name := range names {
		paths[i] = byName[name]
	}
	return paths, nil
}
