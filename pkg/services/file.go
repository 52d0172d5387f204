package services

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/morikuni/failure"
)

const xmlExt = ".xml"

// SafeJoin joins a record name under root. It returns "" when the name could
// escape the directory.
func SafeJoin(root, sub, name string) string {
	if name == "" || strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") {
		return ""
	}
	return filepath.Join(root, sub, name)
}

// listXML returns the .xml files of dir sorted by name. A missing directory
// yields no files.
func listXML(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, failure.MarkUnexpected(err, failure.Context{"dir": dir})
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), xmlExt) {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}
