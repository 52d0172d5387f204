package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/morikuni/failure"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// DecodeFile unmarshals a yaml, toml or json file into v, picking the format
// from the extension.
func DecodeFile(path string, v interface{}) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return failure.MarkUnexpected(err, failure.Context{"path": path})
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(content, v)
	case ".toml":
		err = toml.Unmarshal(content, v)
	case ".json":
		err = json.Unmarshal(content, v)
	default:
		return fmt.Errorf("unsupported config format: %s", filepath.Ext(path))
	}
	if err != nil {
		return failure.Wrap(err, failure.Context{"path": path})
	}
	return nil
}
