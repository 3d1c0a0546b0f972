package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// FileEnv names the environment variable holding an optional config file.
// File values sit between the defaults and the environment.
const FileEnv = "DASH_CONFIG_FILE"

const errUnsupportedFile = "unsupported config file type %q (want .yaml, .yml, .json or .toml)"

// fileLoader loads a YAML, JSON or TOML file using the nested key layout
// (api.location, logs.page_size, ...). It can be mocked in tests.
var fileLoader = func(k *koanf.Koanf, path string) error {
	parser, err := parserFor(path)
	if err != nil {
		return err
	}
	return k.Load(file.Provider(path), parser)
}

func parserFor(path string) (koanf.Parser, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		return yaml.Parser(), nil
	case ".json":
		return json.Parser(), nil
	case ".toml":
		return toml.Parser(), nil
	default:
		return nil, fmt.Errorf(errUnsupportedFile, ext)
	}
}

func configFile() string {
	return strings.TrimSpace(os.Getenv(FileEnv))
}
