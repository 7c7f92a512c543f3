package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// PathEnv names an explicit config file and skips the search by environment.
const PathEnv = "SMARTDESK_CONFIG"

// GetEnv returns the ENV variable, "local" when unset.
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// Load reads <env>.yaml, or the file named by SMARTDESK_CONFIG when set.
func Load(env string) (Config, error) {
	if p := os.Getenv(PathEnv); p != "" {
		return LoadFile(p)
	}
	p, err := locate(env + ".yaml")
	if err != nil {
		return Config{}, err
	}
	return LoadFile(p)
}

// LoadFile reads configuration from path. A relative knowledge.file that does
// not exist from the working directory is taken relative to the config file.
func LoadFile(path string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	if kf := cfg.Knowledge.File; kf != "" && !filepath.IsAbs(kf) && !fileExists(kf) {
		cfg.Knowledge.File = filepath.Join(filepath.Dir(path), kf)
	}
	return cfg, nil
}

// Parse expands environment references in data, decodes it, applies
// defaults and validates.
func Parse(data []byte) (Config, error) {
	data, err := expandEnv(data)
	if err != nil {
		return Config{}, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// searchDirs lists where config files live: ./config, next to the binary,
// then the module root for tests run from a package directory.
func searchDirs() []string {
	dirs := []string{"config"}
	if exe, err := os.Executable(); err == nil {
		dirs = append(dirs, filepath.Join(filepath.Dir(exe), "config"))
	}
	if _, src, _, ok := runtime.Caller(0); ok {
		root := filepath.Dir(filepath.Dir(filepath.Dir(src))) // internal/config
		dirs = append(dirs, filepath.Join(root, "config"))
	}
	return dirs
}

func locate(name string) (string, error) {
	dirs := searchDirs()
	for _, dir := range dirs {
		if p := filepath.Join(dir, name); fileExists(p) {
			return p, nil
		}
	}
	return "", fmt.Errorf("config %s not found in %s", name, strings.Join(dirs, ", "))
}

func fileExists(path string) bool {
	st, err := os.Stat(path)
	return err == nil && !st.IsDir()
}

var envRef = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?:(:-|:\?)([^}]*))?\}`)

// expandEnv substitutes ${VAR}, ${VAR:-default} and ${VAR:?message}.
// An empty variable counts as unset. Every unset ${VAR:?} is reported.
func expandEnv(data []byte) ([]byte, error) {
	var missing []error
	out := envRef.ReplaceAllFunc(data, func(ref []byte) []byte {
		m := envRef.FindSubmatch(ref)
		name, op, arg := string(m[1]), string(m[2]), string(m[3])
		if v := os.Getenv(name); v != "" {
			return []byte(v)
		}
		switch op {
		case ":-":
			return []byte(arg)
		case ":?":
			if arg == "" {
				arg = "required"
			}
			missing = append(missing, fmt.Errorf("${%s}: %s", name, arg))
		}
		return nil
	})
	if len(missing) > 0 {
		return nil, fmt.Errorf("environment: %w", errors.Join(missing...))
	}
	return out, nil
}
