package pyforge

import (
	"bufio"
	"os"
	"strings"
)

// Config holds everything read from /etc/pyforge.conf plus PYFORGE_* and
// MIRROR_S3_* environment overrides. It is built once in Main and passed
// down; the pipeline never mutates it.
type Config struct {
	Values        map[string]string
	DefaultPython string // interpreter probed for inherited configure options
	ReleaseBase   string // base URL for source archives
}

// Load /etc/pyforge.conf and apply defaults
func loadConfig(path string) (*Config, error) {
	cfg := &Config{Values: make(map[string]string)}

	// Attempt to read the file
	file, err := os.Open(path)
	if err == nil {
		defer file.Close()
		scanner := bufio.NewScanner(file)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			parts := strings.SplitN(line, "=", 2)
			if len(parts) != 2 {
				continue
			}
			key := strings.TrimSpace(parts[0])
			val := strings.TrimSpace(parts[1])
			val = strings.Trim(val, `"'`)
			cfg.Values[key] = val
		}
		if err := scanner.Err(); err != nil {
			return cfg, err
		}
	}

	// Merge PYFORGE_* env overrides
	mergeEnvOverrides(cfg)

	// Ensure TMPDIR has a default
	if tmp := cfg.Values["TMPDIR"]; tmp == "" {
		cfg.Values["TMPDIR"] = "/tmp"
	}

	return cfg, nil
}

// Merge PYFORGE_* and MIRROR_S3_* env overrides
func mergeEnvOverrides(cfg *Config) {
	for _, env := range os.Environ() {
		if strings.HasPrefix(env, "PYFORGE_") || strings.HasPrefix(env, "MIRROR_S3_") {
			parts := strings.SplitN(env, "=", 2)
			if len(parts) == 2 {
				cfg.Values[parts[0]] = parts[1]
			}
		}
	}

	// Also import TMPDIR from the environment if present, without overwriting
	// an explicit config file value
	if tmp := os.Getenv("TMPDIR"); tmp != "" {
		if _, exists := cfg.Values["TMPDIR"]; !exists {
			cfg.Values["TMPDIR"] = tmp
		}
	}
}

func initConfig(cfg *Config) {
	tmpDir = cfg.Values["TMPDIR"]
	if tmpDir == "" {
		tmpDir = "/tmp"
	}

	Debug = cfg.Values["PYFORGE_DEBUG"] == "1"

	cfg.DefaultPython = cfg.Values["PYFORGE_PYTHON"]
	if cfg.DefaultPython == "" {
		cfg.DefaultPython = "python3"
	}

	// Source archives come from python.org unless a mirror is configured
	cfg.ReleaseBase = "https://www.python.org/ftp/python"
	if mirror := cfg.Values["PYFORGE_MIRROR"]; mirror != "" {
		cfg.ReleaseBase = strings.TrimRight(mirror, "/")
		debugf("=> Using release mirror from config: %s\n", cfg.ReleaseBase)
	}
}
