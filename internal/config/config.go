// Package config loads spkserve settings from defaults, a YAML file, and the
// environment.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/meigma/spk"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "SPK_"

// Default values.
const (
	DefaultListen        = "127.0.0.1:8080"
	DefaultFetchMaxBytes = 256 << 20
	DefaultMaxEntries    = 1 << 20
)

// Config holds server settings.
type Config struct {
	Listen        string            `yaml:"listen"`
	Upstream      string            `yaml:"upstream"`
	Extension     string            `yaml:"extension"`
	CacheDir      string            `yaml:"cache_dir"`
	CacheMaxBytes int64             `yaml:"cache_max_bytes"`
	FetchMaxBytes int64             `yaml:"fetch_max_bytes"`
	MaxEntries    uint32            `yaml:"max_entries"`
	ContentTypes  map[string]string `yaml:"content_types"`
	Headers       map[string]string `yaml:"headers"`
	LogLevel      slog.Level        `yaml:"log_level"`
	Preload       []string          `yaml:"preload"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Listen:        DefaultListen,
		Extension:     spk.Extension,
		FetchMaxBytes: DefaultFetchMaxBytes,
		MaxEntries:    DefaultMaxEntries,
		LogLevel:      slog.LevelInfo,
	}
}

// Load returns the defaults overlaid with the YAML file at path (if path is
// non-empty) and then with SPK_* environment variables.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return Config{}, err
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadDotEnv loads variables from the given .env files into the process
// environment without overriding variables that are already set. Missing
// files are skipped. With no arguments it reads ".env".
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

func (c *Config) loadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil {
		// An empty file decodes to io.EOF and leaves the defaults in place.
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(EnvPrefix + name); ok {
			*dst = v
		}
	}
	str("LISTEN", &c.Listen)
	str("UPSTREAM", &c.Upstream)
	str("EXTENSION", &c.Extension)
	str("CACHE_DIR", &c.CacheDir)

	for name, dst := range map[string]*int64{
		"CACHE_MAX_BYTES": &c.CacheMaxBytes,
		"FETCH_MAX_BYTES": &c.FetchMaxBytes,
	} {
		v, ok := lookup(EnvPrefix + name)
		if !ok {
			continue
		}
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, name, err)
		}
		*dst = n
	}

	if v, ok := lookup(EnvPrefix + "MAX_ENTRIES"); ok {
		n, err := strconv.ParseUint(strings.TrimSpace(v), 10, 32)
		if err != nil {
			return fmt.Errorf("%sMAX_ENTRIES: %w", EnvPrefix, err)
		}
		c.MaxEntries = uint32(n)
	}
	if v, ok := lookup(EnvPrefix + "LOG_LEVEL"); ok {
		if err := c.LogLevel.UnmarshalText([]byte(strings.TrimSpace(v))); err != nil {
			return fmt.Errorf("%sLOG_LEVEL: %w", EnvPrefix, err)
		}
	}
	if v, ok := lookup(EnvPrefix + "PRELOAD"); ok {
		c.Preload = splitList(v)
	}
	return nil
}

func splitList(v string) []string {
	var out []string
	for item := range strings.SplitSeq(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// Validate reports settings that cannot be served.
func (c Config) Validate() error {
	var errs []error
	if c.Listen == "" {
		errs = append(errs, errors.New("listen address is required"))
	}
	if c.Upstream == "" {
		errs = append(errs, errors.New("upstream is required"))
	} else if u, err := url.Parse(c.Upstream); err != nil {
		errs = append(errs, fmt.Errorf("upstream: %w", err))
	} else {
		switch u.Scheme {
		case "http", "https", "file":
		default:
			errs = append(errs, fmt.Errorf("upstream: unsupported scheme %q", u.Scheme))
		}
	}
	if strings.Trim(c.Extension, ".") == "" {
		errs = append(errs, errors.New("extension must not be empty"))
	}
	if c.CacheMaxBytes < 0 {
		errs = append(errs, errors.New("cache_max_bytes must not be negative"))
	}
	if c.FetchMaxBytes < 0 {
		errs = append(errs, errors.New("fetch_max_bytes must not be negative"))
	}
	return errors.Join(errs...)
}
