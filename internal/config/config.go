package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/torfstack/cdnfs/internal/hash"
	"github.com/torfstack/cdnfs/internal/logging"
	"github.com/torfstack/cdnfs/internal/util"
)

var (
	configFilePath  = filepath.Join(util.ConfigDir, "config.toml")
	defaultDebounce = 2 * time.Second
)

// ErrInvalid marks configuration problems that must be fixed before any
// snapshot operation is attempted.
var ErrInvalid = errors.New("config: invalid configuration")

type Config struct {
	// LocalDir is the directory tree to snapshot.
	LocalDir string `toml:"local_dir"`

	// GCSProject, GCSBucket select the Google Cloud Storage backend.
	// GCSBucketUniform must be set for buckets with uniform bucket-level
	// access control, which reject per-object ACLs.
	GCSProject       string `toml:"gcs_project"`
	GCSBucket        string `toml:"gcs_bucket"`
	GCSBucketUniform bool   `toml:"gcs_bucket_uniform"`

	// StoreDir selects the local directory backend instead of a bucket.
	StoreDir string `toml:"store_dir"`

	// HashBits is the number of bits of SHA-256 used for blob names.
	HashBits int `toml:"hash_bits"`

	// PublicACL requests a public-read ACL on every uploaded object.
	PublicACL bool `toml:"public_acl"`

	// Exclusions are exact file names skipped during a push.
	Exclusions []string `toml:"exclusions"`

	// GzipTypes are file extensions gzip-compressed during upload.
	GzipTypes []string `toml:"gzip_types"`

	// CacheControl is set on every uploaded object.
	CacheControl string `toml:"cache_control"`

	// ContentTypes maps file extensions to MIME types. Unlisted
	// extensions upload as application/octet-stream.
	ContentTypes map[string]string `toml:"content_types"`

	// Debounce is the quiet period before watch mode pushes a snapshot.
	Debounce time.Duration `toml:"debounce"`
}

// SetFilePath overrides the default config file location, e.g. from a
// --config flag. An empty path keeps the current location.
func SetFilePath(path string) {
	if path != "" {
		configFilePath = path
	}
}

func Get() (Config, error) {
	return get(false)
}

func GetInteractive() (Config, error) {
	return get(true)
}

func get(interactive bool) (Config, error) {
	c := Config{}
	f, err := os.Open(configFilePath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return initConfig(interactive)
	case err != nil:
		return c, fmt.Errorf("could not open config file for reading '%s': %s", configFilePath, err)
	}

	_, err = toml.NewDecoder(f).Decode(&c)
	if err != nil {
		return c, fmt.Errorf("could not decode config file '%s': %s", configFilePath, err)
	}
	c.applyDefaults()
	return c, nil
}

// Validate checks the settings every snapshot operation depends on. It runs
// before any store is constructed so misconfiguration never reaches an
// upload attempt.
func (c *Config) Validate() error {
	if err := hash.ValidBits(c.HashBits); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalid, err)
	}
	if c.GCSBucket == "" && c.StoreDir == "" {
		return fmt.Errorf("%w: configure either gcs_bucket or store_dir", ErrInvalid)
	}
	if c.GCSBucket != "" && c.StoreDir != "" {
		return fmt.Errorf("%w: gcs_bucket and store_dir are mutually exclusive", ErrInvalid)
	}
	if c.PublicACL && c.GCSBucketUniform {
		return fmt.Errorf("%w: cannot set a public ACL on a bucket with uniform access control", ErrInvalid)
	}
	return nil
}

// Excluded reports whether a file name is excluded from pushes. Only exact
// name matches are supported.
func (c *Config) Excluded(name string) bool {
	for _, excl := range c.Exclusions {
		if name == excl {
			return true
		}
	}
	return false
}

// ContentTypeFor returns the MIME type recorded for a file name's extension.
func (c *Config) ContentTypeFor(name string) string {
	if ct, ok := c.ContentTypes[strings.ToLower(filepath.Ext(name))]; ok {
		return ct
	}
	return "application/octet-stream"
}

// Compressed reports whether files with this name's extension are
// gzip-compressed during upload.
func (c *Config) Compressed(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, gz := range c.GzipTypes {
		if ext == gz {
			return true
		}
	}
	return false
}

func initConfig(interactive bool) (Config, error) {
	c := initialConfig()
	if interactive {
		err := guidedInitialization(&c)
		if err != nil {
			return c, fmt.Errorf("could not initialize config interactively: %w", err)
		}
	}
	return c, c.persist()
}

func (c *Config) persist() error {
	f, err := util.OpenWithParents(configFilePath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("could not open config file for writing '%s': %w", configFilePath, err)
	}

	logging.Debugf("Persisting config file to '%s'", configFilePath)
	err = toml.NewEncoder(f).Encode(c)
	if err != nil {
		return fmt.Errorf("could not persist config to file '%s': %w", configFilePath, err)
	}

	return nil
}

func (c *Config) applyDefaults() {
	if c.HashBits == 0 {
		c.HashBits = hash.DefaultBits
	}
	if c.CacheControl == "" {
		c.CacheControl = defaultCacheControl
	}
	if c.ContentTypes == nil {
		c.ContentTypes = defaultContentTypes()
	}
	if c.Debounce == 0 {
		c.Debounce = defaultDebounce
	}
}

func initialConfig() Config {
	c := Config{
		HashBits:     hash.DefaultBits,
		Exclusions:   []string{".DS_Store"},
		GzipTypes:    defaultGzipTypes(),
		CacheControl: defaultCacheControl,
		ContentTypes: defaultContentTypes(),
		Debounce:     defaultDebounce,
	}
	return c
}
