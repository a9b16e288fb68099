package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGet(t *testing.T) {
	tests := []struct {
		name string
		want func(*testing.T)
	}{
		{
			name: "config file initially does not exist",
			want: func(t *testing.T) {
				_, err := os.Open(configFilePath)
				require.ErrorIs(t, err, os.ErrNotExist)
			},
		},
		{
			name: "creates config file with defaults",
			want: func(t *testing.T) {
				cfg, err := Get()
				require.NoError(t, err)

				_, err = os.Stat(configFilePath)
				require.NoError(t, err)
				require.Equal(t, 80, cfg.HashBits)
				require.Equal(t, []string{".DS_Store"}, cfg.Exclusions)
				require.Equal(t, "public,max-age=31536000", cfg.CacheControl)
				require.Contains(t, cfg.GzipTypes, ".html")
			},
		},
		{
			name: "config exists",
			want: func(t *testing.T) {
				path := t.TempDir()
				require.NoError(t, (&Config{LocalDir: path, StoreDir: "/tmp/blobs", HashBits: 64}).persist())

				cfg, err := Get()
				require.NoError(t, err)
				require.Equal(t, path, cfg.LocalDir)
				require.Equal(t, "/tmp/blobs", cfg.StoreDir)
				require.Equal(t, 64, cfg.HashBits)
			},
		},
		{
			name: "missing fields get defaults",
			want: func(t *testing.T) {
				require.NoError(t, (&Config{LocalDir: "some/dir"}).persist())

				cfg, err := Get()
				require.NoError(t, err)
				require.Equal(t, 80, cfg.HashBits)
				require.Equal(t, "application/octet-stream", cfg.ContentTypeFor("file.unknown"))
				require.Equal(t, "image/png", cfg.ContentTypeFor("logo.PNG"))
			},
		},
	}
	for _, tt := range tests {
		t.Run(
			tt.name, func(t *testing.T) {
				tempDirSetup(t)
				tt.want(t)
			},
		)
	}
}

func TestValidate(t *testing.T) {
	valid := Config{LocalDir: "x", StoreDir: "y", HashBits: 80}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "hash bits not a multiple of 4", mutate: func(c *Config) { c.HashBits = 81 }, wantErr: true},
		{name: "hash bits zero", mutate: func(c *Config) { c.HashBits = 0 }, wantErr: true},
		{name: "hash bits too large", mutate: func(c *Config) { c.HashBits = 512 }, wantErr: true},
		{name: "no backend", mutate: func(c *Config) { c.StoreDir = "" }, wantErr: true},
		{
			name: "two backends",
			mutate: func(c *Config) {
				c.GCSBucket = "bucket"
			},
			wantErr: true,
		},
		{
			name: "public acl on uniform bucket",
			mutate: func(c *Config) {
				c.StoreDir = ""
				c.GCSBucket = "bucket"
				c.GCSBucketUniform = true
				c.PublicACL = true
			},
			wantErr: true,
		},
		{
			name: "public acl on non-uniform bucket",
			mutate: func(c *Config) {
				c.StoreDir = ""
				c.GCSBucket = "bucket"
				c.PublicACL = true
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalid)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestSetFilePath(t *testing.T) {
	tempDirSetup(t)
	other := filepath.Join(t.TempDir(), "alternative.toml")

	SetFilePath(other)
	require.NoError(t, (&Config{LocalDir: "alt/dir", StoreDir: "alt/store"}).persist())

	cfg, err := Get()
	require.NoError(t, err)
	require.Equal(t, "alt/dir", cfg.LocalDir)

	// An empty override keeps the current location.
	SetFilePath("")
	cfg, err = Get()
	require.NoError(t, err)
	require.Equal(t, "alt/store", cfg.StoreDir)
}

func TestHelpers(t *testing.T) {
	cfg := initialConfig()

	require.True(t, cfg.Excluded(".DS_Store"))
	require.False(t, cfg.Excluded("index.html"))

	require.True(t, cfg.Compressed("site/index.html"))
	require.False(t, cfg.Compressed("assets/logo.png"))

	require.Equal(t, "text/html; charset=utf-8", cfg.ContentTypeFor("index.html"))
	require.Equal(t, "application/octet-stream", cfg.ContentTypeFor("blob.dat"))
}

func tempDirSetup(t *testing.T) {
	tempDir := t.TempDir()
	configFilePath = filepath.Join(tempDir, "config.toml")
}
