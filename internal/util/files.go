package util

import (
	"os"
	"path/filepath"
)

// ConfigDir is where cdnfs keeps its config file and snapshot ledger.
var ConfigDir = filepath.Join(HomeDir(), ".config", "cdnfs")

func HomeDir() string {
	h, _ := os.UserHomeDir()
	return h
}

func OpenWithParents(path string, flag int, perm os.FileMode) (*os.File, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	return os.OpenFile(path, flag, perm)
}

func WriteFile(path string, data []byte) error {
	f, err := OpenWithParents(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	if _, err = f.Write(data); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
