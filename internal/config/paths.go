package config

import (
	"os"
	"path/filepath"
)

func defaultSessionDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "portfolio-client")
	}
	return filepath.Join(os.TempDir(), "portfolio-client")
}
