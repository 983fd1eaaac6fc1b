// Package config resolves viper configuration into the typed values the
// engine and CLI consume.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// ExpandPath resolves a leading ~ and any $VAR environment references in a
// user-supplied path. Unresolvable pieces are left as written.
func ExpandPath(path string) string {
	switch {
	case path == "":
		return path
	case path == "~":
		if home, err := os.UserHomeDir(); err == nil {
			path = home
		}
	case strings.HasPrefix(path, "~/"):
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, strings.TrimPrefix(path, "~/"))
		}
	}
	return os.ExpandEnv(path)
}

// DatabasePath resolves the sqlite database location: the database.path
// config key if set, otherwise a per-user data directory.
func DatabasePath() string {
	if p := viper.GetString("database.path"); p != "" {
		return ExpandPath(p)
	}
	return ExpandPath("$HOME/.local/share/ledgermatch/ledgermatch.db")
}
