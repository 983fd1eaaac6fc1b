package config

import (
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandPath(t *testing.T) {
	t.Setenv("LEDGERMATCH_TEST_DIR", "/srv/data")

	home, err := filepath.Abs(t.TempDir())
	require.NoError(t, err)
	t.Setenv("HOME", home)

	assert.Equal(t, "", ExpandPath(""))
	assert.Equal(t, "/srv/data/db.sqlite", ExpandPath("$LEDGERMATCH_TEST_DIR/db.sqlite"))
	assert.Equal(t, filepath.Join(home, "db.sqlite"), ExpandPath("~/db.sqlite"))
	assert.Equal(t, home, ExpandPath("~"))
	assert.Equal(t, "/plain/path", ExpandPath("/plain/path"))
}

func TestDatabasePath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	viper.Set("database.path", "")
	t.Cleanup(func() { viper.Set("database.path", "") })

	assert.Equal(t,
		filepath.Join(home, ".local/share/ledgermatch/ledgermatch.db"),
		DatabasePath())

	viper.Set("database.path", "$HOME/custom.db")
	assert.Equal(t, filepath.Join(home, "custom.db"), DatabasePath())
}
