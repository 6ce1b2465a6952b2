package root_test

import (
	"context"
	"os"
	"testing"

	"fjacquet/expense-bot/cmd/root"
	"fjacquet/expense-bot/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "expense-bot", root.Cmd.Use)
	assert.Contains(t, root.Cmd.Short, "records expenses")
	assert.NotNil(t, root.Cmd.Run)
	assert.NotNil(t, root.Cmd.PersistentPreRunE)
}

func TestRootCommand_Flags(t *testing.T) {
	if root.Cmd.PersistentFlags().Lookup("user") == nil {
		root.Init()
	}

	userFlag := root.Cmd.PersistentFlags().Lookup("user")
	require.NotNil(t, userFlag)
	assert.Equal(t, "u", userFlag.Shorthand)

	dataFlag := root.Cmd.PersistentFlags().Lookup("data-dir")
	require.NotNil(t, dataFlag)
	assert.Equal(t, "d", dataFlag.Shorthand)
}

func TestRequireUser(t *testing.T) {
	prev := root.SharedFlags.User
	t.Cleanup(func() { root.SharedFlags.User = prev })

	root.SharedFlags.User = ""
	_, err := root.RequireUser()
	assert.Error(t, err)

	root.SharedFlags.User = "alice"
	user, err := root.RequireUser()
	require.NoError(t, err)
	assert.Equal(t, "alice", user)
}

func TestLoadConfig_DataDirOverride(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("HOME", t.TempDir())
	dataDir := t.TempDir()

	prev := root.SharedFlags
	t.Cleanup(func() { root.SharedFlags = prev })
	root.SharedFlags.DataDir = dataDir

	require.NoError(t, root.LoadConfig())
	require.NotNil(t, root.AppConfig)
	assert.Equal(t, dataDir, root.AppConfig.Data.Directory)
	assert.Equal(t, config.MirrorNone, root.AppConfig.Mirror.Backend)

	c, err := root.NewContainer(context.Background())
	require.NoError(t, err)
	root.CloseContainer(c)
}

// chdir changes the working directory for the duration of the test
// (equivalent of testing.T.Chdir, which needs Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}
