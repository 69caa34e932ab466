package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBindFlagsLoadViper(t *testing.T) {
	defer viper.Reset()

	home := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(home, "config"), 0700))
	require.NoError(t, os.WriteFile(
		filepath.Join(home, "config", "config.toml"),
		[]byte("[bridge]\nregistry-id = \"0x5\"\n"),
		0600,
	))

	var got string
	cmd := &cobra.Command{
		Use: "test",
		RunE: func(cmd *cobra.Command, args []string) error {
			got = viper.GetString("bridge.registry-id")
			return nil
		},
	}
	exec := PrepareBaseCmd(cmd, "LRTEST", home)
	exec.Exit = func(code int) { t.Fatalf("unexpected exit %d", code) }
	cmd.SetArgs([]string{"--home", home})

	InitEnv("LRTEST")
	require.NoError(t, exec.Execute())
	assert.Equal(t, "0x5", got)
}

func TestEnvOverridesConfig(t *testing.T) {
	defer viper.Reset()

	t.Setenv("LRTEST_BRIDGE_REGISTRY_ID", "0x7")
	InitEnv("lrtest")
	assert.Equal(t, "0x7", viper.GetString("bridge.registry-id"))
}

func TestExecutorExitsOnError(t *testing.T) {
	defer viper.Reset()

	cmd := &cobra.Command{
		Use: "fail",
		RunE: func(cmd *cobra.Command, args []string) error {
			return os.ErrInvalid
		},
	}
	exec := PrepareBaseCmd(cmd, "LRTEST", t.TempDir())
	var code int
	exec.Exit = func(c int) { code = c }
	cmd.SetArgs([]string{})

	require.Error(t, exec.Execute())
	assert.Equal(t, 1, code)
}
