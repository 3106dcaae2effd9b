package common

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterCommonFlags(t *testing.T) {
	fs := pflag.NewFlagSet("ledger", pflag.ContinueOnError)
	flags := RegisterCommonFlags(fs)

	require.NoError(t, fs.Parse([]string{"-a", "trader@example.com", "--data-dir", "/tmp/x", "--no-emojis"}))
	assert.Equal(t, "trader@example.com", flags.Account)
	assert.Equal(t, "/tmp/x", flags.DataDir)
	assert.Equal(t, ".env", flags.EnvFile)
	assert.True(t, flags.NoEmojis)
}

func TestFlagValidator(t *testing.T) {
	v := NewFlagValidator().
		ValidateChoice("outcome", "win", []string{"win", "loss", "breakeven"}).
		ValidateFinite("pnl", 12.5).
		ValidateRequired("account", "trader")
	assert.False(t, v.HasErrors())
	assert.NoError(t, v.GetError())

	v = NewFlagValidator().
		ValidateChoice("outcome", "draw", []string{"win", "loss", "breakeven"}).
		ValidateFinite("pnl", math.Inf(1)).
		ValidateFloat("risk", 150, 0, 100).
		ValidateRequired("account", " ")
	assert.Len(t, v.GetErrors(), 4)
	assert.Contains(t, v.GetError().Error(), "outcome must be one of [win, loss, breakeven], got: draw")
}

func TestConsoleSilentAndPlain(t *testing.T) {
	var out, errOut bytes.Buffer
	c := NewConsole(&out, &errOut)
	SetupConsole(c, &CommonFlags{NoEmojis: true, Silent: true})

	c.Info("hidden")
	c.Success("hidden")
	c.Error("shown %d", 1)

	assert.Empty(t, out.String())
	assert.Equal(t, "[ERROR] shown 1\n", errOut.String())
}

func TestEnvLoaderKeepsExistingValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("LEDGER_TEST_FROM_FILE=file\nLEDGER_TEST_PRESET=file\n"), 0o644))
	t.Setenv("LEDGER_TEST_PRESET", "env")
	t.Setenv("LEDGER_TEST_FROM_FILE", "")
	os.Unsetenv("LEDGER_TEST_FROM_FILE")

	loader := NewEnvLoader(NewConsole(&bytes.Buffer{}, &bytes.Buffer{}))
	require.NoError(t, loader.LoadEnvFile(path))

	assert.Equal(t, "file", os.Getenv("LEDGER_TEST_FROM_FILE"))
	assert.Equal(t, "env", os.Getenv("LEDGER_TEST_PRESET"))

	require.NoError(t, loader.LoadEnvFile(filepath.Join(t.TempDir(), "missing.env")))
}

func TestFormatCurrency(t *testing.T) {
	assert.Equal(t, "$1250.50", FormatCurrency(1250.5))
	assert.Equal(t, "-$250.00", FormatCurrency(-250))
}

func TestFlagValidatorFilesAndCustomErrors(t *testing.T) {
	existing := filepath.Join(t.TempDir(), "profile.json")
	require.NoError(t, os.WriteFile(existing, []byte("{}"), 0o644))

	assert.NoError(t, NewFlagValidator().ValidateFile("profile", "", false).GetError())
	assert.NoError(t, NewFlagValidator().ValidateFile("profile", existing, true).GetError())

	err := NewFlagValidator().ValidateFile("profile", "", true).GetError()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "profile is required")

	v := NewFlagValidator().
		ValidateFile("profile", filepath.Join(t.TempDir(), "missing.json"), false).
		AddError(`unknown outcome "draw"`)
	require.True(t, v.HasErrors())
	assert.Len(t, v.GetErrors(), 2)
	assert.Contains(t, v.GetError().Error(), "profile file does not exist")
}
