package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// resetFlags restores default flag values; cobra keeps them across Execute calls.
func resetFlags(cmd *cobra.Command) {
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if f.Changed {
			_ = f.Value.Set(f.DefValue)
			f.Changed = false
		}
	})
	for _, sub := range cmd.Commands() {
		resetFlags(sub)
	}
}

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()

	resetFlags(rootCmd)
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := runCommand(t, "version")
	require.NoError(t, err)
	assert.NotEmpty(t, strings.TrimSpace(out))
}

func TestVersionCommandJSON(t *testing.T) {
	out, err := runCommand(t, "version", "--format", "json")
	require.NoError(t, err)
	assert.Contains(t, out, `"version"`)
	assert.Contains(t, out, `"commit"`)
}

func TestVersionCommandBadFormat(t *testing.T) {
	_, err := runCommand(t, "version", "--format", "xml")
	assert.Error(t, err)
}

func TestCompileCommand(t *testing.T) {
	t.Chdir(t.TempDir())

	src := filepath.Join(".", "page.ncl")
	require.NoError(t, os.WriteFile(src, []byte(`<n:view title="Home"><h1>{site}</h1></n:view>`), 0o644))

	out, err := runCommand(t, "compile", src)
	require.NoError(t, err)
	assert.Contains(t, out, "<!DOCTYPE html>")
	assert.Contains(t, out, "<title>Home</title>")
	assert.Contains(t, out, "<h1>Nucleus Demo</h1>")
}

func TestCompileCommandToFile(t *testing.T) {
	t.Chdir(t.TempDir())

	require.NoError(t, os.WriteFile("page.ncl", []byte(`<p>{user.name}</p>`), 0o644))

	_, err := runCommand(t, "compile", "page.ncl", "-o", "page.html")
	require.NoError(t, err)

	raw, err := os.ReadFile("page.html")
	require.NoError(t, err)
	assert.Contains(t, string(raw), "<p>John Doe</p>")
}

func TestCompileCommandWithData(t *testing.T) {
	t.Chdir(t.TempDir())

	require.NoError(t, os.WriteFile("page.ncl", []byte(`<p>{site}</p>`), 0o644))
	require.NoError(t, os.WriteFile("ctx.json", []byte(`{"site":"Shop"}`), 0o644))

	out, err := runCommand(t, "compile", "page.ncl", "--data", "ctx.json")
	require.NoError(t, err)
	assert.Contains(t, out, "<p>Shop</p>")
}

func TestCompileCommandWithFragments(t *testing.T) {
	t.Chdir(t.TempDir())

	require.NoError(t, os.MkdirAll("fragments", 0o755))
	require.NoError(t, os.WriteFile(filepath.Join("fragments", "nav.ncl"), []byte(`<nav>Links</nav>`), 0o644))
	require.NoError(t, os.WriteFile("page.ncl", []byte(`<n:include src="nav"/>`), 0o644))

	out, err := runCommand(t, "compile", "page.ncl", "--fragments", "fragments")
	require.NoError(t, err)
	assert.Contains(t, out, "<nav>Links</nav>")
}

func TestCompileCommandMissingFile(t *testing.T) {
	t.Chdir(t.TempDir())

	_, err := runCommand(t, "compile", "absent.ncl")
	assert.Error(t, err)
}
