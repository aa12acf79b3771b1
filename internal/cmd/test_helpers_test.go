package cmd

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// isolate points config, data and the database at a temp dir and turns off
// everything that depends on the terminal or the network.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(dir, "data"))
	t.Setenv("XDG_CACHE_HOME", filepath.Join(dir, "cache"))
	t.Setenv("WARDROBE_DB", filepath.Join(dir, "wardrobe.db"))
	t.Setenv("WARDROBE_WEATHER_API_KEY", "")
	t.Setenv("WARDROBE_CITY", "")
	t.Setenv("WARDROBE_LOG_LEVEL", "")
	t.Setenv("NO_COLOR", "1")
	t.Setenv("COLUMNS", "200")
	return dir
}

// resetFlags restores every flag of c and its children to its default so
// values do not leak from one invocation into the next.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

type result struct {
	stdout string
	stderr string
	err    error
}

// run executes the CLI with args and returns what it printed.
func run(t *testing.T, stdin string, args ...string) result {
	t.Helper()
	resetFlags(rootCmd)

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetIn(nil)
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.Execute()
	return result{stdout: out.String(), stderr: errOut.String(), err: err}
}

// mustRun is run that fails the test on a command error.
func mustRun(t *testing.T, args ...string) string {
	t.Helper()
	r := run(t, "", args...)
	if r.err != nil {
		t.Fatalf("wardrobe %s: %v\nstderr: %s", strings.Join(args, " "), r.err, r.stderr)
	}
	return r.stdout
}
