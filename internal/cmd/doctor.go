package cmd

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/runger/wardrobe/internal/config"
	outfitsdb "github.com/runger/wardrobe/internal/outfits/db"
)

var doctorCmd = &cobra.Command{
	Use:     "doctor",
	Short:   "Check the configuration and the wardrobe database",
	GroupID: groupSetup,
	Long: `Run diagnostic checks on your wardrobe setup.

This command checks:
- Configuration validity
- Whether another wardrobe process holds the database
- Database connectivity, schema and integrity
- Weather settings

Examples:
  wardrobe doctor`,
	Args: cobra.NoArgs,
	RunE: runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

type checkResult struct {
	name    string
	status  string // "ok", "warn", "error"
	message string
}

func runDoctor(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%swardrobe doctor%s\n", colorBold, colorReset)
	fmt.Fprintln(out, strings.Repeat("-", 40))

	results := doctorChecks(cmd.Context())
	hasErrors, hasWarnings := printChecks(out, results)

	fmt.Fprintln(out)
	if hasErrors {
		fmt.Fprintf(out, "%sSome checks failed. Please fix the errors above.%s\n", colorRed, colorReset)
		return fmt.Errorf("doctor found errors")
	}
	if hasWarnings {
		fmt.Fprintf(out, "%sAll critical checks passed, but there are warnings.%s\n", colorYellow, colorReset)
	} else {
		fmt.Fprintf(out, "%sAll checks passed!%s\n", colorGreen, colorReset)
	}
	return nil
}

func doctorChecks(ctx context.Context) []checkResult {
	cfg, err := loadConfig()
	if err != nil {
		return []checkResult{{name: "Configuration", status: "error", message: err.Error()}}
	}
	results := []checkResult{{name: "Configuration", status: "ok", message: config.DefaultPaths().ConfigFile()}}

	dbPath := cfg.DatabasePath()
	lock := checkDatabaseLock(filepath.Dir(dbPath))
	results = append(results, lock)
	results = append(results, checkDatabase(ctx, dbPath, lock.status != "ok")...)
	results = append(results, checkWeatherSettings(cfg))
	return results
}

// checkDatabaseLock reports a writer lock held by another process.
func checkDatabaseLock(dbDir string) checkResult {
	if !outfitsdb.IsLocked(dbDir) {
		return checkResult{name: "Database lock", status: "ok", message: "free"}
	}
	msg := "held by another wardrobe process"
	if pid := outfitsdb.GetLockHolderPID(dbDir); pid > 0 {
		msg = fmt.Sprintf("held by pid %d", pid)
	}
	return checkResult{name: "Database lock", status: "warn", message: msg + "; checks run read-only"}
}

// checkDatabase opens the database and verifies the connection, the schema
// objects, the schema version and the file's integrity. A locked database
// is opened read-only so the check never waits on the holder.
func checkDatabase(ctx context.Context, path string, locked bool) []checkResult {
	const name = "Database"
	d, err := outfitsdb.Open(ctx, outfitsdb.Options{Path: path, ReadOnly: locked})
	if err != nil {
		return []checkResult{{name: name, status: "error", message: err.Error()}}
	}
	defer d.Close()

	if err := d.Ping(ctx); err != nil {
		return []checkResult{{name: name, status: "error", message: err.Error()}}
	}
	results := []checkResult{{name: name, status: "ok", message: d.Path()}}

	version, err := d.Version(ctx)
	switch {
	case err != nil:
		results = append(results, checkResult{name: "Schema version", status: "error", message: err.Error()})
	case version < outfitsdb.SchemaVersion:
		results = append(results, checkResult{name: "Schema version", status: "warn",
			message: fmt.Sprintf("%d, will migrate to %d on next write", version, outfitsdb.SchemaVersion)})
	default:
		results = append(results, checkResult{name: "Schema version", status: "ok", message: fmt.Sprint(version)})
	}

	if err := d.Validate(ctx); err != nil {
		results = append(results, checkResult{name: "Schema objects", status: "error", message: err.Error()})
	} else {
		results = append(results, checkResult{name: "Schema objects", status: "ok"})
	}

	var integrity string
	if err := d.QueryRowContext(ctx, "PRAGMA quick_check").Scan(&integrity); err != nil {
		results = append(results, checkResult{name: "Integrity", status: "error", message: err.Error()})
	} else if integrity != "ok" {
		results = append(results, checkResult{name: "Integrity", status: "error", message: integrity})
	} else {
		results = append(results, checkResult{name: "Integrity", status: "ok"})
	}
	return results
}

func checkWeatherSettings(cfg *config.Config) checkResult {
	const name = "Weather"
	if cfg.Weather.APIKey == "" {
		return checkResult{name: name, status: "warn",
			message: "no API key; suggestions use the default weather (set weather.api_key)"}
	}
	city := cfg.Weather.City
	if city == "" {
		return checkResult{name: name, status: "warn", message: "no city configured (set weather.city)"}
	}
	return checkResult{name: name, status: "ok", message: city}
}

// printChecks writes one line per result and reports whether any failed
// or warned.
func printChecks(w io.Writer, results []checkResult) (hasErrors, hasWarnings bool) {
	for _, r := range results {
		var statusIcon string
		switch r.status {
		case "ok":
			statusIcon = colorGreen + "[OK]" + colorReset
		case "warn":
			statusIcon = colorYellow + "[WARN]" + colorReset
			hasWarnings = true
		case "error":
			statusIcon = colorRed + "[ERROR]" + colorReset
			hasErrors = true
		}

		fmt.Fprintf(w, "  %s %s\n", statusIcon, r.name)
		if r.message != "" {
			fmt.Fprintf(w, "       %s%s%s\n", colorDim, r.message, colorReset)
		}
	}
	return hasErrors, hasWarnings
}
