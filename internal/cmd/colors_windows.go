//go:build windows

package cmd

// getTermWidthIoctl is unsupported on Windows; termWidth falls back to
// $COLUMNS or the default.
func getTermWidthIoctl() int {
	return 0
}
