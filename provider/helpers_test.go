package provider

import (
	"os"
	"path/filepath"
	"testing"
)

// writeScript creates an executable shell script standing in for an
// external tool.
func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "apertium")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755); err != nil {
		t.Fatalf("writing script: %v", err)
	}
	return path
}

// fakeApertium answers -V and -l and echoes "[pair] text" for a translation.
const fakeApertium = `case "$1" in
  -V) echo "apertium 3.8.3"; exit 0 ;;
  -l) printf 'eng-spa\nspa-eng\n# comment\ncat-spa\n'; exit 0 ;;
  bad-pair) echo "mode not installed" >&2; exit 2 ;;
  *) echo "  [$1] $(cat)  " ;;
esac`
