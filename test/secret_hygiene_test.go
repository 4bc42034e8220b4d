package test

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// TestRefreshSecretNeverLeavesTheJar scans library sources for the refresh
// cookie name. The contract is that the refresh secret lives in the authed
// HTTP client's cookie jar only: no library file may name the cookie, read
// it, or attach it to a request by hand.
//
// Exempt trees:
// - test/: the stubs here play the server side and must mint the cookie
// - cmd/, examples/: embedded identity stubs, same reason
// - *_test.go anywhere: package tests exercise the wire contract directly
func TestRefreshSecretNeverLeavesTheJar(t *testing.T) {
	const cookieName = "ta_refresh"
	const root = ".."

	var violations []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path == root {
				return nil
			}
			name := d.Name()
			if strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") {
				return fs.SkipDir
			}
			switch name {
			case "cmd", "examples", "test":
				return fs.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(path, ".go") || strings.HasSuffix(path, "_test.go") {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		if strings.Contains(string(data), cookieName) {
			violations = append(violations, path)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("walk %s: %v", root, err)
	}

	for _, path := range violations {
		t.Errorf("%s: library source names the refresh cookie %q; only the cookie jar may carry it", path, cookieName)
	}
}
