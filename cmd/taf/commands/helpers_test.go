package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/storytoy/taf/pkg/taf"
)

// runCmd executes the root command with args and returns stdout.
func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()

	// Flags are package-level state; reset them between runs.
	extractChapter = -1
	infoFormat = "text"
	convertTimestamp = ""
	convertPageSize = 0
	convertNameFromTags = false
	convertNoHeader = false
	convertAppendName = false

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

// writeTestFile creates a small device audio file and returns its path.
func writeTestFile(t *testing.T, dir string, payloads [][]byte, boundaries ...int) string {
	t.Helper()

	path := filepath.Join(dir, "test.taf")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	src := taf.NewSliceSource(payloads, 960, boundaries...)
	if _, err := taf.Write(f, src, taf.WithAudioID(0x5E034B00)); err != nil {
		t.Fatalf("Write: %v", err)
	}
	return path
}
