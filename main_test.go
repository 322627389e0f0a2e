package main

import (
	"bytes"
	"errors"
	"os"
	"os/exec"
	"strings"
	"testing"
)

// TestMain_Encode runs main in a subprocess, since Execute exits on error.
func TestMain_Encode(t *testing.T) {
	if os.Getenv("TEST_MAIN_ARGS") != "" {
		os.Args = append([]string{"morsecodec"}, strings.Fields(os.Getenv("TEST_MAIN_ARGS"))...)
		main()
		return
	}

	stdout, _, err := runMain(t, "encode SOS")
	if err != nil {
		t.Fatalf("main exited with %v", err)
	}
	// The test binary appends its own PASS line.
	if !strings.HasPrefix(stdout, "... --- ...\n") {
		t.Errorf("stdout = %q, want it to start with %q", stdout, "... --- ...")
	}
}

func TestMain_ExitsOnError(t *testing.T) {
	_, stderr, err := runMain(t, "encode --format json E")

	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("expected process to exit with an error, got %v", err)
	}
	if exitErr.ExitCode() != 1 {
		t.Errorf("exit code = %d, want 1", exitErr.ExitCode())
	}
	if !strings.Contains(stderr, "format must be text, timing or yaml") {
		t.Errorf("stderr = %q, want format error", stderr)
	}
}

func runMain(t *testing.T, args string) (string, string, error) {
	t.Helper()
	home := t.TempDir()

	cmd := exec.Command(os.Args[0], "-test.run=TestMain_Encode")
	cmd.Dir = t.TempDir()
	cmd.Env = append(os.Environ(), "TEST_MAIN_ARGS="+args, "HOME="+home, "XDG_CONFIG_HOME="+home+"/.config")

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.String(), stderr.String(), err
}
