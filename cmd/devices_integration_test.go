//go:build integration

package cmd

import (
	"strings"
	"testing"
)

// Requires audio hardware. Run with: go test -tags=integration ./cmd

func TestDevices_Integration(t *testing.T) {
	isolateConfig(t)

	stdout, _, err := executeCommand(t, "", "devices")
	if err != nil {
		t.Fatalf("devices error = %v", err)
	}
	if strings.TrimSpace(stdout) == "" {
		t.Error("devices printed nothing")
	}
	t.Logf("devices:\n%s", stdout)
}
