package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// isolateConfig gives the test an empty home and working directory and
// returns the working directory.
func isolateConfig(t *testing.T) string {
	t.Helper()
	viper.Reset()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	dir := t.TempDir()
	t.Chdir(dir)
	return dir
}

// resetFlags puts every flag back to its default between executions.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

// executeCommand runs the root command with args and stdin and returns
// what it wrote to stdout and stderr.
func executeCommand(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	resetFlags(rootCmd)

	var stdout, stderr bytes.Buffer
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)

	err := rootCmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeConfig(t *testing.T, dir, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, ".config.yaml"), []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
}

func TestRootCmd_HasExpectedFlags(t *testing.T) {
	flags := rootCmd.PersistentFlags()

	tests := []struct {
		name         string
		shorthand    string
		defaultValue string
	}{
		{"precision", "p", "accurate"},
		{"tolerance", "t", "0.5"},
		{"reference", "r", "0"},
		{"unicode", "u", "false"},
		{"debug", "D", "false"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flag := flags.Lookup(tt.name)
			if flag == nil {
				t.Fatalf("flag %q not found", tt.name)
			}
			if flag.Shorthand != tt.shorthand {
				t.Errorf("flag %q shorthand = %q, want %q", tt.name, flag.Shorthand, tt.shorthand)
			}
			if flag.DefValue != tt.defaultValue {
				t.Errorf("flag %q default = %q, want %q", tt.name, flag.DefValue, tt.defaultValue)
			}
			if flag.Usage == "" {
				t.Errorf("flag %q has no description", tt.name)
			}
		})
	}
}

func TestRootCmd_Properties(t *testing.T) {
	if rootCmd.Use != "morsecodec" {
		t.Errorf("rootCmd.Use = %q, want %q", rootCmd.Use, "morsecodec")
	}
	if rootCmd.Short == "" {
		t.Error("rootCmd.Short is empty")
	}
	if rootCmd.Long == "" {
		t.Error("rootCmd.Long is empty")
	}
}

func TestRootCmd_Subcommands(t *testing.T) {
	for _, name := range []string{"encode", "decode", "decode-wav", "listen", "devices", "loopback"} {
		t.Run(name, func(t *testing.T) {
			cmd, _, err := rootCmd.Find([]string{name})
			if err != nil {
				t.Fatalf("Find(%q) error = %v", name, err)
			}
			if cmd.Name() != name {
				t.Errorf("Find(%q) = %q", name, cmd.Name())
			}
			if cmd.Short == "" {
				t.Errorf("command %q has no short description", name)
			}
		})
	}
}

func TestRootCmd_HelpOutput(t *testing.T) {
	isolateConfig(t)

	stdout, _, err := executeCommand(t, "", "--help")
	if err != nil {
		t.Fatalf("Execute() with --help error = %v", err)
	}
	for _, want := range []string{"morsecodec", "--precision", "encode", "decode-wav", "loopback"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("help output should contain %q", want)
		}
	}
}

func TestInitConfig(t *testing.T) {
	dir := isolateConfig(t)
	writeConfig(t, dir, "unit_ms: 60\n")

	initConfig()

	if got := viper.GetInt("unit_ms"); got != 60 {
		t.Errorf("viper.GetInt(unit_ms) = %d, want 60", got)
	}
	if got := viper.GetString("precision"); got != "accurate" {
		t.Errorf("viper.GetString(precision) = %q, want accurate", got)
	}
}

func TestInitConfig_WritesDefaultConfig(t *testing.T) {
	isolateConfig(t)

	initConfig()

	path := filepath.Join(os.Getenv("XDG_CONFIG_HOME"), "morsecodec", "config.yaml")
	if _, err := os.Stat(path); err != nil {
		t.Errorf("default config not written: %v", err)
	}
}

func TestRootCmd_FlagOverridesConfig(t *testing.T) {
	dir := isolateConfig(t)
	writeConfig(t, dir, "precision: lazy\n")

	// "SOS SOS" with a standard 7-unit word gap: lazy needs 9 units for a space.
	input := "+60 -60 +60 -60 +60 -180 +180 -60 +180 -60 +180 -180 +60 -60 +60 -60 +60 -420 " +
		"+60 -60 +60 -60 +60 -180 +180 -60 +180 -60 +180 -180 +60 -60 +60 -60 +60"

	stdout, _, err := executeCommand(t, input, "decode")
	if err != nil {
		t.Fatalf("decode error = %v", err)
	}
	if got := strings.TrimSpace(stdout); got != "SOSSOS" {
		t.Errorf("lazy decode = %q, want %q", got, "SOSSOS")
	}

	stdout, _, err = executeCommand(t, input, "decode", "--precision", "accurate")
	if err != nil {
		t.Fatalf("decode error = %v", err)
	}
	if got := strings.TrimSpace(stdout); got != "SOS SOS" {
		t.Errorf("accurate decode = %q, want %q", got, "SOS SOS")
	}
}

func TestRootCmd_InvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		config string
		args   []string
	}{
		{"tolerance out of range", "tolerance: 2.0\n", []string{"decode"}},
		{"tolerance zero", "tolerance: 0\n", []string{"decode"}},
		{"unknown precision", "precision: sloppy\n", []string{"encode", "E"}},
		{"threshold out of range", "threshold: 2.0\n", []string{"loopback", "E"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := isolateConfig(t)
			writeConfig(t, dir, tt.config)

			_, _, err := executeCommand(t, "+60", tt.args...)
			if err == nil {
				t.Fatal("expected config error, got nil")
			}
			if !strings.Contains(err.Error(), "config") {
				t.Errorf("expected config error, got: %v", err)
			}
		})
	}
}

func TestDebugf(t *testing.T) {
	dir := isolateConfig(t)
	writeConfig(t, dir, "unit_ms: 60\n")

	_, stderr, err := executeCommand(t, "+60 -60 +60", "decode", "--debug")
	if err != nil {
		t.Fatalf("decode error = %v", err)
	}
	if !strings.Contains(stderr, "[DEBUG] read 3 events") {
		t.Errorf("stderr = %q, want debug line", stderr)
	}

	_, stderr, err = executeCommand(t, "+60 -60 +60", "decode")
	if err != nil {
		t.Fatalf("decode error = %v", err)
	}
	if stderr != "" {
		t.Errorf("stderr without --debug = %q, want empty", stderr)
	}
}
