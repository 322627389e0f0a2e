package cmd

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ColonelBlimp/morsecodec/internal/audio"
	"github.com/ColonelBlimp/morsecodec/internal/keyer"
)

const sosTiming = "+60 -60 +60 -60 +60 -180 +180 -60 +180 -60 +180 -180 +60 -60 +60 -60 +60"

func TestDecode(t *testing.T) {
	tests := []struct {
		name  string
		stdin string
		args  []string
		want  string
	}{
		{"stdin", sosTiming, []string{"decode"}, "SOS"},
		{"commas and comments", "# sos\n+60,-60,+60,-60,+60,-180\n+180,-60,+180,-60,+180 # o\n", []string{"decode"}, "SO"},
		{"unicode mode", sosTiming, []string{"decode", "-u"}, "SOS"},
		{"leading gap ignored", "-500 " + sosTiming, []string{"decode"}, "SOS"},
		{"preset reference single dah", "+300", []string{"decode", "-r", "100"}, "T"},
		{"empty input", "", []string{"decode"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolateConfig(t)

			stdout, _, err := executeCommand(t, tt.stdin, tt.args...)
			if err != nil {
				t.Fatalf("decode error = %v", err)
			}
			if got := strings.TrimSpace(stdout); got != tt.want {
				t.Errorf("decode = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDecode_File(t *testing.T) {
	dir := isolateConfig(t)
	path := filepath.Join(dir, "sos.txt")
	if err := os.WriteFile(path, []byte(sosTiming+"\n"), 0644); err != nil {
		t.Fatalf("failed to write timings: %v", err)
	}

	stdout, _, err := executeCommand(t, "", "decode", path)
	if err != nil {
		t.Fatalf("decode error = %v", err)
	}
	if got := strings.TrimSpace(stdout); got != "SOS" {
		t.Errorf("decode = %q, want SOS", got)
	}
}

func TestDecode_Stats(t *testing.T) {
	isolateConfig(t)

	stdout, _, err := executeCommand(t, sosTiming, "decode", "--stats")
	if err != nil {
		t.Fatalf("decode error = %v", err)
	}
	for _, want := range []string{"SOS\n", "precision: accurate", "reference: 60 ms (20 wpm)", "events:    17", "duration:  1.62s"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("stats output missing %q:\n%s", want, stdout)
		}
	}
}

func TestDecode_Errors(t *testing.T) {
	t.Run("invalid token", func(t *testing.T) {
		isolateConfig(t)
		_, _, err := executeCommand(t, "+60 x60", "decode")
		if !errors.Is(err, keyer.ErrInvalidToken) {
			t.Errorf("decode error = %v, want %v", err, keyer.ErrInvalidToken)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		dir := isolateConfig(t)
		_, _, err := executeCommand(t, "", "decode", filepath.Join(dir, "missing.txt"))
		if !errors.Is(err, os.ErrNotExist) {
			t.Errorf("decode error = %v, want not exist", err)
		}
	})

	t.Run("too many args", func(t *testing.T) {
		isolateConfig(t)
		if _, _, err := executeCommand(t, "", "decode", "a", "b"); err == nil {
			t.Error("expected error for two files")
		}
	})
}

// writeToneFile keys text at the default settings into a WAV file.
func writeToneFile(t *testing.T, dir, text string) string {
	t.Helper()
	path := filepath.Join(dir, "tone.wav")
	if _, _, err := executeCommand(t, "", "encode", "--wav", path, text); err != nil {
		t.Fatalf("encode error = %v", err)
	}
	return path
}

func TestDecodeWAV(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"configured frequency", nil},
		{"estimated frequency", []string{"--frequency", "0"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := isolateConfig(t)
			path := writeToneFile(t, dir, "PARIS")

			stdout, _, err := executeCommand(t, "", append([]string{"decode-wav", path}, tt.args...)...)
			if err != nil {
				t.Fatalf("decode-wav error = %v", err)
			}
			if got := strings.TrimSpace(stdout); got != "PARIS" {
				t.Errorf("decode-wav = %q, want PARIS", got)
			}
		})
	}
}

func TestDecodeWAV_Debug(t *testing.T) {
	dir := isolateConfig(t)
	path := writeToneFile(t, dir, "E")

	_, stderr, err := executeCommand(t, "", "decode-wav", "-D", "-f", "0", path)
	if err != nil {
		t.Fatalf("decode-wav error = %v", err)
	}
	for _, want := range []string{"read 19200 samples at 48000 Hz", "estimated tone at", "detected"} {
		if !strings.Contains(stderr, want) {
			t.Errorf("debug output missing %q:\n%s", want, stderr)
		}
	}
}

func TestDecodeWAV_Errors(t *testing.T) {
	t.Run("not a wav file", func(t *testing.T) {
		dir := isolateConfig(t)
		path := filepath.Join(dir, "noise.wav")
		if err := os.WriteFile(path, []byte("not audio"), 0644); err != nil {
			t.Fatalf("failed to write file: %v", err)
		}
		_, _, err := executeCommand(t, "", "decode-wav", path)
		if !errors.Is(err, audio.ErrInvalidWAV) {
			t.Errorf("decode-wav error = %v, want %v", err, audio.ErrInvalidWAV)
		}
	})

	t.Run("silent recording", func(t *testing.T) {
		dir := isolateConfig(t)
		path := filepath.Join(dir, "silence.wav")
		if err := audio.WriteWAVFile(path, make([]float32, 48000), 48000); err != nil {
			t.Fatalf("WriteWAVFile() error = %v", err)
		}

		stdout, _, err := executeCommand(t, "", "decode-wav", path)
		if err != nil {
			t.Fatalf("decode-wav error = %v", err)
		}
		if got := strings.TrimSpace(stdout); got != "" {
			t.Errorf("decode-wav = %q, want nothing", got)
		}

		if _, _, err := executeCommand(t, "", "decode-wav", "-f", "0", path); err == nil {
			t.Error("expected pitch estimation to fail on silence")
		}
	})

	t.Run("missing argument", func(t *testing.T) {
		isolateConfig(t)
		if _, _, err := executeCommand(t, "", "decode-wav"); err == nil {
			t.Error("expected error without a file")
		}
	})
}
