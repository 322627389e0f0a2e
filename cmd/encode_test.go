package cmd

import (
	"errors"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/ColonelBlimp/morsecodec/internal/audio"
)

func TestEncode_Text(t *testing.T) {
	tests := []struct {
		name  string
		stdin string
		args  []string
		want  string
	}{
		{"single word", "", []string{"encode", "SOS"}, "... --- ..."},
		{"lower case", "", []string{"encode", "sos"}, "... --- ..."},
		{"two words", "", []string{"encode", "SOS", "SOS"}, "... --- ... / ... --- ..."},
		{"unknown characters skipped", "", []string{"encode", "E~T"}, ". -"},
		{"stdin", "paris\n", []string{"encode"}, ".--. .- .-. .. ..."},
		{"unicode mode", "", []string{"encode", "-u", "CQ"}, "-.-. --.-"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolateConfig(t)

			stdout, _, err := executeCommand(t, tt.stdin, tt.args...)
			if err != nil {
				t.Fatalf("encode error = %v", err)
			}
			if got := strings.TrimSpace(stdout); got != tt.want {
				t.Errorf("encode = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEncode_Timing(t *testing.T) {
	isolateConfig(t)

	stdout, _, err := executeCommand(t, "", "encode", "--format", "timing", "--unit", "60", "SOS")
	if err != nil {
		t.Fatalf("encode error = %v", err)
	}
	want := "+60 -60 +60 -60 +60 -180\n" +
		"+180 -60 +180 -60 +180 -180\n" +
		"+60 -60 +60 -60 +60 -180\n"
	if stdout != want {
		t.Errorf("encode timing =\n%s\nwant\n%s", stdout, want)
	}
}

func TestEncode_TimingFarnsworth(t *testing.T) {
	isolateConfig(t)

	stdout, _, err := executeCommand(t, "", "encode", "--format", "timing", "--unit", "60", "--farnsworth-wpm", "10", "EE")
	if err != nil {
		t.Fatalf("encode error = %v", err)
	}
	fields := strings.Fields(stdout)
	if len(fields) != 4 {
		t.Fatalf("encode timing = %q, want 4 events", stdout)
	}
	if fields[0] != "+60" || fields[2] != "+60" {
		t.Errorf("marks = %s %s, want +60 at character speed", fields[0], fields[2])
	}
	if fields[1] == "-180" {
		t.Errorf("character gap = %s, want it stretched beyond 3 units", fields[1])
	}
}

func TestEncode_TimingDecodesBack(t *testing.T) {
	isolateConfig(t)

	timing, _, err := executeCommand(t, "", "encode", "--format", "timing", "--unit", "80", "CQ", "DE", "TEST")
	if err != nil {
		t.Fatalf("encode error = %v", err)
	}
	stdout, _, err := executeCommand(t, timing, "decode")
	if err != nil {
		t.Fatalf("decode error = %v", err)
	}
	if got := strings.TrimSpace(stdout); got != "CQ DE TEST" {
		t.Errorf("decode(encode(CQ DE TEST)) = %q", got)
	}
}

func TestEncode_YAML(t *testing.T) {
	isolateConfig(t)

	stdout, _, err := executeCommand(t, "", "encode", "--format", "yaml", "ET")
	if err != nil {
		t.Fatalf("encode error = %v", err)
	}

	var doc struct {
		Text       string `yaml:"text"`
		UnitMs     int    `yaml:"unit_ms"`
		DurationMs int    `yaml:"duration_ms"`
		Characters []struct {
			Char  string   `yaml:"char"`
			Code  string   `yaml:"code"`
			Units []string `yaml:"units"`
		} `yaml:"characters"`
	}
	if err := yaml.Unmarshal([]byte(stdout), &doc); err != nil {
		t.Fatalf("output is not YAML: %v\n%s", err, stdout)
	}

	if doc.Text != "ET" {
		t.Errorf("text = %q, want ET", doc.Text)
	}
	if doc.UnitMs != 100 {
		t.Errorf("unit_ms = %d, want 100", doc.UnitMs)
	}
	// +1 -3 +3 -3 units
	if doc.DurationMs != 1000 {
		t.Errorf("duration_ms = %d, want 1000", doc.DurationMs)
	}
	if len(doc.Characters) != 2 {
		t.Fatalf("characters = %d, want 2", len(doc.Characters))
	}
	if c := doc.Characters[1]; c.Char != "T" || c.Code != "-" || !slices.Equal(c.Units, []string{"+3", "-3"}) {
		t.Errorf("characters[1] = %+v", c)
	}
}

func TestEncode_Errors(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr error
	}{
		{"nothing encodable", []string{"encode", "~~~"}, errNothingToEncode},
		{"unknown format", []string{"encode", "--format", "json", "E"}, errUnknownFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolateConfig(t)

			_, _, err := executeCommand(t, "", tt.args...)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("encode error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	t.Run("invalid unit", func(t *testing.T) {
		isolateConfig(t)
		if _, _, err := executeCommand(t, "", "encode", "--unit", "0", "E"); err == nil {
			t.Error("expected error for zero unit")
		}
	})
}

func TestEncode_WAV(t *testing.T) {
	dir := isolateConfig(t)
	path := filepath.Join(dir, "paris.wav")

	if _, _, err := executeCommand(t, "", "encode", "--wav", path, "PARIS"); err != nil {
		t.Fatalf("encode error = %v", err)
	}

	wav, err := audio.ReadWAVFile(path)
	if err != nil {
		t.Fatalf("ReadWAVFile() error = %v", err)
	}
	if wav.SampleRate != 48000 {
		t.Errorf("sample rate = %d, want 48000", wav.SampleRate)
	}
	// PARIS keys 46 units when the last gap is a character gap.
	if want := 46 * 100 * 48; len(wav.Samples) != want {
		t.Errorf("samples = %d, want %d", len(wav.Samples), want)
	}
}
