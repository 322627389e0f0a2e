// cmd/listen.go
package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ColonelBlimp/morsecodec/internal/audio"
	"github.com/ColonelBlimp/morsecodec/internal/config"
	"github.com/ColonelBlimp/morsecodec/internal/keyer"
	"github.com/ColonelBlimp/morsecodec/internal/recovery"
)

// Idle time before a character is ended when the dit length is still unknown.
const defaultIdleEnd = time.Second

var listenCmd = &cobra.Command{
	Use:   "listen",
	Short: "Decode Morse from the sound card in real time",
	Long: `Captures audio, detects the keyed tone and prints characters as they are
decoded. When the keying stops for idle_end_ms (default 10 dits) the last
character and the word are ended. Press Ctrl+C to stop.`,
	Args: cobra.NoArgs,
	RunE: runListen,
}

func init() {
	listenCmd.Flags().IntP("device", "d", -1, "audio device index (-1 for default, see 'devices')")
	listenCmd.Flags().Float64P("frequency", "f", 600, "tone frequency in Hz")

	rootCmd.AddCommand(listenCmd)
}

// listener connects detector events to the decoder. Events arrive on the
// audio thread and the idle timer fires on its own goroutine.
type listener struct {
	mu    sync.Mutex
	dec   textDecoder
	out   *echo
	idle  *time.Timer
	s     *config.Settings
	debug func(format string, args ...any)
}

func newListener(s *config.Settings, dec textDecoder, out *echo, cleanup func()) *listener {
	l := &listener{dec: dec, out: out, s: s, debug: func(string, ...any) {}}
	l.idle = time.AfterFunc(time.Hour, func() {
		defer recovery.HandlePanicFunc(cleanup)
		l.endIdle()
	})
	l.idle.Stop()
	return l
}

// idleEnd returns how long silence lasts before a character is ended.
func (l *listener) idleEnd() time.Duration {
	if l.s.IdleEndMs > 0 {
		return time.Duration(l.s.IdleEndMs) * time.Millisecond
	}
	if ref := l.dec.ReferenceShort(); ref > 0 {
		return 10 * time.Duration(ref) * time.Millisecond
	}
	return defaultIdleEnd
}

func (l *listener) onEvent(ev keyer.Event) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.dec.SubmitSignal(ev.DurationMs, ev.High)
	l.out.update(l.dec.Text())
	l.debug("%s ref=%d wpm=%d", ev, l.dec.ReferenceShort(), l.dec.WPM())

	// A mark just ended, so the line is silent until the next event.
	if ev.High {
		l.idle.Reset(l.idleEnd())
	} else {
		l.idle.Stop()
	}
}

func (l *listener) endIdle() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.dec.Buffered() > 0 {
		l.dec.EndCharacter(true)
		l.out.update(l.dec.Text())
	}
}

func (l *listener) stop() {
	l.idle.Stop()
	l.mu.Lock()
	defer l.mu.Unlock()
	l.dec.EndCharacter(false)
	l.out.update(l.dec.Text())
}

func runListen(cmd *cobra.Command, _ []string) error {
	s, err := loadSettings()
	if err != nil {
		return err
	}

	capture := audio.New(s.AudioConfig())
	if err := capture.Init(); err != nil {
		return fmt.Errorf("audio init: %w", err)
	}
	defer capture.Close()

	det, err := newToneDetector(s, float64(capture.SampleRate()), s.ToneFrequency)
	if err != nil {
		return err
	}
	dec, err := newDecoder(s)
	if err != nil {
		return err
	}

	l := newListener(s, dec, &echo{w: cmd.OutOrStdout()}, func() { _ = capture.Close() })
	if s.Debug {
		l.debug = func(format string, args ...any) { debugf(cmd, s, format, args...) }
	}
	det.SetCallback(l.onEvent)
	capture.SetCallback(det.Process)

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := capture.Start(ctx); err != nil {
		return fmt.Errorf("audio start: %w", err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Listening for %.0f Hz at %d Hz (%s precision). Press Ctrl+C to stop.\n",
		s.ToneFrequency, capture.SampleRate(), s.Precision)

	<-ctx.Done()
	l.stop()
	fmt.Fprintln(cmd.OutOrStdout())
	return nil
}
