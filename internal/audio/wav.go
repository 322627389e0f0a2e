// internal/audio/wav.go
package audio

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
)

var (
	// ErrInvalidWAV indicates the input is not a RIFF/WAVE stream
	ErrInvalidWAV = errors.New("not a RIFF/WAVE file")
	// ErrUnsupportedWAV indicates a format other than 16-bit PCM mono or stereo
	ErrUnsupportedWAV = errors.New("only 16-bit PCM mono or stereo WAV is supported")
)

const (
	wavHeaderSize  = 44
	wavFormatPCM   = 1
	wavBitsPerSamp = 16
)

// WAV holds decoded mono audio.
type WAV struct {
	SampleRate int
	// Samples are normalized to -1.0..1.0; stereo input is mixed down
	Samples []float32
}

// ReadWAVFile reads a 16-bit PCM WAV file.
func ReadWAVFile(path string) (*WAV, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	w, err := ReadWAV(bufio.NewReader(f))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return w, nil
}

// ReadWAV decodes a 16-bit PCM WAV stream. Chunks other than "fmt " and
// "data" are skipped; a "data" chunk must follow "fmt ".
func ReadWAV(r io.Reader) (*WAV, error) {
	var riff [12]byte
	if _, err := io.ReadFull(r, riff[:]); err != nil {
		return nil, ErrInvalidWAV
	}
	if string(riff[0:4]) != "RIFF" || string(riff[8:12]) != "WAVE" {
		return nil, ErrInvalidWAV
	}

	var (
		channels   int
		sampleRate int
		foundFmt   bool
	)
	for {
		var chunk [8]byte
		if _, err := io.ReadFull(r, chunk[:]); err != nil {
			return nil, fmt.Errorf("%w: missing data chunk", ErrInvalidWAV)
		}
		id := string(chunk[0:4])
		size := int64(binary.LittleEndian.Uint32(chunk[4:8]))
		padding := size % 2

		switch id {
		case "fmt ":
			if size < 16 {
				return nil, fmt.Errorf("%w: fmt chunk too small", ErrInvalidWAV)
			}
			data, err := io.ReadAll(io.LimitReader(r, size+padding))
			if err != nil {
				return nil, fmt.Errorf("reading fmt chunk: %w", err)
			}
			if int64(len(data)) < size {
				return nil, fmt.Errorf("reading fmt chunk: %w", io.ErrUnexpectedEOF)
			}
			format := binary.LittleEndian.Uint16(data[0:2])
			channels = int(binary.LittleEndian.Uint16(data[2:4]))
			sampleRate = int(binary.LittleEndian.Uint32(data[4:8]))
			bits := binary.LittleEndian.Uint16(data[14:16])
			if format != wavFormatPCM || bits != wavBitsPerSamp || channels < 1 || channels > 2 || sampleRate <= 0 {
				return nil, ErrUnsupportedWAV
			}
			foundFmt = true

		case "data":
			if !foundFmt {
				return nil, fmt.Errorf("%w: data chunk before fmt chunk", ErrInvalidWAV)
			}
			// Recorders that crash leave a short data chunk, or a size of
			// 0xFFFFFFFF while streaming; keep what is there.
			data, err := io.ReadAll(io.LimitReader(r, size))
			if err != nil {
				return nil, fmt.Errorf("reading data chunk: %w", err)
			}
			return &WAV{SampleRate: sampleRate, Samples: pcmToFloat32(data, channels)}, nil

		default:
			if _, err := io.CopyN(io.Discard, r, size+padding); err != nil {
				return nil, fmt.Errorf("skipping %q chunk: %w", id, err)
			}
		}
	}
}

// pcmToFloat32 converts interleaved 16-bit little-endian frames to mono.
func pcmToFloat32(data []byte, channels int) []float32 {
	samples := make([]float32, len(data)/2)
	for i := range samples {
		samples[i] = float32(int16(binary.LittleEndian.Uint16(data[i*2:]))) / 32768
	}
	return downmix(samples, channels)
}

// WriteWAVFile writes mono samples as a 16-bit PCM WAV file.
func WriteWAVFile(path string, samples []float32, sampleRate int) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	bw := bufio.NewWriter(f)
	if err := WriteWAV(bw, samples, sampleRate); err != nil {
		f.Close()
		return err
	}
	if err := bw.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// WriteWAV encodes mono samples as 16-bit PCM, clipping to -1.0..1.0.
func WriteWAV(w io.Writer, samples []float32, sampleRate int) error {
	if sampleRate <= 0 {
		return fmt.Errorf("sample rate %d: %w", sampleRate, ErrUnsupportedWAV)
	}
	dataSize := len(samples) * 2

	header := make([]byte, wavHeaderSize)
	copy(header[0:], "RIFF")
	binary.LittleEndian.PutUint32(header[4:], uint32(36+dataSize))
	copy(header[8:], "WAVE")
	copy(header[12:], "fmt ")
	binary.LittleEndian.PutUint32(header[16:], 16)
	binary.LittleEndian.PutUint16(header[20:], wavFormatPCM)
	binary.LittleEndian.PutUint16(header[22:], 1) // mono
	binary.LittleEndian.PutUint32(header[24:], uint32(sampleRate))
	binary.LittleEndian.PutUint32(header[28:], uint32(sampleRate*2)) // byte rate
	binary.LittleEndian.PutUint16(header[32:], 2)                    // block align
	binary.LittleEndian.PutUint16(header[34:], wavBitsPerSamp)
	copy(header[36:], "data")
	binary.LittleEndian.PutUint32(header[40:], uint32(dataSize))
	if _, err := w.Write(header); err != nil {
		return err
	}

	buf := make([]byte, dataSize)
	for i, s := range samples {
		s = max(-1, min(s, 1))
		binary.LittleEndian.PutUint16(buf[i*2:], uint16(int16(s*32767)))
	}
	_, err := w.Write(buf)
	return err
}
