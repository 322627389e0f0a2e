// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/ColonelBlimp/morsecodec/internal/audio"
	"github.com/ColonelBlimp/morsecodec/internal/dsp"
	"github.com/ColonelBlimp/morsecodec/internal/morse"
)

const (
	AppName       = "morsecodec"
	ConfigType    = "yaml"
	DefaultConfig = `# Morse codec configuration

# Decoding
precision: accurate       # lazy, accurate or farnsworth
tolerance: 0.5            # Signal window is duration ± duration*tolerance (above 0, up to 1.0)
farnsworth_factor: 0.5    # Farnsworth speed reduction (0.01-0.99), effective WPM = WPM * factor
reference_short_ms: 0     # Initial dit length in ms, 0 learns it from the first mark
                          # Set it when messages may start with 'T' (100 suits hand keying)
message_max: 256          # Decoded message length in characters
clamp_cursor: false       # Stop at the end of the message instead of wrapping
unicode: false            # Use rune characters (needed for non-ASCII code tables)
lazy_padding_ms: 50       # Lazy: extra ms accepted on top of a dit
lazy_word_multiplier: 9   # Lazy: word space in dits (7-20)

# Keying
unit_ms: 100              # Dit length used by encode and loopback
idle_end_ms: 0            # listen: end the character after this much silence
                          # 0 = 10 x the learned dit length

# Audio device settings
device_index: -1          # -1 for default device (see 'morsecodec devices')
sample_rate: 48000        # Audio sample rate in Hz
channels: 1               # 1 = mono, 2 = stereo (mixed down)
buffer_size: 1024         # Frames per audio callback

# Tone detection
tone_frequency: 600       # Tone frequency in Hz
block_size: 256           # Goertzel block size (samples per detection window)
overlap_pct: 50           # Block overlap percentage (0-99), higher = finer timing but more CPU

# Detection thresholds
threshold: 0.4            # Detection threshold (0.0-1.0), tone magnitude must exceed this
hysteresis: 2             # Consecutive blocks required to confirm a state change
agc_enabled: true         # Enable automatic gain control (normalizes input levels)
agc_decay: 0.9995         # AGC peak decay rate per block (0.99-0.99999)
agc_attack: 0.1           # AGC attack rate (0.0-1.0), how fast to respond to louder signals
agc_warmup_blocks: 0      # Blocks used to calibrate the AGC before detecting

# Output
debug: false              # Enable debug output
`
)

// Settings holds all application configuration
type Settings struct {
	// Decoding
	Precision          string  `mapstructure:"precision"`
	Tolerance          float64 `mapstructure:"tolerance"`
	FarnsworthFactor   float64 `mapstructure:"farnsworth_factor"`
	ReferenceShortMs   int     `mapstructure:"reference_short_ms"`
	MessageMax         int     `mapstructure:"message_max"`
	ClampCursor        bool    `mapstructure:"clamp_cursor"`
	Unicode            bool    `mapstructure:"unicode"`
	LazyPaddingMs      int     `mapstructure:"lazy_padding_ms"`
	LazyWordMultiplier int     `mapstructure:"lazy_word_multiplier"`

	// Keying
	UnitMs    int `mapstructure:"unit_ms"`
	IdleEndMs int `mapstructure:"idle_end_ms"`

	// Audio device settings
	DeviceIndex int     `mapstructure:"device_index"`
	SampleRate  float64 `mapstructure:"sample_rate"`
	Channels    int     `mapstructure:"channels"`
	BufferSize  int     `mapstructure:"buffer_size"`

	// Tone detection
	ToneFrequency float64 `mapstructure:"tone_frequency"`
	BlockSize     int     `mapstructure:"block_size"`
	OverlapPct    int     `mapstructure:"overlap_pct"`

	// Detection thresholds
	Threshold       float64 `mapstructure:"threshold"`
	Hysteresis      int     `mapstructure:"hysteresis"`
	AGCEnabled      bool    `mapstructure:"agc_enabled"`
	AGCDecay        float64 `mapstructure:"agc_decay"`
	AGCAttack       float64 `mapstructure:"agc_attack"`
	AGCWarmupBlocks int     `mapstructure:"agc_warmup_blocks"`

	// Output
	Debug bool `mapstructure:"debug"`
}

// SetDefaults registers the default of every key.
func SetDefaults() {
	viper.SetDefault("precision", "accurate")
	viper.SetDefault("tolerance", morse.DefaultTolerance)
	viper.SetDefault("farnsworth_factor", 0.5)
	viper.SetDefault("reference_short_ms", 0)
	viper.SetDefault("message_max", morse.DefaultCapacity)
	viper.SetDefault("clamp_cursor", false)
	viper.SetDefault("unicode", false)
	viper.SetDefault("lazy_padding_ms", morse.DefaultLazyPaddingMs)
	viper.SetDefault("lazy_word_multiplier", morse.DefaultLazyWordMultiplier)
	viper.SetDefault("unit_ms", 100)
	viper.SetDefault("idle_end_ms", 0)
	viper.SetDefault("device_index", -1)
	viper.SetDefault("sample_rate", 48000)
	viper.SetDefault("channels", 1)
	viper.SetDefault("buffer_size", 1024)
	viper.SetDefault("tone_frequency", 600)
	viper.SetDefault("block_size", 256)
	viper.SetDefault("overlap_pct", 50)
	viper.SetDefault("threshold", 0.4)
	viper.SetDefault("hysteresis", 2)
	viper.SetDefault("agc_enabled", true)
	viper.SetDefault("agc_decay", 0.9995)
	viper.SetDefault("agc_attack", 0.1)
	viper.SetDefault("agc_warmup_blocks", 0)
	viper.SetDefault("debug", false)
}

// Init initializes Viper with defaults and config file.
// Config file search order: current directory, then ~/.config/morsecodec/
func Init() error {
	SetDefaults()

	// Support both config.yaml and .config.yaml
	viper.SetConfigType(ConfigType)

	// Priority order: current directory first, then XDG config
	viper.AddConfigPath(".")

	configDir, err := os.UserConfigDir()
	if err != nil {
		configDir = filepath.Join(os.Getenv("HOME"), ".config")
	}
	viper.AddConfigPath(filepath.Join(configDir, AppName))

	// Try .config.yaml first (hidden file), then config.yaml
	viper.SetConfigName(".config")
	if err = viper.ReadInConfig(); err != nil {
		viper.SetConfigName("config")
		err = viper.ReadInConfig()
	}

	// Read config file - if not found, create default in XDG config dir
	if err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return fmt.Errorf("read config: %w", err)
		}
		if err = ensureConfigExists(filepath.Join(configDir, AppName)); err != nil {
			return err
		}
		if err = viper.ReadInConfig(); err != nil {
			return fmt.Errorf("read config: %w", err)
		}
	}

	return nil
}

func ensureConfigExists(configPath string) error {
	configFile := filepath.Join(configPath, "config.yaml")

	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		if err = os.MkdirAll(configPath, 0755); err != nil {
			return fmt.Errorf("create config dir: %w", err)
		}
		if err = os.WriteFile(configFile, []byte(DefaultConfig), 0644); err != nil {
			return fmt.Errorf("write default config: %w", err)
		}
	}
	return nil
}

// Get returns the current settings
func Get() (*Settings, error) {
	var s Settings
	if err := viper.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &s, nil
}

// Validate checks that all settings are within acceptable ranges
func (s *Settings) Validate() error {
	var errs []error

	// Decoding
	if _, err := morse.ParsePrecision(s.Precision, s.FarnsworthFactor); err != nil {
		errs = append(errs, fmt.Errorf("precision: %w", err))
	}
	if s.Tolerance <= 0.0 || s.Tolerance > 1.0 {
		errs = append(errs, fmt.Errorf("tolerance must be above 0.0 and at most 1.0, got %v", s.Tolerance))
	}
	if s.FarnsworthFactor < morse.MinFarnsworthFactor || s.FarnsworthFactor > morse.MaxFarnsworthFactor {
		errs = append(errs, fmt.Errorf("farnsworth_factor must be between %v and %v, got %v",
			morse.MinFarnsworthFactor, morse.MaxFarnsworthFactor, s.FarnsworthFactor))
	}
	if s.ReferenceShortMs < 0 || s.ReferenceShortMs > 2000 {
		errs = append(errs, fmt.Errorf("reference_short_ms must be between 0 and 2000, got %d", s.ReferenceShortMs))
	}
	if s.MessageMax < 1 || s.MessageMax > 65535 {
		errs = append(errs, fmt.Errorf("message_max must be between 1 and 65535, got %d", s.MessageMax))
	}
	if s.LazyPaddingMs < 0 || s.LazyPaddingMs > 1000 {
		errs = append(errs, fmt.Errorf("lazy_padding_ms must be between 0 and 1000, got %d", s.LazyPaddingMs))
	}
	if s.LazyWordMultiplier < 7 || s.LazyWordMultiplier > 20 {
		errs = append(errs, fmt.Errorf("lazy_word_multiplier must be between 7 and 20, got %d", s.LazyWordMultiplier))
	}

	// Keying
	if s.UnitMs < 10 || s.UnitMs > 2000 {
		errs = append(errs, fmt.Errorf("unit_ms must be between 10 and 2000, got %d", s.UnitMs))
	}
	if s.IdleEndMs < 0 || s.IdleEndMs > 10000 {
		errs = append(errs, fmt.Errorf("idle_end_ms must be between 0 and 10000, got %d", s.IdleEndMs))
	}

	// Audio device settings
	if s.SampleRate < 8000 || s.SampleRate > 192000 {
		errs = append(errs, fmt.Errorf("sample_rate must be between 8000 and 192000 Hz, got %v", s.SampleRate))
	}
	if s.Channels < 1 || s.Channels > 2 {
		errs = append(errs, fmt.Errorf("channels must be 1 or 2, got %d", s.Channels))
	}
	if s.BufferSize < 64 || s.BufferSize > 8192 {
		errs = append(errs, fmt.Errorf("buffer_size must be between 64 and 8192, got %d", s.BufferSize))
	}
	if s.BufferSize&(s.BufferSize-1) != 0 {
		errs = append(errs, fmt.Errorf("buffer_size should be a power of 2, got %d", s.BufferSize))
	}

	// Tone detection
	if s.ToneFrequency < 100 || s.ToneFrequency > 3000 {
		errs = append(errs, fmt.Errorf("tone_frequency must be between 100 and 3000 Hz, got %v", s.ToneFrequency))
	}
	if s.BlockSize < 32 || s.BlockSize > 4096 {
		errs = append(errs, fmt.Errorf("block_size must be between 32 and 4096, got %d", s.BlockSize))
	}
	if s.BlockSize&(s.BlockSize-1) != 0 {
		errs = append(errs, fmt.Errorf("block_size should be a power of 2, got %d", s.BlockSize))
	}
	if s.OverlapPct < 0 || s.OverlapPct > 99 {
		errs = append(errs, fmt.Errorf("overlap_pct must be between 0 and 99, got %d", s.OverlapPct))
	}

	// Detection thresholds
	if s.Threshold < 0.0 || s.Threshold > 1.0 {
		errs = append(errs, fmt.Errorf("threshold must be between 0.0 and 1.0, got %v", s.Threshold))
	}
	if s.Hysteresis < 1 || s.Hysteresis > 50 {
		errs = append(errs, fmt.Errorf("hysteresis must be between 1 and 50, got %d", s.Hysteresis))
	}
	if s.AGCDecay < 0.99 || s.AGCDecay > 0.99999 {
		errs = append(errs, fmt.Errorf("agc_decay must be between 0.99 and 0.99999, got %v", s.AGCDecay))
	}
	if s.AGCAttack < 0.0 || s.AGCAttack > 1.0 {
		errs = append(errs, fmt.Errorf("agc_attack must be between 0.0 and 1.0, got %v", s.AGCAttack))
	}
	if s.AGCWarmupBlocks < 0 || s.AGCWarmupBlocks > 1000 {
		errs = append(errs, fmt.Errorf("agc_warmup_blocks must be between 0 and 1000, got %d", s.AGCWarmupBlocks))
	}

	// Nyquist check: tone frequency must be less than half the sample rate
	if s.ToneFrequency >= s.SampleRate/2 {
		errs = append(errs, fmt.Errorf("tone_frequency (%v Hz) must be less than Nyquist frequency (%v Hz)", s.ToneFrequency, s.SampleRate/2))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// DecoderPrecision returns the configured precision policy.
func (s *Settings) DecoderPrecision() (morse.Precision, error) {
	return morse.ParsePrecision(s.Precision, s.FarnsworthFactor)
}

// GoertzelConfig returns the tone filter settings for a sample rate.
func (s *Settings) GoertzelConfig(sampleRate float64) dsp.GoertzelConfig {
	return dsp.GoertzelConfig{
		TargetFrequency: s.ToneFrequency,
		SampleRate:      sampleRate,
		BlockSize:       s.BlockSize,
	}
}

// DetectorConfig returns the tone detector settings.
func (s *Settings) DetectorConfig() dsp.DetectorConfig {
	return dsp.DetectorConfig{
		Threshold:       s.Threshold,
		Hysteresis:      s.Hysteresis,
		OverlapPct:      s.OverlapPct,
		AGCEnabled:      s.AGCEnabled,
		AGCDecay:        s.AGCDecay,
		AGCAttack:       s.AGCAttack,
		AGCWarmupBlocks: s.AGCWarmupBlocks,
	}
}

// AudioConfig returns the capture device settings.
func (s *Settings) AudioConfig() audio.Config {
	return audio.Config{
		DeviceIndex: s.DeviceIndex,
		SampleRate:  uint32(s.SampleRate),
		Channels:    uint32(s.Channels),
		BufferSize:  uint32(s.BufferSize),
	}
}

// DecoderConfig builds a decoder configuration from the settings.
func DecoderConfig[C morse.Char](s *Settings) (morse.DecoderConfig[C], error) {
	precision, err := s.DecoderPrecision()
	if err != nil {
		return morse.DecoderConfig[C]{}, err
	}
	return morse.DecoderConfig[C]{
		Capacity:           s.MessageMax,
		Precision:          precision,
		Tolerance:          s.Tolerance,
		ReferenceShortMs:   uint16(s.ReferenceShortMs),
		ClampCursor:        s.ClampCursor,
		LazyPaddingMs:      s.LazyPaddingMs,
		LazyWordMultiplier: s.LazyWordMultiplier,
	}, nil
}
