package quant

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"
)

// Supported bit widths and the validation range.
const (
	BitsBinary        uint = 1
	BitsFullPrecision uint = 32

	MinBitWidth uint = 1
	MaxBitWidth uint = 32
)

// ScalingMode selects the multiplier applied to binarized weights.
type ScalingMode int

// Scaling modes. ScalingNone is the zero value and the default.
const (
	ScalingNone ScalingMode = iota
	ScalingScalar
	ScalingChannelMean
)

// scalarScale is the fixed multiplier used by ScalingScalar.
const scalarScale = 5

// String returns the option name of the mode.
func (m ScalingMode) String() string {
	switch m {
	case ScalingNone:
		return "none"
	case ScalingScalar:
		return "scalar"
	case ScalingChannelMean:
		return "channel_mean"
	default:
		return "ScalingMode(" + strconv.Itoa(int(m)) + ")"
	}
}

// ParseScalingMode maps an option name to a ScalingMode.
func ParseScalingMode(s string) (ScalingMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "none", "":
		return ScalingNone, nil
	case "scalar":
		return ScalingScalar, nil
	case "channel_mean", "channel-mean":
		return ScalingChannelMean, nil
	default:
		return 0, &ConfigError{Field: KeyScalingMode, Value: s, Details: "expected one of none, scalar, channel_mean"}
	}
}

// MarshalText implements encoding.TextMarshaler.
func (m ScalingMode) MarshalText() ([]byte, error) {
	if !m.valid() {
		return nil, &ConfigError{Field: KeyScalingMode, Value: m.String(), Details: "unknown scaling mode"}
	}
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *ScalingMode) UnmarshalText(text []byte) error {
	parsed, err := ParseScalingMode(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

func (m ScalingMode) valid() bool {
	return m >= ScalingNone && m <= ScalingChannelMean
}

// Option keys understood by ParseParams. The aliases are the parameter
// names used by graph runtimes that declare this operator.
const (
	KeyBitWidth    = "bit_width"
	KeyScalingMode = "scaling_mode"

	aliasBitWidth    = "act_bit"
	aliasScalingMode = "scaling_factor"
)

// Config is the immutable configuration of a Quantizer.
// Construct it with NewConfig, DefaultConfig or ParseParams.
type Config struct {
	bitWidth uint
	scaling  ScalingMode
}

// DefaultConfig returns {bit_width: 1, scaling_mode: none}.
func DefaultConfig() Config {
	return Config{bitWidth: BitsBinary, scaling: ScalingNone}
}

// NewConfig validates and returns a Config.
//
// Only the range [1, 32] is enforced here. Widths other than 1 and 32, and
// ScalingChannelMean, are accepted and fail when the quantizer runs.
func NewConfig(bitWidth uint, scaling ScalingMode) (Config, error) {
	c := Config{bitWidth: bitWidth, scaling: scaling}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// MustConfig is like NewConfig but panics on error. Intended for tests and
// package-level defaults.
func MustConfig(bitWidth uint, scaling ScalingMode) Config {
	c, err := NewConfig(bitWidth, scaling)
	if err != nil {
		panic(err)
	}
	return c
}

// BitWidth returns the configured bit width.
func (c Config) BitWidth() uint {
	return c.bitWidth
}

// Scaling returns the configured scaling mode.
func (c Config) Scaling() ScalingMode {
	return c.scaling
}

// Validate checks the construction-time invariants.
func (c Config) Validate() error {
	if c.bitWidth < MinBitWidth || c.bitWidth > MaxBitWidth {
		return &ConfigError{
			Field:   KeyBitWidth,
			Value:   strconv.FormatUint(uint64(c.bitWidth), 10),
			Details: fmt.Sprintf("must be in [%d, %d]", MinBitWidth, MaxBitWidth),
		}
	}
	if !c.scaling.valid() {
		return &ConfigError{Field: KeyScalingMode, Value: c.scaling.String(), Details: "unknown scaling mode"}
	}
	return nil
}

// Supported reports whether the quantizer has a kernel for this config.
// It returns the *UnimplementedError that Forward would return, or nil.
func (c Config) Supported() error {
	switch c.bitWidth {
	case BitsFullPrecision:
		return nil
	case BitsBinary:
		if c.scaling == ScalingChannelMean {
			return errChannelMean
		}
		return nil
	default:
		return errNBit
	}
}

// Params returns the effective options as a key/value map, the inverse of ParseParams.
func (c Config) Params() map[string]string {
	return map[string]string{
		KeyBitWidth:    strconv.FormatUint(uint64(c.bitWidth), 10),
		KeyScalingMode: c.scaling.String(),
	}
}

// String formats the config as sorted key=value pairs.
func (c Config) String() string {
	params := c.Params()
	keys := slices.Sorted(maps.Keys(params))
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + params[k]
	}
	return strings.Join(parts, " ")
}

// ParseParams builds a Config from string options, starting from DefaultConfig.
// Unknown keys are rejected.
//
// Example:
//
//	cfg, err := quant.ParseParams(map[string]string{"act_bit": "1", "scaling_factor": "scalar"})
func ParseParams(kwargs map[string]string) (Config, error) {
	c := DefaultConfig()
	seen := make(map[string]string, len(kwargs))

	for _, key := range slices.Sorted(maps.Keys(kwargs)) {
		value := kwargs[key]
		canonical := CanonicalKey(key)
		if canonical == "" {
			return Config{}, &ConfigError{Field: key, Value: value, Details: "unknown option"}
		}
		if prev, dup := seen[canonical]; dup {
			return Config{}, &ConfigError{Field: key, Value: value, Details: "duplicates option " + prev}
		}
		seen[canonical] = key

		switch canonical {
		case KeyBitWidth:
			n, err := strconv.ParseUint(strings.TrimSpace(value), 10, 32)
			if err != nil {
				return Config{}, &ConfigError{Field: key, Value: value, Details: "not an unsigned integer"}
			}
			c.bitWidth = uint(n)
		case KeyScalingMode:
			mode, err := ParseScalingMode(value)
			if err != nil {
				return Config{}, err
			}
			c.scaling = mode
		}
	}

	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// CanonicalKey maps an option name or alias to KeyBitWidth or KeyScalingMode.
// It returns "" for unknown names.
func CanonicalKey(key string) string {
	switch strings.ToLower(strings.TrimSpace(key)) {
	case KeyBitWidth, aliasBitWidth, "bitwidth", "bits":
		return KeyBitWidth
	case KeyScalingMode, aliasScalingMode, "scaling":
		return KeyScalingMode
	default:
		return ""
	}
}
