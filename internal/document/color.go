package document

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var ErrInvalidColorFormat = errors.New("invalid color format")

var hexColorPattern = regexp.MustCompile(`(?i)^#?([0-9a-f]{2})([0-9a-f]{2})([0-9a-f]{2})$`)

// HexToRGB parses "#rrggbb" (the '#' is optional, digits are case-insensitive).
// Channels are normalized by 256, not 255, so that RGBToHex reproduces the
// input exactly.
func HexToRGB(text string) (Color, error) {
	groups := hexColorPattern.FindStringSubmatch(text)
	if groups == nil {
		return Color{}, fmt.Errorf("%w: %q", ErrInvalidColorFormat, text)
	}

	var channels [3]float64
	for i := range channels {
		v, err := strconv.ParseUint(groups[i+1], 16, 8)
		if err != nil {
			return Color{}, fmt.Errorf("%w: %q", ErrInvalidColorFormat, text)
		}
		channels[i] = float64(v) / 256
	}
	return Color{Red: channels[0], Green: channels[1], Blue: channels[2]}, nil
}

// MustHexToRGB is HexToRGB for literals known to be valid.
func MustHexToRGB(text string) Color {
	c, err := HexToRGB(text)
	if err != nil {
		panic(err)
	}
	return c
}

// RGBToHex encodes each channel as int(c*256) clamped to [0,255].
func RGBToHex(c Color) string {
	var b strings.Builder
	b.WriteByte('#')
	for _, ch := range [3]float64{c.Red, c.Green, c.Blue} {
		fmt.Fprintf(&b, "%02x", channelByte(ch))
	}
	return b.String()
}

func channelByte(v float64) int {
	n := int(v * 256)
	if n < 0 {
		return 0
	}
	if n > 255 {
		return 255
	}
	return n
}
