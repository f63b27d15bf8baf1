package layout

import (
	"fmt"
	"strings"
)

// Color helpers derive the fill and text colors used behind scheduled
// blocks from a single base accent color. They are plain numeric
// transforms over #rrggbb hex triplets; outputs are lowercase #rrggbb.

// Lighten interpolates each RGB channel toward white. amount 0 returns
// the (normalized) input, amount 1 returns #ffffff.
func Lighten(hex string, amount float64) string {
	r, g, b, ok := parseHex(hex)
	if !ok {
		return hex
	}
	return formatHex(mix(r, 255, amount), mix(g, 255, amount), mix(b, 255, amount))
}

// Darken interpolates each RGB channel toward black. amount 0 returns
// the (normalized) input, amount 1 returns #000000.
func Darken(hex string, amount float64) string {
	r, g, b, ok := parseHex(hex)
	if !ok {
		return hex
	}
	return formatHex(mix(r, 0, amount), mix(g, 0, amount), mix(b, 0, amount))
}

// BackgroundFor produces an opaque low-contrast fill for the given
// accent, suitable behind text in the active theme.
func BackgroundFor(hex string, isDark bool) string {
	if isDark {
		return Darken(hex, 0.7)
	}
	return Lighten(hex, 0.85)
}

// TextFor produces a readable variant of the same hue with enough
// contrast against the matching BackgroundFor fill.
func TextFor(hex string, isDark bool) string {
	if isDark {
		return Lighten(hex, 0.5)
	}
	return Darken(hex, 0.25)
}

func mix(c, target int, amount float64) int {
	if amount < 0 {
		amount = 0
	}
	if amount > 1 {
		amount = 1
	}
	v := int(float64(c) + (float64(target)-float64(c))*amount + 0.5)
	if v < 0 {
		v = 0
	}
	if v > 255 {
		v = 255
	}
	return v
}

// parseHex accepts #rrggbb and #rgb (case-insensitive, leading #
// optional). Anything else is rejected and passed through unchanged by
// the callers.
func parseHex(hex string) (r, g, b int, ok bool) {
	s := strings.TrimPrefix(strings.TrimSpace(hex), "#")
	if len(s) == 3 {
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	}
	if len(s) != 6 {
		return 0, 0, 0, false
	}
	var rv, gv, bv int
	if _, err := fmt.Sscanf(strings.ToLower(s), "%02x%02x%02x", &rv, &gv, &bv); err != nil {
		return 0, 0, 0, false
	}
	return rv, gv, bv, true
}

func formatHex(r, g, b int) string {
	return fmt.Sprintf("#%02x%02x%02x", r, g, b)
}
