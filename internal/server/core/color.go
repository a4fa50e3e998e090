package core

import (
	"fmt"
	"strings"
)

// Color is one of the eight tile/piece colors. The zero value means "no color".
type Color uint8

const (
	ColorNone Color = iota
	Orange
	Blue
	Purple
	Pink
	Yellow
	Red
	Green
	Brown
)

// NumColors is the palette size; each side owns exactly one piece per color
const NumColors = 8

// Colors lists the palette in its canonical order (C0..C7)
var Colors = [NumColors]Color{Orange, Blue, Purple, Pink, Yellow, Red, Green, Brown}

var colorNames = [...]string{
	ColorNone: "none",
	Orange:    "orange",
	Blue:      "blue",
	Purple:    "purple",
	Pink:      "pink",
	Yellow:    "yellow",
	Red:       "red",
	Green:     "green",
	Brown:     "brown",
}

// Display values, sRGB
var colorHex = [...]string{
	ColorNone: "#000000",
	Orange:    "#d67521",
	Blue:      "#006aab",
	Purple:    "#6e3787",
	Pink:      "#d2709e",
	Yellow:    "#e3c301",
	Red:       "#d13339",
	Green:     "#009056",
	Brown:     "#562600",
}

func (c Color) Valid() bool {
	return c >= Orange && c <= Brown
}

// Index returns the palette position 0..7. Panics on an invalid color.
func (c Color) Index() int {
	if !c.Valid() {
		panic(fmt.Sprintf("core: color %d has no palette index", c))
	}
	return int(c) - 1
}

func (c Color) String() string {
	if int(c) < len(colorNames) {
		return colorNames[c]
	}
	return "unknown"
}

// Hex returns the display value of the color
func (c Color) Hex() string {
	if int(c) < len(colorHex) {
		return colorHex[c]
	}
	return colorHex[ColorNone]
}

// ParseColor maps a color name (case-insensitive) back to its Color
func ParseColor(s string) (Color, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for _, c := range Colors {
		if colorNames[c] == name {
			return c, nil
		}
	}
	return ColorNone, fmt.Errorf("unknown color: %q", s)
}
