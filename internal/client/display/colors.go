package display

import (
	"fmt"
	"strconv"

	"kamisado/internal/server/core"
)

// Terminal color codes
const (
	Reset   = "\033[0m"
	Bold    = "\033[1m"
	Red     = "\033[31m"
	Green   = "\033[32m"
	Yellow  = "\033[33m"
	Blue    = "\033[34m"
	Magenta = "\033[35m"
	Cyan    = "\033[36m"
	White   = "\033[37m"
)

// Prompt returns a colored prompt string
func Prompt(text string) string {
	return Yellow + text + Yellow + " > " + Reset
}

// xterm256 maps a "#rrggbb" value onto the 6x6x6 color cube
func xterm256(hex string) int {
	if len(hex) != 7 || hex[0] != '#' {
		return 16
	}
	rgb, err := strconv.ParseUint(hex[1:], 16, 32)
	if err != nil {
		return 16
	}
	level := func(v uint64) int {
		return int((v*5 + 127) / 255)
	}
	r, g, b := level(rgb>>16&0xff), level(rgb>>8&0xff), level(rgb&0xff)
	return 16 + 36*r + 6*g + b
}

// Bg returns the 256-color background sequence for a palette color
func Bg(c core.Color) string {
	return fmt.Sprintf("\033[48;5;%dm", xterm256(c.Hex()))
}

// Fg returns the 256-color foreground sequence for a palette color
func Fg(c core.Color) string {
	return fmt.Sprintf("\033[38;5;%dm", xterm256(c.Hex()))
}

// ForSide colors a side label, white in blue and black in red
func ForSide(side string) string {
	if side == "w" {
		return Blue + "White" + Reset
	}
	return Red + "Black" + Reset
}
