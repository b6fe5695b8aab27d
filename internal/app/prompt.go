package app

import (
	"strconv"
	"strings"

	"github.com/muesli/termenv"

	"ecmd/internal/config"
	"ecmd/internal/console"
)

// Prompt colours used by "auto", chosen by background brightness.
const (
	autoDark  console.Color = 10
	autoLight console.Color = 2
)

// promptAttr turns the prompt settings into a console style that out can
// display. A nil out or a terminal without colour gets no colour.
func promptAttr(cfg config.PromptConfig, out *termenv.Output) console.Attr {
	a := console.DefaultAttr
	a.Bold = cfg.Bold
	if out == nil || out.Profile == termenv.Ascii {
		return a
	}
	switch strings.ToLower(cfg.Color) {
	case "", "none":
	case "auto":
		a.Fg = autoLight
		if out.HasDarkBackground() {
			a.Fg = autoDark
		}
	default:
		a.Fg = paletteColor(out.Profile, cfg.Color)
	}
	return a
}

// paletteColor converts a colour number or #rrggbb value to the nearest
// palette index p supports. The console draws palette colours only, so true
// colour terminals get the 256-colour approximation.
func paletteColor(p termenv.Profile, value string) console.Color {
	var c termenv.Color
	if strings.HasPrefix(value, "#") {
		c = termenv.RGBColor(value)
	} else {
		n, err := strconv.Atoi(value)
		if err != nil {
			return console.DefaultColor
		}
		c = termenv.ANSI256Color(n)
	}
	if p == termenv.TrueColor {
		p = termenv.ANSI256
	}
	switch v := p.Convert(c).(type) {
	case termenv.ANSIColor:
		return console.Color(v)
	case termenv.ANSI256Color:
		return console.Color(v)
	}
	return console.DefaultColor
}
