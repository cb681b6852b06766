// Authgate - Request Authentication and Session Integrity Engine
// Copyright 2026 Authgate Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/govportal/authgate

package captcha

import (
	"fmt"
	"math/rand"
	"strings"
)

// palettes are picked whole per render so glyphs and noise stay legible
// against the background.
var palettes = []struct {
	background string
	glyphs     []string
	noise      string
}{
	{"#f4f6f8", []string{"#1a3a5c", "#2c5f8a", "#14532d", "#7c2d12"}, "#9aa8b5"},
	{"#fdf6e3", []string{"#586e75", "#b58900", "#cb4b16", "#2aa198"}, "#c8bfa5"},
	{"#eef2ff", []string{"#3730a3", "#6d28d9", "#1e40af", "#9d174d"}, "#b5bce0"},
	{"#f0fdf4", []string{"#166534", "#115e59", "#3f6212", "#854d0e"}, "#a9c9ae"},
}

// renderSVG draws the answer with per-generation randomized dimensions, font
// size, glyph jitter, and noise lines to resist template matching.
func renderSVG(answer string) string {
	//nolint:gosec // G404: math/rand is fine for visual jitter (not security)
	width := 180 + rand.Intn(60)
	height := 60 + rand.Intn(20)
	fontSize := 24 + rand.Intn(9)
	noiseLines := 4 + rand.Intn(5)
	palette := palettes[rand.Intn(len(palettes))]

	var b strings.Builder
	fmt.Fprintf(&b,
		`<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">`,
		width, height, width, height)
	fmt.Fprintf(&b, `<rect width="%d" height="%d" fill="%s"/>`, width, height, palette.background)

	for i := 0; i < noiseLines; i++ {
		fmt.Fprintf(&b,
			`<line x1="%d" y1="%d" x2="%d" y2="%d" stroke="%s" stroke-width="%d" opacity="0.6"/>`,
			rand.Intn(width), rand.Intn(height),
			rand.Intn(width), rand.Intn(height),
			palette.noise, 1+rand.Intn(2))
	}

	cell := width / (len(answer) + 1)
	for i, glyph := range answer {
		x := cell/2 + cell*(i+1) - cell/4 + rand.Intn(cell/2) - cell/4
		y := height/2 + fontSize/3 + rand.Intn(9) - 4
		rotation := rand.Intn(41) - 20
		color := palette.glyphs[rand.Intn(len(palette.glyphs))]
		fmt.Fprintf(&b,
			`<text x="%d" y="%d" font-family="monospace" font-size="%d" font-weight="bold" fill="%s" transform="rotate(%d %d %d)">%c</text>`,
			x, y, fontSize, color, rotation, x, y, glyph)
	}

	b.WriteString(`</svg>`)
	return b.String()
}
