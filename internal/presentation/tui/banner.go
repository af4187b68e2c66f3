package tui

import (
	"fmt"

	"github.com/muesli/termenv"
)

// PrintBanner outputs the ASCII art banner for the operator console.
func PrintBanner(version string) {
	p := termenv.ColorProfile()
	// Subtle gradient, warm end of the spectrum.
	s1 := termenv.String(`                _       _           `).Foreground(p.Color("#818cf8"))
	s2 := termenv.String(`  _ __ ___   __| |_ ___(_)_ __ ___  `).Foreground(p.Color("#a78bfa"))
	s3 := termenv.String(` | '__/ _ \ / _| __/ _ \ | '__/ _ \ `).Foreground(p.Color("#c084fc"))
	s4 := termenv.String(` | | | (_) | (_| ||  __/ | | | (_) |`).Foreground(p.Color("#e879f9"))
	s5 := termenv.String(` |_|  \___/ \__|\__\___|_|_|  \___/ `).Foreground(p.Color("#f472b6"))
	s6 := termenv.String("             "+version).Foreground(p.Color("#fb7185"))

	fmt.Println()
	fmt.Println(s1)
	fmt.Println(s2)
	fmt.Println(s3)
	fmt.Println(s4)
	fmt.Println(s5)
	fmt.Println(s6)
	fmt.Println()
}
