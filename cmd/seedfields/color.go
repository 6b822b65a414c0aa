package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"golang.org/x/term"
)

// applyColorMode switches coloured output on or off for --color.
// In auto mode colour is used only when f is a terminal and NO_COLOR is unset.
func applyColorMode(mode string, f *os.File) error {
	switch mode {
	case "on":
		color.NoColor = false
	case "off":
		color.NoColor = true
	case "auto":
		color.NoColor = os.Getenv("NO_COLOR") != "" || !isTerminal(f)
	default:
		return fmt.Errorf("invalid color mode %q (want auto|on|off)", mode)
	}
	return nil
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
