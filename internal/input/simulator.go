// Package input holds the best-effort desktop integration shims: paste
// keystroke synthesis and foreground-application lookup. Both degrade to
// no-ops on systems without the underlying tooling.
package input

import (
	"fmt"
	"os/exec"
	"strings"
)

// Simulator synthesizes a paste keystroke into the focused application.
type Simulator interface {
	SendPaste() error
}

// XdotoolSimulator uses the xdotool CLI. Failure is reported to the caller,
// who treats paste simulation as best-effort.
type XdotoolSimulator struct {
	// Binary overrides the executable name, empty means "xdotool" on PATH.
	Binary string
}

func (s *XdotoolSimulator) SendPaste() error {
	bin := s.Binary
	if bin == "" {
		bin = "xdotool"
	}
	if err := exec.Command(bin, "key", "--clearmodifiers", "ctrl+v").Run(); err != nil {
		return fmt.Errorf("xdotool paste: %w", err)
	}
	return nil
}

// ActiveAppName returns the title of the focused window, or "" when it cannot
// be determined. Used as the best-effort sourceApp of a capture.
func ActiveAppName() string {
	out, err := exec.Command("xdotool", "getactivewindow", "getwindowname").Output()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}
