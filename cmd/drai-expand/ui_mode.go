package main

import (
	"fmt"
	"os"
	"strings"
)

// uiMode is the --ui flag of batch. It implements pflag.Value so a bad
// value is rejected while flags are parsed.
type uiMode string

const (
	uiModeAuto uiMode = "auto"
	uiModeOn   uiMode = "on"
	uiModeOff  uiMode = "off"
)

func readUIMode(value string) (uiMode, error) {
	switch m := uiMode(strings.TrimSpace(strings.ToLower(value))); m {
	case "":
		return uiModeAuto, nil
	case uiModeAuto, uiModeOn, uiModeOff:
		return m, nil
	default:
		return "", fmt.Errorf("invalid --ui value %q (expected auto|on|off)", value)
	}
}

func (m *uiMode) String() string { return string(*m) }

func (m *uiMode) Set(value string) error {
	parsed, err := readUIMode(value)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

func (m *uiMode) Type() string { return "auto|on|off" }

// useTUI reports whether batch progress is drawn with Bubble Tea. In auto
// mode it needs a terminal on stdout.
func (m uiMode) useTUI() bool {
	switch m {
	case uiModeOn:
		return true
	case uiModeOff:
		return false
	default:
		return isTerminal(os.Stdout)
	}
}
