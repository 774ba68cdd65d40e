// Package sysutil holds the small string parsers shared by the command,
// config and HTTP layers.
package sysutil

import (
	"errors"
	"strings"

	"github.com/rs/zerolog"
)

// ErrNotBinaryFlag is returned by ParseBinaryFlag for anything but 0 or 1.
var ErrNotBinaryFlag = errors.New("must be 0 or 1")

// LogLevel maps a level name to zerolog. "warning" is accepted for warn;
// empty or unknown names fall back to info.
func LogLevel(name string) zerolog.Level {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "warning" {
		name = "warn"
	}
	lvl, err := zerolog.ParseLevel(name)
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

// SetLogLevel applies LogLevel(name) globally.
func SetLogLevel(name string) {
	zerolog.SetGlobalLevel(LogLevel(name))
}

// ParseBool reads the usual environment spellings of a switch
// (1/0, true/false, yes/no, y/n, on/off), ignoring case and spaces.
// ok is false when v is none of them.
func ParseBool(v string) (val, ok bool) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "y", "on":
		return true, true
	case "0", "false", "no", "n", "off":
		return false, true
	}
	return false, false
}

// ParseBinaryFlag is the strict form used for query filters: only "0" and
// "1" are accepted.
func ParseBinaryFlag(v string) (bool, error) {
	switch strings.TrimSpace(v) {
	case "1":
		return true, nil
	case "0":
		return false, nil
	}
	return false, ErrNotBinaryFlag
}
