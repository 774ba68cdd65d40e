package sysutil

import (
	"errors"
	"testing"

	"github.com/rs/zerolog"
)

func TestLogLevel(t *testing.T) {
	cases := map[string]zerolog.Level{
		"debug":     zerolog.DebugLevel,
		"  DeBuG  ": zerolog.DebugLevel,
		"trace":     zerolog.TraceLevel,
		"info":      zerolog.InfoLevel,
		"":          zerolog.InfoLevel,
		"warn":      zerolog.WarnLevel,
		"Warning":   zerolog.WarnLevel,
		"error":     zerolog.ErrorLevel,
		"fatal":     zerolog.FatalLevel,
		"panic":     zerolog.PanicLevel,
		"disabled":  zerolog.Disabled,
		"verbose":   zerolog.InfoLevel,
	}
	for in, want := range cases {
		if got := LogLevel(in); got != want {
			t.Fatalf("LogLevel(%q) = %v; want %v", in, got, want)
		}
	}
}

func TestSetLogLevel_AppliesGlobally(t *testing.T) {
	orig := zerolog.GlobalLevel()
	t.Cleanup(func() { zerolog.SetGlobalLevel(orig) })

	SetLogLevel("error")
	if zerolog.GlobalLevel() != zerolog.ErrorLevel {
		t.Fatalf("global level = %v", zerolog.GlobalLevel())
	}
	SetLogLevel("nonsense")
	if zerolog.GlobalLevel() != zerolog.InfoLevel {
		t.Fatalf("unknown name should reset to info, got %v", zerolog.GlobalLevel())
	}
}

func TestParseBool(t *testing.T) {
	for _, v := range []string{"1", "TRUE", " yes ", "Y", "on"} {
		if val, ok := ParseBool(v); !val || !ok {
			t.Fatalf("ParseBool(%q) = %v,%v; want true,true", v, val, ok)
		}
	}
	for _, v := range []string{"0", "false", "No", "n", " off"} {
		if val, ok := ParseBool(v); val || !ok {
			t.Fatalf("ParseBool(%q) = %v,%v; want false,true", v, val, ok)
		}
	}
	for _, v := range []string{"", "  ", "maybe", "2"} {
		if _, ok := ParseBool(v); ok {
			t.Fatalf("ParseBool(%q) should not be recognised", v)
		}
	}
}

func TestParseBinaryFlag(t *testing.T) {
	if v, err := ParseBinaryFlag("1"); err != nil || !v {
		t.Fatalf("1 -> %v, %v", v, err)
	}
	if v, err := ParseBinaryFlag(" 0 "); err != nil || v {
		t.Fatalf("0 -> %v, %v", v, err)
	}
	for _, bad := range []string{"true", "yes", "2", "abc", ""} {
		if _, err := ParseBinaryFlag(bad); !errors.Is(err, ErrNotBinaryFlag) {
			t.Fatalf("ParseBinaryFlag(%q) err = %v", bad, err)
		}
	}
}
