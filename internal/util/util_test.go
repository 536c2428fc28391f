package util

import (
	"path/filepath"
	"testing"
)

func TestGetXDGDataDir(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/tmp/data")
	got, err := GetXDGDataDir()
	if err != nil {
		t.Fatalf("GetXDGDataDir() error = %v", err)
	}
	if want := filepath.Join("/tmp/data", "abeval"); got != want {
		t.Errorf("GetXDGDataDir() = %q, want %q", got, want)
	}

	t.Setenv("XDG_DATA_HOME", "")
	t.Setenv("HOME", "/home/tester")
	got, err = GetXDGDataDir()
	if err != nil {
		t.Fatalf("GetXDGDataDir() error = %v", err)
	}
	if want := filepath.Join("/home/tester", ".local", "share", "abeval"); got != want {
		t.Errorf("GetXDGDataDir() = %q, want %q", got, want)
	}
}

func TestFormatCount(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1001, "1,001"},
		{1549, "1,549"},
		{2500001, "2,500,001"},
	}
	for _, tt := range tests {
		if got := FormatCount(tt.in); got != tt.want {
			t.Errorf("FormatCount(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatPercent(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0.0%"},
		{0.18, "18.0%"},
		{0.1834, "18.3%"},
		{1, "100.0%"},
	}
	for _, tt := range tests {
		if got := FormatPercent(tt.in); got != tt.want {
			t.Errorf("FormatPercent(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestBoolToInt64(t *testing.T) {
	if BoolToInt64(true) != 1 || BoolToInt64(false) != 0 {
		t.Error("BoolToInt64 should map true to 1 and false to 0")
	}
}
