package timing

import (
	"testing"
	"time"
)

func TestElapsedMinutes(t *testing.T) {
	base := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		start    time.Time
		end      time.Time
		expected float64
	}{
		{"zero interval", base, base, 0},
		{"ninety seconds", base, base.Add(90 * time.Second), 1.5},
		{"one hour", base, base.Add(time.Hour), 60},
		{"sub-second noise truncated", base, base.Add(30*time.Second + 900*time.Millisecond), 0.5},
		{"end before start goes negative", base.Add(time.Minute), base, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ElapsedMinutes(tt.start, tt.end)
			if got != tt.expected {
				t.Errorf("ElapsedMinutes() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestRound2(t *testing.T) {
	tests := []struct {
		in       float64
		expected float64
	}{
		{0, 0},
		{1.005, 1.0}, // 1.005 is stored below the exact value in binary
		{45.254999, 45.25},
		{45.255001, 45.26},
		{0.333333, 0.33},
	}

	for _, tt := range tests {
		if got := Round2(tt.in); got != tt.expected {
			t.Errorf("Round2(%v) = %v, want %v", tt.in, got, tt.expected)
		}
	}
}

func TestFormatMinutes(t *testing.T) {
	tests := []struct {
		name     string
		minutes  float64
		expected string
	}{
		{"zero", 0, "0m"},
		{"half minute as seconds", 0.5, "30s"},
		{"hours and minutes", 90, "1h 30m"},
		{"fractional minutes keep decimals", 45.25, "45.25m"},
		{"integral minutes drop decimals", 45.0, "45m"},
		{"trailing zero stripped", 12.50, "12.5m"},
		{"sub-minute rounds to nearest second", 0.755, "45s"},
		{"exact hour", 60, "1h 0m"},
		{"negative clamps to zero", -3, "0m"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatMinutes(tt.minutes); got != tt.expected {
				t.Errorf("FormatMinutes(%v) = %q, want %q", tt.minutes, got, tt.expected)
			}
		})
	}
}
