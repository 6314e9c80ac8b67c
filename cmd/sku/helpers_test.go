package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatFileSize(t *testing.T) {
	tests := []struct {
		want string
		size int64
	}{
		{size: 0, want: "0 B"},
		{size: 1023, want: "1023 B"},
		{size: 1024, want: "1.0 KB"},
		{size: 1536, want: "1.5 KB"},
		{size: 5 * 1024 * 1024, want: "5.0 MB"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, formatFileSize(tt.size))
		})
	}
}

func TestFormatRelativeTime(t *testing.T) {
	now := time.Now()
	tests := []struct {
		at   time.Time
		name string
		want string
	}{
		{name: "seconds", at: now.Add(-10 * time.Second), want: "just now"},
		{name: "minutes", at: now.Add(-5*time.Minute - time.Second), want: "5 minutes ago"},
		{name: "hours", at: now.Add(-3*time.Hour - time.Second), want: "3 hours ago"},
		{name: "days", at: now.Add(-2*24*time.Hour - time.Second), want: "2 days ago"},
		{name: "date", at: time.Date(2024, 3, 1, 0, 0, 0, 0, time.Local), want: "2024-03-01"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, formatRelativeTime(tt.at))
		})
	}
}

func TestOrDash(t *testing.T) {
	assert.Equal(t, "-", orDash(""))
	assert.Equal(t, "pvc", orDash("pvc"))
}
