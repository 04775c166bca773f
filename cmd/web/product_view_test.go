package main

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestImageHostsAllowed(t *testing.T) {
	hosts := newImageHosts([]string{" CDN.10minuteschool.com ", ""})
	tests := []struct {
		raw  string
		want bool
	}{
		{"https://cdn.10minuteschool.com/a.png", true},
		{"https://CDN.10MINUTESCHOOL.COM/a.png", true},
		{"/assets/img/logo.svg", true},
		{"//cdn.10minuteschool.com/a.png", false},
		{"http://cdn.10minuteschool.com/a.png", false},
		{"https://evil.example.com/a.png", false},
		{"javascript:alert(1)", false},
		{"  ", false},
	}
	for _, tc := range tests {
		require.Equal(t, tc.want, hosts.allowed(tc.raw), tc.raw)
	}
}

func TestCSSColor(t *testing.T) {
	require.Equal(t, "#0E1A2B", cssColor(" #0E1A2B "))
	require.Equal(t, "#fff", cssColor("#fff"))
	require.Empty(t, cssColor("red"))
	require.Empty(t, cssColor("#12;}body{"))
	require.Empty(t, cssColor("#ab"))
}

func TestCSSURLQuotes(t *testing.T) {
	b := &viewBuilder{hosts: newImageHosts([]string{"cdn.10minuteschool.com"})}
	require.Equal(t, "url('https://cdn.10minuteschool.com/it%27s.png')", b.cssURL("https://cdn.10minuteschool.com/it's.png"))
	require.Empty(t, b.cssURL("https://evil.example.com/bg.png"))
}
