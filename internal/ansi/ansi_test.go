package ansi

import "testing"

func TestStrip(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "orbit done", "orbit done"},
		{"colored", Bold + Green + "✓ done" + Reset, "✓ done"},
		{"clear line", "\r" + ClearLine + "3/8", "\r3/8"},
		{"truncated escape", "x\033[", "x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Strip(tt.in); got != tt.want {
				t.Errorf("Strip(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
