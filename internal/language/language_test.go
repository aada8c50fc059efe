package language

import "testing"

func TestToISO2(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"zh", "zh"},
		{"ZH", "zh"},
		{"zho", "zh"},
		{"chi", "zh"},
		{"Chinese", "zh"},
		{"普通话", "zh"},
		{"zh-TW", "zh"},
		{"cantonese", "yue"},
		{" english ", "en"},
		{"日本語", "ja"},
		{"xx", "xx"},
		{"klingon", ""},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ToISO2(tt.input); got != tt.want {
				t.Errorf("ToISO2(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestDisplayName(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"zh", "Chinese"},
		{"fra", "French"},
		{"", "Unknown"},
		{"xx", "XX"},
	}
	for _, tt := range tests {
		if got := DisplayName(tt.input); got != tt.want {
			t.Errorf("DisplayName(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestIsChinese(t *testing.T) {
	for _, code := range []string{"zh", "中文", "yue", "zh-hans"} {
		if !IsChinese(code) {
			t.Errorf("IsChinese(%q) = false", code)
		}
	}
	for _, code := range []string{"en", "ja", ""} {
		if IsChinese(code) {
			t.Errorf("IsChinese(%q) = true", code)
		}
	}
}
