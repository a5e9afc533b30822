package protocol

import "testing"

func TestExtractCommandTruncatesAtNewline(t *testing.T) {
	got := ExtractCommand([]byte("get_counter\nset_counter 9\n"))
	if got != "get_counter" {
		t.Fatalf("unexpected command: %q", got)
	}
}

func TestExtractCommandWithoutNewlineUsesWholeBuffer(t *testing.T) {
	got := ExtractCommand([]byte("get_counter"))
	if got != "get_counter" {
		t.Fatalf("unexpected command: %q", got)
	}
}

func TestParseLeadingInt(t *testing.T) {
	cases := []struct {
		in   string
		want int64
	}{
		{"42", 42},
		{"42\n", 42},
		{"-17", -17},
		{"+5", 5},
		{"  12", 12},
		{"12abc", 12},
		{"abc", 0},
		{"", 0},
		{"-", 0},
		{"9223372036854775807", 9223372036854775807},
		{"9999999999999999999999", 9223372036854775807},
		{"-9999999999999999999999", -9223372036854775808},
	}
	for _, tc := range cases {
		if got := ParseLeadingInt(tc.in); got != tc.want {
			t.Fatalf("ParseLeadingInt(%q) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestResponseFormatting(t *testing.T) {
	if got := FormatCounter(-3); got != "-3\n" {
		t.Fatalf("unexpected counter response: %q", got)
	}
	if got := FormatPrevious(41); got != "previous value 41\n" {
		t.Fatalf("unexpected previous response: %q", got)
	}
}
