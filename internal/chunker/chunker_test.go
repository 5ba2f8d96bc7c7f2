package chunker

import (
	"errors"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSplit_WordBoundary(t *testing.T) {
	chunks, err := Split("the quick brown fox", 10, 0)
	if err != nil {
		t.Fatalf("Split() error: %v", err)
	}

	want := []string{"the quick", "brown fox"}
	if len(chunks) != len(want) {
		t.Fatalf("got %d chunks %q, want %d", len(chunks), chunks, len(want))
	}
	for i := range want {
		if chunks[i] != want[i] {
			t.Errorf("chunk %d = %q, want %q", i, chunks[i], want[i])
		}
	}
}

func TestSplit_EmptyAndWhitespace(t *testing.T) {
	for _, input := range []string{"", "   ", "\n\t\n"} {
		chunks, err := Split(input, 10, 0)
		if err != nil {
			t.Fatalf("Split(%q) error: %v", input, err)
		}
		if len(chunks) != 0 {
			t.Errorf("Split(%q) = %q, want no chunks", input, chunks)
		}
	}
}

func TestSplit_ShortInput(t *testing.T) {
	chunks, err := Split("tiny", 100, 10)
	if err != nil {
		t.Fatalf("Split() error: %v", err)
	}
	if len(chunks) != 1 || chunks[0] != "tiny" {
		t.Errorf("got %q, want one chunk 'tiny'", chunks)
	}
}

func TestSplit_LongWordHardCut(t *testing.T) {
	word := strings.Repeat("x", 25)
	chunks, err := Split(word, 10, 0)
	if err != nil {
		t.Fatalf("Split() error: %v", err)
	}
	if len(chunks) != 3 {
		t.Fatalf("got %d chunks %q, want 3", len(chunks), chunks)
	}
	if strings.Join(chunks, "") != word {
		t.Errorf("hard-cut chunks do not reassemble the word: %q", chunks)
	}
	for i, c := range chunks {
		if utf8.RuneCountInString(c) > 10 {
			t.Errorf("chunk %d exceeds max length: %q", i, c)
		}
	}
}

func TestSplit_MaxLenRespected(t *testing.T) {
	text := strings.Repeat("several words of reasonable length ", 40)
	chunks, err := Split(text, 50, 0)
	if err != nil {
		t.Fatalf("Split() error: %v", err)
	}
	for i, c := range chunks {
		if utf8.RuneCountInString(c) > 50 {
			t.Errorf("chunk %d has %d runes, max 50: %q", i, utf8.RuneCountInString(c), c)
		}
		if c != strings.TrimSpace(c) {
			t.Errorf("chunk %d has surrounding whitespace: %q", i, c)
		}
	}
}

func TestSplit_Overlap(t *testing.T) {
	text := "alpha beta gamma delta epsilon zeta eta theta"
	chunks, err := Split(text, 20, 6)
	if err != nil {
		t.Fatalf("Split() error: %v", err)
	}
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %q", chunks)
	}

	// Every word must survive somewhere.
	joined := strings.Join(chunks, " ")
	for _, word := range strings.Fields(text) {
		if !strings.Contains(joined, word) {
			t.Errorf("word %q lost during splitting", word)
		}
	}
}

// Without overlap the chunks reconstruct the input modulo whitespace: the
// word sequence survives intact, only separator runs at chunk borders are
// dropped. Single-space inputs therefore reassemble exactly.
func TestSplit_Reconstruction(t *testing.T) {
	inputs := []string{
		"the quick brown fox jumps over the lazy dog",
		"line one\nline two\n\nline four\ttabbed",
		"  leading and   irregular    gaps trailing  ",
	}
	for _, input := range inputs {
		chunks, err := Split(input, 12, 0)
		if err != nil {
			t.Fatalf("Split(%q) error: %v", input, err)
		}
		got := strings.Fields(strings.Join(chunks, " "))
		want := strings.Fields(input)
		if strings.Join(got, " ") != strings.Join(want, " ") {
			t.Errorf("Split(%q) reassembles to %q, want words %q", input, got, want)
		}
	}

	exact := "the quick brown fox jumps over the lazy dog"
	chunks, err := Split(exact, 12, 0)
	if err != nil {
		t.Fatalf("Split(%q) error: %v", exact, err)
	}
	if rejoined := strings.Join(chunks, " "); rejoined != exact {
		t.Errorf("single-spaced input reassembles to %q, want %q", rejoined, exact)
	}
}

func TestSplit_RuneBoundaries(t *testing.T) {
	text := strings.Repeat("日本語のテキスト ", 10)
	chunks, err := Split(text, 12, 0)
	if err != nil {
		t.Fatalf("Split() error: %v", err)
	}
	for i, c := range chunks {
		if !utf8.ValidString(c) {
			t.Errorf("chunk %d is not valid UTF-8: %q", i, c)
		}
		if utf8.RuneCountInString(c) > 12 {
			t.Errorf("chunk %d has %d runes, max 12", i, utf8.RuneCountInString(c))
		}
	}
}

func TestSplit_InvalidConfig(t *testing.T) {
	cases := []struct {
		name    string
		maxLen  int
		overlap int
	}{
		{"zero max", 0, 0},
		{"negative max", -5, 0},
		{"negative overlap", 10, -1},
		{"overlap equals max", 10, 10},
		{"overlap exceeds max", 10, 15},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Split("some text", tc.maxLen, tc.overlap)
			if !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("Split(maxLen=%d, overlap=%d) error = %v, want ErrInvalidConfig",
					tc.maxLen, tc.overlap, err)
			}
		})
	}
}

func TestExtractMarkdownText(t *testing.T) {
	src := []byte("# Pump manual\n\nThe *coolant* valve sticks.\n\n- check seals\n- check hoses\n\n```\nvalve --reset\n```\n")
	got := ExtractMarkdownText(src)

	for _, want := range []string{"Pump manual", "The coolant valve sticks.", "check seals", "check hoses", "valve --reset"} {
		if !strings.Contains(got, want) {
			t.Errorf("extracted text missing %q:\n%s", want, got)
		}
	}
	for _, syntax := range []string{"#", "*", "```", "- "} {
		if strings.Contains(got, syntax) {
			t.Errorf("extracted text still contains markdown syntax %q:\n%s", syntax, got)
		}
	}
}

func TestExtractMarkdownText_Empty(t *testing.T) {
	if got := ExtractMarkdownText(nil); got != "" {
		t.Errorf("ExtractMarkdownText(nil) = %q, want empty", got)
	}
}
