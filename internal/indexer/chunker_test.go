package indexer

import (
	"strings"
	"testing"
)

func sentence(words int) string {
	parts := make([]string, words)
	for i := range parts {
		parts[i] = "word"
	}
	return strings.Join(parts, " ") + "."
}

func TestChunker_SingleShortText(t *testing.T) {
	c := NewChunker(512, 64)
	chunks := c.Chunk("This is a short sentence about nothing in particular.")
	if len(chunks) != 1 {
		t.Fatalf("chunks=%d", len(chunks))
	}
}

func TestChunker_EmptyText(t *testing.T) {
	c := NewChunker(512, 64)
	for _, text := range []string{"", "   ", "\n\n"} {
		if got := c.Chunk(text); got != nil {
			t.Errorf("Chunk(%q)=%v", text, got)
		}
	}
}

func TestChunker_RespectsWordBudget(t *testing.T) {
	c := NewChunker(50, 10)
	var b strings.Builder
	for i := 0; i < 20; i++ {
		b.WriteString(sentence(10))
		b.WriteByte(' ')
	}
	chunks := c.Chunk(b.String())
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i, chunk := range chunks {
		// A chunk may exceed the budget by at most one sentence plus overlap.
		if n := len(strings.Fields(chunk)); n > 50+10+10 {
			t.Errorf("chunk %d has %d words", i, n)
		}
	}
}

func TestChunker_OverlapCarriesContext(t *testing.T) {
	c := NewChunker(20, 5)
	text := sentence(18) + " " + sentence(18)
	chunks := c.Chunk(text)
	if len(chunks) != 2 {
		t.Fatalf("chunks=%d", len(chunks))
	}
	first := strings.Fields(chunks[0])
	second := strings.Fields(chunks[1])
	// The second chunk starts with the last 5 words of the first.
	for i, w := range first[len(first)-5:] {
		if second[i] != w {
			t.Fatalf("overlap word %d: %q vs %q", i, second[i], w)
		}
	}
}

func TestChunker_DropsTinyChunks(t *testing.T) {
	c := NewChunker(512, 64)
	chunks := c.Chunk("Too short.")
	if len(chunks) != 0 {
		t.Errorf("four-word text should be dropped, got %v", chunks)
	}
}

func TestChunker_SentenceBoundariesPreserved(t *testing.T) {
	c := NewChunker(12, 2)
	text := "The first sentence has quite a few words in it. The second sentence also has plenty of words in it."
	chunks := c.Chunk(text)
	if len(chunks) != 2 {
		t.Fatalf("chunks=%v", chunks)
	}
	if !strings.HasSuffix(chunks[0], "it.") {
		t.Errorf("chunk cut mid-sentence: %q", chunks[0])
	}
}

func TestSplitSentences(t *testing.T) {
	tests := []struct {
		text string
		want int
	}{
		{"One. Two! Three?", 3},
		{"No terminal punctuation", 1},
		{"Version v1.2 shipped today. It works.", 2},
		{"Really?! Yes. ", 2},
		{"", 0},
	}
	for _, tt := range tests {
		got := splitSentences(tt.text)
		if len(got) != tt.want {
			t.Errorf("splitSentences(%q) = %v, want %d parts", tt.text, got, tt.want)
		}
	}
}

func TestPreprocess(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"  plain text  ", "plain text"},
		{"a\x00b\x01c", "abc"},
		{"para one\n\n\n\n\n\npara two", "para one\n\n\npara two"},
		{"wide     gap", "wide  gap"},
		{"tabs\tand\nnewlines survive", "tabs\tand\nnewlines survive"},
	}
	for _, tt := range tests {
		if got := Preprocess(tt.in); got != tt.want {
			t.Errorf("Preprocess(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
