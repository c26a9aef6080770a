package embedding

import (
	"context"
	"math"
	"testing"
)

func TestMockEmbedder_Deterministic(t *testing.T) {
	e := NewMockEmbedder(32)
	ctx := context.Background()
	a, err := e.Embed(ctx, "the quick brown fox")
	if err != nil {
		t.Fatal(err)
	}
	b, _ := e.Embed(ctx, "the quick brown fox")
	for i := range a {
		if a[i] != b[i] {
			t.Fatal("same text should embed identically")
		}
	}
	if len(a) != 32 {
		t.Errorf("len=%d", len(a))
	}
}

func TestMockEmbedder_UnitNorm(t *testing.T) {
	e := NewMockEmbedder(16)
	for _, text := range []string{"hello world", "", "one"} {
		emb, err := e.Embed(context.Background(), text)
		if err != nil {
			t.Fatal(err)
		}
		var sum float64
		for _, v := range emb {
			sum += float64(v * v)
		}
		if math.Abs(sum-1) > 1e-5 {
			t.Errorf("norm^2=%f for %q", sum, text)
		}
	}
}

func TestMockEmbedder_SharedVocabularyIsCloser(t *testing.T) {
	e := NewMockEmbedder(64)
	ctx := context.Background()
	a, _ := e.Embed(ctx, "postgres connection pooling")
	b, _ := e.Embed(ctx, "postgres connection timeout")
	c, _ := e.Embed(ctx, "banana smoothie recipe")
	dot := func(x, y []float32) float64 {
		var s float64
		for i := range x {
			s += float64(x[i] * y[i])
		}
		return s
	}
	if dot(a, b) <= dot(a, c) {
		t.Error("texts sharing words should be more similar")
	}
}

func TestMockEmbedder_Batch(t *testing.T) {
	e := NewMockEmbedder(8)
	embs, err := e.EmbedBatch(context.Background(), []string{"a", "b", "c"})
	if err != nil {
		t.Fatal(err)
	}
	if len(embs) != 3 {
		t.Fatalf("expected 3 embeddings, got %d", len(embs))
	}
}
