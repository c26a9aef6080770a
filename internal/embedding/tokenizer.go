package embedding

// Tokenizer produces BERT-style model inputs (input_ids, attention_mask,
// token_type_ids) for the ONNX embedder.
type Tokenizer interface {
	Tokenize(text string, maxTokens int) (inputIDs, attentionMask, tokenTypeIDs []int64)
}

// WordHashTokenizer splits on whitespace and maps each word to a hashed token
// ID. It is a stand-in for a real WordPiece vocabulary; embeddings remain
// deterministic and usable, just lower quality than with proper tokenization.
type WordHashTokenizer struct{}

// Tokenize returns padded inputs of length maxTokens with [CLS] and [SEP]
// markers.
func (t *WordHashTokenizer) Tokenize(text string, maxTokens int) (inputIDs, attentionMask, tokenTypeIDs []int64) {
	if maxTokens <= 0 {
		maxTokens = 256
	}
	inputIDs = make([]int64, maxTokens)
	attentionMask = make([]int64, maxTokens)
	tokenTypeIDs = make([]int64, maxTokens)

	inputIDs[0] = 101 // [CLS]
	attentionMask[0] = 1

	pos := 1
	word := ""
	flush := func() {
		if word == "" || pos >= maxTokens-1 {
			word = ""
			return
		}
		inputIDs[pos] = int64(hashWord(word)%30000) + 1000
		attentionMask[pos] = 1
		pos++
		word = ""
	}
	for _, r := range text {
		if r == ' ' || r == '\n' || r == '\t' || r == '\r' {
			flush()
		} else {
			word += string(r)
		}
	}
	flush()
	if pos < maxTokens {
		inputIDs[pos] = 102 // [SEP]
		attentionMask[pos] = 1
	}
	return inputIDs, attentionMask, tokenTypeIDs
}

func hashWord(s string) int {
	h := 0
	for _, c := range s {
		h = 31*h + int(c)
	}
	if h < 0 {
		h = -h
	}
	return h
}
