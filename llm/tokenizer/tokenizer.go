// Package tokenizer provides token counting for prompt budget enforcement.
//
// The tiktoken-backed implementation covers OpenAI-family models; the
// estimator is the dependency-free fallback used when the encoding for a
// model is unavailable.
package tokenizer

import (
	"sync"
	"unicode"

	"github.com/pkoukk/tiktoken-go"
)

// Tokenizer counts tokens in text.
type Tokenizer interface {
	CountTokens(text string) int
}

// TiktokenTokenizer counts tokens with a tiktoken encoding, loading it
// lazily on first use. On load failure it degrades to the estimator.
type TiktokenTokenizer struct {
	encoding string
	once     sync.Once
	enc      *tiktoken.Tiktoken
	fallback Tokenizer
}

// NewTiktokenTokenizer creates a tokenizer for the given encoding name
// (e.g. "cl100k_base"). An empty name selects cl100k_base.
func NewTiktokenTokenizer(encoding string) *TiktokenTokenizer {
	if encoding == "" {
		encoding = "cl100k_base"
	}
	return &TiktokenTokenizer{
		encoding: encoding,
		fallback: Estimator{},
	}
}

// CountTokens implements Tokenizer.
func (t *TiktokenTokenizer) CountTokens(text string) int {
	t.once.Do(func() {
		enc, err := tiktoken.GetEncoding(t.encoding)
		if err == nil {
			t.enc = enc
		}
	})
	if t.enc == nil {
		return t.fallback.CountTokens(text)
	}
	return len(t.enc.Encode(text, nil, nil))
}

// Estimator approximates token counts without an encoding table: roughly
// four latin characters per token, one token per wide (CJK) rune.
type Estimator struct{}

// CountTokens implements Tokenizer.
func (Estimator) CountTokens(text string) int {
	latin, wide := 0, 0
	for _, r := range text {
		if r > unicode.MaxASCII {
			wide++
		} else {
			latin++
		}
	}
	tokens := latin/4 + wide
	if tokens == 0 && len(text) > 0 {
		tokens = 1
	}
	return tokens
}
