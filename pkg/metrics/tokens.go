package metrics

import (
	"sync"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"
)

const defaultEncoding = "cl100k_base"

// TokenCounter estimates prompt sizes with a BPE encoding. The encoding is
// loaded on first use; when it cannot be loaded a character based estimate is used.
type TokenCounter struct {
	encoding string

	once sync.Once
	enc  *tiktoken.Tiktoken
	err  error
}

// NewTokenCounter returns a counter for the cl100k_base encoding.
func NewTokenCounter() *TokenCounter {
	return &TokenCounter{encoding: defaultEncoding}
}

// Count returns the estimated token count of text.
func (c *TokenCounter) Count(text string) int {
	if text == "" {
		return 0
	}
	if c == nil {
		return approximateTokens(text)
	}
	c.once.Do(func() {
		c.enc, c.err = tiktoken.GetEncoding(c.encoding)
	})
	if c.err != nil || c.enc == nil {
		return approximateTokens(text)
	}
	return len(c.enc.Encode(text, nil, nil))
}

// approximateTokens assumes roughly two characters per token, which is close
// for mixed Hangul and Latin prompts.
func approximateTokens(text string) int {
	return utf8.RuneCountInString(text)/2 + 1
}
