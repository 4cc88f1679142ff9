package llm

import (
	"fmt"
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

// Tokenizer counts and truncates text with the tiktoken encoding of a given
// model. Encoding data is loaded lazily on first use.
type Tokenizer struct {
	model    string
	encoding string
	enc      *tiktoken.Tiktoken
	once     sync.Once
	initErr  error
}

var modelEncodings = map[string]string{
	"gpt-4o":        "o200k_base",
	"gpt-4o-mini":   "o200k_base",
	"gpt-4-turbo":   "cl100k_base",
	"gpt-4":         "cl100k_base",
	"gpt-3.5-turbo": "cl100k_base",
}

// NewTokenizer creates a tokenizer for the given model, falling back to
// cl100k_base for unknown models.
func NewTokenizer(model string) *Tokenizer {
	encoding, ok := modelEncodings[model]
	if !ok {
		for prefix, e := range modelEncodings {
			if len(model) >= len(prefix) && model[:len(prefix)] == prefix {
				encoding, ok = e, true
				break
			}
		}
	}
	if !ok {
		encoding = "cl100k_base"
	}
	return &Tokenizer{model: model, encoding: encoding}
}

func (t *Tokenizer) init() error {
	t.once.Do(func() {
		enc, err := tiktoken.GetEncoding(t.encoding)
		if err != nil {
			t.initErr = fmt.Errorf("init tiktoken encoding %s: %w", t.encoding, err)
			return
		}
		t.enc = enc
	})
	return t.initErr
}

func (t *Tokenizer) CountTokens(text string) (int, error) {
	if err := t.init(); err != nil {
		return 0, err
	}
	return len(t.enc.Encode(text, nil, nil)), nil
}

// Truncate returns text cut to at most maxTokens tokens. If the encoding
// cannot be initialized the text is returned unchanged so callers degrade to
// an unbudgeted prompt rather than failing the step.
func (t *Tokenizer) Truncate(text string, maxTokens int) string {
	if maxTokens <= 0 {
		return text
	}
	if err := t.init(); err != nil {
		return text
	}
	tokens := t.enc.Encode(text, nil, nil)
	if len(tokens) <= maxTokens {
		return text
	}
	return t.enc.Decode(tokens[:maxTokens])
}

func (t *Tokenizer) Name() string {
	return fmt.Sprintf("tiktoken[%s]", t.encoding)
}
