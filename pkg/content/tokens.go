package content

import (
	"sync"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"
)

// encodingName is the tokenizer vocabulary used for counting; cl100k_base
// is what current chat models bill against.
const encodingName = "cl100k_base"

var (
	encoderOnce sync.Once
	sharedEnc   *tiktoken.Tiktoken
)

// encoder returns the shared encoding, or nil when it cannot be initialized
// (first use fetches the vocabulary, which fails offline without a cache).
func encoder() *tiktoken.Tiktoken {
	encoderOnce.Do(func() {
		enc, err := tiktoken.GetEncoding(encodingName)
		if err != nil {
			return
		}
		sharedEnc = enc
	})
	return sharedEnc
}

// CountTokens reports how many tokens text encodes to. When the encoder is
// unavailable it falls back to the rough 1 token per 4 characters estimate.
func CountTokens(text string) int {
	if enc := encoder(); enc != nil {
		return len(enc.Encode(text, nil, nil))
	}
	return approximateTokens(text)
}

func approximateTokens(text string) int {
	return (len(text) + 3) / 4
}

// Truncate cuts text down to at most maxTokens tokens. The result is always
// a prefix of the input; text already within budget comes back unchanged.
func Truncate(text string, maxTokens int) string {
	if maxTokens <= 0 {
		return ""
	}

	if enc := encoder(); enc != nil {
		ids := enc.Encode(text, nil, nil)
		if len(ids) <= maxTokens {
			return text
		}
		return enc.Decode(ids[:maxTokens])
	}

	// Fallback mirrors the estimate: 4 bytes per token, cut on a rune
	// boundary.
	budget := maxTokens * 4
	if len(text) <= budget {
		return text
	}
	for budget > 0 && !utf8.RuneStart(text[budget]) {
		budget--
	}
	return text[:budget]
}
