// Package tokens counts tokens for stored chunks so downstream consumers
// can budget context windows.
package tokens

import (
	"fmt"
	"sync"

	"github.com/tiktoken-go/tokenizer"
)

var (
	once sync.Once
	enc  tokenizer.Codec
	errI error
)

func codec() (tokenizer.Codec, error) {
	once.Do(func() {
		enc, errI = tokenizer.Get(tokenizer.Cl100kBase)
	})
	return enc, errI
}

// Count returns the number of tokens in text under the cl100k_base
// encoding.
func Count(text string) (int, error) {
	c, err := codec()
	if err != nil {
		return 0, fmt.Errorf("failed to get tokenizer: %w", err)
	}

	ids, _, err := c.Encode(text)
	if err != nil {
		return 0, fmt.Errorf("failed to encode text: %w", err)
	}
	return len(ids), nil
}
