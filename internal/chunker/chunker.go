// Package chunker splits raw document text into bounded segments suitable
// for embedding and standalone retrieval.
package chunker

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// ErrInvalidConfig is returned for a chunking configuration that can never
// produce valid output. Rejected before any text is processed.
var ErrInvalidConfig = errors.New("invalid chunker configuration")

// Split cuts text into chunks of at most maxLen runes, in document order.
// Cuts prefer the last whitespace boundary inside the window so words stay
// intact; the separator whitespace itself is dropped. When overlap > 0,
// consecutive chunks share roughly that many runes of context across the
// boundary. Whitespace-only spans are dropped, so empty input yields zero
// chunks.
func Split(text string, maxLen, overlap int) ([]string, error) {
	if maxLen <= 0 {
		return nil, fmt.Errorf("%w: max length %d must be positive", ErrInvalidConfig, maxLen)
	}
	if overlap < 0 || overlap >= maxLen {
		return nil, fmt.Errorf("%w: overlap %d must be in [0, %d)", ErrInvalidConfig, overlap, maxLen)
	}

	runes := []rune(text)
	n := len(runes)
	var chunks []string

	start := 0
	for start < n {
		for start < n && unicode.IsSpace(runes[start]) {
			start++
		}
		if start >= n {
			break
		}

		end := start + maxLen
		if end >= n {
			end = n
		} else if !unicode.IsSpace(runes[end]) {
			// Mid-word cut: back up to the last space inside the window.
			if b := lastSpace(runes, start, end); b > start {
				end = b
			}
		}

		piece := strings.TrimRightFunc(string(runes[start:end]), unicode.IsSpace)
		if piece != "" {
			chunks = append(chunks, piece)
		}

		if end >= n {
			break
		}
		next := end - overlap
		if next <= start {
			next = end
		}
		start = next
	}

	return chunks, nil
}

func lastSpace(runes []rune, start, end int) int {
	for i := end - 1; i > start; i-- {
		if unicode.IsSpace(runes[i]) {
			return i
		}
	}
	return -1
}
