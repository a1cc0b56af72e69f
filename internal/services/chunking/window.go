package chunking

import (
	"fmt"
	"strings"
)

const (
	defaultWindowSize = 300
	defaultOverlap    = 50
)

// WindowChunker splits text into overlapping windows of whitespace-separated
// words. It is the deterministic baseline strategy and the fallback for the
// semantic strategy.
type WindowChunker struct {
	size    int
	overlap int
}

// NewWindowChunker creates a window chunker, clamping invalid parameters to
// safe values: non-positive size falls back to 300, negative overlap to 50,
// and an overlap at or above the window size to size/3.
func NewWindowChunker(size, overlap int) *WindowChunker {
	if size <= 0 {
		size = defaultWindowSize
	}
	if overlap < 0 {
		overlap = defaultOverlap
	}
	if overlap >= size {
		overlap = size / 3
	}
	return &WindowChunker{size: size, overlap: overlap}
}

// Chunk splits text into windows of at most size words, each window starting
// size-overlap words after the previous one. Text at or under the window
// size yields a single chunk; empty text yields none.
func (c *WindowChunker) Chunk(text string) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	if len(words) <= c.size {
		return []string{strings.Join(words, " ")}
	}

	step := c.size - c.overlap
	if step < 1 {
		step = 1
	}

	var chunks []string
	for start := 0; start < len(words); start += step {
		end := start + c.size
		if end > len(words) {
			end = len(words)
		}
		chunks = append(chunks, strings.Join(words[start:end], " "))
		if end == len(words) {
			break
		}
	}
	return chunks
}

// Size returns the effective window size in words.
func (c *WindowChunker) Size() int {
	return c.size
}

// Overlap returns the effective overlap in words.
func (c *WindowChunker) Overlap() int {
	return c.overlap
}

// Version identifies the strategy and its parameters for change detection.
func (c *WindowChunker) Version() string {
	return fmt.Sprintf("window/%d-%d", c.size, c.overlap)
}
