package chunking

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/ternarybob/curator/internal/interfaces"
)

const semanticPrompt = `You are a text chunking assistant. Split the following text into coherent, self-contained chunks of roughly 150 to 400 words each. Each chunk should cover a single topic or idea and must preserve the original wording exactly. Do not summarize, rephrase or drop any text.

Respond with ONLY a JSON array of strings, where each string is one chunk. No explanation, no markdown fences.

Text:
%s`

// jsonArrayPattern matches the first bracketed JSON array in a model
// response, tolerating prose or fences around it.
var jsonArrayPattern = regexp.MustCompile(`(?s)\[.*\]`)

// SemanticChunker asks an LLM to split text at topic boundaries. Any
// failure (transport, malformed response, empty result) is returned as an
// error so the caller can fall back to the window strategy.
type SemanticChunker struct {
	generator interfaces.TextGenerator
}

// NewSemanticChunker creates a semantic chunker backed by the given text
// generator.
func NewSemanticChunker(generator interfaces.TextGenerator) *SemanticChunker {
	return &SemanticChunker{generator: generator}
}

// Chunk prompts the model and parses its response into chunks.
func (c *SemanticChunker) Chunk(ctx context.Context, text string) ([]string, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	response, err := c.generator.Generate(ctx, fmt.Sprintf(semanticPrompt, text))
	if err != nil {
		return nil, fmt.Errorf("chunking model call failed: %w", err)
	}

	chunks, err := parseChunkResponse(response)
	if err != nil {
		return nil, err
	}
	return chunks, nil
}

// parseChunkResponse extracts and validates the JSON array of chunk strings
// from a model response.
func parseChunkResponse(response string) ([]string, error) {
	match := jsonArrayPattern.FindString(response)
	if match == "" {
		return nil, fmt.Errorf("no JSON array in chunking response")
	}

	var raw []interface{}
	if err := json.Unmarshal([]byte(match), &raw); err != nil {
		return nil, fmt.Errorf("failed to parse chunking response: %w", err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("chunking response contained no chunks")
	}

	chunks := make([]string, 0, len(raw))
	for i, entry := range raw {
		str, ok := entry.(string)
		if !ok {
			return nil, fmt.Errorf("chunking response element %d is not a string", i)
		}
		if strings.TrimSpace(str) == "" {
			continue
		}
		chunks = append(chunks, str)
	}
	if len(chunks) == 0 {
		return nil, fmt.Errorf("chunking response contained only empty chunks")
	}
	return chunks, nil
}

// Version identifies the strategy and backing model for change detection.
func (c *SemanticChunker) Version() string {
	return fmt.Sprintf("semantic/%s", c.generator.ModelName())
}
