package pipeline

import (
	"strings"
	"time"
	"unicode"

	"github.com/ternarybob/curator/internal/models"
)

// ComputeStats derives text statistics for a completed item: word and
// sentence counts plus a Flesch reading-ease score.
func ComputeStats(item *models.ContentItem, text string) *models.ItemStats {
	words := strings.Fields(text)
	wordCount := len(words)
	sentenceCount := countSentences(text)

	var readingEase float64
	if wordCount > 0 && sentenceCount > 0 {
		syllables := 0
		for _, word := range words {
			syllables += estimateSyllables(word)
		}
		readingEase = 206.835 -
			1.015*(float64(wordCount)/float64(sentenceCount)) -
			84.6*(float64(syllables)/float64(wordCount))
	}

	return &models.ItemStats{
		ItemID:        item.ID,
		TenantID:      item.TenantID,
		WordCount:     wordCount,
		SentenceCount: sentenceCount,
		ReadingEase:   readingEase,
		UpdatedAt:     time.Now(),
	}
}

// countSentences counts terminator runs (. ! ?); text with words but no
// terminator counts as one sentence.
func countSentences(text string) int {
	count := 0
	inTerminator := false
	for _, r := range text {
		if r == '.' || r == '!' || r == '?' {
			if !inTerminator {
				count++
				inTerminator = true
			}
		} else {
			inTerminator = false
		}
	}
	if count == 0 && len(strings.Fields(text)) > 0 {
		return 1
	}
	return count
}

// estimateSyllables approximates syllables as vowel groups, with the
// common silent-e adjustment. Always at least 1 for a non-empty word.
func estimateSyllables(word string) int {
	word = strings.ToLower(strings.TrimFunc(word, func(r rune) bool {
		return !unicode.IsLetter(r)
	}))
	if word == "" {
		return 0
	}

	isVowel := func(r rune) bool {
		return strings.ContainsRune("aeiouy", r)
	}

	count := 0
	prevVowel := false
	for _, r := range word {
		vowel := isVowel(r)
		if vowel && !prevVowel {
			count++
		}
		prevVowel = vowel
	}

	if strings.HasSuffix(word, "e") && count > 1 {
		count--
	}
	if count == 0 {
		count = 1
	}
	return count
}
