// Package analysis implements content analysis: text statistics, key-phrase
// extraction, sentiment, and language detection, coordinated by a worker
// pool for file submissions.
package analysis

import (
	"errors"
	"sort"
	"strings"
	"unicode"
)

// ErrEmptyText is returned when analysis is requested for blank input.
var ErrEmptyText = errors.New("empty text provided for analysis")

// Options selects which text analyses run beyond the basic statistics.
type Options struct {
	ExtractKeyPhrases bool `json:"extract_key_phrases"`
	AnalyzeSentiment  bool `json:"analyze_sentiment"`
	DetectLanguage    bool `json:"detect_language"`
}

// DefaultOptions mirrors the service defaults: phrases and language on,
// sentiment off.
func DefaultOptions() Options {
	return Options{ExtractKeyPhrases: true, DetectLanguage: true}
}

// readingWPM is the assumed average reading speed.
const readingWPM = 200.0

// maxKeyPhrases caps the phrases returned per document.
const maxKeyPhrases = 10

// TextAnalyzer analyzes plain text.
type TextAnalyzer struct{}

// Analyze runs the configured analyses and returns a flat result document.
func (TextAnalyzer) Analyze(text string, opts Options) (map[string]any, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}

	words := tokenize(text)
	sentences := splitSentences(text)

	results := basicStats(text, words, sentences)

	if opts.ExtractKeyPhrases {
		results["key_phrases"] = extractKeyPhrases(sentences)
	}
	if opts.AnalyzeSentiment {
		results["sentiment"] = analyzeSentiment(words)
	}
	if opts.DetectLanguage {
		results["language"] = detectLanguage(words)
	}

	return results, nil
}

// Capabilities describes what the text analyzer can do.
func (TextAnalyzer) Capabilities() map[string]any {
	return map[string]any{
		"content_types": []string{"text/plain", "text/markdown", "text/html", "application/json"},
		"features": []string{
			"basic_stats",
			"key_phrase_extraction",
			"sentiment_analysis",
			"language_detection",
		},
	}
}

func basicStats(text string, words, sentences []string) map[string]any {
	var totalLen int
	vocab := make(map[string]struct{}, len(words))
	for _, w := range words {
		totalLen += len([]rune(w))
		vocab[strings.ToLower(w)] = struct{}{}
	}

	avgWordLen := 0.0
	avgSentenceLen := 0.0
	if len(words) > 0 {
		avgWordLen = float64(totalLen) / float64(len(words))
	}
	if len(sentences) > 0 {
		avgSentenceLen = float64(len(words)) / float64(len(sentences))
	}

	return map[string]any{
		"char_count":           len([]rune(text)),
		"word_count":           len(words),
		"sentence_count":       len(sentences),
		"avg_word_length":      avgWordLen,
		"avg_sentence_length":  avgSentenceLen,
		"vocab_size":           len(vocab),
		"reading_time_minutes": float64(len(words)) / readingWPM,
	}
}

// tokenize splits text into words, stripping surrounding punctuation.
func tokenize(text string) []string {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return unicode.IsSpace(r)
	})
	words := make([]string, 0, len(fields))
	for _, f := range fields {
		w := strings.TrimFunc(f, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsNumber(r)
		})
		if w != "" {
			words = append(words, w)
		}
	}
	return words
}

func splitSentences(text string) []string {
	raw := strings.FieldsFunc(text, func(r rune) bool {
		return r == '.' || r == '!' || r == '?'
	})
	sentences := make([]string, 0, len(raw))
	for _, s := range raw {
		if strings.TrimSpace(s) != "" {
			sentences = append(sentences, strings.TrimSpace(s))
		}
	}
	return sentences
}

// stopWords are skipped as phrase members so phrases stay content-bearing.
var stopWords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {}, "be": {},
	"by": {}, "for": {}, "from": {}, "has": {}, "have": {}, "i": {}, "in": {},
	"is": {}, "it": {}, "its": {}, "of": {}, "on": {}, "or": {}, "that": {},
	"the": {}, "to": {}, "was": {}, "were": {}, "will": {}, "with": {},
}

// KeyPhrase is one extracted multi-word phrase with its occurrence count.
type KeyPhrase struct {
	Phrase string `json:"phrase"`
	Count  int    `json:"count"`
}

// extractKeyPhrases collects runs of consecutive non-stop-words of length
// two or more within each sentence, counts repeats, and returns the top
// phrases ordered by count then by phrase length. Phrases never span a
// sentence boundary.
func extractKeyPhrases(sentences []string) []KeyPhrase {
	counts := make(map[string]int)
	var run []string

	flush := func() {
		if len(run) >= 2 {
			counts[strings.Join(run, " ")]++
		}
		run = run[:0]
	}

	for _, sentence := range sentences {
		for _, w := range tokenize(sentence) {
			lw := strings.ToLower(w)
			if _, stop := stopWords[lw]; stop {
				flush()
				continue
			}
			run = append(run, lw)
		}
		flush()
	}

	phrases := make([]KeyPhrase, 0, len(counts))
	for p, c := range counts {
		phrases = append(phrases, KeyPhrase{Phrase: p, Count: c})
	}
	sort.Slice(phrases, func(i, j int) bool {
		if phrases[i].Count != phrases[j].Count {
			return phrases[i].Count > phrases[j].Count
		}
		return len(phrases[i].Phrase) > len(phrases[j].Phrase)
	})

	if len(phrases) > maxKeyPhrases {
		phrases = phrases[:maxKeyPhrases]
	}
	return phrases
}

var positiveWords = map[string]struct{}{
	"good": {}, "great": {}, "excellent": {}, "amazing": {}, "wonderful": {},
}

var negativeWords = map[string]struct{}{
	"bad": {}, "terrible": {}, "awful": {}, "poor": {}, "worst": {},
}

// analyzeSentiment counts lexicon hits and normalizes over the word count.
func analyzeSentiment(words []string) map[string]float64 {
	if len(words) == 0 {
		return map[string]float64{"positive": 0, "negative": 0, "neutral": 1}
	}

	var pos, neg int
	for _, w := range words {
		lw := strings.ToLower(w)
		if _, ok := positiveWords[lw]; ok {
			pos++
		}
		if _, ok := negativeWords[lw]; ok {
			neg++
		}
	}

	total := float64(len(words))
	return map[string]float64{
		"positive": float64(pos) / total,
		"negative": float64(neg) / total,
		"neutral":  1 - float64(pos+neg)/total,
	}
}

var englishMarkers = map[string]struct{}{
	"the": {}, "be": {}, "to": {}, "of": {}, "and": {}, "a": {}, "in": {},
	"that": {}, "have": {}, "i": {},
}

var spanishMarkers = map[string]struct{}{
	"el": {}, "la": {}, "de": {}, "que": {}, "y": {}, "en": {}, "un": {},
	"ser": {}, "se": {}, "los": {},
}

// detectLanguage scores marker-word overlap for English and Spanish and
// falls back to "en" when neither scores decisively.
func detectLanguage(words []string) string {
	seen := make(map[string]struct{}, len(words))
	for _, w := range words {
		seen[strings.ToLower(w)] = struct{}{}
	}

	var en, es int
	for w := range seen {
		if _, ok := englishMarkers[w]; ok {
			en++
		}
		if _, ok := spanishMarkers[w]; ok {
			es++
		}
	}

	switch {
	case en > es && en > 1:
		return "en"
	case es > en && es > 1:
		return "es"
	default:
		return "en"
	}
}
