package phrase

import (
	"strings"
	"unicode"

	"github.com/hammamikhairi/ottovoice/internal/domain"
)

// KeywordRule awards Bonus to a phrase when any of Keywords appears as a
// word of the input and the phrase has Category or carries Tag.
type KeywordRule struct {
	Keywords []string
	Category domain.Category
	Tag      string
	Bonus    int
}

// MatchConfig holds the tunable weights of the phrase matcher. The
// defaults were tuned by hand; none of them are load-bearing.
type MatchConfig struct {
	// Threshold is the minimum score a candidate needs to be returned.
	Threshold int
	// FullTextBonus is awarded when the input contains the whole phrase.
	FullTextBonus int
	Rules         []KeywordRule
}

// DefaultMatchConfig returns the stock weights: threshold 20 on a scale
// of roughly 0-150.
func DefaultMatchConfig() MatchConfig {
	return MatchConfig{
		Threshold:     20,
		FullTextBonus: 100,
		Rules: []KeywordRule{
			{Keywords: []string{"next", "continue", "then", "after"}, Category: domain.CategoryInstruction, Tag: "next-step", Bonus: 30},
			{Keywords: []string{"timer", "minutes", "alarm", "ding", "time"}, Category: domain.CategoryTimer, Tag: "timer", Bonus: 30},
			{Keywords: []string{"hello", "hi", "hey", "morning", "evening"}, Category: domain.CategoryGreeting, Tag: "greeting", Bonus: 30},
			{Keywords: []string{"help", "stuck", "hard", "difficult", "confused", "can't"}, Category: domain.CategoryEncouragement, Tag: "help", Bonus: 30},
		},
	}
}

// query is an input string prepared once for scoring against many phrases.
type query struct {
	padded string // " normalized text "
	words  map[string]struct{}
}

func newQuery(text string) query {
	norm := normalize(text)
	words := make(map[string]struct{})
	for _, w := range strings.Fields(norm) {
		words[w] = struct{}{}
	}
	return query{padded: " " + norm + " ", words: words}
}

func (q query) hasAny(keywords []string) bool {
	for _, k := range keywords {
		if _, ok := q.words[k]; ok {
			return true
		}
	}
	return false
}

// HasKeyword reports whether any of keywords is a word of text once both
// are normalized the way the matcher sees them.
func HasKeyword(text string, keywords ...string) bool {
	return newQuery(text).hasAny(keywords)
}

// Score returns the relevance of phrase p for the input text.
func (m MatchConfig) Score(text string, p domain.CachedPhrase) int {
	return m.score(newQuery(text), p)
}

func (m MatchConfig) score(q query, p domain.CachedPhrase) int {
	score := p.Priority

	if canon := normalize(p.Text); canon != "" && strings.Contains(q.padded, " "+canon+" ") {
		score += m.FullTextBonus
	}

	for _, r := range m.Rules {
		if p.Category != r.Category && !p.HasTag(r.Tag) {
			continue
		}
		if q.hasAny(r.Keywords) {
			score += r.Bonus
		}
	}
	return score
}

// normalize lowercases s, turns punctuation into spaces (apostrophes
// inside words survive) and collapses runs of whitespace.
func normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	space := true
	runes := []rune(strings.ToLower(s))
	for i, r := range runes {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			space = false
		case (r == '\'' || r == '’') && !space && i+1 < len(runes) && unicode.IsLetter(runes[i+1]):
			b.WriteRune('\'')
		default:
			if !space {
				b.WriteByte(' ')
				space = true
			}
		}
	}
	return strings.TrimSpace(b.String())
}
