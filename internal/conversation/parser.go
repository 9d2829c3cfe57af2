package conversation

import (
	"regexp"
	"strings"

	"github.com/hammamikhairi/ottovoice/internal/domain"
	"github.com/hammamikhairi/ottovoice/internal/logger"
)

// KeywordParser maps typed input to intents using keywords and simple
// patterns. Anything it does not recognise is spoken as-is.
type KeywordParser struct {
	log      *logger.Logger
	patterns []patternRule
	prefixed []patternRule // "<keyword> <argument>", argument in group 2
}

type patternRule struct {
	regex  *regexp.Regexp
	intent domain.IntentType
}

// NewKeywordParser creates a keyword-based intent parser.
func NewKeywordParser(log *logger.Logger) *KeywordParser {
	p := &KeywordParser{log: log}
	p.patterns = []patternRule{
		{regexp.MustCompile(`(?i)^(list|recipes|browse)$`), domain.IntentListRecipes},
		{regexp.MustCompile(`(?i)^(start|begin|go|let'?s go)$`), domain.IntentStart},
		{regexp.MustCompile(`(?i)^(next|done|continue|n)$`), domain.IntentAdvance},
		{regexp.MustCompile(`(?i)^(back|previous|prev|b)$`), domain.IntentBack},
		{regexp.MustCompile(`(?i)^(tip|hint)$`), domain.IntentTip},
		{regexp.MustCompile(`(?i)^(pause|brb|wait|p)$`), domain.IntentPause},
		{regexp.MustCompile(`(?i)^(resume|unpause|i'?m back)$`), domain.IntentResume},
		{regexp.MustCompile(`(?i)^(struggl(e|ing)|stuck|i'?m lost)$`), domain.IntentStruggling},
		{regexp.MustCompile(`(?i)^(fine|ok|got it|i'?m fine)$`), domain.IntentFine},
		{regexp.MustCompile(`(?i)^(hello|hi|hey)$`), domain.IntentGreeting},
		{regexp.MustCompile(`(?i)^(stop|shh|quiet|shut up)$`), domain.IntentStop},
		{regexp.MustCompile(`(?i)^(clear|flush)$`), domain.IntentClear},
		{regexp.MustCompile(`(?i)^(repeat|again|what\??|r|come again)$`), domain.IntentRepeat},
		{regexp.MustCompile(`(?i)^(status|where|progress|info)$`), domain.IntentStatus},
		{regexp.MustCompile(`(?i)^(help|h|\?)$`), domain.IntentHelp},
		{regexp.MustCompile(`(?i)^(quit|exit|q|bye)$`), domain.IntentQuit},
		{regexp.MustCompile(`(?i)^(persona|voice)$`), domain.IntentPersona},
	}
	p.prefixed = []patternRule{
		{regexp.MustCompile(`(?i)^(recipe|select|pick)\s+(.+)$`), domain.IntentSelectRecipe},
		{regexp.MustCompile(`(?i)^(persona|voice)\s+(.+)$`), domain.IntentPersona},
		{regexp.MustCompile(`(?i)^(say)\s+(.+)$`), domain.IntentSay},
	}
	return p
}

// Parse converts user input into an intent. Blank input is unknown.
func (p *KeywordParser) Parse(input string) domain.Intent {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return domain.Intent{Type: domain.IntentUnknown}
	}

	p.log.Debug("parsing input: %q", trimmed)

	// Recipe selection by number (e.g. "1", "2").
	if len(trimmed) <= 2 && isDigits(trimmed) {
		return domain.Intent{Type: domain.IntentSelectRecipe, Payload: trimmed}
	}

	for _, rule := range p.patterns {
		if rule.regex.MatchString(trimmed) {
			p.log.Debug("matched intent: %s", rule.intent)
			return domain.Intent{Type: rule.intent}
		}
	}

	for _, rule := range p.prefixed {
		if m := rule.regex.FindStringSubmatch(trimmed); m != nil {
			p.log.Debug("matched intent: %s", rule.intent)
			return domain.Intent{Type: rule.intent, Payload: strings.TrimSpace(m[2])}
		}
	}

	p.log.Debug("no match, speaking input")
	return domain.Intent{Type: domain.IntentSay, Payload: trimmed}
}

func isDigits(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return len(s) > 0
}
