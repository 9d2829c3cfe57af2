package resolve

import (
	"fmt"
	"strings"

	"github.com/hammamikhairi/ottovoice/internal/domain"
	"github.com/hammamikhairi/ottovoice/internal/phrase"
)

// instantKeywords is checked in order; the first kind whose keywords
// appear in the input wins.
var instantKeywords = []struct {
	kind     domain.InstantKind
	keywords []string
}{
	{domain.InstantGreeting, []string{"hello", "hi", "hey"}},
	{domain.InstantNextStep, []string{"next", "continue"}},
	{domain.InstantHelp, []string{"help", "stuck"}},
	{domain.InstantEncouragement, []string{"encourage", "motivate", "cheer"}},
}

func instantLine(p domain.Persona, text string) (string, domain.InstantKind, bool) {
	if len(p.Instant) == 0 {
		return "", "", false
	}
	for _, ik := range instantKeywords {
		if !phrase.HasKeyword(text, ik.keywords...) {
			continue
		}
		if line := p.Instant[ik.kind]; line != "" {
			return line, ik.kind, true
		}
	}
	return "", "", false
}

// kindHint is the input used when a persona has no line for kind.
func kindHint(kind domain.InstantKind) string {
	for _, ik := range instantKeywords {
		if ik.kind == kind {
			return ik.keywords[0]
		}
	}
	return string(kind)
}

// adapt shapes body for persona p:
//
//	[encouragement] [step prefix] [flavor] body [tip]
//
// Encouragement needs the user to be struggling, the step prefix needs an
// active task and a step number. Flavor is only considered when allowed.
func (r *Resolver) adapt(p domain.Persona, c domain.ConversationContext, body string, opts Options, flavor bool) string {
	parts := make([]string, 0, 5)

	if c.UserStruggling && len(p.Encouragements) > 0 {
		parts = append(parts, p.Encouragements[r.intn(len(p.Encouragements))])
	}
	if opts.Step > 0 && c.Phase == domain.PhaseActiveTask && !opts.SkipStepFraming && p.StepTemplate != "" {
		parts = append(parts, fmt.Sprintf(p.StepTemplate, opts.Step))
	}
	if flavor && len(p.Flavors) > 0 && r.roll(r.flavorChance) {
		parts = append(parts, p.Flavors[r.intn(len(p.Flavors))])
	}
	if b := strings.TrimSpace(body); b != "" {
		parts = append(parts, b)
	}
	if tip := strings.TrimSpace(opts.Tip); tip != "" && p.TipTemplate != "" {
		parts = append(parts, fmt.Sprintf(p.TipTemplate, tip))
	}
	return strings.Join(parts, " ")
}

func (r *Resolver) intn(n int) int {
	r.rngMu.Lock()
	defer r.rngMu.Unlock()
	return r.rng.Intn(n)
}

func (r *Resolver) roll(chance float64) bool {
	if chance <= 0 {
		return false
	}
	r.rngMu.Lock()
	defer r.rngMu.Unlock()
	return r.rng.Float64() < chance
}
