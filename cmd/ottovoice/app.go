package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hammamikhairi/ottovoice/internal/conversation"
	"github.com/hammamikhairi/ottovoice/internal/display"
	"github.com/hammamikhairi/ottovoice/internal/domain"
	"github.com/hammamikhairi/ottovoice/internal/engine"
	"github.com/hammamikhairi/ottovoice/internal/logger"
	"github.com/hammamikhairi/ottovoice/internal/voice"
)

type cliApp struct {
	orch    *voice.Orchestrator
	engine  *engine.Engine
	parser  *conversation.KeywordParser
	content domain.ContentSource
	log     *logger.Logger
	ui      *display.UI
}

// say speaks in the background and prints what was said once it has
// left the queue. The prompt never waits on playback.
func (a *cliApp) say(ctx context.Context, text string, opts ...voice.SpeakOption) {
	go func() {
		a.report(a.orch.Speak(ctx, text, "", opts...))
	}()
}

// sayStep speaks a step instruction, cutting off whatever is playing.
func (a *cliApp) sayStep(ctx context.Context, step domain.Step, tip string) {
	total := a.engine.Progress().TotalSteps
	a.ui.PrintStep(fmt.Sprintf("Step %d/%d", step.Order, total))
	a.say(ctx, step.Instruction,
		voice.WithPriority(domain.PriorityHigh),
		voice.DirectMessage(),
		voice.AtStep(step.Order),
		voice.WithTip(tip),
		voice.Interrupt(),
	)
}

// line returns the current persona's canned phrase for key, so speaking
// it resolves from the phrase cache.
func (a *cliApp) line(key, fallback string) string {
	id := a.orch.Status().PersonaID + "_" + key
	if p, ok := a.orch.Cache().Get(id); ok {
		return p.Text
	}
	return fallback
}

func (a *cliApp) report(res voice.Result, err error) {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, domain.ErrClosed):
		return
	case err != nil:
		a.ui.PrintUrgent(fmt.Sprintf("voice: %v", err))
		return
	}

	switch res.Outcome {
	case domain.OutcomePlayed:
		a.ui.PrintSpoken(res.Source, res.Text)
	case domain.OutcomeFailed:
		a.ui.PrintUrgent(fmt.Sprintf("[%s] %s (audio failed)", res.Source, truncateStr(res.Text, 60)))
	case domain.OutcomeSkipped:
	default:
		a.ui.PrintHint(fmt.Sprintf("[%s] %s (%s)", res.Source, truncateStr(res.Text, 60), res.Outcome))
	}
}

func (a *cliApp) run(ctx context.Context) {
	go a.greet(ctx)
	a.showRecipes(ctx)
	go a.announceReady(ctx)

	uiCh := a.ui.InputChan()
	for {
		var input string
		var ok bool

		select {
		case <-ctx.Done():
			return
		case input, ok = <-uiCh:
			if !ok {
				return
			}
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		a.orch.Tracker().Touch()

		intent := a.parser.Parse(input)
		a.log.Debug("intent: %s (payload=%q)", intent.Type, intent.Payload)
		if !a.handleIntent(ctx, intent) {
			return
		}
	}
}

// handleIntent dispatches one command. It returns false when the user
// asked to quit.
func (a *cliApp) handleIntent(ctx context.Context, intent domain.Intent) bool {
	switch intent.Type {
	case domain.IntentHelp:
		a.showHelp()
	case domain.IntentListRecipes:
		a.showRecipes(ctx)
	case domain.IntentSelectRecipe:
		a.selectRecipe(ctx, intent.Payload)
	case domain.IntentStart:
		a.start(ctx)
	case domain.IntentAdvance:
		a.advance(ctx)
	case domain.IntentBack:
		a.back(ctx)
	case domain.IntentTip:
		a.tip(ctx)
	case domain.IntentPause:
		a.pause(ctx)
	case domain.IntentResume:
		a.resume(ctx)
	case domain.IntentStruggling:
		a.orch.UpdateContext(conversation.Struggling(true))
		a.say(ctx, "help", voice.WithPriority(domain.PriorityHigh), voice.Interrupt())
	case domain.IntentFine:
		a.orch.UpdateContext(conversation.Struggling(false))
		a.ui.PrintHint("Good. No more hand-holding.")
	case domain.IntentGreeting:
		go a.greet(ctx)
	case domain.IntentPersona:
		a.persona(ctx, intent.Payload)
	case domain.IntentStop:
		a.orch.Stop()
	case domain.IntentClear:
		a.orch.ClearQueue()
		a.ui.PrintHint("Queue cleared.")
	case domain.IntentRepeat:
		go a.repeat(ctx)
	case domain.IntentStatus:
		a.status()
	case domain.IntentQuit:
		a.quit(ctx)
		return false
	case domain.IntentSay:
		a.say(ctx, intent.Payload)
	}
	return true
}

func (a *cliApp) greet(ctx context.Context) {
	a.report(a.orch.SpeakGreeting(ctx, ""))
}

func (a *cliApp) announceReady(ctx context.Context) {
	select {
	case <-a.orch.Ready():
		if a.orch.Status().ProviderHealthy {
			a.ui.PrintHint("Voices warmed up.")
		}
	case <-ctx.Done():
	}
}

func (a *cliApp) showRecipes(ctx context.Context) {
	recipes, err := a.engine.ListRecipes(ctx)
	if err != nil {
		a.ui.PrintUrgent(fmt.Sprintf("Error loading recipes: %v", err))
		return
	}

	a.ui.PrintStep("Available recipes:")
	a.ui.Println("")
	for i, r := range recipes {
		a.ui.PrintInstruction(fmt.Sprintf("[%d] %s", i+1, r.Name))
		a.ui.PrintHint(fmt.Sprintf("%d steps", r.Steps))
	}
	a.ui.Println("")
	a.ui.PrintChat("Pick a recipe by number, or type 'help' for commands.")
}

func (a *cliApp) selectRecipe(ctx context.Context, ref string) {
	r, err := a.engine.Select(ctx, ref)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.ui.PrintUrgent(fmt.Sprintf("No recipe %q. Type 'list' to see them.", ref))
			return
		}
		a.ui.PrintUrgent(fmt.Sprintf("Error: %v", err))
		return
	}

	a.ui.PrintStep(r.Name)
	if r.Description != "" {
		a.ui.PrintInstruction(r.Description)
	}
	a.ui.PrintHint(fmt.Sprintf("%d steps. Type 'start' when ready.", len(r.Steps)))
	a.say(ctx, fmt.Sprintf("%s. Say start when you're ready.", r.Name), voice.Interrupt())
}

func (a *cliApp) start(ctx context.Context) {
	step, err := a.engine.Start()
	if errors.Is(err, domain.ErrNoRecipe) {
		a.ui.PrintUrgent("Pick a recipe first.")
		return
	}
	if err != nil {
		a.ui.PrintUrgent(fmt.Sprintf("Error: %v", err))
		return
	}
	a.sayStep(ctx, step, "")
}

func (a *cliApp) advance(ctx context.Context) {
	step, err := a.engine.Advance()
	switch {
	case errors.Is(err, domain.ErrNoMoreSteps):
		a.ui.PrintStep("All steps complete.")
		a.say(ctx, a.line("done", "That was the last step. You're done."),
			voice.WithPriority(domain.PriorityHigh), voice.Interrupt())
	case errors.Is(err, domain.ErrNotActive):
		a.ui.PrintUrgent("Nothing to advance. Type 'start' first, or 'resume' if paused.")
	case err != nil:
		a.ui.PrintUrgent(fmt.Sprintf("Error: %v", err))
	default:
		a.sayStep(ctx, step, "")
	}
}

func (a *cliApp) back(ctx context.Context) {
	step, err := a.engine.Back()
	switch {
	case errors.Is(err, domain.ErrNoPreviousStep):
		a.ui.PrintHint("Already at the first step.")
	case errors.Is(err, domain.ErrNotActive):
		a.ui.PrintUrgent("No active recipe.")
	case err != nil:
		a.ui.PrintUrgent(fmt.Sprintf("Error: %v", err))
	default:
		a.sayStep(ctx, step, "")
	}
}

func (a *cliApp) tip(ctx context.Context) {
	tip, err := a.engine.Tip()
	switch {
	case errors.Is(err, domain.ErrNoTips):
		a.ui.PrintHint("No tips for this step.")
		return
	case err != nil:
		a.ui.PrintUrgent("No active recipe.")
		return
	}
	step, err := a.engine.Current()
	if err != nil {
		return
	}
	a.sayStep(ctx, step, tip)
}

func (a *cliApp) pause(ctx context.Context) {
	if err := a.engine.Pause(); err != nil {
		a.ui.PrintUrgent("Nothing to pause.")
		return
	}
	a.orch.Stop()
	a.say(ctx, a.line("paused", "Paused. Say resume when ready."))
}

func (a *cliApp) resume(ctx context.Context) {
	step, err := a.engine.Resume()
	if err != nil {
		a.ui.PrintUrgent("Nothing to resume.")
		return
	}
	a.ui.PrintHint("Resumed.")
	a.sayStep(ctx, step, "")
}

func (a *cliApp) persona(ctx context.Context, id string) {
	if id == "" {
		personas, err := a.content.Personas(ctx)
		if err != nil {
			a.ui.PrintUrgent(fmt.Sprintf("Error loading personas: %v", err))
			return
		}
		current := a.orch.Status().PersonaID
		a.ui.PrintStep("Personas:")
		for _, p := range personas {
			marker := " "
			if p.ID == current {
				marker = "*"
			}
			a.ui.PrintInstruction(fmt.Sprintf("%s %-8s %s (%s)", marker, p.ID, p.Name, p.Locale))
		}
		return
	}

	if _, err := a.content.Persona(ctx, id); err != nil {
		a.ui.PrintUrgent(fmt.Sprintf("No persona %q. Type 'persona' to list them.", id))
		return
	}
	a.orch.UpdateContext(conversation.Persona(id))
	go a.greet(ctx)
}

func (a *cliApp) repeat(ctx context.Context) {
	res, err := a.orch.Repeat(ctx)
	if err == nil && res.Outcome == domain.OutcomeSkipped {
		a.ui.PrintHint("Nothing to repeat yet.")
		return
	}
	a.report(res, err)
}

func (a *cliApp) status() {
	s := a.orch.Status()
	p := a.engine.Progress()

	a.ui.PrintStep("Status:")
	if p.RecipeName != "" {
		a.ui.PrintInstruction(fmt.Sprintf("Recipe:   %s (%s)", p.RecipeName, p.State))
		a.ui.PrintInstruction(fmt.Sprintf("Step:     %d/%d", p.Step, p.TotalSteps))
	} else {
		a.ui.PrintInstruction("Recipe:   none")
	}
	a.ui.PrintInstruction(fmt.Sprintf("Persona:  %s", s.PersonaID))
	a.ui.PrintInstruction(fmt.Sprintf("Phase:    %s (listening: %s)", s.Phase, s.ListeningPolicy))
	a.ui.PrintInstruction(fmt.Sprintf("Voice:    playing=%v queued=%d healthy=%v degraded=%v",
		s.IsPlaying, s.QueueLength, s.ProviderHealthy, s.Degraded))

	hits, misses := a.orch.Cache().Stats()
	a.ui.PrintHint(fmt.Sprintf("Phrases:  %d cached, %d hits, %d misses", a.orch.Cache().Len(), hits, misses))
	if s.LastPlaybackError != nil {
		a.ui.PrintUrgent(fmt.Sprintf("Audio:    %v", s.LastPlaybackError))
	}
}

func (a *cliApp) quit(ctx context.Context) {
	a.engine.Abandon()

	// Give the goodbye a moment to play before tearing down.
	byeCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	a.report(a.orch.Speak(byeCtx, a.line("bye", "Bye."), "",
		voice.WithPriority(domain.PriorityHigh), voice.Interrupt()))
}

func (a *cliApp) showHelp() {
	a.ui.PrintStep("Commands:")
	a.ui.PrintInstruction("  list / recipes     Show available recipes")
	a.ui.PrintInstruction("  1, 2 / recipe <id> Select a recipe")
	a.ui.PrintInstruction("  start / go         Start the selected recipe")
	a.ui.PrintInstruction("  next / back        Move between steps")
	a.ui.PrintInstruction("  tip                Hear the step again with a tip")
	a.ui.PrintInstruction("  pause / resume     Pause or continue")
	a.ui.PrintInstruction("  stuck / fine       Tell the voice how you're doing")
	a.ui.PrintInstruction("  hello              Hear a greeting")
	a.ui.PrintInstruction("  persona [id]       List personas or switch voice")
	a.ui.PrintInstruction("  stop / clear       Stop the current line or drop the queue")
	a.ui.PrintInstruction("  repeat / again     Replay the last thing said")
	a.ui.PrintInstruction("  status             Show voice and recipe status")
	a.ui.PrintInstruction("  help               Show this message")
	a.ui.PrintInstruction("  quit / exit        Exit")
	a.ui.PrintHint("Anything else is spoken as-is.")
}

func truncateStr(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
