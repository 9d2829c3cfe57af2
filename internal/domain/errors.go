package domain

import "errors"

// Sentinel errors used across layers.
var (
	ErrNotFound         = errors.New("not found")
	ErrNotStarted       = errors.New("orchestrator not started")
	ErrClosed           = errors.New("orchestrator closed")
	ErrNoVoice          = errors.New("no voice identity")
	ErrProviderDisabled = errors.New("synthesis provider disabled")
)

// Walkthrough errors.
var (
	ErrNoRecipe       = errors.New("no recipe selected")
	ErrNotActive      = errors.New("walkthrough not active")
	ErrNoMoreSteps    = errors.New("no more steps")
	ErrNoPreviousStep = errors.New("already at the first step")
	ErrNoTips         = errors.New("no tips for this step")
)
