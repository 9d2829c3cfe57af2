package domain

// Recipe is a guided activity the voice walks the user through.
type Recipe struct {
	ID          string
	Name        string
	Description string
	Steps       []Step
}

// RecipeSummary is a lightweight view of a recipe for listing.
type RecipeSummary struct {
	ID    string
	Name  string
	Steps int
}

// Step is one instruction within a recipe. Order is 1-based.
type Step struct {
	Order       int
	Instruction string
	Tips        []string
}
