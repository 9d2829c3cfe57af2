package content

import "github.com/hammamikhairi/ottovoice/internal/domain"

func builtinRecipes() []*domain.Recipe {
	return []*domain.Recipe{
		vegetableStirFry(),
		chickenAlfredo(),
	}
}

func chickenAlfredo() *domain.Recipe {
	return &domain.Recipe{
		ID:          "chicken-alfredo",
		Name:        "Chicken Alfredo",
		Description: "Creamy spaghetti alfredo with pan-seared chicken.",
		Steps: []domain.Step{
			{Order: 1, Instruction: "Bring a large pot of salted water to a boil.", Tips: []string{"It should taste like the sea."}},
			{Order: 2, Instruction: "Season the chicken breasts with salt and pepper on both sides.", Tips: []string{"Pound them to even thickness so the thin end doesn't dry out."}},
			{Order: 3, Instruction: "Sear the chicken in olive oil for about six minutes per side, then let it rest."},
			{Order: 4, Instruction: "Cook the spaghetti until al dente. Keep a cup of pasta water.", Tips: []string{"The starchy water rescues a sauce that gets too thick."}},
			{Order: 5, Instruction: "Melt margarine in the skillet and cook the garlic for one minute.", Tips: []string{"Don't let it burn. Burnt garlic ruins everything."}},
			{Order: 6, Instruction: "Stir in the creme fraiche and let it reduce for three minutes."},
			{Order: 7, Instruction: "Off the heat, melt in the gruyere, then toss with the pasta and sliced chicken."},
		},
	}
}

func vegetableStirFry() *domain.Recipe {
	return &domain.Recipe{
		ID:          "vegetable-stir-fry",
		Name:        "Vegetable Stir Fry",
		Description: "Fast and crunchy. The key is a screaming hot pan.",
		Steps: []domain.Step{
			{Order: 1, Instruction: "Cut all the vegetables into bite-sized pieces.", Tips: []string{"Similar sizes cook at the same speed."}},
			{Order: 2, Instruction: "Mix soy sauce, sesame oil and a little cornstarch in a bowl."},
			{Order: 3, Instruction: "Heat the wok until it smokes, then add a splash of oil.", Tips: []string{"If it isn't smoking, it isn't ready."}},
			{Order: 4, Instruction: "Stir fry the hard vegetables first for three minutes."},
			{Order: 5, Instruction: "Add the soft vegetables and the sauce, and toss for one more minute.", Tips: []string{"Don't overcrowd the pan or everything steams."}},
		},
	}
}
