package ai

// RecipeCategories are the dish types suggested to the model. The model may
// answer with another category when none fits.
var RecipeCategories = []string{
	"appetizer",
	"baking",
	"breakfast",
	"dessert",
	"drink",
	"main course",
	"salad",
	"sauce",
	"side dish",
	"snack",
	"soup",
}
