package foodmatch

// labelEntry pairs a classifier label with its canonical food name.
type labelEntry struct {
	label string
	name  string
}

// labelTable is the curated classifier-label -> canonical-food mapping.
// Order matters for the substring strategy: earlier entries win, so more
// specific labels come before broader ones.
var labelTable = []labelEntry{
	{"banana", "banana"},
	{"orange", "orange"},
	{"apple", "apple"},
	{"strawberry", "strawberry"},
	{"broccoli", "broccoli"},
	{"carrot", "carrot"},
	{"mushroom", "mushroom"},
	{"bell pepper", "bell pepper"},
	{"tomato", "tomato"},
	{"cucumber", "cucumber"},
	{"pizza", "bread"},
	{"bagel", "bread"},
	{"pretzel", "bread"},
	{"hotdog", "beef"},
	{"hamburger", "beef"},
	{"cheeseburger", "beef"},
	{"meat loaf", "beef"},
	{"steak", "beef"},
	{"fried chicken", "chicken breast"},
	{"roast chicken", "chicken breast"},
	{"grilled salmon", "salmon"},
	{"tuna", "fish"},
	{"sushi", "fish"},
	{"french fries", "potato"},
	{"baked potato", "potato"},
	{"mashed potato", "potato"},
	{"spaghetti", "pasta"},
	{"ravioli", "pasta"},
	{"macaroni", "pasta"},
	{"fried rice", "rice"},
	{"risotto", "rice"},
	{"chocolate cake", "chocolate"},
	{"ice cream", "milk"},
	{"cheese", "cheese"},
	{"omelet", "egg"},
	{"scrambled eggs", "egg"},
	{"boiled egg", "egg"},
	{"salad", "lettuce"},
	{"soup", "broccoli"},
	{"sandwich", "bread"},
	{"burrito", "bread"},
	{"taco", "beef"},
	{"corn", "carrot"},
	{"peas", "broccoli"},
	{"beans", "nuts"},
	{"avocado", "avocado"},
	{"grapes", "grapes"},
	{"watermelon", "watermelon"},
	{"blueberry", "blueberry"},
}

// labelIndex backs the exact-match strategy.
var labelIndex = func() map[string]string {
	idx := make(map[string]string, len(labelTable))
	for _, e := range labelTable {
		idx[e.label] = e.name
	}
	return idx
}()

// foodKeywords flag labels that look food-related even without a curated
// entry, gating the generic-word extraction step.
var foodKeywords = []string{
	"food", "fruit", "vegetable", "meat", "chicken", "beef", "fish", "bread",
	"rice", "potato", "egg", "cheese", "milk", "cake", "cookie", "pie",
	"dish", "meal", "cuisine", "plate", "bowl", "edible", "nutrition",
}

// genericFoods are the food words extractable from otherwise-unmapped labels.
var genericFoods = []struct {
	word string
	name string
}{
	{"chicken", "chicken breast"},
	{"beef", "beef"},
	{"fish", "fish"},
	{"bread", "bread"},
	{"rice", "rice"},
	{"potato", "potato"},
	{"egg", "egg"},
	{"cheese", "cheese"},
	{"milk", "milk"},
}
