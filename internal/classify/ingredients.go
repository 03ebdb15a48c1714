// Package classify holds the static lookup tables used to annotate a product:
// ingredient categories, additive colors and score colors.
package classify

import "strings"

const OtherCategory = "Other"

type category struct {
	name     string
	keywords []string
}

// Precedence is declaration order: an ingredient lands in the first category
// with a keyword contained in it.
var ingredientCategories = []category{
	{"Sweeteners", []string{"sugar", "glucose", "fructose", "sucrose", "dextrose", "maltose", "aspartame", "sorbitol", "sucralose", "acesulfame", "saccharin", "stevia", "steviol", "xylitol", "maltitol", "erythritol", "honey", "syrup"}},
	{"Preservatives", []string{"benzoate", "sorbate", "sodium nitrite", "nitrate", "sulfite", "sulphite", "metabisulfite", "propionate", "natamycin", "nisin", "preservative"}},
	{"Colors", []string{"caramel", "tartrazine", "annatto", "carmine", "cochineal", "curcumin", "beta-carotene", "paprika extract", "anthocyanin", "titanium dioxide", "allura red", "sunset yellow", "colour", "color"}},
	{"Emulsifiers", []string{"lecithin", "mono- and diglycerides", "mono and diglycerides", "polysorbate", "polyglycerol", "stearoyl lactylate", "emulsifier"}},
	{"Stabilizers", []string{"carrageenan", "gellan", "locust bean gum", "carob bean gum", "cellulose gum", "carboxymethyl", "stabiliser", "stabilizer"}},
	{"Antioxidants", []string{"ascorbic acid", "ascorbate", "tocopherol", "rosemary extract", "butylated", "erythorbate", "antioxidant"}},
	{"Flavor Enhancers", []string{"monosodium glutamate", "glutamate", "disodium inosinate", "disodium guanylate", "ribonucleotide", "yeast extract", "flavour enhancer", "flavor enhancer"}},
	{"Thickeners", []string{"xanthan", "guar gum", "pectin", "agar", "modified starch", "modified corn starch", "gum arabic", "acacia gum", "thickener"}},
	{"Acids", []string{"citric acid", "lactic acid", "malic acid", "acetic acid", "phosphoric acid", "tartaric acid", "fumaric acid", "acidity regulator", "acidifier", "acid"}},
}

type Group struct {
	Category    string   `json:"category"`
	Ingredients []string `json:"ingredients"`
}

// Categorized is the ordered result of CategorizeIngredients. Only non-empty
// groups are present, in category order with Other last.
type Categorized []Group

func (c Categorized) Lookup(category string) []string {
	for _, g := range c {
		if strings.EqualFold(g.Category, category) {
			return g.Ingredients
		}
	}
	return nil
}

func (c Categorized) Map() map[string][]string {
	out := make(map[string][]string, len(c))
	for _, g := range c {
		out[g.Category] = g.Ingredients
	}
	return out
}

// Categories lists the category names in precedence order, Other last.
func Categories() []string {
	out := make([]string, 0, len(ingredientCategories)+1)
	for _, c := range ingredientCategories {
		out = append(out, c.name)
	}
	return append(out, OtherCategory)
}

// CategorizeIngredients splits a comma-separated ingredient list and files
// each lower-cased ingredient under the first matching category.
func CategorizeIngredients(text string) Categorized {
	buckets := make([][]string, len(ingredientCategories)+1)
	for _, raw := range strings.Split(text, ",") {
		ingredient := strings.ToLower(strings.TrimSpace(raw))
		if ingredient == "" {
			continue
		}
		i := categoryIndex(ingredient)
		buckets[i] = append(buckets[i], ingredient)
	}
	out := make(Categorized, 0, len(buckets))
	for i, items := range buckets {
		if len(items) == 0 {
			continue
		}
		name := OtherCategory
		if i < len(ingredientCategories) {
			name = ingredientCategories[i].name
		}
		out = append(out, Group{Category: name, Ingredients: items})
	}
	return out
}

func categoryIndex(ingredient string) int {
	for i, c := range ingredientCategories {
		for _, kw := range c.keywords {
			if strings.Contains(ingredient, kw) {
				return i
			}
		}
	}
	return len(ingredientCategories)
}
