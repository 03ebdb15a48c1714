package classify

import (
	"reflect"
	"testing"
)

func TestCategorizeIngredientsSweetenersAndOther(t *testing.T) {
	t.Parallel()

	got := CategorizeIngredients("Sugar, Aspartame, Unknownite")
	want := Categorized{
		{Category: "Sweeteners", Ingredients: []string{"sugar", "aspartame"}},
		{Category: "Other", Ingredients: []string{"unknownite"}},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected categories: %+v", got)
	}
}

func TestCategorizeIngredientsTable(t *testing.T) {
	t.Parallel()

	cases := []struct {
		ingredient string
		category   string
	}{
		{"glucose-fructose syrup", "Sweeteners"},
		{"potassium sorbate", "Preservatives"},
		{"sodium nitrite", "Preservatives"},
		{"colour: caramel e150d", "Colors"},
		{"tartrazine", "Colors"},
		{"soy lecithin", "Emulsifiers"},
		{"carrageenan", "Stabilizers"},
		{"ascorbic acid", "Antioxidants"},
		{"monosodium glutamate", "Flavor Enhancers"},
		{"xanthan gum", "Thickeners"},
		{"citric acid", "Acids"},
		{"hazelnuts", "Other"},
	}
	for _, tc := range cases {
		got := CategorizeIngredients(tc.ingredient)
		if len(got) != 1 || got[0].Category != tc.category {
			t.Errorf("%q: got %+v, want %s", tc.ingredient, got, tc.category)
		}
	}
}

func TestCategorizeIngredientsOrderingAndBlanks(t *testing.T) {
	t.Parallel()

	got := CategorizeIngredients(" Water ,citric acid,, Sugar ,potassium sorbate, ")
	var names []string
	for _, g := range got {
		names = append(names, g.Category)
	}
	want := []string{"Sweeteners", "Preservatives", "Acids", "Other"}
	if !reflect.DeepEqual(names, want) {
		t.Fatalf("unexpected category order: %v", names)
	}
	if got.Lookup("other")[0] != "water" {
		t.Fatalf("expected trimmed, lower-cased ingredient, got %v", got.Lookup("Other"))
	}
	if len(CategorizeIngredients("")) != 0 {
		t.Fatalf("expected no groups for empty input")
	}
	if m := got.Map(); len(m["Sweeteners"]) != 1 {
		t.Fatalf("unexpected map view: %v", m)
	}
}

func TestCategoriesEndsWithOther(t *testing.T) {
	t.Parallel()

	cats := Categories()
	if cats[0] != "Sweeteners" || cats[len(cats)-1] != OtherCategory {
		t.Fatalf("unexpected categories: %v", cats)
	}
}

func TestHighlightAdditives(t *testing.T) {
	t.Parallel()

	got := HighlightAdditives([]string{"E300", "E999"})
	want := []Highlight{
		{Code: "E300", Color: "#81C784"},
		{Code: "E999", Color: Neutral},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected highlights: %+v", got)
	}
}

func TestHighlightAdditivesMatching(t *testing.T) {
	t.Parallel()

	cases := map[string]Color{
		"e200":    "#E57373",
		"en:e400": "#64B5F6",
		" E500 ":  "#FFD54F",
		"E2000":   "#E57373",
		"E30":     Neutral,
		"":        "",
	}
	for code, want := range cases {
		if code == "" {
			if len(HighlightAdditives([]string{code})) != 0 {
				t.Errorf("expected blank code to be skipped")
			}
			continue
		}
		if got := AdditiveColor(code); got != want {
			t.Errorf("%q: got %s want %s", code, got, want)
		}
	}
	got := HighlightAdditives([]string{" en:e300 "})
	if got[0].Code != "en:e300" {
		t.Fatalf("expected code text to be kept, got %q", got[0].Code)
	}
}

func TestNutriScoreScale(t *testing.T) {
	t.Parallel()

	cells := NutriScoreScale("c")
	if len(cells) != 5 {
		t.Fatalf("expected 5 cells, got %d", len(cells))
	}
	for i, c := range cells {
		if i == 2 {
			if !c.Selected || c.Color != "#FFD600" {
				t.Fatalf("expected C lit, got %+v", c)
			}
			continue
		}
		if c.Selected || c.Color != Neutral {
			t.Fatalf("expected %s unlit, got %+v", c.Letter, c)
		}
	}
	if unknown := NutriScoreScale("?"); !unknown[0].Selected {
		t.Fatalf("expected unknown grade to light A")
	}
}
