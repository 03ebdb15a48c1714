package classify

import "strings"

// Color is a display color in #RRGGBB form.
type Color string

const (
	Neutral   Color = "#888888"
	NovaColor Color = "#FF9800"
)

type additiveColor struct {
	code  string
	color Color
}

var additiveColors = []additiveColor{
	{"E200", "#E57373"}, // red
	{"E300", "#81C784"}, // green
	{"E400", "#64B5F6"}, // blue
	{"E500", "#FFD54F"}, // yellow
}

type Highlight struct {
	Code  string `json:"code"`
	Color Color  `json:"color"`
}

// HighlightAdditives pairs every non-blank code with a display color. A
// table key matches when the upper-cased code contains it; the longest
// matching key wins, then table order. Unmatched codes get Neutral.
func HighlightAdditives(codes []string) []Highlight {
	out := make([]Highlight, 0, len(codes))
	for _, raw := range codes {
		code := strings.TrimSpace(raw)
		if code == "" {
			continue
		}
		out = append(out, Highlight{Code: code, Color: AdditiveColor(code)})
	}
	return out
}

func AdditiveColor(code string) Color {
	norm := strings.ToUpper(strings.TrimSpace(code))
	best := -1
	for i, entry := range additiveColors {
		if !strings.Contains(norm, entry.code) {
			continue
		}
		if best < 0 || len(entry.code) > len(additiveColors[best].code) {
			best = i
		}
	}
	if best < 0 {
		return Neutral
	}
	return additiveColors[best].color
}

var nutriScoreLetters = []string{"A", "B", "C", "D", "E"}

var nutriScoreColors = []Color{
	"#00C853", // A
	"#AEEA00", // B
	"#FFD600", // C
	"#FF6D00", // D
	"#D50000", // E
}

type ScoreCell struct {
	Letter   string `json:"letter"`
	Color    Color  `json:"color"`
	Selected bool   `json:"selected"`
}

// NutriScoreScale returns the A-E bar with the product's grade lit and the
// rest neutral. Unknown grades light A.
func NutriScoreScale(grade string) []ScoreCell {
	selected := 0
	g := strings.ToUpper(strings.TrimSpace(grade))
	for i, l := range nutriScoreLetters {
		if l == g {
			selected = i
			break
		}
	}
	cells := make([]ScoreCell, len(nutriScoreLetters))
	for i, l := range nutriScoreLetters {
		cells[i] = ScoreCell{Letter: l, Color: Neutral}
		if i == selected {
			cells[i].Color = nutriScoreColors[i]
			cells[i].Selected = true
		}
	}
	return cells
}
