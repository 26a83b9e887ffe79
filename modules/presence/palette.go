package presence

import "math/rand/v2"

// DefaultColor is used when the palette is empty.
const DefaultColor = "black"

// DefaultPalette is the colour set handed out to users.
var DefaultPalette = []string{
	"red", "blue", "darkgreen", "orange", "magenta",
	"black", "pink", "skyblue", "brown", "limegreen",
	"purple", "darkblue", "darkred", "darkorange", "teal",
}

// Palette assigns display colours. Colours may repeat across users.
type Palette struct {
	colors []string
	intn   func(n int) int
}

// NewPalette creates a palette drawing uniformly from colors.
// A nil intn selects math/rand/v2.IntN.
func NewPalette(colors []string, intn func(n int) int) *Palette {
	if len(colors) == 0 {
		colors = DefaultPalette
	}
	if intn == nil {
		intn = rand.IntN
	}
	cp := make([]string, len(colors))
	copy(cp, colors)
	return &Palette{colors: cp, intn: intn}
}

// Pick returns a colour for a newly identified user.
func (p *Palette) Pick() string {
	return pickColor(p.colors, p.intn)
}

// Colors returns a copy of the palette.
func (p *Palette) Colors() []string {
	cp := make([]string, len(p.colors))
	copy(cp, p.colors)
	return cp
}

func pickColor(colors []string, intn func(n int) int) string {
	if len(colors) == 0 {
		return DefaultColor
	}
	i := intn(len(colors))
	if i < 0 || i >= len(colors) {
		return colors[0]
	}
	return colors[i]
}
