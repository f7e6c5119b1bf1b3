package canvas

// Swatch is a selectable canvas background colour.
type Swatch struct {
	ID    string `json:"id"`
	Value string `json:"value"`
	Label string `json:"label"`
}

// Palette lists the background colours offered by the colour picker.
var Palette = []Swatch{
	{ID: "white", Value: "#ffffff", Label: "White"},
	{ID: "slate", Value: "#f8fafc", Label: "Slate"},
	{ID: "cream", Value: "#fffbf0", Label: "Cream"},
	{ID: "mint", Value: "#f0fdf4", Label: "Mint"},
	{ID: "sky", Value: "#f0f9ff", Label: "Sky"},
	{ID: "rose", Value: "#fff1f2", Label: "Rose"},
	{ID: "lavender", Value: "#f5f3ff", Label: "Lavender"},
}

// DefaultBackground is used when a space has no colour of its own.
const DefaultBackground = "#ffffff"

// InPalette reports whether value is one of the palette colours.
func InPalette(value string) bool {
	for _, s := range Palette {
		if s.Value == value {
			return true
		}
	}
	return false
}
