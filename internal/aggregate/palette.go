package aggregate

// Palette holds the category segment colours, cycled by index.
var Palette = [...]string{
	"#8B5CF6",
	"#34D399",
	"#F59E0B",
	"#FB7185",
	"#7C3AED",
	"#60A5FA",
}

// PickColor returns the palette colour for a zero-based series index.
func PickColor(i int) string {
	n := len(Palette)
	return Palette[((i%n)+n)%n]
}
