package domain

import (
	"fmt"
	"slices"
)

// Sizes is the fixed shoe-size range offered for every product.
var Sizes = []int{38, 39, 40, 41, 42, 43, 44, 45, 46, 47}

// Color is a selectable colorway.
type Color struct {
	ID   string `json:"id"`
	Hex  string `json:"hex"`
	Name string `json:"name"`
}

// Colors is the colorway catalog shown on the product page.
var Colors = []Color{
	{ID: "navy", Hex: "#32374B", Name: "Shadow Navy"},
	{ID: "green", Hex: "#637365", Name: "Army Green"},
}

// Defaults used when a product card adds straight to the cart.
const (
	DefaultSize  = 38
	DefaultColor = "navy"
)

// ValidSize reports whether size belongs to Sizes.
func ValidSize(size int) bool {
	return slices.Contains(Sizes, size)
}

// MaxColorIDLen bounds the color segment of a line id.
const MaxColorIDLen = 32

// ValidColorID reports whether id is 1-32 characters from [a-z0-9-], the
// alphabet allowed in the color segment of a line id.
func ValidColorID(id string) bool {
	if id == "" || len(id) > MaxColorIDLen {
		return false
	}
	for i := 0; i < len(id); i++ {
		c := id[i]
		if (c < 'a' || c > 'z') && (c < '0' || c > '9') && c != '-' {
			return false
		}
	}
	return true
}

// KnownColor reports whether id is one of Colors.
func KnownColor(id string) bool {
	return slices.ContainsFunc(Colors, func(c Color) bool { return c.ID == id })
}

// ColorName resolves the display label for a color id. Unknown ids are
// shown as-is.
func ColorName(id string) string {
	for _, c := range Colors {
		if c.ID == id {
			return c.Name
		}
	}
	return id
}

// LineIDFor derives the identity of a cart line from its variant.
func LineIDFor(productID, size int, color string) string {
	return fmt.Sprintf("%d-%d-%s", productID, size, color)
}
