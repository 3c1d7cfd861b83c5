package domain

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// GallerySize is the number of slots on the product detail gallery.
const GallerySize = 4

// Product is a catalog record as served by the product API.
type Product struct {
	ID          int             `json:"id"`
	Title       string          `json:"title"`
	Price       decimal.Decimal `json:"price"`
	Description string          `json:"description"`
	Images      []string        `json:"images"`
	Category    Category        `json:"category"`
}

// Category groups products on the home page.
type Category struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Image string `json:"image"`
}

// PrimaryImage returns the first image or "" when there is none.
func (p Product) PrimaryImage() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}

// Gallery repeats the images cyclically to fill n slots.
func (p Product) Gallery(n int) []string {
	if len(p.Images) == 0 || n <= 0 {
		return []string{}
	}
	out := make([]string, n)
	for i := range out {
		out[i] = p.Images[i%len(p.Images)]
	}
	return out
}

// DisplayName title-cases the category name word by word.
func (c Category) DisplayName() string {
	words := strings.Split(strings.ToLower(c.Name), " ")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// CleanImage unwraps image references that the catalog sometimes stores as
// a JSON-encoded array or string, e.g. `["https://x/y.png"]`. Fragments of a
// broken array such as `["https://x/y.png"` lose their stray brackets and
// quotes. Anything else is returned verbatim.
func CleanImage(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return raw
	}

	var many []string
	if json.Unmarshal([]byte(s), &many) == nil {
		if len(many) == 0 {
			return ""
		}
		return many[0]
	}

	var one string
	if json.Unmarshal([]byte(s), &one) == nil {
		return one
	}

	if strings.ContainsAny(s[:1], `["`) || strings.ContainsAny(s[len(s)-1:], `]"`) {
		return strings.Trim(s, `[]"`)
	}
	return raw
}
