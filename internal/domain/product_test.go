package domain

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanImage(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "plain url", in: "https://i.imgur.com/a.jpeg", want: "https://i.imgur.com/a.jpeg"},
		{name: "json array", in: `["https://i.imgur.com/a.jpeg"]`, want: "https://i.imgur.com/a.jpeg"},
		{name: "json array takes first", in: `["https://x/1.png","https://x/2.png"]`, want: "https://x/1.png"},
		{name: "json string", in: `"https://x/1.png"`, want: "https://x/1.png"},
		{name: "broken array head", in: `["https://x/1.png"`, want: "https://x/1.png"},
		{name: "broken array tail", in: `"https://x/3.png"]`, want: "https://x/3.png"},
		{name: "empty array", in: `[]`, want: ""},
		{name: "empty", in: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanImage(tt.in))
		})
	}
}

func TestProduct_Gallery(t *testing.T) {
	p := Product{Images: []string{"a", "b", "c"}}
	assert.Equal(t, []string{"a", "b", "c", "a"}, p.Gallery(GallerySize))

	assert.Equal(t, []string{"x", "x", "x", "x"}, Product{Images: []string{"x"}}.Gallery(4))
	assert.Empty(t, Product{}.Gallery(4))
}

func TestProduct_PrimaryImage(t *testing.T) {
	assert.Equal(t, "a", Product{Images: []string{"a", "b"}}.PrimaryImage())
	assert.Equal(t, "", Product{}.PrimaryImage())
}

func TestProduct_DecodesNumericPrice(t *testing.T) {
	var p Product
	err := json.Unmarshal([]byte(`{"id":4,"title":"Sneaker","price":89.5,"images":["a"],"category":{"id":4,"name":"SHOES"}}`), &p)
	require.NoError(t, err)
	assert.Equal(t, "89.5", p.Price.String())
	assert.Equal(t, 4, p.Category.ID)
}

func TestCategory_DisplayName(t *testing.T) {
	assert.Equal(t, "Running Shoes", Category{Name: "RUNNING shoes"}.DisplayName())
	assert.Equal(t, "Clothes", Category{Name: "clothes"}.DisplayName())
	assert.Equal(t, "", Category{}.DisplayName())
}

func TestVariants(t *testing.T) {
	assert.True(t, ValidSize(38))
	assert.True(t, ValidSize(47))
	assert.False(t, ValidSize(37))
	assert.False(t, ValidSize(48))

	assert.True(t, KnownColor("navy"))
	assert.False(t, KnownColor("pink"))
	assert.Equal(t, "Army Green", ColorName("green"))
	assert.Equal(t, "pink", ColorName("pink"))

	assert.Equal(t, "12-40-green", LineIDFor(12, 40, "green"))
}

func TestValidColorID(t *testing.T) {
	tests := []struct {
		id   string
		want bool
	}{
		{"navy", true},
		{"army-green-2", true},
		{strings.Repeat("a", MaxColorIDLen), true},
		{"", false},
		{"Navy", false},
		{"navy blue", false},
		{"navy/1", false},
		{strings.Repeat("a", MaxColorIDLen+1), false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ValidColorID(tt.id), tt.id)
	}
}
