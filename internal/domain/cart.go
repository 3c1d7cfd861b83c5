package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Cart is the shopping cart of one storefront session. Lines keep insertion
// order, which is also the display order.
//
// Operations never fail. They report whether the cart changed so callers
// can skip persisting no-ops.
type Cart struct {
	SessionID string     `json:"session_id"`
	Lines     []CartLine `json:"lines"`
	Visible   bool       `json:"visible"`
	Version   int        `json:"version"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// CartLine is one purchasable variant in the cart. Title, price and image
// are a snapshot taken when the line was first added.
type CartLine struct {
	LineID    string          `json:"line_id"`
	ProductID int             `json:"product_id"`
	Title     string          `json:"title"`
	Price     decimal.Decimal `json:"price"`
	Image     string          `json:"image"`
	Quantity  int             `json:"quantity"`
	Size      int             `json:"size"`
	Color     string          `json:"color"`
	ColorName string          `json:"color_name"`
}

// NewLine is the payload of AddLine.
type NewLine struct {
	ProductID int
	Title     string
	Price     decimal.Decimal
	Image     string
	Size      int
	Color     string
	ColorName string
}

// NewCart returns an empty, hidden cart for the session.
func NewCart(sessionID string, now time.Time) *Cart {
	return &Cart{
		SessionID: sessionID,
		Lines:     []CartLine{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// LineSubtotal is price times quantity.
func (l CartLine) LineSubtotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// ToggleVisibility flips the side-panel flag.
func (c *Cart) ToggleVisibility() {
	c.Visible = !c.Visible
}

// AddLine adds one unit of the variant. An existing line for the same
// variant is incremented and keeps its original snapshot; otherwise a new
// line with quantity 1 is appended.
func (c *Cart) AddLine(in NewLine) CartLine {
	id := LineIDFor(in.ProductID, in.Size, in.Color)
	if i := c.indexOf(id); i >= 0 {
		c.Lines[i].Quantity++
		return c.Lines[i]
	}

	line := CartLine{
		LineID:    id,
		ProductID: in.ProductID,
		Title:     in.Title,
		Price:     in.Price,
		Image:     in.Image,
		Quantity:  1,
		Size:      in.Size,
		Color:     in.Color,
		ColorName: in.ColorName,
	}
	c.Lines = append(c.Lines, line)
	return line
}

// RemoveLine deletes the line if present.
func (c *Cart) RemoveLine(lineID string) bool {
	i := c.indexOf(lineID)
	if i < 0 {
		return false
	}
	c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
	return true
}

// SetQuantity sets the quantity of a line exactly. Quantities below 1 are
// ignored without error; callers clamp before calling.
func (c *Cart) SetQuantity(lineID string, quantity int) bool {
	if quantity < 1 {
		return false
	}
	i := c.indexOf(lineID)
	if i < 0 || c.Lines[i].Quantity == quantity {
		return false
	}
	c.Lines[i].Quantity = quantity
	return true
}

// ChangeSize moves a line to another size. When another line already holds
// the resulting variant the two are merged into that line and the source
// disappears; otherwise the line is renamed in place, keeping its position
// and quantity.
func (c *Cart) ChangeSize(lineID string, size int) bool {
	src := c.indexOf(lineID)
	if src < 0 {
		return false
	}

	line := c.Lines[src]
	target := LineIDFor(line.ProductID, size, line.Color)
	if target == line.LineID {
		return false
	}

	if dst := c.indexOf(target); dst >= 0 {
		c.Lines[dst].Quantity += line.Quantity
		c.Lines = append(c.Lines[:src], c.Lines[src+1:]...)
		return true
	}

	c.Lines[src].Size = size
	c.Lines[src].LineID = target
	return true
}

// Clear empties the cart. Visibility is left alone.
func (c *Cart) Clear() bool {
	if len(c.Lines) == 0 {
		return false
	}
	c.Lines = []CartLine{}
	return true
}

// Line returns the line with the given id.
func (c *Cart) Line(lineID string) (CartLine, bool) {
	if i := c.indexOf(lineID); i >= 0 {
		return c.Lines[i], true
	}
	return CartLine{}, false
}

// ItemCount returns the total number of units in the cart.
func (c *Cart) ItemCount() int {
	var count int
	for _, l := range c.Lines {
		count += l.Quantity
	}
	return count
}

// Clone returns a deep copy, so a failed save can be retried from the
// stored state.
func (c *Cart) Clone() *Cart {
	cpy := *c
	cpy.Lines = make([]CartLine, len(c.Lines))
	copy(cpy.Lines, c.Lines)
	return &cpy
}

func (c *Cart) indexOf(lineID string) int {
	for i := range c.Lines {
		if c.Lines[i].LineID == lineID {
			return i
		}
	}
	return -1
}
