package domain

import (
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// MaxLineQuantity bounds a single cart line.
const MaxLineQuantity = 10000

type Cart struct {
	Owner  CartIdentifier
	Items  []CartItem
	IsOpen bool

	// Version is the storage-side revision the cart was read at; zero means
	// the cart has never been persisted.
	Version   int64
	UpdatedAt time.Time
}

// CartItem is one cart line. Lines are unique by (ProductID, Size, Color).
// UnitPrice is a display hint only and never used to charge the customer.
type CartItem struct {
	ProductID    int             `json:"id"`
	Name         string          `json:"name"`
	UnitPrice    decimal.Decimal `json:"price"`
	Quantity     int             `json:"quantity"`
	Size         string          `json:"size,omitempty"`
	Color        string          `json:"color,omitempty"`
	Image1       string          `json:"image1,omitempty"`
	Image2       string          `json:"image2,omitempty"`
	VariantImage string          `json:"variantImage,omitempty"`
}

type LineKey struct {
	ProductID int
	Size      string
	Color     string
}

func (i CartItem) Key() LineKey {
	return LineKey{
		ProductID: i.ProductID,
		Size:      strings.TrimSpace(i.Size),
		Color:     strings.TrimSpace(i.Color),
	}
}

// LineSelector picks cart lines by product. A nil Size or Color matches any value.
type LineSelector struct {
	ProductID int
	Size      *string
	Color     *string
}

func SelectLine(key LineKey) LineSelector {
	size, color := key.Size, key.Color
	return LineSelector{ProductID: key.ProductID, Size: &size, Color: &color}
}

func (s LineSelector) Matches(item CartItem) bool {
	k := item.Key()
	if k.ProductID != s.ProductID {
		return false
	}
	if s.Size != nil && strings.TrimSpace(*s.Size) != k.Size {
		return false
	}
	if s.Color != nil && strings.TrimSpace(*s.Color) != k.Color {
		return false
	}
	return true
}

func NewCart(owner CartIdentifier) Cart {
	return Cart{Owner: owner, Items: []CartItem{}}
}

// Add increments the quantity of the line with the same key, or appends item.
func (c *Cart) Add(item CartItem) error {
	if item.ProductID <= 0 {
		return Invalid("id", "product id must be positive")
	}
	if item.Quantity <= 0 {
		return Invalid("quantity", "quantity must be a positive integer")
	}

	item.Size = strings.TrimSpace(item.Size)
	item.Color = strings.TrimSpace(item.Color)

	if idx := c.index(item.Key()); idx >= 0 {
		next := c.Items[idx].Quantity + item.Quantity
		if next > MaxLineQuantity {
			return Invalid("quantity", "line quantity exceeds limit")
		}
		c.Items[idx].Quantity = next
		return nil
	}

	if item.Quantity > MaxLineQuantity {
		return Invalid("quantity", "line quantity exceeds limit")
	}
	c.Items = append(c.Items, item)
	return nil
}

// Remove deletes every matching line regardless of quantity and reports how many went.
func (c *Cart) Remove(sel LineSelector) int {
	before := len(c.Items)
	c.Items = slices.DeleteFunc(c.Items, sel.Matches)
	return before - len(c.Items)
}

// SetQuantity sets the quantity of the selected line. A quantity <= 0 behaves
// exactly like Remove, including when nothing matches.
func (c *Cart) SetQuantity(sel LineSelector, quantity int) error {
	if quantity <= 0 {
		c.Remove(sel)
		return nil
	}
	if quantity > MaxLineQuantity {
		return Invalid("quantity", "line quantity exceeds limit")
	}

	var matched []int
	for i := range c.Items {
		if sel.Matches(c.Items[i]) {
			matched = append(matched, i)
		}
	}

	switch len(matched) {
	case 0:
		return NotFound("id", "item not found in cart")
	case 1:
		c.Items[matched[0]].Quantity = quantity
		return nil
	default:
		return Invalid("id", "several lines match this product; specify size and color")
	}
}

func (c *Cart) Clear() {
	c.Items = []CartItem{}
}

// Merge folds items into the cart keyed by (ProductID, Size, Color).
func (c *Cart) Merge(items []CartItem) error {
	for i, item := range items {
		if err := c.Add(item); err != nil {
			var de *Error
			if errors.As(err, &de) {
				de.Line = i + 1
			}
			return err
		}
	}
	return nil
}

func (c Cart) Clone() Cart {
	c.Items = slices.Clone(c.Items)
	if c.Items == nil {
		c.Items = []CartItem{}
	}
	return c
}

func (c Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

func (c Cart) index(key LineKey) int {
	return slices.IndexFunc(c.Items, func(it CartItem) bool {
		return it.Key() == key
	})
}
