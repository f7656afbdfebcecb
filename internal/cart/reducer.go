package cart

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ItemKind separates catalog products from priced custom requests.
type ItemKind string

const (
	ItemKindProduct ItemKind = "product"
	ItemKindCustom  ItemKind = "custom"
)

// Item is a denormalized cart line. ID is the product or custom request id.
type Item struct {
	ID        uuid.UUID       `json:"id"`
	Kind      ItemKind        `json:"kind"`
	SellerID  uuid.UUID       `json:"sellerId"`
	Name      string          `json:"name"`
	ImageURL  string          `json:"imageUrl,omitempty"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	MRP       decimal.Decimal `json:"mrp"`
	Quantity  int             `json:"quantity"`
}

// Cart is the ordered list of lines held for one customer. Entries are unique
// by ID and every quantity is at least 1.
type Cart struct {
	Items     []Item    `json:"items"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Find returns the entry with the given id.
func (c Cart) Find(id uuid.UUID) (Item, bool) {
	for _, item := range c.Items {
		if item.ID == id {
			return item, true
		}
	}
	return Item{}, false
}

// Add merges qty into an existing entry or appends a new one. A qty below 1
// counts as 1.
func (c Cart) Add(item Item, qty int) Cart {
	if qty < 1 {
		qty = 1
	}
	items := c.clone()
	for i := range items {
		if items[i].ID == item.ID {
			items[i].Quantity += qty
			return Cart{Items: items, UpdatedAt: c.UpdatedAt}
		}
	}
	item.Quantity = qty
	return Cart{Items: append(items, item), UpdatedAt: c.UpdatedAt}
}

// RemoveOne decrements an entry and drops it when it would reach zero.
func (c Cart) RemoveOne(id uuid.UUID) Cart {
	items := make([]Item, 0, len(c.Items))
	for _, item := range c.Items {
		if item.ID == id {
			if item.Quantity <= 1 {
				continue
			}
			item.Quantity--
		}
		items = append(items, item)
	}
	return Cart{Items: items, UpdatedAt: c.UpdatedAt}
}

// Remove drops an entry regardless of quantity.
func (c Cart) Remove(id uuid.UUID) Cart {
	items := make([]Item, 0, len(c.Items))
	for _, item := range c.Items {
		if item.ID != id {
			items = append(items, item)
		}
	}
	return Cart{Items: items, UpdatedAt: c.UpdatedAt}
}

// Clear empties the cart.
func (c Cart) Clear() Cart {
	return Cart{Items: []Item{}, UpdatedAt: c.UpdatedAt}
}

// TotalQuantity sums every entry's quantity.
func (c Cart) TotalQuantity() int {
	total := 0
	for _, item := range c.Items {
		total += item.Quantity
	}
	return total
}

// Subtotal sums unit price times quantity.
func (c Cart) Subtotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range c.Items {
		total = total.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return total
}

func (c Cart) clone() []Item {
	items := make([]Item, len(c.Items))
	copy(items, c.Items)
	return items
}
