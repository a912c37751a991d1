package domain

import (
	"fmt"
	"strconv"
	"strings"

	apperrors "github.com/lisek75/uma-food-chatbot/pkg/errors"
)

// MaxLineQuantity caps the quantity held on a single cart line.
const MaxLineQuantity = 999

// CartLine is one item in a conversation's cart.
type CartLine struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

// Cart holds item quantities in the order items were first added.
// The zero value is an empty cart.
type Cart struct {
	lines []CartLine
}

// NewCart builds a cart by merge-adding the given lines in order. A line
// that would exceed MaxLineQuantity is skipped.
func NewCart(lines ...CartLine) Cart {
	var c Cart
	for _, l := range lines {
		_ = c.Add(l.Name, l.Quantity)
	}
	return c
}

// FindItemIndex returns the index of the line named name, or -1.
func (c Cart) FindItemIndex(name string) int {
	for i := range c.lines {
		if c.lines[i].Name == name {
			return i
		}
	}
	return -1
}

// Add merges qty into the line for name, appending a new line if needed.
// Non-positive quantities are ignored. A merge that would push the line past
// MaxLineQuantity fails with MalformedInput and leaves the cart unchanged.
func (c *Cart) Add(name string, qty int) error {
	if qty <= 0 {
		return nil
	}
	current := c.Quantity(name)
	if qty > MaxLineQuantity-current {
		return apperrors.MalformedInput(
			fmt.Sprintf("at most %d of %s per order", MaxLineQuantity, name))
	}
	if i := c.FindItemIndex(name); i >= 0 {
		c.lines[i].Quantity += qty
		return nil
	}
	c.lines = append(c.lines, CartLine{Name: name, Quantity: qty})
	return nil
}

// Remove deletes the line for name and reports whether it was present.
func (c *Cart) Remove(name string) bool {
	i := c.FindItemIndex(name)
	if i < 0 {
		return false
	}
	c.lines = append(c.lines[:i], c.lines[i+1:]...)
	return true
}

// Contains reports whether name is in the cart.
func (c Cart) Contains(name string) bool {
	return c.FindItemIndex(name) >= 0
}

// Quantity returns the quantity held for name, or 0.
func (c Cart) Quantity(name string) int {
	if i := c.FindItemIndex(name); i >= 0 {
		return c.lines[i].Quantity
	}
	return 0
}

// Lines returns a copy of the cart lines.
func (c Cart) Lines() []CartLine {
	out := make([]CartLine, len(c.lines))
	copy(out, c.lines)
	return out
}

// Clone returns an independent copy of the cart.
func (c Cart) Clone() Cart {
	return Cart{lines: c.Lines()}
}

// IsEmpty reports whether the cart has no lines.
func (c Cart) IsEmpty() bool {
	return len(c.lines) == 0
}

// Len returns the number of distinct items.
func (c Cart) Len() int {
	return len(c.lines)
}

// ItemCount returns the total number of units in the cart.
func (c Cart) ItemCount() int {
	var count int
	for _, l := range c.lines {
		count += l.Quantity
	}
	return count
}

// Summary renders the cart as "2 Tuna Sushi, 1 Chirasi".
func (c Cart) Summary() string {
	return SummarizeLines(c.lines)
}

// SummarizeLines renders lines as "2 Tuna Sushi, 1 Chirasi".
func SummarizeLines(lines []CartLine) string {
	parts := make([]string, 0, len(lines))
	for _, l := range lines {
		parts = append(parts, strconv.Itoa(l.Quantity)+" "+l.Name)
	}
	return strings.Join(parts, ", ")
}
