package cart

import (
	"sort"
	"strings"
	"sync"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Quantity bounds for a single cart line. Quantities are clamped to this
// range on every mutation; a line never leaves the cart implicitly.
const (
	MinQuantity = 1
	MaxQuantity = 99
)

var (
	// ErrLineNotFound is returned when a referenced cart line does not exist.
	ErrLineNotFound = errors.New("cart line not found")
	// ErrQuantityTooLow is returned when a mutation would push a line's
	// quantity below MinQuantity. Removal is a separate, explicit operation.
	ErrQuantityTooLow = errors.New("quantity must be at least 1")
)

// Line is a single cart entry. Lines are uniquely keyed by product ID plus
// the signature of the selected options, so the same product with different
// options occupies separate lines.
type Line struct {
	ProductID string
	Title     string
	UnitPrice decimal.Decimal
	Quantity  int
	Options   map[string]string
}

// Key returns the line's unique key within a cart: the product ID, suffixed
// with the options signature when options are present.
func (l Line) Key() string {
	sig := OptionsSignature(l.Options)
	if sig == "" {
		return l.ProductID
	}
	return l.ProductID + ";" + sig
}

// Subtotal returns UnitPrice x Quantity rounded to 2 decimal places,
// half away from zero. Rounding happens after multiplication so repeated
// computation always yields the same displayed amount.
func (l Line) Subtotal() decimal.Decimal {
	qty := decimal.NewFromInt(int64(l.Quantity))
	return l.UnitPrice.Mul(qty).Round(2)
}

// OptionsSignature builds a deterministic signature for a set of selected
// options: keys sorted lexicographically, joined as "k=v" pairs with ";".
// An empty or nil map yields the empty string.
func OptionsSignature(opts map[string]string) string {
	if len(opts) == 0 {
		return ""
	}
	keys := make([]string, 0, len(opts))
	for k := range opts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(';')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(opts[k])
	}
	return b.String()
}

// Cart holds a session's selected items. All mutation goes through methods so
// the quantity invariant cannot be bypassed; the zero value is not usable,
// construct with New.
type Cart struct {
	mu    sync.Mutex
	lines map[string]*Line
	order []string // insertion order of line keys, for stable listing
}

// New creates an empty cart.
func New() *Cart {
	return &Cart{
		lines: make(map[string]*Line),
	}
}

// Add inserts a line or, when a line with the same key already exists,
// increases its quantity. The resulting quantity is clamped to
// [MinQuantity, MaxQuantity]; adding to a full line saturates at MaxQuantity.
// The returned line is a copy.
func (c *Cart) Add(l Line) Line {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := l.Key()
	if existing, ok := c.lines[key]; ok {
		existing.Quantity = clampQuantity(existing.Quantity + l.Quantity)
		return *existing
	}

	l.Quantity = clampQuantity(l.Quantity)
	stored := l
	c.lines[key] = &stored
	c.order = append(c.order, key)
	return stored
}

// Increment adjusts an existing line's quantity by delta (which may be
// negative). The result saturates at MaxQuantity; a result below MinQuantity
// is rejected with ErrQuantityTooLow and the line is left unchanged.
func (c *Cart) Increment(key string, delta int) (Line, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	l, ok := c.lines[key]
	if !ok {
		return Line{}, ErrLineNotFound
	}

	next := l.Quantity + delta
	if next < MinQuantity {
		return Line{}, ErrQuantityTooLow
	}
	if next > MaxQuantity {
		next = MaxQuantity
	}
	l.Quantity = next
	return *l, nil
}

// SetQuantity replaces an existing line's quantity. Values above MaxQuantity
// saturate; values below MinQuantity are rejected with ErrQuantityTooLow.
func (c *Cart) SetQuantity(key string, quantity int) (Line, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	l, ok := c.lines[key]
	if !ok {
		return Line{}, ErrLineNotFound
	}
	if quantity < MinQuantity {
		return Line{}, ErrQuantityTooLow
	}
	l.Quantity = clampQuantity(quantity)
	return *l, nil
}

// Remove deletes a line from the cart. Removing an absent line returns
// ErrLineNotFound.
func (c *Cart) Remove(key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.lines[key]; !ok {
		return ErrLineNotFound
	}
	delete(c.lines, key)
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	return nil
}

// Clear removes every line.
func (c *Cart) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.lines = make(map[string]*Line)
	c.order = nil
}

// IsEmpty reports whether the cart has no lines.
func (c *Cart) IsEmpty() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.lines) == 0
}

// Lines returns a copy of all lines in insertion order.
func (c *Cart) Lines() []Line {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Line, 0, len(c.order))
	for _, key := range c.order {
		out = append(out, *c.lines[key])
	}
	return out
}

// Total returns the sum of all line subtotals. Each line is rounded first,
// so the total always equals the sum of the displayed line amounts.
func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, l := range c.Lines() {
		total = total.Add(l.Subtotal())
	}
	return total
}

func clampQuantity(q int) int {
	if q < MinQuantity {
		return MinQuantity
	}
	if q > MaxQuantity {
		return MaxQuantity
	}
	return q
}
