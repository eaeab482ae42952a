package cart

import (
	"errors"
	"fmt"
	"math"

	"github.com/celiafashion/storefront/internal/models"
	"github.com/celiafashion/storefront/internal/storage"
)

var (
	ErrInvalidCoupon = errors.New("invalid coupon code")
	ErrNotInCart     = errors.New("item not in cart")
	ErrNotInSaved    = errors.New("item not in saved list")
)

// coupons maps code to fractional discount. Discounts are multiplicative on
// the subtotal and do not stack.
var coupons = map[string]float64{
	"SAVE10": 0.10,
	"SAVE20": 0.20,
}

// Discount resolves a coupon code to its fractional discount.
func Discount(code string) (float64, error) {
	if code == "" {
		return 0, nil
	}
	d, ok := coupons[code]
	if !ok {
		return 0, ErrInvalidCoupon
	}
	return d, nil
}

type Totals struct {
	Subtotal float64 `json:"subtotal"`
	Discount float64 `json:"discount"`
	Total    float64 `json:"total"`
}

// Subtotal sums price × quantity over items.
func Subtotal(items []models.CartItem) float64 {
	var sum float64
	for _, it := range items {
		q := it.Quantity
		if q < 1 {
			q = 1
		}
		sum += it.Price * float64(q)
	}
	return sum
}

// ComputeTotals applies the coupon (if any) against the subtotal.
func ComputeTotals(items []models.CartItem, code string) (Totals, error) {
	d, err := Discount(code)
	if err != nil {
		return Totals{}, err
	}
	sub := Subtotal(items)
	discount := round2(sub * d)
	return Totals{Subtotal: round2(sub), Discount: discount, Total: round2(sub - discount)}, nil
}

// Service owns the cart, saved-for-later and wishlist lists. Every mutation
// re-reads and rewrites the persisted list inside one store transaction.
type Service struct {
	Store *storage.Store
}

func (s *Service) Items() []models.CartItem {
	items := []models.CartItem{}
	s.Store.Read(storage.KeyCart, &items)
	return items
}

func (s *Service) Saved() []models.CartItem {
	items := []models.CartItem{}
	s.Store.Read(storage.KeySaved, &items)
	return items
}

// Add puts p in the cart. A product already present gets its quantity
// incremented instead of a duplicate line.
func (s *Service) Add(p models.Product) ([]models.CartItem, error) {
	var out []models.CartItem
	err := s.Store.Txn(func(tx *storage.Tx) error {
		items := []models.CartItem{}
		tx.Read(storage.KeyCart, &items)

		found := false
		for i := range items {
			if items[i].ID == p.ID {
				items[i].Quantity++
				found = true
				break
			}
		}
		if !found {
			items = append(items, models.CartItem{Product: p, Quantity: 1})
		}
		out = items
		return tx.Write(storage.KeyCart, items)
	})
	return out, err
}

// SetQuantity replaces the line quantity for product id, floored at 1.
func (s *Service) SetQuantity(id string, quantity int) ([]models.CartItem, error) {
	if quantity < 1 {
		quantity = 1
	}
	var out []models.CartItem
	err := s.Store.Txn(func(tx *storage.Tx) error {
		items := []models.CartItem{}
		tx.Read(storage.KeyCart, &items)

		for i := range items {
			if items[i].ID == id {
				items[i].Quantity = quantity
				out = items
				return tx.Write(storage.KeyCart, items)
			}
		}
		return fmt.Errorf("%w: %s", ErrNotInCart, id)
	})
	return out, err
}

// Remove splices the line for product id out of the cart, preserving the
// order of the rest.
func (s *Service) Remove(id string) ([]models.CartItem, error) {
	var out []models.CartItem
	err := s.Store.Txn(func(tx *storage.Tx) error {
		items := []models.CartItem{}
		tx.Read(storage.KeyCart, &items)

		idx := indexOf(items, id)
		if idx < 0 {
			return fmt.Errorf("%w: %s", ErrNotInCart, id)
		}
		items = append(items[:idx], items[idx+1:]...)
		out = items
		return tx.Write(storage.KeyCart, items)
	})
	return out, err
}

// SaveForLater moves the line for product id from the cart to the saved list.
func (s *Service) SaveForLater(id string) error {
	return s.Store.Txn(func(tx *storage.Tx) error {
		items := []models.CartItem{}
		saved := []models.CartItem{}
		tx.Read(storage.KeyCart, &items)
		tx.Read(storage.KeySaved, &saved)

		idx := indexOf(items, id)
		if idx < 0 {
			return fmt.Errorf("%w: %s", ErrNotInCart, id)
		}
		saved = append(saved, items[idx])
		items = append(items[:idx], items[idx+1:]...)

		if err := tx.Write(storage.KeyCart, items); err != nil {
			return err
		}
		return tx.Write(storage.KeySaved, saved)
	})
}

// MoveToCart moves the line for product id back from the saved list, with
// quantity reset to 1.
func (s *Service) MoveToCart(id string) error {
	return s.Store.Txn(func(tx *storage.Tx) error {
		items := []models.CartItem{}
		saved := []models.CartItem{}
		tx.Read(storage.KeyCart, &items)
		tx.Read(storage.KeySaved, &saved)

		idx := indexOf(saved, id)
		if idx < 0 {
			return fmt.Errorf("%w: %s", ErrNotInSaved, id)
		}
		item := saved[idx]
		item.Quantity = 1
		saved = append(saved[:idx], saved[idx+1:]...)
		items = append(items, item)

		if err := tx.Write(storage.KeyCart, items); err != nil {
			return err
		}
		return tx.Write(storage.KeySaved, saved)
	})
}

// Clear empties the cart, used after checkout.
func (s *Service) Clear() error {
	return s.Store.Write(storage.KeyCart, []models.CartItem{})
}

func (s *Service) Wishlist() []models.Product {
	items := []models.Product{}
	s.Store.Read(storage.KeyWishlist, &items)
	return items
}

// ToggleWishlist adds p when absent and removes it when present. It reports
// whether the product ended up on the list.
func (s *Service) ToggleWishlist(p models.Product) (bool, error) {
	var added bool
	err := s.Store.Txn(func(tx *storage.Tx) error {
		items := []models.Product{}
		tx.Read(storage.KeyWishlist, &items)

		for i := range items {
			if items[i].ID == p.ID {
				items = append(items[:i], items[i+1:]...)
				return tx.Write(storage.KeyWishlist, items)
			}
		}
		added = true
		return tx.Write(storage.KeyWishlist, append(items, p))
	})
	return added, err
}

func indexOf(items []models.CartItem, id string) int {
	for i := range items {
		if items[i].ID == id {
			return i
		}
	}
	return -1
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
