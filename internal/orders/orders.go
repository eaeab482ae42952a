package orders

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/celiafashion/storefront/internal/cart"
	"github.com/celiafashion/storefront/internal/events"
	"github.com/celiafashion/storefront/internal/models"
	"github.com/celiafashion/storefront/internal/storage"
)

var (
	ErrNotFound       = errors.New("order not found")
	ErrEmptyCart      = errors.New("cart is empty")
	ErrNotCancellable = errors.New("order can no longer be cancelled")
)

// stages is the fixed status sequence; Delivered is terminal.
var stages = []models.OrderStatus{
	models.StatusProcessing,
	models.StatusShipped,
	models.StatusOutForDelivery,
	models.StatusDelivered,
}

// Next returns the status one step further along, or false once Delivered.
func Next(s models.OrderStatus) (models.OrderStatus, bool) {
	for i, stage := range stages {
		if stage == s && i < len(stages)-1 {
			return stages[i+1], true
		}
	}
	return s, false
}

// deliveryDays is the presentational estimate per status.
var deliveryDays = map[models.OrderStatus]int{
	models.StatusProcessing:     3,
	models.StatusShipped:        2,
	models.StatusOutForDelivery: 1,
	models.StatusDelivered:      0,
}

// EstimatedDelivery derives the expected delivery date from now. It is never
// persisted. The second return is false once the order is delivered.
func EstimatedDelivery(s models.OrderStatus, now time.Time) (time.Time, bool) {
	if s == models.StatusDelivered {
		return now, false
	}
	days, ok := deliveryDays[s]
	if !ok {
		days = deliveryDays[models.StatusProcessing]
	}
	return now.AddDate(0, 0, days), true
}

type CheckoutRequest struct {
	DeliveryDetails models.DeliveryDetails `json:"deliveryDetails"`
	PaymentMethod   string                 `json:"paymentMethod"`
	CouponCode      string                 `json:"couponCode"`
}

// Service owns the persisted order collection. All mutations run inside a
// store transaction that re-reads the full collection first, so the two
// polling views can never clobber each other's writes.
type Service struct {
	Store  *storage.Store
	Events *events.Producer
	Log    *slog.Logger

	// now is swappable in tests.
	now func() time.Time
}

func NewService(store *storage.Store, producer *events.Producer, log *slog.Logger) *Service {
	return &Service{Store: store, Events: producer, Log: log, now: time.Now}
}

// Checkout snapshots the cart into a new Processing order, records the
// checkout-time amount, appends the items to the purchase history and clears
// the cart. No payment is executed; the payment method is a recorded label.
func (s *Service) Checkout(ctx context.Context, req CheckoutRequest) (models.Order, error) {
	var order models.Order
	err := s.Store.Txn(func(tx *storage.Tx) error {
		items := []models.CartItem{}
		tx.Read(storage.KeyCart, &items)
		if len(items) == 0 {
			return ErrEmptyCart
		}

		totals, err := cart.ComputeTotals(items, req.CouponCode)
		if err != nil {
			return err
		}

		now := s.now()
		order = models.Order{
			ID:              strconv.FormatInt(now.UnixMilli(), 10),
			Items:           items,
			Amount:          totals.Total,
			DeliveryDetails: req.DeliveryDetails,
			PaymentMethod:   req.PaymentMethod,
			Date:            now.Format("Jan 2, 2006 3:04 PM"),
			Status:          models.StatusProcessing,
		}

		all := []models.Order{}
		tx.Read(storage.KeyOrders, &all)
		all = append(all, order)
		if err := tx.Write(storage.KeyOrders, all); err != nil {
			return err
		}

		history := []models.CartItem{}
		tx.Read(storage.KeyPurchaseHistory, &history)
		history = append(history, items...)
		if err := tx.Write(storage.KeyPurchaseHistory, history); err != nil {
			return err
		}
		if err := tx.Write(storage.KeyLastPurchase, items); err != nil {
			return err
		}
		return tx.Write(storage.KeyCart, []models.CartItem{})
	})
	if err != nil {
		return models.Order{}, err
	}

	s.Events.PublishAsync(order.ID, map[string]any{
		"type":   "order_created",
		"order":  order.ID,
		"amount": order.Amount,
	})
	return order, nil
}

// List returns orders newest first.
func (s *Service) List() []models.Order {
	all := []models.Order{}
	s.Store.Read(storage.KeyOrders, &all)
	for i, j := 0, len(all)-1; i < j; i, j = i+1, j-1 {
		all[i], all[j] = all[j], all[i]
	}
	return all
}

func (s *Service) Get(id string) (models.Order, error) {
	all := []models.Order{}
	s.Store.Read(storage.KeyOrders, &all)
	for _, o := range all {
		if o.ID == id {
			return o, nil
		}
	}
	return models.Order{}, fmt.Errorf("%w: %s", ErrNotFound, id)
}

// AdvanceAll moves every non-terminal order exactly one status forward.
func (s *Service) AdvanceAll() error {
	return s.advance(func(models.Order) bool { return true })
}

// AdvanceOrder moves a single order one status forward, as the detail view's
// timer does.
func (s *Service) AdvanceOrder(id string) error {
	return s.advance(func(o models.Order) bool { return o.ID == id })
}

func (s *Service) advance(match func(models.Order) bool) error {
	return s.Store.Txn(func(tx *storage.Tx) error {
		all := []models.Order{}
		tx.Read(storage.KeyOrders, &all)

		changed := false
		for i := range all {
			if !match(all[i]) {
				continue
			}
			if next, ok := Next(all[i].Status); ok {
				all[i].Status = next
				changed = true
			}
		}
		if !changed {
			return nil
		}
		return tx.Write(storage.KeyOrders, all)
	})
}

// Cancel removes the order entirely. Only orders still in Processing may be
// cancelled; no cancelled state is retained.
func (s *Service) Cancel(id string) error {
	return s.Store.Txn(func(tx *storage.Tx) error {
		all := []models.Order{}
		tx.Read(storage.KeyOrders, &all)

		for i := range all {
			if all[i].ID != id {
				continue
			}
			if all[i].Status != models.StatusProcessing {
				return fmt.Errorf("%w: status is %s", ErrNotCancellable, all[i].Status)
			}
			all = append(all[:i], all[i+1:]...)
			return tx.Write(storage.KeyOrders, all)
		}
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	})
}

// Tracker advances order status on a fixed interval. The list view runs one
// over the whole collection; a detail view may run its own scoped to one
// order id. Both go through the same transactional advance, which is what
// keeps them from racing.
type Tracker struct {
	Service  *Service
	Interval time.Duration

	// OrderID scopes the tracker to a single order when set.
	OrderID string
}

func (t *Tracker) Run(ctx context.Context) {
	ticker := time.NewTicker(t.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			var err error
			if t.OrderID != "" {
				err = t.Service.AdvanceOrder(t.OrderID)
			} else {
				err = t.Service.AdvanceAll()
			}
			if err != nil {
				t.Service.Log.Error("order status advance failed", "error", err)
			}
		}
	}
}
