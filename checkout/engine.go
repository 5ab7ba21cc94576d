package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"pos-service/model"
)

// CartLine is one (product, quantity) pair submitted by the cashier screen.
// Carts are ephemeral: they exist only for the duration of one Checkout call.
type CartLine struct {
	ProductID uint
	Quantity  int64
}

// ReceiptLine is a committed sale line as returned to the caller.
type ReceiptLine struct {
	ProductID   uint   `json:"product_id"`
	ProductName string `json:"product_name"`
	UnitPrice   int64  `json:"unit_price"`
	Quantity    int64  `json:"quantity"`
	Subtotal    int64  `json:"subtotal"`
}

// Receipt is the successful result of a checkout.
type Receipt struct {
	TransactionID uint          `json:"transaction_id"`
	Code          string        `json:"code"`
	CreatedAt     time.Time     `json:"created_at"`
	Total         int64         `json:"total"`
	Lines         []ReceiptLine `json:"items"`
}

// Store is the catalog/ledger surface the engine reads outside the atomic
// section. FindActiveProductsByIDs must exclude soft-deleted products and
// reflect committed state; read-committed isolation is sufficient.
type Store interface {
	FindActiveProductsByIDs(ctx context.Context, ids []uint) ([]model.Product, error)
	RunAtomic(ctx context.Context, fn func(tx AtomicStore) error) error
}

// AtomicStore is the store inside one all-or-nothing unit of work. If the
// callback passed to RunAtomic returns an error, every write made through the
// AtomicStore must be rolled back.
//
// DecrementStock must be a single guarded atomic operation (UPDATE with a
// "stock >= amount" clause or equivalent), never an application-level
// read-modify-write: it is the authoritative defence against overselling
// when checkouts race on the same product. It returns false when the guard
// rejects the decrement, i.e. stock is NULL or below the requested amount.
type AtomicStore interface {
	CreateTransaction(ctx context.Context, trx *model.Transaction) error
	DecrementStock(ctx context.Context, productID uint, amount int64) (bool, error)
	CurrentStock(ctx context.Context, productID uint) (*int64, error)
}

// Engine runs the checkout protocol: validate the cart against the catalog,
// price it, then commit the sale and the stock decrements as one atomic unit.
// Each call is independent; all cross-request coordination is delegated to
// the store's transaction primitive, so any number of engines may run
// concurrently.
type Engine struct {
	store   Store
	now     func() time.Time
	newCode func() string
}

func NewEngine(store Store) *Engine {
	return &Engine{
		store:   store,
		now:     time.Now,
		newCode: invoiceCode,
	}
}

func invoiceCode() string {
	return "INV-" + strings.ToUpper(uuid.New().String()[:8])
}

// Checkout validates the cart, computes the total from prices read at
// validation time, and atomically records the transaction, its items and the
// stock decrements. On any failure nothing is persisted and the cart may be
// corrected (deterministic errors) or resubmitted unchanged (transient
// errors).
//
// Duplicate product ids are processed per line, not coalesced: each line is
// checked and decremented independently. Two lines for the same product can
// individually pass the fast-path check, but the guarded decrement inside the
// atomic section still rejects the combined quantity when it exceeds stock.
func (e *Engine) Checkout(ctx context.Context, cashierID *uint, lines []CartLine) (*Receipt, error) {
	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}
	for _, l := range lines {
		if l.Quantity <= 0 {
			return nil, fmt.Errorf("product %d: %w", l.ProductID, ErrInvalidQuantity)
		}
	}

	byID, err := e.resolveProducts(ctx, lines)
	if err != nil {
		return nil, err
	}

	// Fast-path stock check against the validation-time read. Only a cheap
	// rejection: the authoritative check is the guarded decrement inside the
	// atomic section.
	for _, l := range lines {
		p := byID[l.ProductID]
		if p.Tracked() && *p.Stock < l.Quantity {
			return nil, &InsufficientStockError{
				ProductID: p.ID,
				Name:      p.Name,
				Requested: l.Quantity,
				Available: *p.Stock,
			}
		}
	}

	trx, receiptLines := e.buildTransaction(cashierID, lines, byID)

	err = e.store.RunAtomic(ctx, func(tx AtomicStore) error {
		if e2 := tx.CreateTransaction(ctx, trx); e2 != nil {
			return e2
		}
		for _, l := range lines {
			p := byID[l.ProductID]
			if !p.Tracked() {
				continue
			}
			ok, e2 := tx.DecrementStock(ctx, l.ProductID, l.Quantity)
			if e2 != nil {
				return e2
			}
			if !ok {
				// Stock moved between validation and commit. Report what is
				// available now; the surrounding unit of work rolls back.
				var available int64
				if cur, e3 := tx.CurrentStock(ctx, l.ProductID); e3 == nil && cur != nil {
					available = *cur
				}
				return &InsufficientStockError{
					ProductID: p.ID,
					Name:      p.Name,
					Requested: l.Quantity,
					Available: available,
				}
			}
		}
		return nil
	})
	if err != nil {
		var insufficient *InsufficientStockError
		if errors.As(err, &insufficient) {
			return nil, insufficient
		}
		return nil, &TransientError{Err: err}
	}

	return &Receipt{
		TransactionID: trx.ID,
		Code:          trx.Code,
		CreatedAt:     trx.CreatedAt,
		Total:         trx.Total,
		Lines:         receiptLines,
	}, nil
}

// resolveProducts loads every referenced product that is not soft-deleted and
// fails with ProductNotFoundError listing the ids that did not resolve.
func (e *Engine) resolveProducts(ctx context.Context, lines []CartLine) (map[uint]model.Product, error) {
	ids := make([]uint, 0, len(lines))
	seen := make(map[uint]bool, len(lines))
	for _, l := range lines {
		if !seen[l.ProductID] {
			seen[l.ProductID] = true
			ids = append(ids, l.ProductID)
		}
	}

	products, err := e.store.FindActiveProductsByIDs(ctx, ids)
	if err != nil {
		return nil, &TransientError{Err: err}
	}

	byID := make(map[uint]model.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	var missing []uint
	for _, id := range ids {
		if _, ok := byID[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		return nil, &ProductNotFoundError{IDs: missing}
	}
	return byID, nil
}

// buildTransaction prices the cart with the validation-time prices and shapes
// the transaction row, its items and the receipt lines. A concurrent price
// change between validation and commit is deliberately not reflected.
func (e *Engine) buildTransaction(cashierID *uint, lines []CartLine, byID map[uint]model.Product) (*model.Transaction, []ReceiptLine) {
	var total int64
	items := make([]model.TransactionItem, 0, len(lines))
	receiptLines := make([]ReceiptLine, 0, len(lines))
	snapshots := make([]model.ProductSnapshot, 0, len(lines))

	for _, l := range lines {
		p := byID[l.ProductID]
		subtotal := p.Price * l.Quantity
		total += subtotal

		items = append(items, model.TransactionItem{
			ProductID: p.ID,
			Quantity:  l.Quantity,
			UnitPrice: p.Price,
			Subtotal:  subtotal,
		})
		receiptLines = append(receiptLines, ReceiptLine{
			ProductID:   p.ID,
			ProductName: p.Name,
			UnitPrice:   p.Price,
			Quantity:    l.Quantity,
			Subtotal:    subtotal,
		})
		snapshots = append(snapshots, model.ProductSnapshot{
			ProductID: p.ID,
			Name:      p.Name,
			Price:     p.Price,
			Qty:       l.Quantity,
			Subtotal:  subtotal,
		})
	}

	snapJSON, _ := json.Marshal(snapshots)

	return &model.Transaction{
		Code:          e.newCode(),
		CashierID:     cashierID,
		Total:         total,
		Items:         items,
		ItemsSnapshot: snapJSON,
		CreatedAt:     e.now(),
	}, receiptLines
}
