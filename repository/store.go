package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"pos-service/checkout"
	"pos-service/model"
)

// Store is the GORM-backed implementation of the checkout engine's store
// interfaces. All cross-request coordination happens in Postgres: RunAtomic
// opens one database transaction and DecrementStock issues a single guarded
// UPDATE, so concurrent checkouts racing on the same product cannot both win
// the last unit.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// FindActiveProductsByIDs returns the referenced products that exist and are
// not soft-deleted. GORM's default scope already filters on deleted_at IS
// NULL, which is exactly the tombstone semantics the catalog uses.
func (s *Store) FindActiveProductsByIDs(ctx context.Context, ids []uint) ([]model.Product, error) {
	products := make([]model.Product, 0, len(ids))
	if len(ids) == 0 {
		return products, nil
	}
	err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&products).Error
	if err != nil {
		return nil, err
	}
	return products, nil
}

// RunAtomic runs fn inside one database transaction. Any error returned by fn
// rolls back every write made through the AtomicStore.
func (s *Store) RunAtomic(ctx context.Context, fn func(tx checkout.AtomicStore) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&atomicStore{db: tx})
	})
}

type atomicStore struct {
	db *gorm.DB
}

func (a *atomicStore) CreateTransaction(ctx context.Context, trx *model.Transaction) error {
	// Creates the transaction row and its items in one go via the Items
	// association.
	return a.db.WithContext(ctx).Create(trx).Error
}

// DecrementStock applies a single guarded UPDATE. The stock >= amount clause
// makes the decrement and its sufficiency check one atomic statement, so no
// lost update is possible regardless of how many checkouts race. Untracked
// (NULL) stock never matches the guard; callers skip untracked products.
func (a *atomicStore) DecrementStock(ctx context.Context, productID uint, amount int64) (bool, error) {
	res := a.db.WithContext(ctx).Model(&model.Product{}).
		Where("id = ? AND stock IS NOT NULL AND stock >= ?", productID, amount).
		UpdateColumn("stock", gorm.Expr("stock - ?", amount))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (a *atomicStore) CurrentStock(ctx context.Context, productID uint) (*int64, error) {
	var p model.Product
	err := a.db.WithContext(ctx).Select("stock").First(&p, productID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return p.Stock, nil
}
