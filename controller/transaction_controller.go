package controller

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"pos-service/cache"
	"pos-service/checkout"
	"pos-service/kafka"
	"pos-service/model"
)

// CheckoutEngine is what the controller needs from the transaction engine.
type CheckoutEngine interface {
	Checkout(ctx context.Context, cashierID *uint, lines []checkout.CartLine) (*checkout.Receipt, error)
}

type TransactionController struct {
	DB       *gorm.DB
	Engine   CheckoutEngine
	Cache    *cache.Cache
	Producer *kafka.Producer
	Validate *validator.Validate
}

func NewTransactionController(db *gorm.DB, engine CheckoutEngine, c *cache.Cache, p *kafka.Producer) *TransactionController {
	return &TransactionController{
		DB:       db,
		Engine:   engine,
		Cache:    c,
		Producer: p,
		Validate: validator.New(),
	}
}

type checkoutRequest struct {
	Items []checkoutItem `json:"items" validate:"required,min=1,dive"`
}

type checkoutItem struct {
	ProductID uint  `json:"product_id" validate:"required"`
	Quantity  int64 `json:"quantity" validate:"required,gt=0"`
}

// Create runs the checkout protocol for the submitted cart and returns the
// receipt, or a typed error body the cashier screen can render verbatim.
func (tc *TransactionController) Create(c *fiber.Ctx) error {
	var req checkoutRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request body"})
	}
	if len(req.Items) == 0 {
		return tc.renderCheckoutError(c, checkout.ErrEmptyCart)
	}
	if err := tc.Validate.Struct(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "items must have valid product ids and positive quantities"})
	}

	lines := make([]checkout.CartLine, 0, len(req.Items))
	for _, it := range req.Items {
		lines = append(lines, checkout.CartLine{ProductID: it.ProductID, Quantity: it.Quantity})
	}

	var cashierID *uint
	if id, ok := c.Locals("user_id").(uint); ok {
		cashierID = &id
	}

	receipt, err := tc.Engine.Checkout(c.Context(), cashierID, lines)
	if err != nil {
		return tc.renderCheckoutError(c, err)
	}

	tc.afterCheckout(receipt)

	return c.Status(201).JSON(receipt)
}

// renderCheckoutError maps the engine's error taxonomy onto HTTP statuses
// with a stable error_kind, so no deterministic failure degrades into a
// generic message.
func (tc *TransactionController) renderCheckoutError(c *fiber.Ctx, err error) error {
	kind := checkout.Kind(err)

	body := fiber.Map{
		"error_kind": kind,
		"message":    err.Error(),
	}

	switch kind {
	case checkout.KindEmptyCart, checkout.KindInvalidQuantity:
		return c.Status(400).JSON(body)
	case checkout.KindProductNotFound:
		var notFound *checkout.ProductNotFoundError
		if errors.As(err, &notFound) {
			body["details"] = fiber.Map{"missing_ids": notFound.IDs}
		}
		return c.Status(404).JSON(body)
	case checkout.KindInsufficientStock:
		var insufficient *checkout.InsufficientStockError
		if errors.As(err, &insufficient) {
			body["details"] = fiber.Map{
				"product_id":   insufficient.ProductID,
				"product_name": insufficient.Name,
				"requested":    insufficient.Requested,
				"available":    insufficient.Available,
			}
		}
		return c.Status(409).JSON(body)
	default:
		body["message"] = "store temporarily unavailable, retry the checkout"
		return c.Status(503).JSON(body)
	}
}

// afterCheckout refreshes downstream views and publishes the sale events.
// The transaction is already committed; everything here is best-effort.
func (tc *TransactionController) afterCheckout(receipt *checkout.Receipt) {
	ctx := context.Background()

	tc.Cache.InvalidateTransactions(ctx)
	tc.Cache.InvalidateProducts(ctx)

	items := make([]map[string]interface{}, 0, len(receipt.Lines))
	for _, l := range receipt.Lines {
		items = append(items, map[string]interface{}{
			"product_id": l.ProductID,
			"quantity":   l.Quantity,
			"subtotal":   l.Subtotal,
		})
		tc.Producer.PublishStockUpdatedEvent(map[string]interface{}{
			"event_type": "stock.updated",
			"data": map[string]interface{}{
				"product_id": l.ProductID,
				"sold":       l.Quantity,
			},
		})
	}
	tc.Producer.PublishTransactionCreatedEvent(map[string]interface{}{
		"event_type": "transaction.created",
		"data": map[string]interface{}{
			"transaction_id": receipt.TransactionID,
			"code":           receipt.Code,
			"total":          receipt.Total,
			"items":          items,
			"created_at":     receipt.CreatedAt.Format(time.RFC3339),
		},
	})
}

// List returns the transaction history, newest first, through the Redis
// cache.
func (tc *TransactionController) List(c *fiber.Ctx) error {
	ctx := c.Context()

	var transactions []model.Transaction
	if tc.Cache.GetJSON(ctx, cache.TransactionsKey, &transactions) {
		return c.JSON(transactions)
	}

	if err := tc.DB.WithContext(ctx).
		Preload("Items").
		Order("created_at DESC").
		Find(&transactions).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": err.Error()})
	}

	tc.Cache.SetJSON(ctx, cache.TransactionsKey, transactions)
	return c.JSON(transactions)
}

// Get returns one transaction with its items. Products are preloaded
// unscoped: a sold product may have been soft-deleted since, and the history
// must still show it.
func (tc *TransactionController) Get(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid id"})
	}

	var trx model.Transaction
	err = tc.DB.WithContext(c.Context()).
		Preload("Items").
		Preload("Items.Product", func(db *gorm.DB) *gorm.DB { return db.Unscoped() }).
		First(&trx, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return c.Status(404).JSON(fiber.Map{"error": "transaction not found"})
	}
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(trx)
}
