package controller

import (
	"errors"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"pos-service/cache"
	"pos-service/kafka"
	"pos-service/model"
)

type ProductController struct {
	DB       *gorm.DB
	Cache    *cache.Cache
	Producer *kafka.Producer
	Validate *validator.Validate
}

func NewProductController(db *gorm.DB, c *cache.Cache, p *kafka.Producer) *ProductController {
	return &ProductController{DB: db, Cache: c, Producer: p, Validate: validator.New()}
}

type productPayload struct {
	Name       string `json:"name" validate:"required"`
	Barcode    string `json:"barcode" validate:"required"`
	Price      int64  `json:"price" validate:"required,gt=0"`
	Stock      *int64 `json:"stock" validate:"omitempty,gte=0"`
	CategoryID *uint  `json:"category_id"`
}

func (pc *ProductController) List(c *fiber.Ctx) error {
	ctx := c.Context()

	key := cache.ProductsKey
	var categoryID int
	if raw := c.Query("category_id"); raw != "" {
		id, err := strconv.Atoi(raw)
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid category_id"})
		}
		categoryID = id
		key = cache.CategoryProductsKey(uint(id))
	}

	var products []model.Product
	if pc.Cache.GetJSON(ctx, key, &products) {
		return c.JSON(products)
	}

	q := pc.DB.WithContext(ctx).Preload("Category").Order("name")
	if categoryID != 0 {
		q = q.Where("category_id = ?", categoryID)
	}
	if err := q.Find(&products).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": err.Error()})
	}

	pc.Cache.SetJSON(ctx, key, products)
	return c.JSON(products)
}

func (pc *ProductController) Get(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid id"})
	}

	var product model.Product
	err = pc.DB.WithContext(c.Context()).Preload("Category").First(&product, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return c.Status(404).JSON(fiber.Map{"error": "product not found"})
	}
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(product)
}

// GetByBarcode resolves a scanned barcode to an active product. This is the
// cashier screen's hot path.
func (pc *ProductController) GetByBarcode(c *fiber.Ctx) error {
	code := c.Params("code")

	var product model.Product
	err := pc.DB.WithContext(c.Context()).
		Where("barcode = ?", code).
		First(&product).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return c.Status(404).JSON(fiber.Map{"error": "product not found"})
	}
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(product)
}

func (pc *ProductController) Create(c *fiber.Ctx) error {
	var body productPayload
	if err := c.BodyParser(&body); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid payload"})
	}
	if err := pc.Validate.Struct(&body); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}

	product := model.Product{
		Name:       body.Name,
		Barcode:    body.Barcode,
		Price:      body.Price,
		Stock:      body.Stock,
		CategoryID: body.CategoryID,
	}
	if err := pc.DB.WithContext(c.Context()).Create(&product).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": err.Error()})
	}

	pc.Cache.InvalidateProducts(c.Context())
	pc.Producer.PublishProductCreatedEvent(map[string]interface{}{
		"event_type": "product.created",
		"data":       product,
	})

	return c.Status(201).JSON(product)
}

func (pc *ProductController) Update(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid id"})
	}

	var body productPayload
	if err := c.BodyParser(&body); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid payload"})
	}
	if err := pc.Validate.Struct(&body); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}

	var product model.Product
	err = pc.DB.WithContext(c.Context()).First(&product, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return c.Status(404).JSON(fiber.Map{"error": "product not found"})
	}
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": err.Error()})
	}

	product.Name = body.Name
	product.Barcode = body.Barcode
	product.Price = body.Price
	product.Stock = body.Stock
	product.CategoryID = body.CategoryID

	if err := pc.DB.WithContext(c.Context()).Save(&product).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": err.Error()})
	}

	pc.Cache.InvalidateProducts(c.Context())
	pc.Producer.PublishProductUpdatedEvent(map[string]interface{}{
		"event_type": "product.updated",
		"data":       product,
	})

	return c.JSON(product)
}

// Delete soft-deletes the product. The row stays behind its deleted_at
// tombstone so historical transaction items keep resolving.
func (pc *ProductController) Delete(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid id"})
	}

	var product model.Product
	err = pc.DB.WithContext(c.Context()).First(&product, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return c.Status(404).JSON(fiber.Map{"error": "product not found"})
	}
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": err.Error()})
	}

	if err := pc.DB.WithContext(c.Context()).Delete(&product).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": err.Error()})
	}

	pc.Cache.InvalidateProducts(c.Context())
	pc.Producer.PublishProductDeletedEvent(map[string]interface{}{
		"event_type": "product.deleted",
		"data":       fiber.Map{"id": product.ID},
	})

	return c.JSON(fiber.Map{"message": "product deleted"})
}

