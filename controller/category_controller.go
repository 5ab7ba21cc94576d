package controller

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"pos-service/cache"
	"pos-service/kafka"
	"pos-service/model"
)

type CategoryController struct {
	DB       *gorm.DB
	Cache    *cache.Cache
	Producer *kafka.Producer
}

func NewCategoryController(db *gorm.DB, c *cache.Cache, p *kafka.Producer) *CategoryController {
	return &CategoryController{DB: db, Cache: c, Producer: p}
}

func (cc *CategoryController) List(c *fiber.Ctx) error {
	var categories []model.Category
	if err := cc.DB.WithContext(c.Context()).Order("name").Find(&categories).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(categories)
}

func (cc *CategoryController) Create(c *fiber.Ctx) error {
	var body struct {
		Name string `json:"name"`
	}
	if err := c.BodyParser(&body); err != nil || body.Name == "" {
		return c.Status(400).JSON(fiber.Map{"error": "invalid payload"})
	}

	category := model.Category{Name: body.Name}
	if err := cc.DB.WithContext(c.Context()).Create(&category).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": err.Error()})
	}

	cc.Producer.PublishCategoryCreatedEvent(map[string]interface{}{
		"event_type": "category.created",
		"data":       category,
	})

	return c.Status(201).JSON(category)
}

func (cc *CategoryController) Update(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid id"})
	}

	var body struct {
		Name string `json:"name"`
	}
	if err := c.BodyParser(&body); err != nil || body.Name == "" {
		return c.Status(400).JSON(fiber.Map{"error": "invalid payload"})
	}

	var category model.Category
	err = cc.DB.WithContext(c.Context()).First(&category, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return c.Status(404).JSON(fiber.Map{"error": "category not found"})
	}
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": err.Error()})
	}

	category.Name = body.Name
	if err := cc.DB.WithContext(c.Context()).Save(&category).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": err.Error()})
	}

	cc.Cache.InvalidateProducts(c.Context())
	return c.JSON(category)
}

// Delete refuses to remove a category that still has active products, so
// catalog references never dangle.
func (cc *CategoryController) Delete(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid id"})
	}

	var count int64
	if err := cc.DB.WithContext(c.Context()).Model(&model.Product{}).
		Where("category_id = ?", id).Count(&count).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": err.Error()})
	}
	if count > 0 {
		return c.Status(409).JSON(fiber.Map{"error": "category still has products"})
	}

	res := cc.DB.WithContext(c.Context()).Delete(&model.Category{}, id)
	if res.Error != nil {
		return c.Status(500).JSON(fiber.Map{"error": res.Error.Error()})
	}
	if res.RowsAffected == 0 {
		return c.Status(404).JSON(fiber.Map{"error": "category not found"})
	}

	cc.Producer.PublishCategoryDeletedEvent(map[string]interface{}{
		"event_type": "category.deleted",
		"data":       fiber.Map{"id": id},
	})

	return c.JSON(fiber.Map{"message": "category deleted"})
}
