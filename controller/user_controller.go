package controller

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"pos-service/model"
)

type UserController struct {
	DB *gorm.DB
}

func NewUserController(db *gorm.DB) *UserController {
	return &UserController{DB: db}
}

func (uc *UserController) List(c *fiber.Ctx) error {
	var users []model.User
	if err := uc.DB.WithContext(c.Context()).
		Select("id", "email", "name", "role", "created_at").
		Find(&users).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(users)
}

func (uc *UserController) Create(c *fiber.Ctx) error {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Name     string `json:"name"`
		Role     string `json:"role"`
	}
	if err := c.BodyParser(&body); err != nil || body.Email == "" || body.Password == "" {
		return c.Status(400).JSON(fiber.Map{"error": "invalid payload"})
	}
	if body.Role != "admin" && body.Role != "cashier" {
		return c.Status(400).JSON(fiber.Map{"error": "role must be admin or cashier"})
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(body.Password), bcrypt.DefaultCost)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to hash password"})
	}

	user := model.User{
		Email:    body.Email,
		Password: string(hashed),
		Name:     body.Name,
		Role:     body.Role,
	}
	if err := uc.DB.WithContext(c.Context()).Create(&user).Error; err != nil {
		return c.Status(409).JSON(fiber.Map{"error": "email already registered"})
	}

	return c.Status(201).JSON(user)
}

func (uc *UserController) UpdateRole(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid id"})
	}

	var body struct {
		Role string `json:"role"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid payload"})
	}
	if body.Role != "admin" && body.Role != "cashier" {
		return c.Status(400).JSON(fiber.Map{"error": "role must be admin or cashier"})
	}

	var user model.User
	err = uc.DB.WithContext(c.Context()).First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return c.Status(404).JSON(fiber.Map{"error": "user not found"})
	}
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": err.Error()})
	}

	user.Role = body.Role
	if err := uc.DB.WithContext(c.Context()).Save(&user).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(user)
}

func (uc *UserController) Delete(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid id"})
	}

	if self, ok := c.Locals("user_id").(uint); ok && self == uint(id) {
		return c.Status(400).JSON(fiber.Map{"error": "cannot delete yourself"})
	}

	res := uc.DB.WithContext(c.Context()).Delete(&model.User{}, id)
	if res.Error != nil {
		return c.Status(500).JSON(fiber.Map{"error": res.Error.Error()})
	}
	if res.RowsAffected == 0 {
		return c.Status(404).JSON(fiber.Map{"error": "user not found"})
	}

	return c.JSON(fiber.Map{"message": "user deleted"})
}
