package routes

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"pos-service/cache"
	"pos-service/checkout"
	"pos-service/config"
	"pos-service/controller"
	"pos-service/kafka"
	"pos-service/middleware"
	"pos-service/repository"
)

func Register(app *fiber.App, db *gorm.DB, rdb *cache.Cache, producer *kafka.Producer, cfg *config.Config) {
	engine := checkout.NewEngine(repository.NewStore(db))

	ac := controller.NewAuthController(db, cfg.JWTSecret)
	pc := controller.NewProductController(db, rdb, producer)
	cc := controller.NewCategoryController(db, rdb, producer)
	tc := controller.NewTransactionController(db, engine, rdb, producer)
	uc := controller.NewUserController(db)
	dc := controller.NewDashboardController(db)

	auth := middleware.AuthRequired(cfg.JWTSecret)
	admin := middleware.RoleRequired("admin")

	api := app.Group("/api")

	a := api.Group("/auth")
	a.Post("/register", ac.Register)
	a.Post("/login", ac.Login)

	p := api.Group("/products")
	p.Get("/", auth, pc.List)
	p.Get("/barcode/:code", auth, pc.GetByBarcode)
	p.Get("/:id", auth, pc.Get)
	p.Post("/", auth, admin, pc.Create)
	p.Put("/:id", auth, admin, pc.Update)
	p.Delete("/:id", auth, admin, pc.Delete)

	cat := api.Group("/categories")
	cat.Get("/", auth, cc.List)
	cat.Post("/", auth, admin, cc.Create)
	cat.Put("/:id", auth, admin, cc.Update)
	cat.Delete("/:id", auth, admin, cc.Delete)

	t := api.Group("/transactions")
	t.Post("/", auth, tc.Create)
	t.Get("/", auth, tc.List)
	t.Get("/:id", auth, tc.Get)

	u := api.Group("/users")
	u.Get("/", auth, admin, uc.List)
	u.Post("/", auth, admin, uc.Create)
	u.Put("/:id/role", auth, admin, uc.UpdateRole)
	u.Delete("/:id", auth, admin, uc.Delete)

	api.Get("/dashboard", auth, dc.Summary)
}
