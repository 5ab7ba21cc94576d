package main

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"pos-service/cache"
	"pos-service/config"
	"pos-service/kafka"
	"pos-service/repository"
	"pos-service/routes"
)

func main() {
	cfg := config.Load()

	db, err := repository.Connect(cfg)
	if err != nil {
		log.Fatal("failed to init database: ", err)
	}

	rdb := cache.Connect(cfg.RedisAddr)
	producer := kafka.NewProducer(cfg.KafkaBroker)

	app := fiber.New()
	app.Use(recover.New())
	app.Use(logger.New())

	routes.Register(app, db, rdb, producer, cfg)

	log.Println("HTTP server running on", cfg.HTTPAddr)
	if err := app.Listen(cfg.HTTPAddr); err != nil {
		log.Fatal("fiber error:", err)
	}
}
