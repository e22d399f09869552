package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/bragfeed/bragfeed/app/repository"
	"github.com/bragfeed/bragfeed/internal/pkg/cache"
	"github.com/bragfeed/bragfeed/internal/pkg/database"
	"github.com/bragfeed/bragfeed/internal/pkg/env"
	"github.com/bragfeed/bragfeed/internal/pkg/jobqueue"
	"github.com/bragfeed/bragfeed/internal/pkg/router"
)

func main() {
	app := NewApplication()

	// Background workers: review refreshes and counter flushes.
	manager := jobqueue.GetManager()
	manager.Start()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		<-sigCh
		log.Println("Shutting down...")
		manager.Stop()
		_ = app.Shutdown()
	}()

	err := app.Listen(fmt.Sprintf("%s:%s", env.GetEnv("APP_HOST", "localhost"), env.GetEnv("APP_PORT", "4000")))
	log.Fatal(err)
}

func NewApplication() *fiber.App {
	env.SetupEnvFile()
	database.SetupDatabase()
	cache.SetupCache()
	repository.InitializeFactory(database.GetDB())

	app := fiber.New(fiber.Config{
		AppName: "Bragfeed",
	})

	// recovery and logging; stack traces only outside production
	app.Use(recover.New(recover.Config{EnableStackTrace: env.IsDev()}), logger.New())

	// ROUTER
	router.InstallRouter(app)

	return app
}
