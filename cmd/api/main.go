package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/jhoicas/Fabrica-api/internal/app"
	"github.com/jhoicas/Fabrica-api/internal/infrastructure/jobs"
	httpRouter "github.com/jhoicas/Fabrica-api/internal/interfaces/http"
	"github.com/jhoicas/Fabrica-api/pkg/config"
	"github.com/jhoicas/Fabrica-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:     cfg.App.Env,
		Level:   cfg.App.LogLevel,
		Service: cfg.App.Name,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("storage", cfg.Storage.Driver).
		Msg("iniciando aplicación")

	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("aplicación finalizada con error")
	}
	log.Info().Msg("aplicación detenida")
}

// run arma dependencias y sirve HTTP hasta SIGINT/SIGTERM. Los cierres diferidos se ejecutan siempre.
func run(cfg *config.Config, log *logger.Logger) error {
	ctx := context.Background()
	storage, err := app.OpenStorage(ctx, cfg, log.Zerolog())
	if err != nil {
		return fmt.Errorf("almacenamiento: %w", err)
	}
	defer storage.Close()

	balanceCache, closeCache := app.OpenBalanceCache(ctx, cfg.Redis, log.Zerolog())
	defer closeCache()

	svc := app.NewServices(storage, balanceCache, cfg, log)
	if err := svc.EnsureAdmin(ctx, cfg.Admin, log.Zerolog()); err != nil {
		return fmt.Errorf("usuario administrador: %w", err)
	}

	// Con Redis los gastos recurrentes se encolan para el worker; sin Redis se generan en la petición.
	var queue httpRouter.RecurringEnqueuer
	if cfg.Redis.Addr != "" {
		client := jobs.NewClient(app.RedisClientOpt(cfg.Redis))
		defer client.Close()
		queue = client
	}

	responder := httpRouter.NewResponder(log.Component("http"), cfg.HTTP.RetryAfterSeconds)
	fiberApp := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
		ErrorHandler: responder.FiberErrorHandler,
	})
	fiberApp.Use(recover.New())
	fiberApp.Use(httpRouter.RequestLogger(log.Component("http")))

	httpRouter.Router(fiberApp, httpRouter.RouterDeps{
		AuthUC:           svc.Auth,
		ProductUC:        svc.Products,
		CustomerUC:       svc.Customers,
		CreateSale:       svc.CreateSale,
		ReceivePurchase:  svc.ReceivePurchase,
		Production:       svc.Production,
		Recipes:          svc.Recipes,
		RegisterMovement: svc.RegisterMovement,
		Returns:          svc.Returns,
		Replenishment:    svc.Replenishment,
		Transactions:     svc.Transactions,
		Balances:         svc.Balances,
		Recurring:        svc.Recurring,
		RecurringQueue:   queue,
		ExpiryAlertDays:  cfg.Jobs.ExpiryAlertDays,
		JWTSecret:        cfg.JWT.Secret,
		Validator:        httpRouter.NewValidator(),
		Responder:        responder,
	})

	listenErr := make(chan error, 1)
	go func() {
		listenErr <- fiberApp.Listen(cfg.HTTP.Addr())
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-listenErr:
		return fmt.Errorf("servidor HTTP: %w", err)
	case <-quit:
	}

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := fiberApp.ShutdownWithContext(shutdownCtx); err != nil {
		return fmt.Errorf("apagado del servidor: %w", err)
	}
	return nil
}
