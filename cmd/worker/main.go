package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/jhoicas/Fabrica-api/internal/app"
	"github.com/jhoicas/Fabrica-api/internal/infrastructure/jobs"
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
		Service: cfg.App.Name + "-worker",
	})
	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("worker finalizado con error")
	}
	log.Info().Msg("worker detenido")
}

// run procesa tareas hasta SIGINT/SIGTERM. Los cierres diferidos se ejecutan siempre.
func run(cfg *config.Config, log *logger.Logger) error {
	if cfg.Redis.Addr == "" {
		return errors.New("REDIS_ADDR es obligatorio para el worker")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	storage, err := app.OpenStorage(ctx, cfg, log.Zerolog())
	if err != nil {
		return fmt.Errorf("almacenamiento: %w", err)
	}
	defer storage.Close()

	balanceCache, closeCache := app.OpenBalanceCache(ctx, cfg.Redis, log.Zerolog())
	defer closeCache()

	svc := app.NewServices(storage, balanceCache, cfg, log)

	alertsTask, err := jobs.NewExpiryAlertsTask(cfg.Jobs.ExpiryAlertDays)
	if err != nil {
		return fmt.Errorf("tarea de alertas: %w", err)
	}
	// Payload sin fecha: el job usa la hora de ejecución.
	recurringTask, err := jobs.NewRecurringExpensesTask(time.Time{})
	if err != nil {
		return fmt.Errorf("tarea de gastos recurrentes: %w", err)
	}

	alerts := jobs.NewExpiryAlertsJob(svc.Replenishment, cfg.Jobs.ExpiryAlertDays, log.Component("alerts"))
	recurring := jobs.NewRecurringExpensesJob(svc.Recurring, log.Component("recurring"))

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts:   app.RedisClientOpt(cfg.Redis),
		Concurrency: cfg.Jobs.Concurrency,
		Logger:      log.Component("worker"),
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskExpiryAlerts, Handler: alerts.Handle},
			{Type: jobs.TaskRecurringExpenses, Handler: recurring.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: cfg.Jobs.ExpiryAlertCron, Task: alertsTask},
			{Spec: cfg.Jobs.RecurringExpensesCron, Task: recurringTask},
		},
	})
	if err != nil {
		return fmt.Errorf("configurar worker: %w", err)
	}

	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
