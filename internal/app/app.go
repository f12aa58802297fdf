// Package app arma almacenamiento, caché y casos de uso compartidos por la API y el worker.
package app

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/jhoicas/Fabrica-api/internal/application/auth"
	"github.com/jhoicas/Fabrica-api/internal/application/finance"
	"github.com/jhoicas/Fabrica-api/internal/application/inventory"
	"github.com/jhoicas/Fabrica-api/internal/application/production"
	"github.com/jhoicas/Fabrica-api/internal/application/purchasing"
	"github.com/jhoicas/Fabrica-api/internal/application/sales"
	"github.com/jhoicas/Fabrica-api/internal/application/usecase"
	"github.com/jhoicas/Fabrica-api/internal/domain/entity"
	"github.com/jhoicas/Fabrica-api/internal/domain/repository"
	"github.com/jhoicas/Fabrica-api/internal/infrastructure/cache"
	"github.com/jhoicas/Fabrica-api/internal/infrastructure/memory"
	"github.com/jhoicas/Fabrica-api/internal/infrastructure/postgres"
	"github.com/jhoicas/Fabrica-api/pkg/config"
	"github.com/jhoicas/Fabrica-api/pkg/logger"
)

// Storage repositorios y ejecutor de transacciones del driver elegido.
type Storage struct {
	TxRunner repository.TxRunner
	Repos    repository.Repos
	Close    func()
}

// OpenStorage abre PostgreSQL (con migración opcional) o el store en memoria.
func OpenStorage(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Storage, error) {
	if cfg.Storage.Driver == config.StorageMemory {
		log.Warn().Msg("STORAGE_DRIVER=memory: los datos se pierden al reiniciar")
		store := memory.NewStore()
		if cfg.DB.LockTimeout > 0 {
			store.SetLockTimeout(cfg.DB.LockTimeout)
		}
		return &Storage{TxRunner: store, Repos: store.Repos(), Close: func() {}}, nil
	}

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("conexión a PostgreSQL: %w", err)
	}
	if cfg.DB.AutoMigrate {
		if err := postgres.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, fmt.Errorf("migración: %w", err)
		}
		log.Info().Msg("esquema aplicado")
	}
	return &Storage{TxRunner: postgres.NewTxRunner(pool), Repos: postgres.NewRepos(pool), Close: pool.Close}, nil
}

// OpenBalanceCache Redis si REDIS_ADDR está definido; sin Redis, o si no responde, la caché queda desactivada.
func OpenBalanceCache(ctx context.Context, cfg config.RedisConfig, log zerolog.Logger) (finance.BalanceCache, func()) {
	if cfg.Addr == "" {
		return cache.NoopCache{}, func() {}
	}
	client, err := cache.NewClient(ctx, cfg)
	if err != nil {
		log.Warn().Err(err).Msg("redis no disponible, caché de balances desactivada")
		return cache.NoopCache{}, func() {}
	}
	return cache.NewBalanceCache(client), func() { _ = client.Close() }
}

// RedisClientOpt opciones asynq derivadas de la configuración de Redis.
func RedisClientOpt(cfg config.RedisConfig) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}
}

// Services casos de uso listos para usar.
type Services struct {
	Auth             *auth.AuthUseCase
	Users            *usecase.UserUseCase
	Products         *usecase.ProductUseCase
	Customers        *usecase.CustomerUseCase
	CreateSale       *sales.CreateSaleUseCase
	ReceivePurchase  *purchasing.ReceivePurchaseUseCase
	Production       *production.RegisterProductionUseCase
	Recipes          *inventory.RecipeUseCase
	RegisterMovement *inventory.RegisterMovementUseCase
	Returns          *inventory.ReturnsUseCase
	Replenishment    *inventory.ReplenishmentUseCase
	Transactions     *finance.TransactionUseCase
	Balances         *finance.BalanceRecalculator
	Recurring        *finance.RecurringExpenseUseCase
}

// NewServices construye los casos de uso; cada uno registra con su propio componente.
func NewServices(st *Storage, balanceCache finance.BalanceCache, cfg *config.Config, lg *logger.Logger) *Services {
	repos := st.Repos
	ledger := inventory.NewLedger(repos.Products, lg.Component("ledger"))
	allocator := inventory.NewLotAllocator()
	resolver := inventory.NewRecipeResolver()
	balances := finance.NewBalanceRecalculator(st.TxRunner, repos.Balances, balanceCache, cfg.Redis.BalanceCacheTTL, lg.Component("balance"))

	return &Services{
		Auth: auth.NewAuthUseCase(repos.Users, auth.JWTConfig{
			Secret:     cfg.JWT.Secret,
			ExpMinutes: cfg.JWT.Expiration,
			Issuer:     cfg.JWT.Issuer,
		}),
		Users:            usecase.NewUserUseCase(repos.Users),
		Products:         usecase.NewProductUseCase(st.TxRunner, repos),
		Customers:        usecase.NewCustomerUseCase(repos.Customers),
		CreateSale:       sales.NewCreateSaleUseCase(st.TxRunner, repos, ledger, allocator, resolver, balances, lg.Component("sales")),
		ReceivePurchase:  purchasing.NewReceivePurchaseUseCase(st.TxRunner, repos, ledger, balances, lg.Component("purchasing")),
		Production:       production.NewRegisterProductionUseCase(st.TxRunner, repos, ledger, allocator, resolver, lg.Component("production")),
		Recipes:          inventory.NewRecipeUseCase(st.TxRunner, repos, resolver),
		RegisterMovement: inventory.NewRegisterMovementUseCase(st.TxRunner, repos, ledger, lg.Component("inventory")),
		Returns:          inventory.NewReturnsUseCase(st.TxRunner, repos, ledger, lg.Component("returns")),
		Replenishment:    inventory.NewReplenishmentUseCase(repos.Products, repos.Lots),
		Transactions:     finance.NewTransactionUseCase(st.TxRunner, repos, balances, lg.Component("finance")),
		Balances:         balances,
		Recurring:        finance.NewRecurringExpenseUseCase(st.TxRunner, balances, lg.Component("recurring")),
	}
}

// EnsureAdmin crea el administrador configurado si todavía no existe.
func (s *Services) EnsureAdmin(ctx context.Context, cfg config.AdminConfig, log zerolog.Logger) error {
	if cfg.Email == "" || cfg.Password == "" {
		return nil
	}
	u, err := s.Users.EnsureUser(ctx, cfg.Email, cfg.Password, cfg.Name, entity.RoleAdmin)
	if err != nil {
		return fmt.Errorf("crear administrador: %w", err)
	}
	log.Info().Str("email", u.Email).Msg("administrador disponible")
	return nil
}
