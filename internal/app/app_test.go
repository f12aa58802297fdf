package app

import (
	"context"
	"io"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Fabrica-api/internal/application/dto"
	"github.com/jhoicas/Fabrica-api/internal/domain/entity"
	"github.com/jhoicas/Fabrica-api/internal/infrastructure/cache"
	"github.com/jhoicas/Fabrica-api/pkg/config"
	"github.com/jhoicas/Fabrica-api/pkg/logger"
)

func memoryConfig() *config.Config {
	return &config.Config{
		App:     config.AppConfig{Env: "test", Name: "fabrica-api"},
		JWT:     config.JWTConfig{Secret: "s3cret", Expiration: 60, Issuer: "fabrica-api"},
		Storage: config.StorageConfig{Driver: config.StorageMemory},
		Admin:   config.AdminConfig{Email: "admin@fabrica.local", Password: "admin123", Name: "Admin"},
	}
}

func TestOpenStorage_Memory(t *testing.T) {
	st, err := OpenStorage(context.Background(), memoryConfig(), zerolog.Nop())
	require.NoError(t, err)
	defer st.Close()
	assert.NotNil(t, st.TxRunner)
	assert.NotNil(t, st.Repos.Products)
}

func TestOpenBalanceCache_WithoutRedis(t *testing.T) {
	c, closeFn := OpenBalanceCache(context.Background(), config.RedisConfig{}, zerolog.Nop())
	defer closeFn()
	assert.IsType(t, cache.NoopCache{}, c)
}

func TestServices_EnsureAdminAndLogin(t *testing.T) {
	ctx := context.Background()
	cfg := memoryConfig()
	st, err := OpenStorage(ctx, cfg, zerolog.Nop())
	require.NoError(t, err)
	lg := logger.New(logger.Config{Env: "test", Level: "error", Out: io.Discard})

	svc := NewServices(st, cache.NoopCache{}, cfg, lg)
	require.NoError(t, svc.EnsureAdmin(ctx, cfg.Admin, zerolog.Nop()))
	require.NoError(t, svc.EnsureAdmin(ctx, cfg.Admin, zerolog.Nop()))

	out, err := svc.Auth.Login(ctx, dto.LoginRequest{Email: cfg.Admin.Email, Password: cfg.Admin.Password})
	require.NoError(t, err)
	assert.NotEmpty(t, out.Token)
	assert.Equal(t, entity.RoleAdmin, out.User.Role)
}

func TestServices_EnsureAdminSkippedWithoutCredentials(t *testing.T) {
	cfg := memoryConfig()
	st, err := OpenStorage(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	svc := NewServices(st, cache.NoopCache{}, cfg, logger.New(logger.Config{Out: io.Discard}))
	require.NoError(t, svc.EnsureAdmin(context.Background(), config.AdminConfig{}, zerolog.Nop()))

	u, err := st.Repos.Users.GetByEmail(context.Background(), cfg.Admin.Email)
	require.NoError(t, err)
	assert.Nil(t, u)
}
