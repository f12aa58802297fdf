package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Fabrica-api/internal/application/dto"
	"github.com/jhoicas/Fabrica-api/internal/application/usecase"
	"github.com/jhoicas/Fabrica-api/internal/domain"
	"github.com/jhoicas/Fabrica-api/internal/domain/entity"
	"github.com/jhoicas/Fabrica-api/internal/testutil"
	"github.com/jhoicas/Fabrica-api/pkg/jwt"
)

func TestLogin(t *testing.T) {
	f := testutil.New(t)
	users := f.Store.Repos().Users
	_, err := usecase.NewUserUseCase(users).EnsureUser(f.Ctx, "ventas@fabrica.local", "clave", "Ventas", entity.RoleVentas)
	require.NoError(t, err)

	uc := NewAuthUseCase(users, JWTConfig{Secret: "s3cret", ExpMinutes: 5, Issuer: "fabrica-test"})

	res, err := uc.Login(f.Ctx, dto.LoginRequest{Email: "ventas@fabrica.local", Password: "clave"})
	require.NoError(t, err)
	assert.Equal(t, entity.RoleVentas, res.User.Role)
	uid, role, err := jwt.Parse("s3cret", res.Token)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, uid)
	assert.Equal(t, entity.RoleVentas, role)

	_, err = uc.Login(f.Ctx, dto.LoginRequest{Email: "ventas@fabrica.local", Password: "mala"})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	_, err = uc.Login(f.Ctx, dto.LoginRequest{Email: "nadie@fabrica.local", Password: "x"})
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}
