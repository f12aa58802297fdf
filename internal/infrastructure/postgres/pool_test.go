package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Fabrica-api/pkg/config"
)

func TestNewPoolConfig(t *testing.T) {
	cfg := config.DBConfig{
		Host: "db.local", Port: 5432, User: "app", Password: "p@ss", DBName: "fabrica", SSLMode: "disable",
		MaxConns: 12, MinConns: 3, LockTimeout: 1500 * time.Millisecond,
	}
	pc, err := newPoolConfig(cfg)
	require.NoError(t, err)
	assert.EqualValues(t, 12, pc.MaxConns)
	assert.EqualValues(t, 3, pc.MinConns)
	assert.Equal(t, "1500", pc.ConnConfig.RuntimeParams["lock_timeout"])
	assert.Equal(t, "db.local", pc.ConnConfig.Host)
	assert.Equal(t, "p@ss", pc.ConnConfig.Password)
	assert.NotNil(t, pc.AfterConnect)
}

func TestNewPoolConfig_DatabaseURLAndDefaults(t *testing.T) {
	pc, err := newPoolConfig(config.DBConfig{DatabaseURL: "postgres://u:x@otro:6543/db?sslmode=disable", MinConns: 99})
	require.NoError(t, err)
	assert.Equal(t, "otro", pc.ConnConfig.Host)
	assert.EqualValues(t, 6543, pc.ConnConfig.Port)
	assert.NotContains(t, pc.ConnConfig.RuntimeParams, "lock_timeout")
	// MinConns mayor que MaxConns se ignora
	assert.LessOrEqual(t, pc.MinConns, pc.MaxConns)

	_, err = newPoolConfig(config.DBConfig{DatabaseURL: "postgres://%zz@db/fabrica"})
	assert.Error(t, err)
}
