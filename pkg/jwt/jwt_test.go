package jwt_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgjwt "github.com/jhoicas/Fabrica-api/pkg/jwt"
)

func TestGenerateParse_RoundTrip(t *testing.T) {
	tok, err := pkgjwt.Generate("secret", "u1", "ventas", "fabrica-test", 5)
	require.NoError(t, err)

	userID, role, err := pkgjwt.Parse("secret", tok)
	require.NoError(t, err)
	assert.Equal(t, "u1", userID)
	assert.Equal(t, "ventas", role)
}

func TestParse_FirmaIncorrecta(t *testing.T) {
	tok, err := pkgjwt.Generate("secret", "u1", "admin", "fabrica-test", 5)
	require.NoError(t, err)

	_, _, err = pkgjwt.Parse("otro-secret", tok)
	assert.Error(t, err)
}

func TestParse_Expirado(t *testing.T) {
	tok, err := pkgjwt.Generate("secret", "u1", "admin", "fabrica-test", -1)
	require.NoError(t, err)

	_, _, err = pkgjwt.Parse("secret", tok)
	assert.Error(t, err)
}

func TestGenerate_SecretVacio(t *testing.T) {
	_, err := pkgjwt.Generate("", "u1", "admin", "x", 5)
	assert.Error(t, err)
}
