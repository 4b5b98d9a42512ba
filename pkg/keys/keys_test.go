package keys

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadOrGenerateCreatesAndReloads(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "keys")

	first, err := LoadOrGenerate(dir)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, PrivateKeyFile))
	assert.FileExists(t, filepath.Join(dir, PublicKeyFile))

	second, err := LoadOrGenerate(dir)
	require.NoError(t, err)
	assert.Equal(t, 0, first.Private.N.Cmp(second.Private.N))
	assert.Equal(t, 0, first.Public.N.Cmp(second.Public.N))
}

func TestLoadOrGenerateRegeneratesWhenHalfMissing(t *testing.T) {
	dir := t.TempDir()

	first, err := LoadOrGenerate(dir)
	require.NoError(t, err)
	require.NoError(t, os.Remove(filepath.Join(dir, PublicKeyFile)))

	second, err := LoadOrGenerate(dir)
	require.NoError(t, err)
	assert.NotEqual(t, 0, first.Private.N.Cmp(second.Private.N))
	assert.FileExists(t, filepath.Join(dir, PublicKeyFile))
}

func TestLoadRejectsMismatchedPair(t *testing.T) {
	a, err := Generate()
	require.NoError(t, err)
	b, err := Generate()
	require.NoError(t, err)

	dirA, dirB := t.TempDir(), t.TempDir()
	require.NoError(t, a.Save(dirA))
	require.NoError(t, b.Save(dirB))

	_, err = Load(filepath.Join(dirA, PrivateKeyFile), filepath.Join(dirB, PublicKeyFile))
	assert.Error(t, err)
}
