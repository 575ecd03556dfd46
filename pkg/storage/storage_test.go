package storage

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/re-cox/aeys-v2-sub001/pkg/apperrors"
)

func TestCollisionSafeName(t *testing.T) {
	t.Run("identical inputs diverge", func(t *testing.T) {
		a := CollisionSafeName("saha raporu.pdf")
		b := CollisionSafeName("saha raporu.pdf")
		assert.NotEqual(t, a, b)
	})

	t.Run("keeps extension", func(t *testing.T) {
		name := CollisionSafeName("proje.DWG")
		assert.True(t, strings.HasSuffix(name, ".dwg"), name)
	})

	t.Run("sanitizes stem", func(t *testing.T) {
		name := CollisionSafeName("ölçüm raporu (son).pdf")
		assert.NotContains(t, name, " ")
		assert.NotContains(t, name, "(")
		assert.NotContains(t, name, "ö")
	})

	t.Run("strips directories", func(t *testing.T) {
		name := CollisionSafeName("../../etc/passwd")
		assert.False(t, strings.Contains(name, "/"), name)
		assert.True(t, strings.HasPrefix(name, "passwd-"), name)
	})

	t.Run("empty stem gets a placeholder", func(t *testing.T) {
		name := CollisionSafeName(".env")
		assert.True(t, strings.HasPrefix(name, "document-"), name)
	})
}

func TestMemoryStore_RoundTrip(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	ref, err := store.Put(ctx, "rapor.pdf", strings.NewReader("icerik"), 6, "application/pdf")
	require.NoError(t, err)
	assert.Equal(t, "rapor.pdf", ref)
	assert.Equal(t, 1, store.Len())

	rc, err := store.Get(ctx, ref)
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "icerik", string(data))

	require.NoError(t, store.Delete(ctx, ref))
	assert.Equal(t, 0, store.Len())
}

func TestMemoryStore_SizeMismatch(t *testing.T) {
	store := NewMemoryStore()
	_, err := store.Put(context.Background(), "rapor.pdf", strings.NewReader("icerik"), 3, "application/pdf")
	assert.ErrorIs(t, err, apperrors.ErrStorageFailure)
	assert.Equal(t, 0, store.Len())
}

func TestMemoryStore_MissingReference(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	_, err := store.Get(ctx, "yok.pdf")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	err = store.Delete(ctx, "yok.pdf")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
