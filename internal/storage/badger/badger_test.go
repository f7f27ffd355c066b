package badger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ammar-alrfee/fit-manager/internal/storage"
)

func TestSlot_InMemory(t *testing.T) {
	ctx := context.Background()
	slot, err := OpenInMemory()
	require.NoError(t, err)
	defer slot.Close()

	_, err = slot.Load(ctx)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, slot.Save(ctx, []byte(`{"id":"1"}`)))
	got, err := slot.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, `{"id":"1"}`, string(got))

	require.NoError(t, slot.Save(ctx, []byte(`{"id":"2"}`)))
	got, err = slot.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, `{"id":"2"}`, string(got))

	require.NoError(t, slot.Clear(ctx))
	_, err = slot.Load(ctx)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	assert.NoError(t, slot.Clear(ctx))
}

func TestSlot_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	slot, err := Open(Config{Path: dir})
	require.NoError(t, err)
	require.NoError(t, slot.Save(ctx, []byte("persisted")))
	require.NoError(t, slot.Close())

	reopened, err := Open(Config{Path: dir})
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "persisted", string(got))
}

func TestOpen_RequiresPath(t *testing.T) {
	_, err := Open(Config{})
	assert.Error(t, err)
}
