package blobstore

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	data := []byte("in memory")
	require.NoError(t, store.Put(ctx, "dir/a", data))
	data[0] = 'X'

	got, err := store.Get(ctx, "dir/a")
	require.NoError(t, err)
	assert.Equal(t, "in memory", string(got), "Put must copy its input")

	w, err := store.Create(ctx, "dir/b")
	require.NoError(t, err)
	_, err = w.Write([]byte("streamed"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	blob, err := store.Open(ctx, "dir/b")
	require.NoError(t, err)
	assert.Equal(t, int64(8), blob.Size())

	all, err := ReadAll(ctx, blob)
	require.NoError(t, err)
	assert.Equal(t, "streamed", string(all))

	_, err = blob.ReadRange(ctx, 100, 1)
	assert.ErrorIs(t, err, io.EOF)

	names, err := store.List(ctx, "dir/")
	require.NoError(t, err)
	assert.Equal(t, []string{"dir/a", "dir/b"}, names)

	require.NoError(t, store.Delete(ctx, "dir/a"))
	_, err = store.Get(ctx, "dir/a")
	assert.ErrorIs(t, err, ErrNotFound)
}
