package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/effective-security/mmtools/pkg/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_MemoryStore(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore(0)

	_, ok, err := st.Get(ctx, "k1")
	require.NoError(t, err)
	assert.False(t, ok)
	require.NoError(t, st.Delete(ctx, "k1"))

	require.NoError(t, st.Put(ctx, "k1", "a cat on a sofa"))
	v, ok, err := st.Get(ctx, "k1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "a cat on a sofa", v)

	require.NoError(t, st.Put(ctx, "k1", "updated"))
	v, _, _ = st.Get(ctx, "k1")
	assert.Equal(t, "updated", v)

	require.NoError(t, st.Delete(ctx, "k1"))
	_, ok, err = st.Get(ctx, "k1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func Test_MemoryStoreTTL(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore(time.Millisecond)

	require.NoError(t, st.Put(ctx, "k", "v"))
	time.Sleep(5 * time.Millisecond)
	_, ok, err := st.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}
