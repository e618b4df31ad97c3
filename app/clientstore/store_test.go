package clientstore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func openMemory(t *testing.T) *Store {
	t.Helper()
	store, err := Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestLastOrder_EmptyStoreReturnsNil(t *testing.T) {
	store := openMemory(t)

	ref, err := store.LastOrder(context.Background())
	require.NoError(t, err)
	require.Nil(t, ref)
}

func TestSaveLastOrder_Overwrites(t *testing.T) {
	store := openMemory(t)
	ctx := context.Background()

	require.NoError(t, store.SaveLastOrder(ctx, OrderReference{OrderID: "o1", TrackingCode: "AAAA1111"}))
	require.NoError(t, store.SaveLastOrder(ctx, OrderReference{OrderID: "o2", TrackingCode: "BBBB2222"}))

	ref, err := store.LastOrder(ctx)
	require.NoError(t, err)
	require.Equal(t, &OrderReference{OrderID: "o2", TrackingCode: "BBBB2222"}, ref)
}

func TestSaveLastOrder_StoresFixedJSONShape(t *testing.T) {
	store := openMemory(t)
	ctx := context.Background()

	require.NoError(t, store.SaveLastOrder(ctx, OrderReference{OrderID: "o1", TrackingCode: "AAAA1111"}))

	raw, err := store.Get(ctx, LastOrderKey)
	require.NoError(t, err)
	require.JSONEq(t, `{"order_id":"o1","tracking_code":"AAAA1111"}`, string(raw))
}

func TestSaveLastOrder_RejectsEmptyReference(t *testing.T) {
	store := openMemory(t)

	err := store.SaveLastOrder(context.Background(), OrderReference{})
	require.ErrorIs(t, err, ErrInvalidReference)
}

func TestLastOrder_CorruptValueTreatedAsAbsent(t *testing.T) {
	store := openMemory(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, LastOrderKey, []byte("{not json")))

	ref, err := store.LastOrder(ctx)
	require.NoError(t, err)
	require.Nil(t, ref)
}

func TestOpen_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "client.db")
	ctx := context.Background()

	first, err := Open(ctx, path)
	require.NoError(t, err)
	require.NoError(t, first.SaveLastOrder(ctx, OrderReference{OrderID: "o9", TrackingCode: "ZZZZ9999"}))
	require.NoError(t, first.Close())

	second, err := Open(ctx, path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = second.Close() })

	ref, err := second.LastOrder(ctx)
	require.NoError(t, err)
	require.Equal(t, "o9", ref.OrderID)
	require.Equal(t, "ZZZZ9999", ref.TrackingCode)
}
