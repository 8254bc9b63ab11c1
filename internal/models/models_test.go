package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderStatus_Regresses(t *testing.T) {
	t.Parallel()

	assert.False(t, OrderPending.Regresses(OrderDelivered))
	assert.True(t, OrderDelivered.Regresses(OrderPending))
	assert.True(t, OrderCancelled.Regresses(OrderPending))
	assert.False(t, OrderShipped.Regresses(OrderCancelled))
	assert.False(t, OrderStatus("BOGUS").Valid())
	assert.True(t, OrderCancelled.Valid())
}

func TestImageList_ValueScan(t *testing.T) {
	t.Parallel()

	in := ImageList{"https://cdn.test/a.png", "https://cdn.test/b,c.png"}
	v, err := in.Value()
	require.NoError(t, err)

	var out ImageList
	require.NoError(t, out.Scan(v))
	assert.Equal(t, in, out)

	var empty ImageList
	v, err = empty.Value()
	require.NoError(t, err)
	require.NoError(t, out.Scan(v))
	assert.Empty(t, out)
}
