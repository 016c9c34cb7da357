package events

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDispatcherRoutesByName(t *testing.T) {
	dispatcher := NewDispatcher()

	var got []Inbound
	dispatcher.Register(InboundEntityUpdate, func(_ context.Context, connID string, event Inbound) error {
		require.Equal(t, "conn-1", connID)
		got = append(got, event)
		return nil
	})

	require.True(t, dispatcher.Known(InboundEntityUpdate))
	require.False(t, dispatcher.Known(InboundEntityDelete))

	err := dispatcher.Dispatch(context.Background(), "conn-1", Inbound{
		Event:   InboundEntityUpdate,
		Payload: Payload{"id": "x"},
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "x", got[0].Payload.ID())
}

func TestDispatcherIgnoresUnknownEvents(t *testing.T) {
	dispatcher := NewDispatcher()
	err := dispatcher.Dispatch(context.Background(), "conn-1", Inbound{Event: Name("bogus")})
	require.NoError(t, err)
}

func TestPayloadID(t *testing.T) {
	require.Equal(t, "x", Payload{"id": "x"}.ID())
	require.Equal(t, "", Payload{"id": 42}.ID())
	require.Equal(t, "", Payload(nil).ID())
}
