package notify

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/spec-kit/crm-realtime/internal/domain"
)

func TestRenderMessage(t *testing.T) {
	tests := []struct {
		name string
		kind domain.NotificationKind
		vars map[string]string
		want string
	}{
		{
			name: "created",
			kind: domain.NotificationKindCreated,
			vars: map[string]string{"ticket_id": "t1", "title": "Printer down", "priority": "HIGH"},
			want: `Ticket t1 "Printer down" created with HIGH priority`,
		},
		{
			name: "escalated with extras",
			kind: domain.NotificationKindEscalated,
			vars: map[string]string{
				"ticket_id": "t1", "title": "Outage",
				"escalated_to": "ADMIN", "reason": "exceeded 1 hour threshold",
			},
			want: `Ticket t1 "Outage" escalated to ADMIN: exceeded 1 hour threshold`,
		},
		{
			name: "unresolved placeholders render empty",
			kind: domain.NotificationKindUpdated,
			vars: map[string]string{"ticket_id": "t1"},
			want: `Ticket t1 "" updated (status )`,
		},
		{
			name: "unknown kind",
			kind: domain.NotificationKind("bogus"),
			vars: map[string]string{"ticket_id": "t1"},
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, RenderMessage(tt.kind, tt.vars))
		})
	}
}
