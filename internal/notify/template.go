package notify

import (
	"regexp"

	"github.com/spec-kit/crm-realtime/internal/domain"
)

// Message templates by notification kind. Placeholders use {{name}} and
// resolve against the variable map built at dispatch time; unresolved
// placeholders render as empty string, never an error.
var templates = map[domain.NotificationKind]string{
	domain.NotificationKindCreated:   "Ticket {{ticket_id}} \"{{title}}\" created with {{priority}} priority",
	domain.NotificationKindUpdated:   "Ticket {{ticket_id}} \"{{title}}\" updated (status {{status}})",
	domain.NotificationKindResolved:  "Ticket {{ticket_id}} \"{{title}}\" resolved",
	domain.NotificationKindEscalated: "Ticket {{ticket_id}} \"{{title}}\" escalated to {{escalated_to}}: {{reason}}",
	domain.NotificationKindOverdue:   "Ticket {{ticket_id}} \"{{title}}\" is overdue ({{priority}} priority)",
}

var placeholderPattern = regexp.MustCompile(`\{\{(\w+)\}\}`)

// RenderMessage resolves the template for kind against vars.
func RenderMessage(kind domain.NotificationKind, vars map[string]string) string {
	tmpl, ok := templates[kind]
	if !ok {
		return ""
	}
	return placeholderPattern.ReplaceAllStringFunc(tmpl, func(match string) string {
		name := placeholderPattern.FindStringSubmatch(match)[1]
		return vars[name]
	})
}
