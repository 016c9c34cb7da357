package domain

import "time"

// UserRole enumerates tenant-scoped roles.
type UserRole string

const (
	UserRoleAdmin   UserRole = "ADMIN"
	UserRoleManager UserRole = "MANAGER"
	UserRoleAgent   UserRole = "AGENT"
	UserRoleMember  UserRole = "MEMBER"
)

// User is the domain model for CRM users. Loaded read-only at connection
// admission; the persistence collaborator owns the record.
type User struct {
	ID             string
	OrganizationID string
	Name           string
	Email          string
	Role           UserRole
	Active         bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
