package domain

// UserRole gates admin-only back-office operations.
type UserRole string

const (
	RoleStaff UserRole = "staff"
	RoleAdmin UserRole = "admin"
)

// User is a back-office staff member.
type User struct {
	UserID       int64    `json:"userID"`
	Username     string   `json:"username"`
	Name         string   `json:"name"`
	PasswordHash string   `json:"-"` // bcrypt, never serialized
	Role         UserRole `json:"role"`
	Disabled     bool     `json:"disabled"`
	AuditFields
}
