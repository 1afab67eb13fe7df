package middleware

// Context keys used to store authentication and tracing metadata.
const (
	ContextKeyUserID    = "user_id"
	ContextKeyUserEmail = "user_email"
	ContextKeyUserRole  = "user_role"
	ContextKeyRequestID = "request_id"
)

// RoleAdmin is the role allowed into the /admin routes.
const RoleAdmin = "admin"
