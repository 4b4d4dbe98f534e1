package constants

const (
	// Session
	SessionCookieName = "task_session"
	SessionKeySubject = "subject"
	SessionKeyEmail   = "email"
	SessionKeyName    = "name"

	// TokenCookieName is the cookie the browser login flow stores the ID token in.
	TokenCookieName = "token"

	// Gin context keys
	ContextKeyPrincipal = "principal"
	ContextKeyBoard     = "board"

	// Pagination
	MinPageSize     = 1
	DefaultPageSize = 50
	MaxPageSize     = 200

	// Limits
	MaxTitleLength      = 255
	MaxAIGeneratedTasks = 20
	MaxAIInputLength    = 4000
)
