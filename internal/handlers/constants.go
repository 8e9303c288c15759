package handlers

const (
	AuthorizationHeader = "Authorization"
	BearerPrefix        = "Bearer "

	ErrInvalidRequestBody = "invalid request body"
	ErrInvalidID          = "invalid id"
	ErrMissingToken       = "missing bearer token"
	ErrTooManyRequests    = "too many requests, try again later"

	// maxBodyBytes bounds every JSON request body
	maxBodyBytes = 1 << 20
)
