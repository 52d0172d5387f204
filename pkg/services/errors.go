package services

import "github.com/morikuni/failure"

// Error codes shared by the data accessors and the HTTP layer.
const (
	ErrInvalidArgument failure.StringCode = "InvalidArgument"
	ErrNotFound        failure.StringCode = "NotFound"
	ErrBlogUnavailable failure.StringCode = "BlogUnavailable"
	ErrDatabase        failure.StringCode = "Database"
	ErrUnauthorized    failure.StringCode = "Unauthorized"
	ErrForbidden       failure.StringCode = "Forbidden"
	ErrDisabled        failure.StringCode = "Disabled"
)
