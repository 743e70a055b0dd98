package errcodes

import "git.appkode.ru/pub/go/failure"

const (
	InternalServerError failure.ErrorCode = "InternalServerError"
	TimeoutExceeded     failure.ErrorCode = "TimeoutExceeded"
	Forbidden           failure.ErrorCode = "Forbidden"
	ValidationError     failure.ErrorCode = "ValidationError"
	NotFound            failure.ErrorCode = "NotFound"
	Unauthorized        failure.ErrorCode = "Unauthorized"
	AccessTokenExpired  failure.ErrorCode = "AccessTokenExpired"
	AccessTokenInvalid  failure.ErrorCode = "AccessTokenInvalid"
	RefreshTokenExpired failure.ErrorCode = "RefreshTokenExpired" //nolint:gosec // false positive
	RefreshTokenInvalid failure.ErrorCode = "RefreshTokenInvalid" //nolint:gosec // false positive

	// Users.
	UserNotFound  failure.ErrorCode = "UserNotFound"
	InvalidUserID failure.ErrorCode = "InvalidUserID"

	// Products.
	ProductNotFound  failure.ErrorCode = "ProductNotFound"
	InvalidProductID failure.ErrorCode = "InvalidProductID"
	InvalidPrice     failure.ErrorCode = "InvalidPrice"
	InvalidDuration  failure.ErrorCode = "InvalidDuration"
	ProductExpired   failure.ErrorCode = "ProductExpired"

	// Bargain sessions.
	SessionNotFound       failure.ErrorCode = "SessionNotFound"
	InvalidSessionID      failure.ErrorCode = "InvalidSessionID"
	InvalidTargetPrice    failure.ErrorCode = "InvalidTargetPrice"
	SessionAlreadyClosed  failure.ErrorCode = "SessionAlreadyClosed"
	ParticipantNotFound   failure.ErrorCode = "ParticipantNotFound"
	ChatCompletionFailed  failure.ErrorCode = "ChatCompletionFailed"
	StreamingNotSupported failure.ErrorCode = "StreamingNotSupported"
)
