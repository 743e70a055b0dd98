package reply

import (
	"context"
	"errors"
	"net/http"

	"git.appkode.ru/pub/go/failure"
	jsoniter "github.com/json-iterator/go"

	"duoduo-bargain/pkg/contextx"
	"duoduo-bargain/pkg/errcodes"
	"duoduo-bargain/pkg/logx"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary //nolint:gochecknoglobals // skip

type errorResponse struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	SupportID string `json:"supportId"`
}

func (e *errorResponse) WithDefaultCode(code failure.ErrorCode) {
	if e.Code == "" {
		e.Code = code.String()
	}
}

var logger = contextx.LoggerFromContextOrDefault //nolint:gochecknoglobals

func OK(w http.ResponseWriter) {
	w.WriteHeader(http.StatusOK)
}

func Created(w http.ResponseWriter) {
	w.WriteHeader(http.StatusCreated)
}

func JSON(ctx context.Context, w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger(ctx).Error("json.Encode", logx.Error(err))
	}
}

// codedError is implemented by domain errors that carry a stable error code.
type codedError interface {
	ErrorCode() failure.ErrorCode
	Description() string
}

func Error(ctx context.Context, w http.ResponseWriter, err error) {
	logger(ctx).Error("error", logx.Error(err))

	response := errorResponse{
		Code:      failure.Code(err).String(),
		Message:   failure.Description(err),
		SupportID: supportID(ctx),
	}

	var coded codedError
	if errors.As(err, &coded) {
		response.Code = coded.ErrorCode().String()
		response.Message = coded.Description()
		JSON(ctx, w, statusForCode(coded.ErrorCode()), response)

		return
	}

	switch {
	case failure.IsInvalidArgumentError(err):
		response.WithDefaultCode(errcodes.ValidationError)
		JSON(ctx, w, http.StatusBadRequest, response)
	case failure.IsNotFoundError(err):
		response.WithDefaultCode(errcodes.NotFound)
		JSON(ctx, w, http.StatusNotFound, response)
	case failure.IsUnauthorizedError(err):
		JSON(ctx, w, http.StatusUnauthorized, response)
	case failure.IsForbiddenError(err):
		response.WithDefaultCode(errcodes.Forbidden)
		JSON(ctx, w, http.StatusForbidden, response)
	case failure.IsConflictError(err):
		JSON(ctx, w, http.StatusConflict, response)
	case failure.IsUnprocessableEntityError(err):
		JSON(ctx, w, http.StatusUnprocessableEntity, response)
	default:
		response.WithDefaultCode(errcodes.InternalServerError)
		JSON(ctx, w, http.StatusInternalServerError, response)
	}
}

func statusForCode(code failure.ErrorCode) int {
	switch code {
	case errcodes.NotFound, errcodes.UserNotFound, errcodes.ProductNotFound,
		errcodes.SessionNotFound, errcodes.ParticipantNotFound:
		return http.StatusNotFound
	case errcodes.Unauthorized, errcodes.AccessTokenExpired, errcodes.AccessTokenInvalid,
		errcodes.RefreshTokenExpired, errcodes.RefreshTokenInvalid:
		return http.StatusUnauthorized
	case errcodes.Forbidden:
		return http.StatusForbidden
	case errcodes.ValidationError, errcodes.InvalidUserID, errcodes.InvalidProductID,
		errcodes.InvalidSessionID, errcodes.InvalidPrice, errcodes.InvalidDuration,
		errcodes.InvalidTargetPrice:
		return http.StatusBadRequest
	case errcodes.ProductExpired, errcodes.SessionAlreadyClosed:
		return http.StatusConflict
	case errcodes.TimeoutExceeded:
		return http.StatusGatewayTimeout
	case errcodes.ChatCompletionFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func supportID(ctx context.Context) string {
	traceID, err := contextx.TraceIDFromContext(ctx)
	if err != nil {
		return "unsupported"
	}

	return traceID.String()
}
