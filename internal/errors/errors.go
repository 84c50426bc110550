// Package errors переводит ошибки service и uploads в HTTP-ответы вида
// {"error":{"code","message","request_id"}}. Нераспознанное уходит как 500/internal,
// текст исходной ошибки клиенту не показывается.
package errors

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"

	"github.com/pribylovaa/go-news-cms/internal/service"
	"github.com/pribylovaa/go-news-cms/internal/uploads"
)

// StatusClientClosedRequest (nginx 499) — клиент ушёл, не дождавшись ответа.
const StatusClientClosedRequest = 499

// ErrUnauthenticated — запрос без валидного Bearer-токена (выставляет guard).
var ErrUnauthenticated = stderrors.New("unauthenticated")

// APIError — тело ошибки. Code стабилен и предназначен для клиента-программы,
// Message для человека.
type APIError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

type ErrorResponse struct {
	Error APIError `json:"error"`
}

type mapping struct {
	target error
	status int
	code   string
	msg    string
}

// table проверяется сверху вниз; первая совпавшая по errors.Is запись выигрывает.
var table = []mapping{
	{service.ErrMissingFields, http.StatusBadRequest, "missing_fields", "title, author and content are required"},
	{service.ErrInvalidID, http.StatusBadRequest, "invalid_id", "id must be a positive integer"},
	{service.ErrInvalidArgument, http.StatusBadRequest, "invalid_argument", "invalid argument"},
	{service.ErrInvalidEmail, http.StatusBadRequest, "invalid_argument", "invalid email"},
	{service.ErrWeakPassword, http.StatusBadRequest, "invalid_argument", "password is too short"},
	{uploads.ErrNoFile, http.StatusBadRequest, "no_file", "no file uploaded"},
	{uploads.ErrUnsupportedType, http.StatusBadRequest, "unsupported_media_type", "unsupported file type"},
	{uploads.ErrTooLarge, http.StatusRequestEntityTooLarge, "too_large", "file is too large"},
	{service.ErrNotFound, http.StatusNotFound, "not_found", "not found"},
	{service.ErrEmailTaken, http.StatusConflict, "already_exists", "email already registered"},
	{service.ErrInvalidCredentials, http.StatusUnauthorized, "unauthenticated", "invalid credentials"},
	{service.ErrInvalidToken, http.StatusUnauthorized, "unauthenticated", "invalid token"},
	{service.ErrTokenExpired, http.StatusUnauthorized, "unauthenticated", "token expired"},
	{ErrUnauthenticated, http.StatusUnauthorized, "unauthenticated", "unauthenticated"},
	{context.Canceled, StatusClientClosedRequest, "canceled", "canceled"},
	{context.DeadlineExceeded, http.StatusGatewayTimeout, "deadline_exceeded", "deadline exceeded"},
}

// ToHTTP конвертирует доменную ошибку в HTTP-статус и унифицированный ответ.
//
// Поведение:
//   - err == nil — программная ошибка вызова: 500/internal, чтобы не маскировать баг;
//   - *http.MaxBytesError (тело больше лимита) — 413/too_large;
//   - сентинелы из table — по таблице;
//   - прочее (StorageFault, PersistenceFault) — 500/internal без деталей.
func ToHTTP(err error) (int, ErrorResponse) {
	if err == nil {
		return internal()
	}

	var mbe *http.MaxBytesError
	if stderrors.As(err, &mbe) {
		return http.StatusRequestEntityTooLarge, ErrorResponse{
			Error: APIError{Code: "too_large", Message: "file is too large"},
		}
	}

	for _, m := range table {
		if stderrors.Is(err, m.target) {
			return m.status, ErrorResponse{Error: APIError{Code: m.code, Message: m.msg}}
		}
	}

	return internal()
}

// WriteError пишет ответ ToHTTP(err) с request_id запроса.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	status, resp := ToHTTP(err)

	if rid := r.Header.Get("X-Request-Id"); rid != "" {
		resp.Error.RequestID = rid
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

func internal() (int, ErrorResponse) {
	return http.StatusInternalServerError, ErrorResponse{
		Error: APIError{Code: "internal", Message: "internal error"},
	}
}
