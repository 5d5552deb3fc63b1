package usecase

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorKind string

const (
	KindValidation   ErrorKind = "VALIDATION_ERROR"
	KindNotFound     ErrorKind = "NOT_FOUND"
	KindConflict     ErrorKind = "CONFLICT"
	KindRange        ErrorKind = "RANGE_ERROR"
	KindUnauthorized ErrorKind = "UNAUTHORIZED"
	KindForbidden    ErrorKind = "FORBIDDEN"
	KindInternal     ErrorKind = "INTERNAL_ERROR"
)

var kindStatus = map[ErrorKind]int{
	KindValidation:   http.StatusBadRequest,
	KindNotFound:     http.StatusNotFound,
	KindConflict:     http.StatusConflict,
	KindRange:        http.StatusBadRequest,
	KindUnauthorized: http.StatusUnauthorized,
	KindForbidden:    http.StatusForbidden,
	KindInternal:     http.StatusInternalServerError,
}

// usecaseが返すエラー。handlerはKindからHTTPステータスを決める。
type AppError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *AppError) Unwrap() error { return e.Err }

func (e *AppError) Status() int {
	if s, ok := kindStatus[e.Kind]; ok {
		return s
	}
	return http.StatusInternalServerError
}

func NewValidationError(msg string) error {
	return &AppError{Kind: KindValidation, Message: msg}
}

func NewNotFoundError(msg string) error {
	return &AppError{Kind: KindNotFound, Message: msg}
}

func NewConflictError(msg string) error {
	return &AppError{Kind: KindConflict, Message: msg}
}

func NewRangeError(msg string) error {
	return &AppError{Kind: KindRange, Message: msg}
}

func NewUnauthorizedError(msg string) error {
	return &AppError{Kind: KindUnauthorized, Message: msg}
}

func NewForbiddenError(msg string) error {
	return &AppError{Kind: KindForbidden, Message: msg}
}

// NewInternalError は原因を包む。クライアントには中身を見せない。
func NewInternalError(err error) error {
	return &AppError{Kind: KindInternal, Message: "internal server error", Err: err}
}

func AsAppError(err error) (*AppError, bool) {
	var ae *AppError
	ok := errors.As(err, &ae)
	return ae, ok
}

func IsKind(err error, kind ErrorKind) bool {
	ae, ok := AsAppError(err)
	return ok && ae.Kind == kind
}

// Tx内から返ったエラーのうち、AppErrorでないものはInternalにする
func asAppErrorOrInternal(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := AsAppError(err); ok {
		return err
	}
	return NewInternalError(err)
}
