// Package errors provides standardized error types for the storefront.
// It defines the error taxonomy shared by the catalog client, the local product
// store, and the reconciliation engine, together with helpers for checking them.
//
// Package errors 提供店面的标准化错误类型。
// 它定义了目录客户端、本地产品存储和协调引擎共享的错误分类，以及用于检查这些错误的辅助函数。
package errors

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Standard errors that can be returned by the storefront.
// Typed errors below wrap one of these so errors.Is works across package boundaries.
//
// 店面可能返回的标准错误。
// 下面的类型化错误会包装其中之一，以便errors.Is跨包工作。
var (
	// ErrRemoteFetch is returned when the remote catalog cannot be reached or answers with a non-2xx status.
	// 当无法访问远程目录或其返回非2xx状态时返回ErrRemoteFetch。
	ErrRemoteFetch = errors.New("shopfront: remote fetch failed")

	// ErrStorageCorrupt is returned when durable store content cannot be decoded.
	// 当持久存储内容无法解码时返回ErrStorageCorrupt。
	ErrStorageCorrupt = errors.New("shopfront: storage content corrupt")

	// ErrValidation is returned when a create or update payload is malformed.
	// 当创建或更新的数据格式不正确时返回ErrValidation。
	ErrValidation = errors.New("shopfront: validation failed")

	// ErrNotFound is returned when a referenced record does not exist.
	// 当引用的记录不存在时返回ErrNotFound。
	ErrNotFound = errors.New("shopfront: not found")

	// ErrSuperseded is returned when a query result was discarded because a newer query started.
	// 当查询结果因为更新的查询已开始而被丢弃时返回ErrSuperseded。
	ErrSuperseded = errors.New("shopfront: query superseded")

	// ErrUnauthorized is returned when credentials or tokens are rejected.
	// 当凭据或令牌被拒绝时返回ErrUnauthorized。
	ErrUnauthorized = errors.New("shopfront: unauthorized")
)

// RemoteFetchError describes a failed call to the remote catalog.
// Cause is a short human-readable reason derived from the HTTP status.
//
// RemoteFetchError 描述对远程目录的失败调用。
// Cause 是从HTTP状态派生的简短可读原因。
type RemoteFetchError struct {
	Op     string // Operation name, e.g. "list" / 操作名称
	Status int    // HTTP status, 0 for transport failures / HTTP状态，传输失败时为0
	Cause  string // Human-readable cause / 可读原因
	Err    error  // Underlying error, may be nil / 底层错误，可能为nil
}

// Error returns the error message.
//
// Error 返回错误消息。
func (e *RemoteFetchError) Error() string {
	msg := fmt.Sprintf("catalog %s: %s", e.Op, e.Cause)
	if e.Status > 0 {
		msg += fmt.Sprintf(" (status %d)", e.Status)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns ErrRemoteFetch and the underlying error so both errors.Is checks succeed.
//
// Unwrap 返回ErrRemoteFetch和底层错误，使两种errors.Is检查都能成功。
func (e *RemoteFetchError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrRemoteFetch}
	}
	return []error{ErrRemoteFetch, e.Err}
}

// NewRemoteFetchError creates a RemoteFetchError whose cause is derived from the status.
// A zero status means the request never produced a response.
//
// NewRemoteFetchError 创建一个RemoteFetchError，其原因从状态派生。
// 状态为零表示请求从未产生响应。
//
// Parameters:
//   - op: The catalog operation that failed
//   - status: The HTTP status code, or 0 for transport failures
//   - err: The underlying error, may be nil
//
// Returns:
//   - *RemoteFetchError: A new remote fetch error
func NewRemoteFetchError(op string, status int, err error) *RemoteFetchError {
	return &RemoteFetchError{Op: op, Status: status, Cause: CauseForStatus(status), Err: err}
}

// CauseForStatus maps an HTTP status to the human-readable cause used in RemoteFetchError.
//
// CauseForStatus 将HTTP状态映射为RemoteFetchError中使用的可读原因。
func CauseForStatus(status int) string {
	switch {
	case status == 0:
		return "network error"
	case status == 404:
		return "resource not found"
	case status == 401 || status == 403:
		return "access denied"
	case status == 429:
		return "too many requests"
	case status >= 500:
		return "server error"
	default:
		return "request failed"
	}
}

// ValidationError carries field-level messages for a rejected payload.
//
// ValidationError 携带被拒绝数据的字段级消息。
type ValidationError struct {
	Fields map[string]string // Field name to message / 字段名到消息
}

// Error returns the error message with fields in a stable order.
//
// Error 以稳定顺序返回包含字段的错误消息。
func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+": "+e.Fields[name])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Unwrap returns ErrValidation.
//
// Unwrap 返回ErrValidation。
func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// NewValidationError creates a ValidationError for a single field.
//
// NewValidationError 为单个字段创建ValidationError。
func NewValidationError(field, msg string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: msg}}
}

// NotFoundError reports a missing record of the given kind.
//
// NotFoundError 报告给定类型的缺失记录。
type NotFoundError struct {
	Kind string
	ID   string
}

// Error returns the error message.
//
// Error 返回错误消息。
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

// Unwrap returns ErrNotFound.
//
// Unwrap 返回ErrNotFound。
func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// NewNotFoundError creates a NotFoundError.
//
// NewNotFoundError 创建一个NotFoundError。
func NewNotFoundError(kind string, id interface{}) *NotFoundError {
	return &NotFoundError{Kind: kind, ID: fmt.Sprint(id)}
}

// StorageCorruptionError reports a durable store value that could not be decoded.
// It never escapes the local store; it is logged and the value treated as empty.
//
// StorageCorruptionError 报告无法解码的持久存储值。
// 它永远不会逃出本地存储；它会被记录，并且该值被视为空。
type StorageCorruptionError struct {
	Key string
	Err error
}

// Error returns the error message.
//
// Error 返回错误消息。
func (e *StorageCorruptionError) Error() string {
	return fmt.Sprintf("corrupt value under %q: %v", e.Key, e.Err)
}

// Unwrap returns ErrStorageCorrupt and the decode error.
//
// Unwrap 返回ErrStorageCorrupt和解码错误。
func (e *StorageCorruptionError) Unwrap() []error {
	return []error{ErrStorageCorrupt, e.Err}
}

// IsRemoteFetch returns true if the error is or wraps ErrRemoteFetch.
//
// IsRemoteFetch 如果错误是或包装了ErrRemoteFetch，则返回true。
func IsRemoteFetch(err error) bool {
	return errors.Is(err, ErrRemoteFetch)
}

// IsValidation returns true if the error is or wraps ErrValidation.
//
// IsValidation 如果错误是或包装了ErrValidation，则返回true。
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsNotFound returns true if the error is or wraps ErrNotFound.
// A remote 404 counts as not found as well.
//
// IsNotFound 如果错误是或包装了ErrNotFound，则返回true。
// 远程404也算作未找到。
func IsNotFound(err error) bool {
	if errors.Is(err, ErrNotFound) {
		return true
	}
	var rfe *RemoteFetchError
	return errors.As(err, &rfe) && rfe.Status == 404
}

// IsStorageCorrupt returns true if the error is or wraps ErrStorageCorrupt.
//
// IsStorageCorrupt 如果错误是或包装了ErrStorageCorrupt，则返回true。
func IsStorageCorrupt(err error) bool {
	return errors.Is(err, ErrStorageCorrupt)
}

// IsSuperseded returns true if the error is or wraps ErrSuperseded.
//
// IsSuperseded 如果错误是或包装了ErrSuperseded，则返回true。
func IsSuperseded(err error) bool {
	return errors.Is(err, ErrSuperseded)
}

// IsUnauthorized returns true if the error is or wraps ErrUnauthorized.
//
// IsUnauthorized 如果错误是或包装了ErrUnauthorized，则返回true。
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}
