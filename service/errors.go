package service

import "fmt"

// Kind 错误分类，handler 层据此映射 HTTP 状态码或 WebSocket 事件
type Kind int

const (
	KindValidation  Kind = iota + 1 // 输入不合法，无状态变化
	KindConflict                    // 关系状态冲突/重复操作，无状态变化
	KindNotFound                    // 资源不存在
	KindForbidden                   // 无权操作
	KindPersistence                 // 存储失败（可重试的暂时性错误）
	KindUpstream                    // 外部依赖失败（AI 补全）
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	case KindNotFound:
		return "not_found"
	case KindForbidden:
		return "forbidden"
	case KindPersistence:
		return "persistence"
	case KindUpstream:
		return "upstream"
	default:
		return "unknown"
	}
}

// Error 业务错误
type Error struct {
	Kind    Kind
	Code    string // 机器可读错误码
	Message string // 给调用方看的提示
	Err     error  // 底层错误
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is 按错误码比较，使 errors.Is(err, ErrPersistence) 对包装后的同类错误也成立
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code != "" && t.Code == e.Code
}

var (
	ErrInvalidTarget    = &Error{Kind: KindValidation, Code: "invalid_target", Message: "cannot send request to yourself"}
	ErrAlreadyFriends   = &Error{Kind: KindConflict, Code: "already_friends", Message: "already friends"}
	ErrDuplicatePending = &Error{Kind: KindConflict, Code: "duplicate_pending", Message: "they already sent you a request, check your incoming requests"}
	ErrRequestPending   = &Error{Kind: KindConflict, Code: "request_pending", Message: "friend request already pending"}
	ErrAlreadyHandled   = &Error{Kind: KindConflict, Code: "already_handled", Message: "request already handled"}
	ErrNotFriends       = &Error{Kind: KindConflict, Code: "not_friends", Message: "not friends"}
	ErrRequestNotFound  = &Error{Kind: KindNotFound, Code: "request_not_found", Message: "request not found"}
	ErrUserNotFound     = &Error{Kind: KindNotFound, Code: "user_not_found", Message: "user not found"}
	ErrForbidden        = &Error{Kind: KindForbidden, Code: "forbidden", Message: "not authorized"}
	ErrPersistence      = &Error{Kind: KindPersistence, Code: "persistence_error", Message: "storage failure"}
	ErrUpstream         = &Error{Kind: KindUpstream, Code: "upstream_error", Message: "completion failed"}
)

func validationError(message string) *Error {
	return &Error{Kind: KindValidation, Code: "invalid_input", Message: message}
}

func persistenceError(message string, err error) *Error {
	return &Error{Kind: KindPersistence, Code: ErrPersistence.Code, Message: message, Err: err}
}

func upstreamError(err error) *Error {
	return &Error{Kind: KindUpstream, Code: ErrUpstream.Code, Message: ErrUpstream.Message, Err: err}
}
