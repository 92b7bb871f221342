package pkg

import (
	"errors"
	"net/http"
)

type ErrKind int

const (
	KindNotFound ErrKind = iota + 1
	KindForbidden
	KindValidation
	KindConflict
	KindCreatorProtected
)

// BizError 业务错误，直接透传到 handler 层，由 handler 映射为状态码
type BizError struct {
	Kind   ErrKind
	Status int
	Msg    string
}

func (e *BizError) Error() string { return e.Msg }

func newBizError(kind ErrKind, status int, msg string) *BizError {
	return &BizError{Kind: kind, Status: status, Msg: msg}
}

func NotFound(msg string) *BizError   { return newBizError(KindNotFound, http.StatusNotFound, msg) }
func Forbidden(msg string) *BizError  { return newBizError(KindForbidden, http.StatusForbidden, msg) }
func Validation(msg string) *BizError { return newBizError(KindValidation, http.StatusBadRequest, msg) }
func Conflict(msg string) *BizError   { return newBizError(KindConflict, http.StatusConflict, msg) }

var (
	ErrCrewNotFound        = NotFound("crew not found")
	ErrUserNotFound        = NotFound("user not found")
	ErrMeetingNotFound     = NotFound("meeting not found")
	ErrApplicationNotFound = NotFound("crew application not found")

	ErrNotCrewCreator = Forbidden("only the crew creator can do this")
	ErrNotCrewMember  = Forbidden("not a crew member")

	ErrInvalidCrewName     = Validation("crew name must be 1-30 characters")
	ErrDuplicateCrewName   = Validation("crew name already exists")
	ErrInvalidDescription  = Validation("crew description is too long")
	ErrInvalidAgeRange     = Validation("invalid crew age range")
	ErrInvalidCrewGender   = Validation("invalid crew gender")
	ErrInvalidTags         = Validation("crew tags must be at most 3 distinct items of 1-10 characters")
	ErrAgeForbidden        = Validation("user age does not meet the crew requirement")
	ErrGenderForbidden     = Validation("user gender does not meet the crew requirement")
	ErrEmptyAnswer         = Validation("an answer is required to apply to this crew")
	ErrAlreadyMember       = Validation("already a crew member")
	ErrAlreadyApplied      = Validation("already applied to this crew")
	ErrJoinedCrewsExceeded = Validation("joined crew limit reached")
	ErrAppliedExceeded     = Validation("crew application limit reached")
	ErrMemberOutOfBounds   = Validation("an existing member would no longer meet the crew requirement")
	ErrInvalidMeetingTitle = Validation("meeting title must be 1-100 characters")

	ErrDuplicateTransition = Conflict("request conflicts with a concurrent change")

	ErrCreatorDeleteForbidden = newBizError(KindCreatorProtected, http.StatusForbidden, "the crew creator cannot be removed")
)

// StatusOf 返回业务错误对应的状态码，非业务错误返回 500
func StatusOf(err error) (int, string) {
	var be *BizError
	if errors.As(err, &be) {
		return be.Status, be.Msg
	}
	return http.StatusInternalServerError, "internal error"
}

func KindOf(err error) ErrKind {
	var be *BizError
	if errors.As(err, &be) {
		return be.Kind
	}
	return 0
}
