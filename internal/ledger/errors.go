package ledger

import (
	"errors"
	"fmt"

	"github.com/roach88/turnstile/internal/address"
)

// Code is a stable, enumerable rejection reason. Clients switch on it.
type Code string

const (
	CodeUnauthorized                        Code = "UNAUTHORIZED"
	CodeNotEnoughTicketsAvailable           Code = "NOT_ENOUGH_TICKETS_AVAILABLE"
	CodeTicketAlreadyCheckedIn              Code = "TICKET_ALREADY_CHECKED_IN"
	CodeInsufficientUses                    Code = "INSUFFICIENT_USES"
	CodeCheckInRequiresAttendanceFlow       Code = "CHECK_IN_REQUIRES_ATTENDANCE_FLOW"
	CodeAttendanceNotEnabled                Code = "ATTENDANCE_NOT_ENABLED"
	CodeCheckedInTicketsCantChangeAuthority Code = "CHECKED_IN_TICKETS_CANT_CHANGE_AUTHORITY"
	CodeNotTicketOwner                      Code = "NOT_TICKET_OWNER"
	CodeInsufficientBalance                 Code = "INSUFFICIENT_BALANCE"
	CodeOnlyEventAuthorityCanWithdraw       Code = "ONLY_EVENT_AUTHORITY_CAN_WITHDRAW"
	CodeAlreadyExists                       Code = "ALREADY_EXISTS"
	CodeNotFound                            Code = "NOT_FOUND"
	CodeInvalidArgument                     Code = "INVALID_ARGUMENT"
)

// Codes lists every code in declaration order.
var Codes = []Code{
	CodeUnauthorized,
	CodeNotEnoughTicketsAvailable,
	CodeTicketAlreadyCheckedIn,
	CodeInsufficientUses,
	CodeCheckInRequiresAttendanceFlow,
	CodeAttendanceNotEnabled,
	CodeCheckedInTicketsCantChangeAuthority,
	CodeNotTicketOwner,
	CodeInsufficientBalance,
	CodeOnlyEventAuthorityCanWithdraw,
	CodeAlreadyExists,
	CodeNotFound,
	CodeInvalidArgument,
}

// Error is a rejected operation. Every Error is detected before any
// write, so a rejected operation has no effect on state.
type Error struct {
	// Code identifies the rejection.
	Code Code

	// Op is the operation that rejected, e.g. "sell".
	Op string

	// Address is the entity the rejection concerns, if any.
	Address address.Address

	// Message is a human-readable description.
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	prefix := string(e.Code)
	if e.Op != "" {
		prefix = e.Op + ": " + prefix
	}
	if !e.Address.IsZero() {
		return fmt.Sprintf("%s: %s (%s)", prefix, e.Message, e.Address.Short())
	}
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", prefix, e.Message)
	}
	return prefix
}

// Is matches any *Error with the same code, so
// errors.Is(err, ledger.ErrNotFound) works on wrapped errors.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// Sentinels for errors.Is. Never returned directly.
var (
	ErrUnauthorized                        = &Error{Code: CodeUnauthorized}
	ErrNotEnoughTicketsAvailable           = &Error{Code: CodeNotEnoughTicketsAvailable}
	ErrTicketAlreadyCheckedIn              = &Error{Code: CodeTicketAlreadyCheckedIn}
	ErrInsufficientUses                    = &Error{Code: CodeInsufficientUses}
	ErrCheckInRequiresAttendanceFlow       = &Error{Code: CodeCheckInRequiresAttendanceFlow}
	ErrAttendanceNotEnabled                = &Error{Code: CodeAttendanceNotEnabled}
	ErrCheckedInTicketsCantChangeAuthority = &Error{Code: CodeCheckedInTicketsCantChangeAuthority}
	ErrNotTicketOwner                      = &Error{Code: CodeNotTicketOwner}
	ErrInsufficientBalance                 = &Error{Code: CodeInsufficientBalance}
	ErrOnlyEventAuthorityCanWithdraw       = &Error{Code: CodeOnlyEventAuthorityCanWithdraw}
	ErrAlreadyExists                       = &Error{Code: CodeAlreadyExists}
	ErrNotFound                            = &Error{Code: CodeNotFound}
	ErrInvalidArgument                     = &Error{Code: CodeInvalidArgument}
)

// CodeOf returns the code of the first *Error in err's chain, or "" for
// infrastructure errors and nil.
func CodeOf(err error) Code {
	var le *Error
	if errors.As(err, &le) {
		return le.Code
	}
	return ""
}

// IsRejection reports whether err is a domain rejection rather than an
// infrastructure failure.
func IsRejection(err error) bool {
	return CodeOf(err) != ""
}

func reject(code Code, addr address.Address, format string, args ...any) *Error {
	return &Error{Code: code, Address: addr, Message: fmt.Sprintf(format, args...)}
}
