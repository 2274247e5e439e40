// Package errs defines the error taxonomy every public operation returns.
// Each value satisfies CTCError so callers can branch on Code() without
// string-matching messages, and errors.As still works for stdlib interop.
package errs

import "fmt"

type Code string

const (
	CodeProtocolViolation  Code = "protocol_violation"
	CodeRouteInfeasible    Code = "route_infeasible"
	CodeBlockClosureConfl  Code = "block_closure_conflict"
	CodeTrainIDInvalid     Code = "train_id_invalid"
	CodeTransient          Code = "transient"
	CodeConflictDetected   Code = "conflict_detected"
)

// CTCError is implemented by every taxonomy entry.
type CTCError interface {
	error
	Code() Code
}

type ctcError struct {
	code Code
	msg  string
	err  error
}

func (e *ctcError) Code() Code { return e.code }

func (e *ctcError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %s: %v", e.code, e.msg, e.err)
	}
	return fmt.Sprintf("%s: %s", e.code, e.msg)
}

func (e *ctcError) Unwrap() error { return e.err }

func new(code Code, msg string, wrap error) *ctcError {
	return &ctcError{code: code, msg: msg, err: wrap}
}

// ProtocolViolation — registration fails strict checks, inbound array length
// mismatch, or sender absent. Rejects the operation without mutating state.
func ProtocolViolation(msg string) CTCError { return new(CodeProtocolViolation, msg, nil) }

// RouteInfeasible — no valid block sequence exists, or the arrival time is
// unachievable. Route generation returns this instead of a route.
func RouteInfeasible(msg string) CTCError { return new(CodeRouteInfeasible, msg, nil) }

// BlockClosureConflict — closure requested on an occupied block or one
// conflicting with a scheduled route.
func BlockClosureConflict(msg string) CTCError { return new(CodeBlockClosureConfl, msg, nil) }

// TrainIDInvalid — a malformed train ID was supplied.
func TrainIDInvalid(msg string) CTCError { return new(CodeTrainIDInvalid, msg, nil) }

// Transient — an individual outbound send failed; callers log and continue
// with the remaining controllers rather than aborting the batch.
func Transient(msg string, wrap error) CTCError { return new(CodeTransient, msg, wrap) }

// ConflictDetected — a collision, authority, or speed violation discovered
// by the coordinator's tick. Never silently stops a train; always surfaced.
func ConflictDetected(msg string) CTCError { return new(CodeConflictDetected, msg, nil) }

// Is reports whether err carries the given taxonomy code.
func Is(err error, code Code) bool {
	ce, ok := err.(CTCError)
	return ok && ce.Code() == code
}
