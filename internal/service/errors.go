package service

import (
	"errors"
	"fmt"

	"connectrpc.com/connect"

	"github.com/Ammar-alrfee/fit-manager/internal/attendance"
	"github.com/Ammar-alrfee/fit-manager/internal/auth"
	"github.com/Ammar-alrfee/fit-manager/internal/calculator"
	"github.com/Ammar-alrfee/fit-manager/internal/directory"
	"github.com/Ammar-alrfee/fit-manager/internal/session"
)

// errorKindHeader tells InvalidArgument errors apart on the client.
const errorKindHeader = "Fitmanager-Error-Kind"

// Values of errorKindHeader.
const (
	kindInvalidInput = "invalid-input"
	kindInvalidPage  = "invalid-page"
	kindInvalidPlan  = "invalid-plan"
	kindInvalidDate  = "invalid-date"
)

var invalidArgumentKinds = map[string]error{
	kindInvalidInput: directory.ErrInvalidInput,
	kindInvalidPage:  directory.ErrInvalidPage,
	kindInvalidPlan:  calculator.ErrInvalidPlan,
	kindInvalidDate:  calculator.ErrInvalidDate,
}

// toConnectError maps domain errors onto Connect codes.
func toConnectError(err error) error {
	var code connect.Code
	kind := ""
	switch {
	case errors.Is(err, directory.ErrNotFound):
		code = connect.CodeNotFound
	case errors.Is(err, directory.ErrInvalidInput):
		code, kind = connect.CodeInvalidArgument, kindInvalidInput
	case errors.Is(err, directory.ErrInvalidPage):
		code, kind = connect.CodeInvalidArgument, kindInvalidPage
	case errors.Is(err, calculator.ErrInvalidPlan):
		code, kind = connect.CodeInvalidArgument, kindInvalidPlan
	case errors.Is(err, calculator.ErrInvalidDate):
		code, kind = connect.CodeInvalidArgument, kindInvalidDate
	case errors.Is(err, directory.ErrVersionConflict):
		code = connect.CodeAborted
	case errors.Is(err, attendance.ErrNotEligible):
		code = connect.CodeFailedPrecondition
	case errors.Is(err, attendance.ErrAlreadyCheckedIn):
		code = connect.CodeAlreadyExists
	case errors.Is(err, auth.ErrInvalidCredentials):
		code = connect.CodeUnauthenticated
	case errors.Is(err, auth.ErrTooManyAttempts):
		code = connect.CodeResourceExhausted
	case errors.Is(err, session.ErrForbidden):
		code = connect.CodePermissionDenied
	default:
		code = connect.CodeInternal
	}

	connectErr := connect.NewError(code, err)
	if kind != "" {
		connectErr.Meta().Set(errorKindHeader, kind)
	}
	return connectErr
}

// fromConnectError turns a Connect error received by the client back into
// the matching domain error, keeping the server's message.
func fromConnectError(procedure string, err error) error {
	var connectErr *connect.Error
	if !errors.As(err, &connectErr) {
		return err
	}

	var sentinel error
	switch connectErr.Code() {
	case connect.CodeNotFound:
		sentinel = directory.ErrNotFound
	case connect.CodeInvalidArgument:
		sentinel = directory.ErrInvalidInput
		if kindErr, ok := invalidArgumentKinds[connectErr.Meta().Get(errorKindHeader)]; ok {
			sentinel = kindErr
		}
	case connect.CodeAborted:
		sentinel = directory.ErrVersionConflict
	case connect.CodeFailedPrecondition:
		sentinel = attendance.ErrNotEligible
	case connect.CodeAlreadyExists:
		sentinel = attendance.ErrAlreadyCheckedIn
	case connect.CodeResourceExhausted:
		sentinel = auth.ErrTooManyAttempts
	case connect.CodePermissionDenied:
		sentinel = session.ErrForbidden
	case connect.CodeUnauthenticated:
		sentinel = session.ErrNotAuthenticated
		if procedure == ProcedureLogin {
			sentinel = auth.ErrInvalidCredentials
		}
	default:
		return err
	}
	return fmt.Errorf("%w: %s", sentinel, connectErr.Message())
}
