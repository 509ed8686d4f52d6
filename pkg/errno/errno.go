package errno

import "errors"

// Errno defines the error code logic
type Errno struct {
	Code    int
	Message string
}

func (e Errno) Error() string {
	return e.Message
}

// WithDetail returns a copy whose message carries detail.
func (e Errno) WithDetail(detail string) Errno {
	if detail == "" {
		return e
	}
	return Errno{Code: e.Code, Message: e.Message + ": " + detail}
}

// Decode tries to convert an error to Errno
func Decode(err error) (int, string) {
	if err == nil {
		return OK.Code, OK.Message
	}

	var typed Errno
	if errors.As(err, &typed) {
		return typed.Code, typed.Message
	}
	var ptr *Errno
	if errors.As(err, &ptr) && ptr != nil {
		return ptr.Code, ptr.Message
	}
	return InternalServerError.Code, err.Error()
}

// Common Errors
var (
	OK                  = Errno{Code: 0, Message: "Success"}
	InternalServerError = Errno{Code: 10001, Message: "Internal server error"}
	ErrBind             = Errno{Code: 10002, Message: "Error occurred while binding the request body to the struct"}
	ErrNotFound         = Errno{Code: 10004, Message: "Resource not found"}
)

// Business Errors (20000+)
var (
	ErrInvalidPayload      = Errno{Code: 20101, Message: "Invalid payload"}
	ErrInvalidAddress      = Errno{Code: 20102, Message: "Invalid address"}
	ErrInvalidFeeRate      = Errno{Code: 20103, Message: "Invalid fee rate"}
	ErrInsufficientFunds   = Errno{Code: 20201, Message: "Insufficient funds"}
	ErrPrevTxLookup        = Errno{Code: 20202, Message: "Previous transaction lookup failed"}
	ErrBuildFailed         = Errno{Code: 20203, Message: "Transaction build failed"}
	ErrUpstreamUnavailable = Errno{Code: 20301, Message: "Upstream data unavailable"}
	ErrFeeFeedUnavailable  = Errno{Code: 20302, Message: "Fee feed unavailable"}
	ErrEstimateSuperseded  = Errno{Code: 20401, Message: "Estimate superseded by a newer request"}
)
