package types

import "errors"

var (
	// ErrEncoding is returned for malformed structured data. Never retried.
	ErrEncoding = errors.New("malformed typed data")

	// ErrClassification is logged when the chain query behind account
	// classification fails. Callers fall back to an externally owned account.
	ErrClassification = errors.New("account classification failed")

	// ErrThresholdPrepare is returned when the wrapped hash or the threshold
	// could not be read from the multisig.
	ErrThresholdPrepare = errors.New("failed to prepare multisig threshold")

	// ErrMessageProposal is returned when the owner's signature could not be
	// submitted to the signature collection service.
	ErrMessageProposal = errors.New("failed to propose Safe message")

	// ErrMessageExists is returned by a proposal for a message another owner
	// already proposed. The signature is added as a confirmation instead.
	ErrMessageExists = errors.New("Safe message already exists")

	// ErrPollTransport marks a single failed poll. It is logged and the poll
	// loop continues on the next tick.
	ErrPollTransport = errors.New("signature collection poll failed")

	// ErrPollTimeout is reported when the poll budget is exhausted.
	ErrPollTimeout = errors.New("timed out waiting for multisig confirmations")

	// ErrSigningCancelled is an expected outcome: the user declined to sign.
	ErrSigningCancelled = errors.New("signing cancelled by user")

	// ErrSigningFailed is any wallet failure other than a user rejection.
	ErrSigningFailed = errors.New("signing failed")

	// ErrSessionBusy is returned when a session is submitted while another
	// one is still active.
	ErrSessionBusy = errors.New("a signing session is already active")

	// ErrVerificationMismatch describes an invalid signature. Verification
	// reports it as Valid=false, it is only used for display.
	ErrVerificationMismatch = errors.New("signature does not match account")

	ErrUnsupportedChain = errors.New("unsupported chain")
	ErrUserRejected     = errors.New("user rejected the request")
	ErrNoSession        = errors.New("no active signing session")
	ErrSessionReset     = errors.New("signing session was reset")
)
