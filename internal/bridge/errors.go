package bridge

import "errors"

// Every validation failure aborts the whole operation with no partial
// mutation; retries are the caller's responsibility. ErrNonceAlreadyUsed and
// ErrAlreadyLocked are expected caller-recoverable conditions, not defects.
// ErrInvalidSignature is surfaced distinctly because it may indicate an
// attack rather than a bug.
var (
	ErrNotInitialized           = errors.New("bridge not initialized")
	ErrAlreadyInitialized       = errors.New("bridge already initialized")
	ErrUnauthorized             = errors.New("unauthorized")
	ErrPaused                   = errors.New("bridge paused")
	ErrInvalidDestinationChain  = errors.New("destination chain not supported")
	ErrNotEligible              = errors.New("asset not cross-chain eligible")
	ErrAlreadyLocked            = errors.New("asset already locked")
	ErrNotOwner                 = errors.New("claimant is not the asset owner")
	ErrNotFound                 = errors.New("not found")
	ErrAssetExists              = errors.New("asset already registered")
	ErrInvalidAddressEncoding   = errors.New("invalid destination address encoding")
	ErrInvalidSignature         = errors.New("invalid signature")
	ErrNonceAlreadyUsed         = errors.New("nonce already used")
	ErrInconsistentReceiptState = errors.New("inconsistent receipt state")
	ErrInvalidRequest           = errors.New("invalid request")
)
