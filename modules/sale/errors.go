package sale

import "github.com/cockroachdb/errors"

// Typed rejection reasons surfaced to off-chain callers so they can tell
// "retry later" from "permanently invalid".
var (
	ErrInvalidSchedule    = errors.New("invalid sale schedule")
	ErrInappropriate      = errors.New("inappropriate sale parameter")
	ErrAlreadySaleStarted = errors.New("sale already started")
	ErrAlreadySaleClosed  = errors.New("sale already closed")
	ErrSaleNotReady       = errors.New("sale is not accepting deposits")
	ErrSaleNotClosed      = errors.New("sale deposit window is still open")
	ErrSaleNotFixed       = errors.New("sale is not fixed")
	ErrAlreadyFixed       = errors.New("sale outcome already fixed")
	ErrNotSetTge          = errors.New("vesting start (TGE) is not set")
	ErrNotSetProjectToken = errors.New("project token is not set")
	ErrAlreadySet         = errors.New("field is already set")
	ErrAlreadyDeposited   = errors.New("participant already deposited")
	ErrNotOnSale          = errors.New("no sale phase is open")
	ErrTierNotOpen        = errors.New("participant tier is not open yet")
	ErrInvalidPaidAmount  = errors.New("paid amount does not match unit price")
	ErrNotWhitelisted     = errors.New("account is not whitelisted")
	ErrContractNotAllowed = errors.New("contract addresses cannot participate")
	ErrUnknownParticipant = errors.New("unknown participant")
	ErrQuitNotAllowed     = errors.New("quit is not allowed once the sale is fixed")
)
