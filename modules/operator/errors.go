package operator

import "github.com/cockroachdb/errors"

var (
	// ErrNoPublicKey fails a permit closed when any listed signer has no
	// registered key, before signature verification runs.
	ErrNoPublicKey = errors.New("signer has no registered public key")

	// ErrAccountDuplicated rejects adding a key for an account that already
	// holds one; keys rotate through an explicit remove, never an overwrite.
	ErrAccountDuplicated = errors.New("operator account already registered")
)
