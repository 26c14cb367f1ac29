package types

import (
	"encoding/json"
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/mr-tron/base58"
	"github.com/ovl-network/ido-engine/common/errs"
)

const AccountAddressSize = 32

// AccountAddress is a 32-byte account identity on the chain.
type AccountAddress [AccountAddressSize]byte

var (
	ErrInvalidAddressLength = errors.New("invalid account address: must decode to 32 bytes")
	ErrInvalidAddressFormat = errors.New("invalid account address: not base58")
)

func NewAccountAddressFromString(str string) (AccountAddress, error) {
	raw, err := base58.Decode(str)
	if err != nil {
		return AccountAddress{}, errors.WithStack(errors.Join(err, ErrInvalidAddressFormat))
	}
	if len(raw) != AccountAddressSize {
		return AccountAddress{}, errors.WithStack(ErrInvalidAddressLength)
	}
	var addr AccountAddress
	copy(addr[:], raw)
	return addr, nil
}

func (a AccountAddress) String() string {
	return base58.Encode(a[:])
}

func (a AccountAddress) IsZero() bool {
	return a == AccountAddress{}
}

func (a AccountAddress) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

func (a *AccountAddress) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return errors.WithStack(err)
	}
	addr, err := NewAccountAddressFromString(str)
	if err != nil {
		return err
	}
	*a = addr
	return nil
}

// ContractAddress identifies a deployed contract instance.
type ContractAddress struct {
	Index    uint64 `json:"index"`
	Subindex uint64 `json:"subindex"`
}

func (c ContractAddress) String() string {
	return fmt.Sprintf("<%d,%d>", c.Index, c.Subindex)
}

// AddressKind discriminates the Address union.
type AddressKind uint8

const (
	AddressKindAccount AddressKind = iota
	AddressKindContract
)

// Address is either an account or a contract instance.
type Address struct {
	Kind     AddressKind     `json:"kind"`
	Account  AccountAddress  `json:"account,omitempty"`
	Contract ContractAddress `json:"contract,omitempty"`
}

func NewAccountAddress(account AccountAddress) Address {
	return Address{Kind: AddressKindAccount, Account: account}
}

func NewContractAddress(contract ContractAddress) Address {
	return Address{Kind: AddressKindContract, Contract: contract}
}

func (a Address) IsAccount() bool {
	return a.Kind == AddressKindAccount
}

func (a Address) IsContract() bool {
	return a.Kind == AddressKindContract
}

func (a Address) String() string {
	if a.IsContract() {
		return a.Contract.String()
	}
	return a.Account.String()
}

func (a Address) Equal(other Address) bool {
	return a == other
}

// Receiver describes where an outbound token payout goes: straight to an
// account, or into a contract through a named receive entrypoint.
type Receiver struct {
	Address    Address `json:"address"`
	Entrypoint string  `json:"entrypoint,omitempty"`
}

func NewAccountReceiver(account AccountAddress) Receiver {
	return Receiver{Address: NewAccountAddress(account)}
}

func NewContractReceiver(contract ContractAddress, entrypoint string) Receiver {
	return Receiver{Address: NewContractAddress(contract), Entrypoint: entrypoint}
}

// OutboundCall is the resolved descriptor for a payout destination.
type OutboundCall struct {
	ToAccount  *AccountAddress
	ToContract *ContractAddress
	Entrypoint string
}

// Resolve maps the receiver to a single outbound-call descriptor.
func (r Receiver) Resolve() (OutboundCall, error) {
	switch r.Address.Kind {
	case AddressKindAccount:
		account := r.Address.Account
		return OutboundCall{ToAccount: &account}, nil
	case AddressKindContract:
		if r.Entrypoint == "" {
			return OutboundCall{}, errors.Wrap(errs.InvalidArgument, "contract receiver requires an entrypoint")
		}
		contract := r.Address.Contract
		return OutboundCall{ToContract: &contract, Entrypoint: r.Entrypoint}, nil
	default:
		return OutboundCall{}, errors.Wrapf(errs.InvalidArgument, "unknown address kind %d", r.Address.Kind)
	}
}
