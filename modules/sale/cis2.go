package sale

import (
	"github.com/ovl-network/ido-engine/core/types"
	"github.com/ovl-network/ido-engine/pkg/codec"
)

// TokenTransferEntrypoint is the receive entrypoint every CIS2-style token
// contract in this family exposes for outbound payouts.
const TokenTransferEntrypoint = "transfer"

// TokenTransferParams is the outbound payout order sent to a token contract:
// move Amount from this contract's balance to the receiver.
type TokenTransferParams struct {
	Amount types.TokenAmount `json:"amount"`
	To     types.Receiver    `json:"to"`
}

func (p TokenTransferParams) MarshalParam() ([]byte, error) {
	w := codec.NewWriter()
	w.WriteU64(uint64(p.Amount))
	writeReceiver(w, p.To)
	return w.Bytes(), nil
}

func (p *TokenTransferParams) UnmarshalParam(data []byte) error {
	r := codec.NewReader(data)
	amount, err := r.ReadU64()
	if err != nil {
		return err
	}
	p.Amount = types.TokenAmount(amount)
	to, err := readReceiver(r)
	if err != nil {
		return err
	}
	p.To = to
	return r.ExpectEOF()
}
