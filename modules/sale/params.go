package sale

import (
	"github.com/cockroachdb/errors"
	"github.com/ovl-network/ido-engine/common/errs"
	"github.com/ovl-network/ido-engine/core/types"
	"github.com/ovl-network/ido-engine/pkg/codec"
)

// Entrypoint parameter structs and their canonical wire forms. Lists carry a
// u32 count prefix; account addresses are 32 fixed bytes; optional fields use
// a bool presence prefix.

type InitParams struct {
	ProjAdmin     types.AccountAddress   `json:"projAdmin"`
	BbbAddr       types.AccountAddress   `json:"bbbAddr"`
	OpenAt        []SalePhase            `json:"openAt"`
	CloseAt       types.Timestamp        `json:"closeAt"`
	VestingPeriod []VestingTranche       `json:"vestingPeriod"`
	PricePerToken types.Amount           `json:"pricePerToken"`
	TokenPerUnit  types.TokenAmount      `json:"tokenPerUnit"`
	MaxUnits      types.UnitAmount       `json:"maxUnits"`
	MinUnits      types.UnitAmount       `json:"minUnits"`
	OvlShare      types.Percentage       `json:"ovlShare"`
	BbbShare      types.Percentage       `json:"bbbShare"`
	DepositToken  *types.ContractAddress `json:"depositToken,omitempty"`
}

func (p InitParams) MarshalParam() ([]byte, error) {
	w := codec.NewWriter()
	w.WriteFixedBytes(p.ProjAdmin[:])
	w.WriteFixedBytes(p.BbbAddr[:])
	w.WriteU32(uint32(len(p.OpenAt)))
	for _, phase := range p.OpenAt {
		w.WriteU64(uint64(phase.OpenAt))
		w.WriteU8(uint8(phase.Tier))
	}
	w.WriteU64(uint64(p.CloseAt))
	w.WriteU32(uint32(len(p.VestingPeriod)))
	for _, tranche := range p.VestingPeriod {
		w.WriteU64(uint64(tranche.Duration))
		w.WriteU8(uint8(tranche.Percent))
	}
	w.WriteU64(uint64(p.PricePerToken))
	w.WriteU64(uint64(p.TokenPerUnit))
	w.WriteU32(uint32(p.MaxUnits))
	w.WriteU32(uint32(p.MinUnits))
	w.WriteU8(uint8(p.OvlShare))
	w.WriteU8(uint8(p.BbbShare))
	w.WriteBool(p.DepositToken != nil)
	if p.DepositToken != nil {
		w.WriteU64(p.DepositToken.Index)
		w.WriteU64(p.DepositToken.Subindex)
	}
	return w.Bytes(), nil
}

func (p *InitParams) UnmarshalParam(data []byte) error {
	r := codec.NewReader(data)
	if err := readAccountAddress(r, &p.ProjAdmin); err != nil {
		return err
	}
	if err := readAccountAddress(r, &p.BbbAddr); err != nil {
		return err
	}
	phaseCount, err := r.ReadU32()
	if err != nil {
		return err
	}
	p.OpenAt = make([]SalePhase, 0, phaseCount)
	for i := uint32(0); i < phaseCount; i++ {
		openAt, err := r.ReadU64()
		if err != nil {
			return err
		}
		tier, err := r.ReadU8()
		if err != nil {
			return err
		}
		p.OpenAt = append(p.OpenAt, SalePhase{OpenAt: types.Timestamp(openAt), Tier: Tier(tier)})
	}
	closeAt, err := r.ReadU64()
	if err != nil {
		return err
	}
	p.CloseAt = types.Timestamp(closeAt)
	trancheCount, err := r.ReadU32()
	if err != nil {
		return err
	}
	p.VestingPeriod = make([]VestingTranche, 0, trancheCount)
	for i := uint32(0); i < trancheCount; i++ {
		duration, err := r.ReadU64()
		if err != nil {
			return err
		}
		percent, err := r.ReadU8()
		if err != nil {
			return err
		}
		p.VestingPeriod = append(p.VestingPeriod, VestingTranche{Duration: types.Duration(duration), Percent: types.Percentage(percent)})
	}
	price, err := r.ReadU64()
	if err != nil {
		return err
	}
	p.PricePerToken = types.Amount(price)
	tokenPerUnit, err := r.ReadU64()
	if err != nil {
		return err
	}
	p.TokenPerUnit = types.TokenAmount(tokenPerUnit)
	maxUnits, err := r.ReadU32()
	if err != nil {
		return err
	}
	p.MaxUnits = types.UnitAmount(maxUnits)
	minUnits, err := r.ReadU32()
	if err != nil {
		return err
	}
	p.MinUnits = types.UnitAmount(minUnits)
	ovlShare, err := r.ReadU8()
	if err != nil {
		return err
	}
	p.OvlShare = types.Percentage(ovlShare)
	bbbShare, err := r.ReadU8()
	if err != nil {
		return err
	}
	p.BbbShare = types.Percentage(bbbShare)
	hasDepositToken, err := r.ReadBool()
	if err != nil {
		return err
	}
	if hasDepositToken {
		contract, err := readContractAddress(r)
		if err != nil {
			return err
		}
		p.DepositToken = &contract
	}
	return r.ExpectEOF()
}

type WhitelistEntry struct {
	Account types.AccountAddress `json:"account"`
	Tier    Tier                 `json:"tier"`
}

type WhitelistingParams struct {
	Entries []WhitelistEntry `json:"entries"`
	Ready   bool             `json:"ready"`
}

func (p WhitelistingParams) MarshalParam() ([]byte, error) {
	w := codec.NewWriter()
	w.WriteU32(uint32(len(p.Entries)))
	for _, entry := range p.Entries {
		w.WriteFixedBytes(entry.Account[:])
		w.WriteU8(uint8(entry.Tier))
	}
	w.WriteBool(p.Ready)
	return w.Bytes(), nil
}

func (p *WhitelistingParams) UnmarshalParam(data []byte) error {
	r := codec.NewReader(data)
	count, err := r.ReadU32()
	if err != nil {
		return err
	}
	p.Entries = make([]WhitelistEntry, 0, count)
	for i := uint32(0); i < count; i++ {
		var entry WhitelistEntry
		if err := readAccountAddress(r, &entry.Account); err != nil {
			return err
		}
		tier, err := r.ReadU8()
		if err != nil {
			return err
		}
		entry.Tier = Tier(tier)
		p.Entries = append(p.Entries, entry)
	}
	ready, err := r.ReadBool()
	if err != nil {
		return err
	}
	p.Ready = ready
	return r.ExpectEOF()
}

type SetStatusParams struct {
	Status SaleStatus `json:"status"`
}

func (p SetStatusParams) MarshalParam() ([]byte, error) {
	w := codec.NewWriter()
	w.WriteU8(uint8(p.Status))
	return w.Bytes(), nil
}

func (p *SetStatusParams) UnmarshalParam(data []byte) error {
	r := codec.NewReader(data)
	status, err := r.ReadU8()
	if err != nil {
		return err
	}
	p.Status = SaleStatus(status)
	return r.ExpectEOF()
}

type SetPjtokenParams struct {
	ProjectToken types.ContractAddress `json:"projectToken"`
}

func (p SetPjtokenParams) MarshalParam() ([]byte, error) {
	w := codec.NewWriter()
	w.WriteU64(p.ProjectToken.Index)
	w.WriteU64(p.ProjectToken.Subindex)
	return w.Bytes(), nil
}

func (p *SetPjtokenParams) UnmarshalParam(data []byte) error {
	r := codec.NewReader(data)
	contract, err := readContractAddress(r)
	if err != nil {
		return err
	}
	p.ProjectToken = contract
	return r.ExpectEOF()
}

type SetTGEParams struct {
	VestingStart types.Timestamp `json:"vestingStart"`
}

func (p SetTGEParams) MarshalParam() ([]byte, error) {
	w := codec.NewWriter()
	w.WriteU64(uint64(p.VestingStart))
	return w.Bytes(), nil
}

func (p *SetTGEParams) UnmarshalParam(data []byte) error {
	r := codec.NewReader(data)
	start, err := r.ReadU64()
	if err != nil {
		return err
	}
	p.VestingStart = types.Timestamp(start)
	return r.ExpectEOF()
}

// OnReceivingCIS2Params is the inbound transfer-hook payload on the
// token-denominated variant: the depositing account and the token amount
// that the deposit token contract moved to this contract.
type OnReceivingCIS2Params struct {
	From   types.Address `json:"from"`
	Amount types.Amount  `json:"amount"`
}

func (p OnReceivingCIS2Params) MarshalParam() ([]byte, error) {
	w := codec.NewWriter()
	writeAddress(w, p.From)
	w.WriteU64(uint64(p.Amount))
	return w.Bytes(), nil
}

func (p *OnReceivingCIS2Params) UnmarshalParam(data []byte) error {
	r := codec.NewReader(data)
	from, err := readAddress(r)
	if err != nil {
		return err
	}
	p.From = from
	amount, err := r.ReadU64()
	if err != nil {
		return err
	}
	p.Amount = types.Amount(amount)
	return r.ExpectEOF()
}

// UserClaimParams optionally redirects the payout; the default receiver is
// the claiming account itself.
type UserClaimParams struct {
	Receiver *types.Receiver `json:"receiver,omitempty"`
}

func (p UserClaimParams) MarshalParam() ([]byte, error) {
	w := codec.NewWriter()
	w.WriteBool(p.Receiver != nil)
	if p.Receiver != nil {
		writeReceiver(w, *p.Receiver)
	}
	return w.Bytes(), nil
}

func (p *UserClaimParams) UnmarshalParam(data []byte) error {
	r := codec.NewReader(data)
	hasReceiver, err := r.ReadBool()
	if err != nil {
		return err
	}
	if hasReceiver {
		receiver, err := readReceiver(r)
		if err != nil {
			return err
		}
		p.Receiver = &receiver
	}
	return r.ExpectEOF()
}

type ViewWinUnitsParams struct {
	Account types.AccountAddress `json:"account"`
}

func (p ViewWinUnitsParams) MarshalParam() ([]byte, error) {
	w := codec.NewWriter()
	w.WriteFixedBytes(p.Account[:])
	return w.Bytes(), nil
}

func (p *ViewWinUnitsParams) UnmarshalParam(data []byte) error {
	r := codec.NewReader(data)
	if err := readAccountAddress(r, &p.Account); err != nil {
		return err
	}
	return r.ExpectEOF()
}

func readAccountAddress(r *codec.Reader, out *types.AccountAddress) error {
	raw, err := r.ReadFixedBytes(types.AccountAddressSize)
	if err != nil {
		return err
	}
	copy(out[:], raw)
	return nil
}

func readContractAddress(r *codec.Reader) (types.ContractAddress, error) {
	index, err := r.ReadU64()
	if err != nil {
		return types.ContractAddress{}, err
	}
	subindex, err := r.ReadU64()
	if err != nil {
		return types.ContractAddress{}, err
	}
	return types.ContractAddress{Index: index, Subindex: subindex}, nil
}

func writeAddress(w *codec.Writer, address types.Address) {
	w.WriteU8(uint8(address.Kind))
	if address.IsContract() {
		w.WriteU64(address.Contract.Index)
		w.WriteU64(address.Contract.Subindex)
	} else {
		w.WriteFixedBytes(address.Account[:])
	}
}

func readAddress(r *codec.Reader) (types.Address, error) {
	kind, err := r.ReadU8()
	if err != nil {
		return types.Address{}, err
	}
	switch types.AddressKind(kind) {
	case types.AddressKindAccount:
		var account types.AccountAddress
		if err := readAccountAddress(r, &account); err != nil {
			return types.Address{}, err
		}
		return types.NewAccountAddress(account), nil
	case types.AddressKindContract:
		contract, err := readContractAddress(r)
		if err != nil {
			return types.Address{}, err
		}
		return types.NewContractAddress(contract), nil
	default:
		return types.Address{}, errors.Wrapf(errs.ParseError, "invalid address kind %d", kind)
	}
}

func writeReceiver(w *codec.Writer, receiver types.Receiver) {
	writeAddress(w, receiver.Address)
	if receiver.Address.IsContract() {
		w.WriteString(receiver.Entrypoint)
	}
}

func readReceiver(r *codec.Reader) (types.Receiver, error) {
	address, err := readAddress(r)
	if err != nil {
		return types.Receiver{}, err
	}
	receiver := types.Receiver{Address: address}
	if address.IsContract() {
		entrypoint, err := r.ReadString()
		if err != nil {
			return types.Receiver{}, err
		}
		receiver.Entrypoint = entrypoint
	}
	return receiver, nil
}
