// Package chain is a deterministic single-threaded chain host for the
// contract family: it serializes calls, meters energy, and guarantees that a
// failed call commits nothing. It stands in for the real node in tests, the
// simulate command, and the view API server.
package chain

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/ovl-network/ido-engine/common/errs"
	"github.com/ovl-network/ido-engine/core/types"
	"github.com/ovl-network/ido-engine/pkg/logger"
	"github.com/ovl-network/ido-engine/pkg/logger/slogx"
)

const (
	// DefaultEnergyBudget is the per-call metered budget.
	DefaultEnergyBudget uint64 = 1_000_000

	costReceiveBase  uint64 = 500
	costInitBase     uint64 = 1_000
	costTransferBase uint64 = 300
	costInvokeBase   uint64 = 700
)

type instance struct {
	address  types.ContractAddress
	name     string
	owner    types.AccountAddress
	balance  types.Amount
	contract Contract
}

// Chain owns accounts, contract instances, and the clock. Calls execute to
// completion in submission order; there is no interleaving by construction.
type Chain struct {
	now          types.Timestamp
	accounts     map[types.AccountAddress]types.Amount
	contracts    map[types.ContractAddress]*instance
	nextIndex    uint64
	energyBudget uint64
}

type Option func(*Chain)

func WithTime(now types.Timestamp) Option {
	return func(c *Chain) { c.now = now }
}

func WithEnergyBudget(budget uint64) Option {
	return func(c *Chain) { c.energyBudget = budget }
}

func New(opts ...Option) *Chain {
	c := &Chain{
		accounts:     make(map[types.AccountAddress]types.Amount),
		contracts:    make(map[types.ContractAddress]*instance),
		nextIndex:    1,
		energyBudget: DefaultEnergyBudget,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Chain) Now() types.Timestamp {
	return c.now
}

func (c *Chain) SetTime(now types.Timestamp) {
	c.now = now
}

func (c *Chain) AdvanceTime(d types.Duration) {
	c.now = c.now.AddDuration(d)
}

// CreateAccount registers an account with an opening balance. Creating an
// existing account is an error to keep scenarios deterministic.
func (c *Chain) CreateAccount(addr types.AccountAddress, balance types.Amount) error {
	if _, ok := c.accounts[addr]; ok {
		return errors.Wrapf(errs.Duplicate, "account %s already exists", addr)
	}
	c.accounts[addr] = balance
	return nil
}

func (c *Chain) Balance(addr types.AccountAddress) (types.Amount, error) {
	balance, ok := c.accounts[addr]
	if !ok {
		return 0, errors.Wrapf(errs.MissingAccount, "account %s", addr)
	}
	return balance, nil
}

// FindContract returns the deployed instance registered under name, for
// read-only consumers like the view API.
func (c *Chain) FindContract(name string) (Contract, types.ContractAddress, error) {
	for _, inst := range c.contracts {
		if inst.name == name {
			return inst.contract, inst.address, nil
		}
	}
	return nil, types.ContractAddress{}, errors.Wrapf(errs.MissingContract, "no contract named %q", name)
}

func (c *Chain) ContractBalance(addr types.ContractAddress) (types.Amount, error) {
	inst, ok := c.contracts[addr]
	if !ok {
		return 0, errors.Wrapf(errs.MissingContract, "contract %s", addr)
	}
	return inst.balance, nil
}

// Deploy initializes a new instance. Init failure means no instance exists.
func (c *Chain) Deploy(ctx context.Context, name string, owner types.AccountAddress, contract Contract, params []byte, amount types.Amount) (types.ContractAddress, error) {
	if err := c.debitAccount(owner, amount); err != nil {
		return types.ContractAddress{}, err
	}

	address := types.ContractAddress{Index: c.nextIndex}
	frame := &callFrame{
		chain:      c,
		self:       address,
		owner:      owner,
		amountPaid: amount,
		energy:     c.energyBudget,
	}
	if err := frame.tick(costInitBase); err != nil {
		c.creditAccount(owner, amount)
		return types.ContractAddress{}, err
	}
	if err := contract.Init(ctx, frame, params); err != nil {
		c.creditAccount(owner, amount)
		return types.ContractAddress{}, err
	}

	logger.DebugContext(ctx, "deployed contract instance",
		slogx.String("name", name),
		slogx.Stringer("address", address))

	c.contracts[address] = &instance{
		address:  address,
		name:     name,
		owner:    owner,
		balance:  amount,
		contract: contract,
	}
	c.nextIndex++
	return address, nil
}

// Update executes one top-level entrypoint call from an account. The whole
// call either commits or leaves no trace.
func (c *Chain) Update(ctx context.Context, invoker types.AccountAddress, target types.ContractAddress, entrypoint string, params []byte, amount types.Amount) ([]byte, error) {
	snapshot, err := c.snapshot()
	if err != nil {
		return nil, errors.Wrap(err, "can't snapshot chain state")
	}

	result, err := c.update(ctx, invoker, types.NewAccountAddress(invoker), target, entrypoint, params, amount, c.energyBudget)
	if err != nil {
		if restoreErr := c.restore(snapshot); restoreErr != nil {
			return nil, errors.Wrap(restoreErr, "can't roll back after failed call")
		}
		logger.DebugContext(ctx, "contract call rolled back",
			slogx.Stringer("target", target),
			slogx.String("entrypoint", entrypoint),
			slogx.Error(err))
		return nil, err
	}
	return result, nil
}

func (c *Chain) update(ctx context.Context, invoker types.AccountAddress, sender types.Address, target types.ContractAddress, entrypoint string, params []byte, amount types.Amount, energy uint64) ([]byte, error) {
	inst, ok := c.contracts[target]
	if !ok {
		return nil, errors.Wrapf(errs.MissingContract, "contract %s", target)
	}

	// Move the attached payment before the callee runs; rollback undoes it.
	if sender.IsAccount() {
		if err := c.debitAccount(sender.Account, amount); err != nil {
			return nil, err
		}
	} else {
		from, ok := c.contracts[sender.Contract]
		if !ok {
			return nil, errors.Wrapf(errs.MissingContract, "sender contract %s", sender.Contract)
		}
		if from.balance < amount {
			return nil, errors.Wrapf(errs.AmountTooLarge, "contract %s holds %d, needs %d", sender.Contract, from.balance, amount)
		}
		from.balance -= amount
	}
	inst.balance += amount

	frame := &callFrame{
		chain:      c,
		self:       target,
		owner:      inst.owner,
		sender:     sender,
		invoker:    invoker,
		entrypoint: entrypoint,
		amountPaid: amount,
		energy:     energy,
	}
	if err := frame.tick(costReceiveBase); err != nil {
		return nil, err
	}
	result, err := inst.contract.Receive(ctx, frame, entrypoint, params)
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (c *Chain) debitAccount(addr types.AccountAddress, amount types.Amount) error {
	balance, ok := c.accounts[addr]
	if !ok {
		return errors.Wrapf(errs.MissingAccount, "account %s", addr)
	}
	if balance < amount {
		return errors.Wrapf(errs.AmountTooLarge, "account %s holds %d, needs %d", addr, balance, amount)
	}
	c.accounts[addr] = balance - amount
	return nil
}

func (c *Chain) creditAccount(addr types.AccountAddress, amount types.Amount) {
	c.accounts[addr] += amount
}

// callFrame implements InitContext/ReceiveContext for one call depth.
type callFrame struct {
	chain      *Chain
	self       types.ContractAddress
	owner      types.AccountAddress
	sender     types.Address
	invoker    types.AccountAddress
	entrypoint string
	amountPaid types.Amount
	energy     uint64
}

func (f *callFrame) Self() types.ContractAddress   { return f.self }
func (f *callFrame) Owner() types.AccountAddress   { return f.owner }
func (f *callFrame) Now() types.Timestamp          { return f.chain.now }
func (f *callFrame) AmountPaid() types.Amount      { return f.amountPaid }
func (f *callFrame) Sender() types.Address         { return f.sender }
func (f *callFrame) Invoker() types.AccountAddress { return f.invoker }
func (f *callFrame) Entrypoint() string            { return f.entrypoint }

func (f *callFrame) SelfBalance() types.Amount {
	inst, ok := f.chain.contracts[f.self]
	if !ok {
		return 0
	}
	return inst.balance
}

func (f *callFrame) Tick(cost uint64) error {
	return f.tick(cost)
}

func (f *callFrame) tick(cost uint64) error {
	if cost > f.energy {
		f.energy = 0
		return errors.WithStack(errs.OutOfEnergy)
	}
	f.energy -= cost
	return nil
}

func (f *callFrame) Transfer(to types.AccountAddress, amount types.Amount) error {
	if err := f.tick(costTransferBase); err != nil {
		return err
	}
	inst, ok := f.chain.contracts[f.self]
	if !ok {
		return errors.Wrapf(errs.MissingContract, "contract %s", f.self)
	}
	if _, ok := f.chain.accounts[to]; !ok {
		return errors.Wrapf(errs.MissingAccount, "account %s", to)
	}
	if inst.balance < amount {
		return errors.Wrapf(errs.AmountTooLarge, "contract %s holds %d, needs %d", f.self, inst.balance, amount)
	}
	inst.balance -= amount
	f.chain.creditAccount(to, amount)
	return nil
}

// InvokeContract runs a nested synchronous call. If the callee fails, its
// tentative changes are rolled back here so the caller may treat the failure
// as its own error or carry on untouched.
func (f *callFrame) InvokeContract(ctx context.Context, target types.ContractAddress, entrypoint string, params []byte, amount types.Amount) ([]byte, error) {
	if err := f.tick(costInvokeBase); err != nil {
		return nil, err
	}

	snapshot, err := f.chain.snapshot()
	if err != nil {
		return nil, errors.Wrap(err, "can't snapshot before invoke")
	}

	result, err := f.chain.update(ctx, f.invoker, types.NewContractAddress(f.self), target, entrypoint, params, amount, f.energy)
	if err != nil {
		if restoreErr := f.chain.restore(snapshot); restoreErr != nil {
			return nil, errors.Wrap(restoreErr, "can't roll back failed invoke")
		}
		return nil, translateInvokeFailure(err)
	}
	return result, nil
}

// translateInvokeFailure maps an arbitrary callee error into the invoke
// failure taxonomy, preserving already-classified kinds.
func translateInvokeFailure(err error) error {
	switch {
	case errors.Is(err, errs.MissingAccount),
		errors.Is(err, errs.MissingContract),
		errors.Is(err, errs.MissingEntrypoint),
		errors.Is(err, errs.AmountTooLarge),
		errors.Is(err, errs.OutOfEnergy),
		errors.Is(err, errs.Trap):
		return err
	default:
		return errors.Wrap(errs.MessageFailed, err.Error())
	}
}
