package chain

import (
	"bytes"
	"encoding/json"
	"slices"

	"github.com/cockroachdb/errors"
	"github.com/ovl-network/ido-engine/common/errs"
	"github.com/ovl-network/ido-engine/core/types"
)

type contractSnapshot struct {
	balance types.Amount
	state   []byte
}

type chainSnapshot struct {
	accounts  map[types.AccountAddress]types.Amount
	contracts map[types.ContractAddress]contractSnapshot
}

func (c *Chain) snapshot() (chainSnapshot, error) {
	snap := chainSnapshot{
		accounts:  make(map[types.AccountAddress]types.Amount, len(c.accounts)),
		contracts: make(map[types.ContractAddress]contractSnapshot, len(c.contracts)),
	}
	for addr, balance := range c.accounts {
		snap.accounts[addr] = balance
	}
	for addr, inst := range c.contracts {
		state, err := inst.contract.SnapshotState()
		if err != nil {
			return chainSnapshot{}, errors.Wrapf(err, "can't snapshot contract %s", addr)
		}
		snap.contracts[addr] = contractSnapshot{balance: inst.balance, state: state}
	}
	return snap, nil
}

func (c *Chain) restore(snap chainSnapshot) error {
	c.accounts = make(map[types.AccountAddress]types.Amount, len(snap.accounts))
	for addr, balance := range snap.accounts {
		c.accounts[addr] = balance
	}
	for addr, inst := range c.contracts {
		saved, ok := snap.contracts[addr]
		if !ok {
			// Instance deployed after the snapshot; drop it.
			delete(c.contracts, addr)
			continue
		}
		inst.balance = saved.balance
		if err := inst.contract.RestoreState(saved.state); err != nil {
			return errors.Wrapf(err, "can't restore contract %s", addr)
		}
	}
	return nil
}

// StateSnapshot is the persistable form of the whole chain, used by the
// simulate command to carry state between timestamped calls.
type StateSnapshot struct {
	Now       types.Timestamp         `json:"now"`
	NextIndex uint64                  `json:"nextIndex"`
	Accounts  []AccountSnapshot       `json:"accounts"`
	Contracts []InstanceStateSnapshot `json:"contracts"`
}

type AccountSnapshot struct {
	Address types.AccountAddress `json:"address"`
	Balance types.Amount         `json:"balance"`
}

type InstanceStateSnapshot struct {
	Address types.ContractAddress `json:"address"`
	Name    string                `json:"name"`
	Owner   types.AccountAddress  `json:"owner"`
	Balance types.Amount          `json:"balance"`
	State   json.RawMessage       `json:"state"`
}

// ContractFactory builds an empty contract instance for a registered name so
// a persisted snapshot can be reloaded.
type ContractFactory func() Contract

func (c *Chain) StateSnapshot() (*StateSnapshot, error) {
	snap := &StateSnapshot{
		Now:       c.now,
		NextIndex: c.nextIndex,
	}
	for addr, balance := range c.accounts {
		snap.Accounts = append(snap.Accounts, AccountSnapshot{Address: addr, Balance: balance})
	}
	for _, inst := range c.contracts {
		state, err := inst.contract.SnapshotState()
		if err != nil {
			return nil, errors.Wrapf(err, "can't snapshot contract %s", inst.address)
		}
		snap.Contracts = append(snap.Contracts, InstanceStateSnapshot{
			Address: inst.address,
			Name:    inst.name,
			Owner:   inst.owner,
			Balance: inst.balance,
			State:   state,
		})
	}

	// Stable output so persisted snapshots diff cleanly.
	slices.SortFunc(snap.Accounts, func(a, b AccountSnapshot) int {
		return bytes.Compare(a.Address[:], b.Address[:])
	})
	slices.SortFunc(snap.Contracts, func(a, b InstanceStateSnapshot) int {
		if a.Address.Index != b.Address.Index {
			if a.Address.Index < b.Address.Index {
				return -1
			}
			return 1
		}
		return 0
	})
	return snap, nil
}

// LoadStateSnapshot rebuilds a chain from a persisted snapshot. Every
// contract name in the snapshot must have a registered factory.
func LoadStateSnapshot(snap *StateSnapshot, factories map[string]ContractFactory, opts ...Option) (*Chain, error) {
	c := New(opts...)
	c.now = snap.Now
	c.nextIndex = snap.NextIndex
	for _, account := range snap.Accounts {
		c.accounts[account.Address] = account.Balance
	}
	for _, saved := range snap.Contracts {
		factory, ok := factories[saved.Name]
		if !ok {
			return nil, errors.Wrapf(errs.Unsupported, "no contract factory registered for %q", saved.Name)
		}
		contract := factory()
		if err := contract.RestoreState(saved.State); err != nil {
			return nil, errors.Wrapf(err, "can't restore contract %s", saved.Address)
		}
		c.contracts[saved.Address] = &instance{
			address:  saved.Address,
			name:     saved.Name,
			owner:    saved.Owner,
			balance:  saved.Balance,
			contract: contract,
		}
	}
	return c, nil
}
