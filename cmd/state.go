package cmd

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"github.com/ovl-network/ido-engine/core/chain"
	"github.com/ovl-network/ido-engine/modules/operator"
	operatormemory "github.com/ovl-network/ido-engine/modules/operator/repository/memory"
	"github.com/ovl-network/ido-engine/modules/sale"
	salememory "github.com/ovl-network/ido-engine/modules/sale/repository/memory"
)

// Contract instance names used in state snapshots and scenario files.
const (
	ContractNameSale      = "sale"
	ContractNameSaleToken = "sale-token"
	ContractNameOperator  = "operator"
)

func contractFactories() map[string]chain.ContractFactory {
	return map[string]chain.ContractFactory{
		ContractNameSale: func() chain.Contract {
			return sale.New(sale.VariantCCD, salememory.NewRepository())
		},
		ContractNameSaleToken: func() chain.Contract {
			return sale.New(sale.VariantCIS2, salememory.NewRepository())
		},
		ContractNameOperator: func() chain.Contract {
			return operator.New(operatormemory.NewRepository())
		},
	}
}

// loadChain rebuilds the chain from the snapshot file; a missing file yields
// a fresh chain.
func loadChain(path string) (*chain.Chain, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return chain.New(), nil
		}
		return nil, errors.Wrapf(err, "can't read state snapshot %q", path)
	}
	var snap chain.StateSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, errors.Wrapf(err, "can't unmarshal state snapshot %q", path)
	}
	return chain.LoadStateSnapshot(&snap, contractFactories())
}

func saveChain(path string, c *chain.Chain) error {
	snap, err := c.StateSnapshot()
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return errors.Wrap(err, "can't marshal state snapshot")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrapf(err, "can't create snapshot directory for %q", path)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrapf(err, "can't write state snapshot %q", path)
	}
	return nil
}
