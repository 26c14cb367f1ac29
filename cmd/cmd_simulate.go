package cmd

import (
	"encoding/hex"
	"encoding/json"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/ovl-network/ido-engine/common/errs"
	"github.com/ovl-network/ido-engine/core/types"
	"github.com/ovl-network/ido-engine/internal/config"
	"github.com/ovl-network/ido-engine/pkg/logger"
	"github.com/ovl-network/ido-engine/pkg/logger/slogx"
	"github.com/spf13/cobra"
)

type simulateCmdOptions struct {
	Scenario string
}

func NewSimulateCommand() *cobra.Command {
	opts := &simulateCmdOptions{}

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Replay a scenario of timestamped contract calls against the persisted chain state",
		RunE: func(cmd *cobra.Command, args []string) error {
			return simulateHandler(opts, cmd, args)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.Scenario, "scenario", "", "scenario file, E.g. `./scenario.json`")
	flags.String("state", "", "chain state snapshot file, E.g. `./data/state.json`")
	config.BindPFlag("state_path", flags.Lookup("state"))

	return cmd
}

// scenario is the replay input: opening account balances plus timestamped
// deploy/update steps. Params carry the canonical parameter bytes hex-encoded.
type scenario struct {
	Accounts []scenarioAccount `json:"accounts"`
	Steps    []scenarioStep    `json:"steps"`
}

type scenarioAccount struct {
	Address types.AccountAddress `json:"address"`
	Balance types.Amount         `json:"balance"`
}

type scenarioStep struct {
	At     types.Timestamp     `json:"at"`
	Deploy *scenarioDeployStep `json:"deploy,omitempty"`
	Update *scenarioUpdateStep `json:"update,omitempty"`
}

type scenarioDeployStep struct {
	Name     string               `json:"name"`
	Contract string               `json:"contract"`
	Owner    types.AccountAddress `json:"owner"`
	Params   string               `json:"params"`
	Amount   types.Amount         `json:"amount"`
}

type scenarioUpdateStep struct {
	Invoker    types.AccountAddress `json:"invoker"`
	Target     string               `json:"target"`
	Entrypoint string               `json:"entrypoint"`
	Params     string               `json:"params"`
	Amount     types.Amount         `json:"amount"`
}

func simulateHandler(opts *simulateCmdOptions, cmd *cobra.Command, _ []string) error {
	conf := config.Load()
	ctx := cmd.Context()

	if opts.Scenario == "" {
		return errors.Wrap(errs.InvalidArgument, "--scenario is required")
	}
	data, err := os.ReadFile(opts.Scenario)
	if err != nil {
		return errors.Wrapf(err, "can't read scenario %q", opts.Scenario)
	}
	var scn scenario
	if err := json.Unmarshal(data, &scn); err != nil {
		return errors.Wrapf(err, "can't unmarshal scenario %q", opts.Scenario)
	}

	loaded, err := loadChain(conf.StatePath)
	if err != nil {
		return errors.Wrapf(err, "can't load chain state from %q", conf.StatePath)
	}

	for _, account := range scn.Accounts {
		if err := loaded.CreateAccount(account.Address, account.Balance); err != nil {
			if errors.Is(err, errs.Duplicate) {
				continue
			}
			return err
		}
	}

	factories := contractFactories()
	for i, step := range scn.Steps {
		loaded.SetTime(step.At)
		stepCtx := logger.WithContext(ctx, slogx.Int("step", i), slogx.Stringer("at", step.At.Time()))

		switch {
		case step.Deploy != nil:
			factory, ok := factories[step.Deploy.Contract]
			if !ok {
				return errors.Wrapf(errs.Unsupported, "steps[%d]: unknown contract %q", i, step.Deploy.Contract)
			}
			params, err := hex.DecodeString(step.Deploy.Params)
			if err != nil {
				return errors.Wrapf(err, "steps[%d]: invalid params hex", i)
			}
			address, err := loaded.Deploy(stepCtx, step.Deploy.Name, step.Deploy.Owner, factory(), params, step.Deploy.Amount)
			if err != nil {
				return errors.Wrapf(err, "steps[%d]: deploy %q failed", i, step.Deploy.Name)
			}
			logger.InfoContext(stepCtx, "Deployed contract",
				slogx.String("name", step.Deploy.Name),
				slogx.Stringer("address", address))

		case step.Update != nil:
			_, target, err := loaded.FindContract(step.Update.Target)
			if err != nil {
				return errors.Wrapf(err, "steps[%d]: unknown target %q", i, step.Update.Target)
			}
			params, err := hex.DecodeString(step.Update.Params)
			if err != nil {
				return errors.Wrapf(err, "steps[%d]: invalid params hex", i)
			}
			result, err := loaded.Update(stepCtx, step.Update.Invoker, target, step.Update.Entrypoint, params, step.Update.Amount)
			if err != nil {
				return errors.Wrapf(err, "steps[%d]: update %s.%s failed", i, step.Update.Target, step.Update.Entrypoint)
			}
			logger.InfoContext(stepCtx, "Executed update",
				slogx.String("target", step.Update.Target),
				slogx.String("entrypoint", step.Update.Entrypoint),
				slogx.String("result", hex.EncodeToString(result)))

		default:
			return errors.Wrapf(errs.InvalidArgument, "steps[%d]: step has neither deploy nor update", i)
		}
	}

	if err := saveChain(conf.StatePath, loaded); err != nil {
		return err
	}
	logger.InfoContext(ctx, "Scenario replayed",
		slogx.Int("steps", len(scn.Steps)),
		slogx.String("state", conf.StatePath))
	return nil
}
