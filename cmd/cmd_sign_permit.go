package cmd

import (
	"crypto/ed25519"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/ovl-network/ido-engine/common/errs"
	"github.com/ovl-network/ido-engine/core/types"
	"github.com/ovl-network/ido-engine/modules/operator"
	"github.com/spf13/cobra"
)

type signPermitCmdOptions struct {
	Key              string
	Signer           string
	ContractIndex    uint64
	ContractSubindex uint64
	Entrypoint       string
	Action           string
	TargetIndex      uint64
	TargetSubindex   uint64
	TargetEntrypoint string
	Expiry           uint64
	Payload          string
}

func NewSignPermitCommand() *cobra.Command {
	opts := &signPermitCmdOptions{}

	cmd := &cobra.Command{
		Use:   "sign-permit",
		Short: "Sign an operator permit message with an Ed25519 key",
		RunE: func(cmd *cobra.Command, args []string) error {
			return signPermitHandler(opts, cmd, args)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.Key, "key", "", "private key file (hex Ed25519 seed), E.g. `/data/keys/priv.key`")
	flags.StringVar(&opts.Signer, "signer", "", "operator account address of the signer")
	flags.Uint64Var(&opts.ContractIndex, "contract-index", 0, "operator contract address index")
	flags.Uint64Var(&opts.ContractSubindex, "contract-subindex", 0, "operator contract address subindex")
	flags.StringVar(&opts.Entrypoint, "entrypoint", "", "operator contract entrypoint the permit authorizes")
	flags.StringVar(&opts.Action, "action", "", "permit action: addKey, removeKey or invoke")
	flags.Uint64Var(&opts.TargetIndex, "target-index", 0, "proxy target contract index (invoke action only)")
	flags.Uint64Var(&opts.TargetSubindex, "target-subindex", 0, "proxy target contract subindex (invoke action only)")
	flags.StringVar(&opts.TargetEntrypoint, "target-entrypoint", "", "proxy target entrypoint (invoke action only)")
	flags.Uint64Var(&opts.Expiry, "expiry", 0, "expiry ceiling as unix milliseconds, permit is valid while now < expiry")
	flags.StringVar(&opts.Payload, "payload", "", "hex-encoded action payload")

	return cmd
}

type signPermitOutput struct {
	Signer    types.AccountAddress   `json:"signer"`
	Signature string                 `json:"signature"`
	Digest    string                 `json:"digest"`
	Message   operator.PermitMessage `json:"message"`
}

func signPermitHandler(opts *signPermitCmdOptions, _ *cobra.Command, _ []string) error {
	signer, err := types.NewAccountAddressFromString(opts.Signer)
	if err != nil {
		return errors.Wrap(err, "invalid --signer")
	}

	var action operator.PermitAction
	switch opts.Action {
	case "addKey":
		action = operator.NewAddKeyAction()
	case "removeKey":
		action = operator.NewRemoveKeyAction()
	case "invoke":
		if opts.TargetEntrypoint == "" {
			return errors.Wrap(errs.InvalidArgument, "--target-entrypoint is required for invoke action")
		}
		action = operator.NewInvokeAction(types.ContractAddress{
			Index:    opts.TargetIndex,
			Subindex: opts.TargetSubindex,
		}, opts.TargetEntrypoint)
	default:
		return errors.Wrapf(errs.InvalidArgument, "unknown action %q, expected addKey, removeKey or invoke", opts.Action)
	}

	payload, err := hex.DecodeString(opts.Payload)
	if err != nil {
		return errors.Wrap(err, "invalid --payload hex")
	}

	message := operator.PermitMessage{
		ContractAddress: types.ContractAddress{Index: opts.ContractIndex, Subindex: opts.ContractSubindex},
		Entrypoint:      opts.Entrypoint,
		Action:          action,
		Timestamp:       types.Timestamp(opts.Expiry),
		Payload:         payload,
	}
	digest, err := message.Digest()
	if err != nil {
		return errors.Wrap(err, "can't compute permit digest")
	}

	keyHex, err := os.ReadFile(opts.Key)
	if err != nil {
		return errors.Wrapf(err, "can't read key file %q", opts.Key)
	}
	seed, err := hex.DecodeString(strings.TrimSpace(string(keyHex)))
	if err != nil {
		return errors.Wrapf(err, "invalid key file %q, expected hex Ed25519 seed", opts.Key)
	}
	if len(seed) != ed25519.SeedSize {
		return errors.Wrapf(errs.InvalidArgument, "invalid seed length %d, expected %d", len(seed), ed25519.SeedSize)
	}
	privKey := ed25519.NewKeyFromSeed(seed)
	signature := ed25519.Sign(privKey, digest[:])

	out, err := json.MarshalIndent(signPermitOutput{
		Signer:    signer,
		Signature: hex.EncodeToString(signature),
		Digest:    hex.EncodeToString(digest[:]),
		Message:   message,
	}, "", "  ")
	if err != nil {
		return errors.Wrap(err, "can't marshal output")
	}
	fmt.Println(string(out))
	return nil
}
