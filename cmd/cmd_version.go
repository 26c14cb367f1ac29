package cmd

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/ovl-network/ido-engine/common/errs"
	"github.com/ovl-network/ido-engine/core/constants"
	"github.com/ovl-network/ido-engine/modules/operator"
	"github.com/ovl-network/ido-engine/modules/sale"
	"github.com/spf13/cobra"
)

var versions = map[string]string{
	"":         constants.Version,
	"sale":     sale.Version,
	"operator": operator.Version,
}

type versionCmdOptions struct {
	Modules string
}

func NewVersionCommand() *cobra.Command {
	opts := &versionCmdOptions{}

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show ido-engine version",
		RunE: func(cmd *cobra.Command, args []string) error {
			return versionHandler(opts, cmd, args)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.Modules, "module", "", `Show version of a specific module. E.g. "sale"`)

	return cmd
}

func versionHandler(opts *versionCmdOptions, _ *cobra.Command, _ []string) error {
	version, ok := versions[opts.Modules]
	if !ok {
		return errors.Wrap(errs.Unsupported, "Invalid module name")
	}
	fmt.Println(version)
	return nil
}
