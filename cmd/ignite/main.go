// Command ignite is the one-shot CLI front end for the storage engine: one
// subcommand invocation per process, exiting 0 on success and non-zero with
// a message on stderr on failure.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/ignitedb/ignite/pkg/ignite"
	"github.com/ignitedb/ignite/pkg/options"
	"github.com/spf13/cobra"
)

var dataDir string

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "ignite",
		Short:         "Interact with an ignite key/value store",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&dataDir, "data-dir", options.DefaultDataDir, "storage directory")

	root.AddCommand(newSetCmd())
	root.AddCommand(newGetCmd())
	root.AddCommand(newRemoveCmd())
	root.AddCommand(newResetCmd())

	return root
}

func openInstance(ctx context.Context) (*ignite.Instance, error) {
	return ignite.NewInstance(ctx, "ignite-cli", nil, options.WithDataDir(dataDir))
}

func newSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Store a key/value pair",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			inst, err := openInstance(ctx)
			if err != nil {
				return err
			}
			defer inst.Close(ctx)

			return inst.Set(ctx, args[0], args[1])
		},
	}
}

func newGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Retrieve the value for a key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			inst, err := openInstance(ctx)
			if err != nil {
				return err
			}
			defer inst.Close(ctx)

			value, ok, err := inst.Get(ctx, args[0])
			if err != nil {
				return err
			}
			if !ok {
				fmt.Println("Key not found")
				return nil
			}
			fmt.Println(value)
			return nil
		},
	}
}

func newRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <key>",
		Short: "Remove a key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			inst, err := openInstance(ctx)
			if err != nil {
				return err
			}
			defer inst.Close(ctx)

			existed, err := inst.Delete(ctx, args[0])
			if err != nil {
				return err
			}
			if !existed {
				return fmt.Errorf("Key not found")
			}
			return nil
		},
	}
}

func newResetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Discard all stored data",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			inst, err := openInstance(ctx)
			if err != nil {
				return err
			}
			defer inst.Close(ctx)

			return inst.Reset(ctx)
		},
	}
}
