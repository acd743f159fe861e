// Command recover runs the payload recovery engine over a saved model answer and prints the recovered
// payload as JSON. It is meant for replaying answers captured in coordination logs.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"recipeagent"
	"recipeagent/recovery"
)

type options struct {
	file   string
	strict bool
	dump   bool
}

func newRootCmd() *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:   "recover",
		Short: "Recover a recipe payload from raw model output",
		Long: `Reads raw model output from --file or stdin, strips fences and prose, repairs common JSON
mistakes and prints the recovered {"recipe", "missingSuggestions"} payload.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRecover(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.file, "file", "f", "", "read model output from this file instead of stdin")
	cmd.Flags().BoolVar(&opts.strict, "strict", false, "also require the recipe to validate against the recipe schema")
	cmd.Flags().BoolVar(&opts.dump, "dump", false, "dump the recovered payload with go-spew instead of printing JSON")

	return cmd
}

func runRecover(cmd *cobra.Command, opts options) error {
	var (
		raw []byte
		err error
	)
	if opts.file != "" {
		raw, err = os.ReadFile(opts.file)
	} else {
		raw, err = io.ReadAll(cmd.InOrStdin())
	}
	if err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}

	payload, err := recovery.RecoverBytes(raw)
	if err != nil {
		var upe *recovery.UnparsablePayloadError
		if errors.As(err, &upe) {
			fmt.Fprintf(cmd.ErrOrStderr(), "cleaned text:\n%s\n", upe.CleanedPreview)
		}
		return err
	}

	if opts.strict {
		if _, err := recovery.DecodeRecipe(payload); err != nil {
			return err
		}
	}

	if opts.dump {
		recipeagent.Dump(payload)
		return nil
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(payload)
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
