package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vango-dev/reactivity/internal/errors"
)

func explainCmd() *cobra.Command {
	var (
		asJSON  bool
		compact bool
		list    bool
	)

	cmd := &cobra.Command{
		Use:   "explain [CODE]",
		Short: "Explain a diagnostic code",
		Long: `Print the description of a diagnostic or configuration error code.

Examples:
  reactivity explain R002
  reactivity explain --list
  reactivity explain C122 --json
  reactivity explain R005 --compact`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if list {
				for _, code := range errors.Codes() {
					t, _ := errors.Lookup(code)
					fmt.Fprintf(out, "%s  %s\n", code, t.Message)
				}
				return nil
			}
			if len(args) == 0 {
				return fmt.Errorf("missing code (see --list)")
			}

			code := strings.ToUpper(args[0])
			if _, ok := errors.Lookup(code); !ok {
				return fmt.Errorf("unknown code %q", args[0])
			}
			e := errors.New(code)
			switch {
			case asJSON:
				fmt.Fprintln(out, e.FormatJSON())
			case compact:
				fmt.Fprintln(out, e.FormatCompact())
			default:
				fmt.Fprint(out, e.Format())
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print as JSON")
	cmd.Flags().BoolVar(&compact, "compact", false, "Print a single line")
	cmd.MarkFlagsMutuallyExclusive("json", "compact")
	cmd.Flags().BoolVarP(&list, "list", "l", false, "List all codes")

	return cmd
}
