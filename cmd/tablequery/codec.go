package main

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/vango-go/tablequery/internal/errors"
	"github.com/vango-go/tablequery/pkg/tablequery"
)

func decodeCmd(a *app) *cobra.Command {
	var numeric string

	cmd := &cobra.Command{
		Use:   "decode <url>",
		Short: "Decode table state from a URL",
		Long: `Decode the table state carried by a URL's query string and print it
as JSON. A bare query string starting with '?' is accepted too.

Values that are not numbers decode as null under the "keep" policy, or
as the configured default under "fallback".

Examples:
  tablequery decode 'https://app.example.com/users?perPage=25&page=2'
  tablequery decode --numeric=fallback '?page=abc'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var opts []tablequery.Option
			if numeric != "" {
				policy, err := tablequery.ParseNumericPolicy(numeric)
				if err != nil {
					return errors.New("T103").
						WithInput(numeric).
						WithSuggestion("Use --numeric=keep or --numeric=fallback").
						Wrap(err)
				}
				opts = append(opts, tablequery.WithNumericPolicy(policy))
			}
			return printJSON(cmd.OutOrStdout(), a.codec(opts...).Decode(args[0]))
		},
	}

	cmd.Flags().StringVar(&numeric, "numeric", "", "Non-numeric pagination policy: keep or fallback (default from config)")

	return cmd
}

func encodeCmd(a *app) *cobra.Command {
	var (
		current string
		state   string
	)

	cmd := &cobra.Command{
		Use:   "encode",
		Short: "Write table state into a URL",
		Long: `Replace the table parameters of a URL with the state read from a JSON
file (or stdin with --state=-) and print the new URL. Parameters that
are not table state are kept.

The state document has the form:

  {
    "queries": [{"field": "NAME", "text": "ann"}],
    "filters": [{"id": "status", "options": ["active"]}],
    "limit": 10,
    "page": 1
  }

Examples:
  tablequery encode --url 'https://app.example.com/users?tab=all' --state state.json
  echo '{"page":2}' | tablequery encode --url /users --state -`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd, state)
			if err != nil {
				return errors.New("T101").WithInput(state).Wrap(err)
			}

			var p tablequery.Params
			if err := json.Unmarshal(data, &p); err != nil {
				return errors.New("T101").
					WithInput(state).
					WithSuggestion("Check that the state file is a JSON object").
					Wrap(err)
			}

			next, err := a.codec().Encode(current, p)
			if err != nil {
				return urlError(current, err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), next)
			return nil
		},
	}

	cmd.Flags().StringVarP(&current, "url", "u", "", "Current URL (required)")
	cmd.Flags().StringVarP(&state, "state", "s", "-", "State JSON file, or - for stdin")
	cmd.MarkFlagRequired("url")

	return cmd
}

func selectAllCmd(a *app) *cobra.Command {
	var (
		current string
		value   string
	)

	cmd := &cobra.Command{
		Use:   "select-all",
		Short: "Set or clear the select-all flag in a URL",
		Long: `Set isSelectedAll=true in a URL, or remove it with --value=false, and
print the new URL. No other parameter is touched.

Examples:
  tablequery select-all --url '/users?page=2'
  tablequery select-all --url '/users?isSelectedAll=true' --value=false`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			selected, err := strconv.ParseBool(value)
			if err != nil {
				return errors.New("T103").
					WithInput(value).
					WithSuggestion("Use --value=true or --value=false").
					Wrap(err)
			}

			next, err := a.codec().SetSelectAll(current, selected)
			if err != nil {
				return urlError(current, err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), next)
			return nil
		},
	}

	cmd.Flags().StringVarP(&current, "url", "u", "", "Current URL (required)")
	cmd.Flags().StringVar(&value, "value", "true", "Flag value: true or false")
	cmd.MarkFlagRequired("url")

	return cmd
}

func reconcileCmd(a *app) *cobra.Command {
	var (
		current string
		filters string
	)

	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Mark filter options selected by a URL",
		Long: `Read canonical filter definitions from a JSON file (or stdin with
--filters=-) and print them with each option's "selected" flag set from
the URL. Filters absent from the URL come back fully deselected.

The definitions have the form:

  [
    {"id": "status", "label": "Status",
     "options": [{"label": "Active", "value": "active"}]}
  ]

Examples:
  tablequery reconcile --url '/users?filters[status][0]=active' --filters filters.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd, filters)
			if err != nil {
				return errors.New("T102").WithInput(filters).Wrap(err)
			}

			var defs []tablequery.FilterDef
			if err := json.Unmarshal(data, &defs); err != nil {
				return errors.New("T102").WithInput(filters).Wrap(err)
			}

			selected := a.codec().Decode(current).Filters
			return printJSON(cmd.OutOrStdout(), tablequery.Reconcile(selected, defs))
		},
	}

	cmd.Flags().StringVarP(&current, "url", "u", "", "URL carrying the selection (required)")
	cmd.Flags().StringVarP(&filters, "filters", "f", "-", "Filter definitions JSON file, or - for stdin")
	cmd.MarkFlagRequired("url")

	return cmd
}

// urlError maps codec errors to coded errors.
func urlError(raw string, err error) error {
	if stderrors.Is(err, tablequery.ErrInvalidURL) {
		return errors.New("T100").
			WithInput(raw).
			WithSuggestion("Pass an absolute URL such as https://app.example.com/users").
			Wrap(err)
	}
	return err
}
