package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/vango-go/tablequery/internal/config"
	"github.com/vango-go/tablequery/internal/errors"
	"github.com/vango-go/tablequery/pkg/tablequery"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const banner = `
  ┌┬┐┌─┐┌┐ ┬  ┌─┐┌─┐ ┬ ┬┌─┐┬─┐┬ ┬
   │ ├─┤├┴┐│  ├┤ │─┼┐│ │├┤ ├┬┘└┬┘
   ┴ ┴ ┴└─┘┴─┘└─┘└─┘└└─┘└─┘┴└─ ┴
`

// app carries state shared by subcommands after flags are parsed.
type app struct {
	configPath string
	logLevel   string
	noColor    bool

	cfg    *config.Config
	logger *slog.Logger
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		errors.PrintError(err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "tablequery",
		Short: "Encode and decode data-table state in URL query strings",
		Long: `tablequery maps data-table state to and from URL query strings.

Search queries, faceted filters, pagination and the select-all flag
are written as bracketed query parameters so a table view survives
reloads and can be shared by link:

  queries[0][field]=NAME&queries[0][text]=ann
  filters[status][0]=active
  perPage=25&page=2
  isSelectedAll=true

Use the subcommands to work with URLs from the shell, or run
'tablequery serve' for the HTTP API and live channel.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "Path to tablequery.json or its directory (default: ./tablequery.json if present)")
	rootCmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Log level: debug, info, warn, error (default from config)")
	rootCmd.PersistentFlags().BoolVar(&a.noColor, "no-color", false, "Disable coloured output")

	rootCmd.AddCommand(
		decodeCmd(a),
		encodeCmd(a),
		selectAllCmd(a),
		reconcileCmd(a),
		serveCmd(a),
		initCmd(),
		versionCmd(),
	)

	return rootCmd
}

// setup loads configuration and builds the logger.
func (a *app) setup(cmd *cobra.Command) error {
	if a.noColor {
		errors.DisableColors()
	}

	cfg, err := a.loadConfig()
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	a.cfg = cfg
	a.logger = cfg.NewLogger(cmd.ErrOrStderr())
	slog.SetDefault(a.logger)
	return nil
}

func (a *app) loadConfig() (*config.Config, error) {
	if a.configPath == "" {
		return config.LoadOrDefault(".")
	}
	fi, err := os.Stat(a.configPath)
	if err == nil && fi.IsDir() {
		return config.Load(a.configPath)
	}
	return config.LoadFile(a.configPath)
}

// codec builds a codec from the loaded configuration.
func (a *app) codec(extra ...tablequery.Option) *tablequery.Codec {
	opts := append(a.cfg.CodecOptions(), tablequery.WithLogger(a.logger.With("component", "tablequery")))
	return tablequery.New(append(opts, extra...)...)
}

// readInput reads a file, or stdin when name is "-".
func readInput(cmd *cobra.Command, name string) ([]byte, error) {
	if name == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	return os.ReadFile(name)
}

// printJSON writes v as indented JSON.
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printBanner prints the ASCII art banner.
func printBanner(w io.Writer) {
	fmt.Fprint(w, banner)
}

// success prints a success message.
func success(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "  %s\n", fmt.Sprintf(format, args...))
}

// warn prints a warning message.
func warn(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "\033[33m⚠\033[0m %s\n", fmt.Sprintf(format, args...))
}
