// Command csvmatrix reads delimited text files into typed tables and prints,
// exports or loads them.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/csvmatrix"
	"github.com/JonMunkholm/csvmatrix/internal/bind"
	"github.com/JonMunkholm/csvmatrix/internal/config"
	"github.com/JonMunkholm/csvmatrix/internal/core"
	"github.com/JonMunkholm/csvmatrix/internal/logging"
	"github.com/JonMunkholm/csvmatrix/internal/store"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var logLevel, logFormat string
	var cmdRoot = &cobra.Command{
		Use:           "csvmatrix",
		Short:         "typed tables from delimited text",
		Long:          `csvmatrix splits delimited text into rows, classifies every field as numeric or text and reconciles one type per column.`,
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if showVersion, _ := cmd.Flags().GetBool("show-version"); showVersion {
				fmt.Fprintf(cmd.ErrOrStderr(), "csvmatrix: version %q\n", csvmatrix.Version().Core())
			}
			logging.SetupWriter(cmd.ErrOrStderr(), logLevel, logFormat)
			return nil
		},
	}
	cmdRoot.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level: debug, info, warn, error")
	cmdRoot.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log format: text or json")
	cmdRoot.PersistentFlags().Bool("show-version", false, "show version")

	cmdRoot.AddCommand(cmdRead())
	cmdRoot.AddCommand(cmdExport())
	cmdRoot.AddCommand(cmdLoad())
	cmdRoot.AddCommand(cmdVersion())
	return cmdRoot
}

// readFlags are shared by every command that ingests a file.
type readFlags struct {
	header    string
	pad       bool
	delimiter string
	maxBytes  int64
}

func (f *readFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.header, "header", core.HeaderPresent, `"1" when line 1 is a header, anything else when it is data`)
	cmd.Flags().BoolVar(&f.pad, "pad", false, "pad short rows and truncate long ones instead of failing")
	cmd.Flags().StringVar(&f.delimiter, "delimiter", ",", `field delimiter, a single byte or "tab"`)
	cmd.Flags().Int64Var(&f.maxBytes, "max-bytes", 0, "fail inputs larger than this many decoded bytes (0 = no limit)")
}

func (f *readFlags) read(ctx context.Context, path string) (*core.Table, error) {
	d, ok := config.ParseDelimiter(f.delimiter)
	if !ok {
		return nil, fmt.Errorf("invalid --delimiter %q", f.delimiter)
	}
	opts := core.Options{
		Delimiter: d,
		MaxBytes:  f.maxBytes,
		Logger:    logging.WithFields(ctx, "file", path),
	}
	if f.pad {
		opts.RowPolicy = core.RowPolicyPad
	}

	t, err := core.ReadFile(ctx, path, f.header == core.HeaderPresent, opts)
	if err != nil {
		return nil, fmt.Errorf("%w\n%s", err, core.FormatUserError(err))
	}
	return t, nil
}

func cmdRead() *cobra.Command {
	var rf readFlags
	var format string
	var outputFile string
	var cmd = &cobra.Command{
		Use:   "read <file>",
		Short: "print a file as a typed table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := rf.read(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if outputFile != "" {
				fp, err := os.Create(outputFile)
				if err != nil {
					return err
				}
				defer fp.Close()
				out = fp
			}
			return render(out, t, format)
		},
	}
	rf.register(cmd)
	cmd.Flags().StringVar(&format, "format", "text", "output format: text, json or yaml")
	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "write to file instead of stdout")
	return cmd
}

func cmdExport() *cobra.Command {
	var rf readFlags
	var outputFile string
	var cmd = &cobra.Command{
		Use:   "export <file>",
		Short: "convert a file to Parquet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := rf.read(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if outputFile == "" {
				outputFile = baseName(args[0]) + ".parquet"
			}

			fp, err := os.Create(outputFile)
			if err != nil {
				return err
			}
			if err := bind.WriteParquet(fp, t); err != nil {
				fp.Close()
				os.Remove(outputFile)
				return err
			}
			if err := fp.Close(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: wrote %d rows\n", outputFile, t.NumRows())
			return nil
		},
	}
	rf.register(cmd)
	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Parquet file to write (default <file>.parquet)")
	return cmd
}

func cmdLoad() *cobra.Command {
	var rf readFlags
	var sqlitePath, databaseURL, table string
	var cmd = &cobra.Command{
		Use:   "load <file>",
		Short: "load a file into SQLite or PostgreSQL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if (sqlitePath == "") == (databaseURL == "") {
				return fmt.Errorf("exactly one of --sqlite or --database-url is required")
			}
			if table == "" {
				table = baseName(args[0])
			}

			t, err := rf.read(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			st, err := store.Open(cmd.Context(), databaseURL, sqlitePath, store.PoolConfig{MaxConns: 1})
			if err != nil {
				return err
			}
			defer st.Close()

			n, err := st.SaveTable(cmd.Context(), table, t)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: loaded %d rows\n", store.SanitizeIdent(table), n)
			return nil
		},
	}
	rf.register(cmd)
	cmd.Flags().StringVar(&sqlitePath, "sqlite", "", "SQLite database file")
	cmd.Flags().StringVar(&databaseURL, "database-url", "", "PostgreSQL connection string")
	cmd.Flags().StringVar(&table, "table", "", "target table (default: file name)")
	return cmd
}

func cmdVersion() *cobra.Command {
	showBuildInfo := false
	var cmd = &cobra.Command{
		Use:   "version",
		Short: "display the application's version number",
		RunE: func(cmd *cobra.Command, args []string) error {
			if showBuildInfo {
				fmt.Fprintln(cmd.OutOrStdout(), csvmatrix.Version().String())
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), csvmatrix.Version().Core())
			return nil
		},
	}
	cmd.Flags().BoolVar(&showBuildInfo, "build-info", showBuildInfo, "show build information")
	return cmd
}

// baseName strips directories and every extension: "dir/a.csv.gz" -> "a".
func baseName(path string) string {
	name := filepath.Base(path)
	if i := strings.IndexByte(name[1:], '.'); i >= 0 {
		name = name[:i+1]
	}
	return name
}
