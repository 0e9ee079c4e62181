// Command goplan compiles simple scan plans against a catalog and inspects encoded plans.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"mit.edu/dsg/goplan"
	"mit.edu/dsg/goplan/catalog"
	"mit.edu/dsg/goplan/planner"
	"mit.edu/dsg/goplan/session"
	"mit.edu/dsg/goplan/streamdef"
)

type globalOptions struct {
	catalogDir string
	configPath string
	logLevel   string
}

type compileOptions struct {
	columns []string
	orderBy []string
	limit   int
	out     string
}

func main() {
	logger := log.NewLogfmtLogger(log.NewSyncWriter(os.Stderr))
	logger = log.With(logger, "ts", log.DefaultTimestampUTC)

	if err := newRootCmd(logger).Execute(); err != nil {
		level.Error(logger).Log("msg", "command failed", "err", err)
		os.Exit(1)
	}
}

func newRootCmd(logger log.Logger) *cobra.Command {
	var opts globalOptions
	root := &cobra.Command{
		Use:           "goplan",
		Short:         "Compile relational plans into pull-engine stream descriptions",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	addGlobalFlags(root.PersistentFlags(), &opts)
	root.AddCommand(newTablesCmd(&opts), newCompileCmd(&opts, logger), newInspectCmd())
	return root
}

func addGlobalFlags(fs *pflag.FlagSet, opts *globalOptions) {
	fs.StringVar(&opts.catalogDir, "catalog-dir", ".", "Directory holding "+catalog.CatalogFileName)
	fs.StringVar(&opts.configPath, "config", "", "Optional config file; GOPLAN_* environment variables override it")
	fs.StringVar(&opts.logLevel, "log-level", "", "Log level (debug, info, warn, error); overrides the config")
}

func addCompileFlags(fs *pflag.FlagSet, opts *compileOptions) {
	fs.StringSliceVar(&opts.columns, "columns", nil, "Columns to scan, in output order (default: all)")
	fs.StringSliceVar(&opts.orderBy, "order-by", nil, "Sort keys as column[:asc|:desc]")
	fs.IntVar(&opts.limit, "limit", -1, "Maximum number of rows (-1 for no limit)")
	fs.StringVarP(&opts.out, "out", "o", "", "Write the encoded plan to this file")
}

func loadCatalog(opts *globalOptions) (*catalog.Catalog, error) {
	cat, err := catalog.NewCatalog(catalog.NewDiskCatalogManager(opts.catalogDir))
	if err != nil {
		return nil, errors.Wrapf(err, "loading catalog from %s", opts.catalogDir)
	}
	return cat, nil
}

func newTablesCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tables",
		Short: "List the tables of the catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cat, err := loadCatalog(opts)
			if err != nil {
				return err
			}
			for _, t := range cat.Tables {
				cols := make([]string, len(t.Columns))
				for i, c := range t.Columns {
					cols[i] = c.Name + " " + c.Type.String()
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s(%s)\n", t.Oid, t.Name, strings.Join(cols, ", "))
			}
			return nil
		},
	}
}

func newCompileCmd(global *globalOptions, logger log.Logger) *cobra.Command {
	var opts compileOptions
	cmd := &cobra.Command{
		Use:   "compile TABLE",
		Short: "Plan a scan of TABLE and print its stream description",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := session.LoadConfig(global.configPath)
			if err != nil {
				return err
			}
			if global.logLevel != "" {
				cfg.LogLevel = global.logLevel
			}
			cat, err := loadCatalog(global)
			if err != nil {
				return err
			}
			g, err := goplan.NewGoPlan(cat, cfg, logger, nil)
			if err != nil {
				return err
			}
			s, err := g.NewSession()
			if err != nil {
				return err
			}
			defer s.Close()

			logical, err := buildScanPlan(s, args[0], &opts)
			if err != nil {
				return err
			}
			st, err := s.Plan(logical)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprint(out, planner.Explain(logical))
			fmt.Fprint(out, st.String())
			if opts.out == "" {
				return nil
			}
			data, err := st.Encode()
			if err != nil {
				return err
			}
			if err := os.WriteFile(opts.out, data, 0o644); err != nil {
				return errors.Wrapf(err, "writing %s", opts.out)
			}
			level.Info(logger).Log("msg", "wrote plan", "file", opts.out, "bytes", len(data), "resources", st.NumResources())
			return nil
		},
	}
	addCompileFlags(cmd.Flags(), &opts)
	return cmd
}

// buildScanPlan builds Limit(Sort(Scan)) with the optional parts left out.
func buildScanPlan(s *session.Session, tableName string, opts *compileOptions) (planner.RelNode, error) {
	table, err := s.Catalog().GetTableMetadata(tableName)
	if err != nil {
		return nil, err
	}
	var columns []int
	for _, name := range opts.columns {
		col, ok := table.ColumnByName(name)
		if !ok {
			return nil, errors.Newf("column %q does not exist in table %q", name, tableName)
		}
		columns = append(columns, col.Ordinal)
	}
	scan, err := planner.NewTableScanNode(s.Cluster(), table, columns)
	if err != nil {
		return nil, err
	}

	var node planner.RelNode = scan
	if len(opts.orderBy) > 0 {
		clauses, err := orderBy(node, opts.orderBy)
		if err != nil {
			return nil, err
		}
		node = planner.NewSortNode(node, clauses)
	}
	if opts.limit >= 0 {
		node = planner.NewLimitNode(node, opts.limit)
	}
	return node, nil
}

func orderBy(node planner.RelNode, keys []string) ([]planner.OrderByClause, error) {
	rowType := node.RowType()
	clauses := make([]planner.OrderByClause, 0, len(keys))
	for _, key := range keys {
		name, dir, _ := strings.Cut(key, ":")
		direction := planner.SortOrderAscending
		switch strings.ToLower(dir) {
		case "", "asc":
		case "desc":
			direction = planner.SortOrderDescending
		default:
			return nil, errors.Newf("unknown sort direction %q", dir)
		}
		field := -1
		for i, f := range rowType.Fields() {
			if f.Name == name {
				field = i
				break
			}
		}
		if field < 0 {
			return nil, errors.Newf("cannot order by %q: not an output column", name)
		}
		clauses = append(clauses, planner.OrderByClause{
			Expr:      rowType.Ref(field),
			Direction: direction,
		})
	}
	return clauses, nil
}

func newInspectCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "inspect FILE",
		Short: "Decode an encoded plan and print it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			st, err := session.DecodeStatement(data)
			if err != nil {
				return errors.Wrapf(err, "decoding %s", args[0])
			}
			if !asJSON {
				fmt.Fprint(cmd.OutOrStdout(), st.String())
				return nil
			}
			out, err := streamdef.MarshalJSON(st.Def())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the plan as JSON")
	return cmd
}
