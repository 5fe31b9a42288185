package main

import (
	"fmt"
	"io"
	"slices"

	"github.com/expr-lang/expr"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/TsubasaBE/go-xlsx/opc"
	"github.com/TsubasaBE/go-xlsx/workbook"
)

// app carries the flags shared by every command.
type app struct {
	verbose bool
	logger  *zap.Logger
}

func newRootCommand() *cobra.Command {
	a := &app{logger: zap.NewNop()}
	root := &cobra.Command{
		Use:   "xlsxpkg",
		Short: "Inspect and round-trip .xlsx packages",
		Long: `Inspect the parts and relationships of an .xlsx package, or load and
save it again to check that nothing is lost.

Commands:
  parts     List parts with their content types.
  rels      List relationships by source part.
  sheets    List worksheets with their visibility and used range.
  roundtrip Load a package and save it under a new name.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if !a.verbose {
				return nil
			}
			l, err := zap.NewDevelopment()
			if err != nil {
				return err
			}
			a.logger = l
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			_ = a.logger.Sync()
		},
	}
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Log package operations to stderr")

	root.AddCommand(a.partsCommand(), a.relsCommand(), a.sheetsCommand(), a.roundtripCommand())
	return root
}

func (a *app) open(name string) (*opc.Package, error) {
	return opc.Open(name, opc.WithLogger(a.logger))
}

// ── parts ────────────────────────────────────────────────────────────────────

// partRow is the environment of a --where expression.
type partRow struct {
	Name   string
	Type   string
	Size   int
	Parsed bool
}

func (a *app) partsCommand() *cobra.Command {
	var where string
	cmd := &cobra.Command{
		Use:   "parts FILE",
		Short: "List parts with their content types",
		Long: `List the parts of a package.  --where filters them with an expression over
Name, Type, Size and Parsed, for example:

  xlsxpkg parts Book1.xlsx --where 'Name startsWith "/xl/worksheets/"'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			keep := func(partRow) (bool, error) { return true, nil }
			if where != "" {
				program, err := expr.Compile(where, expr.Env(partRow{}), expr.AsBool())
				if err != nil {
					return fmt.Errorf("--where: %w", err)
				}
				keep = func(r partRow) (bool, error) {
					out, err := expr.Run(program, r)
					if err != nil {
						return false, fmt.Errorf("--where: %s: %w", r.Name, err)
					}
					return out.(bool), nil
				}
			}

			pkg, err := a.open(args[0])
			if err != nil {
				return err
			}
			defer pkg.Close()
			return listParts(cmd.OutOrStdout(), pkg, keep)
		},
	}
	cmd.Flags().StringVarP(&where, "where", "w", "", "Filter expression")
	return cmd
}

func listParts(w io.Writer, pkg *opc.Package, keep func(partRow) (bool, error)) error {
	for _, pt := range pkg.Parts() {
		r := partRow{Name: pt.Name, Type: pt.ContentType, Size: len(pt.Data), Parsed: !pt.IsRaw()}
		ok, err := keep(r)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		kind := "raw"
		if r.Parsed {
			kind = "xml"
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", r.Name, kind, r.Size, r.Type)
	}
	return nil
}

// ── rels ─────────────────────────────────────────────────────────────────────

func (a *app) relsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "rels FILE",
		Short: "List relationships by source part",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pkg, err := a.open(args[0])
			if err != nil {
				return err
			}
			defer pkg.Close()

			w := cmd.OutOrStdout()
			sources := []string{"/"}
			for _, pt := range pkg.Parts() {
				sources = append(sources, pt.Name)
			}
			for _, src := range sources {
				list := pkg.Relationships(src)
				slices.SortFunc(list, func(x, y opc.Relationship) int { return compareIDs(x.ID, y.ID) })
				for _, r := range list {
					mode := ""
					if r.IsExternal() {
						mode = "\texternal"
					}
					fmt.Fprintf(w, "%s\t%s\t%s\t%s%s\n", src, r.ID, shortType(r.Type), r.Target, mode)
				}
			}
			return nil
		},
	}
}

// compareIDs orders "rId2" before "rId10".
func compareIDs(x, y string) int {
	if len(x) != len(y) {
		return len(x) - len(y)
	}
	switch {
	case x < y:
		return -1
	case x > y:
		return 1
	}
	return 0
}

// shortType drops the namespace of a relationship type.
func shortType(t string) string {
	for i := len(t) - 1; i >= 0; i-- {
		if t[i] == '/' {
			return t[i+1:]
		}
	}
	return t
}

// ── sheets ───────────────────────────────────────────────────────────────────

var visibilityNames = map[int]string{
	workbook.SheetVisible:    "visible",
	workbook.SheetHidden:     "hidden",
	workbook.SheetVeryHidden: "veryHidden",
}

func (a *app) sheetsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "sheets FILE",
		Short: "List worksheets with their visibility and used range",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			wb, err := workbook.Open(args[0], opc.WithLogger(a.logger))
			if err != nil {
				return err
			}
			defer wb.Close()

			w := cmd.OutOrStdout()
			for i, name := range wb.Sheets() {
				ws, err := wb.Sheet(i + 1)
				if err != nil {
					return err
				}
				dim := "-"
				if ws.Dimension != nil {
					dim = ws.Dimension.Ref()
				}
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", i+1, name, visibilityNames[wb.SheetVisibility(name)], dim, ws.Part)
			}
			return nil
		},
	}
}

// ── roundtrip ────────────────────────────────────────────────────────────────

func (a *app) roundtripCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "roundtrip IN OUT",
		Short: "Load a package and save it under a new name",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			pkg, err := a.open(args[0])
			if err != nil {
				return err
			}
			defer pkg.Close()
			if err := pkg.SaveAs(args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d parts written to %s\n", args[0], len(pkg.Parts()), args[1])
			return nil
		},
	}
}
