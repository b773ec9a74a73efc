package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/odyssey-erp/purchase-insights/internal/app"
	"github.com/odyssey-erp/purchase-insights/internal/purchase"
	"github.com/odyssey-erp/purchase-insights/internal/purchase/export"
)

// ReportOptions describes one report run from the command line.
type ReportOptions struct {
	Mode         string
	Tab          string
	CompanyCodes []string
	Suppliers    []string
	FiscalYears  []string
	Quarters     []string
	QuarterYears []string
	DueDate      string
}

// BuildRun turns the options into the selection and view a dashboard user
// would have set up.
func BuildRun(opts ReportOptions) (purchase.Selection, purchase.View, error) {
	mode, err := purchase.ParseReportMode(opts.Mode)
	if err != nil {
		return purchase.Selection{}, purchase.View{}, err
	}
	view := purchase.DefaultView().WithMode(mode)
	if opts.Tab != "" {
		view = view.WithTab(purchase.GroupForMode(mode), opts.Tab)
		if view.Active() == purchase.SubUnknown {
			return purchase.Selection{}, purchase.View{}, fmt.Errorf("unknown tab %q for %s", opts.Tab, mode)
		}
	}

	codeMode := purchase.CompanyCodeSingle
	if len(opts.CompanyCodes) > 1 {
		codeMode = purchase.CompanyCodeMulti
	}
	sel := purchase.NewSelection(codeMode)
	for _, code := range opts.CompanyCodes {
		sel = sel.SelectCompanyCode(code, code)
	}
	for _, id := range opts.Suppliers {
		sel = sel.SelectSupplier(id, id)
	}
	sel = sel.WithFiscalYears(opts.FiscalYears...).
		WithQuarters(opts.Quarters...).
		WithQuarterYears(opts.QuarterYears...)
	sel, err = sel.WithDueDate(opts.DueDate)
	if err != nil {
		return purchase.Selection{}, purchase.View{}, err
	}
	return sel, view, nil
}

// WriteOutcome renders the outcome as json, csv or xlsx.
func WriteOutcome(w io.Writer, format string, outcome purchase.Outcome) error {
	switch strings.ToLower(format) {
	case "", "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(outcome)
	case "csv":
		return export.WriteCSV(w, outcome.Slot, outcome.Records)
	case "xlsx":
		return export.WriteXLSX(w, outcome.Slot, outcome.Title, outcome.Records)
	default:
		return fmt.Errorf("unsupported format %q", format)
	}
}

func reportCommand() *cli.Command {
	return &cli.Command{
		Name:  "report",
		Usage: "Run dashboard reports without the web interface",
		Subcommands: []*cli.Command{
			{
				Name:  "run",
				Usage: "Run one report against the configured query backend",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "mode", Value: "fiscal_year_turnover", Usage: "fiscal_year_turnover, quarterly_turnover, supplier_due_as_of_date or supplier_due_quarter_fy"},
					&cli.StringFlag{Name: "tab", Usage: "Tab key scenario1 to scenario4"},
					&cli.StringSliceFlag{Name: "company-code", Aliases: []string{"c"}},
					&cli.StringSliceFlag{Name: "supplier", Aliases: []string{"s"}},
					&cli.StringSliceFlag{Name: "fiscal-year"},
					&cli.StringSliceFlag{Name: "quarter"},
					&cli.StringSliceFlag{Name: "quarter-year"},
					&cli.StringFlag{Name: "due-date", Usage: "Due date as yyyyMMdd"},
					&cli.StringFlag{Name: "format", Value: "json", Usage: "json, csv or xlsx"},
					&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "Output file, stdout when empty"},
				},
				Action: runReport,
			},
		},
	}
}

func runReport(c *cli.Context) error {
	sel, view, err := BuildRun(ReportOptions{
		Mode:         c.String("mode"),
		Tab:          c.String("tab"),
		CompanyCodes: c.StringSlice("company-code"),
		Suppliers:    c.StringSlice("supplier"),
		FiscalYears:  c.StringSlice("fiscal-year"),
		Quarters:     c.StringSlice("quarter"),
		QuarterYears: c.StringSlice("quarter-year"),
		DueDate:      c.String("due-date"),
	})
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}

	cfg, err := app.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	backend, closeBackend, err := app.NewQueryBackend(c.Context, cfg)
	if err != nil {
		return err
	}
	defer closeBackend()

	service := purchase.NewService(backend, nil, app.NewLogger(cfg), purchase.ServiceOptions{QueryTimeout: cfg.QueryTimeout})
	outcome, err := service.Run(c.Context, purchase.NewBoard(), sel, view)
	var verr *purchase.ValidationError
	if errors.As(err, &verr) {
		return cli.Exit(verr.Error(), 2)
	}
	if err != nil {
		return err
	}
	if outcome.Notice != "" {
		_, _ = fmt.Fprintln(c.App.ErrWriter, outcome.Notice)
	}

	w := c.App.Writer
	if path := c.String("out"); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer func() { _ = f.Close() }()
		w = f
	}
	return WriteOutcome(w, c.String("format"), outcome)
}
