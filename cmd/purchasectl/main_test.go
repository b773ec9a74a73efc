package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/purchase-insights/internal/purchase"
	"github.com/odyssey-erp/purchase-insights/jobs"
)

func TestBuildRunQuarterlySingleSupplier(t *testing.T) {
	sel, view, err := BuildRun(ReportOptions{
		Mode:         "quarterly_turnover",
		Tab:          "scenario3",
		CompanyCodes: []string{"1000"},
		Suppliers:    []string{"100", "200"},
		Quarters:     []string{"Q1", "Q2"},
		QuarterYears: []string{"2024"},
	})
	require.NoError(t, err)
	require.Equal(t, purchase.ModeQuarterlyTurnover, view.Mode)
	require.Equal(t, purchase.SingleSupplierTurnover, view.Active())
	require.Equal(t, purchase.CompanyCodeSingle, sel.CompanyCodeMode)
	require.Equal(t, []string{"100", "200"}, sel.SupplierIDs)
	require.True(t, purchase.ValidateView(view, sel).Valid)
}

func TestBuildRunMultipleCompanyCodes(t *testing.T) {
	sel, view, err := BuildRun(ReportOptions{
		Mode:         "supplier_due_as_of_date",
		CompanyCodes: []string{"1000", "2000"},
		DueDate:      "20240331",
	})
	require.NoError(t, err)
	require.Equal(t, purchase.AllSupplierOutstanding, view.Active())
	require.Equal(t, purchase.CompanyCodeMulti, sel.CompanyCodeMode)
	require.Equal(t, []string{"1000", "2000"}, sel.CompanyCodeIDs)
	require.Equal(t, "20240331", sel.DueDate)
}

func TestBuildRunRejectsBadInput(t *testing.T) {
	_, _, err := BuildRun(ReportOptions{Mode: "weekly"})
	require.Error(t, err)

	_, _, err = BuildRun(ReportOptions{Mode: "supplier_due_quarter_fy", Tab: "scenario4"})
	require.ErrorContains(t, err, "unknown tab")

	_, _, err = BuildRun(ReportOptions{Mode: "supplier_due_as_of_date", DueDate: "31/03/2024"})
	require.Error(t, err)
}

func TestWriteOutcomeFormats(t *testing.T) {
	outcome := purchase.Outcome{
		Slot:    purchase.SlotAllTurnoverFiscalYear,
		Title:   "All Supplier Turnover",
		Records: []purchase.Record{{Supplier: "ACME", FiscalYear: "2024", TurnOver: "25", Scaled: true}},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteOutcome(&buf, "json", outcome))
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Equal(t, "All Supplier Turnover", decoded["title"])

	buf.Reset()
	require.NoError(t, WriteOutcome(&buf, "CSV", outcome))
	require.Contains(t, buf.String(), "ACME")

	buf.Reset()
	require.NoError(t, WriteOutcome(&buf, "xlsx", outcome))
	require.True(t, strings.HasPrefix(buf.String(), "PK"))

	require.Error(t, WriteOutcome(&buf, "pdf", outcome))
}

func TestBuildTask(t *testing.T) {
	task, opts, err := BuildTask(jobs.TaskReportWarmup, TriggerOptions{CompanyCodes: []string{"1000"}})
	require.NoError(t, err)
	require.Equal(t, jobs.TaskReportWarmup, task.Type())
	require.JSONEq(t, `{"companyCodes":["1000"]}`, string(task.Payload()))
	require.Len(t, opts, 1)

	task, _, err = BuildTask(jobs.TaskCacheBump, TriggerOptions{})
	require.NoError(t, err)
	require.JSONEq(t, `{"reason":"purchasectl"}`, string(task.Payload()))

	_, _, err = BuildTask("mail:send", TriggerOptions{})
	require.EqualError(t, err, "jobs cli: unsupported job mail:send")
}

func TestReadSeed(t *testing.T) {
	data, err := ReadSeed(strings.NewReader(`{
		"companyCodes": [{"code": "1000", "name": "Odyssey India"}],
		"suppliers": [{"id": "100", "name": "ACME", "companyCode": "1000"}],
		"outstanding": [{"lifnr": "100", "bukrs": "1000", "datum": "20240331", "amount": "1200.50", "total": true}]
	}`))
	require.NoError(t, err)
	require.Len(t, data.CompanyCodes, 1)
	require.Equal(t, "ACME", data.Suppliers[0].Name)
	require.True(t, data.Outstanding[0].Total)
	require.Equal(t, purchase.Decimal("1200.50"), data.Outstanding[0].Amount)

	_, err = ReadSeed(strings.NewReader(`{"vendors": []}`))
	require.Error(t, err)
}

func TestAppDeclaresCommands(t *testing.T) {
	app := newApp()
	var names []string
	for _, cmd := range app.Commands {
		names = append(names, cmd.Name)
	}
	require.Equal(t, []string{"migrate", "seed", "cache", "jobs", "report"}, names)
}
