package pgstore

import (
	"context"
	"fmt"
	"slices"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/purchase-insights/internal/platform/db"
	"github.com/odyssey-erp/purchase-insights/internal/purchase"
)

// SeedSupplier is a supplier master row of one company code.
type SeedSupplier struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	CompanyCode string `json:"companyCode"`
}

// SeedOutstanding is an outstanding row; Total marks the company total line.
type SeedOutstanding struct {
	purchase.Record
	Total bool `json:"total"`
}

// SeedData is a reporting snapshot loaded by Seed.
type SeedData struct {
	CompanyCodes       []purchase.MasterItem `json:"companyCodes"`
	Suppliers          []SeedSupplier        `json:"suppliers"`
	Turnover           []purchase.Record     `json:"turnover"`
	Outstanding        []SeedOutstanding     `json:"outstanding"`
	OutstandingPeriods []purchase.Record     `json:"outstandingPeriods"`
}

// SeedResult counts the rows written per table.
type SeedResult struct {
	CompanyCodes       int
	Suppliers          int
	Turnover           int64
	Outstanding        int64
	OutstandingPeriods int64
}

// Seed replaces the reporting rows of every company code named in data inside
// one transaction. Master rows are upserted.
func Seed(ctx context.Context, pool *pgxpool.Pool, data SeedData) (SeedResult, error) {
	var res SeedResult
	turnover, err := turnoverRows(data.Turnover)
	if err != nil {
		return res, err
	}
	outstanding, err := outstandingRows(data.Outstanding)
	if err != nil {
		return res, err
	}
	periods, err := periodRows(data.OutstandingPeriods)
	if err != nil {
		return res, err
	}
	codes := seedCompanyCodes(data)

	err = db.WithTx(ctx, pool, func(tx pgx.Tx) error {
		for _, item := range data.CompanyCodes {
			if _, err := tx.Exec(ctx, `INSERT INTO rpt_company_code (company_code, company_name) VALUES ($1, $2)
ON CONFLICT (company_code) DO UPDATE SET company_name = EXCLUDED.company_name`, item.Code, item.Name); err != nil {
				return fmt.Errorf("pgstore: upsert company code %s: %w", item.Code, err)
			}
			res.CompanyCodes++
		}
		for _, s := range data.Suppliers {
			if _, err := tx.Exec(ctx, `INSERT INTO rpt_supplier (supplier_id, company_code, supplier_name) VALUES ($1, $2, $3)
ON CONFLICT (supplier_id, company_code) DO UPDATE SET supplier_name = EXCLUDED.supplier_name`, s.ID, s.CompanyCode, s.Name); err != nil {
				return fmt.Errorf("pgstore: upsert supplier %s: %w", s.ID, err)
			}
			res.Suppliers++
		}
		for _, table := range []string{"rpt_supplier_turnover", "rpt_supplier_outstanding", "rpt_supplier_outstanding_period"} {
			if _, err := tx.Exec(ctx, "DELETE FROM "+table+" WHERE company_code = ANY($1)", codes); err != nil {
				return fmt.Errorf("pgstore: clear %s: %w", table, err)
			}
		}
		if res.Turnover, err = tx.CopyFrom(ctx, pgx.Identifier{"rpt_supplier_turnover"},
			[]string{"supplier_id", "supplier_name", "company_code", "fiscal_year", "fiscal_quarter", "quarter_year", "turnover"},
			pgx.CopyFromRows(turnover)); err != nil {
			return fmt.Errorf("pgstore: copy turnover: %w", err)
		}
		if res.Outstanding, err = tx.CopyFrom(ctx, pgx.Identifier{"rpt_supplier_outstanding"},
			[]string{"supplier_id", "supplier_name", "company_code", "due_date", "total_outstanding", "amount"},
			pgx.CopyFromRows(outstanding)); err != nil {
			return fmt.Errorf("pgstore: copy outstanding: %w", err)
		}
		if res.OutstandingPeriods, err = tx.CopyFrom(ctx, pgx.Identifier{"rpt_supplier_outstanding_period"},
			[]string{"supplier_id", "supplier_name", "company_code", "fiscal_year", "period", "amount"},
			pgx.CopyFromRows(periods)); err != nil {
			return fmt.Errorf("pgstore: copy outstanding periods: %w", err)
		}
		return nil
	})
	return res, err
}

func seedCompanyCodes(data SeedData) []string {
	var codes []string
	add := func(code string) {
		if code != "" && !slices.Contains(codes, code) {
			codes = append(codes, code)
		}
	}
	for _, item := range data.CompanyCodes {
		add(item.Code)
	}
	for _, r := range data.Turnover {
		add(r.CompanyCode)
	}
	for _, r := range data.Outstanding {
		add(r.CompanyCode)
	}
	for _, r := range data.OutstandingPeriods {
		add(r.CompanyCode)
	}
	return codes
}

func turnoverRows(records []purchase.Record) ([][]any, error) {
	rows := make([][]any, 0, len(records))
	for _, r := range records {
		amount, err := numeric(r.TurnOver)
		if err != nil {
			return nil, fmt.Errorf("pgstore: turnover of supplier %s: %w", r.SupplierCode, err)
		}
		rows = append(rows, []any{r.SupplierCode, r.Supplier, r.CompanyCode, r.FiscalYear, r.Quarter, r.QuarterYear, amount})
	}
	return rows, nil
}

func outstandingRows(records []SeedOutstanding) ([][]any, error) {
	rows := make([][]any, 0, len(records))
	for _, r := range records {
		amount, err := numeric(r.Amount)
		if err != nil {
			return nil, fmt.Errorf("pgstore: outstanding of supplier %s: %w", r.SupplierCode, err)
		}
		total := ""
		if r.Total {
			total = "X"
		}
		rows = append(rows, []any{r.SupplierCode, r.SupplierName, r.CompanyCode, r.DueDate, total, amount})
	}
	return rows, nil
}

func periodRows(records []purchase.Record) ([][]any, error) {
	rows := make([][]any, 0, len(records))
	for _, r := range records {
		amount, err := numeric(r.Amount)
		if err != nil {
			return nil, fmt.Errorf("pgstore: period outstanding of supplier %s: %w", r.SupplierCode, err)
		}
		rows = append(rows, []any{r.SupplierCode, r.SupplierName, r.CompanyCode, r.Year, r.Period, amount})
	}
	return rows, nil
}

// numeric converts a measure to a NUMERIC value; absent measures become NULL.
func numeric(d purchase.Decimal) (pgtype.Numeric, error) {
	var n pgtype.Numeric
	if !d.Present() {
		return n, nil
	}
	if err := n.Scan(string(d)); err != nil {
		return n, fmt.Errorf("invalid amount %q: %w", string(d), err)
	}
	return n, nil
}
