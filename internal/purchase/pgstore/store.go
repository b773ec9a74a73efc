// Package pgstore reads report data from Postgres reporting tables.
package pgstore

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/odyssey-erp/purchase-insights/internal/purchase"
)

// Querier is the subset of pgxpool.Pool used by the store.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Store implements purchase.QueryService over Postgres.
type Store struct {
	db Querier
}

// New constructs a Store.
func New(db Querier) *Store {
	return &Store{db: db}
}

// BuildQuery renders the SELECT statement for a report query.
func BuildQuery(q purchase.Query) (string, []any, error) {
	src, err := sourceFor(q.Resource)
	if err != nil {
		return "", nil, err
	}
	where, args, err := Where(src.fields, q.Filters, 1)
	if err != nil {
		return "", nil, err
	}
	exprs := make([]string, len(src.columns))
	for i, col := range src.columns {
		exprs[i] = col.expr
	}
	var b strings.Builder
	fmt.Fprintf(&b, "SELECT %s FROM %s%s", strings.Join(exprs, ", "), src.table, where)
	if src.orderBy != "" {
		fmt.Fprintf(&b, " ORDER BY %s", src.orderBy)
	}
	if q.PageLimit > 0 {
		args = append(args, q.PageLimit)
		fmt.Fprintf(&b, " LIMIT $%d", len(args))
	}
	return b.String(), args, nil
}

// Query reads the rows of a report resource.
func (s *Store) Query(ctx context.Context, q purchase.Query) ([]purchase.Record, error) {
	src, err := sourceFor(q.Resource)
	if err != nil {
		return nil, err
	}
	sql, args, err := BuildQuery(q)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("pgstore: query %s: %w", q.Resource, err)
	}
	defer rows.Close()

	records := make([]purchase.Record, 0)
	values := make([]string, len(src.columns))
	dest := make([]any, len(src.columns))
	for i := range values {
		dest[i] = &values[i]
	}
	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("pgstore: scan %s: %w", q.Resource, err)
		}
		var r purchase.Record
		for i, col := range src.columns {
			col.set(&r, values[i])
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pgstore: rows %s: %w", q.Resource, err)
	}
	return records, nil
}

// GetByKey reads the outstanding rows matching supplier, due date and company code.
func (s *Store) GetByKey(ctx context.Context, resource purchase.Resource, key purchase.Key) ([]purchase.Record, error) {
	return s.Query(ctx, purchase.Query{
		Resource: resource,
		Filters: purchase.Filters{
			purchase.Eq(purchase.FilterSupplier, key.SupplierID),
			purchase.Eq(purchase.FilterDueDate, key.Date),
			purchase.Eq(purchase.FilterCompanyCode, key.CompanyCode),
		},
	})
}

// BuildMasterQuery renders the SELECT statement for master data.
func BuildMasterQuery(resource purchase.Resource, filters purchase.Filters) (string, []any, error) {
	var table, code, name string
	switch resource {
	case purchase.ResourceCompanyCodes:
		table, code, name = "rpt_company_code", "company_code", "company_name"
	case purchase.ResourceSuppliers:
		table, code, name = "rpt_supplier", "supplier_id", "supplier_name"
	default:
		return "", nil, fmt.Errorf("pgstore: %q is not master data", resource)
	}
	where, args, err := Where(map[purchase.FilterField]string{purchase.FilterCompanyCode: "company_code"}, filters, 1)
	if err != nil {
		return "", nil, err
	}
	return fmt.Sprintf("SELECT DISTINCT %s, COALESCE(%s, '') FROM %s%s", code, name, table, where), args, nil
}

// Master reads company codes or suppliers.
func (s *Store) Master(ctx context.Context, resource purchase.Resource, filters purchase.Filters) ([]purchase.MasterItem, error) {
	sql, args, err := BuildMasterQuery(resource, filters)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("pgstore: query %s: %w", resource, err)
	}
	items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (purchase.MasterItem, error) {
		var item purchase.MasterItem
		err := row.Scan(&item.Code, &item.Name)
		return item, err
	})
	if err != nil {
		return nil, fmt.Errorf("pgstore: collect %s: %w", resource, err)
	}
	return items, nil
}
