package purchase

import (
	"cmp"
	"context"
	"slices"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"
)

const supplierNeedsCompanyCodeMessage = "Please select a Company Code before choosing a Supplier."

// MasterData is the value help content of the dashboard.
type MasterData struct {
	CompanyCodes []MasterItem `json:"companyCodes"`
	Suppliers    []MasterItem `json:"suppliers"`
}

// ListCompanyCodes returns every company code ordered by code.
func (s *Service) ListCompanyCodes(ctx context.Context) ([]MasterItem, error) {
	items, err := s.master(ctx, ResourceCompanyCodes, nil)
	if err != nil {
		return nil, err
	}
	return SortMasterNumeric(items), nil
}

// ListSuppliers returns the suppliers of the selected company codes ordered by
// supplier number. A company code must be selected first.
func (s *Service) ListSuppliers(ctx context.Context, sel Selection) ([]MasterItem, error) {
	p, ok := companyCodeFilter(sel)
	if !ok {
		return nil, &ValidationError{
			Missing: []string{FieldCompanyCode.Label()},
			Message: supplierNeedsCompanyCodeMessage,
		}
	}
	items, err := s.master(ctx, ResourceSuppliers, Filters{p})
	if err != nil {
		return nil, err
	}
	return SortMasterNumeric(items), nil
}

// LoadMasterData fetches company codes and, when a company code is selected,
// its suppliers concurrently.
func (s *Service) LoadMasterData(ctx context.Context, sel Selection) (MasterData, error) {
	var data MasterData
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		items, err := s.ListCompanyCodes(gctx)
		data.CompanyCodes = items
		return err
	})
	if sel.HasCompanyCode() {
		g.Go(func() error {
			items, err := s.ListSuppliers(gctx, sel)
			data.Suppliers = items
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return MasterData{}, err
	}
	if data.Suppliers == nil {
		data.Suppliers = []MasterItem{}
	}
	return data, nil
}

func (s *Service) master(ctx context.Context, resource Resource, filters Filters) ([]MasterItem, error) {
	items, err := cached(ctx, s, resource, masterKey(resource, filters), func(ctx context.Context) ([]MasterItem, error) {
		return s.backend.Master(ctx, resource, filters)
	})
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []MasterItem{}
	}
	return items, nil
}

// SortMasterNumeric orders items by numeric code. Non-numeric codes follow the
// numeric ones in lexical order.
func SortMasterNumeric(items []MasterItem) []MasterItem {
	out := slices.Clone(items)
	slices.SortStableFunc(out, func(a, b MasterItem) int {
		na, errA := strconv.ParseInt(strings.TrimSpace(a.Code), 10, 64)
		nb, errB := strconv.ParseInt(strings.TrimSpace(b.Code), 10, 64)
		switch {
		case errA == nil && errB == nil:
			return cmp.Compare(na, nb)
		case errA == nil:
			return -1
		case errB == nil:
			return 1
		default:
			return strings.Compare(a.Code, b.Code)
		}
	})
	return out
}

// SearchMaster keeps items whose code or name contains query, ignoring case.
// A blank query returns every item.
func SearchMaster(items []MasterItem, query string) []MasterItem {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return slices.Clone(items)
	}
	out := make([]MasterItem, 0, len(items))
	for _, item := range items {
		if strings.Contains(strings.ToLower(item.Code), query) || strings.Contains(strings.ToLower(item.Name), query) {
			out = append(out, item)
		}
	}
	return out
}
