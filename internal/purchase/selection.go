package purchase

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// DueDateLayout is the wire format of the supplier due date.
const DueDateLayout = "20060102"

// CompanyCodeMode controls whether more than one company code may be selected.
type CompanyCodeMode int

const (
	// CompanyCodeSingle keeps one company code; selecting another replaces it and
	// the filter is a single equality.
	CompanyCodeSingle CompanyCodeMode = iota
	// CompanyCodeMulti accumulates company codes and ORs them in filters.
	CompanyCodeMulti
)

// ParseCompanyCodeMode reads "single" or "multi".
func ParseCompanyCodeMode(s string) (CompanyCodeMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "single":
		return CompanyCodeSingle, nil
	case "multi":
		return CompanyCodeMulti, nil
	default:
		return CompanyCodeSingle, fmt.Errorf("purchase: unknown company code mode %q", s)
	}
}

// DialogItem is one row of a multi-select master data dialog.
type DialogItem struct {
	ID       string `json:"id" validate:"required,max=40,printascii,excludesall=?#&/"`
	Name     string `json:"name"`
	Selected bool   `json:"selected"`
}

// Selection holds the filter criteria picked on the dashboard. Values are never
// mutated in place: every update returns a copy with Version incremented.
// SupplierIDs and SupplierNames are index aligned, as are the company code slices.
type Selection struct {
	Version          uint64          `json:"version"`
	CompanyCodeMode  CompanyCodeMode `json:"companyCodeMode"`
	SupplierIDs      []string        `json:"supplierIds"`
	SupplierNames    []string        `json:"supplierNames"`
	CompanyCodeIDs   []string        `json:"companyCodeIds"`
	CompanyCodeNames []string        `json:"companyCodeNames"`
	FiscalYears      []string        `json:"fiscalYears"`
	Quarters         []string        `json:"quarters"`
	QuarterYears     []string        `json:"quarterYears"`
	DueDate          string          `json:"dueDate,omitempty"`
}

// NewSelection returns an empty selection using the given company code policy.
func NewSelection(mode CompanyCodeMode) Selection {
	return Selection{CompanyCodeMode: mode}
}

func (s Selection) next() Selection {
	out := s
	out.Version = s.Version + 1
	out.SupplierIDs = slices.Clone(s.SupplierIDs)
	out.SupplierNames = slices.Clone(s.SupplierNames)
	out.CompanyCodeIDs = slices.Clone(s.CompanyCodeIDs)
	out.CompanyCodeNames = slices.Clone(s.CompanyCodeNames)
	out.FiscalYears = slices.Clone(s.FiscalYears)
	out.Quarters = slices.Clone(s.Quarters)
	out.QuarterYears = slices.Clone(s.QuarterYears)
	return out
}

// SelectSupplier appends a supplier unless it is already selected.
func (s Selection) SelectSupplier(id, name string) Selection {
	out := s.next()
	if id == "" || slices.Contains(out.SupplierIDs, id) {
		return out
	}
	out.SupplierIDs = append(out.SupplierIDs, id)
	out.SupplierNames = append(out.SupplierNames, name)
	return out
}

// DeselectSupplier removes a supplier and the name at the same index.
func (s Selection) DeselectSupplier(id string) Selection {
	out := s.next()
	if idx := slices.Index(out.SupplierIDs, id); idx >= 0 {
		out.SupplierIDs = slices.Delete(out.SupplierIDs, idx, idx+1)
		out.SupplierNames = slices.Delete(out.SupplierNames, idx, idx+1)
	}
	return out
}

// ApplySupplierDialog merges the state of every listed dialog row: selected rows
// are added when absent, unselected rows are removed when present.
func (s Selection) ApplySupplierDialog(items []DialogItem) Selection {
	out := s
	for _, item := range items {
		if item.Selected {
			out = out.SelectSupplier(item.ID, item.Name)
		} else {
			out = out.DeselectSupplier(item.ID)
		}
	}
	if len(items) == 0 {
		out = out.next()
	}
	return out
}

// ClearSuppliers drops every selected supplier.
func (s Selection) ClearSuppliers() Selection {
	out := s.next()
	out.SupplierIDs = nil
	out.SupplierNames = nil
	return out
}

// SelectCompanyCode adds a company code. In single mode it replaces the current one.
func (s Selection) SelectCompanyCode(id, name string) Selection {
	out := s.next()
	if id == "" {
		return out
	}
	if out.CompanyCodeMode == CompanyCodeSingle {
		out.CompanyCodeIDs = []string{id}
		out.CompanyCodeNames = []string{name}
		return out
	}
	if slices.Contains(out.CompanyCodeIDs, id) {
		return out
	}
	out.CompanyCodeIDs = append(out.CompanyCodeIDs, id)
	out.CompanyCodeNames = append(out.CompanyCodeNames, name)
	return out
}

// DeselectCompanyCode removes a company code and its name.
func (s Selection) DeselectCompanyCode(id string) Selection {
	out := s.next()
	if idx := slices.Index(out.CompanyCodeIDs, id); idx >= 0 {
		out.CompanyCodeIDs = slices.Delete(out.CompanyCodeIDs, idx, idx+1)
		out.CompanyCodeNames = slices.Delete(out.CompanyCodeNames, idx, idx+1)
	}
	return out
}

// ApplyCompanyCodeDialog merges dialog rows like ApplySupplierDialog.
func (s Selection) ApplyCompanyCodeDialog(items []DialogItem) Selection {
	out := s
	for _, item := range items {
		if item.Selected {
			out = out.SelectCompanyCode(item.ID, item.Name)
		} else {
			out = out.DeselectCompanyCode(item.ID)
		}
	}
	if len(items) == 0 {
		out = out.next()
	}
	return out
}

// ClearCompanyCodes drops every selected company code.
func (s Selection) ClearCompanyCodes() Selection {
	out := s.next()
	out.CompanyCodeIDs = nil
	out.CompanyCodeNames = nil
	return out
}

// WithFiscalYears replaces the selected fiscal years.
func (s Selection) WithFiscalYears(years ...string) Selection {
	out := s.next()
	out.FiscalYears = compact(years)
	return out
}

// WithQuarters replaces the selected quarters.
func (s Selection) WithQuarters(quarters ...string) Selection {
	out := s.next()
	out.Quarters = compact(quarters)
	return out
}

// WithQuarterYears replaces the selected quarter years.
func (s Selection) WithQuarterYears(years ...string) Selection {
	out := s.next()
	out.QuarterYears = compact(years)
	return out
}

// WithDueDate sets the due date from a yyyyMMdd value. An empty value clears it;
// an unparseable value clears it and returns an error.
func (s Selection) WithDueDate(value string) (Selection, error) {
	out := s.next()
	value = strings.TrimSpace(value)
	out.DueDate = ""
	if value == "" {
		return out, nil
	}
	if _, err := time.Parse(DueDateLayout, value); err != nil {
		return out, fmt.Errorf("purchase: invalid due date %q: %w", value, err)
	}
	out.DueDate = value
	return out, nil
}

// ClearDueDate removes the due date.
func (s Selection) ClearDueDate() Selection {
	out := s.next()
	out.DueDate = ""
	return out
}

// Clear resets every criterion while keeping the company code policy.
func (s Selection) Clear() Selection {
	out := NewSelection(s.CompanyCodeMode)
	out.Version = s.Version + 1
	return out
}

// CompanyCode returns the first selected company code, the only one in single mode.
func (s Selection) CompanyCode() string {
	if len(s.CompanyCodeIDs) == 0 {
		return ""
	}
	return strings.TrimSpace(s.CompanyCodeIDs[0])
}

// HasCompanyCode reports whether a non-blank company code is selected.
func (s Selection) HasCompanyCode() bool {
	return s.CompanyCode() != ""
}

// DueDateValue parses the due date; ok is false when unset or invalid.
func (s Selection) DueDateValue() (time.Time, bool) {
	if s.DueDate == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(DueDateLayout, s.DueDate)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// SupplierNamesDisplay joins the selected supplier names for the input field.
func (s Selection) SupplierNamesDisplay() string {
	return strings.Join(s.SupplierNames, ", ")
}

// CompanyCodeNamesDisplay joins the selected company code names.
func (s Selection) CompanyCodeNamesDisplay() string {
	return strings.Join(s.CompanyCodeNames, ", ")
}

func compact(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" || slices.Contains(out, v) {
			continue
		}
		out = append(out, v)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
