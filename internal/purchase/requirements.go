package purchase

import (
	"strings"
)

// Field identifies a dashboard input that may be required.
type Field int

const (
	FieldSupplier Field = iota
	FieldCompanyCode
	FieldFiscalYear
	FieldQuarter
	FieldQuarterYear
	FieldDueDate
)

var fieldLabels = map[Field]string{
	FieldSupplier:    "Supplier",
	FieldCompanyCode: "Company Code",
	FieldFiscalYear:  "Fiscal Year",
	FieldQuarter:     "Quarter",
	FieldQuarterYear: "Quarter Year",
	FieldDueDate:     "Supplier Due Date",
}

// Label returns the human readable field name.
func (f Field) Label() string {
	return fieldLabels[f]
}

// RequiredFieldSet lists the fields checked after company code, in check order.
type RequiredFieldSet []Field

// Contains reports whether f is part of the set.
func (r RequiredFieldSet) Contains(f Field) bool {
	for _, field := range r {
		if field == f {
			return true
		}
	}
	return false
}

const (
	companyCodeRequiredMessage = "Please enter Company Code before proceeding."
	missingFieldsPrefix        = "Please fill the following fields:\n\n"
)

// Resolve returns the fields required for the mode and sub-scenario.
// Company code is always required and is validated separately.
func Resolve(mode ReportMode, sub SubScenario) RequiredFieldSet {
	switch mode {
	case ModeFiscalYearTurnover:
		if sub == SingleSupplierTurnover {
			return RequiredFieldSet{FieldSupplier, FieldFiscalYear}
		}
		return RequiredFieldSet{FieldFiscalYear}
	case ModeQuarterlyTurnover:
		if sub == SingleSupplierTurnover {
			return RequiredFieldSet{FieldSupplier, FieldQuarter, FieldQuarterYear}
		}
		return RequiredFieldSet{FieldQuarter, FieldQuarterYear}
	case ModeSupplierDueAsOfDate:
		if sub == SingleSupplierOutstanding {
			return RequiredFieldSet{FieldSupplier, FieldDueDate}
		}
		return RequiredFieldSet{FieldDueDate}
	default:
		if sub == SingleSupplierOutstanding {
			return RequiredFieldSet{FieldSupplier, FieldQuarterYear}
		}
		return RequiredFieldSet{FieldQuarterYear}
	}
}

// ValidationResult reports the outcome of a validation pass.
type ValidationResult struct {
	Valid bool `json:"valid"`
	// BlockingField is set when company code stopped validation early.
	BlockingField *Field   `json:"-"`
	MissingFields []string `json:"missingFields"`
	Message       string   `json:"message,omitempty"`
}

// Err converts a failed result into a *ValidationError; it returns nil when valid.
func (r ValidationResult) Err() error {
	if r.Valid {
		return nil
	}
	return &ValidationError{Missing: r.MissingFields, Message: r.Message}
}

// Validate checks company code first; when it is missing no other field is
// reported. Otherwise every empty required field is collected in order.
func Validate(required RequiredFieldSet, sel Selection) ValidationResult {
	if !sel.HasCompanyCode() {
		blocking := FieldCompanyCode
		return ValidationResult{
			BlockingField: &blocking,
			MissingFields: []string{FieldCompanyCode.Label()},
			Message:       companyCodeRequiredMessage,
		}
	}
	var missing []string
	for _, field := range required {
		if field == FieldCompanyCode {
			continue
		}
		if fieldEmpty(field, sel) {
			missing = append(missing, field.Label())
		}
	}
	if len(missing) > 0 {
		return ValidationResult{
			MissingFields: missing,
			Message:       missingFieldsPrefix + strings.Join(missing, "\n"),
		}
	}
	return ValidationResult{Valid: true, MissingFields: []string{}}
}

// ValidateView resolves and validates in one step.
func ValidateView(view View, sel Selection) ValidationResult {
	return Validate(Resolve(view.Mode, view.Active()), sel)
}

func fieldEmpty(field Field, sel Selection) bool {
	switch field {
	case FieldSupplier:
		return blank(sel.SupplierIDs)
	case FieldCompanyCode:
		return !sel.HasCompanyCode()
	case FieldFiscalYear:
		return blank(sel.FiscalYears)
	case FieldQuarter:
		return blank(sel.Quarters)
	case FieldQuarterYear:
		return blank(sel.QuarterYears)
	case FieldDueDate:
		_, ok := sel.DueDateValue()
		return !ok
	default:
		return true
	}
}

func blank(values []string) bool {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// VisibleFields lists the inputs the dashboard shows for a view. Company code
// is always visible.
func VisibleFields(view View) []Field {
	fields := []Field{FieldCompanyCode}
	switch view.Mode {
	case ModeFiscalYearTurnover:
		fields = append(fields, FieldFiscalYear)
	case ModeQuarterlyTurnover, ModeSupplierDueQuarterFY:
		fields = append(fields, FieldQuarter, FieldQuarterYear)
	case ModeSupplierDueAsOfDate:
		fields = append(fields, FieldDueDate)
	}
	if view.Active().IsSingleSupplier() {
		fields = append(fields, FieldSupplier)
	}
	return fields
}
