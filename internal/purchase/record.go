package purchase

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Decimal is a measure as delivered by the query service. Gateways send
// decimals either as JSON strings or numbers; the raw text is kept.
// The zero value means the field was absent.
type Decimal string

// UnmarshalJSON accepts strings, numbers and null.
func (d *Decimal) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*d = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*d = Decimal(strings.TrimSpace(s))
		return nil
	}
	*d = Decimal(data)
	return nil
}

// Present reports whether the field carried a value.
func (d Decimal) Present() bool {
	return d != ""
}

// Float parses the value. Missing or malformed values yield NaN.
func (d Decimal) Float() float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(string(d)), 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

// Record is one row returned by a report query.
type Record struct {
	Supplier      string  `json:"supplier,omitempty"`
	SupplierShort string  `json:"supplierShort,omitempty"`
	SupplierCode  string  `json:"lifnr,omitempty"`
	SupplierName  string  `json:"name1,omitempty"`
	CompanyCode   string  `json:"bukrs,omitempty"`
	FiscalYear    string  `json:"fiscalYear,omitempty"`
	Quarter       string  `json:"quater,omitempty"`
	QuarterYear   string  `json:"quaterYear,omitempty"`
	Year          string  `json:"gjahr,omitempty"`
	Period        string  `json:"poper,omitempty"`
	DueDate       string  `json:"datum,omitempty"`
	TurnOver      Decimal `json:"turnOver,omitempty"`
	Amount        Decimal `json:"amount,omitempty"`
	// Scaled marks measures already converted to crore.
	Scaled bool `json:"scaled,omitempty"`
}

// MasterItem is a row of the supplier or company code master data.
type MasterItem struct {
	Code string `json:"code"`
	Name string `json:"name"`
}
