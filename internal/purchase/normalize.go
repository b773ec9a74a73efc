package purchase

import (
	"cmp"
	"math"
	"slices"
	"strconv"
	"strings"
)

// CroreDivisor converts rupee amounts to crore.
const CroreDivisor = 10_000_000

// Sorter orders a result set and returns a new slice.
type Sorter func([]Record) []Record

var quarterOrder = map[string]int{"Q1": 1, "Q2": 2, "Q3": 3, "Q4": 4}

func quarterRank(q string) int {
	q = strings.TrimSpace(q)
	if strings.HasPrefix(q, "Q") {
		return quarterOrder[q]
	}
	n, err := strconv.Atoi(q)
	if err != nil {
		return 0
	}
	return n
}

func parseYear(s string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	return n, err == nil
}

// SortTurnover orders ascending by fiscal year when both rows carry one,
// otherwise by quarter year then quarter. Rows lacking the fields keep their
// relative order.
func SortTurnover(records []Record) []Record {
	out := slices.Clone(records)
	slices.SortStableFunc(out, compareTurnover)
	return out
}

func compareTurnover(a, b Record) int {
	if a.FiscalYear != "" && b.FiscalYear != "" {
		ya, okA := parseYear(a.FiscalYear)
		yb, okB := parseYear(b.FiscalYear)
		if okA && okB && ya != yb {
			return cmp.Compare(ya, yb)
		}
	}
	if a.QuarterYear != "" && b.QuarterYear != "" {
		ya, okA := parseYear(a.QuarterYear)
		yb, okB := parseYear(b.QuarterYear)
		if okA && okB && ya != yb {
			return cmp.Compare(ya, yb)
		}
		if qa, qb := quarterRank(a.Quarter), quarterRank(b.Quarter); qa != qb {
			return cmp.Compare(qa, qb)
		}
	}
	return 0
}

// SortDue orders descending by amount. Rows whose amount is missing or not a
// number sort after every numeric row and keep their relative order.
func SortDue(records []Record) []Record {
	out := slices.Clone(records)
	slices.SortStableFunc(out, func(a, b Record) int {
		va, vb := a.Amount.Float(), b.Amount.Float()
		nanA, nanB := math.IsNaN(va), math.IsNaN(vb)
		switch {
		case nanA && nanB:
			return 0
		case nanA:
			return 1
		case nanB:
			return -1
		}
		return cmp.Compare(vb, va)
	})
	return out
}

// SortDueQuarterFY orders ascending by year then quarter. Unparseable years
// and quarters rank as zero.
func SortDueQuarterFY(records []Record) []Record {
	out := slices.Clone(records)
	slices.SortStableFunc(out, func(a, b Record) int {
		ya, _ := parseYear(a.Year)
		yb, _ := parseYear(b.Year)
		if ya != yb {
			return cmp.Compare(ya, yb)
		}
		return cmp.Compare(quarterRank(a.Period), quarterRank(b.Period))
	})
	return out
}

// ScaleMonetary converts present turnover and amount values to crore with two
// decimals. It is not idempotent: each call divides again. Normalize guards
// against double application through the Scaled marker.
func ScaleMonetary(r Record) Record {
	if r.TurnOver.Present() {
		r.TurnOver = toCrore(r.TurnOver)
	}
	if r.Amount.Present() {
		r.Amount = toCrore(r.Amount)
	}
	r.Scaled = true
	return r
}

func toCrore(d Decimal) Decimal {
	return Decimal(strconv.FormatFloat(d.Float()/CroreDivisor, 'f', 2, 64))
}

// DeriveShortName fills the short display name. It currently equals the full name.
func DeriveShortName(r Record) Record {
	r.SupplierShort = r.Supplier
	return r
}

// Normalize sorts the records and scales every row not yet scaled. Short names
// are derived when shortNames is set.
func Normalize(records []Record, sorter Sorter, shortNames bool) []Record {
	var out []Record
	if sorter != nil {
		out = sorter(records)
	} else {
		out = slices.Clone(records)
	}
	for i := range out {
		if !out[i].Scaled {
			out[i] = ScaleMonetary(out[i])
		}
		if shortNames {
			out[i] = DeriveShortName(out[i])
		}
	}
	if out == nil {
		out = []Record{}
	}
	return out
}
