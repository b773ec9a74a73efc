package purchase

import (
	"fmt"
	"strings"
)

// ReportMode selects one of the four top-level dashboard views.
type ReportMode int

const (
	ModeFiscalYearTurnover ReportMode = iota
	ModeQuarterlyTurnover
	ModeSupplierDueAsOfDate
	ModeSupplierDueQuarterFY
)

var modeNames = map[ReportMode]string{
	ModeFiscalYearTurnover:   "fiscal_year_turnover",
	ModeQuarterlyTurnover:    "quarterly_turnover",
	ModeSupplierDueAsOfDate:  "supplier_due_as_of_date",
	ModeSupplierDueQuarterFY: "supplier_due_quarter_fy",
}

func (m ReportMode) String() string {
	if name, ok := modeNames[m]; ok {
		return name
	}
	return fmt.Sprintf("mode(%d)", int(m))
}

// Valid reports whether m is a known mode.
func (m ReportMode) Valid() bool {
	_, ok := modeNames[m]
	return ok
}

// IsTurnover reports whether the mode belongs to the turnover family.
func (m ReportMode) IsTurnover() bool {
	return m == ModeFiscalYearTurnover || m == ModeQuarterlyTurnover
}

// ModeFromIndex maps the radio index used by the dashboard to a mode.
func ModeFromIndex(idx int) (ReportMode, error) {
	mode := ReportMode(idx)
	if !mode.Valid() {
		return 0, fmt.Errorf("purchase: unknown report mode index %d", idx)
	}
	return mode, nil
}

// ParseReportMode accepts the canonical mode name.
func ParseReportMode(s string) (ReportMode, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	for mode, name := range modeNames {
		if name == key {
			return mode, nil
		}
	}
	return 0, fmt.Errorf("purchase: unknown report mode %q", s)
}

// SubScenario is the tab-selected scope nested under a report mode.
type SubScenario int

const (
	SubUnknown SubScenario = iota
	AllSupplierTurnover
	Top5SupplierTurnover
	SingleSupplierTurnover
	PurchaseTurnover
	AllSupplierOutstanding
	Top5SupplierOutstanding
	SingleSupplierOutstanding
	TotalOutstanding
)

var subLabels = map[SubScenario]string{
	AllSupplierTurnover:       "All Supplier Turnover",
	Top5SupplierTurnover:      "Top 5 Supplier Turnover",
	SingleSupplierTurnover:    "Single Supplier Turnover",
	PurchaseTurnover:          "Purchase Turnover",
	AllSupplierOutstanding:    "All Supplier Outstanding",
	Top5SupplierOutstanding:   "Top 5 Supplier Outstanding",
	SingleSupplierOutstanding: "Single Supplier Outstanding",
	TotalOutstanding:          "Total Outstanding",
}

// Label returns the display label shown on the tab.
func (s SubScenario) Label() string {
	return subLabels[s]
}

func (s SubScenario) String() string {
	if label, ok := subLabels[s]; ok {
		return label
	}
	return "unknown"
}

// IsSingleSupplier reports whether the scope narrows to selected suppliers.
func (s SubScenario) IsSingleSupplier() bool {
	return s == SingleSupplierTurnover || s == SingleSupplierOutstanding
}

// IsMerged reports whether the scope aggregates all suppliers into one series.
func (s SubScenario) IsMerged() bool {
	return s == PurchaseTurnover || s == TotalOutstanding
}

// ParseSubScenario maps a display label to its variant.
func ParseSubScenario(label string) SubScenario {
	trimmed := strings.TrimSpace(label)
	for sub, l := range subLabels {
		if strings.EqualFold(l, trimmed) {
			return sub
		}
	}
	return SubUnknown
}

// TabGroup identifies one of the three tab bars on the dashboard.
type TabGroup int

const (
	TabsTurnover TabGroup = iota
	TabsSupplierDue
	TabsSupplierDueQuarterFY
)

var tabKeys = map[TabGroup]map[string]SubScenario{
	TabsTurnover: {
		"scenario1": AllSupplierTurnover,
		"scenario2": Top5SupplierTurnover,
		"scenario3": SingleSupplierTurnover,
		"scenario4": PurchaseTurnover,
	},
	TabsSupplierDue: {
		"scenario1": AllSupplierOutstanding,
		"scenario2": Top5SupplierOutstanding,
		"scenario3": SingleSupplierOutstanding,
		"scenario4": TotalOutstanding,
	},
	TabsSupplierDueQuarterFY: {
		"scenario1": SingleSupplierOutstanding,
		"scenario2": TotalOutstanding,
	},
}

// GroupForMode returns the tab bar governing the mode.
func GroupForMode(mode ReportMode) TabGroup {
	switch mode {
	case ModeSupplierDueAsOfDate:
		return TabsSupplierDue
	case ModeSupplierDueQuarterFY:
		return TabsSupplierDueQuarterFY
	default:
		return TabsTurnover
	}
}

// SubScenarioForTab resolves a tab key within a group. Unknown keys yield SubUnknown.
func SubScenarioForTab(group TabGroup, key string) SubScenario {
	if sub, ok := tabKeys[group][strings.TrimSpace(key)]; ok {
		return sub
	}
	return SubUnknown
}

// View is the active mode plus the selected tab of every tab bar.
type View struct {
	Mode                 ReportMode  `json:"mode"`
	Turnover             SubScenario `json:"turnover"`
	SupplierDue          SubScenario `json:"supplierDue"`
	SupplierDueQuarterFY SubScenario `json:"supplierDueQuarterFY"`
}

// DefaultView mirrors the dashboard state right after load.
func DefaultView() View {
	return View{
		Mode:                 ModeFiscalYearTurnover,
		Turnover:             AllSupplierTurnover,
		SupplierDue:          AllSupplierOutstanding,
		SupplierDueQuarterFY: SingleSupplierOutstanding,
	}
}

// Active returns the sub-scenario of the tab bar governing the active mode.
func (v View) Active() SubScenario {
	switch GroupForMode(v.Mode) {
	case TabsSupplierDue:
		return v.SupplierDue
	case TabsSupplierDueQuarterFY:
		return v.SupplierDueQuarterFY
	default:
		return v.Turnover
	}
}

// WithMode returns a copy with the mode switched.
func (v View) WithMode(mode ReportMode) View {
	v.Mode = mode
	return v
}

// WithTab returns a copy with the tab of group set. Unknown keys store SubUnknown,
// matching a tab bar that reports a key outside its mapping.
func (v View) WithTab(group TabGroup, key string) View {
	sub := SubScenarioForTab(group, key)
	switch group {
	case TabsSupplierDue:
		v.SupplierDue = sub
	case TabsSupplierDueQuarterFY:
		v.SupplierDueQuarterFY = sub
	default:
		v.Turnover = sub
	}
	return v
}

// MarshalText encodes the mode by its canonical name.
func (m ReportMode) MarshalText() ([]byte, error) {
	if !m.Valid() {
		return nil, fmt.Errorf("purchase: cannot encode report mode %d", int(m))
	}
	return []byte(m.String()), nil
}

// UnmarshalText decodes a canonical mode name.
func (m *ReportMode) UnmarshalText(text []byte) error {
	mode, err := ParseReportMode(string(text))
	if err != nil {
		return err
	}
	*m = mode
	return nil
}

// MarshalText encodes the sub-scenario by its display label.
func (s SubScenario) MarshalText() ([]byte, error) {
	return []byte(s.Label()), nil
}

// UnmarshalText decodes a display label; unknown labels decode to SubUnknown.
func (s *SubScenario) UnmarshalText(text []byte) error {
	*s = ParseSubScenario(string(text))
	return nil
}
