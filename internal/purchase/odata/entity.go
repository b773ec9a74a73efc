package odata

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/odyssey-erp/purchase-insights/internal/purchase"
)

var entitySets = map[purchase.Resource]string{
	purchase.ResourceAllTurnover:        "SUPPSet",
	purchase.ResourceTop5Turnover:       "Supp_Top5Set",
	purchase.ResourceSingleTurnover:     "SINGLE_SUPPSet",
	purchase.ResourcePurchaseTurnover:   "POSet",
	purchase.ResourceAllDue:             "es_outstandingset",
	purchase.ResourceTop5Due:            "es_outstandingset",
	purchase.ResourceSingleDue:          "es_outstandingset",
	purchase.ResourceTotalDue:           "es_outstandingset",
	purchase.ResourceSingleDueQuarterFY: "es_outstanding_yearset",
	purchase.ResourceTotalDueQuarterFY:  "es_outstanding_yearset",
	purchase.ResourceSuppliers:          "SUPP_MasterSet",
	purchase.ResourceCompanyCodes:       "es_f4bukrsset",
}

// EntitySet returns the gateway entity set backing a resource.
func EntitySet(resource purchase.Resource) (string, error) {
	set, ok := entitySets[resource]
	if !ok {
		return "", fmt.Errorf("odata: no entity set for resource %q", resource)
	}
	return set, nil
}

// KeyPath addresses one outstanding entity by its composite key.
func KeyPath(resource purchase.Resource, key purchase.Key) (string, error) {
	set, err := EntitySet(resource)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s(lifnr=%s,datum=%s,bukrs=%s)", set,
		keyLiteral(key.SupplierID), keyLiteral(key.Date), keyLiteral(key.CompanyCode)), nil
}

// keyLiteral quotes a key value and path-escapes its content, so reserved
// characters such as ? or # cannot end the key predicate.
func keyLiteral(v string) string {
	return "'" + url.PathEscape(strings.ReplaceAll(v, "'", "''")) + "'"
}

type masterRow struct {
	Supplier     string `json:"lifnr"`
	SupplierName string `json:"name1"`
	CompanyCode  string `json:"bukrs"`
	CompanyName  string `json:"butxt"`
}

func (r masterRow) item(resource purchase.Resource) purchase.MasterItem {
	if resource == purchase.ResourceCompanyCodes {
		return purchase.MasterItem{Code: r.CompanyCode, Name: r.CompanyName}
	}
	return purchase.MasterItem{Code: r.Supplier, Name: r.SupplierName}
}
