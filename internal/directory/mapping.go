package directory

import "strings"

// CustomerRecord is the backend wire shape for a customer. The backend
// speaks snake_case with lowercase enum values; the UI model (Customer)
// speaks camelCase with display enum values. Every field present on one
// side must be mapped in both directions or it is silently lost.
type CustomerRecord struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	ProductType   string `json:"product_type"`
	Status        string `json:"customer_status"`
	PolicyStatus  string `json:"policy_status"`
	PremiumAmount int64  `json:"premium_amount"`
}

var productTypeToUI = map[string]string{
	"health": "Health Insurance",
	"motor":  "Motor Insurance",
	"life":   "Life Insurance",
	"travel": "Travel Insurance",
	"term":   "Term Insurance",
}

var productTypeToWire = invert(productTypeToUI)

var policyStatusToUI = map[string]string{
	"active":    "Active",
	"lapsed":    "Lapsed",
	"cancelled": "Cancelled",
	"expired":   "Expired",
}

var policyStatusToWire = invert(policyStatusToUI)

// CustomerFromWire maps a backend record to the UI model.
func CustomerFromWire(w CustomerRecord) Customer {
	return Customer{
		ID:            w.ID,
		Name:          w.Name,
		Email:         w.Email,
		Phone:         w.Phone,
		ProductType:   enumToUI(productTypeToUI, w.ProductType),
		Status:        statusToUI(w.Status),
		PolicyStatus:  enumToUI(policyStatusToUI, w.PolicyStatus),
		PremiumAmount: w.PremiumAmount,
	}
}

// CustomerToWire maps a UI model back to the backend record.
func CustomerToWire(c Customer) CustomerRecord {
	return CustomerRecord{
		ID:            c.ID,
		Name:          c.Name,
		Email:         c.Email,
		Phone:         c.Phone,
		ProductType:   enumToWire(productTypeToWire, c.ProductType),
		Status:        statusToWire(c.Status),
		PolicyStatus:  enumToWire(policyStatusToWire, c.PolicyStatus),
		PremiumAmount: c.PremiumAmount,
	}
}

// Customer status is a plain capitalization mapping (active <-> Active).
func statusToUI(s string) string {
	if s == "" {
		return ""
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}

func statusToWire(s string) string {
	return strings.ToLower(s)
}

// Unknown enum values pass through unchanged so a backend addition does not
// blank out a field before the mapping table catches up.
func enumToUI(table map[string]string, v string) string {
	if ui, ok := table[v]; ok {
		return ui
	}
	return v
}

func enumToWire(table map[string]string, v string) string {
	if wire, ok := table[v]; ok {
		return wire
	}
	return v
}

func invert(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[v] = k
	}
	return out
}
