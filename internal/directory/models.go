package directory

import "time"

// PersonKind distinguishes the three populations an inbound caller can
// resolve to.
type PersonKind string

const (
	KindCustomer PersonKind = "customer"
	KindLead     PersonKind = "lead"
	KindDebtor   PersonKind = "debtor"
)

// Person is the normalized projection returned by a phone lookup.
// Customer lookups populate Policies and LastContact; debtor lookups
// additionally populate AccountNumber and Location.
type Person struct {
	ID    string     `json:"id"`
	Kind  PersonKind `json:"kind"`
	Name  string     `json:"name"`
	Email string     `json:"email"`
	Phone string     `json:"phone"`

	Status string `json:"status"`

	Policies    []string  `json:"policies,omitempty"`
	LastContact time.Time `json:"lastContact,omitempty"`

	AccountNumber string `json:"accountNumber,omitempty"`
	Location      string `json:"location,omitempty"`
}

// LookupResult is transient and never stored. Err carries a diagnostic
// message when a lookup degraded to not-found because of an internal failure.
type LookupResult struct {
	Found  bool    `json:"found"`
	Person *Person `json:"customer"`
	Err    string  `json:"error,omitempty"`
}

// Customer is the UI-facing customer shape used by the CRM screens.
// JSON tags are camelCase; the backend wire shape lives in CustomerRecord.
type Customer struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	ProductType   string `json:"productType"`
	Status        string `json:"status"`
	PolicyStatus  string `json:"policyStatus"`
	PremiumAmount int64  `json:"premiumAmount"`
}

// HistoryEntry is one row of the backend's customer interaction history.
type HistoryEntry struct {
	ID         string    `json:"id"`
	CustomerID string    `json:"customer_id"`
	Action     string    `json:"action"`
	Detail     string    `json:"detail,omitempty"`
	At         time.Time `json:"created_at"`
}
