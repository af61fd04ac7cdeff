package directory

import "testing"

func TestCustomerFromWire(t *testing.T) {
	w := CustomerRecord{
		ID:            "CUST-1",
		Name:          "Rajesh Kumar",
		Phone:         "+91 98765 43210",
		ProductType:   "health",
		Status:        "active",
		PolicyStatus:  "lapsed",
		PremiumAmount: 12500,
	}
	c := CustomerFromWire(w)
	if c.ProductType != "Health Insurance" {
		t.Fatalf("product type: got %q", c.ProductType)
	}
	if c.Status != "Active" {
		t.Fatalf("status: got %q", c.Status)
	}
	if c.PolicyStatus != "Lapsed" {
		t.Fatalf("policy status: got %q", c.PolicyStatus)
	}
	if c.PremiumAmount != 12500 {
		t.Fatalf("premium: got %d", c.PremiumAmount)
	}
}

func TestCustomerToWire(t *testing.T) {
	c := Customer{
		ProductType:  "Motor Insurance",
		Status:       "Inactive",
		PolicyStatus: "Active",
	}
	w := CustomerToWire(c)
	if w.ProductType != "motor" {
		t.Fatalf("product type: got %q", w.ProductType)
	}
	if w.Status != "inactive" {
		t.Fatalf("status: got %q", w.Status)
	}
	if w.PolicyStatus != "active" {
		t.Fatalf("policy status: got %q", w.PolicyStatus)
	}
}

func TestUnknownEnumPassesThrough(t *testing.T) {
	c := CustomerFromWire(CustomerRecord{ProductType: "pet"})
	if c.ProductType != "pet" {
		t.Fatalf("unknown enum should pass through, got %q", c.ProductType)
	}
	w := CustomerToWire(Customer{ProductType: "Pet Insurance"})
	if w.ProductType != "Pet Insurance" {
		t.Fatalf("unknown enum should pass through, got %q", w.ProductType)
	}
}
