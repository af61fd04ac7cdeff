package directory

import (
	"context"
	"sync"
	"time"
)

// MemoryRepo is an in-memory person directory. It serves as the offline
// fallback when the CRM backend is unreachable and as the test fixture.
type MemoryRepo struct {
	mu     sync.Mutex
	people []Person
}

func NewMemoryRepo(people []Person) *MemoryRepo {
	out := &MemoryRepo{people: make([]Person, len(people))}
	copy(out.people, people)
	return out
}

func (r *MemoryRepo) All(ctx context.Context) ([]Person, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Person, len(r.people))
	copy(out, r.people)
	return out, nil
}

func (r *MemoryRepo) Add(p Person) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.people = append(r.people, p)
}

// SeedPeople returns the demo directory used in local mode.
func SeedPeople() []Person {
	return []Person{
		{
			ID: "CUST-1001", Kind: KindCustomer, Name: "Rajesh Kumar",
			Email: "rajesh.kumar@example.com", Phone: "+91 98765 43210",
			Status:      "Active",
			Policies:    []string{"POL-889123", "POL-102934"},
			LastContact: time.Date(2025, 11, 18, 9, 30, 0, 0, time.UTC),
		},
		{
			ID: "CUST-1002", Kind: KindCustomer, Name: "Priya Sharma",
			Email: "priya.sharma@example.com", Phone: "+91 91234 56789",
			Status:      "Active",
			Policies:    []string{"POL-551002"},
			LastContact: time.Date(2025, 12, 2, 15, 10, 0, 0, time.UTC),
		},
		{
			ID: "LEAD-2001", Kind: KindLead, Name: "Amit Verma",
			Email: "amit.verma@example.com", Phone: "+91 99887 76655",
			Status: "New",
		},
		{
			ID: "DEBT-3001", Kind: KindDebtor, Name: "Sunita Patil",
			Email: "sunita.patil@example.com", Phone: "+91 90011 22334",
			Status:        "Delinquent",
			AccountNumber: "ACC-778899",
			Location:      "Pune",
		},
	}
}
