package directory

import (
	"context"
	"log/slog"
)

// Repository abstracts person directory access. Implementations may be
// in-memory (tests, offline mode) or backed by the CRM customer database.
type Repository interface {
	All(ctx context.Context) ([]Person, error)
}

// Service resolves raw phone numbers to known people.
//
// Contract:
// - Lookup never returns an error to the caller. Internal failures degrade
//   to a not-found result carrying a diagnostic message, so an unreachable
//   directory reads as "new/unknown caller".
// - Phone numbers are assumed unique after normalization; when duplicates
//   exist the first match in directory order wins.
type Service struct {
	repo Repository
	log  *slog.Logger
}

func NewService(repo Repository, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{repo: repo, log: log}
}

func (s *Service) Lookup(ctx context.Context, phone string) LookupResult {
	if s.repo == nil {
		return LookupResult{Found: false, Err: "directory not configured"}
	}

	want := Normalize(phone)
	if want == "" {
		return LookupResult{Found: false}
	}

	people, err := s.repo.All(ctx)
	if err != nil {
		s.log.Warn("directory lookup degraded", "err", err)
		return LookupResult{Found: false, Err: err.Error()}
	}

	for i := range people {
		if Normalize(people[i].Phone) == want {
			p := people[i]
			return LookupResult{Found: true, Person: &p}
		}
	}
	return LookupResult{Found: false}
}
