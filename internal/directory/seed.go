package directory

import (
	"context"
	"fmt"
)

// SampleMembers are the demo members loaded into an empty directory.
var SampleMembers = []CreateInput{
	{Name: "أحمد محمد", Phone: "0123456789", Plan: "monthly", StartDate: "2024-01-01", AmountPaid: 200},
	{Name: "فاطمة علي", Phone: "0987654321", Plan: "quarterly", StartDate: "2024-01-15", AmountPaid: 500},
}

// Seed creates the sample members when the directory is empty.
// It returns the number of members created.
func (s *Service) Seed(ctx context.Context) (int, error) {
	existing, err := s.All(ctx)
	if err != nil {
		return 0, err
	}
	if len(existing) > 0 {
		return 0, nil
	}

	for _, in := range SampleMembers {
		if _, err := s.Create(ctx, in); err != nil {
			return 0, fmt.Errorf("failed to seed member %q: %w", in.Name, err)
		}
	}
	return len(SampleMembers), nil
}
