package risk

import (
	"context"
	"strings"
)

// Identity is the slice of user data handed to external screening.
type Identity struct {
	FullName    string `json:"full_name"`
	DateOfBirth string `json:"date_of_birth,omitempty"`
	Nationality string `json:"nationality"`
	IDNumber    string `json:"id_number,omitempty"`
}

// PEPResult is the outcome of a politically-exposed-person check.
type PEPResult struct {
	IsPEP      bool    `json:"is_pep"`
	Confidence float64 `json:"confidence"`
}

// SanctionsResult is the outcome of a sanctions-list check.
type SanctionsResult struct {
	IsListed   bool    `json:"is_listed"`
	Confidence float64 `json:"confidence"`
}

// PepChecker screens an identity against PEP data. The real matching lives
// behind this interface; a timeout or error from it must fail closed.
type PepChecker interface {
	Check(ctx context.Context, identity Identity) (PEPResult, error)
}

// SanctionsChecker screens an identity against sanctions lists.
type SanctionsChecker interface {
	Check(ctx context.Context, identity Identity) (SanctionsResult, error)
}

// StaticPepChecker matches names against a fixed list. Intended for tests and
// local development, not production screening.
type StaticPepChecker struct {
	names map[string]bool
}

func NewStaticPepChecker(names ...string) *StaticPepChecker {
	set := make(map[string]bool, len(names))
	for _, name := range names {
		set[strings.ToLower(name)] = true
	}
	return &StaticPepChecker{names: set}
}

func (c *StaticPepChecker) Check(ctx context.Context, identity Identity) (PEPResult, error) {
	if err := ctx.Err(); err != nil {
		return PEPResult{}, err
	}
	if c.names[strings.ToLower(identity.FullName)] {
		return PEPResult{IsPEP: true, Confidence: 1}, nil
	}
	return PEPResult{Confidence: 1}, nil
}

// StaticSanctionsChecker matches names against a fixed list.
type StaticSanctionsChecker struct {
	names map[string]bool
}

func NewStaticSanctionsChecker(names ...string) *StaticSanctionsChecker {
	set := make(map[string]bool, len(names))
	for _, name := range names {
		set[strings.ToLower(name)] = true
	}
	return &StaticSanctionsChecker{names: set}
}

func (c *StaticSanctionsChecker) Check(ctx context.Context, identity Identity) (SanctionsResult, error) {
	if err := ctx.Err(); err != nil {
		return SanctionsResult{}, err
	}
	if c.names[strings.ToLower(identity.FullName)] {
		return SanctionsResult{IsListed: true, Confidence: 1}, nil
	}
	return SanctionsResult{Confidence: 1}, nil
}
