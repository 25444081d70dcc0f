package command

import (
	"fmt"

	"empires-server/internal/catalog"
	"empires-server/internal/empire"
	apperrors "empires-server/internal/shared/errors"
)

const (
	KindAdjustFunds        = "adjust_funds"
	KindResearchProgress   = "research_progress"
	KindDiscoverTechnology = "discover_technology"
	KindTheoryProgress     = "theory_progress"
)

// AdjustFunds adds Delta to the treasury. Negative deltas are spending.
type AdjustFunds struct {
	Delta int64 `json:"delta"`
}

func (c *AdjustFunds) Kind() string { return KindAdjustFunds }

func (c *AdjustFunds) Apply(tx *empire.Tx) error {
	tx.AdjustFunds(c.Delta)
	return nil
}

// ResearchProgress spends Amount research points on a technology.
type ResearchProgress struct {
	Technology string `json:"technology"`
	Amount     int    `json:"amount"`
}

func (c *ResearchProgress) Kind() string { return KindResearchProgress }

func (c *ResearchProgress) Apply(tx *empire.Tx) error {
	tech, err := lookupTechnology(tx, c.Technology)
	if err != nil {
		return err
	}
	_, err = tx.Research().AddProgress(tech, c.Amount)
	return err
}

// TheoryProgress advances one practical theory. Negative amounts floor at
// zero.
type TheoryProgress struct {
	Theory string `json:"theory"`
	Amount int    `json:"amount"`
}

func (c *TheoryProgress) Kind() string { return KindTheoryProgress }

func (c *TheoryProgress) Apply(tx *empire.Tx) error {
	theory := catalog.PracticalTheory(c.Theory)
	if !tx.Catalog().HasTheory(theory) {
		return apperrors.WrapValidation(fmt.Sprintf("theory %q", c.Theory), empire.ErrUnknownTheory)
	}
	tx.Research().AddTheoryProgress(theory, c.Amount)
	return nil
}

// DiscoverTechnology completes research on a technology whose prerequisites
// are all discovered.
type DiscoverTechnology struct {
	Technology string `json:"technology"`
}

func (c *DiscoverTechnology) Kind() string { return KindDiscoverTechnology }

func (c *DiscoverTechnology) Apply(tx *empire.Tx) error {
	tech, err := lookupTechnology(tx, c.Technology)
	if err != nil {
		return err
	}

	ledger := tx.Research()
	if ledger.IsDiscovered(tech) {
		return apperrors.WrapValidation(fmt.Sprintf("discover %q", tech.Name), empire.ErrAlreadyDiscovered)
	}
	for _, name := range tech.Requires {
		req, _ := tx.Catalog().Technology(name)
		if !ledger.IsDiscovered(req) {
			return apperrors.WrapValidation(
				fmt.Sprintf("discover %q", tech.Name),
				fmt.Errorf("%w: %s", ErrMissingPrerequisite, name),
			)
		}
	}

	ledger.RecordDiscovery(tech)
	return nil
}

func lookupTechnology(tx *empire.Tx, name string) (*catalog.Technology, error) {
	tech, ok := tx.Catalog().Technology(name)
	if !ok {
		return nil, apperrors.WrapValidation(fmt.Sprintf("technology %q", name), empire.ErrUnknownTechnology)
	}
	return tech, nil
}
