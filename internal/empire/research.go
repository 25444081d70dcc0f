package empire

import (
	"fmt"
	"math"
	"sort"

	"empires-server/internal/catalog"
	apperrors "empires-server/internal/shared/errors"
)

// TechState is where a technology stands for one empire.
type TechState int

const (
	TechUnknown TechState = iota
	TechInProgress
	TechDiscovered
)

func (s TechState) String() string {
	switch s {
	case TechInProgress:
		return "in_progress"
	case TechDiscovered:
		return "discovered"
	default:
		return "unknown"
	}
}

// ResearchLedger tracks discovered technologies and research counters.
//
// A technology is in the progress map or the discovered set, never both.
// The ledger has no lock of its own; the owning Empire guards it.
type ResearchLedger struct {
	catalog           *catalog.Catalog
	discovered        map[*catalog.Technology]struct{}
	progress          map[*catalog.Technology]int
	discoveryProgress map[catalog.ResearchCategory]int
	theories          map[catalog.PracticalTheory]int
}

func newResearchLedger(c *catalog.Catalog) *ResearchLedger {
	return &ResearchLedger{
		catalog:           c,
		discovered:        make(map[*catalog.Technology]struct{}),
		progress:          make(map[*catalog.Technology]int),
		discoveryProgress: make(map[catalog.ResearchCategory]int),
		theories:          make(map[catalog.PracticalTheory]int, len(c.Theories)),
	}
}

// RecordDiscovery marks tech discovered and drops its progress entry.
func (l *ResearchLedger) RecordDiscovery(tech *catalog.Technology) {
	delete(l.progress, tech)
	l.discovered[tech] = struct{}{}
}

// AddProgress adds amount to the progress counter of tech, creating it when
// absent. Negative amounts clamp the counter at zero. Discovered technologies
// are rejected with ErrAlreadyDiscovered and left untouched.
func (l *ResearchLedger) AddProgress(tech *catalog.Technology, amount int) (int, error) {
	if _, ok := l.discovered[tech]; ok {
		return 0, apperrors.WrapValidation(fmt.Sprintf("research %q", tech.Name), ErrAlreadyDiscovered)
	}
	next := clampedAdd(l.progress[tech], amount)
	l.progress[tech] = next
	return next, nil
}

func (l *ResearchLedger) State(tech *catalog.Technology) TechState {
	if _, ok := l.discovered[tech]; ok {
		return TechDiscovered
	}
	if _, ok := l.progress[tech]; ok {
		return TechInProgress
	}
	return TechUnknown
}

func (l *ResearchLedger) IsDiscovered(tech *catalog.Technology) bool {
	_, ok := l.discovered[tech]
	return ok
}

// Progress returns the counter for tech and whether research has started.
func (l *ResearchLedger) Progress(tech *catalog.Technology) (int, bool) {
	p, ok := l.progress[tech]
	return p, ok
}

// UndiscoveredTechs returns, in catalog order, every technology of category
// that is neither discovered nor in progress. Unknown categories yield nil.
func (l *ResearchLedger) UndiscoveredTechs(category catalog.ResearchCategory) []*catalog.Technology {
	techs, _ := l.catalog.TechnologiesIn(category)

	var out []*catalog.Technology
	for _, tech := range techs {
		if _, started := l.progress[tech]; started {
			continue
		}
		if _, done := l.discovered[tech]; done {
			continue
		}
		out = append(out, tech)
	}
	return out
}

// Discovered lists discovered technologies sorted by name.
func (l *ResearchLedger) Discovered() []*catalog.Technology {
	out := make([]*catalog.Technology, 0, len(l.discovered))
	for tech := range l.discovered {
		out = append(out, tech)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// InProgress returns a copy of the progress counters keyed by name.
func (l *ResearchLedger) InProgress() map[string]int {
	out := make(map[string]int, len(l.progress))
	for tech, p := range l.progress {
		out[tech.Name] = p
	}
	return out
}

func (l *ResearchLedger) DiscoveryProgress(category catalog.ResearchCategory) int {
	return l.discoveryProgress[category]
}

func (l *ResearchLedger) AddDiscoveryProgress(category catalog.ResearchCategory, amount int) int {
	next := clampedAdd(l.discoveryProgress[category], amount)
	l.discoveryProgress[category] = next
	return next
}

func (l *ResearchLedger) TheoryProgress(theory catalog.PracticalTheory) int {
	return l.theories[theory]
}

func (l *ResearchLedger) AddTheoryProgress(theory catalog.PracticalTheory, amount int) int {
	next := clampedAdd(l.theories[theory], amount)
	l.theories[theory] = next
	return next
}

func (l *ResearchLedger) theoryCounters() map[string]int {
	out := make(map[string]int, len(l.theories))
	for theory, p := range l.theories {
		out[string(theory)] = p
	}
	return out
}

func (l *ResearchLedger) discoveryCounters() map[string]int {
	out := make(map[string]int, len(l.discoveryProgress))
	for category, p := range l.discoveryProgress {
		out[string(category)] = p
	}
	return out
}

// clampedAdd adds amount to a non-negative counter, flooring at zero and
// saturating at math.MaxInt.
func clampedAdd(current, amount int) int {
	if amount > 0 && current > math.MaxInt-amount {
		return math.MaxInt
	}
	next := current + amount
	if next < 0 {
		return 0
	}
	return next
}
