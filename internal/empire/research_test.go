package empire

import (
	"errors"
	"math"
	"testing"

	"empires-server/internal/catalog"
)

func mustTech(t *testing.T, c *catalog.Catalog, name string) *catalog.Technology {
	t.Helper()
	tech, ok := c.Technology(name)
	if !ok {
		t.Fatalf("technology %q missing from catalog", name)
	}
	return tech
}

func TestLedgerProgressThenDiscovery(t *testing.T) {
	c := catalog.MustDefault()
	l := newResearchLedger(c)
	lasers := mustTech(t, c, "Lasers 1")

	if got := l.State(lasers); got != TechUnknown {
		t.Fatalf("initial state = %s", got)
	}
	if p, err := l.AddProgress(lasers, 3); err != nil || p != 3 {
		t.Fatalf("AddProgress = %d, %v", p, err)
	}
	if p, _ := l.AddProgress(lasers, 2); p != 5 {
		t.Fatalf("progress = %d, want 5", p)
	}
	if got := l.State(lasers); got != TechInProgress {
		t.Fatalf("state = %s, want in_progress", got)
	}

	l.RecordDiscovery(lasers)
	if _, started := l.Progress(lasers); started {
		t.Error("progress entry survived discovery")
	}
	if !l.IsDiscovered(lasers) {
		t.Error("not discovered")
	}
}

func TestLedgerAddProgressOnDiscoveredIsRejected(t *testing.T) {
	c := catalog.MustDefault()
	l := newResearchLedger(c)
	tech := mustTech(t, c, "Launchers 1")
	l.RecordDiscovery(tech)

	_, err := l.AddProgress(tech, 5)
	if !errors.Is(err, ErrAlreadyDiscovered) {
		t.Fatalf("err = %v, want ErrAlreadyDiscovered", err)
	}
	if _, started := l.Progress(tech); started {
		t.Error("rejected progress still created a counter")
	}
	if l.State(tech) != TechDiscovered {
		t.Error("state changed")
	}
}

func TestLedgerCountersClampAtZero(t *testing.T) {
	c := catalog.MustDefault()
	l := newResearchLedger(c)
	tech := mustTech(t, c, "Batteries 1")

	if p, _ := l.AddProgress(tech, -4); p != 0 {
		t.Errorf("progress = %d, want 0", p)
	}
	if got := l.AddDiscoveryProgress("Power", 3); got != 3 {
		t.Errorf("discovery = %d", got)
	}
	if got := l.AddDiscoveryProgress("Power", -10); got != 0 {
		t.Errorf("discovery = %d, want 0", got)
	}
	if got := l.AddTheoryProgress("Optics", -1); got != 0 {
		t.Errorf("theory = %d, want 0", got)
	}
}

func TestUndiscoveredTechsExcludesStartedAndDiscovered(t *testing.T) {
	c := catalog.MustDefault()
	l := newResearchLedger(c)
	l.RecordDiscovery(mustTech(t, c, "Launchers 1"))
	if _, err := l.AddProgress(mustTech(t, c, "Railguns 1"), 1); err != nil {
		t.Fatal(err)
	}

	all, _ := c.TechnologiesIn("Weapons")
	undiscovered := l.UndiscoveredTechs("Weapons")

	var names []string
	for _, tech := range undiscovered {
		names = append(names, tech.Name)
	}
	want := []string{"Launch catapults 1", "Launchers 2", "Lasers 1"}
	if len(names) != len(want) {
		t.Fatalf("undiscovered = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("undiscovered = %v, want %v", names, want)
		}
	}

	// Every technology of the category is in exactly one of the three states.
	listed := make(map[*catalog.Technology]bool)
	for _, tech := range undiscovered {
		listed[tech] = true
	}
	for _, tech := range all {
		if listed[tech] != (l.State(tech) == TechUnknown) {
			t.Errorf("%s listed=%v state=%s", tech.Name, listed[tech], l.State(tech))
		}
	}

	if got := l.UndiscoveredTechs("Alchemy"); got != nil {
		t.Errorf("unknown category = %v, want nil", got)
	}
}

func TestDiscoveredSortedByName(t *testing.T) {
	c := catalog.MustDefault()
	l := newResearchLedger(c)
	for _, name := range []string{"Lasers 1", "Armor plating 1", "Ion thrusters 1"} {
		l.RecordDiscovery(mustTech(t, c, name))
	}

	got := l.Discovered()
	if len(got) != 3 || got[0].Name != "Armor plating 1" || got[2].Name != "Lasers 1" {
		t.Errorf("Discovered() = %v", got)
	}
}

func TestLedgerCountersSaturateAtMax(t *testing.T) {
	c := catalog.MustDefault()
	l := newResearchLedger(c)
	tech := mustTech(t, c, "Lasers 1")

	if p, _ := l.AddProgress(tech, math.MaxInt); p != math.MaxInt {
		t.Fatalf("progress = %d, want MaxInt", p)
	}
	if p, _ := l.AddProgress(tech, 1); p != math.MaxInt {
		t.Errorf("progress after overflow = %d, want MaxInt", p)
	}
	if p, _ := l.AddProgress(tech, -1); p != math.MaxInt-1 {
		t.Errorf("progress after spend = %d", p)
	}

	l.AddTheoryProgress("Optics", math.MaxInt)
	if got := l.AddTheoryProgress("Optics", math.MaxInt); got != math.MaxInt {
		t.Errorf("theory = %d, want MaxInt", got)
	}
	l.AddDiscoveryProgress("Power", math.MaxInt)
	if got := l.AddDiscoveryProgress("Power", 5); got != math.MaxInt {
		t.Errorf("discovery = %d, want MaxInt", got)
	}
}
