package empire

import (
	"context"
	"errors"
	"maps"
	"math"
	"slices"
	"sync"
	"testing"

	"empires-server/internal/catalog"
	apperrors "empires-server/internal/shared/errors"
)

func newTestEmpire(t *testing.T, opts ...Option) *Empire {
	t.Helper()
	e, err := New("Test", catalog.MustDefault(), append([]Option{WithSeed(7)}, opts...)...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return e
}

func TestNewSeedsStartingState(t *testing.T) {
	e := newTestEmpire(t)
	c := e.Catalog()
	launchers := mustTech(t, c, "Launchers 1")
	catapults := mustTech(t, c, "Launch catapults 1")

	e.Read(func(v *View) {
		if v.TechState(launchers) != TechDiscovered {
			t.Errorf("Launchers 1 = %s, want discovered", v.TechState(launchers))
		}
		if p, ok := v.Progress(catapults); !ok || p != 1 {
			t.Errorf("Launch catapults 1 progress = %d, %v", p, ok)
		}
		for _, theory := range c.Theories {
			if p := v.TheoryProgress(theory); p < 0 || p >= 10 {
				t.Errorf("theory %s = %d, want [0,10)", theory, p)
			}
		}
		teams := v.ResearchTeams()
		if len(teams) != 2 || teams[0].Name != "Einstein" || teams[1].Name != "Hawking" {
			t.Errorf("teams = %v", teams)
		}
		if len(v.HullClasses()) != 18 {
			t.Errorf("hull classes = %d", len(v.HullClasses()))
		}
	})

	if e.Funds() != 0 {
		t.Errorf("Funds() = %d", e.Funds())
	}
	if e.Inbox().Cap() != DefaultInboxCapacity {
		t.Errorf("inbox cap = %d", e.Inbox().Cap())
	}
	if e.Color() == "" {
		t.Error("no color assigned")
	}
}

func TestNewIsDeterministicWithSeed(t *testing.T) {
	a := newTestEmpire(t, WithSeed(42))
	b := newTestEmpire(t, WithSeed(42))

	sa, sb := a.Snapshot(), b.Snapshot()
	if len(sa.Theories) == 0 || !maps.Equal(sa.Theories, sb.Theories) {
		t.Errorf("theories differ: %v vs %v", sa.Theories, sb.Theories)
	}
	if !slices.Equal(sa.Discovered, sb.Discovered) {
		t.Errorf("discovered differ: %v vs %v", sa.Discovered, sb.Discovered)
	}
	if !maps.Equal(sa.InProgress, sb.InProgress) {
		t.Errorf("in progress differ: %v vs %v", sa.InProgress, sb.InProgress)
	}

	var ha, hb []HullClass
	a.Read(func(v *View) { ha = v.HullClasses() })
	b.Read(func(v *View) { hb = v.HullClasses() })
	if len(ha) == 0 || !slices.Equal(ha, hb) {
		t.Errorf("hull classes differ: %v vs %v", ha, hb)
	}
	if b.ID() <= a.ID() {
		t.Errorf("ids not increasing: %d then %d", a.ID(), b.ID())
	}
}

func TestNewFailsFastOnIncompleteCatalog(t *testing.T) {
	bare, err := catalog.Parse([]byte("categories: [Weapons]\ntechnologies:\n  - {name: Launchers 1, category: Weapons}\n"))
	if err != nil {
		t.Fatal(err)
	}

	before := newTestEmpire(t)
	_, err = New("Broken", bare)
	if !errors.Is(err, ErrUnknownTechnology) || apperrors.GetType(err) != apperrors.ErrorTypeConfiguration {
		t.Fatalf("err = %v, want configuration error", err)
	}
	after := newTestEmpire(t)

	if after.ID() != before.ID()+1 {
		t.Errorf("failed construction consumed an id: %d then %d", before.ID(), after.ID())
	}
}

func TestGaiaIsSingleton(t *testing.T) {
	g1, g2 := Gaia(), Gaia()
	if g1 != g2 {
		t.Fatal("Gaia() returned different empires")
	}
	if g1.Name() != "Gaia" {
		t.Errorf("Name() = %q", g1.Name())
	}
}

func TestEmpireUndiscoveredTechs(t *testing.T) {
	e := newTestEmpire(t)

	techs, err := e.UndiscoveredTechs("Weapons")
	if err != nil {
		t.Fatal(err)
	}
	for _, tech := range techs {
		if tech.Name == "Launchers 1" || tech.Name == "Launch catapults 1" {
			t.Errorf("%s listed as undiscovered", tech.Name)
		}
	}

	_, err = e.UndiscoveredTechs("Alchemy")
	if !errors.Is(err, ErrUnknownCategory) || apperrors.GetType(err) != apperrors.ErrorTypeNotFound {
		t.Errorf("err = %v, want not found", err)
	}
}

func TestApplyPendingInOrderAndContinuesAfterFailure(t *testing.T) {
	e := newTestEmpire(t)
	ctx := context.Background()
	boom := errors.New("boom")

	var order []string
	record := func(kind string, fail bool) Command {
		return funcCommand{kind: kind, fn: func(tx *Tx) error {
			order = append(order, kind)
			tx.AdjustFunds(10)
			if fail {
				return boom
			}
			return nil
		}}
	}

	for _, cmd := range []Command{record("a", false), record("b", true), record("c", false)} {
		if err := e.Submit(ctx, cmd); err != nil {
			t.Fatal(err)
		}
	}

	report := e.ApplyPending()
	if report.Drained != 3 || report.Applied != 2 || len(report.Failed) != 1 {
		t.Fatalf("report = %+v", report)
	}
	if report.Failed[0].Kind != "b" || !errors.Is(report.Failed[0].Err, boom) {
		t.Errorf("failure = %+v", report.Failed[0])
	}
	if got := order[0] + order[1] + order[2]; got != "abc" {
		t.Errorf("order = %s", got)
	}
	if e.Funds() != 30 {
		t.Errorf("Funds() = %d, want 30", e.Funds())
	}
	if again := e.ApplyPending(); again.Drained != 0 {
		t.Errorf("second apply drained %d", again.Drained)
	}
}

func TestCloseKeepsQueuedCommands(t *testing.T) {
	e := newTestEmpire(t)
	if err := e.TrySubmit(seq(5)); err != nil {
		t.Fatal(err)
	}
	e.Close()

	err := e.Submit(context.Background(), seq(6))
	if apperrors.GetType(err) != apperrors.ErrorTypeUnavailable {
		t.Fatalf("err = %v, want unavailable", err)
	}
	if report := e.ApplyPending(); report.Applied != 1 || e.Funds() != 5 {
		t.Errorf("report = %+v funds = %d", report, e.Funds())
	}
	if !e.Summary().Closed {
		t.Error("summary does not report closed")
	}
}

func TestReadersNeverSeeTornWrites(t *testing.T) {
	e := newTestEmpire(t)
	const writes = 500

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < writes; i++ {
			_ = e.Update(func(tx *Tx) error {
				tx.AdjustFunds(1)
				tx.Roster().AddColony(EntityReference{StarSystem: 1, Entity: i})
				return nil
			})
		}
	}()

	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < writes; i++ {
				e.Read(func(v *View) {
					if int(v.Funds()) != len(v.Colonies()) {
						t.Errorf("torn read: funds %d colonies %d", v.Funds(), len(v.Colonies()))
					}
				})
				s := e.Summary()
				if int(s.Funds) != s.Colonies {
					t.Errorf("torn summary: %+v", s)
				}
			}
		}()
	}
	wg.Wait()

	if e.Funds() != writes {
		t.Errorf("Funds() = %d, want %d", e.Funds(), writes)
	}
}

func TestSnapshotIsDetached(t *testing.T) {
	e := newTestEmpire(t)
	_ = e.Update(func(tx *Tx) error {
		tx.Roster().AddShipHull(ShipHull{Name: "Hood", Parts: []string{"Gun"}})
		return nil
	})

	s := e.Snapshot()
	s.ShipHulls[0].Parts[0] = "Changed"
	s.InProgress["Launch catapults 1"] = 99

	fresh := e.Snapshot()
	if fresh.ShipHulls[0].Parts[0] != "Gun" || fresh.InProgress["Launch catapults 1"] != 1 {
		t.Errorf("snapshot shares memory with the empire: %+v", fresh)
	}
	if len(fresh.Discovered) != 1 || fresh.Discovered[0] != "Launchers 1" {
		t.Errorf("Discovered = %v", fresh.Discovered)
	}
	if fresh.CatalogDigest != e.Catalog().Digest {
		t.Error("catalog digest missing")
	}
}

func TestAdjustFundsSaturates(t *testing.T) {
	e := newTestEmpire(t)
	adjust := func(delta int64) int64 {
		var balance int64
		_ = e.Update(func(tx *Tx) error { balance = tx.AdjustFunds(delta); return nil })
		return balance
	}

	adjust(math.MaxInt64)
	if got := adjust(1); got != math.MaxInt64 {
		t.Errorf("balance = %d, want MaxInt64", got)
	}
	adjust(math.MinInt64)
	adjust(math.MinInt64)
	if got := adjust(-1); got != math.MinInt64 {
		t.Errorf("debt = %d, want MinInt64", got)
	}
}
