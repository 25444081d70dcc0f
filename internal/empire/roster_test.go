package empire

import (
	"sort"
	"testing"
)

func TestHullClassesSortedByCode(t *testing.T) {
	r := newAssetRoster(defaultHullClasses())
	classes := r.HullClasses()

	if len(classes) != 18 {
		t.Fatalf("len = %d, want 18", len(classes))
	}
	if !sort.SliceIsSorted(classes, func(i, j int) bool { return classes[i].Code < classes[j].Code }) {
		t.Fatalf("classes not sorted: %v", classes)
	}
	for i, code := range []string{"BA", "BB", "BC", "CA"} {
		if classes[i].Code != code {
			t.Errorf("classes[%d] = %s, want %s", i, classes[i].Code, code)
		}
	}

	da, ok := r.HullClass("DA")
	if !ok || da.Name != "Destroyer" {
		t.Errorf("HullClass(DA) = %v, %v", da, ok)
	}
	if _, ok := r.HullClass("ZZ"); ok {
		t.Error("HullClass(ZZ) found")
	}
}

func TestHullClassesOrderIndependentOfSeed(t *testing.T) {
	seed := []HullClass{{"Tanker", "LT"}, {"Destroyer", "DA"}, {"Dreadnought", "BA"}}
	e := newTestEmpire(t, WithHullClasses(seed))

	var got []HullClass
	e.Read(func(v *View) { got = v.HullClasses() })
	if len(got) != 3 || got[0].Code != "BA" || got[1].Code != "DA" || got[2].Code != "LT" {
		t.Errorf("order = %v", got)
	}
	if seed[0].Code != "LT" {
		t.Error("caller's hull class slice was reordered")
	}
}

func TestRosterRemovePreservesOrder(t *testing.T) {
	r := newAssetRoster(nil)
	refs := []EntityReference{{1, 1, 0}, {1, 2, 0}, {1, 1, 0}, {2, 3, 0}}
	for _, ref := range refs {
		r.AddColony(ref)
	}

	if !r.RemoveColony(EntityReference{1, 1, 0}) {
		t.Fatal("RemoveColony reported absent")
	}
	got := r.Colonies()
	want := []EntityReference{{1, 2, 0}, {1, 1, 0}, {2, 3, 0}}
	if len(got) != len(want) {
		t.Fatalf("colonies = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("colonies = %v, want %v", got, want)
		}
	}

	if r.RemoveStation(EntityReference{9, 9, 9}) {
		t.Error("RemoveStation on empty roster reported present")
	}
}

func TestRosterGettersReturnCopies(t *testing.T) {
	r := newAssetRoster(nil)
	r.AddPart(Part{Name: "Gun"})
	r.AddShipHull(ShipHull{Name: "Hood", Parts: []string{"Gun"}})

	parts := r.Parts()
	parts[0].Name = "Changed"
	hulls := r.ShipHulls()
	hulls[0].Parts[0] = "Changed"

	if p, _ := r.Part("Gun"); p.Name != "Gun" {
		t.Error("Parts() leaked internal slice")
	}
	if r.ShipHulls()[0].Parts[0] != "Gun" {
		t.Error("ShipHulls() leaked internal parts slice")
	}
	if !r.RemovePart("Gun") || !r.RemoveShipHull("Hood") {
		t.Error("remove failed")
	}
}
