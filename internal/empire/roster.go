package empire

import (
	"slices"
	"sort"
)

// EntityReference is an opaque handle to a simulation entity owned by the
// entity store. Holding one says nothing about whether the entity still exists.
type EntityReference struct {
	StarSystem int    `json:"star_system"`
	Entity     int    `json:"entity"`
	Generation uint32 `json:"generation"`
}

// HullClass classifies ship hull designs, e.g. {"Destroyer", "DA"}.
type HullClass struct {
	Name string `json:"name"`
	Code string `json:"code"`
}

// Part is an empire-private component design.
type Part struct {
	Name            string `json:"name"`
	DesignDay       int    `json:"design_day"`
	MassKG          int    `json:"mass_kg"`
	VolumeCM3       int    `json:"volume_cm3"`
	CrewRequirement int    `json:"crew_requirement"`
}

// ShipHull is an empire-private hull design built from parts.
type ShipHull struct {
	Name      string    `json:"name"`
	HullClass HullClass `json:"hull_class"`
	DesignDay int       `json:"design_day"`
	Parts     []string  `json:"parts"`
}

func defaultHullClasses() []HullClass {
	return []HullClass{
		{"Dreadnought", "BA"},
		{"Battleship", "BB"},
		{"Battlecruiser", "BC"},
		{"Heavy Cruiser", "CA"},
		{"Light Cruiser", "CL"},
		{"Command Cruiser", "CC"},
		{"Carrier", "CV"},
		{"Destroyer", "DA"},
		{"Frigate", "DB"},
		{"Corvette", "DC"},
		{"Fighter", "FF"},

		// Logistics
		{"Collier", "LC"},
		{"Ammunition Transport", "LA"},
		{"Combat Stores Transport", "LS"},
		{"Tanker", "LT"},
		{"Construction Ship", "LB"},
		{"Colony Ship", "LE"},
		{"Freighter", "LF"},
	}
}

// AssetRoster holds what an empire owns or has designed. Colony and station
// order is insertion order. Like ResearchLedger it relies on the Empire lock.
type AssetRoster struct {
	colonies    []EntityReference
	stations    []EntityReference
	parts       []Part
	shipHulls   []ShipHull
	hullClasses []HullClass
}

// newAssetRoster sorts seed by code once; hull classes never change after.
func newAssetRoster(seed []HullClass) *AssetRoster {
	classes := slices.Clone(seed)
	sort.SliceStable(classes, func(i, j int) bool { return classes[i].Code < classes[j].Code })
	return &AssetRoster{hullClasses: classes}
}

func (r *AssetRoster) AddColony(ref EntityReference) {
	r.colonies = append(r.colonies, ref)
}

// RemoveColony drops the first occurrence of ref and reports whether it was present.
func (r *AssetRoster) RemoveColony(ref EntityReference) bool {
	return removeFirst(&r.colonies, func(e EntityReference) bool { return e == ref })
}

func (r *AssetRoster) AddStation(ref EntityReference) {
	r.stations = append(r.stations, ref)
}

func (r *AssetRoster) RemoveStation(ref EntityReference) bool {
	return removeFirst(&r.stations, func(e EntityReference) bool { return e == ref })
}

func (r *AssetRoster) AddPart(p Part) {
	r.parts = append(r.parts, p)
}

func (r *AssetRoster) RemovePart(name string) bool {
	return removeFirst(&r.parts, func(p Part) bool { return p.Name == name })
}

func (r *AssetRoster) Part(name string) (Part, bool) {
	i := slices.IndexFunc(r.parts, func(p Part) bool { return p.Name == name })
	if i < 0 {
		return Part{}, false
	}
	return r.parts[i], true
}

func (r *AssetRoster) AddShipHull(h ShipHull) {
	h.Parts = slices.Clone(h.Parts)
	r.shipHulls = append(r.shipHulls, h)
}

func (r *AssetRoster) RemoveShipHull(name string) bool {
	return removeFirst(&r.shipHulls, func(h ShipHull) bool { return h.Name == name })
}

func (r *AssetRoster) Colonies() []EntityReference { return slices.Clone(r.colonies) }
func (r *AssetRoster) Stations() []EntityReference { return slices.Clone(r.stations) }
func (r *AssetRoster) Parts() []Part               { return slices.Clone(r.parts) }

func (r *AssetRoster) ShipHulls() []ShipHull {
	out := make([]ShipHull, len(r.shipHulls))
	for i, h := range r.shipHulls {
		h.Parts = slices.Clone(h.Parts)
		out[i] = h
	}
	return out
}

// HullClasses returns the classes sorted ascending by code.
func (r *AssetRoster) HullClasses() []HullClass { return slices.Clone(r.hullClasses) }

// HullClass finds a class by its two-letter code.
func (r *AssetRoster) HullClass(code string) (HullClass, bool) {
	i := sort.Search(len(r.hullClasses), func(i int) bool { return r.hullClasses[i].Code >= code })
	if i < len(r.hullClasses) && r.hullClasses[i].Code == code {
		return r.hullClasses[i], true
	}
	return HullClass{}, false
}

func removeFirst[T any](s *[]T, match func(T) bool) bool {
	i := slices.IndexFunc(*s, match)
	if i < 0 {
		return false
	}
	*s = slices.Delete(*s, i, i+1)
	return true
}
