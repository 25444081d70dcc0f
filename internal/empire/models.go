package empire

import (
	"time"
)

// Summary is the compact view published every tick and served to clients.
type Summary struct {
	ID              int    `json:"id"`
	Name            string `json:"name"`
	Color           string `json:"color"`
	Funds           int64  `json:"funds"`
	Discovered      int    `json:"discovered"`
	InProgress      int    `json:"in_progress"`
	Colonies        int    `json:"colonies"`
	Stations        int    `json:"stations"`
	Parts           int    `json:"parts"`
	ShipHulls       int    `json:"ship_hulls"`
	PendingCommands int    `json:"pending_commands"`
	Closed          bool   `json:"closed"`
}

// Snapshot is a point-in-time copy of an empire. It shares no memory with
// the live empire.
type Snapshot struct {
	EmpireID          int               `json:"empire_id"`
	Name              string            `json:"name"`
	Color             string            `json:"color"`
	CatalogDigest     string            `json:"catalog_digest"`
	TakenAt           time.Time         `json:"taken_at"`
	Funds             int64             `json:"funds"`
	Discovered        []string          `json:"discovered"`
	InProgress        map[string]int    `json:"in_progress"`
	DiscoveryProgress map[string]int    `json:"discovery_progress"`
	Theories          map[string]int    `json:"theories"`
	ResearchTeams     []ResearchTeam    `json:"research_teams"`
	Colonies          []EntityReference `json:"colonies"`
	Stations          []EntityReference `json:"stations"`
	Parts             []Part            `json:"parts"`
	ShipHulls         []ShipHull        `json:"ship_hulls"`
}

func (e *Empire) Summary() Summary {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return Summary{
		ID:              e.id,
		Name:            e.name,
		Color:           e.color,
		Funds:           e.funds,
		Discovered:      len(e.research.discovered),
		InProgress:      len(e.research.progress),
		Colonies:        len(e.roster.colonies),
		Stations:        len(e.roster.stations),
		Parts:           len(e.roster.parts),
		ShipHulls:       len(e.roster.shipHulls),
		PendingCommands: e.inbox.Len(),
		Closed:          e.inbox.Closed(),
	}
}

// Snapshot copies the whole empire under the read lock.
func (e *Empire) Snapshot() Snapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()

	discovered := e.research.Discovered()
	names := make([]string, len(discovered))
	for i, tech := range discovered {
		names[i] = tech.Name
	}

	return Snapshot{
		EmpireID:          e.id,
		Name:              e.name,
		Color:             e.color,
		CatalogDigest:     e.catalog.Digest,
		TakenAt:           time.Now().UTC(),
		Funds:             e.funds,
		Discovered:        names,
		InProgress:        e.research.InProgress(),
		DiscoveryProgress: e.research.discoveryCounters(),
		Theories:          e.research.theoryCounters(),
		ResearchTeams:     append([]ResearchTeam(nil), e.teams...),
		Colonies:          e.roster.Colonies(),
		Stations:          e.roster.Stations(),
		Parts:             e.roster.Parts(),
		ShipHulls:         e.roster.ShipHulls(),
	}
}
