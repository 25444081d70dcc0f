// Package empire models one faction's mutable state: treasury, research,
// possessions and the inbox through which UI and AI producers submit orders.
//
// All ledger, roster and funds access goes through the Empire's RWMutex:
// readers use Read or the read accessors, writers use Update. sync.RWMutex
// blocks new readers once a writer is waiting, so a steady stream of readers
// cannot starve the simulation loop. The inbox is synchronized on its own and
// producers never take the Empire lock.
package empire

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"sync"

	"empires-server/internal/catalog"
	apperrors "empires-server/internal/shared/errors"
	"empires-server/internal/shared/metrics"
)

const (
	starterTechnology = "Launchers 1"
	starterResearch   = "Launch catapults 1"
)

var starterTeams = []string{"Einstein", "Hawking"}

var palette = []string{
	"#d62728", "#1f77b4", "#2ca02c", "#ff7f0e",
	"#9467bd", "#8c564b", "#e377c2", "#17becf",
}

// ResearchTeam contributes to research; it never changes owner.
type ResearchTeam struct {
	Name string `json:"name"`
}

type Empire struct {
	id      int
	name    string
	color   string
	catalog *catalog.Catalog
	inbox   *CommandInbox
	logger  *slog.Logger

	mu       sync.RWMutex
	funds    int64
	research *ResearchLedger
	roster   *AssetRoster
	teams    []ResearchTeam
}

type options struct {
	rng         *rand.Rand
	logger      *slog.Logger
	capacity    int
	inboxOpts   []InboxOption
	hullClasses []HullClass
}

type Option func(*options)

// WithRand supplies the source used for initial practical theory progress.
func WithRand(rng *rand.Rand) Option {
	return func(o *options) { o.rng = rng }
}

// WithSeed is WithRand over a PCG source seeded with seed.
func WithSeed(seed uint64) Option {
	return WithRand(rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)))
}

func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithInbox sets the inbox capacity and behaviour.
func WithInbox(capacity int, opts ...InboxOption) Option {
	return func(o *options) {
		o.capacity = capacity
		o.inboxOpts = opts
	}
}

// WithHullClasses replaces the standard hull class list. Order is irrelevant;
// the roster sorts by code.
func WithHullClasses(classes []HullClass) Option {
	return func(o *options) { o.hullClasses = classes }
}

// New builds an empire seeded from c. It fails with a configuration error if
// a starting technology is missing from the catalog; no id is consumed then.
func New(name string, c *catalog.Catalog, opts ...Option) (*Empire, error) {
	o := options{
		logger:      slog.Default(),
		capacity:    DefaultInboxCapacity,
		hullClasses: defaultHullClasses(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.rng == nil {
		o.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	launchers, err := starter(c, name, starterTechnology)
	if err != nil {
		return nil, err
	}
	catapults, err := starter(c, name, starterResearch)
	if err != nil {
		return nil, err
	}

	id := empireIDs.Allocate()
	e := &Empire{
		id:       id,
		name:     name,
		color:    palette[id%len(palette)],
		catalog:  c,
		inbox:    NewCommandInbox(o.capacity, o.inboxOpts...),
		research: newResearchLedger(c),
		roster:   newAssetRoster(o.hullClasses),
		logger:   o.logger.With("component", "empire", "empire_id", id, "empire", name),
	}

	for _, team := range starterTeams {
		e.teams = append(e.teams, ResearchTeam{Name: team})
	}
	e.research.RecordDiscovery(launchers)
	e.research.progress[catapults] = 1
	for _, theory := range c.Theories {
		e.research.theories[theory] = o.rng.IntN(10)
	}

	e.logger.Info("Empire created",
		"hull_classes", len(e.roster.hullClasses),
		"theories", len(c.Theories),
		"inbox_capacity", e.inbox.Cap(),
	)
	return e, nil
}

func starter(c *catalog.Catalog, empireName, techName string) (*catalog.Technology, error) {
	tech, ok := c.Technology(techName)
	if !ok {
		return nil, apperrors.WrapConfiguration(
			fmt.Sprintf("seed empire %q", empireName),
			fmt.Errorf("%w: %q", ErrUnknownTechnology, techName),
		)
	}
	return tech, nil
}

var (
	gaiaOnce sync.Once
	gaia     *Empire
)

// Gaia returns the neutral empire that owns everything nobody else does.
// It is created on first use from the built-in catalog.
func Gaia() *Empire {
	gaiaOnce.Do(func() {
		var err error
		gaia, err = New("Gaia", catalog.MustDefault())
		if err != nil {
			panic(fmt.Errorf("create gaia: %w", err))
		}
	})
	return gaia
}

func (e *Empire) ID() int                   { return e.id }
func (e *Empire) Name() string              { return e.name }
func (e *Empire) Color() string             { return e.color }
func (e *Empire) Catalog() *catalog.Catalog { return e.catalog }
func (e *Empire) Inbox() *CommandInbox      { return e.inbox }

// Submit queues cmd for the simulation loop, blocking while the inbox is full.
func (e *Empire) Submit(ctx context.Context, cmd Command) error {
	return e.recordSubmit(cmd, e.inbox.Submit(ctx, cmd))
}

// TrySubmit queues cmd or fails immediately with ErrQueueFull.
func (e *Empire) TrySubmit(cmd Command) error {
	return e.recordSubmit(cmd, e.inbox.TrySubmit(cmd))
}

func (e *Empire) recordSubmit(cmd Command, err error) error {
	if err != nil {
		reason := string(apperrors.GetType(err))
		metrics.CommandRejected(e.id, reason)
		e.logger.Warn("Command rejected", "kind", cmd.Kind(), "reason", reason, "error", err)
		return err
	}
	depth := e.inbox.Len()
	metrics.CommandSubmitted(e.id, depth)
	e.logger.Debug("Command queued", "kind", cmd.Kind(), "depth", depth)
	return nil
}

// Close stops accepting commands. Queued commands are still applied.
func (e *Empire) Close() {
	e.inbox.Close()
	e.logger.Info("Empire closed", "pending", e.inbox.Len())
}

// Tx is the write handle passed to Update. It is only valid inside the
// callback, while the write lock is held.
type Tx struct {
	e *Empire
}

func (tx *Tx) EmpireID() int                 { return tx.e.id }
func (tx *Tx) Catalog() *catalog.Catalog     { return tx.e.catalog }
func (tx *Tx) Research() *ResearchLedger     { return tx.e.research }
func (tx *Tx) Roster() *AssetRoster          { return tx.e.roster }
func (tx *Tx) Funds() int64                  { return tx.e.funds }
func (tx *Tx) ResearchTeams() []ResearchTeam { return append([]ResearchTeam(nil), tx.e.teams...) }

// AdjustFunds adds delta to the treasury and returns the new balance. The
// balance may go negative and saturates at the int64 bounds.
func (tx *Tx) AdjustFunds(delta int64) int64 {
	tx.e.funds = saturatingAdd(tx.e.funds, delta)
	return tx.e.funds
}

func saturatingAdd(a, b int64) int64 {
	switch {
	case b > 0 && a > math.MaxInt64-b:
		return math.MaxInt64
	case b < 0 && a < math.MinInt64-b:
		return math.MinInt64
	}
	return a + b
}

// Update runs fn with exclusive access. Changes made before fn returns an
// error are kept; callers validate before mutating.
func (e *Empire) Update(fn func(tx *Tx) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return fn(&Tx{e: e})
}

// View is the read handle passed to Read. It is only valid inside the callback.
type View struct {
	e *Empire
}

func (v *View) Funds() int64                            { return v.e.funds }
func (v *View) Colonies() []EntityReference             { return v.e.roster.Colonies() }
func (v *View) Stations() []EntityReference             { return v.e.roster.Stations() }
func (v *View) Parts() []Part                           { return v.e.roster.Parts() }
func (v *View) ShipHulls() []ShipHull                   { return v.e.roster.ShipHulls() }
func (v *View) HullClasses() []HullClass                { return v.e.roster.HullClasses() }
func (v *View) HullClass(code string) (HullClass, bool) { return v.e.roster.HullClass(code) }
func (v *View) ResearchTeams() []ResearchTeam           { return append([]ResearchTeam(nil), v.e.teams...) }
func (v *View) TechState(tech *catalog.Technology) TechState {
	return v.e.research.State(tech)
}
func (v *View) Progress(tech *catalog.Technology) (int, bool) { return v.e.research.Progress(tech) }
func (v *View) Discovered() []*catalog.Technology             { return v.e.research.Discovered() }
func (v *View) InProgress() map[string]int                    { return v.e.research.InProgress() }
func (v *View) UndiscoveredTechs(category catalog.ResearchCategory) []*catalog.Technology {
	return v.e.research.UndiscoveredTechs(category)
}
func (v *View) DiscoveryProgress(category catalog.ResearchCategory) int {
	return v.e.research.DiscoveryProgress(category)
}
func (v *View) TheoryProgress(theory catalog.PracticalTheory) int {
	return v.e.research.TheoryProgress(theory)
}

// Read runs fn under the read lock. Any number of readers may run at once.
func (e *Empire) Read(fn func(v *View)) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	fn(&View{e: e})
}

func (e *Empire) Funds() int64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.funds
}

// UndiscoveredTechs lists technologies of category not yet started or
// discovered, in catalog order.
func (e *Empire) UndiscoveredTechs(category catalog.ResearchCategory) ([]*catalog.Technology, error) {
	if _, ok := e.catalog.TechnologiesIn(category); !ok {
		return nil, apperrors.WrapNotFound(fmt.Sprintf("category %q", category), ErrUnknownCategory)
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.research.UndiscoveredTechs(category), nil
}

// CommandFailure records a command the loop could not apply.
type CommandFailure struct {
	Kind string
	Err  error
}

type ApplyReport struct {
	EmpireID int
	Drained  int
	Applied  int
	Failed   []CommandFailure
}

// ApplyPending drains the inbox once and applies each command under its own
// write lock, in submission order. A failing command does not stop the rest.
func (e *Empire) ApplyPending() ApplyReport {
	cmds := e.inbox.DrainAll()
	metrics.InboxDrained(e.id, e.inbox.Len())

	report := ApplyReport{EmpireID: e.id, Drained: len(cmds)}
	for _, cmd := range cmds {
		err := e.Update(cmd.Apply)
		metrics.CommandApplied(cmd.Kind(), err)
		if err != nil {
			e.logger.Warn("Command failed", "kind", cmd.Kind(), "error", err)
			report.Failed = append(report.Failed, CommandFailure{Kind: cmd.Kind(), Err: err})
			continue
		}
		report.Applied++
	}

	if report.Drained > 0 {
		e.logger.Debug("Applied pending commands",
			"drained", report.Drained,
			"applied", report.Applied,
			"failed", len(report.Failed),
		)
	}
	return report
}
