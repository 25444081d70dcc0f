package empire

import (
	"context"
	"fmt"
	"log/slog"

	"empires-server/internal/catalog"
	"empires-server/internal/shared/config"
	apperrors "empires-server/internal/shared/errors"
)

// SnapshotReader loads the newest persisted snapshot of an empire.
type SnapshotReader interface {
	LatestSnapshot(ctx context.Context, empireID int) (EncodedSnapshot, int64, error)
}

type Service struct {
	registry  *Registry
	catalog   *catalog.Catalog
	cache     *SummaryCache
	snapshots SnapshotReader
	logger    *slog.Logger
}

// NewService wires the empire operations. snapshots may be nil when
// persistence is disabled.
func NewService(registry *Registry, c *catalog.Catalog, cache *SummaryCache, snapshots SnapshotReader, logger *slog.Logger) *Service {
	logger.Debug("Initializing empire service")

	return &Service{
		registry:  registry,
		catalog:   c,
		cache:     cache,
		snapshots: snapshots,
		logger:    logger,
	}
}

// Bootstrap creates the starting empires named in cfg. A non-zero seed makes
// theory rolls reproducible; each empire gets seed plus its position.
func (s *Service) Bootstrap(cfg config.EmpireConfig) error {
	logger := s.logger.With("component", "empire_service", "operation", "bootstrap", "count", len(cfg.Names))
	logger.Debug("Creating starting empires")

	inboxOpts := []InboxOption{WithSubmitTimeout(cfg.SubmitTimeout)}
	if cfg.SubmitRate > 0 {
		inboxOpts = append(inboxOpts, WithSubmitRate(cfg.SubmitRate, cfg.SubmitBurst))
	}

	for i, name := range cfg.Names {
		opts := []Option{
			WithLogger(s.logger),
			WithInbox(cfg.InboxCapacity, inboxOpts...),
		}
		if cfg.Seed != 0 {
			opts = append(opts, WithSeed(cfg.Seed+uint64(i)))
		}

		e, err := New(name, s.catalog, opts...)
		if err != nil {
			logger.Error("Failed to create empire", "empire", name, "error", err)
			return fmt.Errorf("failed to create empire %q: %w", name, err)
		}
		s.registry.Add(e)
	}

	logger.Info("Starting empires created", "empires", s.registry.Len(), "catalog_digest", s.catalog.Digest)
	return nil
}

func (s *Service) Registry() *Registry { return s.registry }

func (s *Service) List() []Summary {
	empires := s.registry.Ordered()
	out := make([]Summary, len(empires))
	for i, e := range empires {
		out[i] = e.Summary()
	}
	return out
}

// Get reads the live summary of one empire.
func (s *Service) Get(id int) (Summary, error) {
	e, err := s.registry.Get(id)
	if err != nil {
		return Summary{}, err
	}
	return e.Summary(), nil
}

// Published returns the summary from the last tick, as other services see it.
func (s *Service) Published(ctx context.Context, id int) (Summary, error) {
	if _, err := s.registry.Get(id); err != nil {
		return Summary{}, err
	}
	return s.cache.Get(ctx, id)
}

func (s *Service) UndiscoveredTechs(id int, category string) ([]*catalog.Technology, error) {
	e, err := s.registry.Get(id)
	if err != nil {
		return nil, err
	}
	return e.UndiscoveredTechs(catalog.ResearchCategory(category))
}

func (s *Service) Submit(ctx context.Context, id int, cmd Command) error {
	e, err := s.registry.Get(id)
	if err != nil {
		return err
	}
	return e.Submit(ctx, cmd)
}

func (s *Service) Snapshot(id int) (Snapshot, error) {
	e, err := s.registry.Get(id)
	if err != nil {
		return Snapshot{}, err
	}
	return e.Snapshot(), nil
}

// PersistedSnapshot decodes the newest stored snapshot of an empire and
// returns it with the tick it was taken on.
func (s *Service) PersistedSnapshot(ctx context.Context, id int) (Snapshot, int64, error) {
	if _, err := s.registry.Get(id); err != nil {
		return Snapshot{}, 0, err
	}
	if s.snapshots == nil {
		return Snapshot{}, 0, apperrors.WrapUnavailable("snapshots are not persisted", ErrNoPersistence)
	}

	enc, tick, err := s.snapshots.LatestSnapshot(ctx, id)
	if err != nil {
		return Snapshot{}, 0, err
	}
	snap, err := DecodeSnapshot(enc)
	if err != nil {
		s.logger.Error("Stored snapshot failed verification",
			"component", "empire_service", "operation", "persisted_snapshot",
			"empire_id", id, "tick", tick, "error", err)
		return Snapshot{}, 0, err
	}
	return snap, tick, nil
}
