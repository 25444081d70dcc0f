package empire

import "errors"

var (
	ErrQueueFull         = errors.New("command inbox full")
	ErrEmpireUnavailable = errors.New("empire unavailable")
	ErrUnknownTechnology = errors.New("unknown technology")
	ErrUnknownCategory   = errors.New("unknown research category")
	ErrUnknownTheory     = errors.New("unknown practical theory")
	ErrAlreadyDiscovered = errors.New("technology already discovered")
	ErrEmpireNotFound    = errors.New("empire not found")
	ErrInvalidTransfer   = errors.New("invalid funds transfer")
	ErrSnapshotCorrupted = errors.New("snapshot hash mismatch")
	ErrNoPersistence     = errors.New("snapshot persistence disabled")
)
