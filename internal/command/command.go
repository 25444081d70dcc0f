// Package command holds the orders producers can submit to an empire and
// their JSON wire form.
package command

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"empires-server/internal/empire"
	apperrors "empires-server/internal/shared/errors"
)

var (
	ErrUnknownKind         = errors.New("unknown command kind")
	ErrMissingPrerequisite = errors.New("prerequisite not discovered")
	ErrDuplicateDesign     = errors.New("design name already used")
	ErrUnknownHullClass    = errors.New("unknown hull class")
	ErrUnknownPart         = errors.New("unknown part")
	ErrNotOwned            = errors.New("entity not owned by empire")
)

// Envelope is the wire form of a command.
type Envelope struct {
	Kind    string          `json:"kind"`
	Payload json.RawMessage `json:"payload"`
}

var factories = map[string]func() empire.Command{
	KindAdjustFunds:        func() empire.Command { return &AdjustFunds{} },
	KindResearchProgress:   func() empire.Command { return &ResearchProgress{} },
	KindDiscoverTechnology: func() empire.Command { return &DiscoverTechnology{} },
	KindTheoryProgress:     func() empire.Command { return &TheoryProgress{} },
	KindAddColony:          func() empire.Command { return &AddColony{} },
	KindRemoveColony:       func() empire.Command { return &RemoveColony{} },
	KindAddStation:         func() empire.Command { return &AddStation{} },
	KindRemoveStation:      func() empire.Command { return &RemoveStation{} },
	KindDesignPart:         func() empire.Command { return &DesignPart{} },
	KindDesignHull:         func() empire.Command { return &DesignHull{} },
}

// Kinds lists every kind Decode accepts, sorted.
func Kinds() []string {
	out := make([]string, 0, len(factories))
	for kind := range factories {
		out = append(out, kind)
	}
	sort.Strings(out)
	return out
}

// Decode parses an envelope into a command. Unknown kinds and unknown
// payload fields are validation errors.
func Decode(data []byte) (empire.Command, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, apperrors.WrapValidation("invalid command envelope", err)
	}

	factory, ok := factories[env.Kind]
	if !ok {
		return nil, apperrors.WrapValidation(fmt.Sprintf("command %q", env.Kind), ErrUnknownKind)
	}

	cmd := factory()
	if len(env.Payload) > 0 {
		dec := json.NewDecoder(bytes.NewReader(env.Payload))
		dec.DisallowUnknownFields()
		if err := dec.Decode(cmd); err != nil {
			return nil, apperrors.WrapValidation(fmt.Sprintf("invalid %s payload", env.Kind), err)
		}
	}
	return cmd, nil
}

// Encode wraps cmd in an envelope.
func Encode(cmd empire.Command) ([]byte, error) {
	payload, err := json.Marshal(cmd)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s payload: %w", cmd.Kind(), err)
	}
	return json.Marshal(Envelope{Kind: cmd.Kind(), Payload: payload})
}
