package command

import (
	"fmt"
	"strings"

	"empires-server/internal/empire"
	apperrors "empires-server/internal/shared/errors"
)

const (
	KindAddColony     = "add_colony"
	KindRemoveColony  = "remove_colony"
	KindAddStation    = "add_station"
	KindRemoveStation = "remove_station"
	KindDesignPart    = "design_part"
	KindDesignHull    = "design_hull"
)

type AddColony struct {
	Ref empire.EntityReference `json:"ref"`
}

func (c *AddColony) Kind() string { return KindAddColony }

func (c *AddColony) Apply(tx *empire.Tx) error {
	tx.Roster().AddColony(c.Ref)
	return nil
}

type RemoveColony struct {
	Ref empire.EntityReference `json:"ref"`
}

func (c *RemoveColony) Kind() string { return KindRemoveColony }

func (c *RemoveColony) Apply(tx *empire.Tx) error {
	if !tx.Roster().RemoveColony(c.Ref) {
		return apperrors.WrapNotFound(fmt.Sprintf("colony %+v", c.Ref), ErrNotOwned)
	}
	return nil
}

type AddStation struct {
	Ref empire.EntityReference `json:"ref"`
}

func (c *AddStation) Kind() string { return KindAddStation }

func (c *AddStation) Apply(tx *empire.Tx) error {
	tx.Roster().AddStation(c.Ref)
	return nil
}

type RemoveStation struct {
	Ref empire.EntityReference `json:"ref"`
}

func (c *RemoveStation) Kind() string { return KindRemoveStation }

func (c *RemoveStation) Apply(tx *empire.Tx) error {
	if !tx.Roster().RemoveStation(c.Ref) {
		return apperrors.WrapNotFound(fmt.Sprintf("station %+v", c.Ref), ErrNotOwned)
	}
	return nil
}

// DesignPart registers a new component design. Names are unique per empire.
type DesignPart struct {
	Part empire.Part `json:"part"`
}

func (c *DesignPart) Kind() string { return KindDesignPart }

func (c *DesignPart) Apply(tx *empire.Tx) error {
	if strings.TrimSpace(c.Part.Name) == "" {
		return apperrors.Validation("part name is required")
	}
	if c.Part.MassKG < 0 || c.Part.VolumeCM3 < 0 || c.Part.CrewRequirement < 0 {
		return apperrors.Validationf("part %q has negative dimensions", c.Part.Name)
	}
	if _, exists := tx.Roster().Part(c.Part.Name); exists {
		return apperrors.WrapValidation(fmt.Sprintf("part %q", c.Part.Name), ErrDuplicateDesign)
	}
	tx.Roster().AddPart(c.Part)
	return nil
}

// DesignHull registers a hull design. The class code must be known and every
// part must already be designed by the same empire.
type DesignHull struct {
	Name      string   `json:"name"`
	HullClass string   `json:"hull_class"`
	DesignDay int      `json:"design_day"`
	Parts     []string `json:"parts"`
}

func (c *DesignHull) Kind() string { return KindDesignHull }

func (c *DesignHull) Apply(tx *empire.Tx) error {
	if strings.TrimSpace(c.Name) == "" {
		return apperrors.Validation("hull name is required")
	}

	roster := tx.Roster()
	class, ok := roster.HullClass(c.HullClass)
	if !ok {
		return apperrors.WrapValidation(fmt.Sprintf("hull class %q", c.HullClass), ErrUnknownHullClass)
	}
	for _, h := range roster.ShipHulls() {
		if h.Name == c.Name {
			return apperrors.WrapValidation(fmt.Sprintf("hull %q", c.Name), ErrDuplicateDesign)
		}
	}
	for _, name := range c.Parts {
		if _, ok := roster.Part(name); !ok {
			return apperrors.WrapValidation(fmt.Sprintf("hull %q uses part %q", c.Name, name), ErrUnknownPart)
		}
	}

	roster.AddShipHull(empire.ShipHull{
		Name:      c.Name,
		HullClass: class,
		DesignDay: c.DesignDay,
		Parts:     c.Parts,
	})
	return nil
}
