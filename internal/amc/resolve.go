package amc

import (
	"errors"
	"fmt"
	"strconv"
)

var ErrNoMowers = errors.New("no mowers visible on this account")

// NotFoundError reports a selector that matched nothing.
type NotFoundError struct {
	What     string // "mower id", "mower name", "work area"
	Selector string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s '%s' not found", e.What, e.Selector)
}

// AmbiguousError reports that no selector was given and more than one
// mower exists. Callers are expected to print the candidates and exit
// with a distinguished status so scripts can detect the condition.
type AmbiguousError struct {
	Candidates []Mower
}

func (e *AmbiguousError) Error() string {
	return "multiple mowers found; choose one with --mower-id or --mower-name"
}

// Select resolves a user-supplied selector to one mower. An id match is
// tried first when an id was given, then an exact name match when a
// name was given; with neither, a sole mower selects itself and
// anything else is ambiguous.
func Select(mowers []Mower, id, name string) (*Mower, error) {
	if len(mowers) == 0 {
		return nil, ErrNoMowers
	}

	if id != "" {
		for i := range mowers {
			if mowers[i].ID == id {
				return &mowers[i], nil
			}
		}
		return nil, &NotFoundError{What: "mower id", Selector: id}
	}

	if name != "" {
		for i := range mowers {
			if mowers[i].Attributes.System.Name == name {
				return &mowers[i], nil
			}
		}
		return nil, &NotFoundError{What: "mower name", Selector: name}
	}

	if len(mowers) == 1 {
		return &mowers[0], nil
	}
	return nil, &AmbiguousError{Candidates: mowers}
}

// FindWorkArea resolves a work-area selector on one mower, matching by
// name first and then by stringified id.
func FindWorkArea(mower *Mower, nameOrID string) (*WorkArea, error) {
	areas := mower.Attributes.WorkAreas
	for i := range areas {
		if areas[i].Name == nameOrID {
			return &areas[i], nil
		}
	}
	for i := range areas {
		if strconv.FormatInt(areas[i].ID, 10) == nameOrID {
			return &areas[i], nil
		}
	}
	return nil, &NotFoundError{What: "work area", Selector: nameOrID}
}
