package domain

import (
	"fmt"
	"strings"
)

type StatusFilter string

const (
	StatusAll      StatusFilter = "ALL"
	StatusActive   StatusFilter = "ACTIVE"
	StatusInactive StatusFilter = "INACTIVE"
)

// ParseStatusFilter is case-insensitive; an empty value means ALL.
func ParseStatusFilter(raw string) (StatusFilter, error) {
	switch StatusFilter(strings.ToUpper(strings.TrimSpace(raw))) {
	case "", StatusAll:
		return StatusAll, nil
	case StatusActive:
		return StatusActive, nil
	case StatusInactive:
		return StatusInactive, nil
	default:
		return "", fmt.Errorf("%w: status %q", ErrInvalidInput, raw)
	}
}

// Active returns the active flag the filter restricts to, or nil for ALL.
func (s StatusFilter) Active() *bool {
	var v bool
	switch s {
	case StatusActive:
		v = true
	case StatusInactive:
		v = false
	default:
		return nil
	}
	return &v
}

type CostCenterFilter struct {
	Filter string
	Status StatusFilter
}

type UserFilter struct {
	Filter string
	Status StatusFilter
}

type AuthorityFilter struct {
	Filter string
}
