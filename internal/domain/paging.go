package domain

import (
	"fmt"
	"math"
	"strings"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 500
)

type Sort struct {
	Property   string
	Descending bool
}

// PageRequest is zero-based, like the page numbers exposed over HTTP.
type PageRequest struct {
	Page int
	Size int
	Sort []Sort
}

func (p PageRequest) Normalize() PageRequest {
	if p.Page < 0 {
		p.Page = 0
	}
	if p.Size <= 0 {
		p.Size = DefaultPageSize
	}
	if p.Size > MaxPageSize {
		p.Size = MaxPageSize
	}
	return p
}

// Validate rejects a normalized request whose offset does not fit an int.
func (p PageRequest) Validate() error {
	if p.Size > 0 && p.Page > math.MaxInt/p.Size {
		return fmt.Errorf("%w: page %d is out of range", ErrInvalidInput, p.Page)
	}
	return nil
}

func (p PageRequest) Offset() int {
	return p.Page * p.Size
}

// ParseSort reads "property[,asc|desc]" expressions.
func ParseSort(values []string) ([]Sort, error) {
	out := make([]Sort, 0, len(values))
	for _, raw := range values {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		parts := strings.Split(raw, ",")
		s := Sort{Property: strings.TrimSpace(parts[0])}
		if s.Property == "" || len(parts) > 2 {
			return nil, fmt.Errorf("%w: sort %q", ErrInvalidInput, raw)
		}
		if len(parts) == 2 {
			switch strings.ToLower(strings.TrimSpace(parts[1])) {
			case "asc":
			case "desc":
				s.Descending = true
			default:
				return nil, fmt.Errorf("%w: sort direction %q", ErrInvalidInput, parts[1])
			}
		}
		out = append(out, s)
	}
	return out, nil
}

type Page[T any] struct {
	Content       []T   `json:"content"`
	Number        int   `json:"number"`
	Size          int   `json:"size"`
	TotalElements int64 `json:"totalElements"`
	TotalPages    int   `json:"totalPages"`
	First         bool  `json:"first"`
	Last          bool  `json:"last"`
}

func NewPage[T any](content []T, req PageRequest, total int64) Page[T] {
	if content == nil {
		content = []T{}
	}
	pages := 0
	if req.Size > 0 {
		pages = int((total + int64(req.Size) - 1) / int64(req.Size))
	}
	return Page[T]{
		Content:       content,
		Number:        req.Page,
		Size:          req.Size,
		TotalElements: total,
		TotalPages:    pages,
		First:         req.Page == 0,
		Last:          req.Page >= pages-1,
	}
}

func MapPage[T, V any](p Page[T], fn func(T) V) Page[V] {
	content := make([]V, 0, len(p.Content))
	for _, item := range p.Content {
		content = append(content, fn(item))
	}
	return Page[V]{
		Content:       content,
		Number:        p.Number,
		Size:          p.Size,
		TotalElements: p.TotalElements,
		TotalPages:    p.TotalPages,
		First:         p.First,
		Last:          p.Last,
	}
}
