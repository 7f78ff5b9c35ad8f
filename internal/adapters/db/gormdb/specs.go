package gormdb

import (
	"fmt"
	"strings"

	"github.com/atvirokodosprendimai/webbudget/internal/domain"
	"gorm.io/gorm"
)

// Specification is a composable query predicate, applied through gorm scopes.
type Specification = func(*gorm.DB) *gorm.DB

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// ContainsIgnoreCase matches rows where any column contains fragment,
// ignoring case. A blank fragment adds no predicate.
func ContainsIgnoreCase(fragment string, columns ...string) Specification {
	fragment = strings.TrimSpace(fragment)
	return func(db *gorm.DB) *gorm.DB {
		if fragment == "" || len(columns) == 0 {
			return db
		}
		pattern := "%" + likeEscaper.Replace(strings.ToLower(fragment)) + "%"
		clauses := make([]string, 0, len(columns))
		args := make([]any, 0, len(columns))
		for _, col := range columns {
			clauses = append(clauses, "LOWER("+col+") LIKE ? ESCAPE '\\'")
			args = append(args, pattern)
		}
		return db.Where("("+strings.Join(clauses, " OR ")+")", args...)
	}
}

// HasStatus restricts to the active flag selected by status; ALL is a no-op.
func HasStatus(status domain.StatusFilter) Specification {
	return func(db *gorm.DB) *gorm.DB {
		active := status.Active()
		if active == nil {
			return db
		}
		return db.Where("active = ?", *active)
	}
}

func CostCenterSpecs(f domain.CostCenterFilter) []Specification {
	return []Specification{
		ContainsIgnoreCase(f.Filter, "description"),
		HasStatus(f.Status),
	}
}

func UserSpecs(f domain.UserFilter) []Specification {
	return []Specification{
		ContainsIgnoreCase(f.Filter, "name", "email"),
		HasStatus(f.Status),
	}
}

func AuthoritySpecs(f domain.AuthorityFilter) []Specification {
	return []Specification{
		ContainsIgnoreCase(f.Filter, "name"),
	}
}

func orderClause(sorts []domain.Sort, columns map[string]string) (string, error) {
	parts := make([]string, 0, len(sorts)+1)
	for _, s := range sorts {
		col, ok := columns[s.Property]
		if !ok {
			return "", fmt.Errorf("%w: unknown sort property %q", domain.ErrInvalidInput, s.Property)
		}
		if s.Descending {
			parts = append(parts, col+" DESC")
		} else {
			parts = append(parts, col+" ASC")
		}
	}
	parts = append(parts, "id ASC")
	return strings.Join(parts, ", "), nil
}

// findPage counts the filtered rows, then loads one page of them. extra
// scopes only apply to the page query.
func findPage[M any](q *gorm.DB, page domain.PageRequest, sortColumns map[string]string, extra ...Specification) ([]M, int64, error) {
	order, err := orderClause(page.Sort, sortColumns)
	if err != nil {
		return nil, 0, err
	}

	q = q.Session(&gorm.Session{})
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	rows := make([]M, 0)
	if total == 0 {
		return rows, 0, nil
	}
	if err := q.Scopes(extra...).Order(order).Offset(page.Offset()).Limit(page.Size).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}
