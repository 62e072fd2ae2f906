package repository

import (
	"fmt"
	"strings"
)

// scanner is satisfied by both pgx.Row and pgx.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// conditions accumulates WHERE clauses with positional arguments.
type conditions struct {
	clauses []string
	args    []any
}

// arg appends v and returns its placeholder.
func (c *conditions) arg(v any) string {
	c.args = append(c.args, v)
	return fmt.Sprintf("$%d", len(c.args))
}

// add appends a clause built from the given placeholders.
func (c *conditions) add(clause string) {
	c.clauses = append(c.clauses, clause)
}

// search adds a case-insensitive substring match over columns.
func (c *conditions) search(term string, columns ...string) {
	term = strings.TrimSpace(term)
	if term == "" {
		return
	}
	p := c.arg("%" + escapeLike(term) + "%")
	parts := make([]string, 0, len(columns))
	for _, col := range columns {
		parts = append(parts, col+" ILIKE "+p)
	}
	c.add("(" + strings.Join(parts, " OR ") + ")")
}

// where renders the clauses, or an empty string when there are none.
func (c *conditions) where() string {
	if len(c.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(c.clauses, " AND ")
}

// page appends LIMIT/OFFSET arguments and returns the clause.
func (c *conditions) page(limit, offset int) string {
	return fmt.Sprintf(" LIMIT %s OFFSET %s", c.arg(limit), c.arg(offset))
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
