package querybuilder

import (
	"fmt"
	"strconv"
	"strings"
)

// Minimal postgres statement builder for the repository layer. It only
// covers what the repositories need: filtered selects and multi-row
// inserts with an upsert suffix. Placeholders are postgres-style $n.

type Condition struct {
	write func(buf *strings.Builder, args *[]any)
}

func Eq(column string, value any) Condition {
	return Condition{write: func(buf *strings.Builder, args *[]any) {
		*args = append(*args, value)
		buf.WriteString(column)
		buf.WriteString(" = $")
		buf.WriteString(strconv.Itoa(len(*args)))
	}}
}

// In matches any of the values. An empty value list matches nothing
// rather than everything.
func In(column string, values []any) Condition {
	return Condition{write: func(buf *strings.Builder, args *[]any) {
		if len(values) == 0 {
			buf.WriteString("1=0")
			return
		}
		buf.WriteString(column)
		buf.WriteString(" IN (")
		for idx, value := range values {
			if idx > 0 {
				buf.WriteString(", ")
			}
			*args = append(*args, value)
			buf.WriteString("$")
			buf.WriteString(strconv.Itoa(len(*args)))
		}
		buf.WriteString(")")
	}}
}

// Or groups conditions with OR, parenthesized.
func Or(conditions ...Condition) Condition {
	return Condition{write: func(buf *strings.Builder, args *[]any) {
		buf.WriteString("(")
		for idx, cond := range conditions {
			if idx > 0 {
				buf.WriteString(" OR ")
			}
			cond.write(buf, args)
		}
		buf.WriteString(")")
	}}
}

type SelectBuilder struct {
	columns []string
	table   string
	where   []Condition
	orderBy []string
	limit   int
}

func Select(columns ...string) *SelectBuilder {
	return &SelectBuilder{columns: append([]string(nil), columns...)}
}

func (b *SelectBuilder) From(table string) *SelectBuilder {
	b.table = table
	return b
}

func (b *SelectBuilder) Where(conditions ...Condition) *SelectBuilder {
	b.where = append(b.where, conditions...)
	return b
}

func (b *SelectBuilder) OrderBy(parts ...string) *SelectBuilder {
	b.orderBy = append(b.orderBy, parts...)
	return b
}

func (b *SelectBuilder) Limit(limit int) *SelectBuilder {
	b.limit = limit
	return b
}

func (b *SelectBuilder) ToSQL() (string, []any, error) {
	if len(b.columns) == 0 {
		return "", nil, fmt.Errorf("select columns are required")
	}
	if strings.TrimSpace(b.table) == "" {
		return "", nil, fmt.Errorf("select table is required")
	}

	var buf strings.Builder
	buf.WriteString("SELECT ")
	buf.WriteString(strings.Join(b.columns, ", "))
	buf.WriteString(" FROM ")
	buf.WriteString(b.table)

	args := make([]any, 0, len(b.where))
	for idx, cond := range b.where {
		if idx == 0 {
			buf.WriteString(" WHERE ")
		} else {
			buf.WriteString(" AND ")
		}
		cond.write(&buf, &args)
	}

	if len(b.orderBy) > 0 {
		buf.WriteString(" ORDER BY ")
		buf.WriteString(strings.Join(b.orderBy, ", "))
	}
	if b.limit > 0 {
		buf.WriteString(" LIMIT ")
		buf.WriteString(strconv.Itoa(b.limit))
	}

	return buf.String(), args, nil
}

type InsertBuilder struct {
	table   string
	columns []string
	rows    [][]any
	suffix  string
}

func InsertInto(table string) *InsertBuilder {
	return &InsertBuilder{table: table}
}

func (b *InsertBuilder) Columns(columns ...string) *InsertBuilder {
	b.columns = append([]string(nil), columns...)
	return b
}

func (b *InsertBuilder) Values(values ...any) *InsertBuilder {
	b.rows = append(b.rows, append([]any(nil), values...))
	return b
}

// Suffix appends raw SQL after the VALUES list, used for the
// ON CONFLICT upsert clauses. The suffix carries no bound arguments.
func (b *InsertBuilder) Suffix(sql string) *InsertBuilder {
	b.suffix = strings.TrimSpace(sql)
	return b
}

func (b *InsertBuilder) ToSQL() (string, []any, error) {
	if strings.TrimSpace(b.table) == "" {
		return "", nil, fmt.Errorf("insert table is required")
	}
	if len(b.columns) == 0 {
		return "", nil, fmt.Errorf("insert columns are required")
	}
	if len(b.rows) == 0 {
		return "", nil, fmt.Errorf("insert values are required")
	}

	var buf strings.Builder
	buf.WriteString("INSERT INTO ")
	buf.WriteString(b.table)
	buf.WriteString(" (")
	buf.WriteString(strings.Join(b.columns, ", "))
	buf.WriteString(") VALUES ")

	args := make([]any, 0, len(b.rows)*len(b.columns))
	for rowIdx, row := range b.rows {
		if len(row) != len(b.columns) {
			return "", nil, fmt.Errorf("insert row %d has %d values, expected %d", rowIdx, len(row), len(b.columns))
		}
		if rowIdx > 0 {
			buf.WriteString(", ")
		}
		buf.WriteString("(")
		for colIdx, value := range row {
			if colIdx > 0 {
				buf.WriteString(", ")
			}
			args = append(args, value)
			buf.WriteString("$")
			buf.WriteString(strconv.Itoa(len(args)))
		}
		buf.WriteString(")")
	}

	if b.suffix != "" {
		buf.WriteString(" ")
		buf.WriteString(b.suffix)
	}

	return buf.String(), args, nil
}
