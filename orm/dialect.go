package orm

import (
	"fmt"
	"strconv"
	"strings"
)

// Dialect abstracts the SQL differences between MySQL and PostgreSQL.
type Dialect interface {
	// Placeholder returns the bind variable for the 1-based index.
	Placeholder(index int) string

	// QuoteIdent quotes a table or column name.
	QuoteIdent(name string) string

	// UseReturning reports whether inserts read the generated key back
	// through RETURNING instead of LastInsertId.
	UseReturning() bool

	// ReturningClause is appended to INSERT when UseReturning is true.
	ReturningClause(pk string) string

	// UpsertClause is appended to INSERT to update cols when a row with
	// the same primary key already exists.
	UpsertClause(pk string, cols []string) string
}

// MySQL is the Dialect for MySQL / MariaDB.
var MySQL Dialect = sqlDialect{name: "mysql", quote: "`"}

// PostgreSQL is the Dialect for PostgreSQL.
var PostgreSQL Dialect = sqlDialect{name: "postgres", quote: `"`, numbered: true}

type sqlDialect struct {
	name     string
	quote    string
	numbered bool // $1, $2, ... placeholders and RETURNING
}

func (d sqlDialect) String() string { return d.name }

func (d sqlDialect) Placeholder(index int) string {
	if d.numbered {
		return "$" + strconv.Itoa(index)
	}
	return "?"
}

func (d sqlDialect) QuoteIdent(name string) string { return d.quote + name + d.quote }

func (d sqlDialect) UseReturning() bool { return d.numbered }

func (d sqlDialect) ReturningClause(pk string) string {
	if !d.numbered {
		return ""
	}
	return " RETURNING " + d.QuoteIdent(pk)
}

func (d sqlDialect) UpsertClause(pk string, cols []string) string {
	sets := make([]string, len(cols))
	if d.numbered {
		for i, col := range cols {
			sets[i] = fmt.Sprintf("%s = EXCLUDED.%s", d.QuoteIdent(col), d.QuoteIdent(col))
		}
		return fmt.Sprintf(" ON CONFLICT (%s) DO UPDATE SET %s", d.QuoteIdent(pk), strings.Join(sets, ", "))
	}
	for i, col := range cols {
		sets[i] = fmt.Sprintf("%s = VALUES(%s)", d.QuoteIdent(col), d.QuoteIdent(col))
	}
	return " ON DUPLICATE KEY UPDATE " + strings.Join(sets, ", ")
}

// bindVars returns n comma-separated "?" bind variables.
func bindVars(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat("?, ", n-1) + "?"
}

// rebind rewrites the "?" bind variables in query for d.
func rebind(d Dialect, query string) string {
	if d.Placeholder(1) == "?" {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	idx := 1
	for i := range len(query) {
		if query[i] != '?' {
			b.WriteByte(query[i])
			continue
		}
		b.WriteString(d.Placeholder(idx))
		idx++
	}
	return b.String()
}
