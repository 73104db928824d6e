package sqlstore

import (
	"strconv"
	"strings"
	"time"

	"github.com/ghuser/medshelf/pkg/database"
	"github.com/ghuser/medshelf/services/medicine/domain/models"
)

// sqliteTimeLayout is fixed-width so TEXT timestamps sort chronologically.
const sqliteTimeLayout = "2006-01-02T15:04:05.000000Z"

// dialect captures the few places PostgreSQL and SQLite SQL differ.
type dialect struct {
	name     string
	greatest string
	lower    string
	bindChar byte
}

var (
	postgresDialect = dialect{name: database.DriverPostgres, greatest: "GREATEST", lower: "lower", bindChar: '$'}
	sqliteDialect   = dialect{name: database.DriverSQLite, greatest: "MAX", lower: database.SQLiteLower, bindChar: '?'}
)

func dialectFor(driver string) dialect {
	if driver == database.DriverSQLite {
		return sqliteDialect
	}
	return postgresDialect
}

// bind returns the n-th (1-based) positional parameter.
func (d dialect) bind(n int) string {
	return string(d.bindChar) + strconv.Itoa(n)
}

func (d dialect) encodeTime(t time.Time) any {
	t = t.UTC()
	if d.name == database.DriverSQLite {
		return t.Format(sqliteTimeLayout)
	}
	return t
}

func (d dialect) encodeDate(date *models.Date) any {
	if date == nil {
		return nil
	}
	if d.name == database.DriverSQLite {
		return date.String()
	}
	return date.Time()
}

// argList accumulates positional arguments and hands out their placeholders.
type argList struct {
	d    dialect
	args []any
}

func (a *argList) add(v any) string {
	a.args = append(a.args, v)
	return a.d.bind(len(a.args))
}

var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

// searchClause matches term case-insensitively against name, brand and
// notes, folding non-ASCII letters too. It returns "" for a blank term.
func searchClause(a *argList, term string) string {
	term = strings.TrimSpace(term)
	if term == "" {
		return ""
	}
	p := a.add("%" + likeEscaper.Replace(strings.ToLower(term)) + "%")
	lower := a.d.lower
	return " WHERE (" + lower + "(name) LIKE " + p + " ESCAPE '!'" +
		" OR " + lower + "(COALESCE(brand, '')) LIKE " + p + " ESCAPE '!'" +
		" OR " + lower + "(COALESCE(notes, '')) LIKE " + p + " ESCAPE '!')"
}
