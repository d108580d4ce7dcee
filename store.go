package local

import (
	"database/sql"
	"strings"

	"github.com/jinzhu/inflection"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

// Schema names the table and columns a store reads and writes
type Schema struct {
	Table          string
	UsernameColumn string
	PasswordColumn string
	SaltColumn     string
}

// SchemaFromConfig derives the storage schema from the strategy config.
// Bracketed field paths store under their last segment, so "user[name]"
// maps to the "name" column.
func SchemaFromConfig(cfg Config) Schema {
	return Schema{
		Table:          TableName(cfg.ModelName),
		UsernameColumn: columnName(cfg.UsernameField),
		PasswordColumn: columnName(cfg.PasswordField),
		SaltColumn:     columnName(cfg.SaltField),
	}
}

// TableName pluralises the lower cased model name, "User" becomes "users"
func TableName(model string) string {
	model = strings.ToLower(strings.TrimSpace(model))
	if model == "" {
		return ""
	}
	return inflection.Plural(model)
}

func (s Schema) isAuthColumn(col string) bool {
	return col == s.UsernameColumn || col == s.PasswordColumn || col == s.SaltColumn
}

func columnName(field string) string {
	chain := fieldChain(field)
	if len(chain) == 0 {
		return ""
	}
	return chain[len(chain)-1]
}

// OpenSQLite opens a bun connection to a SQLite database. An empty dsn opens
// a private in-memory database.
func OpenSQLite(dsn string) (*bun.DB, error) {
	if dsn == "" {
		dsn = ":memory:"
	}

	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	if err != nil {
		return nil, err
	}

	// in-memory databases live and die with their connection
	sqldb.SetMaxOpenConns(1)

	return bun.NewDB(sqldb, sqlitedialect.New()), nil
}
