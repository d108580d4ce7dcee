package local

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

// SQLUserStore keeps users in a SQL table whose column names come from the
// strategy configuration.
type SQLUserStore struct {
	db     *bun.DB
	schema Schema
}

var _ UserStore = (*SQLUserStore)(nil)

func NewSQLUserStore(db *bun.DB, schema Schema) *SQLUserStore {
	return &SQLUserStore{db: db, schema: schema}
}

func (s *SQLUserStore) Schema() Schema {
	return s.schema
}

func (s *SQLUserStore) EnsureSchema(ctx context.Context) error {
	_, err := s.db.NewRaw(
		"CREATE TABLE IF NOT EXISTS ? (? VARCHAR(255) NOT NULL PRIMARY KEY, ? TEXT NOT NULL, ? TEXT NOT NULL)",
		bun.Ident(s.schema.Table),
		bun.Ident(s.schema.UsernameColumn),
		bun.Ident(s.schema.PasswordColumn),
		bun.Ident(s.schema.SaltColumn),
	).Exec(ctx)
	if err != nil {
		return NewStoreError(err, "ensure schema").
			WithMetadata(map[string]any{"table": s.schema.Table})
	}
	return nil
}

func (s *SQLUserStore) FindOne(ctx context.Context, username string) (*User, error) {
	var rows []map[string]any

	err := s.db.NewSelect().
		TableExpr("?", bun.Ident(s.schema.Table)).
		Where("? = ?", bun.Ident(s.schema.UsernameColumn), username).
		Limit(1).
		Scan(ctx, &rows)
	if err != nil {
		return nil, NewStoreError(err, "find").
			WithMetadata(map[string]any{"table": s.schema.Table})
	}

	if len(rows) == 0 {
		return nil, ErrUserNotFound.Clone().
			WithMetadata(map[string]any{"username": username})
	}

	return s.toUser(rows[0]), nil
}

func (s *SQLUserStore) Save(ctx context.Context, user *User) error {
	values := make(map[string]any, len(user.Extra)+3)
	for k, v := range user.Extra {
		if !s.schema.isAuthColumn(k) {
			values[k] = v
		}
	}
	values[s.schema.UsernameColumn] = user.Username
	values[s.schema.PasswordColumn] = user.PasswordHash
	values[s.schema.SaltColumn] = user.Salt

	_, err := s.db.NewInsert().
		Model(&values).
		TableExpr("?", bun.Ident(s.schema.Table)).
		Exec(ctx)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrUserExists.Clone().
				WithMetadata(map[string]any{"username": user.Username})
		}
		return NewStoreError(err, "save").
			WithMetadata(map[string]any{"table": s.schema.Table})
	}

	return nil
}

func (s *SQLUserStore) toUser(row map[string]any) *User {
	user := &User{
		Username:     toString(row[s.schema.UsernameColumn]),
		PasswordHash: toString(row[s.schema.PasswordColumn]),
		Salt:         toString(row[s.schema.SaltColumn]),
	}

	for k, v := range row {
		if s.schema.isAuthColumn(k) {
			continue
		}
		user.Set(k, v)
	}

	return user
}

func toString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case []byte:
		return string(val)
	default:
		return fmt.Sprint(val)
	}
}
