package model

import (
	"context"

	"github.com/mickamy/ormproxy/orm"
)

//go:generate go tool ormproxy -source=$GOFILE -destination=../query

type Post struct {
	ID        int
	UserID    int
	Title     string
	Body      string
	Published bool
	User      *User `rel:"belongs_to,foreign_key:user_id"`
}

// QueryMethods exposes named scopes that a user's posts collection forwards
// to its query without loading rows.
func (Post) QueryMethods() orm.QueryMethods[Post] {
	return orm.QueryMethods[Post]{
		"Published": func(_ context.Context, q *orm.Query[Post], _ ...any) (any, error) {
			return q.Where("published = ?", true), nil
		},
		"Drafts": func(_ context.Context, q *orm.Query[Post], _ ...any) (any, error) {
			return q.Where("published = ?", false), nil
		},
	}
}
