package repo

import (
	"context"

	"github.com/mickamy/ormproxy/example/model"
	"github.com/mickamy/ormproxy/example/query"
	"github.com/mickamy/ormproxy/orm"
	"github.com/mickamy/ormproxy/scope"
)

// UserRepository wraps generated query functions with a repository pattern.
type UserRepository struct {
	db orm.Querier
}

func NewUserRepository(db orm.Querier) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, u *model.User) error {
	return query.Users(r.db).Create(ctx, u)
}

func (r *UserRepository) FindByID(ctx context.Context, id int) (model.User, error) {
	return query.Users(r.db).Where("id = ?", id).First(ctx)
}

func (r *UserRepository) FindAll(ctx context.Context, scopes ...scope.Scope) ([]model.User, error) {
	return query.Users(r.db).Scopes(scopes...).OrderBy("id").All(ctx)
}

func (r *UserRepository) Update(ctx context.Context, u *model.User) error {
	return query.Users(r.db).Update(ctx, u)
}

func (r *UserRepository) Delete(ctx context.Context, id int) error {
	return query.Users(r.db).Where("id = ?", id).Delete(ctx)
}

// Posts returns u's posts as a lazy collection with the post extensions
// mixed in.
func (r *UserRepository) Posts(u *model.User) *orm.CollectionProxy[model.Post] {
	return query.UserPosts(r.db, u, postExtensions)
}
