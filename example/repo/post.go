package repo

import (
	"context"
	"fmt"
	"strings"

	"github.com/mickamy/ormproxy/example/model"
	"github.com/mickamy/ormproxy/orm"
)

var postExtensions = orm.Methods[model.Post]{
	"Titles": func(ctx context.Context, p *orm.CollectionProxy[model.Post], _ ...any) (any, error) {
		posts, err := p.ToSlice(ctx)
		if err != nil {
			return nil, err
		}
		titles := make([]string, len(posts))
		for i, post := range posts {
			titles[i] = post.Title
		}
		return titles, nil
	},
	"Search": func(_ context.Context, p *orm.CollectionProxy[model.Post], args ...any) (any, error) {
		var term string
		if len(args) == 1 {
			term, _ = args[0].(string)
		}
		if term == "" {
			return nil, fmt.Errorf("%w: Search wants a non-empty string", orm.ErrInvalidArgument)
		}
		return p.Where("title LIKE ?", "%"+strings.ReplaceAll(term, "%", `\%`)+"%"), nil
	},
}
