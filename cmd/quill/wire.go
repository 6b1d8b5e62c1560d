//go:build wireinject
// +build wireinject

package main

import (
	"context"

	"github.com/google/wire"
	"github.com/mjacome/quill/internal/api"
	"github.com/mjacome/quill/internal/auth"
	"github.com/mjacome/quill/internal/database"
	"github.com/mjacome/quill/internal/service"
)

func initApp(ctx context.Context, cfg *config) (a *api.API, closer func(), err error) {
	wire.Build(
		initRepositoryConfig,
		database.NewRepositoryProvider,
		wire.FieldsOf(new(*database.Repositories), "Users", "Posts", "Comments"),
		initAuthConfig,
		auth.NewService,
		service.NewBlogService,
		api.NewHandlers,
		initApiConfig,
		api.NewApi,
	)
	return nil, nil, nil
}
