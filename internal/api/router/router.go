package router

import (
	"github.com/wb-go/wbf/ginext"

	"github.com/kimsangwoo/bizmsg/internal/api/handlers/dispatch"
	"github.com/kimsangwoo/bizmsg/internal/api/handlers/draft"
	"github.com/kimsangwoo/bizmsg/internal/api/handlers/template"
	"github.com/kimsangwoo/bizmsg/internal/middlewares"
)

func New(
	templateHandler *template.Handler,
	dispatchHandler *dispatch.Handler,
	draftHandler *draft.Handler,
) *ginext.Engine {
	e := ginext.New()
	e.Use(middlewares.CORSMiddleware())
	e.Use(ginext.Logger())
	e.Use(ginext.Recovery())

	templates := e.Group("/api/templates")
	{
		templates.POST("/", templateHandler.Create)
		templates.GET("/", templateHandler.List)
		templates.GET("/:id", templateHandler.Get)
		templates.DELETE("/:id", templateHandler.Delete)
		templates.POST("/:id/inspection", templateHandler.RequestInspection)
		templates.DELETE("/:id/inspection", templateHandler.CancelInspection)
		templates.POST("/:id/sync", templateHandler.Sync)
	}

	batches := e.Group("/api/dispatch")
	{
		batches.POST("/preview", dispatchHandler.Preview)
		batches.POST("/", dispatchHandler.Create)
		batches.GET("/:id", dispatchHandler.Get)
		batches.GET("/:id/status", dispatchHandler.GetStatus)
		batches.DELETE("/:id", dispatchHandler.Cancel)
	}

	drafts := e.Group("/api/drafts")
	{
		drafts.PUT("/:key", draftHandler.Save)
		drafts.GET("/:key", draftHandler.Load)
	}

	return e
}
