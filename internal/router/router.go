package router

import (
	"github.com/gin-gonic/gin"
	"github.com/trackboard/backend/internal/handler"
	"github.com/trackboard/backend/internal/middleware"
	"github.com/trackboard/backend/internal/model"
	"github.com/trackboard/backend/internal/service"
	"github.com/trackboard/backend/pkg/token"
	"gorm.io/gorm"
)

type Deps struct {
	DB             *gorm.DB
	Tokens         *token.Manager
	ProjectService *service.ProjectService
	AuthHandler    *handler.AuthHandler
	ProjectHandler *handler.ProjectHandler
	BoardHandler   *handler.BoardHandler
	TicketHandler  *handler.TicketHandler
	CommentHandler *handler.CommentHandler
	EventsHandler  *handler.EventsHandler
}

// Setup wires the route tree. Every project-scoped route runs the explicit
// guard chain: access guard, then membership resolution, then (where the
// policy table demands it) a role gate; each step short-circuits on
// failure.
func Setup(r *gin.Engine, deps Deps) {
	r.Use(middleware.CORS())

	api := r.Group("/api/v1")

	auth := api.Group("/auth")
	{
		auth.POST("/register", deps.AuthHandler.Register)
		auth.POST("/login", deps.AuthHandler.Login)
		auth.POST("/refresh", middleware.Refresh(deps.Tokens, deps.DB), deps.AuthHandler.Refresh)
		auth.POST("/logout", middleware.Auth(deps.Tokens, deps.DB), deps.AuthHandler.Logout)
		auth.GET("/me", middleware.Auth(deps.Tokens, deps.DB), deps.AuthHandler.Me)
	}

	authed := api.Group("", middleware.Auth(deps.Tokens, deps.DB))
	{
		authed.POST("/projects", deps.ProjectHandler.Create)
		authed.GET("/projects", deps.ProjectHandler.List)
	}

	project := authed.Group("/projects/:id", middleware.ProjectAccess(deps.ProjectService))
	{
		project.GET("", deps.ProjectHandler.Get)
		project.PUT("", middleware.RequireProjectRole(model.RoleAdmin), deps.ProjectHandler.Update)
		project.PUT("/archive", middleware.RequireProjectRole(model.RoleOwner), deps.ProjectHandler.Archive)

		project.POST("/members", middleware.RequireProjectRole(model.RoleAdmin), deps.ProjectHandler.AddMember)
		project.PUT("/members/:user_id", middleware.RequireProjectRole(model.RoleAdmin), deps.ProjectHandler.UpdateMemberRole)
		// Removal rank depends on the target's role; the service decides.
		project.DELETE("/members/:user_id", deps.ProjectHandler.RemoveMember)

		project.GET("/board", deps.BoardHandler.Get)
		project.POST("/statuses", middleware.RequireProjectRole(model.RoleAdmin), deps.BoardHandler.CreateStatus)
		project.PUT("/statuses/:status_id", middleware.RequireProjectRole(model.RoleAdmin), deps.BoardHandler.UpdateStatus)
		project.DELETE("/statuses/:status_id", middleware.RequireProjectRole(model.RoleAdmin), deps.BoardHandler.DeleteStatus)

		project.POST("/tickets", deps.TicketHandler.Create)
		project.GET("/tickets", deps.TicketHandler.List)
		project.GET("/tickets/:number", deps.TicketHandler.Get)
		project.PATCH("/tickets/:number", deps.TicketHandler.Update)
		project.POST("/tickets/:number/move", deps.TicketHandler.Move)
		project.DELETE("/tickets/:number", deps.TicketHandler.Delete)

		project.POST("/tickets/:number/comments", deps.CommentHandler.Create)
		project.GET("/tickets/:number/comments", deps.CommentHandler.List)
		project.PATCH("/comments/:comment_id", deps.CommentHandler.Update)
		project.DELETE("/comments/:comment_id", deps.CommentHandler.Delete)

		project.GET("/events", deps.EventsHandler.Stream)
	}
}
