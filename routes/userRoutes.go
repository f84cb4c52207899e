package routes

import (
	"fixmyzone-be/controllers"
	"fixmyzone-be/middlewares"

	"github.com/gin-gonic/gin"
)

// UserRoutes sets up the user profile routes
func UserRoutes(r *gin.Engine) {
	user := r.Group("/api/users")
	{
		user.GET("/me/issues", middlewares.RequireAuth(), controllers.GetMyIssues)
		user.GET("/me/votes", middlewares.RequireAuth(), controllers.GetMyVotedIssues)
		user.PUT("/:id", middlewares.RequireAuth(), controllers.UpdateUser)
	}
}
