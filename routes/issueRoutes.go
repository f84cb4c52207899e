package routes

import (
	"fixmyzone-be/controllers"
	"fixmyzone-be/middlewares"

	"github.com/gin-gonic/gin"
)

const dailySubmissionLimit = 20

// IssueRoutes sets up the issue routes
func IssueRoutes(r *gin.Engine) {
	issue := r.Group("/api/issues")
	{
		issue.GET("", middlewares.OptionalAuth(), controllers.ListIssues)
		issue.GET("/stats/summary", controllers.GetStatsSummary)
		issue.GET("/:id", controllers.GetIssue)
		issue.POST("", middlewares.RequireAuth(), middlewares.SubmissionRateLimiter(dailySubmissionLimit), controllers.CreateIssue)
		issue.PUT("/:id", middlewares.RequireAuth(), controllers.UpdateIssue)
		issue.DELETE("/:id", middlewares.RequireAuth(), controllers.DeleteIssue)
		issue.POST("/:id/upvote", middlewares.RequireAuth(), controllers.ToggleUpvote)
		issue.POST("/:id/downvote", middlewares.RequireAuth(), controllers.ToggleDownvote)
		issue.POST("/:id/comments", middlewares.RequireAuth(), middlewares.SubmissionRateLimiter(dailySubmissionLimit), controllers.AddComment)
		issue.DELETE("/:id/comments/:commentId", middlewares.RequireAuth(), controllers.DeleteComment)
	}
}
