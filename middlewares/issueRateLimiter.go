package middlewares

import (
	"net/http"
	"os"
	"strconv"
	"time"

	"fixmyzone-be/config"
	"fixmyzone-be/utils"

	"github.com/gin-gonic/gin"
)

// SubmissionRateLimiter caps how many submissions (issues, comments) a
// user may make per day. Runs after RequireAuth. A nil Redis client
// disables the limit.
func SubmissionRateLimiter(limit int) gin.HandlerFunc {
	return func(c *gin.Context) {
		if config.RedisClient == nil {
			c.Next()
			return
		}

		user := CurrentUser(c)
		if user == nil {
			utils.Fail(c, utils.NewAuthenticationError("not authenticated"))
			c.Abort()
			return
		}

		queuePrefix := os.Getenv("REDIS_QUEUE_FOR_ISSUE_LIMIT")
		if queuePrefix == "" {
			queuePrefix = "fixmyzone:submissions"
		}

		ctx := config.Ctx
		userKey := queuePrefix + ":" + user.ID.Hex()

		count, err := config.RedisClient.Incr(ctx, userKey).Result()
		if err != nil {
			utils.Fail(c, utils.NewInternalError("rate limit check failed", err))
			c.Abort()
			return
		}

		// Set TTL only for the first increment (when count = 1)
		if count == 1 {
			if err := config.RedisClient.Expire(ctx, userKey, 24*time.Hour).Err(); err != nil {
				utils.Fail(c, utils.NewInternalError("rate limit check failed", err))
				c.Abort()
				return
			}
		}

		if count > int64(limit) {
			retryAfter, _ := config.RedisClient.TTL(ctx, userKey).Result()
			utils.Fail(c, &utils.AppError{
				Status:  http.StatusTooManyRequests,
				Code:    utils.CodeRateLimited,
				Message: "daily submission limit reached",
				Fields:  map[string]string{"retryAfterSeconds": strconv.Itoa(int(retryAfter.Seconds()))},
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
