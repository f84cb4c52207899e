package middlewares

import (
	"context"
	"time"

	"fixmyzone-be/config"
	"fixmyzone-be/models"
	"fixmyzone-be/utils"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// identityKey is where the resolved user is stored on the gin context.
const identityKey = "currentUser"

// RequireAuth rejects the request unless the bearer token resolves to
// an existing user. The resolved user (password excluded) is attached
// to the request context.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, appErr := resolveIdentity(c)
		if appErr != nil {
			utils.Fail(c, appErr)
			c.Abort()
			return
		}
		c.Set(identityKey, user)
		c.Next()
	}
}

// OptionalAuth resolves an identity when a valid token is present and
// lets the request through unauthenticated otherwise. Used by endpoints
// that personalize responses for logged-in users but stay public.
func OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if user, appErr := resolveIdentity(c); appErr == nil {
			c.Set(identityKey, user)
		}
		c.Next()
	}
}

// CurrentUser returns the identity attached by RequireAuth or
// OptionalAuth, or nil when the request is unauthenticated.
func CurrentUser(c *gin.Context) *models.User {
	if v, ok := c.Get(identityKey); ok {
		if user, ok := v.(*models.User); ok {
			return user
		}
	}
	return nil
}

func resolveIdentity(c *gin.Context) (*models.User, *utils.AppError) {
	raw, err := utils.ExtractBearerToken(c.Request.Header.Get("Authorization"))
	if err != nil {
		return nil, utils.NewAuthenticationError(err.Error())
	}

	userID, err := utils.VerifyToken(raw)
	if err != nil {
		return nil, utils.NewAuthenticationError(err.Error())
	}

	objectID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, utils.NewAuthenticationError("invalid authorization token")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var user models.User
	err = config.GetCollection("users").FindOne(
		ctx,
		bson.M{"_id": objectID},
		options.FindOne().SetProjection(bson.M{"password": 0}),
	).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, utils.NewAuthenticationError("account no longer exists")
		}
		return nil, utils.NewInternalError("failed to resolve user", err)
	}

	return &user, nil
}
