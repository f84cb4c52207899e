package controllers

import (
	"context"
	"log"
	"net/http"
	"time"

	"fixmyzone-be/middlewares"
	"fixmyzone-be/models"
	"fixmyzone-be/utils"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// UpdateUser edits a profile. A user may edit themselves; an admin may
// edit anyone. Role changes are admin-only and dropped otherwise.
func UpdateUser(c *gin.Context) {
	identity := middlewares.CurrentUser(c)

	targetID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		utils.Fail(c, utils.NewNotFoundError("user not found"))
		return
	}

	if !utils.SelfOrAdmin(identity, targetID) {
		utils.Fail(c, utils.NewAuthorizationError("you are not allowed to update this user"))
		return
	}

	var input struct {
		Name  *string `json:"name"`
		Email *string `json:"email"`
		Role  *string `json:"role"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.Fail(c, utils.NewValidationError(err.Error()))
		return
	}

	update := bson.M{"updatedAt": time.Now()}
	if input.Name != nil {
		if *input.Name == "" || len(*input.Name) > 50 {
			utils.Fail(c, utils.NewValidationError("name must be between 1 and 50 characters"))
			return
		}
		update["name"] = *input.Name
	}
	if input.Email != nil {
		email := models.NormalizeEmail(*input.Email)
		if email == "" {
			utils.Fail(c, utils.NewValidationError("email must not be empty"))
			return
		}
		update["email"] = email
	}
	if input.Role != nil && utils.IsAdmin(identity) {
		role := models.UserRole(*input.Role)
		if role != models.RoleUser && role != models.RoleAdmin {
			utils.Fail(c, utils.NewValidationError("role must be user or admin"))
			return
		}
		update["role"] = role
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if email, ok := update["email"]; ok {
		count, err := userCollection().CountDocuments(ctx, bson.M{
			"email": email,
			"_id":   bson.M{"$ne": targetID},
		})
		if err != nil {
			utils.Fail(c, utils.NewInternalError("something went wrong", err))
			return
		}
		if count > 0 {
			utils.Fail(c, utils.NewValidationError("user with this email already exists"))
			return
		}
	}

	var updated models.User
	err = userCollection().FindOneAndUpdate(ctx,
		bson.M{"_id": targetID},
		bson.M{"$set": update},
	).Decode(&updated)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			utils.Fail(c, utils.NewNotFoundError("user not found"))
			return
		}
		utils.Fail(c, utils.NewInternalError("failed to update user", err))
		return
	}

	utils.Success(c, http.StatusOK, "profile updated", nil)
}

// GetMyIssues lists the authenticated user's reported issues
func GetMyIssues(c *gin.Context) {
	identity := middlewares.CurrentUser(c)
	if identity == nil {
		utils.Fail(c, utils.NewAuthenticationError("not authenticated"))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cursor, err := issueCollection().Find(ctx, bson.M{"reportedBy": identity.ID})
	if err != nil {
		utils.Fail(c, utils.NewInternalError("failed to retrieve issues", err))
		return
	}
	defer cursor.Close(ctx)

	issues := []models.Issue{}
	if err := cursor.All(ctx, &issues); err != nil {
		utils.Fail(c, utils.NewInternalError("failed to decode issues", err))
		return
	}

	utils.Success(c, http.StatusOK, "", issues)
}

// GetMyVotedIssues lists the issues the authenticated user has upvoted.
// The voter sets on the issues are the source of truth, not the
// votedIssues mirror on the user record.
func GetMyVotedIssues(c *gin.Context) {
	identity := middlewares.CurrentUser(c)
	if identity == nil {
		utils.Fail(c, utils.NewAuthenticationError("not authenticated"))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cursor, err := issueCollection().Find(ctx, bson.M{"upvoters": identity.ID})
	if err != nil {
		utils.Fail(c, utils.NewInternalError("failed to retrieve issues", err))
		return
	}
	defer cursor.Close(ctx)

	issues := []models.Issue{}
	if err := cursor.All(ctx, &issues); err != nil {
		utils.Fail(c, utils.NewInternalError("failed to decode issues", err))
		return
	}

	if len(issues) != len(identity.VotedIssues) {
		log.Printf("votedIssues mirror out of sync for user %s (%d recorded, %d actual)",
			identity.ID.Hex(), len(identity.VotedIssues), len(issues))
	}

	utils.Success(c, http.StatusOK, "", issues)
}
