package controllers

import (
	"context"
	"log"
	"net/http"
	"time"

	"fixmyzone-be/config"
	"fixmyzone-be/middlewares"
	"fixmyzone-be/models"
	"fixmyzone-be/utils"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func userCollection() *mongo.Collection {
	return config.GetCollection("users")
}

func profileResponse(user *models.User) gin.H {
	return gin.H{
		"id":        user.ID,
		"name":      user.Name,
		"email":     user.Email,
		"role":      user.Role,
		"createdAt": user.CreatedAt,
	}
}

// RegisterUser handles user registration
func RegisterUser(c *gin.Context) {
	var input struct {
		Name     string `json:"name" binding:"required,max=50"`
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required,min=6"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		utils.Fail(c, utils.NewValidationError(err.Error()))
		return
	}

	email := models.NormalizeEmail(input.Email)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	count, err := userCollection().CountDocuments(ctx, bson.M{"email": email})
	if err != nil {
		log.Println("Error checking existing user:", err)
		utils.Fail(c, utils.NewInternalError("something went wrong", err))
		return
	}
	if count > 0 {
		utils.Fail(c, utils.NewValidationError("user with this email already exists"))
		return
	}

	now := time.Now()
	user := models.User{
		Name:           input.Name,
		Email:          email,
		Password:       input.Password,
		Role:           models.RoleUser,
		ReportedIssues: []primitive.ObjectID{},
		VotedIssues:    []primitive.ObjectID{},
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := user.HashPassword(); err != nil {
		log.Println("Error hashing password:", err)
		utils.Fail(c, utils.NewInternalError("something went wrong", err))
		return
	}

	result, err := userCollection().InsertOne(ctx, user)
	if err != nil {
		log.Println("Error inserting user:", err)
		utils.Fail(c, utils.NewInternalError("something went wrong", err))
		return
	}
	user.ID = result.InsertedID.(primitive.ObjectID)

	utils.Success(c, http.StatusCreated, "registered successfully", profileResponse(&user))
}

// LoginUser verifies credentials and returns a bearer token
func LoginUser(c *gin.Context) {
	var input struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		utils.Fail(c, utils.NewValidationError(err.Error()))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var user models.User
	err := userCollection().FindOne(ctx, bson.M{"email": models.NormalizeEmail(input.Email)}).Decode(&user)
	if err != nil {
		utils.Fail(c, utils.NewAuthenticationError("invalid credentials"))
		return
	}

	if !user.ComparePassword(input.Password) {
		utils.Fail(c, utils.NewAuthenticationError("invalid credentials"))
		return
	}

	token, err := utils.GenerateToken(user.ID.Hex())
	if err != nil {
		log.Println("Error generating token:", err)
		utils.Fail(c, utils.NewInternalError("something went wrong", err))
		return
	}

	utils.Success(c, http.StatusOK, "logged in successfully", gin.H{
		"token": token,
		"user":  profileResponse(&user),
	})
}

// GetMe returns the authenticated user's profile
func GetMe(c *gin.Context) {
	user := middlewares.CurrentUser(c)
	if user == nil {
		utils.Fail(c, utils.NewAuthenticationError("not authenticated"))
		return
	}
	utils.Success(c, http.StatusOK, "", profileResponse(user))
}
