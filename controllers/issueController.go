package controllers

import (
	"context"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"fixmyzone-be/config"
	"fixmyzone-be/middlewares"
	"fixmyzone-be/models"
	"fixmyzone-be/utils"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func issueCollection() *mongo.Collection {
	return config.GetCollection("issues")
}

const (
	defaultPage  = 1
	defaultLimit = 50
	maxLimit     = 100
)

type listParams struct {
	Status   string
	Category string
	SortBy   string
	Page     int
	Limit    int
}

// parseListParams normalizes the list query string. Absent or
// non-numeric page/limit fall back to the defaults; filter values are
// lowercased before matching.
func parseListParams(q url.Values) listParams {
	p := listParams{
		Status:   strings.ToLower(strings.TrimSpace(q.Get("status"))),
		Category: strings.ToLower(strings.TrimSpace(q.Get("category"))),
		SortBy:   strings.ToLower(strings.TrimSpace(q.Get("sortBy"))),
		Page:     defaultPage,
		Limit:    defaultLimit,
	}
	if page, err := strconv.Atoi(q.Get("page")); err == nil && page >= 1 {
		p.Page = page
	}
	if limit, err := strconv.Atoi(q.Get("limit")); err == nil && limit >= 1 {
		if limit > maxLimit {
			limit = maxLimit
		}
		p.Limit = limit
	}
	switch p.SortBy {
	case "oldest", "votes":
	default:
		p.SortBy = "newest"
	}
	return p
}

func listFilter(p listParams) bson.M {
	filter := bson.M{}
	if p.Status != "" && p.Status != "all" {
		filter["status"] = p.Status
	}
	if p.Category != "" && p.Category != "all" {
		filter["category"] = p.Category
	}
	return filter
}

func listSort(p listParams) bson.D {
	switch p.SortBy {
	case "oldest":
		return bson.D{{Key: "createdAt", Value: 1}}
	case "votes":
		return bson.D{{Key: "upvoteCount", Value: -1}, {Key: "createdAt", Value: -1}}
	default:
		return bson.D{{Key: "createdAt", Value: -1}}
	}
}

// ListIssues handles retrieving issues with filtering, sorting and pagination
func ListIssues(c *gin.Context) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	p := parseListParams(c.Request.URL.Query())
	filter := listFilter(p)

	total, err := issueCollection().CountDocuments(ctx, filter)
	if err != nil {
		utils.Fail(c, utils.NewInternalError("failed to count issues", err))
		return
	}

	findOptions := options.Find().
		SetSort(listSort(p)).
		SetSkip(int64((p.Page - 1) * p.Limit)).
		SetLimit(int64(p.Limit))

	cursor, err := issueCollection().Find(ctx, filter, findOptions)
	if err != nil {
		utils.Fail(c, utils.NewInternalError("failed to retrieve issues", err))
		return
	}
	defer cursor.Close(ctx)

	var issues []models.Issue
	if err := cursor.All(ctx, &issues); err != nil {
		utils.Fail(c, utils.NewInternalError("failed to decode issues", err))
		return
	}

	// Per-user vote flags when a logged-in user browses the public list
	identity := middlewares.CurrentUser(c)

	type issueListItem struct {
		models.Issue
		HasUpvoted   bool `json:"hasUpvoted"`
		HasDownvoted bool `json:"hasDownvoted"`
	}

	items := make([]issueListItem, 0, len(issues))
	for _, issue := range issues {
		item := issueListItem{Issue: issue}
		if identity != nil {
			item.HasUpvoted = issue.HasUpvoted(identity.ID)
			item.HasDownvoted = issue.HasDownvoted(identity.ID)
		}
		items = append(items, item)
	}

	totalPages := int((total + int64(p.Limit) - 1) / int64(p.Limit))

	utils.Success(c, http.StatusOK, "", gin.H{
		"items":      items,
		"total":      total,
		"page":       p.Page,
		"totalPages": totalPages,
	})
}

func loadIssue(ctx context.Context, idParam string) (*models.Issue, *utils.AppError) {
	issueID, err := primitive.ObjectIDFromHex(idParam)
	if err != nil {
		return nil, utils.NewNotFoundError("issue not found")
	}

	var issue models.Issue
	err = issueCollection().FindOne(ctx, bson.M{"_id": issueID}).Decode(&issue)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, utils.NewNotFoundError("issue not found")
		}
		return nil, utils.NewInternalError("failed to retrieve issue", err)
	}
	return &issue, nil
}

func saveIssue(ctx context.Context, issue *models.Issue) *utils.AppError {
	_, err := issueCollection().ReplaceOne(ctx, bson.M{"_id": issue.ID}, issue)
	if err != nil {
		return utils.NewInternalError("failed to save issue", err)
	}
	return nil
}

// GetIssue retrieves a single issue by its ID
func GetIssue(c *gin.Context) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	issue, appErr := loadIssue(ctx, c.Param("id"))
	if appErr != nil {
		utils.Fail(c, appErr)
		return
	}

	utils.Success(c, http.StatusOK, "", issue)
}

// CreateIssue handles the creation of a new issue
func CreateIssue(c *gin.Context) {
	identity := middlewares.CurrentUser(c)
	if identity == nil {
		utils.Fail(c, utils.NewAuthenticationError("not authenticated"))
		return
	}

	var input models.CreateIssueInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.Fail(c, utils.NewValidationError(err.Error()))
		return
	}
	if fields := input.Validate(); fields != nil {
		utils.Fail(c, utils.NewValidationError("invalid issue").WithFields(fields))
		return
	}

	issue := models.NewIssue(input, identity)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := issueCollection().InsertOne(ctx, issue); err != nil {
		utils.Fail(c, utils.NewInternalError("failed to create issue", err))
		return
	}

	// Best-effort bookkeeping on the reporter's record; a failure here
	// is logged, never rolled back.
	_, err := userCollection().UpdateOne(ctx,
		bson.M{"_id": identity.ID},
		bson.M{"$addToSet": bson.M{"reportedIssues": issue.ID}},
	)
	if err != nil {
		log.Printf("failed to attach issue %s to user %s: %v", issue.ID.Hex(), identity.ID.Hex(), err)
	}

	utils.Success(c, http.StatusCreated, "issue reported", issue)
}

// UpdateIssue applies a field-scoped patch. Owners edit the issue
// content; status and admin notes only change when an admin sends them.
func UpdateIssue(c *gin.Context) {
	identity := middlewares.CurrentUser(c)

	var input models.UpdateIssueInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.Fail(c, utils.NewValidationError(err.Error()))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	issue, appErr := loadIssue(ctx, c.Param("id"))
	if appErr != nil {
		utils.Fail(c, appErr)
		return
	}

	if !utils.OwnerOrAdmin(identity, issue.ReportedBy) {
		utils.Fail(c, utils.NewAuthorizationError("you are not allowed to update this issue"))
		return
	}

	if fields := issue.ApplyPatch(input, utils.IsAdmin(identity)); fields != nil {
		utils.Fail(c, utils.NewValidationError("invalid update").WithFields(fields))
		return
	}

	if appErr := saveIssue(ctx, issue); appErr != nil {
		utils.Fail(c, appErr)
		return
	}

	utils.Success(c, http.StatusOK, "issue updated", issue)
}

// DeleteIssue removes an issue and detaches it from user bookkeeping
func DeleteIssue(c *gin.Context) {
	identity := middlewares.CurrentUser(c)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	issue, appErr := loadIssue(ctx, c.Param("id"))
	if appErr != nil {
		utils.Fail(c, appErr)
		return
	}

	if !utils.OwnerOrAdmin(identity, issue.ReportedBy) {
		utils.Fail(c, utils.NewAuthorizationError("you are not allowed to delete this issue"))
		return
	}

	if _, err := issueCollection().DeleteOne(ctx, bson.M{"_id": issue.ID}); err != nil {
		utils.Fail(c, utils.NewInternalError("failed to delete issue", err))
		return
	}

	// Best-effort detach from the owner's reported list and from every
	// voter's voted list. The issue is already gone; failures are logged.
	if _, err := userCollection().UpdateOne(ctx,
		bson.M{"_id": issue.ReportedBy},
		bson.M{"$pull": bson.M{"reportedIssues": issue.ID}},
	); err != nil {
		log.Printf("failed to detach issue %s from reporter %s: %v", issue.ID.Hex(), issue.ReportedBy.Hex(), err)
	}
	if _, err := userCollection().UpdateMany(ctx,
		bson.M{"votedIssues": issue.ID},
		bson.M{"$pull": bson.M{"votedIssues": issue.ID}},
	); err != nil {
		log.Printf("failed to detach issue %s from voter records: %v", issue.ID.Hex(), err)
	}

	utils.Success(c, http.StatusOK, "issue deleted", nil)
}

// syncVotedIssues mirrors an upvote onto the user's votedIssues list.
// Best-effort: the vote already landed on the issue document.
func syncVotedIssues(ctx context.Context, userID, issueID primitive.ObjectID, add bool) {
	op := "$pull"
	if add {
		op = "$addToSet"
	}
	_, err := userCollection().UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{op: bson.M{"votedIssues": issueID}},
	)
	if err != nil {
		log.Printf("failed to sync votedIssues for user %s: %v", userID.Hex(), err)
	}
}

// ToggleUpvote flips the caller's upvote on an issue
func ToggleUpvote(c *gin.Context) {
	identity := middlewares.CurrentUser(c)
	if identity == nil {
		utils.Fail(c, utils.NewAuthenticationError("not authenticated"))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	issue, appErr := loadIssue(ctx, c.Param("id"))
	if appErr != nil {
		utils.Fail(c, appErr)
		return
	}

	action, upvotes := issue.ToggleUpvote(identity.ID)
	issue.UpdatedAt = time.Now()

	if appErr := saveIssue(ctx, issue); appErr != nil {
		utils.Fail(c, appErr)
		return
	}

	syncVotedIssues(ctx, identity.ID, issue.ID, action == models.VoteActionUpvoted)

	utils.Success(c, http.StatusOK, "", gin.H{
		"action":  action,
		"upvotes": upvotes,
	})
}

// ToggleDownvote flips the caller's downvote on an issue
func ToggleDownvote(c *gin.Context) {
	identity := middlewares.CurrentUser(c)
	if identity == nil {
		utils.Fail(c, utils.NewAuthenticationError("not authenticated"))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	issue, appErr := loadIssue(ctx, c.Param("id"))
	if appErr != nil {
		utils.Fail(c, appErr)
		return
	}

	hadUpvote := issue.HasUpvoted(identity.ID)
	action, downvotes := issue.ToggleDownvote(identity.ID)
	issue.UpdatedAt = time.Now()

	if appErr := saveIssue(ctx, issue); appErr != nil {
		utils.Fail(c, appErr)
		return
	}

	// A downvote silently cleared a standing upvote; mirror that on the
	// user's voted list too.
	if hadUpvote {
		syncVotedIssues(ctx, identity.ID, issue.ID, false)
	}

	utils.Success(c, http.StatusOK, "", gin.H{
		"action":    action,
		"downvotes": downvotes,
	})
}

// AddComment appends a comment to an issue
func AddComment(c *gin.Context) {
	identity := middlewares.CurrentUser(c)
	if identity == nil {
		utils.Fail(c, utils.NewAuthenticationError("not authenticated"))
		return
	}

	var input struct {
		Text string `json:"text"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.Fail(c, utils.NewValidationError(err.Error()))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	issue, appErr := loadIssue(ctx, c.Param("id"))
	if appErr != nil {
		utils.Fail(c, appErr)
		return
	}

	comment, fields := issue.AddComment(identity.ID, identity.Name, input.Text)
	if fields != nil {
		utils.Fail(c, utils.NewValidationError("invalid comment").WithFields(fields))
		return
	}
	issue.UpdatedAt = time.Now()

	if appErr := saveIssue(ctx, issue); appErr != nil {
		utils.Fail(c, appErr)
		return
	}

	utils.Success(c, http.StatusCreated, "comment added", comment)
}

// DeleteComment removes a comment; only its author or an admin may do so
func DeleteComment(c *gin.Context) {
	identity := middlewares.CurrentUser(c)

	commentID, err := primitive.ObjectIDFromHex(c.Param("commentId"))
	if err != nil {
		utils.Fail(c, utils.NewNotFoundError("comment not found"))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	issue, appErr := loadIssue(ctx, c.Param("id"))
	if appErr != nil {
		utils.Fail(c, appErr)
		return
	}

	comment := issue.FindComment(commentID)
	if comment == nil {
		utils.Fail(c, utils.NewNotFoundError("comment not found"))
		return
	}

	if !utils.OwnerOrAdmin(identity, comment.AuthorID) {
		utils.Fail(c, utils.NewAuthorizationError("you are not allowed to delete this comment"))
		return
	}

	issue.RemoveComment(commentID)
	issue.UpdatedAt = time.Now()

	if appErr := saveIssue(ctx, issue); appErr != nil {
		utils.Fail(c, appErr)
		return
	}

	utils.Success(c, http.StatusOK, "comment deleted", nil)
}

// GetStatsSummary returns aggregate counts across all issues
func GetStatsSummary(c *gin.Context) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	groupPipeline := func(field string) []bson.M {
		return []bson.M{
			{"$group": bson.M{"_id": "$" + field, "count": bson.M{"$sum": 1}}},
			{"$project": bson.M{"name": "$_id", "value": "$count", "_id": 0}},
		}
	}

	byCategory := []bson.M{}
	cursor, err := issueCollection().Aggregate(ctx, groupPipeline("category"))
	if err != nil {
		utils.Fail(c, utils.NewInternalError("failed to aggregate categories", err))
		return
	}
	if err := cursor.All(ctx, &byCategory); err != nil {
		utils.Fail(c, utils.NewInternalError("failed to decode category stats", err))
		return
	}

	byStatus := []bson.M{}
	cursor, err = issueCollection().Aggregate(ctx, groupPipeline("status"))
	if err != nil {
		utils.Fail(c, utils.NewInternalError("failed to aggregate statuses", err))
		return
	}
	if err := cursor.All(ctx, &byStatus); err != nil {
		utils.Fail(c, utils.NewInternalError("failed to decode status stats", err))
		return
	}

	total, err := issueCollection().CountDocuments(ctx, bson.M{})
	if err != nil {
		utils.Fail(c, utils.NewInternalError("failed to count issues", err))
		return
	}

	resolved, err := issueCollection().CountDocuments(ctx, bson.M{"status": models.StatusResolved})
	if err != nil {
		utils.Fail(c, utils.NewInternalError("failed to count resolved issues", err))
		return
	}

	votePipeline := []bson.M{
		{"$group": bson.M{"_id": nil, "upvotes": bson.M{"$sum": "$upvoteCount"}}},
	}
	var voteTotals []struct {
		Upvotes int64 `bson:"upvotes"`
	}
	cursor, err = issueCollection().Aggregate(ctx, votePipeline)
	if err != nil {
		utils.Fail(c, utils.NewInternalError("failed to aggregate votes", err))
		return
	}
	if err := cursor.All(ctx, &voteTotals); err != nil {
		utils.Fail(c, utils.NewInternalError("failed to decode vote stats", err))
		return
	}
	var totalUpvotes int64
	if len(voteTotals) > 0 {
		totalUpvotes = voteTotals[0].Upvotes
	}

	utils.Success(c, http.StatusOK, "", gin.H{
		"total":        total,
		"open":         total - resolved,
		"resolved":     resolved,
		"byStatus":     byStatus,
		"byCategory":   byCategory,
		"totalUpvotes": totalUpvotes,
	})
}
