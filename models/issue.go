package models

import (
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// IssueCategory enum
type IssueCategory string

const (
	Lighting IssueCategory = "lighting"
	Road     IssueCategory = "road"
	Waste    IssueCategory = "waste"
	Water    IssueCategory = "water"
	Traffic  IssueCategory = "traffic"
	Safety   IssueCategory = "safety"
	Other    IssueCategory = "other"
)

// IssueStatus enum
type IssueStatus string

const (
	StatusOpen       IssueStatus = "open"
	StatusInProgress IssueStatus = "in progress"
	StatusResolved   IssueStatus = "resolved"
)

// IssuePriority enum
type IssuePriority string

const (
	PriorityLow    IssuePriority = "low"
	PriorityMedium IssuePriority = "medium"
	PriorityHigh   IssuePriority = "high"
)

func ValidCategory(s string) bool {
	switch IssueCategory(s) {
	case Lighting, Road, Waste, Water, Traffic, Safety, Other:
		return true
	}
	return false
}

func ValidStatus(s string) bool {
	switch IssueStatus(s) {
	case StatusOpen, StatusInProgress, StatusResolved:
		return true
	}
	return false
}

func ValidPriority(s string) bool {
	switch IssuePriority(s) {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

const (
	titleMinLen      = 5
	titleMaxLen      = 100
	descriptionMin   = 10
	descriptionMax   = 1000
	adminNotesMaxLen = 500
	commentMaxLen    = 500
)

// Issue is the aggregate for a reported civic problem. Vote counts,
// voter sets and embedded comments may only be changed through the
// mutation methods below; handlers load the document, mutate it here
// and write the whole state back.
type Issue struct {
	ID            primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Title         string               `bson:"title" json:"title"`
	Description   string               `bson:"description" json:"description"`
	Category      IssueCategory        `bson:"category" json:"category"`
	Location      string               `bson:"location" json:"location"`
	Latitude      float64              `bson:"latitude" json:"latitude"`
	Longitude     float64              `bson:"longitude" json:"longitude"`
	Status        IssueStatus          `bson:"status" json:"status"`
	Priority      IssuePriority        `bson:"priority" json:"priority"`
	Images        []string             `bson:"images" json:"images"`
	AdminNotes    string               `bson:"adminNotes" json:"adminNotes"`
	UpvoteCount   int                  `bson:"upvoteCount" json:"upvoteCount"`
	Upvoters      []primitive.ObjectID `bson:"upvoters" json:"-"`
	DownvoteCount int                  `bson:"downvoteCount" json:"downvoteCount"`
	Downvoters    []primitive.ObjectID `bson:"downvoters" json:"-"`
	Comments      []Comment            `bson:"comments" json:"comments"`
	ReportedBy    primitive.ObjectID   `bson:"reportedBy" json:"reportedBy"`
	ReporterName  string               `bson:"reporterName" json:"reporterName"`
	ReporterEmail string               `bson:"reporterEmail" json:"reporterEmail"`
	ReportedDate  time.Time            `bson:"reportedDate" json:"reportedDate"`
	ResolvedDate  *time.Time           `bson:"resolvedDate,omitempty" json:"resolvedDate,omitempty"`
	CreatedAt     time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time            `bson:"updatedAt" json:"updatedAt"`
}

// CreateIssueInput is the request body for issue creation. Latitude and
// longitude are pointers so that binding can tell "missing" apart from 0.
type CreateIssueInput struct {
	Title       string   `json:"title" binding:"required"`
	Description string   `json:"description" binding:"required"`
	Category    string   `json:"category" binding:"required"`
	Location    string   `json:"location" binding:"required,max=200"`
	Latitude    *float64 `json:"latitude" binding:"required"`
	Longitude   *float64 `json:"longitude" binding:"required"`
	Images      []string `json:"images"`
	Priority    string   `json:"priority"`
}

// Validate returns field-level validation errors, or nil when the input
// is acceptable.
func (in *CreateIssueInput) Validate() map[string]string {
	errs := map[string]string{}
	if n := len(strings.TrimSpace(in.Title)); n < titleMinLen || n > titleMaxLen {
		errs["title"] = fmt.Sprintf("title must be between %d and %d characters", titleMinLen, titleMaxLen)
	}
	if n := len(strings.TrimSpace(in.Description)); n < descriptionMin || n > descriptionMax {
		errs["description"] = fmt.Sprintf("description must be between %d and %d characters", descriptionMin, descriptionMax)
	}
	if !ValidCategory(in.Category) {
		errs["category"] = "category must be one of lighting, road, waste, water, traffic, safety, other"
	}
	if in.Latitude == nil {
		errs["latitude"] = "latitude is required"
	}
	if in.Longitude == nil {
		errs["longitude"] = "longitude is required"
	}
	if in.Priority != "" && !ValidPriority(in.Priority) {
		errs["priority"] = "priority must be one of low, medium, high"
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

// NewIssue builds a fresh issue from validated input. The reporter's
// name and email are snapshotted here and never synced with later
// profile edits.
func NewIssue(in CreateIssueInput, reporter *User) *Issue {
	now := time.Now()
	priority := PriorityMedium
	if in.Priority != "" {
		priority = IssuePriority(in.Priority)
	}
	images := in.Images
	if images == nil {
		images = []string{}
	}
	return &Issue{
		ID:            primitive.NewObjectID(),
		Title:         strings.TrimSpace(in.Title),
		Description:   strings.TrimSpace(in.Description),
		Category:      IssueCategory(in.Category),
		Location:      in.Location,
		Latitude:      *in.Latitude,
		Longitude:     *in.Longitude,
		Status:        StatusOpen,
		Priority:      priority,
		Images:        images,
		Upvoters:      []primitive.ObjectID{},
		Downvoters:    []primitive.ObjectID{},
		Comments:      []Comment{},
		ReportedBy:    reporter.ID,
		ReporterName:  reporter.Name,
		ReporterEmail: reporter.Email,
		ReportedDate:  now,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// UpdateIssueInput is a partial patch; nil fields are left untouched.
// Status and AdminNotes only apply when the actor is an admin.
type UpdateIssueInput struct {
	Title       *string   `json:"title"`
	Description *string   `json:"description"`
	Category    *string   `json:"category"`
	Location    *string   `json:"location"`
	Latitude    *float64  `json:"latitude"`
	Longitude   *float64  `json:"longitude"`
	Images      *[]string `json:"images"`
	Priority    *string   `json:"priority"`
	Status      *string   `json:"status"`
	AdminNotes  *string   `json:"adminNotes"`
}

// ApplyPatch applies the owner-editable fields, and the admin-only
// fields when isAdmin is set. Admin-only fields sent by a non-admin are
// dropped without error. Moving into resolved status stamps
// ResolvedDate; moving back out of resolved leaves the stamp in place.
// Returns field-level validation errors, or nil on success.
func (i *Issue) ApplyPatch(in UpdateIssueInput, isAdmin bool) map[string]string {
	errs := map[string]string{}

	if in.Title != nil {
		if n := len(strings.TrimSpace(*in.Title)); n < titleMinLen || n > titleMaxLen {
			errs["title"] = fmt.Sprintf("title must be between %d and %d characters", titleMinLen, titleMaxLen)
		}
	}
	if in.Description != nil {
		if n := len(strings.TrimSpace(*in.Description)); n < descriptionMin || n > descriptionMax {
			errs["description"] = fmt.Sprintf("description must be between %d and %d characters", descriptionMin, descriptionMax)
		}
	}
	if in.Category != nil && !ValidCategory(*in.Category) {
		errs["category"] = "invalid category"
	}
	if in.Priority != nil && !ValidPriority(*in.Priority) {
		errs["priority"] = "invalid priority"
	}
	if isAdmin {
		if in.Status != nil && !ValidStatus(*in.Status) {
			errs["status"] = "status must be one of open, in progress, resolved"
		}
		if in.AdminNotes != nil && len(*in.AdminNotes) > adminNotesMaxLen {
			errs["adminNotes"] = fmt.Sprintf("admin notes must be at most %d characters", adminNotesMaxLen)
		}
	}
	if len(errs) > 0 {
		return errs
	}

	if in.Title != nil {
		i.Title = strings.TrimSpace(*in.Title)
	}
	if in.Description != nil {
		i.Description = strings.TrimSpace(*in.Description)
	}
	if in.Category != nil {
		i.Category = IssueCategory(*in.Category)
	}
	if in.Location != nil {
		i.Location = *in.Location
	}
	if in.Latitude != nil {
		i.Latitude = *in.Latitude
	}
	if in.Longitude != nil {
		i.Longitude = *in.Longitude
	}
	if in.Images != nil {
		i.Images = *in.Images
	}
	if in.Priority != nil {
		i.Priority = IssuePriority(*in.Priority)
	}
	if isAdmin {
		if in.Status != nil {
			next := IssueStatus(*in.Status)
			if next == StatusResolved && i.Status != StatusResolved {
				now := time.Now()
				i.ResolvedDate = &now
			}
			i.Status = next
		}
		if in.AdminNotes != nil {
			i.AdminNotes = *in.AdminNotes
		}
	}
	i.UpdatedAt = time.Now()
	return nil
}

// Vote toggle outcomes.
const (
	VoteActionUpvoted   = "upvoted"
	VoteActionDownvoted = "downvoted"
	VoteActionRemoved   = "removed"
)

func (i *Issue) HasUpvoted(userID primitive.ObjectID) bool {
	return containsID(i.Upvoters, userID)
}

func (i *Issue) HasDownvoted(userID primitive.ObjectID) bool {
	return containsID(i.Downvoters, userID)
}

// ToggleUpvote clears any standing downvote first, then toggles the
// user's upvote. A user id is never present in both voter sets. The
// opposite-vote removal is silent; only the upvote outcome is reported.
func (i *Issue) ToggleUpvote(userID primitive.ObjectID) (string, int) {
	if removed, rest := removeID(i.Downvoters, userID); removed {
		i.Downvoters = rest
		i.DownvoteCount = floorDec(i.DownvoteCount)
	}
	if removed, rest := removeID(i.Upvoters, userID); removed {
		i.Upvoters = rest
		i.UpvoteCount = floorDec(i.UpvoteCount)
		return VoteActionRemoved, i.UpvoteCount
	}
	i.Upvoters = append(i.Upvoters, userID)
	i.UpvoteCount++
	return VoteActionUpvoted, i.UpvoteCount
}

// ToggleDownvote is the mirror image of ToggleUpvote.
func (i *Issue) ToggleDownvote(userID primitive.ObjectID) (string, int) {
	if removed, rest := removeID(i.Upvoters, userID); removed {
		i.Upvoters = rest
		i.UpvoteCount = floorDec(i.UpvoteCount)
	}
	if removed, rest := removeID(i.Downvoters, userID); removed {
		i.Downvoters = rest
		i.DownvoteCount = floorDec(i.DownvoteCount)
		return VoteActionRemoved, i.DownvoteCount
	}
	i.Downvoters = append(i.Downvoters, userID)
	i.DownvoteCount++
	return VoteActionDownvoted, i.DownvoteCount
}

// AddComment trims and validates the text, then appends a comment with
// a fresh id. The author name is snapshotted at write time.
func (i *Issue) AddComment(authorID primitive.ObjectID, authorName, text string) (*Comment, map[string]string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, map[string]string{"text": "comment text must not be empty"}
	}
	if len(text) > commentMaxLen {
		return nil, map[string]string{"text": fmt.Sprintf("comment text must be at most %d characters", commentMaxLen)}
	}
	comment := Comment{
		ID:         primitive.NewObjectID(),
		AuthorID:   authorID,
		AuthorName: authorName,
		Text:       text,
		CreatedAt:  time.Now(),
	}
	i.Comments = append(i.Comments, comment)
	return &i.Comments[len(i.Comments)-1], nil
}

// FindComment returns the comment with the given id, or nil.
func (i *Issue) FindComment(commentID primitive.ObjectID) *Comment {
	for idx := range i.Comments {
		if i.Comments[idx].ID == commentID {
			return &i.Comments[idx]
		}
	}
	return nil
}

// RemoveComment deletes the comment with the given id, reporting
// whether it was present.
func (i *Issue) RemoveComment(commentID primitive.ObjectID) bool {
	for idx := range i.Comments {
		if i.Comments[idx].ID == commentID {
			i.Comments = append(i.Comments[:idx], i.Comments[idx+1:]...)
			return true
		}
	}
	return false
}

func containsID(ids []primitive.ObjectID, id primitive.ObjectID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func removeID(ids []primitive.ObjectID, id primitive.ObjectID) (bool, []primitive.ObjectID) {
	for idx, v := range ids {
		if v == id {
			return true, append(ids[:idx], ids[idx+1:]...)
		}
	}
	return false, ids
}

func floorDec(n int) int {
	if n <= 0 {
		return 0
	}
	return n - 1
}
