package models

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func testReporter() *User {
	return &User{
		ID:    primitive.NewObjectID(),
		Name:  "Asha Rao",
		Email: "asha@example.com",
		Role:  RoleUser,
	}
}

func testIssue(t *testing.T) *Issue {
	t.Helper()
	lat, lng := 19.07, 72.87
	input := CreateIssueInput{
		Title:       "Broken streetlight on 5th",
		Description: "The streetlight has been out for two weeks",
		Category:    "lighting",
		Location:    "5th Avenue, near the park entrance",
		Latitude:    &lat,
		Longitude:   &lng,
	}
	require.Nil(t, input.Validate())
	return NewIssue(input, testReporter())
}

func TestNewIssueDefaults(t *testing.T) {
	reporter := testReporter()
	lat, lng := 19.07, 72.87
	issue := NewIssue(CreateIssueInput{
		Title:       "Broken streetlight on 5th",
		Description: "The streetlight has been out for two weeks",
		Category:    "lighting",
		Location:    "5th Avenue",
		Latitude:    &lat,
		Longitude:   &lng,
	}, reporter)

	assert.Equal(t, StatusOpen, issue.Status)
	assert.Equal(t, PriorityMedium, issue.Priority)
	assert.Equal(t, 0, issue.UpvoteCount)
	assert.Equal(t, 0, issue.DownvoteCount)
	assert.Empty(t, issue.Upvoters)
	assert.Empty(t, issue.Downvoters)
	assert.Empty(t, issue.Comments)
	assert.Nil(t, issue.ResolvedDate)

	// reporter snapshot taken at creation
	assert.Equal(t, reporter.ID, issue.ReportedBy)
	assert.Equal(t, "Asha Rao", issue.ReporterName)
	assert.Equal(t, "asha@example.com", issue.ReporterEmail)
	assert.False(t, issue.ReportedDate.IsZero())
}

func TestCreateIssueInputValidate(t *testing.T) {
	lat, lng := 19.07, 72.87

	tests := []struct {
		name      string
		mutate    func(in *CreateIssueInput)
		wantField string
	}{
		{
			name:      "title too short",
			mutate:    func(in *CreateIssueInput) { in.Title = "Pipe" },
			wantField: "title",
		},
		{
			name:      "title too long",
			mutate:    func(in *CreateIssueInput) { in.Title = strings.Repeat("x", 101) },
			wantField: "title",
		},
		{
			name:      "description too short",
			mutate:    func(in *CreateIssueInput) { in.Description = "too short" },
			wantField: "description",
		},
		{
			name:      "unknown category",
			mutate:    func(in *CreateIssueInput) { in.Category = "aliens" },
			wantField: "category",
		},
		{
			name:      "missing latitude",
			mutate:    func(in *CreateIssueInput) { in.Latitude = nil },
			wantField: "latitude",
		},
		{
			name:      "missing longitude",
			mutate:    func(in *CreateIssueInput) { in.Longitude = nil },
			wantField: "longitude",
		},
		{
			name:      "unknown priority",
			mutate:    func(in *CreateIssueInput) { in.Priority = "urgent" },
			wantField: "priority",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := CreateIssueInput{
				Title:       "Broken streetlight on 5th",
				Description: "The streetlight has been out for two weeks",
				Category:    "lighting",
				Location:    "5th Avenue",
				Latitude:    &lat,
				Longitude:   &lng,
			}
			tt.mutate(&input)
			errs := input.Validate()
			require.NotNil(t, errs)
			assert.Contains(t, errs, tt.wantField)
		})
	}

	t.Run("valid input with coordinates at zero", func(t *testing.T) {
		zero := 0.0
		input := CreateIssueInput{
			Title:       "Broken streetlight on 5th",
			Description: "The streetlight has been out for two weeks",
			Category:    "lighting",
			Location:    "5th Avenue",
			Latitude:    &zero,
			Longitude:   &zero,
		}
		assert.Nil(t, input.Validate())
	})
}

func TestToggleUpvoteRoundTrip(t *testing.T) {
	issue := testIssue(t)
	userA := primitive.NewObjectID()

	action, upvotes := issue.ToggleUpvote(userA)
	assert.Equal(t, VoteActionUpvoted, action)
	assert.Equal(t, 1, upvotes)
	assert.True(t, issue.HasUpvoted(userA))

	action, upvotes = issue.ToggleUpvote(userA)
	assert.Equal(t, VoteActionRemoved, action)
	assert.Equal(t, 0, upvotes)
	assert.False(t, issue.HasUpvoted(userA))
	assert.Equal(t, 0, issue.UpvoteCount)
}

func TestUpvoteThenDownvote(t *testing.T) {
	issue := testIssue(t)
	userA := primitive.NewObjectID()

	issue.ToggleUpvote(userA)
	action, downvotes := issue.ToggleDownvote(userA)

	assert.Equal(t, VoteActionDownvoted, action)
	assert.Equal(t, 1, downvotes)
	assert.False(t, issue.HasUpvoted(userA))
	assert.True(t, issue.HasDownvoted(userA))
	assert.Equal(t, 0, issue.UpvoteCount)
	assert.Equal(t, 1, issue.DownvoteCount)
}

func TestVoteMutualExclusion(t *testing.T) {
	issue := testIssue(t)
	userA := primitive.NewObjectID()
	userB := primitive.NewObjectID()

	ops := []func(){
		func() { issue.ToggleUpvote(userA) },
		func() { issue.ToggleDownvote(userA) },
		func() { issue.ToggleDownvote(userB) },
		func() { issue.ToggleUpvote(userB) },
		func() { issue.ToggleUpvote(userA) },
		func() { issue.ToggleDownvote(userA) },
		func() { issue.ToggleDownvote(userA) },
		func() { issue.ToggleUpvote(userB) },
	}

	for i, op := range ops {
		op()
		for _, id := range []primitive.ObjectID{userA, userB} {
			assert.False(t, issue.HasUpvoted(id) && issue.HasDownvoted(id),
				"user in both voter sets after op %d", i)
		}
		assert.GreaterOrEqual(t, issue.UpvoteCount, 0, "upvote count negative after op %d", i)
		assert.GreaterOrEqual(t, issue.DownvoteCount, 0, "downvote count negative after op %d", i)
		assert.Equal(t, issue.UpvoteCount, len(issue.Upvoters))
		assert.Equal(t, issue.DownvoteCount, len(issue.Downvoters))
	}
}

func TestVoteCountFloorsAtZero(t *testing.T) {
	issue := testIssue(t)
	userA := primitive.NewObjectID()

	// Inconsistent state: member present with a zero tally. Removal must
	// not drive the count negative.
	issue.Upvoters = []primitive.ObjectID{userA}
	issue.UpvoteCount = 0

	action, upvotes := issue.ToggleUpvote(userA)
	assert.Equal(t, VoteActionRemoved, action)
	assert.Equal(t, 0, upvotes)
	assert.Equal(t, 0, issue.UpvoteCount)
}

func TestApplyPatchNonAdminIgnoresAdminFields(t *testing.T) {
	issue := testIssue(t)
	status := string(StatusResolved)
	notes := "crew dispatched"

	errs := issue.ApplyPatch(UpdateIssueInput{Status: &status, AdminNotes: &notes}, false)

	assert.Nil(t, errs)
	assert.Equal(t, StatusOpen, issue.Status)
	assert.Empty(t, issue.AdminNotes)
	assert.Nil(t, issue.ResolvedDate)
}

func TestApplyPatchAdminResolveStampsDate(t *testing.T) {
	issue := testIssue(t)
	status := string(StatusResolved)

	errs := issue.ApplyPatch(UpdateIssueInput{Status: &status}, true)
	require.Nil(t, errs)
	assert.Equal(t, StatusResolved, issue.Status)
	require.NotNil(t, issue.ResolvedDate)
	assert.False(t, issue.ResolvedDate.Before(issue.CreatedAt))

	// reopening keeps the resolution stamp
	stamped := *issue.ResolvedDate
	reopened := string(StatusOpen)
	errs = issue.ApplyPatch(UpdateIssueInput{Status: &reopened}, true)
	require.Nil(t, errs)
	assert.Equal(t, StatusOpen, issue.Status)
	require.NotNil(t, issue.ResolvedDate)
	assert.True(t, stamped.Equal(*issue.ResolvedDate))
}

func TestApplyPatchResolveTwiceKeepsFirstStamp(t *testing.T) {
	issue := testIssue(t)
	status := string(StatusResolved)

	require.Nil(t, issue.ApplyPatch(UpdateIssueInput{Status: &status}, true))
	first := *issue.ResolvedDate

	time.Sleep(5 * time.Millisecond)
	require.Nil(t, issue.ApplyPatch(UpdateIssueInput{Status: &status}, true))
	assert.True(t, first.Equal(*issue.ResolvedDate))
}

func TestApplyPatchOwnerFields(t *testing.T) {
	issue := testIssue(t)
	title := "Streetlight out near 5th and Main"
	priority := string(PriorityHigh)
	images := []string{"https://cdn.example.com/a.jpg"}
	lat := 20.0

	errs := issue.ApplyPatch(UpdateIssueInput{
		Title:    &title,
		Priority: &priority,
		Images:   &images,
		Latitude: &lat,
	}, false)

	assert.Nil(t, errs)
	assert.Equal(t, title, issue.Title)
	assert.Equal(t, PriorityHigh, issue.Priority)
	assert.Equal(t, images, issue.Images)
	assert.Equal(t, 20.0, issue.Latitude)
}

func TestApplyPatchValidationRejectsWithoutMutating(t *testing.T) {
	issue := testIssue(t)
	originalTitle := issue.Title
	badTitle := "tiny"
	badCategory := "aliens"

	errs := issue.ApplyPatch(UpdateIssueInput{Title: &badTitle, Category: &badCategory}, false)

	require.NotNil(t, errs)
	assert.Contains(t, errs, "title")
	assert.Contains(t, errs, "category")
	assert.Equal(t, originalTitle, issue.Title)
	assert.Equal(t, Lighting, issue.Category)
}

func TestAddComment(t *testing.T) {
	issue := testIssue(t)
	author := primitive.NewObjectID()

	comment, errs := issue.AddComment(author, "Asha Rao", "  seen this too, it is pitch dark  ")
	require.Nil(t, errs)
	assert.Equal(t, "seen this too, it is pitch dark", comment.Text)
	assert.Equal(t, author, comment.AuthorID)
	assert.Equal(t, "Asha Rao", comment.AuthorName)
	assert.False(t, comment.ID.IsZero())
	assert.Len(t, issue.Comments, 1)
}

func TestAddCommentRejectsEmptyAndOversized(t *testing.T) {
	issue := testIssue(t)
	author := primitive.NewObjectID()

	_, errs := issue.AddComment(author, "Asha Rao", "   ")
	require.NotNil(t, errs)
	assert.Contains(t, errs, "text")

	_, errs = issue.AddComment(author, "Asha Rao", strings.Repeat("a", 501))
	require.NotNil(t, errs)
	assert.Contains(t, errs, "text")

	assert.Empty(t, issue.Comments)
}

func TestFindAndRemoveComment(t *testing.T) {
	issue := testIssue(t)
	author := primitive.NewObjectID()

	comment, errs := issue.AddComment(author, "Asha Rao", "first")
	require.Nil(t, errs)
	_, errs = issue.AddComment(author, "Asha Rao", "second")
	require.Nil(t, errs)

	found := issue.FindComment(comment.ID)
	require.NotNil(t, found)
	assert.Equal(t, "first", found.Text)

	assert.True(t, issue.RemoveComment(comment.ID))
	assert.Len(t, issue.Comments, 1)
	assert.Nil(t, issue.FindComment(comment.ID))

	assert.False(t, issue.RemoveComment(primitive.NewObjectID()))
	assert.Len(t, issue.Comments, 1)
}
