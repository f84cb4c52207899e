package controllers

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"
)

func query(t *testing.T, raw string) url.Values {
	t.Helper()
	q, err := url.ParseQuery(raw)
	assert.NoError(t, err)
	return q
}

func TestParseListParams(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want listParams
	}{
		{
			name: "defaults",
			raw:  "",
			want: listParams{SortBy: "newest", Page: 1, Limit: 50},
		},
		{
			name: "non-numeric page and limit fall back",
			raw:  "page=abc&limit=xyz",
			want: listParams{SortBy: "newest", Page: 1, Limit: 50},
		},
		{
			name: "negative page falls back",
			raw:  "page=-3&limit=0",
			want: listParams{SortBy: "newest", Page: 1, Limit: 50},
		},
		{
			name: "limit capped",
			raw:  "limit=5000",
			want: listParams{SortBy: "newest", Page: 1, Limit: 100},
		},
		{
			name: "filters are case-normalized",
			raw:  "status=Open&category=LIGHTING",
			want: listParams{Status: "open", Category: "lighting", SortBy: "newest", Page: 1, Limit: 50},
		},
		{
			name: "votes sort recognized",
			raw:  "sortBy=VOTES&page=3&limit=10",
			want: listParams{SortBy: "votes", Page: 3, Limit: 10},
		},
		{
			name: "unknown sort falls back to newest",
			raw:  "sortBy=magic",
			want: listParams{SortBy: "newest", Page: 1, Limit: 50},
		},
		{
			name: "oldest sort recognized",
			raw:  "sortBy=oldest",
			want: listParams{SortBy: "oldest", Page: 1, Limit: 50},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parseListParams(query(t, tt.raw)))
		})
	}
}

func TestListFilter(t *testing.T) {
	assert.Equal(t, bson.M{}, listFilter(listParams{}))
	assert.Equal(t, bson.M{}, listFilter(listParams{Status: "all", Category: "all"}))
	assert.Equal(t,
		bson.M{"status": "open", "category": "road"},
		listFilter(listParams{Status: "open", Category: "road"}),
	)
}

func TestListSort(t *testing.T) {
	assert.Equal(t,
		bson.D{{Key: "createdAt", Value: -1}},
		listSort(listParams{SortBy: "newest"}),
	)
	assert.Equal(t,
		bson.D{{Key: "createdAt", Value: 1}},
		listSort(listParams{SortBy: "oldest"}),
	)
	// votes ordering breaks ties by recency
	assert.Equal(t,
		bson.D{{Key: "upvoteCount", Value: -1}, {Key: "createdAt", Value: -1}},
		listSort(listParams{SortBy: "votes"}),
	)
}
