package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Comment lives embedded in its parent issue and has no lifecycle of
// its own. AuthorName is a snapshot taken when the comment is written.
type Comment struct {
	ID         primitive.ObjectID `bson:"_id" json:"id"`
	AuthorID   primitive.ObjectID `bson:"authorId" json:"authorId"`
	AuthorName string             `bson:"authorName" json:"authorName"`
	Text       string             `bson:"text" json:"text"`
	CreatedAt  time.Time          `bson:"createdAt" json:"createdAt"`
}
