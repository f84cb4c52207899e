package utils

import (
	"testing"

	"fixmyzone-be/models"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestPolicies(t *testing.T) {
	ownerID := primitive.NewObjectID()
	otherID := primitive.NewObjectID()

	owner := &models.User{ID: ownerID, Role: models.RoleUser}
	stranger := &models.User{ID: otherID, Role: models.RoleUser}
	admin := &models.User{ID: primitive.NewObjectID(), Role: models.RoleAdmin}

	tests := []struct {
		name     string
		identity *models.User
		check    func(identity *models.User) bool
		want     bool
	}{
		{"IsAdmin denies nil identity", nil, func(u *models.User) bool { return IsAdmin(u) }, false},
		{"IsAdmin denies plain user", owner, func(u *models.User) bool { return IsAdmin(u) }, false},
		{"IsAdmin allows admin", admin, func(u *models.User) bool { return IsAdmin(u) }, true},

		{"OwnerOrAdmin denies nil identity", nil, func(u *models.User) bool { return OwnerOrAdmin(u, ownerID) }, false},
		{"OwnerOrAdmin allows owner", owner, func(u *models.User) bool { return OwnerOrAdmin(u, ownerID) }, true},
		{"OwnerOrAdmin denies stranger", stranger, func(u *models.User) bool { return OwnerOrAdmin(u, ownerID) }, false},
		{"OwnerOrAdmin allows admin", admin, func(u *models.User) bool { return OwnerOrAdmin(u, ownerID) }, true},

		{"SelfOrAdmin denies nil identity", nil, func(u *models.User) bool { return SelfOrAdmin(u, ownerID) }, false},
		{"SelfOrAdmin allows self", owner, func(u *models.User) bool { return SelfOrAdmin(u, ownerID) }, true},
		{"SelfOrAdmin denies other user", stranger, func(u *models.User) bool { return SelfOrAdmin(u, ownerID) }, false},
		{"SelfOrAdmin allows admin", admin, func(u *models.User) bool { return SelfOrAdmin(u, ownerID) }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.check(tt.identity))
		})
	}
}
