package utils

import (
	"fixmyzone-be/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Authorization policies are pure predicates over (identity, resource).
// A nil identity always denies; callers map that to 401 rather than 403.

// IsAdmin allows only admin identities.
func IsAdmin(identity *models.User) bool {
	return identity != nil && identity.Role == models.RoleAdmin
}

// OwnerOrAdmin allows the resource owner and any admin.
func OwnerOrAdmin(identity *models.User, ownerID primitive.ObjectID) bool {
	if identity == nil {
		return false
	}
	return identity.ID == ownerID || identity.Role == models.RoleAdmin
}

// SelfOrAdmin allows a user acting on their own record and any admin.
func SelfOrAdmin(identity *models.User, targetID primitive.ObjectID) bool {
	if identity == nil {
		return false
	}
	return identity.ID == targetID || identity.Role == models.RoleAdmin
}
