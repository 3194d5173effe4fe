package http

import (
	"github.com/gin-gonic/gin"
	"github.com/jinzhu/inflection"

	"github.com/mrlokans/librarium/internal/auth"
	"github.com/mrlokans/librarium/internal/entities"
)

// collection is the API path of a resource, e.g. "category" -> "/api/categories".
func collection(resource string) string {
	return "/api/" + inflection.Plural(resource)
}

// isStaffOrOwner reports whether the caller may act on other visitors' records.
func isStaffOrOwner(c *gin.Context) bool {
	role := auth.GetUserRole(c)
	return role == entities.RoleStaff || role == entities.RoleOwner
}

// handlerID is the staff id recorded on loans and reviews. Owners act without one.
func handlerID(c *gin.Context) *uint {
	if auth.GetUserRole(c) != entities.RoleStaff {
		return nil
	}
	id := auth.GetProfileID(c)
	if id == 0 {
		return nil
	}
	return &id
}

// visitorID returns the caller's visitor id, or 0 when the caller is not a visitor.
func visitorID(c *gin.Context) uint {
	if auth.GetUserRole(c) != entities.RoleVisitor {
		return 0
	}
	return auth.GetProfileID(c)
}

// canAccessVisitorRecord lets staff and owners through, and visitors only to their own records.
func canAccessVisitorRecord(c *gin.Context, ownerVisitorID uint) bool {
	if isStaffOrOwner(c) {
		return true
	}
	id := visitorID(c)
	return id != 0 && id == ownerVisitorID
}
