package middleware

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/trackboard/backend/internal/apperr"
	"github.com/trackboard/backend/internal/model"
	"github.com/trackboard/backend/internal/service"
)

// ProjectAccess resolves the caller's membership in the project named by
// the :id route param and threads it through the context. It is the single
// gate for "may this caller even know the project exists": absent project
// is NotFound, absent membership is Forbidden.
func ProjectAccess(projects *service.ProjectService) gin.HandlerFunc {
	return func(c *gin.Context) {
		projectID, err := strconv.ParseUint(c.Param("id"), 10, 64)
		if err != nil || projectID == 0 {
			abortError(c, apperr.BadRequest("Invalid project id"))
			return
		}

		membership, rerr := projects.ResolveMembership(uint(projectID), GetCurrentUserID(c))
		if rerr != nil {
			abortError(c, rerr)
			return
		}

		c.Set("projectID", uint(projectID))
		c.Set("membership", membership)
		c.Next()
	}
}

// RequireProjectRole gates the request on the membership resolved by
// ProjectAccess. Must run after it.
func RequireProjectRole(required model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		membership := GetMembership(c)
		if membership == nil {
			abortError(c, apperr.Forbidden("Not a member of this project"))
			return
		}
		if err := service.AssertRole(membership.Role, required, ""); err != nil {
			abortError(c, err)
			return
		}
		c.Next()
	}
}

func GetProjectID(c *gin.Context) uint {
	id, _ := c.Get("projectID")
	v, _ := id.(uint)
	return v
}

func GetMembership(c *gin.Context) *model.Membership {
	m, _ := c.Get("membership")
	v, _ := m.(*model.Membership)
	return v
}

// GetCurrentRole returns the caller's project role, or the zero role when
// no membership was resolved.
func GetCurrentRole(c *gin.Context) model.Role {
	if m := GetMembership(c); m != nil {
		return m.Role
	}
	return ""
}
