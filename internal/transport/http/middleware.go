package http

import (
	"net/http"

	"quartermaster-service/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Identity headers set by the auth layer in front of this service.
const (
	HeaderUserID = "X-User-Id"
	HeaderRole   = "X-User-Role"
)

// roleAliases accepts both the wire spelling of the auth collaborator and the
// internal constants.
var roleAliases = map[string]service.Role{
	"TeamMember":                         service.RoleTeamMember,
	"WarehouseStaff":                     service.RoleWarehouseStaff,
	"WarehouseAdmin":                     service.RoleWarehouseAdmin,
	string(service.RoleTeamMember):       service.RoleTeamMember,
	string(service.RoleWarehouseStaff):   service.RoleWarehouseStaff,
	string(service.RoleWarehouseAdmin):   service.RoleWarehouseAdmin,
}

// Identity parses the caller identity headers and injects them into the
// request context for the service layer.
func Identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		rawID := c.GetHeader(HeaderUserID)
		if rawID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, NewUnauthorizedError("missing "+HeaderUserID+" header"))
			return
		}
		userID, err := uuid.Parse(rawID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, NewUnauthorizedError("invalid "+HeaderUserID+" header"))
			return
		}

		role, ok := roleAliases[c.GetHeader(HeaderRole)]
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, NewUnauthorizedError("missing or invalid "+HeaderRole+" header"))
			return
		}

		ctx := service.WithUserID(c.Request.Context(), userID)
		ctx = service.WithRole(ctx, role)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
