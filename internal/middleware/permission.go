package middleware

import (
	"sync"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"medipredict-server/internal/models"
	"medipredict-server/internal/seed"
	"medipredict-server/internal/utils"
)

// PermissionChecker resolves role permission grants, caching each
// role's set after the first lookup. The grant tables only change at
// seed time, so the cache never needs invalidation at runtime.
type PermissionChecker struct {
	db    *gorm.DB
	mu    sync.Mutex
	cache map[models.Role]map[string]struct{}
}

func NewPermissionChecker(db *gorm.DB) *PermissionChecker {
	return &PermissionChecker{
		db:    db,
		cache: make(map[models.Role]map[string]struct{}),
	}
}

func (pc *PermissionChecker) allowed(role models.Role, permission string) (bool, error) {
	pc.mu.Lock()
	defer pc.mu.Unlock()

	set, ok := pc.cache[role]
	if !ok {
		names, err := seed.RolePermissions(pc.db, role)
		if err != nil {
			return false, err
		}
		set = make(map[string]struct{}, len(names))
		for _, n := range names {
			set[n] = struct{}{}
		}
		pc.cache[role] = set
	}
	_, ok = set[permission]
	return ok, nil
}

// RequirePermission authorizes the request when the caller's role holds
// the named permission. Must run after AuthMiddleware.
func (pc *PermissionChecker) RequirePermission(permission string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, ok := GetUserRoleFromContext(c)
		if !ok {
			utils.Unauthorized(c, "Authentication required")
			c.Abort()
			return
		}

		allowed, err := pc.allowed(role, permission)
		if err != nil {
			utils.InternalServerError(c, "Failed to resolve permissions")
			c.Abort()
			return
		}
		if !allowed {
			utils.Forbidden(c, "You do not have permission to access this resource.")
			c.Abort()
			return
		}
		c.Next()
	}
}
