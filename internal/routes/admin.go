package routes

import (
	"github.com/dukerupert/taxsim/internal/domain"
	"github.com/dukerupert/taxsim/internal/middleware"
	"github.com/dukerupert/taxsim/internal/router"
)

// RegisterAdminRoutes registers user administration. All routes require an
// authenticated administrator.
func RegisterAdminRoutes(r *router.Router, deps AdminDeps) {
	admin := r.Group(
		middleware.RequireRole(domain.RoleAdministrator),
		middleware.MaxBodySize(middleware.SmallMaxBodySize),
	)

	admin.Get("/api/users", deps.Users.List)
	admin.Post("/api/users", deps.Users.Create)
	admin.Get("/api/users/{username}", deps.Users.Get)
	admin.Put("/api/users/{username}", deps.Users.Update)
	admin.Delete("/api/users/{username}", deps.Users.Delete)
}
