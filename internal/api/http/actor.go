package httpapi

import (
	"net/http"

	"github.com/remyvnkhiemtruong/12a6/internal/order/domain"
)

// Actor identity rides on headers set by the authenticating edge proxy.
// An absent role means an anonymous customer.
func actorFrom(r *http.Request) domain.Actor {
	role := domain.Role(r.Header.Get("X-Actor-Role"))
	if !domain.ValidRole(role) {
		role = domain.RoleCustomer
	}
	return domain.Actor{
		ID:   r.Header.Get("X-Actor-ID"),
		Name: r.Header.Get("X-Actor-Name"),
		Role: role,
	}
}

func requireStaff(actor domain.Actor) error {
	switch actor.Role {
	case domain.RoleCashier, domain.RoleKitchen, domain.RoleShipper, domain.RoleAdmin:
		return nil
	}
	return domain.NewError(domain.KindForbidden, "staff role required")
}

func requireAdmin(actor domain.Actor) error {
	if actor.Role != domain.RoleAdmin {
		return domain.NewError(domain.KindForbidden, "admin role required")
	}
	return nil
}
