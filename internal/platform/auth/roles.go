package auth

import (
	"net/http"
	"slices"
	"strings"
)

const (
	RoleViewer = "viewer"
	RoleEditor = "editor"
	RoleAdmin  = "admin"
)

// roleOrder lists roles from least to most privileged.
var roleOrder = []string{RoleViewer, RoleEditor, RoleAdmin}

func roleLevel(role string) int {
	return slices.Index(roleOrder, strings.ToLower(strings.TrimSpace(role)))
}

func HasAtLeast(roles []string, required string) bool {
	want := roleLevel(required)
	if want < 0 {
		return false
	}
	for _, role := range roles {
		if roleLevel(role) >= want {
			return true
		}
	}
	return false
}

// RequiredRole maps safe methods to viewer and everything else to editor.
func RequiredRole(r *http.Request) string {
	switch r.Method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return RoleViewer
	default:
		return RoleEditor
	}
}

func MethodRoleAuthorizer() AuthorizeFunc {
	return func(r *http.Request, identity Identity) error {
		if HasAtLeast(identity.Roles, RequiredRole(r)) {
			return nil
		}
		return ErrForbidden
	}
}
