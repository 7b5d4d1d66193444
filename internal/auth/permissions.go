package auth

import (
	"sort"

	"github.com/spec-kit/processflow/internal/domain"
)

// Permission is a "<module>.<action>" capability string.
type Permission string

const (
	PermUsersCreate Permission = "usuarios.criar"
	PermUsersEdit   Permission = "usuarios.editar"
	PermUsersDelete Permission = "usuarios.excluir"
	PermUsersView   Permission = "usuarios.visualizar"

	PermStagesCreate  Permission = "etapas.criar"
	PermStagesEdit    Permission = "etapas.editar"
	PermStagesDelete  Permission = "etapas.excluir"
	PermStagesReorder Permission = "etapas.reordenar"

	PermOrdersCreate   Permission = "processos.criar"
	PermOrdersEdit     Permission = "processos.editar"
	PermOrdersDelete   Permission = "processos.excluir"
	PermOrdersView     Permission = "processos.visualizar"
	PermOrdersMove     Permission = "processos.mover"
	PermOrdersFinalize Permission = "processos.finalizar"

	PermClientsCreate Permission = "clientes.criar"
	PermClientsEdit   Permission = "clientes.editar"
	PermClientsDelete Permission = "clientes.excluir"
	PermClientsView   Permission = "clientes.visualizar"

	PermReportsAll    Permission = "relatorios.todos"
	PermReportsSector Permission = "relatorios.setor"

	PermSettingsEdit Permission = "configuracoes.editar"
	PermBrandingEdit Permission = "branding.editar"
	PermLogsView     Permission = "logs.visualizar"
)

var rolePermissions = map[domain.Role]map[Permission]struct{}{
	domain.RoleAdmin: set(
		PermUsersCreate, PermUsersEdit, PermUsersDelete, PermUsersView,
		PermStagesCreate, PermStagesEdit, PermStagesDelete, PermStagesReorder,
		PermOrdersCreate, PermOrdersEdit, PermOrdersDelete, PermOrdersView, PermOrdersMove, PermOrdersFinalize,
		PermClientsCreate, PermClientsEdit, PermClientsDelete, PermClientsView,
		PermReportsAll, PermSettingsEdit, PermBrandingEdit, PermLogsView,
	),
	domain.RoleSupervisor: set(
		PermOrdersCreate, PermOrdersEdit, PermOrdersView, PermOrdersMove, PermOrdersFinalize,
		PermClientsCreate, PermClientsEdit, PermClientsView,
		PermReportsSector, PermUsersView,
	),
	domain.RoleOperator: set(
		PermOrdersView, PermOrdersMove, PermOrdersFinalize,
		PermClientsView,
	),
	domain.RoleReader: set(
		PermOrdersView, PermClientsView, PermReportsSector,
	),
}

func set(perms ...Permission) map[Permission]struct{} {
	out := make(map[Permission]struct{}, len(perms))
	for _, p := range perms {
		out[p] = struct{}{}
	}
	return out
}

// HasPermission reports whether role grants perm. Unknown roles or permissions yield false.
func HasPermission(role domain.Role, perm Permission) bool {
	_, ok := rolePermissions[role][perm]
	return ok
}

// HasAnyPermission reports whether role grants at least one of perms.
func HasAnyPermission(role domain.Role, perms ...Permission) bool {
	for _, p := range perms {
		if HasPermission(role, p) {
			return true
		}
	}
	return false
}

// PermissionsFor lists the permissions of role in lexical order.
func PermissionsFor(role domain.Role) []Permission {
	perms := make([]Permission, 0, len(rolePermissions[role]))
	for p := range rolePermissions[role] {
		perms = append(perms, p)
	}
	sort.Slice(perms, func(i, j int) bool { return perms[i] < perms[j] })
	return perms
}
