// Package catalog proxies LearnHub content endpoints to the backend behind
// the role/permission table.
package catalog

import "github.com/learnhub-academy/learnhub/internal/rbac"

// Action is an extra per-item endpoint such as POST /courses/{id}/enroll.
type Action struct {
	Method string
	Name   string
	Guard  *rbac.Guard
}

// Protection shields items holding one of Roles from updates, deletion
// and actions by callers failing Guard.
type Protection struct {
	Roles []rbac.Role
	Guard *rbac.Guard
}

// Resource maps a gateway collection onto a backend path. A nil guard
// leaves the operation public.
type Resource struct {
	Name        string
	BackendPath string
	Read        *rbac.Guard
	Create      *rbac.Guard
	Update      *rbac.Guard
	Delete      *rbac.Guard
	Actions     []Action
	// FieldGuards gate JSON body fields on create and update.
	FieldGuards map[string]*rbac.Guard
	Protected   *Protection
}

func requires(perms ...rbac.Permission) *rbac.Guard {
	return &rbac.Guard{RequiredPermissions: perms}
}

var signedIn = &rbac.Guard{}

// Resources returns the proxied collections.
func Resources() []Resource {
	return []Resource{
		{
			Name:        "courses",
			BackendPath: "/courses",
			Create:      requires(rbac.PermCreateCourse),
			Update:      requires(rbac.PermEditCourse),
			Delete:      requires(rbac.PermDeleteCourse),
			Actions: []Action{
				{Method: "POST", Name: "enroll", Guard: requires(rbac.PermEnrollCourse)},
			},
		},
		{
			Name:        "books",
			BackendPath: "/books",
			Create:      requires(rbac.PermCreateBook),
			Update:      requires(rbac.PermEditBook),
			Delete:      requires(rbac.PermDeleteBook),
		},
		{
			Name:        "notices",
			BackendPath: "/notices",
			Create:      requires(rbac.PermManageNotices),
			Update:      requires(rbac.PermManageNotices),
			Delete:      requires(rbac.PermManageNotices),
		},
		{
			// Any member may post; editing others' posts is moderation.
			Name:        "posts",
			BackendPath: "/posts",
			Create:      signedIn,
			Update:      requires(rbac.PermManageNotices),
			Delete:      requires(rbac.PermManageNotices),
		},
		{
			Name:        "questions",
			BackendPath: "/questions",
			Read:        requires(rbac.PermViewDashboard),
			Create:      requires(rbac.PermCreateQuestion),
			Update:      requires(rbac.PermEditQuestion),
			Delete:      requires(rbac.PermDeleteQuestion),
		},
		{
			Name:        "exams",
			BackendPath: "/exams",
			Read:        requires(rbac.PermTakeExam),
			Create:      requires(rbac.PermCreateExam),
			Update:      requires(rbac.PermEditExam),
			Delete:      requires(rbac.PermDeleteExam),
			Actions: []Action{
				{Method: "POST", Name: "submit", Guard: requires(rbac.PermTakeExam)},
			},
		},
		{
			Name:        "users",
			BackendPath: "/users",
			Read:        requires(rbac.PermManageUsers),
			Create:      requires(rbac.PermManageUsers),
			Update:      requires(rbac.PermManageUsers),
			Delete:      requires(rbac.PermManageUsers),
			Actions: []Action{
				{Method: "PATCH", Name: "role", Guard: requires(rbac.PermManageUsers, rbac.PermManageAdmins)},
			},
			FieldGuards: map[string]*rbac.Guard{
				"role": requires(rbac.PermManageUsers, rbac.PermManageAdmins),
			},
			Protected: &Protection{
				Roles: []rbac.Role{rbac.RoleAdmin, rbac.RoleSuperAdmin},
				Guard: requires(rbac.PermManageAdmins),
			},
		},
		{
			Name:        "system-settings",
			BackendPath: "/api/system-settings",
			Read:        requires(rbac.PermManageSettings),
			Create:      requires(rbac.PermManageSettings),
			Update:      requires(rbac.PermManageSettings),
			Delete:      requires(rbac.PermManageSettings),
		},
	}
}
