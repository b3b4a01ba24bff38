// Package policy decides whether an actor may perform an action on a task, project or user.
//
// Every resource/action pair is declared once in the rules table below. Rules are
// evaluated in order and the first rule whose resource, action and condition all
// match allows the request. Nothing else is allowed.
package policy

import (
	"fmt"

	"github.com/oguarni/status-point/domain/apperr"
	"github.com/oguarni/status-point/domain/project"
	"github.com/oguarni/status-point/domain/task"
	"github.com/oguarni/status-point/domain/user"
)

// Resource is the kind of thing being acted upon.
type Resource string

const (
	ResourceTask    Resource = "task"
	ResourceProject Resource = "project"
	ResourceUser    Resource = "user"
)

// Action is the operation being attempted.
type Action string

const (
	ActionRead           Action = "read"
	ActionCreate         Action = "create"
	ActionUpdate         Action = "update"
	ActionComplete       Action = "complete"
	ActionDelete         Action = "delete"
	ActionCreateWithRole Action = "create-with-role"
)

// Resources and Actions list the closed sets, used to enumerate the table in tests.
var (
	Resources = []Resource{ResourceTask, ResourceProject, ResourceUser}
	Actions   = []Action{ActionRead, ActionCreate, ActionUpdate, ActionComplete, ActionDelete, ActionCreateWithRole}
)

// Target identifies the resource instance a decision is about.
// OwnerID is the task owner or the project manager, empty when there is no instance yet.
type Target struct {
	Resource Resource
	OwnerID  string
}

// Task targets an existing task.
func Task(t *task.Task) Target {
	return Target{Resource: ResourceTask, OwnerID: t.OwnerID}
}

// Project targets an existing project.
func Project(p *project.Project) Target {
	return Target{Resource: ResourceProject, OwnerID: p.ManagerID}
}

// NewProject targets a project that does not exist yet.
func NewProject() Target {
	return Target{Resource: ResourceProject}
}

// Users targets the user collection.
func Users() Target {
	return Target{Resource: ResourceUser}
}

type condition func(actor user.Actor, target Target) bool

type rule struct {
	name     string
	resource Resource
	actions  []Action
	allow    condition
}

var rules = []rule{
	{"task-owner", ResourceTask, []Action{ActionRead, ActionUpdate, ActionComplete, ActionDelete}, isOwner},
	{"task-role-override", ResourceTask, []Action{ActionUpdate, ActionComplete}, hasRole(user.RoleManager, user.RoleAdmin)},
	{"task-delete-owner-only", ResourceTask, []Action{ActionDelete}, isOwner},
	{"project-manager-or-admin", ResourceProject, []Action{ActionRead, ActionUpdate, ActionDelete}, anyOf(isOwner, hasRole(user.RoleAdmin))},
	{"project-create", ResourceProject, []Action{ActionCreate}, hasRole(user.RoleManager, user.RoleAdmin)},
	{"user-create-with-role", ResourceUser, []Action{ActionCreateWithRole}, hasRole(user.RoleAdmin)},
}

func isOwner(actor user.Actor, target Target) bool {
	return actor.ID != "" && target.OwnerID != "" && actor.ID == target.OwnerID
}

func hasRole(roles ...user.Role) condition {
	return func(actor user.Actor, _ Target) bool {
		for _, r := range roles {
			if actor.Role == r {
				return true
			}
		}
		return false
	}
}

func anyOf(conds ...condition) condition {
	return func(actor user.Actor, target Target) bool {
		for _, c := range conds {
			if c(actor, target) {
				return true
			}
		}
		return false
	}
}

func (r rule) covers(resource Resource, action Action) bool {
	if r.resource != resource {
		return false
	}
	for _, a := range r.actions {
		if a == action {
			return true
		}
	}
	return false
}

// Decision is the outcome of evaluating the rules table.
type Decision struct {
	Allowed bool
	// Rule names the rule that allowed the request. Empty on denial.
	Rule   string
	Reason string
}

// Decide evaluates the rules table.
func Decide(actor user.Actor, target Target, action Action) Decision {
	for _, r := range rules {
		if r.covers(target.Resource, action) && r.allow(actor, target) {
			return Decision{Allowed: true, Rule: r.name}
		}
	}
	return Decision{Reason: apperr.ReasonNotAuthorized}
}

// Check returns an authorization error when actor may not perform action on target.
func Check(actor user.Actor, target Target, action Action) error {
	d := Decide(actor, target, action)
	if d.Allowed {
		return nil
	}
	return &apperr.Error{
		Kind:    apperr.KindAuthorization,
		Message: fmt.Sprintf("%s: you are not authorized to %s this %s", d.Reason, action, target.Resource),
	}
}

// Declared reports whether any rule mentions the resource/action pair.
func Declared(resource Resource, action Action) bool {
	for _, r := range rules {
		if r.covers(resource, action) {
			return true
		}
	}
	return false
}
