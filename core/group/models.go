package group

import (
	"time"

	"github.com/trezcool/miradi/core"
	"github.com/trezcool/miradi/core/user"
)

type (
	// ProjectGroup is a named cohort of students bound to a topic and an
	// owning teacher. Deleting the teacher cascades the group; deleting the
	// topic only clears TopicID.
	ProjectGroup struct {
		ID         string    `json:"id"`
		Name       string    `json:"name"`
		MaxMembers int       `json:"max_members"`
		TopicID    string    `json:"topic_id,omitempty"`
		Division   string    `json:"division,omitempty"`
		Semester   int       `json:"semester,omitempty"`
		TeacherID  string    `json:"teacher_id"`
		CreatedAt  time.Time `json:"created_at"` // UTC
	}

	// Member is a membership row with the student resolved.
	Member struct {
		Student  user.User `json:"student"`
		JoinedAt time.Time `json:"joined_at"` // UTC
	}

	// Detail is a group with its membership resolved.
	Detail struct {
		ProjectGroup
		Members []Member `json:"members"`
	}
)

const defaultMaxMembers = 3

// NewGroup contains information needed to create a new ProjectGroup.
type NewGroup struct {
	Name       string `json:"name" validate:"required"`
	MaxMembers int    `json:"max_members" validate:"omitempty,min=1"`
	TopicID    string `json:"topic_id"`
	Division   string `json:"division" validate:"omitempty,division"`
	Semester   int    `json:"semester" validate:"omitempty,min=1,max=6"`
}

func (ng *NewGroup) Validate() error {
	ng.Name = core.CleanString(ng.Name)
	if ng.MaxMembers == 0 {
		ng.MaxMembers = defaultMaxMembers
	}
	return core.Validate.Struct(ng)
}

// UpdateGroup defines what information may be provided to modify an existing group.
type UpdateGroup struct {
	Name       string `json:"name"`
	MaxMembers int    `json:"max_members" validate:"omitempty,min=1"`
	TopicID    string `json:"topic_id"`
	Division   string `json:"division" validate:"omitempty,division"`
	Semester   int    `json:"semester" validate:"omitempty,min=1,max=6"`
}

func (ug *UpdateGroup) Validate(orig ProjectGroup) error {
	name := core.CleanString(ug.Name)
	if name != "" {
		ug.Name = name
	} else {
		ug.Name = orig.Name
	}
	if ug.MaxMembers == 0 {
		ug.MaxMembers = orig.MaxMembers
	}
	return core.Validate.Struct(ug)
}

// AssignMembers is the full desired membership of a group; the assignment is
// a replace, not a merge.
type AssignMembers struct {
	StudentIDs []string `json:"students" validate:"required,min=1"`
}

func (am *AssignMembers) Validate() error { return core.Validate.Struct(am) }

type QueryFilter struct {
	Search       string `query:"search"`
	TeacherID    string `query:"-"`
	TopicID      string `query:"-"`
	TopicOwnerID string `query:"-"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
}
