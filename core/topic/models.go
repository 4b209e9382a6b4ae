package topic

import (
	"time"

	"github.com/trezcool/miradi/core"
)

// Topic is a teacher-authored subject students are grouped around.
// CreatedBy is cleared (not cascaded) when the owning teacher is deleted;
// the topic survives ownerless.
type Topic struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	CreatedBy   string    `json:"created_by,omitempty"`
	CreatedAt   time.Time `json:"created_at"` // UTC
}

// NewTopic contains information needed to create a new Topic.
type NewTopic struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
}

func (nt *NewTopic) Validate() error {
	nt.Title = core.CleanString(nt.Title)
	nt.Description = core.CleanString(nt.Description)
	return core.Validate.Struct(nt)
}

// UpdateTopic defines what information may be provided to modify an existing Topic.
type UpdateTopic struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

func (ut *UpdateTopic) Validate(orig Topic) error {
	title := core.CleanString(ut.Title)
	if title != "" {
		ut.Title = title
	} else {
		ut.Title = orig.Title
	}
	ut.Description = core.CleanString(ut.Description)
	return core.Validate.Struct(ut)
}

type QueryFilter struct {
	Search    string `query:"search"`
	CreatedBy string `query:"-"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
}
