package query

import (
	"time"

	"github.com/trezcool/miradi/core"
)

// Query is a free-form question a student posts against their group.
// The log is append-only; there is no workflow or status.
type Query struct {
	ID        string    `json:"id"`
	GroupID   string    `json:"group_id"`
	StudentID string    `json:"student_id"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"` // UTC
}

// NewQuery contains information needed to post a new Query.
type NewQuery struct {
	Message string `json:"message" validate:"required"`
}

func (nq *NewQuery) Validate() error {
	nq.Message = core.CleanString(nq.Message)
	return core.Validate.Struct(nq)
}
