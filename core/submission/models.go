package submission

import (
	"time"

	"github.com/trezcool/miradi/core"
)

// Review statuses
const (
	StatusPending  = "pending"
	StatusReviewed = "reviewed"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

var (
	AllStatuses = []string{StatusPending, StatusReviewed, StatusApproved, StatusRejected}

	// ReviewStatuses are the statuses a review action may set.
	ReviewStatuses = []string{StatusReviewed, StatusApproved, StatusRejected}
)

// Submission is a reviewable artifact uploaded by a student on behalf of
// their group. FilePath is an opaque blob-store key; the core never inspects
// file content. SubmittedAt is set once and never changes; ReviewedAt is set
// by the first review and refreshed on re-review.
type Submission struct {
	ID          string    `json:"id"`
	GroupID     string    `json:"group_id"`
	UploadedBy  string    `json:"uploaded_by,omitempty"`
	FilePath    string    `json:"file_path"`
	Note        string    `json:"note"`
	Status      string    `json:"status"`
	Feedback    string    `json:"feedback"`
	SubmittedAt time.Time `json:"submitted_at"`          // UTC
	ReviewedAt  time.Time `json:"reviewed_at,omitempty"` // UTC; zero until reviewed
}

// NewSubmission carries the submission form fields; the file itself arrives
// as a multipart stream at the rim.
type NewSubmission struct {
	GroupID string `json:"group_id" form:"group_id"` // optional explicit group selector
	Note    string `json:"note" form:"note"`
}

func (ns *NewSubmission) Validate() error {
	ns.Note = core.CleanString(ns.Note)
	return core.Validate.Struct(ns)
}

// ReviewSubmission is the teacher review action.
type ReviewSubmission struct {
	Status   string `json:"status" validate:"required,reviewstatus"`
	Feedback string `json:"feedback"`
}

func (rs *ReviewSubmission) Validate() error {
	rs.Status = core.CleanString(rs.Status, true /* lower */)
	rs.Feedback = core.CleanString(rs.Feedback)
	return core.Validate.Struct(rs)
}

type QueryFilter struct {
	Status       string `query:"status"`
	GroupID      string `query:"group_id"`
	UploadedBy   string `query:"-"`
	TopicOwnerID string `query:"-"`
}

func (qf *QueryFilter) Clean() {
	qf.Status = core.CleanString(qf.Status, true /* lower */)
	qf.GroupID = core.CleanString(qf.GroupID)
}
