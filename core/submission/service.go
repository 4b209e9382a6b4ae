package submission

import (
	"context"
	"fmt"
	"io"
	"net/mail"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/miradi/core"
	"github.com/trezcool/miradi/core/group"
	"github.com/trezcool/miradi/core/user"
)

var (
	// errors
	ErrNotFound   = errors.New("submission not found")
	ErrNotAMember = errors.New("you are not assigned to any group yet")
)

type (
	Repository interface {
		CreateSubmission(ctx context.Context, sub Submission) (Submission, error)
		GetSubmissionByID(ctx context.Context, id string) (Submission, error)
		QuerySubmissions(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Submission, error)
		CountSubmissions(ctx context.Context, filter *QueryFilter) (int, error)
		UpdateSubmission(ctx context.Context, sub Submission) (Submission, error)
	}

	Service interface {
		// Submit creates a pending submission for the student's group. The
		// group is the explicit selector when provided, else the student's
		// first membership. No membership at all fails with ErrNotAMember
		// and persists nothing.
		Submit(ctx context.Context, student user.User, ns NewSubmission, filename string, file io.Reader) (Submission, error)
		// Review sets the status, feedback and review timestamp; terminal
		// statuses stay revisable. The uploader is notified by email.
		Review(ctx context.Context, id string, rs ReviewSubmission, reviewer user.User) (Submission, error)
		Get(ctx context.Context, id string) (Submission, error)
		Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Submission, error)
		QueryOwn(ctx context.Context, student user.User, ordering []core.DBOrdering) ([]Submission, error)
		CountPendingOwnedTopics(ctx context.Context, teacher user.User) (int, error)
	}

	service struct {
		repo      Repository
		groupRepo group.Repository
		usrSvc    user.Service
		fileStore core.FileStore
		mailSvc   core.EmailService
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, groupRepo group.Repository, usrSvc user.Service, fileStore core.FileStore, mailSvc core.EmailService) Service {
	return &service{
		repo:      repo,
		groupRepo: groupRepo,
		usrSvc:    usrSvc,
		fileStore: fileStore,
		mailSvc:   mailSvc,
	}
}

// resolveGroup picks the group a submission lands in. An explicit selector
// must be one of the student's memberships; without one, the first membership
// wins (students in several groups should pass the selector).
func (svc *service) resolveGroup(ctx context.Context, student user.User, groupID string) (group.ProjectGroup, error) {
	groups, err := svc.groupRepo.QueryMemberGroups(ctx, student.ID)
	if err != nil {
		return group.ProjectGroup{}, errors.Wrap(err, "querying memberships")
	}
	if len(groups) == 0 {
		return group.ProjectGroup{}, ErrNotAMember
	}
	if groupID == "" {
		return groups[0], nil
	}
	for _, g := range groups {
		if g.ID == groupID {
			return g, nil
		}
	}
	return group.ProjectGroup{}, ErrNotAMember
}

func (svc *service) Submit(ctx context.Context, student user.User, ns NewSubmission, filename string, file io.Reader) (Submission, error) {
	g, err := svc.resolveGroup(ctx, student, ns.GroupID)
	if err != nil {
		return Submission{}, err
	}

	path := fmt.Sprintf("submissions/%s_%s", uuid.New().String(), filepath.Base(filename))
	path, err = svc.fileStore.Save(ctx, path, file)
	if err != nil {
		return Submission{}, errors.Wrap(err, "saving submission file")
	}

	sub := Submission{
		GroupID:     g.ID,
		UploadedBy:  student.ID,
		FilePath:    path,
		Note:        ns.Note,
		Status:      StatusPending,
		SubmittedAt: time.Now().UTC(),
	}
	sub, err = svc.repo.CreateSubmission(ctx, sub)
	if err != nil {
		// do not leave an orphaned blob behind
		_ = svc.fileStore.Delete(ctx, path)
		return Submission{}, err
	}
	return sub, nil
}

func (svc *service) Review(ctx context.Context, id string, rs ReviewSubmission, reviewer user.User) (Submission, error) {
	sub, err := svc.repo.GetSubmissionByID(ctx, id)
	if err != nil {
		return Submission{}, err
	}

	sub.Status = rs.Status
	sub.Feedback = rs.Feedback
	sub.ReviewedAt = time.Now().UTC()

	sub, err = svc.repo.UpdateSubmission(ctx, sub)
	if err != nil {
		return Submission{}, err
	}
	if sub.UploadedBy != "" {
		if uploader, uErr := svc.usrSvc.GetByID(ctx, sub.UploadedBy); uErr == nil {
			go svc.sendReviewedMail(uploader, sub)
		}
	}
	return sub, nil
}

func (svc *service) sendReviewedMail(uploader user.User, sub Submission) {
	msg := &core.EmailMessage{
		To:           []mail.Address{{Name: uploader.Name, Address: uploader.Email}},
		Subject:      fmt.Sprintf("Your submission has been %s", sub.Status),
		TemplateName: "submission-reviewed",
		TemplateData: struct {
			Name     string
			Status   string
			Feedback string
		}{uploader.Name, sub.Status, sub.Feedback},
	}
	svc.mailSvc.SendMessages(msg)
}

func (svc *service) Get(ctx context.Context, id string) (Submission, error) {
	return svc.repo.GetSubmissionByID(ctx, id)
}

func (svc *service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Submission, error) {
	if filter != nil {
		filter.Clean()
	}
	if ordering == nil {
		ordering = []core.DBOrdering{{Field: "submitted_at"}} // latest first
	}
	return svc.repo.QuerySubmissions(ctx, filter, ordering)
}

func (svc *service) QueryOwn(ctx context.Context, student user.User, ordering []core.DBOrdering) ([]Submission, error) {
	if ordering == nil {
		ordering = []core.DBOrdering{{Field: "submitted_at"}}
	}
	return svc.repo.QuerySubmissions(ctx, &QueryFilter{UploadedBy: student.ID}, ordering)
}

func (svc *service) CountPendingOwnedTopics(ctx context.Context, teacher user.User) (int, error) {
	return svc.repo.CountSubmissions(ctx, &QueryFilter{Status: StatusPending, TopicOwnerID: teacher.ID})
}
