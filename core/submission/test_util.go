package submission

import (
	"context"
	"time"

	"github.com/trezcool/miradi/core"
	"github.com/trezcool/miradi/core/group"
	"github.com/trezcool/miradi/core/user"
)

type serviceMock struct {
	service
}

// NewServiceMock returns a Service whose side effects run synchronously,
// so tests can assert on sent emails right away.
func NewServiceMock(repo Repository, groupRepo group.Repository, usrSvc user.Service, fileStore core.FileStore, mailSvc core.EmailService) Service {
	return &serviceMock{
		service: service{
			repo:      repo,
			groupRepo: groupRepo,
			usrSvc:    usrSvc,
			fileStore: fileStore,
			mailSvc:   mailSvc,
		},
	}
}

func (svc *serviceMock) Review(ctx context.Context, id string, rs ReviewSubmission, reviewer user.User) (Submission, error) {
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
			// run synchronously
			svc.sendReviewedMail(uploader, sub)
		}
	}
	return sub, nil
}
