package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/trezcool/miradi/core/group"
	"github.com/trezcool/miradi/core/query"
	"github.com/trezcool/miradi/core/submission"
	"github.com/trezcool/miradi/core/topic"
	"github.com/trezcool/miradi/core/user"
)

func CreateUser(
	t *testing.T,
	repo user.Repository,
	name, uname, email, pwd, role string,
	isActive bool,
	createdAt ...time.Time,
) user.User {
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr := user.User{
		Name:      name,
		Username:  uname,
		Email:     email,
		Role:      role,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	usr.SetActive(isActive)
	switch role {
	case user.RoleStudent:
		usr.Student = &user.StudentProfile{Division: user.DivisionA, RollNo: uname, Semester: 1}
	case user.RoleTeacher:
		usr.Teacher = &user.TeacherProfile{Department: "Science", Subject: "Biology"}
	case user.RoleAdmin:
		usr.IsSuperuser = true
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

func CreateTopic(
	t *testing.T,
	repo topic.Repository,
	title, ownerID string,
	createdAt ...time.Time,
) topic.Topic {
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	top, err := repo.CreateTopic(context.Background(), topic.Topic{
		Title:     title,
		CreatedBy: ownerID,
		CreatedAt: tstamp,
	})
	if err != nil {
		t.Fatalf("CreateTopic() failed: %v", err)
	}
	return top
}

func CreateGroup(
	t *testing.T,
	repo group.Repository,
	name, topicID, teacherID string,
	maxMembers int,
	createdAt ...time.Time,
) group.ProjectGroup {
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	grp, err := repo.CreateGroup(context.Background(), group.ProjectGroup{
		Name:       name,
		MaxMembers: maxMembers,
		TopicID:    topicID,
		TeacherID:  teacherID,
		CreatedAt:  tstamp,
	})
	if err != nil {
		t.Fatalf("CreateGroup() failed: %v", err)
	}
	return grp
}

func AssignMembers(t *testing.T, repo group.Repository, groupID string, studentIDs ...string) []group.Member {
	members, err := repo.ReplaceMembers(context.Background(), groupID, studentIDs)
	if err != nil {
		t.Fatalf("AssignMembers() failed: %v", err)
	}
	return members
}

func CreateSubmission(
	t *testing.T,
	repo submission.Repository,
	groupID, uploadedBy, filePath string,
	submittedAt ...time.Time,
) submission.Submission {
	tstamp := time.Now().UTC()
	if len(submittedAt) > 0 {
		tstamp = submittedAt[0].UTC()
	}
	sub, err := repo.CreateSubmission(context.Background(), submission.Submission{
		GroupID:     groupID,
		UploadedBy:  uploadedBy,
		FilePath:    filePath,
		Status:      submission.StatusPending,
		SubmittedAt: tstamp,
	})
	if err != nil {
		t.Fatalf("CreateSubmission() failed: %v", err)
	}
	return sub
}

func CreateQuery(
	t *testing.T,
	repo query.Repository,
	groupID, studentID, message string,
	createdAt ...time.Time,
) query.Query {
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	q, err := repo.CreateQuery(context.Background(), query.Query{
		GroupID:   groupID,
		StudentID: studentID,
		Message:   message,
		CreatedAt: tstamp,
	})
	if err != nil {
		t.Fatalf("CreateQuery() failed: %v", err)
	}
	return q
}
