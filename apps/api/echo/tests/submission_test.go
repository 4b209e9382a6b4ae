package tests

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/trezcool/miradi/core/submission"
	"github.com/trezcool/miradi/core/user"
	emailsvc "github.com/trezcool/miradi/services/email"
	testutil "github.com/trezcool/miradi/tests"
)

func Test_submissionApi_create(t *testing.T) {
	app := setup(t)

	s1 := testutil.CreateUser(t, usrRepo, "S One", "stud01", "s1@test.cd", "", user.RoleStudent, true)
	loner := testutil.CreateUser(t, usrRepo, "Loner", "loner01", "loner@test.cd", "", user.RoleStudent, true)
	teacher := testutil.CreateUser(t, usrRepo, "Teach", "teach01", "teach@test.cd", "", user.RoleTeacher, true)

	top := testutil.CreateTopic(t, topicRepo, "Compilers", teacher.ID)
	grp := testutil.CreateGroup(t, groupRepo, "Alpha", top.ID, teacher.ID, 3)
	other := testutil.CreateGroup(t, groupRepo, "Bravo", top.ID, teacher.ID, 3)
	testutil.AssignMembers(t, groupRepo, grp.ID, s1.ID)

	report := []byte("chapter one: the lexer")

	tests := []httpTest{
		{name: "Auth required", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "Teachers not allowed", token: getToken(t, teacher),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{
			name: "No group membership", token: getToken(t, loner),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: "you are not assigned to any group yet"}),
		},
		{
			name: "Not a member of the selected group", token: getToken(t, s1),
			extra:    map[string]string{"group_id": other.ID},
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: "you are not assigned to any group yet"}),
		},
		{
			name: "Missing file part", token: getToken(t, s1), extra: "nofile",
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"file": "a submission file is required"}),
		},
		{
			name: "Submit OK", token: getToken(t, s1),
			extra:    map[string]string{"note": "first draft"},
			wantCode: http.StatusCreated,
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/v1/submissions"

		t.Run(tt.name, func(t *testing.T) {
			filename := "report.pdf"
			fields, _ := tt.extra.(map[string]string)
			if tt.extra == "nofile" {
				filename = ""
			}
			req, rec := newUploadRequest(t, tt.method, tt.path, tt.token, filename, report, fields)
			app.ServeHTTP(rec, req)

			if tt.wantCode == http.StatusCreated {
				if rec.Code != tt.wantCode {
					t.Fatalf("failed! code = %v; wantCode %v; body %s", rec.Code, tt.wantCode, rec.Body.String())
				}
				var sub submission.Submission
				if err := json.Unmarshal(rec.Body.Bytes(), &sub); err != nil {
					t.Fatalf("json.Unmarshal() failed! err %v", err)
				}
				if sub.GroupID != grp.ID || sub.UploadedBy != s1.ID {
					t.Errorf("failed! submission = %+v", sub)
				}
				if sub.Status != submission.StatusPending {
					t.Errorf("failed! status = %s; want %s", sub.Status, submission.StatusPending)
				}
				if sub.Note != "first draft" {
					t.Errorf("failed! note = %q", sub.Note)
				}
				if !strings.Contains(sub.FilePath, "report.pdf") {
					t.Errorf("failed! file_path = %q", sub.FilePath)
				}
				if fileStore.Len() != 1 {
					t.Errorf("failed! fileStore.Len() = %d; want 1", fileStore.Len())
				}
				return
			}
			checkCodeAndData(t, tt, rec)
			if fileStore.Len() != 0 {
				t.Errorf("failed! fileStore.Len() = %d; want 0", fileStore.Len())
			}
		})
	}
}

func Test_submissionApi_mineAndQuery(t *testing.T) {
	app := setup(t)

	s1 := testutil.CreateUser(t, usrRepo, "S One", "stud01", "s1@test.cd", "", user.RoleStudent, true)
	s2 := testutil.CreateUser(t, usrRepo, "S Two", "stud02", "s2@test.cd", "", user.RoleStudent, true)
	teacher1 := testutil.CreateUser(t, usrRepo, "Teach One", "teach01", "teach01@test.cd", "", user.RoleTeacher, true)
	teacher2 := testutil.CreateUser(t, usrRepo, "Teach Two", "teach02", "teach02@test.cd", "", user.RoleTeacher, true)
	admin := testutil.CreateUser(t, usrRepo, "Admin", "admin01", "admin@test.cd", "", user.RoleAdmin, true)

	top1 := testutil.CreateTopic(t, topicRepo, "Compilers", teacher1.ID)
	top2 := testutil.CreateTopic(t, topicRepo, "Databases", teacher2.ID)
	grp1 := testutil.CreateGroup(t, groupRepo, "Alpha", top1.ID, teacher1.ID, 3)
	grp2 := testutil.CreateGroup(t, groupRepo, "Bravo", top2.ID, teacher2.ID, 3)
	testutil.AssignMembers(t, groupRepo, grp1.ID, s1.ID)
	testutil.AssignMembers(t, groupRepo, grp2.ID, s2.ID)

	now := time.Now().UTC()
	sub1 := testutil.CreateSubmission(t, subRepo, grp1.ID, s1.ID, "submissions/one.pdf", now.Add(-2*time.Hour))
	sub2 := testutil.CreateSubmission(t, subRepo, grp1.ID, s1.ID, "submissions/two.pdf", now.Add(-time.Hour))
	sub3 := testutil.CreateSubmission(t, subRepo, grp2.ID, s2.ID, "submissions/three.pdf", now)

	// latest first
	mine1 := []submission.Submission{sub2, sub1}
	teacher1Subs := []submission.Submission{sub2, sub1}
	allSubs := []submission.Submission{sub3, sub2, sub1}

	tests := []httpTest{
		{name: "mine: Auth required", path: "/v1/submissions/mine", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "mine: Teachers not allowed", path: "/v1/submissions/mine", token: getToken(t, teacher1), wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden)},
		{name: "mine: own uploads only", path: "/v1/submissions/mine", token: getToken(t, s1), wantCode: http.StatusOK, wantData: marchallObj(t, mine1)},
		{name: "mine: none yet", path: "/v1/submissions/mine", token: getToken(t, loner(t)), wantCode: http.StatusOK, wantData: marchallList(t)},
		{name: "query: Students not allowed", path: "/v1/submissions", token: getToken(t, s1), wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden)},
		{name: "query: scoped to own topics", path: "/v1/submissions", token: getToken(t, teacher1), wantCode: http.StatusOK, wantData: marchallObj(t, teacher1Subs)},
		{name: "query: admins see all", path: "/v1/submissions", token: getToken(t, admin), wantCode: http.StatusOK, wantData: marchallObj(t, allSubs)},
		{name: "query: group filter", path: "/v1/submissions?group_id=" + grp2.ID, token: getToken(t, teacher2), wantCode: http.StatusOK, wantData: marchallList(t, sub3)},
		{name: "query: no submissions against own topics", path: "/v1/submissions?group_id=" + grp1.ID, token: getToken(t, teacher2), wantCode: http.StatusOK, wantData: marchallList(t)},
		{name: "retrieve: teacher reads one", path: "/v1/submissions/" + sub1.ID, token: getToken(t, teacher1), wantCode: http.StatusOK, wantData: marchallObj(t, sub1)},
		{name: "retrieve: unknown", path: "/v1/submissions/lol", token: getToken(t, teacher1), wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "submission not found"})},
	}
	for _, tt := range tests {
		tt.method = http.MethodGet

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

// loner creates a student with no group membership.
func loner(t *testing.T) user.User {
	return testutil.CreateUser(t, usrRepo, "Loner", "loner01", "loner@test.cd", "", user.RoleStudent, true)
}

func Test_submissionApi_review(t *testing.T) {
	app := setup(t)

	s1 := testutil.CreateUser(t, usrRepo, "S One", "stud01", "s1@test.cd", "", user.RoleStudent, true)
	teacher := testutil.CreateUser(t, usrRepo, "Teach", "teach01", "teach@test.cd", "", user.RoleTeacher, true)

	top := testutil.CreateTopic(t, topicRepo, "Compilers", teacher.ID)
	grp := testutil.CreateGroup(t, groupRepo, "Alpha", top.ID, teacher.ID, 3)
	testutil.AssignMembers(t, groupRepo, grp.ID, s1.ID)
	sub := testutil.CreateSubmission(t, subRepo, grp.ID, s1.ID, "submissions/one.pdf")

	tests := []httpTest{
		{name: "Auth required", path: "/v1/submissions/" + sub.ID + "/review", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "Students not allowed", path: "/v1/submissions/" + sub.ID + "/review", token: getToken(t, s1),
			body:     marchallObj(t, submission.ReviewSubmission{Status: submission.StatusApproved}),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{
			name: "required status", path: "/v1/submissions/" + sub.ID + "/review", token: getToken(t, teacher),
			body:     marchallObj(t, submission.ReviewSubmission{}),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"status": "this field is required"}),
		},
		{
			name: "invalid status", path: "/v1/submissions/" + sub.ID + "/review", token: getToken(t, teacher),
			body:     marchallObj(t, submission.ReviewSubmission{Status: "graded"}),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"status": "invalid review status"}),
		},
		{
			name: "pending cannot be set back", path: "/v1/submissions/" + sub.ID + "/review", token: getToken(t, teacher),
			body:     marchallObj(t, submission.ReviewSubmission{Status: submission.StatusPending}),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"status": "invalid review status"}),
		},
		{
			name: "unknown submission", path: "/v1/submissions/lol/review", token: getToken(t, teacher),
			body:     marchallObj(t, submission.ReviewSubmission{Status: submission.StatusApproved}),
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "submission not found"}),
		},
		{
			name: "Review OK", path: "/v1/submissions/" + sub.ID + "/review", token: getToken(t, teacher),
			body:     marchallObj(t, submission.ReviewSubmission{Status: submission.StatusApproved, Feedback: "well done"}),
			wantCode: http.StatusOK,
		},
		{
			name: "Re-review stays open", path: "/v1/submissions/" + sub.ID + "/review", token: getToken(t, teacher),
			body:     marchallObj(t, submission.ReviewSubmission{Status: submission.StatusRejected, Feedback: "on second thought"}),
			wantCode: http.StatusOK,
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodPut

		t.Run(tt.name, func(t *testing.T) {
			emailsvc.SentMessages = nil

			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)

			if tt.wantCode == http.StatusOK {
				if rec.Code != tt.wantCode {
					t.Fatalf("failed! code = %v; wantCode %v; body %s", rec.Code, tt.wantCode, rec.Body.String())
				}
				var reviewed submission.Submission
				if err := json.Unmarshal(rec.Body.Bytes(), &reviewed); err != nil {
					t.Fatalf("json.Unmarshal() failed! err %v", err)
				}
				wantStatus := submission.StatusApproved
				if tt.name == "Re-review stays open" {
					wantStatus = submission.StatusRejected
				}
				if reviewed.Status != wantStatus {
					t.Errorf("failed! status = %s; want %s", reviewed.Status, wantStatus)
				}
				if reviewed.Feedback == "" {
					t.Error("failed! feedback not set")
				}
				if reviewed.ReviewedAt.IsZero() {
					t.Error("failed! reviewed_at not set")
				}
				if !reviewed.SubmittedAt.Equal(sub.SubmittedAt) {
					t.Errorf("failed! submitted_at = %v; want %v", reviewed.SubmittedAt, sub.SubmittedAt)
				}
				if len(emailsvc.SentMessages) != 1 {
					t.Fatalf("failed! len(SentMessages) = %d; want 1", len(emailsvc.SentMessages))
				}
				msg := emailsvc.SentMessages[0]
				if len(msg.To) != 1 || msg.To[0].Address != s1.Email {
					t.Errorf("failed! To = %v; want %s", msg.To, s1.Email)
				}
				if want := "Your submission has been " + wantStatus; msg.Subject != want {
					t.Errorf("failed! subject = %q; want %q", msg.Subject, want)
				}
				return
			}
			checkCodeAndData(t, tt, rec)
			if len(emailsvc.SentMessages) != 0 {
				t.Errorf("failed! len(SentMessages) = %d; want 0", len(emailsvc.SentMessages))
			}
		})
	}
}
