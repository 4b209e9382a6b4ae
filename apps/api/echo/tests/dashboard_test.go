package tests

import (
	"context"
	"net/http"
	"testing"

	. "github.com/trezcool/miradi/apps/api/echo"
	"github.com/trezcool/miradi/core/submission"
	"github.com/trezcool/miradi/core/user"
	testutil "github.com/trezcool/miradi/tests"
)

func Test_dashboardApi(t *testing.T) {
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

	// two pending under teacher1's topic, one reviewed elsewhere
	testutil.CreateSubmission(t, subRepo, grp1.ID, s1.ID, "submissions/one.pdf")
	testutil.CreateSubmission(t, subRepo, grp1.ID, s1.ID, "submissions/two.pdf")
	reviewed := testutil.CreateSubmission(t, subRepo, grp2.ID, s2.ID, "submissions/three.pdf")
	reviewed.Status = submission.StatusApproved
	if _, err := subRepo.UpdateSubmission(context.Background(), reviewed); err != nil {
		t.Fatalf("UpdateSubmission() failed: %v", err)
	}

	tests := []httpTest{
		{name: "teacher: Auth required", path: "/v1/dashboard/teacher", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "teacher: Students not allowed", path: "/v1/dashboard/teacher", token: getToken(t, s1), wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden)},
		{
			name: "teacher: own scope", path: "/v1/dashboard/teacher", token: getToken(t, teacher1), wantCode: http.StatusOK,
			wantData: marchallObj(t, TeacherDashboard{Students: 2, Topics: 1, Groups: 1, PendingSubmissions: 2}),
		},
		{
			name: "teacher: nothing pending", path: "/v1/dashboard/teacher", token: getToken(t, teacher2), wantCode: http.StatusOK,
			wantData: marchallObj(t, TeacherDashboard{Students: 2, Topics: 1, Groups: 1, PendingSubmissions: 0}),
		},
		{
			name: "teacher: admins allowed", path: "/v1/dashboard/teacher", token: getToken(t, admin), wantCode: http.StatusOK,
			wantData: marchallObj(t, TeacherDashboard{Students: 2}),
		},
		{name: "admin: Auth required", path: "/v1/dashboard/admin", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "admin: Students not allowed", path: "/v1/dashboard/admin", token: getToken(t, s1), wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden)},
		{name: "admin: Teachers not allowed", path: "/v1/dashboard/admin", token: getToken(t, teacher1), wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden)},
		{
			name: "admin: role counts", path: "/v1/dashboard/admin", token: getToken(t, admin), wantCode: http.StatusOK,
			wantData: marchallObj(t, AdminDashboard{Admins: 1, Teachers: 2, Students: 2}),
		},
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
