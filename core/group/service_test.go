package group_test

import (
	"context"
	"sync"
	"testing"

	"github.com/trezcool/miradi/core"
	"github.com/trezcool/miradi/core/group"
	"github.com/trezcool/miradi/core/topic"
	"github.com/trezcool/miradi/core/user"
	emailsvc "github.com/trezcool/miradi/services/email"
	dummydb "github.com/trezcool/miradi/storage/database/dummy"
	testutil "github.com/trezcool/miradi/tests"
)

type testEnv struct {
	usrRepo   user.Repository
	topicRepo topic.Repository
	groupRepo group.Repository
	svc       group.Service
}

func newTestEnv(t *testing.T) *testEnv {
	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("dummydb.Open(): %v", err)
	}
	usrRepo := dummydb.NewUserRepository(db)
	topicRepo := dummydb.NewTopicRepository(db)
	groupRepo := dummydb.NewGroupRepository(db)
	usrSvc := user.NewService(usrRepo, emailsvc.NewConsoleServiceMock())
	topicSvc := topic.NewService(topicRepo)
	return &testEnv{
		usrRepo:   usrRepo,
		topicRepo: topicRepo,
		groupRepo: groupRepo,
		svc:       group.NewService(groupRepo, topicSvc, usrSvc),
	}
}

func fieldError(t *testing.T, err error, field, msg string) {
	t.Helper()
	vErr, ok := err.(*core.ValidationError)
	if !ok {
		t.Fatalf("error = %v (%T); want *core.ValidationError", err, err)
	}
	for _, f := range vErr.Fields {
		if f.Field == field {
			if f.Error != msg {
				t.Errorf("field %q error = %q; want %q", field, f.Error, msg)
			}
			return
		}
	}
	t.Errorf("no error on field %q; fields = %+v", field, vErr.Fields)
}

func Test_service_Create(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	teacher1 := testutil.CreateUser(t, env.usrRepo, "Teach One", "teach01", "teach01@test.cd", "", user.RoleTeacher, true)
	teacher2 := testutil.CreateUser(t, env.usrRepo, "Teach Two", "teach02", "teach02@test.cd", "", user.RoleTeacher, true)
	admin := testutil.CreateUser(t, env.usrRepo, "Admin", "admin01", "admin@test.cd", "", user.RoleAdmin, true)
	top := testutil.CreateTopic(t, env.topicRepo, "Compilers", teacher1.ID)

	t.Run("someone else's topic", func(t *testing.T) {
		_, err := env.svc.Create(ctx, group.NewGroup{Name: "Alpha", TopicID: top.ID}, teacher2)
		fieldError(t, err, "topic_id", "topic does not exist or is not yours")
	})

	t.Run("unknown topic", func(t *testing.T) {
		_, err := env.svc.Create(ctx, group.NewGroup{Name: "Alpha", TopicID: "lol"}, teacher1)
		fieldError(t, err, "topic_id", "topic does not exist or is not yours")
	})

	t.Run("own topic", func(t *testing.T) {
		grp, err := env.svc.Create(ctx, group.NewGroup{Name: "Alpha", TopicID: top.ID, MaxMembers: 4}, teacher1)
		if err != nil {
			t.Fatalf("Create() failed: %v", err)
		}
		if grp.TeacherID != teacher1.ID || grp.TopicID != top.ID || grp.MaxMembers != 4 {
			t.Errorf("Create() = %+v", grp)
		}
		if grp.CreatedAt.IsZero() {
			t.Error("CreatedAt not set")
		}
	})

	t.Run("admins may use any topic", func(t *testing.T) {
		grp, err := env.svc.Create(ctx, group.NewGroup{Name: "Bravo", TopicID: top.ID}, admin)
		if err != nil {
			t.Fatalf("Create() failed: %v", err)
		}
		if grp.TeacherID != admin.ID {
			t.Errorf("teacher_id = %s; want %s", grp.TeacherID, admin.ID)
		}
	})
}

func Test_service_Assign(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	s1 := testutil.CreateUser(t, env.usrRepo, "S One", "stud01", "s1@test.cd", "", user.RoleStudent, true)
	s2 := testutil.CreateUser(t, env.usrRepo, "S Two", "stud02", "s2@test.cd", "", user.RoleStudent, true)
	s3 := testutil.CreateUser(t, env.usrRepo, "S Three", "stud03", "s3@test.cd", "", user.RoleStudent, true)
	naughty := testutil.CreateUser(t, env.usrRepo, "N Dog", "ndog01", "ndog@test.cd", "", user.RoleStudent, false)
	teacher1 := testutil.CreateUser(t, env.usrRepo, "Teach One", "teach01", "teach01@test.cd", "", user.RoleTeacher, true)
	teacher2 := testutil.CreateUser(t, env.usrRepo, "Teach Two", "teach02", "teach02@test.cd", "", user.RoleTeacher, true)
	admin := testutil.CreateUser(t, env.usrRepo, "Admin", "admin01", "admin@test.cd", "", user.RoleAdmin, true)

	grp := testutil.CreateGroup(t, env.groupRepo, "Alpha", "", teacher1.ID, 2)

	t.Run("not the owner", func(t *testing.T) {
		_, err := env.svc.Assign(ctx, grp.ID, group.AssignMembers{StudentIDs: []string{s1.ID}}, teacher2)
		if err != group.ErrNotFound {
			t.Errorf("Assign() error = %v; want ErrNotFound", err)
		}
	})

	t.Run("duplicate students", func(t *testing.T) {
		_, err := env.svc.Assign(ctx, grp.ID, group.AssignMembers{StudentIDs: []string{s1.ID, s1.ID}}, teacher1)
		fieldError(t, err, "students", group.ErrMemberExists.Error())
	})

	t.Run("over capacity", func(t *testing.T) {
		_, err := env.svc.Assign(ctx, grp.ID, group.AssignMembers{StudentIDs: []string{s1.ID, s2.ID, s3.ID}}, teacher1)
		fieldError(t, err, "students", group.ErrGroupFull.Error())
	})

	t.Run("inactive student", func(t *testing.T) {
		_, err := env.svc.Assign(ctx, grp.ID, group.AssignMembers{StudentIDs: []string{naughty.ID}}, teacher1)
		fieldError(t, err, "students", "all assigned members must be active students")
	})

	t.Run("teacher as member", func(t *testing.T) {
		_, err := env.svc.Assign(ctx, grp.ID, group.AssignMembers{StudentIDs: []string{teacher2.ID}}, teacher1)
		fieldError(t, err, "students", "all assigned members must be active students")
	})

	t.Run("unknown student", func(t *testing.T) {
		_, err := env.svc.Assign(ctx, grp.ID, group.AssignMembers{StudentIDs: []string{"lol"}}, teacher1)
		fieldError(t, err, "students", "all assigned members must be active students")
	})

	t.Run("assign", func(t *testing.T) {
		members, err := env.svc.Assign(ctx, grp.ID, group.AssignMembers{StudentIDs: []string{s1.ID, s2.ID}}, teacher1)
		if err != nil {
			t.Fatalf("Assign() failed: %v", err)
		}
		if len(members) != 2 {
			t.Fatalf("len(members) = %d; want 2", len(members))
		}
		for _, m := range members {
			if m.JoinedAt.IsZero() {
				t.Errorf("JoinedAt not set for %s", m.Student.Username)
			}
		}
	})

	t.Run("reassign replaces the set", func(t *testing.T) {
		members, err := env.svc.Assign(ctx, grp.ID, group.AssignMembers{StudentIDs: []string{s3.ID}}, admin)
		if err != nil {
			t.Fatalf("Assign() failed: %v", err)
		}
		if len(members) != 1 || members[0].Student.ID != s3.ID {
			t.Errorf("members = %+v; want only %s", members, s3.ID)
		}
	})
}

// A reader racing a replace must see either the old set or the new one in
// full, never a partially cleared membership.
func Test_repository_ReplaceMembers_atomic(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	s1 := testutil.CreateUser(t, env.usrRepo, "S One", "stud01", "s1@test.cd", "", user.RoleStudent, true)
	s2 := testutil.CreateUser(t, env.usrRepo, "S Two", "stud02", "s2@test.cd", "", user.RoleStudent, true)
	teacher := testutil.CreateUser(t, env.usrRepo, "Teach", "teach01", "teach@test.cd", "", user.RoleTeacher, true)

	grp := testutil.CreateGroup(t, env.groupRepo, "Alpha", "", teacher.ID, 3)
	testutil.AssignMembers(t, env.groupRepo, grp.ID, s1.ID, s2.ID)

	var wg sync.WaitGroup
	stop := make(chan struct{})

	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
			}
			members, err := env.groupRepo.QueryMembers(ctx, grp.ID)
			if err != nil {
				t.Errorf("QueryMembers() failed: %v", err)
				return
			}
			if n := len(members); n != 1 && n != 2 {
				t.Errorf("observed a torn membership of %d members", n)
				return
			}
		}
	}()

	for i := 0; i < 100; i++ {
		ids := []string{s1.ID, s2.ID}
		if i%2 == 0 {
			ids = []string{s1.ID}
		}
		if _, err := env.groupRepo.ReplaceMembers(ctx, grp.ID, ids); err != nil {
			t.Fatalf("ReplaceMembers() failed: %v", err)
		}
	}
	close(stop)
	wg.Wait()
}

// An empty set is a valid replacement: it clears the group without error.
func Test_repository_ReplaceMembers_empty(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	s1 := testutil.CreateUser(t, env.usrRepo, "S One", "stud01", "s1@test.cd", "", user.RoleStudent, true)
	teacher := testutil.CreateUser(t, env.usrRepo, "Teach", "teach01", "teach@test.cd", "", user.RoleTeacher, true)

	grp := testutil.CreateGroup(t, env.groupRepo, "Alpha", "", teacher.ID, 3)
	testutil.AssignMembers(t, env.groupRepo, grp.ID, s1.ID)

	members, err := env.groupRepo.ReplaceMembers(ctx, grp.ID, nil)
	if err != nil {
		t.Fatalf("ReplaceMembers() failed: %v", err)
	}
	if len(members) != 0 {
		t.Errorf("len(members) = %d; want 0", len(members))
	}
}

func Test_service_GroupsOf(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	s1 := testutil.CreateUser(t, env.usrRepo, "S One", "stud01", "s1@test.cd", "", user.RoleStudent, true)
	s2 := testutil.CreateUser(t, env.usrRepo, "S Two", "stud02", "s2@test.cd", "", user.RoleStudent, true)
	teacher := testutil.CreateUser(t, env.usrRepo, "Teach", "teach01", "teach@test.cd", "", user.RoleTeacher, true)

	grp1 := testutil.CreateGroup(t, env.groupRepo, "Alpha", "", teacher.ID, 3)
	grp2 := testutil.CreateGroup(t, env.groupRepo, "Bravo", "", teacher.ID, 3)
	testutil.AssignMembers(t, env.groupRepo, grp1.ID, s1.ID, s2.ID)
	testutil.AssignMembers(t, env.groupRepo, grp2.ID, s1.ID)

	details, err := env.svc.GroupsOf(ctx, s1)
	if err != nil {
		t.Fatalf("GroupsOf() failed: %v", err)
	}
	if len(details) != 2 {
		t.Fatalf("len(details) = %d; want 2", len(details))
	}
	for _, d := range details {
		var found bool
		for _, m := range d.Members {
			if m.Student.ID == s1.ID {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("student %s missing from group %s members", s1.ID, d.Name)
		}
	}

	details, err = env.svc.GroupsOf(ctx, s2)
	if err != nil {
		t.Fatalf("GroupsOf() failed: %v", err)
	}
	if len(details) != 1 || details[0].ID != grp1.ID {
		t.Errorf("details = %+v; want only group %s", details, grp1.ID)
	}
}
