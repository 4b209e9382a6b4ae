package user

import (
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/trezcool/miradi/core"
)

// Roles
const (
	RoleStudent = "student"
	RoleTeacher = "teacher"
	RoleAdmin   = "admin"
)

// Divisions
const (
	DivisionA = "A"
	DivisionB = "B"
	DivisionC = "C"
)

// Semesters
const (
	MinSemester = 1
	MaxSemester = 6
)

var (
	AllRoles     = []string{RoleStudent, RoleTeacher, RoleAdmin}
	AllDivisions = []string{DivisionA, DivisionB, DivisionC}

	// SignupRoles are the roles a user may self-register with.
	// Admins are only created via the admin API or the ops CLI.
	SignupRoles = []string{RoleStudent, RoleTeacher}

	Roles = []Role{
		{Name: "Student", Value: RoleStudent},
		{Name: "Teacher", Value: RoleTeacher},
		{Name: "Admin", Value: RoleAdmin},
	}
)

type Role struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type (
	// StudentProfile holds the student-only attributes of a User.
	StudentProfile struct {
		Division string `json:"division" validate:"required,division"`
		RollNo   string `json:"roll_no" validate:"required"`
		Semester int    `json:"semester" validate:"required,min=1,max=6"`
	}

	// TeacherProfile holds the teacher-only attributes of a User.
	TeacherProfile struct {
		Department string `json:"department" validate:"required"`
		Subject    string `json:"subject" validate:"required"`
	}

	// User is an account in the directory. Role selects which profile is
	// populated: exactly one of Student/Teacher is non-nil for those roles,
	// admins carry neither.
	User struct {
		ID           string          `json:"id"`
		Name         string          `json:"name"`
		Username     string          `json:"username"`
		Email        string          `json:"email"`
		Role         string          `json:"role"`
		IsActive     *bool           `json:"is_active"`
		IsSuperuser  bool            `json:"is_superuser"`
		Student      *StudentProfile `json:"student,omitempty"`
		Teacher      *TeacherProfile `json:"teacher,omitempty"`
		PasswordHash []byte          `json:"-"`
		CreatedAt    time.Time       `json:"created_at"` // UTC
		UpdatedAt    time.Time       `json:"updated_at"` // UTC
		LastLogin    time.Time       `json:"last_login"` // UTC
	}
)

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

func (u *User) SetActive(active bool) { u.IsActive = &active }

func (u *User) Active() bool { return u.IsActive != nil && *u.IsActive }

func (u *User) IsStudent() bool { return u.Role == RoleStudent }
func (u *User) IsTeacher() bool { return u.Role == RoleTeacher }
func (u *User) IsAdmin() bool   { return u.Role == RoleAdmin || u.IsSuperuser }

// setProfile enforces the role/profile exclusivity: the profile matching
// the role is kept, the other is cleared.
func (u *User) setProfile(student *StudentProfile, teacher *TeacherProfile) {
	switch u.Role {
	case RoleStudent:
		u.Student, u.Teacher = student, nil
	case RoleTeacher:
		u.Student, u.Teacher = nil, teacher
	default:
		u.Student, u.Teacher = nil, nil
	}
}

// NewUser contains information needed to create a new User.
type NewUser struct {
	Name            string          `json:"name" validate:"required"`
	Username        string          `json:"username" validate:"required,min=6,alphanum_"`
	Email           string          `json:"email" validate:"required,email"`
	Password        string          `json:"password" validate:"required"`
	PasswordConfirm string          `json:"password_confirm" validate:"required,eqfield=Password"`
	Role            string          `json:"role" validate:"required,role"`
	Student         *StudentProfile `json:"student,omitempty"`
	Teacher         *TeacherProfile `json:"teacher,omitempty"`
}

func (nu *NewUser) Validate(svc Service) error {
	nu.Name = core.CleanString(nu.Name)
	nu.Username = core.CleanString(nu.Username, true /* lower */)
	nu.Email = core.CleanString(nu.Email, true /* lower */)
	nu.Role = core.CleanString(nu.Role, true /* lower */)

	if err := core.Validate.Struct(nu); err != nil {
		return err
	}
	return svc.CheckUniqueness(nu.Username, nu.Email)
}

// UpdateUser defines what information may be provided to modify an existing User.
// Role, IsActive, Username and Email changes are admin-only; enforced at the rim.
type UpdateUser struct {
	Name            string          `json:"name"`
	Username        string          `json:"username" validate:"omitempty,min=6,alphanum_"`
	Email           string          `json:"email" validate:"omitempty,email"`
	IsActive        *bool           `json:"is_active"`
	Role            string          `json:"role" validate:"omitempty,role"`
	Student         *StudentProfile `json:"student,omitempty"`
	Teacher         *TeacherProfile `json:"teacher,omitempty"`
	Password        string          `json:"password" validate:"omitempty"`
	PasswordConfirm string          `json:"password_confirm" validate:"required_with=Password,eqfield=Password"`
}

func (uu *UpdateUser) Validate(origUsr User, svc Service) error {
	name := core.CleanString(uu.Name)
	if name != "" {
		uu.Name = name
	} else {
		uu.Name = origUsr.Name
	}

	uname := core.CleanString(uu.Username, true /* lower */)
	if uname != "" {
		uu.Username = uname
	} else {
		uu.Username = origUsr.Username
	}

	email := core.CleanString(uu.Email, true /* lower */)
	if email != "" {
		uu.Email = email
	} else {
		uu.Email = origUsr.Email
	}

	role := core.CleanString(uu.Role, true /* lower */)
	if role != "" {
		uu.Role = role
	} else {
		uu.Role = origUsr.Role
	}

	if err := core.Validate.Struct(uu); err != nil {
		return err
	}
	return svc.CheckUniqueness(uu.Username, uu.Email, origUsr)
}

type ResetUserPassword struct {
	Token           string `json:"token,omitempty" validate:"required"`
	UID             string `json:"uid,omitempty" validate:"required"`
	Password        string `json:"password,omitempty" validate:"required"`
	PasswordConfirm string `json:"password_confirm,omitempty" validate:"required,eqfield=Password"`
}

func (rp ResetUserPassword) Validate() error { return core.Validate.Struct(rp) }

// GetFilter selects a single User; the first non-empty field wins.
type GetFilter struct {
	ID              string
	Username        string
	Email           string
	UsernameOrEmail []string
}

type QueryFilter struct {
	Search      string    `query:"search"`
	Roles       []string  `query:"role"`
	Division    string    `query:"division"`
	Semester    int       `query:"semester"`
	IsActive    *bool     `query:"is_active"`
	CreatedFrom time.Time `query:"created_from"`
	CreatedTo   time.Time `query:"created_to"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == "" && qf.Roles == nil && qf.Division == "" && qf.Semester == 0 &&
		qf.IsActive == nil && qf.CreatedFrom.IsZero() && qf.CreatedTo.IsZero()
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Division = strings.ToUpper(core.CleanString(qf.Division))
}
