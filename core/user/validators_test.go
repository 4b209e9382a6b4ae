package user

import (
	"testing"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/miradi/core"
)

func fieldTags(err error) map[string]string {
	tags := make(map[string]string)
	if vErrs, ok := err.(validator.ValidationErrors); ok {
		for _, fe := range vErrs {
			tags[fe.Field()] = fe.Tag()
		}
	}
	return tags
}

func TestUserStructValidation_roleProfile(t *testing.T) {
	student := &StudentProfile{Division: DivisionA, RollNo: "stud01", Semester: 1}
	teacher := &TeacherProfile{Department: "Science", Subject: "Biology"}

	tests := []struct {
		name     string
		role     string
		student  *StudentProfile
		teacher  *TeacherProfile
		wantTags map[string]string
	}{
		{name: "student without profile", role: RoleStudent, wantTags: map[string]string{"student": profileMismatchTag}},
		{name: "student with teacher profile", role: RoleStudent, student: student, teacher: teacher, wantTags: map[string]string{"student": profileMismatchTag}},
		{name: "teacher without profile", role: RoleTeacher, wantTags: map[string]string{"teacher": profileMismatchTag}},
		{name: "teacher with student profile", role: RoleTeacher, teacher: teacher, student: student, wantTags: map[string]string{"teacher": profileMismatchTag}},
		{name: "admin with any profile", role: RoleAdmin, student: student, wantTags: map[string]string{"role": profileMismatchTag}},
		{name: "student ok", role: RoleStudent, student: student},
		{name: "teacher ok", role: RoleTeacher, teacher: teacher},
		{name: "admin ok", role: RoleAdmin},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nu := NewUser{
				Name:            "Test User",
				Username:        "xyzabc",
				Email:           "xyz@test.cd",
				Password:        "LePassword69!",
				PasswordConfirm: "LePassword69!",
				Role:            tt.role,
				Student:         tt.student,
				Teacher:         tt.teacher,
			}
			err := core.Validate.Struct(&nu)
			tags := fieldTags(err)
			if len(tt.wantTags) == 0 {
				if err != nil {
					t.Errorf("Validate() error = %v; want nil", err)
				}
				return
			}
			for field, tag := range tt.wantTags {
				if tags[field] != tag {
					t.Errorf("field %q tag = %q; want %q (all: %v)", field, tags[field], tag, tags)
				}
			}
		})
	}
}

func TestUserStructValidation_passwordPolicy(t *testing.T) {
	tests := []struct {
		name    string
		pwd     string
		wantTag string
	}{
		{name: "too short", pwd: "Short1!", wantTag: pwdMinLenTag},
		{name: "whitespace", pwd: "Le Password69!", wantTag: pwdNoSpaceTag},
		{name: "all numeric", pwd: "1234567890", wantTag: pwdNotAllNumTag},
		{name: "no special char", pwd: "LePassword69", wantTag: pwdComplexityTag},
		{name: "no digit", pwd: "LePassword!", wantTag: pwdComplexityTag},
		{name: "no uppercase", pwd: "lepassword69!", wantTag: pwdComplexityTag},
		{name: "similar to username", pwd: "Xyzabc9!", wantTag: pwdAttrSimTag},
		{name: "ok", pwd: "LePassword69!"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nu := NewUser{
				Name:            "Test User",
				Username:        "xyzabc",
				Email:           "xyz@test.cd",
				Password:        tt.pwd,
				PasswordConfirm: tt.pwd,
				Role:            RoleAdmin,
			}
			err := core.Validate.Struct(&nu)
			tags := fieldTags(err)
			if tt.wantTag == "" {
				if err != nil {
					t.Errorf("Validate() error = %v; want nil", err)
				}
				return
			}
			if tags["password"] != tt.wantTag {
				t.Errorf("password tag = %q; want %q (all: %v)", tags["password"], tt.wantTag, tags)
			}
		})
	}
}

func TestResetUserPassword_passwordPolicy(t *testing.T) {
	rp := ResetUserPassword{
		UID:             "uid",
		Token:           "token",
		Password:        "short",
		PasswordConfirm: "short",
	}
	err := rp.Validate()
	if tags := fieldTags(err); tags["password"] != pwdMinLenTag {
		t.Errorf("password tag = %q; want %q", tags["password"], pwdMinLenTag)
	}
}
