package sqlxrepos

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/miradi/core"
	"github.com/trezcool/miradi/core/user"
)

type userRepository struct {
	db *sqlx.DB
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

// kept in sync with the dummy store's sortable fields
var userOrderColumns = orderColumns("name", "username", "email", "created_at")

func NewUserRepository(db *sqlx.DB) *userRepository {
	return &userRepository{db: db}
}

// userRow mirrors the "user" table; the role-conditional profile columns are
// nullable and projected onto the matching profile struct on the way out.
type userRow struct {
	ID           string         `db:"id"`
	Name         string         `db:"name"`
	Username     string         `db:"username"`
	Email        string         `db:"email"`
	Role         string         `db:"role"`
	IsActive     bool           `db:"is_active"`
	IsSuperuser  bool           `db:"is_superuser"`
	Division     sql.NullString `db:"division"`
	RollNo       sql.NullString `db:"roll_no"`
	Semester     sql.NullInt64  `db:"semester"`
	Department   sql.NullString `db:"department"`
	Subject      sql.NullString `db:"subject"`
	PasswordHash []byte         `db:"password_hash"`
	CreatedAt    time.Time      `db:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at"`
	LastLogin    sql.NullTime   `db:"last_login"`
}

func (repo userRepository) marshal(usr user.User) userRow {
	row := userRow{
		ID:           usr.ID,
		Name:         usr.Name,
		Username:     usr.Username,
		Email:        usr.Email,
		Role:         usr.Role,
		IsActive:     usr.Active(),
		IsSuperuser:  usr.IsSuperuser,
		PasswordHash: usr.PasswordHash,
		CreatedAt:    usr.CreatedAt.UTC(),
		UpdatedAt:    usr.UpdatedAt.UTC(),
	}
	if !usr.LastLogin.IsZero() {
		row.LastLogin = sql.NullTime{Time: usr.LastLogin.UTC(), Valid: true}
	}
	if usr.Student != nil {
		row.Division = sql.NullString{String: usr.Student.Division, Valid: true}
		row.RollNo = sql.NullString{String: usr.Student.RollNo, Valid: true}
		row.Semester = sql.NullInt64{Int64: int64(usr.Student.Semester), Valid: true}
	}
	if usr.Teacher != nil {
		row.Department = sql.NullString{String: usr.Teacher.Department, Valid: true}
		row.Subject = sql.NullString{String: usr.Teacher.Subject, Valid: true}
	}
	return row
}

func (repo userRepository) unmarshal(row userRow) user.User {
	usr := user.User{
		ID:           row.ID,
		Name:         row.Name,
		Username:     row.Username,
		Email:        row.Email,
		Role:         row.Role,
		IsSuperuser:  row.IsSuperuser,
		PasswordHash: row.PasswordHash,
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
		LastLogin:    row.LastLogin.Time,
	}
	usr.SetActive(row.IsActive)
	switch row.Role {
	case user.RoleStudent:
		usr.Student = &user.StudentProfile{
			Division: row.Division.String,
			RollNo:   row.RollNo.String,
			Semester: int(row.Semester.Int64),
		}
	case user.RoleTeacher:
		usr.Teacher = &user.TeacherProfile{
			Department: row.Department.String,
			Subject:    row.Subject.String,
		}
	}
	return usr
}

// trapNoRowsErr maps psql "no rows" err to user.ErrNotFound
func (repo userRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return user.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo userRepository) CheckUsernameUniqueness(ctx context.Context, username, email string, excludedUsers ...user.User) error {
	q := `SELECT username, email FROM "user" WHERE (username = ? OR email = ?)`
	args := []interface{}{username, email}
	if len(excludedUsers) > 0 {
		q += ` AND id NOT IN (` + placeholders(len(excludedUsers)) + `)`
		for _, u := range excludedUsers {
			args = append(args, u.ID)
		}
	}

	var rows []userRow
	if err := sqlx.SelectContext(ctx, repo.db, &rows, repo.db.Rebind(q), args...); err != nil {
		return errors.Wrap(err, "checking user uniqueness")
	}
	for _, row := range rows {
		if row.Username == username {
			return user.ErrUsernameExists
		}
		if row.Email == email {
			return user.ErrEmailExists
		}
	}
	return nil
}

func (repo userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	usr.ID = uuid.New().String()
	row := repo.marshal(usr)
	q := `INSERT INTO "user" (id, name, username, email, role, is_active, is_superuser,
                              division, roll_no, semester, department, subject,
                              password_hash, created_at, updated_at, last_login)
          VALUES (:id, :name, :username, :email, :role, :is_active, :is_superuser,
                  :division, :roll_no, :semester, :department, :subject,
                  :password_hash, :created_at, :updated_at, :last_login)`
	if _, err := sqlx.NamedExecContext(ctx, repo.db, q, row); err != nil {
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	return repo.unmarshal(row), nil
}

func (repo userRepository) GetUser(ctx context.Context, filter user.GetFilter) (user.User, error) {
	var (
		q    string
		args []interface{}
	)
	switch {
	case filter.ID != "":
		if _, err := uuid.Parse(filter.ID); err != nil {
			return user.User{}, user.ErrNotFound
		}
		q, args = `SELECT * FROM "user" WHERE id = ?`, []interface{}{filter.ID}
	case filter.Username != "":
		q, args = `SELECT * FROM "user" WHERE username = ?`, []interface{}{filter.Username}
	case filter.Email != "":
		q, args = `SELECT * FROM "user" WHERE email = ?`, []interface{}{filter.Email}
	case len(filter.UsernameOrEmail) > 0:
		uname := filter.UsernameOrEmail[0]
		email := uname
		if len(filter.UsernameOrEmail) == 2 && filter.UsernameOrEmail[1] != "" {
			email = filter.UsernameOrEmail[1]
		}
		q, args = `SELECT * FROM "user" WHERE username = ? OR email = ?`, []interface{}{uname, email}
	default:
		return user.User{}, user.ErrNotFound
	}

	var row userRow
	if err := sqlx.GetContext(ctx, repo.db, &row, repo.db.Rebind(q), args...); err != nil {
		return user.User{}, repo.trapNoRowsErr(err, "finding user")
	}
	return repo.unmarshal(row), nil
}

func (repo userRepository) buildFilter(filter *user.QueryFilter) (string, []interface{}) {
	var (
		conds []string
		args  []interface{}
	)
	if filter == nil {
		return "", nil
	}
	if filter.Search != "" {
		val := "%" + filter.Search + "%"
		conds = append(conds, `(name ILIKE ? OR username ILIKE ? OR email ILIKE ? OR roll_no ILIKE ?)`)
		args = append(args, val, val, val, val)
	}
	if len(filter.Roles) > 0 {
		conds = append(conds, `role IN (`+strings.TrimRight(strings.Repeat("?,", len(filter.Roles)), ",")+`)`)
		for _, r := range filter.Roles {
			args = append(args, r)
		}
	}
	if filter.Division != "" {
		conds = append(conds, `division = ?`)
		args = append(args, filter.Division)
	}
	if filter.Semester != 0 {
		conds = append(conds, `semester = ?`)
		args = append(args, filter.Semester)
	}
	if filter.IsActive != nil {
		conds = append(conds, `is_active = ?`)
		args = append(args, *filter.IsActive)
	}
	if !filter.CreatedFrom.IsZero() {
		conds = append(conds, `created_at >= ?`)
		args = append(args, filter.CreatedFrom.UTC())
	}
	if !filter.CreatedTo.IsZero() {
		conds = append(conds, `created_at <= ?`)
		args = append(args, filter.CreatedTo.UTC())
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (repo userRepository) QueryUsers(ctx context.Context, filter *user.QueryFilter, ordering []core.DBOrdering) ([]user.User, error) {
	q := `SELECT * FROM "user"`
	where, args := repo.buildFilter(filter)
	q += where
	q += orderBy(ordering, userOrderColumns)

	var rows []userRow
	if err := sqlx.SelectContext(ctx, repo.db, &rows, repo.db.Rebind(q), args...); err != nil {
		return nil, errors.Wrap(err, "querying users")
	}
	users := make([]user.User, 0, len(rows))
	for _, row := range rows {
		users = append(users, repo.unmarshal(row))
	}
	return users, nil
}

func (repo userRepository) CountUsers(ctx context.Context, filter *user.QueryFilter) (int, error) {
	q := `SELECT COUNT(*) FROM "user"`
	where, args := repo.buildFilter(filter)
	q += where

	var count int
	if err := sqlx.GetContext(ctx, repo.db, &count, repo.db.Rebind(q), args...); err != nil {
		return 0, errors.Wrap(err, "counting users")
	}
	return count, nil
}

func (repo userRepository) UpdateUser(ctx context.Context, usr user.User) (user.User, error) {
	row := repo.marshal(usr)
	q := `UPDATE "user"
          SET name = :name, username = :username, email = :email, role = :role,
              is_active = :is_active, is_superuser = :is_superuser,
              division = :division, roll_no = :roll_no, semester = :semester,
              department = :department, subject = :subject,
              password_hash = :password_hash, updated_at = :updated_at, last_login = :last_login
          WHERE id = :id`
	res, err := sqlx.NamedExecContext(ctx, repo.db, q, row)
	if err != nil {
		return user.User{}, errors.Wrap(err, "updating user")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return user.User{}, user.ErrNotFound
	}
	return repo.unmarshal(row), nil
}

func (repo userRepository) UpdateOrCreateUser(ctx context.Context, usr user.User) (user.User, error) {
	if usr.ID == "" {
		return repo.CreateUser(ctx, usr)
	}
	return repo.UpdateUser(ctx, usr)
}

func (repo userRepository) DeleteUsersByID(ctx context.Context, ids []string) (int, error) {
	q, args, err := sqlx.In(`DELETE FROM "user" WHERE id IN (?)`, ids)
	if err != nil {
		return 0, errors.Wrap(err, "deleting users")
	}
	res, err := repo.db.ExecContext(ctx, repo.db.Rebind(q), args...)
	if err != nil {
		return 0, errors.Wrap(err, "deleting users")
	}
	cnt, _ := res.RowsAffected()
	return int(cnt), nil
}
