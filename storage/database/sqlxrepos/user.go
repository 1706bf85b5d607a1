package sqlxrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/startuplab/backend/core"
	"github.com/startuplab/backend/core/user"
)

const userColumns = `id, name, email, password_hash, role, plan, is_active, google_id, face_descriptor,
	created_at, updated_at, last_login`

type userRow struct {
	ID             string          `db:"id"`
	Name           string          `db:"name"`
	Email          string          `db:"email"`
	PasswordHash   null.Bytes      `db:"password_hash"`
	Role           string          `db:"role"`
	Plan           string          `db:"plan"`
	IsActive       bool            `db:"is_active"`
	GoogleID       null.String     `db:"google_id"`
	FaceDescriptor user.Descriptor `db:"face_descriptor"`
	CreatedAt      time.Time       `db:"created_at"`
	UpdatedAt      time.Time       `db:"updated_at"`
	LastLogin      null.Time       `db:"last_login"`
}

type userRepository struct {
	repository
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db core.DBExecutor) *userRepository {
	return &userRepository{repository{db: db}}
}

func (repo userRepository) toRow(usr user.User) userRow {
	return userRow{
		ID:             usr.ID,
		Name:           usr.Name,
		Email:          usr.Email,
		PasswordHash:   null.NewBytes(usr.PasswordHash, len(usr.PasswordHash) > 0),
		Role:           usr.Role,
		Plan:           usr.Plan,
		IsActive:       usr.IsActive,
		GoogleID:       null.NewString(usr.GoogleID, usr.GoogleID != ""),
		FaceDescriptor: usr.FaceDescriptor,
		CreatedAt:      usr.CreatedAt.UTC(),
		UpdatedAt:      usr.UpdatedAt.UTC(),
		LastLogin:      null.NewTime(usr.LastLogin.UTC(), !usr.LastLogin.IsZero()),
	}
}

func (repo userRepository) fromRow(row userRow) user.User {
	return user.User{
		ID:             row.ID,
		Name:           row.Name,
		Email:          row.Email,
		PasswordHash:   row.PasswordHash.Bytes,
		Role:           row.Role,
		Plan:           row.Plan,
		IsActive:       row.IsActive,
		GoogleID:       row.GoogleID.String,
		FaceDescriptor: row.FaceDescriptor,
		HasFaceLogin:   len(row.FaceDescriptor) > 0,
		CreatedAt:      row.CreatedAt,
		UpdatedAt:      row.UpdatedAt,
		LastLogin:      row.LastLogin.Time,
	}
}

func (repo userRepository) fromRows(rows []userRow) []user.User {
	users := make([]user.User, 0, len(rows))
	for _, row := range rows {
		users = append(users, repo.fromRow(row))
	}
	return users
}

func (repo userRepository) CheckEmailUniqueness(ctx context.Context, email string, excludedUsers []user.User, exec ...core.DBExecutor) error {
	query := "SELECT COUNT(*) FROM users WHERE email = ?"
	args := []interface{}{email}
	if len(excludedUsers) > 0 {
		ids := make([]string, 0, len(excludedUsers))
		for _, u := range excludedUsers {
			ids = append(ids, u.ID)
		}
		q, inArgs, err := sqlx.In(" AND id NOT IN (?)", ids)
		if err != nil {
			return errors.Wrap(err, "building uniqueness query")
		}
		query += q
		args = append(args, inArgs...)
	}

	n, err := count(ctx, repo.getExec(exec), query, args...)
	if err != nil {
		return errors.Wrap(err, "checking email uniqueness")
	}
	if n > 0 {
		return user.ErrEmailExists
	}
	return nil
}

func (repo userRepository) CreateUser(ctx context.Context, usr user.User, exec ...core.DBExecutor) (user.User, error) {
	usr.ID = uuid.NewString()
	_, err := namedExec(ctx, repo.getExec(exec), `
		INSERT INTO users (`+userColumns+`)
		VALUES (:id, :name, :email, :password_hash, :role, :plan, :is_active, :google_id, :face_descriptor,
			:created_at, :updated_at, :last_login)`, repo.toRow(usr))
	if err != nil {
		if isUniqueViolation(err, "users.email") {
			return user.User{}, user.ErrEmailExists
		}
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	usr.HasFaceLogin = len(usr.FaceDescriptor) > 0
	return usr, nil
}

var userOrderings = map[string]string{
	"name":       "name",
	"email":      "email",
	"plan":       "plan",
	"created_at": "created_at",
	"last_login": "last_login",
}

func (repo userRepository) QueryUsers(ctx context.Context, filter *user.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]user.User, error) {
	var conds []string
	var args []interface{}

	if filter != nil {
		// users with Name or Email matching the search keyword
		if filter.Search != "" {
			conds = append(conds, "(lower(name) LIKE ? OR lower(email) LIKE ?)")
			args = append(args, likeArg(filter.Search), likeArg(filter.Search))
		}
		if len(filter.Roles) > 0 {
			q, inArgs, err := sqlx.In("role IN (?)", filter.Roles)
			if err != nil {
				return nil, errors.Wrap(err, "filtering roles")
			}
			conds = append(conds, q)
			args = append(args, inArgs...)
		}
		if len(filter.Plans) > 0 {
			q, inArgs, err := sqlx.In("plan IN (?)", filter.Plans)
			if err != nil {
				return nil, errors.Wrap(err, "filtering plans")
			}
			conds = append(conds, q)
			args = append(args, inArgs...)
		}
		if filter.IsActive != nil {
			conds = append(conds, "is_active = ?")
			args = append(args, *filter.IsActive)
		}
	}

	exe := repo.getExec(exec)
	query := "SELECT " + userColumns + " FROM users" + where(conds) +
		" ORDER BY " + core.OrderByClause(ordering, userOrderings, "created_at DESC")

	var rows []userRow
	if err := exe.SelectContext(ctx, &rows, exe.Rebind(query), args...); err != nil {
		return nil, errors.Wrap(err, "querying users")
	}
	return repo.fromRows(rows), nil
}

func (repo userRepository) QueryFaceUsers(ctx context.Context, exec ...core.DBExecutor) ([]user.User, error) {
	var rows []userRow
	err := repo.getExec(exec).SelectContext(ctx, &rows,
		"SELECT "+userColumns+" FROM users WHERE is_active = 1 AND face_descriptor IS NOT NULL")
	if err != nil {
		return nil, errors.Wrap(err, "querying face users")
	}
	return repo.fromRows(rows), nil
}

func (repo userRepository) GetUser(ctx context.Context, filter user.GetFilter, exec ...core.DBExecutor) (user.User, error) {
	var cond string
	var arg string
	switch {
	case filter.ID != "":
		if _, err := uuid.Parse(filter.ID); err != nil {
			return user.User{}, user.ErrNotFound
		}
		cond, arg = "id = ?", filter.ID
	case filter.Email != "":
		cond, arg = "email = ?", filter.Email
	case filter.GoogleID != "":
		cond, arg = "google_id = ?", filter.GoogleID
	default:
		return user.User{}, user.ErrNotFound
	}

	var row userRow
	if err := repo.getExec(exec).GetContext(ctx, &row, "SELECT "+userColumns+" FROM users WHERE "+cond, arg); err != nil {
		return user.User{}, trapNoRowsErr(err, user.ErrNotFound, "finding user")
	}
	return repo.fromRow(row), nil
}

func (repo userRepository) UpdateUser(ctx context.Context, usr user.User, exec ...core.DBExecutor) (user.User, error) {
	res, err := namedExec(ctx, repo.getExec(exec), `
		UPDATE users SET
			name = :name, email = :email, password_hash = :password_hash, role = :role, plan = :plan,
			is_active = :is_active, google_id = :google_id, face_descriptor = :face_descriptor,
			updated_at = :updated_at, last_login = :last_login
		WHERE id = :id`, repo.toRow(usr))
	if err != nil {
		if isUniqueViolation(err, "users.email") {
			return user.User{}, user.ErrEmailExists
		}
		return user.User{}, errors.Wrap(err, "updating user")
	}
	if err = mustAffect(res, user.ErrNotFound); err != nil {
		return user.User{}, err
	}
	usr.HasFaceLogin = len(usr.FaceDescriptor) > 0
	return usr, nil
}

func (repo userRepository) SetUserPlan(ctx context.Context, id, planID string, exec ...core.DBExecutor) error {
	res, err := repo.getExec(exec).ExecContext(ctx,
		"UPDATE users SET plan = ?, updated_at = ? WHERE id = ?", planID, core.Now(), id)
	if err != nil {
		return errors.Wrap(err, "setting user plan")
	}
	return mustAffect(res, user.ErrNotFound)
}

func (repo userRepository) CountUsersByPlan(ctx context.Context, exec ...core.DBExecutor) (map[string]int, error) {
	var rows []struct {
		Plan  string `db:"plan"`
		Count int    `db:"count"`
	}
	if err := repo.getExec(exec).SelectContext(ctx, &rows, "SELECT plan, COUNT(*) AS count FROM users GROUP BY plan"); err != nil {
		return nil, errors.Wrap(err, "counting users by plan")
	}
	counts := make(map[string]int, len(rows))
	for _, row := range rows {
		counts[row.Plan] = row.Count
	}
	return counts, nil
}

func (repo userRepository) DeleteUsersByID(ctx context.Context, ids []string, exec ...core.DBExecutor) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	query, args, err := sqlx.In("DELETE FROM users WHERE id IN (?)", ids)
	if err != nil {
		return 0, errors.Wrap(err, "building delete query")
	}
	exe := repo.getExec(exec)
	res, err := exe.ExecContext(ctx, exe.Rebind(query), args...)
	if err != nil {
		return 0, errors.Wrap(err, "deleting users")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, errors.Wrap(err, "deleting users")
	}
	return int(n), nil
}
