package user

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository defines methods for accessing user data from storage.
type Repository interface {
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	Create(ctx context.Context, u *User) error
	UpdateLastLogin(ctx context.Context, id string, t time.Time) error
	List(ctx context.Context, filter UserFilter) ([]*User, int, error)
	ListAdmins(ctx context.Context) ([]*User, error)
	Update(ctx context.Context, u *User) error
	Delete(ctx context.Context, id string) error
}

type pgxUserRepository struct {
	pool *pgxpool.Pool
}

// NewPgxRepository creates a new Repository implementation using pgxpool.
func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxUserRepository{pool: pool}
}

var userColumns = []string{
	"u.id", "u.email", "u.password_hash", "u.display_name",
	"u.created_at", "u.last_login_at", "u.is_active", "u.is_system_admin",
}

var sortableColumns = map[string]string{
	"created_at": "u.created_at",
	"email":      "u.email",
	"name":       "u.display_name",
}

func scanUser(row pgx.Row, extra ...any) (*User, error) {
	var u User
	dest := []any{
		&u.ID, &u.Email, &u.PasswordHash, &u.DisplayName,
		&u.CreatedAt, &u.LastLoginAt, &u.IsActive, &u.IsSystemAdmin,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *pgxUserRepository) getOne(ctx context.Context, where squirrel.Sqlizer) (*User, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select(userColumns...).From("public.users u").Where(where).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get user query failed: %w", err)
	}

	u, err := scanUser(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get user failed: %w", err)
	}
	return u, nil
}

func (r *pgxUserRepository) GetByEmail(ctx context.Context, email string) (*User, error) {
	return r.getOne(ctx, squirrel.Eq{"u.email": email})
}

func (r *pgxUserRepository) GetByID(ctx context.Context, id string) (*User, error) {
	return r.getOne(ctx, squirrel.Eq{"u.id": id})
}

func (r *pgxUserRepository) Create(ctx context.Context, u *User) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Insert("public.users").
		Columns("email", "password_hash", "display_name", "is_active", "is_system_admin").
		Values(u.Email, u.PasswordHash, u.DisplayName, u.IsActive, u.IsSystemAdmin).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build create user query failed: %w", err)
	}

	if err := r.pool.QueryRow(ctx, query, args...).Scan(&u.ID, &u.CreatedAt); err != nil {
		var e *pgconn.PgError
		if errors.As(err, &e) && e.Code == pgerrcode.UniqueViolation {
			return ErrEmailAlreadyUsed
		}
		return fmt.Errorf("create user failed: %w", err)
	}
	return nil
}

func (r *pgxUserRepository) UpdateLastLogin(ctx context.Context, id string, t time.Time) error {
	return r.exec(ctx, "update last login", squirrel.Update("public.users").
		Set("last_login_at", t).
		Where(squirrel.Eq{"id": id}))
}

func (r *pgxUserRepository) List(ctx context.Context, filter UserFilter) ([]*User, int, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query := psql.Select(append(userColumns, "count(*) OVER() AS total_count")...).
		From("public.users u")

	if filter.Email != "" {
		query = query.Where(squirrel.ILike{"u.email": "%" + filter.Email + "%"})
	}
	if filter.DisplayName != "" {
		query = query.Where(squirrel.ILike{"u.display_name": "%" + filter.DisplayName + "%"})
	}
	if filter.IsActive != nil {
		query = query.Where(squirrel.Eq{"u.is_active": *filter.IsActive})
	}
	if filter.IsAdmin != nil {
		query = query.Where(squirrel.Eq{"u.is_system_admin": *filter.IsAdmin})
	}

	// Sorting, restricted to known columns
	orderBy, ok := sortableColumns[filter.SortBy]
	if !ok {
		orderBy = "u.created_at"
	}
	orderDir := "DESC"
	if filter.SortOrder == "ASC" {
		orderDir = "ASC"
	}
	query = query.OrderBy(orderBy+" "+orderDir, "u.id")

	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = 20
	}
	query = query.Limit(uint64(filter.PageSize)).Offset(uint64((filter.Page - 1) * filter.PageSize))

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list users query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list users failed: %w", err)
	}
	defer rows.Close()

	var (
		users []*User
		total int
	)
	for rows.Next() {
		u, err := scanUser(rows, &total)
		if err != nil {
			return nil, 0, fmt.Errorf("scan user failed: %w", err)
		}
		users = append(users, u)
	}
	return users, total, rows.Err()
}

// ListAdmins returns every active system admin.
func (r *pgxUserRepository) ListAdmins(ctx context.Context) ([]*User, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select(userColumns...).
		From("public.users u").
		Where(squirrel.Eq{"u.is_system_admin": true, "u.is_active": true}).
		OrderBy("u.created_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list admins query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list admins failed: %w", err)
	}
	defer rows.Close()

	var admins []*User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan admin failed: %w", err)
		}
		admins = append(admins, u)
	}
	return admins, rows.Err()
}

func (r *pgxUserRepository) Update(ctx context.Context, u *User) error {
	return r.exec(ctx, "update user", squirrel.Update("public.users").
		Set("display_name", u.DisplayName).
		Set("is_active", u.IsActive).
		Set("is_system_admin", u.IsSystemAdmin).
		Where(squirrel.Eq{"id": u.ID}))
}

// Delete deactivates the user; rows are kept for reservation history.
func (r *pgxUserRepository) Delete(ctx context.Context, id string) error {
	return r.exec(ctx, "delete user", squirrel.Update("public.users").
		Set("is_active", false).
		Where(squirrel.Eq{"id": id}))
}

// exec runs a single-row update and maps zero affected rows to ErrNotFound.
func (r *pgxUserRepository) exec(ctx context.Context, op string, b squirrel.UpdateBuilder) error {
	query, args, err := b.PlaceholderFormat(squirrel.Dollar).ToSql()
	if err != nil {
		return fmt.Errorf("build %s query failed: %w", op, err)
	}

	ct, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s failed: %w", op, err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
