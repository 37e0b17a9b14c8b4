package reservation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository interface {
	Create(ctx context.Context, r *Reservation) error
	GetByID(ctx context.Context, id string) (*Reservation, error)
	List(ctx context.Context, filter Filter) ([]*Reservation, int, error)

	// HasActiveOverlap reports whether an ACTIVE reservation of the office
	// shares at least one day with [start, end].
	HasActiveOverlap(ctx context.Context, officeID string, start, end time.Time) (bool, error)

	// Cancel flips the reservation to CANCELLED if it belongs to userID, is
	// still ACTIVE and starts after today. It returns ErrCannotCancel otherwise.
	Cancel(ctx context.Context, id, userID string, today time.Time) (*Reservation, error)

	// ListStartingOn returns ACTIVE reservations whose first day is day.
	ListStartingOn(ctx context.Context, day time.Time) ([]*Reservation, error)
}

type pgxRepository struct {
	pool *pgxpool.Pool
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{pool: pool}
}

var reservationColumns = []string{
	"r.id", "r.user_id", "r.office_id", "r.start_date", "r.end_date", "r.status",
	"r.price", "r.wifi_password", "r.created_at", "r.updated_at",
	"o.user_id", "o.title",
}

func scanReservation(row pgx.Row, extra ...any) (*Reservation, error) {
	var r Reservation
	var status string
	dest := []any{
		&r.ID, &r.UserID, &r.OfficeID, &r.StartDate, &r.EndDate, &status,
		&r.Price, &r.WifiPassword, &r.CreatedAt, &r.UpdatedAt,
		&r.HostID, &r.OfficeTitle,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	r.Status = Status(status)
	return &r, nil
}

func (r *pgxRepository) Create(ctx context.Context, res *Reservation) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Insert("public.reservations").
		Columns("user_id", "office_id", "start_date", "end_date", "status", "price", "wifi_password").
		Values(res.UserID, res.OfficeID, res.StartDate, res.EndDate, string(res.Status), res.Price, res.WifiPassword).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build create reservation query failed: %w", err)
	}

	if err := r.pool.QueryRow(ctx, query, args...).Scan(&res.ID, &res.CreatedAt, &res.UpdatedAt); err != nil {
		return fmt.Errorf("create reservation failed: %w", err)
	}
	return nil
}

func (r *pgxRepository) GetByID(ctx context.Context, id string) (*Reservation, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select(reservationColumns...).
		From("public.reservations r").
		Join("public.offices o ON o.id = r.office_id").
		Where(squirrel.Eq{"r.id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get reservation query failed: %w", err)
	}

	res, err := scanReservation(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get reservation failed: %w", err)
	}
	return res, nil
}

func (r *pgxRepository) List(ctx context.Context, filter Filter) ([]*Reservation, int, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query := psql.Select(append(reservationColumns, "count(*) OVER() AS total_count")...).
		From("public.reservations r").
		Join("public.offices o ON o.id = r.office_id")

	if filter.UserID != "" {
		query = query.Where(squirrel.Eq{"r.user_id": filter.UserID})
	}
	if filter.HostID != "" {
		query = query.Where(squirrel.Eq{"o.user_id": filter.HostID})
	}
	if filter.OfficeID != "" {
		query = query.Where(squirrel.Eq{"r.office_id": filter.OfficeID})
	}
	if filter.Status != "" {
		query = query.Where(squirrel.Eq{"r.status": string(filter.Status)})
	}
	// Overlap with [From, To], same predicate as the availability check.
	if filter.From != nil && filter.To != nil {
		query = query.Where(squirrel.LtOrEq{"r.start_date": *filter.To}).
			Where(squirrel.GtOrEq{"r.end_date": *filter.From})
	}

	query = query.OrderBy("r.start_date ASC", "r.id ASC")

	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = 20
	}
	offset := (filter.Page - 1) * filter.PageSize
	query = query.Limit(uint64(filter.PageSize)).Offset(uint64(offset))

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list reservations query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list reservations failed: %w", err)
	}
	defer rows.Close()

	var (
		items []*Reservation
		total int
	)
	for rows.Next() {
		res, err := scanReservation(rows, &total)
		if err != nil {
			return nil, 0, fmt.Errorf("scan reservation failed: %w", err)
		}
		items = append(items, res)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate reservations failed: %w", err)
	}
	return items, total, nil
}

func (r *pgxRepository) HasActiveOverlap(ctx context.Context, officeID string, start, end time.Time) (bool, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	subQuery := psql.Select("1").
		From("public.reservations").
		Where(squirrel.Eq{"office_id": officeID, "status": string(StatusActive)}).
		Where(squirrel.LtOrEq{"start_date": end}).
		Where(squirrel.GtOrEq{"end_date": start})

	sql, args, err := subQuery.ToSql()
	if err != nil {
		return false, fmt.Errorf("build check overlap query failed: %w", err)
	}

	var exists bool
	if err := r.pool.QueryRow(ctx, "SELECT EXISTS ("+sql+")", args...).Scan(&exists); err != nil {
		return false, fmt.Errorf("check overlap failed: %w", err)
	}
	return exists, nil
}

func (r *pgxRepository) Cancel(ctx context.Context, id, userID string, today time.Time) (*Reservation, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Update("public.reservations").
		Set("status", string(StatusCancelled)).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": id, "user_id": userID, "status": string(StatusActive)}).
		Where(squirrel.Gt{"start_date": today}).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build cancel reservation query failed: %w", err)
	}

	var cancelledID string
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&cancelledID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCannotCancel
		}
		return nil, fmt.Errorf("cancel reservation failed: %w", err)
	}
	return r.GetByID(ctx, cancelledID)
}

func (r *pgxRepository) ListStartingOn(ctx context.Context, day time.Time) ([]*Reservation, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select(reservationColumns...).
		From("public.reservations r").
		Join("public.offices o ON o.id = r.office_id").
		Where(squirrel.Eq{"r.status": string(StatusActive), "r.start_date": day}).
		OrderBy("r.id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build due reservations query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list due reservations failed: %w", err)
	}
	defer rows.Close()

	var items []*Reservation
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan due reservation failed: %w", err)
		}
		items = append(items, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate due reservations failed: %w", err)
	}
	return items, nil
}
