package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository interface {
	Insert(ctx context.Context, msg Message) error
	List(ctx context.Context, filter Filter) ([]*Notification, int, error)
	MarkRead(ctx context.Context, id, userID string, at time.Time) error
}

type pgxRepository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{pool: pool}
}

func (r *pgxRepository) Insert(ctx context.Context, msg Message) error {
	payload := msg.Payload
	if len(payload) == 0 {
		payload = []byte("{}")
	}

	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Insert("notifications").
		Columns("user_id", "kind", "payload", "created_at").
		Values(msg.Recipient, string(msg.Kind), string(payload), msg.CreatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert notification query failed: %w", err)
	}

	if _, err := r.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("insert notification failed: %w", err)
	}
	return nil
}

func (r *pgxRepository) List(ctx context.Context, filter Filter) ([]*Notification, int, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	q := psql.Select("id", "user_id", "kind", "payload", "created_at", "read_at", "count(*) OVER() AS total_count").
		From("notifications").
		Where(squirrel.Eq{"user_id": filter.UserID})

	if filter.UnreadOnly {
		q = q.Where(squirrel.Eq{"read_at": nil})
	}

	q = q.OrderBy("created_at DESC", "id DESC").
		Limit(uint64(filter.PageSize)).
		Offset(uint64((filter.Page - 1) * filter.PageSize))

	query, args, err := q.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list notifications query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list notifications failed: %w", err)
	}
	defer rows.Close()

	var (
		items []*Notification
		total int
	)
	for rows.Next() {
		n := &Notification{}
		var kind string
		var payload []byte
		if err := rows.Scan(&n.ID, &n.UserID, &kind, &payload, &n.CreatedAt, &n.ReadAt, &total); err != nil {
			return nil, 0, fmt.Errorf("scan notification failed: %w", err)
		}
		n.Kind = Kind(kind)
		n.Payload = payload
		items = append(items, n)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate notifications failed: %w", err)
	}

	return items, total, nil
}

func (r *pgxRepository) MarkRead(ctx context.Context, id, userID string, at time.Time) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Update("notifications").
		Set("read_at", squirrel.Expr("COALESCE(read_at, ?)", at)).
		Where(squirrel.Eq{"id": id, "user_id": userID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build mark read query failed: %w", err)
	}

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("mark notification read failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
