package file

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository keeps the metadata of stored blobs. The bytes live in storage.
type Repository interface {
	Create(ctx context.Context, file *File) error
	GetByID(ctx context.Context, id string) (*File, error)
	Delete(ctx context.Context, id string) error
}

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

var fileColumns = []string{
	"id", "user_id", "filename", "storage_path", "thumbnail_path", "content_type", "size", "created_at",
}

type pgxRepository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{pool: pool}
}

func scanFile(row pgx.Row) (*File, error) {
	f := &File{}
	if err := row.Scan(
		&f.ID, &f.UserID, &f.Filename, &f.StoragePath, &f.ThumbnailPath, &f.ContentType, &f.Size, &f.CreatedAt,
	); err != nil {
		return nil, err
	}
	return f, nil
}

func (r *pgxRepository) Create(ctx context.Context, f *File) error {
	query, args, err := psql.Insert("files").
		Columns(fileColumns...).
		Values(f.ID, f.UserID, f.Filename, f.StoragePath, f.ThumbnailPath, f.ContentType, f.Size, f.CreatedAt).
		Suffix("RETURNING created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build create file query failed: %w", err)
	}

	if err := r.pool.QueryRow(ctx, query, args...).Scan(&f.CreatedAt); err != nil {
		return fmt.Errorf("create file failed: %w", err)
	}
	return nil
}

func (r *pgxRepository) GetByID(ctx context.Context, id string) (*File, error) {
	query, args, err := psql.Select(fileColumns...).
		From("files").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get file query failed: %w", err)
	}

	f, err := scanFile(r.pool.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get file failed: %w", err)
	}
	return f, nil
}

// Delete removes the metadata row. office_images rows cascade with it.
func (r *pgxRepository) Delete(ctx context.Context, id string) error {
	query, args, err := psql.Delete("files").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("build delete file query failed: %w", err)
	}

	ct, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete file failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
