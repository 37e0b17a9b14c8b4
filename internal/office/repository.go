package office

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nekogravitycat/office-booking-backend/internal/tag"
)

type Repository interface {
	Create(ctx context.Context, o *Office, tagIDs []string) error
	GetByID(ctx context.Context, id string) (*Office, error)
	List(ctx context.Context, filter Filter) ([]*Office, int, error)
	// Update saves the editable fields of o. The stored approval status is
	// only touched when resetApproval is set, which moves it back to pending.
	// A nil tagIDs leaves the office's tags untouched.
	Update(ctx context.Context, o *Office, tagIDs []string, resetApproval bool) error
	SoftDelete(ctx context.Context, id string) error
	SetApprovalStatus(ctx context.Context, id string, status ApprovalStatus) error
	HasActiveReservations(ctx context.Context, id string) (bool, error)

	AddImage(ctx context.Context, officeID, fileID string) error
	// RemoveImage deletes the office/image link unless it is the only or the
	// featured image. It reports whether a row was removed.
	RemoveImage(ctx context.Context, officeID, fileID string) (bool, error)
}

type pgxRepository struct {
	pool *pgxpool.Pool
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{pool: pool}
}

// Great-circle distance in km between (?, ?) and the office, bound as lat, lng, lat.
const haversineColumn = `6371 * acos(LEAST(1.0, GREATEST(-1.0,
	cos(radians(?)) * cos(radians(o.lat)) * cos(radians(o.lng) - radians(?)) +
	sin(radians(?)) * sin(radians(o.lat))))) AS distance`

var officeColumns = []string{
	"o.id", "o.user_id", "o.title", "o.description", "o.lat", "o.lng",
	"o.address_line1", "o.address_line2", "o.approval_status", "o.hidden",
	"o.price_per_day", "o.monthly_discount", "o.featured_image_id",
	"o.created_at", "o.updated_at",
	"(SELECT count(*) FROM public.reservations r WHERE r.office_id = o.id AND r.status = 'active') AS reservations_count",
}

func scanOffice(row pgx.Row, extra ...any) (*Office, error) {
	var o Office
	var status string
	dest := []any{
		&o.ID, &o.UserID, &o.Title, &o.Description, &o.Lat, &o.Lng,
		&o.AddressLine1, &o.AddressLine2, &status, &o.Hidden,
		&o.PricePerDay, &o.MonthlyDiscount, &o.FeaturedImageID,
		&o.CreatedAt, &o.UpdatedAt, &o.ReservationsCount,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	o.ApprovalStatus = ApprovalStatus(status)
	return &o, nil
}

func (r *pgxRepository) Create(ctx context.Context, o *Office, tagIDs []string) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Insert("public.offices").
		Columns("user_id", "title", "description", "lat", "lng", "address_line1", "address_line2",
			"approval_status", "hidden", "price_per_day", "monthly_discount").
		Values(o.UserID, o.Title, o.Description, o.Lat, o.Lng, o.AddressLine1, o.AddressLine2,
			string(o.ApprovalStatus), o.Hidden, o.PricePerDay, o.MonthlyDiscount).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build create office query failed: %w", err)
	}

	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, query, args...).Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return fmt.Errorf("create office failed: %w", err)
		}
		return replaceTags(ctx, tx, o.ID, tagIDs)
	})
}

func (r *pgxRepository) GetByID(ctx context.Context, id string) (*Office, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select(officeColumns...).
		From("public.offices o").
		Where(squirrel.Eq{"o.id": id}).
		Where("o.deleted_at IS NULL").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get office query failed: %w", err)
	}

	o, err := scanOffice(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get office failed: %w", err)
	}

	if err := r.loadRelations(ctx, []*Office{o}); err != nil {
		return nil, err
	}
	return o, nil
}

func (r *pgxRepository) List(ctx context.Context, filter Filter) ([]*Office, int, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query := psql.Select(officeColumns...).
		From("public.offices o").
		Where("o.deleted_at IS NULL")

	// Hosts browsing their own listings see pending, rejected and hidden offices too.
	if filter.HostID == "" || filter.HostID != filter.RequesterID {
		query = query.Where(squirrel.Eq{"o.approval_status": string(ApprovalApproved), "o.hidden": false})
	}
	if filter.HostID != "" {
		query = query.Where(squirrel.Eq{"o.user_id": filter.HostID})
	}
	if filter.VisitorID != "" {
		query = query.Where("EXISTS (SELECT 1 FROM public.reservations vr WHERE vr.office_id = o.id AND vr.user_id = ?)", filter.VisitorID)
	}
	if len(filter.TagIDs) > 0 {
		sub, subArgs, err := squirrel.Select("1").
			From("public.office_tags ot").
			Where("ot.office_id = o.id").
			Where(squirrel.Eq{"ot.tag_id": filter.TagIDs}).
			ToSql()
		if err != nil {
			return nil, 0, fmt.Errorf("build tag filter failed: %w", err)
		}
		query = query.Where("EXISTS ("+sub+")", subArgs...)
	}

	if filter.Lat != nil && filter.Lng != nil {
		query = query.Column(haversineColumn, *filter.Lat, *filter.Lng, *filter.Lat).
			OrderBy("distance ASC", "o.id ASC")
	} else {
		query = query.Column("NULL::double precision AS distance").
			OrderBy("o.created_at DESC", "o.id DESC")
	}
	query = query.Column("count(*) OVER() AS total_count")

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
		return nil, 0, fmt.Errorf("build list offices query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list offices failed: %w", err)
	}
	defer rows.Close()

	var (
		offices []*Office
		total   int
	)
	for rows.Next() {
		var distance *float64
		o, err := scanOffice(rows, &distance, &total)
		if err != nil {
			return nil, 0, fmt.Errorf("scan office failed: %w", err)
		}
		o.Distance = distance
		offices = append(offices, o)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate offices failed: %w", err)
	}

	if err := r.loadRelations(ctx, offices); err != nil {
		return nil, 0, err
	}
	return offices, total, nil
}

func (r *pgxRepository) Update(ctx context.Context, o *Office, tagIDs []string, resetApproval bool) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	update := psql.Update("public.offices").
		Set("title", o.Title).
		Set("description", o.Description).
		Set("lat", o.Lat).
		Set("lng", o.Lng).
		Set("address_line1", o.AddressLine1).
		Set("address_line2", o.AddressLine2).
		Set("hidden", o.Hidden).
		Set("price_per_day", o.PricePerDay).
		Set("monthly_discount", o.MonthlyDiscount).
		Set("featured_image_id", o.FeaturedImageID).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": o.ID}).
		Where("deleted_at IS NULL")
	// Moderation decisions made since o was read must survive plain edits.
	if resetApproval {
		update = update.Set("approval_status", string(ApprovalPending))
	}
	query, args, err := update.
		Suffix("RETURNING updated_at, approval_status").
		ToSql()
	if err != nil {
		return fmt.Errorf("build update office query failed: %w", err)
	}

	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		var status string
		if err := tx.QueryRow(ctx, query, args...).Scan(&o.UpdatedAt, &status); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrNotFound
			}
			return fmt.Errorf("update office failed: %w", err)
		}
		o.ApprovalStatus = ApprovalStatus(status)
		if tagIDs == nil {
			return nil
		}
		return replaceTags(ctx, tx, o.ID, tagIDs)
	})
}

func (r *pgxRepository) SoftDelete(ctx context.Context, id string) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Update("public.offices").
		Set("deleted_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": id}).
		Where("deleted_at IS NULL").
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete office query failed: %w", err)
	}

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete office failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *pgxRepository) SetApprovalStatus(ctx context.Context, id string, status ApprovalStatus) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Update("public.offices").
		Set("approval_status", string(status)).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": id}).
		Where("deleted_at IS NULL").
		ToSql()
	if err != nil {
		return fmt.Errorf("build set approval query failed: %w", err)
	}

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("set approval status failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *pgxRepository) HasActiveReservations(ctx context.Context, id string) (bool, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	sql, args, err := psql.Select("1").
		From("public.reservations").
		Where(squirrel.Eq{"office_id": id, "status": "active"}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build active reservations query failed: %w", err)
	}

	var exists bool
	if err := r.pool.QueryRow(ctx, "SELECT EXISTS ("+sql+")", args...).Scan(&exists); err != nil {
		return false, fmt.Errorf("check active reservations failed: %w", err)
	}
	return exists, nil
}

func (r *pgxRepository) AddImage(ctx context.Context, officeID, fileID string) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Insert("public.office_images").
		Columns("file_id", "office_id").
		Values(fileID, officeID).
		ToSql()
	if err != nil {
		return fmt.Errorf("build add image query failed: %w", err)
	}

	if _, err := r.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("add office image failed: %w", err)
	}
	return nil
}

func (r *pgxRepository) RemoveImage(ctx context.Context, officeID, fileID string) (bool, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Delete("public.office_images").
		Where(squirrel.Eq{"file_id": fileID, "office_id": officeID}).
		Where("(SELECT count(*) FROM public.office_images x WHERE x.office_id = ?) > 1", officeID).
		Where("NOT EXISTS (SELECT 1 FROM public.offices f WHERE f.id = ? AND f.featured_image_id = ?)", officeID, fileID).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build remove image query failed: %w", err)
	}

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("remove office image failed: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// replaceTags makes tagIDs the complete tag set of the office.
func replaceTags(ctx context.Context, tx pgx.Tx, officeID string, tagIDs []string) error {
	if _, err := tx.Exec(ctx, "DELETE FROM public.office_tags WHERE office_id = $1", officeID); err != nil {
		return fmt.Errorf("clear office tags failed: %w", err)
	}
	if len(tagIDs) == 0 {
		return nil
	}

	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	insert := psql.Insert("public.office_tags").Columns("office_id", "tag_id")
	for _, id := range tagIDs {
		insert = insert.Values(officeID, id)
	}
	query, args, err := insert.Suffix("ON CONFLICT DO NOTHING").ToSql()
	if err != nil {
		return fmt.Errorf("build office tags query failed: %w", err)
	}
	if _, err := tx.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("insert office tags failed: %w", err)
	}
	return nil
}

// loadRelations fills tags and images for offices with one query each.
func (r *pgxRepository) loadRelations(ctx context.Context, offices []*Office) error {
	if len(offices) == 0 {
		return nil
	}

	byID := make(map[string]*Office, len(offices))
	ids := make([]string, len(offices))
	for i, o := range offices {
		byID[o.ID] = o
		ids[i] = o.ID
	}

	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

	tagQuery, tagArgs, err := psql.Select("ot.office_id", "t.id", "t.name", "t.created_at").
		From("public.office_tags ot").
		Join("public.tags t ON t.id = ot.tag_id").
		Where(squirrel.Eq{"ot.office_id": ids}).
		OrderBy("t.name").
		ToSql()
	if err != nil {
		return fmt.Errorf("build office tags query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, tagQuery, tagArgs...)
	if err != nil {
		return fmt.Errorf("load office tags failed: %w", err)
	}
	for rows.Next() {
		var officeID string
		var t tag.Tag
		if err := rows.Scan(&officeID, &t.ID, &t.Name, &t.CreatedAt); err != nil {
			rows.Close()
			return fmt.Errorf("scan office tag failed: %w", err)
		}
		byID[officeID].Tags = append(byID[officeID].Tags, t)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate office tags failed: %w", err)
	}

	imgQuery, imgArgs, err := psql.Select("file_id", "office_id", "created_at").
		From("public.office_images").
		Where(squirrel.Eq{"office_id": ids}).
		OrderBy("created_at", "file_id").
		ToSql()
	if err != nil {
		return fmt.Errorf("build office images query failed: %w", err)
	}

	rows, err = r.pool.Query(ctx, imgQuery, imgArgs...)
	if err != nil {
		return fmt.Errorf("load office images failed: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var img Image
		if err := rows.Scan(&img.ID, &img.OfficeID, &img.CreatedAt); err != nil {
			return fmt.Errorf("scan office image failed: %w", err)
		}
		byID[img.OfficeID].Images = append(byID[img.OfficeID].Images, img)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate office images failed: %w", err)
	}
	return nil
}
