package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"advent_calendar/internal/domain/models"
	"advent_calendar/internal/storage"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

const uniqueViolation = "23505"

var giftColumns = []string{
	"id", "number", "title", "description", "hint",
	"hint_image_url", "cover_url", "open_date", "created_at", "updated_at",
}

type GiftRepo struct {
	db *pgxpool.Pool
	sb sq.StatementBuilderType
}

func NewGiftRepository(db *pgxpool.Pool) *GiftRepo {
	return &GiftRepo{
		db: db,
		sb: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func (r *GiftRepo) CreateGift(ctx context.Context, gift models.Gift) (*models.Gift, error) {
	const op = "repository.gift_repository.CreateGift"

	if gift.ID == uuid.Nil {
		gift.ID = uuid.New()
	}

	query, args, err := r.sb.Insert("gifts").
		Columns(
			"id",
			"number",
			"title",
			"description",
			"hint",
			"hint_image_url",
			"cover_url",
			"open_date",
		).
		Values(
			gift.ID,
			gift.Number,
			gift.Title,
			gift.Description,
			gift.Hint,
			gift.HintImageURL,
			gift.CoverURL,
			gift.OpenDate,
		).
		Suffix("RETURNING created_at, updated_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	err = r.db.QueryRow(ctx, query, args...).Scan(&gift.CreatedAt, &gift.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrGiftExists)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &gift, nil
}

func (r *GiftRepo) GetGift(ctx context.Context, id uuid.UUID) (*models.Gift, error) {
	const op = "repository.gift_repository.GetGift"

	gift, err := r.getBy(ctx, sq.Eq{"id": id})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return gift, nil
}

func (r *GiftRepo) GetGiftByNumber(ctx context.Context, number int) (*models.Gift, error) {
	const op = "repository.gift_repository.GetGiftByNumber"

	gift, err := r.getBy(ctx, sq.Eq{"number": number})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return gift, nil
}

func (r *GiftRepo) getBy(ctx context.Context, where sq.Eq) (*models.Gift, error) {
	query, args, err := r.sb.Select(giftColumns...).
		From("gifts").
		Where(where).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build SQL query: %w", err)
	}

	var gift models.Gift
	if err := scanGift(r.db.QueryRow(ctx, query, args...), &gift); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrGiftNotFound
		}
		return nil, err
	}

	return &gift, nil
}

// ListGifts все подарки по возрастанию номера.
func (r *GiftRepo) ListGifts(ctx context.Context) ([]models.Gift, error) {
	const op = "repository.gift_repository.ListGifts"

	query, args, err := r.sb.Select(giftColumns...).
		From("gifts").
		OrderBy("number ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	gifts := make([]models.Gift, 0)
	for rows.Next() {
		var gift models.Gift
		if err := scanGift(rows, &gift); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		gifts = append(gifts, gift)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return gifts, nil
}

func (r *GiftRepo) UpdateGiftFields(ctx context.Context, id uuid.UUID, updates map[string]interface{}) error {
	const op = "repository.gift_repository.UpdateGiftFields"

	allowedFields := map[string]bool{
		"number":         true,
		"title":          true,
		"description":    true,
		"hint":           true,
		"hint_image_url": true,
		"cover_url":      true,
		"open_date":      true,
	}

	if len(updates) == 0 {
		return fmt.Errorf("%s: no fields to update", op)
	}

	updateBuilder := r.sb.Update("gifts").
		Set("updated_at", time.Now())

	for field, value := range updates {
		if !allowedFields[field] {
			return fmt.Errorf("%s: field '%s' is not allowed for update", op, field)
		}

		updateBuilder = updateBuilder.Set(field, value)
	}

	query, args, err := updateBuilder.Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	result, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%s: %w", op, storage.ErrGiftExists)
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrGiftNotFound)
	}

	return nil
}

// DeleteGift удаляет подарок, memory_photos уходят каскадом.
func (r *GiftRepo) DeleteGift(ctx context.Context, id uuid.UUID) error {
	const op = "repository.gift_repository.DeleteGift"

	query, args, err := r.sb.Delete("gifts").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	result, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrGiftNotFound)
	}

	return nil
}

// UpsertMemoryPhoto у подарка максимум одна фотография, старая запись заменяется.
func (r *GiftRepo) UpsertMemoryPhoto(ctx context.Context, photo models.MemoryPhoto) (*models.MemoryPhoto, error) {
	const op = "repository.gift_repository.UpsertMemoryPhoto"

	if photo.ID == uuid.Nil {
		photo.ID = uuid.New()
	}

	query, args, err := r.sb.Insert("memory_photos").
		Columns("id", "gift_id", "url", "storage_path", "caption").
		Values(photo.ID, photo.GiftID, photo.URL, photo.StoragePath, photo.Caption).
		Suffix(`ON CONFLICT (gift_id) DO UPDATE SET
			url = EXCLUDED.url,
			storage_path = EXCLUDED.storage_path,
			caption = EXCLUDED.caption,
			created_at = NOW()
		RETURNING id, created_at`).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	err = r.db.QueryRow(ctx, query, args...).Scan(&photo.ID, &photo.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrGiftNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &photo, nil
}

func (r *GiftRepo) GetMemoryPhoto(ctx context.Context, giftID uuid.UUID) (*models.MemoryPhoto, error) {
	const op = "repository.gift_repository.GetMemoryPhoto"

	query, args, err := r.sb.Select("id", "gift_id", "url", "storage_path", "caption", "created_at").
		From("memory_photos").
		Where(sq.Eq{"gift_id": giftID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var photo models.MemoryPhoto
	err = r.db.QueryRow(ctx, query, args...).Scan(
		&photo.ID,
		&photo.GiftID,
		&photo.URL,
		&photo.StoragePath,
		&photo.Caption,
		&photo.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrPhotoNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &photo, nil
}

func (r *GiftRepo) DeleteMemoryPhoto(ctx context.Context, giftID uuid.UUID) error {
	const op = "repository.gift_repository.DeleteMemoryPhoto"

	query, args, err := r.sb.Delete("memory_photos").
		Where(sq.Eq{"gift_id": giftID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	result, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrPhotoNotFound)
	}

	return nil
}

func scanGift(row pgx.Row, gift *models.Gift) error {
	return row.Scan(
		&gift.ID,
		&gift.Number,
		&gift.Title,
		&gift.Description,
		&gift.Hint,
		&gift.HintImageURL,
		&gift.CoverURL,
		&gift.OpenDate,
		&gift.CreatedAt,
		&gift.UpdatedAt,
	)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
