package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"universe/internal/model"
)

type ItemFilter struct {
	Location   string
	IsResolved *bool
	StartDate  *time.Time
	EndDate    *time.Time
	Limit      int
	Offset     int
}

type itemQuery struct {
	list  string
	count string
	args  []any // filter args only; list appends limit and offset
}

// buildItemQuery assembles the listing and count statements. Predicates are
// appended in a fixed order so placeholder numbering is deterministic.
func buildItemQuery(kind model.ItemKind, f ItemFilter) itemQuery {
	var (
		conds []string
		args  []any
	)
	next := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if f.Location != "" {
		next("i.location ILIKE $%d", "%"+f.Location+"%")
	}
	if f.IsResolved != nil {
		next("i.is_resolved = $%d", *f.IsResolved)
	}
	if f.StartDate != nil {
		next("i."+kind.DateColumn()+" >= $%d", *f.StartDate)
	}
	if f.EndDate != nil {
		next("i."+kind.DateColumn()+" <= $%d", *f.EndDate)
	}

	where := ""
	if len(conds) > 0 {
		where = "WHERE " + strings.Join(conds, " AND ")
	}

	list := fmt.Sprintf(`
		SELECT %s, u.email AS poster_email
		FROM %s i
		LEFT JOIN users u ON u.user_id = i.user_id
		%s
		ORDER BY i.%s DESC NULLS LAST, i.%s DESC
		LIMIT $%d OFFSET $%d`,
		itemColumns(kind, "i."), kind.Table(), where,
		kind.DateColumn(), kind.IDColumn(), len(args)+1, len(args)+2)
	count := fmt.Sprintf(`SELECT COUNT(*) FROM %s i %s`, kind.Table(), where)

	return itemQuery{list: list, count: count, args: args}
}

func itemColumns(kind model.ItemKind, prefix string) string {
	cols := []string{
		kind.IDColumn(), kind.NameColumn(), "user_id", "location", "description",
		kind.DateColumn(), "is_resolved", "resolved_at", "resolved_by_user_id",
	}
	for i, c := range cols {
		cols[i] = prefix + c
	}
	return strings.Join(cols, ", ")
}

func scanItem(row pgx.Row, kind model.ItemKind, extra ...any) (model.Item, error) {
	item := model.Item{Kind: kind}
	dest := []any{
		&item.ID, &item.Name, &item.UserID, &item.Location, &item.Description,
		&item.Date, &item.IsResolved, &item.ResolvedAt, &item.ResolvedByUserID,
	}
	err := row.Scan(append(dest, extra...)...)
	return item, err
}

func (q *Queries) CreateItem(ctx context.Context, kind model.ItemKind, userID int64, name, location string, description *string, date time.Time) (model.Item, error) {
	row := q.db.QueryRow(ctx, fmt.Sprintf(`
		INSERT INTO %s (%s, user_id, location, description, %s, is_resolved)
		VALUES ($1, $2, $3, $4, $5, false)
		RETURNING %s
	`, kind.Table(), kind.NameColumn(), kind.DateColumn(), itemColumns(kind, "")),
		name, userID, location, description, date)
	return scanItem(row, kind)
}

func (q *Queries) AddItemImage(ctx context.Context, kind model.ItemKind, itemID int64, url string) error {
	_, err := q.db.Exec(ctx, fmt.Sprintf(
		`INSERT INTO %s (%s, image_url) VALUES ($1, $2)`, kind.ImageTable(), kind.IDColumn(),
	), itemID, url)
	return err
}

func (q *Queries) ListItems(ctx context.Context, kind model.ItemKind, f ItemFilter) ([]model.Item, error) {
	built := buildItemQuery(kind, f)
	args := append(append([]any{}, built.args...), f.Limit, f.Offset)

	rows, err := q.db.Query(ctx, built.list, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Item, 0)
	for rows.Next() {
		var email *string
		item, err := scanItem(rows, kind, &email)
		if err != nil {
			return nil, err
		}
		item.PosterEmail = email
		items = append(items, item)
	}
	return items, rows.Err()
}

func (q *Queries) CountItems(ctx context.Context, kind model.ItemKind, f ItemFilter) (int64, error) {
	built := buildItemQuery(kind, f)
	var total int64
	err := q.db.QueryRow(ctx, built.count, built.args...).Scan(&total)
	return total, err
}

// ItemThumbnail returns the first image of an item, or nil.
func (q *Queries) ItemThumbnail(ctx context.Context, kind model.ItemKind, itemID int64) (*string, error) {
	var url string
	err := q.db.QueryRow(ctx, fmt.Sprintf(
		`SELECT image_url FROM %s WHERE %s = $1 ORDER BY image_id LIMIT 1`, kind.ImageTable(), kind.IDColumn(),
	), itemID).Scan(&url)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &url, nil
}

func (q *Queries) ItemImages(ctx context.Context, kind model.ItemKind, itemID int64) ([]string, error) {
	rows, err := q.db.Query(ctx, fmt.Sprintf(
		`SELECT image_url FROM %s WHERE %s = $1 ORDER BY image_id`, kind.ImageTable(), kind.IDColumn(),
	), itemID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	images := make([]string, 0)
	for rows.Next() {
		var url string
		if err := rows.Scan(&url); err != nil {
			return nil, err
		}
		images = append(images, url)
	}
	return images, rows.Err()
}

func (q *Queries) GetItem(ctx context.Context, kind model.ItemKind, itemID int64) (model.Item, error) {
	var email *string
	row := q.db.QueryRow(ctx, fmt.Sprintf(`
		SELECT %s, u.email
		FROM %s i
		LEFT JOIN users u ON u.user_id = i.user_id
		WHERE i.%s = $1
	`, itemColumns(kind, "i."), kind.Table(), kind.IDColumn()), itemID)
	item, err := scanItem(row, kind, &email)
	item.PosterEmail = email
	return item, err
}

// ResolveItem flips is_resolved for an unresolved item. It reports false when
// the item is missing or was already resolved.
func (q *Queries) ResolveItem(ctx context.Context, kind model.ItemKind, itemID, resolvedBy int64) (bool, error) {
	tag, err := q.db.Exec(ctx, fmt.Sprintf(`
		UPDATE %s
		SET is_resolved = true,
		    resolved_at = NOW(),
		    resolved_by_user_id = $1
		WHERE %s = $2 AND is_resolved = false
	`, kind.Table(), kind.IDColumn()), resolvedBy, itemID)
	return tag.RowsAffected() == 1, err
}

func (q *Queries) ItemExists(ctx context.Context, kind model.ItemKind, itemID int64) (bool, error) {
	var exists bool
	err := q.db.QueryRow(ctx, fmt.Sprintf(
		`SELECT EXISTS (SELECT 1 FROM %s WHERE %s = $1)`, kind.Table(), kind.IDColumn(),
	), itemID).Scan(&exists)
	return exists, err
}
