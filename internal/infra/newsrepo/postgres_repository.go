package newsrepo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yanqian/crm-briefing/internal/domain/news"
)

const newsColumns = `id, title, subtitle, publish_date, link_url, is_active, created_at, updated_at`

var sortColumns = map[string]string{
	news.SortPublishDate: "publish_date",
	news.SortCreatedAt:   "created_at",
	news.SortUpdatedAt:   "updated_at",
	news.SortTitle:       "title",
}

// PostgresRepository implements news.Repository using pgx.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository constructs the repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Create inserts a news row.
func (r *PostgresRepository) Create(ctx context.Context, item news.News) (news.News, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO news (id, title, subtitle, publish_date, link_url, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+newsColumns,
		item.ID, item.Title, item.Subtitle, item.PublishDate, item.LinkURL, item.IsActive, item.CreatedAt, item.UpdatedAt)
	return scanNews(row)
}

// Get fetches a row regardless of its active flag.
func (r *PostgresRepository) Get(ctx context.Context, id string) (news.News, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+newsColumns+` FROM news WHERE id = $1`, id)
	return scanNews(row)
}

// List returns a page of active rows and the total match count.
func (r *PostgresRepository) List(ctx context.Context, filter news.ListFilter) ([]news.News, int, error) {
	where, args := buildWhere(filter)

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM news WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	column, ok := sortColumns[filter.SortBy]
	if !ok {
		column = "publish_date"
	}
	direction := "ASC"
	if filter.Desc {
		direction = "DESC"
	}
	query := fmt.Sprintf(`SELECT %s FROM news WHERE %s ORDER BY %s %s, id %s`, newsColumns, where, column, direction, direction)
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	items := make([]news.News, 0)
	for rows.Next() {
		item, err := scanNews(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, item)
	}
	return items, total, rows.Err()
}

// Update overwrites the mutable columns of a row.
func (r *PostgresRepository) Update(ctx context.Context, item news.News) (news.News, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE news
		SET title = $2, subtitle = $3, publish_date = $4, link_url = $5, is_active = $6, updated_at = $7
		WHERE id = $1
		RETURNING `+newsColumns,
		item.ID, item.Title, item.Subtitle, item.PublishDate, item.LinkURL, item.IsActive, item.UpdatedAt)
	return scanNews(row)
}

// Delete removes a row permanently.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM news WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return news.ErrNotFound
	}
	return nil
}

func buildWhere(filter news.ListFilter) (string, []any) {
	clauses := []string{"is_active = TRUE"}
	var args []any
	if filter.Search != "" {
		args = append(args, "%"+escapeLike(filter.Search)+"%")
		clauses = append(clauses, fmt.Sprintf("(title ILIKE $%[1]d OR subtitle ILIKE $%[1]d)", len(args)))
	}
	if filter.From != nil {
		args = append(args, *filter.From)
		clauses = append(clauses, fmt.Sprintf("publish_date >= $%d", len(args)))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		clauses = append(clauses, fmt.Sprintf("publish_date <= $%d", len(args)))
	}
	return strings.Join(clauses, " AND "), args
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNews(row rowScanner) (news.News, error) {
	var item news.News
	err := row.Scan(&item.ID, &item.Title, &item.Subtitle, &item.PublishDate, &item.LinkURL, &item.IsActive, &item.CreatedAt, &item.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return news.News{}, news.ErrNotFound
	}
	if err != nil {
		return news.News{}, err
	}
	return item, nil
}

var _ news.Repository = (*PostgresRepository)(nil)
