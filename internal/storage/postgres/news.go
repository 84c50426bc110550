package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/pribylovaa/go-news-cms/internal/models"
	"github.com/pribylovaa/go-news-cms/internal/storage"

	"github.com/jackc/pgx/v5"
)

const newsColumns = `id, title, author, content, photo`

// InsertNews сохраняет новость; ID назначает BIGSERIAL.
func (s *Storage) InsertNews(ctx context.Context, news models.News) (*models.News, error) {
	const op = "storage.postgres.InsertNews"

	err := s.pool.QueryRow(ctx, `
	INSERT INTO news (title, author, content, photo)
	VALUES ($1, $2, $3, $4)
	RETURNING id
	`, news.Title, news.Author, news.Content, news.Photo).Scan(&news.ID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &news, nil
}

// DeleteNewsByID удаляет новость одним выражением и возвращает удалённую строку.
func (s *Storage) DeleteNewsByID(ctx context.Context, id int64) (*models.News, error) {
	const op = "storage.postgres.DeleteNewsByID"

	news, err := scanNews(s.pool.QueryRow(ctx, `
	DELETE FROM news
	WHERE id = $1
	RETURNING `+newsColumns, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return news, nil
}

// NewsByID возвращает новость по идентификатору.
// Если запись не найдена — storage.ErrNotFound.
func (s *Storage) NewsByID(ctx context.Context, id int64) (*models.News, error) {
	const op = "storage.postgres.NewsByID"

	news, err := scanNews(s.pool.QueryRow(ctx, `
	SELECT `+newsColumns+`
	FROM news
	WHERE id = $1
	`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return news, nil
}

// CountNews считает новости под фильтром (до применения окна).
func (s *Storage) CountNews(ctx context.Context, filter models.NewsFilter) (int64, error) {
	const op = "storage.postgres.CountNews"

	where, args := buildWhere(filter)

	var total int64
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM news`+where, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return total, nil
}

// SelectNews возвращает окно новостей под фильтром, сортировка id ASC.
func (s *Storage) SelectNews(ctx context.Context, filter models.NewsFilter, offset, limit int64) ([]models.News, error) {
	const op = "storage.postgres.SelectNews"

	where, args := buildWhere(filter)
	n := len(args)
	args = append(args, limit, offset)

	rows, err := s.pool.Query(ctx, `
	SELECT `+newsColumns+`
	FROM news`+where+`
	ORDER BY id ASC
	LIMIT $`+strconv.Itoa(n+1)+` OFFSET $`+strconv.Itoa(n+2), args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	items := make([]models.News, 0, limit)
	for rows.Next() {
		news, scanErr := scanNews(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("%s: scan row: %w", op, scanErr)
		}

		items = append(items, *news)
	}

	if rows.Err() != nil {
		return nil, fmt.Errorf("%s: rows: %w", op, rows.Err())
	}

	return items, nil
}

// buildWhere собирает WHERE с позиционными параметрами.
// Пустые поля фильтра пропускаются.
func buildWhere(filter models.NewsFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)

	if filter.Author != "" {
		args = append(args, likePattern(filter.Author))
		conds = append(conds, `author ILIKE $`+strconv.Itoa(len(args))+` ESCAPE '\'`)
	}
	if filter.Title != "" {
		args = append(args, likePattern(filter.Title))
		conds = append(conds, `title ILIKE $`+strconv.Itoa(len(args))+` ESCAPE '\'`)
	}

	if len(conds) == 0 {
		return "", nil
	}

	return " WHERE " + strings.Join(conds, " AND "), args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likePattern превращает пользовательскую подстроку в шаблон %...% с экранированием.
func likePattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}

func scanNews(row pgx.Row) (*models.News, error) {
	var news models.News
	if err := row.Scan(
		&news.ID,
		&news.Title,
		&news.Author,
		&news.Content,
		&news.Photo,
	); err != nil {
		return nil, err
	}

	return &news, nil
}
