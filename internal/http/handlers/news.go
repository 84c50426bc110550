package handlers

import (
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/pribylovaa/go-news-cms/internal/errors"
	"github.com/pribylovaa/go-news-cms/internal/models"
	"github.com/pribylovaa/go-news-cms/internal/pagination"
	"github.com/pribylovaa/go-news-cms/internal/service"
)

// CreateNews принимает JSON {title,author,content}, form-urlencoded
// или multipart/form-data с необязательной частью "photo".
func (h *Handlers) CreateNews(w http.ResponseWriter, r *http.Request) {
	in := service.CreateNewsInput{ContentLength: r.ContentLength}

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	switch mediaType {
	case "application/json":
		var req models.NewsCreateRequest
		if err := decodeStrict(r, &req); err != nil {
			apierrors.WriteError(w, r, err)
			return
		}
		in.Title, in.Author, in.Content = req.Title, req.Author, req.Content

	case "multipart/form-data":
		if err := h.News.AdmitUpload(r.Context(), r.ContentLength); err != nil {
			apierrors.WriteError(w, r, err)
			return
		}

		if err := parseMultipart(r); err != nil {
			apierrors.WriteError(w, r, err)
			return
		}
		defer cleanupMultipart(r)

		photo, closeFn, err := formFile(r, "photo")
		if err != nil {
			apierrors.WriteError(w, r, err)
			return
		}
		defer closeFn()

		in.Photo = photo
		in.Title, in.Author, in.Content = r.PostFormValue("title"), r.PostFormValue("author"), r.PostFormValue("content")

	default:
		if err := r.ParseForm(); err != nil {
			apierrors.WriteError(w, r, service.ErrInvalidArgument)
			return
		}
		in.Title, in.Author, in.Content = r.PostFormValue("title"), r.PostFormValue("author"), r.PostFormValue("content")
	}

	created, err := h.News.CreateNews(r.Context(), in)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	audit(r, "news.create", slog.Int64("news_id", created.ID))
	writeJSON(w, http.StatusCreated, newsToResponse(created))
}

// ListNews — GET /api/news?page=&limit=&author=&title=.
// Отсутствующие page/limit заменяются значениями по умолчанию, остальные
// читаются как ведущее целое (см. queryInt) и приводятся к границам сервисом.
func (h *Handlers) ListNews(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := models.NewsFilter{
		Author: q.Get("author"),
		Title:  q.Get("title"),
	}
	page := queryInt(q, "page", pagination.DefaultPage)
	limit := queryInt(q, "limit", h.News.DefaultLimit())

	res, err := h.News.ListNews(r.Context(), filter, page, limit)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, listToResponse(res))
}

func (h *Handlers) GetNewsByID(w http.ResponseWriter, r *http.Request) {
	n, err := h.News.NewsByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, newsToResponse(n))
}

func (h *Handlers) DeleteNews(w http.ResponseWriter, r *http.Request) {
	id, err := h.News.DeleteNews(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	audit(r, "news.delete", slog.Int64("news_id", id))
	writeJSON(w, http.StatusOK, models.NewsDeleteResponse{Status: "News deleted", ID: id})
}

// queryInt читает параметр как ведущее целое со знаком: "5abc" → 5,
// "abc" и "" → 0, переполнение упирается в границы int32.
// def возвращается, только если параметра нет в запросе.
func queryInt(q url.Values, key string, def int) int {
	vals, ok := q[key]
	if !ok || len(vals) == 0 {
		return def
	}

	s := strings.TrimLeft(vals[0], " \t\n\r\v\f")

	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	digitsFrom := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digitsFrom {
		return 0
	}

	// При ошибке диапазона ParseInt уже вернул ближайшую границу.
	n, _ := strconv.ParseInt(s[:end], 10, 32)
	return int(n)
}
