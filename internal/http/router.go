package http

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pribylovaa/go-news-cms/internal/http/handlers"
	"github.com/pribylovaa/go-news-cms/internal/http/middleware"
	"github.com/pribylovaa/go-news-cms/internal/metrics"
)

// bodySlack — запас сверх max_size_bytes на служебные части multipart.
const bodySlack = 1 << 20

// Options — параметры сборки HTTP-роутера.
type Options struct {
	Logger  *slog.Logger
	Metrics *metrics.Metrics // может быть nil
	Timeout time.Duration

	// MaxUploadBytes — лимит файла; тело запроса ограничивается MaxUploadBytes+bodySlack.
	MaxUploadBytes int64

	// UploadsPath/UploadsDir — раздача сохранённых файлов с диска; пустой Dir отключает раздачу.
	UploadsPath string
	UploadsDir  string
}

// Service — всё, что нужно обработчикам и guard'у от бизнес-логики.
type Service interface {
	handlers.NewsService
	handlers.AuthService
	middleware.TokenValidator
}

// NewRouter собирает http.Handler с chi и подключёнными middleware/роутами.
func NewRouter(svc Service, opts Options) http.Handler {
	root := chi.NewRouter()

	// Middleware (внешний -> внутренний).
	root.Use(
		middleware.Recover(),
		middleware.RequestID(),
		middleware.Logging(opts.Logger),
		middleware.Metrics(opts.Metrics),
	)

	if opts.Timeout > 0 {
		root.Use(middleware.Timeout(opts.Timeout))
	}

	h := handlers.New(svc, svc)
	maxBody := middleware.MaxBody(opts.MaxUploadBytes + bodySlack)

	// Публичные маршруты.
	root.Group(func(r chi.Router) {
		r.Use(middleware.MaxBody(bodySlack))
		r.Post("/api/register", h.RegisterUser)
		r.Post("/api/login", h.LoginUser)
	})

	// Маршруты за guard'ом.
	root.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(svc))

		r.Get("/api/news", h.ListNews)
		r.Get("/api/news/{id}", h.GetNewsByID)
		r.Delete("/api/news/{id}", h.DeleteNews)

		r.With(maxBody).Post("/api/news", h.CreateNews)
		r.With(maxBody).Post("/file/upload", h.UploadFile)
	})

	if opts.UploadsDir != "" && opts.UploadsPath != "" {
		prefix := "/" + strings.Trim(opts.UploadsPath, "/")
		static := middleware.Chain(http.FileServer(http.Dir(opts.UploadsDir)),
			stripPrefix(prefix+"/"),
			noListing,
		)
		root.Get(prefix+"/*", static.ServeHTTP)
	}

	return root
}

func stripPrefix(prefix string) middleware.Middleware {
	return func(next http.Handler) http.Handler { return http.StripPrefix(prefix, next) }
}

// noListing запрещает листинг каталога загрузок; ставится после stripPrefix.
func noListing(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "" || strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}
