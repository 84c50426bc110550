package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"

	apierrors "github.com/pribylovaa/go-news-cms/internal/errors"
	"github.com/pribylovaa/go-news-cms/internal/models"
	"github.com/pribylovaa/go-news-cms/internal/service"
	"github.com/pribylovaa/go-news-cms/internal/uploads"
)

// multipartMemory — сколько multipart-данных держать в памяти; остальное спулится во временные файлы.
const multipartMemory = 8 << 20

// UploadFile принимает multipart-часть "file" и отвечает 201 {"url"}.
// Запрос без multipart-тела — это «файл не загружен».
func (h *Handlers) UploadFile(w http.ResponseWriter, r *http.Request) {
	if err := h.News.AdmitUpload(r.Context(), r.ContentLength); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	if !isMultipart(r) {
		apierrors.WriteError(w, r, uploads.ErrNoFile)
		return
	}

	if err := parseMultipart(r); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}
	defer cleanupMultipart(r)

	f, closeFn, err := formFile(r, "file")
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}
	defer closeFn()

	stored, err := h.News.UploadFile(r.Context(), r.ContentLength, f)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	audit(r, "file.upload", slog.String("url", stored.URL))
	writeJSON(w, http.StatusCreated, models.UploadResponse{URL: stored.URL})
}

// parseMultipart разбирает multipart/form-data; прочие типы — ErrInvalidArgument.
func parseMultipart(r *http.Request) error {
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			return err
		}
		return fmt.Errorf("%w: %v", service.ErrInvalidArgument, err)
	}

	return nil
}

func isMultipart(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "multipart/form-data"
}

func cleanupMultipart(r *http.Request) {
	if r.MultipartForm != nil {
		_ = r.MultipartForm.RemoveAll()
	}
}

// formFile открывает часть field; отсутствие части — (nil, noop, nil),
// решение о NoFile принимает валидатор.
func formFile(r *http.Request, field string) (*uploads.File, func(), error) {
	noop := func() {}

	if r.MultipartForm == nil || len(r.MultipartForm.File[field]) == 0 {
		return nil, noop, nil
	}

	fh := r.MultipartForm.File[field][0]

	src, err := fh.Open()
	if err != nil {
		return nil, noop, fmt.Errorf("%w: open part %q: %v", service.ErrInvalidArgument, field, err)
	}

	return fileFromHeader(src, fh), func() { _ = src.Close() }, nil
}

func fileFromHeader(src multipart.File, fh *multipart.FileHeader) *uploads.File {
	return &uploads.File{
		Reader:       src,
		DeclaredType: fh.Header.Get("Content-Type"),
		DeclaredSize: fh.Size,
		OriginalName: fh.Filename,
	}
}
