package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/pribylovaa/go-news-cms/internal/config"
	"github.com/pribylovaa/go-news-cms/internal/models"
	"github.com/pribylovaa/go-news-cms/internal/pagination"
	"github.com/pribylovaa/go-news-cms/internal/storage"
	"github.com/pribylovaa/go-news-cms/internal/uploads"
	"github.com/pribylovaa/go-news-cms/mocks"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"
)

var (
	pngBytes  = append([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), bytes.Repeat([]byte{0}, 32)...)
	textBytes = []byte("plain text pretending to be a picture")
)

func testConfig() *config.Config {
	return &config.Config{
		Auth: config.AuthConfig{
			JWTSecret:      "unit-secret",
			AccessTokenTTL: 30 * time.Second,
			Issuer:         "news-cms",
		},
		Uploads: config.UploadsConfig{
			MaxSizeBytes:     1 << 20,
			AllowedMIMETypes: []string{"image/png", "image/jpeg"},
			MIMESource:       config.MIMESourceSniffed,
		},
		Limits: config.LimitsConfig{Default: 10, Max: 100},
	}
}

type testDeps struct {
	st    *mocks.MockStorage
	files *mocks.MockFileStore
	ctrl  *gomock.Controller
}

func newSvc(t *testing.T) (*Service, testDeps) {
	t.Helper()
	ctrl := gomock.NewController(t)
	st := mocks.NewMockStorage(ctrl)
	files := mocks.NewMockFileStore(ctrl)
	return New(st, testConfig(), files), testDeps{st: st, files: files, ctrl: ctrl}
}

func pngFile() *uploads.File {
	return &uploads.File{
		Reader:       bytes.NewReader(pngBytes),
		DeclaredType: "image/png",
		DeclaredSize: int64(len(pngBytes)),
		OriginalName: "photo.png",
	}
}

func fmtWrap(err error) error { return fmt.Errorf("wrapped: %w", err) }

func validInput() CreateNewsInput {
	return CreateNewsInput{Title: "A", Author: "B", Content: "C", ContentLength: -1}
}

// TestCreateNews_MissingFields — проверка полей идёт раньше любой работы с файлом.
func TestCreateNews_MissingFields(t *testing.T) {
	t.Parallel()

	svc, d := newSvc(t)
	defer d.ctrl.Finish()

	cases := []CreateNewsInput{
		{Author: "B", Content: "C"},
		{Title: "A", Content: "C"},
		{Title: "A", Author: "B"},
		{Title: "   ", Author: "B", Content: "C", Photo: pngFile()},
	}
	for _, in := range cases {
		_, err := svc.CreateNews(context.Background(), in)
		require.ErrorIs(t, err, ErrMissingFields)
	}
}

func TestCreateNews_NoPhoto_OK(t *testing.T) {
	t.Parallel()

	svc, d := newSvc(t)
	defer d.ctrl.Finish()

	d.st.EXPECT().
		InsertNews(gomock.Any(), models.News{Title: "A", Author: "B", Content: "C"}).
		DoAndReturn(func(_ context.Context, n models.News) (*models.News, error) {
			n.ID = 1
			return &n, nil
		})

	in := validInput()
	in.Title = "  A  "
	got, err := svc.CreateNews(context.Background(), in)
	require.NoError(t, err)
	require.Equal(t, int64(1), got.ID)
	require.Equal(t, "A", got.Title)
	require.Nil(t, got.Photo)
}

func TestCreateNews_WithPhoto_OK(t *testing.T) {
	t.Parallel()

	svc, d := newSvc(t)
	defer d.ctrl.Finish()

	const url = "/uploads/0190-abc.png"

	gomock.InOrder(
		d.files.EXPECT().Save(gomock.Any(), gomock.Any()).
			Return(&uploads.StoredFile{Name: "0190-abc.png", URL: url, ContentType: "image/png"}, nil),
		d.st.EXPECT().InsertNews(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, n models.News) (*models.News, error) {
				require.NotNil(t, n.Photo)
				require.Equal(t, url, *n.Photo)
				n.ID = 7
				return &n, nil
			}),
	)

	in := validInput()
	in.Photo = pngFile()
	got, err := svc.CreateNews(context.Background(), in)
	require.NoError(t, err)
	require.Equal(t, int64(7), got.ID)
	require.Equal(t, url, *got.Photo)
}

// TestCreateNews_PhotoRejected — отклонённое фото: ни записи файла, ни вставки в БД.
func TestCreateNews_PhotoRejected(t *testing.T) {
	t.Parallel()

	svc, d := newSvc(t)
	defer d.ctrl.Finish()

	in := validInput()
	in.Photo = &uploads.File{Reader: bytes.NewReader(textBytes), DeclaredType: "image/png", DeclaredSize: int64(len(textBytes))}
	_, err := svc.CreateNews(context.Background(), in)
	require.ErrorIs(t, err, uploads.ErrUnsupportedType)

	in = validInput()
	in.Photo = pngFile()
	in.ContentLength = 2 << 20
	_, err = svc.CreateNews(context.Background(), in)
	require.ErrorIs(t, err, uploads.ErrTooLarge)
}

func TestCreateNews_StoreFailed(t *testing.T) {
	t.Parallel()

	svc, d := newSvc(t)
	defer d.ctrl.Finish()

	d.files.EXPECT().Save(gomock.Any(), gomock.Any()).Return(nil, fmtWrap(uploads.ErrWriteFailed))

	in := validInput()
	in.Photo = pngFile()
	_, err := svc.CreateNews(context.Background(), in)
	require.ErrorIs(t, err, uploads.ErrWriteFailed)
}

// TestCreateNews_InsertFailed_RollsBackPhoto — при ошибке БД сохранённый файл удаляется.
func TestCreateNews_InsertFailed_RollsBackPhoto(t *testing.T) {
	t.Parallel()

	svc, d := newSvc(t)
	defer d.ctrl.Finish()

	const url = "/uploads/x.png"
	dbErr := errors.New("db down")

	gomock.InOrder(
		d.files.EXPECT().Save(gomock.Any(), gomock.Any()).Return(&uploads.StoredFile{Name: "x.png", URL: url}, nil),
		d.st.EXPECT().InsertNews(gomock.Any(), gomock.Any()).Return(nil, dbErr),
		d.files.EXPECT().Remove(gomock.Any(), url).Return(errors.New("already gone")),
	)

	in := validInput()
	in.Photo = pngFile()
	got, err := svc.CreateNews(context.Background(), in)
	require.ErrorIs(t, err, dbErr)
	require.Nil(t, got)
}

func TestCreateNews_InvalidatesListCache(t *testing.T) {
	t.Parallel()

	svc, d := newSvc(t)
	defer d.ctrl.Finish()

	lc := mocks.NewMockListCache(d.ctrl)
	svc.SetListCache(lc, time.Minute)

	d.st.EXPECT().InsertNews(gomock.Any(), gomock.Any()).Return(&models.News{ID: 1}, nil)
	lc.EXPECT().Invalidate(gomock.Any()).Return(errors.New("redis down"))

	_, err := svc.CreateNews(context.Background(), validInput())
	require.NoError(t, err)
}

func TestDeleteNews_InvalidID(t *testing.T) {
	t.Parallel()

	svc, d := newSvc(t)
	defer d.ctrl.Finish()

	for _, raw := range []string{"", "abc", "0", "-3", "1.5", "99999999999999999999"} {
		_, err := svc.DeleteNews(context.Background(), raw)
		require.ErrorIs(t, err, ErrInvalidID, raw)
	}
}

func TestDeleteNews_NotFound(t *testing.T) {
	t.Parallel()

	svc, d := newSvc(t)
	defer d.ctrl.Finish()

	d.st.EXPECT().DeleteNewsByID(gomock.Any(), int64(5)).Return(nil, fmtWrap(storage.ErrNotFound))

	_, err := svc.DeleteNews(context.Background(), "5")
	require.ErrorIs(t, err, ErrNotFound)
}

// TestDeleteNews_RemovesPhoto — фото удаляется после удаления записи; ошибка удаления не всплывает.
func TestDeleteNews_RemovesPhoto(t *testing.T) {
	t.Parallel()

	svc, d := newSvc(t)
	defer d.ctrl.Finish()

	photo := "/uploads/p.png"
	gomock.InOrder(
		d.st.EXPECT().DeleteNewsByID(gomock.Any(), int64(3)).Return(&models.News{ID: 3, Photo: &photo}, nil),
		d.files.EXPECT().Remove(gomock.Any(), photo).Return(errors.New("io error")),
	)

	id, err := svc.DeleteNews(context.Background(), " 3 ")
	require.NoError(t, err)
	require.Equal(t, int64(3), id)
}

func TestDeleteNews_StorageError(t *testing.T) {
	t.Parallel()

	svc, d := newSvc(t)
	defer d.ctrl.Finish()

	dbErr := errors.New("db down")
	d.st.EXPECT().DeleteNewsByID(gomock.Any(), int64(1)).Return(nil, dbErr)

	_, err := svc.DeleteNews(context.Background(), "1")
	require.ErrorIs(t, err, dbErr)
	require.NotErrorIs(t, err, ErrNotFound)
}

func TestNewsByID(t *testing.T) {
	t.Parallel()

	svc, d := newSvc(t)
	defer d.ctrl.Finish()

	d.st.EXPECT().NewsByID(gomock.Any(), int64(2)).Return(&models.News{ID: 2, Title: "t"}, nil)
	d.st.EXPECT().NewsByID(gomock.Any(), int64(9)).Return(nil, storage.ErrNotFound)

	got, err := svc.NewsByID(context.Background(), "2")
	require.NoError(t, err)
	require.Equal(t, "t", got.Title)

	_, err = svc.NewsByID(context.Background(), "9")
	require.ErrorIs(t, err, ErrNotFound)

	_, err = svc.NewsByID(context.Background(), "x")
	require.ErrorIs(t, err, ErrInvalidID)
}

// TestListNews_ClampsAndTrims — фильтры обрезаются, page/limit приводятся к границам.
func TestListNews_ClampsAndTrims(t *testing.T) {
	t.Parallel()

	svc, d := newSvc(t)
	defer d.ctrl.Finish()

	f := models.NewsFilter{Author: "bob"}
	d.st.EXPECT().CountNews(gomock.Any(), f).Return(int64(150), nil)
	d.st.EXPECT().SelectNews(gomock.Any(), f, int64(0), int64(100)).Return(make([]models.News, 100), nil)

	res, err := svc.ListNews(context.Background(), models.NewsFilter{Author: " bob "}, -1, 500)
	require.NoError(t, err)
	require.Equal(t, 1, res.Page)
	require.Equal(t, 100, res.Limit)
	require.Equal(t, int64(2), res.TotalPages)
	require.Len(t, res.Items, 100)
}

func TestListNews_CacheHit(t *testing.T) {
	t.Parallel()

	svc, d := newSvc(t)
	defer d.ctrl.Finish()

	lc := mocks.NewMockListCache(d.ctrl)
	svc.SetListCache(lc, time.Minute)

	cached := &pagination.Result{Page: 1, Limit: 10, Total: 1, TotalPages: 1, Items: []models.News{{ID: 1}}}
	lc.EXPECT().Get(gomock.Any(), models.NewsFilter{}, pagination.Params{Page: 1, Limit: 10}).Return(cached, int64(3), true, nil)

	res, err := svc.ListNews(context.Background(), models.NewsFilter{}, 1, 10)
	require.NoError(t, err)
	require.Same(t, cached, res)
}

func TestListNews_CacheMiss_StoresPage(t *testing.T) {
	t.Parallel()

	svc, d := newSvc(t)
	defer d.ctrl.Finish()

	lc := mocks.NewMockListCache(d.ctrl)
	svc.SetListCache(lc, time.Minute)

	lc.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, int64(7), false, nil)
	d.st.EXPECT().CountNews(gomock.Any(), gomock.Any()).Return(int64(1), nil)
	d.st.EXPECT().SelectNews(gomock.Any(), gomock.Any(), int64(0), int64(10)).Return([]models.News{{ID: 1}}, nil)
	// Страница пишется под поколением промаха, а не под текущим.
	lc.EXPECT().Set(gomock.Any(), int64(7), gomock.Any(), time.Minute).Return(nil)

	res, err := svc.ListNews(context.Background(), models.NewsFilter{}, 1, 10)
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
}

// TestListNews_CacheError_FallsBack — ошибки кэша не мешают ответу;
// без известного поколения страница в кэш не пишется.
func TestListNews_CacheError_FallsBack(t *testing.T) {
	t.Parallel()

	svc, d := newSvc(t)
	defer d.ctrl.Finish()

	lc := mocks.NewMockListCache(d.ctrl)
	svc.SetListCache(lc, time.Minute)

	lc.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, int64(0), false, errors.New("redis down"))
	d.st.EXPECT().CountNews(gomock.Any(), gomock.Any()).Return(int64(0), nil)
	lc.EXPECT().Set(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	res, err := svc.ListNews(context.Background(), models.NewsFilter{}, 1, 10)
	require.NoError(t, err)
	require.Empty(t, res.Items)
}

func TestListNews_CacheSetFailure_Ignored(t *testing.T) {
	t.Parallel()

	svc, d := newSvc(t)
	defer d.ctrl.Finish()

	lc := mocks.NewMockListCache(d.ctrl)
	svc.SetListCache(lc, time.Minute)

	lc.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, int64(0), false, nil)
	d.st.EXPECT().CountNews(gomock.Any(), gomock.Any()).Return(int64(0), nil)
	lc.EXPECT().Set(gomock.Any(), int64(0), gomock.Any(), time.Minute).Return(errors.New("redis down"))

	res, err := svc.ListNews(context.Background(), models.NewsFilter{}, 1, 10)
	require.NoError(t, err)
	require.Empty(t, res.Items)
}

func TestListNews_StorageError(t *testing.T) {
	t.Parallel()

	svc, d := newSvc(t)
	defer d.ctrl.Finish()

	dbErr := errors.New("db down")
	d.st.EXPECT().CountNews(gomock.Any(), gomock.Any()).Return(int64(0), dbErr)

	_, err := svc.ListNews(context.Background(), models.NewsFilter{}, 1, 10)
	require.ErrorIs(t, err, dbErr)
}

func TestUploadFile(t *testing.T) {
	t.Parallel()

	svc, d := newSvc(t)
	defer d.ctrl.Finish()

	d.files.EXPECT().Save(gomock.Any(), gomock.Any()).Return(&uploads.StoredFile{Name: "a.png", URL: "/uploads/a.png"}, nil)

	got, err := svc.UploadFile(context.Background(), -1, pngFile())
	require.NoError(t, err)
	require.Equal(t, "/uploads/a.png", got.URL)

	_, err = svc.UploadFile(context.Background(), -1, nil)
	require.ErrorIs(t, err, uploads.ErrNoFile)
}

// AdmitUpload смотрит только на заявленную длину; хранилище не трогается.
func TestAdmitUpload(t *testing.T) {
	t.Parallel()

	svc, d := newSvc(t)
	defer d.ctrl.Finish()

	limit := testConfig().Uploads.MaxSizeBytes

	require.NoError(t, svc.AdmitUpload(context.Background(), -1))
	require.NoError(t, svc.AdmitUpload(context.Background(), limit))
	require.ErrorIs(t, svc.AdmitUpload(context.Background(), limit+1), uploads.ErrTooLarge)
}

func TestDefaultLimit(t *testing.T) {
	t.Parallel()

	svc, _ := newSvc(t)
	require.Equal(t, 10, svc.DefaultLimit())
}
