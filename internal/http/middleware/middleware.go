// Package middleware — HTTP-мидлвары CMS: request id, логирование,
// метрики, восстановление после паник, лимиты и проверка Bearer-токена.
package middleware

import "net/http"

// Middleware — стандартный net/http мидлвар.
type Middleware func(http.Handler) http.Handler

// Chain собирает мидлвары так, что первый в списке оказывается внешним.
func Chain(h http.Handler, mws ...Middleware) http.Handler {
	wrapped := h
	for i := range mws {
		wrapped = mws[len(mws)-1-i](wrapped)
	}
	return wrapped
}

// responseMeter запоминает первый записанный статус и число байт тела.
type responseMeter struct {
	http.ResponseWriter
	statusCode  int
	written     int
	wroteHeader bool
}

func meter(w http.ResponseWriter) *responseMeter {
	return &responseMeter{ResponseWriter: w, statusCode: http.StatusOK}
}

func (m *responseMeter) WriteHeader(code int) {
	if !m.wroteHeader {
		m.statusCode, m.wroteHeader = code, true
	}
	m.ResponseWriter.WriteHeader(code)
}

func (m *responseMeter) Write(p []byte) (int, error) {
	m.wroteHeader = true
	n, err := m.ResponseWriter.Write(p)
	m.written += n
	return n, err
}

// Unwrap для http.ResponseController.
func (m *responseMeter) Unwrap() http.ResponseWriter { return m.ResponseWriter }

func (m *responseMeter) Status() int { return m.statusCode }

func (m *responseMeter) BytesWritten() int { return m.written }
