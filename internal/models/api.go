// Входные/выходные модели REST API.
package models

import "time"

type NewsCreateRequest struct {
	Title   string `json:"title"`
	Author  string `json:"author"`
	Content string `json:"content"`
}

type NewsResponse struct {
	ID      int64   `json:"id"`
	Title   string  `json:"title"`
	Author  string  `json:"author"`
	Content string  `json:"content"`
	Photo   *string `json:"photo"` // null, если фото нет
}

type NewsFilterResponse struct {
	Author string `json:"author,omitempty"`
	Title  string `json:"title,omitempty"`
}

type PaginationResponse struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalItems int64 `json:"total_items"`
	TotalPages int64 `json:"total_pages"`
}

type NewsListResponse struct {
	Filters    NewsFilterResponse `json:"filters"`
	Pagination PaginationResponse `json:"pagination"`
	Data       []NewsResponse     `json:"data"`
}

type NewsDeleteResponse struct {
	Status string `json:"status"`
	ID     int64  `json:"id"`
}

type AuthRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type StatusResponse struct {
	Status string `json:"status"`
}

type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

type UploadResponse struct {
	URL string `json:"url"`
}
