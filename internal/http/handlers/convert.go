package handlers

import (
	"github.com/pribylovaa/go-news-cms/internal/models"
	"github.com/pribylovaa/go-news-cms/internal/pagination"
)

func newsToResponse(n *models.News) models.NewsResponse {
	return models.NewsResponse{
		ID:      n.ID,
		Title:   n.Title,
		Author:  n.Author,
		Content: n.Content,
		Photo:   n.Photo,
	}
}

func listToResponse(res *pagination.Result) models.NewsListResponse {
	data := make([]models.NewsResponse, 0, len(res.Items))
	for i := range res.Items {
		data = append(data, newsToResponse(&res.Items[i]))
	}

	return models.NewsListResponse{
		Filters: models.NewsFilterResponse{
			Author: res.Filter.Author,
			Title:  res.Filter.Title,
		},
		Pagination: models.PaginationResponse{
			Page:       res.Page,
			Limit:      res.Limit,
			TotalItems: res.Total,
			TotalPages: res.TotalPages,
		},
		Data: data,
	}
}
