package catalog

import "github.com/themalagasywizard/IHUB-4.1/internal/domain"

const PageSize = 20

// Paginate returns the 1-based page window of items. TotalPages is at least
// one; pages past the end yield an empty window.
func Paginate(items []domain.MediaItem, page, size int) domain.Page {
	if size <= 0 {
		size = PageSize
	}
	if page < 1 {
		page = 1
	}
	totalPages := (len(items) + size - 1) / size
	if totalPages < 1 {
		totalPages = 1
	}
	if page > totalPages {
		return domain.Page{Items: []domain.MediaItem{}, TotalPages: totalPages}
	}
	start := (page - 1) * size
	if start >= len(items) {
		return domain.Page{Items: []domain.MediaItem{}, TotalPages: totalPages}
	}
	end := start + size
	if end > len(items) {
		end = len(items)
	}
	window := make([]domain.MediaItem, end-start)
	copy(window, items[start:end])
	return domain.Page{Items: window, TotalPages: totalPages}
}

// Head returns at most n leading items.
func Head(items []domain.MediaItem, n int) []domain.MediaItem {
	if len(items) <= n {
		return items
	}
	return items[:n]
}
