package news

import "time"

// News is a published industry news link shown on the CRM dashboard.
type News struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Subtitle    string    `json:"subtitle"`
	PublishDate time.Time `json:"publishDate"`
	LinkURL     string    `json:"linkUrl"`
	IsActive    bool      `json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// CreateRequest captures the payload accepted when publishing news.
type CreateRequest struct {
	Title       string `json:"title"`
	Subtitle    string `json:"subtitle"`
	PublishDate string `json:"publishDate"`
	LinkURL     string `json:"linkUrl"`
}

// UpdateRequest is a partial update. Empty strings leave title, publishDate
// and linkUrl untouched; a nil Subtitle leaves the subtitle untouched.
type UpdateRequest struct {
	Title       string  `json:"title"`
	Subtitle    *string `json:"subtitle"`
	PublishDate string  `json:"publishDate"`
	LinkURL     string  `json:"linkUrl"`
}

// ListQuery is the client facing list request. Zero values select defaults.
type ListQuery struct {
	Page      int
	Limit     int
	SortBy    string
	SortOrder string
	Search    string
	StartDate string
	EndDate   string
}

// ListFilter is the normalized query handed to repositories. Only active
// items are ever listed.
type ListFilter struct {
	Search string
	From   *time.Time
	To     *time.Time
	SortBy string
	Desc   bool
	Offset int
	Limit  int
}

// Pagination describes the page returned by List.
type Pagination struct {
	CurrentPage  int `json:"currentPage"`
	TotalPages   int `json:"totalPages"`
	TotalItems   int `json:"totalItems"`
	ItemsPerPage int `json:"itemsPerPage"`
}

// ListResult pairs a page of news with its pagination.
type ListResult struct {
	Items      []News     `json:"items"`
	Pagination Pagination `json:"pagination"`
}

// Config wires runtime settings for the news domain.
type Config struct {
	CacheTTL        time.Duration
	DefaultPageSize int
	MaxPageSize     int
	LatestLimit     int
}

// Sort columns accepted by List.
const (
	SortPublishDate = "publishDate"
	SortCreatedAt   = "createdAt"
	SortUpdatedAt   = "updatedAt"
	SortTitle       = "title"
)
