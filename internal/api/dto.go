package api

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"github.com/starford/memoirs/internal/cache"
	"github.com/starford/memoirs/internal/models"
	"github.com/starford/memoirs/internal/resolver"
)

// MemoResponse is the payload of a single resolved memo.
type MemoResponse struct {
	CacheHit  bool                      `json:"cacheHit" example:"false"`
	Memo      *models.Document          `json:"memo" validate:"required"`
	Relations []models.ResolvedRelation `json:"relations" validate:"required"`
	SourceURL string                    `json:"sourceUrl" example:"https://memos.example/m/42"`
}

// MemoListResponse wraps one page of memos.
type MemoListResponse struct {
	CacheHit bool               `json:"cacheHit" example:"true"`
	Memos    []*models.Document `json:"memos" validate:"required"`
	HasMore  bool               `json:"hasMore" example:"true"`
	// NextOffset and NextPage are set only when HasMore is.
	NextOffset int    `json:"nextOffset,omitempty" example:"20"`
	NextPage   string `json:"nextPage,omitempty" example:"http://localhost:8080/api/memos?limit=20&offset=20"`
}

// MenuResponse is the navigation menu (aliased from the resolver).
type MenuResponse = resolver.MenuResult

// StatsResponse reports cache usage (aliased from the cache).
type StatsResponse = cache.Stats

// ChangeServerRequest selects the remote server of a session.
type ChangeServerRequest struct {
	Host string `json:"host" example:"https://memos.example"`
	User string `json:"user" example:"alice"`
}

// Validate validates the request after defaults were applied.
func (r ChangeServerRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Host, validation.Required, is.URL),
		validation.Field(&r.User, validation.Required),
	)
}
