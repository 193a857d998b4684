package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/memoirs/internal/apperr"
	"github.com/starford/memoirs/internal/checksum"
	"github.com/starford/memoirs/internal/memos"
	"github.com/starford/memoirs/internal/models"
	"github.com/starford/memoirs/internal/resolver"
)

// Handler holds API route handlers.
type Handler struct {
	res      *resolver.Resolver
	defaults models.Partition
}

// NewHandler creates a new Handler.
func NewHandler(res *resolver.Resolver, defaults models.Partition) *Handler {
	return &Handler{res: res, defaults: defaults}
}

func memoID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: memo id must be a positive integer", apperr.ErrInvalidQuery)
	}
	return id, nil
}

// memoQuery reads list parameters. filterPages defaults to true.
func memoQuery(r *http.Request) (models.MemoQuery, error) {
	v := r.URL.Query()
	q := models.MemoQuery{
		Tag:         v.Get("tag"),
		Content:     v.Get("content"),
		RowStatus:   models.RowStatus(strings.ToUpper(v.Get("rowStatus"))),
		FilterPages: true,
	}
	var err error
	if s := v.Get("limit"); s != "" {
		if q.Limit, err = strconv.Atoi(s); err != nil {
			return q, fmt.Errorf("%w: limit must be an integer", apperr.ErrInvalidQuery)
		}
	}
	if s := v.Get("offset"); s != "" {
		if q.Offset, err = strconv.Atoi(s); err != nil {
			return q, fmt.Errorf("%w: offset must be an integer", apperr.ErrInvalidQuery)
		}
	}
	if s := v.Get("filterPages"); s != "" {
		if q.FilterPages, err = strconv.ParseBool(s); err != nil {
			return q, fmt.Errorf("%w: filterPages must be a boolean", apperr.ErrInvalidQuery)
		}
	}
	return q, nil
}

// requestOrigin reconstructs scheme://host of the incoming request.
func requestOrigin(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if fwd := r.Header.Get("X-Forwarded-Proto"); fwd != "" {
		scheme = fwd
	}
	return scheme + "://" + r.Host
}

// GetMemo handles GET /api/memo/{id}.
//
//	@Summary		Get a memo with resolved relations
//	@Tags			memos
//	@Produce		json
//	@Param			id	path		int	true	"Memo ID"
//	@Success		200	{object}	MemoResponse
//	@Failure		400	{object}	errResponse
//	@Failure		404	{object}	errResponse
//	@Failure		502	{object}	errResponse
//	@Router			/memo/{id} [get]
func (h *Handler) GetMemo(w http.ResponseWriter, r *http.Request) {
	id, err := memoID(r)
	if err != nil {
		writeError(w, "get memo", err)
		return
	}
	p := PartitionFrom(r.Context())
	res, err := h.res.Resolve(r.Context(), p, id)
	if err != nil {
		writeError(w, "get memo", err)
		return
	}

	parts := []string{res.Document.PatchedContent, strconv.FormatInt(res.Document.UpdatedTs, 10)}
	for _, rel := range res.Relations {
		parts = append(parts, rel.Title)
	}
	etag := checksum.ETag(parts...)
	w.Header().Set("ETag", etag)
	w.Header().Set("X-Cache", cacheHeader(res.CacheHit))
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	srv, _ := memos.NewServerConfig(p)
	writeJSON(w, http.StatusOK, MemoResponse{
		CacheHit:  res.CacheHit,
		Memo:      res.Document,
		Relations: res.Relations,
		SourceURL: fmt.Sprintf("%s/%d", srv.SourceURL, id),
	})
}

// InvalidateMemo handles DELETE /api/memo/{id}.
//
//	@Summary		Drop a memo from the cache
//	@Tags			memos
//	@Param			id	path	int	true	"Memo ID"
//	@Success		204	"Cache entry removed"
//	@Router			/memo/{id} [delete]
func (h *Handler) InvalidateMemo(w http.ResponseWriter, r *http.Request) {
	id, err := memoID(r)
	if err != nil {
		writeError(w, "invalidate memo", err)
		return
	}
	if err := h.res.Invalidate(PartitionFrom(r.Context()), id); err != nil {
		writeError(w, "invalidate memo", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListMemos handles GET /api/memos.
//
//	@Summary		List memos by tag or content
//	@Tags			memos
//	@Produce		json
//	@Param			tag			query		string	false	"Filter by tag"
//	@Param			content		query		string	false	"Filter by content"
//	@Param			limit		query		int		false	"Page size"
//	@Param			offset		query		int		false	"Page offset"
//	@Param			rowStatus	query		string	false	"Row status"	Enums(NORMAL, ARCHIVED)
//	@Param			filterPages	query		bool	false	"Drop structural pages"
//	@Success		200			{object}	MemoListResponse
//	@Failure		400			{object}	errResponse
//	@Failure		502			{object}	errResponse
//	@Router			/memos [get]
func (h *Handler) ListMemos(w http.ResponseWriter, r *http.Request) {
	q, err := memoQuery(r)
	if err != nil {
		writeError(w, "list memos", err)
		return
	}
	res, err := h.res.ResolveList(r.Context(), PartitionFrom(r.Context()), q)
	if err != nil {
		writeError(w, "list memos", err)
		return
	}

	resp := MemoListResponse{
		CacheHit: res.CacheHit,
		Memos:    res.Documents,
		HasMore:  res.HasMore,
	}
	if res.HasMore {
		resp.NextOffset = res.Query.Offset + res.Query.Limit
		resp.NextPage = nextPage(requestOrigin(r), res.Query)
	}
	w.Header().Set("X-Cache", cacheHeader(res.CacheHit))
	writeJSON(w, http.StatusOK, resp)
}

func nextPage(origin string, q models.MemoQuery) string {
	v := url.Values{}
	if q.Tag != "" {
		v.Set("tag", q.Tag)
	}
	if q.Content != "" {
		v.Set("content", q.Content)
	}
	v.Set("rowStatus", string(q.RowStatus))
	v.Set("filterPages", strconv.FormatBool(q.FilterPages))
	v.Set("limit", strconv.Itoa(q.Limit))
	v.Set("offset", strconv.Itoa(q.Offset+q.Limit))
	return memos.NewLocalRoutes(origin).SearchMemosURL + "?" + v.Encode()
}

// InvalidateList handles DELETE /api/memos.
//
//	@Summary		Drop a list page from the cache
//	@Tags			memos
//	@Success		204	"Cache entry removed"
//	@Router			/memos [delete]
func (h *Handler) InvalidateList(w http.ResponseWriter, r *http.Request) {
	q, err := memoQuery(r)
	if err != nil {
		writeError(w, "invalidate list", err)
		return
	}
	if err := h.res.InvalidateList(PartitionFrom(r.Context()), q); err != nil {
		writeError(w, "invalidate list", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Menu handles GET /api/menu.
//
//	@Summary		Navigation menu declared by memoirs_menu memos
//	@Tags			menu
//	@Produce		json
//	@Param			refresh		query		bool	false	"Bypass the cached menu"
//	@Param			rowStatus	query		string	false	"Row status"	Enums(NORMAL, ARCHIVED)
//	@Success		200			{object}	MenuResponse
//	@Router			/menu [get]
func (h *Handler) Menu(w http.ResponseWriter, r *http.Request) {
	v := r.URL.Query()
	refresh := v.Has("refresh") && v.Get("refresh") != "false"
	status := models.RowStatus(strings.ToUpper(v.Get("rowStatus")))
	if err := (models.MemoQuery{RowStatus: status}).Validate(); err != nil {
		writeError(w, "menu", fmt.Errorf("%w: %v", apperr.ErrInvalidQuery, err))
		return
	}

	res, err := h.res.Menu(r.Context(), PartitionFrom(r.Context()), status, refresh)
	if err != nil {
		writeError(w, "menu", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Stats handles GET /api/stats.
//
//	@Summary		Cache statistics
//	@Tags			cache
//	@Produce		json
//	@Success		200	{object}	StatsResponse
//	@Router			/stats [get]
func (h *Handler) Stats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.res.Stats())
}

// ChangeServer handles POST /api/server. It accepts a form or a JSON body;
// missing fields fall back to the configured defaults.
//
//	@Summary		Select the remote Memos server of the session
//	@Tags			session
//	@Accept			json
//	@Param			body	body	ChangeServerRequest	false	"Remote server"
//	@Success		303		"Redirect to /"
//	@Failure		400		{object}	errResponse
//	@Router			/server [post]
func (h *Handler) ChangeServer(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req ChangeServerRequest
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
			return
		}
	} else {
		if err := r.ParseForm(); err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody("invalid form body"))
			return
		}
		req.Host = r.PostForm.Get("host")
		req.User = r.PostForm.Get("user")
	}
	if req.Host == "" {
		req.Host = h.defaults.Host
	}
	if req.User == "" {
		req.User = h.defaults.User
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}

	setPartitionCookie(w, models.Partition{Host: req.Host, User: req.User})
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func cacheHeader(hit bool) string {
	if hit {
		return "HIT"
	}
	return "MISS"
}
