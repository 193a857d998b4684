// Package api implements the memoirs REST API using chi.
package api

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"

	"github.com/starford/memoirs/internal/models"
)

// PartitionCookie holds the remote host and user of a browser session.
const PartitionCookie = "memoirs.memos.host"

type partitionKey struct{}

// PartitionMiddleware reads the partition from the session cookie. Requests
// without a usable cookie get the defaults, and the cookie is set so later
// requests carry it.
func PartitionMiddleware(defaults models.Partition) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := readPartition(r)
			if !ok {
				p = defaults
				if p.Valid() {
					setPartitionCookie(w, p)
				}
			}
			ctx := context.WithValue(r.Context(), partitionKey{}, p)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// PartitionFrom returns the partition stored by PartitionMiddleware.
func PartitionFrom(ctx context.Context) models.Partition {
	p, _ := ctx.Value(partitionKey{}).(models.Partition)
	return p
}

func readPartition(r *http.Request) (models.Partition, bool) {
	c, err := r.Cookie(PartitionCookie)
	if err != nil {
		return models.Partition{}, false
	}
	raw, err := base64.RawURLEncoding.DecodeString(c.Value)
	if err != nil {
		return models.Partition{}, false
	}
	var p models.Partition
	if err := json.Unmarshal(raw, &p); err != nil || !p.Valid() {
		return models.Partition{}, false
	}
	return p, true
}

func setPartitionCookie(w http.ResponseWriter, p models.Partition) {
	raw, _ := json.Marshal(p)
	http.SetCookie(w, &http.Cookie{
		Name:     PartitionCookie,
		Value:    base64.RawURLEncoding.EncodeToString(raw),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
