// Package memos talks to a remote Memos server.
package memos

import (
	"strings"

	"github.com/starford/memoirs/internal/apperr"
	"github.com/starford/memoirs/internal/models"
)

// ServerConfig holds the remote URLs derived from a partition.
type ServerConfig struct {
	Host      string
	User      string
	APIURL    string
	SourceURL string
	AssetURL  string
}

// NewServerConfig derives the remote URLs for p. A trailing slash on the
// host is ignored.
func NewServerConfig(p models.Partition) (ServerConfig, error) {
	if !p.Valid() {
		return ServerConfig{}, apperr.ErrConfigMissing
	}
	host := strings.TrimSuffix(p.Host, "/")
	return ServerConfig{
		Host:      host,
		User:      p.User,
		APIURL:    host + "/api/v1",
		SourceURL: host + "/m",
		AssetURL:  host + "/o/r",
	}, nil
}

// Partition returns the normalised partition of the config.
func (c ServerConfig) Partition() models.Partition {
	return models.Partition{Host: c.Host, User: c.User}
}

// LocalRoutes are the URLs under which this service exposes memos.
type LocalRoutes struct {
	SingleMemoURL  string
	SearchMemosURL string
}

// NewLocalRoutes derives the local routes for the given origin
// (scheme://host[:port]).
func NewLocalRoutes(origin string) LocalRoutes {
	origin = strings.TrimSuffix(origin, "/")
	return LocalRoutes{
		SingleMemoURL:  origin + "/api/memo",
		SearchMemosURL: origin + "/api/memos",
	}
}
