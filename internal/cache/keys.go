package cache

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/starford/memoirs/internal/models"
)

// sep never appears in an escaped component, so keys of distinct inputs
// cannot collide.
const sep = "§"

// Key kinds.
const (
	kindNote = "m"
	kindList = "l"
	kindMenu = "n"
)

func key(p models.Partition, kind string, parts ...string) string {
	all := make([]string, 0, len(parts)+3)
	all = append(all, url.QueryEscape(p.Host), url.QueryEscape(p.User), kind)
	for _, part := range parts {
		all = append(all, url.QueryEscape(part))
	}
	return strings.Join(all, sep)
}

// NoteKey is the key of a single resolved memo.
func NoteKey(p models.Partition, id int64) string {
	return key(p, kindNote, strconv.FormatInt(id, 10))
}

// ListKey is the key of one list query page. q should already carry its
// defaults so equivalent requests share an entry.
func ListKey(p models.Partition, q models.MemoQuery) string {
	return key(p, kindList,
		q.Tag,
		q.Content,
		string(q.RowStatus),
		strconv.FormatBool(q.FilterPages),
		strconv.Itoa(q.Limit),
		strconv.Itoa(q.Offset),
	)
}

// MenuKey is the key of the navigation menu.
func MenuKey(p models.Partition, status models.RowStatus) string {
	return key(p, kindMenu, string(status))
}

func partitionOf(k string) (string, bool) {
	parts := strings.SplitN(k, sep, 3)
	if len(parts) < 3 {
		return "", false
	}
	return parts[0] + sep + parts[1], true
}
