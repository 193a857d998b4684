// Package models defines the domain types shared across memoirs.
package models

// RowStatus is the lifecycle state of a memo on the remote server.
type RowStatus string

// Row statuses.
const (
	RowStatusNormal   RowStatus = "NORMAL"
	RowStatusArchived RowStatus = "ARCHIVED"
)

// RelationType classifies a relation between two memos.
type RelationType string

// Relation types.
const (
	RelationReference RelationType = "REFERENCE"
	RelationOther     RelationType = "OTHER"
)

// UntitledTitle is used whenever no title can be derived or resolved.
const UntitledTitle = "Untitled"

// Memo is a raw memo record as served by the remote Memos API.
type Memo struct {
	ID              int64      `json:"id"`
	RowStatus       RowStatus  `json:"rowStatus"`
	CreatorID       int64      `json:"creatorId"`
	CreatedTs       int64      `json:"createdTs"`
	UpdatedTs       int64      `json:"updatedTs"`
	DisplayTs       int64      `json:"displayTs"`
	Content         string     `json:"content"`
	Visibility      string     `json:"visibility"`
	Pinned          bool       `json:"pinned"`
	CreatorName     string     `json:"creatorName"`
	CreatorUsername string     `json:"creatorUsername"`
	ResourceList    []Resource `json:"resourceList"`
	RelationList    []Relation `json:"relationList"`
}

// Resource is attachment metadata of a memo.
type Resource struct {
	ID           int64  `json:"id"`
	CreatorID    int64  `json:"creatorId"`
	CreatedTs    int64  `json:"createdTs"`
	UpdatedTs    int64  `json:"updatedTs"`
	Filename     string `json:"filename"`
	ExternalLink string `json:"externalLink"`
	Type         string `json:"type"`
	Size         int64  `json:"size"`
}

// Relation is a directed edge from one memo to another.
type Relation struct {
	MemoID        int64        `json:"memoId"`
	RelatedMemoID int64        `json:"relatedMemoId"`
	Type          RelationType `json:"type"`
}

// ResolvedRelation is a Relation with the title of its target memo.
type ResolvedRelation struct {
	Relation
	Title string `json:"title"`
}

// Document is a memo after transformation. Documents are never mutated after
// they have been built; a refetch produces a new Document.
type Document struct {
	Memo
	Title          string      `json:"title"`
	Abstract       string      `json:"abstract"`
	PatchedContent string      `json:"patchedContent"`
	ImageURL       string      `json:"imageUrl"`
	Frontmatter    Frontmatter `json:"frontmatter"`
}

// Frontmatter holds merged metadata of a document. Values are either string
// or []string.
type Frontmatter map[string]any

// Has reports whether key is present.
func (f Frontmatter) Has(key string) bool {
	_, ok := f[key]
	return ok
}

// String returns the value of key if it is a string.
func (f Frontmatter) String(key string) string {
	s, _ := f[key].(string)
	return s
}

// Strings returns the value of key as a list. A plain string value is
// returned as a one-element list.
func (f Frontmatter) Strings(key string) []string {
	switch v := f[key].(type) {
	case []string:
		return v
	case string:
		return []string{v}
	}
	return nil
}

// MenuItem is one navigation entry declared in a memo via "memoirs_menu:".
type MenuItem struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Order int    `json:"order"`
}
