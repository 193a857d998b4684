// Package markup turns raw memo content into enriched documents: it merges
// derived and declared frontmatter, rewrites inline markup into Markdoc tags
// and derives title, abstract and header image.
package markup

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/starford/memoirs/internal/models"
)

// Fallbacks used when nothing can be derived.
const (
	NoAbstract = "No abstract"

	abstractWindow = 150
)

// Frontmatter keys marking a memo as structural rather than content.
const (
	KeyPage    = "memoirs_page"
	KeySidenav = "memoirs_sidenav"
)

var (
	tagRe      = regexp.MustCompile(`#([^\s#,]+)`)
	checkboxRe = regexp.MustCompile(`(?im)^(.*)\[(x| |_|-)\][ \t](.*?)(\r?)$`)
	linkRe     = regexp.MustCompile(`\[\[(.+?)\]\]`)
	headingRe  = regexp.MustCompile(`(?m)^[# ]+(.+?)(?: \{#[\w-]+\})?\r?$`)
)

// Transform builds the Document for memo. assetURL is the base under which
// the remote server serves resources. Transform never fails: content that
// cannot be split is treated as body without declared metadata.
func Transform(assetURL string, memo models.Memo) *models.Document {
	declared, body := splitFrontmatter(memo.Content)

	fm := mergeFrontmatter(deriveFrontmatter(memo.Content), normalize(declared))
	patched := Rewrite(body)

	return &models.Document{
		Memo:           memo,
		Title:          Title(fm.String("title"), patched),
		Abstract:       Abstract(fm.String("abstract"), body),
		PatchedContent: patched,
		ImageURL:       imageURL(assetURL, memo.ResourceList),
		Frontmatter:    fm,
	}
}

// Tags returns the inline #tags of content without the leading '#', in order
// of first appearance.
func Tags(content string) []string {
	matches := tagRe.FindAllStringSubmatch(content, -1)
	seen := make(map[string]struct{}, len(matches))
	var out []string
	for _, m := range matches {
		if _, dup := seen[m[1]]; dup {
			continue
		}
		seen[m[1]] = struct{}{}
		out = append(out, m[1])
	}
	return out
}

// deriveFrontmatter scans the full raw content so tags inside a declared
// block are picked up too.
func deriveFrontmatter(content string) models.Frontmatter {
	tags := Tags(content)
	if len(tags) == 0 {
		return models.Frontmatter{}
	}
	return models.Frontmatter{"tags": tags}
}

// Rewrite converts tags, checkbox lines and [[content links]] into Markdoc
// tags. Checkbox lines are rewritten before links so a link inside a label
// ends up inside the checkbox attribute.
func Rewrite(body string) string {
	out := tagRe.ReplaceAllStringFunc(body, func(tag string) string {
		return fmt.Sprintf(`{%% memoTag tag=%s %%}%s{%% /memoTag %%}`, attr(tag), tag)
	})
	out = checkboxRe.ReplaceAllStringFunc(out, func(line string) string {
		m := checkboxRe.FindStringSubmatch(line)
		return fmt.Sprintf(`{%% checkbox label=%s status=%s /%%}%s`, attr(m[3]), attr(m[2]), m[4])
	})
	out = linkRe.ReplaceAllStringFunc(out, func(link string) string {
		label := linkRe.FindStringSubmatch(link)[1]
		return fmt.Sprintf(`{%% contentLink label=%s %%}%s{%% /contentLink %%}`, attr(label), label)
	})
	return out
}

// attr quotes s as a Markdoc attribute value.
func attr(s string) string {
	return `"` + strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(s) + `"`
}

// Title returns declared if set, else the first heading-like line of
// content, else "Untitled".
func Title(declared, content string) string {
	if declared != "" {
		return declared
	}
	if m := headingRe.FindStringSubmatch(content); m != nil {
		return m[1]
	}
	return models.UntitledTitle
}

// Abstract returns declared if set, else the first heading-like line within
// the leading window of the first two paragraphs of body.
func Abstract(declared, body string) string {
	if declared != "" {
		return declared
	}
	paragraphs := strings.Split(body, "\n\n")
	if len(paragraphs) > 2 {
		paragraphs = paragraphs[:2]
	}
	lead := []rune(strings.Join(paragraphs, " "))
	if len(lead) > abstractWindow {
		lead = lead[:abstractWindow]
	}
	if m := headingRe.FindStringSubmatch(string(lead)); m != nil {
		return m[1]
	}
	return NoAbstract
}

func imageURL(assetURL string, resources []models.Resource) string {
	for _, r := range resources {
		if strings.HasPrefix(r.Type, "image/") {
			return fmt.Sprintf("%s/%d", assetURL, r.ID)
		}
	}
	return ""
}

// IsPage reports whether doc is a structural page or side navigation entry.
func IsPage(doc *models.Document) bool {
	return doc.Frontmatter.Has(KeyPage) || doc.Frontmatter.Has(KeySidenav)
}

// FilterOutPages returns docs without structural pages. The input slice is
// not modified.
func FilterOutPages(docs []*models.Document) []*models.Document {
	out := make([]*models.Document, 0, len(docs))
	for _, d := range docs {
		if !IsPage(d) {
			out = append(out, d)
		}
	}
	return out
}
