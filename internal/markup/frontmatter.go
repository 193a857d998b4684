package markup

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/starford/memoirs/internal/models"
)

const fmDelim = "---"

// splitFrontmatter separates a leading YAML block (between --- delimiters)
// from the body. Content without a well-formed block is returned whole as
// body with nil data.
func splitFrontmatter(content string) (map[string]any, string) {
	if !strings.HasPrefix(content, fmDelim) {
		return nil, content
	}
	rest := content[len(fmDelim):]
	// The opening delimiter must be alone on its line.
	nl := strings.IndexByte(rest, '\n')
	if nl < 0 || strings.TrimSpace(rest[:nl]) != "" {
		return nil, content
	}
	rest = rest[nl+1:]

	var block, body string
	if strings.HasPrefix(rest, fmDelim) {
		// Empty block.
		block, body = "", rest[len(fmDelim):]
	} else {
		idx := strings.Index(rest, "\n"+fmDelim)
		if idx < 0 {
			return nil, content
		}
		block, body = rest[:idx], rest[idx+1+len(fmDelim):]
	}
	body = strings.TrimLeft(strings.TrimPrefix(body, "\r"), "\n")

	var data map[string]any
	if err := yaml.Unmarshal([]byte(block), &data); err != nil {
		return nil, content
	}
	return data, body
}

// normalize converts decoded YAML values into the string / []string shape
// documents expose.
func normalize(raw map[string]any) models.Frontmatter {
	out := make(models.Frontmatter, len(raw))
	for k, v := range raw {
		switch val := v.(type) {
		case nil:
			out[k] = ""
		case string:
			out[k] = val
		case []any:
			list := make([]string, 0, len(val))
			for _, item := range val {
				list = append(list, scalarString(item))
			}
			out[k] = list
		default:
			out[k] = scalarString(val)
		}
	}
	return out
}

func scalarString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case map[string]any:
		b, err := yaml.Marshal(val)
		if err != nil {
			return ""
		}
		return strings.TrimSpace(string(b))
	default:
		return fmt.Sprint(val)
	}
}

// mergeFrontmatter overlays declared over derived. Declared values win per key.
func mergeFrontmatter(derived, declared models.Frontmatter) models.Frontmatter {
	out := make(models.Frontmatter, len(derived)+len(declared))
	for k, v := range derived {
		out[k] = v
	}
	for k, v := range declared {
		out[k] = v
	}
	return out
}
