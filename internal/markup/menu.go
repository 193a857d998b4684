package markup

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/starford/memoirs/internal/models"
)

// MenuMarker is the content prefix of memos declaring navigation entries.
const MenuMarker = "memoirs_menu: "

// memoirs_menu: <id> | <title> | <order>
var menuRe = regexp.MustCompile(`(?i)memoirs_menu:\s*(\w+)\s*\|\s*([\p{L}\s]+)\s*\|\s*(\d+)`)

// ParseMenu extracts every menu declaration of content.
func ParseMenu(content string) []models.MenuItem {
	var out []models.MenuItem
	for _, m := range menuRe.FindAllStringSubmatch(content, -1) {
		order, err := strconv.Atoi(m[3])
		if err != nil {
			continue
		}
		out = append(out, models.MenuItem{
			ID:    m[1],
			Title: strings.TrimSpace(m[2]),
			Order: order,
		})
	}
	return out
}
