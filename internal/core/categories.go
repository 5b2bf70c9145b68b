package core

import (
	"fmt"
	"strings"
)

// DefaultAgentTag labels events that no sub-agent category claims
const DefaultAgentTag = "[主智能体]"

// ToolCategory maps tool names containing Match to a display tag
type ToolCategory struct {
	Match string
	Tag   string
}

// DefaultToolCategories is the built-in labelling table
var DefaultToolCategories = []ToolCategory{
	{Match: "music", Tag: "[子智能体-音乐助手]"},
	{Match: "calculator", Tag: "[子智能体-计算器]"},
	{Match: "camera", Tag: "[子智能体-监控]"},
	{Match: "navigation", Tag: "[子智能体-导航]"},
}

// TagTable resolves display tags for tool names. Tags are cosmetic and
// never change how an event is reduced.
type TagTable struct {
	categories []ToolCategory
}

func NewTagTable(categories []ToolCategory) (*TagTable, error) {
	seen := make(map[string]bool, len(categories))
	table := &TagTable{categories: make([]ToolCategory, 0, len(categories))}

	for i, c := range categories {
		match := strings.ToLower(strings.TrimSpace(c.Match))
		if match == "" {
			return nil, fmt.Errorf("tool category %d: empty match", i)
		}
		if !strings.HasPrefix(c.Tag, "[") || !strings.HasSuffix(c.Tag, "]") {
			return nil, fmt.Errorf("tool category %q: tag %q must be bracketed", match, c.Tag)
		}
		if seen[match] {
			return nil, fmt.Errorf("tool category %q: duplicate match", match)
		}
		seen[match] = true
		table.categories = append(table.categories, ToolCategory{Match: match, Tag: c.Tag})
	}
	return table, nil
}

// Tag returns the first category whose match equals or is contained in
// toolName, compared case-insensitively
func (t *TagTable) Tag(toolName string) string {
	name := strings.ToLower(toolName)
	if name == "" {
		return DefaultAgentTag
	}
	for _, c := range t.categories {
		if name == c.Match || strings.Contains(name, c.Match) {
			return c.Tag
		}
	}
	return DefaultAgentTag
}
