package lessonplan

import (
	"fmt"
	"net/url"
	"strings"
)

type ResourceType string

const (
	ResourceVideo       ResourceType = "video"
	ResourceArticle     ResourceType = "article"
	ResourceInteractive ResourceType = "interactive"
	ResourceDataset     ResourceType = "dataset"
	ResourceTool        ResourceType = "tool"
)

var resourceTypes = map[ResourceType]struct{}{
	ResourceVideo:       {},
	ResourceArticle:     {},
	ResourceInteractive: {},
	ResourceDataset:     {},
	ResourceTool:        {},
}

// ParseMode decides what happens to a resource type the producer invented.
type ParseMode string

const (
	// ParseStrict reports unknown types as validation issues.
	ParseStrict ParseMode = "strict"
	// ParseLenient coerces unknown types to video and records a warning.
	ParseLenient ParseMode = "lenient"
)

func ParseParseMode(s string) (ParseMode, error) {
	switch ParseMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ParseStrict:
		return ParseStrict, nil
	case ParseLenient:
		return ParseLenient, nil
	default:
		return "", fmt.Errorf("unknown resource type parsing mode %q (want strict|lenient)", s)
	}
}

// ParseResourceType returns the canonical type and whether the input was recognised.
// Unrecognised input yields ResourceVideo so lenient callers have a value to use.
func ParseResourceType(s string) (ResourceType, bool) {
	t := ResourceType(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := resourceTypes[t]; ok {
		return t, true
	}
	return ResourceVideo, false
}

type ResourceLink struct {
	Title          string       `json:"title"`
	URL            string       `json:"url"`
	Type           ResourceType `json:"type"`
	Description    string       `json:"description"`
	RecommendedFor []int        `json:"recommended_for"`
}

func validHTTPURL(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
