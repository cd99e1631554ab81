package domain

import (
	"fmt"
	"strings"
	"time"
)

// Summary is an AI-generated structured digest of a post
type Summary struct {
	ID           int64     `json:"-"`
	PostID       int64     `json:"-"`
	Bullets      []string  `json:"bullets"`
	WhyItMatters string    `json:"whyItMatters"`
	Tags         []Tag     `json:"tags"`
	Keywords     []string  `json:"keywords"`
	Model        string    `json:"-"`
	CreatedAt    time.Time `json:"-"`
}

// Tag is a value from the controlled summary vocabulary
type Tag string

// controlled vocabulary of summary tags
const (
	TagSRE      Tag = "sre"
	TagDist     Tag = "dist"
	TagData     Tag = "data"
	TagMLP      Tag = "mlp"
	TagFinOps   Tag = "finops"
	TagSecurity Tag = "security"
	TagFrontend Tag = "frontend"
	TagMobile   Tag = "mobile"
	TagCulture  Tag = "culture"
)

var tagLabels = map[Tag]string{
	TagSRE:      "SRE & Reliability",
	TagDist:     "Distributed Systems",
	TagData:     "Data Engineering",
	TagMLP:      "ML Platforms",
	TagFinOps:   "FinOps",
	TagSecurity: "Security",
	TagFrontend: "Frontend",
	TagMobile:   "Mobile",
	TagCulture:  "Engineering Culture",
}

// AllTags returns the full vocabulary in display order
func AllTags() []Tag {
	return []Tag{TagSRE, TagDist, TagData, TagMLP, TagFinOps, TagSecurity, TagFrontend, TagMobile, TagCulture}
}

// ParseTag converts a raw string into a Tag, case-insensitive
func ParseTag(s string) (Tag, error) {
	t := Tag(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("unknown tag %q", s)
	}
	return t, nil
}

// Valid reports whether the tag belongs to the vocabulary
func (t Tag) Valid() bool {
	_, ok := tagLabels[t]
	return ok
}

// Label returns the human readable name of the tag
func (t Tag) Label() string {
	if l, ok := tagLabels[t]; ok {
		return l
	}
	return string(t)
}
