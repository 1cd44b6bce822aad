package entity

import (
	"fmt"
	"strings"
)

// Topic is the fixed set of news categories an Article can belong to.
type Topic string

const (
	TopicTechnology     Topic = "technology"
	TopicScience        Topic = "science"
	TopicEnvironment    Topic = "environment"
	TopicHealth         Topic = "health"
	TopicCommunity      Topic = "community"
	TopicEducation      Topic = "education"
	TopicArts           Topic = "arts"
	TopicSocialProgress Topic = "social_progress"
	TopicAll            Topic = "all"
)

// Topics lists every topic in display order, "all" last.
var Topics = []Topic{
	TopicTechnology,
	TopicScience,
	TopicEnvironment,
	TopicHealth,
	TopicCommunity,
	TopicEducation,
	TopicArts,
	TopicSocialProgress,
	TopicAll,
}

// IsValid reports whether t is a member of the enumeration.
func (t Topic) IsValid() bool {
	for _, v := range Topics {
		if v == t {
			return true
		}
	}
	return false
}

// OrAll maps the empty topic to TopicAll.
func (t Topic) OrAll() Topic {
	if t == "" {
		return TopicAll
	}
	return t
}

func (t Topic) String() string {
	return string(t)
}

// ParseTopic validates a raw topic value. Empty input yields TopicAll.
func ParseTopic(raw string) (Topic, error) {
	t := Topic(strings.ToLower(strings.TrimSpace(raw))).OrAll()
	if !t.IsValid() {
		return "", fmt.Errorf("unknown topic %q", raw)
	}
	return t, nil
}
