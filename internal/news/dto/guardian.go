package dto

import "time"

// GuardianSearchResponse is the envelope of the Guardian content API /search endpoint.
type GuardianSearchResponse struct {
	Response GuardianResponseBody `json:"response"`
}

type GuardianResponseBody struct {
	Status      string           `json:"status"`
	Message     string           `json:"message"`
	Total       int              `json:"total"`
	CurrentPage int              `json:"currentPage"`
	Pages       int              `json:"pages"`
	Results     []GuardianResult `json:"results"`
}

type GuardianResult struct {
	ID                 string         `json:"id"`
	SectionID          string         `json:"sectionId"`
	SectionName        string         `json:"sectionName"`
	WebPublicationDate time.Time      `json:"webPublicationDate"`
	WebTitle           string         `json:"webTitle"`
	WebURL             string         `json:"webUrl"`
	Fields             GuardianFields `json:"fields"`
	Tags               []GuardianTag  `json:"tags"`
}

type GuardianFields struct {
	Headline  string `json:"headline"`
	TrailText string `json:"trailText"`
	Body      string `json:"body"`
	Thumbnail string `json:"thumbnail"`
	Byline    string `json:"byline"`
}

type GuardianTag struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	WebTitle string `json:"webTitle"`
}
