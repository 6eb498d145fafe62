package model

import "time"

// ContentItem is an exercise prompt with its accepted translations
type ContentItem struct {
	ContentID      string    `json:"contentId" bson:"_id"`
	Prompt         string    `json:"prompt" bson:"prompt"`
	ReferenceForms []string  `json:"referenceForms" bson:"referenceForms"`
	Language       string    `json:"language,omitempty" bson:"language,omitempty"`
	UpdatedAt      time.Time `json:"updatedAt" bson:"updatedAt"`
}
