package dto

// BrainstormRequest asks for essay angles on a topic before writing.
type BrainstormRequest struct {
	Topic string `json:"topic" validate:"required,min=4,max=512"`
	Level string `json:"level" validate:"omitempty,oneof=cet4 cet6"`
}

// IdeaResponse is one angle a student could argue.
type IdeaResponse struct {
	Angle  string   `json:"angle"`
	Thesis string   `json:"thesis"`
	Points []string `json:"points"`
}

// BrainstormResponse carries the generated angles and a suggested outline.
type BrainstormResponse struct {
	Topic   string         `json:"topic"`
	Level   string         `json:"level"`
	Ideas   []IdeaResponse `json:"ideas"`
	Outline []string       `json:"outline"`
}

// ScaffoldRequest asks for vocabulary and sentence frames for a topic.
type ScaffoldRequest struct {
	Topic string `json:"topic" validate:"required,min=4,max=512"`
	Level string `json:"level" validate:"omitempty,oneof=cet4 cet6"`
}

// VocabularyItem is a suggested word with a Chinese gloss and usage example.
type VocabularyItem struct {
	Word    string `json:"word"`
	Gloss   string `json:"gloss"`
	Example string `json:"example"`
}

// ScaffoldResponse carries the language support pack for a topic. CacheHit
// tells clients whether the pack was served from cache.
type ScaffoldResponse struct {
	Topic        string           `json:"topic"`
	Level        string           `json:"level"`
	Vocabulary   []VocabularyItem `json:"vocabulary"`
	Collocations []string         `json:"collocations"`
	Frames       []string         `json:"frames"`
	Connectors   []string         `json:"connectors"`
	CacheHit     bool             `json:"cache_hit"`
}
