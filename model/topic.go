package model

// RandomTopicKey selects one topic at random from the whole catalog.
const RandomTopicKey = "random"

// RandomTopicName is the display name used for a topic resolved through RandomTopicKey.
const RandomTopicName = "Random"

// CustomTopicKeyPrefix is prepended to keys derived from custom topic names.
const CustomTopicKeyPrefix = "custom-"

type Topic struct {
	Key      string   `json:"key" yaml:"key"`
	Name     string   `json:"name" yaml:"name"`
	Words    []string `json:"words" yaml:"words"`
	IsCustom bool     `json:"isCustom" yaml:"-"`
}

// TopicSummary is the catalog listing entry; words stay server-side.
type TopicSummary struct {
	Key       string `json:"key"`
	Name      string `json:"name"`
	WordCount int    `json:"wordCount"`
	IsCustom  bool   `json:"isCustom"`
}

func (t Topic) Summary() TopicSummary {
	return TopicSummary{
		Key:       t.Key,
		Name:      t.Name,
		WordCount: len(t.Words),
		IsCustom:  t.IsCustom,
	}
}

func (t Topic) Clone() Topic {
	words := make([]string, len(t.Words))
	copy(words, t.Words)
	t.Words = words
	return t
}
