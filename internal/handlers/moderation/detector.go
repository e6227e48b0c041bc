package handlers

import (
	"strings"

	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"

	"github.com/robostop/sentinel/internal/infra"
	"github.com/robostop/sentinel/resources"
)

// Detector flags messages containing any of the configured words as a
// case-insensitive substring. No tokenization or word boundaries, a word
// inside a longer word still matches.
type Detector struct {
	words []string
}

func NewDetector(words []string) *Detector {
	folded := make([]string, 0, len(words))
	for _, word := range words {
		word = strings.ToLower(strings.TrimSpace(word))
		if word == "" {
			continue
		}
		folded = append(folded, word)
	}
	return &Detector{words: folded}
}

func (d *Detector) IsSuspicious(text string) bool {
	if text == "" {
		return false
	}
	lowered := strings.ToLower(text)
	for _, word := range d.words {
		if strings.Contains(lowered, word) {
			return true
		}
	}
	return false
}

// DefaultForbiddenWords returns the embedded suspicious-word list.
func DefaultForbiddenWords() []string {
	data, err := resources.FS.ReadFile(infra.GetResourcesPath("words", "suspicious.yml"))
	if err != nil {
		log.WithError(err).Error("cant load suspicious words list")
		return nil
	}
	var words []string
	if err := yaml.Unmarshal(data, &words); err != nil {
		log.WithError(err).Error("cant unmarshal suspicious words list")
		return nil
	}
	return words
}
