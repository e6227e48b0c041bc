package i18n

import (
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"

	"github.com/robostop/sentinel/internal/infra"
	"github.com/robostop/sentinel/resources"
)

// Translation keys are the English texts themselves; "en" needs no resource.
var state = struct {
	sync.Mutex
	translations map[string]map[string]string
	loaded       map[string]bool
}{
	translations: make(map[string]map[string]string),
	loaded:       make(map[string]bool),
}

func load(lang string) {
	data, err := resources.FS.ReadFile(infra.GetResourcesPath("i18n", fmt.Sprintf("%s.yml", lang)))
	if err != nil {
		log.WithError(err).WithField("language", lang).Errorln("cant load i18n")
		return
	}
	translations := make(map[string]string)
	if err := yaml.Unmarshal(data, &translations); err != nil {
		log.WithError(err).WithField("language", lang).Errorln("cant unmarshal i18n")
		return
	}
	state.translations[lang] = translations
}

func Get(key, lang string) string {
	if "en" == lang {
		return key
	}
	state.Lock()
	defer state.Unlock()
	if !state.loaded[lang] {
		load(lang)
		state.loaded[lang] = true
	}
	if res, ok := state.translations[lang][key]; ok {
		return res
	}
	log.Tracef(`no translation for key %q`, key)
	return key
}
