package stores

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/islamapp/internal/backend"
	"github.com/Nixie-Tech-LLC/islamapp/internal/kv"
)

const (
	DefaultLanguage = "en"
	translationsTTL = 24 * time.Hour
)

type TranslationsBackend interface {
	Translations(ctx context.Context, lang string) (map[string]string, error)
}

// Translations keeps the UI strings of the current language. Dictionaries
// are shared between users, so local is usually the unscoped store.
type Translations struct {
	*store[map[string]string]

	backend TranslationsBackend
	kv      kv.Store
	lang    string
}

func NewTranslations(b TranslationsBackend, local kv.Store) *Translations {
	return &Translations{store: newStore(map[string]string{}), backend: b, kv: local, lang: DefaultLanguage}
}

func translationsKey(lang string) string {
	return fmt.Sprintf("translations:%s", lang)
}

// Load switches to lang, using the cached dictionary when there is one.
// An empty lang selects DefaultLanguage.
func (t *Translations) Load(ctx context.Context, lang string) (map[string]string, error) {
	if lang == "" {
		lang = DefaultLanguage
	}

	var dict map[string]string
	if err := kv.GetJSON(ctx, t.kv, translationsKey(lang), &dict); err == nil && len(dict) > 0 {
		t.set(lang, dict)
		return dict, nil
	}

	t.startLoading()
	dict, err := t.backend.Translations(ctx, lang)
	if err != nil {
		t.fail(backend.HumanMessage(err))
		return nil, err
	}
	if err := kv.SetJSON(ctx, t.kv, translationsKey(lang), dict, translationsTTL); err != nil {
		log.Error().Err(err).Str("lang", lang).Msg("[translations] failed to cache dictionary")
	}
	t.set(lang, dict)
	return dict, nil
}

func (t *Translations) set(lang string, dict map[string]string) {
	t.update(func(st *State[map[string]string]) {
		t.lang = lang
		st.Loading = false
		st.Error = ""
		st.Data = dict
	})
}

func (t *Translations) Language() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.lang
}

// T looks key up in the loaded dictionary and returns key itself when it
// is missing.
func (t *Translations) T(key string) string {
	if v, ok := t.Snapshot().Data[key]; ok && v != "" {
		return v
	}
	return key
}
