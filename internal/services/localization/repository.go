package localization

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/text/language"
)

// Repository resolves canonical (English) strings to localized ones by
// BCP 47 language tag. Canonical text doubles as the lookup key, so a
// missing translation falls back to the canonical string itself and the
// caller never has to special-case untranslated locales.
type Repository struct {
	mu           sync.RWMutex
	tags         []language.Tag
	matcher      language.Matcher
	translations map[language.Tag]map[string]string
	logger       *zap.Logger
}

// NewRepository creates an empty repository. English always matches and
// resolves to the canonical string.
func NewRepository(logger *zap.Logger) *Repository {
	r := &Repository{
		tags:         []language.Tag{language.English},
		translations: make(map[language.Tag]map[string]string),
		logger:       logger,
	}
	r.matcher = language.NewMatcher(r.tags)
	return r
}

// Register adds a translation catalog for the given language tag,
// merging with any catalog already registered for it.
func (r *Repository) Register(tag string, strings map[string]string) error {
	parsed, err := language.Parse(tag)
	if err != nil {
		return fmt.Errorf("parse language tag %q: %w", tag, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	catalog, ok := r.translations[parsed]
	if !ok {
		catalog = make(map[string]string, len(strings))
		r.translations[parsed] = catalog
		r.tags = append(r.tags, parsed)
		r.matcher = language.NewMatcher(r.tags)
	}
	for canonical, localized := range strings {
		catalog[canonical] = localized
	}

	r.logger.Info("Localization catalog registered",
		zap.String("language", parsed.String()),
		zap.Int("strings", len(strings)),
	)
	return nil
}

// GetLocalizedString returns the translation of canonical for the best
// match of languageTag, or canonical itself when no translation exists.
// Malformed tags fall back to canonical rather than erroring.
func (r *Repository) GetLocalizedString(canonical, languageTag string) string {
	if languageTag == "" {
		return canonical
	}

	requested, err := language.Parse(languageTag)
	if err != nil {
		return canonical
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	_, index, confidence := r.matcher.Match(requested)
	if confidence == language.No {
		return canonical
	}

	if localized, ok := r.translations[r.tags[index]][canonical]; ok {
		return localized
	}
	return canonical
}
