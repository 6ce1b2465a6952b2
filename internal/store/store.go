// Package store owns the category data of the expense bot: the static
// category table and the per-user learned keyword mappings persisted as a
// single YAML document.
package store

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"unicode/utf8"

	"fjacquet/expense-bot/internal/fileutils"
	"fjacquet/expense-bot/internal/logging"
	"fjacquet/expense-bot/internal/models"
	"fjacquet/expense-bot/internal/parsererror"

	"gopkg.in/yaml.v3"
)

//go:embed categories.yaml
var defaultCategories []byte

// SaveResult describes what Save did.
type SaveResult int

const (
	// SaveCreated means a new keyword mapping was written.
	SaveCreated SaveResult = iota
	// SaveReplaced means an existing mapping was overwritten.
	SaveReplaced
	// SaveSkipped means the keyword already had a mapping and nothing was written.
	SaveSkipped
)

func (r SaveResult) String() string {
	switch r {
	case SaveCreated:
		return "created"
	case SaveReplaced:
		return "replaced"
	case SaveSkipped:
		return "skipped"
	}
	return "unknown"
}

// learnedDocument is the on-disk shape: user -> keyword -> category.
type learnedDocument map[string]map[string]models.Category

// CategoryStore manages the static category table and learned mappings.
// It is the only writer of MappingsFile.
type CategoryStore struct {
	CategoriesFile string
	MappingsFile   string

	logger logging.Logger

	mu         sync.RWMutex
	loaded     bool
	categories models.CategorySet
	static     map[string]models.Category
	learned    learnedDocument
}

// NewCategoryStore creates a store. An empty categoriesFile selects the built-in table.
func NewCategoryStore(categoriesFile, mappingsFile string, logger logging.Logger) *CategoryStore {
	if logger == nil {
		logger = logging.NewDiscardLogger()
	}
	return &CategoryStore{
		CategoriesFile: categoriesFile,
		MappingsFile:   mappingsFile,
		logger:         logger,
	}
}

// LoadCategories reads the static category table.
func (s *CategoryStore) LoadCategories() ([]models.CategoryConfig, error) {
	data := defaultCategories
	source := "built-in"
	if s.CategoriesFile != "" {
		var err error
		data, err = os.ReadFile(s.CategoriesFile)
		if err != nil {
			return nil, fmt.Errorf("error reading categories file: %w", err)
		}
		source = s.CategoriesFile
	}

	var cfg models.CategoriesConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("error parsing categories file: %w", err)
	}
	if len(cfg.Categories) == 0 {
		return nil, fmt.Errorf("categories file %s defines no categories", source)
	}

	s.logger.Debug("Loaded category table",
		logging.F(logging.FieldFile, source),
		logging.F(logging.FieldCount, len(cfg.Categories)))
	return cfg.Categories, nil
}

// Load reads the static table and the learned mappings into memory. A missing
// mappings file is an empty store; an unreadable or inconsistent one is a
// *parsererror.StateCorruptionError.
func (s *CategoryStore) Load() error {
	configs, err := s.LoadCategories()
	if err != nil {
		return err
	}
	categories, static, err := buildStaticTable(configs)
	if err != nil {
		return err
	}

	learned, err := s.readLearned(categories)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.categories = categories
	s.static = static
	s.learned = learned
	s.loaded = true

	s.logger.Info("Category store loaded",
		logging.F("categories", categories.Len()),
		logging.F("static_keywords", len(static)),
		logging.F("users", len(learned)))
	return nil
}

func buildStaticTable(configs []models.CategoryConfig) (models.CategorySet, map[string]models.Category, error) {
	names := make([]models.Category, 0, len(configs))
	static := make(map[string]models.Category)

	for _, cfg := range configs {
		name := strings.TrimSpace(cfg.Name)
		if name == "" {
			return models.CategorySet{}, nil, errors.New("category with empty name in categories file")
		}
		if utf8.RuneCountInString(name) > models.MaxCategoryLength {
			return models.CategorySet{}, nil, fmt.Errorf("category name '%s' exceeds %d characters", name, models.MaxCategoryLength)
		}
		category := models.Category(name)
		names = append(names, category)

		for _, kw := range cfg.Keywords {
			key := normalizeKey(kw)
			if key == "" {
				continue
			}
			if existing, ok := static[key]; ok && existing != category {
				return models.CategorySet{}, nil, fmt.Errorf("keyword '%s' is assigned to both '%s' and '%s'", key, existing, category)
			}
			static[key] = category
		}
	}

	return models.NewCategorySet(names...), static, nil
}

func (s *CategoryStore) readLearned(categories models.CategorySet) (learnedDocument, error) {
	data, err := os.ReadFile(s.MappingsFile)
	if err != nil {
		if os.IsNotExist(err) {
			s.logger.Info("Learned mappings file not found, starting empty",
				logging.F(logging.FieldFile, s.MappingsFile))
			return learnedDocument{}, nil
		}
		return nil, &parsererror.StateCorruptionError{FilePath: s.MappingsFile, Reason: "unreadable document", Err: err}
	}

	return s.decodeLearned(data, categories)
}

// decodeLearned parses and validates a learned mappings document. Keys that
// collide after normalization or exceed the keyword limit mean the file was
// edited by hand or by another writer and are reported as corruption.
func (s *CategoryStore) decodeLearned(data []byte, categories models.CategorySet) (learnedDocument, error) {
	var raw learnedDocument
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, &parsererror.StateCorruptionError{FilePath: s.MappingsFile, Reason: "malformed document", Err: err}
	}

	doc := make(learnedDocument, len(raw))
	for user, mappings := range raw {
		if strings.TrimSpace(user) == "" {
			return nil, &parsererror.StateCorruptionError{FilePath: s.MappingsFile, Reason: "entry with empty user"}
		}
		inner := make(map[string]models.Category, len(mappings))
		for kw, category := range mappings {
			key := normalizeKey(kw)
			if key == "" {
				return nil, &parsererror.StateCorruptionError{FilePath: s.MappingsFile, Reason: fmt.Sprintf("empty keyword for user '%s'", user)}
			}
			if utf8.RuneCountInString(key) > models.MaxKeywordLength {
				return nil, &parsererror.StateCorruptionError{
					FilePath: s.MappingsFile,
					Reason:   fmt.Sprintf("keyword '%s' of user '%s' is longer than %d characters", key, user, models.MaxKeywordLength),
				}
			}
			if _, dup := inner[key]; dup {
				return nil, &parsererror.StateCorruptionError{
					FilePath: s.MappingsFile,
					Reason:   fmt.Sprintf("keyword '%s' of user '%s' appears more than once", key, user),
				}
			}
			if !categories.Contains(category) {
				return nil, &parsererror.StateCorruptionError{
					FilePath: s.MappingsFile,
					Reason:   fmt.Sprintf("unknown category '%s' for keyword '%s' of user '%s'", category, key, user),
				}
			}
			inner[key] = category
		}
		doc[user] = inner
	}
	return doc, nil
}

// current re-reads the mappings file so that a save does not drop mappings
// written by another process since Load. A missing file falls back to memory.
// Callers must hold s.mu.
func (s *CategoryStore) current() (learnedDocument, error) {
	data, err := os.ReadFile(s.MappingsFile)
	if err != nil {
		if os.IsNotExist(err) {
			return s.learned, nil
		}
		return nil, &parsererror.DurableWriteError{Target: s.MappingsFile, Err: err}
	}
	return s.decodeLearned(data, s.categories)
}

// Categories returns the closed category set.
func (s *CategoryStore) Categories() models.CategorySet {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.categories
}

// StaticKeywords returns the keywords of the static table.
func (s *CategoryStore) StaticKeywords() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.static))
	for k := range s.static {
		out = append(out, k)
	}
	return out
}

// UserMappings returns a copy of the learned mappings of one user.
func (s *CategoryStore) UserMappings(user string) map[string]models.Category {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]models.Category, len(s.learned[user]))
	for k, v := range s.learned[user] {
		out[k] = v
	}
	return out
}

// CombinedMap returns the static table overlaid with the user's learned
// mappings. User entries win on conflict. The result is a fresh map.
func (s *CategoryStore) CombinedMap(user string) map[string]models.Category {
	s.mu.RLock()
	defer s.mu.RUnlock()

	combined := make(map[string]models.Category, len(s.static)+len(s.learned[user]))
	for k, v := range s.static {
		combined[k] = v
	}
	for k, v := range s.learned[user] {
		combined[k] = v
	}
	if len(s.learned[user]) == 0 {
		s.logger.Debug("No learned mappings for user", logging.F(logging.FieldUser, user))
	}
	return combined
}

// Save records keyword -> category for user. Without overwrite an existing
// keyword is left alone and SaveSkipped is returned. The document is re-read
// under the lock and written back whole and atomically before memory is
// updated, so a failed write leaves both untouched and mappings saved by
// another process in the meantime are kept.
func (s *CategoryStore) Save(user, keyword string, category models.Category, overwrite bool) (SaveResult, error) {
	key, err := s.validate(user, keyword, category)
	if err != nil {
		return SaveSkipped, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.loaded {
		return SaveSkipped, errors.New("category store is not loaded")
	}
	if !s.categories.Contains(category) {
		return SaveSkipped, &parsererror.ValidationError{Field: "category", Value: string(category), Err: parsererror.ErrUnknownCategory}
	}

	log := s.logger.WithFields(
		logging.F(logging.FieldUser, user),
		logging.F(logging.FieldKeyword, key),
		logging.F(logging.FieldCategory, category),
	)

	base, err := s.current()
	if err != nil {
		return SaveSkipped, err
	}

	existing, exists := base[user][key]
	if exists && (!overwrite || existing == category) {
		s.learned = base
		log.Info("Keyword already mapped, not saving", logging.F("existing", existing))
		return SaveSkipped, nil
	}

	next := make(learnedDocument, len(base)+1)
	for u, m := range base {
		next[u] = m
	}
	inner := make(map[string]models.Category, len(base[user])+1)
	for k, v := range base[user] {
		inner[k] = v
	}
	inner[key] = category
	next[user] = inner

	if err := s.persist(next); err != nil {
		return SaveSkipped, &parsererror.DurableWriteError{Target: s.MappingsFile, Err: err}
	}
	s.learned = next

	if exists {
		log.Info("Keyword mapping replaced", logging.F("previous", existing))
		return SaveReplaced, nil
	}
	log.Info("Keyword mapping saved")
	return SaveCreated, nil
}

func (s *CategoryStore) validate(user, keyword string, category models.Category) (string, error) {
	if strings.TrimSpace(user) == "" {
		return "", &parsererror.ValidationError{Field: "user", Value: user, Err: parsererror.ErrEmptyValue}
	}

	key := normalizeKey(keyword)
	if key == "" {
		return "", &parsererror.ValidationError{Field: "keyword", Value: keyword, Err: parsererror.ErrEmptyValue}
	}
	if utf8.RuneCountInString(key) > models.MaxKeywordLength {
		return "", &parsererror.ValidationError{Field: "keyword", Value: key, Err: parsererror.ErrKeywordTooLong}
	}

	if category == "" {
		return "", &parsererror.ValidationError{Field: "category", Value: "", Err: parsererror.ErrEmptyValue}
	}
	if utf8.RuneCountInString(string(category)) > models.MaxCategoryLength {
		return "", &parsererror.ValidationError{Field: "category", Value: string(category), Err: parsererror.ErrCategoryTooLong}
	}
	return key, nil
}

// persist writes doc atomically to MappingsFile.
func (s *CategoryStore) persist(doc learnedDocument) error {
	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("error marshaling learned mappings: %w", err)
	}
	if err := fileutils.WriteFileAtomic(s.MappingsFile, data, models.PermissionConfigFile, models.PermissionDirectory); err != nil {
		return err
	}

	s.logger.Debug("Saved learned mappings",
		logging.F(logging.FieldFile, s.MappingsFile),
		logging.F("users", len(doc)))
	return nil
}

func normalizeKey(k string) string {
	return strings.Join(strings.Fields(strings.ToLower(k)), " ")
}
