package store

import (
	"sync"

	"fjacquet/expense-bot/internal/models"
)

// SaveCall records one call to MockCategoryStore.Save.
type SaveCall struct {
	User      string
	Keyword   string
	Category  models.Category
	Overwrite bool
}

// MockCategoryStore is an in-memory stand-in for CategoryStore in tests.
type MockCategoryStore struct {
	Set     models.CategorySet
	Static  map[string]models.Category
	Learned map[string]map[string]models.Category

	// Error injection
	SaveError error

	mu        sync.Mutex
	SaveCalls []SaveCall
}

// Categories returns the configured category set.
func (m *MockCategoryStore) Categories() models.CategorySet {
	return m.Set
}

// CombinedMap overlays Learned[user] on Static.
func (m *MockCategoryStore) CombinedMap(user string) map[string]models.Category {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]models.Category)
	for k, v := range m.Static {
		out[k] = v
	}
	for k, v := range m.Learned[user] {
		out[k] = v
	}
	return out
}

// Save records the call and stores the mapping unless SaveError is set.
func (m *MockCategoryStore) Save(user, keyword string, category models.Category, overwrite bool) (SaveResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SaveCalls = append(m.SaveCalls, SaveCall{User: user, Keyword: keyword, Category: category, Overwrite: overwrite})
	if m.SaveError != nil {
		return SaveSkipped, m.SaveError
	}
	if m.Learned == nil {
		m.Learned = make(map[string]map[string]models.Category)
	}
	if m.Learned[user] == nil {
		m.Learned[user] = make(map[string]models.Category)
	}
	if _, ok := m.Learned[user][keyword]; ok && !overwrite {
		return SaveSkipped, nil
	}
	m.Learned[user][keyword] = category
	return SaveCreated, nil
}

// Calls returns a copy of the recorded Save calls.
func (m *MockCategoryStore) Calls() []SaveCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]SaveCall, len(m.SaveCalls))
	copy(out, m.SaveCalls)
	return out
}
