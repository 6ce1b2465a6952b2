package models

// Category is the name of a spending category. Valid names come from the
// closed set defined by the static category table.
type Category string

// String returns the category name.
func (c Category) String() string {
	return string(c)
}

// CategoryConfig represents a category and its keyword lemmas in the static table file.
type CategoryConfig struct {
	Name     string   `yaml:"name"`
	Keywords []string `yaml:"keywords"`
}

// CategoriesConfig represents the structure of the static table YAML file.
type CategoriesConfig struct {
	Categories []CategoryConfig `yaml:"categories"`
}

// CategorySet is the ordered, closed set of valid categories.
type CategorySet struct {
	names []Category
	index map[Category]int
}

// NewCategorySet builds a set keeping first-seen order and dropping duplicates and empty names.
func NewCategorySet(names ...Category) CategorySet {
	s := CategorySet{index: make(map[Category]int, len(names))}
	for _, n := range names {
		if n == "" {
			continue
		}
		if _, dup := s.index[n]; dup {
			continue
		}
		s.index[n] = len(s.names)
		s.names = append(s.names, n)
	}
	return s
}

// Contains reports whether c belongs to the set.
func (s CategorySet) Contains(c Category) bool {
	_, ok := s.index[c]
	return ok
}

// Index returns the position of c in the set.
func (s CategorySet) Index(c Category) (int, bool) {
	i, ok := s.index[c]
	return i, ok
}

// At returns the category at position i.
func (s CategorySet) At(i int) (Category, bool) {
	if i < 0 || i >= len(s.names) {
		return "", false
	}
	return s.names[i], true
}

// Len returns the number of categories.
func (s CategorySet) Len() int {
	return len(s.names)
}

// List returns a copy of the categories in order.
func (s CategorySet) List() []Category {
	out := make([]Category, len(s.names))
	copy(out, s.names)
	return out
}
