package config

import (
	"path/filepath"
	"sync"

	"fjacquet/expense-bot/internal/fileutils"
	"fjacquet/expense-bot/internal/logging"

	"github.com/joho/godotenv"
)

var once sync.Once

// LoadEnv loads environment variables from a .env file if one exists in the
// current or parent directory. Existing variables are not overridden.
func LoadEnv(logger logging.Logger) {
	if logger == nil {
		logger = logging.NewDiscardLogger()
	}
	once.Do(func() {
		envFile := findEnvFile()
		if envFile == "" {
			logger.Debug("No .env file found, using environment variables")
			return
		}
		if err := godotenv.Load(envFile); err != nil {
			logger.WithError(err).Warn("Error loading .env file", logging.F(logging.FieldFile, envFile))
			return
		}
		logger.Debug("Loaded environment variables", logging.F(logging.FieldFile, envFile))
	})
}

func findEnvFile() string {
	for _, candidate := range []string{".env", filepath.Join("..", ".env")} {
		if fileutils.FileExists(candidate) {
			return candidate
		}
	}
	return ""
}

// ResolvePath returns p unchanged when it is empty or absolute, otherwise
// joined onto the data directory.
func (c *Config) ResolvePath(p string) string {
	if p == "" || filepath.IsAbs(p) || c.Data.Directory == "" {
		return p
	}
	return filepath.Join(c.Data.Directory, p)
}

// LedgerPath is the resolved ledger file.
func (c *Config) LedgerPath() string {
	return c.ResolvePath(c.Ledger.File)
}

// CategoriesPath is the resolved static table file; empty selects the built-in table.
func (c *Config) CategoriesPath() string {
	return c.ResolvePath(c.Categories.File)
}

// MappingsPath is the resolved learned mappings file.
func (c *Config) MappingsPath() string {
	return c.ResolvePath(c.Categories.CustomFile)
}

// DictionaryPath is the resolved lemma dictionary; empty selects the built-in one.
func (c *Config) DictionaryPath() string {
	return c.ResolvePath(c.Morph.DictionaryFile)
}
