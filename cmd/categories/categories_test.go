package categories

import (
	"bytes"
	"strings"
	"testing"

	"fjacquet/expense-bot/cmd/root"
	"fjacquet/expense-bot/internal/config"
	"fjacquet/expense-bot/internal/models"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategories(t *testing.T) {
	cfg := &config.Config{}
	cfg.Data.Directory = t.TempDir()
	cfg.Categories.CustomFile = "category_dict.yaml"

	prevCfg, prevFlags := root.AppConfig, root.SharedFlags
	t.Cleanup(func() { root.AppConfig, root.SharedFlags = prevCfg, prevFlags })
	root.AppConfig = cfg
	root.SharedFlags.User = "alice"

	s, err := root.LoadStore()
	require.NoError(t, err)
	_, err = s.Save("alice", "шаурма", "Еда", false)
	require.NoError(t, err)

	var out bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&out)
	require.NoError(t, categoriesFunc(cmd, nil))

	lines := strings.Split(out.String(), "\n")
	assert.Equal(t, "Еда", lines[0])
	assert.Contains(t, out.String(), "Learned keywords for alice: 1")
	assert.Contains(t, out.String(), "шаурма -> Еда")
}

func TestPrintMappings_Sorted(t *testing.T) {
	var out bytes.Buffer
	PrintMappings(&out, "bob", map[string]models.Category{"такси ночью": "Транспорт", "арбуз": "Еда"})
	assert.Equal(t, "\nLearned keywords for bob: 2\n  арбуз -> Еда\n  такси ночью -> Транспорт\n", out.String())
}
