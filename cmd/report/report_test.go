package report

import (
	"bytes"
	"context"
	"testing"
	"time"

	"fjacquet/expense-bot/cmd/root"
	"fjacquet/expense-bot/internal/config"
	"fjacquet/expense-bot/internal/models"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildFilter(t *testing.T) {
	f, err := BuildFilter("alice", "2024-03", "", "", time.UTC)
	require.NoError(t, err)
	assert.Equal(t, "alice", f.User)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), f.Range.Start)

	f, err = BuildFilter("", "", "2024-03-05", "", time.UTC)
	require.NoError(t, err)
	assert.True(t, f.Range.End.IsZero())

	_, err = BuildFilter("", "March", "", "", time.UTC)
	assert.Error(t, err)
}

func TestReport(t *testing.T) {
	cfg := &config.Config{}
	cfg.Data.Directory = t.TempDir()
	cfg.Ledger.File = "expenses.csv"
	cfg.Ledger.Delimiter = ";"

	prevCfg, prevFlags, prevFormat := root.AppConfig, root.SharedFlags, Format
	t.Cleanup(func() { root.AppConfig, root.SharedFlags, Format = prevCfg, prevFlags, prevFormat })
	root.AppConfig = cfg
	root.SharedFlags.User = "alice"
	Format = "csv"

	l, err := root.OpenLedger()
	require.NoError(t, err)
	for _, r := range []struct {
		user     string
		amount   string
		category models.Category
	}{
		{"alice", "200", "Еда"},
		{"alice", "100.5", "Еда"},
		{"bob", "700", "Транспорт"},
	} {
		require.NoError(t, l.Append(context.Background(), models.ExpenseRecord{
			Timestamp: time.Now(),
			Amount:    models.MustParseAmount(r.amount),
			Category:  r.category,
			Comment:   "x",
			User:      r.user,
		}))
	}

	var out bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&out)
	require.NoError(t, reportFunc(cmd, nil))
	assert.Equal(t, "category,count,total\nЕда,2,300.50\n", out.String())
}
