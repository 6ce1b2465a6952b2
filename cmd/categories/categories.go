// Package categories lists the category table and learned mappings.
package categories

import (
	"fmt"
	"io"
	"sort"

	"fjacquet/expense-bot/cmd/root"
	"fjacquet/expense-bot/internal/models"

	"github.com/spf13/cobra"
)

// Cmd represents the categories command
var Cmd = &cobra.Command{
	Use:   "categories",
	Short: "List categories and, with --user, that user's learned keywords",
	RunE:  categoriesFunc,
}

func categoriesFunc(cmd *cobra.Command, args []string) error {
	s, err := root.LoadStore()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, c := range s.Categories().List() {
		fmt.Fprintln(out, c)
	}

	if user := root.SharedFlags.User; user != "" {
		PrintMappings(out, user, s.UserMappings(user))
	}
	return nil
}

// PrintMappings writes mappings sorted by keyword.
func PrintMappings(w io.Writer, user string, mappings map[string]models.Category) {
	fmt.Fprintf(w, "\nLearned keywords for %s: %d\n", user, len(mappings))
	keys := make([]string, 0, len(mappings))
	for k := range mappings {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(w, "  %s -> %s\n", k, mappings[k])
	}
}
