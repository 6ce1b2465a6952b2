// Package learn teaches the bot a keyword for a user.
package learn

import (
	"fmt"

	"fjacquet/expense-bot/cmd/root"
	"fjacquet/expense-bot/internal/models"

	"github.com/spf13/cobra"
)

var (
	// Keyword is the comment text to map
	Keyword string
	// Category is the target category
	Category string
	// Overwrite replaces an existing mapping
	Overwrite bool
)

// Cmd represents the learn command
var Cmd = &cobra.Command{
	Use:   "learn",
	Short: "Map a keyword to a category for a user",
	Long: `Store a learned keyword mapping for --user. An existing mapping is kept
unless --overwrite is given.`,
	RunE: learnFunc,
}

func init() {
	Cmd.Flags().StringVarP(&Keyword, "keyword", "k", "", "Keyword or full comment to map")
	Cmd.Flags().StringVarP(&Category, "category", "c", "", "Category name")
	Cmd.Flags().BoolVar(&Overwrite, "overwrite", false, "Replace an existing mapping")
	_ = Cmd.MarkFlagRequired("keyword")
	_ = Cmd.MarkFlagRequired("category")
}

func learnFunc(cmd *cobra.Command, args []string) error {
	user, err := root.RequireUser()
	if err != nil {
		return err
	}

	s, err := root.LoadStore()
	if err != nil {
		return err
	}

	result, err := s.Save(user, Keyword, models.Category(Category), Overwrite)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %q -> %s\n", result, Keyword, Category)
	return nil
}
