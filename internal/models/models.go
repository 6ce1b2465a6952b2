// Package models provides the data structures shared by the expense bot:
// amounts, categories, expense records and pending category choices.
package models
