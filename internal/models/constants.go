package models

// Length limits, counted in characters rather than bytes.
const (
	MaxCommentLength  = 100
	MaxKeywordLength  = 50
	MaxCategoryLength = 30
)

// File permissions
const (
	PermissionConfigFile = 0600
	PermissionDirectory  = 0750
)

// TimestampLayout is the layout used for the ledger and mirror datetime column.
const TimestampLayout = "2006-01-02 15:04:05"
