package telegram

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"fjacquet/expense-bot/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	callbackPrefix = "cat:"
	buttonsPerRow  = 2
)

// ErrBadCallback is returned for callback data this bot did not produce.
var ErrBadCallback = errors.New("malformed callback data")

// EncodeChoice returns the callback data selecting category index i of the
// closed set. Indices keep the payload well under Telegram's 64 byte limit.
func EncodeChoice(i int) string {
	return callbackPrefix + strconv.Itoa(i)
}

// DecodeChoice maps callback data back to a category of the closed set.
func DecodeChoice(data string, categories []models.Category) (models.Category, error) {
	raw, ok := strings.CutPrefix(data, callbackPrefix)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrBadCallback, data)
	}
	i, err := strconv.Atoi(raw)
	if err != nil || i < 0 || i >= len(categories) {
		return "", fmt.Errorf("%w: %q", ErrBadCallback, data)
	}
	return categories[i], nil
}

// CategoryKeyboard builds an inline keyboard for options, addressing each
// button by its position in the closed set. Options outside the set are left out.
func CategoryKeyboard(options, categories []models.Category) (tgbotapi.InlineKeyboardMarkup, bool) {
	index := make(map[models.Category]int, len(categories))
	for i, c := range categories {
		index[c] = i
	}

	var rows [][]tgbotapi.InlineKeyboardButton
	var row []tgbotapi.InlineKeyboardButton
	for _, opt := range options {
		i, ok := index[opt]
		if !ok {
			continue
		}
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(string(opt), EncodeChoice(i)))
		if len(row) == buttonsPerRow {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return tgbotapi.InlineKeyboardMarkup{}, false
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...), true
}
