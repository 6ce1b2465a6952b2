package telegram

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"fjacquet/expense-bot/internal/categorizer"
	"fjacquet/expense-bot/internal/ledger"
	"fjacquet/expense-bot/internal/logging"
	"fjacquet/expense-bot/internal/models"
	"fjacquet/expense-bot/internal/parsererror"
	"fjacquet/expense-bot/internal/session"
	"fjacquet/expense-bot/internal/store"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAPI struct {
	mu       sync.Mutex
	sent     []tgbotapi.Chattable
	requests []tgbotapi.Chattable
	sendErr  error
}

func (f *fakeAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, c)
	return tgbotapi.Message{}, f.sendErr
}

func (f *fakeAPI) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeAPI) lastMessage(t *testing.T) tgbotapi.MessageConfig {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.sent)
	msg, ok := f.sent[len(f.sent)-1].(tgbotapi.MessageConfig)
	require.True(t, ok, "last sent item is %T", f.sent[len(f.sent)-1])
	return msg
}

type fixture struct {
	bot    *Bot
	api    *fakeAPI
	store  *store.MockCategoryStore
	ledger *ledger.CSVLedger
	logger *logging.MockLogger
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := logging.NewMockLogger()
	ms := &store.MockCategoryStore{
		Set:    models.NewCategorySet("Еда", "Транспорт", "Развлечения"),
		Static: map[string]models.Category{"кофе": "Еда"},
	}
	l := ledger.NewCSVLedger(filepath.Join(t.TempDir(), "expenses.csv"), ',', logger)
	resolver := categorizer.NewCategorizerWithStrategies(ms, logger, categorizer.NewExactMatchStrategy(logger))
	orch := session.New(ms, resolver, ledger.NewRecorder(l, nil, logger), logger)

	api := &fakeAPI{}
	return &fixture{bot: NewBot(api, orch, logger), api: api, store: ms, ledger: l, logger: logger}
}

func textUpdate(userName string, userID int64, text string) tgbotapi.Update {
	return tgbotapi.Update{Message: &tgbotapi.Message{
		MessageID: 1,
		From:      &tgbotapi.User{ID: userID, UserName: userName},
		Chat:      &tgbotapi.Chat{ID: 42},
		Text:      text,
	}}
}

func commandUpdate(command string) tgbotapi.Update {
	u := textUpdate("alice", 1, "/"+command)
	u.Message.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(command) + 1}}
	return u
}

func callbackUpdate(userName, data string) tgbotapi.Update {
	return tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:      "cb-1",
		From:    &tgbotapi.User{ID: 1, UserName: userName},
		Message: &tgbotapi.Message{MessageID: 7, Chat: &tgbotapi.Chat{ID: 42}},
		Data:    data,
	}}
}

func TestHandleUpdate_ResolvedMessage(t *testing.T) {
	f := newFixture(t)
	f.bot.HandleUpdate(context.Background(), textUpdate("alice", 1, "200 кофе"))

	msg := f.api.lastMessage(t)
	assert.Equal(t, int64(42), msg.ChatID)
	assert.Contains(t, msg.Text, "Еда")
	assert.Nil(t, msg.ReplyMarkup)

	recs, err := f.ledger.Records()
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "alice", recs[0].User)
}

func TestHandleUpdate_ChoiceFlow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.bot.HandleUpdate(ctx, textUpdate("alice", 1, "1500 билеты в кино"))
	msg := f.api.lastMessage(t)
	keyboard, ok := msg.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	require.True(t, ok)
	require.Len(t, keyboard.InlineKeyboard, 2)
	assert.Equal(t, "Еда", keyboard.InlineKeyboard[0][0].Text)
	require.NotNil(t, keyboard.InlineKeyboard[1][0].CallbackData)
	assert.Equal(t, "cat:2", *keyboard.InlineKeyboard[1][0].CallbackData)

	f.bot.HandleUpdate(ctx, callbackUpdate("alice", "cat:2"))

	require.NotEmpty(t, f.api.requests)
	_, answered := f.api.requests[len(f.api.requests)-1].(tgbotapi.CallbackConfig)
	assert.True(t, answered)

	edit, ok := f.api.sent[len(f.api.sent)-1].(tgbotapi.EditMessageTextConfig)
	require.True(t, ok)
	assert.Equal(t, 7, edit.MessageID)
	assert.Contains(t, edit.Text, "Развлечения")

	assert.Equal(t, models.Category("Развлечения"), f.store.Learned["alice"]["билеты в кино"])
	recs, err := f.ledger.Records()
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "1500", recs[0].Amount.String())
}

func TestHandleUpdate_ChoiceFailureText(t *testing.T) {
	tests := []struct {
		name     string
		saveErr  error
		expected string
	}{
		{
			name:     "durable write failure invites a retry",
			saveErr:  &parsererror.DurableWriteError{Target: "category store", Err: errors.New("disk full")},
			expected: session.TextStorageFailure,
		},
		{
			name:     "corrupted store is reported as an internal failure",
			saveErr:  &parsererror.StateCorruptionError{FilePath: "dict.yaml", Reason: "malformed document"},
			expected: session.TextInternalFailure,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.store.SaveError = tt.saveErr
			ctx := context.Background()

			f.bot.HandleUpdate(ctx, textUpdate("alice", 1, "1500 билеты в кино"))
			f.bot.HandleUpdate(ctx, callbackUpdate("alice", "cat:2"))

			assert.Equal(t, tt.expected, f.api.lastMessage(t).Text)
			assert.True(t, f.logger.HasEntry("ERROR", "Failed to handle category choice"))
			recs, err := f.ledger.Records()
			require.NoError(t, err)
			assert.Empty(t, recs)
		})
	}
}

func TestHandleUpdate_BadCallbackData(t *testing.T) {
	f := newFixture(t)
	f.bot.HandleUpdate(context.Background(), callbackUpdate("alice", "cat:99"))

	assert.Equal(t, textBadChoice, f.api.lastMessage(t).Text)
	assert.True(t, f.logger.HasEntry("WARN", "Rejected callback data"))
	assert.Empty(t, f.store.Calls())
}

func TestHandleUpdate_StaleCallback(t *testing.T) {
	f := newFixture(t)
	f.bot.HandleUpdate(context.Background(), callbackUpdate("alice", "cat:0"))

	edit, ok := f.api.sent[len(f.api.sent)-1].(tgbotapi.EditMessageTextConfig)
	require.True(t, ok)
	assert.Equal(t, session.TextSelectionExpired, edit.Text)
}

func TestHandleUpdate_Commands(t *testing.T) {
	tests := []struct {
		command string
		want    string
	}{
		{"start", session.TextStart},
		{"help", textHelp},
		{"categories", "Категории:\n• Еда\n• Транспорт\n• Развлечения"},
		{"cancel", session.TextNothingToCancel},
		{"unknown", textUnknownCommand},
	}
	for _, tt := range tests {
		t.Run(tt.command, func(t *testing.T) {
			f := newFixture(t)
			f.bot.HandleUpdate(context.Background(), commandUpdate(tt.command))
			assert.Equal(t, tt.want, f.api.lastMessage(t).Text)
		})
	}
}

func TestHandleUpdate_FormatHelp(t *testing.T) {
	f := newFixture(t)
	f.bot.HandleUpdate(context.Background(), textUpdate("", 555, "кофе"))
	assert.Equal(t, session.TextFormatHelp, f.api.lastMessage(t).Text)
}

func TestHandleUpdate_SendFailureIsLogged(t *testing.T) {
	f := newFixture(t)
	f.api.sendErr = errors.New("network down")
	f.bot.HandleUpdate(context.Background(), commandUpdate("start"))
	assert.True(t, f.logger.HasEntry("ERROR", "Failed to send message"))
}

func TestRegisterCommands(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.bot.RegisterCommands())
	require.Len(t, f.api.requests, 1)
	cfg, ok := f.api.requests[0].(tgbotapi.SetMyCommandsConfig)
	require.True(t, ok)
	assert.Len(t, cfg.Commands, len(Commands))
}

func TestRun_StopsWhenChannelCloses(t *testing.T) {
	f := newFixture(t)
	updates := make(chan tgbotapi.Update, 2)
	updates <- textUpdate("alice", 1, "200 кофе")
	updates <- textUpdate("bob", 2, "300 кофе")
	close(updates)

	require.NoError(t, f.bot.Run(context.Background(), updates))
	recs, err := f.ledger.Records()
	require.NoError(t, err)
	assert.Len(t, recs, 2)
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(t, f.bot.Run(ctx, make(chan tgbotapi.Update)))
}

func TestUsername(t *testing.T) {
	assert.Equal(t, "alice", Username(&tgbotapi.User{ID: 1, UserName: "alice"}))
	assert.Equal(t, "id555", Username(&tgbotapi.User{ID: 555}))
	assert.Equal(t, "", Username(nil))
}

func TestDecodeChoice(t *testing.T) {
	cats := []models.Category{"Еда", "Транспорт"}
	tests := []struct {
		data    string
		want    models.Category
		wantErr bool
	}{
		{"cat:0", "Еда", false},
		{"cat:1", "Транспорт", false},
		{"cat:2", "", true},
		{"cat:-1", "", true},
		{"cat:x", "", true},
		{"Еда", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.data, func(t *testing.T) {
			got, err := DecodeChoice(tt.data, cats)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrBadCallback)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCategoryKeyboard(t *testing.T) {
	cats := []models.Category{"Еда", "Транспорт", "Развлечения"}

	kb, ok := CategoryKeyboard([]models.Category{"Развлечения", "Еда", "Космос"}, cats)
	require.True(t, ok)
	require.Len(t, kb.InlineKeyboard, 1)
	row := kb.InlineKeyboard[0]
	require.Len(t, row, 2)
	assert.Equal(t, "Развлечения", row[0].Text)
	assert.Equal(t, EncodeChoice(2), *row[0].CallbackData)
	assert.Equal(t, EncodeChoice(0), *row[1].CallbackData)

	_, ok = CategoryKeyboard([]models.Category{"Космос"}, cats)
	assert.False(t, ok)
}
