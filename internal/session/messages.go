package session

// User-facing texts.
const (
	TextStart = "Привет! Я помогу вести учёт расходов.\n" +
		"Отправьте сумму и описание, например: 200 кофе"
	TextFormatHelp       = "Не понял сообщение. Отправьте сумму и описание, например: 200 кофе"
	TextNeedCategory     = "Не удалось определить категорию для «%s». Выберите категорию:"
	TextRecorded         = "Записано: %s, категория «%s» (%s)"
	TextNotLearned       = "\nКатегория не запомнена для этого описания."
	TextSelectionExpired = "Нет ожидающего расхода. Отправьте сумму и описание заново."
	TextInvalidChoice    = "Такой категории нет. Выберите категорию из списка:"
	TextCancelled        = "Ввод отменён."
	TextNothingToCancel  = "Нечего отменять."
	TextStorageFailure   = "Не удалось сохранить расход, попробуйте ещё раз."
	TextInternalFailure  = "Что-то пошло не так, расход не сохранён."
)
