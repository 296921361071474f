package intake

// User-facing texts. Telegram HTML.
const (
	msgWelcome = "Привет! 👋\n" +
		"Я помогу тебе заполнить бриф на разработку сайта.\n" +
		"Нажми кнопку ниже, чтобы начать:"
	msgReady      = "Готовы начать?"
	btnEntry      = "Заполнить бриф"
	msgNoSession  = "Чтобы начать, нажмите /start"
	msgUseButtons = "Пожалуйста, выберите вариант с помощью кнопок 👇"
	msgBadContact = "Не похоже на email или телефон. Попробуйте ещё раз, например <code>name@mail.com</code> или <code>+7 701 123 4567</code>."

	msgSelectAtLeastOne = "Выберите хотя бы один вариант"
	msgAnswerFirst      = "Сначала ответьте на этот вопрос"
	msgStaleButton      = "Эта кнопка устарела, вот текущий вопрос"
	msgSomethingWrong   = "⚠️ Что-то пошло не так. Попробуйте ещё раз или начните заново: /start"

	msgThanks = "✅ Спасибо! Я получил ваш бриф <code>%s</code>.\n" +
		"Свяжусь с вами в ближайшее время."
	msgResent        = "🔁 Обновлённый бриф <code>%s</code> отправлен."
	msgAlreadySent   = "Ваш бриф <code>%s</code> уже отправлен."
	msgEditPreview   = "Вот ваш бриф. Отправить его заново, изменить ответы или оставить как есть?"
	msgEditClosed    = "Время на редактирование истекло. Чтобы заполнить новый бриф, нажмите /start"
	msgCancelled     = "Хорошо, оставляем бриф как есть."
	msgCancelledWiz  = "Заполнение брифа отменено. Чтобы начать заново, нажмите /start"
	btnBack          = "⬅️ Назад"
	btnNext          = "Далее ➡️"
	btnDone          = "Готово ✔️"
	btnEdit          = "✏️ Изменить"
	btnResend        = "🔁 Отправить заново"
	btnRevise        = "📝 Изменить ответы"
	btnCancel        = "✖️ Отмена"
	checkMark        = "✅ "
	promptNumbered   = "🔹 Шаг %d из %d: %s"
	promptSubstep    = "🔹 %s"
	briefTitle       = "📩 <b>Новый бриф от клиента</b>"
	briefTitleResend = "🔁 <b>Обновлённый бриф</b>"
	placeholder      = "—"
)
