package school

import (
	"fmt"

	"github.com/m3rciful/schoolbot/core/telegram/format"
)

// Main menu labels. Pressing one always cancels an unfinished form.
const (
	BtnTrial      = "📌 Записаться на пробный урок"
	BtnPickCourse = "📚 Подобрать курс"
	BtnAsk        = "💬 Задать вопрос"
	BtnPricing    = "💰 Цена и пакеты"
	BtnLevelTest  = "🧪 Определить уровень"
)

// Age group choices offered at the second intake step. Free text is accepted too.
const (
	AgeAdult = "Взрослый"
	AgeTeen  = "Подросток (13–17)"
	AgeChild = "Ребёнок (6–12)"
	AgeSkip  = "Не хочу говорить"
)

const (
	textHelp = "Я помогу выбрать курс английского и записаться на пробный урок.\n\n" +
		"• «📌 Записаться на пробный урок» — короткая анкета из шести вопросов\n" +
		"• «📚 Подобрать курс» — расскажи о цели, подберём формат\n" +
		"• «💰 Цена и пакеты» — примерные варианты занятий\n\n" +
		"/start — начать заново"

	textAskName = "Супер. Как тебя зовут?"

	textAskGoalFromMenu = "Ок! Для чего английский?\n" +
		"Например: разговорный / работа / IELTS / переезд / универ."

	textPricing = "💰 Пример пакетов (замени на ваши реальные):\n" +
		"• Пробный урок: 30–45 мин\n" +
		"• Индивидуально: 2–3 раза в неделю\n" +
		"• Группа: 6–10 человек\n\n" +
		"Хочешь — подберу вариант под твою цель. Нажми «Подобрать курс»."

	textLevelTest = "Быстрый способ:\n" +
		"1) Сколько лет учишь английский?\n" +
		"2) Можешь ли смотреть видео без субтитров?\n" +
		"3) Что сложнее: говорить или понимать?\n\n" +
		"Ответь 2–3 предложениями — и я скажу примерный уровень (A1–C1)."

	textAsk = "Напиши свой вопрос одним сообщением — отвечу 🙂"

	textAskAgeGroup = "Кто будет заниматься?"
	textAskLevel    = "Какой сейчас уровень? (если не знаешь — напиши «не знаю»)"
	textAskGoal     = "Какая цель? (разговорный/IELTS/работа/переезд и т.д.)"
	textAskContact  = "Оставь контакт для связи (ник/телефон) или напиши «без контакта».\n" +
		"⚠️ Пиши только то, что готов(а) сообщить."

	textDone = "✅ Готово! Я записал(а) заявку.\n\n" +
		"Следующий шаг: напиши 2–3 удобных слота по времени (например: вт 19:00, чт 20:00), " +
		"и мы подтвердим пробный урок.\n\n" +
		"Если хочешь — могу сразу предложить формат (индивидуально/группа) по твоей цели."

	textSaveFailed = "Не получилось сохранить заявку 😔 Отправь контакт ещё раз чуть позже."

	textExam = "Если цель экзамен — ок. Скажи: какой дедлайн и текущий уровень? Тогда подберу план."

	textClarify = "Понял(а). Чтобы точнее помочь: какая цель английского?\n" +
		"1) разговорный  2) работа  3) IELTS  4) переезд  5) школа/универ"

	textLeadUsage    = "Использование: /lead <tg_id>"
	textLeadNotFound = "Лид не найден."
	textResetUsage   = "Использование: /reset [tg_id]"
)

// Greeting is sent on /start. The school name is escaped for Markdown.
func Greeting(school string) string {
	name, err := format.EscapeMarkdown(school, format.MarkdownV1)
	if err != nil {
		name = school
	}
	return fmt.Sprintf("Привет! Я бот школы *%s* 🙂\n"+
		"Помогу выбрать курс и записаться на пробный урок.\n\n"+
		"С чего начнём?", name)
}

func askSchedule(timezone string) string {
	return fmt.Sprintf("Когда удобно заниматься? (дни/время) + часовой пояс.\n"+
		"Если ты в Казахстане, обычно это %s.", timezone)
}

func resetAllDone(users int) string {
	return fmt.Sprintf("🧹 Память диалогов очищена (пользователей: %d).", users)
}

func resetUserDone(tgID int64, turns int) string {
	return fmt.Sprintf("🧹 Память диалога %d очищена (сообщений: %d).", tgID, turns)
}
