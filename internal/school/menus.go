package school

import (
	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/schoolbot/core/telegram/keyboard"
)

// MainMenu is the persistent reply keyboard.
func MainMenu() *tele.ReplyMarkup {
	return keyboard.ReplyButtons(
		[]string{BtnTrial},
		[]string{BtnPickCourse, BtnAsk},
		[]string{BtnPricing, BtnLevelTest},
	)
}

// AgeMenu offers the age groups at the second intake step.
func AgeMenu() *tele.ReplyMarkup {
	return keyboard.ReplyButtons(keyboard.Chunk([]string{AgeAdult, AgeTeen, AgeChild, AgeSkip}, 2)...)
}
