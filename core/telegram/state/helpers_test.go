package state

import tele "gopkg.in/telebot.v4"

func noopHandler(tele.Context) error { return nil }
