package handlers

import (
	"context"
	"strings"
)

// GuestCommand — команда, доступная до привязки чата к профилю.
type GuestCommand func(ctx context.Context, chatID int64, args string) error

func (h *Handlers) GuestCommands() map[string]GuestCommand {
	return map[string]GuestCommand{
		"start":    h.Welcome,
		"help":     h.Welcome,
		"register": h.Register,
		"login":    h.Login,
	}
}

// Commands — команды по имени без "/".
func (h *Handlers) Commands() map[string]Command {
	return map[string]Command{
		"start":       h.Start,
		"help":        h.Help,
		"passwd":      h.Passwd,
		"me":          h.Me,
		"top":         h.Top,
		"report":      h.Report,
		"rules":       h.Rules,
		"journal":     h.Journal,
		"users":       h.Users,
		"add":         h.Add,
		"tally":       h.Tally,
		"shop":        h.Shop,
		"buy":         h.Buy,
		"orders":      h.Orders,
		"deliver":     h.Deliver,
		"additem":     h.AddItem,
		"avatar":      h.Avatar,
		"frame":       h.Frame,
		"classes":     h.Classes,
		"joinclass":   h.JoinClass,
		"group":       h.Group,
		"setrole":     h.SetRole,
		"setgroup":    h.SetGroup,
		"setclass":    h.SetClass,
		"deluser":     h.DelUser,
		"addclass":    h.AddClass,
		"delclass":    h.DelClass,
		"reset_month": h.ResetMonth,
		"reward_top":  h.RewardTop,
		"export":      h.Export,
	}
}

// Callback подбирает обработчик inline-кнопки по префиксу данных.
func (h *Handlers) Callback(data string) (Command, bool) {
	switch {
	case strings.HasPrefix(data, cbBuyPrefix), data == cbBuyCancel:
		return h.BuyCallback, true
	case strings.HasPrefix(data, cbDelUserPrefix), data == cbDelUserCancel:
		return h.DelUserCallback, true
	case data == cbResetOK, data == cbResetCancel:
		return h.ResetCallback, true
	}
	return nil, false
}
