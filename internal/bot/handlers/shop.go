package handlers

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/Spok95/classroom-league/internal/apperr"
	"github.com/Spok95/classroom-league/internal/appstate"
	"github.com/Spok95/classroom-league/internal/bot/shared/fsmutil"
	"github.com/Spok95/classroom-league/internal/models"
	"github.com/Spok95/classroom-league/internal/shop"
	"go.uber.org/zap"
)

const (
	cbBuyPrefix = "buy_ok:"
	cbBuyCancel = "buy_cancel"
)

// Shop — витрина с ценой для текущего покупателя.
func (h *Handlers) Shop(ctx context.Context, st *appstate.State, chatID int64, _ string) error {
	items, err := h.svc.Shop.ListRewards(ctx)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		return h.reply(chatID, "Магазин пуст.")
	}
	u := st.Snapshot()
	var b strings.Builder
	fmt.Fprintf(&b, "🛍 Магазин (у вас %d 🪙, купонов %d)\n", u.Coins, u.Coupons)
	for _, it := range items {
		price := shop.FinalPrice(it.Cost, it.Category, u.Coupons)
		stock := "∞"
		if !it.Unlimited() {
			stock = strconv.Itoa(it.Stock)
		}
		fmt.Fprintf(&b, "%d. %s [%s] %d 🪙", it.ID, it.Name, rarityLabel(it.Rarity), price)
		if price != it.Cost {
			fmt.Fprintf(&b, " (было %d)", it.Cost)
		}
		fmt.Fprintf(&b, ", осталось %s\n", stock)
	}
	b.WriteString("Купить: /buy номер")
	return h.reply(chatID, b.String())
}

// Buy показывает итоговую цену и ждёт подтверждения кнопкой.
func (h *Handlers) Buy(ctx context.Context, st *appstate.State, chatID int64, args string) error {
	id, err := strconv.ParseInt(strings.TrimSpace(args), 10, 64)
	if err != nil {
		return apperr.Invalid("item", "формат: /buy номер_товара")
	}
	q, err := h.svc.Shop.QuoteByID(ctx, st.Snapshot().ID, id)
	if err != nil {
		return err
	}
	text := fmt.Sprintf("Купить «%s» за %d 🪙?", q.Item.Name, q.Price)
	if q.UsesCoupon {
		text += fmt.Sprintf("\nБудет использован купон (скидка %d%%).", shop.CouponDiscountPercent)
	}
	if q.Frame != nil {
		text += "\nРамка сразу появится в коллекции."
	}
	return h.replyConfirm(chatID, text, cbBuyPrefix+strconv.FormatInt(id, 10), cbBuyCancel)
}

// BuyCallback — нажатие кнопки подтверждения покупки.
func (h *Handlers) BuyCallback(ctx context.Context, st *appstate.State, chatID int64, data string) error {
	if data == cbBuyCancel {
		return h.reply(chatID, "Покупка отменена.")
	}
	id, err := strconv.ParseInt(strings.TrimPrefix(data, cbBuyPrefix), 10, 64)
	if err != nil {
		return apperr.Invalid("item", "неизвестная кнопка")
	}
	if !fsmutil.SetPending(chatID, "buy") {
		return apperr.Invalid("pending", "предыдущая покупка ещё проводится")
	}
	defer fsmutil.ClearPending(chatID, "buy")

	q, err := h.svc.Shop.Buy(ctx, st.Snapshot().ID, id)
	if err != nil {
		return err
	}
	text := fmt.Sprintf("✅ Куплено: %s за %d 🪙. Осталось %d 🪙.", q.Item.Name, q.Price, h.coinsAfter(ctx, st, q.Price))
	if !q.Item.Category.IsCosmetic() {
		text += fmt.Sprintf("\nЗаявка #%d передана учителю.", q.RedemptionID)
	}
	return h.reply(chatID, text)
}

// coinsAfter — остаток после покупки. Если профиль не перечитался, считаем от снимка.
func (h *Handlers) coinsAfter(ctx context.Context, st *appstate.State, price int) int {
	before := st.Snapshot().Coins
	u, err := st.Refresh(ctx)
	if err != nil {
		h.log.Warn("refresh after buy failed", zap.Stringer("user", u.ID), zap.Error(err))
		return before - price
	}
	return u.Coins
}

// Orders — невыданные призы.
func (h *Handlers) Orders(ctx context.Context, st *appstate.State, chatID int64, _ string) error {
	orders, err := h.svc.Shop.PendingOrders(ctx, st.Snapshot())
	if err != nil {
		return err
	}
	if len(orders) == 0 {
		return h.reply(chatID, "Невыданных призов нет.")
	}
	var b strings.Builder
	b.WriteString("📦 Ждут выдачи (/deliver номер)\n")
	for _, o := range orders {
		fmt.Fprintf(&b, "#%d %s (%s): %s, %d 🪙, %s\n",
			o.ID, o.StudentName, orDash(o.ClassName), o.RewardName, o.CostAtTime, o.CreatedAt.In(h.loc).Format("02.01"))
	}
	return h.reply(chatID, strings.TrimRight(b.String(), "\n"))
}

func (h *Handlers) Deliver(ctx context.Context, st *appstate.State, chatID int64, args string) error {
	id, err := strconv.ParseInt(strings.TrimPrefix(strings.TrimSpace(args), "#"), 10, 64)
	if err != nil {
		return apperr.Invalid("id", "формат: /deliver номер_заявки")
	}
	if err := h.svc.Shop.Deliver(ctx, st.Snapshot(), id); err != nil {
		return err
	}
	return h.reply(chatID, fmt.Sprintf("✅ Заявка #%d выдана.", id))
}

// AddItem — новый товар каталога.
func (h *Handlers) AddItem(ctx context.Context, st *appstate.State, chatID int64, args string) error {
	in, err := parseNewReward(args)
	if err != nil {
		return err
	}
	item, err := h.svc.Shop.CreateReward(ctx, st.Snapshot(), in)
	if err != nil {
		return err
	}
	return h.reply(chatID, fmt.Sprintf("✅ Товар #%d «%s» добавлен: %d 🪙, %d шт.", item.ID, item.Name, item.Cost, item.Stock))
}

// Avatar — "/avatar" показывает список, "/avatar код" выбирает.
func (h *Handlers) Avatar(ctx context.Context, st *appstate.State, chatID int64, args string) error {
	code := strings.ToLower(strings.TrimSpace(args))
	if code == "" {
		return h.reply(chatID, "Доступные аватары: "+strings.Join(shop.Avatars, ", ")+"\nВыбор: /avatar cat01")
	}
	if err := h.svc.Shop.SetAvatar(ctx, st.Snapshot().ID, code); err != nil {
		return err
	}
	return h.reply(chatID, "✅ Аватар обновлён: "+shop.AvatarURL(code))
}

// Frame — "/frame" показывает коллекцию, "/frame GOLD|NONE|CUSTOM:ссылка" надевает.
func (h *Handlers) Frame(ctx context.Context, st *appstate.State, chatID int64, args string) error {
	if strings.TrimSpace(args) == "" {
		u := st.Snapshot()
		if len(u.OwnedFrames) == 0 {
			return h.reply(chatID, "В коллекции нет рамок. Их можно купить в /shop.")
		}
		owned := make([]string, 0, len(u.OwnedFrames))
		for _, f := range u.OwnedFrames {
			owned = append(owned, frameArg(f))
		}
		return h.reply(chatID, "Ваши рамки: "+strings.Join(owned, ", ")+"\nНадеть: /frame GOLD, снять: /frame NONE")
	}
	f, err := models.ParseFrame(args)
	if err != nil {
		return apperr.Invalid("frame", err.Error())
	}
	if err := h.svc.Shop.EquipFrame(ctx, st.Snapshot().ID, f); err != nil {
		return err
	}
	if f.IsZero() {
		return h.reply(chatID, "✅ Рамка снята.")
	}
	return h.reply(chatID, "✅ Рамка надета: "+frameArg(f))
}

func frameArg(f models.Frame) string {
	if f.Kind == models.FramePreset {
		return f.Value
	}
	return f.String()
}

func rarityLabel(r models.Rarity) string {
	switch r {
	case models.Rare:
		return "редкий"
	case models.Epic:
		return "эпический"
	case models.Legendary:
		return "легендарный"
	}
	return "обычный"
}
