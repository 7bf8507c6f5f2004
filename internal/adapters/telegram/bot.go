package telegram

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"

	"github.com/tim2004timi/traveline-integration/internal/app"
)

// Conversation steps for the add-feedback and add-video flows. One step per
// chat; the bot serves a handful of admins, so a plain map is enough.
type step int

const (
	stepIdle step = iota
	stepAwaitText
	stepAwaitRate
	stepAwaitVideo
)

type convState struct {
	step step
	text string // pending feedback text while waiting for the rate
}

// Bot is the admin console: feedback and video-feedback management over a
// long-poll loop, gated by a static allow-list of admin ids.
type Bot struct {
	api    *tgbotapi.BotAPI
	svc    *app.FeedbackService
	admins map[int64]struct{}
	states map[int64]*convState
	hc     *http.Client
}

func New(token string, adminIDs []int64, svc *app.FeedbackService) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	admins := make(map[int64]struct{}, len(adminIDs))
	for _, id := range adminIDs {
		admins[id] = struct{}{}
	}
	return &Bot{
		api:    api,
		svc:    svc,
		admins: admins,
		states: make(map[int64]*convState),
		hc:     &http.Client{Timeout: 60 * time.Second},
	}, nil
}

// Run long-polls until the context is canceled.
func (b *Bot) Run(ctx context.Context) error {
	log.Info().Str("bot", b.api.Self.UserName).Msg("admin bot polling")

	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = 30
	updates := b.api.GetUpdatesChan(cfg)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return ctx.Err()
		case upd, ok := <-updates:
			if !ok {
				return nil
			}
			b.handle(ctx, upd)
		}
	}
}

func (b *Bot) isAdmin(userID int64) bool {
	_, ok := b.admins[userID]
	return ok
}

func (b *Bot) state(chatID int64) *convState {
	st, ok := b.states[chatID]
	if !ok {
		st = &convState{}
		b.states[chatID] = st
	}
	return st
}

func (b *Bot) handle(ctx context.Context, upd tgbotapi.Update) {
	switch {
	case upd.CallbackQuery != nil:
		b.handleCallback(ctx, upd.CallbackQuery)
	case upd.Message != nil:
		b.handleMessage(ctx, upd.Message)
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if !b.isAdmin(msg.From.ID) {
		b.reply(msg.Chat.ID, "You do not have access to this bot.")
		return
	}

	st := b.state(msg.Chat.ID)
	switch {
	case msg.IsCommand() && msg.Command() == "start":
		st.step = stepIdle
		b.sendMenu(msg.Chat.ID)
	case st.step == stepAwaitText:
		st.text = msg.Text
		st.step = stepAwaitRate
		out := tgbotapi.NewMessage(msg.Chat.ID, "Pick a rating:")
		out.ReplyMarkup = rateKeyboard()
		b.send(out)
	case st.step == stepAwaitVideo && msg.Video != nil:
		b.saveVideo(ctx, msg)
	default:
		b.reply(msg.Chat.ID, "Use /start to open the menu.")
	}
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	defer func() {
		_, _ = b.api.Request(tgbotapi.NewCallback(cb.ID, ""))
	}()

	if !b.isAdmin(cb.From.ID) {
		b.reply(cb.Message.Chat.ID, "You do not have access to this bot.")
		return
	}

	chatID := cb.Message.Chat.ID
	st := b.state(chatID)
	data := cb.Data

	switch {
	case data == "main_menu":
		st.step = stepIdle
		b.sendMenu(chatID)
	case data == "text_reviews":
		b.edit(cb, "Feedback\n\nPick an action:", actionsKeyboard("text"))
	case data == "video_reviews":
		b.edit(cb, "Video feedback\n\nPick an action:", actionsKeyboard("video"))
	case data == "view_text":
		b.viewFeedbacks(ctx, cb)
	case data == "view_video":
		b.viewVideos(ctx, cb)
	case data == "add_text":
		st.step = stepAwaitText
		b.edit(cb, "Send the feedback text:", nil)
	case data == "add_video":
		st.step = stepAwaitVideo
		b.edit(cb, "Send a video file to add.", nil)
	case data == "delete_text":
		b.pickFeedbackToDelete(ctx, cb)
	case data == "delete_video":
		b.pickVideoToDelete(ctx, cb)
	case strings.HasPrefix(data, "rate_") && st.step == stepAwaitRate:
		b.saveFeedback(ctx, cb, st)
	case strings.HasPrefix(data, "delete_feedback_"):
		b.deleteFeedback(ctx, cb)
	case strings.HasPrefix(data, "delete_video_"):
		b.deleteVideo(ctx, cb)
	}
}

// ---- flows ----

func (b *Bot) viewFeedbacks(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	fbs, err := b.svc.Feedbacks(ctx)
	if err != nil {
		log.Error().Err(err).Msg("list feedbacks failed")
		b.edit(cb, "Could not load feedback.", actionsKeyboard("text"))
		return
	}
	if len(fbs) == 0 {
		b.edit(cb, "No feedback yet.", actionsKeyboard("text"))
		return
	}
	var sb strings.Builder
	sb.WriteString("Feedback\n\n")
	for _, f := range fbs {
		fmt.Fprintf(&sb, "%d) [%d/5] %s\n", f.ID, f.Rate, f.Text)
	}
	b.editLong(cb, sb.String(), actionsKeyboard("text"))
}

func (b *Bot) viewVideos(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	vids, err := b.svc.VideoFeedbacks(ctx)
	if err != nil {
		log.Error().Err(err).Msg("list video feedbacks failed")
		b.edit(cb, "Could not load video feedback.", actionsKeyboard("video"))
		return
	}
	if len(vids) == 0 {
		b.edit(cb, "No video feedback yet.", actionsKeyboard("video"))
		return
	}
	b.edit(cb, "Video feedback\n\nSending available videos...", actionsKeyboard("video"))
	for _, v := range vids {
		data, err := b.svc.VideoContent(ctx, v.UUID)
		if err != nil {
			b.reply(cb.Message.Chat.ID, v.UUID+": could not load video")
			continue
		}
		vid := tgbotapi.NewVideo(cb.Message.Chat.ID, tgbotapi.FileBytes{
			Name:  v.UUID + ".mp4",
			Bytes: data,
		})
		vid.Caption = v.UUID
		b.send(vid)
	}
}

func (b *Bot) saveFeedback(ctx context.Context, cb *tgbotapi.CallbackQuery, st *convState) {
	rate, err := strconv.Atoi(strings.TrimPrefix(cb.Data, "rate_"))
	if err != nil {
		return
	}
	_, err = b.svc.CreateFeedback(ctx, st.text, rate)
	st.step = stepIdle
	st.text = ""
	if err != nil {
		log.Error().Err(err).Msg("create feedback failed")
		b.edit(cb, "Could not save the feedback.\n\nPick an action:", actionsKeyboard("text"))
		return
	}
	b.edit(cb, "Feedback saved.\n\nPick an action:", actionsKeyboard("text"))
}

func (b *Bot) saveVideo(ctx context.Context, msg *tgbotapi.Message) {
	st := b.state(msg.Chat.ID)
	st.step = stepIdle

	data, err := b.download(msg.Video.FileID)
	if err != nil {
		log.Error().Err(err).Msg("video download failed")
		b.reply(msg.Chat.ID, "Could not save the video. Try again.")
		return
	}
	if _, err := b.svc.CreateVideoFeedback(ctx, data); err != nil {
		log.Error().Err(err).Msg("create video feedback failed")
		b.reply(msg.Chat.ID, "Could not save the video. Try again.")
		return
	}
	out := tgbotapi.NewMessage(msg.Chat.ID, "Video feedback saved.")
	out.ReplyMarkup = actionsKeyboard("video")
	b.send(out)
}

func (b *Bot) pickFeedbackToDelete(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	fbs, err := b.svc.Feedbacks(ctx)
	if err != nil || len(fbs) == 0 {
		b.edit(cb, "Nothing to delete.", actionsKeyboard("text"))
		return
	}
	var rows [][]tgbotapi.InlineKeyboardButton
	var row []tgbotapi.InlineKeyboardButton
	for _, f := range fbs {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(
			strconv.FormatInt(f.ID, 10), fmt.Sprintf("delete_feedback_%d", f.ID)))
		if len(row) == 3 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	rows = append(rows, []tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardButtonData("Back", "text_reviews"),
	})
	kb := tgbotapi.NewInlineKeyboardMarkup(rows...)
	b.edit(cb, "Pick the feedback to delete:", &kb)
}

func (b *Bot) pickVideoToDelete(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	vids, err := b.svc.VideoFeedbacks(ctx)
	if err != nil || len(vids) == 0 {
		b.edit(cb, "Nothing to delete.", actionsKeyboard("video"))
		return
	}
	var rows [][]tgbotapi.InlineKeyboardButton
	var row []tgbotapi.InlineKeyboardButton
	for _, v := range vids {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(v.UUID, "delete_video_"+v.UUID))
		if len(row) == 2 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	rows = append(rows, []tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardButtonData("Back", "video_reviews"),
	})
	kb := tgbotapi.NewInlineKeyboardMarkup(rows...)
	b.edit(cb, "Pick the video (by UUID) to delete:", &kb)
}

func (b *Bot) deleteFeedback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	id, err := strconv.ParseInt(strings.TrimPrefix(cb.Data, "delete_feedback_"), 10, 64)
	if err != nil {
		return
	}
	ok, err := b.svc.DeleteFeedback(ctx, id)
	if err != nil {
		log.Error().Err(err).Int64("id", id).Msg("delete feedback failed")
	}
	if ok {
		b.edit(cb, "Feedback deleted.\n\nPick an action:", actionsKeyboard("text"))
	} else {
		b.edit(cb, "Could not delete the feedback.\n\nPick an action:", actionsKeyboard("text"))
	}
}

func (b *Bot) deleteVideo(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	uid := strings.TrimPrefix(cb.Data, "delete_video_")
	ok, err := b.svc.DeleteVideoFeedback(ctx, uid)
	if err != nil {
		log.Error().Err(err).Str("uuid", uid).Msg("delete video feedback failed")
	}
	if ok {
		b.edit(cb, "Video deleted.\n\nPick an action:", actionsKeyboard("video"))
	} else {
		b.edit(cb, "Video not found.\n\nPick an action:", actionsKeyboard("video"))
	}
}

// ---- plumbing ----

func (b *Bot) download(fileID string) ([]byte, error) {
	url, err := b.api.GetFileDirectURL(fileID)
	if err != nil {
		return nil, err
	}
	resp, err := b.hc.Get(url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("file download status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

func (b *Bot) sendMenu(chatID int64) {
	msg := tgbotapi.NewMessage(chatID, "Welcome to the admin panel!\n\nPick a section:")
	msg.ReplyMarkup = menuKeyboard()
	b.send(msg)
}

func (b *Bot) reply(chatID int64, text string) {
	b.send(tgbotapi.NewMessage(chatID, text))
}

func (b *Bot) send(c tgbotapi.Chattable) {
	if _, err := b.api.Send(c); err != nil {
		log.Warn().Err(err).Msg("telegram send failed")
	}
}

// edit rewrites the callback's message; falls back to a fresh message when
// editing is not possible (e.g. the message is too old).
func (b *Bot) edit(cb *tgbotapi.CallbackQuery, text string, kb *tgbotapi.InlineKeyboardMarkup) {
	edit := tgbotapi.NewEditMessageText(cb.Message.Chat.ID, cb.Message.MessageID, text)
	edit.ReplyMarkup = kb
	if _, err := b.api.Send(edit); err != nil {
		msg := tgbotapi.NewMessage(cb.Message.Chat.ID, text)
		if kb != nil {
			msg.ReplyMarkup = *kb
		}
		b.send(msg)
	}
}

// editLong splits text over Telegram's 4096-char message limit: the first
// chunk edits the callback message, the rest go out as new messages.
func (b *Bot) editLong(cb *tgbotapi.CallbackQuery, text string, kb *tgbotapi.InlineKeyboardMarkup) {
	const max = 4096
	first := text
	rest := ""
	if len(first) > max {
		first, rest = text[:max], text[max:]
	}
	b.edit(cb, first, kb)
	for len(rest) > 0 {
		chunk := rest
		if len(chunk) > max {
			chunk = rest[:max]
		}
		rest = rest[len(chunk):]
		b.reply(cb.Message.Chat.ID, chunk)
	}
}

func menuKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Video feedback", "video_reviews"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Feedback", "text_reviews"),
		),
	)
}

func actionsKeyboard(category string) *tgbotapi.InlineKeyboardMarkup {
	kb := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("View", "view_"+category),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Add", "add_"+category),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Delete", "delete_"+category),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Menu", "main_menu"),
		),
	)
	return &kb
}

func rateKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("0", "rate_0"),
			tgbotapi.NewInlineKeyboardButtonData("1", "rate_1"),
			tgbotapi.NewInlineKeyboardButtonData("2", "rate_2"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("3", "rate_3"),
			tgbotapi.NewInlineKeyboardButtonData("4", "rate_4"),
			tgbotapi.NewInlineKeyboardButtonData("5", "rate_5"),
		),
	)
}
