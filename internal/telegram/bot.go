// Package telegram binds the application core to the Telegram Bot API:
// long-poll update consumption, command routing, photo download into the
// scratch directory, and the inline confirmation button.
package telegram

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"bookbot/internal/app"
)

// saveCallbackPrefix tags confirmation button payloads; the rest of the
// payload is the opaque pending id.
const saveCallbackPrefix = "save_book:"

// Bot consumes Telegram updates and dispatches them to the application core.
type Bot struct {
	api        *tgbotapi.BotAPI
	app        *app.App
	imagesDir  string
	httpClient *http.Client
}

// New connects to the Bot API and prepares the scratch directory.
func New(token string, appCore *app.App, imagesDir string) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("connect bot api: %w", err)
	}
	if err := os.MkdirAll(imagesDir, 0o755); err != nil {
		return nil, fmt.Errorf("create images dir: %w", err)
	}
	return &Bot{
		api:        api,
		app:        appCore,
		imagesDir:  imagesDir,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}, nil
}

// Run long-polls updates until the context is canceled. Each update is
// processed to completion, including the extraction call, before the next
// one is dequeued.
func (b *Bot) Run(ctx context.Context) error {
	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = 30
	updates := b.api.GetUpdatesChan(cfg)
	slog.Info("bot polling", "username", b.api.Self.UserName)
	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil:
		b.handleMessage(ctx, update.Message)
	}
}

func (b *Bot) handleMessage(ctx context.Context, message *tgbotapi.Message) {
	chatID := strconv.FormatInt(message.Chat.ID, 10)
	userID := ""
	if message.From != nil {
		userID = strconv.FormatInt(message.From.ID, 10)
	}
	switch {
	case len(message.Photo) > 0:
		b.handlePhoto(ctx, message, chatID, userID)
	case strings.HasPrefix(message.Text, "/"):
		b.reply(message.Chat.ID, message.MessageID, b.app.HandleCommand(ctx, chatID, userID, message.Text), nil)
	}
}

func (b *Bot) handlePhoto(ctx context.Context, message *tgbotapi.Message, chatID, userID string) {
	// Telegram sends several sizes of one photo; the last is the largest.
	photo := message.Photo[len(message.Photo)-1]
	image, err := b.downloadPhoto(ctx, photo.FileID)
	if err != nil {
		slog.Error("photo download failed", "chat", chatID, "file_id", photo.FileID, "err", err)
		b.reply(message.Chat.ID, message.MessageID, app.MsgExtractionFailed, nil)
		return
	}
	replyText, pendingID := b.app.HandlePhoto(ctx, chatID, userID, image)
	var markup *tgbotapi.InlineKeyboardMarkup
	if pendingID != "" {
		keyboard := saveKeyboard(pendingID)
		markup = &keyboard
	}
	b.reply(message.Chat.ID, message.MessageID, replyText, markup)
}

func (b *Bot) handleCallback(ctx context.Context, callback *tgbotapi.CallbackQuery) {
	pendingID, ok := strings.CutPrefix(callback.Data, saveCallbackPrefix)
	if !ok || callback.Message == nil {
		return
	}
	chatID := strconv.FormatInt(callback.Message.Chat.ID, 10)
	userID := strconv.FormatInt(callback.From.ID, 10)
	replyText := b.app.Confirm(ctx, chatID, userID, pendingID)
	b.reply(callback.Message.Chat.ID, 0, replyText, nil)
	if _, err := b.api.Request(tgbotapi.NewCallback(callback.ID, "")); err != nil {
		slog.Error("answer callback failed", "chat", chatID, "err", err)
	}
}

// downloadPhoto fetches the file into the scratch directory, reads it back,
// and removes it.
func (b *Bot) downloadPhoto(ctx context.Context, fileID string) ([]byte, error) {
	url, err := b.api.GetFileDirectURL(fileID)
	if err != nil {
		return nil, fmt.Errorf("resolve file url: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch file: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch file: %s", resp.Status)
	}

	path := filepath.Join(b.imagesDir, fileID+".jpg")
	out, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create scratch file: %w", err)
	}
	if _, err := io.Copy(out, resp.Body); err != nil {
		out.Close()
		os.Remove(path)
		return nil, fmt.Errorf("write scratch file: %w", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(path)
		return nil, err
	}
	defer os.Remove(path)
	return os.ReadFile(path)
}

func (b *Bot) reply(chatID int64, replyTo int, text string, markup *tgbotapi.InlineKeyboardMarkup) {
	msg := tgbotapi.NewMessage(chatID, text)
	if replyTo != 0 {
		msg.ReplyToMessageID = replyTo
	}
	if markup != nil {
		msg.ReplyMarkup = *markup
	}
	if _, err := b.api.Send(msg); err != nil {
		slog.Error("send reply failed", "chat", chatID, "err", err)
	}
}

func saveKeyboard(pendingID string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Сохранить", saveCallbackPrefix+pendingID),
		),
	)
}
