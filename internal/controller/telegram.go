package controller

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"

	"github.com/campus-advising/advising_bot/internal/controller/session"
	"github.com/campus-advising/advising_bot/internal/conversation"
	appmodel "github.com/campus-advising/advising_bot/internal/model"
	"github.com/campus-advising/advising_bot/internal/service"
)

// StudentRegistry registers students on first contact.
type StudentRegistry interface {
	UpsertStudent(ctx context.Context, student *appmodel.Student) error
}

// BotController is the Telegram front-end: one dialog context per chat,
// every plain text message fed through the conversation engine.
type BotController struct {
	bot      *bot.Bot
	engine   *conversation.Engine
	sessions *session.Manager
	bookings *service.BookingService
	students StudentRegistry
	logger   *zap.Logger
}

func NewBotController(
	botInstance *bot.Bot,
	engine *conversation.Engine,
	sessions *session.Manager,
	bookings *service.BookingService,
	students StudentRegistry,
	logger *zap.Logger,
) *BotController {
	return &BotController{
		bot:      botInstance,
		engine:   engine,
		sessions: sessions,
		bookings: bookings,
		students: students,
		logger:   logger,
	}
}

// RegisterHandlers registers all command and message handlers.
func (c *BotController) RegisterHandlers(ctx context.Context) error {
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/start", bot.MatchTypeExact, c.handleStart)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/help", bot.MatchTypeExact, c.handleHelp)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/book", bot.MatchTypeExact, c.handleBook)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/cancel", bot.MatchTypeExact, c.handleCancel)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/myappointments", bot.MatchTypeExact, c.handleMyAppointments)

	// Plain text goes through the dialog engine.
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "", bot.MatchTypePrefix, c.handleText)

	return c.setCommands(ctx)
}

func (c *BotController) setCommands(ctx context.Context) error {
	commands := []models.BotCommand{
		{Command: "start", Description: "Get started"},
		{Command: "book", Description: "Book an advising appointment"},
		{Command: "cancel", Description: "Abandon the booking in progress"},
		{Command: "myappointments", Description: "List my appointments"},
		{Command: "help", Description: "How this bot works"},
	}

	_, err := c.bot.SetMyCommands(ctx, &bot.SetMyCommandsParams{
		Commands: commands,
	})
	if err != nil {
		c.logger.Error("failed to set bot commands", zap.Error(err))
		return err
	}

	c.logger.Info("bot commands menu set")
	return nil
}

// Start runs the long-polling loop until the context is cancelled.
func (c *BotController) Start(ctx context.Context) {
	c.logger.Info("starting telegram bot")
	c.bot.Start(ctx)
}

func (c *BotController) handleStart(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	user := update.Message.From

	name := strings.TrimSpace(user.FirstName + " " + user.LastName)
	err := c.students.UpsertStudent(ctx, &appmodel.Student{
		ID:   studentID(user.ID),
		Name: name,
	})
	if err != nil {
		c.logger.Error("failed to register student", zap.Error(err))
		c.reply(ctx, b, update, "Something went wrong on our side. Please try again later.")
		return
	}

	c.reply(ctx, b, update, fmt.Sprintf(
		"Hi, %s! I can book advising appointments for you.\n\n"+
			"/book — book an appointment\n"+
			"/myappointments — see your appointments\n"+
			"/help — how it works",
		user.FirstName,
	))
}

func (c *BotController) handleHelp(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	c.reply(ctx, b, update,
		"Start with /book and I'll walk you through it: program level, advisor, "+
			"date, and time. Appointments are 30 minutes, weekdays 8:00 AM to 5:00 PM, "+
			"up to 30 days out. You can say 'cancel' at any point to abandon the booking.")
}

func (c *BotController) handleBook(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}

	turn := c.engine.Start(ctx, studentID(update.Message.From.ID))
	c.sessions.Put(chatKey(update.Message.Chat.ID), turn.Context)
	c.reply(ctx, b, update, turn.Message)
}

func (c *BotController) handleCancel(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}

	key := chatKey(update.Message.Chat.ID)
	if c.sessions.Get(key) == nil {
		c.reply(ctx, b, update, "There's no booking in progress. Use /book to start one.")
		return
	}

	c.sessions.Close(key)
	c.reply(ctx, b, update, "Booking cancelled. Let me know if you'd like to start over!")
}

func (c *BotController) handleMyAppointments(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}

	appointments, err := c.bookings.ListForStudent(ctx, studentID(update.Message.From.ID))
	if err != nil {
		c.logger.Error("failed to list appointments", zap.Error(err))
		c.reply(ctx, b, update, "Couldn't load your appointments right now. Please try again.")
		return
	}
	if len(appointments) == 0 {
		c.reply(ctx, b, update, "You have no appointments yet. Use /book to make one!")
		return
	}

	var sb strings.Builder
	sb.WriteString("Your appointments:\n\n")
	for _, appt := range appointments {
		status := ""
		if !appt.IsActive() {
			status = " (cancelled)"
		}
		fmt.Fprintf(&sb, "• %s%s\n", conversation.FormatSlot(appt.SlotAt), status)
	}
	c.reply(ctx, b, update, sb.String())
}

func (c *BotController) handleText(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil || strings.HasPrefix(update.Message.Text, "/") {
		return
	}

	key := chatKey(update.Message.Chat.ID)
	dialog := c.sessions.Get(key)
	if dialog == nil {
		if looksLikeBookingIntent(update.Message.Text) {
			c.handleBook(ctx, b, update)
			return
		}
		c.reply(ctx, b, update, "Use /book to start booking an appointment, or /help to see what I can do.")
		return
	}

	turn, err := c.engine.Handle(ctx, dialog, update.Message.Text)
	if err != nil {
		// Dialog context is untouched; the student can just repeat the message.
		c.logger.Error("dialog turn failed",
			zap.Int64("chat_id", update.Message.Chat.ID),
			zap.Error(err),
		)
		c.reply(ctx, b, update, "Something went wrong on our side, your booking wasn't saved. Please try again.")
		return
	}

	if turn.State.Terminal() {
		c.sessions.Close(key)
	}
	c.reply(ctx, b, update, turn.Message)
}

func (c *BotController) reply(ctx context.Context, b *bot.Bot, update *models.Update, text string) {
	_, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: update.Message.Chat.ID,
		Text:   text,
	})
	if err != nil {
		c.logger.Error("failed to send message",
			zap.Int64("chat_id", update.Message.Chat.ID),
			zap.Error(err),
		)
	}
}

func looksLikeBookingIntent(text string) bool {
	text = strings.ToLower(text)
	return strings.Contains(text, "book") || strings.Contains(text, "appointment") ||
		strings.Contains(text, "schedule") || strings.Contains(text, "advisor")
}

func studentID(telegramID int64) string {
	return "tg-" + strconv.FormatInt(telegramID, 10)
}

func chatKey(chatID int64) string {
	return "chat-" + strconv.FormatInt(chatID, 10)
}
