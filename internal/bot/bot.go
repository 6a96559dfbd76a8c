// Package bot is the Telegram shell of the planner. It answers commands in a
// single chat and pushes the daily digest there.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"planner/internal/agenda"
	"planner/internal/calendar"
	"planner/internal/holiday"
	"planner/internal/model"
	"planner/internal/repository"
	"planner/internal/service"
)

// maxListed caps /tasks so the reply stays under Telegram's message limit.
const maxListed = 30

var errNoChat = errors.New("telegram chat id is not configured")

// telegramAPI is the part of *tgbotapi.BotAPI the handlers use.
type telegramAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Deps are the services the bot talks to.
type Deps struct {
	Tasks    *service.TaskService
	Groups   *service.GroupService
	Calendar *service.CalendarService
	Reminder *service.ReminderService
	Holidays holiday.Provider
	// Location decides what "today" is.
	Location *time.Location
	// ChatID receives digests. When set, only this chat is served; otherwise
	// any private chat is.
	ChatID int64
}

// Bot aggregates the Telegram API with the planner services.
type Bot struct {
	api    telegramAPI
	poller *tgbotapi.BotAPI
	deps   Deps
	logger *slog.Logger
	now    func() time.Time
}

func New(token string, deps Deps, logger *slog.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}
	b := newBot(api, deps, logger)
	b.poller = api
	b.logger.Info("bot authorized", "account", api.Self.UserName)
	return b, nil
}

func newBot(api telegramAPI, deps Deps, logger *slog.Logger) *Bot {
	if logger == nil {
		logger = slog.Default()
	}
	if deps.Location == nil {
		deps.Location = time.Local
	}
	return &Bot{api: api, deps: deps, logger: logger.With("component", "bot"), now: time.Now}
}

// Start polls updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	if b.poller == nil {
		return errors.New("bot has no telegram connection")
	}
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := b.poller.GetUpdatesChan(updateConfig)

	b.logger.Info("start polling updates")

	go func() {
		<-ctx.Done()
		b.poller.StopReceivingUpdates()
	}()

	for update := range updates {
		b.handleUpdate(ctx, update)
	}
	return ctx.Err()
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		if err := b.handleCallback(ctx, update.CallbackQuery); err != nil {
			b.logger.Error("handle callback", "error", err)
		}
	case update.Message != nil:
		if update.Message.Chat == nil || !b.allowed(update.Message.Chat) {
			return
		}
		if err := b.handleMessage(ctx, update.Message); err != nil {
			b.logger.Error("handle message", "error", err)
		}
	}
}

func (b *Bot) allowed(chat *tgbotapi.Chat) bool {
	if b.deps.ChatID != 0 {
		return chat.ID == b.deps.ChatID
	}
	return chat.IsPrivate()
}

func (b *Bot) today() time.Time {
	return calendar.Normalize(b.now().In(b.deps.Location))
}

// SendDigest pushes the daily digest to the configured chat.
func (b *Bot) SendDigest(ctx context.Context) error {
	if b.deps.ChatID == 0 {
		return errNoChat
	}
	text, err := b.deps.Reminder.DailySummary(ctx, b.today())
	if err != nil {
		return fmt.Errorf("build digest: %w", err)
	}
	return b.sendText(b.deps.ChatID, text)
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) error {
	if !msg.IsCommand() {
		return b.sendText(msg.Chat.ID, "I only understand commands. Try /help.")
	}
	b.logger.Debug("command", "chat", msg.Chat.ID, "command", msg.Command())

	chatID := msg.Chat.ID
	args := strings.TrimSpace(msg.CommandArguments())
	switch msg.Command() {
	case "start", "help":
		return b.sendText(chatID, helpText)
	case "today":
		return b.handleToday(ctx, chatID)
	case "week":
		return b.handleWeek(ctx, chatID)
	case "month":
		return b.handleMonth(ctx, chatID)
	case "tasks":
		return b.handleTasks(ctx, chatID)
	case "add":
		return b.handleAdd(ctx, chatID, args)
	case "done":
		return b.handleDone(ctx, chatID, args)
	case "delete":
		return b.handleDelete(ctx, chatID, args)
	case "groups":
		return b.handleGroups(ctx, chatID)
	case "holidays":
		return b.handleHolidays(chatID, args)
	case "report":
		text, err := b.deps.Reminder.DailySummary(ctx, b.today())
		if err != nil {
			return b.replyError(chatID, err)
		}
		return b.sendText(chatID, text)
	default:
		return b.sendText(chatID, "Unknown command. See /help.")
	}
}

const helpText = "📅 <b>Planner</b>\n" +
	"• /today: what is due today\n" +
	"• /week: this week, day by day, with its goals\n" +
	"• /month: goals and holidays of the month\n" +
	"• /tasks: open tasks with buttons\n" +
	"• /add &lt;title&gt; [| YYYY-MM-DD]: add a task\n" +
	"• /done &lt;id&gt;: complete a task by id prefix\n" +
	"• /delete &lt;id&gt;: delete a task by id prefix\n" +
	"• /groups: list groups\n" +
	"• /holidays [year]: list holidays\n" +
	"• /report: send the daily digest now"

func (b *Bot) handleToday(ctx context.Context, chatID int64) error {
	today := b.today()
	view, err := b.deps.Calendar.Day(ctx, today)
	if err != nil {
		return b.replyError(chatID, err)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "🔥 <b>Today, %s</b>\n", today.Format("02.01.2006"))
	if view.Holiday != nil {
		fmt.Fprintf(&sb, "🎉 %s\n", escape(view.Holiday.Name))
	}
	entries := append(append([]agenda.Entry{}, view.Timed...), view.AllDay...)
	if len(entries) == 0 {
		sb.WriteString("Nothing scheduled.")
		return b.sendText(chatID, sb.String())
	}

	var rows [][]tgbotapi.InlineKeyboardButton
	for _, e := range entries {
		sb.WriteString(formatEntryLine(e) + "\n")
		if stored, ok := e.(agenda.Stored); ok && !stored.Task.IsCompleted {
			rows = append(rows, taskButtons(stored.Task))
		}
	}
	return b.sendWithMarkup(chatID, strings.TrimSpace(sb.String()), rows)
}

func (b *Bot) handleWeek(ctx context.Context, chatID int64) error {
	week := calendar.WeekContaining(b.today())
	view, err := b.deps.Calendar.Week(ctx, week.Key())
	if err != nil {
		return b.replyError(chatID, err)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "🎯 <b>%s</b> · %s %d\n", escape(view.Week.Label), calendar.MonthName(view.Week.Month), view.Week.Year)
	for _, day := range view.Days {
		if len(day.Entries) == 0 && day.Holiday == nil {
			continue
		}
		fmt.Fprintf(&sb, "\n<b>%s</b>", day.Date)
		if day.Holiday != nil {
			fmt.Fprintf(&sb, " 🎉 %s", escape(day.Holiday.Name))
		}
		sb.WriteByte('\n')
		for _, e := range day.Entries {
			sb.WriteString(formatEntryLine(e) + "\n")
		}
	}
	sb.WriteString("\n<b>Goals</b>\n")
	writeTasks(&sb, view.Goals)
	return b.sendText(chatID, strings.TrimSpace(sb.String()))
}

func (b *Bot) handleMonth(ctx context.Context, chatID int64) error {
	today := b.today()
	view, err := b.deps.Calendar.Month(ctx, today.Year(), today.Month())
	if err != nil {
		return b.replyError(chatID, err)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "🗂 <b>%s %d</b>\n", escape(view.Name), today.Year())
	for _, w := range view.Weeks {
		fmt.Fprintf(&sb, "• %s\n", escape(w.Label))
	}
	sb.WriteString("\n<b>Goals</b>\n")
	writeTasks(&sb, view.Goals)
	if len(view.Holidays) > 0 {
		sb.WriteString("\n<b>Holidays</b>\n")
		for _, h := range view.Holidays {
			fmt.Fprintf(&sb, "🎉 %s %s\n", h.Date, escape(h.Name))
		}
	}
	return b.sendText(chatID, strings.TrimSpace(sb.String()))
}

func writeTasks(sb *strings.Builder, tasks []model.Task) {
	if len(tasks) == 0 {
		sb.WriteString("— none\n")
		return
	}
	for _, t := range tasks {
		sb.WriteString(formatTaskLine(t) + "\n")
	}
}

func (b *Bot) handleTasks(ctx context.Context, chatID int64) error {
	tasks, err := b.deps.Tasks.List(ctx, repository.TaskFilter{IsCompleted: model.Ptr(false)})
	if err != nil {
		return b.replyError(chatID, err)
	}
	if len(tasks) == 0 {
		return b.sendText(chatID, "No open tasks. Add one with /add.")
	}

	var sb strings.Builder
	sb.WriteString("📋 <b>Open tasks</b>\n")
	var rows [][]tgbotapi.InlineKeyboardButton
	for i, t := range tasks {
		if i == maxListed {
			fmt.Fprintf(&sb, "…and %d more\n", len(tasks)-maxListed)
			break
		}
		sb.WriteString(formatTaskLine(t) + "\n")
		rows = append(rows, taskButtons(t))
	}
	return b.sendWithMarkup(chatID, strings.TrimSpace(sb.String()), rows)
}

func taskButtons(t model.Task) []tgbotapi.InlineKeyboardButton {
	return tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData(iconDone+" "+shortTitle(t.Title, 24), cbDonePrefix+t.ID),
		tgbotapi.NewInlineKeyboardButtonData("🗑", cbDeletePrefix+t.ID),
	)
}

func (b *Bot) handleAdd(ctx context.Context, chatID int64, args string) error {
	title, due, err := parseAddArgs(args)
	if err != nil {
		return b.sendText(chatID, fmt.Sprintf("%s. Usage: /add Buy milk | 2024-06-10", escape(err.Error())))
	}
	task, err := b.deps.Tasks.Create(ctx, model.TaskDraft{
		Title:   title,
		Scope:   model.ScopeDate,
		DueDate: due,
		GroupID: model.Ptr(model.DefaultGroupID),
	})
	if err != nil {
		return b.replyError(chatID, err)
	}
	b.logger.Info("task created", "id", task.ID)
	return b.sendText(chatID, "➕ Added: "+formatTaskLine(*task))
}

func (b *Bot) resolve(ctx context.Context, prefix string) (model.Task, error) {
	tasks, err := b.deps.Tasks.List(ctx, repository.TaskFilter{})
	if err != nil {
		return model.Task{}, err
	}
	return matchPrefix(tasks, prefix)
}

func (b *Bot) handleDone(ctx context.Context, chatID int64, args string) error {
	if args == "" {
		return b.sendText(chatID, "Give the task id: /done 1a2b3c4d")
	}
	task, err := b.resolve(ctx, args)
	if err != nil {
		return b.replyError(chatID, err)
	}
	return b.complete(ctx, chatID, task.ID)
}

func (b *Bot) complete(ctx context.Context, chatID int64, id string) error {
	task, err := b.deps.Tasks.Complete(ctx, id)
	if err != nil {
		return b.replyError(chatID, err)
	}
	b.logger.Info("task completed", "id", task.ID, "recurring", task.IsRecurring)
	text := fmt.Sprintf("%s Done: %s", iconDone, escape(task.Title))
	if task.IsRecurring {
		if next, ok := b.successor(ctx, task.ID); ok && next.DueDate != nil {
			text += fmt.Sprintf("\n%s Next on %s", iconRecurring, *next.DueDate)
		} else {
			text += "\n" + iconRecurring + " The series has ended."
		}
	}
	return b.sendText(chatID, text)
}

func (b *Bot) successor(ctx context.Context, id string) (model.Task, bool) {
	open, err := b.deps.Tasks.List(ctx, repository.TaskFilter{IsCompleted: model.Ptr(false)})
	if err != nil {
		b.logger.Warn("look up next occurrence", "error", err)
		return model.Task{}, false
	}
	for _, t := range open {
		if t.ParentTaskID != nil && *t.ParentTaskID == id {
			return t, true
		}
	}
	return model.Task{}, false
}

func (b *Bot) handleDelete(ctx context.Context, chatID int64, args string) error {
	if args == "" {
		return b.sendText(chatID, "Give the task id: /delete 1a2b3c4d")
	}
	task, err := b.resolve(ctx, args)
	if err != nil {
		return b.replyError(chatID, err)
	}
	return b.delete(ctx, chatID, task)
}

func (b *Bot) delete(ctx context.Context, chatID int64, task model.Task) error {
	if err := b.deps.Tasks.Delete(ctx, task.ID); err != nil {
		return b.replyError(chatID, err)
	}
	b.logger.Info("task deleted", "id", task.ID)
	return b.sendText(chatID, fmt.Sprintf("🗑 Deleted: %s", escape(task.Title)))
}

func (b *Bot) handleGroups(ctx context.Context, chatID int64) error {
	groups, err := b.deps.Groups.List(ctx)
	if err != nil {
		return b.replyError(chatID, err)
	}
	var sb strings.Builder
	sb.WriteString("📂 <b>Groups</b>\n")
	for _, g := range groups {
		fmt.Fprintf(&sb, "• %s <code>%s</code>\n", escape(g.Name), escape(g.ID))
	}
	return b.sendText(chatID, strings.TrimSpace(sb.String()))
}

func (b *Bot) handleHolidays(chatID int64, args string) error {
	year := b.today().Year()
	if args != "" {
		y, err := strconv.Atoi(args)
		if err != nil || y < 1 {
			return b.sendText(chatID, "Year must be a number: /holidays 2025")
		}
		year = y
	}
	list := b.deps.Holidays.ForYear(year)
	if len(list) == 0 {
		return b.sendText(chatID, fmt.Sprintf("No holidays known for %d.", year))
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "🎉 <b>Holidays %d</b>\n", year)
	for _, h := range list {
		fmt.Fprintf(&sb, "%s %s\n", h.Date, escape(h.Name))
	}
	return b.sendText(chatID, strings.TrimSpace(sb.String()))
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) error {
	if cb.From == nil || cb.Message == nil || cb.Message.Chat == nil || !b.allowed(cb.Message.Chat) {
		return nil
	}
	if _, err := b.api.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		b.logger.Warn("callback ack", "error", err)
	}

	chatID := cb.Message.Chat.ID
	data := cb.Data
	switch {
	case strings.HasPrefix(data, cbDonePrefix):
		return b.complete(ctx, chatID, strings.TrimPrefix(data, cbDonePrefix))
	case strings.HasPrefix(data, cbDeletePrefix):
		task, err := b.deps.Tasks.Get(ctx, strings.TrimPrefix(data, cbDeletePrefix))
		if err != nil {
			return b.replyError(chatID, err)
		}
		rows := [][]tgbotapi.InlineKeyboardButton{tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Delete", cbConfirmPrefix+task.ID),
			tgbotapi.NewInlineKeyboardButtonData("↩️ Keep", cbCancel),
		)}
		return b.sendWithMarkup(chatID, fmt.Sprintf("Delete \"%s\"?", escape(task.Title)), rows)
	case strings.HasPrefix(data, cbConfirmPrefix):
		task, err := b.deps.Tasks.Get(ctx, strings.TrimPrefix(data, cbConfirmPrefix))
		if err != nil {
			return b.replyError(chatID, err)
		}
		return b.delete(ctx, chatID, *task)
	case data == cbCancel:
		return b.sendText(chatID, "Kept.")
	default:
		return nil
	}
}

// replyError turns known failures into a chat message and logs the rest.
func (b *Bot) replyError(chatID int64, err error) error {
	var text string
	switch {
	case errors.Is(err, repository.ErrTaskNotFound):
		text = "Task not found."
	case errors.Is(err, errNoMatch), errors.Is(err, errAmbiguous):
		text = err.Error() + "."
	case errors.Is(err, service.ErrValidation), errors.Is(err, repository.ErrVirtualTask):
		text = "⚠️ " + escape(err.Error())
	default:
		b.logger.Error("command failed", "error", err)
		text = "Something went wrong, try again later."
	}
	return b.sendText(chatID, text)
}

func (b *Bot) sendText(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) sendWithMarkup(chatID int64, text string, rows [][]tgbotapi.InlineKeyboardButton) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	if len(rows) > 0 {
		msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
	}
	_, err := b.api.Send(msg)
	return err
}
