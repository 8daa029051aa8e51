// Package bot turns chat updates into settings changes, replies and
// vectorization jobs. It talks to the chat service only through the
// Messenger and Files interfaces.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ByLCY/vectorizer/command"
	"github.com/ByLCY/vectorizer/jobs"
	"github.com/ByLCY/vectorizer/reply"
	"github.com/ByLCY/vectorizer/settings"
	"github.com/ByLCY/vectorizer/vectorizer"
)

// ArchiveTimeLayout 用于生成归档文件名 archive_<时间>.zip。
const ArchiveTimeLayout = "02-01-2006_15_04_05"

// Update is one incoming chat message.
type Update struct {
	ChatID    int64
	UserID    int64
	FirstName string
	Text      string
	Document  *Document
}

// Document is a file attached to an update.
type Document struct {
	FileID   string
	FileName string
	MimeType string
}

// Messenger delivers replies to a chat.
type Messenger interface {
	SendText(ctx context.Context, chatID int64, text string, markdown bool) error
	SendDocument(ctx context.Context, chatID int64, name string, data []byte) error
}

// Files downloads attached files.
type Files interface {
	Download(ctx context.Context, fileID string) ([]byte, error)
}

// Submitter accepts jobs; *jobs.Pool implements it.
type Submitter interface {
	Submit(job jobs.Job) error
}

var _ Submitter = (*jobs.Pool)(nil)

// Options wires the dispatcher to its collaborators.
type Options struct {
	Store     settings.Store
	Messenger Messenger
	Files     Files
	Jobs      Submitter

	BotName    string        // 非空时忽略发给其他机器人的 "/cmd@other"
	JobTimeout time.Duration // 为 0 时使用 Jobs 的默认超时
	Vectorizer vectorizer.Options
	Logger     *slog.Logger
	Now        func() time.Time
}

// Dispatcher routes updates. Safe for concurrent use when its collaborators are.
type Dispatcher struct {
	opts Options
	log  *slog.Logger
}

// New validates the options and returns a dispatcher.
func New(opts Options) (*Dispatcher, error) {
	switch {
	case opts.Store == nil:
		return nil, errors.New("bot: 缺少 Store")
	case opts.Messenger == nil:
		return nil, errors.New("bot: 缺少 Messenger")
	case opts.Files == nil:
		return nil, errors.New("bot: 缺少 Files")
	case opts.Jobs == nil:
		return nil, errors.New("bot: 缺少 Jobs")
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	log := opts.Logger
	if log == nil {
		log = vectorizer.Logger()
	}
	return &Dispatcher{opts: opts, log: log}, nil
}

// ArchiveName returns the file name used for a result archive created at t.
func ArchiveName(t time.Time) string {
	return "archive_" + t.Format(ArchiveTimeLayout) + ".zip"
}

// Handle processes one update. Returned errors come from the store, the
// messenger or the job queue.
func (d *Dispatcher) Handle(ctx context.Context, u Update) error {
	if u.Document != nil {
		return d.handleDocument(ctx, u)
	}
	cmd, err := parseCommand(u.Text)
	if err != nil {
		if !errors.Is(err, command.ErrNotCommand) {
			d.log.Debug("malformed command", "chat", u.ChatID, "err", err)
		}
		return d.send(ctx, u.ChatID, reply.UnknownCommand.With(nil))
	}
	if cmd.Bot != "" && d.opts.BotName != "" && !strings.EqualFold(cmd.Bot, d.opts.BotName) {
		return nil
	}

	switch cmd.Name {
	case "start":
		return d.handleStart(ctx, u)
	case "settings":
		return d.handleSettings(ctx, u)
	}
	if _, ok := settings.Bounds[cmd.Name]; ok {
		return d.handleSet(ctx, u, cmd)
	}
	return d.send(ctx, u.ChatID, reply.UnknownCommand.With(nil))
}

// parseCommand 也接受省略 "/" 的命令，如 "radius 4"。
func parseCommand(text string) (*command.Command, error) {
	cmd, err := command.Parse(text)
	if errors.Is(err, command.ErrNotCommand) && strings.TrimSpace(text) != "" {
		return command.Parse("/" + strings.TrimSpace(text))
	}
	return cmd, err
}

func (d *Dispatcher) handleStart(ctx context.Context, u Update) error {
	if _, err := d.opts.Store.Ensure(ctx, u.UserID); err != nil {
		return fmt.Errorf("bot: 初始化用户 %d 设置失败: %w", u.UserID, err)
	}
	return d.send(ctx, u.ChatID, reply.Start.With(map[string]any{"name": u.FirstName}))
}

func (d *Dispatcher) handleSettings(ctx context.Context, u Update) error {
	s, err := d.opts.Store.Ensure(ctx, u.UserID)
	if err != nil {
		return fmt.Errorf("bot: 读取用户 %d 设置失败: %w", u.UserID, err)
	}
	return d.send(ctx, u.ChatID, reply.Settings.With(map[string]any{
		settings.Radius:            s.Radius,
		settings.SimplifyTolerance: s.SimplifyTolerance,
		settings.RedThreshold:      s.RedThreshold,
	}))
}

func (d *Dispatcher) handleSet(ctx context.Context, u Update, cmd *command.Command) error {
	if len(cmd.Args) != 1 {
		return d.send(ctx, u.ChatID, reply.WrongArgCount.With(map[string]any{"count": len(cmd.Args)}))
	}
	value, err := cmd.Int(0)
	if err != nil {
		return d.send(ctx, u.ChatID, reply.BadValue.With(map[string]any{"name": cmd.Name, "value": cmd.Args[0]}))
	}

	s, err := d.opts.Store.Ensure(ctx, u.UserID)
	if err != nil {
		return fmt.Errorf("bot: 读取用户 %d 设置失败: %w", u.UserID, err)
	}
	if err := s.Set(cmd.Name, value); err != nil {
		var re *settings.RangeError
		if errors.As(err, &re) {
			return d.send(ctx, u.ChatID, reply.OutOfRange.With(map[string]any{
				"name": re.Name, "min": re.Range.Min, "max": re.Range.Max,
			}))
		}
		return err
	}
	if err := d.opts.Store.Put(ctx, u.UserID, s); err != nil {
		return fmt.Errorf("bot: 保存用户 %d 设置失败: %w", u.UserID, err)
	}
	d.log.Info("setting updated", "user", u.UserID, "name", cmd.Name, "value", value)
	return d.send(ctx, u.ChatID, reply.SettingUpdated.With(map[string]any{"name": cmd.Name, "value": value}))
}

func (d *Dispatcher) handleDocument(ctx context.Context, u Update) error {
	doc := u.Document
	if !strings.HasPrefix(doc.MimeType, "image") {
		return d.send(ctx, u.ChatID, reply.WrongFileType.With(nil))
	}
	job := jobs.Job{
		ID:      fmt.Sprintf("%d/%s", u.ChatID, doc.FileID),
		Timeout: d.opts.JobTimeout,
		Run: func(ctx context.Context) error {
			return d.vectorize(ctx, u.ChatID, u.UserID, *doc)
		},
	}
	if err := d.opts.Jobs.Submit(job); err != nil {
		d.log.Warn("job rejected", "id", job.ID, "err", err)
		if sendErr := d.send(ctx, u.ChatID, failed(doc, err)); sendErr != nil {
			return errors.Join(err, sendErr)
		}
		return err
	}
	return d.send(ctx, u.ChatID, reply.JobAccepted.With(nil))
}

// vectorize 在工作协程中执行：下载、读取设置、转换并回传归档。
func (d *Dispatcher) vectorize(ctx context.Context, chatID, userID int64, doc Document) error {
	data, err := d.opts.Files.Download(ctx, doc.FileID)
	if err != nil {
		return d.fail(ctx, chatID, doc, fmt.Errorf("下载文件失败: %w", err))
	}
	s, err := d.opts.Store.Ensure(ctx, userID)
	if err != nil {
		return d.fail(ctx, chatID, doc, fmt.Errorf("读取设置失败: %w", err))
	}
	archive, err := vectorizer.Convert(data, s.Params(), d.opts.Vectorizer)
	if err != nil {
		return d.fail(ctx, chatID, doc, err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if archive == nil {
		return d.send(ctx, chatID, reply.EmptyResult.With(map[string]any{"file": fileLabel(doc)}))
	}
	name := ArchiveName(d.opts.Now())
	if err := d.opts.Messenger.SendDocument(ctx, chatID, name, archive); err != nil {
		return fmt.Errorf("bot: 发送 %s 失败: %w", name, err)
	}
	return nil
}

func (d *Dispatcher) fail(ctx context.Context, chatID int64, doc Document, err error) error {
	if sendErr := d.send(ctx, chatID, failed(&doc, err)); sendErr != nil {
		return errors.Join(err, sendErr)
	}
	return err
}

func (d *Dispatcher) send(ctx context.Context, chatID int64, msg reply.Message) error {
	if err := d.opts.Messenger.SendText(ctx, chatID, msg.Text, msg.Markdown); err != nil {
		return fmt.Errorf("bot: 发送消息到 %d 失败: %w", chatID, err)
	}
	return nil
}

func failed(doc *Document, err error) reply.Message {
	return reply.Failed.With(map[string]any{"file": fileLabel(*doc), "reason": err.Error()})
}

func fileLabel(doc Document) string {
	if doc.FileName != "" {
		return doc.FileName
	}
	return doc.FileID
}
