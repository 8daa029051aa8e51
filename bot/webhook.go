package bot

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/ByLCY/vectorizer/vectorizer"
)

// SecretHeader carries the secret_token passed to setWebhook.
const SecretHeader = "X-Telegram-Bot-Api-Secret-Token"

const maxUpdateSize = 1 << 20

// 以下类型只声明用到的字段。
type wireUpdate struct {
	UpdateID      int64        `json:"update_id"`
	Message       *wireMessage `json:"message"`
	EditedMessage *wireMessage `json:"edited_message"`
}

type wireMessage struct {
	From *struct {
		ID        int64  `json:"id"`
		FirstName string `json:"first_name"`
	} `json:"from"`
	Chat struct {
		ID int64 `json:"id"`
	} `json:"chat"`
	Text     string `json:"text"`
	Document *struct {
		FileID   string `json:"file_id"`
		FileName string `json:"file_name"`
		MimeType string `json:"mime_type"`
	} `json:"document"`
}

// DecodeUpdate reads one webhook payload. It uses message and falls back to
// edited_message; ok is false when the payload carries neither.
func DecodeUpdate(r io.Reader) (u Update, ok bool, err error) {
	var w wireUpdate
	if err := json.NewDecoder(r).Decode(&w); err != nil {
		return Update{}, false, fmt.Errorf("bot: 解析 update 失败: %w", err)
	}
	m := w.Message
	if m == nil {
		m = w.EditedMessage
	}
	if m == nil {
		return Update{}, false, nil
	}
	u = Update{ChatID: m.Chat.ID, Text: m.Text}
	if m.From != nil {
		u.UserID = m.From.ID
		u.FirstName = m.From.FirstName
	}
	if m.Document != nil {
		u.Document = &Document{
			FileID:   m.Document.FileID,
			FileName: m.Document.FileName,
			MimeType: m.Document.MimeType,
		}
	}
	return u, true, nil
}

// WebhookOptions configures NewWebhook.
type WebhookOptions struct {
	Secret string // 非空时要求请求头 SecretHeader 与之相同
	Logger *slog.Logger
}

type webhook struct {
	d      *Dispatcher
	secret string
	log    *slog.Logger
}

// NewWebhook returns an http.Handler that feeds Telegram webhook updates to d.
// Updates are acknowledged with {"success": true|false}; handling errors are
// logged but never turned into a non-2xx status so Telegram does not redeliver.
func NewWebhook(d *Dispatcher, opts WebhookOptions) http.Handler {
	log := opts.Logger
	if log == nil {
		log = vectorizer.Logger()
	}
	return &webhook{d: d, secret: opts.Secret, log: log}
}

func (h *webhook) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if h.secret != "" && r.Header.Get(SecretHeader) != h.secret {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}
	u, ok, err := DecodeUpdate(http.MaxBytesReader(w, r.Body, maxUpdateSize))
	if err != nil {
		h.log.Warn("bad webhook payload", "err", err)
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	success := true
	if ok {
		if err := h.d.Handle(r.Context(), u); err != nil {
			h.log.Error("update failed", "chat", u.ChatID, "err", err)
			success = false
		}
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]bool{"success": success})
}
