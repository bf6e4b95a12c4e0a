package handler

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"strings"

	"text-summarizer-app/internal/modules/summary/view"
)

// SessionCookieName 画面セッションのCookie名
const SessionCookieName = "summarizer_session"

// maxFormBytes フォーム入力の上限
const maxFormBytes = 1 << 20

//go:embed templates/*.html
var templateFS embed.FS

// SessionStore WebHandlerが使うセッションストア
type SessionStore interface {
	Get(id string) (*view.Session, bool)
	GetOrCreate(id string) (*view.Session, bool)
}

// WebHandler Web UIのハンドラー
type WebHandler struct {
	store     SessionStore
	templates *template.Template
	logger    *slog.Logger
	secure    bool
}

// NewWebHandler 新しいWebHandlerを作成（loggerがnilならslog.Default）
func NewWebHandler(store SessionStore, logger *slog.Logger) (*WebHandler, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &WebHandler{
		store:     store,
		templates: tmpl,
		logger:    logger,
	}, nil
}

// SetSecureCookie HTTPS配信時にCookieへSecure属性を付ける
func (h *WebHandler) SetSecureCookie(secure bool) {
	h.secure = secure
}

// pageData テンプレートに渡す値
type pageData struct {
	Title string
	View  view.Snapshot
}

// HandleIndex 要約画面を表示
func (h *WebHandler) HandleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	data := pageData{
		Title: "Text Summary Generator",
		View:  h.snapshot(r),
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.templates.ExecuteTemplate(w, "index.html", data); err != nil {
		h.logger.ErrorContext(r.Context(), "Failed to render template", "error", err)
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
		return
	}
}

// InputResponse 入力更新のレスポンス
type InputResponse struct {
	CharCount int  `json:"char_count"`
	CanSubmit bool `json:"can_submit"`
	ShowClear bool `json:"show_clear"`
}

// HandleInput キー入力ごとの入力値を保存
func (h *WebHandler) HandleInput(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	text, ok := readText(w, r)
	if !ok {
		return
	}

	session := h.sessionOrCreate(w, r)
	session.SetInput(text)
	snap := session.Snapshot()

	writeJSON(w, http.StatusOK, InputResponse{
		CharCount: snap.CharCount,
		CanSubmit: snap.CanSubmit,
		ShowClear: snap.ShowClear,
	})
}

// HandleSummarize 入力を保存して要約を開始
func (h *WebHandler) HandleSummarize(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	text, ok := readText(w, r)
	if !ok {
		return
	}

	session := h.sessionOrCreate(w, r)
	session.SetInput(text)

	if err := session.Submit(r.Context()); err != nil {
		// 送信不可の場合は何もせず画面に戻す
		h.logger.DebugContext(r.Context(), "Submit ignored", "session", session.ID(), "reason", err)
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// HandleClear 入力と要約をクリア
func (h *WebHandler) HandleClear(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if session, ok := h.session(r); ok {
		session.Clear()
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// CopyResponse コピーのレスポンス（textをブラウザがクリップボードへ書き込む）
type CopyResponse struct {
	Text   string `json:"text"`
	Copied bool   `json:"copied"`
}

// HandleCopy 要約をコピー
func (h *WebHandler) HandleCopy(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	session, ok := h.session(r)
	if !ok {
		writeJSON(w, http.StatusConflict, CopyResponse{})
		return
	}
	cb := &responseClipboard{}

	if err := session.Copy(r.Context(), cb); err != nil {
		if errors.Is(err, view.ErrNothingToCopy) {
			writeJSON(w, http.StatusConflict, CopyResponse{})
			return
		}
		h.logger.ErrorContext(r.Context(), "Copy failed", "session", session.ID(), "error", err)
		writeJSON(w, http.StatusInternalServerError, CopyResponse{})
		return
	}

	writeJSON(w, http.StatusOK, CopyResponse{Text: cb.text, Copied: true})
}

// HandleState 現在の画面状態をJSONで返す
func (h *WebHandler) HandleState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	writeJSON(w, http.StatusOK, h.snapshot(r))
}

// snapshot セッションが無ければ初期画面を返す（参照だけではセッションを作らない）
func (h *WebHandler) snapshot(r *http.Request) view.Snapshot {
	if session, ok := h.session(r); ok {
		return session.Snapshot()
	}
	return view.IdleSnapshot()
}

// session Cookieに対応する既存セッション
func (h *WebHandler) session(r *http.Request) (*view.Session, bool) {
	c, err := r.Cookie(SessionCookieName)
	if err != nil {
		return nil, false
	}
	return h.store.Get(c.Value)
}

// sessionOrCreate 既存セッションを取得し、無ければ作成してCookieを発行
func (h *WebHandler) sessionOrCreate(w http.ResponseWriter, r *http.Request) *view.Session {
	id := ""
	if c, err := r.Cookie(SessionCookieName); err == nil {
		id = c.Value
	}

	session, created := h.store.GetOrCreate(id)
	if created {
		http.SetCookie(w, &http.Cookie{
			Name:     SessionCookieName,
			Value:    session.ID(),
			Path:     "/",
			HttpOnly: true,
			Secure:   h.secure,
			SameSite: http.SameSiteLaxMode,
		})
	}
	return session
}

// responseClipboard コピー内容をレスポンスで返すためのClipboard
type responseClipboard struct {
	text string
}

func (c *responseClipboard) WriteText(_ context.Context, text string) error {
	c.text = text
	return nil
}

func readText(w http.ResponseWriter, r *http.Request) (string, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Failed to parse form", http.StatusBadRequest)
		return "", false
	}
	// フォーム送信ではtextareaの改行がCRLFになるためLFに揃える
	return strings.ReplaceAll(r.PostFormValue("text"), "\r\n", "\n"), true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
