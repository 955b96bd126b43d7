// Package notification sends alert photos to a Telegram chat and copies
// the caption to optional extra channels.
package notification

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/time/rate"

	"github.com/tphakala/wildlife-alert/internal/errors"
	"github.com/tphakala/wildlife-alert/internal/httpclient"
	"github.com/tphakala/wildlife-alert/internal/logger"
	"github.com/tphakala/wildlife-alert/internal/observability/metrics"
	"github.com/tphakala/wildlife-alert/internal/privacy"
)

// DefaultAPIBase is the public Telegram Bot API endpoint.
const DefaultAPIBase = "https://api.telegram.org"

// DefaultTimeout bounds one sendPhoto request when Config.Timeout is unset.
const DefaultTimeout = 30 * time.Second

const (
	// maxCaptionRunes is Telegram's photo caption limit.
	maxCaptionRunes = 1024
	broadcastTitle  = "Wildlife alert"
	componentName   = "notification"
)

// Telegram allows about one message per second per chat.
const (
	defaultSendInterval = time.Second
	defaultSendBurst    = 5
)

// Config holds bot credentials and delivery settings.
type Config struct {
	BotToken  string
	ChatID    string
	APIBase   string
	Timeout   time.Duration
	ExtraURLs []string
}

// Observer receives delivery outcomes. *metrics.NotificationMetrics
// implements it.
type Observer interface {
	RecordNotification(result string, duration time.Duration)
	RecordBroadcast(status string)
	RecordAPIResponse(code string)
}

// Option customizes a TelegramNotifier.
type Option func(*TelegramNotifier)

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(c *httpclient.Client) Option {
	return func(n *TelegramNotifier) { n.client = c }
}

// WithObserver reports outcomes to o.
func WithObserver(o Observer) Option {
	return func(n *TelegramNotifier) { n.observer = o }
}

// WithBroadcaster replaces the broadcaster built from Config.ExtraURLs.
func WithBroadcaster(b Broadcaster) Option {
	return func(n *TelegramNotifier) { n.broadcaster = b }
}

// WithRateLimit caps sends to r per second with the given burst.
func WithRateLimit(r rate.Limit, burst int) Option {
	return func(n *TelegramNotifier) { n.limiter = rate.NewLimiter(r, burst) }
}

// TelegramNotifier sends one photo message per alert through the Bot API.
// Without a token or chat id it is disabled and SendAlert only logs.
type TelegramNotifier struct {
	token       string
	chatID      string
	apiBase     string
	enabled     bool
	client      *httpclient.Client
	broadcaster Broadcaster
	observer    Observer
	limiter     *rate.Limiter
	logger      logger.Logger
}

// New creates a notifier. Missing credentials yield a disabled notifier,
// never an error.
func New(cfg Config, log logger.Logger, opts ...Option) *TelegramNotifier {
	if log == nil {
		log = logger.NewSlogLogger(nil, logger.LogLevelInfo, nil)
	}
	if cfg.APIBase == "" {
		cfg.APIBase = DefaultAPIBase
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	n := &TelegramNotifier{
		token:   cfg.BotToken,
		chatID:  cfg.ChatID,
		apiBase: strings.TrimRight(cfg.APIBase, "/"),
		enabled: cfg.BotToken != "" && cfg.ChatID != "",
		limiter: rate.NewLimiter(rate.Every(defaultSendInterval), defaultSendBurst),
		logger:  log.Module(componentName),
	}
	for _, opt := range opts {
		opt(n)
	}
	if n.client == nil {
		n.client = httpclient.New(&httpclient.Config{DefaultTimeout: cfg.Timeout})
	}
	if n.observer != nil {
		n.client.SetAfterResponseHook(n.observeResponse)
	}

	if n.broadcaster == nil && len(cfg.ExtraURLs) > 0 {
		b, err := NewShoutrrrBroadcaster(cfg.ExtraURLs, cfg.Timeout)
		if err != nil {
			n.logger.Warn("extra notification channels disabled", logger.Error(err))
		} else {
			n.broadcaster = b
			n.logger.Info("extra notification channels configured", logger.Int("count", len(cfg.ExtraURLs)))
		}
	}

	if !n.enabled {
		n.logger.Warn("telegram credentials missing, alert notifications disabled")
	}
	return n
}

// Enabled reports whether Telegram credentials are configured.
func (n *TelegramNotifier) Enabled() bool {
	return n.enabled
}

// FormatCaption builds the alert caption. extra is appended on its own
// line when not empty.
func FormatCaption(label, timestamp, extra string) string {
	caption := "[ALERT] " + label + " detected at " + timestamp
	if extra != "" {
		caption += "\n" + extra
	}
	return caption
}

// SendAlert posts imagePath with the alert caption and reports whether
// Telegram accepted it. Failures are logged, never returned, and no send
// is retried.
func (n *TelegramNotifier) SendAlert(ctx context.Context, label, timestamp, imagePath, extraMessage string) bool {
	log := n.logger.WithContext(ctx).With(logger.String("label", label))
	caption := FormatCaption(label, timestamp, extraMessage)
	defer n.broadcast(ctx, log, caption)

	if !n.enabled {
		log.Warn("telegram not configured, alert not sent")
		n.observe(metrics.ResultDisabled, 0)
		return false
	}

	start := time.Now()
	if err := n.limiter.Wait(ctx); err != nil {
		log.Error("telegram alert not sent", logger.Error(err))
		n.observe(metrics.ResultFailed, time.Since(start))
		return false
	}
	err := n.sendPhoto(ctx, imagePath, truncateCaption(caption))
	if err != nil {
		log.Error("failed to send telegram alert", logger.Error(err))
		n.observe(metrics.ResultFailed, time.Since(start))
		return false
	}

	log.Info("telegram alert sent", logger.Duration("duration", time.Since(start)))
	n.observe(metrics.ResultSent, time.Since(start))
	return true
}

func (n *TelegramNotifier) sendPhoto(ctx context.Context, imagePath, caption string) error {
	f, err := os.Open(imagePath)
	if err != nil {
		return errors.New(err).
			Component(componentName).
			Category(errors.CategoryFileIO).
			Context("operation", "open_image").
			Build()
	}
	defer func() { _ = f.Close() }()

	contentType := "application/octet-stream"
	if mt, err := mimetype.DetectFile(imagePath); err == nil {
		contentType = mt.String()
	}

	resp, err := n.client.PostMultipart(ctx, n.endpoint("sendPhoto"),
		map[string]string{
			"chat_id": n.chatID,
			"caption": caption,
		},
		&httpclient.FilePart{
			FieldName:   "photo",
			FileName:    filepath.Base(imagePath),
			ContentType: contentType,
			Content:     f,
		})
	if err != nil {
		return errors.New(privacy.WrapError(err, n.token)).
			Component(componentName).
			Category(errors.CategoryNotification).
			Context("operation", "send_photo").
			Build()
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		statusErr := httpclient.CheckStatus(resp)
		if statusErr == nil {
			statusErr = &httpclient.StatusError{StatusCode: resp.StatusCode}
		}
		return errors.New(privacy.WrapError(statusErr, n.token)).
			Component(componentName).
			Category(errors.CategoryNotification).
			Context("operation", "send_photo").
			Context("status_code", resp.StatusCode).
			Build()
	}
	return nil
}

func (n *TelegramNotifier) endpoint(method string) string {
	return n.apiBase + "/bot" + n.token + "/" + method
}

func (n *TelegramNotifier) broadcast(ctx context.Context, log logger.Logger, caption string) {
	if n.broadcaster == nil {
		return
	}
	if err := n.broadcaster.Broadcast(ctx, broadcastTitle, caption); err != nil {
		log.Warn("extra channel broadcast failed", logger.Error(err))
		n.observeBroadcast(metrics.StatusError)
		return
	}
	log.Debug("extra channel broadcast sent")
	n.observeBroadcast(metrics.StatusSuccess)
}

func (n *TelegramNotifier) observe(result string, d time.Duration) {
	if n.observer != nil {
		n.observer.RecordNotification(result, d)
	}
}

func (n *TelegramNotifier) observeBroadcast(status string) {
	if n.observer != nil {
		n.observer.RecordBroadcast(status)
	}
}

func (n *TelegramNotifier) observeResponse(_ *http.Request, resp *http.Response, err error) {
	code := metrics.CodeTransportError
	if err == nil && resp != nil {
		code = strconv.Itoa(resp.StatusCode)
	}
	n.observer.RecordAPIResponse(code)
}

func truncateCaption(caption string) string {
	if utf8.RuneCountInString(caption) <= maxCaptionRunes {
		return caption
	}
	runes := []rune(caption)
	return string(runes[:maxCaptionRunes-1]) + "…"
}
