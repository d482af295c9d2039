// Package notify formats build-advance events and delivers them through an
// injected chat transport, recovering from rate limits and oversize
// payloads inline.
package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/galaxyhub/firmtrack/internal/telemetry"
	"github.com/galaxyhub/firmtrack/internal/tracker"
)

const (
	// maxMessageLen is the transport's hard text limit; truncated resends
	// stay under it with room for the ellipsis.
	maxMessageLen = 4096
	truncationTag = "…"

	dateLayout = "2006-01-02"
)

// Config carries the URLs embedded into notification messages.
type Config struct {
	FirmwareDownloadBase string
	KernelSearchBase     string
}

// Notifier emits one message per confirmed build advance and operational
// alerts through a secondary, lower-guarantee channel.
type Notifier struct {
	sender tracker.Sender
	alerts tracker.Sender
	cfg    Config
	logger *zap.Logger

	// sleep is swapped out in tests.
	sleep func(time.Duration)
}

// New constructs a Notifier. alerts may be nil, in which case operational
// alerts only reach the log.
func New(sender tracker.Sender, alerts tracker.Sender, cfg Config, logger *zap.Logger) *Notifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Notifier{
		sender: sender,
		alerts: alerts,
		cfg:    cfg,
		logger: logger,
		sleep:  time.Sleep,
	}
}

// FirmwareAdvance formats and sends the firmware update message.
func (n *Notifier) FirmwareAdvance(ctx context.Context, fw tracker.FirmwareInfo) error {
	text := fmt.Sprintf(
		"New firmware update available\n\n"+
			"Device: %s\n"+
			"Model: %s\n"+
			"OS Version: %s\n"+
			"PDA Version: %s\n"+
			"Release Date: %s\n"+
			"Security Patch Level: %s\n\n"+
			"Changelog:\n%s",
		fw.Name,
		fw.Model,
		fw.OSVersion,
		fw.PDA,
		fw.BuildDate.Format(dateLayout),
		fw.SecurityPatch.Format(dateLayout),
		fw.Changelog,
	)
	return n.deliver(ctx, tracker.Message{
		Text:       text,
		ButtonText: "Download",
		ButtonURL:  fw.DownloadURL(n.cfg.FirmwareDownloadBase),
	})
}

// KernelAdvance formats and sends the kernel source update message.
func (n *Notifier) KernelAdvance(ctx context.Context, k tracker.KernelInfo) error {
	text := fmt.Sprintf(
		"New kernel source available\n\n"+
			"Model: %s\n"+
			"PDA Version: %s",
		k.Model,
		k.PDA,
	)
	if k.PatchKernel != "" {
		text += fmt.Sprintf("\nBase Kernel: %s", k.PatchKernel)
	}
	return n.deliver(ctx, tracker.Message{
		Text:       text,
		ButtonText: "Source",
		ButtonURL:  fmt.Sprintf("%s/uploadSearch?searchValue=%s", strings.TrimRight(n.cfg.KernelSearchBase, "/"), k.Model),
	})
}

// Alert reports an operational condition through the secondary channel.
// Delivery is best effort and never propagates an error.
func (n *Notifier) Alert(ctx context.Context, text string) {
	n.logger.Warn("operational alert", zap.String("text", text))
	if n.alerts == nil {
		return
	}
	if err := n.alerts.Send(ctx, tracker.Message{Text: text}); err != nil {
		n.logger.Error("alert delivery failed", zap.Error(err))
	}
}

// deliver sends one message, recovering inline from a rate-limit signal
// (sleep the indicated duration, retry exactly once) and from an oversize
// payload (truncate and resend). Any other transport failure is logged,
// alerted, and returned without aborting the synchronization pass.
func (n *Notifier) deliver(ctx context.Context, msg tracker.Message) error {
	err := n.sender.Send(ctx, msg)

	var rateLimited *RateLimitedError
	if errors.As(err, &rateLimited) {
		n.logger.Info("transport rate limited",
			zap.Duration("retry_after", rateLimited.RetryAfter),
		)
		n.sleep(rateLimited.RetryAfter)
		err = n.sender.Send(ctx, msg)
	}

	var tooLong *MessageTooLongError
	if errors.As(err, &tooLong) {
		limit := tooLong.Limit
		if limit <= 0 || limit > maxMessageLen {
			limit = maxMessageLen
		}
		msg.Text = truncate(msg.Text, limit)
		err = n.sender.Send(ctx, msg)
	}

	if err != nil {
		telemetry.CountNotification("error")
		n.logger.Error("notification delivery failed", zap.Error(err))
		n.Alert(ctx, fmt.Sprintf("notification delivery failed: %v", err))
		return fmt.Errorf("deliver notification: %w", err)
	}
	telemetry.CountNotification("ok")
	return nil
}

func truncate(text string, limit int) string {
	if len(text) <= limit {
		return text
	}
	cut := limit - len(truncationTag)
	// Do not split a multi-byte rune at the cut point.
	for cut > 0 && !utf8RuneStart(text[cut]) {
		cut--
	}
	return text[:cut] + truncationTag
}

func utf8RuneStart(b byte) bool {
	return b&0xC0 != 0x80
}

// Discard is a Sender that drops messages, used when no transport is
// configured.
type Discard struct{}

// Send implements tracker.Sender.
func (Discard) Send(context.Context, tracker.Message) error { return nil }
