package service

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/spa-booking-bot/internal/config"
	"github.com/iliyamo/spa-booking-bot/internal/metrics"
	"github.com/iliyamo/spa-booking-bot/internal/model"
	"github.com/iliyamo/spa-booking-bot/internal/queue"
	"github.com/iliyamo/spa-booking-bot/internal/utils"
)

// NoticeKind names the booking mutation a notice reports.
type NoticeKind string

const (
	NoticeCreated   NoticeKind = "created"
	NoticeEdited    NoticeKind = "edited"
	NoticeCancelled NoticeKind = "cancelled"
)

// DefaultNoticeTimeout bounds one push call.
const DefaultNoticeTimeout = 30 * time.Second

// Notice is one staff notification.
type Notice struct {
	Kind    NoticeKind
	Booking model.Booking
}

// Notifier delivers notices.  A nil error means delivered, queued or
// deliberately skipped.
type Notifier interface {
	Dispatch(ctx context.Context, n Notice) error
}

// RenderNotice formats the chat text of a notice.  Cancellations carry no
// note line.
func RenderNotice(n Notice, storeName string) string {
	b := n.Booking
	var sb strings.Builder
	switch n.Kind {
	case NoticeEdited:
		sb.WriteString("預約變更通知：\n")
	case NoticeCancelled:
		sb.WriteString("預約取消通知：\n")
	default:
		sb.WriteString("新預約通知：\n")
	}
	fmt.Fprintf(&sb, "日期：%s\n", b.Start.Format("2006/01/02"))
	fmt.Fprintf(&sb, "店家：%s\n", storeName)
	fmt.Fprintf(&sb, "時間：%s (%d分鐘)\n", b.Start.Format("15:04"), b.Minutes)
	fmt.Fprintf(&sb, "客戶：%s\n", b.CustomerName)
	fmt.Fprintf(&sb, "師傅：%s\n", b.StaffName)
	switch n.Kind {
	case NoticeEdited:
		fmt.Fprintf(&sb, "備註:%s\n\n此預約已被修改，請確認變更內容！", b.Note)
	case NoticeCancelled:
		sb.WriteString("\n此預約已被取消！")
	default:
		fmt.Fprintf(&sb, "備註:%s\n\n請確認此預約！", b.Note)
	}
	return sb.String()
}

// LineIDResolver finds the LINE user id bound to a staff member; "" means
// unbound.
type LineIDResolver interface {
	LineUserID(ctx context.Context, staffID int64) (string, error)
}

// NoticePusher sends one notice to a LINE user.
type NoticePusher interface {
	PushNotice(ctx context.Context, to, text, confirmURL string) error
}

// PushDispatcher pushes notices straight to the staff member's LINE chat.
type PushDispatcher struct {
	staff   LineIDResolver
	push    NoticePusher
	stores  *config.StoreDirectory
	links   ConfirmLinks
	timeout time.Duration
	log     *zap.Logger
}

// ConfirmLinks builds signed confirmation links.
type ConfirmLinks struct {
	BaseURL string
	Secret  string
	TTL     time.Duration
}

// URL returns the link that confirms booking id.
func (l ConfirmLinks) URL(id int64) (string, error) {
	if l.BaseURL == "" {
		return "", nil
	}
	ttl := l.TTL
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	tok, err := utils.NewConfirmToken(l.Secret, id, ttl)
	if err != nil {
		return "", err
	}
	return strings.TrimRight(l.BaseURL, "/") + "/confirm?" + url.Values{"token": {tok}}.Encode(), nil
}

func NewPushDispatcher(staff LineIDResolver, push NoticePusher, stores *config.StoreDirectory, links ConfirmLinks, log *zap.Logger) *PushDispatcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &PushDispatcher{staff: staff, push: push, stores: stores, links: links, timeout: DefaultNoticeTimeout, log: log}
}

// Dispatch sends n.  It runs under its own timeout, detached from the
// caller's cancellation, and is never retried.
func (d *PushDispatcher) Dispatch(ctx context.Context, n Notice) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.timeout)
	defer cancel()

	kind := string(n.Kind)
	to, err := d.staff.LineUserID(ctx, n.Booking.StaffID)
	if err != nil {
		metrics.IncNotice(kind, metrics.OutcomeFailed)
		return fmt.Errorf("resolve staff line id: %w", err)
	}
	if to == "" {
		metrics.IncNotice(kind, metrics.OutcomeSkipped)
		d.log.Debug("staff has no line binding; notice skipped", zap.Int64("staff_id", n.Booking.StaffID))
		return nil
	}

	var link string
	if n.Kind != NoticeCancelled {
		if link, err = d.links.URL(n.Booking.ID); err != nil {
			metrics.IncNotice(kind, metrics.OutcomeFailed)
			return fmt.Errorf("confirm link: %w", err)
		}
	}
	if err := d.push.PushNotice(ctx, to, RenderNotice(n, d.stores.Name(n.Booking.StoreID)), link); err != nil {
		metrics.IncNotice(kind, metrics.OutcomeFailed)
		return err
	}
	metrics.IncNotice(kind, metrics.OutcomeSent)
	return nil
}

// NoticePublisher hands notice events to the broker.
type NoticePublisher interface {
	PublishNotice(ctx context.Context, ev queue.NoticeEvent) error
}

// QueueDispatcher defers delivery to cmd/notifier via RabbitMQ.
type QueueDispatcher struct {
	pub NoticePublisher
	now func() time.Time
}

func NewQueueDispatcher(pub NoticePublisher) *QueueDispatcher {
	return &QueueDispatcher{pub: pub, now: time.Now}
}

func (d *QueueDispatcher) Dispatch(ctx context.Context, n Notice) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), DefaultNoticeTimeout)
	defer cancel()
	err := d.pub.PublishNotice(ctx, queue.NoticeEvent{
		Kind:     string(n.Kind),
		Booking:  n.Booking,
		RaisedAt: d.now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		metrics.IncNotice(string(n.Kind), metrics.OutcomeFailed)
		return fmt.Errorf("publish notice: %w", err)
	}
	metrics.IncNotice(string(n.Kind), metrics.OutcomeQueued)
	return nil
}

// NoticeFromEvent rebuilds a notice consumed from the queue.
func NoticeFromEvent(ev queue.NoticeEvent) (Notice, error) {
	switch k := NoticeKind(ev.Kind); k {
	case NoticeCreated, NoticeEdited, NoticeCancelled:
		return Notice{Kind: k, Booking: ev.Booking}, nil
	}
	return Notice{}, fmt.Errorf("%w: notice kind %q", ErrInvalidInput, ev.Kind)
}
