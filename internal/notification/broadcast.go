package notification

import (
	"context"
	"fmt"
	"io"
	"log"
	"slices"
	"time"

	shoutrrr "github.com/nicholas-fedor/shoutrrr"
	router "github.com/nicholas-fedor/shoutrrr/pkg/router"
	stypes "github.com/nicholas-fedor/shoutrrr/pkg/types"

	"github.com/tphakala/wildlife-alert/internal/privacy"
)

// Broadcaster delivers a text-only copy of an alert to extra channels.
type Broadcaster interface {
	Broadcast(ctx context.Context, title, message string) error
}

// ShoutrrrBroadcaster sends via nicholas-fedor/shoutrrr. One router
// serves all configured service URLs.
type ShoutrrrBroadcaster struct {
	urls    []string
	sender  *router.ServiceRouter
	timeout time.Duration
}

// NewShoutrrrBroadcaster builds the sender and validates every URL.
func NewShoutrrrBroadcaster(urls []string, timeout time.Duration) (*ShoutrrrBroadcaster, error) {
	if len(urls) == 0 {
		return nil, fmt.Errorf("at least one URL is required")
	}
	sender, err := shoutrrr.CreateSender(urls...)
	if err != nil {
		// service URLs often embed tokens
		return nil, privacy.WrapError(err)
	}
	if timeout > 0 {
		sender.Timeout = timeout
	}
	sender.SetLogger(log.New(io.Discard, "", 0))

	return &ShoutrrrBroadcaster{
		urls:    slices.Clone(urls),
		sender:  sender,
		timeout: timeout,
	}, nil
}

// Broadcast sends message to every URL and returns the first failure.
func (s *ShoutrrrBroadcaster) Broadcast(ctx context.Context, title, message string) error {
	if s.sender == nil {
		return fmt.Errorf("shoutrrr sender not initialized")
	}
	_ = ctx // router handles its own timeouts

	params := stypes.Params{}
	if title != "" {
		params.SetTitle(title)
	}
	for _, e := range s.sender.Send(message, &params) {
		if e != nil {
			return privacy.WrapError(e)
		}
	}
	return nil
}
