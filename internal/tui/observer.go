package tui

import "github.com/mmcdole/trackctl/internal/query"

// ChannelObserver adapts query.Observer to a channel for Bubble Tea.
type ChannelObserver struct {
	ch chan<- query.Update
}

// NewChannelObserver creates a new channel-based observer.
func NewChannelObserver(ch chan<- query.Update) *ChannelObserver {
	return &ChannelObserver{ch: ch}
}

// OnUpdate sends the update to the channel (non-blocking if full).
func (o *ChannelObserver) OnUpdate(u query.Update) {
	select {
	case o.ch <- u:
	default: // Non-blocking if channel full
	}
}
