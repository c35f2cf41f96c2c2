package sink

import (
	"context"
	"log/slog"
	"testing"

	"direct-chat/domain/event"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

func TestChannelSink_Buffers_Events(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	channelSink := NewChannelSink(log, 2)

	req.NoError(channelSink.Consume(context.Background(), event.UserOnline{UserID: "u1"}))
	req.NoError(channelSink.Consume(context.Background(), event.UserOffline{UserID: "u1"}))

	first := <-channelSink.Events
	second := <-channelSink.Events
	req.IsType(event.UserOnline{}, first)
	req.IsType(event.UserOffline{}, second)
}

func TestChannelSink_Drops_On_Overflow_Without_Blocking(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	channelSink := NewChannelSink(log, 1)

	req.NoError(channelSink.Consume(context.Background(), event.UserOnline{UserID: "kept"}))

	// The buffer is full: the producer returns immediately and the
	// overflow event is lost.
	req.NoError(channelSink.Consume(context.Background(), event.UserOnline{UserID: "dropped"}))

	kept := <-channelSink.Events
	req.Equal(event.UserOnline{UserID: "kept"}, kept)

	select {
	case extra := <-channelSink.Events:
		req.Failf("unexpected event", "buffer should be empty, got %v", extra)
	default:
	}
}

func TestChannelSink_Reports_Cancellation_When_Full(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	channelSink := NewChannelSink(log, 1)

	req.NoError(channelSink.Consume(context.Background(), event.Ping{}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := channelSink.Consume(ctx, event.Ping{})
	req.ErrorIs(err, context.Canceled)
}
