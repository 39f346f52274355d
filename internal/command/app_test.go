package command

import (
	"io"
	"log/slog"

	"kvserver/internal/kvstore"
	"kvserver/internal/protocol"
	"kvserver/internal/server"
)

// newTestApp builds an Application backed by a fresh in-memory store and a
// discard logger, centralizing the setup every handler test needs.
func newTestApp() *Application {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewApplication(kvstore.New(0), &server.Metrics{}, logger, "")
}

func newReplyWriter() *protocol.ReplyWriter {
	return &protocol.ReplyWriter{}
}
