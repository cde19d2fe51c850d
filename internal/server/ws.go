package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/LBKdotdev/the-scoop/internal/observe"
	"github.com/LBKdotdev/the-scoop/internal/voice"
	"github.com/LBKdotdev/the-scoop/internal/voice/session"
)

// clientMessage is the inbound websocket envelope. Type selects the action;
// the remaining fields apply to a subset of types.
type clientMessage struct {
	Type string `json:"type"`

	// Text and IsFinal accompany "transcript". Interim transcripts
	// (IsFinal false) are ignored so partial speech never triggers a parse.
	Text    string `json:"text,omitempty"`
	IsFinal bool   `json:"is_final,omitempty"`

	// Index accompanies "remove" and names the pending entry to drop.
	Index int `json:"index,omitempty"`
}

// serverMessage is the outbound websocket envelope.
type serverMessage struct {
	Type string `json:"type"`

	Transcript string        `json:"transcript,omitempty"`
	Entries    []voice.Entry `json:"entries,omitempty"`
	Confidence float64       `json:"confidence,omitempty"`
	Auto       bool          `json:"auto,omitempty"`
	Boosted    bool          `json:"boosted,omitempty"`

	Updates  []session.Change  `json:"updates,omitempty"`
	Failures []session.Failure `json:"failures,omitempty"`

	Undone  bool             `json:"undone,omitempty"`
	Changes []session.Change `json:"changes,omitempty"`

	Suggestions []string `json:"suggestions,omitempty"`
	Message     string   `json:"message,omitempty"`
}

// handleVoiceSession upgrades the request to a websocket and runs one
// voice-entry session over it. Each connection gets its own engine seeded
// with the active flavor catalog, so a flavor added mid-session becomes
// visible on the next connection.
func (s *Server) handleVoiceSession(w http.ResponseWriter, r *http.Request) {
	flavors, err := s.catalog.List(r.Context(), true)
	if err != nil {
		writeError(w, err)
		return
	}

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket accept failed", "error", err)
		return
	}
	defer conn.Close(websocket.StatusInternalError, "session aborted")

	ctx := r.Context()
	s.metrics.ActiveSessions.Add(ctx, 1)
	defer s.metrics.ActiveSessions.Add(context.WithoutCancel(ctx), -1)

	opts := []session.Option{session.WithLogger(s.logger)}
	if s.booster != nil {
		opts = append(opts, session.WithBooster(s.booster))
	}
	engine := session.New(flavors, opts...)

	s.logger.Info("voice session opened", "flavors", len(flavors))
	s.runSession(ctx, conn, engine)
}

// runSession is the per-connection read loop. It returns when the client
// disconnects or says stop.
func (s *Server) runSession(ctx context.Context, conn *websocket.Conn, engine *session.Engine) {
	for {
		var msg clientMessage
		if err := wsjson.Read(ctx, conn, &msg); err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
				s.logger.Info("voice session closed by client")
			} else if ctx.Err() == nil {
				s.logger.Warn("voice session read failed", "error", err)
			}
			return
		}

		var reply *serverMessage
		switch msg.Type {
		case "transcript":
			reply = s.handleTranscript(ctx, engine, msg)
		case "confirm":
			reply = s.handleConfirm(ctx, engine)
		case "remove":
			reply = s.handleRemove(engine, msg.Index)
		case "undo":
			reply = s.handleUndo(ctx, engine)
		case "stop":
			engine.Stop()
			conn.Close(websocket.StatusNormalClosure, "session stopped")
			return
		default:
			reply = &serverMessage{Type: "error", Message: "unknown message type: " + msg.Type}
		}

		if reply == nil {
			continue
		}
		if err := wsjson.Write(ctx, conn, reply); err != nil {
			s.logger.Warn("voice session write failed", "error", err)
			return
		}
		if reply.Type == "stopped" {
			conn.Close(websocket.StatusNormalClosure, "session stopped")
			return
		}
	}
}

func (s *Server) handleTranscript(ctx context.Context, engine *session.Engine, msg clientMessage) *serverMessage {
	if !msg.IsFinal || msg.Text == "" {
		return nil
	}

	start := time.Now()
	outcome, err := engine.Interpret(ctx, msg.Text)
	s.metrics.ParseDuration.Record(ctx, time.Since(start).Seconds())
	if err != nil {
		switch {
		case errors.Is(err, session.ErrStopped):
			return &serverMessage{Type: "stopped"}
		case errors.Is(err, session.ErrNoPending):
			return &serverMessage{Type: "error", Message: "nothing to submit"}
		default:
			s.logger.Error("interpret failed", "error", err)
			return &serverMessage{Type: "error", Message: "could not interpret transcript"}
		}
	}

	switch outcome.Status {
	case session.StatusPending:
		route := "confirm"
		if outcome.Auto {
			route = "auto"
		}
		if outcome.Boosted {
			route = "boosted"
		}
		s.metrics.RecordParseOutcome(ctx, route)
		return &serverMessage{
			Type:       "confirmation_request",
			Transcript: outcome.Result.RawTranscript,
			Entries:    outcome.Result.Entries,
			Confidence: outcome.Result.Confidence,
			Auto:       outcome.Auto,
			Boosted:    outcome.Boosted,
		}

	case session.StatusApplied:
		s.metrics.RecordParseOutcome(ctx, "command")
		s.recordApplied(ctx, outcome.Result.Entries, outcome.Applied)
		return appliedMessage(outcome.Applied)

	case session.StatusRejected:
		s.metrics.RecordParseOutcome(ctx, "rejected")
		return &serverMessage{
			Type:        "rejected",
			Transcript:  msg.Text,
			Suggestions: outcome.Suggestions,
			Message:     "could not understand the entry",
		}

	case session.StatusCommand:
		s.metrics.RecordParseOutcome(ctx, "command")
		switch outcome.Command {
		case voice.CommandUndo:
			return undoMessage(ctx, s.metrics, outcome.Undone, len(outcome.Undone) > 0)
		case voice.CommandStop:
			return &serverMessage{Type: "stopped"}
		}
	}
	return nil
}

func (s *Server) handleConfirm(ctx context.Context, engine *session.Engine) *serverMessage {
	pending := engine.Pending()
	report, err := engine.Commit()
	if err != nil {
		if errors.Is(err, session.ErrNoPending) {
			return &serverMessage{Type: "error", Message: "nothing to confirm"}
		}
		s.logger.Error("commit failed", "error", err)
		return &serverMessage{Type: "error", Message: "could not apply entries"}
	}
	if pending != nil {
		s.recordApplied(ctx, pending.Entries, &report)
	}
	return appliedMessage(&report)
}

func (s *Server) handleRemove(engine *session.Engine, index int) *serverMessage {
	if err := engine.RemoveEntry(index); err != nil {
		return &serverMessage{Type: "error", Message: err.Error()}
	}
	pending := engine.Pending()
	if pending == nil {
		// Removing the last entry discards the pending result.
		return &serverMessage{Type: "confirmation_request"}
	}
	return &serverMessage{
		Type:       "confirmation_request",
		Transcript: pending.RawTranscript,
		Entries:    pending.Entries,
		Confidence: pending.Confidence,
	}
}

func (s *Server) handleUndo(ctx context.Context, engine *session.Engine) *serverMessage {
	changes, ok := engine.Undo()
	return undoMessage(ctx, s.metrics, changes, ok)
}

// recordApplied emits one applied-entry metric per successful update. Soft
// failures are not counted.
func (s *Server) recordApplied(ctx context.Context, entries []voice.Entry, report *session.ApplyReport) {
	if report == nil {
		return
	}
	failed := make(map[session.Key]bool, len(report.Failures))
	for _, f := range report.Failures {
		failed[session.Key{FlavorID: f.Entry.FlavorID, Type: f.Entry.Type}] = true
	}
	for _, e := range entries {
		if failed[session.Key{FlavorID: e.FlavorID, Type: e.Type}] {
			continue
		}
		s.metrics.RecordAppliedEntry(ctx, string(e.Type), string(e.Action))
	}
}

func appliedMessage(report *session.ApplyReport) *serverMessage {
	msg := &serverMessage{Type: "applied"}
	if report != nil {
		msg.Updates = report.Updates
		msg.Failures = report.Failures
	}
	return msg
}

func undoMessage(ctx context.Context, m *observe.Metrics, changes []session.Change, ok bool) *serverMessage {
	status := "undone"
	if !ok {
		status = "empty"
	}
	m.RecordUndo(ctx, status)
	return &serverMessage{Type: "undo_result", Undone: ok, Changes: changes}
}
