package webchat

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/bizchat/bizchat/pkg/auth"
	"github.com/bizchat/bizchat/pkg/chatstore"
	"github.com/bizchat/bizchat/pkg/prompt"
)

// profileMissingNotice is sent instead of a generated reply while the user
// has no business profile. Nothing is persisted for such messages.
const profileMissingNotice = "Please create a business profile first."

type inboundMessage struct {
	Message string `json:"message"`
}

type outboundReply struct {
	Reply string `json:"reply"`
}

// session is the per-connection state machine. It lives exactly as long as
// the connection; all durable state is in the turn store. The cached profile
// is re-resolved lazily while absent.
type session struct {
	gw       *Gateway
	conn     *websocket.Conn
	identity auth.Identity
	profile  *chatstore.Business
	logger   zerolog.Logger
}

// run drives the Active state: one inbound payload at a time, no pipelining.
// It returns when the peer disconnects or an internal fault closes the
// session.
func (s *session) run(ctx context.Context) {
	if p, err := s.gw.profiles.BusinessByUser(ctx, s.identity.UserID); err == nil {
		s.profile = p
	} else {
		s.logger.Warn().Err(err).Msg("initial profile lookup failed")
	}

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) {
				s.logger.Info().Msg("peer disconnected")
			} else {
				s.logger.Info().Err(err).Msg("read failed, closing session")
			}
			_ = s.conn.Close()
			return
		}
		if err := s.handleMessage(ctx, data); err != nil {
			s.logger.Error().Err(err).Msg("internal fault in message loop")
			closeWith(s.conn, websocket.CloseInternalServerErr, "internal error")
			return
		}
	}
}

// handleMessage processes one inbound payload end to end. Only internal
// faults return an error; malformed input, a missing profile and provider
// soft-failures are absorbed here and the loop continues.
func (s *session) handleMessage(ctx context.Context, data []byte) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("webchat: panic in message handler: %v", r)
		}
	}()

	in := inboundMessage{}
	if jsonErr := json.Unmarshal(data, &in); jsonErr != nil || strings.TrimSpace(in.Message) == "" {
		s.logger.Debug().Msg("dropping malformed payload")
		return nil
	}

	// profile may have been created in another session since the last look
	if s.profile == nil {
		p, lookupErr := s.gw.profiles.BusinessByUser(ctx, s.identity.UserID)
		if lookupErr != nil {
			return errors.Wrap(lookupErr, "webchat: profile lookup")
		}
		if p == nil {
			return s.send(outboundReply{Reply: profileMissingNotice})
		}
		s.profile = p
	}

	// persist the user turn before generating, so it survives provider failure
	userTurn, appendErr := s.gw.store.AppendTurn(ctx, s.identity.UserID, chatstore.RoleUser, in.Message)
	if appendErr != nil {
		return errors.Wrap(appendErr, "webchat: append user turn")
	}

	history, histErr := s.gw.store.RecentTurns(ctx, s.identity.UserID, s.gw.window)
	if histErr != nil {
		return errors.Wrap(histErr, "webchat: load history")
	}
	// the new message is appended explicitly by the assembler; keep it out of
	// the history slice
	trimmed := history[:0:0]
	for _, turn := range history {
		if turn.ID == userTurn.ID {
			continue
		}
		trimmed = append(trimmed, turn)
	}

	messages := prompt.Assemble(s.profile, trimmed, in.Message)
	reply := s.gw.engine.Generate(ctx, messages)

	// provider soft-failure text is valid assistant content
	if _, appendErr := s.gw.store.AppendTurn(ctx, s.identity.UserID, chatstore.RoleAssistant, reply); appendErr != nil {
		return errors.Wrap(appendErr, "webchat: append assistant turn")
	}

	return s.send(outboundReply{Reply: reply})
}

func (s *session) send(out outboundReply) error {
	if err := s.conn.WriteJSON(out); err != nil {
		// the peer is gone; the read loop will observe it next iteration
		s.logger.Warn().Err(err).Msg("reply write failed")
	}
	return nil
}
