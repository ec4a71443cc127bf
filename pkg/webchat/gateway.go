package webchat

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/bizchat/bizchat/pkg/auth"
	"github.com/bizchat/bizchat/pkg/chatstore"
	"github.com/bizchat/bizchat/pkg/inference"
)

// TokenVerifier authenticates the bearer token presented at connect time.
type TokenVerifier interface {
	VerifyToken(ctx context.Context, token string) (auth.Identity, error)
}

// TurnStore is the append-only conversation log the gateway reads and writes.
type TurnStore interface {
	AppendTurn(ctx context.Context, userID int64, role, content string) (*chatstore.Turn, error)
	RecentTurns(ctx context.Context, userID int64, limit int) ([]chatstore.Turn, error)
}

// ProfileProvider resolves a user's business profile; nil means absent.
type ProfileProvider interface {
	BusinessByUser(ctx context.Context, userID int64) (*chatstore.Business, error)
}

// Gateway owns the websocket chat endpoint. Each accepted connection gets one
// session goroutine that processes inbound payloads strictly one at a time;
// sessions share no state except through the turn store.
type Gateway struct {
	verifier TokenVerifier
	store    TurnStore
	profiles ProfileProvider
	engine   inference.Client
	window   int
	upgrader websocket.Upgrader
}

func NewGateway(verifier TokenVerifier, store TurnStore, profiles ProfileProvider, engine inference.Client, historyWindow int) (*Gateway, error) {
	if verifier == nil {
		return nil, errors.New("webchat: nil verifier")
	}
	if store == nil {
		return nil, errors.New("webchat: nil turn store")
	}
	if profiles == nil {
		return nil, errors.New("webchat: nil profile provider")
	}
	if engine == nil {
		return nil, errors.New("webchat: nil completion client")
	}
	if historyWindow <= 0 {
		historyWindow = 10
	}
	return &Gateway{
		verifier: verifier,
		store:    store,
		profiles: profiles,
		engine:   engine,
		window:   historyWindow,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(_ *http.Request) bool { return true },
		},
	}, nil
}

// HandleWS upgrades the connection and runs the session loop. The handshake
// is accepted before the token is validated so the peer always receives a
// structured close frame instead of a raw reset.
func (g *Gateway) HandleWS(w http.ResponseWriter, req *http.Request) {
	token := req.URL.Query().Get("token")

	conn, err := g.upgrader.Upgrade(w, req, nil)
	if err != nil {
		log.Warn().Err(err).Str("component", "webchat").Msg("websocket upgrade failed")
		return
	}

	logger := log.With().Str("component", "webchat").Str("session_id", uuid.NewString()).Logger()

	identity, err := g.verifier.VerifyToken(req.Context(), token)
	if err != nil {
		// a bad token or unknown subject is the peer's fault; anything else
		// (e.g. the identity store failing) is ours
		if errors.Is(err, auth.ErrTokenInvalid) || errors.Is(err, auth.ErrIdentityNotFound) {
			logger.Info().Err(err).Msg("rejecting unauthenticated connection")
			closeWith(conn, websocket.ClosePolicyViolation, "authentication failed")
			return
		}
		logger.Error().Err(err).Msg("identity resolution failed")
		closeWith(conn, websocket.CloseInternalServerErr, "internal error")
		return
	}
	logger = logger.With().Int64("user_id", identity.UserID).Logger()
	logger.Info().Str("email", identity.Email).Msg("session authenticated")

	s := &session{
		gw:       g,
		conn:     conn,
		identity: identity,
		logger:   logger,
	}
	s.run(req.Context())
}

func closeWith(conn *websocket.Conn, code int, reason string) {
	deadline := time.Now().Add(time.Second)
	_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), deadline)
	_ = conn.Close()
}
