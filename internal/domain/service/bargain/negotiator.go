package bargain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"duoduo-bargain/internal/domain"
	"duoduo-bargain/internal/domain/entity"
	"duoduo-bargain/internal/domain/value"
	"duoduo-bargain/pkg/contextx"
	"duoduo-bargain/pkg/errcodes"
)

var logger = contextx.LoggerFromContextOrDefault //nolint:gochecknoglobals

const (
	DefaultMaxExchanges   = 10
	DefaultInterTurnDelay = 2 * time.Second
)

// ErrTokenExpired is returned by a ChatClient when the remote endpoint
// rejects the participant's credential. The run treats it like any other
// chat failure; the surrounding system may refresh the token out of band.
var ErrTokenExpired = errors.New("access token expired")

type SessionStore interface {
	GetSession(ctx context.Context, id string) (*entity.BargainSession, error)
	AppendMessage(ctx context.Context, sessionID, senderID string, role value.SenderRole, content string, isFromAI bool) (*entity.BargainMessage, error)
	UpdateCurrentPrice(ctx context.Context, id string, currentPrice int) error
	CompleteSession(ctx context.Context, id string, finalPrice int) (*entity.BargainSession, error)
	FailSession(ctx context.Context, id string) (*entity.BargainSession, error)
}

type UserRepository interface {
	GetBySecondMeID(ctx context.Context, secondMeID string) (*entity.User, error)
}

type ProductRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Product, error)
}

// ChatClient sends one role-conditioned message to the remote chat endpoint.
// Conversation state is entirely caller-supplied via history.
type ChatClient interface {
	SendMessage(ctx context.Context, accessToken, message string, chatCtx ChatContext, history []ChatMessage) (string, error)
}

// Negotiator drives the turn-taking loop between the bargainer and publisher
// personas of a session. A run is a single sequential control flow: the two
// sides strictly alternate, paced by interTurnDelay, bounded by maxExchanges.
type Negotiator struct {
	store    SessionStore
	users    UserRepository
	products ProductRepository
	chat     ChatClient

	maxExchanges   int
	interTurnDelay time.Duration
}

func NewNegotiator(
	store SessionStore,
	users UserRepository,
	products ProductRepository,
	chat ChatClient,
) *Negotiator {
	return &Negotiator{
		store:          store,
		users:          users,
		products:       products,
		chat:           chat,
		maxExchanges:   DefaultMaxExchanges,
		interTurnDelay: DefaultInterTurnDelay,
	}
}

func (n *Negotiator) WithMaxExchanges(maxExchanges int) *Negotiator {
	if maxExchanges > 0 {
		n.maxExchanges = maxExchanges
	}
	return n
}

func (n *Negotiator) WithInterTurnDelay(delay time.Duration) *Negotiator {
	n.interTurnDelay = delay
	return n
}

// Run executes the negotiation loop for the session, emitting events into
// sink in order. It returns after exactly one terminal event has been sent,
// or after ctx is canceled (client gone; the session is left as is).
//
// Re-running an already-negotiating session restarts the loop from current
// session state rather than resuming from persisted history.
func (n *Negotiator) Run(ctx context.Context, sessionID string, sink EventSink) error {
	session, err := n.store.GetSession(ctx, sessionID)
	if err != nil {
		n.emit(ctx, sink, ErrorEvent{Reason: "session not found"})
		return fmt.Errorf("store.GetSession: %w", err)
	}

	// A terminal session replays its outcome instead of negotiating again.
	// Only a completed session carries a final price; a failed one gets an
	// error frame so clients never see a synthesized price.
	if session.Status.IsTerminal() {
		if session.Status != value.BargainCompleted {
			n.emit(ctx, sink, ErrorEvent{Reason: "negotiation failed"})
			return nil
		}

		finalPrice := session.CurrentPrice
		if session.FinalPrice != nil {
			finalPrice = *session.FinalPrice
		}

		n.emit(ctx, sink, CompleteEvent{Status: session.Status, FinalPrice: finalPrice})

		return nil
	}

	// Participant resolution failures before the loop emit an error but do
	// not fail the session.
	bargainer, err := n.users.GetBySecondMeID(ctx, session.BargainerID)
	if err != nil {
		n.emit(ctx, sink, ErrorEvent{Reason: "bargainer not found"})
		return domain.WrapError(err, errcodes.ParticipantNotFound, "resolve bargainer")
	}

	publisher, err := n.users.GetBySecondMeID(ctx, session.PublisherID)
	if err != nil {
		n.emit(ctx, sink, ErrorEvent{Reason: "publisher not found"})
		return domain.WrapError(err, errcodes.ParticipantNotFound, "resolve publisher")
	}

	n.emit(ctx, sink, StatusEvent{Status: value.BargainNegotiating})

	run := runState{
		session:      session,
		bargainer:    bargainer,
		publisher:    publisher,
		productLabel: n.productLabel(ctx, session.ProductID),
		currentPrice: session.CurrentPrice,
	}

	return n.loop(ctx, &run, sink)
}

// runState is the in-memory state of one negotiation run.
type runState struct {
	session      *entity.BargainSession
	bargainer    *entity.User
	publisher    *entity.User
	productLabel string
	currentPrice int
	history      []ChatMessage
	exchanges    int
}

func (n *Negotiator) loop(ctx context.Context, run *runState, sink EventSink) error {
	session := run.session
	utterance := openingOffer(run.productLabel, session.PublishPrice, session.TargetPrice)

	for exchange := 0; exchange < n.maxExchanges; exchange++ {
		bargainerReply, err := n.speak(ctx, run, value.RoleBargainer, utterance)
		if err != nil {
			return n.abort(ctx, run, sink, "failed to get bargainer response", err)
		}

		if err = n.recordTurn(ctx, run, sink, value.RoleBargainer, bargainerReply); err != nil {
			return n.abort(ctx, run, sink, "failed to store bargainer message", err)
		}

		if err = n.adoptPrice(ctx, run, bargainerReply); err != nil {
			return n.abort(ctx, run, sink, "failed to update current price", err)
		}

		run.history = append(run.history, ChatMessage{Role: value.ChatRoleAssistant, Content: bargainerReply})

		if err = n.pause(ctx); err != nil {
			return err
		}

		publisherReply, err := n.speak(ctx, run, value.RolePublisher, publisherPrompt(bargainerReply))
		if err != nil {
			return n.abort(ctx, run, sink, "failed to get publisher response", err)
		}

		if err = n.recordTurn(ctx, run, sink, value.RolePublisher, publisherReply); err != nil {
			return n.abort(ctx, run, sink, "failed to store publisher message", err)
		}

		run.exchanges = exchange + 1

		// Agreement from the publisher is the only normal termination inside
		// the loop.
		if DetectAgreement(publisherReply) {
			finalPrice, ok := ExtractPrice(publisherReply)
			if !ok || finalPrice == 0 {
				finalPrice = run.currentPrice
			}

			return n.finalize(ctx, run, sink, value.BargainCompleted, finalPrice)
		}

		run.history = append(run.history, ChatMessage{Role: value.ChatRoleAssistant, Content: publisherReply})
		utterance = rebuttal(publisherReply, run.currentPrice, session.TargetPrice)

		if err = n.pause(ctx); err != nil {
			return err
		}
	}

	// Exhausting the exchange budget is a soft success: the user still gets
	// the best price surfaced so far.
	return n.finalize(ctx, run, sink, value.BargainCompleted, run.currentPrice)
}

func (n *Negotiator) speak(
	ctx context.Context,
	run *runState,
	role value.SenderRole,
	message string,
) (string, error) {
	user := run.bargainer
	if role == value.RolePublisher {
		user = run.publisher
	}

	chatCtx := ChatContext{
		ProductName:  run.productLabel,
		PublishPrice: run.session.PublishPrice,
		TargetPrice:  run.session.TargetPrice,
		Role:         role,
	}

	history := make([]ChatMessage, len(run.history))
	copy(history, run.history)

	reply, err := n.chat.SendMessage(ctx, user.AccessToken, message, chatCtx, history)
	if err != nil {
		return "", fmt.Errorf("chat.SendMessage (%s): %w", role, err)
	}

	return reply, nil
}

func (n *Negotiator) recordTurn(
	ctx context.Context,
	run *runState,
	sink EventSink,
	role value.SenderRole,
	content string,
) error {
	senderID := run.session.BargainerID
	if role == value.RolePublisher {
		senderID = run.session.PublisherID
	}

	message, err := n.store.AppendMessage(ctx, run.session.ID, senderID, role, content, true)
	if err != nil {
		return fmt.Errorf("store.AppendMessage: %w", err)
	}

	n.emit(ctx, sink, MessageEvent{Message: *message})

	return nil
}

// adoptPrice ratchets the tracked best price down when the reply mentions a
// strictly lower one. Prices never move up within a run.
func (n *Negotiator) adoptPrice(ctx context.Context, run *runState, reply string) error {
	price, ok := ExtractPrice(reply)
	if !ok || price == 0 || price >= run.currentPrice {
		return nil
	}

	run.currentPrice = price

	if err := n.store.UpdateCurrentPrice(ctx, run.session.ID, price); err != nil {
		return fmt.Errorf("store.UpdateCurrentPrice: %w", err)
	}

	return nil
}

// finalize is the single transition point out of negotiating. Completion
// carries a final price; failure does not.
func (n *Negotiator) finalize(
	ctx context.Context,
	run *runState,
	sink EventSink,
	to value.BargainStatus,
	finalPrice int,
) error {
	if !run.session.Status.CanTransitionTo(to) {
		return domain.NewError(
			errcodes.SessionAlreadyClosed,
			fmt.Sprintf("illegal transition %s -> %s", run.session.Status, to),
		)
	}

	exchangesPerRun.Observe(float64(run.exchanges))

	switch to {
	case value.BargainCompleted:
		if _, err := n.store.CompleteSession(ctx, run.session.ID, finalPrice); err != nil {
			return fmt.Errorf("store.CompleteSession: %w", err)
		}

		sessionsCompleted.Inc()
		n.emit(ctx, sink, CompleteEvent{Status: value.BargainCompleted, FinalPrice: finalPrice})

	case value.BargainFailed:
		if _, err := n.store.FailSession(ctx, run.session.ID); err != nil {
			return fmt.Errorf("store.FailSession: %w", err)
		}

		sessionsFailed.Inc()
	}

	return nil
}

// abort marks the session failed and emits the single error event. Nothing
// is retried; a failed chat call or store write is fatal to the run.
func (n *Negotiator) abort(
	ctx context.Context,
	run *runState,
	sink EventSink,
	reason string,
	cause error,
) error {
	if ctx.Err() != nil {
		// Client disconnected mid-turn; leave the session alone.
		return ctx.Err()
	}

	if err := n.finalize(ctx, run, sink, value.BargainFailed, 0); err != nil {
		logger(ctx).Error("negotiator.finalize", "error", err)
	}

	n.emit(ctx, sink, ErrorEvent{Reason: reason})

	return fmt.Errorf("%s: %w", reason, cause)
}

// pause suspends between turns, paced to keep the visible conversation
// readable and to avoid hammering the chat endpoint. Cancellation of ctx
// (client disconnect) interrupts it immediately.
func (n *Negotiator) pause(ctx context.Context) error {
	if n.interTurnDelay <= 0 {
		return nil
	}

	select {
	case <-time.After(n.interTurnDelay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (n *Negotiator) productLabel(ctx context.Context, productID string) string {
	product, err := n.products.GetByID(ctx, productID)
	if err != nil {
		// Fall back to the raw id; the prompt still works.
		return productID
	}

	return product.Title
}

func (n *Negotiator) emit(ctx context.Context, sink EventSink, event Event) {
	if err := sink.Send(ctx, event); err != nil {
		logger(ctx).Error("sink.Send", "error", err)
	}
}
