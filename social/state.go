package social

import (
	"context"
	"time"

	auth "github.com/goliatone/go-auth-dwsp"
)

// FlowState is a step of the delegated login flow.
type FlowState string

const (
	StateReceivedCode     FlowState = "received_code"
	StateExchangingToken  FlowState = "exchanging_token"
	StateFetchingProfile  FlowState = "fetching_profile"
	StateResolvingAccount FlowState = "resolving_account"
	StateLinkingExisting  FlowState = "linking_existing"
	StateCreatingNew      FlowState = "creating_new"
	StateIssuingSession   FlowState = "issuing_session"
	StateRedirected       FlowState = "redirected"
	StateFailed           FlowState = "failed"
)

// flowTracker logs state transitions of a single delegated login.
type flowTracker struct {
	logger   auth.Logger
	provider string
	state    FlowState
	started  time.Time
	steps    []FlowState
}

func newFlowTracker(logger auth.Logger, provider string) *flowTracker {
	return &flowTracker{
		logger:   logger,
		provider: provider,
		state:    StateReceivedCode,
		started:  time.Now(),
		steps:    []FlowState{StateReceivedCode},
	}
}

func (f *flowTracker) enter(ctx context.Context, next FlowState) {
	f.logger.Debug("delegated login transition",
		"provider", f.provider,
		"from", f.state,
		"to", next,
		"request_id", requestIDFromContext(ctx),
	)
	f.state = next
	f.steps = append(f.steps, next)
}

// fail records the terminal failure and returns err unchanged.
func (f *flowTracker) fail(ctx context.Context, err error) error {
	f.logger.Warn("delegated login failed",
		"provider", f.provider,
		"state", f.state,
		"category", auth.CategoryOf(err),
		"elapsed", time.Since(f.started),
		"request_id", requestIDFromContext(ctx),
		"error", err,
	)
	f.steps = append(f.steps, StateFailed)
	return err
}

// Current returns the state the flow reached.
func (f *flowTracker) Current() FlowState {
	return f.state
}

type requestIDKey struct{}

// WithRequestID stores the request id used in flow logs.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

func requestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
