package grid

import "context"

// Token is the cancellation handle of one issued load.
// Once cancelled, the result of the load it belongs to is discarded whenever it arrives.
type Token struct {
	ctx    context.Context
	cancel context.CancelFunc
}

// NewToken returns a live token derived from parent. Cancelling parent cancels the token.
func NewToken(parent context.Context) *Token {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)
	return &Token{ctx: ctx, cancel: cancel}
}

// Cancel marks the token stale and signals the loader to stop. Safe to call more than once and on nil.
func (t *Token) Cancel() {
	if t != nil {
		t.cancel()
	}
}

func (t *Token) Cancelled() bool {
	return t == nil || t.ctx.Err() != nil
}

// Context is done once the token is cancelled. Loaders receive it.
func (t *Token) Context() context.Context {
	return t.ctx
}
