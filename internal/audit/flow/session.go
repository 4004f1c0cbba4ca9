package flow

import "context"

// Session is an isolated, controllable browser session. A session belongs to
// exactly one flow execution and is closed when that flow ends.
type Session interface {
	Navigate(ctx context.Context, url string) error
	Click(ctx context.Context, selector string) error
	Type(ctx context.Context, selector, text string) error
	WaitVisible(ctx context.Context, selector string) error
	Text(ctx context.Context, selector string) (string, error)
	Title(ctx context.Context) (string, error)
	Location(ctx context.Context) (string, error)
	Close() error
}

// SessionFactory creates fresh browser sessions.
type SessionFactory interface {
	NewSession(ctx context.Context) (Session, error)
}
