package library

import "context"

type ChangeKind string

const (
	KindBook     ChangeKind = "book"
	KindPart     ChangeKind = "part"
	KindChapter  ChangeKind = "chapter"
	KindQuestion ChangeKind = "question"
	KindProgress ChangeKind = "progress"
	KindImport   ChangeKind = "import"
)

type ChangeAction string

const (
	ActionCreated  ChangeAction = "created"
	ActionUpdated  ChangeAction = "updated"
	ActionDeleted  ChangeAction = "deleted"
	ActionImported ChangeAction = "imported"
	ActionRepaired ChangeAction = "repaired"
)

// Change describes one successful mutation.
type Change struct {
	Kind   ChangeKind   `json:"kind"`
	Action ChangeAction `json:"action"`
	ID     string       `json:"id,omitempty"`
	BookID string       `json:"bookId,omitempty"`
	Detail string       `json:"detail,omitempty"`
}

// RoutingKey is "<kind>.<action>".
func (c Change) RoutingKey() string {
	return string(c.Kind) + "." + string(c.Action)
}

// ContentChange reports whether cached content trees may be stale.
func (c Change) ContentChange() bool {
	return c.Kind != KindProgress
}

// Notifier receives changes after they are committed. Implementations must
// not block for long and handle their own failures.
type Notifier interface {
	Notify(ctx context.Context, change Change)
}

// Notifiers fans a change out to every member.
type Notifiers []Notifier

func (n Notifiers) Notify(ctx context.Context, change Change) {
	for _, notifier := range n {
		if notifier != nil {
			notifier.Notify(ctx, change)
		}
	}
}

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, Change) {}
