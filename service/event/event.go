package event

import (
	"time"

	"github.com/viant/safealloc/internal/clock"
	"github.com/viant/safealloc/model/resource"
)

// Type names a lifecycle event.
type Type string

const (
	TypeAdmitted       Type = "admitted"
	TypeRejected       Type = "rejected"
	TypeDispatched     Type = "dispatched"
	TypeDispatchFailed Type = "dispatchFailed"
	TypeBlocked        Type = "blocked"
	TypeUnblocked      Type = "unblocked"
	TypeTerminated     Type = "terminated"
)

type Context struct {
	ProcessID int    `json:"processID"`
	CatalogID int    `json:"catalogID"`
	EventType Type   `json:"eventType"`
	Service   string `json:"service"`
	Method    string `json:"method"`
	From      string `json:"from,omitempty"`
	To        string `json:"to,omitempty"`
}

// Lifecycle is the payload published for scheduler events.
type Lifecycle struct {
	Name      string          `json:"name"`
	Resources resource.Set    `json:"resources"`
	Available resource.Vector `json:"available"`
	Reason    string          `json:"reason,omitempty"`
}

type Event[T any] struct {
	Context   *Context               `json:"context"`
	CreatedAt time.Time              `json:"createdAt"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Data      T                      `json:"data"`
}

func NewEvent[T any](context *Context, data T) *Event[T] {
	return &Event[T]{
		Context:   context,
		CreatedAt: clock.Now(),
		Metadata:  make(map[string]interface{}),
		Data:      data,
	}
}
