package connect

// Kind discriminates the event variants.
type Kind string

const (
	KindSuccess   Kind = "SUCCESS"
	KindError     Kind = "ERROR"
	KindAbandoned Kind = "ABANDONED"
)

// String returns the wire name of the kind
func (k Kind) String() string {
	return string(k)
}

// Event is one of SuccessEvent, ErrorEvent or AbandonedEvent.
// The set is closed: only this package can add variants.
type Event interface {
	Kind() Kind
	event()
}

// SuccessEvent reports a completed authorization.
type SuccessEvent struct {
	Type            Kind   `json:"type"`
	Status          string `json:"status"`
	AuthorizationID string `json:"authorizationId"`
}

// ErrorEvent reports a failure surfaced by the portal.
type ErrorEvent struct {
	Type       Kind   `json:"type"`
	Status     string `json:"status"`
	StatusCode int    `json:"statusCode"`
	Detail     string `json:"detail"`
}

// AbandonedEvent reports that the user left the portal without finishing.
type AbandonedEvent struct {
	Type  Kind   `json:"type"`
	Value string `json:"value"`
}

// NewSuccessEvent builds a SuccessEvent with its discriminator fields set.
func NewSuccessEvent(authorizationID string) SuccessEvent {
	return SuccessEvent{
		Type:            KindSuccess,
		Status:          string(KindSuccess),
		AuthorizationID: authorizationID,
	}
}

// NewErrorEvent builds an ErrorEvent with its discriminator fields set.
func NewErrorEvent(statusCode int, detail string) ErrorEvent {
	return ErrorEvent{
		Type:       KindError,
		Status:     string(KindError),
		StatusCode: statusCode,
		Detail:     detail,
	}
}

// NewAbandonedEvent builds an AbandonedEvent with its discriminator fields set.
func NewAbandonedEvent() AbandonedEvent {
	return AbandonedEvent{
		Type:  KindAbandoned,
		Value: string(KindAbandoned),
	}
}

func (SuccessEvent) Kind() Kind   { return KindSuccess }
func (ErrorEvent) Kind() Kind     { return KindError }
func (AbandonedEvent) Kind() Kind { return KindAbandoned }

func (SuccessEvent) event()   {}
func (ErrorEvent) event()     {}
func (AbandonedEvent) event() {}
