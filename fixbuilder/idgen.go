package fixbuilder

import (
	"time"

	"github.com/google/uuid"
)

// IDGenerator mints opaque unique identifiers for TestReqID and
// correlation ids. Injected so tests can supply deterministic values;
// see spec Design Notes on global clock/identifier injection.
type IDGenerator interface {
	NextID() string
}

// uuidGenerator is the production IDGenerator, backed by a random UUID.
type uuidGenerator struct{}

func (uuidGenerator) NextID() string { return uuid.NewString() }

// Clock supplies the current time for SendingTime/TransactTime stamping.
type Clock interface {
	Now() time.Time
}

// systemClock is the production Clock.
type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }
