package pipeline

import (
	"context"

	"github.com/matzehuels/nodewire/pkg/errors"
	"github.com/matzehuels/nodewire/pkg/graph"
	"github.com/matzehuels/nodewire/pkg/socket"
)

// SocketResolver resolves the sockets at both ends of a connection.
// [graph.Store] implements it.
type SocketResolver interface {
	ResolveSockets(c graph.Connection) (src, dst socket.Kind, err error)
}

// ConnectionValidator owns connection creation. It rejects connections whose
// endpoints do not resolve (DANGLING_ENDPOINT) and connections whose source
// socket is not compatible with the target socket (INCOMPATIBLE_SOCKETS).
type ConnectionValidator struct {
	resolver SocketResolver
	rule     socket.Rule
}

// NewConnectionValidator creates the validator stage.
func NewConnectionValidator(resolver SocketResolver, rule socket.Rule) *ConnectionValidator {
	return &ConnectionValidator{resolver: resolver, rule: rule}
}

// Name implements Interceptor.
func (v *ConnectionValidator) Name() string { return "connection-validator" }

// Owns implements Owner.
func (v *ConnectionValidator) Owns() []EventKind { return []EventKind{ConnectionCreate} }

// Intercept implements Interceptor. Events other than connection.create are
// accepted unchanged.
func (v *ConnectionValidator) Intercept(_ context.Context, ev Event) Outcome {
	if ev.Kind != ConnectionCreate {
		return Accepted()
	}
	src, dst, err := v.resolver.ResolveSockets(ev.Connection)
	if err != nil {
		return Rejected(errors.AsOutcome(err, errors.ErrCodeDanglingEndpoint))
	}
	if !v.rule.Compatible(src, dst) {
		return Rejected(errors.New(errors.ErrCodeIncompatibleSockets,
			"%s: %s output cannot feed %s input", ev.Connection, src, dst))
	}
	return Accepted()
}

var _ Owner = (*ConnectionValidator)(nil)
