// Package gocommand puts the saved-record commands and queries on the
// go-command dispatcher so in-process callers can reach them by message.
package gocommand

import (
	"context"
	"strings"

	"github.com/goliatone/go-command"
	commanddispatcher "github.com/goliatone/go-command/dispatcher"
	"github.com/goliatone/go-command/runner"
	"github.com/goliatone/go-vendorgate/core"
)

// ValidateMessageContract requires a non-empty Type() and runs Validate()
// when the message has one. Validation errors are returned unchanged so
// their text code survives.
func ValidateMessageContract(msg any) error {
	m, ok := msg.(command.Message)
	if !ok {
		return core.InternalError("bus message must implement Type() string", nil)
	}
	if strings.TrimSpace(m.Type()) == "" {
		return core.InternalError("bus message type is required", nil)
	}
	if validator, ok := msg.(interface{ Validate() error }); ok {
		if err := validator.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// RegistryAdapter keeps the go-command registry the record handlers are
// registered on.
type RegistryAdapter struct {
	registry *command.Registry
}

func NewRegistryAdapter(registry *command.Registry) *RegistryAdapter {
	if registry == nil {
		registry = command.NewRegistry()
	}
	return &RegistryAdapter{registry: registry}
}

func (a *RegistryAdapter) Registry() *command.Registry {
	if a == nil {
		return nil
	}
	return a.registry
}

func (a *RegistryAdapter) register(handler any) error {
	if a == nil || a.registry == nil {
		return errRegistryMissing()
	}
	return a.registry.RegisterCommand(handler)
}

// Dispatch validates msg and runs its subscribed command.
func Dispatch[T any](ctx context.Context, msg T) error {
	if err := ValidateMessageContract(msg); err != nil {
		return err
	}
	return commanddispatcher.Dispatch(ctx, msg)
}

// Query validates msg and returns the subscribed query's result.
func Query[T any, R any](ctx context.Context, msg T) (R, error) {
	if err := ValidateMessageContract(msg); err != nil {
		var zero R
		return zero, err
	}
	return commanddispatcher.Query[T, R](ctx, msg)
}

// RegisterAndSubscribe registers cmd and subscribes it on the dispatcher.
// The subscription is released when registration fails.
func RegisterAndSubscribe[T any](
	adapter *RegistryAdapter,
	cmd command.Commander[T],
	runnerOpts ...runner.Option,
) (commanddispatcher.Subscription, error) {
	if adapter == nil || adapter.registry == nil {
		return nil, errRegistryMissing()
	}
	if cmd == nil {
		return nil, core.InternalError("bus command handler is required", nil)
	}
	subscription := commanddispatcher.SubscribeCommand(cmd, runnerOpts...)
	if err := adapter.register(cmd); err != nil {
		release(subscription)
		return nil, err
	}
	return subscription, nil
}

func RegisterAndSubscribeQuery[T any, R any](
	adapter *RegistryAdapter,
	qry command.Querier[T, R],
	runnerOpts ...runner.Option,
) (commanddispatcher.Subscription, error) {
	if adapter == nil || adapter.registry == nil {
		return nil, errRegistryMissing()
	}
	if qry == nil {
		return nil, core.InternalError("bus query handler is required", nil)
	}
	subscription := commanddispatcher.SubscribeQuery(qry, runnerOpts...)
	if err := adapter.register(qry); err != nil {
		release(subscription)
		return nil, err
	}
	return subscription, nil
}

func release(subscription commanddispatcher.Subscription) {
	if subscription != nil {
		subscription.Unsubscribe()
	}
}

func errRegistryMissing() error {
	return core.InternalError("bus registry is not configured", nil)
}
