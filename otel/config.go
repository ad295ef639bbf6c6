package otel

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
)

// config holds the options for tracing a decorated component.
type config struct {
	// Operation identifies the current operation and serves as a span name.
	Operation string

	// GetOperation is an optional function that can set the span name based on the existing operation
	// for the component and information in the context.
	//
	// If the function is nil, or the returned operation is empty, the existing operation is used.
	GetOperation func(ctx context.Context, operation string) string

	// Attributes holds the default attributes for each span created by this decorator.
	Attributes []attribute.KeyValue

	// GetAttributes is an optional function that can extract trace attributes
	// from the context and add them to the span.
	GetAttributes func(ctx context.Context) []attribute.KeyValue
}

func newConfig(operation string, options ...Option) *config {
	cfg := &config{Operation: operation}
	for _, opt := range options {
		opt.apply(cfg)
	}
	return cfg
}

// spanName resolves the span name for one invocation.
func (c *config) spanName(ctx context.Context) string {
	if c.GetOperation != nil {
		if op := c.GetOperation(ctx, c.Operation); op != "" {
			return op
		}
	}
	return c.Operation
}

// spanAttributes resolves the configured attributes for one invocation.
func (c *config) spanAttributes(ctx context.Context) []attribute.KeyValue {
	if c.GetAttributes == nil {
		return c.Attributes
	}
	return append(c.Attributes[:len(c.Attributes):len(c.Attributes)], c.GetAttributes(ctx)...)
}

// Option configures a telemetry decorator.
type Option interface {
	apply(*config)
}

type optionFunc func(*config)

func (o optionFunc) apply(c *config) {
	o(c)
}

// WithOperation sets an operation name for a decorated component.
// Use this when you decorate several components of the same kind.
func WithOperation(operation string) Option {
	return optionFunc(func(o *config) {
		o.Operation = operation
	})
}

// WithOperationGetter sets an operation name getter function in config.
func WithOperationGetter(fn func(ctx context.Context, name string) string) Option {
	return optionFunc(func(o *config) {
		o.GetOperation = fn
	})
}

// WithAttributes sets the default attributes for the spans created by the decorator.
func WithAttributes(attrs ...attribute.KeyValue) Option {
	return optionFunc(func(o *config) {
		o.Attributes = attrs
	})
}

// WithAttributeGetter extracts additional attributes from the context.
func WithAttributeGetter(fn func(ctx context.Context) []attribute.KeyValue) Option {
	return optionFunc(func(o *config) {
		o.GetAttributes = fn
	})
}
