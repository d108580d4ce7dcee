// Package activitymap flattens local.ActivityEvent values into a
// transport agnostic record for audit logs and event buses.
package activitymap

import (
	"context"
	"strings"
	"time"

	local "github.com/goliatone/go-auth-local"
)

const (
	// MetadataKeyStrategy stores the name of the strategy that emitted the event
	MetadataKeyStrategy = "strategy"
	// MetadataKeyOutcome stores success, fail or error for login events
	MetadataKeyOutcome = "outcome"
)

const (
	defaultChannel    = "auth"
	defaultObjectType = "user"
	defaultActorID    = "anonymous"
)

// Normalized is a transport-agnostic activity shape for downstream systems.
type Normalized struct {
	ActorID    string         `json:"actor_id"`
	Verb       string         `json:"verb"`
	ObjectType string         `json:"object_type,omitempty"`
	ObjectID   string         `json:"object_id,omitempty"`
	Channel    string         `json:"channel,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}

// Option customizes normalization behavior.
type Option func(*normalizeOptions)

type normalizeOptions struct {
	channel          string
	objectType       string
	actorFallback    string
	objectIDResolver func(local.ActivityEvent) string
}

// Normalize converts a local.ActivityEvent into a generic normalized shape.
// Only successful logins and user creation name an actor, a failed attempt
// is attributed to the fallback actor.
func Normalize(event local.ActivityEvent, opts ...Option) Normalized {
	options := defaultNormalizeOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(&options)
		}
	}

	actorID := strings.TrimSpace(options.actorFallback)
	if event.EventType == local.ActivityEventLoginSuccess || event.EventType == local.ActivityEventUserCreated {
		actorID = firstNonEmpty(strings.TrimSpace(event.Username), actorID)
	}

	occurredAt := event.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now().UTC()
	}

	return Normalized{
		ActorID:    actorID,
		Verb:       string(event.EventType),
		ObjectType: strings.TrimSpace(options.objectType),
		ObjectID:   resolveObjectID(event, options.objectIDResolver),
		Channel:    strings.TrimSpace(options.channel),
		Metadata:   normalizeMetadata(event),
		OccurredAt: occurredAt,
	}
}

// Sink wraps next so that it receives normalized records
func Sink(next func(Normalized) error, opts ...Option) local.ActivitySink {
	return local.ActivitySinkFunc(func(_ context.Context, event local.ActivityEvent) error {
		return next(Normalize(event, opts...))
	})
}

// WithDefaultChannel sets the default channel for normalized records.
func WithDefaultChannel(channel string) Option {
	return func(opts *normalizeOptions) {
		if opts == nil {
			return
		}
		opts.channel = strings.TrimSpace(channel)
	}
}

// WithDefaultObjectType sets the default object type for normalized records.
func WithDefaultObjectType(objectType string) Option {
	return func(opts *normalizeOptions) {
		if opts == nil {
			return
		}
		opts.objectType = strings.TrimSpace(objectType)
	}
}

// WithObjectIDResolver overrides object-id extraction from ActivityEvent.
func WithObjectIDResolver(resolver func(local.ActivityEvent) string) Option {
	return func(opts *normalizeOptions) {
		if opts == nil {
			return
		}
		opts.objectIDResolver = resolver
	}
}

// WithActorFallback sets the actor id used when the event names no user.
func WithActorFallback(actorID string) Option {
	return func(opts *normalizeOptions) {
		if opts == nil {
			return
		}
		opts.actorFallback = strings.TrimSpace(actorID)
	}
}

func defaultNormalizeOptions() normalizeOptions {
	return normalizeOptions{
		channel:       defaultChannel,
		objectType:    defaultObjectType,
		actorFallback: defaultActorID,
	}
}

func resolveObjectID(event local.ActivityEvent, resolver func(local.ActivityEvent) string) string {
	if resolver != nil {
		return strings.TrimSpace(resolver(event))
	}
	return strings.TrimSpace(event.Username)
}

func normalizeMetadata(event local.ActivityEvent) map[string]any {
	metadata := cloneMap(event.Metadata)

	if strategy := strings.TrimSpace(event.Strategy); strategy != "" {
		if metadata == nil {
			metadata = map[string]any{}
		}
		if _, exists := metadata[MetadataKeyStrategy]; !exists {
			metadata[MetadataKeyStrategy] = strategy
		}
	}

	if outcome := outcomeOf(event.EventType); outcome != "" {
		if metadata == nil {
			metadata = map[string]any{}
		}
		metadata[MetadataKeyOutcome] = string(outcome)
	}

	return metadata
}

func outcomeOf(eventType local.ActivityEventType) local.OutcomeKind {
	switch eventType {
	case local.ActivityEventLoginSuccess:
		return local.OutcomeSuccess
	case local.ActivityEventLoginFailure:
		return local.OutcomeFail
	case local.ActivityEventLoginError:
		return local.OutcomeError
	default:
		return ""
	}
}

func cloneMap(in map[string]any) map[string]any {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]any, len(in))
	for key, value := range in {
		out[key] = value
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if value != "" {
			return value
		}
	}
	return ""
}
