package activitymap

import (
	"context"
	"strings"
	"time"

	accounts "github.com/goliatone/go-accounts"
)

const (
	// MetadataKeyActorType stores the actor type derived from accounts.ActorRef.Type.
	MetadataKeyActorType = "actor_type"
	// MetadataKeyFromState stores the source account state for lifecycle transitions.
	MetadataKeyFromState = "from_state"
	// MetadataKeyToState stores the target account state for lifecycle transitions.
	MetadataKeyToState = "to_state"
	// MetadataKeyEmail stores the normalized email the event refers to.
	MetadataKeyEmail = "email"
)

const (
	defaultChannel    = "accounts"
	defaultObjectType = "account"
	defaultActorID    = "system"
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
	channel       string
	objectType    string
	actorFallback string
	omitEmail     bool
}

// Normalize converts an accounts.ActivityEvent into a generic normalized shape.
func Normalize(event accounts.ActivityEvent, opts ...Option) Normalized {
	options := defaultNormalizeOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(&options)
		}
	}

	actorID := firstNonEmpty(
		strings.TrimSpace(event.Actor.ID),
		strings.TrimSpace(event.AccountID),
		strings.TrimSpace(options.actorFallback),
	)

	occurredAt := event.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now().UTC()
	}

	return Normalized{
		ActorID:    actorID,
		Verb:       string(event.EventType),
		ObjectType: options.objectType,
		ObjectID:   strings.TrimSpace(event.AccountID),
		Channel:    options.channel,
		Metadata:   normalizeMetadata(event, options),
		OccurredAt: occurredAt,
	}
}

// WithDefaultChannel sets the default channel for normalized records.
func WithDefaultChannel(channel string) Option {
	return func(opts *normalizeOptions) {
		opts.channel = strings.TrimSpace(channel)
	}
}

// WithDefaultObjectType sets the default object type for normalized records.
func WithDefaultObjectType(objectType string) Option {
	return func(opts *normalizeOptions) {
		opts.objectType = strings.TrimSpace(objectType)
	}
}

// WithActorFallback sets the final actor-id fallback when actor/account ids are empty.
func WithActorFallback(actorID string) Option {
	return func(opts *normalizeOptions) {
		opts.actorFallback = strings.TrimSpace(actorID)
	}
}

// WithoutEmail drops the email from metadata for sinks that must not hold PII.
func WithoutEmail() Option {
	return func(opts *normalizeOptions) {
		opts.omitEmail = true
	}
}

// Sink returns an accounts.ActivitySink that normalizes every event and
// hands it to emit.
func Sink(emit func(ctx context.Context, record Normalized) error, opts ...Option) accounts.ActivitySink {
	return accounts.ActivitySinkFunc(func(ctx context.Context, event accounts.ActivityEvent) error {
		if emit == nil {
			return nil
		}
		return emit(ctx, Normalize(event, opts...))
	})
}

// LogSink writes normalized records to logger at info level.
func LogSink(logger accounts.Logger, opts ...Option) accounts.ActivitySink {
	return Sink(func(_ context.Context, record Normalized) error {
		logger.Info("account activity",
			"verb", record.Verb,
			"actor_id", record.ActorID,
			"object_id", record.ObjectID,
			"channel", record.Channel,
			"metadata", record.Metadata,
			"occurred_at", record.OccurredAt,
		)
		return nil
	}, opts...)
}

func defaultNormalizeOptions() normalizeOptions {
	return normalizeOptions{
		channel:       defaultChannel,
		objectType:    defaultObjectType,
		actorFallback: defaultActorID,
	}
}

func normalizeMetadata(event accounts.ActivityEvent, options normalizeOptions) map[string]any {
	metadata := cloneMap(event.Metadata)
	set := func(key string, value any) {
		if metadata == nil {
			metadata = map[string]any{}
		}
		metadata[key] = value
	}

	if actorType := strings.TrimSpace(event.Actor.Type); actorType != "" {
		if _, exists := metadata[MetadataKeyActorType]; !exists {
			set(MetadataKeyActorType, actorType)
		}
	}

	if event.FromState != "" {
		set(MetadataKeyFromState, string(event.FromState))
	}

	if event.ToState != "" {
		set(MetadataKeyToState, string(event.ToState))
	}

	if event.Email != "" && !options.omitEmail {
		set(MetadataKeyEmail, event.Email)
	}

	return metadata
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
