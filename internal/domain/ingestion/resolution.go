package ingestion

import (
	"context"
	"strings"

	crerr "github.com/cockroachdb/errors"
)

// Reference is how a payload points at another entity: by id, by name, or both.
type Reference struct {
	ID   string
	Name string
}

func (r Reference) String() string {
	switch {
	case r.ID != "" && r.Name != "":
		return r.ID + " (" + r.Name + ")"
	case r.ID != "":
		return r.ID
	default:
		return r.Name
	}
}

func (r Reference) IsEmpty() bool {
	return strings.TrimSpace(r.ID) == "" && strings.TrimSpace(r.Name) == ""
}

// Strategy is one way to turn a reference into an entity.
type Strategy[T any] struct {
	Name    string
	Resolve func(ctx context.Context, ref Reference) (T, bool, error)
}

// Lookup tries strategies in order and returns the first hit. A miss is not an
// error.
func Lookup[T any](ctx context.Context, entity string, ref Reference, strategies []Strategy[T]) (T, bool, error) {
	var zero T
	for _, strategy := range strategies {
		value, ok, err := strategy.Resolve(ctx, ref)
		if err != nil {
			return zero, false, crerr.Wrapf(err, "resolve %s by %s", entity, strategy.Name)
		}
		if ok {
			return value, true, nil
		}
	}
	return zero, false, nil
}

// Resolve is Lookup that fails closed with ErrMissingRequiredReference when
// no strategy matches.
func Resolve[T any](ctx context.Context, entity string, ref Reference, strategies []Strategy[T]) (T, error) {
	value, ok, err := Lookup(ctx, entity, ref, strategies)
	if err != nil {
		return value, err
	}
	if !ok {
		return value, crerr.Wrapf(ErrMissingRequiredReference, "%s %q", entity, ref.String())
	}
	return value, nil
}
