package contextx

import (
	"context"
	"fmt"
)

type SecondMeID string

type contextKeySecondMeID struct{}

func (s SecondMeID) String() string {
	return string(s)
}

func WithSecondMeID(ctx context.Context, secondMeID SecondMeID) context.Context {
	return context.WithValue(ctx, contextKeySecondMeID{}, secondMeID)
}

func SecondMeIDFromContext(ctx context.Context) (SecondMeID, error) {
	secondMeID, ok := ctx.Value(contextKeySecondMeID{}).(SecondMeID)
	if !ok {
		return "", fmt.Errorf("secondme id: %w", ErrNoValue)
	}

	return secondMeID, nil
}
