package span

import (
	"errors"
	"fmt"
)

// TooManyVerticesError reports a span exceeding MaxVertices.
type TooManyVerticesError struct {
	Object   string
	Material string
	Count    int
}

func (e *TooManyVerticesError) Error() string {
	return fmt.Sprintf("there are too many vertices (%d, limit %d) on mesh %q with material %q",
		e.Count, MaxVertices, e.Object, e.Material)
}

// TooManyUVChannelsError reports a vertex format that cannot encode the
// requested UV channels.
type TooManyUVChannelsError struct {
	Object   string
	Material string
	Count    int // user channels
	Max      int // user channels allowed after reservations
}

func (e *TooManyUVChannelsError) Error() string {
	return fmt.Sprintf("there are too many UV channels on material %q of object %q: at most %d allowed, got %d",
		e.Material, e.Object, e.Max, e.Count)
}

// IsCapacityError reports whether err is a span capacity failure. Those are
// fatal for the offending object only.
func IsCapacityError(err error) bool {
	var tv *TooManyVerticesError
	var tu *TooManyUVChannelsError
	return errors.As(err, &tv) || errors.As(err, &tu)
}
