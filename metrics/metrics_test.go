package metrics

import (
	"errors"
	"testing"
)

func TestLabels(t *testing.T) {
	if ResolveOutcome(true) != "match" || ResolveOutcome(false) != "miss" {
		t.Error("unexpected resolve outcome labels")
	}
	if AppendResult(nil) != "ok" || AppendResult(errors.New("x")) != "error" {
		t.Error("unexpected append result labels")
	}
}
