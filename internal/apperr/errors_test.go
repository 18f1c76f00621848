package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindSurvivesWrapping(t *testing.T) {
	base := Upstream("commerce.order", "order not found", errors.New("404"))
	wrapped := fmt.Errorf("order inquiry: %w", base)

	if !Is(wrapped, KindUpstream) {
		t.Fatalf("expected upstream kind, got %q", KindOf(wrapped))
	}
	if Is(wrapped, KindToken) {
		t.Fatalf("unexpected token kind")
	}
	if Message(wrapped) != "order not found" {
		t.Fatalf("unexpected message %q", Message(wrapped))
	}
}

func TestErrorString(t *testing.T) {
	err := Token("commerce.token", "no valid access token", errors.New("refresh failed"))
	want := "commerce.token: no valid access token: refresh failed"
	if err.Error() != want {
		t.Fatalf("got %q want %q", err.Error(), want)
	}
	if KindOf(errors.New("plain")) != "" {
		t.Fatalf("plain errors have no kind")
	}
}
