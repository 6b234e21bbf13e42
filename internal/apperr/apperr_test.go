package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOfUnwrapsChain(t *testing.T) {
	base := New(NotFound, "Usuário não encontrado")
	wrapped := fmt.Errorf("get user by phone: %w", base)

	if KindOf(wrapped) != NotFound {
		t.Fatalf("expected NotFound through wrapping, got %v", KindOf(wrapped))
	}
	if MessageOf(wrapped) != "Usuário não encontrado" {
		t.Fatalf("unexpected message: %s", MessageOf(wrapped))
	}
}

func TestKindOfDefaultsToInternal(t *testing.T) {
	err := errors.New("pool exhausted")
	if KindOf(err) != Internal {
		t.Fatalf("expected Internal, got %v", KindOf(err))
	}
	if MessageOf(err) != "Erro interno, tente novamente mais tarde" {
		t.Fatalf("internal details leaked: %s", MessageOf(err))
	}
}

func TestWrapKeepsCauseOutOfMessage(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	err := Wrap(Upstream, "Consultor financeiro indisponível", cause)

	if MessageOf(err) != "Consultor financeiro indisponível" {
		t.Fatalf("cause leaked into message: %s", MessageOf(err))
	}
	if !errors.Is(err, cause) {
		t.Fatal("cause should remain reachable for logs")
	}
	if !IsKind(err, Upstream) {
		t.Fatal("expected Upstream kind")
	}
}
