package ai

import (
	"strings"
	"testing"
)

func TestBuildPrompt(t *testing.T) {
	system, user := BuildPrompt(Request{UserQuery: " ¿Hacen envíos? ", Context: "Envíos a todo el país"})
	if system != systemPrompt {
		t.Fatalf("unexpected system prompt %q", system)
	}
	if user != "Contexto: Envíos a todo el país\n\nConsulta del cliente: ¿Hacen envíos?" {
		t.Fatalf("unexpected user turn %q", user)
	}

	_, user = BuildPrompt(Request{UserQuery: "hola"})
	if user != "Consulta del cliente: hola" {
		t.Fatalf("context must be omitted when empty, got %q", user)
	}
}

func TestBuildPrompt_Company(t *testing.T) {
	system, _ := BuildPrompt(Request{UserQuery: "hola", Company: "Tienda Sol"})
	if !strings.HasPrefix(system, systemPrompt) || !strings.Contains(system, "Representas a Tienda Sol") {
		t.Fatalf("company not included: %q", system)
	}
}
