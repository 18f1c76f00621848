package ai

import "strings"

const systemPrompt = `Eres un asistente virtual de atención al cliente.
Instrucciones:
- Responde siempre en español con un tono profesional y amable.
- Da información práctica y accionable.
- Si no estás seguro de la respuesta, sugiere hablar con un agente humano.
- Sé conciso: no más de tres párrafos cortos.`

// BuildPrompt returns the system instruction and user turn for req.
func BuildPrompt(req Request) (system, user string) {
	system = systemPrompt
	if c := strings.TrimSpace(req.Company); c != "" {
		system += "\n- Representas a " + c + "; no inventes políticas que la empresa no haya indicado."
	}

	var b strings.Builder
	if c := strings.TrimSpace(req.Context); c != "" {
		b.WriteString("Contexto: ")
		b.WriteString(c)
		b.WriteString("\n\n")
	}
	b.WriteString("Consulta del cliente: ")
	b.WriteString(strings.TrimSpace(req.UserQuery))
	return system, b.String()
}
