package summarizer

import (
	"strings"
	"unicode/utf8"
)

const systemPrompt = `Eres un analista de llamadas comerciales. Recibes la transcripción de una llamada
entre un agente de voz ("Agente") y un posible cliente ("Cliente").

Responde SOLO con un objeto JSON con exactamente estas claves:
{
  "resumen": "resumen breve de la llamada en español, máximo 3 frases",
  "sentimiento": "positivo" | "neutral" | "negativo",
  "intencion": "intención principal del cliente en pocas palabras",
  "datosExtraidos": { "clave": "valor" },
  "resultado": "interesado" | "no_interesado" | "volver_a_llamar" | "buzon_de_voz" | "sin_resultado"
}

En "datosExtraidos" incluye solo datos mencionados explícitamente (por ejemplo
email, horario preferido, presupuesto, nombre de la empresa). No inventes datos.`

const maxTranscriptChars = 12000

func buildUserPrompt(transcript string) string {
	text := strings.TrimSpace(transcript)
	if utf8.RuneCountInString(text) > maxTranscriptChars {
		text = string([]rune(text)[:maxTranscriptChars])
	}
	return "Transcripción:\n" + text
}
