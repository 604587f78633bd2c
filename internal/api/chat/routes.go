package chat

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers tutoring session routes
func RegisterRoutes(r chi.Router, h *Handler) {
	r.Route("/tutor-session", func(r chi.Router) {
		r.Post("/", h.StartSession)
		r.Get("/{id}", h.GetSession)
		r.Post("/{id}/message", h.SendMessage)
		r.Get("/{id}/transcript", h.GetTranscript)
		r.Delete("/{id}/transcript", h.ClearTranscript)
		r.Post("/{id}/quiz/select", h.SelectQuizOption)
		r.Post("/{id}/quiz/advance", h.AdvanceQuiz)
		r.Post("/{id}/quiz/abandon", h.AbandonQuiz)
		r.Get("/{id}/export", h.ExportResult)
		r.Post("/{id}/voice/transcribe", h.TranscribeClip)
		r.Post("/{id}/voice/speak", h.SpeakMessage)
	})
}
