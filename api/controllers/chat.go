package controllers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/kreasivisual/kreasivisual-backend/api/middleware"
	"github.com/kreasivisual/kreasivisual-backend/api/responses"
	"github.com/kreasivisual/kreasivisual-backend/api/validators"
	"github.com/kreasivisual/kreasivisual-backend/internal/chat"
	pkgerrors "github.com/kreasivisual/kreasivisual-backend/pkg/errors"
	"github.com/kreasivisual/kreasivisual-backend/pkg/logger"
)

// multipartMemoryLimit bounds the in-memory portion of a message upload;
// larger parts spill to temp files.
const multipartMemoryLimit = 4 << 20

type startConversationRequest struct {
	Subject string `json:"subject"`
}

// ConversationList returns the buyer's threads, most recently active first.
func ConversationList(svc chat.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		buyerID, ok := middleware.BuyerID(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "buyer identity missing"))
			return
		}

		rows, err := svc.ListConversations(r.Context(), buyerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

// ConversationStart opens a general inquiry thread.
func ConversationStart(svc chat.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		buyerID, ok := middleware.BuyerID(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "buyer identity missing"))
			return
		}

		var body startConversationRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		conversation, err := svc.StartConversation(r.Context(), buyerID, body.Subject)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, conversation)
	}
}

// ConversationEnsureOrder returns the order-linked thread, creating it (and
// its greeting) on first use.
func ConversationEnsureOrder(svc chat.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		buyerID, ok := middleware.BuyerID(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "buyer identity missing"))
			return
		}

		conversation, err := svc.EnsureOrderConversation(r.Context(), buyerID, chi.URLParam(r, "orderCode"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, conversation)
	}
}

// ConversationMessages returns the full history and marks incoming messages
// read.
func ConversationMessages(svc chat.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actorID, conversationID, err := chatActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows, err := svc.ListMessages(r.Context(), actorID, middleware.IsAdmin(r.Context()), conversationID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

// ConversationSend appends a message. The request is multipart: a "content"
// text field plus an optional "file" part.
func ConversationSend(svc chat.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actorID, conversationID, err := chatActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := r.ParseMultipartForm(multipartMemoryLimit); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid multipart body"))
			return
		}

		input := chat.SendMessageInput{
			Content: validators.SanitizeString(r.FormValue("content"), 4000),
		}

		if file, header, err := r.FormFile("file"); err == nil {
			defer file.Close()
			input.Attachment = &chat.Attachment{
				Name:        header.Filename,
				ContentType: header.Header.Get("Content-Type"),
				Size:        header.Size,
				Data:        file,
			}
		}

		message, err := svc.SendMessage(r.Context(), actorID, middleware.IsAdmin(r.Context()), conversationID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, message)
	}
}

// ConversationStream pushes the history and live messages over SSE until the
// client disconnects.
func ConversationStream(svc chat.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actorID, conversationID, err := chatActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		flusher, ok := w.(http.Flusher)
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "streaming unsupported"))
			return
		}

		// Authorize before committing to the event-stream content type so a
		// denied actor still gets a JSON error envelope.
		if _, err := svc.Authorize(r.Context(), actorID, middleware.IsAdmin(r.Context()), conversationID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")

		streamErr := svc.StreamMessages(r.Context(), actorID, middleware.IsAdmin(r.Context()), conversationID, func(message chat.MessageDTO) error {
			payload, err := json.Marshal(message)
			if err != nil {
				return err
			}
			if _, err := fmt.Fprintf(w, "id: %s\nevent: message\ndata: %s\n\n", message.ID, payload); err != nil {
				return err
			}
			flusher.Flush()
			return nil
		})
		if streamErr != nil && logg != nil {
			logg.Error(r.Context(), "conversation stream ended", streamErr)
		}
	}
}

func chatActor(r *http.Request) (uuid.UUID, uuid.UUID, error) {
	actorID, ok := middleware.BuyerID(r.Context())
	if !ok {
		return uuid.Nil, uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	conversationID, err := uuid.Parse(chi.URLParam(r, "conversationId"))
	if err != nil {
		return uuid.Nil, uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid conversation id")
	}
	return actorID, conversationID, nil
}
