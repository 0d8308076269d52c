package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/poiesic/docqa/core"
)

// Client-facing messages.
const (
	msgChatNotFound     = "Chat not found."
	msgNoDocument       = "No PDF uploaded for this chat."
	msgAskRequired      = "chatId and question required."
	msgNoFile           = "No file uploaded."
	msgFileTooLarge     = "File too large."
	msgExtraction       = "Could not extract text from the document."
	msgUnavailable      = "The inference provider is unavailable. Please try again later."
	msgTimeout          = "The request timed out."
	msgIngestion        = "Error processing PDF."
	msgGeneration       = "Error answering question."
	msgInternal         = "Internal server error."
	msgInvalidBody      = "Invalid request body."
	msgNameRequired     = "name required."
	msgChatDeleted      = "Chat deleted successfully."
	msgDocumentIngested = "PDF processed."
)

// classify maps an error to a status code and a client message.
// Order matters: the most specific category is checked first.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound, msgChatNotFound
	case errors.Is(err, core.ErrNoDocument):
		return http.StatusBadRequest, msgNoDocument
	case errors.Is(err, core.ErrInvalidArgument):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, core.ErrExtraction):
		return http.StatusBadRequest, msgExtraction
	case errors.Is(err, core.ErrProviderTransient):
		return http.StatusServiceUnavailable, msgUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, msgTimeout
	case errors.Is(err, core.ErrIngestion):
		return http.StatusInternalServerError, msgIngestion
	case errors.Is(err, core.ErrGeneration):
		return http.StatusInternalServerError, msgGeneration
	}
	return http.StatusInternalServerError, msgInternal
}
