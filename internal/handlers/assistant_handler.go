package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stwalsh4118/proptax/internal/middleware"
	"github.com/stwalsh4118/proptax/internal/models"
	"github.com/stwalsh4118/proptax/internal/services"
)

const relayBufferSize = 4096

// AssistantHandler relays tax questions to the AI assistant as an event stream.
type AssistantHandler struct {
	assistant services.TaxAssistant
}

// NewAssistantHandler creates a new AssistantHandler instance.
func NewAssistantHandler(assistant services.TaxAssistant) *AssistantHandler {
	return &AssistantHandler{assistant: assistant}
}

// AssistantRequest is the body of POST /tax-assistant.
type AssistantRequest struct {
	Question        string                         `json:"question" binding:"required,max=4000"`
	Properties      []models.PropertySummary       `json:"properties"`
	TaxCalculations []models.TaxCalculationSummary `json:"tax_calculations"`
	IncludeRecords  bool                           `json:"include_records"`
}

// Ask handles POST /api/v1/tax-assistant.
//
// Errors raised before the upstream stream opens are returned as JSON. Once
// the stream is open its bytes are copied through unchanged and flushed after
// every read, so the client sees deltas as they arrive. The upstream request
// shares this request's context and stops when the client disconnects.
func (h *AssistantHandler) Ask(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req AssistantRequest
	if !bindJSON(c, &req) {
		return
	}

	body, err := h.assistant.Ask(c.Request.Context(), userID, services.AssistantQuery{
		Question:        req.Question,
		Properties:      req.Properties,
		TaxCalculations: req.TaxCalculations,
		IncludeRecords:  req.IncludeRecords,
	})
	if err != nil {
		respondError(c, err, "Failed to reach AI assistant")
		return
	}
	defer body.Close()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)
	c.Writer.WriteHeaderNow()
	c.Writer.Flush()

	written, err := relay(c.Writer, body)
	if err != nil {
		if log := middleware.GetLogger(c); log != nil {
			log.Warn("Assistant stream ended early", map[string]interface{}{
				"bytes_relayed": written,
				"error":         err.Error(),
			})
		}
		return
	}

	if log := middleware.GetLogger(c); log != nil {
		log.Debug("Assistant stream completed", map[string]interface{}{
			"bytes_relayed": written,
		})
	}
}

// relay copies src to w, flushing after every chunk. It returns the number of
// bytes written and the first read or write error other than io.EOF.
func relay(w gin.ResponseWriter, src io.Reader) (int64, error) {
	buf := make([]byte, relayBufferSize)
	var written int64

	for {
		n, readErr := src.Read(buf)
		if n > 0 {
			m, writeErr := w.Write(buf[:n])
			written += int64(m)
			if writeErr != nil {
				return written, writeErr
			}
			w.Flush()
		}
		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				return written, nil
			}
			return written, readErr
		}
	}
}
