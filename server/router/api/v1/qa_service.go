package v1

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/ailurusbio/synvectordb/ai/search"
)

// askRequest is the wire form of a question answering call.
type askRequest struct {
	Question       string               `json:"question"`
	TopK           int                  `json:"top_k"`
	ChatHistory    []search.ChatMessage `json:"chat_history"`
	Stream         bool                 `json:"stream"`
	AdHocDatasetID string               `json:"adhoc_dataset_id"`
}

// Ask answers a question grounded in retrieved parts. With "stream": true
// or an Accept: text/event-stream header the answer is delivered as
// server-sent events ("answer" events with text fragments, one final
// "result" event with the full response).
//
// POST /api/v1/tools/ask
func (s *APIV1Service) Ask(c echo.Context) error {
	if s.Engine == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "question answering unavailable, AI is not configured")
	}

	req := &askRequest{}
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body").SetInternal(err)
	}
	if req.Question == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "question is required")
	}

	askReq := &search.AskRequest{
		Question:    req.Question,
		TopK:        req.TopK,
		ChatHistory: req.ChatHistory,
	}
	if req.AdHocDatasetID != "" {
		if dataset, ok := s.adHocSessions.Load(req.AdHocDatasetID); ok {
			askReq.AdHoc = dataset.(*search.AdHocDataset)
		} else {
			return echo.NewHTTPError(http.StatusNotFound, "unknown ad-hoc dataset")
		}
	}

	if req.Stream || strings.Contains(c.Request().Header.Get("Accept"), "text/event-stream") {
		return s.askStream(c, askReq)
	}

	resp, err := s.Engine.Ask(c.Request().Context(), askReq)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "question answering failed").SetInternal(err)
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *APIV1Service) askStream(c echo.Context, askReq *search.AskRequest) error {
	w := c.Response()
	w.Header().Set(echo.HeaderContentType, "text/event-stream")
	w.Header().Set(echo.HeaderCacheControl, "no-cache")
	w.Header().Set(echo.HeaderConnection, "keep-alive")
	w.WriteHeader(http.StatusOK)

	askReq.StreamHandler = func(chunk string) {
		writeSSE(w, "answer", chunk)
		w.Flush()
	}

	resp, err := s.Engine.Ask(c.Request().Context(), askReq)
	if err != nil {
		writeSSE(w, "error", err.Error())
		w.Flush()
		return nil
	}

	payload, err := json.Marshal(resp)
	if err != nil {
		writeSSE(w, "error", "failed to encode response")
		w.Flush()
		return nil
	}
	writeSSE(w, "result", string(payload))
	w.Flush()
	return nil
}

func writeSSE(w *echo.Response, event, data string) {
	fmt.Fprintf(w, "event: %s\n", event)
	payload, _ := json.Marshal(data)
	fmt.Fprintf(w, "data: %s\n\n", payload)
}

// UploadAdHocDataset ingests a CSV of parts for use in one conversation.
// Columns are positional: name, then optional type, description, sequence.
//
// POST /api/v1/tools/adhoc_dataset (multipart field "file")
func (s *APIV1Service) UploadAdHocDataset(c echo.Context) error {
	if s.Searcher == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "dataset upload unavailable, AI is not configured")
	}

	file, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "csv file is required").SetInternal(err)
	}
	src, err := file.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "failed to open uploaded file").SetInternal(err)
	}
	defer src.Close()

	ctx := c.Request().Context()
	provider, err := s.Searcher.Provider(ctx)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "embedding provider unavailable").SetInternal(err)
	}

	dataset, err := search.LoadAdHocCSV(ctx, src, provider)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	id := uuid.NewString()
	s.adHocSessions.Store(id, dataset)

	return c.JSON(http.StatusOK, map[string]any{
		"dataset_id": id,
		"parts":      len(dataset.Parts),
	})
}

// DeleteAdHocDataset discards an uploaded dataset.
//
// DELETE /api/v1/tools/adhoc_dataset/:id
func (s *APIV1Service) DeleteAdHocDataset(c echo.Context) error {
	s.adHocSessions.Delete(c.Param("id"))
	return c.NoContent(http.StatusNoContent)
}
