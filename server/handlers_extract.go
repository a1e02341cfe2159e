package server

import (
	"fmt"
	"io"
	"net/http"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/unitab-io/unitab/extract"
	"github.com/unitab-io/unitab/uploads"
)

// maxUploadBytes is the payload size ceiling. The engine holds every table
// in memory, so the cap is deliberate, not incidental.
const maxUploadBytes = 10 << 20

// uploadSummary is the JSON response to a successful upload.
type uploadSummary struct {
	SourceID   int64     `json:"sourceId"`
	Filename   string    `json:"filename"`
	Size       int       `json:"size"`
	ReceivedAt time.Time `json:"receivedAt"`
}

// uploadPayload binds one CSV file to a data source for the caller's
// session, replacing any prior binding for the same source.
func (s *Server) uploadPayload(c *gin.Context) {
	sourceID, err := idParam(c)
	if err != nil {
		badRequest(c, err)

		return
	}

	src, err := s.store.Source(c.Request.Context(), sourceID)
	if err != nil {
		s.fail(c, err)

		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadBytes)

	file, err := c.FormFile("file")
	if err != nil {
		badRequest(c, fmt.Errorf("multipart field %q: %w", "file", err))

		return
	}

	if file.Size > maxUploadBytes {
		c.JSON(http.StatusRequestEntityTooLarge, apiError{
			Kind:    "too_large",
			Message: fmt.Sprintf("payload exceeds %d bytes", maxUploadBytes),
		})

		return
	}

	if !strings.EqualFold(path.Ext(file.Filename), ".csv") {
		badRequest(c, fmt.Errorf("expected a .csv file, got %q", file.Filename))

		return
	}

	f, err := file.Open()
	if err != nil {
		s.fail(c, fmt.Errorf("open upload: %w", err))

		return
	}
	defer func() { _ = f.Close() }()

	data, err := io.ReadAll(f)
	if err != nil {
		s.fail(c, fmt.Errorf("read upload: %w", err))

		return
	}

	payload := uploads.Payload{
		SourceID:   src.ID,
		Filename:   file.Filename,
		Data:       data,
		ReceivedAt: time.Now(),
	}

	s.uploads.Bind(sessionID(c), payload)
	s.metrics.Upload()

	c.JSON(http.StatusOK, uploadSummary{
		SourceID:   payload.SourceID,
		Filename:   payload.Filename,
		Size:       len(payload.Data),
		ReceivedAt: payload.ReceivedAt,
	})
}

// listUploads reports the caller's session bindings.
func (s *Server) listUploads(c *gin.Context) {
	session := sessionID(c)
	view := s.uploads.Session(session)

	out := []uploadSummary{}

	for _, sourceID := range s.uploads.Sources(session) {
		p, ok := view.Payload(sourceID)
		if !ok {
			continue
		}

		out = append(out, uploadSummary{
			SourceID:   p.SourceID,
			Filename:   p.Filename,
			Size:       len(p.Data),
			ReceivedAt: p.ReceivedAt,
		})
	}

	c.JSON(http.StatusOK, out)
}

// runExtraction executes the engine over the caller's session uploads and
// streams the canonical CSV back as an attachment.
func (s *Server) runExtraction(c *gin.Context) {
	systemID, err := idParam(c)
	if err != nil {
		badRequest(c, err)

		return
	}

	started := time.Now()

	result, err := s.extractor.Run(c.Request.Context(), extract.Request{
		SystemID: systemID,
		Payloads: s.uploads.Session(sessionID(c)),
	})
	if err != nil {
		s.metrics.ExtractionFailed(string(extract.KindOf(err)))
		s.fail(c, err)

		return
	}

	for _, w := range result.Warnings {
		s.metrics.Warning(string(w.Kind))
	}

	s.metrics.ExtractionSucceeded(result.Stats.Rows, time.Since(started))

	data, err := result.Encode()
	if err != nil {
		s.fail(c, err)

		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Filename()))
	c.Header("X-Unitab-Warnings", strconv.Itoa(len(result.Warnings)))
	c.Data(http.StatusOK, "text/csv", data)
}
