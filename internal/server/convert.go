package server

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"bankconv/internal/history"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// convertStatementHandler handles POST /api/convert-statement: it stores the
// uploaded PDF in a temp file, acquires a usable upstream token, uploads the
// statement, polls for the converted artifact, and streams the CSV back.
func (s *Server) convertStatementHandler(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "A valid PDF file is required",
			Code:  "MISSING_FILE",
		})
		return
	}
	if !strings.HasSuffix(strings.ToLower(fileHeader.Filename), ".pdf") {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "A valid PDF file is required",
			Code:  "INVALID_FILE_TYPE",
		})
		return
	}

	tempPath := filepath.Join(os.TempDir(), fmt.Sprintf("statement-%s.pdf", uuid.New()))
	if err := c.SaveUploadedFile(fileHeader, tempPath); err != nil {
		s.logger.Error("failed to save uploaded file", "error", err)
		s.internalError(c)
		return
	}
	// The temp file is request-scoped; drop it on every exit path.
	defer func() {
		if err := os.Remove(tempPath); err != nil {
			s.logger.Warn("failed to remove temp file", "path", tempPath, "error", err)
		}
	}()

	ctx := c.Request.Context()
	start := time.Now()

	token, err := s.sessions.AcquireToken(ctx)
	if err != nil {
		s.logger.Error("failed to acquire session token", "error", err)
		s.recordHistory(c, fileHeader.Filename, "", history.StatusFailed, start)
		s.internalError(c)
		return
	}

	file, err := os.Open(tempPath)
	if err != nil {
		s.logger.Error("failed to reopen temp file", "path", tempPath, "error", err)
		s.internalError(c)
		return
	}
	artifactID, err := s.converter.Upload(ctx, token, file, fileHeader.Filename)
	file.Close()
	if err != nil {
		s.logger.Error("statement upload failed", "filename", fileHeader.Filename, "error", err)
		s.recordHistory(c, fileHeader.Filename, "", history.StatusFailed, start)
		s.internalError(c)
		return
	}

	csvData, err := s.converter.PollConvert(ctx, token, artifactID)
	if err != nil {
		s.logger.Error("conversion failed", "artifact_id", artifactID, "error", err)
		s.recordHistory(c, fileHeader.Filename, artifactID, history.StatusFailed, start)
		s.internalError(c)
		return
	}

	// The artifact is already paid for; a failed counter write only delays
	// the next renewal, so it must not fail the request.
	if _, err := s.sessions.RecordUsage(ctx); err != nil {
		s.logger.Warn("failed to record token usage", "error", err)
	}

	s.recordHistory(c, fileHeader.Filename, artifactID, history.StatusSucceeded, start)

	stem := strings.TrimSuffix(fileHeader.Filename, filepath.Ext(fileHeader.Filename))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=converted_%s.csv", stem))
	c.Data(http.StatusOK, "text/csv", csvData)
}

func (s *Server) internalError(c *gin.Context) {
	c.JSON(http.StatusInternalServerError, ErrorResponse{
		Error: "An internal server error occurred",
		Code:  "CONVERSION_FAILED",
	})
}

// recordHistory writes the audit record when a database is configured.
func (s *Server) recordHistory(c *gin.Context, filename, artifactID, status string, start time.Time) {
	if s.history == nil {
		return
	}
	rec := history.Record{
		Filename:   filename,
		ArtifactID: artifactID,
		Status:     status,
		Duration:   time.Since(start),
	}
	if err := s.history.Record(c.Request.Context(), rec); err != nil {
		s.logger.Warn("failed to record conversion history", "error", err)
	}
}
