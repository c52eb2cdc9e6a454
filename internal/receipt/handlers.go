package receipt

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/zombor/receipt-itemizer/internal/extraction"
)

// maxUploadSize caps uploads; high-resolution phone photos run to tens of MB
const maxUploadSize = int64(50 << 20)

const tooLargeMessage = "File is too large. Maximum size is 50MB. Please compress or resize your image."

// setCORSHeaders sets CORS headers on a response
func setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")
	w.Header().Set("Access-Control-Expose-Headers", "X-Request-ID")
	w.Header().Set("Access-Control-Max-Age", "3600")
}

// writeJSON writes v as a JSON response with the given status
func writeJSON(w http.ResponseWriter, r *http.Request, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		requestLogger(r).Error("Error encoding response", "error", err)
	}
}

// writeError writes a JSON error body
func writeError(w http.ResponseWriter, r *http.Request, code int, message string) {
	writeJSON(w, r, code, map[string]string{"error": message})
}

// handleHealth reports liveness
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

// handleListReceipts returns a summary of all receipts
func (s *Server) handleListReceipts(w http.ResponseWriter, r *http.Request) {
	summaries, err := s.service.ListReceipts()
	if err != nil {
		requestLogger(r).Error("Error listing receipts", "error", err)
		writeError(w, r, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, r, http.StatusOK, summaries)
}

// handleUploadReceipt scans an uploaded receipt and returns its items
func (s *Server) handleUploadReceipt(w http.ResponseWriter, r *http.Request) {
	logger := requestLogger(r)

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize+(1<<20))
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		logger.Error("Error parsing multipart form", "error", err)
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, r, http.StatusRequestEntityTooLarge, tooLargeMessage)
			return
		}
		writeError(w, r, http.StatusBadRequest, "Error parsing form")
		return
	}

	f, header, err := r.FormFile("file")
	if err != nil {
		logger.Error("Error getting file from form", "error", err)
		errorMsg := "No file provided"
		if errors.Is(err, http.ErrMissingFile) {
			errorMsg = "No file was selected. Please choose a file to upload."
		}
		writeError(w, r, http.StatusBadRequest, errorMsg)
		return
	}
	defer f.Close()

	if header.Size > maxUploadSize {
		writeError(w, r, http.StatusRequestEntityTooLarge, tooLargeMessage)
		return
	}

	data, err := io.ReadAll(f)
	if err != nil {
		logger.Error("Error reading file data", "error", err, "filename", header.Filename)
		writeError(w, r, http.StatusInternalServerError, "Error reading file. Please try again.")
		return
	}

	contentType := detectContentType(header.Header.Get("Content-Type"), header.Filename)

	scan, err := s.service.ProcessReceipt(r.Context(), header.Filename, data, contentType)
	if err != nil {
		logger.Error("Error processing receipt", "filename", header.Filename, "error", err)
		if errors.Is(err, extraction.ErrNoTextDetected) {
			writeError(w, r, http.StatusUnprocessableEntity, "No text was found on this image. Please try a clearer photo.")
			return
		}
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	status := http.StatusCreated
	if scan.Cached {
		status = http.StatusOK
	}
	writeJSON(w, r, status, scan)
}

// detectContentType prefers the part's declared type and falls back to the extension
func detectContentType(declared, filename string) string {
	contentType := strings.ToLower(strings.TrimSpace(declared))
	if contentType != "" && contentType != "application/octet-stream" {
		return contentType
	}

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	case ".tif", ".tiff":
		return "image/tiff"
	case ".bmp":
		return "image/bmp"
	case ".pdf":
		return "application/pdf"
	case ".heic":
		return "image/heic"
	case ".heif":
		return "image/heif"
	default:
		return "application/octet-stream"
	}
}

// handleGetScan re-extracts and returns the items of a stored receipt
func (s *Server) handleGetScan(w http.ResponseWriter, r *http.Request) {
	scan, err := s.service.GetScan(r.PathValue("id"))
	if err != nil {
		s.notFoundOrError(w, r, err, "Error extracting items")
		return
	}
	writeJSON(w, r, http.StatusOK, scan)
}

// handleExportItems returns the items of a stored receipt as a spreadsheet
func (s *Server) handleExportItems(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	data, err := s.service.ExportItemsXLSX(id)
	if err != nil {
		s.notFoundOrError(w, r, err, "Error exporting items")
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="items-`+shortID(id)+`.xlsx"`)
	w.Write(data)
}

// handleGetReceiptFile returns the file for a receipt
func (s *Server) handleGetReceiptFile(w http.ResponseWriter, r *http.Request) {
	data, contentType, err := s.service.GetReceiptFile(r.PathValue("id"))
	if err != nil {
		s.notFoundOrError(w, r, err, "Error reading file")
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Write(data)
}

// handleDeleteReceipt deletes a receipt
func (s *Server) handleDeleteReceipt(w http.ResponseWriter, r *http.Request) {
	if err := s.service.DeleteReceipt(r.PathValue("id")); err != nil {
		s.notFoundOrError(w, r, err, "Error deleting receipt")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) notFoundOrError(w http.ResponseWriter, r *http.Request, err error, message string) {
	if errors.Is(err, ErrReceiptNotFound) {
		writeError(w, r, http.StatusNotFound, "Receipt not found")
		return
	}
	requestLogger(r).Error(message, "error", err)
	writeError(w, r, http.StatusInternalServerError, message)
}

// shortID returns the first 12 characters of a receipt ID for display
func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}
