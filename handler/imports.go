package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime"
	"net/http"
	"strings"

	"github.com/billbatista/acasinha-finance/importer"
	"github.com/billbatista/acasinha-finance/workspace"
	"github.com/google/uuid"
)

const maxUploadSize = 10 << 20

// importSource is where an import reads its rows from: an uploaded CSV file or
// a Google Sheets range. A nil ProjectID imports personal expenses.
type importSource struct {
	SpreadsheetID string     `json:"spreadsheet_id"`
	Range         string     `json:"range"`
	ProjectID     *uuid.UUID `json:"project_id"`
}

type importResult struct {
	Imported int              `json:"imported"`
	Preview  importer.Preview `json:"preview"`
}

func (h *Handler) importTemplate(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := importer.WriteTemplate(&buf); err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename=expense_template.csv")
	_, _ = w.Write(buf.Bytes())
}

func (h *Handler) importPreview(w http.ResponseWriter, r *http.Request) {
	s, id, ok := h.scope(w, r)
	if !ok {
		return
	}
	preview, _, err := h.readImport(w, r, s, id.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, preview)
}

// importCommit re-reads the source and saves its valid rows. Invalid rows are
// reported back but never saved.
func (h *Handler) importCommit(w http.ResponseWriter, r *http.Request) {
	s, id, ok := h.scope(w, r)
	if !ok {
		return
	}
	preview, src, err := h.readImport(w, r, s, id.UserID)
	if err != nil {
		writeError(w, err)
		return
	}

	result := importResult{Preview: preview}
	if src.ProjectID != nil {
		entries := preview.Entries(*src.ProjectID)
		if len(entries) > 0 {
			if _, err := s.Projects.ImportEntries(r.Context(), id.UserID, *src.ProjectID, entries); err != nil {
				writeError(w, err)
				return
			}
		}
		result.Imported = len(entries)
	} else {
		result.Imported, err = s.Expenses.BulkCreate(r.Context(), id.UserID, preview.Expenses(id.UserID))
		if err != nil {
			writeError(w, err)
			return
		}
	}

	h.log(id.UserID, "import.committed", map[string]any{
		"imported": result.Imported,
		"invalid":  preview.Invalid,
		"project":  src.ProjectID,
	})
	writeJSON(w, http.StatusCreated, result)
}

func (h *Handler) readImport(w http.ResponseWriter, r *http.Request, s *workspace.Services, userID uuid.UUID) (importer.Preview, importSource, error) {
	records, src, err := h.readRecords(w, r)
	if err != nil {
		return importer.Preview{}, src, err
	}
	names, err := s.Categories.Names(r.Context(), userID)
	if err != nil {
		return importer.Preview{}, src, err
	}
	def, err := reportingCurrency(r, s, userID)
	if err != nil {
		return importer.Preview{}, src, err
	}
	return importer.Parse(records, names, def), src, nil
}

func (h *Handler) readRecords(w http.ResponseWriter, r *http.Request) ([][]string, importSource, error) {
	var src importSource

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if strings.HasPrefix(mediaType, "multipart/") {
		r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
		if err := r.ParseMultipartForm(maxUploadSize); err != nil {
			return nil, src, fmt.Errorf("%w: %v", errBadRequest, err)
		}
		if raw := r.FormValue("project_id"); raw != "" {
			projectID, err := uuid.Parse(raw)
			if err != nil {
				return nil, src, errInvalidID
			}
			src.ProjectID = &projectID
		}
		file, _, err := r.FormFile("file")
		if err != nil {
			return nil, src, fmt.Errorf("%w: %v", errBadRequest, err)
		}
		defer file.Close()

		records, err := importer.ReadCSV(file)
		if err != nil {
			return nil, src, fmt.Errorf("%w: %v", errBadRequest, err)
		}
		return records, src, nil
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := json.NewDecoder(r.Body).Decode(&src); err != nil {
		return nil, src, fmt.Errorf("%w: %v", errBadRequest, err)
	}
	if src.SpreadsheetID == "" {
		return nil, src, fmt.Errorf("%w: spreadsheet_id is required", errBadRequest)
	}
	if src.Range == "" {
		src.Range = "A:E"
	}
	if h.sheets == nil {
		return nil, src, importer.ErrSheetsDisabled
	}
	records, err := h.sheets.Read(r.Context(), src.SpreadsheetID, src.Range)
	if err != nil {
		return nil, src, err
	}
	return records, src, nil
}
