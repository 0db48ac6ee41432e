package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/omondijeff/errorlytic/internal/domain"
)

type metaData struct {
	Uploads      map[string]domain.Upload      `json:"uploads"`
	Analyses     map[string]domain.Analysis    `json:"analyses"`
	Walkthroughs map[string]domain.Walkthrough `json:"walkthroughs"`
	Quotations   map[string]domain.Quotation   `json:"quotations"`
}

type Pagination struct {
	Total int `json:"total"`
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Pages int `json:"pages"`
}

// Store is the durable persistence collaborator: a JSON file guarded by one
// RWMutex, written atomically via temp file + rename. Writes are
// last-writer-wins; the Upload status transition is the only serialization
// point the pipeline relies on.
type Store struct {
	mu   sync.RWMutex
	path string
	data metaData
}

func NewStore(baseDir string) (*Store, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	store := &Store{path: filepath.Join(baseDir, "meta.json")}
	if err := store.Load(); err != nil {
		return nil, err
	}
	return store, nil
}

func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data = metaData{}
	s.ensureMaps()

	file, err := os.Open(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return s.saveLocked()
	}
	if err != nil {
		return fmt.Errorf("open meta file: %w", err)
	}
	defer file.Close()

	decoder := json.NewDecoder(file)
	if err := decoder.Decode(&s.data); err != nil {
		if errors.Is(err, io.EOF) {
			return s.saveLocked()
		}
		return fmt.Errorf("decode meta file: %w", err)
	}

	s.ensureMaps()
	return nil
}

// Uploads --------------------------------------------------------------

func (s *Store) CreateUpload(upload domain.Upload) (domain.Upload, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if upload.ID == "" {
		upload.ID = uuid.NewString()
	}
	upload.Status = domain.UploadStatusUploaded
	now := time.Now().Unix()
	upload.CreatedAt = now
	upload.UpdatedAt = now

	s.data.Uploads[upload.ID] = upload

	if err := s.saveLocked(); err != nil {
		return domain.Upload{}, err
	}
	return upload, nil
}

func (s *Store) GetUpload(id string) (domain.Upload, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	upload, ok := s.data.Uploads[id]
	if !ok {
		return domain.Upload{}, domain.NotFoundf("upload %s", id)
	}
	return upload, nil
}

// MarkUploadParsed advances uploaded→parsed and caches the parse result.
// Any other starting state fails with ErrNotFound, which is what makes
// re-parsing an already-processed upload an at-most-once operation.
func (s *Store) MarkUploadParsed(id string, result *domain.ParseResult) (domain.Upload, error) {
	return s.transitionUpload(id, domain.UploadStatusParsed, result, "")
}

// MarkUploadFailed advances uploaded→failed, recording the parser's error.
func (s *Store) MarkUploadFailed(id, reason string) (domain.Upload, error) {
	return s.transitionUpload(id, domain.UploadStatusFailed, nil, reason)
}

func (s *Store) transitionUpload(id, to string, result *domain.ParseResult, reason string) (domain.Upload, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	upload, ok := s.data.Uploads[id]
	if !ok {
		return domain.Upload{}, domain.NotFoundf("upload %s", id)
	}
	if upload.Status != domain.UploadStatusUploaded {
		return domain.Upload{}, domain.NotFoundf("upload %s is not awaiting parsing (status %s)", id, upload.Status)
	}

	upload.Status = to
	upload.Parsed = result
	upload.ParseError = reason
	upload.UpdatedAt = time.Now().Unix()
	s.data.Uploads[id] = upload

	if err := s.saveLocked(); err != nil {
		return domain.Upload{}, err
	}
	return upload, nil
}

// DeleteUpload removes an upload and cascades through its analysis, the
// analysis's walkthrough and any quotations priced from it.
func (s *Store) DeleteUpload(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.data.Uploads[id]; !ok {
		return domain.NotFoundf("upload %s", id)
	}

	for analysisID, analysis := range s.data.Analyses {
		if analysis.UploadID != id {
			continue
		}
		s.deleteAnalysisCascadeLocked(analysisID)
	}

	delete(s.data.Uploads, id)
	return s.saveLocked()
}

func (s *Store) deleteAnalysisCascadeLocked(analysisID string) {
	for wid, walkthrough := range s.data.Walkthroughs {
		if walkthrough.AnalysisID == analysisID {
			delete(s.data.Walkthroughs, wid)
		}
	}
	for qid, quote := range s.data.Quotations {
		if quote.AnalysisID == analysisID {
			delete(s.data.Quotations, qid)
		}
	}
	delete(s.data.Analyses, analysisID)
}

// Analyses -------------------------------------------------------------

func (s *Store) CreateAnalysis(analysis domain.Analysis) (domain.Analysis, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if analysis.ID == "" {
		analysis.ID = uuid.NewString()
	}
	now := time.Now().Unix()
	analysis.CreatedAt = now
	analysis.UpdatedAt = now

	s.data.Analyses[analysis.ID] = analysis

	if err := s.saveLocked(); err != nil {
		return domain.Analysis{}, err
	}
	return analysis, nil
}

func (s *Store) GetAnalysis(id string) (domain.Analysis, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	analysis, ok := s.data.Analyses[id]
	if !ok {
		return domain.Analysis{}, domain.NotFoundf("analysis %s", id)
	}
	return analysis, nil
}

// ListAnalyses pages through analyses, newest first.
func (s *Store) ListAnalyses(page, limit int) ([]domain.Analysis, Pagination) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}

	analyses := make([]domain.Analysis, 0, len(s.data.Analyses))
	for _, analysis := range s.data.Analyses {
		analyses = append(analyses, analysis)
	}
	sort.Slice(analyses, func(i, j int) bool {
		if analyses[i].CreatedAt != analyses[j].CreatedAt {
			return analyses[i].CreatedAt > analyses[j].CreatedAt
		}
		return analyses[i].ID < analyses[j].ID
	})

	total := len(analyses)
	pages := (total + limit - 1) / limit

	start := (page - 1) * limit
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}

	return analyses[start:end], Pagination{Total: total, Page: page, Limit: limit, Pages: pages}
}

// Walkthroughs ---------------------------------------------------------

// SaveWalkthrough replaces any existing walkthrough for the same analysis
// wholesale; a walkthrough is 1:1 with its analysis.
func (s *Store) SaveWalkthrough(walkthrough domain.Walkthrough) (domain.Walkthrough, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if walkthrough.ID == "" {
		walkthrough.ID = uuid.NewString()
	}
	walkthrough.UpdatedAt = time.Now().Unix()

	for wid, existing := range s.data.Walkthroughs {
		if existing.AnalysisID == walkthrough.AnalysisID && wid != walkthrough.ID {
			delete(s.data.Walkthroughs, wid)
		}
	}

	s.data.Walkthroughs[walkthrough.ID] = walkthrough

	if err := s.saveLocked(); err != nil {
		return domain.Walkthrough{}, err
	}
	return walkthrough, nil
}

func (s *Store) GetWalkthroughByAnalysis(analysisID string) (domain.Walkthrough, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, walkthrough := range s.data.Walkthroughs {
		if walkthrough.AnalysisID == analysisID {
			return walkthrough, nil
		}
	}
	return domain.Walkthrough{}, domain.NotFoundf("walkthrough for analysis %s", analysisID)
}

// Quotations -----------------------------------------------------------

func (s *Store) CreateQuotation(quote domain.Quotation) (domain.Quotation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if quote.ID == "" {
		quote.ID = uuid.NewString()
	}
	if quote.Status == "" {
		quote.Status = domain.QuoteStatusDraft
	}
	now := time.Now().Unix()
	if quote.CreatedAt == 0 {
		quote.CreatedAt = now
	}
	quote.UpdatedAt = now

	s.data.Quotations[quote.ID] = quote

	if err := s.saveLocked(); err != nil {
		return domain.Quotation{}, err
	}
	return quote, nil
}

func (s *Store) GetQuotation(id string) (domain.Quotation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	quote, ok := s.data.Quotations[id]
	if !ok {
		return domain.Quotation{}, domain.NotFoundf("quotation %s", id)
	}
	return quote, nil
}

// UpdateQuotationDraft applies field updates to a draft quotation. Any other
// status rejects the write.
func (s *Store) UpdateQuotationDraft(quote domain.Quotation) (domain.Quotation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.data.Quotations[quote.ID]
	if !ok {
		return domain.Quotation{}, domain.NotFoundf("quotation %s", quote.ID)
	}
	if existing.Status != domain.QuoteStatusDraft {
		return domain.Quotation{}, fmt.Errorf("quotation %s is %s and can no longer be edited: %w", quote.ID, existing.Status, domain.ErrConflict)
	}

	quote.Status = existing.Status
	quote.ShareLinkID = existing.ShareLinkID
	quote.CreatedAt = existing.CreatedAt
	quote.UpdatedAt = time.Now().Unix()
	s.data.Quotations[quote.ID] = quote

	if err := s.saveLocked(); err != nil {
		return domain.Quotation{}, err
	}
	return quote, nil
}

// quoteTransitions is the one-directional status machine:
// draft→sent, sent→approved|rejected. Terminal states accept nothing.
var quoteTransitions = map[string]map[string]bool{
	domain.QuoteStatusSent:     {domain.QuoteStatusDraft: true},
	domain.QuoteStatusApproved: {domain.QuoteStatusSent: true},
	domain.QuoteStatusRejected: {domain.QuoteStatusSent: true},
}

func (s *Store) TransitionQuotation(id, to string) (domain.Quotation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	quote, ok := s.data.Quotations[id]
	if !ok {
		return domain.Quotation{}, domain.NotFoundf("quotation %s", id)
	}

	allowedFrom, ok := quoteTransitions[to]
	if !ok || !allowedFrom[quote.Status] {
		return domain.Quotation{}, fmt.Errorf("quotation %s cannot move from %s to %s: %w", id, quote.Status, to, domain.ErrConflict)
	}

	quote.Status = to
	quote.UpdatedAt = time.Now().Unix()
	s.data.Quotations[id] = quote

	if err := s.saveLocked(); err != nil {
		return domain.Quotation{}, err
	}
	return quote, nil
}

// SetShareLink stores a share token exactly once. An existing token is
// returned unchanged; tokens are immutable for the life of the quotation.
func (s *Store) SetShareLink(id, token string) (domain.Quotation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	quote, ok := s.data.Quotations[id]
	if !ok {
		return domain.Quotation{}, domain.NotFoundf("quotation %s", id)
	}

	if quote.ShareLinkID != "" {
		return quote, nil
	}

	quote.ShareLinkID = token
	quote.UpdatedAt = time.Now().Unix()
	s.data.Quotations[id] = quote

	if err := s.saveLocked(); err != nil {
		return domain.Quotation{}, err
	}
	return quote, nil
}

func (s *Store) GetQuotationByShareToken(token string) (domain.Quotation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if token != "" {
		for _, quote := range s.data.Quotations {
			if quote.ShareLinkID == token {
				return quote, nil
			}
		}
	}
	return domain.Quotation{}, domain.NotFoundf("shared quotation")
}

// ----------------------------------------------------------------------

func (s *Store) saveLocked() error {
	tmp, err := os.CreateTemp(filepath.Dir(s.path), "meta-*.json")
	if err != nil {
		return fmt.Errorf("create temp meta: %w", err)
	}

	encoder := json.NewEncoder(tmp)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(s.data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("encode meta: %w", err)
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close temp meta: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace meta file: %w", err)
	}

	return nil
}

func (s *Store) ensureMaps() {
	if s.data.Uploads == nil {
		s.data.Uploads = map[string]domain.Upload{}
	}
	if s.data.Analyses == nil {
		s.data.Analyses = map[string]domain.Analysis{}
	}
	if s.data.Walkthroughs == nil {
		s.data.Walkthroughs = map[string]domain.Walkthrough{}
	}
	if s.data.Quotations == nil {
		s.data.Quotations = map[string]domain.Quotation{}
	}
}
