package storage

import (
	"errors"
	"fmt"
	"testing"

	"github.com/omondijeff/errorlytic/internal/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return store
}

func TestUploadParseTransition(t *testing.T) {
	store := newTestStore(t)

	upload, err := store.CreateUpload(domain.Upload{StorageKey: "r1.txt", Filename: "report.txt"})
	if err != nil {
		t.Fatalf("create upload: %v", err)
	}
	if upload.Status != domain.UploadStatusUploaded {
		t.Fatalf("expected uploaded status, got %s", upload.Status)
	}

	result := &domain.ParseResult{Success: true}
	parsed, err := store.MarkUploadParsed(upload.ID, result)
	if err != nil {
		t.Fatalf("mark parsed: %v", err)
	}
	if parsed.Status != domain.UploadStatusParsed || parsed.Parsed == nil {
		t.Fatalf("unexpected parsed upload: %+v", parsed)
	}

	// Re-parsing an already-parsed upload must fail as not found.
	if _, err := store.MarkUploadParsed(upload.ID, result); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not-found on second parse, got %v", err)
	}
}

func TestUploadFailedTransition(t *testing.T) {
	store := newTestStore(t)

	upload, _ := store.CreateUpload(domain.Upload{StorageKey: "r1.txt"})

	failed, err := store.MarkUploadFailed(upload.ID, "no structured content")
	if err != nil {
		t.Fatalf("mark failed: %v", err)
	}
	if failed.Status != domain.UploadStatusFailed || failed.ParseError == "" {
		t.Fatalf("unexpected failed upload: %+v", failed)
	}

	if _, err := store.MarkUploadParsed(upload.ID, &domain.ParseResult{}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("failed upload must not be parseable, got %v", err)
	}
}

func TestDeleteUploadCascades(t *testing.T) {
	store := newTestStore(t)

	upload, _ := store.CreateUpload(domain.Upload{StorageKey: "r1.txt"})
	analysis, err := store.CreateAnalysis(domain.Analysis{UploadID: upload.ID})
	if err != nil {
		t.Fatalf("create analysis: %v", err)
	}
	walkthrough, err := store.SaveWalkthrough(domain.Walkthrough{AnalysisID: analysis.ID})
	if err != nil {
		t.Fatalf("save walkthrough: %v", err)
	}
	quote, err := store.CreateQuotation(domain.Quotation{AnalysisID: analysis.ID, WalkthroughID: walkthrough.ID})
	if err != nil {
		t.Fatalf("create quotation: %v", err)
	}

	if err := store.DeleteUpload(upload.ID); err != nil {
		t.Fatalf("delete upload: %v", err)
	}

	if _, err := store.GetUpload(upload.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("upload should be gone, got %v", err)
	}
	if _, err := store.GetAnalysis(analysis.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("analysis should cascade, got %v", err)
	}
	if _, err := store.GetWalkthroughByAnalysis(analysis.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("walkthrough should cascade, got %v", err)
	}
	if _, err := store.GetQuotation(quote.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("quotation should cascade, got %v", err)
	}
}

func TestWalkthroughReplacedWholesale(t *testing.T) {
	store := newTestStore(t)

	first, _ := store.SaveWalkthrough(domain.Walkthrough{AnalysisID: "a-1", Difficulty: domain.DifficultyEasy})
	second, _ := store.SaveWalkthrough(domain.Walkthrough{AnalysisID: "a-1", Difficulty: domain.DifficultyHard})

	got, err := store.GetWalkthroughByAnalysis("a-1")
	if err != nil {
		t.Fatalf("get walkthrough: %v", err)
	}
	if got.ID != second.ID || got.Difficulty != domain.DifficultyHard {
		t.Fatalf("expected replacement walkthrough, got %+v", got)
	}
	if first.ID == second.ID {
		t.Fatalf("replacement should mint a new walkthrough")
	}
}

func TestListAnalysesPagination(t *testing.T) {
	store := newTestStore(t)

	for i := 0; i < 5; i++ {
		if _, err := store.CreateAnalysis(domain.Analysis{UploadID: fmt.Sprintf("u-%d", i)}); err != nil {
			t.Fatalf("create analysis %d: %v", i, err)
		}
	}

	items, pagination := store.ListAnalyses(1, 3)
	if len(items) != 3 {
		t.Fatalf("expected 3 items on page 1, got %d", len(items))
	}
	if pagination.Total != 5 || pagination.Pages != 2 {
		t.Fatalf("unexpected pagination: %+v", pagination)
	}

	rest, _ := store.ListAnalyses(2, 3)
	if len(rest) != 2 {
		t.Fatalf("expected 2 items on page 2, got %d", len(rest))
	}

	beyond, _ := store.ListAnalyses(3, 3)
	if len(beyond) != 0 {
		t.Fatalf("expected empty page beyond the end, got %d", len(beyond))
	}
}

func TestQuotationStateMachine(t *testing.T) {
	store := newTestStore(t)

	quote, _ := store.CreateQuotation(domain.Quotation{AnalysisID: "a-1"})
	if quote.Status != domain.QuoteStatusDraft {
		t.Fatalf("expected draft, got %s", quote.Status)
	}

	// draft cannot be approved directly
	if _, err := store.TransitionQuotation(quote.ID, domain.QuoteStatusApproved); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected conflict for draft→approved, got %v", err)
	}

	sent, err := store.TransitionQuotation(quote.ID, domain.QuoteStatusSent)
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if sent.Status != domain.QuoteStatusSent {
		t.Fatalf("expected sent, got %s", sent.Status)
	}

	// sent quotations are no longer editable
	sent.TaxPct = 25
	if _, err := store.UpdateQuotationDraft(sent); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected conflict editing sent quote, got %v", err)
	}

	approved, err := store.TransitionQuotation(quote.ID, domain.QuoteStatusApproved)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if approved.Status != domain.QuoteStatusApproved {
		t.Fatalf("expected approved, got %s", approved.Status)
	}

	// terminal states accept nothing further
	if _, err := store.TransitionQuotation(quote.ID, domain.QuoteStatusRejected); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected conflict after terminal state, got %v", err)
	}
	if _, err := store.TransitionQuotation(quote.ID, domain.QuoteStatusSent); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected conflict reverting terminal state, got %v", err)
	}
}

func TestShareLinkImmutable(t *testing.T) {
	store := newTestStore(t)

	quote, _ := store.CreateQuotation(domain.Quotation{AnalysisID: "a-1"})

	withToken, err := store.SetShareLink(quote.ID, "aabbccddeeff00112233445566778899")
	if err != nil {
		t.Fatalf("set share link: %v", err)
	}

	again, err := store.SetShareLink(quote.ID, "ffffffffffffffffffffffffffffffff")
	if err != nil {
		t.Fatalf("second set share link: %v", err)
	}
	if again.ShareLinkID != withToken.ShareLinkID {
		t.Fatalf("share token must be immutable: %s vs %s", again.ShareLinkID, withToken.ShareLinkID)
	}

	found, err := store.GetQuotationByShareToken(withToken.ShareLinkID)
	if err != nil {
		t.Fatalf("lookup by token: %v", err)
	}
	if found.ID != quote.ID {
		t.Fatalf("token resolved the wrong quotation")
	}

	if _, err := store.GetQuotationByShareToken("00000000000000000000000000000000"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("unknown token must fail closed, got %v", err)
	}

	if _, err := store.GetQuotationByShareToken(""); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("empty token must fail closed, got %v", err)
	}
}

func TestStoreReload(t *testing.T) {
	dir := t.TempDir()

	store, err := NewStore(dir)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	upload, _ := store.CreateUpload(domain.Upload{StorageKey: "r1.txt", Filename: "report.txt"})

	reopened, err := NewStore(dir)
	if err != nil {
		t.Fatalf("reopen store: %v", err)
	}
	got, err := reopened.GetUpload(upload.ID)
	if err != nil {
		t.Fatalf("get after reload: %v", err)
	}
	if got.Filename != "report.txt" {
		t.Fatalf("reloaded upload mismatch: %+v", got)
	}
}
