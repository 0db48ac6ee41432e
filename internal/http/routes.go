package http

import (
	"errors"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/omondijeff/errorlytic/internal/config"
	"github.com/omondijeff/errorlytic/internal/domain"
	"github.com/omondijeff/errorlytic/internal/services"
	"github.com/omondijeff/errorlytic/internal/storage"
)

type API struct {
	cfg      config.Config
	files    *storage.FileManager
	store    *storage.Store
	analyzer *services.Analyzer
	pricing  *services.Pricing
	pdf      *services.PDFService
	share    *services.ShareService
}

func NewAPI(cfg config.Config, fm *storage.FileManager, store *storage.Store, analyzer *services.Analyzer, pricing *services.Pricing, pdf *services.PDFService, share *services.ShareService) *API {
	return &API{cfg: cfg, files: fm, store: store, analyzer: analyzer, pricing: pricing, pdf: pdf, share: share}
}

func registerRoutes(r *gin.Engine, api *API) {
	apiGroup := r.Group("/api")
	{
		apiGroup.GET("/health", api.handleHealth)

		apiGroup.POST("/uploads", api.handleUploadReport)
		apiGroup.GET("/uploads/:id", api.handleGetUpload)
		apiGroup.DELETE("/uploads/:id", api.handleDeleteUpload)
		apiGroup.POST("/uploads/:id/analyze", api.handleAnalyze)

		apiGroup.GET("/analyses", api.handleListAnalyses)
		apiGroup.GET("/analyses/:id", api.handleGetAnalysis)
		apiGroup.POST("/analyses/:id/walkthrough", api.handleGenerateWalkthrough)
		apiGroup.GET("/analyses/:id/walkthrough", api.handleGetWalkthrough)
		apiGroup.POST("/analyses/:id/quotation", api.handleGenerateQuotation)

		apiGroup.GET("/quotations/:id", api.handleGetQuotation)
		apiGroup.PATCH("/quotations/:id", api.handleUpdateQuotation)
		apiGroup.POST("/quotations/:id/send", api.transitionHandler(domain.QuoteStatusSent))
		apiGroup.POST("/quotations/:id/approve", api.transitionHandler(domain.QuoteStatusApproved))
		apiGroup.POST("/quotations/:id/reject", api.transitionHandler(domain.QuoteStatusRejected))
		apiGroup.POST("/quotations/:id/share", api.handleShareQuotation)
		apiGroup.GET("/quotations/:id/pdf", api.handleQuotationPDF)

		apiGroup.GET("/pricing/convert", api.handleConvertCurrency)
		apiGroup.GET("/pricing/parts", api.handleGetPartPricing)
	}

	// Public share-link lookup, no auth on purpose.
	r.GET("/q/:token", api.handleSharedQuotation)
}

func (a *API) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (a *API) handleUploadReport(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		respondMessage(c, http.StatusBadRequest, "missing report file")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		log.Printf("error opening upload: %v", err)
		respondMessage(c, http.StatusInternalServerError, "unable to read uploaded file")
		return
	}
	defer file.Close()

	key, size, mime, err := a.files.SaveReport(file, fileHeader.Filename)
	if err != nil {
		log.Printf("error saving report: %v", err)
		respondMessage(c, http.StatusBadRequest, err.Error())
		return
	}

	upload, err := a.store.CreateUpload(domain.Upload{
		StorageKey: key,
		Filename:   fileHeader.Filename,
		Size:       size,
		Mime:       mime,
		Format:     strings.ToLower(strings.TrimSpace(c.PostForm("format"))),
	})
	if err != nil {
		a.files.Remove(key)
		respondError(c, http.StatusInternalServerError, err)
		return
	}

	c.JSON(http.StatusCreated, upload)
}

func (a *API) handleGetUpload(c *gin.Context) {
	upload, err := a.store.GetUpload(c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, upload)
}

func (a *API) handleDeleteUpload(c *gin.Context) {
	uploadID := c.Param("id")
	upload, err := a.store.GetUpload(uploadID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	if err := a.store.DeleteUpload(uploadID); err != nil {
		respondServiceError(c, err)
		return
	}

	a.files.Remove(upload.StorageKey)
	c.Status(http.StatusNoContent)
}

func (a *API) handleAnalyze(c *gin.Context) {
	resp, err := a.analyzer.ParseAndAnalyze(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (a *API) handleListAnalyses(c *gin.Context) {
	page := queryInt(c, "page", 1)
	limit := queryInt(c, "limit", 10)

	items, pagination := a.store.ListAnalyses(page, limit)
	c.JSON(http.StatusOK, gin.H{"items": items, "pagination": pagination})
}

func (a *API) handleGetAnalysis(c *gin.Context) {
	analysis, err := a.store.GetAnalysis(c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, analysis)
}

func (a *API) handleGenerateWalkthrough(c *gin.Context) {
	walkthrough, err := a.analyzer.GenerateWalkthrough(c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, walkthrough)
}

func (a *API) handleGetWalkthrough(c *gin.Context) {
	walkthrough, err := a.store.GetWalkthroughByAnalysis(c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, walkthrough)
}

type quoteOptionsPayload struct {
	Currency    string   `json:"currency"`
	LaborRate   *float64 `json:"laborRate"`
	MarkupPct   *float64 `json:"markupPct"`
	TaxPct      *float64 `json:"taxPct"`
	UseOEMParts bool     `json:"useOEMParts"`
}

func (a *API) quoteOptions(payload quoteOptionsPayload) services.QuoteOptions {
	opts := services.QuoteOptions{
		Currency:    payload.Currency,
		LaborRate:   a.cfg.DefaultLaborRate,
		MarkupPct:   a.cfg.DefaultMarkupPct,
		TaxPct:      a.cfg.DefaultTaxPct,
		UseOEMParts: payload.UseOEMParts,
	}
	if opts.Currency == "" {
		opts.Currency = a.cfg.BaseCurrency
	}
	if payload.LaborRate != nil {
		opts.LaborRate = *payload.LaborRate
	}
	if payload.MarkupPct != nil {
		opts.MarkupPct = *payload.MarkupPct
	}
	if payload.TaxPct != nil {
		opts.TaxPct = *payload.TaxPct
	}
	return opts
}

func (a *API) handleGenerateQuotation(c *gin.Context) {
	var payload quoteOptionsPayload
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&payload); err != nil {
			respondMessage(c, http.StatusBadRequest, "invalid payload")
			return
		}
	}

	quote, err := a.analyzer.GenerateQuotation(c.Param("id"), a.quoteOptions(payload))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, quote)
}

func (a *API) handleGetQuotation(c *gin.Context) {
	quote, err := a.store.GetQuotation(c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, quote)
}

// handleUpdateQuotation re-prices a draft quotation with new options. The
// walkthrough is the pricing source of truth, so updates go through the
// engine rather than patching totals directly.
func (a *API) handleUpdateQuotation(c *gin.Context) {
	quote, err := a.store.GetQuotation(c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	// The engine takes labor rates in the base currency; convert the stored
	// rate back before seeding the payload defaults.
	baseRate, err := a.pricing.ConvertCurrency(quote.Labor.RatePerHour, quote.Currency, services.BaseCurrency)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	payload := quoteOptionsPayload{
		Currency:    quote.Currency,
		LaborRate:   &baseRate,
		MarkupPct:   &quote.MarkupPct,
		TaxPct:      &quote.TaxPct,
		UseOEMParts: len(quote.Parts) > 0 && quote.Parts[0].IsOEM,
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondMessage(c, http.StatusBadRequest, "invalid payload")
		return
	}

	walkthrough, err := a.store.GetWalkthroughByAnalysis(quote.AnalysisID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	engine := services.NewQuoteEngine(a.pricing)
	repriced, err := engine.Price(walkthrough, a.quoteOptions(payload))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	repriced.ID = quote.ID
	updated, err := a.store.UpdateQuotationDraft(repriced)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (a *API) transitionHandler(to string) gin.HandlerFunc {
	return func(c *gin.Context) {
		quote, err := a.store.TransitionQuotation(c.Param("id"), to)
		if err != nil {
			respondServiceError(c, err)
			return
		}
		c.JSON(http.StatusOK, quote)
	}
}

func (a *API) handleShareQuotation(c *gin.Context) {
	quoteID := c.Param("id")
	quote, err := a.store.GetQuotation(quoteID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	if quote.ShareLinkID == "" {
		token, _, err := a.share.Generate()
		if err != nil {
			respondError(c, http.StatusInternalServerError, err)
			return
		}
		quote, err = a.store.SetShareLink(quoteID, token)
		if err != nil {
			respondServiceError(c, err)
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"shareLinkId": quote.ShareLinkID,
		"url":         a.cfg.BaseURL + "/q/" + quote.ShareLinkID,
	})
}

func (a *API) handleSharedQuotation(c *gin.Context) {
	quote, err := a.store.GetQuotationByShareToken(c.Param("token"))
	if err != nil {
		respondMessage(c, http.StatusNotFound, "not found or expired")
		return
	}
	c.JSON(http.StatusOK, quote)
}

func (a *API) handleQuotationPDF(c *gin.Context) {
	quote, err := a.store.GetQuotation(c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	analysis, err := a.store.GetAnalysis(quote.AnalysisID)
	if err != nil {
		// The document still renders without the diagnosis section.
		log.Printf("quotation %s: analysis %s unavailable for pdf: %v", quote.ID, quote.AnalysisID, err)
		analysis = domain.Analysis{}
	}

	pdfPath := a.files.PDFPath(quote.ID)
	if err := a.pdf.GenerateQuotePDF(quote, analysis, pdfPath); err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return
	}

	if _, err := os.Stat(pdfPath); err != nil {
		respondMessage(c, http.StatusNotFound, "pdf not found")
		return
	}

	c.Header("Content-Type", "application/pdf")
	c.FileAttachment(pdfPath, filepath.Base(pdfPath))
}

func (a *API) handleConvertCurrency(c *gin.Context) {
	amount, err := strconv.ParseFloat(c.Query("amount"), 64)
	if err != nil {
		respondMessage(c, http.StatusBadRequest, "invalid amount")
		return
	}

	from, to := c.Query("from"), c.Query("to")
	if from == "" || to == "" {
		respondMessage(c, http.StatusBadRequest, "from and to currencies are required")
		return
	}

	converted, err := a.pricing.ConvertCurrency(amount, from, to)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"amount": converted, "currency": strings.ToUpper(to)})
}

func (a *API) handleGetPartPricing(c *gin.Context) {
	currency := c.Query("currency")
	if currency == "" {
		currency = a.cfg.BaseCurrency
	}
	isOEM := c.Query("oem") != "false"

	price, err := a.pricing.GetPartPricing(c.Query("name"), currency, isOEM)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, price)
}

func respondServiceError(c *gin.Context, err error) {
	var parseErr *domain.ParseError
	switch {
	case errors.As(err, &parseErr):
		respondMessage(c, http.StatusUnprocessableEntity, parseErr.Error())
	case errors.Is(err, domain.ErrNotFound):
		respondMessage(c, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrValidation):
		respondMessage(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrConflict):
		respondMessage(c, http.StatusConflict, err.Error())
	default:
		log.Printf("internal error: %v", err)
		respondMessage(c, http.StatusInternalServerError, "internal error")
	}
}

func respondError(c *gin.Context, status int, err error) {
	respondMessage(c, status, err.Error())
}

func respondMessage(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}

func queryInt(c *gin.Context, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 1 {
		return fallback
	}
	return value
}
