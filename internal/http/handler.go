package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/nurpe/carmate-contracts/internal/http/middleware"
	"github.com/nurpe/carmate-contracts/internal/model"
	"github.com/nurpe/carmate-contracts/internal/service"
)

const (
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	// multipart framing on top of the file itself
	multipartOverhead = 1 << 20
)

type ContractService interface {
	Create(ctx context.Context, actor model.Actor, input service.CreateContractInput) (*model.Contract, error)
	Update(ctx context.Context, actor model.Actor, contractID uint, input service.UpdateContractInput) (*model.Contract, error)
	Delete(ctx context.Context, actor model.Actor, contractID uint) error
	Get(ctx context.Context, actor model.Actor, contractID uint) (*model.Contract, error)
	List(ctx context.Context, actor model.Actor, searchBy, keyword string) ([]service.ContractColumn, error)
	Summary(ctx context.Context, actor model.Actor, contractID uint) (string, []byte, error)
	SelectableCars(ctx context.Context, actor model.Actor) ([]model.SelectOption, error)
	SelectableCustomers(ctx context.Context, actor model.Actor) ([]model.SelectOption, error)
	SelectableUsers(ctx context.Context, actor model.Actor) ([]model.SelectOption, error)
}

type DocumentService interface {
	Upload(ctx context.Context, input service.UploadDocumentInput) (*model.ContractDocument, error)
	Download(ctx context.Context, token string, documentID uint) (*model.ContractDocument, io.ReadCloser, error)
	Open(ctx context.Context, actor model.Actor, documentID uint) (*model.ContractDocument, io.ReadCloser, error)
	Reconcile(ctx context.Context, actor model.Actor, contractID uint, targets []model.DocumentRef) error
	Drafts(ctx context.Context, actor model.Actor) ([]model.SelectOption, error)
	ListContracts(ctx context.Context, actor model.Actor, query service.DocumentListQuery) (*service.DocumentPage, error)
}

type ImportService interface {
	BulkImportCars(ctx context.Context, companyID uint, file service.ImportFile) (*model.ImportResult, error)
	BulkImportCustomers(ctx context.Context, companyID uint, file service.ImportFile) (*model.ImportResult, error)
	FailureReport(result model.ImportResult) ([]byte, error)
}

type HealthChecker interface {
	Ping(ctx context.Context) error
}

type Limits struct {
	MaxDocumentBytes int64
	MaxCSVBytes      int64
}

type Handler struct {
	contracts ContractService
	documents DocumentService
	imports   ImportService
	health    HealthChecker
	limits    Limits
	log       zerolog.Logger
}

func NewHandler(contracts ContractService, documents DocumentService, imports ImportService, health HealthChecker, limits Limits, log zerolog.Logger) *Handler {
	return &Handler{
		contracts: contracts,
		documents: documents,
		imports:   imports,
		health:    health,
		limits:    limits,
		log:       log,
	}
}

func (h *Handler) Register(router *gin.Engine, authMiddleware gin.HandlerFunc) {
	router.GET("/healthz", h.healthz)
	router.GET("/contractDocuments/download", h.downloadDocument)

	protected := router.Group("/")
	protected.Use(authMiddleware)
	protected.POST("/contracts", h.createContract)
	protected.GET("/contracts", h.listContracts)
	protected.GET("/contracts/cars", h.selectOptions(h.contracts.SelectableCars))
	protected.GET("/contracts/customers", h.selectOptions(h.contracts.SelectableCustomers))
	protected.GET("/contracts/users", h.selectOptions(h.contracts.SelectableUsers))
	protected.GET("/contracts/:id", h.getContract)
	protected.PATCH("/contracts/:id", h.updateContract)
	protected.DELETE("/contracts/:id", h.deleteContract)
	protected.GET("/contracts/:id/summary.pdf", h.contractSummary)
	protected.PUT("/contracts/:id/contractDocuments", h.reconcileDocuments)
	protected.GET("/contractDocuments", h.listDocumentContracts)
	protected.GET("/contractDocuments/draft", h.selectOptions(h.documents.Drafts))
	protected.POST("/contractDocuments/upload", h.uploadDocument)
	protected.GET("/contractDocuments/:id/download", h.openDocument)
	protected.POST("/cars/upload", h.importCars)
	protected.POST("/customers/upload", h.importCustomers)
}

func (h *Handler) healthz(c *gin.Context) {
	if err := h.health.Ping(c.Request.Context()); err != nil {
		h.log.Error().Err(err).Msg("health check failed")
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) createContract(c *gin.Context) {
	actor, ok := middleware.MustActor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing actor"})
		return
	}

	var req createContractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	contract, err := h.contracts.Create(c.Request.Context(), actor, service.CreateContractInput{
		CarID:      req.CarID,
		CustomerID: req.CustomerID,
		Meetings:   toMeetingInputs(req.Meetings),
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toContractResponse(*contract))
}

func (h *Handler) listContracts(c *gin.Context) {
	actor, ok := middleware.MustActor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing actor"})
		return
	}

	columns, err := h.contracts.List(c.Request.Context(), actor, c.Query("searchBy"), strings.TrimSpace(c.Query("keyword")))
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, toBoardResponse(columns))
}

func (h *Handler) getContract(c *gin.Context) {
	actor, ok := middleware.MustActor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing actor"})
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	contract, err := h.contracts.Get(c.Request.Context(), actor, id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, toContractResponse(*contract))
}

func (h *Handler) updateContract(c *gin.Context) {
	actor, ok := middleware.MustActor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing actor"})
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	var req updateContractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	contract, err := h.contracts.Update(c.Request.Context(), actor, id, req.toInput())
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, toContractResponse(*contract))
}

func (h *Handler) deleteContract(c *gin.Context) {
	actor, ok := middleware.MustActor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing actor"})
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	if err := h.contracts.Delete(c.Request.Context(), actor, id); err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "contract deleted"})
}

func (h *Handler) contractSummary(c *gin.Context) {
	actor, ok := middleware.MustActor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing actor"})
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	fileName, content, err := h.contracts.Summary(c.Request.Context(), actor, id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.Header("Content-Disposition", attachment(fileName))
	c.Data(http.StatusOK, "application/pdf", content)
}

type optionsFunc func(ctx context.Context, actor model.Actor) ([]model.SelectOption, error)

func (h *Handler) selectOptions(list optionsFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := middleware.MustActor(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing actor"})
			return
		}

		options, err := list(c.Request.Context(), actor)
		if err != nil {
			h.handleError(c, err)
			return
		}
		c.JSON(http.StatusOK, toOptionResponses(options))
	}
}

func (h *Handler) reconcileDocuments(c *gin.Context) {
	actor, ok := middleware.MustActor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing actor"})
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	var req reconcileDocumentsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.documents.Reconcile(c.Request.Context(), actor, id, toDocumentRefs(req.ContractDocuments)); err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "contract documents updated"})
}

func (h *Handler) listDocumentContracts(c *gin.Context) {
	actor, ok := middleware.MustActor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing actor"})
		return
	}

	var req documentListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	page, err := h.documents.ListContracts(c.Request.Context(), actor, service.DocumentListQuery{
		Page:     req.Page,
		PageSize: req.PageSize,
		SearchBy: req.SearchBy,
		Keyword:  strings.TrimSpace(req.Keyword),
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, toDocumentPageResponse(*page))
}

func (h *Handler) openDocument(c *gin.Context) {
	actor, ok := middleware.MustActor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing actor"})
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	doc, body, err := h.documents.Open(c.Request.Context(), actor, id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	h.streamDocument(c, doc, body)
}

func (h *Handler) uploadDocument(c *gin.Context) {
	actor, ok := middleware.MustActor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing actor"})
		return
	}

	name, content, ok := h.readUpload(c, h.limits.MaxDocumentBytes)
	if !ok {
		return
	}

	doc, err := h.documents.Upload(c.Request.Context(), service.UploadDocumentInput{
		Actor:    actor,
		FileName: name,
		Content:  content,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"contractDocumentId": doc.ID})
}

func (h *Handler) downloadDocument(c *gin.Context) {
	token := strings.TrimSpace(c.Query("token"))
	docID, err := strconv.ParseUint(c.Query("docId"), 10, 64)
	if token == "" || err != nil || docID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "token and docId are required"})
		return
	}

	doc, body, err := h.documents.Download(c.Request.Context(), token, uint(docID))
	if err != nil {
		h.handleError(c, err)
		return
	}
	h.streamDocument(c, doc, body)
}

func (h *Handler) streamDocument(c *gin.Context, doc *model.ContractDocument, body io.ReadCloser) {
	defer body.Close()

	contentType := doc.MimeType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.DataFromReader(http.StatusOK, doc.Size, contentType, body, map[string]string{
		"Content-Disposition": attachment(doc.FileName),
	})
}

func (h *Handler) importCars(c *gin.Context) {
	h.runImport(c, h.imports.BulkImportCars)
}

func (h *Handler) importCustomers(c *gin.Context) {
	h.runImport(c, h.imports.BulkImportCustomers)
}

type importFunc func(ctx context.Context, companyID uint, file service.ImportFile) (*model.ImportResult, error)

func (h *Handler) runImport(c *gin.Context, run importFunc) {
	actor, ok := middleware.MustActor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing actor"})
		return
	}

	name, content, ok := h.readUpload(c, h.limits.MaxCSVBytes)
	if !ok {
		return
	}

	result, err := run(c.Request.Context(), actor.CompanyID, service.ImportFile{FileName: name, Content: content})
	if err != nil {
		h.handleError(c, err)
		return
	}

	if strings.EqualFold(c.Query("report"), "xlsx") {
		report, err := h.imports.FailureReport(*result)
		if err != nil {
			h.handleError(c, err)
			return
		}
		c.Header("Content-Disposition", attachment("import_result.xlsx"))
		c.Data(http.StatusOK, xlsxContentType, report)
		return
	}
	c.JSON(http.StatusOK, result)
}

// readUpload reads the multipart "file" field. It writes the error response
// itself and reports ok=false when the request cannot be served.
func (h *Handler) readUpload(c *gin.Context, limit int64) (string, []byte, bool) {
	if limit > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit+multipartOverhead)
	}
	header, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file is too large"})
			return "", nil, false
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "multipart field \"file\" is required"})
		return "", nil, false
	}
	if limit > 0 && header.Size > limit {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": fmt.Sprintf("file exceeds %d bytes", limit)})
		return "", nil, false
	}

	file, err := header.Open()
	if err != nil {
		h.handleError(c, err)
		return "", nil, false
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		h.handleError(c, err)
		return "", nil, false
	}
	return header.Filename, content, true
}

func (h *Handler) pathID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return uint(id), true
}

func (h *Handler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidTransition):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrCarUnavailable):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	default:
		h.log.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// attachment builds a Content-Disposition value that survives non-ASCII names.
func attachment(fileName string) string {
	fallback := strings.Map(func(r rune) rune {
		if r < 0x20 || r > 0x7e || r == '"' || r == '\\' {
			return '_'
		}
		return r
	}, fileName)
	return fmt.Sprintf(`attachment; filename="%s"; filename*=UTF-8''%s`, fallback, url.PathEscape(fileName))
}
