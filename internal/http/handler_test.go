package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/nurpe/carmate-contracts/internal/auth"
	"github.com/nurpe/carmate-contracts/internal/http/middleware"
	"github.com/nurpe/carmate-contracts/internal/model"
	"github.com/nurpe/carmate-contracts/internal/service"
)

const testSecret = "access-secret"

var seller = model.Actor{ID: 7, CompanyID: 3}

type fakeContracts struct {
	err         error
	created     service.CreateContractInput
	updated     service.UpdateContractInput
	deletedID   uint
	listArgs    [2]string
	contract    model.Contract
	columns     []service.ContractColumn
	summaryName string
	options     []model.SelectOption
}

func (f *fakeContracts) Create(_ context.Context, _ model.Actor, input service.CreateContractInput) (*model.Contract, error) {
	f.created = input
	if f.err != nil {
		return nil, f.err
	}
	return &f.contract, nil
}

func (f *fakeContracts) Update(_ context.Context, _ model.Actor, _ uint, input service.UpdateContractInput) (*model.Contract, error) {
	f.updated = input
	if f.err != nil {
		return nil, f.err
	}
	return &f.contract, nil
}

func (f *fakeContracts) Delete(_ context.Context, _ model.Actor, id uint) error {
	f.deletedID = id
	return f.err
}

func (f *fakeContracts) Get(context.Context, model.Actor, uint) (*model.Contract, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &f.contract, nil
}

func (f *fakeContracts) List(_ context.Context, _ model.Actor, searchBy, keyword string) ([]service.ContractColumn, error) {
	f.listArgs = [2]string{searchBy, keyword}
	return f.columns, f.err
}

func (f *fakeContracts) Summary(context.Context, model.Actor, uint) (string, []byte, error) {
	return f.summaryName, []byte("%PDF-1.3"), f.err
}

func (f *fakeContracts) SelectableCars(context.Context, model.Actor) ([]model.SelectOption, error) {
	return f.options, f.err
}

func (f *fakeContracts) SelectableCustomers(context.Context, model.Actor) ([]model.SelectOption, error) {
	return f.options, f.err
}

func (f *fakeContracts) SelectableUsers(context.Context, model.Actor) ([]model.SelectOption, error) {
	return f.options, f.err
}

type fakeDocuments struct {
	uploaded     service.UploadDocumentInput
	doc          model.ContractDocument
	err          error
	reconciled   []model.DocumentRef
	reconciledID uint
	query        service.DocumentListQuery
	page         service.DocumentPage
	drafts       []model.SelectOption
}

func (f *fakeDocuments) Open(_ context.Context, actor model.Actor, id uint) (*model.ContractDocument, io.ReadCloser, error) {
	if f.err != nil {
		return nil, nil, f.err
	}
	if actor.CompanyID != f.doc.CompanyID || id != f.doc.ID {
		return nil, nil, service.ErrNotFound
	}
	return &f.doc, io.NopCloser(strings.NewReader("document body")), nil
}

func (f *fakeDocuments) Reconcile(_ context.Context, _ model.Actor, contractID uint, targets []model.DocumentRef) error {
	f.reconciledID, f.reconciled = contractID, targets
	return f.err
}

func (f *fakeDocuments) Drafts(context.Context, model.Actor) ([]model.SelectOption, error) {
	return f.drafts, f.err
}

func (f *fakeDocuments) ListContracts(_ context.Context, _ model.Actor, query service.DocumentListQuery) (*service.DocumentPage, error) {
	f.query = query
	if f.err != nil {
		return nil, f.err
	}
	return &f.page, nil
}

func (f *fakeDocuments) Upload(_ context.Context, input service.UploadDocumentInput) (*model.ContractDocument, error) {
	f.uploaded = input
	if f.err != nil {
		return nil, f.err
	}
	return &f.doc, nil
}

func (f *fakeDocuments) Download(_ context.Context, token string, id uint) (*model.ContractDocument, io.ReadCloser, error) {
	if f.err != nil {
		return nil, nil, f.err
	}
	if token != "good" || id != f.doc.ID {
		return nil, nil, service.ErrUnauthorized
	}
	return &f.doc, io.NopCloser(strings.NewReader("document body")), nil
}

type fakeImports struct {
	file      service.ImportFile
	companyID uint
	result    model.ImportResult
}

func (f *fakeImports) BulkImportCars(_ context.Context, companyID uint, file service.ImportFile) (*model.ImportResult, error) {
	f.companyID, f.file = companyID, file
	return &f.result, nil
}

func (f *fakeImports) BulkImportCustomers(_ context.Context, companyID uint, file service.ImportFile) (*model.ImportResult, error) {
	f.companyID, f.file = companyID, file
	return &f.result, nil
}

func (f *fakeImports) FailureReport(model.ImportResult) ([]byte, error) {
	return []byte("PK-xlsx"), nil
}

type fakeHealth struct{ err error }

func (f fakeHealth) Ping(context.Context) error { return f.err }

type fixture struct {
	router    *gin.Engine
	contracts *fakeContracts
	documents *fakeDocuments
	imports   *fakeImports
	token     string
}

func newFixture(t *testing.T, limits Limits) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	f := &fixture{
		contracts: &fakeContracts{},
		documents: &fakeDocuments{doc: model.ContractDocument{ID: 11, FileName: "계약서.pdf", MimeType: "application/pdf", Size: 13, CompanyID: seller.CompanyID}},
		imports:   &fakeImports{},
	}
	parser := auth.NewParser(testSecret)
	handler := NewHandler(f.contracts, f.documents, f.imports, fakeHealth{}, limits, zerolog.Nop())
	f.router = NewRouter(handler, middleware.Auth(parser), "test", nil)

	token, err := parser.Issue(seller, jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))})
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	f.token = token
	return f
}

func (f *fixture) do(method, path string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Authorization", "Bearer "+f.token)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func (f *fixture) doJSON(method, path, body string) *httptest.ResponseRecorder {
	return f.do(method, path, strings.NewReader(body), "application/json")
}

func multipartBody(t *testing.T, field, name string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile(field, name)
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return &buf, w.FormDataContentType()
}

func TestAuthRequired(t *testing.T) {
	f := newFixture(t, Limits{})
	other, _ := auth.NewParser("other-secret").Issue(seller, jwt.RegisteredClaims{})

	tests := []struct {
		name   string
		header string
	}{
		{name: "missing", header: ""},
		{name: "not bearer", header: "Basic abc"},
		{name: "wrong secret", header: "Bearer " + other},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/contracts", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			f.router.ServeHTTP(rec, req)
			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("want 401 got %d", rec.Code)
			}
		})
	}
}

func TestCreateContractHandler(t *testing.T) {
	f := newFixture(t, Limits{})
	f.contracts.contract = model.Contract{
		ID:            1,
		Status:        model.ContractStatusCarInspection,
		ContractPrice: 20_000_000,
		CarID:         5,
		Car:           &model.Car{ID: 5, CarNumber: "12가3456", Model: &model.CarModel{Model: "Sonata"}},
		Customer:      &model.Customer{ID: 9, Name: "Lee"},
	}

	rec := f.doJSON(http.MethodPost, "/contracts", `{"carId":5,"customerId":9,"meetings":[{"date":"2026-06-01T10:00:00Z","alarms":["2026-05-31T10:00:00Z"]}]}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("want 201 got %d: %s", rec.Code, rec.Body.String())
	}
	if f.contracts.created.CarID != 5 || len(f.contracts.created.Meetings) != 1 || len(f.contracts.created.Meetings[0].Alarms) != 1 {
		t.Fatalf("input: %+v", f.contracts.created)
	}

	var resp contractResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.ContractName != "Sonata - Lee 고객님" || resp.Car.CarNumber != "12가3456" || resp.ContractDocuments == nil {
		t.Fatalf("response: %+v", resp)
	}

	bad := []string{
		`{"customerId":9}`,
		`{"carId":5,"customerId":9,"meetings":[{},{},{},{}]}`,
		`not json`,
	}
	for _, body := range bad {
		if rec := f.doJSON(http.MethodPost, "/contracts", body); rec.Code != http.StatusBadRequest {
			t.Errorf("body %s: want 400 got %d", body, rec.Code)
		}
	}
}

func TestUpdateContractHandler(t *testing.T) {
	f := newFixture(t, Limits{})
	f.contracts.contract = model.Contract{ID: 4, Status: model.ContractStatusContractSuccessful}

	rec := f.doJSON(http.MethodPatch, "/contracts/4", `{"status":"contractSuccessful","contractDocuments":[{"id":1,"fileName":"a.pdf"},{"id":2}]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("want 200 got %d: %s", rec.Code, rec.Body.String())
	}
	in := f.contracts.updated
	if in.Status == nil || *in.Status != model.ContractStatusContractSuccessful {
		t.Fatalf("status: %+v", in.Status)
	}
	if in.Documents == nil || len(*in.Documents) != 2 || in.Meetings != nil || in.ContractPrice != nil {
		t.Fatalf("partial input: %+v", in)
	}

	if rec := f.doJSON(http.MethodPatch, "/contracts/abc", `{}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad id: want 400 got %d", rec.Code)
	}
	if rec := f.doJSON(http.MethodPatch, "/contracts/4", `{"contractPrice":-1}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("negative price: want 400 got %d", rec.Code)
	}
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("contract 1: %w", service.ErrNotFound), http.StatusNotFound},
		{service.ErrForbidden, http.StatusForbidden},
		{service.ErrInvalidInput, http.StatusBadRequest},
		{service.ErrConflict, http.StatusConflict},
		{service.ErrInvalidTransition, http.StatusUnprocessableEntity},
		{service.ErrCarUnavailable, http.StatusConflict},
		{service.ErrUnauthorized, http.StatusUnauthorized},
		{errors.New("connection reset"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			f := newFixture(t, Limits{})
			f.contracts.err = tt.err
			rec := f.do(http.MethodDelete, "/contracts/1", nil, "")
			if rec.Code != tt.want {
				t.Fatalf("want %d got %d", tt.want, rec.Code)
			}
			if tt.want == http.StatusInternalServerError && strings.Contains(rec.Body.String(), "connection reset") {
				t.Fatalf("internal errors must not leak: %s", rec.Body.String())
			}
		})
	}
}

func TestListContractsHandler(t *testing.T) {
	f := newFixture(t, Limits{})
	f.contracts.columns = []service.ContractColumn{
		{Status: model.ContractStatusCarInspection, Contracts: []model.Contract{{ID: 1}, {ID: 2}}},
		{Status: model.ContractStatusContractFailed, Contracts: []model.Contract{}},
	}

	rec := f.do(http.MethodGet, "/contracts?searchBy=customerName&keyword=%20Lee%20", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("want 200 got %d", rec.Code)
	}
	if f.contracts.listArgs != [2]string{"customerName", "Lee"} {
		t.Fatalf("list args: %v", f.contracts.listArgs)
	}
	var board map[string]contractColumnResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &board); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if board["carInspection"].TotalItemCount != 2 || board["contractFailed"].TotalItemCount != 0 {
		t.Fatalf("board: %+v", board)
	}
}

func TestUploadDocumentHandler(t *testing.T) {
	f := newFixture(t, Limits{MaxDocumentBytes: 64})

	body, contentType := multipartBody(t, "file", "contract.pdf", []byte("%PDF-1.4"))
	rec := f.do(http.MethodPost, "/contractDocuments/upload", body, contentType)
	if rec.Code != http.StatusOK {
		t.Fatalf("want 200 got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"contractDocumentId":11`) {
		t.Fatalf("body: %s", rec.Body.String())
	}
	if f.documents.uploaded.FileName != "contract.pdf" || f.documents.uploaded.Actor != seller {
		t.Fatalf("upload input: %+v", f.documents.uploaded)
	}

	body, contentType = multipartBody(t, "file", "big.pdf", bytes.Repeat([]byte("x"), 128))
	if rec := f.do(http.MethodPost, "/contractDocuments/upload", body, contentType); rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("oversize: want 413 got %d", rec.Code)
	}

	body, contentType = multipartBody(t, "attachment", "a.pdf", []byte("x"))
	if rec := f.do(http.MethodPost, "/contractDocuments/upload", body, contentType); rec.Code != http.StatusBadRequest {
		t.Fatalf("wrong field: want 400 got %d", rec.Code)
	}
}

func TestDownloadDocumentHandler(t *testing.T) {
	f := newFixture(t, Limits{})

	req := httptest.NewRequest(http.MethodGet, "/contractDocuments/download?token=good&docId=11", nil)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("want 200 got %d: %s", rec.Code, rec.Body.String())
	}
	if rec.Body.String() != "document body" || rec.Header().Get("Content-Type") != "application/pdf" {
		t.Fatalf("download: %q %q", rec.Body.String(), rec.Header().Get("Content-Type"))
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "filename*=UTF-8''%EA%B3%84%EC%95%BD%EC%84%9C.pdf") {
		t.Fatalf("content disposition: %q", cd)
	}

	tests := []struct {
		query string
		want  int
	}{
		{"?token=bad&docId=11", http.StatusUnauthorized},
		{"?docId=11", http.StatusBadRequest},
		{"?token=good&docId=x", http.StatusBadRequest},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/contractDocuments/download"+tt.query, nil)
		rec := httptest.NewRecorder()
		f.router.ServeHTTP(rec, req)
		if rec.Code != tt.want {
			t.Errorf("%s: want %d got %d", tt.query, tt.want, rec.Code)
		}
	}
}

func TestImportHandlers(t *testing.T) {
	f := newFixture(t, Limits{MaxCSVBytes: 1 << 10})
	f.imports.result = model.ImportResult{SuccessCount: 1, FailureCount: 1, Failures: []model.ImportFailure{{Row: 3, Key: "A", Reason: "duplicate key: carNumber A"}}}

	body, contentType := multipartBody(t, "file", "cars.csv", []byte("carNumber\nA\nA\n"))
	rec := f.do(http.MethodPost, "/cars/upload", body, contentType)
	if rec.Code != http.StatusOK {
		t.Fatalf("want 200 got %d: %s", rec.Code, rec.Body.String())
	}
	var result model.ImportResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if result.FailureCount != 1 || result.Failures[0].Row != 3 || f.imports.companyID != seller.CompanyID {
		t.Fatalf("result: %+v company=%d", result, f.imports.companyID)
	}

	body, contentType = multipartBody(t, "file", "customers.xlsx", []byte("xlsx"))
	rec = f.do(http.MethodPost, "/customers/upload?report=xlsx", body, contentType)
	if rec.Code != http.StatusOK || rec.Header().Get("Content-Type") != xlsxContentType {
		t.Fatalf("report: %d %q", rec.Code, rec.Header().Get("Content-Type"))
	}
	if f.imports.file.FileName != "customers.xlsx" {
		t.Fatalf("file name: %q", f.imports.file.FileName)
	}
}

func TestHealthz(t *testing.T) {
	gin.SetMode(gin.TestMode)
	down := NewHandler(&fakeContracts{}, &fakeDocuments{}, &fakeImports{}, fakeHealth{err: errors.New("db down")}, Limits{}, zerolog.Nop())
	router := NewRouter(down, middleware.Auth(auth.NewParser(testSecret)), "test", nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("want 503 got %d", rec.Code)
	}
}

func TestSelectOptionHandlers(t *testing.T) {
	f := newFixture(t, Limits{})
	f.contracts.options = []model.SelectOption{{ID: 2, Label: "Sonata(22나2222)"}}
	f.documents.drafts = []model.SelectOption{{ID: 9, Label: "Sonata - Lee 고객님"}}

	tests := []struct {
		path string
		want optionResponse
	}{
		{"/contracts/cars", optionResponse{ID: 2, Data: "Sonata(22나2222)"}},
		{"/contracts/customers", optionResponse{ID: 2, Data: "Sonata(22나2222)"}},
		{"/contracts/users", optionResponse{ID: 2, Data: "Sonata(22나2222)"}},
		{"/contractDocuments/draft", optionResponse{ID: 9, Data: "Sonata - Lee 고객님"}},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := f.do(http.MethodGet, tt.path, nil, "")
			if rec.Code != http.StatusOK {
				t.Fatalf("want 200 got %d: %s", rec.Code, rec.Body.String())
			}
			var got []optionResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if len(got) != 1 || got[0] != tt.want {
				t.Fatalf("options: %+v", got)
			}
		})
	}

	f.contracts.options = nil
	rec := f.do(http.MethodGet, "/contracts/cars", nil, "")
	if rec.Code != http.StatusOK || strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Fatalf("empty list: %d %s", rec.Code, rec.Body.String())
	}
}

func TestReconcileDocumentsHandler(t *testing.T) {
	f := newFixture(t, Limits{})

	rec := f.doJSON(http.MethodPut, "/contracts/4/contractDocuments", `{"contractDocuments":[{"id":1,"fileName":"a.pdf"},{"id":2}]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("want 200 got %d: %s", rec.Code, rec.Body.String())
	}
	if f.documents.reconciledID != 4 || len(f.documents.reconciled) != 2 || f.documents.reconciled[0].FileName != "a.pdf" {
		t.Fatalf("reconcile input: id=%d refs=%+v", f.documents.reconciledID, f.documents.reconciled)
	}

	rec = f.doJSON(http.MethodPut, "/contracts/4/contractDocuments", `{"contractDocuments":[]}`)
	if rec.Code != http.StatusOK || f.documents.reconciled == nil || len(f.documents.reconciled) != 0 {
		t.Fatalf("clearing: %d refs=%v", rec.Code, f.documents.reconciled)
	}

	for _, body := range []string{`{}`, `{"contractDocuments":[{"fileName":"a.pdf"}]}`} {
		if rec := f.doJSON(http.MethodPut, "/contracts/4/contractDocuments", body); rec.Code != http.StatusBadRequest {
			t.Errorf("body %s: want 400 got %d", body, rec.Code)
		}
	}

	f.documents.err = service.ErrForbidden
	if rec := f.doJSON(http.MethodPut, "/contracts/4/contractDocuments", `{"contractDocuments":[]}`); rec.Code != http.StatusForbidden {
		t.Fatalf("forbidden: want 403 got %d", rec.Code)
	}
}

func TestListDocumentContractsHandler(t *testing.T) {
	f := newFixture(t, Limits{})
	resolved := time.Date(2026, 5, 20, 9, 30, 0, 0, time.UTC)
	f.documents.page = service.DocumentPage{
		CurrentPage:    2,
		TotalPages:     3,
		TotalItemCount: 21,
		Contracts: []model.Contract{{
			ID:             8,
			ResolutionDate: &resolved,
			Car:            &model.Car{CarNumber: "11가1111", Model: &model.CarModel{Model: "Sonata"}},
			Customer:       &model.Customer{Name: "Lee"},
			User:           &model.User{Name: "Kim"},
			Documents:      []model.ContractDocument{{ID: 1, FileName: "a.pdf"}, {ID: 2, FileName: "b.pdf"}},
		}},
	}

	rec := f.do(http.MethodGet, "/contractDocuments?page=2&pageSize=10&searchBy=contractName&keyword=%20Lee%20", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("want 200 got %d: %s", rec.Code, rec.Body.String())
	}
	want := service.DocumentListQuery{Page: 2, PageSize: 10, SearchBy: "contractName", Keyword: "Lee"}
	if f.documents.query != want {
		t.Fatalf("query: %+v", f.documents.query)
	}
	var page documentPageResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &page); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if page.TotalItemCount != 21 || page.TotalPages != 3 || len(page.Data) != 1 {
		t.Fatalf("page: %+v", page)
	}
	item := page.Data[0]
	if item.ContractName != "Sonata - Lee 고객님" || item.DocumentCount != 2 || item.UserName != "Kim" || item.CarNumber != "11가1111" {
		t.Fatalf("item: %+v", item)
	}

	for _, query := range []string{"?page=-1", "?pageSize=500", "?searchBy=userName&keyword=Kim", "?page=x"} {
		if rec := f.do(http.MethodGet, "/contractDocuments"+query, nil, ""); rec.Code != http.StatusBadRequest {
			t.Errorf("%s: want 400 got %d", query, rec.Code)
		}
	}
}

func TestOpenDocumentHandler(t *testing.T) {
	f := newFixture(t, Limits{})

	rec := f.do(http.MethodGet, "/contractDocuments/11/download", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("want 200 got %d: %s", rec.Code, rec.Body.String())
	}
	if rec.Body.String() != "document body" || rec.Header().Get("Content-Type") != "application/pdf" {
		t.Fatalf("download: %q %q", rec.Body.String(), rec.Header().Get("Content-Type"))
	}

	if rec := f.do(http.MethodGet, "/contractDocuments/12/download", nil, ""); rec.Code != http.StatusNotFound {
		t.Fatalf("unknown document: want 404 got %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/contractDocuments/11/download", nil)
	unauth := httptest.NewRecorder()
	f.router.ServeHTTP(unauth, req)
	if unauth.Code != http.StatusUnauthorized {
		t.Fatalf("without token: want 401 got %d", unauth.Code)
	}
}
