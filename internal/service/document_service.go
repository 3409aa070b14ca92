package service

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/text/encoding/charmap"

	"github.com/nurpe/carmate-contracts/internal/auth"
	"github.com/nurpe/carmate-contracts/internal/model"
	"github.com/nurpe/carmate-contracts/internal/repository"
	"github.com/nurpe/carmate-contracts/internal/storage"
)

const (
	maxStoredBaseName   = 100
	defaultDocumentPage = 10
	maxDocumentPage     = 100
)

const searchByContractName = "contractName"

var documentMimeTypes = map[string]string{
	".pdf":  "application/pdf",
	".doc":  "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
}

type DownloadVerifier interface {
	Verify(token string, documentID uint) (*auth.DownloadClaims, error)
}

type DocumentService struct {
	store    *repository.Store
	blobs    storage.Gateway
	verifier DownloadVerifier
	maxBytes int64
	log      zerolog.Logger

	cleanup sync.WaitGroup
}

func NewDocumentService(store *repository.Store, blobs storage.Gateway, verifier DownloadVerifier, maxBytes int64, log zerolog.Logger) *DocumentService {
	return &DocumentService{
		store:    store,
		blobs:    blobs,
		verifier: verifier,
		maxBytes: maxBytes,
		log:      log.With().Str("component", "documents").Logger(),
	}
}

type UploadDocumentInput struct {
	Actor    model.Actor
	FileName string
	Content  []byte
}

// Upload stores a standalone document that is not attached to any contract
// yet and returns its id.
func (s *DocumentService) Upload(ctx context.Context, input UploadDocumentInput) (*model.ContractDocument, error) {
	name := DecodeFileName(input.FileName)
	ext := strings.ToLower(filepath.Ext(name))
	mimeType, ok := documentMimeTypes[ext]
	if !ok {
		return nil, fmt.Errorf("%w: only pdf, doc and docx files are accepted", ErrInvalidInput)
	}
	if len(input.Content) == 0 {
		return nil, fmt.Errorf("%w: file is empty", ErrInvalidInput)
	}
	if s.maxBytes > 0 && int64(len(input.Content)) > s.maxBytes {
		return nil, fmt.Errorf("%w: file exceeds %d bytes", ErrInvalidInput, s.maxBytes)
	}

	key, err := s.blobs.Store(ctx, storage.CategoryContractDocument, StoredFileName(name), input.Content, mimeType)
	if err != nil {
		return nil, fmt.Errorf("store document: %w", err)
	}

	doc := &model.ContractDocument{
		FileName:  name,
		FileKey:   key,
		MimeType:  mimeType,
		Size:      int64(len(input.Content)),
		CompanyID: input.Actor.CompanyID,
	}
	if err := s.store.Documents.Create(ctx, doc); err != nil {
		s.deleteBlob(ctx, doc)
		return nil, err
	}
	s.log.Info().Uint("document_id", doc.ID).Str("key", key).Msg("document uploaded")
	return doc, nil
}

// Reconcile makes the contract's attached documents equal to targets.
// Documents dropped from the set are deleted, blobs after commit. The same
// ownership rules as a contract update apply.
func (s *DocumentService) Reconcile(ctx context.Context, actor model.Actor, contractID uint, targets []model.DocumentRef) error {
	var removed []model.ContractDocument
	err := s.store.RunInTx(ctx, func(tx *repository.Store) error {
		contract, err := lockOwnedContract(ctx, tx, actor, contractID)
		if err != nil {
			return err
		}
		removed, err = s.reconcileTx(ctx, tx, contract, targets)
		return err
	})
	if err != nil {
		return err
	}
	s.discardBlobs(removed)
	return nil
}

// reconcileTx runs the row changes of a reconciliation on tx and returns the
// documents whose blobs the caller must discard once tx commits.
func (s *DocumentService) reconcileTx(ctx context.Context, tx *repository.Store, contract *model.Contract, targets []model.DocumentRef) ([]model.ContractDocument, error) {
	targetIDs, err := s.checkTargets(ctx, tx, contract, targets)
	if err != nil {
		return nil, err
	}

	current, err := tx.Documents.ListByContract(ctx, contract.ID)
	if err != nil {
		return nil, err
	}
	keep := make(map[uint]struct{}, len(targetIDs))
	for _, id := range targetIDs {
		keep[id] = struct{}{}
	}
	var removed []model.ContractDocument
	var removedIDs []uint
	for _, doc := range current {
		if _, ok := keep[doc.ID]; !ok {
			removed = append(removed, doc)
			removedIDs = append(removedIDs, doc.ID)
		}
	}

	if err := tx.Documents.DeleteByIDs(ctx, removedIDs); err != nil {
		return nil, err
	}
	// Release first, then claim the target set, so a document moving within
	// the same call never holds two owners.
	if err := tx.Documents.DetachAll(ctx, contract.ID); err != nil {
		return nil, err
	}
	if err := tx.Documents.Attach(ctx, contract.ID, targetIDs); err != nil {
		return nil, err
	}
	return removed, nil
}

// purgeTx deletes every document attached to the contract.
func (s *DocumentService) purgeTx(ctx context.Context, tx *repository.Store, contractID uint) ([]model.ContractDocument, error) {
	current, err := tx.Documents.ListByContract(ctx, contractID)
	if err != nil {
		return nil, err
	}
	ids := make([]uint, 0, len(current))
	for _, doc := range current {
		ids = append(ids, doc.ID)
	}
	if err := tx.Documents.DeleteByIDs(ctx, ids); err != nil {
		return nil, err
	}
	return current, nil
}

func (s *DocumentService) checkTargets(ctx context.Context, tx *repository.Store, contract *model.Contract, targets []model.DocumentRef) ([]uint, error) {
	ids := make([]uint, 0, len(targets))
	seen := make(map[uint]struct{}, len(targets))
	for _, target := range targets {
		if target.ID == 0 {
			return nil, fmt.Errorf("%w: document id is required", ErrInvalidInput)
		}
		if _, dup := seen[target.ID]; dup {
			continue
		}
		seen[target.ID] = struct{}{}
		ids = append(ids, target.ID)
	}
	if len(ids) == 0 {
		return ids, nil
	}

	docs, err := tx.Documents.ListByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	found := make(map[uint]model.ContractDocument, len(docs))
	for _, doc := range docs {
		found[doc.ID] = doc
	}
	for _, id := range ids {
		doc, ok := found[id]
		if !ok || doc.CompanyID != contract.CompanyID {
			return nil, fmt.Errorf("%w: document %d", ErrNotFound, id)
		}
		if doc.ContractID != nil && *doc.ContractID != contract.ID {
			return nil, fmt.Errorf("%w: document %d belongs to contract %d", ErrConflict, id, *doc.ContractID)
		}
	}
	return ids, nil
}

// Download resolves a token-gated download. Any token problem is reported as
// ErrUnauthorized.
func (s *DocumentService) Download(ctx context.Context, token string, documentID uint) (*model.ContractDocument, io.ReadCloser, error) {
	claims, err := s.verifier.Verify(token, documentID)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	contractID := claims.ContractID

	doc, err := s.store.Documents.Find(ctx, documentID)
	if err != nil {
		return nil, nil, storeErr(err)
	}
	if doc.ContractID == nil || *doc.ContractID != contractID {
		return nil, nil, fmt.Errorf("%w: document %d is no longer part of contract %d", ErrNotFound, documentID, contractID)
	}

	body, err := s.blobs.Open(ctx, doc.FileKey)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	return doc, body, nil
}

// Open streams a document of the actor's company.
func (s *DocumentService) Open(ctx context.Context, actor model.Actor, documentID uint) (*model.ContractDocument, io.ReadCloser, error) {
	doc, err := s.store.Documents.Find(ctx, documentID)
	if err != nil {
		return nil, nil, storeErr(err)
	}
	if doc.CompanyID != actor.CompanyID {
		return nil, nil, fmt.Errorf("document %d: %w", documentID, ErrNotFound)
	}
	body, err := s.blobs.Open(ctx, doc.FileKey)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	return doc, body, nil
}

// Drafts lists successful contracts still waiting for their documents.
func (s *DocumentService) Drafts(ctx context.Context, actor model.Actor) ([]model.SelectOption, error) {
	contracts, err := s.store.Contracts.ListDrafts(ctx, actor.CompanyID)
	if err != nil {
		return nil, err
	}
	options := make([]model.SelectOption, 0, len(contracts))
	for _, contract := range contracts {
		options = append(options, model.SelectOption{ID: contract.ID, Label: contract.Name()})
	}
	return options, nil
}

type DocumentListQuery struct {
	Page     int
	PageSize int
	SearchBy string
	Keyword  string
}

type DocumentPage struct {
	CurrentPage    int
	TotalPages     int
	TotalItemCount int64
	Contracts      []model.Contract
}

// ListContracts pages through successful contracts together with their
// documents.
func (s *DocumentService) ListContracts(ctx context.Context, actor model.Actor, query DocumentListQuery) (*DocumentPage, error) {
	if query.Page == 0 {
		query.Page = 1
	}
	if query.PageSize == 0 {
		query.PageSize = defaultDocumentPage
	}
	if query.Page < 0 || query.PageSize < 0 || query.PageSize > maxDocumentPage {
		return nil, fmt.Errorf("%w: page must be positive and pageSize at most %d", ErrInvalidInput, maxDocumentPage)
	}
	keyword := strings.TrimSpace(query.Keyword)
	if keyword != "" && query.SearchBy != searchByContractName {
		return nil, fmt.Errorf("%w: unknown searchBy %q", ErrInvalidInput, query.SearchBy)
	}

	contracts, total, err := s.store.Contracts.ListWithDocuments(ctx, repository.DocumentContractFilter{
		CompanyID: actor.CompanyID,
		Keyword:   keyword,
		Page:      query.Page,
		PageSize:  query.PageSize,
	})
	if err != nil {
		return nil, err
	}
	return &DocumentPage{
		CurrentPage:    query.Page,
		TotalPages:     int((total + int64(query.PageSize) - 1) / int64(query.PageSize)),
		TotalItemCount: total,
		Contracts:      contracts,
	}, nil
}

// Wait blocks until background blob deletions have finished.
func (s *DocumentService) Wait() {
	s.cleanup.Wait()
}

// discardBlobs deletes blobs off the request path. Failures are logged only:
// the rows are already gone and a missing blob must not resurrect them.
func (s *DocumentService) discardBlobs(docs []model.ContractDocument) {
	if len(docs) == 0 {
		return
	}
	s.cleanup.Add(1)
	go func() {
		defer s.cleanup.Done()
		for i := range docs {
			s.deleteBlob(context.Background(), &docs[i])
		}
	}()
}

func (s *DocumentService) deleteBlob(ctx context.Context, doc *model.ContractDocument) {
	if err := s.blobs.Delete(ctx, doc.FileKey); err != nil {
		s.log.Warn().
			Err(err).
			Uint("document_id", doc.ID).
			Str("key", doc.FileKey).
			Msg("failed to delete document blob")
	}
}

// DecodeFileName repairs names whose UTF-8 bytes were read as Latin-1, which
// is how many clients send non-ASCII multipart file names.
func DecodeFileName(name string) string {
	hasHigh := false
	for _, r := range name {
		if r > 0xFF {
			return name
		}
		if r >= 0x80 {
			hasHigh = true
		}
	}
	if !hasHigh {
		return name
	}
	raw, err := charmap.ISO8859_1.NewEncoder().String(name)
	if err != nil || !utf8.ValidString(raw) {
		return name
	}
	return raw
}

// StoredFileName builds a collision-resistant blob name that keeps the
// original base name readable.
func StoredFileName(name string) string {
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(filepath.Base(name), ext)
	base = strings.TrimSpace(strings.Map(func(r rune) rune {
		if unicode.IsControl(r) || strings.ContainsRune(`<>:"/\|?*`, r) {
			return '_'
		}
		return r
	}, base))
	if utf8.RuneCountInString(base) > maxStoredBaseName {
		base = string([]rune(base)[:maxStoredBaseName])
	}
	if base == "" {
		base = "document"
	}
	return uuid.NewString() + "_" + base + strings.ToLower(ext)
}
