package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/nurpe/carmate-contracts/internal/auth"
	"github.com/nurpe/carmate-contracts/internal/model"
	"github.com/nurpe/carmate-contracts/internal/notify"
	"github.com/nurpe/carmate-contracts/internal/repository"
	"github.com/nurpe/carmate-contracts/internal/storage"
)

var fixedNow = time.Date(2026, 5, 20, 9, 30, 0, 0, time.UTC)

type memBlobs struct {
	mu        sync.Mutex
	objects   map[string][]byte
	deleted   []string
	deleteErr error
}

func newMemBlobs() *memBlobs {
	return &memBlobs{objects: map[string][]byte{}}
}

func (b *memBlobs) Store(_ context.Context, category storage.Category, name string, content []byte, _ string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	key := string(category) + "/" + name
	b.objects[key] = append([]byte(nil), content...)
	return key, nil
}

func (b *memBlobs) Open(_ context.Context, key string) (io.ReadCloser, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	content, ok := b.objects[key]
	if !ok {
		return nil, errors.New("no such object")
	}
	return io.NopCloser(bytes.NewReader(content)), nil
}

func (b *memBlobs) Delete(_ context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.deleted = append(b.deleted, key)
	if b.deleteErr != nil {
		return b.deleteErr
	}
	delete(b.objects, key)
	return nil
}

func (b *memBlobs) deletedKeys() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.deleted...)
}

type recordingNotifier struct {
	jobs []notify.ContractCompleted
}

func (n *recordingNotifier) Enqueue(job notify.ContractCompleted) error {
	n.jobs = append(n.jobs, job)
	return nil
}

type stubSummary struct{}

func (stubSummary) ContractSummary(contract model.Contract) ([]byte, error) {
	return []byte("%PDF " + contract.Name()), nil
}

type env struct {
	db        *gorm.DB
	store     *repository.Store
	blobs     *memBlobs
	grants    *auth.DownloadGrants
	notifier  *recordingNotifier
	docs      *DocumentService
	contracts *ContractService

	company   model.Company
	other     model.Company
	seller    model.User
	colleague model.User
	carModel  model.CarModel
	car       model.Car
	spareCar  model.Car
	customer  model.Customer
}

func (e *env) actor() model.Actor {
	return model.Actor{ID: e.seller.ID, CompanyID: e.company.ID}
}

func newEnv(t *testing.T) *env {
	t.Helper()
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.AutoMigrate(
		&model.Company{}, &model.User{}, &model.CarModel{}, &model.Car{}, &model.Customer{},
		&model.Contract{}, &model.Meeting{}, &model.Notification{}, &model.ContractDocument{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	e := &env{
		db:       db,
		store:    repository.NewStore(db),
		blobs:    newMemBlobs(),
		grants:   auth.NewDownloadGrants("download-secret", 7*24*time.Hour),
		notifier: &recordingNotifier{},
	}
	e.docs = NewDocumentService(e.store, e.blobs, e.grants, 20<<20, zerolog.Nop())
	e.contracts = NewContractService(e.store, e.docs, e.notifier, stubSummary{}, zerolog.Nop())
	e.contracts.now = func() time.Time { return fixedNow }

	e.company = model.Company{Name: "Carmate", CompanyCode: "CM"}
	e.other = model.Company{Name: "Rival", CompanyCode: "RV"}
	create(t, db, &e.company)
	create(t, db, &e.other)
	e.seller = model.User{Name: "Kim", Email: "kim@carmate.test", CompanyID: e.company.ID}
	e.colleague = model.User{Name: "Choi", Email: "choi@carmate.test", CompanyID: e.company.ID}
	create(t, db, &e.seller)
	create(t, db, &e.colleague)
	e.carModel = model.CarModel{Manufacturer: "Hyundai", Model: "Sonata", Type: "sedan"}
	create(t, db, &e.carModel)
	e.car = e.newCar(t, "11가1111", model.CarStatusPossession)
	e.spareCar = e.newCar(t, "22나2222", model.CarStatusPossession)
	email := "lee@customer.test"
	e.customer = model.Customer{Name: "Lee", Gender: "male", PhoneNumber: "010-1111-2222", Email: &email, CompanyID: e.company.ID}
	create(t, db, &e.customer)
	return e
}

func (e *env) newCar(t *testing.T, number string, status model.CarStatus) model.Car {
	t.Helper()
	car := model.Car{
		CarNumber: number,
		ModelID:   e.carModel.ID,
		Price:     20_000_000,
		Status:    status,
		CompanyID: e.company.ID,
	}
	create(t, e.db, &car)
	return car
}

func (e *env) carStatus(t *testing.T, id uint) model.CarStatus {
	t.Helper()
	var car model.Car
	if err := e.db.First(&car, id).Error; err != nil {
		t.Fatalf("load car %d: %v", id, err)
	}
	return car.Status
}

func (e *env) setCarStatus(t *testing.T, id uint, status model.CarStatus) {
	t.Helper()
	if err := e.db.Model(&model.Car{}).Where("id = ?", id).Update("status", status).Error; err != nil {
		t.Fatalf("set car status: %v", err)
	}
}

func (e *env) createContract(t *testing.T) *model.Contract {
	t.Helper()
	contract, err := e.contracts.Create(context.Background(), e.actor(), CreateContractInput{
		CarID:      e.car.ID,
		CustomerID: e.customer.ID,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return contract
}

func (e *env) upload(t *testing.T, name string) *model.ContractDocument {
	t.Helper()
	doc, err := e.docs.Upload(context.Background(), UploadDocumentInput{
		Actor:    e.actor(),
		FileName: name,
		Content:  []byte("%PDF-1.4 " + name),
	})
	if err != nil {
		t.Fatalf("Upload %s: %v", name, err)
	}
	return doc
}

func (e *env) attachedIDs(t *testing.T, contractID uint) []uint {
	t.Helper()
	docs, err := e.store.Documents.ListByContract(context.Background(), contractID)
	if err != nil {
		t.Fatalf("ListByContract: %v", err)
	}
	ids := make([]uint, 0, len(docs))
	for _, doc := range docs {
		ids = append(ids, doc.ID)
	}
	return ids
}

func create(t *testing.T, db *gorm.DB, value interface{}) {
	t.Helper()
	if err := db.Create(value).Error; err != nil {
		t.Fatalf("create %T: %v", value, err)
	}
}

func statusPtr(s model.ContractStatus) *model.ContractStatus { return &s }

func refs(docs ...*model.ContractDocument) *[]model.DocumentRef {
	out := make([]model.DocumentRef, 0, len(docs))
	for _, doc := range docs {
		out = append(out, model.DocumentRef{ID: doc.ID, FileName: doc.FileName})
	}
	return &out
}
