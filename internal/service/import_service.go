package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/nurpe/carmate-contracts/internal/ingest"
	"github.com/nurpe/carmate-contracts/internal/model"
	"github.com/nurpe/carmate-contracts/internal/repository"
)

const (
	reasonMissingField  = "missing required field"
	reasonInvalidNumber = "invalid number"
	reasonUnknownModel  = "unknown manufacturer/model"
	reasonDuplicateKey  = "duplicate key"
)

var (
	carRequiredColumns      = []string{"carNumber", "manufacturer", "model", "manufacturingYear", "mileage", "price", "accidentCount"}
	customerRequiredColumns = []string{"name", "gender", "phoneNumber"}
)

// CarModelCache holds the manufacturer/model lookup between imports.
type CarModelCache interface {
	Load(ctx context.Context) (map[string]uint, bool, error)
	Store(ctx context.Context, lookup map[string]uint) error
	Invalidate(ctx context.Context) error
}

type ReportGenerator interface {
	ImportFailures(result model.ImportResult) ([]byte, error)
}

type ImportService struct {
	store  *repository.Store
	cache  CarModelCache
	report ReportGenerator
	log    zerolog.Logger
}

// NewImportService accepts a nil cache; car models are then read from the
// database on every import.
func NewImportService(store *repository.Store, cache CarModelCache, report ReportGenerator, log zerolog.Logger) *ImportService {
	return &ImportService{
		store:  store,
		cache:  cache,
		report: report,
		log:    log.With().Str("component", "import").Logger(),
	}
}

type ImportFile struct {
	FileName string
	Content  []byte
}

// BulkImportCars validates every row against data loaded once up front and
// inserts the accepted rows in one batch. Row problems are reported in the
// result, never returned as errors.
func (s *ImportService) BulkImportCars(ctx context.Context, companyID uint, file ImportFile) (*model.ImportResult, error) {
	rows, err := parseImport(file)
	if err != nil {
		return nil, err
	}

	models, cached, err := s.carModelLookup(ctx)
	if err != nil {
		return nil, err
	}
	existing, err := s.store.Cars.CarNumbersByCompany(ctx, companyID)
	if err != nil {
		return nil, err
	}
	taken := toSet(existing)

	result := newImportResult()
	accepted := make([]model.Car, 0, len(rows))
	pending := make([]pendingRow, 0, len(rows))
	for i, row := range rows {
		rowNumber := i + 2
		carNumber := row.Get("carNumber")

		if missing := firstMissing(row, carRequiredColumns); missing != "" {
			result.fail(rowNumber, carNumber, fmt.Sprintf("%s: %s", reasonMissingField, missing))
			continue
		}
		numbers, bad := parseInts(row, "manufacturingYear", "mileage", "price", "accidentCount")
		if bad != "" {
			result.fail(rowNumber, carNumber, fmt.Sprintf("%s: %s", reasonInvalidNumber, bad))
			continue
		}
		key := carModelKey(row.Get("manufacturer"), row.Get("model"))
		modelID, ok := models[key]
		if !ok && cached {
			// The cache may predate newly seeded models; reload once.
			if models, err = s.refreshCarModels(ctx); err != nil {
				return nil, err
			}
			cached = false
			modelID, ok = models[key]
		}
		if !ok {
			result.fail(rowNumber, carNumber, fmt.Sprintf("%s: %s %s", reasonUnknownModel, row.Get("manufacturer"), row.Get("model")))
			continue
		}
		if _, dup := taken[carNumber]; dup {
			result.fail(rowNumber, carNumber, fmt.Sprintf("%s: carNumber %s", reasonDuplicateKey, carNumber))
			continue
		}

		taken[carNumber] = struct{}{}
		pending = append(pending, pendingRow{row: rowNumber, key: carNumber})
		accepted = append(accepted, model.Car{
			CarNumber:         carNumber,
			ModelID:           modelID,
			ManufacturingYear: int(numbers[0]),
			Mileage:           int(numbers[1]),
			Price:             numbers[2],
			AccidentCount:     int(numbers[3]),
			Explanation:       row.Get("explanation"),
			AccidentDetails:   row.Get("accidentDetails"),
			Status:            model.CarStatusPossession,
			CompanyID:         companyID,
		})
	}

	skipped, err := s.store.Cars.BulkCreate(ctx, accepted)
	if err != nil {
		return nil, storeErr(err)
	}
	result.settle(pending, skipped, "carNumber")

	s.log.Info().
		Uint("company_id", companyID).
		Int("success", result.SuccessCount).
		Int("failed", result.FailureCount).
		Msg("car import finished")
	return &result.ImportResult, nil
}

func (s *ImportService) BulkImportCustomers(ctx context.Context, companyID uint, file ImportFile) (*model.ImportResult, error) {
	rows, err := parseImport(file)
	if err != nil {
		return nil, err
	}

	existing, err := s.store.Customers.PhonesByCompany(ctx, companyID)
	if err != nil {
		return nil, err
	}
	taken := toSet(existing)

	result := newImportResult()
	accepted := make([]model.Customer, 0, len(rows))
	pending := make([]pendingRow, 0, len(rows))
	for i, row := range rows {
		rowNumber := i + 2
		phone := row.Get("phoneNumber")

		if missing := firstMissing(row, customerRequiredColumns); missing != "" {
			result.fail(rowNumber, phone, fmt.Sprintf("%s: %s", reasonMissingField, missing))
			continue
		}
		if _, dup := taken[phone]; dup {
			result.fail(rowNumber, phone, fmt.Sprintf("%s: phoneNumber %s", reasonDuplicateKey, phone))
			continue
		}

		taken[phone] = struct{}{}
		pending = append(pending, pendingRow{row: rowNumber, key: phone})
		accepted = append(accepted, model.Customer{
			Name:        row.Get("name"),
			Gender:      row.Get("gender"),
			PhoneNumber: phone,
			AgeGroup:    optional(row.Get("ageGroup")),
			Region:      optional(row.Get("region")),
			Email:       optional(row.Get("email")),
			Memo:        optional(row.Get("memo")),
			CompanyID:   companyID,
		})
	}

	skipped, err := s.store.Customers.BulkCreate(ctx, accepted)
	if err != nil {
		return nil, storeErr(err)
	}
	result.settle(pending, skipped, "phoneNumber")

	s.log.Info().
		Uint("company_id", companyID).
		Int("success", result.SuccessCount).
		Int("failed", result.FailureCount).
		Msg("customer import finished")
	return &result.ImportResult, nil
}

// FailureReport renders the failed rows of an import as a spreadsheet.
func (s *ImportService) FailureReport(result model.ImportResult) ([]byte, error) {
	return s.report.ImportFailures(result)
}

// carModelLookup reports cached=true when the map came from the cache.
func (s *ImportService) carModelLookup(ctx context.Context) (map[string]uint, bool, error) {
	if s.cache != nil {
		lookup, ok, err := s.cache.Load(ctx)
		if err != nil {
			s.log.Warn().Err(err).Msg("car model cache unavailable, reading database")
		} else if ok {
			return lookup, true, nil
		}
	}
	lookup, err := s.loadCarModels(ctx)
	return lookup, false, err
}

func (s *ImportService) refreshCarModels(ctx context.Context) (map[string]uint, error) {
	if err := s.cache.Invalidate(ctx); err != nil {
		s.log.Warn().Err(err).Msg("failed to invalidate car model cache")
	}
	return s.loadCarModels(ctx)
}

func (s *ImportService) loadCarModels(ctx context.Context) (map[string]uint, error) {
	models, err := s.store.CarModels.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	lookup := make(map[string]uint, len(models))
	for _, m := range models {
		lookup[carModelKey(m.Manufacturer, m.Model)] = m.ID
	}

	if s.cache != nil {
		if err := s.cache.Store(ctx, lookup); err != nil {
			s.log.Warn().Err(err).Msg("failed to cache car models")
		}
	}
	return lookup, nil
}

func parseImport(file ImportFile) ([]ingest.Row, error) {
	if len(file.Content) == 0 {
		return nil, fmt.Errorf("%w: a file is required", ErrInvalidInput)
	}
	name := file.FileName
	if name == "" {
		name = "upload.csv"
	}
	rows, err := ingest.Parse(name, file.Content)
	switch {
	case err == nil:
		return rows, nil
	case errors.Is(err, ingest.ErrEmpty):
		return nil, fmt.Errorf("%w: file has no data rows", ErrInvalidInput)
	case errors.Is(err, ingest.ErrUnsupportedFormat), errors.Is(err, ingest.ErrMalformed):
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	default:
		return nil, err
	}
}

type importResult struct {
	model.ImportResult
}

func newImportResult() *importResult {
	return &importResult{ImportResult: model.ImportResult{Failures: []model.ImportFailure{}}}
}

func (r *importResult) fail(row int, key, reason string) {
	r.Failures = append(r.Failures, model.ImportFailure{Row: row, Key: key, Reason: reason})
	r.FailureCount++
}

// pendingRow remembers where an accepted row came from until the insert
// reports whether it landed.
type pendingRow struct {
	row int
	key string
}

// settle records the outcome of the insert. Rows the database skipped lost a
// race with a concurrent import and fail as duplicates.
func (r *importResult) settle(pending []pendingRow, skipped []int, keyColumn string) {
	r.SuccessCount = len(pending) - len(skipped)
	if len(skipped) == 0 {
		return
	}
	for _, i := range skipped {
		p := pending[i]
		r.fail(p.row, p.key, fmt.Sprintf("%s: %s %s", reasonDuplicateKey, keyColumn, p.key))
	}
	sort.SliceStable(r.Failures, func(i, j int) bool { return r.Failures[i].Row < r.Failures[j].Row })
}

func carModelKey(manufacturer, modelName string) string {
	return manufacturer + "|" + modelName
}

func firstMissing(row ingest.Row, columns []string) string {
	for _, column := range columns {
		if row.Get(column) == "" {
			return column
		}
	}
	return ""
}

// parseInts returns the parsed values in column order, or the first column
// that is not a non-negative integer.
func parseInts(row ingest.Row, columns ...string) ([]int64, string) {
	values := make([]int64, len(columns))
	for i, column := range columns {
		raw := strings.ReplaceAll(row.Get(column), ",", "")
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || v < 0 {
			return nil, column
		}
		values[i] = v
	}
	return values, ""
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}

func optional(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
