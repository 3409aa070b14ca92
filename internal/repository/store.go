package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store groups the repositories that share one connection or one transaction.
type Store struct {
	db *gorm.DB

	Cars      *CarRepository
	CarModels *CarModelRepository
	Customers *CustomerRepository
	Users     *UserRepository
	Contracts *ContractRepository
	Documents *DocumentRepository
}

func NewStore(db *gorm.DB) *Store {
	return &Store{
		db:        db,
		Cars:      NewCarRepository(db),
		CarModels: NewCarModelRepository(db),
		Customers: NewCustomerRepository(db),
		Users:     NewUserRepository(db),
		Contracts: NewContractRepository(db),
		Documents: NewDocumentRepository(db),
	}
}

// RunInTx runs fn inside one database transaction. The Store handed to fn is
// bound to the transaction; returning an error rolls everything back.
func (s *Store) RunInTx(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewStore(tx))
	})
}

func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// insertSkippingConflicts inserts rows one statement at a time inside a single
// transaction so a unique-key collision costs only that row. It returns the
// indexes of the rows the database skipped.
func insertSkippingConflicts[T any](ctx context.Context, db *gorm.DB, rows []T) ([]int, error) {
	if len(rows) == 0 {
		return nil, nil
	}
	var skipped []int
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range rows {
			res := tx.Clauses(clause.OnConflict{DoNothing: true}).
				Omit(clause.Associations).
				Create(&rows[i])
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				skipped = append(skipped, i)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return skipped, nil
}
