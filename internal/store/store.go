package store

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("record not found")

// Store groups the repositories backed by one database.
type Store interface {
	Users() UserRepository
	Devices() DeviceRepository
	SensorData() SensorDataRepository
	Alerts() AlertRepository
	Subscriptions() SubscriptionRepository
	Ping(ctx context.Context) error
	DB() *gorm.DB
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db            *gorm.DB
	users         *userRepo
	devices       *deviceRepo
	sensorData    *sensorDataRepo
	alerts        *alertRepo
	subscriptions *subscriptionRepo
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{
		db:            db,
		users:         &userRepo{db: db},
		devices:       &deviceRepo{db: db},
		sensorData:    &sensorDataRepo{db: db},
		alerts:        &alertRepo{db: db},
		subscriptions: &subscriptionRepo{db: db},
	}
}

func (s *gormStore) Users() UserRepository                 { return s.users }
func (s *gormStore) Devices() DeviceRepository             { return s.devices }
func (s *gormStore) SensorData() SensorDataRepository      { return s.sensorData }
func (s *gormStore) Alerts() AlertRepository               { return s.alerts }
func (s *gormStore) Subscriptions() SubscriptionRepository { return s.subscriptions }
func (s *gormStore) DB() *gorm.DB                          { return s.db }

// Ping checks that the underlying connection is usable.
func (s *gormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// notFound maps gorm's sentinel onto ErrNotFound.
func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// paginate runs scope twice, once for the total and once for the requested window.
func paginate[T any](ctx context.Context, db *gorm.DB, req PageRequest, scope func(*gorm.DB) *gorm.DB) (*Page[T], error) {
	req = req.Normalize()

	var total int64
	if err := scope(db.WithContext(ctx).Model(new(T))).Count(&total).Error; err != nil {
		return nil, err
	}

	items := make([]T, 0, req.PerPage)
	if total > 0 {
		if err := scope(db.WithContext(ctx).Model(new(T))).
			Offset(req.Offset()).
			Limit(req.PerPage).
			Find(&items).Error; err != nil {
			return nil, err
		}
	}
	return NewPage(items, total, req), nil
}
