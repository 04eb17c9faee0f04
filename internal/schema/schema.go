// Package schema owns the table definitions and brings a database up to
// date. The request path reads and writes through pgx; gorm is only used here.
package schema

import (
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type User struct {
	ID           int64     `gorm:"primaryKey"`
	Name         string    `gorm:"type:varchar(255);not null"`
	Email        string    `gorm:"type:varchar(255);not null;uniqueIndex:idx_users_email"`
	PasswordHash string    `gorm:"type:text;not null"`
	Role         string    `gorm:"type:varchar(20);not null;default:customer;check:chk_users_role,role IN ('guest','customer','admin')"`
	Phone        string    `gorm:"type:varchar(40);not null;default:''"`
	CreatedAt    time.Time `gorm:"not null;default:CURRENT_TIMESTAMP;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"not null;default:CURRENT_TIMESTAMP;autoUpdateTime"`
}

type Room struct {
	ID           int64           `gorm:"primaryKey"`
	RoomNumber   string          `gorm:"type:varchar(20);not null;uniqueIndex:idx_rooms_number"`
	RoomType     string          `gorm:"type:varchar(50);not null;index:idx_rooms_type"`
	NightlyPrice decimal.Decimal `gorm:"type:numeric(10,2);not null;check:chk_rooms_price,nightly_price > 0"`
	Capacity     int             `gorm:"not null;check:chk_rooms_capacity,capacity > 0"`
	Amenities    pq.StringArray  `gorm:"type:text[];not null;default:'{}'"`
	Status       string          `gorm:"type:varchar(20);not null;default:available;check:chk_rooms_status,status IN ('available','occupied','maintenance')"`
	Photos       pq.StringArray  `gorm:"type:text[];not null;default:'{}'"`
	CreatedAt    time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP;autoCreateTime"`
	UpdatedAt    time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP;autoUpdateTime"`
}

type Booking struct {
	ID                 int64           `gorm:"primaryKey"`
	UserID             int64           `gorm:"not null;index:idx_bookings_user"`
	User               User            `gorm:"constraint:OnDelete:CASCADE"`
	RoomID             int64           `gorm:"not null;index:idx_bookings_room_dates,priority:1"`
	Room               Room            `gorm:"constraint:OnDelete:RESTRICT"`
	CheckInDate        time.Time       `gorm:"type:date;not null;index:idx_bookings_room_dates,priority:2"`
	CheckOutDate       time.Time       `gorm:"type:date;not null;index:idx_bookings_room_dates,priority:3;check:chk_bookings_stay,check_out_date > check_in_date"`
	GuestCount         int             `gorm:"not null;check:chk_bookings_guests,guest_count > 0"`
	TotalPrice         decimal.Decimal `gorm:"type:numeric(10,2);not null;check:chk_bookings_total,total_price >= 0"`
	Status             string          `gorm:"type:varchar(20);not null;default:pending;index:idx_bookings_status;check:chk_bookings_status,status IN ('pending','confirmed','cancelled','completed')"`
	SpecialRequests    string          `gorm:"type:text;not null;default:''"`
	CancellationReason *string         `gorm:"type:text"`
	CancelledAt        *time.Time
	CreatedAt          time.Time `gorm:"not null;default:CURRENT_TIMESTAMP;autoCreateTime"`
	UpdatedAt          time.Time `gorm:"not null;default:CURRENT_TIMESTAMP;autoUpdateTime"`
}

type Payment struct {
	ID             int64           `gorm:"primaryKey"`
	BookingID      int64           `gorm:"not null;uniqueIndex:idx_payments_booking"`
	Booking        Booking         `gorm:"constraint:OnDelete:CASCADE"`
	Amount         decimal.Decimal `gorm:"type:numeric(10,2);not null;check:chk_payments_amount,amount > 0"`
	Currency       string          `gorm:"type:varchar(3);not null;default:USD"`
	Method         string          `gorm:"type:varchar(50);not null"`
	TransactionID  *string         `gorm:"type:varchar(255)"`
	Status         string          `gorm:"type:varchar(20);not null;default:pending;check:chk_payments_status,status IN ('pending','completed','failed','refunded')"`
	FailureReason  string          `gorm:"type:text;not null;default:''"`
	RefundedAmount decimal.Decimal `gorm:"type:numeric(10,2);not null;default:0"`
	CreatedAt      time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP;autoCreateTime"`
	UpdatedAt      time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP;autoUpdateTime"`
}

// Models in dependency order.
func Models() []any {
	return []any{&User{}, &Room{}, &Booking{}, &Payment{}}
}

// Open connects gorm to Postgres for migrations.
func Open(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return db, nil
}

// Migrate creates or updates every table. On Postgres it also installs the
// exclusion constraint that keeps active stays for one room from overlapping.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	if db.Dialector.Name() != "postgres" {
		return nil
	}
	for _, stmt := range postgresExtras {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("apply postgres constraint: %w", err)
		}
	}
	return nil
}

var postgresExtras = []string{
	`CREATE EXTENSION IF NOT EXISTS btree_gist`,
	`DO $$
BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'bookings_no_overlap') THEN
    ALTER TABLE bookings ADD CONSTRAINT bookings_no_overlap
      EXCLUDE USING gist (room_id WITH =, daterange(check_in_date, check_out_date, '[)') WITH &&)
      WHERE (status IN ('pending','confirmed'));
  END IF;
END$$`,
}
