package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Farm owns sheds, flocks and inventory; ManagerID is the responsible user
type Farm struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	Name      string     `json:"name" db:"name"`
	ManagerID *uuid.UUID `json:"manager_id,omitempty" db:"manager_id"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
}

// User is a notification recipient
type User struct {
	ID         uuid.UUID `json:"id" db:"id"`
	Username   string    `json:"username" db:"username"`
	Email      string    `json:"email" db:"email"`
	TelegramID *int64    `json:"telegram_id,omitempty" db:"telegram_id"`
}

// Flock is a cohort of birds with a live headcount
type Flock struct {
	ID              uuid.UUID  `json:"id" db:"id"`
	FarmID          uuid.UUID  `json:"farm_id" db:"farm_id"`
	ShedID          *uuid.UUID `json:"shed_id,omitempty" db:"shed_id"`
	Breed           string     `json:"breed" db:"breed"`
	InitialQuantity int        `json:"initial_quantity" db:"initial_quantity"`
	CurrentQuantity int        `json:"current_quantity" db:"current_quantity"`
	ArrivalDate     time.Time  `json:"arrival_date" db:"arrival_date"`
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at" db:"updated_at"`
}

// MortalityCause is a reference row for why birds died
type MortalityCause struct {
	ID       uuid.UUID `json:"id" db:"id"`
	Name     string    `json:"name" db:"name"`
	Category string    `json:"category" db:"category"`
}

// MortalityRecord holds the deaths of a flock on one day; one row per (flock, date)
type MortalityRecord struct {
	ID         uuid.UUID  `json:"id" db:"id"`
	FlockID    uuid.UUID  `json:"flock_id" db:"flock_id"`
	RecordDate time.Time  `json:"record_date" db:"record_date"`
	Deaths     int        `json:"deaths" db:"deaths"`
	CauseID    *uuid.UUID `json:"cause_id,omitempty" db:"cause_id"`
	Notes      string     `json:"notes" db:"notes"`
	RecordedBy *uuid.UUID `json:"recorded_by,omitempty" db:"recorded_by"`
	ClientID   *string    `json:"client_id,omitempty" db:"client_id"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at" db:"updated_at"`
}

// WeightRecord holds the sampled average weight of a flock on one day
type WeightRecord struct {
	ID            uuid.UUID       `json:"id" db:"id"`
	FlockID       uuid.UUID       `json:"flock_id" db:"flock_id"`
	RecordDate    time.Time       `json:"record_date" db:"record_date"`
	AverageWeight decimal.Decimal `json:"average_weight" db:"average_weight"`
	SampleSize    int             `json:"sample_size" db:"sample_size"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
}

// MortalityApplication is the outcome of applying deaths to a flock
type MortalityApplication struct {
	Record    *MortalityRecord `json:"record"`
	Flock     *Flock           `json:"flock"`
	Increment int              `json:"increment"`
	Merged    bool             `json:"merged"`
}

// MortalityDay is one point of the daily mortality series
type MortalityDay struct {
	Date          string  `json:"date"`
	Deaths        int     `json:"deaths"`
	MortalityRate float64 `json:"mortality_rate"`
}

// MortalityStats summarises the deaths of a flock over a trailing window
type MortalityStats struct {
	FlockID       uuid.UUID        `json:"flock_id"`
	TotalDeaths   int              `json:"total_deaths"`
	MortalityRate float64          `json:"mortality_rate"`
	DailyAverage  float64          `json:"daily_average"`
	WorstDay      *MortalityRecord `json:"worst_day,omitempty"`
	Period        string           `json:"period"`
	Series        []MortalityDay   `json:"series"`
}
