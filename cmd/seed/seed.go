package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

const dateLayout = "2006-01-02"

var validUnits = map[string]bool{"KG": true, "TON": true, "BAG": true, "LB": true}

type User struct {
	ID         string `yaml:"id"`
	Username   string `yaml:"username"`
	Email      string `yaml:"email"`
	TelegramID *int64 `yaml:"telegram_id"`
}

type Shed struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

type AlarmConfig struct {
	ID        string   `yaml:"id"`
	Type      string   `yaml:"type"`
	Threshold float64  `yaml:"threshold"`
	Critical  *float64 `yaml:"critical"`
}

type Farm struct {
	ID        string        `yaml:"id"`
	Name      string        `yaml:"name"`
	ManagerID string        `yaml:"manager_id"`
	Sheds     []Shed        `yaml:"sheds"`
	Alarms    []AlarmConfig `yaml:"alarms"`
}

type Flock struct {
	ID              string `yaml:"id"`
	FarmID          string `yaml:"farm_id"`
	ShedID          string `yaml:"shed_id"`
	Breed           string `yaml:"breed"`
	InitialQuantity int    `yaml:"initial_quantity"`
	CurrentQuantity int    `yaml:"current_quantity"`
	ArrivalDate     string `yaml:"arrival_date"`
}

type Batch struct {
	ID         string `yaml:"id"`
	EntryDate  string `yaml:"entry_date"`
	Quantity   string `yaml:"quantity"`
	Supplier   string `yaml:"supplier"`
	LotNumber  string `yaml:"lot_number"`
	ExpiryDate string `yaml:"expiry_date"`
}

type InventoryItem struct {
	ID                    string  `yaml:"id"`
	FarmID                string  `yaml:"farm_id"`
	ShedID                string  `yaml:"shed_id"`
	Name                  string  `yaml:"name"`
	Unit                  string  `yaml:"unit"`
	MinimumStock          string  `yaml:"minimum_stock"`
	AlertThresholdDays    int     `yaml:"alert_threshold_days"`
	CriticalThresholdDays int     `yaml:"critical_threshold_days"`
	Batches               []Batch `yaml:"batches"`
}

// SeedFile is the root of a seed document
type SeedFile struct {
	Users           []User          `yaml:"users"`
	MortalityCauses []string        `yaml:"mortality_causes"`
	Farms           []Farm          `yaml:"farms"`
	Flocks          []Flock         `yaml:"flocks"`
	InventoryItems  []InventoryItem `yaml:"inventory_items"`
}

// SeedStats counts upserted rows per table
type SeedStats struct {
	Users   int
	Causes  int
	Farms   int
	Sheds   int
	Alarms  int
	Flocks  int
	Items   int
	Batches int
	Skipped int
}

// LoadSeedFile reads and validates a seed document
func LoadSeedFile(path string) (*SeedFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read seed file")
	}

	var f SeedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, errors.Wrap(err, "yaml parse")
	}
	if err := f.Validate(); err != nil {
		return nil, errors.Wrapf(err, "invalid seed file %s", path)
	}
	return &f, nil
}

// Validate checks ids, dates, quantities and cross references
func (f *SeedFile) Validate() error {
	farms := make(map[string]bool)
	for _, farm := range f.Farms {
		if err := checkUUID("farm", farm.ID); err != nil {
			return err
		}
		farms[farm.ID] = true
	}

	for _, user := range f.Users {
		if err := checkUUID("user", user.ID); err != nil {
			return err
		}
		if user.Username == "" {
			return fmt.Errorf("user %s: username is required", user.ID)
		}
	}

	for _, flock := range f.Flocks {
		if err := checkUUID("flock", flock.ID); err != nil {
			return err
		}
		if !farms[flock.FarmID] {
			return fmt.Errorf("flock %s: unknown farm %s", flock.ID, flock.FarmID)
		}
		if flock.InitialQuantity <= 0 {
			return fmt.Errorf("flock %s: initial_quantity must be positive", flock.ID)
		}
		if flock.CurrentQuantity < 0 || flock.CurrentQuantity > flock.InitialQuantity {
			return fmt.Errorf("flock %s: current_quantity must be between 0 and initial_quantity", flock.ID)
		}
		if _, err := time.Parse(dateLayout, flock.ArrivalDate); err != nil {
			return fmt.Errorf("flock %s: invalid arrival_date: %v", flock.ID, err)
		}
	}

	for _, item := range f.InventoryItems {
		if err := checkUUID("inventory item", item.ID); err != nil {
			return err
		}
		if !farms[item.FarmID] {
			return fmt.Errorf("inventory item %s: unknown farm %s", item.ID, item.FarmID)
		}
		if !validUnits[item.Unit] {
			return fmt.Errorf("inventory item %s: unit must be one of KG, TON, BAG, LB", item.ID)
		}
		if _, err := parseQuantity(item.MinimumStock, true); err != nil {
			return fmt.Errorf("inventory item %s: minimum_stock: %v", item.ID, err)
		}
		for _, batch := range item.Batches {
			if err := checkUUID("batch", batch.ID); err != nil {
				return err
			}
			if _, err := parseQuantity(batch.Quantity, false); err != nil {
				return fmt.Errorf("batch %s: quantity: %v", batch.ID, err)
			}
			if _, err := time.Parse(dateLayout, batch.EntryDate); err != nil {
				return fmt.Errorf("batch %s: invalid entry_date: %v", batch.ID, err)
			}
			if batch.ExpiryDate != "" {
				if _, err := time.Parse(dateLayout, batch.ExpiryDate); err != nil {
					return fmt.Errorf("batch %s: invalid expiry_date: %v", batch.ID, err)
				}
			}
		}
	}
	return nil
}

func checkUUID(kind, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%s id %q is not a UUID", kind, id)
	}
	return nil
}

// parseQuantity parses a decimal; an empty value is zero when allowZero is set
func parseQuantity(raw string, allowZero bool) (decimal.Decimal, error) {
	if raw == "" && allowZero {
		return decimal.Zero, nil
	}
	q, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, err
	}
	if q.IsNegative() || (!allowZero && q.IsZero()) {
		return decimal.Zero, fmt.Errorf("must be positive, got %s", raw)
	}
	return q, nil
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// dateParam converts a validated date string into a query argument
func dateParam(s string) interface{} {
	if s == "" {
		return nil
	}
	d, _ := time.Parse(dateLayout, s)
	return d
}

// Apply upserts the document inside tx. Existing batches are left untouched so
// repeated runs never reset consumed stock.
func (f *SeedFile) Apply(ctx context.Context, tx pgx.Tx) (*SeedStats, error) {
	stats := &SeedStats{}

	for _, u := range f.Users {
		if _, err := tx.Exec(ctx, `INSERT INTO farm.users (id, username, email, telegram_id)
			VALUES ($1,$2,$3,$4)
			ON CONFLICT (id) DO UPDATE SET username=EXCLUDED.username, email=EXCLUDED.email, telegram_id=EXCLUDED.telegram_id`,
			u.ID, u.Username, u.Email, u.TelegramID); err != nil {
			return nil, errors.Wrapf(err, "user %s", u.Username)
		}
		stats.Users++
	}

	for _, name := range f.MortalityCauses {
		if _, err := tx.Exec(ctx, `INSERT INTO farm.mortality_causes (id, name) VALUES ($1,$2)
			ON CONFLICT (name) DO NOTHING`, uuid.New(), name); err != nil {
			return nil, errors.Wrapf(err, "mortality cause %s", name)
		}
		stats.Causes++
	}

	for _, farm := range f.Farms {
		if _, err := tx.Exec(ctx, `INSERT INTO farm.farms (id, name, manager_id) VALUES ($1,$2,$3)
			ON CONFLICT (id) DO UPDATE SET name=EXCLUDED.name, manager_id=EXCLUDED.manager_id`,
			farm.ID, farm.Name, nullable(farm.ManagerID)); err != nil {
			return nil, errors.Wrapf(err, "farm %s", farm.Name)
		}
		stats.Farms++

		for _, shed := range farm.Sheds {
			if _, err := tx.Exec(ctx, `INSERT INTO farm.sheds (id, farm_id, name) VALUES ($1,$2,$3)
				ON CONFLICT (id) DO UPDATE SET name=EXCLUDED.name`, shed.ID, farm.ID, shed.Name); err != nil {
				return nil, errors.Wrapf(err, "shed %s", shed.Name)
			}
			stats.Sheds++
		}

		for _, alarm := range farm.Alarms {
			if _, err := tx.Exec(ctx, `INSERT INTO farm.alarm_configurations (id, farm_id, alarm_type, threshold_value, critical_threshold, is_active)
				VALUES ($1,$2,$3,$4,$5,TRUE)
				ON CONFLICT (id) DO UPDATE SET threshold_value=EXCLUDED.threshold_value, critical_threshold=EXCLUDED.critical_threshold, is_active=TRUE`,
				alarm.ID, farm.ID, alarm.Type, alarm.Threshold, alarm.Critical); err != nil {
				return nil, errors.Wrapf(err, "alarm %s", alarm.Type)
			}
			stats.Alarms++
		}
	}

	for _, flock := range f.Flocks {
		if _, err := tx.Exec(ctx, `INSERT INTO farm.flocks (id, farm_id, shed_id, breed, initial_quantity, current_quantity, arrival_date)
			VALUES ($1,$2,$3,$4,$5,$6,$7)
			ON CONFLICT (id) DO NOTHING`,
			flock.ID, flock.FarmID, nullable(flock.ShedID), flock.Breed, flock.InitialQuantity, flock.CurrentQuantity, dateParam(flock.ArrivalDate)); err != nil {
			return nil, errors.Wrapf(err, "flock %s", flock.ID)
		}
		stats.Flocks++
	}

	for _, item := range f.InventoryItems {
		minimum, _ := parseQuantity(item.MinimumStock, true)
		alertDays, criticalDays := item.AlertThresholdDays, item.CriticalThresholdDays
		if alertDays == 0 {
			alertDays = 5
		}
		if criticalDays == 0 {
			criticalDays = 2
		}

		if _, err := tx.Exec(ctx, `INSERT INTO farm.inventory_items (id, farm_id, shed_id, name, unit, minimum_stock, alert_threshold_days, critical_threshold_days)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
			ON CONFLICT (id) DO UPDATE SET name=EXCLUDED.name, minimum_stock=EXCLUDED.minimum_stock,
			  alert_threshold_days=EXCLUDED.alert_threshold_days, critical_threshold_days=EXCLUDED.critical_threshold_days, updated_at=now()`,
			item.ID, item.FarmID, nullable(item.ShedID), item.Name, item.Unit, minimum, alertDays, criticalDays); err != nil {
			return nil, errors.Wrapf(err, "inventory item %s", item.Name)
		}
		stats.Items++

		for _, batch := range item.Batches {
			quantity, _ := parseQuantity(batch.Quantity, false)
			tag, err := tx.Exec(ctx, `INSERT INTO farm.stock_batches (id, inventory_item_id, entry_date, initial_quantity, current_quantity, supplier, lot_number, expiry_date)
				VALUES ($1,$2,$3,$4,$4,$5,$6,$7)
				ON CONFLICT (id) DO NOTHING`,
				batch.ID, item.ID, dateParam(batch.EntryDate), quantity, nullable(batch.Supplier), nullable(batch.LotNumber), dateParam(batch.ExpiryDate))
			if err != nil {
				return nil, errors.Wrapf(err, "batch %s", batch.ID)
			}
			if tag.RowsAffected() == 0 {
				stats.Skipped++
				continue
			}
			stats.Batches++
		}

		// the item's stock is always the sum of its batches
		if _, err := tx.Exec(ctx, `UPDATE farm.inventory_items i
			SET current_stock = COALESCE((SELECT SUM(b.current_quantity) FROM farm.stock_batches b WHERE b.inventory_item_id = i.id), 0),
			    last_restock_date = (SELECT MAX(b.entry_date) FROM farm.stock_batches b WHERE b.inventory_item_id = i.id),
			    updated_at = now()
			WHERE i.id = $1`, item.ID); err != nil {
			return nil, errors.Wrapf(err, "recalculate stock for %s", item.Name)
		}
	}

	return stats, nil
}
