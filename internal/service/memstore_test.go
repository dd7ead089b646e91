package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	internalerrors "github.com/avicola-track/farm-service/internal/errors"
	"github.com/avicola-track/farm-service/internal/models"
)

// memState is the full data set of memStore; it is copied on Begin and restored on Rollback
type memState struct {
	items        map[uuid.UUID]models.InventoryItem
	batches      map[uuid.UUID]models.StockBatch
	consumption  []models.ConsumptionRecord
	flocks       map[uuid.UUID]models.Flock
	mortality    map[uuid.UUID]models.MortalityRecord
	weights      []models.WeightRecord
	causes       map[string]models.MortalityCause
	conflicts    map[uuid.UUID]models.SyncConflict
	farms        map[uuid.UUID]models.Farm
	users        map[uuid.UUID]models.User
	alarmConfigs []models.AlarmConfiguration
	alarms       []models.Alarm
}

func newMemState() *memState {
	return &memState{
		items:     map[uuid.UUID]models.InventoryItem{},
		batches:   map[uuid.UUID]models.StockBatch{},
		flocks:    map[uuid.UUID]models.Flock{},
		mortality: map[uuid.UUID]models.MortalityRecord{},
		causes:    map[string]models.MortalityCause{},
		conflicts: map[uuid.UUID]models.SyncConflict{},
		farms:     map[uuid.UUID]models.Farm{},
		users:     map[uuid.UUID]models.User{},
	}
}

func (s *memState) clone() *memState {
	c := newMemState()
	for k, v := range s.items {
		c.items[k] = v
	}
	for k, v := range s.batches {
		c.batches[k] = v
	}
	for k, v := range s.flocks {
		c.flocks[k] = v
	}
	for k, v := range s.mortality {
		c.mortality[k] = v
	}
	for k, v := range s.causes {
		c.causes[k] = v
	}
	for k, v := range s.conflicts {
		c.conflicts[k] = v
	}
	for k, v := range s.farms {
		c.farms[k] = v
	}
	for k, v := range s.users {
		c.users[k] = v
	}
	c.consumption = append(c.consumption, s.consumption...)
	c.weights = append(c.weights, s.weights...)
	c.alarmConfigs = append(c.alarmConfigs, s.alarmConfigs...)
	c.alarms = append(c.alarms, s.alarms...)
	return c
}

type memTx struct {
	snapshot *memState
	done     bool
}

// memStore is a transactional in-memory implementation of every repository the services
// use. Transactions are serialized by txMu, which stands in for row locks.
type memStore struct {
	txMu   sync.Mutex
	dataMu sync.Mutex
	state  *memState

	// batchSeq mirrors the identity column: it survives rollbacks
	batchSeq int64

	// failOn makes the named method fail with the given error
	failOn map[string]error
}

func newMemStore() *memStore {
	return &memStore{state: newMemState(), failOn: map[string]error{}}
}

func (m *memStore) repositories() *RepositoryInterfaces {
	return &RepositoryInterfaces{
		Transactions: m,
		Inventory:    m,
		Flocks:       m,
		Conflicts:    m,
		Directory:    m,
		Alarms:       m,
		Reads:        m,
	}
}

func (m *memStore) fail(method string) error {
	return m.failOn[method]
}

func (m *memStore) mustTx(tx interface{}) *memTx {
	t, ok := tx.(*memTx)
	if !ok || t == nil || t.done {
		panic(fmt.Sprintf("memStore: invalid transaction %T", tx))
	}
	return t
}

// Seeding helpers

func (m *memStore) putItem(item models.InventoryItem) {
	m.dataMu.Lock()
	defer m.dataMu.Unlock()
	m.state.items[item.ID] = item
}

func (m *memStore) putBatch(batch models.StockBatch) {
	m.dataMu.Lock()
	defer m.dataMu.Unlock()
	m.batchSeq++
	batch.Seq = m.batchSeq
	m.state.batches[batch.ID] = batch
}

func (m *memStore) putFlock(flock models.Flock) {
	m.dataMu.Lock()
	defer m.dataMu.Unlock()
	m.state.flocks[flock.ID] = flock
}

func (m *memStore) putFarm(farm models.Farm) {
	m.dataMu.Lock()
	defer m.dataMu.Unlock()
	m.state.farms[farm.ID] = farm
}

func (m *memStore) putUser(user models.User) {
	m.dataMu.Lock()
	defer m.dataMu.Unlock()
	m.state.users[user.ID] = user
}

func (m *memStore) putWeight(record models.WeightRecord) {
	m.dataMu.Lock()
	defer m.dataMu.Unlock()
	m.state.weights = append(m.state.weights, record)
}

func (m *memStore) putMortality(record models.MortalityRecord) {
	m.dataMu.Lock()
	defer m.dataMu.Unlock()
	m.state.mortality[record.ID] = record
}

func (m *memStore) putAlarmConfig(cfg models.AlarmConfiguration) {
	m.dataMu.Lock()
	defer m.dataMu.Unlock()
	m.state.alarmConfigs = append(m.state.alarmConfigs, cfg)
}

func (m *memStore) item(id uuid.UUID) models.InventoryItem {
	m.dataMu.Lock()
	defer m.dataMu.Unlock()
	return m.state.items[id]
}

func (m *memStore) batch(id uuid.UUID) models.StockBatch {
	m.dataMu.Lock()
	defer m.dataMu.Unlock()
	return m.state.batches[id]
}

func (m *memStore) flock(id uuid.UUID) models.Flock {
	m.dataMu.Lock()
	defer m.dataMu.Unlock()
	return m.state.flocks[id]
}

func (m *memStore) batchTotal(itemID uuid.UUID) decimal.Decimal {
	m.dataMu.Lock()
	defer m.dataMu.Unlock()
	total := decimal.Zero
	for _, b := range m.state.batches {
		if b.InventoryItemID == itemID {
			total = total.Add(b.CurrentQuantity)
		}
	}
	return total
}

func (m *memStore) consumptionCount() int {
	m.dataMu.Lock()
	defer m.dataMu.Unlock()
	return len(m.state.consumption)
}

func (m *memStore) mortalityRecords(flockID uuid.UUID) []models.MortalityRecord {
	m.dataMu.Lock()
	defer m.dataMu.Unlock()
	var out []models.MortalityRecord
	for _, r := range m.state.mortality {
		if r.FlockID == flockID {
			out = append(out, r)
		}
	}
	return out
}

func (m *memStore) storedAlarms() []models.Alarm {
	m.dataMu.Lock()
	defer m.dataMu.Unlock()
	return append([]models.Alarm(nil), m.state.alarms...)
}

// TransactionManager

func (m *memStore) BeginTransaction(ctx context.Context) (interface{}, error) {
	if err := m.fail("BeginTransaction"); err != nil {
		return nil, err
	}
	m.txMu.Lock()
	m.dataMu.Lock()
	defer m.dataMu.Unlock()
	return &memTx{snapshot: m.state.clone()}, nil
}

func (m *memStore) CommitTransaction(ctx context.Context, tx interface{}) error {
	t := m.mustTx(tx)
	if err := m.fail("CommitTransaction"); err != nil {
		return err
	}
	t.done = true
	m.txMu.Unlock()
	return nil
}

func (m *memStore) RollbackTransaction(ctx context.Context, tx interface{}) error {
	t, ok := tx.(*memTx)
	if !ok || t.done {
		return nil
	}
	m.dataMu.Lock()
	m.state = t.snapshot
	m.dataMu.Unlock()
	t.done = true
	m.txMu.Unlock()
	return nil
}

// InventoryRepositoryInterface

func (m *memStore) GetItem(ctx context.Context, itemID uuid.UUID) (*models.InventoryItem, error) {
	m.dataMu.Lock()
	defer m.dataMu.Unlock()
	item, ok := m.state.items[itemID]
	if !ok {
		return nil, internalerrors.NewRecordNotFound("inventory_item", itemID)
	}
	return &item, nil
}

func (m *memStore) ListItemIDs(ctx context.Context) ([]uuid.UUID, error) {
	m.dataMu.Lock()
	defer m.dataMu.Unlock()
	ids := make([]uuid.UUID, 0, len(m.state.items))
	for id := range m.state.items {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return ids, nil
}

func (m *memStore) LockItem(ctx context.Context, tx interface{}, itemID uuid.UUID) (*models.InventoryItem, error) {
	m.mustTx(tx)
	return m.GetItem(ctx, itemID)
}

func (m *memStore) GetAvailableBatches(ctx context.Context, tx interface{}, itemID uuid.UUID) ([]*models.StockBatch, error) {
	m.mustTx(tx)
	m.dataMu.Lock()
	defer m.dataMu.Unlock()
	var out []*models.StockBatch
	for _, b := range m.state.batches {
		if b.InventoryItemID == itemID && b.CurrentQuantity.IsPositive() {
			batch := b
			out = append(out, &batch)
		}
	}
	SortBatchesFIFO(out)
	return out, nil
}

func (m *memStore) CreateBatch(ctx context.Context, tx interface{}, batch *models.StockBatch) error {
	m.mustTx(tx)
	if err := m.fail("CreateBatch"); err != nil {
		return err
	}
	m.dataMu.Lock()
	defer m.dataMu.Unlock()
	m.batchSeq++
	batch.Seq = m.batchSeq
	m.state.batches[batch.ID] = *batch
	return nil
}

func (m *memStore) UpdateBatchQuantities(ctx context.Context, tx interface{}, batches []*models.StockBatch) error {
	m.mustTx(tx)
	if err := m.fail("UpdateBatchQuantities"); err != nil {
		return err
	}
	m.dataMu.Lock()
	defer m.dataMu.Unlock()
	for _, b := range batches {
		if b.CurrentQuantity.IsNegative() {
			return errors.New("stock_batches_batch_quantity_check violated")
		}
		stored := m.state.batches[b.ID]
		stored.CurrentQuantity = b.CurrentQuantity
		m.state.batches[b.ID] = stored
	}
	return nil
}

func (m *memStore) UpdateItemStock(ctx context.Context, tx interface{}, item *models.InventoryItem) error {
	m.mustTx(tx)
	if err := m.fail("UpdateItemStock"); err != nil {
		return err
	}
	if item.CurrentStock.IsNegative() {
		return errors.New("inventory_items_current_stock_check violated")
	}
	m.dataMu.Lock()
	defer m.dataMu.Unlock()
	m.state.items[item.ID] = *item
	return nil
}

func (m *memStore) ConsumptionRecordExists(ctx context.Context, tx interface{}, flockID, itemID uuid.UUID, date time.Time) (bool, error) {
	m.mustTx(tx)
	m.dataMu.Lock()
	defer m.dataMu.Unlock()
	for _, r := range m.state.consumption {
		if r.FlockID == flockID && r.InventoryItemID == itemID && r.RecordDate.Equal(date) {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) CreateConsumptionRecord(ctx context.Context, tx interface{}, record *models.ConsumptionRecord) error {
	m.mustTx(tx)
	if err := m.fail("CreateConsumptionRecord"); err != nil {
		return err
	}
	m.dataMu.Lock()
	defer m.dataMu.Unlock()
	m.state.consumption = append(m.state.consumption, *record)
	return nil
}

func (m *memStore) SumConsumption(ctx context.Context, itemID uuid.UUID, from, to time.Time) (decimal.Decimal, error) {
	m.dataMu.Lock()
	defer m.dataMu.Unlock()
	total := decimal.Zero
	for _, r := range m.state.consumption {
		if r.InventoryItemID == itemID && !r.RecordDate.Before(from) && !r.RecordDate.After(to) {
			total = total.Add(r.QuantityConsumed)
		}
	}
	return total, nil
}

func (m *memStore) LatestConsumptionDate(ctx context.Context, itemID uuid.UUID) (*time.Time, error) {
	m.dataMu.Lock()
	defer m.dataMu.Unlock()
	var latest *time.Time
	for _, r := range m.state.consumption {
		if r.InventoryItemID == itemID && (latest == nil || r.RecordDate.After(*latest)) {
			d := r.RecordDate
			latest = &d
		}
	}
	return latest, nil
}

func (m *memStore) UpdateConsumptionMetrics(ctx context.Context, itemID uuid.UUID, avg decimal.Decimal, lastConsumption *time.Time) error {
	m.dataMu.Lock()
	defer m.dataMu.Unlock()
	item, ok := m.state.items[itemID]
	if !ok {
		return internalerrors.NewRecordNotFound("inventory_item", itemID)
	}
	item.DailyAvgConsumption = avg
	item.LastConsumptionDate = lastConsumption
	m.state.items[itemID] = item
	return nil
}

// FlockRepositoryInterface

func (m *memStore) GetFlock(ctx context.Context, flockID uuid.UUID) (*models.Flock, error) {
	m.dataMu.Lock()
	defer m.dataMu.Unlock()
	flock, ok := m.state.flocks[flockID]
	if !ok {
		return nil, internalerrors.NewRecordNotFound("flock", flockID)
	}
	return &flock, nil
}

func (m *memStore) LockFlock(ctx context.Context, tx interface{}, flockID uuid.UUID) (*models.Flock, error) {
	m.mustTx(tx)
	return m.GetFlock(ctx, flockID)
}

func (m *memStore) UpdateFlockQuantity(ctx context.Context, tx interface{}, flockID uuid.UUID, currentQuantity int) error {
	m.mustTx(tx)
	if err := m.fail("UpdateFlockQuantity"); err != nil {
		return err
	}
	if currentQuantity < 0 {
		return errors.New("flocks_flock_quantity_check violated")
	}
	m.dataMu.Lock()
	defer m.dataMu.Unlock()
	flock := m.state.flocks[flockID]
	flock.CurrentQuantity = currentQuantity
	m.state.flocks[flockID] = flock
	return nil
}

func (m *memStore) GetMortalityRecordForDate(ctx context.Context, tx interface{}, flockID uuid.UUID, date time.Time) (*models.MortalityRecord, error) {
	m.dataMu.Lock()
	defer m.dataMu.Unlock()
	for _, r := range m.state.mortality {
		if r.FlockID == flockID && r.RecordDate.Equal(date) {
			record := r
			return &record, nil
		}
	}
	return nil, nil
}

func (m *memStore) CreateMortalityRecord(ctx context.Context, tx interface{}, record *models.MortalityRecord) error {
	m.mustTx(tx)
	if err := m.fail("CreateMortalityRecord"); err != nil {
		return err
	}
	m.dataMu.Lock()
	defer m.dataMu.Unlock()
	m.state.mortality[record.ID] = *record
	return nil
}

func (m *memStore) UpdateMortalityRecord(ctx context.Context, tx interface{}, record *models.MortalityRecord) error {
	m.mustTx(tx)
	m.dataMu.Lock()
	defer m.dataMu.Unlock()
	m.state.mortality[record.ID] = *record
	return nil
}

func (m *memStore) GetOrCreateCause(ctx context.Context, tx interface{}, name string) (*models.MortalityCause, error) {
	m.mustTx(tx)
	m.dataMu.Lock()
	defer m.dataMu.Unlock()
	cause, ok := m.state.causes[name]
	if !ok {
		cause = models.MortalityCause{ID: uuid.New(), Name: name, Category: "OTHER"}
		m.state.causes[name] = cause
	}
	return &cause, nil
}

func (m *memStore) GetWeightRecordForDate(ctx context.Context, flockID uuid.UUID, date time.Time) (*models.WeightRecord, error) {
	m.dataMu.Lock()
	defer m.dataMu.Unlock()
	for _, r := range m.state.weights {
		if r.FlockID == flockID && r.RecordDate.Equal(date) {
			record := r
			return &record, nil
		}
	}
	return nil, nil
}

// ConflictRepositoryInterface

func (m *memStore) CreateConflict(ctx context.Context, conflict *models.SyncConflict) error {
	if err := m.fail("CreateConflict"); err != nil {
		return err
	}
	m.dataMu.Lock()
	defer m.dataMu.Unlock()
	m.state.conflicts[conflict.ID] = *conflict
	return nil
}

func (m *memStore) GetConflict(ctx context.Context, conflictID uuid.UUID) (*models.SyncConflict, error) {
	m.dataMu.Lock()
	defer m.dataMu.Unlock()
	conflict, ok := m.state.conflicts[conflictID]
	if !ok {
		return nil, internalerrors.NewRecordNotFound("sync_conflict", conflictID)
	}
	return &conflict, nil
}

func (m *memStore) LockConflict(ctx context.Context, tx interface{}, conflictID uuid.UUID) (*models.SyncConflict, error) {
	m.mustTx(tx)
	return m.GetConflict(ctx, conflictID)
}

func (m *memStore) UpdateConflictResolution(ctx context.Context, tx interface{}, conflict *models.SyncConflict) error {
	m.mustTx(tx)
	if err := m.fail("UpdateConflictResolution"); err != nil {
		return err
	}
	m.dataMu.Lock()
	defer m.dataMu.Unlock()
	m.state.conflicts[conflict.ID] = *conflict
	return nil
}

// DirectoryRepositoryInterface

func (m *memStore) GetFarm(ctx context.Context, farmID uuid.UUID) (*models.Farm, error) {
	m.dataMu.Lock()
	defer m.dataMu.Unlock()
	farm, ok := m.state.farms[farmID]
	if !ok {
		return nil, nil
	}
	return &farm, nil
}

func (m *memStore) GetUser(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	m.dataMu.Lock()
	defer m.dataMu.Unlock()
	user, ok := m.state.users[userID]
	if !ok {
		return nil, nil
	}
	return &user, nil
}

// AlarmRepositoryInterface

func (m *memStore) GetActiveConfiguration(ctx context.Context, farmID uuid.UUID, alarmType string) (*models.AlarmConfiguration, error) {
	m.dataMu.Lock()
	defer m.dataMu.Unlock()
	for _, cfg := range m.state.alarmConfigs {
		if cfg.FarmID == farmID && cfg.AlarmType == alarmType && cfg.IsActive {
			c := cfg
			return &c, nil
		}
	}
	return nil, nil
}

func (m *memStore) CreateAlarm(ctx context.Context, alarm *models.Alarm) error {
	m.dataMu.Lock()
	defer m.dataMu.Unlock()
	m.state.alarms = append(m.state.alarms, *alarm)
	return nil
}

// ReadRepositoryInterface

func (m *memStore) ListBatches(ctx context.Context, itemID uuid.UUID) ([]*models.StockBatch, error) {
	m.dataMu.Lock()
	defer m.dataMu.Unlock()
	var out []*models.StockBatch
	for _, b := range m.state.batches {
		if b.InventoryItemID == itemID {
			batch := b
			out = append(out, &batch)
		}
	}
	SortBatchesFIFO(out)
	return out, nil
}

func (m *memStore) ListConsumptionRecords(ctx context.Context, itemID uuid.UUID, from, to time.Time) ([]*models.ConsumptionRecord, error) {
	m.dataMu.Lock()
	defer m.dataMu.Unlock()
	var out []*models.ConsumptionRecord
	for _, r := range m.state.consumption {
		if r.InventoryItemID == itemID && !r.RecordDate.Before(from) && !r.RecordDate.After(to) {
			record := r
			out = append(out, &record)
		}
	}
	return out, nil
}

func (m *memStore) ListMortalityRecords(ctx context.Context, flockID uuid.UUID, from, to time.Time) ([]*models.MortalityRecord, error) {
	m.dataMu.Lock()
	defer m.dataMu.Unlock()
	var out []*models.MortalityRecord
	for _, r := range m.state.mortality {
		if r.FlockID == flockID && !r.RecordDate.Before(from) && !r.RecordDate.After(to) {
			record := r
			out = append(out, &record)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RecordDate.Before(out[j].RecordDate) })
	return out, nil
}

func (m *memStore) ListConflicts(ctx context.Context, filter *models.ConflictFilter) ([]*models.SyncConflict, error) {
	m.dataMu.Lock()
	defer m.dataMu.Unlock()
	var out []*models.SyncConflict
	for _, c := range m.state.conflicts {
		if filter.Status != "" && string(c.ResolutionStatus) != filter.Status {
			continue
		}
		if filter.Priority != "" && string(c.Priority) != filter.Priority {
			continue
		}
		if filter.RecordType != "" && c.RecordType != filter.RecordType {
			continue
		}
		conflict := c
		out = append(out, &conflict)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if filter.Offset >= len(out) {
		return []*models.SyncConflict{}, nil
	}
	out = out[filter.Offset:]
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

var (
	_ TransactionManager           = (*memStore)(nil)
	_ InventoryRepositoryInterface = (*memStore)(nil)
	_ FlockRepositoryInterface     = (*memStore)(nil)
	_ ConflictRepositoryInterface  = (*memStore)(nil)
	_ DirectoryRepositoryInterface = (*memStore)(nil)
	_ AlarmRepositoryInterface     = (*memStore)(nil)
	_ ReadRepositoryInterface      = (*memStore)(nil)
)

// fixedClock is a Clock frozen at a given time
type fixedClock struct {
	now time.Time
}

func (c *fixedClock) Now() time.Time { return c.now }

// recordingSink captures every delivery
type recordingSink struct {
	mu    sync.Mutex
	sent  []sentNotification
	fails bool
}

type sentNotification struct {
	Kind      string
	Recipient uuid.UUID
}

func (s *recordingSink) Name() string { return "recording" }

func (s *recordingSink) Send(ctx context.Context, event *models.NotificationEvent, recipient *models.User) models.DeliveryResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, sentNotification{Kind: event.Kind, Recipient: recipient.ID})
	if s.fails {
		return models.DeliveryResult{Status: models.DeliveryError, Detail: "transport down"}
	}
	return models.DeliveryResult{Status: models.DeliverySent}
}

func (s *recordingSink) recipientsOf(kind string) []uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []uuid.UUID
	for _, n := range s.sent {
		if n.Kind == kind {
			out = append(out, n.Recipient)
		}
	}
	return out
}

var testNow = time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)

// testEnv bundles a memStore-backed service graph
type testEnv struct {
	store *memStore
	sink  *recordingSink
	deps  *ServiceDependencies
	svc   *Service
}

func newTestEnv() *testEnv {
	store := newMemStore()
	sink := &recordingSink{}
	deps := &ServiceDependencies{
		Repositories: store.repositories(),
		Sink:         sink,
		Clock:        &fixedClock{now: testNow},
	}
	return &testEnv{store: store, sink: sink, deps: deps, svc: NewService(deps)}
}

func (e *testEnv) seedItem(stock int64) models.InventoryItem {
	item := models.InventoryItem{
		ID:                    uuid.New(),
		FarmID:                uuid.New(),
		Name:                  "Starter feed",
		Unit:                  models.UnitKilogram,
		CurrentStock:          decimal.NewFromInt(stock),
		AlertThresholdDays:    models.DefaultAlertThresholdDays,
		CriticalThresholdDays: models.DefaultCriticalThresholdDays,
	}
	e.store.putItem(item)
	return item
}

func (e *testEnv) seedBatch(itemID uuid.UUID, qty int64, entry time.Time) models.StockBatch {
	batch := models.StockBatch{
		ID:              uuid.New(),
		InventoryItemID: itemID,
		EntryDate:       entry,
		InitialQuantity: decimal.NewFromInt(qty),
		CurrentQuantity: decimal.NewFromInt(qty),
		CreatedAt:       entry,
	}
	e.store.putBatch(batch)
	return batch
}

// seedFlock creates a flock on a farm managed by a fresh user
func (e *testEnv) seedFlock(quantity int) (models.Flock, models.Farm) {
	manager := models.User{ID: uuid.New(), Username: "manager"}
	e.store.putUser(manager)
	farm := models.Farm{ID: uuid.New(), Name: "North farm", ManagerID: &manager.ID}
	e.store.putFarm(farm)
	flock := models.Flock{
		ID:              uuid.New(),
		FarmID:          farm.ID,
		Breed:           "Ross 308",
		InitialQuantity: quantity,
		CurrentQuantity: quantity,
	}
	e.store.putFlock(flock)
	return flock, farm
}

func day(offset int) time.Time {
	return models.DateOnly(testNow).AddDate(0, 0, offset)
}
