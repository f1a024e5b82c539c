package fulfillment

import (
	"context"
	"errors"
	"sync"
	"testing"

	"blood-donation-api-server/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// fakeStore mô phỏng semantics CAS của MongoStore bằng một mutex.
type fakeStore struct {
	mu       sync.Mutex
	requests map[primitive.ObjectID]*models.Request
	banks    map[primitive.ObjectID]*models.BloodBank
	donors   []models.User
	alerts   []models.Alert

	donorErr  error
	insertErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		requests: make(map[primitive.ObjectID]*models.Request),
		banks:    make(map[primitive.ObjectID]*models.BloodBank),
	}
}

func (f *fakeStore) ClaimRequest(_ context.Context, id primitive.ObjectID) (*models.Request, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	req, ok := f.requests[id]
	if !ok {
		return nil, ErrNotFound
	}
	if req.Status != models.RequestStatusPending {
		return nil, ErrAlreadyProcessed
	}
	req.Status = models.RequestStatusProcessing
	cp := *req
	return &cp, nil
}

func (f *fakeStore) ReleaseRequest(_ context.Context, id primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if req, ok := f.requests[id]; ok && req.Status == models.RequestStatusProcessing {
		req.Status = models.RequestStatusPending
	}
	return nil
}

func (f *fakeStore) FulfillRequest(_ context.Context, id primitive.ObjectID) (*models.Request, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	req, ok := f.requests[id]
	if !ok || req.Status != models.RequestStatusProcessing {
		return nil, ErrNotFound
	}
	req.Status = models.RequestStatusFulfilled
	cp := *req
	return &cp, nil
}

func (f *fakeStore) FindBloodBank(_ context.Context, id primitive.ObjectID) (*models.BloodBank, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	bank, ok := f.banks[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *bank
	return &cp, nil
}

func (f *fakeStore) DecrementStock(_ context.Context, bankID primitive.ObjectID, bloodType string, units int) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	bank, ok := f.banks[bankID]
	if !ok {
		return 0, ErrNotFound
	}
	if bank.Inventory[bloodType] < units {
		return 0, ErrInsufficientStock
	}
	bank.Inventory[bloodType] -= units
	return bank.Inventory[bloodType], nil
}

func (f *fakeStore) FindAvailableDonors(_ context.Context, bloodType string) ([]models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.donorErr != nil {
		return nil, f.donorErr
	}
	var matched []models.User
	for _, d := range f.donors {
		if d.BloodType == bloodType && d.Status == models.DonorAvailable {
			matched = append(matched, d)
		}
	}
	return matched, nil
}

func (f *fakeStore) InsertAlerts(_ context.Context, alerts []models.Alert) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return f.insertErr
	}
	f.alerts = append(f.alerts, alerts...)
	return nil
}

type fakeDeadLetter struct {
	mu       sync.Mutex
	failures []FanoutFailure
}

func (d *fakeDeadLetter) Publish(_ context.Context, failure FanoutFailure) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.failures = append(d.failures, failure)
	return nil
}

func newService(store *fakeStore) *Service {
	return &Service{Store: store, Logger: zap.NewNop()}
}

func seedRequest(store *fakeStore, bloodType string, units int, urgency string) primitive.ObjectID {
	id := primitive.NewObjectID()
	store.requests[id] = &models.Request{
		ID:          id,
		PatientID:   "PAT-test",
		BloodType:   bloodType,
		Units:       units,
		Urgency:     urgency,
		Status:      models.RequestStatusPending,
		Hospital:    "hospital-1",
		RequestedBy: primitive.NewObjectID(),
	}
	return id
}

func seedBank(store *fakeStore, inventory map[string]int) primitive.ObjectID {
	id := primitive.NewObjectID()
	store.banks[id] = &models.BloodBank{
		ID:           id,
		HospitalName: "Central",
		Inventory:    inventory,
		IsActive:     true,
	}
	return id
}

func seedDonor(store *fakeStore, bloodType, status string) {
	store.donors = append(store.donors, models.User{
		ID:        primitive.NewObjectID(),
		Role:      models.RoleDonor,
		BloodType: bloodType,
		Status:    status,
		IsActive:  true,
	})
}

func TestFulfillSuccess(t *testing.T) {
	store := newFakeStore()
	reqID := seedRequest(store, "O-", 3, models.UrgencyUrgent)
	bankID := seedBank(store, map[string]int{"O-": 5})
	seedDonor(store, "O-", models.DonorAvailable)
	seedDonor(store, "O-", models.DonorAvailable)
	seedDonor(store, "O-", models.DonorUnavailable)
	seedDonor(store, "A+", models.DonorAvailable)

	svc := newService(store)
	fulfilled, err := svc.Fulfill(context.Background(), reqID, bankID)
	require.NoError(t, err)

	assert.Equal(t, models.RequestStatusFulfilled, fulfilled.Status)
	assert.Equal(t, 2, store.banks[bankID].Inventory["O-"])

	// Đúng một alert cho mỗi donor O- đang sẵn sàng
	require.Len(t, store.alerts, 2)
	for _, alert := range store.alerts {
		assert.Equal(t, "O-", alert.BloodType)
		assert.Equal(t, 3, alert.Quantity)
		assert.Equal(t, models.AlertUrgencyCritical, alert.Urgency)
		assert.Equal(t, models.AlertStatusPending, alert.Status)
		assert.Equal(t, bankID, alert.BloodBank)
	}
}

func TestFulfillNormalUrgencyMapsToHigh(t *testing.T) {
	store := newFakeStore()
	reqID := seedRequest(store, "A+", 1, models.UrgencyNormal)
	bankID := seedBank(store, map[string]int{"A+": 1})
	seedDonor(store, "A+", models.DonorAvailable)

	svc := newService(store)
	_, err := svc.Fulfill(context.Background(), reqID, bankID)
	require.NoError(t, err)

	require.Len(t, store.alerts, 1)
	assert.Equal(t, models.AlertUrgencyHigh, store.alerts[0].Urgency)
}

func TestFulfillRequestNotFound(t *testing.T) {
	store := newFakeStore()
	bankID := seedBank(store, map[string]int{"O-": 5})

	svc := newService(store)
	_, err := svc.Fulfill(context.Background(), primitive.NewObjectID(), bankID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFulfillBankNotFoundReleasesClaim(t *testing.T) {
	store := newFakeStore()
	reqID := seedRequest(store, "O-", 1, models.UrgencyNormal)

	svc := newService(store)
	_, err := svc.Fulfill(context.Background(), reqID, primitive.NewObjectID())
	assert.ErrorIs(t, err, ErrNotFound)

	// Claim phải được nhả lại để bank khác còn fulfill được
	assert.Equal(t, models.RequestStatusPending, store.requests[reqID].Status)
}

func TestFulfillInsufficientStock(t *testing.T) {
	store := newFakeStore()
	reqID := seedRequest(store, "O-", 10, models.UrgencyNormal)
	bankID := seedBank(store, map[string]int{"O-": 2})
	seedDonor(store, "O-", models.DonorAvailable)

	svc := newService(store)
	_, err := svc.Fulfill(context.Background(), reqID, bankID)
	assert.ErrorIs(t, err, ErrInsufficientStock)

	// Không mutation nào được giữ lại
	assert.Equal(t, models.RequestStatusPending, store.requests[reqID].Status)
	assert.Equal(t, 2, store.banks[bankID].Inventory["O-"])
	assert.Empty(t, store.alerts)
}

func TestFulfillAlreadyFulfilled(t *testing.T) {
	store := newFakeStore()
	reqID := seedRequest(store, "O-", 1, models.UrgencyNormal)
	bankID := seedBank(store, map[string]int{"O-": 5})

	svc := newService(store)
	_, err := svc.Fulfill(context.Background(), reqID, bankID)
	require.NoError(t, err)

	_, err = svc.Fulfill(context.Background(), reqID, bankID)
	assert.ErrorIs(t, err, ErrAlreadyProcessed)

	// Lần hai không được trừ kho thêm
	assert.Equal(t, 4, store.banks[bankID].Inventory["O-"])
}

func TestFulfillFanoutFailureDoesNotRollBack(t *testing.T) {
	store := newFakeStore()
	reqID := seedRequest(store, "B+", 2, models.UrgencyUrgent)
	bankID := seedBank(store, map[string]int{"B+": 3})
	seedDonor(store, "B+", models.DonorAvailable)
	store.insertErr = errors.New("alerts collection unavailable")

	deadLetter := &fakeDeadLetter{}
	svc := newService(store)
	svc.DeadLetter = deadLetter

	fulfilled, err := svc.Fulfill(context.Background(), reqID, bankID)
	require.NoError(t, err)

	// Trừ kho và đổi trạng thái vẫn là nguồn sự thật
	assert.Equal(t, models.RequestStatusFulfilled, fulfilled.Status)
	assert.Equal(t, 1, store.banks[bankID].Inventory["B+"])

	// Lỗi fanout phải được đẩy vào kênh dead-letter kèm đủ thông tin replay
	require.Len(t, deadLetter.failures, 1)
	failure := deadLetter.failures[0]
	assert.Equal(t, reqID.Hex(), failure.RequestID)
	assert.Equal(t, "B+", failure.BloodType)
	assert.Equal(t, 2, failure.Units)
}

func TestConcurrentFulfillSameRequest(t *testing.T) {
	store := newFakeStore()
	reqID := seedRequest(store, "O-", 3, models.UrgencyNormal)
	bankID := seedBank(store, map[string]int{"O-": 3})

	svc := newService(store)

	var wg sync.WaitGroup
	results := make(chan error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Fulfill(context.Background(), reqID, bankID)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var successes, rejections int
	for err := range results {
		if err == nil {
			successes++
			continue
		}
		if errors.Is(err, ErrAlreadyProcessed) || errors.Is(err, ErrInsufficientStock) {
			rejections++
		}
	}

	assert.Equal(t, 1, successes)
	assert.Equal(t, 1, rejections)
	// Kho không bao giờ âm, trừ đúng một lần
	assert.Equal(t, 0, store.banks[bankID].Inventory["O-"])
}

func TestConcurrentFulfillSharedStock(t *testing.T) {
	store := newFakeStore()
	reqA := seedRequest(store, "O-", 3, models.UrgencyNormal)
	reqB := seedRequest(store, "O-", 3, models.UrgencyNormal)
	bankID := seedBank(store, map[string]int{"O-": 3})

	svc := newService(store)

	var wg sync.WaitGroup
	results := make(chan error, 2)
	for _, id := range []primitive.ObjectID{reqA, reqB} {
		wg.Add(1)
		go func(requestID primitive.ObjectID) {
			defer wg.Done()
			_, err := svc.Fulfill(context.Background(), requestID, bankID)
			results <- err
		}(id)
	}
	wg.Wait()
	close(results)

	var successes, insufficient int
	for err := range results {
		if err == nil {
			successes++
		} else if errors.Is(err, ErrInsufficientStock) {
			insufficient++
		}
	}

	assert.Equal(t, 1, successes)
	assert.Equal(t, 1, insufficient)
	assert.Equal(t, 0, store.banks[bankID].Inventory["O-"])

	// Request thua cuộc phải quay về pending, không kẹt ở processing
	statuses := []string{store.requests[reqA].Status, store.requests[reqB].Status}
	assert.Contains(t, statuses, models.RequestStatusFulfilled)
	assert.Contains(t, statuses, models.RequestStatusPending)
}
