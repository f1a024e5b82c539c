// server/internal/fulfillment/service.go
package fulfillment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"blood-donation-api-server/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Các lỗi nghiệp vụ của workflow fulfill. Handler ánh xạ sang mã HTTP.
var (
	ErrNotFound          = errors.New("not found")
	ErrAlreadyProcessed  = errors.New("request already processed")
	ErrInsufficientStock = errors.New("insufficient stock")
)

// Store là phần persistence mà workflow cần. MongoStore trong package
// database là hiện thực thật; test dùng fake in-memory.
type Store interface {
	// ClaimRequest chuyển status pending -> processing theo kiểu CAS.
	// Trả về ErrNotFound nếu id không tồn tại, ErrAlreadyProcessed nếu
	// request không còn pending. Chỉ một caller thắng với mỗi request.
	ClaimRequest(ctx context.Context, id primitive.ObjectID) (*models.Request, error)
	// ReleaseRequest nhả claim: processing -> pending.
	ReleaseRequest(ctx context.Context, id primitive.ObjectID) error
	// FulfillRequest chốt claim: processing -> fulfilled.
	FulfillRequest(ctx context.Context, id primitive.ObjectID) (*models.Request, error)

	FindBloodBank(ctx context.Context, id primitive.ObjectID) (*models.BloodBank, error)
	// DecrementStock trừ kho bằng một update có điều kiện duy nhất;
	// trả về ErrInsufficientStock nếu kho không đủ, kho không bao giờ âm.
	DecrementStock(ctx context.Context, bankID primitive.ObjectID, bloodType string, units int) (int, error)

	FindAvailableDonors(ctx context.Context, bloodType string) ([]models.User, error)
	InsertAlerts(ctx context.Context, alerts []models.Alert) error
}

// Pusher đẩy thông báo realtime tới các donor đang kết nối websocket.
type Pusher interface {
	BroadcastToBloodType(bloodType string, message []byte)
}

// DeadLetter nhận các sự kiện fanout thất bại để vận hành viên replay.
type DeadLetter interface {
	Publish(ctx context.Context, failure FanoutFailure) error
}

// FanoutFailure mang đủ thông tin của request để phát lại alert.
type FanoutFailure struct {
	RequestID string    `json:"requestId"`
	BloodBank string    `json:"bloodBank"`
	Doctor    string    `json:"doctor"`
	BloodType string    `json:"bloodType"`
	Units     int       `json:"units"`
	Urgency   string    `json:"urgency"`
	Reason    string    `json:"reason"`
	FailedAt  time.Time `json:"failedAt"`
}

// Service điều phối workflow fulfill: claim request, trừ kho, chốt trạng
// thái rồi fan out alert cho donor tương thích.
type Service struct {
	Store      Store
	Hub        Pusher     // có thể nil
	DeadLetter DeadLetter // có thể nil
	Logger     *zap.Logger
}

// Fulfill cố gắng thoả mãn một request từ kho của chính bank đang gọi.
//
// Trình tự đảm bảo không bao giờ trừ kho hai lần cho cùng một request:
//  1. CAS pending -> processing: chỉ một caller giữ được claim.
//  2. Trừ kho bằng update có điều kiện ($gte units): kho không thể âm.
//  3. processing -> fulfilled.
//
// Kho không đủ hoặc bank không tồn tại thì claim được nhả lại về pending.
// Fanout alert (bước 4) là best-effort: lỗi được log và đẩy vào dead-letter
// chứ không rollback phần trừ kho / đổi trạng thái.
func (s *Service) Fulfill(ctx context.Context, requestID, bankID primitive.ObjectID) (*models.Request, error) {
	req, err := s.Store.ClaimRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}

	bank, err := s.Store.FindBloodBank(ctx, bankID)
	if err != nil {
		s.release(ctx, requestID)
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("blood bank: %w", ErrNotFound)
		}
		return nil, err
	}

	if _, err := s.Store.DecrementStock(ctx, bankID, req.BloodType, req.Units); err != nil {
		s.release(ctx, requestID)
		return nil, err
	}

	fulfilled, err := s.Store.FulfillRequest(ctx, requestID)
	if err != nil {
		// Kho đã trừ nhưng không chốt được trạng thái. Không tự bù trừ:
		// request còn ở processing, cần vận hành viên can thiệp.
		s.Logger.Error("failed to mark request fulfilled after stock decrement",
			zap.String("requestId", requestID.Hex()),
			zap.Error(err))
		return nil, err
	}

	s.fanout(ctx, fulfilled, bank)

	return fulfilled, nil
}

func (s *Service) release(ctx context.Context, requestID primitive.ObjectID) {
	if err := s.Store.ReleaseRequest(ctx, requestID); err != nil {
		s.Logger.Error("failed to release fulfillment claim",
			zap.String("requestId", requestID.Hex()),
			zap.Error(err))
	}
}

// fanout tạo một Alert cho mỗi donor tương thích đang sẵn sàng và đẩy sự
// kiện realtime qua hub. Thất bại không ảnh hưởng tới request đã fulfill.
func (s *Service) fanout(ctx context.Context, req *models.Request, bank *models.BloodBank) {
	donors, err := s.Store.FindAvailableDonors(ctx, req.BloodType)
	if err != nil {
		s.reportFanoutFailure(ctx, req, bank, fmt.Sprintf("donor query failed: %v", err))
		return
	}
	if len(donors) == 0 {
		return
	}

	condition := fmt.Sprintf("Urgent need of %d unit(s) of %s", req.Units, req.BloodType)
	alerts := make([]models.Alert, 0, len(donors))
	for _, donor := range donors {
		alerts = append(alerts, models.Alert{
			Doctor:    req.RequestedBy,
			BloodBank: bank.ID,
			Donor:     donor.ID,
			BloodType: req.BloodType,
			Quantity:  req.Units,
			Urgency:   models.AlertUrgencyFor(req.Urgency),
			Status:    models.AlertStatusPending,
			PatientInfo: models.PatientInfo{
				Name:      req.PatientID,
				Condition: condition,
			},
			CreatedAt: time.Now(),
		})
	}

	if err := s.Store.InsertAlerts(ctx, alerts); err != nil {
		s.reportFanoutFailure(ctx, req, bank, fmt.Sprintf("alert insert failed: %v", err))
		return
	}

	s.Logger.Info("alerts sent to compatible donors",
		zap.String("requestId", req.ID.Hex()),
		zap.String("bloodType", req.BloodType),
		zap.Int("donors", len(alerts)))

	if s.Hub != nil {
		notification := map[string]interface{}{
			"event":       "blood_alert",
			"bloodType":   req.BloodType,
			"quantity":    req.Units,
			"urgency":     models.AlertUrgencyFor(req.Urgency),
			"bloodBank":   bank.HospitalName,
			"patientInfo": alerts[0].PatientInfo,
		}
		if payload, err := json.Marshal(notification); err == nil {
			s.Hub.BroadcastToBloodType(req.BloodType, payload)
		}
	}
}

func (s *Service) reportFanoutFailure(ctx context.Context, req *models.Request, bank *models.BloodBank, reason string) {
	s.Logger.Error("alert fanout failed, request stays fulfilled",
		zap.String("requestId", req.ID.Hex()),
		zap.String("bloodType", req.BloodType),
		zap.String("reason", reason))

	if s.DeadLetter == nil {
		return
	}
	failure := FanoutFailure{
		RequestID: req.ID.Hex(),
		BloodBank: bank.ID.Hex(),
		Doctor:    req.RequestedBy.Hex(),
		BloodType: req.BloodType,
		Units:     req.Units,
		Urgency:   req.Urgency,
		Reason:    reason,
		FailedAt:  time.Now(),
	}
	if err := s.DeadLetter.Publish(ctx, failure); err != nil {
		s.Logger.Error("failed to publish fanout failure to dead-letter topic", zap.Error(err))
	}
}
