// server/internal/models/common.go
package models

// BloodTypes liệt kê 8 nhóm máu ABO/Rh được hệ thống hỗ trợ.
var BloodTypes = []string{"A+", "A-", "B+", "B-", "O+", "O-", "AB+", "AB-"}

// IsValidBloodType kiểm tra một chuỗi có phải là nhóm máu hợp lệ không.
func IsValidBloodType(bt string) bool {
	for _, t := range BloodTypes {
		if t == bt {
			return true
		}
	}
	return false
}

// Trạng thái của một Request. Chỉ đi tiến, không bao giờ quay lui:
// pending -> processing (claim khi fulfill) -> fulfilled.
// processing quay về pending duy nhất khi claim bị nhả ra (kho không đủ).
const (
	RequestStatusPending    = "pending"
	RequestStatusProcessing = "processing"
	RequestStatusFulfilled  = "fulfilled"
)

// Mức độ khẩn cấp của một Request.
const (
	UrgencyNormal = "normal"
	UrgencyUrgent = "urgent"
)

// Mức độ khẩn cấp của Alert, ánh xạ từ urgency của Request.
const (
	AlertUrgencyHigh     = "high"
	AlertUrgencyCritical = "critical"
)

const (
	AlertStatusPending  = "pending"
	AlertStatusAccepted = "accepted"
	AlertStatusDeclined = "declined"
)

// AlertUrgencyFor ánh xạ urgency của Request sang urgency của Alert.
func AlertUrgencyFor(requestUrgency string) string {
	if requestUrgency == UrgencyUrgent {
		return AlertUrgencyCritical
	}
	return AlertUrgencyHigh
}
