package billing

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/quickcart/backend/internal/domain/shared"
)

// RefundStatus models the approval workflow plus the system fast path that
// starts directly in PROCESSING. PROCESSED and REJECTED are terminal.
type RefundStatus string

const (
	RefundStatusPendingApproval RefundStatus = "PENDING_APPROVAL"
	RefundStatusApproved        RefundStatus = "APPROVED"
	RefundStatusProcessing      RefundStatus = "PROCESSING"
	RefundStatusProcessed       RefundStatus = "PROCESSED"
	RefundStatusRejected        RefundStatus = "REJECTED"
)

// IsValid checks if the refund status is valid
func (s RefundStatus) IsValid() bool {
	switch s {
	case RefundStatusPendingApproval, RefundStatusApproved, RefundStatusProcessing,
		RefundStatusProcessed, RefundStatusRejected:
		return true
	}
	return false
}

func (s RefundStatus) String() string {
	return string(s)
}

// RefundInitiator distinguishes the buyer-requested path from the automatic one
type RefundInitiator string

const (
	RefundInitiatorSystem   RefundInitiator = "SYSTEM"
	RefundInitiatorRetailer RefundInitiator = "RETAILER"
)

// Refund tracks returning a captured payment. At most one refund ever exists
// per order, enforced by the unique order_id constraint. ApprovedAt doubles
// as the processing-start clock the settlement poller measures against.
type Refund struct {
	shared.BaseEntity
	OrderID          uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:uq_refunds_order" json:"order_id"`
	PaymentID        uuid.UUID       `gorm:"type:uuid;not null;index" json:"payment_id"`
	Gateway          string          `gorm:"size:32;not null" json:"gateway"`
	Initiator        RefundInitiator `gorm:"size:16;not null" json:"initiator"`
	Status           RefundStatus    `gorm:"size:20;not null;index" json:"status"`
	Reason           string          `gorm:"size:512" json:"reason,omitempty"`
	ManufacturerNote *string         `gorm:"size:512" json:"manufacturer_note,omitempty"`
	RequestedAt      time.Time       `gorm:"not null" json:"requested_at"`
	ApprovedAt       *time.Time      `json:"approved_at,omitempty"`
	ProcessedAt      *time.Time      `json:"processed_at,omitempty"`
	Reference        *string         `gorm:"size:64" json:"reference,omitempty"`
}

// TableName returns the table name for GORM
func (Refund) TableName() string {
	return "refunds"
}

// NewRefundRequest creates a buyer-initiated refund awaiting seller approval
func NewRefundRequest(orderID, paymentID uuid.UUID, gateway, reason string) *Refund {
	return &Refund{
		BaseEntity:  shared.NewBaseEntity(nil),
		OrderID:     orderID,
		PaymentID:   paymentID,
		Gateway:     gateway,
		Initiator:   RefundInitiatorRetailer,
		Status:      RefundStatusPendingApproval,
		Reason:      reason,
		RequestedAt: time.Now(),
	}
}

// NewSystemRefund creates an automatic refund already in PROCESSING, with
// approved-at stamped now as its processing-start time.
func NewSystemRefund(orderID, paymentID uuid.UUID, gateway, reason string) *Refund {
	now := time.Now()
	return &Refund{
		BaseEntity:  shared.NewBaseEntity(nil),
		OrderID:     orderID,
		PaymentID:   paymentID,
		Gateway:     gateway,
		Initiator:   RefundInitiatorSystem,
		Status:      RefundStatusProcessing,
		Reason:      reason,
		RequestedAt: now,
		ApprovedAt:  &now,
	}
}

// Approve records the manufacturer's decision on a pending request
func (r *Refund) Approve(note string) error {
	if r.Status != RefundStatusPendingApproval {
		return shared.NewDomainErrorf("INVALID_REFUND_STATE",
			"cannot approve refund %s in status %s", r.ID, r.Status)
	}
	now := time.Now()
	r.Status = RefundStatusApproved
	r.ApprovedAt = &now
	if note = strings.TrimSpace(note); note != "" {
		r.ManufacturerNote = &note
	}
	r.Audit.Touch(nil)
	return nil
}

// Reject terminally declines a pending request
func (r *Refund) Reject(note string) error {
	if r.Status != RefundStatusPendingApproval {
		return shared.NewDomainErrorf("INVALID_REFUND_STATE",
			"cannot reject refund %s in status %s", r.ID, r.Status)
	}
	now := time.Now()
	r.Status = RefundStatusRejected
	r.ApprovedAt = &now
	if note = strings.TrimSpace(note); note != "" {
		r.ManufacturerNote = &note
	}
	r.Audit.Touch(nil)
	return nil
}

// StartProcessing moves an approved refund into the settlement pipeline
func (r *Refund) StartProcessing() error {
	if r.Status == RefundStatusProcessing {
		return nil
	}
	if r.Status != RefundStatusApproved {
		return shared.NewDomainErrorf("INVALID_REFUND_STATE",
			"cannot start processing refund %s in status %s", r.ID, r.Status)
	}
	r.Status = RefundStatusProcessing
	r.Audit.Touch(nil)
	return nil
}

// Complete settles the refund terminally, assigning a reference token when
// none was issued by the gateway.
func (r *Refund) Complete() error {
	if r.Status == RefundStatusProcessed {
		return nil
	}
	if r.Status != RefundStatusProcessing {
		return shared.NewDomainErrorf("INVALID_REFUND_STATE",
			"cannot complete refund %s in status %s", r.ID, r.Status)
	}
	now := time.Now()
	r.Status = RefundStatusProcessed
	r.ProcessedAt = &now
	if r.Reference == nil {
		ref := fmt.Sprintf("RF-%s", uuid.New().String())
		r.Reference = &ref
	}
	r.Audit.Touch(nil)
	return nil
}

// ProcessingSince reports how long the refund has been in PROCESSING,
// measured from approved-at.
func (r *Refund) ProcessingSince() (time.Time, bool) {
	if r.Status != RefundStatusProcessing || r.ApprovedAt == nil {
		return time.Time{}, false
	}
	return *r.ApprovedAt, true
}
