package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/sikshyalaya/backend/internal/application"
	"github.com/sikshyalaya/backend/internal/domain/entity"
	"github.com/sikshyalaya/backend/internal/interface/middleware"
	"github.com/sikshyalaya/backend/pkg/response"
	"github.com/sikshyalaya/backend/pkg/validation"
)

type PaymentHandler struct {
	Payments *application.PaymentService
	Logger   *logrus.Logger
}

func NewPaymentHandler(payments *application.PaymentService, logger *logrus.Logger) *PaymentHandler {
	return &PaymentHandler{Payments: payments, Logger: logger}
}

// esewaPaymentData carries the fields the eSewa success redirect hands to
// the frontend, posted back verbatim under paymentData.
type esewaPaymentData struct {
	TransactionUUID  string `json:"transaction_uuid" binding:"required"`
	TransactionCode  string `json:"transaction_code" binding:"required"`
	Status           string `json:"status" binding:"required"`
	TotalAmount      string `json:"total_amount" binding:"required"`
	ProductCode      string `json:"product_code"`
	SignedFieldNames string `json:"signed_field_names"`
	Signature        string `json:"signature"`
}

type verifyEsewaRequest struct {
	CourseID    string           `json:"courseId" binding:"required,uuid"`
	PaymentData esewaPaymentData `json:"paymentData" binding:"required"`
}

// The legacy oid is the course id, so it gets the same uuid validation as the
// v2 courseId before it reaches Postgres.
type verifyEsewaLegacyRequest struct {
	OID   string `json:"oid" binding:"required,uuid"`
	Amt   string `json:"amt" binding:"required"`
	RefID string `json:"refId" binding:"required"`
}

type paymentResponse struct {
	TransactionUUID string     `json:"transactionId"`
	CourseID        string     `json:"courseId"`
	Amount          float64    `json:"amount"`
	Status          string     `json:"status"`
	IsPremium       bool       `json:"isPremium"`
	AppliedAt       *time.Time `json:"appliedAt,omitempty"`
	AlreadyApplied  bool       `json:"alreadyApplied"`
}

func toPaymentResponse(res *application.PaymentResult) paymentResponse {
	return paymentResponse{
		TransactionUUID: res.Payment.TransactionUUID,
		CourseID:        res.Payment.CourseID,
		Amount:          res.Payment.Amount,
		Status:          res.Payment.Status,
		IsPremium:       res.Payment.Status == entity.PaymentStatusApplied,
		AppliedAt:       res.Payment.AppliedAt,
		AlreadyApplied:  res.AlreadyApplied,
	}
}

// VerifyEsewaV2 POST /api/payments/verify-esewa-v2 (auth required)
func (h *PaymentHandler) VerifyEsewaV2(c *gin.Context) {
	var req verifyEsewaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid request", validation.ToDetails(err))
		return
	}
	uid := c.GetString(middleware.CtxUserIDKey)

	res, err := h.Payments.VerifyEsewa(c.Request.Context(), uid, req.CourseID, application.EsewaCallback{
		TransactionUUID:  req.PaymentData.TransactionUUID,
		TransactionCode:  req.PaymentData.TransactionCode,
		Status:           req.PaymentData.Status,
		TotalAmount:      req.PaymentData.TotalAmount,
		ProductCode:      req.PaymentData.ProductCode,
		SignedFieldNames: req.PaymentData.SignedFieldNames,
		Signature:        req.PaymentData.Signature,
	})
	if err != nil {
		h.Logger.WithError(err).WithFields(logrus.Fields{
			"transaction_uuid": req.PaymentData.TransactionUUID,
			"course_id":        req.CourseID,
		}).Warn("esewa verification rejected")
		status, msg := statusFor(err)
		response.Error[any](c, status, msg, nil)
		return
	}

	msg := "payment verified and enrollment applied"
	if res.AlreadyApplied {
		msg = "payment already processed"
	}
	response.Success(c, http.StatusOK, toPaymentResponse(res), msg, nil)
}

// VerifyEsewa POST /api/payments/verify-esewa (auth required)
// Legacy callback shape kept for older app builds.
func (h *PaymentHandler) VerifyEsewa(c *gin.Context) {
	var req verifyEsewaLegacyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid request", validation.ToDetails(err))
		return
	}
	uid := c.GetString(middleware.CtxUserIDKey)

	res, err := h.Payments.VerifyEsewaLegacy(c.Request.Context(), uid, req.OID, req.Amt, req.RefID)
	if err != nil {
		status, msg := statusFor(err)
		response.Error[any](c, status, msg, nil)
		return
	}
	response.Success(c, http.StatusOK, toPaymentResponse(res), "payment verified and enrollment applied", nil)
}

// ListUnapplied GET /api/payments/unapplied (admin only)
// Operational view of payments stuck between verification and enrollment.
func (h *PaymentHandler) ListUnapplied(c *gin.Context) {
	pending, err := h.Payments.PendingReconciliation(c.Request.Context(), 100)
	if err != nil {
		status, msg := statusFor(err)
		response.Error[any](c, status, msg, nil)
		return
	}
	out := make([]paymentResponse, 0, len(pending))
	for _, p := range pending {
		out = append(out, paymentResponse{
			TransactionUUID: p.TransactionUUID,
			CourseID:        p.CourseID,
			Amount:          p.Amount,
			Status:          p.Status,
			AppliedAt:       p.AppliedAt,
		})
	}
	response.Success(c, http.StatusOK, out, "", map[string]any{"count": len(out)})
}
