package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SandeshGitHub2077/LegalClaimGPT/models"
	"github.com/SandeshGitHub2077/LegalClaimGPT/service"
)

// PredictHandler handles HTTP requests for settlement estimation
type PredictHandler struct {
	predictor *service.Predictor
}

// NewPredictHandler creates a new predict handler
func NewPredictHandler(predictor *service.Predictor) *PredictHandler {
	return &PredictHandler{predictor: predictor}
}

// ClaimRequest represents the request body for prediction and explanation.
// Amount fields tolerate numeric strings like "$50,000" the same way label
// parsing does.
type ClaimRequest struct {
	Injuries     models.InjuryList `json:"injuries"`
	MedicalBills models.Amount     `json:"medical_bills"`
	LostWages    models.Amount     `json:"lost_wages"`
	Age          models.Years      `json:"age"`
	Gender       string            `json:"gender"`
}

func (r ClaimRequest) toCase() *models.CaseRecord {
	return &models.CaseRecord{
		Injuries:     r.Injuries,
		MedicalBills: r.MedicalBills,
		LostWages:    r.LostWages,
		Age:          r.Age,
		Gender:       models.NormalizeGender(r.Gender),
	}
}

// SimilarRequest represents the request body for similar-case lookup
type SimilarRequest struct {
	Text string `json:"text" binding:"required"`
	K    int    `json:"k"`
}

// Predict handles POST /api/predict
func (h *PredictHandler) Predict(c *gin.Context) {
	var req ClaimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_REQUEST",
				"message": err.Error(),
			},
		})
		return
	}

	pred, err := h.predictor.Predict(req.toCase())
	if err != nil {
		status, code := http.StatusInternalServerError, "PREDICT_FAILED"
		if errors.Is(err, service.ErrNotReady) {
			status, code = http.StatusServiceUnavailable, "MODEL_NOT_READY"
		}
		c.JSON(status, gin.H{
			"success": false,
			"error": gin.H{
				"code":    code,
				"message": err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"predicted_settlement": pred,
		},
	})
}

// Explain handles POST /api/explain
func (h *PredictHandler) Explain(c *gin.Context) {
	var req ClaimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_REQUEST",
				"message": err.Error(),
			},
		})
		return
	}

	result, err := h.predictor.Explain(req.toCase())
	if err != nil {
		status, code := http.StatusInternalServerError, "EXPLAIN_FAILED"
		if errors.Is(err, service.ErrNotReady) {
			status, code = http.StatusServiceUnavailable, "MODEL_NOT_READY"
		}
		c.JSON(status, gin.H{
			"success": false,
			"error": gin.H{
				"code":    code,
				"message": err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    result,
	})
}

// Similar handles POST /api/similar
func (h *PredictHandler) Similar(c *gin.Context) {
	var req SimilarRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_REQUEST",
				"message": err.Error(),
			},
		})
		return
	}
	if req.K <= 0 {
		req.K = 5
	}

	hits, err := h.predictor.Similar(c.Request.Context(), req.Text, req.K)
	if err != nil {
		status, code := http.StatusInternalServerError, "SIMILAR_FAILED"
		if errors.Is(err, service.ErrNotReady) {
			status, code = http.StatusServiceUnavailable, "INDEX_NOT_READY"
		}
		c.JSON(status, gin.H{
			"success": false,
			"error": gin.H{
				"code":    code,
				"message": err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"results": hits,
		},
	})
}
