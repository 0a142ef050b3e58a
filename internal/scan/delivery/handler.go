package delivery

import (
	"errors"
	"net/http"
	"sync"
	"time"

	authdelivery "github.com/WesleyKang13/cybersecurity/internal/auth/delivery"
	scandto "github.com/WesleyKang13/cybersecurity/internal/scan/dto"
	"github.com/WesleyKang13/cybersecurity/internal/scan/usecase"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// stateTTL bounds how long a pending OAuth consent handshake is valid.
const stateTTL = 10 * time.Minute

type pendingState struct {
	userID    string
	createdAt time.Time
}

type ScanHandler struct {
	scanUsecase usecase.ScanUsecase
	dashUsecase usecase.DashboardUsecase

	// Pending OAuth states: the consent URL is requested while
	// authenticated, but Google redirects back without our JWT, so the
	// state parameter carries the link back to the user.
	statesMu sync.Mutex
	states   map[string]pendingState
}

func NewScanHandler(scanUsecase usecase.ScanUsecase, dashUsecase usecase.DashboardUsecase) *ScanHandler {
	return &ScanHandler{
		scanUsecase: scanUsecase,
		dashUsecase: dashUsecase,
		states:      make(map[string]pendingState),
	}
}

// GetDashboard returns stats plus the merged recent-alerts feed.
func (h *ScanHandler) GetDashboard(c *gin.Context) {
	user := authdelivery.CurrentUser(c)
	filter := c.DefaultQuery("filter", "all")

	resp, err := h.dashUsecase.GetDashboard(user.ID, filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, resp)
}

// AnalyzeSms classifies one submitted message and stores the verdict.
func (h *ScanHandler) AnalyzeSms(c *gin.Context) {
	user := authdelivery.CurrentUser(c)

	var req scandto.SmsAnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	verdict, err := h.scanUsecase.AnalyzeSms(c.Request.Context(), user.ID, req.Sender, req.Message)
	if err != nil {
		if errors.Is(err, usecase.ErrClassifierNotConfigured) {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Server Error: GEMINI_API_KEY is missing."})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, verdict)
}

// ScanNow runs one scan cycle for the current user synchronously.
func (h *ScanHandler) ScanNow(c *gin.Context) {
	user := authdelivery.CurrentUser(c)

	scanned, err := h.scanUsecase.ScanUserInbox(c.Request.Context(), user.ID)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"scanned": scanned})
}

// VerifySafe archives a scanned email as human-verified safe.
func (h *ScanHandler) VerifySafe(c *gin.Context) {
	user := authdelivery.CurrentUser(c)
	id := c.Param("id")

	if err := h.dashUsecase.VerifySafe(user.ID, id); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "marked as verified safe"})
}

// ConnectGoogle starts the OAuth consent flow and returns the URL the
// frontend should redirect the browser to.
func (h *ScanHandler) ConnectGoogle(c *gin.Context) {
	user := authdelivery.CurrentUser(c)

	state := uuid.New().String()
	h.statesMu.Lock()
	for key, pending := range h.states {
		if time.Since(pending.createdAt) > stateTTL {
			delete(h.states, key)
		}
	}
	h.states[state] = pendingState{userID: user.ID, createdAt: time.Now()}
	h.statesMu.Unlock()

	c.JSON(http.StatusOK, gin.H{"auth_url": h.scanUsecase.GoogleAuthURL(state)})
}

// GoogleCallback completes the consent flow. Google calls this without
// our Authorization header, so the user is resolved from the state.
func (h *ScanHandler) GoogleCallback(c *gin.Context) {
	state := c.Query("state")
	code := c.Query("code")
	if state == "" || code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing state or code"})
		return
	}

	h.statesMu.Lock()
	pending, ok := h.states[state]
	delete(h.states, state)
	h.statesMu.Unlock()

	if !ok || time.Since(pending.createdAt) > stateTTL {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown or expired state"})
		return
	}

	if err := h.scanUsecase.ConnectGoogle(c.Request.Context(), pending.userID, code); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Google Workspace connected"})
}

// DisconnectGoogle clears the stored mailbox credential.
func (h *ScanHandler) DisconnectGoogle(c *gin.Context) {
	user := authdelivery.CurrentUser(c)

	if err := h.scanUsecase.DisconnectGoogle(user.ID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "disconnected"})
}

// GetOrgReport builds the admin date-range report.
func (h *ScanHandler) GetOrgReport(c *gin.Context) {
	admin := authdelivery.CurrentUser(c)

	startStr := c.Query("start_date")
	endStr := c.Query("end_date")
	if startStr == "" || endStr == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "start_date and end_date are required"})
		return
	}

	start, err := time.Parse("2006-01-02", startStr)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid start_date"})
		return
	}
	end, err := time.Parse("2006-01-02", endStr)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid end_date"})
		return
	}
	// Make the range inclusive of the whole end day.
	end = end.Add(24*time.Hour - time.Nanosecond)

	report, err := h.dashUsecase.GetOrgReport(admin.OrganizationID, start, end)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, report)
}

// GetOrgThreats lists threat verdicts across the organization.
func (h *ScanHandler) GetOrgThreats(c *gin.Context) {
	admin := authdelivery.CurrentUser(c)

	threats, err := h.dashUsecase.GetOrgThreats(admin.OrganizationID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"threats": threats})
}

// GetOrgMembers lists the organization's users for the admin sidebar.
func (h *ScanHandler) GetOrgMembers(c *gin.Context) {
	admin := authdelivery.CurrentUser(c)

	members, err := h.dashUsecase.ListOrgMembers(admin.OrganizationID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"users": members})
}
