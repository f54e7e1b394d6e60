package api

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/TezottoWell/app-rodrigo-martins/internal/repository"
	"github.com/TezottoWell/app-rodrigo-martins/internal/service"
)

// ClientHandler serves the training area and a client's own records.
type ClientHandler struct {
	planService    service.PlanService
	sessionService service.SessionService
	accessService  service.AccessService
	clientService  service.ClientService
}

func NewClientHandler(
	planService service.PlanService,
	sessionService service.SessionService,
	accessService service.AccessService,
	clientService service.ClientService,
) *ClientHandler {
	return &ClientHandler{
		planService:    planService,
		sessionService: sessionService,
		accessService:  accessService,
		clientService:  clientService,
	}
}

// --- Request Structs ---

type StartSessionRequest struct {
	PlanID string `json:"planId" binding:"required"`
	Day    int    `json:"day" binding:"required"`
}

type AddWeightRequest struct {
	WeightKg float64 `json:"weightKg" binding:"required"`
}

type PhotoUploadRequest struct {
	ContentType string `json:"contentType" binding:"required"`
}

type ConfirmPhotoRequest struct {
	ObjectKey string `json:"objectKey" binding:"required"`
}

// --- Plans ---

// GetMyPlans godoc
// @Summary Get my workout plans
// @Description Plans untouched for a week have their completed days cleared first.
// @Tags Client
// @Produce json
// @Security BearerAuth
// @Success 200 {array} PlanResponse "List of plans"
// @Failure 403 {object} gin.H "Training area not active"
// @Router /client/plans [get]
func (h *ClientHandler) GetMyPlans(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	plans, err := h.planService.ListClientPlans(c.Request.Context(), userID)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapPlansToResponse(plans))
}

func (h *ClientHandler) GetMyPlan(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	planID, ok := pathID(c, "planId")
	if !ok {
		return
	}
	plan, err := h.planService.GetClientPlan(c.Request.Context(), userID, planID)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapPlanToResponse(plan))
}

// RenameMyPlan sets the plan's custom name; an empty name restores the
// default one.
func (h *ClientHandler) RenameMyPlan(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	planID, ok := pathID(c, "planId")
	if !ok {
		return
	}
	var req RenameRequest
	if !bindJSON(c, &req) {
		return
	}
	plan, err := h.planService.RenameClientPlan(c.Request.Context(), userID, planID, req.Name)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapPlanToResponse(plan))
}

// PlanEvents godoc
// @Summary Stream changes to one of my plans
// @Description Server-sent events: "plan" carries the current plan, "deleted" ends the stream, "error" reports a failed subscription.
// @Tags Client
// @Produce text/event-stream
// @Security BearerAuth
// @Param planId path string true "Plan ID"
// @Router /client/plans/{planId}/events [get]
func (h *ClientHandler) PlanEvents(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	planID, ok := pathID(c, "planId")
	if !ok {
		return
	}
	ctx := c.Request.Context()

	plan, err := h.planService.GetClientPlan(ctx, userID, planID)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}

	// Only the newest change matters; older undelivered ones are replaced.
	changes := make(chan repository.PlanChange, 1)
	unsubscribe, err := h.planService.Watch(ctx, userID, planID, func(ch repository.PlanChange) {
		for {
			select {
			case changes <- ch:
				return
			case <-ctx.Done():
				return
			default:
			}
			select {
			case <-changes:
			default:
			}
		}
	})
	if err != nil {
		abortWithServiceError(c, err)
		return
	}
	defer unsubscribe()

	c.Header("Cache-Control", "no-cache")
	c.SSEvent("plan", MapPlanToResponse(plan))
	c.Writer.Flush()

	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case ch := <-changes:
			switch {
			case ch.Err != nil:
				log.Warn().Err(ch.Err).Str("planId", planID.Hex()).Msg("plan subscription failed")
				c.SSEvent("error", gin.H{"error": "subscription interrupted"})
				return false
			case ch.Plan == nil:
				c.SSEvent("deleted", gin.H{"planId": planID.Hex()})
				return false
			default:
				c.SSEvent("plan", MapPlanToResponse(ch.Plan))
				return true
			}
		}
	})
}

// --- Session ---

// StartSession godoc
// @Summary Select a day and start the countdown
// @Tags Client
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body StartSessionRequest true "Plan and day"
// @Success 201 {object} session.Snapshot
// @Failure 409 {object} gin.H "A session is already running"
// @Router /client/session [post]
func (h *ClientHandler) StartSession(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	var req StartSessionRequest
	if !bindJSON(c, &req) {
		return
	}
	planID, err := primitive.ObjectIDFromHex(req.PlanID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid planId format.")
		return
	}
	snap, err := h.sessionService.Start(c.Request.Context(), userID, planID, req.Day)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, snap)
}

func (h *ClientHandler) SessionState(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	snap, err := h.sessionService.State(c.Request.Context(), userID)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (h *ClientHandler) CompleteItem(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	index, ok := pathInt(c, "index")
	if !ok {
		return
	}
	snap, err := h.sessionService.CompleteItem(c.Request.Context(), userID, index)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// AcknowledgeSession records the finished day. A storage failure leaves the
// session completed so the call can be retried.
func (h *ClientHandler) AcknowledgeSession(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	done, err := h.sessionService.Acknowledge(c.Request.Context(), userID)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"day":           done.Day,
		"cycleComplete": done.CycleComplete,
		"plan":          MapPlanToResponse(done.Plan),
	})
}

func (h *ClientHandler) LeaveSession(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	snap, err := h.sessionService.Leave(c.Request.Context(), userID)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// --- Access requests ---

func (h *ClientHandler) RequestAccess(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	req, err := h.accessService.Request(c.Request.Context(), userID)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, req)
}

func (h *ClientHandler) MyRequests(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	reqs, err := h.accessService.MyRequests(c.Request.Context(), userID)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, reqs)
}

// --- Weights ---

func (h *ClientHandler) AddWeight(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	var req AddWeightRequest
	if !bindJSON(c, &req) {
		return
	}
	entry, err := h.clientService.AddWeight(c.Request.Context(), userID, req.WeightKg)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, entry)
}

func (h *ClientHandler) ListWeights(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	entries, err := h.clientService.ListWeights(c.Request.Context(), userID)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}

func (h *ClientHandler) ResetWeights(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	n, err := h.clientService.ResetWeights(c.Request.Context(), userID, confirmFromQuery(c))
	if err != nil {
		abortWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": n})
}

// --- Profile photo ---

// RequestPhotoUpload godoc
// @Summary Get a presigned URL to upload a profile photo
// @Tags Client
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body PhotoUploadRequest true "Image content type"
// @Success 200 {object} service.UploadURLResponse
// @Failure 502 {object} gin.H "Storage unavailable"
// @Router /client/photo/upload-url [post]
func (h *ClientHandler) RequestPhotoUpload(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	var req PhotoUploadRequest
	if !bindJSON(c, &req) {
		return
	}
	resp, err := h.clientService.RequestPhotoUpload(c.Request.Context(), userID, req.ContentType)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ClientHandler) ConfirmPhoto(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	var req ConfirmPhotoRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.clientService.ConfirmPhoto(c.Request.Context(), userID, req.ObjectKey); err != nil {
		abortWithServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *ClientHandler) PhotoURL(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	url, err := h.clientService.PhotoURL(c.Request.Context(), userID)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}
