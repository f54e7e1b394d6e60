package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/TezottoWell/app-rodrigo-martins/internal/authoring"
	"github.com/TezottoWell/app-rodrigo-martins/internal/domain"
	"github.com/TezottoWell/app-rodrigo-martins/internal/service"
)

// AdminHandler serves the operator area: clients, their plans, templates,
// levels and access requests.
type AdminHandler struct {
	userService     service.UserService
	planService     service.PlanService
	templateService service.TemplateService
	accessService   service.AccessService
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(
	userService service.UserService,
	planService service.PlanService,
	templateService service.TemplateService,
	accessService service.AccessService,
) *AdminHandler {
	return &AdminHandler{
		userService:     userService,
		planService:     planService,
		templateService: templateService,
		accessService:   accessService,
	}
}

// --- Request Structs ---

// PlanContentRequest carries a whole plan or template: the frequency and
// the items of every day, keyed by day number.
type PlanContentRequest struct {
	Frequency int                            `json:"frequency" binding:"required,min=1,max=7"`
	Days      map[int][]authoring.ItemDraft `json:"days"`
}

type TemplateRequest struct {
	Level string `json:"level" binding:"required"`
	PlanContentRequest
}

type SetActiveRequest struct {
	Active *bool `json:"active" binding:"required"`
}

type RenameRequest struct {
	Name string `json:"name"`
}

type FrequencyRequest struct {
	Frequency int `json:"frequency" binding:"required"`
}

type CopyDayRequest struct {
	From int `json:"from" binding:"required"`
	To   int `json:"to" binding:"required"`
}

type AssignRequest struct {
	UserID string `json:"userId" binding:"required"`
}

type CreateLevelRequest struct {
	Label string `json:"label" binding:"required"`
	Icon  string `json:"icon"`
}

// === Users ===

// SearchClients godoc
// @Summary Search clients by name prefix
// @Tags Admin
// @Produce json
// @Param q query string true "At least three characters"
// @Success 200 {array} UserResponse
// @Router /admin/users [get]
func (h *AdminHandler) SearchClients(c *gin.Context) {
	users, err := h.userService.SearchClients(c.Request.Context(), c.Query("q"))
	if err != nil {
		abortWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapUsersToResponse(users))
}

func (h *AdminHandler) GetUser(c *gin.Context) {
	userID, ok := pathID(c, "userId")
	if !ok {
		return
	}
	user, err := h.userService.GetUser(c.Request.Context(), userID)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapUserToResponse(user))
}

// SetActive godoc
// @Summary Grant or revoke a client's training access
// @Tags Admin
// @Accept json
// @Produce json
// @Param userId path string true "User ID"
// @Param body body SetActiveRequest true "New state"
// @Success 200 {object} UserResponse
// @Router /admin/users/{userId}/active [put]
func (h *AdminHandler) SetActive(c *gin.Context) {
	userID, ok := pathID(c, "userId")
	if !ok {
		return
	}
	var req SetActiveRequest
	if !bindJSON(c, &req) {
		return
	}
	user, err := h.userService.SetActive(c.Request.Context(), userID, *req.Active)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapUserToResponse(user))
}

func (h *AdminHandler) ToggleAdmin(c *gin.Context) {
	actorID, ok := callerID(c)
	if !ok {
		return
	}
	userID, ok := pathID(c, "userId")
	if !ok {
		return
	}
	user, err := h.userService.ToggleAdmin(c.Request.Context(), actorID, userID)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapUserToResponse(user))
}

// DeleteUser godoc
// @Summary Delete a user and everything they own
// @Description Requires ?confirm=true. Related records are removed best-effort; failures are listed in the report.
// @Tags Admin
// @Produce json
// @Param userId path string true "User ID"
// @Param confirm query bool false "Confirm the deletion"
// @Success 200 {object} service.CascadeReport
// @Failure 409 {object} gin.H "Confirmation required"
// @Router /admin/users/{userId} [delete]
func (h *AdminHandler) DeleteUser(c *gin.Context) {
	actorID, ok := callerID(c)
	if !ok {
		return
	}
	userID, ok := pathID(c, "userId")
	if !ok {
		return
	}
	report, err := h.userService.DeleteUser(c.Request.Context(), actorID, userID, confirmFromQuery(c))
	if err != nil {
		abortWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// === Plans ===

func (h *AdminHandler) ListUserPlans(c *gin.Context) {
	userID, ok := pathID(c, "userId")
	if !ok {
		return
	}
	plans, err := h.planService.ListUserPlans(c.Request.Context(), userID)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapPlansToResponse(plans))
}

// CreatePlan godoc
// @Summary Create a plan for a client
// @Tags Admin
// @Accept json
// @Produce json
// @Param userId path string true "Client ID"
// @Param plan body PlanContentRequest true "Frequency and items per day"
// @Success 201 {object} PlanResponse
// @Failure 400 {object} gin.H "Invalid plan"
// @Router /admin/users/{userId}/plans [post]
func (h *AdminHandler) CreatePlan(c *gin.Context) {
	userID, ok := pathID(c, "userId")
	if !ok {
		return
	}
	var req PlanContentRequest
	if !bindJSON(c, &req) {
		return
	}
	b, err := authoring.Build(req.Frequency, req.Days)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}
	plan, err := h.planService.CreatePlan(c.Request.Context(), userID, b)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, MapPlanToResponse(plan))
}

func (h *AdminHandler) GetPlan(c *gin.Context) {
	planID, ok := pathID(c, "planId")
	if !ok {
		return
	}
	plan, err := h.planService.GetPlan(c.Request.Context(), planID)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapPlanToResponse(plan))
}

func (h *AdminHandler) RenamePlan(c *gin.Context) {
	planID, ok := pathID(c, "planId")
	if !ok {
		return
	}
	var req RenameRequest
	if !bindJSON(c, &req) {
		return
	}
	h.respondPlan(c, func() (*domain.WorkoutPlan, error) {
		return h.planService.Rename(c.Request.Context(), planID, req.Name)
	})
}

// ChangeFrequency godoc
// @Summary Change a plan's training frequency
// @Description Lowering the frequency drops the trailing days; when any of them has items ?confirm=true is required.
// @Tags Admin
// @Accept json
// @Produce json
// @Param planId path string true "Plan ID"
// @Param body body FrequencyRequest true "New frequency"
// @Success 200 {object} PlanResponse
// @Failure 409 {object} gin.H "Confirmation required"
// @Router /admin/plans/{planId}/frequency [put]
func (h *AdminHandler) ChangeFrequency(c *gin.Context) {
	planID, ok := pathID(c, "planId")
	if !ok {
		return
	}
	var req FrequencyRequest
	if !bindJSON(c, &req) {
		return
	}
	h.respondPlan(c, func() (*domain.WorkoutPlan, error) {
		return h.planService.ChangeFrequency(c.Request.Context(), planID, req.Frequency, confirmFromQuery(c))
	})
}

func (h *AdminHandler) AddItem(c *gin.Context) {
	planID, ok := pathID(c, "planId")
	if !ok {
		return
	}
	day, ok := pathInt(c, "day")
	if !ok {
		return
	}
	var req authoring.ItemDraft
	if !bindJSON(c, &req) {
		return
	}
	h.respondPlan(c, func() (*domain.WorkoutPlan, error) {
		return h.planService.AddItem(c.Request.Context(), planID, day, req)
	})
}

func (h *AdminHandler) ReplaceItem(c *gin.Context) {
	planID, ok := pathID(c, "planId")
	if !ok {
		return
	}
	day, ok := pathInt(c, "day")
	if !ok {
		return
	}
	index, ok := pathInt(c, "index")
	if !ok {
		return
	}
	var req authoring.ItemDraft
	if !bindJSON(c, &req) {
		return
	}
	h.respondPlan(c, func() (*domain.WorkoutPlan, error) {
		return h.planService.ReplaceItem(c.Request.Context(), planID, day, index, req)
	})
}

func (h *AdminHandler) RemoveItem(c *gin.Context) {
	planID, ok := pathID(c, "planId")
	if !ok {
		return
	}
	day, ok := pathInt(c, "day")
	if !ok {
		return
	}
	index, ok := pathInt(c, "index")
	if !ok {
		return
	}
	h.respondPlan(c, func() (*domain.WorkoutPlan, error) {
		return h.planService.RemoveItem(c.Request.Context(), planID, day, index, confirmFromQuery(c))
	})
}

// RemoveComboMember answers with the plan and, when the combo fell to a
// single exercise, a "collapsed" notice.
func (h *AdminHandler) RemoveComboMember(c *gin.Context) {
	planID, ok := pathID(c, "planId")
	if !ok {
		return
	}
	day, ok := pathInt(c, "day")
	if !ok {
		return
	}
	index, ok := pathInt(c, "index")
	if !ok {
		return
	}
	member, ok := pathInt(c, "member")
	if !ok {
		return
	}
	plan, collapsed, err := h.planService.RemoveComboMember(c.Request.Context(), planID, day, index, member, confirmFromQuery(c))
	if err != nil {
		abortWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"plan": MapPlanToResponse(plan), "collapsed": collapsed})
}

func (h *AdminHandler) CopyDay(c *gin.Context) {
	planID, ok := pathID(c, "planId")
	if !ok {
		return
	}
	var req CopyDayRequest
	if !bindJSON(c, &req) {
		return
	}
	h.respondPlan(c, func() (*domain.WorkoutPlan, error) {
		return h.planService.CopyDay(c.Request.Context(), planID, req.From, req.To, confirmFromQuery(c))
	})
}

func (h *AdminHandler) DeletePlan(c *gin.Context) {
	planID, ok := pathID(c, "planId")
	if !ok {
		return
	}
	if err := h.planService.DeletePlan(c.Request.Context(), planID, confirmFromQuery(c)); err != nil {
		abortWithServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *AdminHandler) respondPlan(c *gin.Context, op func() (*domain.WorkoutPlan, error)) {
	plan, err := op()
	if err != nil {
		abortWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapPlanToResponse(plan))
}

// === Templates ===

// ListTemplates godoc
// @Summary List templates grouped by level
// @Tags Admin
// @Produce json
// @Success 200 {array} service.TemplateGroup
// @Router /admin/templates [get]
func (h *AdminHandler) ListTemplates(c *gin.Context) {
	groups, err := h.templateService.ListTemplates(c.Request.Context())
	if err != nil {
		abortWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, groups)
}

func (h *AdminHandler) GetTemplate(c *gin.Context) {
	templateID, ok := pathID(c, "templateId")
	if !ok {
		return
	}
	tpl, err := h.templateService.GetTemplate(c.Request.Context(), templateID)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, tpl)
}

func (h *AdminHandler) CreateTemplate(c *gin.Context) {
	h.saveTemplate(c, nil)
}

// UpdateTemplate saves new content; a template left with no exercises is
// deleted and reported as {"deleted": true}.
func (h *AdminHandler) UpdateTemplate(c *gin.Context) {
	templateID, ok := pathID(c, "templateId")
	if !ok {
		return
	}
	h.saveTemplate(c, &templateID)
}

func (h *AdminHandler) saveTemplate(c *gin.Context, id *primitive.ObjectID) {
	var req TemplateRequest
	if !bindJSON(c, &req) {
		return
	}
	b, err := authoring.Build(req.Frequency, req.Days)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}
	tpl, deleted, err := h.templateService.SaveTemplate(c.Request.Context(), id, req.Level, b)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}
	switch {
	case deleted:
		c.JSON(http.StatusOK, gin.H{"deleted": true})
	case id == nil:
		c.JSON(http.StatusCreated, tpl)
	default:
		c.JSON(http.StatusOK, tpl)
	}
}

func (h *AdminHandler) DeleteTemplate(c *gin.Context) {
	templateID, ok := pathID(c, "templateId")
	if !ok {
		return
	}
	if err := h.templateService.DeleteTemplate(c.Request.Context(), templateID, confirmFromQuery(c)); err != nil {
		abortWithServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// AssignTemplate godoc
// @Summary Copy a template into a client's plans
// @Description When the client already owns a plan with the same content ?confirm=true is required.
// @Tags Admin
// @Accept json
// @Produce json
// @Param templateId path string true "Template ID"
// @Param body body AssignRequest true "Target client"
// @Success 201 {object} PlanResponse
// @Failure 409 {object} gin.H "Duplicate assignment"
// @Router /admin/templates/{templateId}/assign [post]
func (h *AdminHandler) AssignTemplate(c *gin.Context) {
	templateID, ok := pathID(c, "templateId")
	if !ok {
		return
	}
	var req AssignRequest
	if !bindJSON(c, &req) {
		return
	}
	userID, err := primitive.ObjectIDFromHex(req.UserID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid userId format.")
		return
	}
	plan, err := h.templateService.Assign(c.Request.Context(), templateID, userID, confirmFromQuery(c))
	if err != nil {
		abortWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, MapPlanToResponse(plan))
}

// === Levels ===

func (h *AdminHandler) ListLevels(c *gin.Context) {
	levels, err := h.templateService.ListLevels(c.Request.Context())
	if err != nil {
		abortWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, levels)
}

func (h *AdminHandler) CreateLevel(c *gin.Context) {
	var req CreateLevelRequest
	if !bindJSON(c, &req) {
		return
	}
	level, err := h.templateService.CreateLevel(c.Request.Context(), req.Label, req.Icon)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, level.Option())
}

func (h *AdminHandler) DeleteLevel(c *gin.Context) {
	if err := h.templateService.DeleteLevel(c.Request.Context(), c.Param("levelKey")); err != nil {
		abortWithServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// === Access requests ===

func (h *AdminHandler) ListRequests(c *gin.Context) {
	reqs, err := h.accessService.List(c.Request.Context(), domain.RequestStatus(c.Query("status")))
	if err != nil {
		abortWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, reqs)
}

func (h *AdminHandler) ApproveRequest(c *gin.Context) { h.respond(c, true) }

func (h *AdminHandler) RejectRequest(c *gin.Context) { h.respond(c, false) }

func (h *AdminHandler) respond(c *gin.Context, approve bool) {
	requestID, ok := pathID(c, "requestId")
	if !ok {
		return
	}
	req, err := h.accessService.Respond(c.Request.Context(), requestID, approve)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, req)
}
