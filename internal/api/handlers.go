package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/bradenpan/whisk-ai-prototype/internal/app"
	"github.com/bradenpan/whisk-ai-prototype/internal/clipper"
	"github.com/bradenpan/whisk-ai-prototype/internal/profile"
	"github.com/bradenpan/whisk-ai-prototype/internal/recipe"
	"github.com/bradenpan/whisk-ai-prototype/internal/shopping"
)

// Handler exposes the service over JSON.
type Handler struct {
	svc    *app.Service
	logger *zap.Logger
}

func NewHandler(svc *app.Service, logger *zap.Logger) *Handler {
	return &Handler{svc: svc, logger: logger.Named("api")}
}

// fail maps service errors onto status codes.
func (h *Handler) fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, app.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, app.ErrInvalidDay), errors.Is(err, app.ErrInvalidInput),
		errors.Is(err, clipper.ErrInvalidURL), errors.Is(err, clipper.ErrForbiddenHost):
		status = http.StatusBadRequest
	case errors.Is(err, app.ErrGenerationFailed):
		status = http.StatusBadGateway
	case errors.Is(err, clipper.ErrEmptyPage), errors.Is(err, clipper.ErrPageTooLarge),
		errors.Is(err, clipper.ErrUnsupportedContent):
		status = http.StatusUnprocessableEntity
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}

func (h *Handler) badRequest(c *gin.Context, err error) {
	_ = c.Error(err)
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

func (h *Handler) GetProfile(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.Snapshot().Profile)
}

func (h *Handler) UpdateProfile(c *gin.Context) {
	var p profile.UserProfile
	if err := c.ShouldBindJSON(&p); err != nil {
		h.badRequest(c, err)
		return
	}
	updated, err := h.svc.UpdateProfile(c.Request.Context(), p)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

type generateRequest struct {
	Count      int    `json:"count"`
	Servings   int    `json:"servings"`
	UseUp      string `json:"useUp"`
	MaxMinutes *int   `json:"maxMinutes"`
}

func (h *Handler) GenerateRecipes(c *gin.Context) {
	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	recipes, err := h.svc.GenerateRecipes(c.Request.Context(), app.GenerateOptions{
		Count:      req.Count,
		Servings:   req.Servings,
		UseUp:      req.UseUp,
		MaxMinutes: req.MaxMinutes,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"recipes": recipes})
}

func (h *Handler) GetRecipe(c *gin.Context) {
	r, err := h.svc.FindRecipe(c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

type customizeRequest struct {
	Instruction string `json:"instruction" binding:"required"`
}

func (h *Handler) CustomizeRecipe(c *gin.Context) {
	var req customizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	r, err := h.svc.CustomizeRecipe(c.Request.Context(), c.Param("id"), req.Instruction)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

func (h *Handler) ScaledRecipe(c *gin.Context) {
	servings, err := strconv.Atoi(c.Query("servings"))
	if err != nil {
		h.badRequest(c, errors.New("servings must be a number"))
		return
	}
	r, err := h.svc.ScaledRecipe(c.Param("id"), servings)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

type importRequest struct {
	URL      string `json:"url" binding:"required"`
	Servings int    `json:"servings"`
}

func (h *Handler) ImportRecipe(c *gin.Context) {
	var req importRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	r, err := h.svc.ImportRecipe(c.Request.Context(), req.URL, req.Servings)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, r)
}

func (h *Handler) ListFavorites(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"favorites": h.svc.Snapshot().Favorites})
}

func (h *Handler) ToggleFavorite(c *gin.Context) {
	var r recipe.Recipe
	if err := c.ShouldBindJSON(&r); err != nil {
		h.badRequest(c, err)
		return
	}
	favorite, err := h.svc.ToggleFavorite(c.Request.Context(), r)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": r.ID, "favorite": favorite})
}

func (h *Handler) GetPlan(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.Snapshot().Plan)
}

type autoPlanRequest struct {
	FavoriteCount int      `json:"favoriteCount"`
	UseUp         string   `json:"useUp"`
	Servings      int      `json:"servings"`
	Days          []string `json:"days"`
	MaxMinutes    *int     `json:"maxMinutes"`
}

func (h *Handler) AutoPlan(c *gin.Context) {
	var req autoPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	plan, err := h.svc.AutoPlanWeek(c.Request.Context(), app.AutoPlanOptions{
		FavoriteCount: req.FavoriteCount,
		UseUp:         req.UseUp,
		Servings:      req.Servings,
		Days:          req.Days,
		MaxMinutes:    req.MaxMinutes,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, plan)
}

func (h *Handler) AddToPlan(c *gin.Context) {
	var r recipe.Recipe
	if err := c.ShouldBindJSON(&r); err != nil {
		h.badRequest(c, err)
		return
	}
	plan, err := h.svc.AddToPlan(c.Request.Context(), c.Param("day"), r)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, plan)
}

func (h *Handler) RemoveFromPlan(c *gin.Context) {
	plan, err := h.svc.RemoveFromPlan(c.Request.Context(), c.Param("day"), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, plan)
}

type moveRequest struct {
	From string `json:"from" binding:"required"`
	To   string `json:"to" binding:"required"`
	ID   string `json:"id" binding:"required"`
}

func (h *Handler) MoveRecipe(c *gin.Context) {
	var req moveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	plan, err := h.svc.MoveRecipe(c.Request.Context(), req.From, req.To, req.ID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, plan)
}

func (h *Handler) RegenerateRecipe(c *gin.Context) {
	r, err := h.svc.RegenerateRecipe(c.Request.Context(), c.Param("day"), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

func (h *Handler) ClearPlan(c *gin.Context) {
	if err := h.svc.ClearPlan(c.Request.Context()); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// shoppingListResponse carries the flat list, which PATCH indexes refer to,
// and the same items grouped for display.
type shoppingListResponse struct {
	Items      []shopping.Item            `json:"items"`
	Groups     map[string][]shopping.Item `json:"groups"`
	Categories []string                   `json:"categories"`
}

func newShoppingListResponse(items []shopping.Item) shoppingListResponse {
	groups := shopping.GroupByCategory(items)
	categories := shopping.SortedCategories(groups)
	if categories == nil {
		categories = []string{}
	}
	return shoppingListResponse{Items: items, Groups: groups, Categories: categories}
}

func (h *Handler) GetShoppingList(c *gin.Context) {
	c.JSON(http.StatusOK, newShoppingListResponse(h.svc.Snapshot().ShoppingList))
}

func (h *Handler) GenerateShoppingList(c *gin.Context) {
	items, err := h.svc.BuildShoppingList(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, newShoppingListResponse(items))
}

type addItemRequest struct {
	Name   string `json:"name" binding:"required"`
	Amount string `json:"amount" binding:"required"`
}

func (h *Handler) AddShoppingItem(c *gin.Context) {
	var req addItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	item, err := h.svc.AddShoppingItem(c.Request.Context(), req.Name, req.Amount)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

type toggleItemRequest struct {
	Field string `json:"toggle" binding:"required,oneof=checked alreadyHave"`
}

func (h *Handler) ToggleShoppingItem(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		h.badRequest(c, errors.New("index must be a number"))
		return
	}
	var req toggleItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	var item shopping.Item
	if req.Field == "checked" {
		item, err = h.svc.ToggleChecked(c.Request.Context(), index)
	} else {
		item, err = h.svc.ToggleAlreadyHave(c.Request.Context(), index)
	}
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

type pantryBody struct {
	Pantry string `json:"pantry"`
}

func (h *Handler) GetPantry(c *gin.Context) {
	c.JSON(http.StatusOK, pantryBody{Pantry: h.svc.Snapshot().Pantry})
}

func (h *Handler) SetPantry(c *gin.Context) {
	var body pantryBody
	if err := c.ShouldBindJSON(&body); err != nil {
		h.badRequest(c, err)
		return
	}
	if err := h.svc.SetPantry(c.Request.Context(), body.Pantry); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, body)
}
