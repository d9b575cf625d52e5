package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/peopledb/peopledb/internal/person"
	"github.com/peopledb/peopledb/internal/person/service"
)

// RegisterPersonRoutes mounts the people API. guards run before every
// mutating route (typically the bearer-token middleware).
func RegisterPersonRoutes(r *gin.Engine, svc service.Service, guards ...gin.HandlerFunc) {
	h := &personHandler{svc: svc}

	api := r.Group("/api/people")
	api.GET("", h.findByName)
	api.GET("/burrito-lovers", h.burritoLovers)
	api.GET("/search", h.search)
	api.GET("/by-food/:food", h.findOneByFood)
	// by-id keeps application ids from colliding with the static routes above
	api.GET("/by-id/:id", h.findByID)

	w := api.Group("", guards...)
	w.POST("", h.create)
	w.POST("/batch", h.createMany)
	w.POST("/:id/foods", h.addFood)
	w.PATCH("/age", h.updateAge)
	w.DELETE("/:id", h.deleteByID)
	w.DELETE("", h.deleteByName)
}

type personHandler struct {
	svc service.Service
}

func (h *personHandler) create(c *gin.Context) {
	var p person.Person
	if err := c.ShouldBindJSON(&p); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	saved, err := h.svc.Create(c.Request.Context(), &p)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, saved)
}

func (h *personHandler) createMany(c *gin.Context) {
	var people []*person.Person
	if err := c.ShouldBindJSON(&people); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	saved, err := h.svc.CreateMany(c.Request.Context(), people)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, saved)
}

func (h *personHandler) findByName(c *gin.Context) {
	name, ok := c.GetQuery("name")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name query parameter is required"})
		return
	}
	list, err := h.svc.FindByName(c.Request.Context(), name)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *personHandler) findOneByFood(c *gin.Context) {
	p, err := h.svc.FindOneByFavoriteFood(c.Request.Context(), c.Param("food"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *personHandler) findByID(c *gin.Context) {
	p, err := h.svc.FindByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *personHandler) addFood(c *gin.Context) {
	var req struct {
		Food string `json:"food" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	p, err := h.svc.AddFavoriteFood(c.Request.Context(), c.Param("id"), req.Food)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *personHandler) updateAge(c *gin.Context) {
	var req struct {
		Name string `json:"name" binding:"required"`
		Age  *int   `json:"age" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	p, err := h.svc.UpdateAgeByName(c.Request.Context(), req.Name, *req.Age)
	if err != nil {
		writeError(c, err)
		return
	}
	// a missing person is not an error here; the body is null
	c.JSON(http.StatusOK, p)
}

func (h *personHandler) deleteByID(c *gin.Context) {
	p, err := h.svc.DeleteByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	if p == nil {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *personHandler) deleteByName(c *gin.Context) {
	name, ok := c.GetQuery("name")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name query parameter is required"})
		return
	}
	n, err := h.svc.DeleteByName(c.Request.Context(), name)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deletedCount": n})
}

func (h *personHandler) burritoLovers(c *gin.Context) {
	list, err := h.svc.QueryBurritoLovers(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *personHandler) search(c *gin.Context) {
	q := person.Query{Food: c.Query("food")}
	if v := c.Query("limit"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
			return
		}
		q.Limit = n
	}
	switch c.Query("sort") {
	case "":
	case "name":
		q.SortByName = true
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "sort supports only \"name\""})
		return
	}
	q.OmitAge = c.Query("omitAge") == "true"

	list, err := h.svc.Query(c.Request.Context(), q)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, person.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, person.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, person.ErrDuplicateID):
		c.JSON(http.StatusConflict, gin.H{"error": "id already exists"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "store unavailable"})
	}
}
