package healthdata

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/treatwell/treatwell-api/internal/handler"
	"github.com/treatwell/treatwell-api/internal/model"
	"github.com/treatwell/treatwell-api/internal/service/healthdata"
)

type Handler struct {
	service *healthdata.Service
}

func NewHandler(service *healthdata.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	data := r.Group("/health-data")
	{
		data.GET("/:patientId", h.GetHealthData)
		data.POST("/:patientId/bmi", h.AddBMI)
		data.POST("/:patientId/bp", h.AddBP)
		data.DELETE("/:patientId/bmi/:index", h.DeleteBMI)
		data.DELETE("/:patientId/bp/:index", h.DeleteBP)
	}
}

func (h *Handler) GetHealthData(c *gin.Context) {
	data, err := h.service.Get(c.Request.Context(), c.Param("patientId"))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(data))
}

func (h *Handler) AddBMI(c *gin.Context) {
	var req model.AddBMIRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	data, err := h.service.AddBMI(c.Request.Context(), c.Param("patientId"), &req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, handler.NewSuccessResponse(data))
}

func (h *Handler) AddBP(c *gin.Context) {
	var req model.AddBPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	data, err := h.service.AddBP(c.Request.Context(), c.Param("patientId"), &req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, handler.NewSuccessResponse(data))
}

func (h *Handler) DeleteBMI(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid index"))
		return
	}

	data, err := h.service.DeleteBMIAt(c.Request.Context(), c.Param("patientId"), index)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(data))
}

func (h *Handler) DeleteBP(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid index"))
		return
	}

	data, err := h.service.DeleteBPAt(c.Request.Context(), c.Param("patientId"), index)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(data))
}
