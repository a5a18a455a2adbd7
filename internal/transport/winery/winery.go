package winery

import (
	"net/http"
	"path"

	"github.com/gin-gonic/gin"

	winerysvc "github.com/envino/wine-api/internal/service/winery"
	"github.com/envino/wine-api/internal/transport/problem"
)

func Register(rg *gin.RouterGroup, svc *winerysvc.Service) {
	rg.POST("", createWinery(svc, rg.BasePath()))
	rg.GET("/:id", getWinery(svc))
}

type createWineryReq struct {
	Name string `json:"name"`
}

func createWinery(svc *winerysvc.Service, basePath string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req createWineryReq
		if err := c.ShouldBindJSON(&req); err != nil {
			problem.Write(c, problem.New(http.StatusBadRequest, "The request body is not valid JSON"))
			return
		}

		w, err := svc.Create(c.Request.Context(), winerysvc.CreateInput{Name: req.Name})
		if err != nil {
			problem.FromError(c, err)
			return
		}

		c.Header("Location", path.Join(basePath, w.ID))
		c.JSON(http.StatusCreated, w)
	}
}

func getWinery(svc *winerysvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		w, err := svc.GetByID(c.Request.Context(), c.Param("id"))
		if err != nil {
			problem.FromError(c, err)
			return
		}
		c.JSON(http.StatusOK, w)
	}
}
