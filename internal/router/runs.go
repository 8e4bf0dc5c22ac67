package router

import (
	"net/http"
	"strconv"

	"github.com/DjordjeVuckovic/jart-trainer/internal/apperr"
	"github.com/DjordjeVuckovic/jart-trainer/internal/tracking"
	"github.com/DjordjeVuckovic/jart-trainer/pkg/pagination"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type RunsRouter struct {
	e      *echo.Echo
	reader tracking.Reader
}

func NewRunsRouter(e *echo.Echo, reader tracking.Reader) *RunsRouter {
	return &RunsRouter{
		e:      e,
		reader: reader,
	}
}

func (r *RunsRouter) Bind() {
	g := r.e.Group("/runs")
	g.GET("", r.listHandler)
	g.GET("/:id", r.getHandler)
	g.GET("/:id/metrics", r.metricsHandler)
}

type metricsResponse struct {
	RunID   uuid.UUID         `json:"run_id"`
	Records []tracking.Record `json:"records"`
}

func (r *RunsRouter) listHandler(c echo.Context) error {
	req, err := parseOffsetRequest(c)
	if err != nil {
		return err
	}

	res, err := r.reader.ListRuns(c.Request().Context(), c.QueryParam("project"), req.Page, req.Size)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}

func (r *RunsRouter) getHandler(c echo.Context) error {
	id, err := parseRunID(c)
	if err != nil {
		return err
	}

	info, err := r.reader.GetRun(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, info)
}

func (r *RunsRouter) metricsHandler(c echo.Context) error {
	id, err := parseRunID(c)
	if err != nil {
		return err
	}

	records, err := r.reader.Metrics(c.Request().Context(), id)
	if err != nil {
		return err
	}
	if records == nil {
		records = []tracking.Record{}
	}
	return c.JSON(http.StatusOK, metricsResponse{RunID: id, Records: records})
}

func parseRunID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, apperr.NewValidationWrap("invalid run id", err)
	}
	return id, nil
}

func parseOffsetRequest(c echo.Context) (*pagination.OffsetRequest, error) {
	req := &pagination.OffsetRequest{}
	for name, dst := range map[string]*int{"page": &req.Page, "size": &req.Size} {
		raw := c.QueryParam(name)
		if raw == "" {
			continue
		}
		v, err := strconv.Atoi(raw)
		if err != nil {
			return nil, apperr.NewValidationWrap("invalid "+name, err)
		}
		*dst = v
	}
	if err := req.Validate(); err != nil {
		return nil, apperr.NewValidationWrap("invalid pagination", err)
	}
	return req, nil
}
