// Package api exposes the tracker over HTTP with fiber.
package api

import (
	"log/slog"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/Tiliavir/trivial-attendance-tracker/internal/model"
	"github.com/Tiliavir/trivial-attendance-tracker/internal/tracker"
)

// Handler serves the /api routes.
type Handler struct {
	svc      *tracker.Service
	validate *validator.Validate
	logger   *slog.Logger
}

// NewHandler returns a Handler backed by svc.
func NewHandler(svc *tracker.Service, logger *slog.Logger) *Handler {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(fieldName)
	return &Handler{svc: svc, validate: v, logger: logger}
}

// fieldName reports validation failures under the wire name of a field.
func fieldName(f reflect.StructField) string {
	for _, tag := range []string{"json", "query"} {
		name, _, _ := strings.Cut(f.Tag.Get(tag), ",")
		if name != "" && name != "-" {
			return name
		}
	}
	return f.Name
}

// Register mounts every route on router.
func (h *Handler) Register(router fiber.Router) {
	children := router.Group("/children")
	children.Get("/", h.ListChildren)
	children.Post("/", h.CreateChild)
	children.Get("/:id", h.GetChild)
	children.Patch("/:id", h.UpdateChild)
	children.Delete("/:id", h.DeleteChild)

	attendance := router.Group("/attendance")
	attendance.Post("/check-in", h.CheckIn)
	attendance.Post("/check-out", h.CheckOut)
	attendance.Get("/status", h.Status)
	attendance.Get("/board", h.Board)
	attendance.Get("/", h.QueryRange)
	attendance.Patch("/:id", h.UpdateRecord)

	router.Get("/recap", h.Recap)
}

// parseBody decodes and validates a JSON body into dst.
func (h *Handler) parseBody(c *fiber.Ctx, dst any) error {
	if err := c.BodyParser(dst); err != nil {
		return model.Invalid("body", "invalid JSON: %v", err)
	}
	return h.validate.Struct(dst)
}

// parseQuery decodes and validates the query string into dst.
func (h *Handler) parseQuery(c *fiber.Ctx, dst any) error {
	if err := c.QueryParser(dst); err != nil {
		return model.Invalid("query", "%v", err)
	}
	return h.validate.Struct(dst)
}

// ---- children ----

type createChildRequest struct {
	FirstName string  `json:"firstName" validate:"required"`
	LastName  *string `json:"lastName"`
	BirthDate *string `json:"birthDate"`
	Notes     *string `json:"notes"`
	Color     *string `json:"color"`
}

type listChildrenQuery struct {
	Status string `query:"status" validate:"omitempty,oneof=active archived"`
}

// ListChildren godoc
// @Summary      List children
// @Description  Children ordered by first name. Filter with status=active|archived.
// @Tags         children
// @Produce      json
// @Param        status  query     string  false  "active or archived"
// @Success      200     {array}   model.Child
// @Failure      400     {object}  api.ErrorResponse
// @Router       /children [get]
func (h *Handler) ListChildren(c *fiber.Ctx) error {
	var q listChildrenQuery
	if err := h.parseQuery(c, &q); err != nil {
		return h.writeError(c, err)
	}
	var (
		list []model.Child
		err  error
	)
	switch q.Status {
	case "active":
		list, err = h.svc.ActiveChildren(c.UserContext())
	case "archived":
		list, err = h.svc.ArchivedChildren(c.UserContext())
	default:
		list, err = h.svc.ListChildren(c.UserContext())
	}
	if err != nil {
		return h.writeError(c, err)
	}
	if list == nil {
		list = []model.Child{}
	}
	return c.JSON(list)
}

// GetChild godoc
// @Summary      Get a child
// @Tags         children
// @Produce      json
// @Param        id   path      string  true  "Child ID"
// @Success      200  {object}  model.Child
// @Failure      404  {object}  api.ErrorResponse
// @Router       /children/{id} [get]
func (h *Handler) GetChild(c *fiber.Ctx) error {
	child, err := h.svc.GetChild(c.UserContext(), c.Params("id"))
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(child)
}

// CreateChild godoc
// @Summary      Register a child
// @Tags         children
// @Accept       json
// @Produce      json
// @Param        body  body      api.createChildRequest  true  "Child"
// @Success      201   {object}  model.Child
// @Failure      400   {object}  api.ErrorResponse
// @Router       /children [post]
func (h *Handler) CreateChild(c *fiber.Ctx) error {
	var req createChildRequest
	if err := h.parseBody(c, &req); err != nil {
		return h.writeError(c, err)
	}
	child, err := h.svc.CreateChild(c.UserContext(), model.NewChild{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		BirthDate: req.BirthDate,
		Notes:     req.Notes,
		Color:     req.Color,
	})
	if err != nil {
		return h.writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(child)
}

// UpdateChild godoc
// @Summary      Update a child
// @Description  Partial update. Optional fields set to null are cleared.
// @Tags         children
// @Accept       json
// @Produce      json
// @Param        id    path      string            true  "Child ID"
// @Param        body  body      model.ChildPatch  true  "Fields to change"
// @Success      200   {object}  model.Child
// @Failure      400   {object}  api.ErrorResponse
// @Failure      404   {object}  api.ErrorResponse
// @Router       /children/{id} [patch]
func (h *Handler) UpdateChild(c *fiber.Ctx) error {
	var patch model.ChildPatch
	if err := h.parseBody(c, &patch); err != nil {
		return h.writeError(c, err)
	}
	child, err := h.svc.UpdateChild(c.UserContext(), c.Params("id"), patch)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(child)
}

// DeleteChild godoc
// @Summary      Delete a child and its attendance history
// @Tags         children
// @Param        id   path  string  true  "Child ID"
// @Success      204
// @Failure      404  {object}  api.ErrorResponse
// @Router       /children/{id} [delete]
func (h *Handler) DeleteChild(c *fiber.Ctx) error {
	if err := h.svc.DeleteChild(c.UserContext(), c.Params("id")); err != nil {
		return h.writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ---- attendance ----

type markRequest struct {
	ChildID string `json:"childId" validate:"required"`
	Date    string `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Time    string `json:"time" validate:"omitempty,datetime=15:04"`
}

type rangeQuery struct {
	ChildID string `query:"childId" validate:"required"`
	Start   string `query:"start" validate:"required,datetime=2006-01-02"`
	End     string `query:"end" validate:"required,datetime=2006-01-02"`
}

type statusQuery struct {
	ChildID string `query:"childId" validate:"required"`
	Date    string `query:"date" validate:"omitempty,datetime=2006-01-02"`
}

// StatusResponse is the presence of one child on one date.
type StatusResponse struct {
	ChildID string       `json:"childId"`
	Date    string       `json:"date"`
	Status  model.Status `json:"status"`
}

// CheckIn godoc
// @Summary      Check a child in
// @Description  Opens an interval. An already open interval for the same day is returned with 200.
// @Tags         attendance
// @Accept       json
// @Produce      json
// @Param        body  body      api.markRequest  true  "childId, optional date and time"
// @Success      201   {object}  model.AttendanceRecord
// @Success      200   {object}  model.AttendanceRecord
// @Failure      400   {object}  api.ErrorResponse
// @Failure      404   {object}  api.ErrorResponse
// @Router       /attendance/check-in [post]
func (h *Handler) CheckIn(c *fiber.Ctx) error {
	var req markRequest
	if err := h.parseBody(c, &req); err != nil {
		return h.writeError(c, err)
	}
	rec, created, err := h.svc.CheckIn(c.UserContext(), req.ChildID, req.Date, req.Time)
	if err != nil {
		return h.writeError(c, err)
	}
	status := fiber.StatusOK
	if created {
		status = fiber.StatusCreated
	}
	return c.Status(status).JSON(rec)
}

// CheckOut godoc
// @Summary      Check a child out
// @Tags         attendance
// @Accept       json
// @Produce      json
// @Param        body  body      api.markRequest  true  "childId, optional date and time"
// @Success      200   {object}  model.AttendanceRecord
// @Failure      400   {object}  api.ErrorResponse
// @Failure      404   {object}  api.ErrorResponse  "no open interval"
// @Router       /attendance/check-out [post]
func (h *Handler) CheckOut(c *fiber.Ctx) error {
	var req markRequest
	if err := h.parseBody(c, &req); err != nil {
		return h.writeError(c, err)
	}
	rec, err := h.svc.CheckOut(c.UserContext(), req.ChildID, req.Date, req.Time)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(rec)
}

// QueryRange godoc
// @Summary      List attendance records of a child
// @Tags         attendance
// @Produce      json
// @Param        childId  query     string  true  "Child ID"
// @Param        start    query     string  true  "YYYY-MM-DD"
// @Param        end      query     string  true  "YYYY-MM-DD"
// @Success      200      {array}   model.AttendanceRecord
// @Failure      400      {object}  api.ErrorResponse
// @Router       /attendance [get]
func (h *Handler) QueryRange(c *fiber.Ctx) error {
	var q rangeQuery
	if err := h.parseQuery(c, &q); err != nil {
		return h.writeError(c, err)
	}
	recs, err := h.svc.QueryRange(c.UserContext(), q.ChildID, q.Start, q.End)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(recs)
}

// UpdateRecord godoc
// @Summary      Correct an attendance record
// @Description  Setting checkOut to null reopens the interval.
// @Tags         attendance
// @Accept       json
// @Produce      json
// @Param        id    path      string             true  "Record ID"
// @Param        body  body      model.RecordPatch  true  "Fields to change"
// @Success      200   {object}  model.AttendanceRecord
// @Failure      400   {object}  api.ErrorResponse
// @Failure      404   {object}  api.ErrorResponse
// @Failure      409   {object}  api.ErrorResponse
// @Router       /attendance/{id} [patch]
func (h *Handler) UpdateRecord(c *fiber.Ctx) error {
	var patch model.RecordPatch
	if err := h.parseBody(c, &patch); err != nil {
		return h.writeError(c, err)
	}
	rec, err := h.svc.UpdateRecord(c.UserContext(), c.Params("id"), patch)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(rec)
}

// Status godoc
// @Summary      Presence of a child on a date
// @Tags         attendance
// @Produce      json
// @Param        childId  query     string  true   "Child ID"
// @Param        date     query     string  false  "YYYY-MM-DD, default today"
// @Success      200      {object}  api.StatusResponse
// @Failure      400      {object}  api.ErrorResponse
// @Router       /attendance/status [get]
func (h *Handler) Status(c *fiber.Ctx) error {
	var q statusQuery
	if err := h.parseQuery(c, &q); err != nil {
		return h.writeError(c, err)
	}
	date := q.Date
	if date == "" {
		date = h.svc.Today()
	}
	st, err := h.svc.Status(c.UserContext(), q.ChildID, date)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(StatusResponse{ChildID: q.ChildID, Date: date, Status: st})
}

// Board godoc
// @Summary      Daily board of active children
// @Tags         attendance
// @Produce      json
// @Param        date  query     string  false  "YYYY-MM-DD, default today"
// @Success      200   {array}   model.BoardEntry
// @Failure      400   {object}  api.ErrorResponse
// @Router       /attendance/board [get]
func (h *Handler) Board(c *fiber.Ctx) error {
	board, err := h.svc.Board(c.UserContext(), c.Query("date"))
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(board)
}

// Recap godoc
// @Summary      Attendance recap of a child over a period
// @Tags         recap
// @Produce      json
// @Param        childId  query     string  true  "Child ID"
// @Param        start    query     string  true  "YYYY-MM-DD"
// @Param        end      query     string  true  "YYYY-MM-DD"
// @Success      200      {object}  model.Recap
// @Failure      400      {object}  api.ErrorResponse
// @Router       /recap [get]
func (h *Handler) Recap(c *fiber.Ctx) error {
	var q rangeQuery
	if err := h.parseQuery(c, &q); err != nil {
		return h.writeError(c, err)
	}
	r, err := h.svc.Recap(c.UserContext(), q.ChildID, q.Start, q.End)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(r)
}
