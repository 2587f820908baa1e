package http

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/cmlabs-hris/attendance-control/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-control/internal/handler/http/response"
	"github.com/cmlabs-hris/attendance-control/internal/pkg/export"
	"github.com/cmlabs-hris/attendance-control/internal/pkg/validator"
	"github.com/go-chi/chi/v5"
)

type AttendanceHandler interface {
	List(w http.ResponseWriter, r *http.Request)
	Incomplete(w http.ResponseWriter, r *http.Request)
	Export(w http.ResponseWriter, r *http.Request)
	GetDay(w http.ResponseWriter, r *http.Request)
	Departments(w http.ResponseWriter, r *http.Request)
}

type attendanceHandlerImpl struct {
	attendanceService attendance.AttendanceService
}

func NewAttendanceHandler(attendanceService attendance.AttendanceService) AttendanceHandler {
	return &attendanceHandlerImpl{
		attendanceService: attendanceService,
	}
}

// parseFilter reads the scope, range and filter query parameters.
func parseFilter(r *http.Request) (attendance.AttendanceFilter, error) {
	q := r.URL.Query()
	var filter attendance.AttendanceFilter
	var errs validator.ValidationErrors

	if v := q.Get("dept_id"); v != "" {
		id, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, validator.ValidationError{Field: "dept_id", Message: "dept_id must be a number"})
		}
		filter.DepartmentID = id
	}
	if v := q.Get("days"); v != "" {
		days, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, validator.ValidationError{Field: "days", Message: "days must be a number"})
		}
		filter.Days = days
	}
	if v := q.Get("start_date"); v != "" {
		filter.StartDate = &v
	}
	if v := q.Get("end_date"); v != "" {
		filter.EndDate = &v
	}
	filter.Search = q.Get("search")
	filter.Status = q.Get("status")

	if len(errs) > 0 {
		return filter, errs
	}
	return filter, nil
}

// parseDay reads the employee and date path parameters.
func parseDay(r *http.Request) (attendance.DayRequest, error) {
	req := attendance.DayRequest{
		Date:       chi.URLParam(r, "date"),
		DataSource: r.URL.Query().Get("data_source"),
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil {
		return req, validator.ValidationErrors{{Field: "user_id", Message: "user_id must be a number"}}
	}
	req.EmployeeID = id
	return req, nil
}

// List implements AttendanceHandler.
func (h *attendanceHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.attendanceService.GetAttendanceData(r.Context(), filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// Incomplete implements AttendanceHandler.
func (h *attendanceHandlerImpl) Incomplete(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.attendanceService.ListIncompleteDays(r.Context(), filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// Export implements AttendanceHandler.
func (h *attendanceHandlerImpl) Export(w http.ResponseWriter, r *http.Request) {
	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	filter, err := parseFilter(r)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	records, err := h.attendanceService.ListDayRecords(r.Context(), filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	// Headers are only sent once the file rendered.
	var buf bytes.Buffer
	if err := export.Write(&buf, format, records); err != nil {
		slog.Error("Failed to render attendance export", "format", format, "error", err)
		response.InternalServerError(w, "Failed to generate export")
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", format.FileName()))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// GetDay implements AttendanceHandler.
func (h *attendanceHandlerImpl) GetDay(w http.ResponseWriter, r *http.Request) {
	req, err := parseDay(r)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.attendanceService.GetUserDayDetail(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// Departments implements AttendanceHandler.
func (h *attendanceHandlerImpl) Departments(w http.ResponseWriter, r *http.Request) {
	departments, err := h.attendanceService.ListDepartments(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, departments)
}
