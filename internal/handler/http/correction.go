package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/attendance-control/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-control/internal/handler/http/response"
)

type CorrectionHandler interface {
	SaveMarks(w http.ResponseWriter, r *http.Request)
	AutoFix(w http.ResponseWriter, r *http.Request)
	Resolve(w http.ResponseWriter, r *http.Request)
	AddMark(w http.ResponseWriter, r *http.Request)
	DeleteMark(w http.ResponseWriter, r *http.Request)
	ReassignMark(w http.ResponseWriter, r *http.Request)
	Command(w http.ResponseWriter, r *http.Request)
	CleanDuplicates(w http.ResponseWriter, r *http.Request)
}

type correctionHandlerImpl struct {
	correctionService attendance.CorrectionService
}

func NewCorrectionHandler(correctionService attendance.CorrectionService) CorrectionHandler {
	return &correctionHandlerImpl{
		correctionService: correctionService,
	}
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		slog.Debug("Failed to decode request body", "path", r.URL.Path, "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return false
	}
	return true
}

// SaveMarks implements CorrectionHandler.
func (h *correctionHandlerImpl) SaveMarks(w http.ResponseWriter, r *http.Request) {
	day, err := parseDay(r)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	var req attendance.SaveMarksRequest
	if !decode(w, r, &req) {
		return
	}
	req.DayRequest = day

	h.saveMarks(w, r, req)
}

func (h *correctionHandlerImpl) saveMarks(w http.ResponseWriter, r *http.Request, req attendance.SaveMarksRequest) {
	result, err := h.correctionService.ReplaceDayMarks(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMessage(w, "Marks saved", result)
}

// AutoFix implements CorrectionHandler.
func (h *correctionHandlerImpl) AutoFix(w http.ResponseWriter, r *http.Request) {
	req, err := parseDay(r)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.correctionService.AutoFixIncompleteDay(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Day fixed from assigned shifts", result)
}

// Resolve implements CorrectionHandler.
func (h *correctionHandlerImpl) Resolve(w http.ResponseWriter, r *http.Request) {
	req, err := parseDay(r)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.correctionService.ApplyResolution(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	message := "Day already resolved"
	if result.Changed {
		message = "Duplicate marks resolved"
	}
	response.SuccessWithMessage(w, message, result)
}

// AddMark implements CorrectionHandler.
func (h *correctionHandlerImpl) AddMark(w http.ResponseWriter, r *http.Request) {
	var req attendance.AddMarkRequest
	if !decode(w, r, &req) {
		return
	}
	h.addMark(w, r, req)
}

func (h *correctionHandlerImpl) addMark(w http.ResponseWriter, r *http.Request, req attendance.AddMarkRequest) {
	result, err := h.correctionService.AddMark(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Created(w, "Mark added", result)
}

// DeleteMark implements CorrectionHandler.
func (h *correctionHandlerImpl) DeleteMark(w http.ResponseWriter, r *http.Request) {
	var req attendance.DeleteMarkRequest
	if !decode(w, r, &req) {
		return
	}
	h.deleteMark(w, r, req)
}

func (h *correctionHandlerImpl) deleteMark(w http.ResponseWriter, r *http.Request, req attendance.DeleteMarkRequest) {
	if err := h.correctionService.DeleteMark(r.Context(), req); err != nil {
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMessage(w, "Mark deleted", nil)
}

// ReassignMark implements CorrectionHandler.
func (h *correctionHandlerImpl) ReassignMark(w http.ResponseWriter, r *http.Request) {
	var req attendance.ReassignMarkRequest
	if !decode(w, r, &req) {
		return
	}
	h.reassignMark(w, r, req)
}

func (h *correctionHandlerImpl) reassignMark(w http.ResponseWriter, r *http.Request, req attendance.ReassignMarkRequest) {
	if err := h.correctionService.ReassignMark(r.Context(), req); err != nil {
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMessage(w, "Mark reassigned", nil)
}

// Command implements CorrectionHandler.
func (h *correctionHandlerImpl) Command(w http.ResponseWriter, r *http.Request) {
	var env attendance.CommandEnvelope
	if !decode(w, r, &env) {
		return
	}

	cmd, err := attendance.DecodeCommand(env)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	switch c := cmd.(type) {
	case *attendance.SaveMarksRequest:
		h.saveMarks(w, r, *c)
	case *attendance.AddMarkRequest:
		h.addMark(w, r, *c)
	case *attendance.DeleteMarkRequest:
		h.deleteMark(w, r, *c)
	case *attendance.ReassignMarkRequest:
		h.reassignMark(w, r, *c)
	default:
		response.HandleError(w, attendance.ErrUnknownCommand)
	}
}

// CleanDuplicates implements CorrectionHandler.
func (h *correctionHandlerImpl) CleanDuplicates(w http.ResponseWriter, r *http.Request) {
	var req attendance.CleanDuplicatesRequest
	if r.ContentLength != 0 {
		if !decode(w, r, &req) {
			return
		}
	}

	result, err := h.correctionService.CleanDuplicates(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Duplicate cleanup finished", result)
}
