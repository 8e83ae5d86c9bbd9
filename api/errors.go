package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"kairos/report"
	"kairos/store"
)

const (
	localRequestID = "requestid"
	localClaims    = "claims"
)

const internalMessage = "internal server error"

type errorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// page is the body of read-only screens. A failed read still answers 200,
// with zeroed data and Success false.
type page struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data"`
}

// status maps an error to its HTTP status and the message shown to the
// client.
func status(err error) (int, string) {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code, fe.Message
	}

	var (
		ve *store.ValidationError
		de *store.DuplicateError
		ne *store.NotFoundError
		pe *store.PersistenceError
	)
	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest, ve.Error()
	case errors.As(err, &de):
		return http.StatusConflict, de.Error()
	case errors.As(err, &pe) && errors.As(err, &ne):
		return http.StatusUnprocessableEntity, ne.Error()
	case errors.As(err, &ne):
		return http.StatusNotFound, ne.Error()
	}

	return http.StatusInternalServerError, internalMessage
}

func (s *Server) handleError(c *fiber.Ctx, err error) error {
	code, msg := status(err)
	if code >= http.StatusInternalServerError {
		s.requestLog(c).WithError(err).Error("request failed")
	}

	return c.Status(code).JSON(errorResponse{Message: msg})
}

func (s *Server) requestLog(c *fiber.Ctx) logrus.FieldLogger {
	return s.log.WithFields(logrus.Fields{
		"request_id": c.Locals(localRequestID),
		"method":     c.Method(),
		"path":       c.Path(),
	})
}

func renderPage[T any](s *Server, c *fiber.Ctx, r report.Result[T], failure string) error {
	if !r.OK() {
		s.requestLog(c).WithError(r.Err).Error(failure)
		return c.JSON(page{Message: failure, Data: r.Data})
	}
	return c.JSON(page{Success: true, Data: r.Data})
}

func decode(c *fiber.Ctx, v interface{}) error {
	err := json.Unmarshal(c.Body(), v)
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	return nil
}

func paramID(c *fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fiber.NewError(http.StatusBadRequest, "invalid id")
	}
	return id, nil
}

var tagRe = regexp.MustCompile(`<[^>]*>`)

// clean strips markup and surrounding whitespace from free text input.
func clean(s string) string {
	return strings.TrimSpace(tagRe.ReplaceAllString(s, ""))
}
