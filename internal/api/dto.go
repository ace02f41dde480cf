package api

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"roombook/internal/models"
	"roombook/internal/schedule"
	"roombook/internal/service"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

type createBookingRequest struct {
	RoomNumber  int    `json:"room_number" validate:"required,min=1,max=3"`
	Date        string `json:"date" validate:"required,datetime=2006-01-02"`
	BookingType string `json:"booking_type" validate:"required,oneof=hourly daily"`
	StartHour   *int   `json:"start_hour" validate:"omitempty,gte=0"`
	Duration    *int   `json:"duration" validate:"omitempty,gte=0"`
	UserID      string `json:"user_id" validate:"omitempty,max=64"`
	UserName    string `json:"user_name" validate:"max=128"`
	UserPhone   string `json:"user_phone" validate:"omitempty,max=32"`
}

func (r createBookingRequest) toService() service.CreateRequest {
	return service.CreateRequest{
		RoomNumber:  r.RoomNumber,
		Date:        r.Date,
		BookingType: models.BookingType(r.BookingType),
		StartHour:   r.StartHour,
		Duration:    r.Duration,
		UserID:      r.UserID,
		UserName:    r.UserName,
		UserPhone:   r.UserPhone,
	}
}

type editBookingRequest struct {
	RoomNumber  *int    `json:"room_number" validate:"omitempty,min=1,max=3"`
	Date        *string `json:"date" validate:"omitempty,datetime=2006-01-02"`
	BookingType *string `json:"booking_type" validate:"omitempty,oneof=hourly daily"`
	StartHour   *int    `json:"start_hour" validate:"omitempty,gte=0"`
	Duration    *int    `json:"duration" validate:"omitempty,gte=0"`
}

func (r editBookingRequest) toService(id int64) service.EditRequest {
	req := service.EditRequest{
		ID:         id,
		RoomNumber: r.RoomNumber,
		Date:       r.Date,
		StartHour:  r.StartHour,
		Duration:   r.Duration,
	}
	if r.BookingType != nil {
		t := models.BookingType(*r.BookingType)
		req.BookingType = &t
	}
	return req
}

type mergeClientsRequest struct {
	SourceUserID    string `json:"source_user_id" validate:"required"`
	TargetUserID    string `json:"target_user_id" validate:"required,nefield=SourceUserID"`
	TargetUserName  string `json:"target_user_name" validate:"required,max=128"`
	TargetUserPhone string `json:"target_user_phone" validate:"omitempty,max=32"`
}

type updatedCountResponse struct {
	UpdatedCount int64 `json:"updated_count"`
}

type bookingResponse struct {
	*models.Booking
	From string `json:"from"`
	To   string `json:"to"`
}

func newBookingResponse(b *models.Booking) bookingResponse {
	return bookingResponse{
		Booking: b,
		From:    schedule.FormatUnit(b.StartHour),
		To:      schedule.FormatUnit(b.End()),
	}
}

func newBookingList(bookings []*models.Booking) []bookingResponse {
	out := make([]bookingResponse, 0, len(bookings))
	for _, b := range bookings {
		out = append(out, newBookingResponse(b))
	}
	return out
}

// validateStruct returns a human-readable summary of failed fields, or nil.
func validateStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return err
	}

	msgs := make([]string, 0, len(fieldErrors))
	for _, fe := range fieldErrors {
		msgs = append(msgs, fmt.Sprintf("%s: %s", fe.Field(), fieldMessage(fe)))
	}
	sort.Strings(msgs)
	return errors.New(strings.Join(msgs, "; "))
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min", "gte":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", strings.ReplaceAll(fe.Param(), " ", ", "))
	case "datetime":
		return "must be a date in YYYY-MM-DD format"
	case "nefield":
		return fmt.Sprintf("must differ from %s", fe.Param())
	default:
		return "is invalid"
	}
}
