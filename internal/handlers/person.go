package handlers

import (
	"context"
	"net/http"

	"github.com/gt-platform/gtauth/internal/handlers/render"
	"github.com/gt-platform/gtauth/internal/logger"
	"github.com/gt-platform/gtauth/internal/models"
	"github.com/gt-platform/gtauth/internal/repository"
)

type personService interface {
	Create(ctx context.Context, arg repository.CreatePersonParams) (models.Person, error)
}

type PersonHandler struct {
	personService personService
	logger        logger.Logger
}

func NewPerson(s personService, l logger.Logger) *PersonHandler {
	if l == nil {
		l = logger.NewNoOp()
	}
	return &PersonHandler{personService: s, logger: l}
}

func (h *PersonHandler) Create(w http.ResponseWriter, r *http.Request) {
	type PersonCreateRequest struct {
		Name     string `json:"name" validate:"required,max=100"`
		Phone    string `json:"phone" validate:"max=30"`
		Birth    string `json:"birth" validate:"max=10"`
		Gender   string `json:"gender" validate:"max=10"`
		Address1 string `json:"address1" validate:"max=200"`
		Address2 string `json:"address2" validate:"max=200"`
	}
	type PersonCreateResponse struct {
		ID      string `json:"id"`
		Message string `json:"message"`
	}

	data, err := render.BindAndValidate[PersonCreateRequest](w, r)
	if err != nil {
		return
	}

	person, err := h.personService.Create(r.Context(), repository.CreatePersonParams{
		Name:     data.Name,
		Phone:    data.Phone,
		Birth:    data.Birth,
		Gender:   data.Gender,
		Address1: data.Address1,
		Address2: data.Address2,
	})
	if err != nil {
		h.logger.Error("person create failed", "error", err.Error())
		render.ServiceError(w, "Failed to create person", http.StatusInternalServerError)
		return
	}

	render.JSONWithStatus(w, PersonCreateResponse{
		ID:      person.ID.String(),
		Message: "Person created successfully",
	}, http.StatusCreated)
}
