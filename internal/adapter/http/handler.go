package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/openbracket/regatta/internal/app"
	"github.com/openbracket/regatta/internal/domain"
)

const timeFormat = "2006-01-02T15:04:05Z"

// PlayerPayload is the API representation of one roster entry.
type PlayerPayload struct {
	Name          string `json:"name" doc:"Player display name"`
	Handle        string `json:"handle" doc:"In-game name with tagline"`
	InstitutionID string `json:"institution_id,omitempty" doc:"Scholar ID (home tier only)"`
}

// RegistrationResponse is the API representation of a registration.
type RegistrationResponse struct {
	ID               string          `json:"id" doc:"Unique identifier"`
	EventID          string          `json:"event_id" doc:"Event the team entered"`
	GameID           string          `json:"game_id" doc:"Game the team entered"`
	TeamName         string          `json:"team_name" doc:"Team display name"`
	Email            string          `json:"email" doc:"Registrant email"`
	PrimaryContact   string          `json:"primary_contact" doc:"Team leader contact"`
	AlternateContact string          `json:"alternate_contact" doc:"Backup contact"`
	Tier             string          `json:"tier" doc:"Fee tier (home or visitor)"`
	Roster           []PlayerPayload `json:"roster" doc:"Players; entry 0 is the team leader"`
	Amount           int64           `json:"amount" doc:"Entry fee in minor currency units"`
	Currency         string          `json:"currency" doc:"ISO 4217 currency code"`
	Status           string          `json:"status" doc:"Lifecycle state"`
	CreatedAt        string          `json:"created_at" doc:"Creation timestamp (ISO 8601)"`
	StatusChangedAt  string          `json:"status_changed_at" doc:"Last transition timestamp (ISO 8601)"`
}

func toRegistrationResponse(reg domain.Registration) RegistrationResponse {
	roster := make([]PlayerPayload, len(reg.Roster))
	for i, p := range reg.Roster {
		roster[i] = PlayerPayload{Name: p.Name, Handle: p.Handle, InstitutionID: p.InstitutionID}
	}
	return RegistrationResponse{
		ID:               reg.ID,
		EventID:          reg.EventID,
		GameID:           reg.GameID,
		TeamName:         reg.TeamName,
		Email:            reg.Contact.Email,
		PrimaryContact:   reg.Contact.Primary,
		AlternateContact: reg.Contact.Alternate,
		Tier:             string(reg.Tier),
		Roster:           roster,
		Amount:           reg.Amount,
		Currency:         reg.Currency,
		Status:           string(reg.Status),
		CreatedAt:        reg.CreatedAt.Format(timeFormat),
		StatusChangedAt:  reg.StatusChangedAt.Format(timeFormat),
	}
}

// --- Submit Registration ---

type SubmitRegistrationInput struct {
	Body struct {
		EventID          string          `json:"event_id" minLength:"1" doc:"Event identifier"`
		GameID           string          `json:"game_id" minLength:"1" doc:"Game identifier"`
		TeamName         string          `json:"team_name" doc:"Team display name"`
		Email            string          `json:"email,omitempty" doc:"Registrant email; defaults to the signed-in identity"`
		PrimaryContact   string          `json:"primary_contact" doc:"Team leader contact"`
		AlternateContact string          `json:"alternate_contact" doc:"Backup contact"`
		Tier             string          `json:"tier,omitempty" doc:"Fee tier (home or visitor); inferred from the email when omitted"`
		Roster           []PlayerPayload `json:"roster" doc:"Players; entry 0 is the team leader"`
	}
}

type SubmitRegistrationOutput struct {
	Body RegistrationResponse
}

// --- Begin Payment ---

type BeginPaymentInput struct {
	ID string `path:"id" doc:"Registration ID"`
}

type BeginPaymentOutput struct {
	Body PaymentSessionResponse
}

// PaymentSessionResponse describes one opened checkout attempt.
type PaymentSessionResponse struct {
	RegistrationID string `json:"registration_id" doc:"Registration being paid"`
	Amount         int64  `json:"amount" doc:"Due amount in minor currency units"`
	Currency       string `json:"currency" doc:"ISO 4217 currency code"`
	Reference      string `json:"reference" doc:"Gateway session reference"`
	CheckoutURL    string `json:"checkout_url" doc:"Where to send the user to pay"`
}

// --- Payment Callback ---

type PaymentCallbackInput struct {
	Body struct {
		RegistrationID string `json:"registration_id" minLength:"1" doc:"Registration the outcome is for"`
		Reference      string `json:"reference" minLength:"1" doc:"Gateway session reference"`
		Outcome        string `json:"outcome" enum:"success,failure" doc:"Gateway result; anything else is rejected"`
		Amount         int64  `json:"amount" doc:"Charged amount in minor currency units"`
		Currency       string `json:"currency" minLength:"1" doc:"ISO 4217 currency code"`
	}
}

type PaymentCallbackOutput struct {
	Body struct {
		Status string `json:"status" doc:"Resulting lifecycle state"`
	}
}

// --- Get / Status / List ---

type GetRegistrationInput struct {
	ID string `path:"id" doc:"Registration ID"`
}

type GetRegistrationOutput struct {
	Body RegistrationResponse
}

type GetStatusInput struct {
	ID string `path:"id" doc:"Registration ID"`
}

type GetStatusOutput struct {
	Body struct {
		Status string `json:"status" doc:"Lifecycle state"`
	}
}

type ListRegistrationsInput struct {
	EventID string `query:"event_id" required:"false" doc:"Filter by event"`
	GameID  string `query:"game_id" required:"false" doc:"Filter by game"`
	Status  string `query:"status" required:"false" doc:"Filter by status"`
	Limit   int    `query:"limit" required:"false" default:"50" doc:"Max results"`
	Offset  int    `query:"offset" required:"false" default:"0" doc:"Pagination offset"`
}

type ListRegistrationsOutput struct {
	Body []RegistrationResponse
}

// --- Games ---

type GameResponse struct {
	ID          string           `json:"id" doc:"Game identifier"`
	Name        string           `json:"name" doc:"Display name"`
	PlayerCount int              `json:"player_count" doc:"Required roster size"`
	Fees        map[string]int64 `json:"fees" doc:"Entry fee per tier in minor currency units"`
}

type ListGamesOutput struct {
	Body []GameResponse
}

// Register adds all registration API routes to the Huma API.
func Register(api huma.API, svc *app.RegistrationService) {
	huma.Register(api, huma.Operation{
		OperationID: "submit-registration",
		Method:      http.MethodPost,
		Path:        "/api/v1/registrations",
		Summary:     "Submit a team registration",
		Tags:        []string{"Registrations"},
	}, func(ctx context.Context, input *SubmitRegistrationInput) (*SubmitRegistrationOutput, error) {
		roster := make([]domain.Player, len(input.Body.Roster))
		for i, p := range input.Body.Roster {
			roster[i] = domain.Player{Name: p.Name, Handle: p.Handle, InstitutionID: p.InstitutionID}
		}

		reg, err := svc.Submit(ctx, domain.Submission{
			EventID:  input.Body.EventID,
			GameID:   input.Body.GameID,
			TeamName: input.Body.TeamName,
			Contact: domain.Contact{
				Email:     input.Body.Email,
				Primary:   input.Body.PrimaryContact,
				Alternate: input.Body.AlternateContact,
			},
			Tier:   domain.FeeTier(input.Body.Tier),
			Roster: roster,
		})
		if err != nil {
			return nil, toHumaError(err)
		}
		return &SubmitRegistrationOutput{Body: toRegistrationResponse(reg)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "begin-payment",
		Method:      http.MethodPost,
		Path:        "/api/v1/registrations/{id}/payment",
		Summary:     "Open a payment session",
		Tags:        []string{"Payments"},
	}, func(ctx context.Context, input *BeginPaymentInput) (*BeginPaymentOutput, error) {
		session, err := svc.BeginPayment(ctx, input.ID)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &BeginPaymentOutput{Body: PaymentSessionResponse{
			RegistrationID: session.RegistrationID,
			Amount:         session.Amount,
			Currency:       session.Currency,
			Reference:      session.Reference,
			CheckoutURL:    session.CheckoutURL,
		}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "payment-callback",
		Method:      http.MethodPost,
		Path:        "/api/v1/payments/callback",
		Summary:     "Reconcile a gateway outcome",
		Tags:        []string{"Payments"},
	}, func(ctx context.Context, input *PaymentCallbackInput) (*PaymentCallbackOutput, error) {
		status, err := svc.FinalizePayment(ctx, input.Body.RegistrationID, domain.GatewayOutcome{
			Succeeded: input.Body.Outcome == "success",
			Amount:    input.Body.Amount,
			Currency:  input.Body.Currency,
			Reference: input.Body.Reference,
		})
		if err != nil {
			return nil, toHumaError(err)
		}
		out := &PaymentCallbackOutput{}
		out.Body.Status = string(status)
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-registration",
		Method:      http.MethodGet,
		Path:        "/api/v1/registrations/{id}",
		Summary:     "Get a registration by ID",
		Tags:        []string{"Registrations"},
	}, func(ctx context.Context, input *GetRegistrationInput) (*GetRegistrationOutput, error) {
		reg, err := svc.GetByID(ctx, input.ID)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &GetRegistrationOutput{Body: toRegistrationResponse(reg)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-registration-status",
		Method:      http.MethodGet,
		Path:        "/api/v1/registrations/{id}/status",
		Summary:     "Get a registration's lifecycle status",
		Tags:        []string{"Registrations"},
	}, func(ctx context.Context, input *GetStatusInput) (*GetStatusOutput, error) {
		status, err := svc.GetStatus(ctx, input.ID)
		if err != nil {
			return nil, toHumaError(err)
		}
		out := &GetStatusOutput{}
		out.Body.Status = string(status)
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-registrations",
		Method:      http.MethodGet,
		Path:        "/api/v1/registrations",
		Summary:     "List registrations",
		Tags:        []string{"Registrations"},
	}, func(ctx context.Context, input *ListRegistrationsInput) (*ListRegistrationsOutput, error) {
		filter := domain.ListFilter{
			EventID: input.EventID,
			GameID:  input.GameID,
			Limit:   input.Limit,
			Offset:  input.Offset,
		}
		if input.Status != "" {
			s := domain.Status(input.Status)
			filter.Status = &s
		}

		regs, err := svc.List(ctx, filter)
		if err != nil {
			return nil, toHumaError(err)
		}

		resp := make([]RegistrationResponse, len(regs))
		for i, reg := range regs {
			resp[i] = toRegistrationResponse(reg)
		}
		return &ListRegistrationsOutput{Body: resp}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-games",
		Method:      http.MethodGet,
		Path:        "/api/v1/games",
		Summary:     "List the game catalog",
		Tags:        []string{"Games"},
	}, func(ctx context.Context, _ *struct{}) (*ListGamesOutput, error) {
		games := svc.Catalog().Games()
		resp := make([]GameResponse, len(games))
		for i, def := range games {
			fees := make(map[string]int64, len(def.Fees))
			for tier, amount := range def.Fees {
				fees[string(tier)] = amount
			}
			resp[i] = GameResponse{
				ID:          def.ID,
				Name:        def.Name,
				PlayerCount: def.PlayerCount,
				Fees:        fees,
			}
		}
		return &ListGamesOutput{Body: resp}, nil
	})
}

// toHumaError translates domain errors to Huma HTTP errors.
func toHumaError(err error) error {
	if errors.Is(err, domain.ErrRegistrationNotFound) {
		return huma.Error404NotFound("registration not found")
	}

	var unknownErr *domain.UnknownGameError
	if errors.As(err, &unknownErr) {
		return huma.Error404NotFound(unknownErr.Error())
	}

	var sizeErr *domain.RosterSizeError
	if errors.As(err, &sizeErr) {
		return huma.Error422UnprocessableEntity(sizeErr.Error(), &huma.ErrorDetail{
			Location: "body.roster",
			Message:  sizeErr.Error(),
			Value:    sizeErr.Actual,
		})
	}

	var valErr *domain.ValidationError
	if errors.As(err, &valErr) {
		details := make([]error, len(valErr.Fields))
		for i, f := range valErr.Fields {
			details[i] = &huma.ErrorDetail{Location: "body." + f.Field, Message: f.Message}
		}
		return huma.Error422UnprocessableEntity("submission has invalid fields", details...)
	}

	var dupErr *domain.DuplicateRegistrationError
	if errors.As(err, &dupErr) {
		return huma.Error409Conflict(dupErr.Error())
	}

	var conflictErr *domain.ConflictError
	if errors.As(err, &conflictErr) {
		return huma.Error409Conflict(conflictErr.Error())
	}

	var trErr *domain.TransitionError
	if errors.As(err, &trErr) {
		return huma.Error409Conflict(trErr.Error())
	}

	var staleErr *domain.StaleCallbackError
	if errors.As(err, &staleErr) {
		return huma.Error422UnprocessableEntity(staleErr.Error())
	}

	return huma.Error500InternalServerError("internal server error")
}
