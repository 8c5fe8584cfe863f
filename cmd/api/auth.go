package main

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"souvenir/internal/domain/users"
	"souvenir/internal/mailer"

	"github.com/google/uuid"
)

// ErrorBadRequestResponse represents the standard error format for bad request API responses.
//
//	@name			ErrorBadRequestResponse
//	@description	Standard error response format returned by all bad request API endpoints
type ErrorBadRequestResponse struct {
	Success bool   `json:"success" example:"false"`
	Message string `json:"message" example:"It show error from err.Error()"`
	Status  int    `json:"status" example:"400"`
}

// ErrorInternalServerResponse represents the standard error format for internal server API responses.
//
//	@name			ErrorInternalServerResponse
//	@description	Standard error response format returned by all internal server error API endpoints
type ErrorInternalServerResponse struct {
	Success bool   `json:"success" example:"false"`
	Message string `json:"message" example:"the server encountered a problem"`
	Status  int    `json:"status" example:"500"`
}

type SignupPayload struct {
	FirstName string `json:"firstName" validate:"required,max=50"`
	LastName  string `json:"lastName" validate:"required,max=50"`
	Email     string `json:"email" validate:"required,email,max=255"`
	Password  string `json:"password" validate:"required,min=6,max=72"`
}

// SessionResponse is what signin and signup hand back to the storefront.
type SessionResponse struct {
	Token string      `json:"token"`
	User  *users.User `json:"user"`
}

// signupHandler godoc
//
//	@Summary		Registers a user
//	@Description	Creates the account and returns a session token right away
//	@Tags			authentication
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		SignupPayload				true	"User details"
//	@Success		201		{object}	SessionResponse				"User registered"
//	@Failure		400		{object}	ErrorBadRequestResponse		"Bad request"
//	@Failure		500		{object}	ErrorInternalServerResponse	"Internal Server Error"
//	@Router			/auth/signup [post]
func (app *application) signupHandler(w http.ResponseWriter, r *http.Request) {
	var payload SignupPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	user := &users.User{
		FirstName: payload.FirstName,
		LastName:  payload.LastName,
		Email:     payload.Email,
		Role:      users.RoleUser,
	}
	// hash the user password.
	if err := user.Password.Set(payload.Password); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	ctx := r.Context()

	if err := app.store.Users.Create(ctx, user); err != nil {
		switch {
		case errors.Is(err, users.ErrDuplicateEmail):
			app.badRequestResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	token, err := app.authenticator.GenerateToken(user.ID, string(user.Role))
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusCreated, SessionResponse{Token: token, User: user}); err != nil {
		app.internalServerError(w, r, err)
	}
}

type SigninPayload struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

// signinHandler godoc
//
//	@Summary		Login to get a session token
//	@Tags			authentication
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		SigninPayload	true	"User credentials"
//	@Success		200		{object}	SessionResponse
//	@Failure		400		{object}	ErrorBadRequestResponse
//	@Failure		401		{object}	error
//	@Router			/auth/signin [post]
func (app *application) signinHandler(w http.ResponseWriter, r *http.Request) {
	var payload SigninPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	ctx := r.Context()

	user, err := app.store.Users.GetByEmail(ctx, payload.Email)
	if err != nil {
		switch {
		case errors.Is(err, users.ErrNotFound):
			app.unauthorizedErrorResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	if err := user.Password.Compare(payload.Password); err != nil {
		app.unauthorizedErrorResponse(w, r, err)
		return
	}

	token, err := app.authenticator.GenerateToken(user.ID, string(user.Role))
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.store.Users.TouchLastLogin(ctx, user.ID); err != nil {
		app.logger.Errorw("error updating last login", "error", err)
	}

	if err := app.jsonResponse(w, http.StatusOK, SessionResponse{Token: token, User: user}); err != nil {
		app.internalServerError(w, r, err)
	}
}

type ForgotPasswordPayload struct {
	Email string `json:"email" validate:"required,email,max=255"`
}

// forgotPasswordHandler issues a reset token and mails it. The response does
// not reveal whether the email exists.
func (app *application) forgotPasswordHandler(w http.ResponseWriter, r *http.Request) {
	var payload ForgotPasswordPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	ctx := r.Context()

	token := uuid.New().String()
	expires := time.Now().Add(app.config.mail.resetExp)

	err := app.store.Users.UpdateResetToken(ctx, payload.Email, token, expires)
	if err != nil && !errors.Is(err, users.ErrNotFound) {
		app.internalServerError(w, r, err)
		return
	}

	if err == nil {
		user, err := app.store.Users.GetByEmail(ctx, payload.Email)
		if err != nil {
			app.internalServerError(w, r, err)
			return
		}

		resetURL := fmt.Sprintf("%s/reset-password?token=%s", app.config.frontendURL, token)

		vars := struct {
			Username string
			ResetURL string
		}{
			Username: user.FirstName,
			ResetURL: resetURL,
		}

		status, err := app.mailer.Send(mailer.ResetPasswordTemplate, user.FirstName, user.Email, vars)
		if err != nil {
			app.logger.Errorw("error sending reset email", "error", err)
			app.internalServerError(w, r, err)
			return
		}
		app.logger.Infow("reset email sent", "status code", status)
	}

	if err := app.jsonResponse(w, http.StatusOK, map[string]string{
		"message": "if the email exists, a reset link has been sent",
	}); err != nil {
		app.internalServerError(w, r, err)
	}
}

type ResetPasswordPayload struct {
	Token    string `json:"token" validate:"required,uuid4"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

func (app *application) resetPasswordHandler(w http.ResponseWriter, r *http.Request) {
	var payload ResetPasswordPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	ctx := r.Context()

	user, err := app.store.Users.GetByResetToken(ctx, payload.Token)
	if err != nil {
		switch {
		case errors.Is(err, users.ErrNotFound):
			app.badRequestResponse(w, r, errors.New("invalid or expired reset token"))
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	if time.Now().After(user.ResetPasswordExpires) {
		app.badRequestResponse(w, r, users.ErrTokenExpired)
		return
	}

	if err := user.Password.Set(payload.Password); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.store.Users.UpdatePassword(ctx, user.ID, user.Password.Hash()); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, map[string]string{
		"message": "password has been reset",
	}); err != nil {
		app.internalServerError(w, r, err)
	}
}

// verifySessionHandler echoes the authenticated user so a client can check a
// stored token at startup.
func (app *application) verifySessionHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)

	if err := app.jsonResponse(w, http.StatusOK, user); err != nil {
		app.internalServerError(w, r, err)
	}
}
