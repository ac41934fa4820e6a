package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/reminderx/backend/core"
	"github.com/reminderx/backend/core/user"
)

type userApi struct {
	svc      user.Service
	validate *validator.Validate
}

func registerUserAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps *ServerDeps) {
	api := userApi{
		svc:      deps.UserSvc,
		validate: deps.Validate,
	}

	// un-authed endpoints
	g.POST("/register", api.register)
	g.POST("/register/verify-otp", api.verifyOTP)
	g.POST("/register/resend-otp", api.resendOTP)
	g.POST("/token", api.login)
	g.POST("/password-reset", api.resetPassword)
	g.POST("/password-reset-confirm", api.confirmPasswordReset)

	// authed endpoints
	ag := g.Group("", jwt)
	ag.POST("/token/refresh", api.refreshToken)

	mg := ag.Group("/me")
	mg.GET("", api.retrieveMe)
	mg.PUT("", api.updateMe)
	mg.DELETE("", api.destroyMe)
}

// Handlers

func (api *userApi) register(ctx echo.Context) error {
	var data user.NewUser
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewUser")
	}
	if err := data.Validate(api.validate, api.svc); err != nil {
		return err
	}

	usr, err := api.svc.Register(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "registering user")
	}
	return ctx.JSON(http.StatusCreated, usr)
}

func (api *userApi) verifyOTP(ctx echo.Context) error {
	var data user.VerifyOTP
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to VerifyOTP")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	usr, err := api.svc.VerifyEmail(ctx.Request().Context(), data.Email, data.Code)
	if err != nil {
		switch errors.Cause(err) {
		case user.ErrNotFound, user.ErrOTPInvalid:
			return core.NewValidationError(errors.New("invalid verification code"))
		case user.ErrAlreadyActive:
			return core.NewValidationError(errors.New("account is already verified"))
		}
		return errors.Wrap(err, "verifying email")
	}

	claims := GetUserClaims(usr)
	token, err := GenerateToken(claims)
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	return ctx.JSON(http.StatusOK, LoginResponse{Token: token, User: &usr})
}

func (api *userApi) resendOTP(ctx echo.Context) error {
	var data user.ResendOTP
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ResendOTP")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	err := api.svc.ResendOTP(ctx.Request().Context(), data.Email)
	switch errors.Cause(err) {
	case nil:
	case user.ErrOTPCooldown:
		return echo.NewHTTPError(http.StatusTooManyRequests, "please wait before requesting another code")
	case user.ErrOTPBlocked:
		return echo.NewHTTPError(http.StatusTooManyRequests, "too many pending codes; try again later")
	case user.ErrAlreadyActive:
		return core.NewValidationError(errors.New("account is already verified"))
	case user.ErrNotFound:
		// do not leak account existence
	default:
		return errors.Wrap(err, "resending OTP")
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: "A new verification code has been sent."})
}

func (api *userApi) login(ctx echo.Context) error {
	var data LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	claims, err := authenticate(ctx, data.Username, data.Password, api.svc)
	if err != nil {
		return errors.Wrap(err, "authenticating")
	}
	token, err := GenerateToken(claims)
	if err != nil {
		return errors.Wrap(err, "generating token")
	}

	return ctx.JSON(http.StatusOK, LoginResponse{Token: token})
}

func (api *userApi) resetPassword(ctx echo.Context) error {
	var data PasswordResetRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to PasswordResetRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	if err := api.svc.RequestPasswordReset(ctx.Request().Context(), data.Email); !(err == nil || errors.Cause(err) == user.ErrNotFound) {
		// do not return errors to attackers
		ctx.Logger().Errorf("%+v", errors.Wrap(err, "requesting password reset"))
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{
		Success: "If the email address supplied is associated with an active account on this system, " +
			"an email will arrive in your inbox shortly with instructions to reset your password.",
	})
}

func (api *userApi) confirmPasswordReset(ctx echo.Context) error {
	var data user.ResetUserPassword
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ResetUserPassword")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	if err := api.svc.ResetPassword(ctx.Request().Context(), data); err != nil {
		return errors.Wrap(err, "resetting password")
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: "Password has been reset with the new password."})
}

func (api *userApi) retrieveMe(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.svc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	return ctx.JSON(http.StatusOK, MeResponse{User: usr, Variant: usr.Variant()})
}

func (api *userApi) updateMe(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.svc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	var data user.UpdateUser
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateUser")
	}

	// `IsActive` and `Role` are managed by the system
	if data.IsActive != nil || data.Role != "" {
		return errHttpForbidden
	}

	if err := data.Validate(usr, api.validate, api.svc); err != nil {
		return err
	}

	usr, err = api.svc.Update(ctx.Request().Context(), usr.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating user")
	}
	ctx.Set(contextUserKey, usr)
	return ctx.JSON(http.StatusOK, MeResponse{User: usr, Variant: usr.Variant()})
}

func (api *userApi) destroyMe(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.svc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if err := api.svc.Delete(ctx.Request().Context(), usr.ID); err != nil {
		return errors.Wrap(err, "deleting user")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *userApi) refreshToken(ctx echo.Context) error {
	token, err := refreshToken(ctx, api.svc)
	if err != nil {
		return errors.Wrap(err, "refreshing token")
	}
	return ctx.JSON(http.StatusOK, LoginResponse{Token: token})
}

type (
	LoginRequest struct {
		Username string `json:"username" validate:"required"`
		Password string `json:"password" validate:"required"`
	}

	LoginResponse struct {
		Token string     `json:"token"`
		User  *user.User `json:"user,omitempty"`
	}

	MeResponse struct {
		user.User
		Variant user.Variant `json:"variant"`
	}

	PasswordResetRequest struct {
		Email string `json:"email" validate:"required,email"`
	}

	SuccessResponse struct {
		Success string `json:"success"`
	}
)

func (lr *LoginRequest) Validate(validate *validator.Validate) error {
	lr.Username = core.CleanString(lr.Username, true /* lower */)
	return validate.Struct(lr)
}

func (pr *PasswordResetRequest) Validate(validate *validator.Validate) error {
	pr.Email = core.CleanString(pr.Email, true /* lower */)
	return validate.Struct(pr)
}
