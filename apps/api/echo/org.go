package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/reminderx/backend/core"
	"github.com/reminderx/backend/core/org"
	"github.com/reminderx/backend/core/user"
)

type orgApi struct {
	svc      org.Service
	usrSvc   user.Service
	validate *validator.Validate
}

func registerOrgAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps *ServerDeps) {
	api := orgApi{
		svc:      deps.OrgSvc,
		usrSvc:   deps.UserSvc,
		validate: deps.Validate,
	}

	// staff invitations are consumed from an emailed link, pre-login
	g.POST("/verify-staff", api.verifyStaff)

	og := g.Group("/organizations", jwt)
	og.POST("", api.create)

	admin := variantMiddleware(deps.UserSvc, user.VariantEnterpriseAdmin)
	og.GET("/mine", api.retrieveMine)
	og.PUT("/mine/icon", api.setIcon, admin)
	og.POST("/mine/invite", api.inviteStaff, admin)

	g.POST("/staff/:id/send-message", api.sendStaffMessage, jwt, admin)
}

// Handlers

func (api *orgApi) create(ctx echo.Context) error {
	var data org.NewOrganization
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewOrganization")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	usr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if usr.OrgID != "" {
		return core.NewValidationError(errors.New("account already belongs to an organization"))
	}
	c := ctx.Request().Context()

	o, err := api.svc.Create(c, usr.ID, data)
	if err != nil {
		return errors.Wrap(err, "creating organization")
	}

	// the creator becomes the organization's admin on the multi-user plan
	if _, err = api.usrSvc.AttachToOrganization(c, usr.ID, o.ID); err != nil {
		return errors.Wrap(err, "attaching admin to organization")
	}

	return ctx.JSON(http.StatusCreated, o)
}

func (api *orgApi) retrieveMine(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if usr.OrgID == "" {
		return errHttpNotFound
	}

	o, err := api.svc.GetByID(ctx.Request().Context(), usr.OrgID)
	if err != nil {
		if errors.Cause(err) == org.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding organization by ID")
	}
	return ctx.JSON(http.StatusOK, o)
}

func (api *orgApi) setIcon(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	var data SetIconRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SetIconRequest")
	}
	if err := api.validate.Struct(&data); err != nil {
		return err
	}

	o, err := api.svc.SetIcon(ctx.Request().Context(), usr.OrgID, data.IconURL)
	if err != nil {
		return errors.Wrap(err, "setting organization icon")
	}
	return ctx.JSON(http.StatusOK, o)
}

func (api *orgApi) inviteStaff(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	var data org.InviteStaff
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to InviteStaff")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	if err := api.svc.InviteStaff(ctx.Request().Context(), usr.OrgID, data.Email); err != nil {
		return errors.Wrap(err, "inviting staff")
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: "Invitation sent."})
}

func (api *orgApi) verifyStaff(ctx echo.Context) error {
	var data org.VerifyStaff
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to VerifyStaff")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	usr, err := api.svc.VerifyStaff(ctx.Request().Context(), data.Token)
	if err != nil {
		switch errors.Cause(err) {
		case org.ErrInviteInvalid, user.ErrNotFound:
			return core.NewValidationError(errors.New("invalid or expired invitation"))
		}
		return errors.Wrap(err, "verifying staff")
	}

	token, err := GenerateToken(GetUserClaims(usr))
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	return ctx.JSON(http.StatusOK, LoginResponse{Token: token, User: &usr})
}

func (api *orgApi) sendStaffMessage(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	staffID := ctx.Param("id")
	staff, err := api.usrSvc.GetByID(ctx.Request().Context(), staffID)
	if err != nil || staff.OrgID == "" || staff.OrgID != usr.OrgID {
		return errHttpNotFound
	}

	var data org.StaffMessage
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to StaffMessage")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	if err := api.svc.SendStaffMessage(ctx.Request().Context(), staffID, data); err != nil {
		return errors.Wrap(err, "sending staff message")
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: "Message sent."})
}

type SetIconRequest struct {
	IconURL string `json:"icon_url" validate:"required,url"`
}
