package echoapi

import (
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/reminderx/backend/core/particular"
	"github.com/reminderx/backend/core/schedule"
	"github.com/reminderx/backend/core/user"
)

var errParticularNotFoundInCtx = errors.New("particular object not found in echo.Context")

// columns the list endpoint may be sorted on
var particularOrderingFields = []string{"title", "category", "expiry_date", "completed", "created_at", "updated_at"}

type particularApi struct {
	svc      particular.Service
	usrSvc   user.Service
	validate *validator.Validate
}

func registerParticularAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps *ServerDeps) {
	api := particularApi{
		svc:      deps.ParticularSvc,
		usrSvc:   deps.UserSvc,
		validate: deps.Validate,
	}

	pg := g.Group("/particulars", jwt)
	pg.GET("", api.query)
	pg.POST("", api.create)
	pg.POST("/bulk", api.bulkCreate)
	pg.GET("/search", api.search)
	pg.GET("/categories", api.queryCategories)

	// detail endpoints
	dg := pg.Group("/:id", api.objectMiddleware())
	dg.GET("", api.retrieve)
	dg.PUT("", api.update)
	dg.DELETE("", api.destroy)
	dg.POST("/owners", api.addOwner, variantMiddleware(deps.UserSvc, user.VariantEnterpriseAdmin))
	dg.DELETE("/owners/:userID", api.removeOwner, variantMiddleware(deps.UserSvc, user.VariantEnterpriseAdmin))

	rg := g.Group("/reminders", jwt)
	rg.POST("", api.createReminder)
	rg.GET("/:id", api.retrieveReminder)
	rg.PUT("/:id", api.updateReminder)
	rg.DELETE("/:id", api.destroyReminder)

	cg := g.Group("/calendar", jwt,
		variantMiddleware(deps.UserSvc, user.VariantPremium, user.VariantEnterpriseAdmin, user.VariantEnterpriseStaff))
	cg.GET("", api.calendar)

	g.GET("/dashboard", api.dashboard, jwt)
}

// scopeFilter restricts a query to what the context user may see: their
// own particulars, or the whole organization for an enterprise admin.
func (api *particularApi) scopeFilter(ctx echo.Context, filter *particular.QueryFilter) (*particular.QueryFilter, error) {
	usr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return nil, errors.Wrap(err, "getting context user")
	}
	if filter == nil {
		filter = new(particular.QueryFilter)
	}
	if usr.Variant() == user.VariantEnterpriseAdmin && usr.OrgID != "" {
		filter.OrgID = usr.OrgID
	} else {
		filter.OwnerID = usr.ID
	}
	return filter, nil
}

// Handlers

func (api *particularApi) query(ctx echo.Context) error {
	filter := new(particular.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []particular.Particular{})
	}
	filter, err := api.scopeFilter(ctx, filter)
	if err != nil {
		return err
	}
	ordering := new(Ordering)
	ordering.Bind(ctx, particularOrderingFields...)

	particulars, err := api.svc.Query(ctx.Request().Context(), filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying particulars")
	}
	return ctx.JSON(http.StatusOK, particulars)
}

func (api *particularApi) create(ctx echo.Context) error {
	var data particular.NewParticular
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewParticular")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	usr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	p, err := api.svc.Create(ctx.Request().Context(), usr.ID, usr.OrgID, data)
	if err != nil {
		return errors.Wrap(err, "creating particular")
	}
	return ctx.JSON(http.StatusCreated, p)
}

func (api *particularApi) bulkCreate(ctx echo.Context) error {
	var data []particular.NewParticular
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewParticular list")
	}
	for i := range data {
		if err := data[i].Validate(api.validate); err != nil {
			return err
		}
	}

	usr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	particulars, err := api.svc.BulkCreate(ctx.Request().Context(), usr.ID, usr.OrgID, data)
	if err != nil {
		return errors.Wrap(err, "bulk creating particulars")
	}
	return ctx.JSON(http.StatusCreated, particulars)
}

func (api *particularApi) search(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	particulars, err := api.svc.Search(ctx.Request().Context(), usr.ID, ctx.QueryParam("q"))
	if err != nil {
		return errors.Wrap(err, "searching particulars")
	}
	return ctx.JSON(http.StatusOK, particulars)
}

func (api *particularApi) queryCategories(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, particular.Categories)
}

func (api *particularApi) retrieve(ctx echo.Context) error {
	p, ok := ctx.Get("object").(particular.Particular)
	if !ok {
		return errors.Wrap(errParticularNotFoundInCtx, "retrieving object from context")
	}
	return ctx.JSON(http.StatusOK, ParticularResponse{
		Particular: p,
		Status:     p.Status(time.Now()),
	})
}

func (api *particularApi) update(ctx echo.Context) error {
	p, ok := ctx.Get("object").(particular.Particular)
	if !ok {
		return errors.Wrap(errParticularNotFoundInCtx, "retrieving object from context")
	}

	var data particular.UpdateParticular
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateParticular")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	p, err := api.svc.Update(ctx.Request().Context(), p.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating particular")
	}
	return ctx.JSON(http.StatusOK, p)
}

func (api *particularApi) destroy(ctx echo.Context) error {
	p, ok := ctx.Get("object").(particular.Particular)
	if !ok {
		return errors.Wrap(errParticularNotFoundInCtx, "retrieving object from context")
	}
	if err := api.svc.Delete(ctx.Request().Context(), p.ID); err != nil {
		return errors.Wrap(err, "deleting particular")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *particularApi) addOwner(ctx echo.Context) error {
	p, ok := ctx.Get("object").(particular.Particular)
	if !ok {
		return errors.Wrap(errParticularNotFoundInCtx, "retrieving object from context")
	}

	var data AddOwnerRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to AddOwnerRequest")
	}
	if err := api.validate.Struct(&data); err != nil {
		return err
	}

	if err := api.svc.AddOwner(ctx.Request().Context(), p.ID, data.UserID); err != nil {
		return errors.Wrap(err, "adding particular owner")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *particularApi) removeOwner(ctx echo.Context) error {
	p, ok := ctx.Get("object").(particular.Particular)
	if !ok {
		return errors.Wrap(errParticularNotFoundInCtx, "retrieving object from context")
	}
	if err := api.svc.RemoveOwner(ctx.Request().Context(), p.ID, ctx.Param("userID")); err != nil {
		return errors.Wrap(err, "removing particular owner")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Reminders

func (api *particularApi) createReminder(ctx echo.Context) error {
	var data particular.NewReminder
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewReminder")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	if _, err := api.accessibleParticular(ctx, data.ParticularID); err != nil {
		return err
	}

	r, err := api.svc.CreateReminder(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating reminder")
	}
	return ctx.JSON(http.StatusCreated, r)
}

func (api *particularApi) retrieveReminder(ctx echo.Context) error {
	r, err := api.accessibleReminder(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, r)
}

func (api *particularApi) updateReminder(ctx echo.Context) error {
	r, err := api.accessibleReminder(ctx)
	if err != nil {
		return err
	}

	var data particular.UpdateReminder
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateReminder")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	r, err = api.svc.UpdateReminder(ctx.Request().Context(), r.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating reminder")
	}
	return ctx.JSON(http.StatusOK, r)
}

func (api *particularApi) destroyReminder(ctx echo.Context) error {
	r, err := api.accessibleReminder(ctx)
	if err != nil {
		return err
	}
	if err := api.svc.DeleteReminder(ctx.Request().Context(), r.ID); err != nil {
		return errors.Wrap(err, "deleting reminder")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Calendar & dashboard

func (api *particularApi) calendar(ctx echo.Context) error {
	filter, err := api.scopeFilter(ctx, nil)
	if err != nil {
		return err
	}

	events, err := api.svc.Events(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "expanding calendar events")
	}
	schedule.SortChronological(events)
	return ctx.JSON(http.StatusOK, CalendarResponse{
		Events: events,
		ByDay:  schedule.GroupByDay(events),
	})
}

func (api *particularApi) dashboard(ctx echo.Context) error {
	filter, err := api.scopeFilter(ctx, nil)
	if err != nil {
		return err
	}
	c := ctx.Request().Context()

	summary, err := api.svc.Summary(c, filter, time.Now())
	if err != nil {
		return errors.Wrap(err, "summarizing particulars")
	}
	particulars, err := api.svc.Query(c, filter, nil)
	if err != nil {
		return errors.Wrap(err, "querying particulars")
	}

	usr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	return ctx.JSON(http.StatusOK, DashboardResponse{
		Variant:     usr.Variant(),
		Summary:     summary,
		Particulars: particulars,
	})
}

// objectMiddleware loads the particular at :id into the context when the
// user may access it; 404 otherwise so existence is not leaked.
func (api *particularApi) objectMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			p, err := api.accessibleParticular(ctx, ctx.Param("id"))
			if err != nil {
				return err
			}
			ctx.Set("object", p)
			return next(ctx)
		}
	}
}

func (api *particularApi) accessibleParticular(ctx echo.Context, id string) (particular.Particular, error) {
	usr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return particular.Particular{}, errors.Wrap(err, "getting context user")
	}

	p, err := api.svc.GetByID(ctx.Request().Context(), id)
	if err != nil {
		if errors.Cause(err) == particular.ErrNotFound {
			return particular.Particular{}, errHttpNotFound
		}
		return particular.Particular{}, errors.Wrap(err, "finding particular by ID")
	}

	orgAdmin := usr.Variant() == user.VariantEnterpriseAdmin && usr.OrgID != "" && p.OrgID == usr.OrgID
	if !p.OwnedBy(usr.ID) && !orgAdmin {
		return particular.Particular{}, errHttpNotFound
	}
	return p, nil
}

func (api *particularApi) accessibleReminder(ctx echo.Context) (particular.Reminder, error) {
	r, err := api.svc.GetReminderByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == particular.ErrReminderNotFound {
			return particular.Reminder{}, errHttpNotFound
		}
		return particular.Reminder{}, errors.Wrap(err, "finding reminder by ID")
	}
	if _, err = api.accessibleParticular(ctx, r.ParticularID); err != nil {
		return particular.Reminder{}, err
	}
	return r, nil
}

type (
	ParticularResponse struct {
		particular.Particular
		Status schedule.Status `json:"status"`
	}

	AddOwnerRequest struct {
		UserID string `json:"user_id" validate:"required"`
	}

	CalendarResponse struct {
		Events []schedule.Event            `json:"events"`
		ByDay  map[string][]schedule.Event `json:"by_day"`
	}

	DashboardResponse struct {
		Variant     user.Variant            `json:"variant"`
		Summary     schedule.Summary        `json:"summary"`
		Particulars []particular.Particular `json:"particulars"`
	}
)
