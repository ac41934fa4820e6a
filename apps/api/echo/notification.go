package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/reminderx/backend/core/notification"
	"github.com/reminderx/backend/core/user"
)

type notificationApi struct {
	svc    notification.Service
	usrSvc user.Service
}

func registerNotificationAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps *ServerDeps) {
	api := notificationApi{
		svc:    deps.NotifSvc,
		usrSvc: deps.UserSvc,
	}

	ng := g.Group("/notifications", jwt)
	ng.GET("", api.query)
	ng.PUT("/:id/read", api.markRead)
	ng.DELETE("/:id", api.destroy)
}

func (api *notificationApi) query(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	notifications, err := api.svc.Query(ctx.Request().Context(), usr.ID)
	if err != nil {
		return errors.Wrap(err, "querying notifications")
	}
	return ctx.JSON(http.StatusOK, notifications)
}

// object loads the notification at :id and checks it belongs to the
// context user.
func (api *notificationApi) object(ctx echo.Context) (notification.Notification, error) {
	usr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return notification.Notification{}, errors.Wrap(err, "getting context user")
	}

	notifications, err := api.svc.Query(ctx.Request().Context(), usr.ID)
	if err != nil {
		return notification.Notification{}, errors.Wrap(err, "querying notifications")
	}
	for _, n := range notifications {
		if n.ID == ctx.Param("id") {
			return n, nil
		}
	}
	return notification.Notification{}, errHttpNotFound
}

func (api *notificationApi) markRead(ctx echo.Context) error {
	n, err := api.object(ctx)
	if err != nil {
		return err
	}

	n, err = api.svc.MarkRead(ctx.Request().Context(), n.ID)
	if err != nil {
		return errors.Wrap(err, "marking notification as read")
	}
	return ctx.JSON(http.StatusOK, n)
}

func (api *notificationApi) destroy(ctx echo.Context) error {
	n, err := api.object(ctx)
	if err != nil {
		return err
	}
	if err := api.svc.Delete(ctx.Request().Context(), n.ID); err != nil {
		return errors.Wrap(err, "deleting notification")
	}
	return ctx.NoContent(http.StatusNoContent)
}
