package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/reminderx/backend/core/user"
)

// variantMiddleware restricts an endpoint to the given account variants.
// The variant is resolved from the stored user, not the token claims, so
// that a plan change (creating or joining an organization) takes effect
// without re-authenticating.
func variantMiddleware(svc user.Service, variants ...user.Variant) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			usr, err := getContextUser(ctx, svc)
			if err != nil {
				return errors.Wrap(err, "getting context user")
			}
			variant := usr.Variant()
			for _, v := range variants {
				if variant == v {
					return next(ctx)
				}
			}
			return errHttpForbidden
		}
	}
}
