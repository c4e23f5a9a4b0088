package http

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/labstack/echo/v4"

	"ticketmarket/auth"
	"ticketmarket/entity"
)

const currentUserKey = "current_user"

// identityGate rejects requests without a valid bearer credential and puts the verified
// email into the request context.
func (s *Server) identityGate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		token, err := auth.BearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
		if err != nil {
			return err
		}

		ctx := c.Request().Context()
		email, err := s.verifier.Verify(ctx, token)
		if err != nil {
			return err
		}

		ctx = auth.ContextWithIdentity(ctx, email)
		ctx = log.ToContext(ctx, log.FromContext(ctx).WithField("caller_email", email))
		c.SetRequest(c.Request().WithContext(ctx))

		return next(c)
	}
}

// requireRole must run after identityGate. The stored role of the caller is checked,
// never a claimed one.
func (s *Server) requireRole(roles ...entity.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			email, err := identity(c)
			if err != nil {
				return err
			}

			user, err := s.usersRepo.FindByEmail(c.Request().Context(), email)
			if errors.Is(err, entity.ErrNotFound) {
				return fmt.Errorf("%w: unknown user %s", entity.ErrForbidden, email)
			}
			if err != nil {
				return err
			}

			if !user.HasRole(roles...) {
				return fmt.Errorf("%w: role %s is not allowed", entity.ErrForbidden, user.Role)
			}

			c.Set(currentUserKey, user)

			return next(c)
		}
	}
}

// requireSelf allows only callers whose verified email equals the :email path parameter.
func requireSelf(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		email, err := identity(c)
		if err != nil {
			return err
		}

		pathEmail, err := emailParam(c)
		if err != nil {
			return err
		}

		if pathEmail != email {
			return fmt.Errorf("%w: resources of another user", entity.ErrForbidden)
		}

		return next(c)
	}
}

// emailParam returns the normalized :email path parameter. Clients may percent-encode it,
// echo keeps such a segment escaped.
func emailParam(c echo.Context) (string, error) {
	raw, err := url.PathUnescape(c.Param("email"))
	if err != nil {
		return "", fmt.Errorf("%w: malformed email in path: %w", entity.ErrBadRequest, err)
	}

	email := entity.NormalizeEmail(raw)
	if email == "" {
		return "", fmt.Errorf("%w: email required", entity.ErrBadRequest)
	}

	return email, nil
}

func identity(c echo.Context) (string, error) {
	email, ok := auth.IdentityFromContext(c.Request().Context())
	if !ok {
		return "", entity.ErrUnauthorized
	}
	return email, nil
}

func currentUser(c echo.Context) (entity.User, error) {
	user, ok := c.Get(currentUserKey).(entity.User)
	if !ok {
		return entity.User{}, errors.New("current user is not loaded, requireRole middleware missing")
	}
	return user, nil
}
