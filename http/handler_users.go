package http

import (
	"errors"
	"net/http"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/labstack/echo/v4"

	"ticketmarket/entity"
)

type postUserRequest struct {
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	PhotoURL    string `json:"photoURL"`
}

type postUserResponse struct {
	Message string      `json:"message"`
	User    entity.User `json:"user"`
}

type userRoleResponse struct {
	Role entity.Role `json:"role"`
}

type patchUserRoleRequest struct {
	Role string `json:"role"`
}

// PostUsers registers a login. The first login creates the user, later ones only
// refresh lastLoggedIn.
func (s *Server) PostUsers(c echo.Context) error {
	var request postUserRequest
	if err := c.Bind(&request); err != nil {
		return err
	}

	user, err := entity.NewUser(request.Email, entity.UserProfile{
		DisplayName: request.DisplayName,
		PhotoURL:    request.PhotoURL,
	}, s.now())
	if err != nil {
		return err
	}

	user, created, err := s.usersRepo.UpsertOnLogin(c.Request().Context(), user)
	if err != nil {
		return err
	}

	if !created {
		return c.JSON(http.StatusOK, postUserResponse{Message: "User already exists", User: user})
	}

	log.FromContext(c.Request().Context()).WithField("email", user.Email).Info("User created")

	return c.JSON(http.StatusCreated, postUserResponse{Message: "User created", User: user})
}

func (s *Server) GetUserRole(c echo.Context) error {
	email, err := emailParam(c)
	if err != nil {
		return err
	}

	user, err := s.usersRepo.FindByEmail(c.Request().Context(), email)
	if errors.Is(err, entity.ErrNotFound) {
		return c.JSON(http.StatusOK, userRoleResponse{Role: entity.RoleUser})
	}
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, userRoleResponse{Role: user.Role})
}

func (s *Server) GetUserProfile(c echo.Context) error {
	email, err := emailParam(c)
	if err != nil {
		return err
	}

	user, err := s.usersRepo.FindByEmail(c.Request().Context(), email)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, user)
}

func (s *Server) PatchUserRole(c echo.Context) error {
	var request patchUserRoleRequest
	if err := c.Bind(&request); err != nil {
		return err
	}

	role, err := entity.ParseRole(request.Role)
	if err != nil {
		return err
	}

	user, err := s.usersRepo.UpdateRole(c.Request().Context(), c.Param("id"), role)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, user)
}
