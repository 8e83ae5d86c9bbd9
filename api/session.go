package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"kairos/auth"
	"kairos/ent"
	"kairos/store"
)

type credentials struct {
	Username        string `json:"username"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

func (s *Server) requireSession(c *fiber.Ctx) error {
	token := c.Cookies(s.cfg.CookieName)
	if token == "" {
		h := c.Get(fiber.HeaderAuthorization)
		if strings.HasPrefix(h, "Bearer ") {
			token = strings.TrimPrefix(h, "Bearer ")
		}
	}
	if token == "" {
		return fiber.NewError(http.StatusUnauthorized, "authentication required")
	}

	claims, err := s.tokens.Parse(token)
	if errors.Is(err, auth.ErrExpiredToken) {
		return fiber.NewError(http.StatusUnauthorized, "session expired")
	}
	if err != nil {
		return fiber.NewError(http.StatusUnauthorized, "invalid session")
	}

	c.Locals(localClaims, claims)

	return c.Next()
}

func sessionClaims(c *fiber.Ctx) *auth.Claims {
	claims, _ := c.Locals(localClaims).(*auth.Claims)
	return claims
}

func (s *Server) setSession(c *fiber.Ctx, token string, expires time.Time) {
	c.Cookie(&fiber.Cookie{
		Name:     s.cfg.CookieName,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HTTPOnly: true,
		Secure:   s.cfg.SecureCookie,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

func (s *Server) login(c *fiber.Ctx) error {
	var in credentials
	err := decode(c, &in)
	if err != nil {
		return err
	}

	u, err := s.store.UserByUsername(c.UserContext(), clean(in.Username))
	if errors.Is(err, store.ErrNotFound) {
		return fiber.NewError(http.StatusUnauthorized, "invalid username or password")
	}
	if err != nil {
		return err
	}

	if !s.hasher.Verify(in.Password, u.PasswordHash) {
		s.requestLog(c).WithField("username", u.Username).Warn("failed login")
		return fiber.NewError(http.StatusUnauthorized, "invalid username or password")
	}

	token, expires, err := s.tokens.Issue(u.ID, u.Username)
	if err != nil {
		return err
	}

	s.setSession(c, token, expires)

	return c.JSON(fiber.Map{
		"success":    true,
		"token":      token,
		"expires_at": expires,
		"user":       u,
	})
}

func (s *Server) logout(c *fiber.Ctx) error {
	s.setSession(c, "", time.Unix(0, 0))

	return c.JSON(fiber.Map{"success": true, "message": "logged out"})
}

func (s *Server) signup(c *fiber.Ctx) error {
	var in credentials
	err := decode(c, &in)
	if err != nil {
		return err
	}

	in.Username = clean(in.Username)

	err = store.ValidateCredentials(in.Username, in.Password)
	if err != nil {
		return err
	}
	if in.Password != in.ConfirmPassword {
		return &store.ValidationError{Field: "confirm_password", Message: "passwords do not match"}
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return err
	}

	u, err := s.store.CreateUser(c.UserContext(), in.Username, hash)
	if err != nil {
		return err
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "account created",
		"user":    u,
	})
}

func (s *Server) me(c *fiber.Ctx) error {
	claims := sessionClaims(c)
	if claims == nil {
		return fiber.NewError(http.StatusUnauthorized, "authentication required")
	}

	u, err := s.store.UserByID(c.UserContext(), claims.UserID)
	if errors.Is(err, store.ErrNotFound) {
		return fiber.NewError(http.StatusUnauthorized, "account no longer exists")
	}
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "user": ent.User{ID: u.ID, Username: u.Username}})
}
