package httpserver

import (
	"net/http"

	"apparel-storefront/internal/domain"
	"apparel-storefront/internal/service/auth"
	"github.com/gin-gonic/gin"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerRequest struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
	Name            string `json:"name"`
}

type sessionResponse struct {
	Authenticated bool         `json:"authenticated"`
	User          *domain.User `json:"user"`
}

func sessionView(s *auth.Session) sessionResponse {
	u, ok := s.User()
	if !ok {
		return sessionResponse{}
	}
	return sessionResponse{Authenticated: true, User: &u}
}

func sessionHandler(c *gin.Context) {
	c.JSON(http.StatusOK, sessionView(currentVisitor(c).Auth))
}

func loginHandler(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	s := currentVisitor(c).Auth
	if _, err := s.Login(c.Request.Context(), req.Email, req.Password); err != nil {
		respondError(c, statusFor(err), auth.UserMessage(err, auth.LoginFailed))
		return
	}
	c.JSON(http.StatusOK, sessionView(s))
}

func registerHandler(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	s := currentVisitor(c).Auth
	if _, err := s.Register(c.Request.Context(), req.Email, req.Password, req.ConfirmPassword, req.Name); err != nil {
		respondError(c, statusFor(err), auth.UserMessage(err, auth.RegisterFailed))
		return
	}
	c.JSON(http.StatusCreated, sessionView(s))
}

func logoutHandler(c *gin.Context) {
	s := currentVisitor(c).Auth
	if err := s.Logout(c.Request.Context()); err != nil {
		respondError(c, http.StatusInternalServerError, "failed to sign out")
		return
	}
	c.JSON(http.StatusOK, sessionView(s))
}
