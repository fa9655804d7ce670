package handlers

import (
	"net/http"
	"time"

	"github.com/billfold/billfold/internal/core/user"
	"github.com/golang-jwt/jwt/v5"
)

const tokenTTL = 24 * time.Hour

type authClaims struct {
	UserID int `json:"uid"`
	jwt.RegisteredClaims
}

func (s *Server) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req registerReq
	if !s.decode(ctx, w, r, &req) {
		return
	}

	u, err := s.users.Create(ctx, user.NewUser{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		s.respondError(ctx, w, err)
		return
	}

	token, err := s.token(u)
	if err != nil {
		s.respondError(ctx, w, err)
		return
	}

	s.respond(ctx, w, http.StatusCreated, tokenResp{Token: token, User: toUserResp(u)})
}

func (s *Server) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req loginReq
	if !s.decode(ctx, w, r, &req) {
		return
	}

	u, err := s.users.Authenticate(ctx, req.Email, req.Password)
	if err != nil {
		s.respondError(ctx, w, err)
		return
	}

	token, err := s.token(u)
	if err != nil {
		s.respondError(ctx, w, err)
		return
	}

	s.respond(ctx, w, http.StatusOK, tokenResp{Token: token, User: toUserResp(u)})
}

func (s *Server) token(u user.User) (string, error) {
	now := time.Now().UTC()
	claims := authClaims{
		UserID: u.ID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.Email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}
