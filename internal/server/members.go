package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/corpsledger/internal/calendar"
	memberdomain "github.com/smallbiznis/corpsledger/internal/member/domain"
	"github.com/smallbiznis/corpsledger/internal/money"
)

type saveMemberRequest struct {
	Email        string  `json:"email"`
	LastName     string  `json:"last_name"`
	FirstName    *string `json:"first_name"`
	StartBalance any     `json:"start_balance"`
	CreatedAt    *string `json:"created_at"`
	Title        *string `json:"title"`
	Resident     *bool   `json:"resident"`
}

func (s *Server) ListMembers(c *gin.Context) {
	members, err := s.memberSvc.LoadAllMembers(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	out := make([]memberView, 0, len(members))
	for _, m := range members {
		out = append(out, newMemberView(m, s.clock.Now(), false))
	}
	c.JSON(http.StatusOK, gin.H{"data": out})
}

func (s *Server) GetMember(c *gin.Context) {
	m, err := s.memberSvc.LoadMember(c.Request.Context(), c.Param("email"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": newMemberView(m, s.clock.Now(), true)})
}

func (s *Server) SaveMember(c *gin.Context) {
	var req saveMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	in := memberdomain.SaveMemberRequest{
		Email:     req.Email,
		LastName:  strings.TrimSpace(req.LastName),
		FirstName: req.FirstName,
		Resident:  req.Resident,
		Actor:     actor(c),
	}
	if req.StartBalance != nil {
		amount, err := money.ParseStrict(req.StartBalance)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		in.StartBalance = &amount
	}
	if req.CreatedAt != nil {
		createdAt, err := calendar.ParseISO(*req.CreatedAt)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		in.CreatedAt = &createdAt
	}
	if req.Title != nil {
		title, err := memberdomain.ParseTitle(*req.Title)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		in.Title = &title
	}

	m, created, err := s.memberSvc.SaveMember(c.Request.Context(), in)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, gin.H{"data": newMemberView(m, s.clock.Now(), true)})
}

type changeTitleRequest struct {
	Title string `json:"title"`
}

func (s *Server) ChangeTitle(c *gin.Context) {
	var req changeTitleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	title, err := memberdomain.ParseTitle(req.Title)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	changed, err := s.memberSvc.ChangeTitle(c.Request.Context(), c.Param("email"), title, actor(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": gin.H{"changed": changed, "title": title}})
}

type changeResidencyRequest struct {
	Resident *bool `json:"resident"`
}

func (s *Server) ChangeResidency(c *gin.Context) {
	var req changeResidencyRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Resident == nil {
		AbortWithError(c, newValidationError("resident", "required", "resident is required"))
		return
	}

	changed, err := s.memberSvc.ChangeResidency(c.Request.Context(), c.Param("email"), *req.Resident, actor(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": gin.H{"changed": changed, "resident": *req.Resident}})
}

type bulkChangeTitleRequest struct {
	Emails []string `json:"emails"`
	Title  string   `json:"title"`
}

func (s *Server) BulkChangeTitle(c *gin.Context) {
	var req bulkChangeTitleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	if len(req.Emails) == 0 {
		AbortWithError(c, newValidationError("emails", "required", "emails are required"))
		return
	}
	title, err := memberdomain.ParseTitle(req.Title)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	result := s.memberSvc.BulkChangeTitle(c.Request.Context(), req.Emails, title, actor(c))
	c.JSON(http.StatusOK, gin.H{"data": result})
}

func (s *Server) GetBalanceAsOf(c *gin.Context) {
	asOf, err := parseOptionalDate(c.Query("as_of"), s.clock.Now())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	balance, err := s.memberSvc.BalanceAsOf(c.Request.Context(), c.Param("email"), asOf)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": gin.H{
		"email":   memberdomain.NormalizeEmail(c.Param("email")),
		"as_of":   calendar.FormatISO(asOf),
		"balance": balance,
	}})
}
