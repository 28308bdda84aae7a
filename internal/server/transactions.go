package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/corpsledger/internal/calendar"
	"github.com/smallbiznis/corpsledger/internal/money"
	txdomain "github.com/smallbiznis/corpsledger/internal/transaction/domain"
	"github.com/smallbiznis/corpsledger/pkg/db/pagination"
)

type createTransactionRequest struct {
	Date        string `json:"date"`
	Description string `json:"description"`
	Amount      any    `json:"amount"`
	Type        string `json:"type"`
}

func (s *Server) CreateTransaction(c *gin.Context) {
	var req createTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	date, err := calendar.ParseISO(req.Date)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	amount, err := money.ParseStrict(req.Amount)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	txType, err := txdomain.ParseType(req.Type)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.transactionSvc.Create(c.Request.Context(), txdomain.CreateRequest{
		MemberEmail: c.Param("email"),
		Date:        date,
		Description: strings.TrimSpace(req.Description),
		Amount:      amount,
		Type:        txType,
		Actor:       actor(c),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

type updateTransactionRequest struct {
	Date        *string `json:"date"`
	Description *string `json:"description"`
	Amount      any     `json:"amount"`
	Note        string  `json:"note"`
}

func (s *Server) UpdateTransaction(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req updateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	in := txdomain.UpdateRequest{
		ID:          id,
		MemberEmail: c.Param("email"),
		Description: req.Description,
		Actor:       actor(c),
		Note:        strings.TrimSpace(req.Note),
	}
	if req.Date != nil {
		var date time.Time
		if date, err = calendar.ParseISO(*req.Date); err != nil {
			AbortWithError(c, err)
			return
		}
		in.Date = &date
	}
	if req.Amount != nil {
		amount, err := money.ParseStrict(req.Amount)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		in.Amount = &amount
	}

	resp, err := s.transactionSvc.Update(c.Request.Context(), in)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteTransaction(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	removed, err := s.transactionSvc.Delete(c.Request.Context(), id, c.Param("email"), actor(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if !removed {
		AbortWithError(c, txdomain.ErrNotFound)
		return
	}

	c.Status(http.StatusNoContent)
}

func (s *Server) GetTransactionByID(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.transactionSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListMemberTransactions(c *gin.Context) {
	var query struct {
		pagination.Pagination
		Type string `form:"type"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	req := txdomain.ListRequest{
		Pagination:  query.Pagination,
		MemberEmail: c.Param("email"),
	}
	if strings.TrimSpace(query.Type) != "" {
		txType, err := txdomain.ParseType(query.Type)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		req.Type = txType
	}

	resp, err := s.transactionSvc.ListByMemberPage(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListTransactionsByType(c *gin.Context) {
	txType, err := txdomain.ParseType(c.Query("type"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.transactionSvc.ListByType(c.Request.Context(), txType)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
