package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	reimbursementdomain "github.com/smallbiznis/corpsledger/internal/reimbursement/domain"
)

type submitReimbursementRequest struct {
	Items    []reimbursementdomain.ItemInput `json:"items"`
	BankName string                          `json:"bank_name"`
	IBAN     string                          `json:"iban"`
}

func (s *Server) SubmitReimbursement(c *gin.Context) {
	var req submitReimbursementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	result, err := s.reimbursementSvc.Submit(c.Request.Context(), reimbursementdomain.SubmitRequest{
		MemberEmail: actor(c),
		Items:       req.Items,
		BankName:    req.BankName,
		IBAN:        req.IBAN,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": result})
}

func (s *Server) ListMyReimbursements(c *gin.Context) {
	s.listReimbursements(c, actor(c))
}

func (s *Server) ListMemberReimbursements(c *gin.Context) {
	s.listReimbursements(c, c.Param("email"))
}

func (s *Server) listReimbursements(c *gin.Context, email string) {
	items, err := s.reimbursementSvc.ListByMember(c.Request.Context(), email)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": items})
}

func (s *Server) ListPendingReimbursements(c *gin.Context) {
	items, err := s.reimbursementSvc.ListPending(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": items})
}

func (s *Server) ApproveReimbursement(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	item, err := s.reimbursementSvc.Approve(c.Request.Context(), id, actor(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": item})
}

type bankDetailsRequest struct {
	BankName string `json:"bank_name"`
	IBAN     string `json:"iban"`
}

func (s *Server) SaveMyBankDetails(c *gin.Context) {
	var req bankDetailsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	details, err := s.reimbursementSvc.SaveBankDetails(c.Request.Context(), actor(c), req.BankName, req.IBAN)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": details.Masked()})
}

// GetMyBankDetails shows the member a masked IBAN.
func (s *Server) GetMyBankDetails(c *gin.Context) {
	details, err := s.reimbursementSvc.GetBankDetails(c.Request.Context(), actor(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": details.Masked()})
}

func (s *Server) GetMemberBankDetails(c *gin.Context) {
	details, err := s.reimbursementSvc.GetBankDetails(c.Request.Context(), c.Param("email"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": details})
}
