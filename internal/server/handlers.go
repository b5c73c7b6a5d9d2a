package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/minamikusatsuhifuka-maker/keiridocs-app/internal/documents"
	"github.com/minamikusatsuhifuka-maker/keiridocs-app/internal/mailintake"
	"github.com/minamikusatsuhifuka-maker/keiridocs-app/internal/models"
)

type registerRequest struct {
	FileName    string `json:"fileName" binding:"required"`
	Data        []byte `json:"data"`
	MIMEType    string `json:"mimeType"`
	InputMethod string `json:"inputMethod" binding:"required"`
}

func (s *Server) handleRegisterDocument(c *gin.Context) {
	var req registerRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, badRequest)
		return
	}

	doc, err := s.c.Documents().Register(c.Request.Context(), owner(c), documents.RegisterInput{
		FileName:    req.FileName,
		Data:        req.Data,
		MIMEType:    req.MIMEType,
		InputMethod: req.InputMethod,
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, doc)
}

func (s *Server) handleListDocuments(c *gin.Context) {
	docs, err := s.c.Documents().List(c.Request.Context(), owner(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"documents": docs})
}

type updateRequest struct {
	Status      *string `json:"status"`
	Type        *string `json:"type"`
	VendorName  *string `json:"vendorName"`
	Description *string `json:"description"`
	Amount      *string `json:"amount"`
	IssueDate   *string `json:"issueDate"`
	DueDate     *string `json:"dueDate"`
}

func (s *Server) handleUpdateDocument(c *gin.Context) {
	var req updateRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, badRequest)
		return
	}

	changes := documents.UpdateChanges{
		Status:      req.Status,
		Type:        req.Type,
		VendorName:  req.VendorName,
		Description: req.Description,
	}
	if req.Amount != nil {
		amount, err := decimal.NewFromString(*req.Amount)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid amount"})
			return
		}
		changes.Amount = &amount
	}
	var err error
	if changes.IssueDate, err = parseDateField(req.IssueDate); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid issueDate"})
		return
	}
	if changes.DueDate, err = parseDateField(req.DueDate); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid dueDate"})
		return
	}

	doc, err := s.c.Documents().Update(c.Request.Context(), owner(c), c.Param("id"), changes)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, doc)
}

func (s *Server) handleDeleteDocument(c *gin.Context) {
	if err := s.c.Documents().Delete(c.Request.Context(), owner(c), c.Param("id")); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleListPendingMail(c *gin.Context) {
	items, err := s.c.MailIntake().ListPending(c.Request.Context(), owner(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

type approveRequest struct {
	IDs          []string `json:"ids" binding:"required"`
	OverrideType string   `json:"overrideType"`
	Reanalysis   *struct {
		Data     []byte `json:"data"`
		MIMEType string `json:"mimeType"`
	} `json:"reanalysis"`
}

func (s *Server) handleApproveMail(c *gin.Context) {
	var req approveRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, badRequest)
		return
	}

	opts := mailintake.ApproveOptions{OverrideType: req.OverrideType}
	if req.Reanalysis != nil {
		opts.Reanalysis = &mailintake.Reanalysis{
			Data:     req.Reanalysis.Data,
			MIMEType: req.Reanalysis.MIMEType,
		}
	}
	result, err := s.c.MailIntake().Approve(c.Request.Context(), owner(c), req.IDs, opts)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type rejectRequest struct {
	IDs []string `json:"ids" binding:"required"`
}

func (s *Server) handleRejectMail(c *gin.Context) {
	var req rejectRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, badRequest)
		return
	}
	result, err := s.c.MailIntake().Reject(c.Request.Context(), owner(c), req.IDs)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type exportRequest struct {
	TargetMonth string   `json:"targetMonth" binding:"required"`
	Types       []string `json:"types"`
}

func (s *Server) handleExport(c *gin.Context) {
	var req exportRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, badRequest)
		return
	}
	summary, err := s.c.Export().Build(c.Request.Context(), owner(c), req.TargetMonth, req.Types)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (s *Server) handleListRules(c *gin.Context) {
	rules, err := s.c.Store().ListRules(c.Request.Context(), owner(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rules": rules})
}

type ruleRequest struct {
	Keyword    string `json:"keyword" binding:"required"`
	TargetType string `json:"targetType" binding:"required"`
	Priority   int    `json:"priority"`
	Active     *bool  `json:"active"`
}

func (s *Server) handleCreateRule(c *gin.Context) {
	var req ruleRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, badRequest)
		return
	}
	rule := models.ClassificationRule{
		OwnerID:    owner(c),
		Keyword:    req.Keyword,
		TargetType: req.TargetType,
		Priority:   req.Priority,
		Active:     true,
	}
	if req.Active != nil {
		rule.Active = *req.Active
	}
	if err := s.c.Store().SaveRule(c.Request.Context(), &rule); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, rule)
}

func (s *Server) handleDeleteRule(c *gin.Context) {
	if err := s.c.Store().DeleteRule(c.Request.Context(), owner(c), c.Param("id")); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleListTypes(c *gin.Context) {
	defs, err := s.c.Store().ListTypeDefinitions(c.Request.Context(), owner(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"types": defs})
}

func parseDateField(s *string) (*time.Time, error) {
	if s == nil {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", *s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
