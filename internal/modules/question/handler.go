package question

import (
	"context"
	"errors"

	"github.com/eduflash/core/internal/models"
	"github.com/eduflash/core/internal/modules/explain"
	"github.com/eduflash/core/internal/pkg/response"
	"github.com/gin-gonic/gin"
)

// questionView is the question as served to players: no correct answer, no
// explanation.
type questionView struct {
	ID       string   `json:"id"`
	Topic    string   `json:"topic"`
	Question string   `json:"question"`
	Options  []string `json:"options"`
}

type checkAnswerDTO struct {
	QuestionID     string `json:"questionId" binding:"required"`
	SelectedAnswer *int   `json:"selectedAnswer" binding:"required"`
}

type checkAnswerResult struct {
	Correct       bool   `json:"correct"`
	CorrectAnswer int    `json:"correctAnswer"`
	Explanation   string `json:"explanation"`
}

type Handler struct {
	svc        *Service
	explainSvc *explain.Service
}

func NewHandler(svc *Service, explainSvc *explain.Service) *Handler {
	return &Handler{svc: svc, explainSvc: explainSvc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	grp := rg.Group("/questions")
	grp.GET("", h.random)
	grp.GET("/counts", h.counts)
	grp.POST("/check", h.checkAnswer)

	authed := grp.Group("", authMW)
	authed.GET("/all", h.list)
	authed.POST("", h.create)
	authed.PATCH("/:id", h.update)
	authed.DELETE("/:id", h.delete)
}

func (h *Handler) random(c *gin.Context) {
	topic := c.DefaultQuery("topic", "general")

	q, err := h.svc.Random(c.Request.Context(), topic)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidTopic):
			response.BadRequest(c, err.Error())
		case errors.Is(err, ErrNoQuestions):
			response.NotFoundMsg(c, err.Error())
		default:
			response.InternalError(c, err)
		}
		return
	}
	response.OK(c, newQuestionView(q))
}

func (h *Handler) checkAnswer(c *gin.Context) {
	var dto checkAnswerDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, "missing questionId or selectedAnswer")
		return
	}
	if *dto.SelectedAnswer < -1 {
		response.BadRequest(c, "invalid selectedAnswer format")
		return
	}

	q, err := h.svc.GetByID(c.Request.Context(), dto.QuestionID)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	if q == nil {
		response.NotFoundMsg(c, "question not found")
		return
	}

	correctText := ""
	if q.CorrectAnswer >= 0 && q.CorrectAnswer < len(q.Options) {
		correctText = q.Options[q.CorrectAnswer]
	}

	// The resolver absorbs provider failures and always yields text, so a
	// third-party outage cannot fail answer checking. Background context:
	// an aborted client request does not cancel an in-flight provider call;
	// the call runs to its own timeout and the result is cached.
	explanation := h.explainSvc.Resolve(context.Background(), q.ID, explain.Request{
		Question:      q.Question,
		CorrectAnswer: correctText,
	}, q.Explanation)

	response.OK(c, checkAnswerResult{
		Correct:       q.CorrectAnswer == *dto.SelectedAnswer,
		CorrectAnswer: q.CorrectAnswer,
		Explanation:   explanation,
	})
}

func (h *Handler) counts(c *gin.Context) {
	counts, err := h.svc.Counts(c.Request.Context())
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, counts)
}

func (h *Handler) list(c *gin.Context) {
	qs, err := h.svc.List(c.Request.Context(), c.Query("topic"))
	if err != nil {
		if errors.Is(err, ErrInvalidTopic) {
			response.BadRequest(c, err.Error())
			return
		}
		response.InternalError(c, err)
		return
	}
	response.OK(c, qs)
}

func (h *Handler) create(c *gin.Context) {
	var dto CreateQuestionDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	q, err := h.svc.Create(c.Request.Context(), &dto)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	response.Created(c, q)
}

func (h *Handler) update(c *gin.Context) {
	var dto UpdateQuestionDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	q, err := h.svc.Update(c.Request.Context(), c.Param("id"), &dto)
	if err != nil {
		if errors.Is(err, ErrInvalidTopic) {
			response.BadRequest(c, err.Error())
			return
		}
		response.InternalError(c, err)
		return
	}
	if q == nil {
		response.NotFound(c)
		return
	}
	response.OK(c, q)
}

func (h *Handler) delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.InternalError(c, err)
		return
	}
	response.NoContent(c)
}

func newQuestionView(q *models.QuestionModel) questionView {
	return questionView{
		ID:       q.ID,
		Topic:    q.Topic,
		Question: q.Question,
		Options:  q.Options,
	}
}
