package question

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/eduflash/core/internal/models"
	"gorm.io/gorm"
)

// ValidTopics are the question bank partitions.
var ValidTopics = []string{"general", "math", "science"}

var (
	ErrInvalidTopic = errors.New("invalid topic")
	ErrNoQuestions  = errors.New("no questions found for topic")
)

func IsValidTopic(topic string) bool {
	for _, t := range ValidTopics {
		if t == topic {
			return true
		}
	}
	return false
}

type CreateQuestionDTO struct {
	Topic         string   `json:"topic" binding:"required"`
	Question      string   `json:"question" binding:"required"`
	Options       []string `json:"options" binding:"required,min=2"`
	CorrectAnswer *int     `json:"correct_answer" binding:"required"`
	Explanation   string   `json:"explanation"`
}

type UpdateQuestionDTO struct {
	Topic         *string  `json:"topic"`
	Question      *string  `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer *int     `json:"correct_answer"`
	Explanation   *string  `json:"explanation"`
}

type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// Random picks one question for the topic, uniformly at random.
func (s *Service) Random(ctx context.Context, topic string) (*models.QuestionModel, error) {
	if !IsValidTopic(topic) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidTopic, topic)
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.QuestionModel{}).
		Where("topic = ?", topic).Count(&count).Error; err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoQuestions, topic)
	}

	var q models.QuestionModel
	err := s.db.WithContext(ctx).
		Where("topic = ?", topic).
		Offset(rand.IntN(int(count))).
		Limit(1).
		Find(&q).Error
	if err != nil {
		return nil, err
	}
	if q.ID == "" {
		// A concurrent delete shrank the table under us.
		return nil, fmt.Errorf("%w: %s", ErrNoQuestions, topic)
	}
	return &q, nil
}

// GetByID returns a question or (nil, nil) if it does not exist.
func (s *Service) GetByID(ctx context.Context, id string) (*models.QuestionModel, error) {
	var q models.QuestionModel
	if err := s.db.WithContext(ctx).First(&q, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &q, nil
}

// Counts returns the number of questions per topic.
func (s *Service) Counts(ctx context.Context) (map[string]int64, error) {
	counts := make(map[string]int64, len(ValidTopics))
	for _, topic := range ValidTopics {
		counts[topic] = 0
	}

	var rows []struct {
		Topic string
		N     int64
	}
	err := s.db.WithContext(ctx).Model(&models.QuestionModel{}).
		Select("topic, COUNT(*) as n").
		Group("topic").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		counts[row.Topic] = row.N
	}
	return counts, nil
}

func (s *Service) List(ctx context.Context, topic string) ([]models.QuestionModel, error) {
	var qs []models.QuestionModel
	tx := s.db.WithContext(ctx).Order("created_at ASC")
	if topic != "" {
		if !IsValidTopic(topic) {
			return nil, fmt.Errorf("%w: %s", ErrInvalidTopic, topic)
		}
		tx = tx.Where("topic = ?", topic)
	}
	return qs, tx.Find(&qs).Error
}

func (s *Service) Create(ctx context.Context, dto *CreateQuestionDTO) (*models.QuestionModel, error) {
	if !IsValidTopic(dto.Topic) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidTopic, dto.Topic)
	}
	if *dto.CorrectAnswer < 0 || *dto.CorrectAnswer >= len(dto.Options) {
		return nil, errors.New("correct_answer must index into options")
	}

	q := models.QuestionModel{
		Topic:         dto.Topic,
		Question:      dto.Question,
		Options:       dto.Options,
		CorrectAnswer: *dto.CorrectAnswer,
		Explanation:   dto.Explanation,
	}
	return &q, s.db.WithContext(ctx).Create(&q).Error
}

func (s *Service) Update(ctx context.Context, id string, dto *UpdateQuestionDTO) (*models.QuestionModel, error) {
	q, err := s.GetByID(ctx, id)
	if err != nil || q == nil {
		return q, err
	}

	updates := map[string]interface{}{}
	if dto.Topic != nil {
		if !IsValidTopic(*dto.Topic) {
			return nil, fmt.Errorf("%w: %s", ErrInvalidTopic, *dto.Topic)
		}
		updates["topic"] = *dto.Topic
	}
	if dto.Question != nil {
		updates["question"] = *dto.Question
	}
	if dto.Options != nil {
		updates["options"] = models.StringArray(dto.Options)
	}
	if dto.CorrectAnswer != nil {
		updates["correct_answer"] = *dto.CorrectAnswer
	}
	if dto.Explanation != nil {
		updates["explanation"] = *dto.Explanation
	}
	if len(updates) == 0 {
		return q, nil
	}
	return q, s.db.WithContext(ctx).Model(q).Updates(updates).Error
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Delete(&models.QuestionModel{}, "id = ?", id).Error
}
