package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/sirrryasir/edoskill360-sub000/internal/config"
	"github.com/sirrryasir/edoskill360-sub000/internal/models"
)

// QuestionOracle is the external question-generation and answer-evaluation
// dependency. Both calls are fallible and timeout-bound; whatever they return
// is persisted verbatim on the session, never re-derived later.
type QuestionOracle interface {
	GenerateQuestions(ctx context.Context, skill string, difficulty string, count int) ([]models.GeneratedQuestion, error)
	EvaluateAnswer(ctx context.Context, question models.GeneratedQuestion, answer string) (models.AnswerEvaluation, error)
}

// httpOracle talks to the oracle service over HTTP.
type httpOracle struct {
	cfg    *config.Config
	client *http.Client
}

// NewHTTPOracle creates a QuestionOracle backed by the configured oracle
// endpoint. Requests use the configured timeout; on a timeout the call is
// retried once internally before the failure surfaces.
func NewHTTPOracle(cfg *config.Config) QuestionOracle {
	return &httpOracle{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.OracleTimeout},
	}
}

type generateRequest struct {
	Skill      string `json:"skill"`
	Difficulty string `json:"difficulty"`
	Count      int    `json:"count"`
}

type generateResponse struct {
	Questions []models.GeneratedQuestion `json:"questions"`
}

type evaluateRequest struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

type evaluateResponse struct {
	Score    int    `json:"score"`
	Feedback string `json:"feedback"`
	Passed   bool   `json:"passed"`
}

func (o *httpOracle) GenerateQuestions(ctx context.Context, skill, difficulty string, count int) ([]models.GeneratedQuestion, error) {
	var resp generateResponse
	err := o.post(ctx, "/v1/questions/generate", generateRequest{Skill: skill, Difficulty: difficulty, Count: count}, &resp)
	if err != nil {
		return nil, &OracleUnavailableError{Op: "generate", Err: err}
	}
	if len(resp.Questions) == 0 {
		return nil, &OracleUnavailableError{Op: "generate", Err: errors.New("oracle returned no questions")}
	}
	return resp.Questions, nil
}

func (o *httpOracle) EvaluateAnswer(ctx context.Context, question models.GeneratedQuestion, answer string) (models.AnswerEvaluation, error) {
	var resp evaluateResponse
	err := o.post(ctx, "/v1/answers/evaluate", evaluateRequest{Question: question.Prompt, Answer: answer}, &resp)
	if err != nil {
		return models.AnswerEvaluation{}, &OracleUnavailableError{Op: "evaluate", Err: err}
	}
	if resp.Score < 0 || resp.Score > 100 {
		return models.AnswerEvaluation{}, &OracleUnavailableError{Op: "evaluate", Err: fmt.Errorf("score %d out of range", resp.Score)}
	}
	return models.AnswerEvaluation{Score: resp.Score, Feedback: resp.Feedback, Passed: resp.Passed}, nil
}

// post sends one JSON request and decodes the response, retrying once on a
// deadline/timeout error.
func (o *httpOracle) post(ctx context.Context, path string, payload, out interface{}) error {
	err := o.doPost(ctx, path, payload, out)
	if err != nil && (errors.Is(err, context.DeadlineExceeded) || isTimeout(err)) {
		err = o.doPost(ctx, path, payload, out)
	}
	return err
}

func (o *httpOracle) doPost(ctx context.Context, path string, payload, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal oracle request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.cfg.OracleURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build oracle request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if o.cfg.OracleAPIKey != "" {
		req.Header.Set("Authorization", "Bearer "+o.cfg.OracleAPIKey)
	}

	resp, err := o.client.Do(req)
	if err != nil {
		return fmt.Errorf("oracle request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("oracle returned status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode oracle response: %w", err)
	}
	return nil
}

func isTimeout(err error) bool {
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}
