package http

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"survey-builder/internal/app"
	"survey-builder/internal/builder"
	"survey-builder/internal/domain"
)

type WSHandler struct {
	service  *app.BuilderService
	logger   *zap.Logger
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.BuilderService, logger *zap.Logger) *WSHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WSHandler{
		service: service,
		logger:  logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// commandPayload is the union of every command's fields. Missing indices
// decode as nil and are passed on as -1, which the store ignores.
type commandPayload struct {
	Index         *int                `json:"index"`
	QuestionIndex *int                `json:"questionIndex"`
	OptionIndex   *int                `json:"optionIndex"`
	Source        *int                `json:"source"`
	Destination   *int                `json:"destination"`
	Type          domain.QuestionType `json:"type"`
	Text          string              `json:"text"`
	OptionID      string              `json:"optionId"`
	QuestionID    string              `json:"questionId"`
	Value         any                 `json:"value"`
	NumQuestions  int                 `json:"numQuestions"`
	Language      string              `json:"language"`
	SurveyID      string              `json:"surveyId"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

type answerPayload struct {
	QuestionID string `json:"questionId"`
	Value      any    `json:"value"`
}

type responseSavedPayload struct {
	ResponseID int64 `json:"responseId"`
}

// ServeWS upgrades HTTP requests to websockets and binds them to one draft's builder session.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	draftID := r.URL.Query().Get("draftId")
	if draftID == "" {
		http.Error(w, "missing draftId", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("ws upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	// Generation outlives the request so a closed tab does not cancel it.
	ctx := context.WithoutCancel(r.Context())
	logger := h.logger.With(zap.String("draft_id", draftID))

	session, err := h.service.Open(ctx, draftID)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}
	defer h.service.Close(ctx, draftID)

	updates, cancel := session.Subscribe()
	defer cancel()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				logger.Debug("ws write error", zap.Error(err))
				return
			}
		}
	}()

	emit := func(msgType string, payload any) {
		select {
		case send <- outboundMessage[any]{Type: msgType, Payload: payload}:
		case <-writerDone:
		}
	}
	emitError := func(err error) {
		emit("error", errorPayload{Message: err.Error()})
	}

	go func() {
		defer close(updatesDone)
		for {
			select {
			case update, ok := <-updates:
				if !ok {
					return
				}
				select {
				case send <- outboundMessage[any]{Type: "draft", Payload: update}:
				case <-closeSignals:
					return
				case <-writerDone:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	var pending sync.WaitGroup
	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		var p commandPayload
		if len(inbound.Payload) > 0 {
			if err := json.Unmarshal(inbound.Payload, &p); err != nil {
				emit("error", errorPayload{Message: "invalid " + inbound.Type + " payload"})
				continue
			}
		}

		switch inbound.Type {
		case "addQuestion":
			if p.Type != "" && !p.Type.Valid() {
				emit("error", errorPayload{Message: "unsupported question type"})
				continue
			}
			session.Apply(func(s *builder.Store) { s.AddQuestion(p.Type) })
		case "deleteQuestion":
			session.Apply(func(s *builder.Store) { s.DeleteQuestion(index(p.Index)) })
		case "duplicateQuestion":
			session.Apply(func(s *builder.Store) { s.DuplicateQuestion(index(p.Index)) })
		case "setTitle":
			session.Apply(func(s *builder.Store) { s.SetTitle(index(p.Index), p.Text) })
		case "setType":
			if !p.Type.Valid() {
				emit("error", errorPayload{Message: "unsupported question type"})
				continue
			}
			session.Apply(func(s *builder.Store) { s.SetType(index(p.Index), p.Type) })
		case "addOption":
			session.Apply(func(s *builder.Store) { s.AddOption(index(p.QuestionIndex)) })
		case "setOptionText":
			session.Apply(func(s *builder.Store) { s.SetOptionText(index(p.QuestionIndex), index(p.OptionIndex), p.Text) })
		case "deleteOption":
			session.Apply(func(s *builder.Store) { s.DeleteOption(index(p.QuestionIndex), p.OptionID) })
		case "save":
			session.Apply(func(s *builder.Store) { s.Save(index(p.Index)) })
		case "unsave":
			session.Apply(func(s *builder.Store) { s.Unsave(index(p.Index)) })
		case "reorder":
			session.Apply(func(s *builder.Store) { s.Reorder(index(p.Source), p.Destination) })
		case "setSurveyTitle":
			session.Apply(func(s *builder.Store) { s.SetSurveyTitle(p.Text) })
		case "setSurveyDescription":
			session.Apply(func(s *builder.Store) { s.SetSurveyDescription(p.Text) })
		case "setBrief":
			session.SetBrief(ctx, p.Text)
		case "generate":
			pending.Add(1)
			go func(n int, lang string) {
				defer pending.Done()
				survey, err := session.Generate(ctx, n, lang)
				if err != nil {
					emitError(err)
					return
				}
				emit("generated", survey)
			}(p.NumQuestions, p.Language)
		case "setAnswer":
			emit("answer", answerPayload{QuestionID: p.QuestionID, Value: session.SetAnswer(ctx, p.QuestionID, p.Value)})
		case "toggleAnswer":
			emit("answer", answerPayload{QuestionID: p.QuestionID, Value: session.ToggleAnswer(ctx, p.QuestionID, p.OptionID)})
		case "submitResponses":
			pending.Add(1)
			go func(surveyID string) {
				defer pending.Done()
				id, err := session.SubmitResponses(ctx, surveyID)
				if err != nil {
					emitError(err)
					return
				}
				emit("responseSaved", responseSavedPayload{ResponseID: id})
			}(p.SurveyID)
		default:
			emit("error", errorPayload{Message: "unsupported message type"})
		}
	}

	pending.Wait()
	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}

func index(i *int) int {
	if i == nil {
		return -1
	}
	return *i
}
