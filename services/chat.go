package services

import (
	"becky-backend/logger"
	"becky-backend/models"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	maxToolRounds   = 5
	maxHistoryTurns = 20
	apologyReply    = "I'm sorry, I'm having trouble processing your request right now. Please try again later."
)

// ChatModel is the part of the OpenAI client the assistant needs.
type ChatModel interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// ChatHistory keeps the recent conversation of each user.
type ChatHistory interface {
	Load(ctx context.Context, userID uuid.UUID) ([]models.ChatTurn, error)
	Append(ctx context.Context, userID uuid.UUID, turns ...models.ChatTurn) error
}

// ChatService runs the Becky assistant: it sends the conversation to the model
// and executes the tool calls the model asks for against the user's data.
type ChatService struct {
	db      *gorm.DB
	model   ChatModel
	name    string
	history ChatHistory
	ledger  *Ledger
	now     func() time.Time
}

func NewChatService(db *gorm.DB, model ChatModel, modelName string, history ChatHistory) *ChatService {
	if history == nil {
		history = NewContextHistory(db)
	}
	return &ChatService{
		db:      db,
		model:   model,
		name:    modelName,
		history: history,
		ledger:  NewLedger(db),
		now:     time.Now,
	}
}

func (s *ChatService) WithLedger(l *Ledger) *ChatService {
	s.ledger = l
	return s
}

// Reply answers one user message. Model failures become an apology reply,
// not an error.
func (s *ChatService) Reply(ctx context.Context, userID uuid.UUID, message string) (string, error) {
	if s.model == nil {
		return "", fmt.Errorf("assistant not configured: %w", ErrUnavailable)
	}
	message = strings.TrimSpace(message)
	if message == "" {
		return "", invalid("Message is required")
	}
	log := logger.FromContext(ctx)

	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", notFound("User not found")
		}
		return "", fmt.Errorf("load user: %w", err)
	}
	userCtx, err := loadUserContext(ctx, s.db, userID)
	if err != nil {
		return "", err
	}

	history, err := s.history.Load(ctx, userID)
	if err != nil {
		log.Warn("chat history unavailable", "error", err)
		history = nil
	}

	messages := []openai.ChatCompletionMessage{{
		Role:    openai.ChatMessageRoleSystem,
		Content: systemPrompt(user, userCtx),
	}}
	for _, turn := range history {
		messages = append(messages, openai.ChatCompletionMessage{Role: turn.Role, Content: turn.Content})
	}
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: message})

	reply := s.converse(ctx, userID, messages)

	now := s.now()
	if err := s.history.Append(ctx, userID,
		models.ChatTurn{Role: openai.ChatMessageRoleUser, Content: message, At: now},
		models.ChatTurn{Role: openai.ChatMessageRoleAssistant, Content: reply, At: now},
	); err != nil {
		log.Warn("saving chat history failed", "error", err)
	}
	if err := s.db.WithContext(ctx).Model(&models.UserContext{}).
		Where("user_id = ?", userID).
		Update("last_interaction", now).Error; err != nil {
		log.Warn("updating last interaction failed", "error", err)
	}
	return reply, nil
}

func (s *ChatService) converse(ctx context.Context, userID uuid.UUID, messages []openai.ChatCompletionMessage) string {
	log := logger.FromContext(ctx)

	for round := 0; round < maxToolRounds; round++ {
		resp, err := s.model.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model:      s.name,
			Messages:   messages,
			Tools:      beckyTools,
			ToolChoice: "auto",
		})
		if err != nil {
			log.Error("llm request failed", "error", err)
			return apologyReply
		}
		if len(resp.Choices) == 0 {
			log.Error("llm returned no choices")
			return apologyReply
		}

		msg := resp.Choices[0].Message
		if len(msg.ToolCalls) == 0 {
			return msg.Content
		}

		messages = append(messages, msg)
		for _, call := range msg.ToolCalls {
			log.Info("tool call", "tool", call.Function.Name)
			messages = append(messages, openai.ChatCompletionMessage{
				Role:       openai.ChatMessageRoleTool,
				Content:    s.dispatch(ctx, userID, call.Function.Name, call.Function.Arguments),
				ToolCallID: call.ID,
			})
		}
	}

	log.Warn("tool rounds exhausted", "rounds", maxToolRounds)
	return apologyReply
}

// dispatch runs one tool and returns its result as JSON. Failures are reported
// to the model as {"error": "..."} so it can explain them to the user.
func (s *ChatService) dispatch(ctx context.Context, userID uuid.UUID, name, arguments string) string {
	result, err := s.runTool(ctx, userID, name, arguments)
	if err != nil {
		msg, ok := PublicMessage(err)
		if !ok {
			logger.FromContext(ctx).Error("tool failed", "tool", name, "error", err)
			msg = "internal error"
		}
		result = map[string]string{"error": msg}
	}

	out, err := json.Marshal(result)
	if err != nil {
		return `{"error":"could not encode result"}`
	}
	return string(out)
}

func (s *ChatService) runTool(ctx context.Context, userID uuid.UUID, name, arguments string) (interface{}, error) {
	if strings.TrimSpace(arguments) == "" {
		arguments = "{}"
	}
	decode := func(v interface{}) error {
		if err := json.Unmarshal([]byte(arguments), v); err != nil {
			return invalid("invalid arguments for %s: %v", name, err)
		}
		return nil
	}

	switch name {
	case "get_monthly_expenses":
		var args struct {
			Month    string `json:"month"`
			Category string `json:"category"`
		}
		if err := decode(&args); err != nil {
			return nil, err
		}
		return NewMovementService(s.db).MonthlyExpenses(ctx, userID, args.Month, models.Concept(strings.ToLower(args.Category)))

	case "get_user_accounts":
		accounts, err := NewAccountService(s.db).List(ctx, userID)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{"accounts": accounts}, nil

	case "get_savings_progress":
		return s.savingsProgress(ctx, userID)

	case "create_movement":
		var args struct {
			AccountID string `json:"accountId"`
			models.CreateMovementRequest
		}
		if err := decode(&args); err != nil {
			return nil, err
		}
		accountID, err := uuid.Parse(args.AccountID)
		if err != nil {
			return nil, invalid("Invalid accountId")
		}
		return NewMovementService(s.db).Create(ctx, userID, accountID, args.CreateMovementRequest)

	case "create_shared_expense":
		var args models.SharedExpenseRequest
		if err := decode(&args); err != nil {
			return nil, err
		}
		return s.ledger.CreateSharedExpense(ctx, userID, args)

	case "create_simple_loan":
		var args models.SimpleLoanRequest
		if err := decode(&args); err != nil {
			return nil, err
		}
		return s.ledger.CreateSimpleLoan(ctx, userID, args)

	case "get_pending_loans":
		return s.ledger.GetPendingLoans(ctx, userID)

	case "settle_loan":
		var args struct {
			MovementID string `json:"movementId"`
			models.SettleLoanRequest
		}
		if err := decode(&args); err != nil {
			return nil, err
		}
		movementID, err := uuid.Parse(args.MovementID)
		if err != nil {
			return nil, invalid("Invalid movementId")
		}
		return s.ledger.SettleLoan(ctx, userID, movementID, args.SettleLoanRequest)
	}
	return nil, invalid("unknown tool %q", name)
}

type SavingsProgress struct {
	CurrentSavings     decimal.Decimal `json:"currentSavings"`
	SavingsGoal        decimal.Decimal `json:"savingsGoal"`
	ProgressPercentage decimal.Decimal `json:"progressPercentage"`
	Remaining          decimal.Decimal `json:"remaining"`
}

func (s *ChatService) savingsProgress(ctx context.Context, userID uuid.UUID) (*SavingsProgress, error) {
	userCtx, err := loadUserContext(ctx, s.db, userID)
	if err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)
	owned := db.Model(&models.Account{}).Select("id").Where("user_id = ?", userID)
	var movements []models.Movement
	if err := db.Select("amount").
		Where("account_id IN (?) AND concept = ?", owned, models.ConceptSavings).
		Find(&movements).Error; err != nil {
		return nil, fmt.Errorf("load savings: %w", err)
	}

	progress := &SavingsProgress{
		CurrentSavings:     decimal.Zero,
		SavingsGoal:        decimal.NewFromFloat(userCtx.Preferences.SavingsGoal).Round(2),
		ProgressPercentage: decimal.Zero,
	}
	for _, m := range movements {
		progress.CurrentSavings = progress.CurrentSavings.Add(m.Amount)
	}
	if progress.SavingsGoal.IsPositive() {
		progress.ProgressPercentage = progress.CurrentSavings.
			Div(progress.SavingsGoal).Mul(decimal.NewFromInt(100)).Round(2)
	}
	progress.Remaining = decimal.Max(decimal.Zero, progress.SavingsGoal.Sub(progress.CurrentSavings))
	return progress, nil
}

// loadUserContext returns the user's context, creating the default one for
// users registered before contexts existed.
func loadUserContext(ctx context.Context, db *gorm.DB, userID uuid.UUID) (*models.UserContext, error) {
	userCtx := models.UserContext{
		UserID:      userID,
		Preferences: models.DefaultPreferences(),
	}
	err := db.WithContext(ctx).Where(models.UserContext{UserID: userID}).FirstOrCreate(&userCtx).Error
	if err != nil {
		return nil, fmt.Errorf("load user context: %w", err)
	}
	return &userCtx, nil
}

func systemPrompt(user models.User, userCtx *models.UserContext) string {
	contextJSON, _ := json.Marshal(map[string]interface{}{
		"preferences":     userCtx.Preferences,
		"lastInteraction": userCtx.LastInteraction,
	})

	var tools strings.Builder
	for _, t := range beckyTools {
		fmt.Fprintf(&tools, "- %s: %s\n", t.Function.Name, t.Function.Description)
	}

	return fmt.Sprintf(`You are Becky, an AI personal bookkeeper. You help users manage their finances by analyzing their spending patterns and providing insights.

User: %s
Today: %s
Current Context: %s

Available Tools:
%s
Always be helpful, friendly, and provide actionable financial advice. When you need data or the user asks you to record something, use the available tools. Never invent account or movement ids: look them up first.`,
		user.Name, time.Now().Format("2006-01-02"), contextJSON, tools.String())
}

func obj(required []string, props map[string]jsonschema.Definition) jsonschema.Definition {
	if required == nil {
		required = []string{}
	}
	return jsonschema.Definition{Type: jsonschema.Object, Properties: props, Required: required}
}

func tool(name, description string, params jsonschema.Definition) openai.Tool {
	return openai.Tool{
		Type: openai.ToolTypeFunction,
		Function: &openai.FunctionDefinition{
			Name:        name,
			Description: description,
			Parameters:  params,
		},
	}
}

var (
	strField    = jsonschema.Definition{Type: jsonschema.String}
	numField    = jsonschema.Definition{Type: jsonschema.Number}
	dateField   = jsonschema.Definition{Type: jsonschema.String, Description: "YYYY-MM-DD"}
	conceptEnum = jsonschema.Definition{Type: jsonschema.String, Enum: []string{"needs", "wants", "savings", "others"}}
)

var beckyTools = []openai.Tool{
	tool("get_monthly_expenses", "Get total expenses for a specific month and category", obj(
		[]string{"month", "category"},
		map[string]jsonschema.Definition{
			"month":    {Type: jsonschema.String, Description: "Month name (e.g., January, February)"},
			"category": {Type: jsonschema.String, Description: "Expense category (needs, wants, savings, others or all)"},
		})),
	tool("get_user_accounts", "List the user's accounts with their latest movements", obj(nil, map[string]jsonschema.Definition{})),
	tool("get_savings_progress", "Compare the user's savings with their savings goal", obj(nil, map[string]jsonschema.Definition{})),
	tool("create_movement", "Record an income or expense in an account", obj(
		[]string{"accountId", "type", "concept", "amount", "description", "date"},
		map[string]jsonschema.Definition{
			"accountId":   strField,
			"type":        {Type: jsonschema.String, Enum: []string{"income", "expense"}},
			"concept":     conceptEnum,
			"amount":      numField,
			"description": strField,
			"date":        dateField,
			"category":    strField,
		})),
	tool("create_shared_expense", "Record an expense the user paid in full and split with others", obj(
		[]string{"accountId", "totalAmount", "participants", "description", "date"},
		map[string]jsonschema.Definition{
			"accountId":        strField,
			"totalAmount":      numField,
			"participants":     {Type: jsonschema.Integer, Description: "People sharing the expense, the user included (at least 2)"},
			"description":      strField,
			"date":             dateField,
			"category":         strField,
			"concept":          conceptEnum,
			"participantsList": {Type: jsonschema.Array, Items: &strField},
		})),
	tool("create_simple_loan", "Record money the user lent to or borrowed from someone", obj(
		[]string{"accountId", "amount", "loanType", "description", "date"},
		map[string]jsonschema.Definition{
			"accountId":     strField,
			"amount":        numField,
			"loanType":      {Type: jsonschema.String, Enum: []string{"lent", "borrowed"}},
			"description":   strField,
			"date":          dateField,
			"category":      strField,
			"relatedPerson": strField,
		})),
	tool("get_pending_loans", "List the user's active loans and what is still pending", obj(nil, map[string]jsonschema.Definition{})),
	tool("settle_loan", "Record a payment against a loan; without amountPaid the loan is paid in full", obj(
		[]string{"movementId"},
		map[string]jsonschema.Definition{
			"movementId": strField,
			"amountPaid": numField,
		})),
}

// ContextHistory stores the conversation on the user's context row.
type ContextHistory struct {
	db *gorm.DB
}

func NewContextHistory(db *gorm.DB) *ContextHistory {
	return &ContextHistory{db: db}
}

func (h *ContextHistory) Load(ctx context.Context, userID uuid.UUID) ([]models.ChatTurn, error) {
	userCtx, err := loadUserContext(ctx, h.db, userID)
	if err != nil {
		return nil, err
	}
	return userCtx.ConversationHistory, nil
}

func (h *ContextHistory) Append(ctx context.Context, userID uuid.UUID, turns ...models.ChatTurn) error {
	userCtx, err := loadUserContext(ctx, h.db, userID)
	if err != nil {
		return err
	}
	all := append(userCtx.ConversationHistory, turns...)
	if len(all) > maxHistoryTurns {
		all = all[len(all)-maxHistoryTurns:]
	}
	userCtx.ConversationHistory = all
	if err := h.db.WithContext(ctx).Model(userCtx).Select("conversation_history").Updates(userCtx).Error; err != nil {
		return fmt.Errorf("save chat history: %w", err)
	}
	return nil
}

// RedisHistory keeps the conversation in a capped Redis list per user.
type RedisHistory struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisHistory(rdb *redis.Client) *RedisHistory {
	return &RedisHistory{rdb: rdb, ttl: 30 * 24 * time.Hour}
}

func historyKey(userID uuid.UUID) string {
	return "becky:chat:" + userID.String()
}

func (h *RedisHistory) Load(ctx context.Context, userID uuid.UUID) ([]models.ChatTurn, error) {
	raw, err := h.rdb.LRange(ctx, historyKey(userID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("load chat history: %w", err)
	}
	turns := make([]models.ChatTurn, 0, len(raw))
	for _, item := range raw {
		var turn models.ChatTurn
		if err := json.Unmarshal([]byte(item), &turn); err != nil {
			continue
		}
		turns = append(turns, turn)
	}
	return turns, nil
}

func (h *RedisHistory) Append(ctx context.Context, userID uuid.UUID, turns ...models.ChatTurn) error {
	key := historyKey(userID)
	values := make([]interface{}, 0, len(turns))
	for _, turn := range turns {
		b, err := json.Marshal(turn)
		if err != nil {
			return fmt.Errorf("encode chat turn: %w", err)
		}
		values = append(values, string(b))
	}

	pipe := h.rdb.TxPipeline()
	pipe.RPush(ctx, key, values...)
	pipe.LTrim(ctx, key, -maxHistoryTurns, -1)
	pipe.Expire(ctx, key, h.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save chat history: %w", err)
	}
	return nil
}
