package assistant

import (
	"context"
	"strings"
	"sync"

	"schema-assistant-api/internal/application/schema"
	"schema-assistant-api/internal/domain/entity"
	apperrors "schema-assistant-api/pkg/errors"
	"schema-assistant-api/pkg/logger"
	"schema-assistant-api/pkg/metrics"
)

// 默认生成参数
const (
	DefaultTemperature = 0.7
	DefaultMaxTokens   = 2000
)

var (
	ErrEmptyMessage  = apperrors.New(apperrors.CodeInvalidParam, "message must not be blank")
	ErrNoModel       = apperrors.New(apperrors.CodeInvalidParam, "no model selected")
	ErrSessionClosed = apperrors.New(apperrors.CodeConflict, "session is closed")
)

// Options 会话控制参数
type Options struct {
	Temperature float32
	MaxTokens   int
	// MaxHistoryTurns 每次发送回放的历史轮数上限，0 表示全部回放
	MaxHistoryTurns int
}

// DefaultOptions 返回默认会话控制参数
func DefaultOptions() Options {
	return Options{
		Temperature: DefaultTemperature,
		MaxTokens:   DefaultMaxTokens,
	}
}

// SendResult 一次发送的结果
type SendResult struct {
	UserTurn        entity.ChatTurn  `json:"user_turn"`
	ReplyTurn       *entity.ChatTurn `json:"reply_turn,omitempty"`
	Artifact        string           `json:"artifact"`
	ArtifactChanged bool             `json:"artifact_changed"`
	// Failed 表示上游调用失败，ReplyTurn 为错误提示
	Failed bool `json:"failed"`
	// Discarded 表示会话在等待回复期间已关闭，回复被丢弃
	Discarded bool `json:"discarded"`
	// SubjectChanged 表示等待回复期间 subject 已切换，回复中的方案不再采纳
	SubjectChanged bool `json:"subject_changed,omitempty"`
}

// Snapshot 会话状态快照
type Snapshot struct {
	ID         string               `json:"id"`
	State      entity.ChatState     `json:"state"`
	Model      string               `json:"model"`
	Context    entity.SchemaContext `json:"context"`
	Artifact   string               `json:"artifact"`
	TurnCount  int                  `json:"turn_count"`
	Transcript []entity.ChatTurn    `json:"-"`
}

// Controller 单个会话的控制器
// 独占会话记录与候选方案；同一时刻只允许一次发送
type Controller struct {
	id       string
	provider ChatProvider
	opts     Options

	mu        sync.Mutex
	state     entity.ChatState
	closed    bool
	model     string
	schemaCtx entity.SchemaContext
	turns     []entity.ChatTurn
	artifact  string

	turnObservers     []TurnObserver
	artifactObservers []ArtifactObserver
}

// NewController 创建会话控制器
func NewController(id string, sc entity.SchemaContext, model string, provider ChatProvider, opts Options) *Controller {
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = DefaultMaxTokens
	}
	return &Controller{
		id:        id,
		provider:  provider,
		opts:      opts,
		state:     entity.ChatStateIdle,
		model:     model,
		schemaCtx: sc,
	}
}

// ID 返回会话 ID
func (c *Controller) ID() string {
	return c.id
}

// AddTurnObserver 注册会话记录观察者
func (c *Controller) AddTurnObserver(o TurnObserver) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.turnObservers = append(c.turnObservers, o)
}

// AddArtifactObserver 注册候选方案观察者
func (c *Controller) AddArtifactObserver(o ArtifactObserver) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.artifactObservers = append(c.artifactObservers, o)
}

// Restore 用已持久化的记录恢复会话并重放候选方案，仅在会话尚无记录时生效
func (c *Controller) Restore(turns []entity.ChatTurn) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.turns) > 0 || len(turns) == 0 {
		return
	}
	c.turns = append([]entity.ChatTurn(nil), turns...)
	c.artifact = replayArtifact(turns)
}

// State 返回发送状态
func (c *Controller) State() entity.ChatState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Transcript 返回会话记录副本
func (c *Controller) Transcript() []entity.ChatTurn {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]entity.ChatTurn(nil), c.turns...)
}

// Artifact 返回当前候选方案，空字符串表示没有
func (c *Controller) Artifact() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.artifact
}

// Context 返回编辑上下文快照
func (c *Controller) Context() entity.SchemaContext {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.schemaCtx
}

// Model 返回当前选择的模型
func (c *Controller) Model() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.model
}

// SelectModel 切换模型，下一次发送生效
func (c *Controller) SelectModel(model string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.model = strings.TrimSpace(model)
}

// UpdateContext 替换编辑上下文；subject 变化时清空候选方案
func (c *Controller) UpdateContext(sc entity.SchemaContext) (artifactCleared bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if sc.Subject != c.schemaCtx.Subject && c.artifact != "" {
		c.artifact = ""
		artifactCleared = true
	}
	c.schemaCtx = sc
	return artifactCleared
}

// Snapshot 返回会话状态快照
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		ID:         c.id,
		State:      c.state,
		Model:      c.model,
		Context:    c.schemaCtx,
		Artifact:   c.artifact,
		TurnCount:  len(c.turns),
		Transcript: append([]entity.ChatTurn(nil), c.turns...),
	}
}

// Close 关闭会话，之后到达的回复将被丢弃
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

// Send 发送一条用户消息
// 上游失败不会作为错误返回，而是以 "Error: <message>" 助手消息追加到会话记录；
// 返回的 error 仅表示请求被拒绝（空消息、未选择模型、正在发送、会话已关闭）
func (c *Controller) Send(ctx context.Context, text string) (*SendResult, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyMessage
	}

	c.mu.Lock()
	switch {
	case c.closed:
		c.mu.Unlock()
		return nil, ErrSessionClosed
	case c.state == entity.ChatStateSending:
		c.mu.Unlock()
		return nil, apperrors.ErrSendInProgress
	case c.model == "":
		c.mu.Unlock()
		return nil, ErrNoModel
	}

	history := c.historyLocked()
	userTurn := *entity.NewChatTurn(c.id, entity.RoleUser, text)
	c.turns = append(c.turns, userTurn)
	c.state = entity.ChatStateSending
	sc := c.schemaCtx
	model := c.model
	c.mu.Unlock()

	ctx = logger.WithContext(ctx, logger.SessionIDKey, c.id)
	metrics.ChatTurnsTotal.WithLabelValues(string(entity.RoleUser), "appended").Inc()
	c.notifyTurn(ctx, userTurn)

	reply, callErr := c.call(ctx, sc, history, text, model)

	c.mu.Lock()
	c.state = entity.ChatStateIdle
	if c.closed {
		c.mu.Unlock()
		logger.Info(ctx, "session closed while waiting for reply, discarding response")
		return &SendResult{UserTurn: userTurn, Discarded: true}, nil
	}

	result := &SendResult{UserTurn: userTurn}
	var replyTurn entity.ChatTurn
	if callErr != nil {
		logger.Error(ctx, "failed to send chat message", callErr, "model", model)
		replyTurn = *entity.NewChatTurn(c.id, entity.RoleAssistant, "Error: "+errorMessage(callErr))
		result.Failed = true
	} else {
		replyTurn = *entity.NewChatTurn(c.id, entity.RoleAssistant, reply)
		result.SubjectChanged = c.schemaCtx.Subject != sc.Subject
		if proposal, ok := schema.ExtractProposal(reply); ok && !result.SubjectChanged {
			c.artifact = proposal
			result.ArtifactChanged = true
		}
	}
	c.turns = append(c.turns, replyTurn)
	result.ReplyTurn = &replyTurn
	result.Artifact = c.artifact
	c.mu.Unlock()

	status := "appended"
	if result.Failed {
		status = "error"
	}
	metrics.ChatTurnsTotal.WithLabelValues(string(entity.RoleAssistant), status).Inc()
	if result.SubjectChanged {
		logger.Info(ctx, "subject changed while waiting for reply, proposal ignored", "sent_subject", sc.Subject)
	}
	c.notifyTurn(ctx, replyTurn)
	if result.ArtifactChanged {
		c.notifyArtifact(ctx, result.Artifact)
	}
	return result, nil
}

func (c *Controller) call(ctx context.Context, sc entity.SchemaContext, history []entity.ChatTurn, text, model string) (string, error) {
	msgs, err := BuildMessages(ctx, sc, history, text)
	if err != nil {
		return "", err
	}
	return c.provider.Chat(ctx, ChatRequest{
		Model:       model,
		Messages:    msgs,
		Temperature: c.opts.Temperature,
		MaxTokens:   c.opts.MaxTokens,
	})
}

// historyLocked 返回本次发送需要回放的历史记录（调用方持有锁）
func (c *Controller) historyLocked() []entity.ChatTurn {
	turns := c.turns
	if n := c.opts.MaxHistoryTurns; n > 0 && len(turns) > n {
		turns = turns[len(turns)-n:]
	}
	return append([]entity.ChatTurn(nil), turns...)
}

func (c *Controller) notifyTurn(ctx context.Context, turn entity.ChatTurn) {
	c.mu.Lock()
	observers := append([]TurnObserver(nil), c.turnObservers...)
	c.mu.Unlock()
	for _, o := range observers {
		o.OnTurnAppended(ctx, turn)
	}
}

func (c *Controller) notifyArtifact(ctx context.Context, artifact string) {
	c.mu.Lock()
	observers := append([]ArtifactObserver(nil), c.artifactObservers...)
	c.mu.Unlock()
	for _, o := range observers {
		o.OnArtifactProposed(ctx, c.id, artifact)
	}
}

// errorMessage 取出展示给用户的错误信息
func errorMessage(err error) string {
	if apperrors.IsAppError(err) {
		if msg := apperrors.AsAppError(err).Message; msg != "" {
			return msg
		}
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return "Failed to send message"
}
