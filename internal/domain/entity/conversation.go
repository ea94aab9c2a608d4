package entity

import "time"

// 进度与生命值的领域常量。兴趣值始终落在 [MinProgress, MaxProgress]，
// 未通过测验前对外展示的进度被封顶在 QuizGate。
const (
	MinProgress     = 0
	MaxProgress     = 100
	DefaultProgress = 50
	QuizGate        = 80
	MaxLives        = 3
)

// Conversation 会话实体：一个模拟聊天对象及其闯关状态。
// progress/lives/unlocked/quizPassed 的所有变更都必须经过实体方法，
// 以保证不变量（区间約束、解锁单调性）不被绕过。
type Conversation struct {
	id         string
	name       string
	phone      string
	position   int // 会话序列中的显式位置，级联解锁按此顺序进行
	progress   int
	unlocked   bool
	lives      int
	quizPassed bool

	// 可选的逐会话人设覆盖
	personaDescription string
	personaSystem      string

	createdAt time.Time
}

// NewConversation 创建新会话（工厂方法）。初始进度 50、生命值 3。
func NewConversation(id, name string, position int, unlocked bool) (*Conversation, error) {
	if id == "" {
		return nil, ErrInvalidConversationID
	}
	if name == "" {
		return nil, ErrInvalidConversationName
	}

	return &Conversation{
		id:        id,
		name:      name,
		position:  position,
		progress:  DefaultProgress,
		unlocked:  unlocked,
		lives:     MaxLives,
		createdAt: time.Now(),
	}, nil
}

// ReconstructConversation 重建会话（用于从持久化层恢复）。
// 不做默认值填补，归一化由 Roster 负责。
func ReconstructConversation(
	id, name, phone string,
	position, progress int,
	unlocked bool,
	lives int,
	quizPassed bool,
	personaDescription, personaSystem string,
	createdAt time.Time,
) *Conversation {
	return &Conversation{
		id:                 id,
		name:               name,
		phone:              phone,
		position:           position,
		progress:           clampProgress(progress),
		unlocked:           unlocked,
		lives:              clampLives(lives),
		quizPassed:         quizPassed,
		personaDescription: personaDescription,
		personaSystem:      personaSystem,
		createdAt:          createdAt,
	}
}

// ID 返回会话ID
func (c *Conversation) ID() string { return c.id }

// Name 返回显示名称（同时用于人设查找）
func (c *Conversation) Name() string { return c.name }

// Phone 返回可选的电话号码
func (c *Conversation) Phone() string { return c.phone }

// SetPhone 设置电话号码
func (c *Conversation) SetPhone(phone string) { c.phone = phone }

// Position 返回会话在序列中的位置
func (c *Conversation) Position() int { return c.position }

// Progress 返回存储的兴趣值
func (c *Conversation) Progress() int { return c.progress }

// Unlocked 返回是否已解锁
func (c *Conversation) Unlocked() bool { return c.unlocked }

// Lives 返回剩余生命值
func (c *Conversation) Lives() int { return c.lives }

// QuizPassed 返回是否已通过测验
func (c *Conversation) QuizPassed() bool { return c.quizPassed }

// PersonaDescription 返回逐会话人设描述覆盖
func (c *Conversation) PersonaDescription() string { return c.personaDescription }

// PersonaSystem 返回逐会话 system 提示覆盖
func (c *Conversation) PersonaSystem() string { return c.personaSystem }

// SetPersonaOverride 设置逐会话人设覆盖
func (c *Conversation) SetPersonaOverride(description, system string) {
	c.personaDescription = description
	c.personaSystem = system
}

// CreatedAt 返回创建时间
func (c *Conversation) CreatedAt() time.Time { return c.createdAt }

// SetProgress 设置兴趣值，区间外的值被截断到 [0,100]。
// 门控（未过测验封顶 80）是进度引擎的职责，这里只保证硬区间。
func (c *Conversation) SetProgress(p int) {
	c.progress = clampProgress(p)
}

// DisplayProgress 返回对外展示的进度：未通过测验时在读侧再次封顶 80。
// 写侧门控已经保证了这一点，读侧重复夹取是刻意保留的兜底。
func (c *Conversation) DisplayProgress() int {
	if !c.quizPassed && c.progress > QuizGate {
		return QuizGate
	}
	return c.progress
}

// IsComplete 判断会话是否已通关（展示进度到达 100）
func (c *Conversation) IsComplete() bool {
	return c.DisplayProgress() >= MaxProgress
}

// Unlock 解锁会话。解锁是单调的：不存在反向操作。
func (c *Conversation) Unlock() {
	c.unlocked = true
}

// LoseLife 扣除一条生命，下限为 0。
func (c *Conversation) LoseLife() {
	if c.lives > 0 {
		c.lives--
	}
}

// PassQuiz 标记测验通过，此后 80 封顶不再生效。
func (c *Conversation) PassQuiz() {
	c.quizPassed = true
}

func clampProgress(p int) int {
	if p < MinProgress {
		return MinProgress
	}
	if p > MaxProgress {
		return MaxProgress
	}
	return p
}

func clampLives(l int) int {
	if l < 0 {
		return 0
	}
	if l > MaxLives {
		return MaxLives
	}
	return l
}
