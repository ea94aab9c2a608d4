// Package persona 人设注册表：内置人设加上可热加载的 YAML 人设包。
package persona

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/heartline/heartline/internal/domain/entity"
)

// builtins 内置人设，随二进制发布。YAML 包里的同名条目会覆盖它们。
var builtins = []entity.Persona{
	{
		ID:          "c1",
		Name:        "Taylor",
		Description: "Warm, playful, a little sarcastic. Loves coffee and long walks.",
		System:      "You are Taylor, warm and playful with a dry sense of humor. You like the user but you notice effort. Keep texts short.",
	},
	{
		ID:          "c2",
		Name:        "Alex",
		Description: "Outdoorsy and direct. Hates flaky people.",
		System:      "You are Alex, direct and adventurous. You respect honesty and punctuality. Keep texts short.",
	},
	{
		ID:          "c3",
		Name:        "Casey",
		Description: "Bookish, thoughtful, slow to open up.",
		System:      "You are Casey, introspective and a careful texter. You warm up to people who listen. Keep texts short.",
	},
}

// Registry 按会话解析人设。解析顺序：会话自带的覆盖 > 按 ID 匹配 >
// 按名字匹配（不区分大小写）> 通用兜底。
type Registry struct {
	mu       sync.RWMutex
	byID     map[string]entity.Persona
	byName   map[string]entity.Persona
	packPath string
	logger   *zap.Logger
}

// NewRegistry 创建注册表并装载内置人设。packPath 为空时只用内置人设。
func NewRegistry(packPath string, logger *zap.Logger) *Registry {
	r := &Registry{
		packPath: packPath,
		logger:   logger.With(zap.String("component", "persona-registry")),
	}
	r.install(builtins)
	return r
}

// LoadPack 读取 YAML 人设包并与内置人设合并。文件缺失不算错误。
func (r *Registry) LoadPack() error {
	if r.packPath == "" {
		return nil
	}

	data, err := os.ReadFile(r.packPath)
	if err != nil {
		if os.IsNotExist(err) {
			r.logger.Info("Persona pack not found, using builtins only",
				zap.String("path", r.packPath))
			return nil
		}
		return fmt.Errorf("read persona pack: %w", err)
	}

	var pack struct {
		Personas []entity.Persona `yaml:"personas"`
	}
	if err := yaml.Unmarshal(data, &pack); err != nil {
		return fmt.Errorf("parse persona pack: %w", err)
	}

	merged := make([]entity.Persona, 0, len(builtins)+len(pack.Personas))
	merged = append(merged, builtins...)
	merged = append(merged, pack.Personas...)
	r.install(merged)

	r.logger.Info("Persona pack loaded",
		zap.String("path", r.packPath),
		zap.Int("personas", len(pack.Personas)),
	)
	return nil
}

// Resolve 为一个会话解析出人设
func (r *Registry) Resolve(conv *entity.Conversation) entity.Persona {
	// 会话级覆盖优先
	if desc, system := conv.PersonaDescription(), conv.PersonaSystem(); desc != "" || system != "" {
		description := desc
		if description == "" {
			description = "Custom persona."
		}
		return entity.Persona{
			ID:          conv.ID(),
			Name:        conv.Name(),
			Description: description,
			System:      system,
		}
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if p, ok := r.byID[conv.ID()]; ok {
		return p
	}
	if p, ok := r.byName[strings.ToLower(conv.Name())]; ok {
		return p
	}
	return entity.GenericPersona(conv.ID(), conv.Name())
}

// All 返回当前已注册的全部人设
func (r *Registry) All() []entity.Persona {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]bool, len(r.byID))
	out := make([]entity.Persona, 0, len(r.byID))
	for _, p := range r.byID {
		if !seen[p.ID] {
			seen[p.ID] = true
			out = append(out, p)
		}
	}
	return out
}

func (r *Registry) install(personas []entity.Persona) {
	byID := make(map[string]entity.Persona, len(personas))
	byName := make(map[string]entity.Persona, len(personas))
	for _, p := range personas {
		if p.ID != "" {
			byID[p.ID] = p
		}
		if p.Name != "" {
			byName[strings.ToLower(p.Name)] = p
		}
	}

	r.mu.Lock()
	r.byID = byID
	r.byName = byName
	r.mu.Unlock()
}
