package persona

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/heartline/heartline/pkg/safego"
)

// Watcher 监听人设包文件变更并触发热加载
type Watcher struct {
	registry *Registry
	watcher  *fsnotify.Watcher
	logger   *zap.Logger
}

// NewWatcher 创建文件监听器。注册表没有配置人设包路径时返回 nil。
func NewWatcher(registry *Registry, logger *zap.Logger) (*Watcher, error) {
	if registry.packPath == "" {
		return nil, nil
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	// 监听目录而不是文件本身，编辑器保存时常用重命名替换
	if err := fw.Add(filepath.Dir(registry.packPath)); err != nil {
		fw.Close()
		return nil, err
	}

	return &Watcher{
		registry: registry,
		watcher:  fw,
		logger:   logger.With(zap.String("component", "persona-watcher")),
	}, nil
}

// Start 在后台协程里消费文件事件，ctx 取消后退出
func (w *Watcher) Start(ctx context.Context) {
	safego.Go(w.logger, "persona-watcher", func() {
		target := filepath.Clean(w.registry.packPath)
		for {
			select {
			case <-ctx.Done():
				return

			case event, ok := <-w.watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != target {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
					continue
				}
				w.logger.Info("Persona pack changed, reloading",
					zap.String("path", event.Name),
					zap.String("op", event.Op.String()),
				)
				if err := w.registry.LoadPack(); err != nil {
					w.logger.Error("Persona pack reload failed", zap.Error(err))
				}

			case err, ok := <-w.watcher.Errors:
				if !ok {
					return
				}
				w.logger.Warn("Persona watcher error", zap.Error(err))
			}
		}
	})
}

// Close 停止监听
func (w *Watcher) Close() error {
	return w.watcher.Close()
}
