// pkg/store/store.go
package store

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"MoonSniper/pkg/model"
)

// Store 规则文档存储，负责 alerts.json 的读写
// 每轮扫描整体读入、整体写回，不支持局部更新
type Store struct {
	path string
}

// NewStore 创建规则存储
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path 返回文档路径
func (s *Store) Path() string {
	return s.path
}

// Load 读取规则文档
// 文件不存在或解析失败时返回空文档，保证守护进程可以冷启动
func (s *Store) Load() (*model.AlertDocument, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return model.NewAlertDocument(), nil
		}
		return nil, fmt.Errorf("读取规则文档失败: %w", err)
	}

	var doc model.AlertDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		log.Printf("[Store] 规则文档损坏，使用空文档: %v", err)
		return model.NewAlertDocument(), nil
	}

	doc.Normalize()
	return &doc, nil
}

// Save 整体写回规则文档
// 先写同目录临时文件再rename，部分写入不会破坏上一份有效文档
func (s *Store) Save(doc *model.AlertDocument) error {
	doc.Normalize()

	data, err := json.MarshalIndent(doc, "", "    ")
	if err != nil {
		return fmt.Errorf("序列化规则文档失败: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("创建规则目录失败: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".alerts-*.json")
	if err != nil {
		return fmt.Errorf("创建临时文件失败: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("写入临时文件失败: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("关闭临时文件失败: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("替换规则文档失败: %w", err)
	}

	return nil
}
