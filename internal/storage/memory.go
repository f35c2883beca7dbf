package storage

import (
	"sync"

	"github.com/RecoveryAshes/ModelHarvest/internal/models"
)

// MemoryStore 内存存储,主要用于测试
type MemoryStore struct {
	mu     sync.RWMutex
	docs   map[string][]byte
	saves  map[string]int
	failOn map[string]error
}

// NewMemoryStore 创建内存存储
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		docs:   make(map[string][]byte),
		saves:  make(map[string]int),
		failOn: make(map[string]error),
	}
}

// Load 读取文档
func (ms *MemoryStore) Load(key string, v any) (bool, error) {
	ms.mu.RLock()
	data, ok := ms.docs[key]
	ms.mu.RUnlock()

	if !ok {
		return false, nil
	}
	if err := decode(key, data, v); err != nil {
		return false, err
	}
	return true, nil
}

// Save 写入文档(保存编码后的副本,之后修改原对象不影响已存内容)
func (ms *MemoryStore) Save(key string, v any) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	if err, ok := ms.failOn[key]; ok {
		return &models.PersistenceError{Key: key, Op: "save", Cause: err}
	}

	data, err := encode(v)
	if err != nil {
		return &models.PersistenceError{Key: key, Op: "save", Cause: err}
	}
	ms.docs[key] = data
	ms.saves[key]++
	return nil
}

// Put 直接写入原始内容(不计入写入次数)
func (ms *MemoryStore) Put(key string, raw []byte) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.docs[key] = raw
}

// Raw 返回原始内容
func (ms *MemoryStore) Raw(key string) ([]byte, bool) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	data, ok := ms.docs[key]
	return data, ok
}

// SaveCount 返回某个键的写入次数
func (ms *MemoryStore) SaveCount(key string) int {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	return ms.saves[key]
}

// FailSave 使某个键后续的写入返回错误
func (ms *MemoryStore) FailSave(key string, err error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.failOn[key] = err
}
