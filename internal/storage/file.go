package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/RecoveryAshes/ModelHarvest/internal/models"
	"github.com/RecoveryAshes/ModelHarvest/internal/utils"
)

// FileStore 基于数据目录的JSON文件存储
type FileStore struct {
	dir string
}

// NewFileStore 创建文件存储,必要时创建数据目录
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, &models.PersistenceError{Key: dir, Op: "init", Cause: err}
	}
	return &FileStore{dir: dir}, nil
}

// Dir 返回数据目录
func (fs *FileStore) Dir() string {
	return fs.dir
}

// Path 返回键对应的文件路径
func (fs *FileStore) Path(key string) string {
	return filepath.Join(fs.dir, filepath.FromSlash(key))
}

// Load 读取JSON文件
func (fs *FileStore) Load(key string, v any) (bool, error) {
	data, err := os.ReadFile(fs.Path(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, &models.PersistenceError{Key: key, Op: "load", Cause: err}
	}

	if err := decode(key, data, v); err != nil {
		return false, err
	}

	utils.Debugf("读取文档: %s (%d bytes)", key, len(data))
	return true, nil
}

// Save 原子写入JSON文件: 先写临时文件再重命名,
// 任何时刻磁盘上都是一份完整的文档
func (fs *FileStore) Save(key string, v any) error {
	data, err := encode(v)
	if err != nil {
		return &models.PersistenceError{Key: key, Op: "save", Cause: fmt.Errorf("序列化JSON失败: %w", err)}
	}

	target := fs.Path(key)
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return &models.PersistenceError{Key: key, Op: "save", Cause: err}
	}

	tmp, err := os.CreateTemp(filepath.Dir(target), ".tmp-"+filepath.Base(target)+"-*")
	if err != nil {
		return &models.PersistenceError{Key: key, Op: "save", Cause: err}
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return &models.PersistenceError{Key: key, Op: "save", Cause: err}
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return &models.PersistenceError{Key: key, Op: "save", Cause: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return &models.PersistenceError{Key: key, Op: "save", Cause: err}
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		utils.Warnf("设置文件权限失败 [%s]: %v", tmpName, err)
	}

	if err := os.Rename(tmpName, target); err != nil {
		os.Remove(tmpName)
		return &models.PersistenceError{Key: key, Op: "save", Cause: err}
	}

	utils.Debugf("写入文档: %s (%d bytes)", key, len(data))
	return nil
}
